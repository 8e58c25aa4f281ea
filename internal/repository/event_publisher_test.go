package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prop-ie/snag-api/internal/models"
)

func TestEventPublisherWithoutClientReportsDisabled(t *testing.T) {
	pub := NewEventPublisher(nil, "propie:snag-events")
	receivers, err := pub.Publish(context.Background(), models.SnagEvent{Type: models.SnagEventListCreated})
	assert.ErrorIs(t, err, ErrPublishingDisabled)
	assert.Zero(t, receivers)
}
