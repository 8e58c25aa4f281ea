package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/prop-ie/snag-api/internal/models"
)

// ErrPublishingDisabled is returned by a publisher built without a Redis client.
var ErrPublishingDisabled = errors.New("event publishing disabled")

// EventPublisher publishes snag events on a Redis pub/sub channel.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

// NewEventPublisher constructs a publisher. A nil client makes Publish return ErrPublishingDisabled.
func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// Publish sends the event and returns the number of subscribers that received it.
func (p *EventPublisher) Publish(ctx context.Context, event models.SnagEvent) (int64, error) {
	if p.client == nil {
		return 0, ErrPublishingDisabled
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("marshal snag event %s: %w", event.Type, err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return 0, fmt.Errorf("publish snag event %s: %w", event.Type, err)
	}
	return receivers, nil
}
