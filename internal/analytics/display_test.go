package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prop-ie/snag-api/internal/models"
)

func TestOverdueInfo(t *testing.T) {
	tests := []struct {
		name     string
		target   *time.Time
		status   models.SnagListStatus
		overdue  bool
		daysLate int
	}{
		{"no target", nil, models.SnagListStatusInProgress, false, 0},
		{"completed list", ptrTime(refNow.AddDate(0, 0, -3)), models.SnagListStatusCompleted, false, 0},
		{"cancelled list", ptrTime(refNow.AddDate(0, 0, -3)), models.SnagListStatusCancelled, false, 0},
		{"due exactly now", ptrTime(refNow), models.SnagListStatusInProgress, false, 0},
		{"future target", ptrTime(refNow.Add(time.Hour)), models.SnagListStatusDraft, false, 0},
		{"one hour late", ptrTime(refNow.Add(-time.Hour)), models.SnagListStatusInProgress, true, 1},
		{"25 hours late", ptrTime(refNow.Add(-25 * time.Hour)), models.SnagListStatusOnHold, true, 2},
		{"exactly two days late", ptrTime(refNow.Add(-48 * time.Hour)), models.SnagListStatusUnderReview, true, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			overdue, days := OverdueInfo(tc.target, tc.status, refNow)
			assert.Equal(t, tc.overdue, overdue)
			assert.Equal(t, tc.daysLate, days)
		})
	}
}
