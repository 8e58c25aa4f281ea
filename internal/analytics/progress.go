package analytics

import (
	"time"

	"github.com/prop-ie/snag-api/internal/models"
)

// EstimateProgress projects completion from the historical completion rate.
// The forecast is a naive linear extrapolation: it assumes the throughput observed since the
// first completion continues unchanged and gives no weight to priority.
func EstimateProgress(items []models.SnagItem, now time.Time) models.SnagProgress {
	type tally struct{ total, completed int }
	perPriority := map[models.SnagPriority]*tally{}
	for _, p := range models.SnagPriorities {
		perPriority[p] = &tally{}
	}

	completed := 0
	dated := 0
	var earliest time.Time
	for _, item := range items {
		t, known := perPriority[item.Priority]
		if known {
			t.total++
		}
		if !item.IsCompleted() {
			continue
		}
		completed++
		if known {
			t.completed++
		}
		if item.CompletedDate != nil {
			dated++
			if earliest.IsZero() || item.CompletedDate.Before(earliest) {
				earliest = *item.CompletedDate
			}
		}
	}

	progress := models.SnagProgress{
		Overall: percentage(completed, len(items)),
		ByPriority: models.PriorityProgress{
			Critical: percentage(perPriority[models.SnagPriorityCritical].completed, perPriority[models.SnagPriorityCritical].total),
			High:     percentage(perPriority[models.SnagPriorityHigh].completed, perPriority[models.SnagPriorityHigh].total),
			Medium:   percentage(perPriority[models.SnagPriorityMedium].completed, perPriority[models.SnagPriorityMedium].total),
			Low:      percentage(perPriority[models.SnagPriorityLow].completed, perPriority[models.SnagPriorityLow].total),
		},
		RemainingItems: len(items) - completed,
	}

	if dated == 0 {
		return progress
	}
	span := ceilDays(now.Sub(earliest))
	if span <= 0 {
		return progress
	}

	progress.VelocityPerDay = roundTo(float64(dated)/float64(span), 2)
	// ceil(remaining / (dated/span)) evaluated in integers.
	progress.EstimatedDaysRemaining = (progress.RemainingItems*span + dated - 1) / dated
	projected := now.AddDate(0, 0, progress.EstimatedDaysRemaining)
	progress.ProjectedCompletionDate = &projected
	return progress
}
