package analytics

import (
	"time"

	"github.com/prop-ie/snag-api/internal/models"
)

// Build assembles the detail payload for a snag list from one snapshot of its items and updates.
func Build(list models.SnagList, items []models.SnagItem, updates []models.SnagUpdateEntry, now time.Time, timelineLimit int) models.SnagListDetail {
	summary := Compute(items, now)
	return models.SnagListDetail{
		SnagList:        View(list, now),
		Analytics:       summary,
		Timeline:        BuildTimeline(updates, now, timelineLimit),
		Progress:        EstimateProgress(items, now),
		Recommendations: Recommend(summary),
		GeneratedAt:     now,
	}
}

// Insights returns the analytics-only projection used by the analytics endpoint and exports.
func Insights(listID string, items []models.SnagItem, now time.Time) models.SnagInsights {
	summary := Compute(items, now)
	return models.SnagInsights{
		SnagListID:      listID,
		Analytics:       summary,
		Progress:        EstimateProgress(items, now),
		Recommendations: Recommend(summary),
		GeneratedAt:     now,
	}
}

// View decorates a snag list with display fields.
func View(list models.SnagList, now time.Time) models.SnagListView {
	overdue, days := OverdueInfo(list.TargetCompletionDate, list.Status, now)
	return models.SnagListView{
		SnagList:        list,
		StatusDisplay:   StatusDisplay(string(list.Status)),
		PriorityDisplay: PriorityDisplay(list.Priority),
		CreatedAgo:      TimeAgo(list.CreatedAt, now),
		LastUpdatedAgo:  TimeAgo(list.UpdatedAt, now),
		IsOverdue:       overdue,
		DaysOverdue:     days,
	}
}
