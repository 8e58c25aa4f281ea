package analytics

import (
	"fmt"

	"github.com/prop-ie/snag-api/internal/models"
)

const (
	lowCompletionThreshold  = 25
	nearCompletionThreshold = 75
	slowResolutionDays      = 7
)

// Recommend derives prioritised action suggestions from computed analytics.
func Recommend(a models.SnagAnalytics) []models.Recommendation {
	recs := make([]models.Recommendation, 0, 6)

	if n := a.Timeline.Overdue; n > 0 {
		recs = append(recs, models.Recommendation{
			Kind:     models.RecommendationOverdueItems,
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("%s overdue and need immediate attention", countItems(n)),
		})
	}
	if n := a.PriorityBreakdown.Critical + a.PriorityBreakdown.High; n > 0 {
		recs = append(recs, models.Recommendation{
			Kind:     models.RecommendationHighPriorityItems,
			Severity: models.SeverityHigh,
			Message:  fmt.Sprintf("%s marked critical or high priority; resolve these first", countItems(n)),
		})
	}
	if n := a.Timeline.DueSoon; n > 0 {
		recs = append(recs, models.Recommendation{
			Kind:     models.RecommendationDueSoon,
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("%s due within the next 7 days", countItems(n)),
		})
	}

	c := a.Completion
	if c.TotalItems > 0 && c.Percentage < lowCompletionThreshold {
		recs = append(recs, models.Recommendation{
			Kind:     models.RecommendationLowCompletion,
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("Only %d%% of items are complete; consider assigning more resources", c.Percentage),
		})
	}
	if c.Percentage > nearCompletionThreshold && c.RemainingItems > 0 {
		recs = append(recs, models.Recommendation{
			Kind:     models.RecommendationNearCompletion,
			Severity: models.SeverityLow,
			Message:  fmt.Sprintf("%d%% complete; %d remaining to close out the list", c.Percentage, c.RemainingItems),
		})
	}
	if avg := a.Efficiency.AverageResolutionDays; avg > slowResolutionDays {
		recs = append(recs, models.Recommendation{
			Kind:     models.RecommendationSlowResolution,
			Severity: models.SeverityMedium,
			Message:  fmt.Sprintf("Average resolution takes %.1f days; review the remediation process", avg),
		})
	}
	return recs
}

func countItems(n int) string {
	if n == 1 {
		return "1 item is"
	}
	return fmt.Sprintf("%d items are", n)
}
