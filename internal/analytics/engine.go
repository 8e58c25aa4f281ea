package analytics

import (
	"math"
	"strings"
	"time"

	"github.com/prop-ie/snag-api/internal/models"
)

const (
	// DueSoonWindow is how far ahead a target date counts as due soon.
	DueSoonWindow = 7 * 24 * time.Hour
	// UncategorisedLabel replaces blank item categories.
	UncategorisedLabel = "OTHER"

	day = 24 * time.Hour
)

type statusBucket int

const (
	bucketOpen statusBucket = iota
	bucketInProgress
	bucketCompleted
	bucketOnHold
)

var statusBuckets = map[models.SnagItemStatus]statusBucket{
	models.SnagItemStatusOpen:          bucketOpen,
	models.SnagItemStatusInProgress:    bucketInProgress,
	models.SnagItemStatusPendingReview: bucketInProgress,
	models.SnagItemStatusCompleted:     bucketCompleted,
	models.SnagItemStatusOnHold:        bucketOnHold,
	models.SnagItemStatusRejected:      bucketOpen,
}

// Compute summarises the items of one snag list.
func Compute(items []models.SnagItem, now time.Time) models.SnagAnalytics {
	result := models.SnagAnalytics{
		Categories: make(map[string]int),
	}

	completed := 0
	for _, item := range items {
		if item.IsCompleted() {
			completed++
		}
		countPriority(&result.PriorityBreakdown, item.Priority)
		countStatus(&result.StatusBreakdown, item.Status)
		if !item.IsCompleted() {
			countTimeline(&result.Timeline, item.TargetDate, now)
		}
		result.Categories[categoryOf(item.Category)]++
	}

	result.Completion = models.CompletionStats{
		Percentage:     percentage(completed, len(items)),
		CompletedItems: completed,
		TotalItems:     len(items),
		RemainingItems: len(items) - completed,
	}
	result.Efficiency = efficiency(items)
	return result
}

// NormalizeStatus maps free-form status strings onto the canonical item status spelling.
func NormalizeStatus(raw string) models.SnagItemStatus {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return models.SnagItemStatus(s)
}

func countStatus(b *models.StatusBreakdown, status models.SnagItemStatus) {
	bucket, ok := statusBuckets[status]
	if !ok {
		bucket, ok = statusBuckets[NormalizeStatus(string(status))]
	}
	if !ok {
		bucket = bucketOpen
	}
	switch bucket {
	case bucketInProgress:
		b.InProgress++
	case bucketCompleted:
		b.Completed++
	case bucketOnHold:
		b.OnHold++
	default:
		b.Open++
	}
}

func countPriority(b *models.PriorityBreakdown, priority models.SnagPriority) {
	switch priority {
	case models.SnagPriorityCritical:
		b.Critical++
	case models.SnagPriorityHigh:
		b.High++
	case models.SnagPriorityMedium:
		b.Medium++
	case models.SnagPriorityLow:
		b.Low++
	}
}

func countTimeline(b *models.TimelineBuckets, target *time.Time, now time.Time) {
	switch {
	case target == nil:
		b.OnTrack++
	case target.Before(now):
		b.Overdue++
	case target.Sub(now) <= DueSoonWindow:
		b.DueSoon++
	default:
		b.OnTrack++
	}
}

func categoryOf(raw string) string {
	category := strings.TrimSpace(raw)
	if category == "" {
		return UncategorisedLabel
	}
	return category
}

func efficiency(items []models.SnagItem) models.EfficiencyStats {
	stats := models.EfficiencyStats{}
	total := 0
	for _, item := range items {
		days, ok := resolutionDays(item)
		if !ok {
			continue
		}
		stats.TotalCompletedItems++
		total += days
		if stats.FastestResolution == nil || days < stats.FastestResolution.Days {
			stats.FastestResolution = &models.ResolutionRecord{Title: item.Title, Days: days}
		}
		if stats.SlowestResolution == nil || days > stats.SlowestResolution.Days {
			stats.SlowestResolution = &models.ResolutionRecord{Title: item.Title, Days: days}
		}
	}
	if stats.TotalCompletedItems > 0 {
		stats.AverageResolutionDays = roundTo(float64(total)/float64(stats.TotalCompletedItems), 1)
	}
	return stats
}

// resolutionDays is defined only for completed items carrying both dates in order.
func resolutionDays(item models.SnagItem) (int, bool) {
	if !item.IsCompleted() || item.CompletedDate == nil || item.CreatedAt.IsZero() {
		return 0, false
	}
	if item.CompletedDate.Before(item.CreatedAt) {
		return 0, false
	}
	return ceilDays(item.CompletedDate.Sub(item.CreatedAt)), true
}

// percentage treats an empty population as fully complete.
func percentage(part, whole int) int {
	if whole == 0 {
		return 100
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	return days
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
