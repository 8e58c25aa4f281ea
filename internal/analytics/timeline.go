package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/prop-ie/snag-api/internal/models"
)

// DefaultTimelineLimit bounds the activity feed when no explicit limit is given.
const DefaultTimelineLimit = 20

// BuildTimeline returns the most recent updates, newest first, annotated with elapsed time.
func BuildTimeline(entries []models.SnagUpdateEntry, now time.Time, limit int) []models.TimelineEntry {
	if limit <= 0 {
		limit = DefaultTimelineLimit
	}

	sorted := make([]models.SnagUpdateEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	timeline := make([]models.TimelineEntry, 0, len(sorted))
	for _, entry := range sorted {
		timeline = append(timeline, models.TimelineEntry{
			ID:         entry.ID,
			SnagItemID: entry.SnagItemID,
			ItemTitle:  entry.ItemTitle,
			UpdateType: entry.UpdateType,
			Content:    entry.Content,
			AuthorID:   entry.AuthorID,
			CreatedAt:  entry.CreatedAt,
			TimeAgo:    TimeAgo(entry.CreatedAt, now),
		})
	}
	return timeline
}

// TimeAgo renders the elapsed time between t and now in coarse human units.
func TimeAgo(t, now time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	switch {
	case seconds < 60:
		return "Just now"
	case seconds < 3600:
		return ago(seconds/60, "minute")
	case seconds < 86400:
		return ago(seconds/3600, "hour")
	case seconds < 604800:
		return ago(seconds/86400, "day")
	default:
		return ago(seconds/604800, "week")
	}
}

func ago(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
