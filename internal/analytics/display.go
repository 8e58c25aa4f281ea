package analytics

import (
	"strings"
	"time"

	"github.com/prop-ie/snag-api/internal/models"
)

var statusDisplays = map[string]models.DisplayMeta{
	string(models.SnagListStatusDraft):         {Label: "Draft", Color: "gray"},
	string(models.SnagListStatusInProgress):    {Label: "In Progress", Color: "blue"},
	string(models.SnagListStatusUnderReview):   {Label: "Under Review", Color: "purple"},
	string(models.SnagListStatusCompleted):     {Label: "Completed", Color: "green"},
	string(models.SnagListStatusOnHold):        {Label: "On Hold", Color: "yellow"},
	string(models.SnagListStatusCancelled):     {Label: "Cancelled", Color: "red"},
	string(models.SnagItemStatusOpen):          {Label: "Open", Color: "orange"},
	string(models.SnagItemStatusPendingReview): {Label: "Pending Review", Color: "purple"},
	string(models.SnagItemStatusRejected):      {Label: "Rejected", Color: "red"},
}

var priorityDisplays = map[models.SnagPriority]models.DisplayMeta{
	models.SnagPriorityLow:      {Label: "Low", Color: "green"},
	models.SnagPriorityMedium:   {Label: "Medium", Color: "yellow"},
	models.SnagPriorityHigh:     {Label: "High", Color: "orange"},
	models.SnagPriorityCritical: {Label: "Critical", Color: "red"},
}

// StatusDisplay returns presentation metadata for a snag list or snag item status.
func StatusDisplay(status string) models.DisplayMeta {
	if meta, ok := statusDisplays[status]; ok {
		return meta
	}
	return models.DisplayMeta{Label: humanize(status), Color: "gray"}
}

// PriorityDisplay returns presentation metadata for a priority.
func PriorityDisplay(priority models.SnagPriority) models.DisplayMeta {
	if meta, ok := priorityDisplays[priority]; ok {
		return meta
	}
	return models.DisplayMeta{Label: humanize(string(priority)), Color: "gray"}
}

// OverdueInfo reports whether a snag list is past its target date and by how many days.
// Completed and cancelled lists are never overdue.
func OverdueInfo(target *time.Time, status models.SnagListStatus, now time.Time) (bool, int) {
	if target == nil || status == models.SnagListStatusCompleted || status == models.SnagListStatusCancelled {
		return false, 0
	}
	if !target.Before(now) {
		return false, 0
	}
	return true, ceilDays(now.Sub(*target))
}

func humanize(raw string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(raw), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
