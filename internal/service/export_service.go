package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prop-ie/snag-api/internal/analytics"
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/pkg/export"
)

const reportDateLayout = "02 Jan 2006"

var itemHeaders = []string{"Title", "Location", "Category", "Priority", "Status", "Target", "Completed"}

// buildSnagReport lays out a snag list and its insights as a printable document.
func buildSnagReport(list models.SnagList, insights models.SnagInsights, now time.Time) export.Report {
	a := insights.Analytics
	p := insights.Progress

	summary := []export.Field{
		{Label: "Property", Value: list.PropertyID},
		{Label: "Status", Value: analytics.StatusDisplay(string(list.Status)).Label},
		{Label: "Priority", Value: analytics.PriorityDisplay(list.Priority).Label},
		{Label: "Target completion", Value: formatReportDate(list.TargetCompletionDate)},
		{Label: "Completion", Value: fmt.Sprintf("%d%% (%d of %d items)", a.Completion.Percentage, a.Completion.CompletedItems, a.Completion.TotalItems)},
		{Label: "Velocity", Value: fmt.Sprintf("%.2f items/day", p.VelocityPerDay)},
		{Label: "Projected completion", Value: projectedCompletion(p)},
		{Label: "Average resolution", Value: fmt.Sprintf("%.1f days", a.Efficiency.AverageResolutionDays)},
	}

	return export.Report{
		Title:    fmt.Sprintf("Snag report: %s", list.Title),
		Subtitle: fmt.Sprintf("Generated %s", now.UTC().Format(time.RFC1123)),
		Summary:  summary,
		Sections: []export.Section{
			{Heading: "Items", Data: itemDataset(list.Items)},
			{Heading: "Breakdown", Data: breakdownDataset(a)},
			{Heading: "Recommendations", Data: recommendationDataset(insights.Recommendations)},
		},
	}
}

func itemDataset(items []models.SnagItem) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		category := item.Category
		if strings.TrimSpace(category) == "" {
			category = analytics.UncategorisedLabel
		}
		rows = append(rows, map[string]string{
			"Title":     item.Title,
			"Location":  item.Location,
			"Category":  category,
			"Priority":  analytics.PriorityDisplay(item.Priority).Label,
			"Status":    analytics.StatusDisplay(string(item.Status)).Label,
			"Target":    formatReportDate(item.TargetDate),
			"Completed": formatReportDate(item.CompletedDate),
		})
	}
	return export.Dataset{Headers: itemHeaders, Rows: rows}
}

func breakdownDataset(a models.SnagAnalytics) export.Dataset {
	row := func(group, metric string, value int) map[string]string {
		return map[string]string{"Group": group, "Metric": metric, "Items": fmt.Sprintf("%d", value)}
	}
	rows := []map[string]string{
		row("Priority", "Critical", a.PriorityBreakdown.Critical),
		row("Priority", "High", a.PriorityBreakdown.High),
		row("Priority", "Medium", a.PriorityBreakdown.Medium),
		row("Priority", "Low", a.PriorityBreakdown.Low),
		row("Status", "Open", a.StatusBreakdown.Open),
		row("Status", "In progress", a.StatusBreakdown.InProgress),
		row("Status", "Completed", a.StatusBreakdown.Completed),
		row("Status", "On hold", a.StatusBreakdown.OnHold),
		row("Schedule", "Overdue", a.Timeline.Overdue),
		row("Schedule", "Due soon", a.Timeline.DueSoon),
		row("Schedule", "On track", a.Timeline.OnTrack),
	}
	categories := make([]string, 0, len(a.Categories))
	for name := range a.Categories {
		categories = append(categories, name)
	}
	sort.Strings(categories)
	for _, name := range categories {
		rows = append(rows, row("Category", name, a.Categories[name]))
	}
	return export.Dataset{Headers: []string{"Group", "Metric", "Items"}, Rows: rows}
}

func recommendationDataset(recs []models.Recommendation) export.Dataset {
	rows := make([]map[string]string, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, map[string]string{"Severity": strings.ToUpper(string(rec.Severity)), "Recommendation": rec.Message})
	}
	return export.Dataset{Headers: []string{"Severity", "Recommendation"}, Rows: rows}
}

func projectedCompletion(p models.SnagProgress) string {
	if p.RemainingItems == 0 {
		return "Complete"
	}
	if p.ProjectedCompletionDate == nil {
		return "Not enough history"
	}
	return fmt.Sprintf("%s (%d days)", p.ProjectedCompletionDate.Format(reportDateLayout), p.EstimatedDaysRemaining)
}

func formatReportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(reportDateLayout)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "snag-list"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 80 {
		return result[:80]
	}
	return result
}
