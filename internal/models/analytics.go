package models

import "time"

// SnagAnalytics is the read-only summary computed over a snag list's items.
type SnagAnalytics struct {
	Completion        CompletionStats   `json:"completion"`
	PriorityBreakdown PriorityBreakdown `json:"priorityBreakdown"`
	StatusBreakdown   StatusBreakdown   `json:"statusBreakdown"`
	Timeline          TimelineBuckets   `json:"timeline"`
	Categories        map[string]int    `json:"categories"`
	Efficiency        EfficiencyStats   `json:"efficiency"`
}

type CompletionStats struct {
	Percentage     int `json:"percentage"`
	CompletedItems int `json:"completedItems"`
	TotalItems     int `json:"totalItems"`
	RemainingItems int `json:"remainingItems"`
}

type PriorityBreakdown struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// StatusBreakdown groups item statuses into the four display buckets.
type StatusBreakdown struct {
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	OnHold     int `json:"onHold"`
}

// TimelineBuckets classifies outstanding items against their target dates.
type TimelineBuckets struct {
	Overdue int `json:"overdue"`
	DueSoon int `json:"dueSoon"`
	OnTrack int `json:"onTrack"`
}

type ResolutionRecord struct {
	Title string `json:"title"`
	Days  int    `json:"days"`
}

type EfficiencyStats struct {
	AverageResolutionDays float64           `json:"averageResolutionDays"`
	FastestResolution     *ResolutionRecord `json:"fastestResolution"`
	SlowestResolution     *ResolutionRecord `json:"slowestResolution"`
	TotalCompletedItems   int               `json:"totalCompletedItems"`
}

// PriorityProgress holds completion percentages per priority level.
type PriorityProgress struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// SnagProgress is a linear-extrapolation forecast from historical completion velocity.
type SnagProgress struct {
	Overall                 int              `json:"overall"`
	ByPriority              PriorityProgress `json:"byPriority"`
	VelocityPerDay          float64          `json:"velocityPerDay"`
	RemainingItems          int              `json:"remainingItems"`
	EstimatedDaysRemaining  int              `json:"estimatedDaysRemaining"`
	ProjectedCompletionDate *time.Time       `json:"projectedCompletionDate"`
}

// TimelineEntry is one update of the snag list activity feed.
type TimelineEntry struct {
	ID         string         `json:"id"`
	SnagItemID string         `json:"snagItemId"`
	ItemTitle  string         `json:"itemTitle"`
	UpdateType SnagUpdateType `json:"updateType"`
	Content    string         `json:"content"`
	AuthorID   string         `json:"authorId"`
	CreatedAt  time.Time      `json:"createdAt"`
	TimeAgo    string         `json:"timeAgo"`
}

type RecommendationKind string

const (
	RecommendationOverdueItems      RecommendationKind = "OVERDUE_ITEMS"
	RecommendationHighPriorityItems RecommendationKind = "HIGH_PRIORITY_ITEMS"
	RecommendationDueSoon           RecommendationKind = "DUE_SOON"
	RecommendationLowCompletion     RecommendationKind = "LOW_COMPLETION"
	RecommendationNearCompletion    RecommendationKind = "NEAR_COMPLETION"
	RecommendationSlowResolution    RecommendationKind = "SLOW_RESOLUTION"
)

type RecommendationSeverity string

const (
	SeverityHigh   RecommendationSeverity = "high"
	SeverityMedium RecommendationSeverity = "medium"
	SeverityLow    RecommendationSeverity = "low"
)

// Recommendation is a tagged action suggestion so clients can localise or restyle it.
type Recommendation struct {
	Kind     RecommendationKind     `json:"kind"`
	Severity RecommendationSeverity `json:"severity"`
	Message  string                 `json:"message"`
}

// DisplayMeta carries presentation hints for an enum value.
type DisplayMeta struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// SnagListView is a snag list enriched with derived display fields.
type SnagListView struct {
	SnagList
	StatusDisplay   DisplayMeta `json:"statusDisplay"`
	PriorityDisplay DisplayMeta `json:"priorityDisplay"`
	CreatedAgo      string      `json:"createdAgo"`
	LastUpdatedAgo  string      `json:"lastUpdatedAgo"`
	IsOverdue       bool        `json:"isOverdue"`
	DaysOverdue     int         `json:"daysOverdue"`
}

// SnagListDetail is the combined payload returned for a single snag list.
type SnagListDetail struct {
	SnagList        SnagListView     `json:"snagList"`
	Analytics       SnagAnalytics    `json:"analytics"`
	Timeline        []TimelineEntry  `json:"timeline"`
	Progress        SnagProgress     `json:"progress"`
	Recommendations []Recommendation `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// SnagInsights is the analytics-only projection of SnagListDetail.
type SnagInsights struct {
	SnagListID      string           `json:"snagListId"`
	Analytics       SnagAnalytics    `json:"analytics"`
	Progress        SnagProgress     `json:"progress"`
	Recommendations []Recommendation `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

// SystemMetrics summarises process instrumentation for the ops endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"avg_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"avg_db_query_duration_ms"`
	EngineRuns               uint64    `json:"engine_runs"`
	EventsPublished          uint64    `json:"events_published"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
