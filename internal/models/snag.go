package models

import "time"

// SnagListStatus enumerates the lifecycle states of an inspection cycle.
type SnagListStatus string

const (
	SnagListStatusDraft       SnagListStatus = "DRAFT"
	SnagListStatusInProgress  SnagListStatus = "IN_PROGRESS"
	SnagListStatusUnderReview SnagListStatus = "UNDER_REVIEW"
	SnagListStatusCompleted   SnagListStatus = "COMPLETED"
	SnagListStatusOnHold      SnagListStatus = "ON_HOLD"
	SnagListStatusCancelled   SnagListStatus = "CANCELLED"
)

// SnagItemStatus enumerates the states of a single defect.
type SnagItemStatus string

const (
	SnagItemStatusOpen          SnagItemStatus = "OPEN"
	SnagItemStatusInProgress    SnagItemStatus = "IN_PROGRESS"
	SnagItemStatusPendingReview SnagItemStatus = "PENDING_REVIEW"
	SnagItemStatusCompleted     SnagItemStatus = "COMPLETED"
	SnagItemStatusOnHold        SnagItemStatus = "ON_HOLD"
	SnagItemStatusRejected      SnagItemStatus = "REJECTED"
)

// SnagPriority is shared by snag lists and snag items.
type SnagPriority string

const (
	SnagPriorityLow      SnagPriority = "LOW"
	SnagPriorityMedium   SnagPriority = "MEDIUM"
	SnagPriorityHigh     SnagPriority = "HIGH"
	SnagPriorityCritical SnagPriority = "CRITICAL"
)

// SnagUpdateType classifies entries of the item update log.
type SnagUpdateType string

const (
	SnagUpdateComment        SnagUpdateType = "COMMENT"
	SnagUpdateStatusChange   SnagUpdateType = "STATUS_CHANGE"
	SnagUpdatePriorityChange SnagUpdateType = "PRIORITY_CHANGE"
	SnagUpdateAssignment     SnagUpdateType = "ASSIGNMENT"
	SnagUpdateAutoCompleted  SnagUpdateType = "AUTO_COMPLETED"
)

// AutoCompletionNote is written on items closed by the snag list completion cascade.
const AutoCompletionNote = "Auto-completed when the snag list was marked as completed"

// UserRef is a shallow reference to a user joined for display.
type UserRef struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"fullName"`
	Role     string `db:"role" json:"role"`
}

// SnagList is one inspection pass over a property unit.
type SnagList struct {
	ID                   string         `db:"id" json:"id"`
	PropertyID           string         `db:"property_id" json:"propertyId"`
	ReservationID        *string        `db:"reservation_id" json:"reservationId,omitempty"`
	Title                string         `db:"title" json:"title"`
	Description          string         `db:"description" json:"description"`
	Status               SnagListStatus `db:"status" json:"status"`
	Priority             SnagPriority   `db:"priority" json:"priority"`
	TargetCompletionDate *time.Time     `db:"target_completion_date" json:"targetCompletionDate,omitempty"`
	Notes                string         `db:"notes" json:"notes"`
	CreatedBy            string         `db:"created_by" json:"createdBy"`
	CreatedAt            time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updatedAt"`

	Creator *UserRef   `db:"-" json:"creator,omitempty"`
	Items   []SnagItem `db:"-" json:"items,omitempty"`
}

// SnagItem is a single recorded defect.
type SnagItem struct {
	ID              string         `db:"id" json:"id"`
	SnagListID      string         `db:"snag_list_id" json:"snagListId"`
	Title           string         `db:"title" json:"title"`
	Description     string         `db:"description" json:"description"`
	Location        string         `db:"location" json:"location"`
	Status          SnagItemStatus `db:"status" json:"status"`
	Priority        SnagPriority   `db:"priority" json:"priority"`
	Category        string         `db:"category" json:"category"`
	AssignedTo      *string        `db:"assigned_to" json:"assignedTo,omitempty"`
	TargetDate      *time.Time     `db:"target_date" json:"targetDate,omitempty"`
	CompletedDate   *time.Time     `db:"completed_date" json:"completedDate,omitempty"`
	CompletionNotes *string        `db:"completion_notes" json:"completionNotes,omitempty"`
	CreatedBy       string         `db:"created_by" json:"createdBy"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`

	Updates []SnagItemUpdate `db:"-" json:"updates,omitempty"`
	Photos  []SnagPhoto      `db:"-" json:"photos,omitempty"`
}

// IsCompleted reports whether the item counts as resolved.
func (i SnagItem) IsCompleted() bool {
	return i.Status == SnagItemStatusCompleted
}

// SnagItemUpdate is an immutable entry of an item's audit/comment log.
type SnagItemUpdate struct {
	ID         string         `db:"id" json:"id"`
	SnagItemID string         `db:"snag_item_id" json:"snagItemId"`
	UpdateType SnagUpdateType `db:"update_type" json:"updateType"`
	Content    string         `db:"content" json:"content"`
	AuthorID   string         `db:"author_id" json:"authorId"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

// SnagUpdateEntry is an update log row joined with the title of its item.
type SnagUpdateEntry struct {
	SnagItemUpdate
	ItemTitle string `db:"item_title" json:"itemTitle"`
}

// SnagPhoto references an uploaded photo of a defect.
type SnagPhoto struct {
	ID         string    `db:"id" json:"id"`
	SnagItemID string    `db:"snag_item_id" json:"snagItemId"`
	URL        string    `db:"url" json:"url"`
	Caption    string    `db:"caption" json:"caption"`
	UploadedBy string    `db:"uploaded_by" json:"uploadedBy"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// SnagListFilter constrains listing queries.
type SnagListFilter struct {
	PropertyID       string
	Status           []SnagListStatus
	Priority         SnagPriority
	Search           string
	IncludeCancelled bool
	Page             int
	PageSize         int
}

// SnagListStatuses lists every snag list status.
var SnagListStatuses = []SnagListStatus{
	SnagListStatusDraft,
	SnagListStatusInProgress,
	SnagListStatusUnderReview,
	SnagListStatusCompleted,
	SnagListStatusOnHold,
	SnagListStatusCancelled,
}

// SnagItemStatuses lists every snag item status.
var SnagItemStatuses = []SnagItemStatus{
	SnagItemStatusOpen,
	SnagItemStatusInProgress,
	SnagItemStatusPendingReview,
	SnagItemStatusCompleted,
	SnagItemStatusOnHold,
	SnagItemStatusRejected,
}

// SnagPriorities lists priorities from most to least urgent.
var SnagPriorities = []SnagPriority{
	SnagPriorityCritical,
	SnagPriorityHigh,
	SnagPriorityMedium,
	SnagPriorityLow,
}

// Valid reports whether s is a known snag list status.
func (s SnagListStatus) Valid() bool {
	for _, known := range SnagListStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known priority.
func (p SnagPriority) Valid() bool {
	for _, known := range SnagPriorities {
		if p == known {
			return true
		}
	}
	return false
}
