package dto

import (
	"time"

	"github.com/guregu/null/v5"

	"github.com/prop-ie/snag-api/internal/models"
)

// CreateSnagListRequest is the payload for POST /snag-lists.
type CreateSnagListRequest struct {
	PropertyID           string                `json:"propertyId" validate:"required,max=64"`
	ReservationID        *string               `json:"reservationId,omitempty" validate:"omitempty,max=64"`
	Title                string                `json:"title" validate:"required,max=200"`
	Description          string                `json:"description" validate:"max=2000"`
	Status               models.SnagListStatus `json:"status" validate:"omitempty,oneof=DRAFT IN_PROGRESS UNDER_REVIEW ON_HOLD"`
	Priority             models.SnagPriority   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	TargetCompletionDate *time.Time            `json:"targetCompletionDate,omitempty"`
	Notes                string                `json:"notes" validate:"max=4000"`
}

// UpdateSnagListRequest is a partial patch; only fields present in the body are applied.
type UpdateSnagListRequest struct {
	Title                null.String `json:"title" validate:"omitempty,max=200"`
	Description          null.String `json:"description" validate:"omitempty,max=2000"`
	Status               null.String `json:"status" validate:"omitempty,oneof=DRAFT IN_PROGRESS UNDER_REVIEW COMPLETED ON_HOLD CANCELLED"`
	Priority             null.String `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	TargetCompletionDate null.Time   `json:"targetCompletionDate"`
	Notes                null.String `json:"notes" validate:"omitempty,max=4000"`
}

// IsEmpty reports whether the patch carries no field at all.
func (r UpdateSnagListRequest) IsEmpty() bool {
	return !r.Title.Valid && !r.Description.Valid && !r.Status.Valid &&
		!r.Priority.Valid && !r.TargetCompletionDate.Valid && !r.Notes.Valid
}

// CreateSnagItemRequest is the payload for POST /snag-lists/:id/items.
type CreateSnagItemRequest struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=2000"`
	Location    string              `json:"location" validate:"max=200"`
	Priority    models.SnagPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Category    string              `json:"category" validate:"max=64"`
	AssignedTo  *string             `json:"assignedTo,omitempty" validate:"omitempty,max=64"`
	TargetDate  *time.Time          `json:"targetDate,omitempty"`
}

// UpdateSnagItemRequest is a partial patch of a snag item.
type UpdateSnagItemRequest struct {
	Title           null.String `json:"title" validate:"omitempty,max=200"`
	Description     null.String `json:"description" validate:"omitempty,max=2000"`
	Location        null.String `json:"location" validate:"omitempty,max=200"`
	Status          null.String `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS PENDING_REVIEW COMPLETED ON_HOLD REJECTED"`
	Priority        null.String `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Category        null.String `json:"category" validate:"omitempty,max=64"`
	AssignedTo      null.String `json:"assignedTo" validate:"omitempty,max=64"`
	TargetDate      null.Time   `json:"targetDate"`
	CompletionNotes null.String `json:"completionNotes" validate:"omitempty,max=2000"`
}

// IsEmpty reports whether the patch carries no field at all.
func (r UpdateSnagItemRequest) IsEmpty() bool {
	return !r.Title.Valid && !r.Description.Valid && !r.Location.Valid && !r.Status.Valid &&
		!r.Priority.Valid && !r.Category.Valid && !r.AssignedTo.Valid && !r.TargetDate.Valid &&
		!r.CompletionNotes.Valid
}

// AddSnagItemUpdateRequest appends a comment to an item's update log.
type AddSnagItemUpdateRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// SnagListQuery captures GET /snag-lists query parameters.
type SnagListQuery struct {
	PropertyID string   `form:"propertyId"`
	Status     []string `form:"status"`
	Priority   string   `form:"priority"`
	Search     string   `form:"search"`
	Page       int      `form:"page"`
	PageSize   int      `form:"pageSize"`
}

// SnagListSummary is the list endpoint row: the entity plus display fields and item counts.
type SnagListSummary struct {
	models.SnagListView
	TotalItems     int `json:"totalItems"`
	CompletedItems int `json:"completedItems"`
}
