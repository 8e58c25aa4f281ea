package models

import "time"

// SnagEventType names notifications published to the pub/sub channel.
type SnagEventType string

const (
	SnagEventListCreated       SnagEventType = "snag_list.created"
	SnagEventListUpdated       SnagEventType = "snag_list.updated"
	SnagEventListStatusChanged SnagEventType = "snag_list.status_changed"
	SnagEventListDeleted       SnagEventType = "snag_list.deleted"
	SnagEventItemCreated       SnagEventType = "snag_item.created"
	SnagEventItemUpdated       SnagEventType = "snag_item.updated"
	SnagEventItemCommented     SnagEventType = "snag_item.commented"
	SnagEventOverdueDigest     SnagEventType = "snag_list.overdue_digest"
)

// SnagEvent is the JSON message published for downstream notification fan-out.
type SnagEvent struct {
	ID         string                 `json:"id"`
	Type       SnagEventType          `json:"type"`
	SnagListID string                 `json:"snagListId,omitempty"`
	SnagItemID string                 `json:"snagItemId,omitempty"`
	ActorID    string                 `json:"actorId,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// OverdueSummary is a per-list count of outstanding items past their target date.
type OverdueSummary struct {
	SnagListID   string `db:"snag_list_id" json:"snagListId"`
	Title        string `db:"title" json:"title"`
	PropertyID   string `db:"property_id" json:"propertyId"`
	OverdueItems int    `db:"overdue_items" json:"overdueItems"`
}
