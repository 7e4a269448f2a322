package model

import "time"

// ActivityEntry records one user-visible action for the audit feed. Logging
// is fire-and-forget: services never fail an operation because an activity
// row could not be written.
type ActivityEntry struct {
	ID          int64     `json:"id"`
	ActorID     int64     `json:"actor_id"`
	ActionType  string    `json:"action_type"`
	EntityType  string    `json:"entity_type,omitempty"`
	EntityID    int64     `json:"entity_id,omitempty"`
	EntityName  string    `json:"entity_name,omitempty"`
	Description string    `json:"description,omitempty"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ActorName string `json:"actor_name,omitempty"`
}

// MaintenanceLog records maintenance work performed on an asset.
type MaintenanceLog struct {
	ID           int64     `json:"id"`
	AssetID      int64     `json:"asset_id"`
	PerformedBy  int64     `json:"performed_by"`
	DepartmentID int64     `json:"department_id"`
	Description  string    `json:"description"`
	PerformedAt  time.Time `json:"performed_at"`
	CreatedAt    time.Time `json:"created_at"`

	// Joined fields (not always populated).
	AssetSerial   string `json:"asset_serial,omitempty"`
	ItemName      string `json:"item_name,omitempty"`
	PerformerName string `json:"performer_name,omitempty"`
}
