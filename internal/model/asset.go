package model

import "time"

// Asset is a single serialized non-consumable unit. Status is the single
// source of truth for availability: only Ready assets can be issued.
type Asset struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	SerialNo   string    `json:"serial_no,omitempty"`
	Status     string    `json:"status"`
	LocationID int64     `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Joined fields (not always populated).
	ItemName     string `json:"item_name,omitempty"`
	LocationName string `json:"location_name,omitempty"`
}

// Asset statuses.
const (
	AssetReady            = "Ready"
	AssetIssued           = "Issued"
	AssetUnderMaintenance = "Under_Maintenance"
	AssetRetired          = "Retired"
)

// ValidAssetStatus reports whether status is one of the known asset statuses.
func ValidAssetStatus(status string) bool {
	switch status {
	case AssetReady, AssetIssued, AssetUnderMaintenance, AssetRetired:
		return true
	}
	return false
}
