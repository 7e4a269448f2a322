package model

import "time"

// Item is a master inventory item. Consumables are tracked as fungible
// quantity in item_locations; non-consumables are tracked per unit as assets.
type Item struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	IsConsumable bool       `json:"is_consumable"`
	UOM          string     `json:"uom"`
	PhotoMime    string     `json:"photo_mime,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Location is a stock-keeping place. Location 1 is the base store that
// issues and returns operate against.
type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BaseLocationID is the store location used when issuing and receiving stock.
const BaseLocationID = 1

// StockLevel is the per-(item, location) on-hand quantity of a consumable.
type StockLevel struct {
	ItemID      int64 `json:"item_id"`
	LocationID  int64 `json:"location_id"`
	OnHandQty   int   `json:"on_hand_qty"`
	ReservedQty int   `json:"reserved_qty"`

	// Joined fields (not always populated).
	ItemName     string `json:"item_name,omitempty"`
	UOM          string `json:"uom,omitempty"`
	LocationName string `json:"location_name,omitempty"`
}
