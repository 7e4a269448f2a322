package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
)

// ListStock returns on-hand quantities across all locations.
func ListStock(ctx context.Context, db *sql.DB, itemID int64) ([]model.StockLevel, error) {
	query := `SELECT il.item_id, il.location_id, il.on_hand_qty, il.reserved_qty,
	                 i.name, i.uom, l.name
	          FROM item_locations il
	          JOIN items i ON i.id = il.item_id
	          JOIN locations l ON l.id = il.location_id`
	var args []any

	if itemID > 0 {
		query += ` WHERE il.item_id = ?`
		args = append(args, itemID)
	}
	query += ` ORDER BY i.name, l.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stock: %w", err)
	}
	defer rows.Close()

	var levels []model.StockLevel
	for rows.Next() {
		var s model.StockLevel
		if err := rows.Scan(&s.ItemID, &s.LocationID, &s.OnHandQty, &s.ReservedQty,
			&s.ItemName, &s.UOM, &s.LocationName); err != nil {
			return nil, fmt.Errorf("scanning stock level: %w", err)
		}
		levels = append(levels, s)
	}
	return levels, rows.Err()
}

// GetOnHand returns the on-hand quantity for an item at a location (0 when no
// row exists yet).
func GetOnHand(ctx context.Context, db *sql.DB, itemID, locationID int64) (int, error) {
	var qty int
	err := db.QueryRowContext(ctx,
		`SELECT on_hand_qty FROM item_locations WHERE item_id = ? AND location_id = ?`,
		itemID, locationID,
	).Scan(&qty)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading on-hand quantity: %w", err)
	}
	return qty, nil
}

// ReceiveStock adds quantity of a consumable item at a location, recording a
// RECEIPT ledger row in the same transaction.
func ReceiveStock(ctx context.Context, db *sql.DB, itemID, locationID int64, qty int) error {
	if qty <= 0 {
		return validationf("quantity must be positive")
	}
	if locationID == 0 {
		locationID = model.BaseLocationID
	}

	item, err := GetItem(ctx, db, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrNotFound
	}
	if !item.IsConsumable {
		return validationf("item %d is not consumable; register assets instead", itemID)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO item_locations (item_id, location_id, on_hand_qty) VALUES (?, ?, ?)
		 ON CONFLICT (item_id, location_id) DO UPDATE SET on_hand_qty = on_hand_qty + ?`,
		itemID, locationID, qty, qty,
	)
	if err != nil {
		return fmt.Errorf("receiving stock: %w", err)
	}

	if err := appendLedger(ctx, tx, itemID, locationID, model.TxnReceipt, qty, "item_locations", itemID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing stock receipt: %w", err)
	}
	return nil
}
