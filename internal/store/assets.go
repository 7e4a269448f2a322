package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
)

// CreateAsset registers a serialized unit of a non-consumable item.
func CreateAsset(ctx context.Context, db *sql.DB, itemID int64, serialNo string, locationID int64) (*model.Asset, error) {
	item, err := GetItem(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	if item.IsConsumable {
		return nil, validationf("item %d is consumable and cannot have assets", itemID)
	}
	if locationID == 0 {
		locationID = model.BaseLocationID
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO assets (item_id, serial_no, location_id) VALUES (?, ?, ?)`,
		itemID, serialNo, locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting asset id: %w", err)
	}

	return GetAsset(ctx, db, id)
}

// GetAsset returns an asset by ID with item and location names joined.
func GetAsset(ctx context.Context, db *sql.DB, id int64) (*model.Asset, error) {
	a := &model.Asset{}
	var serial sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT a.id, a.item_id, a.serial_no, a.status, a.location_id,
		        a.created_at, a.updated_at, i.name, l.name
		 FROM assets a
		 JOIN items i ON i.id = a.item_id
		 JOIN locations l ON l.id = a.location_id
		 WHERE a.id = ?`, id,
	).Scan(&a.ID, &a.ItemID, &serial, &a.Status, &a.LocationID,
		&a.CreatedAt, &a.UpdatedAt, &a.ItemName, &a.LocationName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	a.SerialNo = serial.String
	return a, nil
}

// ListAssets returns assets, optionally filtered by item or status.
func ListAssets(ctx context.Context, db *sql.DB, itemID int64, status string) ([]model.Asset, error) {
	query := `SELECT a.id, a.item_id, a.serial_no, a.status, a.location_id,
	                 a.created_at, a.updated_at, i.name, l.name
	          FROM assets a
	          JOIN items i ON i.id = a.item_id
	          JOIN locations l ON l.id = a.location_id
	          WHERE 1=1`
	var args []any

	if itemID > 0 {
		query += ` AND a.item_id = ?`
		args = append(args, itemID)
	}
	if status != "" {
		query += ` AND a.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY a.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		var a model.Asset
		var serial sql.NullString
		if err := rows.Scan(&a.ID, &a.ItemID, &serial, &a.Status, &a.LocationID,
			&a.CreatedAt, &a.UpdatedAt, &a.ItemName, &a.LocationName); err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		a.SerialNo = serial.String
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// UpdateAssetStatus sets an asset's status outside the issue/return flows
// (e.g. marking a unit Retired or back to Ready after maintenance).
func UpdateAssetStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	if !model.ValidAssetStatus(status) {
		return validationf("invalid asset status %q", status)
	}
	result, err := db.ExecContext(ctx,
		`UPDATE assets SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("updating asset status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
