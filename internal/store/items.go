package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
)

// CreateItem creates a master inventory item.
func CreateItem(ctx context.Context, db *sql.DB, name, description, uom string, isConsumable bool) (*model.Item, error) {
	if uom == "" {
		uom = "pcs"
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, uom, is_consumable) VALUES (?, ?, ?, ?)`,
		name, description, uom, isConsumable,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	i := &model.Item{}
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, description, is_consumable, uom, photo_mime, created_at, updated_at, deleted_at
		 FROM items WHERE id = ?`, id,
	).Scan(&i.ID, &i.Name, &i.Description, &i.IsConsumable, &i.UOM, &mime,
		&i.CreatedAt, &i.UpdatedAt, &i.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	i.PhotoMime = mime.String
	return i, nil
}

// ListItems returns all non-deleted items, optionally only consumables or
// only asset types.
func ListItems(ctx context.Context, db *sql.DB, consumable *bool) ([]model.Item, error) {
	query := `SELECT id, name, description, is_consumable, uom, photo_mime,
	                 created_at, updated_at, deleted_at
	          FROM items WHERE deleted_at IS NULL`
	var args []any

	if consumable != nil {
		query += ` AND is_consumable = ?`
		args = append(args, *consumable)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var i model.Item
		var mime sql.NullString
		if err := rows.Scan(&i.ID, &i.Name, &i.Description, &i.IsConsumable, &i.UOM, &mime,
			&i.CreatedAt, &i.UpdatedAt, &i.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		i.PhotoMime = mime.String
		items = append(items, i)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's catalog fields. The consumable flag is
// intentionally immutable: history (request lines, ledger rows) depends on it.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, name, description, uom string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, uom = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, description, uom, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemPhoto stores an equipment photo for an item.
func SetItemPhoto(ctx context.Context, db *sql.DB, id int64, data []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		data, mime, id,
	)
	if err != nil {
		return fmt.Errorf("saving item photo: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetItemPhoto returns an item's photo data and MIME type, or nil if unset.
func GetItemPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM items WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return data, mime.String, nil
}
