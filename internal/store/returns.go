package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/scope"
)

// CreateReturn reverses an issue in a single transaction: consumable
// quantities go back into base-store stock, assets flip to Ready or
// Under_Maintenance depending on their returned condition, and every movement
// appends a ledger row. Any line failure rolls back the entire return.
func CreateReturn(ctx context.Context, db *sql.DB, caller scope.Caller, issueID int64, notes string, lines []model.NewReturnLine) (*model.Return, error) {
	if issueID <= 0 {
		return nil, validationf("issue_id is required")
	}
	if len(lines) == 0 {
		return nil, validationf("at least one line is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM issues WHERE id = ?)`, issueID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking issue: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO returns (issue_id, received_by, notes) VALUES (?, ?, ?)`,
		issueID, caller.UserID, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("creating return: %w", err)
	}
	returnID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting return id: %w", err)
	}

	for _, line := range lines {
		var itemID int64
		var issuedAsset *int64
		err := tx.QueryRowContext(ctx,
			`SELECT item_id, asset_id FROM issue_lines WHERE id = ?`, line.IssueLineID,
		).Scan(&itemID, &issuedAsset)
		if err == sql.ErrNoRows {
			return nil, &ValidationError{Message: fmt.Sprintf("issue line %d not found", line.IssueLineID)}
		}
		if err != nil {
			return nil, fmt.Errorf("loading issue line: %w", err)
		}

		assetID := issuedAsset
		if assetID == nil {
			assetID = line.AssetID
		}

		if assetID != nil {
			if err := returnAsset(ctx, tx, returnID, line, itemID, *assetID); err != nil {
				return nil, err
			}
		} else {
			if err := returnConsumable(ctx, tx, returnID, line, itemID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing return: %w", err)
	}

	return GetReturn(ctx, db, returnID)
}

// returnAsset restores an asset to Ready when it came back in order, and
// routes it to Under_Maintenance otherwise. No quantity moves, but a
// zero-delta ledger row keeps the journal complete.
func returnAsset(ctx context.Context, tx *sql.Tx, returnID int64, line model.NewReturnLine, itemID, assetID int64) error {
	condition := line.Condition
	if condition == "" {
		condition = model.ConditionOK
	}

	var assetItem, locationID int64
	err := tx.QueryRowContext(ctx,
		`SELECT item_id, location_id FROM assets WHERE id = ?`, assetID,
	).Scan(&assetItem, &locationID)
	if err == sql.ErrNoRows {
		return &ValidationError{Message: fmt.Sprintf("asset %d not found", assetID)}
	}
	if err != nil {
		return fmt.Errorf("loading asset: %w", err)
	}
	if assetItem != itemID {
		return conflictf("asset %d does not belong to item %d", assetID, itemID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO return_lines (return_id, issue_line_id, item_id, asset_id, condition)
		 VALUES (?, ?, ?, ?, ?)`,
		returnID, line.IssueLineID, itemID, assetID, condition,
	)
	if err != nil {
		return fmt.Errorf("creating return line: %w", err)
	}

	status := model.AssetReady
	if condition != model.ConditionOK {
		status = model.AssetUnderMaintenance
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE assets SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, assetID,
	)
	if err != nil {
		return fmt.Errorf("updating asset status: %w", err)
	}

	return appendLedger(ctx, tx, itemID, locationID, model.TxnReturn, 0, "returns", returnID)
}

// returnConsumable increments base-store stock by the returned quantity.
func returnConsumable(ctx context.Context, tx *sql.Tx, returnID int64, line model.NewReturnLine, itemID int64) error {
	if line.Qty <= 0 {
		return validationf("quantity for issue line %d must be positive", line.IssueLineID)
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO return_lines (return_id, issue_line_id, item_id, qty) VALUES (?, ?, ?, ?)`,
		returnID, line.IssueLineID, itemID, line.Qty,
	)
	if err != nil {
		return fmt.Errorf("creating return line: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO item_locations (item_id, location_id, on_hand_qty) VALUES (?, ?, ?)
		 ON CONFLICT (item_id, location_id) DO UPDATE SET on_hand_qty = on_hand_qty + ?`,
		itemID, model.BaseLocationID, line.Qty, line.Qty,
	)
	if err != nil {
		return fmt.Errorf("incrementing stock: %w", err)
	}

	return appendLedger(ctx, tx, itemID, model.BaseLocationID, model.TxnReturn, line.Qty, "returns", returnID)
}

// GetReturn returns a return with its lines.
func GetReturn(ctx context.Context, db *sql.DB, id int64) (*model.Return, error) {
	r := &model.Return{}
	var notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT ret.id, ret.issue_id, ret.received_by, ret.notes, ret.received_at, u.name
		 FROM returns ret
		 JOIN users u ON u.id = ret.received_by
		 WHERE ret.id = ?`, id,
	).Scan(&r.ID, &r.IssueID, &r.ReceivedBy, &notes, &r.ReceivedAt, &r.ReceiverName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting return: %w", err)
	}
	r.Notes = notes.String

	rows, err := db.QueryContext(ctx,
		`SELECT id, return_id, issue_line_id, item_id, qty, asset_id, condition
		 FROM return_lines WHERE return_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing return lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.ReturnLine
		var condition sql.NullString
		if err := rows.Scan(&l.ID, &l.ReturnID, &l.IssueLineID, &l.ItemID, &l.Qty, &l.AssetID, &condition); err != nil {
			return nil, fmt.Errorf("scanning return line: %w", err)
		}
		l.Condition = condition.String
		r.Lines = append(r.Lines, l)
	}
	return r, rows.Err()
}
