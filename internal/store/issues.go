package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/scope"
)

// CreateIssue fulfills an approved request's lines in a single transaction:
// consumables decrement on-hand stock at the base store, assets flip from
// Ready to Issued, and every movement appends a ledger row. Any line failure
// rolls back the entire issue.
//
// The stock decrement is a single conditional UPDATE guarded by
// on_hand_qty >= qty, so concurrent issuers cannot overdraw a location.
func CreateIssue(ctx context.Context, db *sql.DB, caller scope.Caller, requestID int64, waybillNo string, lines []model.NewIssueLine) (*model.Issue, error) {
	if requestID <= 0 {
		return nil, validationf("request_id is required")
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
		`SELECT EXISTS (SELECT 1 FROM requests WHERE id = ?)`, requestID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking request: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO issues (request_id, issued_by, waybill_no) VALUES (?, ?, ?)`,
		requestID, caller.UserID, waybillNo,
	)
	if err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}
	issueID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting issue id: %w", err)
	}

	for _, line := range lines {
		reqLine, err := getRequestLineTx(ctx, tx, line.RequestLineID)
		if err != nil {
			return nil, err
		}
		if reqLine == nil {
			return nil, &ValidationError{Message: fmt.Sprintf("request line %d not found", line.RequestLineID)}
		}
		if reqLine.ItemID == nil || *reqLine.ItemID != line.ItemID {
			return nil, conflictf("item %d does not match request line %d", line.ItemID, line.RequestLineID)
		}

		if reqLine.IsConsumable {
			if err := issueConsumable(ctx, tx, issueID, line, reqLine.UOM); err != nil {
				return nil, err
			}
		} else {
			if err := issueAsset(ctx, tx, issueID, line); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing issue: %w", err)
	}

	return GetIssue(ctx, db, issueID)
}

// issueConsumable decrements base-store stock and records the issue line and
// ledger row.
func issueConsumable(ctx context.Context, tx *sql.Tx, issueID int64, line model.NewIssueLine, uom string) error {
	if line.Qty <= 0 {
		return validationf("quantity for item %d must be positive", line.ItemID)
	}

	// Make sure the stock row exists so the conditional update below is the
	// only thing deciding sufficiency.
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO item_locations (item_id, location_id, on_hand_qty) VALUES (?, ?, 0)`,
		line.ItemID, model.BaseLocationID,
	)
	if err != nil {
		return fmt.Errorf("ensuring stock row: %w", err)
	}

	// Atomic decrement: zero rows affected means insufficient stock.
	result, err := tx.ExecContext(ctx,
		`UPDATE item_locations SET on_hand_qty = on_hand_qty - ?
		 WHERE item_id = ? AND location_id = ? AND on_hand_qty >= ?`,
		line.Qty, line.ItemID, model.BaseLocationID, line.Qty,
	)
	if err != nil {
		return fmt.Errorf("decrementing stock: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("checking decrement: %w", err)
	} else if n == 0 {
		var have int
		if err := tx.QueryRowContext(ctx,
			`SELECT on_hand_qty FROM item_locations WHERE item_id = ? AND location_id = ?`,
			line.ItemID, model.BaseLocationID,
		).Scan(&have); err != nil {
			return fmt.Errorf("reading stock level: %w", err)
		}
		return conflictf("Insufficient stock for item %d (have %d, need %d)", line.ItemID, have, line.Qty)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO issue_lines (issue_id, request_line_id, item_id, qty, uom) VALUES (?, ?, ?, ?, ?)`,
		issueID, line.RequestLineID, line.ItemID, line.Qty, uom,
	)
	if err != nil {
		return fmt.Errorf("creating issue line: %w", err)
	}

	return appendLedger(ctx, tx, line.ItemID, model.BaseLocationID, model.TxnIssue, -line.Qty, "issues", issueID)
}

// issueAsset reassigns a Ready asset and records a zero-delta ledger row so
// the journal stays queryable for assets too.
func issueAsset(ctx context.Context, tx *sql.Tx, issueID int64, line model.NewIssueLine) error {
	if line.AssetID == nil {
		return validationf("asset_id is required for item %d", line.ItemID)
	}

	var itemID, locationID int64
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT item_id, status, location_id FROM assets WHERE id = ?`, *line.AssetID,
	).Scan(&itemID, &status, &locationID)
	if err == sql.ErrNoRows {
		return &ValidationError{Message: fmt.Sprintf("asset %d not found", *line.AssetID)}
	}
	if err != nil {
		return fmt.Errorf("loading asset: %w", err)
	}

	if itemID != line.ItemID {
		return conflictf("asset %d does not belong to item %d", *line.AssetID, line.ItemID)
	}
	if status != model.AssetReady {
		return conflictf("Asset is not available")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO issue_lines (issue_id, request_line_id, item_id, asset_id) VALUES (?, ?, ?, ?)`,
		issueID, line.RequestLineID, line.ItemID, *line.AssetID,
	)
	if err != nil {
		return fmt.Errorf("creating issue line: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE assets SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.AssetIssued, *line.AssetID,
	)
	if err != nil {
		return fmt.Errorf("updating asset status: %w", err)
	}

	return appendLedger(ctx, tx, line.ItemID, locationID, model.TxnIssue, 0, "issues", issueID)
}

// GetIssue returns an issue with its lines.
func GetIssue(ctx context.Context, db *sql.DB, id int64) (*model.Issue, error) {
	i := &model.Issue{}
	var waybill sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT iss.id, iss.request_id, iss.issued_by, iss.waybill_no, iss.issued_at, u.name
		 FROM issues iss
		 JOIN users u ON u.id = iss.issued_by
		 WHERE iss.id = ?`, id,
	).Scan(&i.ID, &i.RequestID, &i.IssuedBy, &waybill, &i.IssuedAt, &i.IssuerName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting issue: %w", err)
	}
	i.WaybillNo = waybill.String

	rows, err := db.QueryContext(ctx,
		`SELECT id, issue_id, request_line_id, item_id, qty, uom, asset_id
		 FROM issue_lines WHERE issue_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing issue lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.IssueLine
		var uom sql.NullString
		if err := rows.Scan(&l.ID, &l.IssueID, &l.RequestLineID, &l.ItemID, &l.Qty, &uom, &l.AssetID); err != nil {
			return nil, fmt.Errorf("scanning issue line: %w", err)
		}
		l.UOM = uom.String
		i.Lines = append(i.Lines, l)
	}
	return i, rows.Err()
}

// ListIssues returns issues, optionally filtered by request.
func ListIssues(ctx context.Context, db *sql.DB, requestID int64) ([]model.Issue, error) {
	query := `SELECT iss.id, iss.request_id, iss.issued_by, iss.waybill_no, iss.issued_at, u.name
	          FROM issues iss
	          JOIN users u ON u.id = iss.issued_by`
	var args []any

	if requestID > 0 {
		query += ` WHERE iss.request_id = ?`
		args = append(args, requestID)
	}
	query += ` ORDER BY iss.issued_at DESC, iss.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	defer rows.Close()

	var issues []model.Issue
	for rows.Next() {
		var i model.Issue
		var waybill sql.NullString
		if err := rows.Scan(&i.ID, &i.RequestID, &i.IssuedBy, &waybill, &i.IssuedAt, &i.IssuerName); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		i.WaybillNo = waybill.String
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

// getRequestLineTx reads a request line inside an open transaction.
func getRequestLineTx(ctx context.Context, tx *sql.Tx, id int64) (*model.RequestLine, error) {
	l := &model.RequestLine{}
	err := tx.QueryRowContext(ctx,
		`SELECT id, request_id, item_id, item_name, requested_qty, is_consumable, uom
		 FROM request_lines WHERE id = ?`, id,
	).Scan(&l.ID, &l.RequestID, &l.ItemID, &l.ItemName, &l.RequestedQty, &l.IsConsumable, &l.UOM)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting request line: %w", err)
	}
	return l, nil
}
