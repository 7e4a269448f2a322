package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
)

// appendLedger writes one journal row inside the caller's transaction. The
// ledger is append-only: nothing in this package updates or deletes its rows.
func appendLedger(ctx context.Context, tx *sql.Tx, itemID, locationID int64, txnType string, qtyDelta int, refTable string, refID int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stock_ledger (item_id, location_id, txn_type, qty_delta, ref_table, ref_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		itemID, locationID, txnType, qtyDelta, refTable, refID,
	)
	if err != nil {
		return fmt.Errorf("appending ledger entry: %w", err)
	}
	return nil
}

// ListLedger returns journal entries, optionally filtered by item, location
// or referencing row.
func ListLedger(ctx context.Context, db *sql.DB, itemID, locationID int64, refTable string, refID int64) ([]model.LedgerEntry, error) {
	query := `SELECT e.id, e.item_id, e.location_id, e.txn_type, e.qty_delta,
	                 e.ref_table, e.ref_id, e.created_at, i.name
	          FROM stock_ledger e
	          JOIN items i ON i.id = e.item_id
	          WHERE 1=1`
	var args []any

	if itemID > 0 {
		query += ` AND e.item_id = ?`
		args = append(args, itemID)
	}
	if locationID > 0 {
		query += ` AND e.location_id = ?`
		args = append(args, locationID)
	}
	if refTable != "" {
		query += ` AND e.ref_table = ? AND e.ref_id = ?`
		args = append(args, refTable, refID)
	}
	query += ` ORDER BY e.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.LocationID, &e.TxnType, &e.QtyDelta,
			&e.RefTable, &e.RefID, &e.CreatedAt, &e.ItemName); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReconcileStock compares every on-hand quantity against the ledger sum for
// its (item, location) and returns the pairs that disagree. An empty result
// means the conservation invariant holds.
func ReconcileStock(ctx context.Context, db *sql.DB) ([]model.StockDrift, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT il.item_id, il.location_id, il.on_hand_qty,
		        COALESCE((SELECT SUM(e.qty_delta) FROM stock_ledger e
		                  WHERE e.item_id = il.item_id AND e.location_id = il.location_id), 0)
		 FROM item_locations il`,
	)
	if err != nil {
		return nil, fmt.Errorf("reconciling stock: %w", err)
	}
	defer rows.Close()

	var drifts []model.StockDrift
	for rows.Next() {
		var d model.StockDrift
		if err := rows.Scan(&d.ItemID, &d.LocationID, &d.OnHandQty, &d.LedgerSum); err != nil {
			return nil, fmt.Errorf("scanning reconciliation row: %w", err)
		}
		if d.OnHandQty != d.LedgerSum {
			drifts = append(drifts, d)
		}
	}
	return drifts, rows.Err()
}
