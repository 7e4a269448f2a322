package model

import "time"

// LedgerEntry is one row of the append-only stock journal. Rows are written
// inside the same transaction as the movement they record and are never
// updated or deleted. Asset movements produce zero-delta rows so the journal
// stays queryable by (item, ref) regardless of item kind.
type LedgerEntry struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	LocationID int64     `json:"location_id"`
	TxnType    string    `json:"txn_type"`
	QtyDelta   int       `json:"qty_delta"`
	RefTable   string    `json:"ref_table"`
	RefID      int64     `json:"ref_id"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ItemName string `json:"item_name,omitempty"`
}

// Ledger transaction types.
const (
	TxnIssue   = "ISSUE"
	TxnReturn  = "RETURN"
	TxnReceipt = "RECEIPT"
)

// StockDrift is one reconciliation finding: a (item, location) pair whose
// on-hand quantity disagrees with the ledger sum.
type StockDrift struct {
	ItemID     int64 `json:"item_id"`
	LocationID int64 `json:"location_id"`
	OnHandQty  int   `json:"on_hand_qty"`
	LedgerSum  int   `json:"ledger_sum"`
}
