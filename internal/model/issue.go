package model

import "time"

// Issue is the header of a fulfillment transaction against an approved
// request.
type Issue struct {
	ID        int64     `json:"id"`
	RequestID int64     `json:"request_id"`
	IssuedBy  int64     `json:"issued_by"`
	WaybillNo string    `json:"waybill_no,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`

	// Joined fields (not always populated).
	IssuerName string      `json:"issuer_name,omitempty"`
	Lines      []IssueLine `json:"lines,omitempty"`
}

// IssueLine fulfills exactly one request line: either a quantity of a
// consumable or a single asset.
type IssueLine struct {
	ID            int64  `json:"id"`
	IssueID       int64  `json:"issue_id"`
	RequestLineID int64  `json:"request_line_id"`
	ItemID        int64  `json:"item_id"`
	Qty           *int   `json:"qty,omitempty"`
	UOM           string `json:"uom,omitempty"`
	AssetID       *int64 `json:"asset_id,omitempty"`
}

// NewIssueLine is the caller-supplied shape of an issue line.
type NewIssueLine struct {
	RequestLineID int64  `json:"request_line_id"`
	ItemID        int64  `json:"item_id"`
	Qty           int    `json:"qty,omitempty"`
	AssetID       *int64 `json:"asset_id,omitempty"`
}

// Return is the header of a reversal transaction against an issue.
type Return struct {
	ID         int64     `json:"id"`
	IssueID    int64     `json:"issue_id"`
	ReceivedBy int64     `json:"received_by"`
	Notes      string    `json:"notes,omitempty"`
	ReceivedAt time.Time `json:"received_at"`

	// Joined fields (not always populated).
	ReceiverName string       `json:"receiver_name,omitempty"`
	Lines        []ReturnLine `json:"lines,omitempty"`
}

// ReturnLine reverses one issue line: a quantity back to stock for
// consumables, or an asset with its returned condition.
type ReturnLine struct {
	ID          int64  `json:"id"`
	ReturnID    int64  `json:"return_id"`
	IssueLineID int64  `json:"issue_line_id"`
	ItemID      int64  `json:"item_id"`
	Qty         *int   `json:"qty,omitempty"`
	AssetID     *int64 `json:"asset_id,omitempty"`
	Condition   string `json:"condition,omitempty"`
}

// NewReturnLine is the caller-supplied shape of a return line.
type NewReturnLine struct {
	IssueLineID int64  `json:"issue_line_id"`
	AssetID     *int64 `json:"asset_id,omitempty"`
	Condition   string `json:"condition,omitempty"`
	Qty         int    `json:"qty,omitempty"`
}

// Return conditions. Anything other than OK routes the asset to
// Under_Maintenance.
const (
	ConditionOK              = "OK"
	ConditionNeedsInspection = "Needs Inspection"
	ConditionDamaged         = "Damaged"
	ConditionRepair          = "Repair"
)
