package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Request is the header of a requisition.
type Request struct {
	ID               int64      `json:"id"`
	RequestedBy      int64      `json:"requested_by"`
	Subject          string     `json:"subject,omitempty"`
	Description      string     `json:"description,omitempty"`
	Priority         string     `json:"priority"`
	RequestType      string     `json:"request_type"`
	DepartmentID     int64      `json:"department_id"`
	Status           string     `json:"status"`
	EquipmentID      *int64     `json:"equipment_id,omitempty"`
	NewEquipmentName string     `json:"new_equipment_name,omitempty"`
	IsNewEquipment   bool       `json:"is_new_equipment,omitempty"`
	TransferredTo    *int64     `json:"transferred_to_department,omitempty"`
	TransferredBy    *int64     `json:"transferred_by,omitempty"`
	TransferredAt    *time.Time `json:"transferred_at,omitempty"`
	TransferNotes    string     `json:"transfer_notes,omitempty"`
	ApprovedBy       *int64     `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Joined fields (not always populated).
	RequesterName  string        `json:"requester_name,omitempty"`
	ApproverName   string        `json:"approver_name,omitempty"`
	DepartmentName string        `json:"department_name,omitempty"`
	EquipmentName  string        `json:"equipment_name,omitempty"`
	Lines          []RequestLine `json:"lines,omitempty"`
}

// Request statuses.
const (
	StatusPending     = "Pending"
	StatusApproved    = "Approved"
	StatusRejected    = "Rejected"
	StatusTransferred = "Transferred"
	StatusCompleted   = "Completed"
)

// Priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"
)

// NormalizePriority maps arbitrary caller input onto a known priority.
// Matching is case-insensitive; anything unrecognized becomes Medium.
func NormalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "low":
		return PriorityLow
	case "medium":
		return PriorityMedium
	case "high":
		return PriorityHigh
	case "urgent":
		return PriorityUrgent
	}
	return PriorityMedium
}

// RequestLine is a requested item within a request. ItemID is nil for
// free-text lines. IsConsumable and UOM are copied from the item master at
// line-creation time so later catalog edits do not rewrite history.
type RequestLine struct {
	ID           int64           `json:"id"`
	RequestID    int64           `json:"request_id"`
	ItemID       *int64          `json:"item_id,omitempty"`
	ItemName     string          `json:"item_name"`
	RequestedQty int             `json:"requested_qty"`
	IsConsumable bool            `json:"is_consumable"`
	UOM          string          `json:"uom"`
	ExtraData    json.RawMessage `json:"extra_data,omitempty"`
}

// RequestApproval is one approval, rejection or transfer action. Rows are
// append-only: the history of a request only ever grows.
type RequestApproval struct {
	ID           int64     `json:"id"`
	RequestID    int64     `json:"request_id"`
	DepartmentID int64     `json:"department_id"`
	ApprovedBy   int64     `json:"approved_by"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// Joined fields (not always populated).
	ApproverName   string `json:"approver_name,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
}

// Approval action statuses.
const (
	ApprovalApproved    = "approved"
	ApprovalRejected    = "rejected"
	ApprovalTransferred = "transferred"
)

// NewRequestLine is the normalized form of a caller-supplied line payload.
type NewRequestLine struct {
	ItemID    *int64
	ItemName  string
	Qty       int
	UOM       string
	ExtraData json.RawMessage
}

// linePayload covers the aliases different request forms use for the same
// fields. The full raw payload is kept verbatim as ExtraData.
type linePayload struct {
	ItemID      *int64 `json:"item_id"`
	Name        string `json:"name"`
	Equipment   string `json:"equipment_name"`
	VehicleType string `json:"vehicle_type"`
	Quantity    int    `json:"quantity"`
	Qty         int    `json:"qty"`
	UOM         string `json:"uom"`
}

// LineFromPayload normalizes a raw request-line payload: the display name is
// the first present of name, equipment_name and vehicle_type (falling back to
// "Item"), the quantity the first of quantity and qty (falling back to 1).
func LineFromPayload(raw json.RawMessage) (NewRequestLine, error) {
	var p linePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return NewRequestLine{}, err
	}

	name := p.Name
	if name == "" {
		name = p.Equipment
	}
	if name == "" {
		name = p.VehicleType
	}
	if name == "" {
		name = "Item"
	}

	qty := p.Quantity
	if qty == 0 {
		qty = p.Qty
	}
	if qty == 0 {
		qty = 1
	}

	uom := p.UOM
	if uom == "" {
		uom = "pcs"
	}

	return NewRequestLine{
		ItemID:    p.ItemID,
		ItemName:  name,
		Qty:       qty,
		UOM:       uom,
		ExtraData: raw,
	}, nil
}

// Typed views of the per-request-type line payloads stored in ExtraData.
// The envelope (name, quantity) is normalized into RequestLine itself; these
// carry only the type-specific remainder.
type (
	// PPELineData describes a personal protective equipment line.
	PPELineData struct {
		Size     string `json:"size,omitempty"`
		Standard string `json:"standard,omitempty"`
	}

	// MaterialLineData describes a consumable material line.
	MaterialLineData struct {
		Specification string `json:"specification,omitempty"`
		Purpose       string `json:"purpose,omitempty"`
	}

	// TransportLineData describes a vehicle/transport line.
	TransportLineData struct {
		VehicleType   string `json:"vehicle_type,omitempty"`
		Destination   string `json:"destination,omitempty"`
		ContactPerson string `json:"contact_person,omitempty"`
		TravelDate    string `json:"travel_date,omitempty"`
	}

	// MaintenanceLineData describes a maintenance work line.
	MaintenanceLineData struct {
		EquipmentName    string `json:"equipment_name,omitempty"`
		Urgency          string `json:"urgency,omitempty"`
		FaultDescription string `json:"fault_description,omitempty"`
	}

	// EquipmentLineData describes an equipment acquisition line.
	EquipmentLineData struct {
		EquipmentName string `json:"equipment_name,omitempty"`
		Model         string `json:"model,omitempty"`
		Supplier      string `json:"supplier,omitempty"`
	}
)

// DecodeLineData decodes a line's ExtraData into the typed payload for the
// given request type. Unknown types decode into a generic map so nothing the
// caller submitted is lost.
func DecodeLineData(requestType string, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var target any
	switch requestType {
	case "ppe":
		target = &PPELineData{}
	case "material":
		target = &MaterialLineData{}
	case "transport":
		target = &TransportLineData{}
	case "maintenance":
		target = &MaintenanceLineData{}
	case "equipment":
		target = &EquipmentLineData{}
	default:
		target = &map[string]any{}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil, err
	}
	return target, nil
}

// ItemRequestLine is one (item, qty) entry of a mixed-item request.
type ItemRequestLine struct {
	ItemID int64 `json:"item_id"`
	Qty    int   `json:"qty"`
}

// EquipmentRequestPayload is one entry of a bulk equipment request. Either
// ItemID references a catalogued item or CustomName names a brand-new one.
type EquipmentRequestPayload struct {
	ItemID      *int64 `json:"item_id,omitempty"`
	CustomName  string `json:"custom_name,omitempty"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
}
