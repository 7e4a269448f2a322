package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/scope"
)

// CreateRequest creates a requisition with its lines in a single transaction.
// The request type must be mapped to an owning department; the priority is
// normalized; each line keeps its raw payload as extra_data.
func CreateRequest(ctx context.Context, db *sql.DB, caller scope.Caller, requestType, priority, subject, description string, lines []model.NewRequestLine) (*model.Request, error) {
	if requestType == "" {
		return nil, validationf("request_type is required")
	}
	if len(lines) == 0 {
		return nil, validationf("at least one line is required")
	}

	departmentID, err := GetRequestTypeDepartment(ctx, db, requestType)
	if err != nil {
		return nil, err
	}
	if departmentID == 0 {
		return nil, validationf("no department is mapped for request type %q", requestType)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO requests (requested_by, subject, description, priority, request_type, department_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		caller.UserID, subject, description, model.NormalizePriority(priority), requestType, departmentID, model.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting request id: %w", err)
	}

	for _, line := range lines {
		if line.Qty <= 0 {
			return nil, validationf("quantity for %q must be positive", line.ItemName)
		}

		isConsumable := true
		uom := line.UOM
		if line.ItemID != nil {
			item, err := getItemTx(ctx, tx, *line.ItemID)
			if err != nil {
				return nil, err
			}
			if item == nil {
				return nil, validationf("item %d does not exist", *line.ItemID)
			}
			isConsumable = item.IsConsumable
			uom = item.UOM
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO request_lines (request_id, item_id, item_name, requested_qty, is_consumable, uom, extra_data)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			requestID, line.ItemID, line.ItemName, line.Qty, isConsumable, uom, string(line.ExtraData),
		)
		if err != nil {
			return nil, fmt.Errorf("creating request line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing request: %w", err)
	}

	return GetRequest(ctx, db, caller, requestID)
}

// CreateItemRequest is the mixed-item creation path: a flat list of
// (item, qty) lines against the item master. The consumable flag and unit of
// measure are copied from the item at insert time. The whole transaction
// fails if any line names an unknown item or a non-positive quantity.
func CreateItemRequest(ctx context.Context, db *sql.DB, caller scope.Caller, subject, notes string, lines []model.ItemRequestLine) (*model.Request, error) {
	if len(lines) == 0 {
		return nil, validationf("at least one line is required")
	}

	const requestType = "material"
	departmentID, err := GetRequestTypeDepartment(ctx, db, requestType)
	if err != nil {
		return nil, err
	}
	if departmentID == 0 {
		return nil, validationf("no department is mapped for request type %q", requestType)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO requests (requested_by, subject, description, priority, request_type, department_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		caller.UserID, subject, notes, model.PriorityMedium, requestType, departmentID, model.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting request id: %w", err)
	}

	for _, line := range lines {
		if line.Qty <= 0 {
			return nil, validationf("quantity for item %d must be positive", line.ItemID)
		}

		item, err := getItemTx(ctx, tx, line.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, validationf("item %d does not exist", line.ItemID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO request_lines (request_id, item_id, item_name, requested_qty, is_consumable, uom)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			requestID, item.ID, item.Name, line.Qty, item.IsConsumable, item.UOM,
		)
		if err != nil {
			return nil, fmt.Errorf("creating request line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing request: %w", err)
	}

	return GetRequest(ctx, db, caller, requestID)
}

// CreateBulkRequests inserts one equipment request per payload inside a
// single transaction; any invalid payload aborts all of them.
func CreateBulkRequests(ctx context.Context, db *sql.DB, caller scope.Caller, payloads []model.EquipmentRequestPayload) ([]model.Request, error) {
	if len(payloads) == 0 {
		return nil, validationf("at least one request is required")
	}

	const requestType = "equipment"
	departmentID, err := GetRequestTypeDepartment(ctx, db, requestType)
	if err != nil {
		return nil, err
	}
	if departmentID == 0 {
		return nil, validationf("no department is mapped for request type %q", requestType)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(payloads))
	for i, p := range payloads {
		if p.ItemID == nil && p.CustomName == "" {
			return nil, validationf("request %d names neither a catalogued item nor a new one", i+1)
		}

		// One line per equipment request so issuance has a line to fulfill.
		// New (uncatalogued) equipment defaults to a non-consumable line.
		lineName := p.CustomName
		isConsumable := false
		uom := "pcs"
		if p.ItemID != nil {
			item, err := getItemTx(ctx, tx, *p.ItemID)
			if err != nil {
				return nil, err
			}
			if item == nil {
				return nil, validationf("item %d does not exist", *p.ItemID)
			}
			lineName = item.Name
			isConsumable = item.IsConsumable
			uom = item.UOM
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO requests (requested_by, subject, description, priority, request_type,
			                       department_id, status, equipment_id, new_equipment_name, is_new_equipment)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			caller.UserID, p.Subject, p.Description, model.NormalizePriority(p.Priority), requestType,
			departmentID, model.StatusPending, p.ItemID, p.CustomName, p.ItemID == nil,
		)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting request id: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO request_lines (request_id, item_id, item_name, requested_qty, is_consumable, uom)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, p.ItemID, lineName, 1, isConsumable, uom,
		)
		if err != nil {
			return nil, fmt.Errorf("creating request line: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing requests: %w", err)
	}

	requests := make([]model.Request, 0, len(ids))
	for _, id := range ids {
		r, err := GetRequest(ctx, db, caller, id)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, nil
}

// ListRequests returns requests visible to the caller, newest first,
// optionally filtered by request type.
func ListRequests(ctx context.Context, db *sql.DB, caller scope.Caller, requestType string) ([]model.Request, error) {
	s, err := scope.Resolve(caller, scope.Target{})
	if err != nil {
		return nil, err
	}
	cond, args := s.Predicate("r.requested_by", "r.department_id")

	query := `SELECT ` + requestColumns + `
	          FROM requests r
	          JOIN users u ON u.id = r.requested_by
	          JOIN departments d ON d.id = r.department_id
	          LEFT JOIN users a ON a.id = r.approved_by
	          LEFT JOIN items i ON i.id = r.equipment_id
	          WHERE ` + cond

	if requestType != "" {
		query += ` AND r.request_type = ?`
		args = append(args, requestType)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// GetRequest returns a request with joined display fields and its lines.
// Callers outside the request's visibility get ErrUnauthorized; a missing row
// is ErrNotFound.
func GetRequest(ctx context.Context, db *sql.DB, caller scope.Caller, id int64) (*model.Request, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+requestColumns+`
		 FROM requests r
		 JOIN users u ON u.id = r.requested_by
		 JOIN departments d ON d.id = r.department_id
		 LEFT JOIN users a ON a.id = r.approved_by
		 LEFT JOIN items i ON i.id = r.equipment_id
		 WHERE r.id = ?`, id,
	)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !scope.CanView(caller, r.RequestedBy, r.DepartmentID) {
		return nil, ErrUnauthorized
	}

	r.Lines, err = listRequestLines(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// getRequestUnscoped reads a request (with lines) without a visibility check.
// For internal use after mutations that may move the row out of the acting
// caller's scope.
func getRequestUnscoped(ctx context.Context, db *sql.DB, id int64) (*model.Request, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+requestColumns+`
		 FROM requests r
		 JOIN users u ON u.id = r.requested_by
		 JOIN departments d ON d.id = r.department_id
		 LEFT JOIN users a ON a.id = r.approved_by
		 LEFT JOIN items i ON i.id = r.equipment_id
		 WHERE r.id = ?`, id,
	)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r.Lines, err = listRequestLines(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// requestColumns is the shared select list for request queries. The
// equipment display name prefers the free-text name for new equipment.
const requestColumns = `r.id, r.requested_by, r.subject, r.description, r.priority, r.request_type,
	r.department_id, r.status, r.equipment_id, r.new_equipment_name, r.is_new_equipment,
	r.transferred_to_department, r.transferred_by, r.transferred_at, r.transfer_notes,
	r.approved_by, r.approved_at, r.created_at, r.updated_at,
	u.name, COALESCE(a.name, ''), d.name,
	CASE WHEN r.is_new_equipment THEN COALESCE(r.new_equipment_name, '') ELSE COALESCE(i.name, '') END`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*model.Request, error) {
	r := &model.Request{}
	var subject, description, newEquipment, transferNotes sql.NullString
	err := row.Scan(&r.ID, &r.RequestedBy, &subject, &description, &r.Priority, &r.RequestType,
		&r.DepartmentID, &r.Status, &r.EquipmentID, &newEquipment, &r.IsNewEquipment,
		&r.TransferredTo, &r.TransferredBy, &r.TransferredAt, &transferNotes,
		&r.ApprovedBy, &r.ApprovedAt, &r.CreatedAt, &r.UpdatedAt,
		&r.RequesterName, &r.ApproverName, &r.DepartmentName, &r.EquipmentName)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("scanning request: %w", err)
	}
	r.Subject = subject.String
	r.Description = description.String
	r.NewEquipmentName = newEquipment.String
	r.TransferNotes = transferNotes.String
	return r, nil
}

func listRequestLines(ctx context.Context, db *sql.DB, requestID int64) ([]model.RequestLine, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, request_id, item_id, item_name, requested_qty, is_consumable, uom, extra_data
		 FROM request_lines WHERE request_id = ? ORDER BY id`, requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing request lines: %w", err)
	}
	defer rows.Close()

	var lines []model.RequestLine
	for rows.Next() {
		var l model.RequestLine
		var extra sql.NullString
		if err := rows.Scan(&l.ID, &l.RequestID, &l.ItemID, &l.ItemName, &l.RequestedQty,
			&l.IsConsumable, &l.UOM, &extra); err != nil {
			return nil, fmt.Errorf("scanning request line: %w", err)
		}
		if extra.Valid {
			l.ExtraData = []byte(extra.String)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// getItemTx reads an item inside an open transaction.
func getItemTx(ctx context.Context, tx *sql.Tx, id int64) (*model.Item, error) {
	i := &model.Item{}
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, is_consumable, uom FROM items WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&i.ID, &i.Name, &i.IsConsumable, &i.UOM)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return i, nil
}
