package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/scope"
)

// ApproveRequest moves a request to Approved, recording the decision in the
// append-only approval history. Header update and history insert happen in
// one transaction. Only a manager of the owning department or an admin may
// decide.
func ApproveRequest(ctx context.Context, db *sql.DB, caller scope.Caller, id int64, notes string) (*model.Request, error) {
	return decideRequest(ctx, db, caller, id, model.StatusApproved, model.ApprovalApproved, notes)
}

// RejectRequest moves a request to Rejected, recording the decision in the
// approval history.
func RejectRequest(ctx context.Context, db *sql.DB, caller scope.Caller, id int64, notes string) (*model.Request, error) {
	return decideRequest(ctx, db, caller, id, model.StatusRejected, model.ApprovalRejected, notes)
}

func decideRequest(ctx context.Context, db *sql.DB, caller scope.Caller, id int64, status, action, notes string) (*model.Request, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var departmentID int64
	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT department_id, status FROM requests WHERE id = ?`, id,
	).Scan(&departmentID, &current)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading request: %w", err)
	}

	if !scope.CanDecide(caller, departmentID) {
		return nil, ErrUnauthorized
	}
	if current != model.StatusPending && current != model.StatusTransferred {
		return nil, conflictf("request %d is already %s", id, current)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, approved_by = ?, approved_at = CURRENT_TIMESTAMP,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		status, caller.UserID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating request status: %w", err)
	}

	// History row is scoped to the department that made the decision.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO request_approvals (request_id, department_id, approved_by, status, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		id, departmentID, caller.UserID, action, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("recording approval: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing decision: %w", err)
	}

	return GetRequest(ctx, db, caller, id)
}

// TransferRequest re-homes a request to another department's queue. The
// owning department_id changes to the target, so a request may be transferred
// any number of times, each hop appending a history row scoped to the target
// department.
func TransferRequest(ctx context.Context, db *sql.DB, caller scope.Caller, id, targetDepartmentID int64, notes string) (*model.Request, error) {
	if targetDepartmentID <= 0 {
		return nil, validationf("target department is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var departmentID int64
	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT department_id, status FROM requests WHERE id = ?`, id,
	).Scan(&departmentID, &current)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading request: %w", err)
	}

	if !scope.CanDecide(caller, departmentID) {
		return nil, ErrUnauthorized
	}
	if current != model.StatusPending && current != model.StatusTransferred {
		return nil, conflictf("request %d is already %s", id, current)
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM departments WHERE id = ? AND deleted_at IS NULL)`,
		targetDepartmentID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking target department: %w", err)
	}
	if !exists {
		return nil, validationf("department %d does not exist", targetDepartmentID)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE requests SET status = ?, department_id = ?, transferred_to_department = ?,
		        transferred_by = ?, transferred_at = CURRENT_TIMESTAMP, transfer_notes = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		model.StatusTransferred, targetDepartmentID, targetDepartmentID, caller.UserID, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("transferring request: %w", err)
	}

	// History row is scoped to the department the request moved to.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO request_approvals (request_id, department_id, approved_by, status, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		id, targetDepartmentID, caller.UserID, model.ApprovalTransferred, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("recording transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer: %w", err)
	}

	// The request now belongs to the target department, so the deciding
	// manager is no longer in its visibility scope; read unscoped.
	return getRequestUnscoped(ctx, db, id)
}

// ListApprovals returns the approval history of a request, oldest first.
// Rows are append-only, so this is a complete audit trail.
func ListApprovals(ctx context.Context, db *sql.DB, requestID int64) ([]model.RequestApproval, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ra.id, ra.request_id, ra.department_id, ra.approved_by, ra.status, ra.notes,
		        ra.created_at, u.name, d.name
		 FROM request_approvals ra
		 JOIN users u ON u.id = ra.approved_by
		 JOIN departments d ON d.id = ra.department_id
		 WHERE ra.request_id = ?
		 ORDER BY ra.id`, requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing approvals: %w", err)
	}
	defer rows.Close()

	var approvals []model.RequestApproval
	for rows.Next() {
		var a model.RequestApproval
		var notes sql.NullString
		if err := rows.Scan(&a.ID, &a.RequestID, &a.DepartmentID, &a.ApprovedBy, &a.Status, &notes,
			&a.CreatedAt, &a.ApproverName, &a.DepartmentName); err != nil {
			return nil, fmt.Errorf("scanning approval: %w", err)
		}
		a.Notes = notes.String
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}
