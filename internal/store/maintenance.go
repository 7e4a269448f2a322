package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/scope"
)

// CreateMaintenanceLog records maintenance work performed on an asset,
// attributed to the caller and their department.
func CreateMaintenanceLog(ctx context.Context, db *sql.DB, caller scope.Caller, assetID int64, description string) (*model.MaintenanceLog, error) {
	if description == "" {
		return nil, validationf("description is required")
	}

	asset, err := GetAsset(ctx, db, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, ErrNotFound
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO maintenance_logs (asset_id, performed_by, department_id, description)
		 VALUES (?, ?, ?, ?)`,
		assetID, caller.UserID, caller.DepartmentID, description,
	)
	if err != nil {
		return nil, fmt.Errorf("creating maintenance log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting maintenance log id: %w", err)
	}
	return getMaintenanceLog(ctx, db, id)
}

func getMaintenanceLog(ctx context.Context, db *sql.DB, id int64) (*model.MaintenanceLog, error) {
	m := &model.MaintenanceLog{}
	var serial sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT m.id, m.asset_id, m.performed_by, m.department_id, m.description,
		        m.performed_at, m.created_at, a.serial_no, i.name, u.name
		 FROM maintenance_logs m
		 JOIN assets a ON a.id = m.asset_id
		 JOIN items i ON i.id = a.item_id
		 JOIN users u ON u.id = m.performed_by
		 WHERE m.id = ?`, id,
	).Scan(&m.ID, &m.AssetID, &m.PerformedBy, &m.DepartmentID, &m.Description,
		&m.PerformedAt, &m.CreatedAt, &serial, &m.ItemName, &m.PerformerName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting maintenance log: %w", err)
	}
	m.AssetSerial = serial.String
	return m, nil
}

// ListMaintenanceLogs returns maintenance entries visible to the caller,
// newest first. Applies the same scope resolution as request and activity
// listings.
func ListMaintenanceLogs(ctx context.Context, db *sql.DB, caller scope.Caller, target scope.Target) ([]model.MaintenanceLog, error) {
	s, err := scope.Resolve(caller, target)
	if err != nil {
		return nil, err
	}
	cond, args := s.Predicate("m.performed_by", "m.department_id")

	query := `SELECT m.id, m.asset_id, m.performed_by, m.department_id, m.description,
	                 m.performed_at, m.created_at, a.serial_no, i.name, u.name
	          FROM maintenance_logs m
	          JOIN assets a ON a.id = m.asset_id
	          JOIN items i ON i.id = a.item_id
	          JOIN users u ON u.id = m.performed_by
	          WHERE ` + cond + `
	          ORDER BY m.performed_at DESC, m.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing maintenance logs: %w", err)
	}
	defer rows.Close()

	var logs []model.MaintenanceLog
	for rows.Next() {
		var m model.MaintenanceLog
		var serial sql.NullString
		if err := rows.Scan(&m.ID, &m.AssetID, &m.PerformedBy, &m.DepartmentID, &m.Description,
			&m.PerformedAt, &m.CreatedAt, &serial, &m.ItemName, &m.PerformerName); err != nil {
			return nil, fmt.Errorf("scanning maintenance log: %w", err)
		}
		m.AssetSerial = serial.String
		logs = append(logs, m)
	}
	return logs, rows.Err()
}
