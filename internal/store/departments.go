package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
)

// CreateDepartment creates a new department.
func CreateDepartment(ctx context.Context, db *sql.DB, name string) (*model.Department, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO departments (name) VALUES (?)`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating department: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting department id: %w", err)
	}

	return GetDepartment(ctx, db, id)
}

// GetDepartment returns a department by ID.
func GetDepartment(ctx context.Context, db *sql.DB, id int64) (*model.Department, error) {
	d := &model.Department{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at, deleted_at FROM departments WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &d.CreatedAt, &d.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting department: %w", err)
	}
	return d, nil
}

// ListDepartments returns all non-deleted departments.
func ListDepartments(ctx context.Context, db *sql.DB) ([]model.Department, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at, deleted_at
		 FROM departments WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	defer rows.Close()

	var departments []model.Department
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// UpdateDepartment renames a department.
func UpdateDepartment(ctx context.Context, db *sql.DB, id int64, name string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE departments SET name = ? WHERE id = ? AND deleted_at IS NULL`,
		name, id,
	)
	if err != nil {
		return fmt.Errorf("updating department: %w", err)
	}
	return nil
}

// DeleteDepartment soft-deletes a department.
func DeleteDepartment(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE departments SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting department: %w", err)
	}
	return nil
}

// GetRequestTypeDepartment returns the department that owns a request type,
// or 0 if the type is unmapped.
func GetRequestTypeDepartment(ctx context.Context, db *sql.DB, requestType string) (int64, error) {
	var departmentID int64
	err := db.QueryRowContext(ctx,
		`SELECT department_id FROM request_type_departments WHERE request_type = ?`,
		requestType,
	).Scan(&departmentID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolving request type department: %w", err)
	}
	return departmentID, nil
}

// ListRequestTypeMappings returns all request-type routing rules.
func ListRequestTypeMappings(ctx context.Context, db *sql.DB) ([]model.RequestTypeMapping, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT m.request_type, m.department_id, d.name
		 FROM request_type_departments m
		 JOIN departments d ON d.id = m.department_id
		 ORDER BY m.request_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing request type mappings: %w", err)
	}
	defer rows.Close()

	var mappings []model.RequestTypeMapping
	for rows.Next() {
		var m model.RequestTypeMapping
		if err := rows.Scan(&m.RequestType, &m.DepartmentID, &m.DepartmentName); err != nil {
			return nil, fmt.Errorf("scanning request type mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// SetRequestTypeMapping upserts the owning department for a request type.
func SetRequestTypeMapping(ctx context.Context, db *sql.DB, requestType string, departmentID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO request_type_departments (request_type, department_id) VALUES (?, ?)
		 ON CONFLICT (request_type) DO UPDATE SET department_id = ?`,
		requestType, departmentID, departmentID,
	)
	if err != nil {
		return fmt.Errorf("setting request type mapping: %w", err)
	}
	return nil
}
