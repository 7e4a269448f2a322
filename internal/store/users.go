package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
)

// CreateUser creates a new user in a department.
func CreateUser(ctx context.Context, db *sql.DB, name, username, passwordHash, role string, departmentID int64) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (name, username, password_hash, role, department_id) VALUES (?, ?, ?, ?, ?)`,
		name, username, passwordHash, role, departmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID with their department name joined.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT u.id, u.name, u.username, u.password_hash, u.role, u.department_id,
		        u.created_at, u.deleted_at, d.name
		 FROM users u
		 JOIN departments d ON d.id = u.department_id
		 WHERE u.id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &u.DepartmentID,
		&u.CreatedAt, &u.DeletedAt, &u.DepartmentName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username (including soft-deleted for
// auth checks).
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, username, password_hash, role, department_id, created_at, deleted_at
		 FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &u.DepartmentID,
		&u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users, optionally filtered by department.
func ListUsers(ctx context.Context, db *sql.DB, departmentID int64) ([]model.User, error) {
	query := `SELECT u.id, u.name, u.username, u.password_hash, u.role, u.department_id,
	                 u.created_at, u.deleted_at, d.name
	          FROM users u
	          JOIN departments d ON d.id = u.department_id
	          WHERE u.deleted_at IS NULL`
	var args []any

	if departmentID > 0 {
		query += ` AND u.department_id = ?`
		args = append(args, departmentID)
	}
	query += ` ORDER BY u.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &u.Role, &u.DepartmentID,
			&u.CreatedAt, &u.DeletedAt, &u.DepartmentName); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's name, role and department.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, name, role string, departmentID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET name = ?, role = ?, department_id = ? WHERE id = ? AND deleted_at IS NULL`,
		name, role, departmentID, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
