package model

import "time"

// User represents an account that can log in and act on requests.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	DepartmentID int64      `json:"department_id"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	DepartmentName string `json:"department_name,omitempty"`
}

// Roles.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEngineer = "engineer"
	RoleStaff    = "staff"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:    4,
		RoleManager:  3,
		RoleEngineer: 2,
		RoleStaff:    1,
	}
	return levels[role] >= levels[minimum]
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleEngineer, RoleStaff:
		return true
	}
	return false
}
