package model

import "time"

// Department is an organizational unit that owns requests and users.
type Department struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// RequestTypeMapping routes a request type to its owning department.
type RequestTypeMapping struct {
	RequestType  string `json:"request_type"`
	DepartmentID int64  `json:"department_id"`

	// Joined fields (not always populated).
	DepartmentName string `json:"department_name,omitempty"`
}
