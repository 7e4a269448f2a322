// Package scope resolves which records a caller may see or act on, based on
// role and department. One resolver, many call sites: request listing,
// activity listing and maintenance-log listing all apply the same function.
package scope

import (
	"errors"
	"fmt"

	"github.com/zanmlakar/emrs/internal/model"
)

// ErrCrossDepartment is returned when a caller narrows a listing to a user
// or department outside their own authority.
var ErrCrossDepartment = errors.New("target is outside your department")

// Caller identifies who is performing an operation. It is built once by the
// API layer from verified claims and passed explicitly into every store call;
// nothing downstream reads ambient request state.
type Caller struct {
	UserID       int64
	Role         string
	DepartmentID int64
}

// Target optionally narrows a listing to a specific user or department.
// TargetUserDept must carry the target user's department when TargetUserID is
// set, so manager ownership can be verified without a database round trip.
type Target struct {
	UserID       int64
	UserDept     int64
	DepartmentID int64
}

// Scope is the resolved visibility filter. Zero-value fields mean
// "unconstrained" on that axis; All short-circuits everything.
type Scope struct {
	All          bool
	UserID       int64
	DepartmentID int64
}

// Resolve computes the visibility scope for caller, optionally narrowed to
// target. Pure and stateless.
//
//   - staff/engineer see only their own records; any foreign target is refused
//   - managers see their department; explicit targets must belong to it
//   - admins see everything and may narrow to any target unverified
func Resolve(caller Caller, target Target) (Scope, error) {
	switch caller.Role {
	case model.RoleAdmin:
		return Scope{All: true, UserID: target.UserID, DepartmentID: target.DepartmentID}, nil

	case model.RoleManager:
		if target.DepartmentID != 0 && target.DepartmentID != caller.DepartmentID {
			return Scope{}, ErrCrossDepartment
		}
		if target.UserID != 0 {
			if target.UserDept != caller.DepartmentID {
				return Scope{}, ErrCrossDepartment
			}
			return Scope{UserID: target.UserID, DepartmentID: caller.DepartmentID}, nil
		}
		return Scope{DepartmentID: caller.DepartmentID}, nil

	default: // engineer, staff
		if target.UserID != 0 && target.UserID != caller.UserID {
			return Scope{}, ErrCrossDepartment
		}
		if target.DepartmentID != 0 && target.DepartmentID != caller.DepartmentID {
			return Scope{}, ErrCrossDepartment
		}
		return Scope{UserID: caller.UserID}, nil
	}
}

// Predicate renders the scope as a SQL condition over the given user and
// department columns, with its bind arguments. An unconstrained scope renders
// as a tautology so callers can always append "AND <predicate>".
func (s Scope) Predicate(userCol, deptCol string) (string, []any) {
	var cond string
	var args []any

	if s.UserID != 0 {
		cond = fmt.Sprintf("%s = ?", userCol)
		args = append(args, s.UserID)
	}
	if s.DepartmentID != 0 {
		if cond != "" {
			cond += " AND "
		}
		cond += fmt.Sprintf("%s = ?", deptCol)
		args = append(args, s.DepartmentID)
	}

	if cond == "" {
		return "1=1", nil
	}
	return cond, args
}

// CanDecide reports whether caller may approve, reject or transfer a request
// owned by departmentID.
func CanDecide(caller Caller, departmentID int64) bool {
	if caller.Role == model.RoleAdmin {
		return true
	}
	return caller.Role == model.RoleManager && caller.DepartmentID == departmentID
}

// CanView reports whether caller may read a request owned by departmentID and
// requested by requestedBy.
func CanView(caller Caller, requestedBy, departmentID int64) bool {
	switch caller.Role {
	case model.RoleAdmin:
		return true
	case model.RoleManager:
		return caller.DepartmentID == departmentID
	default:
		return caller.UserID == requestedBy
	}
}
