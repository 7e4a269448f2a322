package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanmlakar/emrs/internal/model"
)

func TestResolve(t *testing.T) {
	admin := Caller{UserID: 1, Role: model.RoleAdmin, DepartmentID: 1}
	manager := Caller{UserID: 2, Role: model.RoleManager, DepartmentID: 3}
	engineer := Caller{UserID: 4, Role: model.RoleEngineer, DepartmentID: 3}
	staff := Caller{UserID: 5, Role: model.RoleStaff, DepartmentID: 7}

	tests := []struct {
		name    string
		caller  Caller
		target  Target
		want    Scope
		wantErr bool
	}{
		{"admin sees everything", admin, Target{}, Scope{All: true}, false},
		{"admin narrows unverified", admin, Target{DepartmentID: 9}, Scope{All: true, DepartmentID: 9}, false},
		{"admin narrows to user", admin, Target{UserID: 42}, Scope{All: true, UserID: 42}, false},
		{"manager sees own department", manager, Target{}, Scope{DepartmentID: 3}, false},
		{"manager narrows to own-dept user", manager, Target{UserID: 4, UserDept: 3}, Scope{UserID: 4, DepartmentID: 3}, false},
		{"manager refused foreign user", manager, Target{UserID: 9, UserDept: 8}, Scope{}, true},
		{"manager refused foreign department", manager, Target{DepartmentID: 8}, Scope{}, true},
		{"engineer sees own records", engineer, Target{}, Scope{UserID: 4}, false},
		{"engineer refused foreign user", engineer, Target{UserID: 5}, Scope{}, true},
		{"staff sees own records", staff, Target{}, Scope{UserID: 5}, false},
		{"staff may target self", staff, Target{UserID: 5}, Scope{UserID: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.caller, tt.target)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrCrossDepartment)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicate(t *testing.T) {
	cond, args := Scope{All: true}.Predicate("r.requested_by", "r.department_id")
	assert.Equal(t, "1=1", cond)
	assert.Empty(t, args)

	cond, args = Scope{UserID: 5}.Predicate("r.requested_by", "r.department_id")
	assert.Equal(t, "r.requested_by = ?", cond)
	assert.Equal(t, []any{int64(5)}, args)

	cond, args = Scope{DepartmentID: 3}.Predicate("r.requested_by", "r.department_id")
	assert.Equal(t, "r.department_id = ?", cond)
	assert.Equal(t, []any{int64(3)}, args)

	cond, args = Scope{UserID: 5, DepartmentID: 3}.Predicate("r.requested_by", "r.department_id")
	assert.Equal(t, "r.requested_by = ? AND r.department_id = ?", cond)
	assert.Equal(t, []any{int64(5), int64(3)}, args)
}

func TestCanDecide(t *testing.T) {
	assert.True(t, CanDecide(Caller{Role: model.RoleAdmin}, 9))
	assert.True(t, CanDecide(Caller{Role: model.RoleManager, DepartmentID: 9}, 9))
	assert.False(t, CanDecide(Caller{Role: model.RoleManager, DepartmentID: 2}, 9))
	assert.False(t, CanDecide(Caller{Role: model.RoleEngineer, DepartmentID: 9}, 9))
}

func TestCanView(t *testing.T) {
	assert.True(t, CanView(Caller{Role: model.RoleAdmin}, 1, 2))
	assert.True(t, CanView(Caller{Role: model.RoleManager, DepartmentID: 2}, 1, 2))
	assert.False(t, CanView(Caller{Role: model.RoleManager, DepartmentID: 3}, 1, 2))
	assert.True(t, CanView(Caller{UserID: 1, Role: model.RoleStaff}, 1, 2))
	assert.False(t, CanView(Caller{UserID: 4, Role: model.RoleEngineer}, 1, 2))
}
