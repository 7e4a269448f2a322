package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/scope"
	"github.com/zanmlakar/emrs/internal/store"
)

// ActivityHandler handles the audit feed endpoint.
type ActivityHandler struct {
	DB *sql.DB
}

// List handles GET /api/activity.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())

	target, err := targetFromQuery(r, h.DB)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	entries, err := store.ListActivity(r.Context(), h.DB, caller, target, limit)
	if err != nil {
		storeError(w, err, "failed to list activity")
		return
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// targetFromQuery builds a scope target from optional user_id and
// department_id query parameters. When a user is targeted their department is
// loaded so manager ownership can be verified.
func targetFromQuery(r *http.Request, db *sql.DB) (scope.Target, error) {
	var target scope.Target

	userID, err := queryID(r, "user_id")
	if err != nil {
		return target, errInvalidParam("user_id")
	}
	departmentID, err := queryID(r, "department_id")
	if err != nil {
		return target, errInvalidParam("department_id")
	}

	if userID > 0 {
		user, err := store.GetUser(r.Context(), db, userID)
		if err != nil || user == nil {
			return target, errInvalidParam("user_id")
		}
		target.UserID = user.ID
		target.UserDept = user.DepartmentID
	}
	target.DepartmentID = departmentID
	return target, nil
}

type paramError string

func (e paramError) Error() string { return "invalid " + string(e) }

func errInvalidParam(name string) error { return paramError(name) }
