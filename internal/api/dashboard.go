package api

import (
	"database/sql"
	"net/http"

	"github.com/zanmlakar/emrs/internal/store"
)

// DashboardHandler serves the scope-filtered dashboard counters.
type DashboardHandler struct {
	DB *sql.DB
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())

	stats, err := store.GetDashboardStats(r.Context(), h.DB, caller)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to compute dashboard")
		return
	}
	jsonResponse(w, http.StatusOK, stats)
}
