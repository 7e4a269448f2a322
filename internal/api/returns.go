package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/store"
)

// ReturnsHandler handles equipment return endpoints.
type ReturnsHandler struct {
	DB *sql.DB
}

type createReturnBody struct {
	IssueID int64                 `json:"issue_id"`
	Notes   string                `json:"notes"`
	Lines   []model.NewReturnLine `json:"lines"`
}

// Create handles POST /api/returns.
func (h *ReturnsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())

	var body createReturnBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ret, err := store.CreateReturn(r.Context(), h.DB, caller, body.IssueID, body.Notes, body.Lines)
	if err != nil {
		storeError(w, err, "failed to create return")
		return
	}

	logErr := store.LogActivity(r.Context(), h.DB, model.ActivityEntry{
		ActorID:    caller.UserID,
		ActionType: "equipment_returned",
		EntityType: "return",
		EntityID:   ret.ID,
	})
	if logErr != nil {
		slog.Warn("activity log write failed", "action", "equipment_returned", "return", ret.ID, "error", logErr)
	}

	jsonResponse(w, http.StatusCreated, ret)
}

// Get handles GET /api/returns/{id}.
func (h *ReturnsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid return id")
		return
	}

	ret, err := store.GetReturn(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get return")
		return
	}
	jsonResponse(w, http.StatusOK, ret)
}
