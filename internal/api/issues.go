package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/store"
)

// IssuesHandler handles equipment issue (fulfillment) endpoints.
type IssuesHandler struct {
	DB *sql.DB
}

type createIssueBody struct {
	RequestID int64                `json:"request_id"`
	WaybillNo string               `json:"waybill_no"`
	Lines     []model.NewIssueLine `json:"lines"`
}

// Create handles POST /api/issues.
func (h *IssuesHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())

	var body createIssueBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	issue, err := store.CreateIssue(r.Context(), h.DB, caller, body.RequestID, body.WaybillNo, body.Lines)
	if err != nil {
		storeError(w, err, "failed to create issue")
		return
	}

	logErr := store.LogActivity(r.Context(), h.DB, model.ActivityEntry{
		ActorID:    caller.UserID,
		ActionType: "equipment_issued",
		EntityType: "issue",
		EntityID:   issue.ID,
	})
	if logErr != nil {
		slog.Warn("activity log write failed", "action", "equipment_issued", "issue", issue.ID, "error", logErr)
	}

	jsonResponse(w, http.StatusCreated, issue)
}

// List handles GET /api/issues.
func (h *IssuesHandler) List(w http.ResponseWriter, r *http.Request) {
	var requestID int64
	if v := r.URL.Query().Get("request_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request_id")
			return
		}
		requestID = id
	}

	issues, err := store.ListIssues(r.Context(), h.DB, requestID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list issues")
		return
	}
	if issues == nil {
		issues = []model.Issue{}
	}
	jsonResponse(w, http.StatusOK, issues)
}

// Get handles GET /api/issues/{id}.
func (h *IssuesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	issue, err := store.GetIssue(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get issue")
		return
	}
	jsonResponse(w, http.StatusOK, issue)
}
