package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/scope"
	"github.com/zanmlakar/emrs/internal/store"
)

// RequestsHandler handles the request lifecycle endpoints.
type RequestsHandler struct {
	DB *sql.DB
}

type createRequestBody struct {
	RequestType string            `json:"request_type"`
	Priority    string            `json:"priority"`
	Subject     string            `json:"subject"`
	Description string            `json:"description"`
	Lines       []json.RawMessage `json:"lines"`
}

type itemRequestBody struct {
	Subject string                  `json:"subject"`
	Notes   string                  `json:"notes"`
	Lines   []model.ItemRequestLine `json:"lines"`
}

type bulkRequestBody struct {
	Requests []model.EquipmentRequestPayload `json:"requests"`
}

type decisionBody struct {
	Notes string `json:"notes"`
}

type transferBody struct {
	DepartmentID int64  `json:"department_id"`
	Notes        string `json:"notes"`
}

// Create handles POST /api/requests: a typed request whose line payloads are
// kept verbatim and normalized per request type.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())

	var body createRequestBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.RequestType == "" {
		jsonError(w, http.StatusBadRequest, "request_type required")
		return
	}

	lines := make([]model.NewRequestLine, 0, len(body.Lines))
	for i, raw := range body.Lines {
		line, err := model.LineFromPayload(raw)
		if err != nil {
			jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid line %d", i+1))
			return
		}
		lines = append(lines, line)
	}

	request, err := store.CreateRequest(r.Context(), h.DB, caller,
		body.RequestType, body.Priority, body.Subject, body.Description, lines)
	if err != nil {
		storeError(w, err, "failed to create request")
		return
	}

	h.logActivity(r.Context(), caller.UserID, "request_created", request.ID, request.RequestType)
	jsonResponse(w, http.StatusCreated, request)
}

// CreateItems handles POST /api/requests/items: a request built from
// catalogued items with quantities.
func (h *RequestsHandler) CreateItems(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())

	var body itemRequestBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := store.CreateItemRequest(r.Context(), h.DB, caller, body.Subject, body.Notes, body.Lines)
	if err != nil {
		storeError(w, err, "failed to create request")
		return
	}

	h.logActivity(r.Context(), caller.UserID, "request_created", request.ID, request.RequestType)
	jsonResponse(w, http.StatusCreated, request)
}

// CreateBulk handles POST /api/requests/equipment: one request per payload
// entry, all created or none.
func (h *RequestsHandler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())

	var body bulkRequestBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	requests, err := store.CreateBulkRequests(r.Context(), h.DB, caller, body.Requests)
	if err != nil {
		storeError(w, err, "failed to create requests")
		return
	}

	for _, request := range requests {
		h.logActivity(r.Context(), caller.UserID, "request_created", request.ID, request.RequestType)
	}
	jsonResponse(w, http.StatusCreated, requests)
}

// List handles GET /api/requests.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())

	requests, err := store.ListRequests(r.Context(), h.DB, caller, r.URL.Query().Get("type"))
	if err != nil {
		storeError(w, err, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Get handles GET /api/requests/{id}. Line payloads are decoded into their
// typed form alongside the raw data.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	request, err := store.GetRequest(r.Context(), h.DB, caller, id)
	if err != nil {
		storeError(w, err, "failed to get request")
		return
	}

	details := make([]any, 0, len(request.Lines))
	for _, line := range request.Lines {
		data, err := model.DecodeLineData(request.RequestType, line.ExtraData)
		if err != nil {
			data = nil
		}
		details = append(details, data)
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"request":      request,
		"line_details": details,
	})
}

// Approvals handles GET /api/requests/{id}/approvals.
func (h *RequestsHandler) Approvals(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	// Visibility follows the request itself.
	if _, err := store.GetRequest(r.Context(), h.DB, caller, id); err != nil {
		storeError(w, err, "failed to get request")
		return
	}

	approvals, err := store.ListApprovals(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list approvals")
		return
	}
	if approvals == nil {
		approvals = []model.RequestApproval{}
	}
	jsonResponse(w, http.StatusOK, approvals)
}

// Approve handles POST /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, store.ApproveRequest, "request_approved")
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, store.RejectRequest, "request_rejected")
}

type decideFunc func(context.Context, *sql.DB, scope.Caller, int64, string) (*model.Request, error)

func (h *RequestsHandler) decide(w http.ResponseWriter, r *http.Request, fn decideFunc, action string) {
	caller, _ := GetCaller(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	// Notes are optional; an empty body is fine.
	var body decisionBody
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := fn(r.Context(), h.DB, caller, id, body.Notes)
	if err != nil {
		storeError(w, err, "failed to decide request")
		return
	}

	h.logActivity(r.Context(), caller.UserID, action, request.ID, request.RequestType)
	jsonResponse(w, http.StatusOK, request)
}

// Transfer handles POST /api/requests/{id}/transfer.
func (h *RequestsHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var body transferBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.DepartmentID <= 0 {
		jsonError(w, http.StatusBadRequest, "department_id required")
		return
	}

	request, err := store.TransferRequest(r.Context(), h.DB, caller, id, body.DepartmentID, body.Notes)
	if err != nil {
		storeError(w, err, "failed to transfer request")
		return
	}

	h.logActivity(r.Context(), caller.UserID, "request_transferred", request.ID, request.RequestType)
	jsonResponse(w, http.StatusOK, request)
}

// logActivity records an audit entry. A failed write is logged and swallowed;
// the operation it describes has already committed.
func (h *RequestsHandler) logActivity(ctx context.Context, actorID int64, action string, requestID int64, requestType string) {
	err := store.LogActivity(ctx, h.DB, model.ActivityEntry{
		ActorID:    actorID,
		ActionType: action,
		EntityType: "request",
		EntityID:   requestID,
		EntityName: requestType,
	})
	if err != nil {
		slog.Warn("activity log write failed", "action", action, "request", requestID, "error", err)
	}
}
