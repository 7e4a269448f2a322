package api

import (
	"database/sql"
	"net/http"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/store"
)

// MaintenanceHandler handles asset maintenance log endpoints.
type MaintenanceHandler struct {
	DB *sql.DB
}

type createMaintenanceBody struct {
	AssetID     int64  `json:"asset_id"`
	Description string `json:"description"`
}

// Create handles POST /api/maintenance.
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())

	var body createMaintenanceBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.AssetID <= 0 || body.Description == "" {
		jsonError(w, http.StatusBadRequest, "asset_id and description required")
		return
	}

	log, err := store.CreateMaintenanceLog(r.Context(), h.DB, caller, body.AssetID, body.Description)
	if err != nil {
		storeError(w, err, "failed to create maintenance log")
		return
	}
	jsonResponse(w, http.StatusCreated, log)
}

// List handles GET /api/maintenance.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, _ := GetCaller(r.Context())

	target, err := targetFromQuery(r, h.DB)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs, err := store.ListMaintenanceLogs(r.Context(), h.DB, caller, target)
	if err != nil {
		storeError(w, err, "failed to list maintenance logs")
		return
	}
	if logs == nil {
		logs = []model.MaintenanceLog{}
	}
	jsonResponse(w, http.StatusOK, logs)
}
