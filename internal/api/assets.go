package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/store"
)

// AssetsHandler handles endpoints for individually tracked equipment units.
type AssetsHandler struct {
	DB *sql.DB
}

type createAssetRequest struct {
	ItemID     int64  `json:"item_id"`
	SerialNo   string `json:"serial_no"`
	LocationID int64  `json:"location_id"`
}

type assetStatusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/assets.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	var itemID int64
	if v := r.URL.Query().Get("item_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid item_id")
			return
		}
		itemID = id
	}
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidAssetStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	assets, err := store.ListAssets(r.Context(), h.DB, itemID, status)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}
	if assets == nil {
		assets = []model.Asset{}
	}
	jsonResponse(w, http.StatusOK, assets)
}

// Create handles POST /api/assets.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID <= 0 || req.SerialNo == "" {
		jsonError(w, http.StatusBadRequest, "item_id and serial_no required")
		return
	}
	if req.LocationID <= 0 {
		req.LocationID = model.BaseLocationID
	}

	asset, err := store.CreateAsset(r.Context(), h.DB, req.ItemID, req.SerialNo, req.LocationID)
	if err != nil {
		storeError(w, err, "failed to create asset")
		return
	}
	jsonResponse(w, http.StatusCreated, asset)
}

// Get handles GET /api/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	asset, err := store.GetAsset(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get asset")
		return
	}
	if asset == nil {
		jsonError(w, http.StatusNotFound, "asset not found")
		return
	}
	jsonResponse(w, http.StatusOK, asset)
}

// UpdateStatus handles PUT /api/assets/{id}/status.
func (h *AssetsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	var req assetStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidAssetStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := store.UpdateAssetStatus(r.Context(), h.DB, id, req.Status); err != nil {
		storeError(w, err, "failed to update asset status")
		return
	}

	asset, _ := store.GetAsset(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, asset)
}
