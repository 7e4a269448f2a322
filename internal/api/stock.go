package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/store"
)

// StockHandler handles stock level, receipt and ledger endpoints.
type StockHandler struct {
	DB *sql.DB
}

type receiveStockBody struct {
	ItemID     int64 `json:"item_id"`
	LocationID int64 `json:"location_id"`
	Qty        int   `json:"qty"`
}

// List handles GET /api/stock.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	itemID, err := queryID(r, "item_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item_id")
		return
	}

	levels, err := store.ListStock(r.Context(), h.DB, itemID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list stock")
		return
	}
	if levels == nil {
		levels = []model.StockLevel{}
	}
	jsonResponse(w, http.StatusOK, levels)
}

// Receive handles POST /api/stock/receive.
func (h *StockHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var body receiveStockBody
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ItemID <= 0 || body.Qty <= 0 {
		jsonError(w, http.StatusBadRequest, "item_id and a positive qty required")
		return
	}
	if body.LocationID <= 0 {
		body.LocationID = model.BaseLocationID
	}

	if err := store.ReceiveStock(r.Context(), h.DB, body.ItemID, body.LocationID, body.Qty); err != nil {
		storeError(w, err, "failed to receive stock")
		return
	}

	qty, err := store.GetOnHand(r.Context(), h.DB, body.ItemID, body.LocationID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read stock level")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"item_id": body.ItemID, "on_hand_qty": qty})
}

// Ledger handles GET /api/stock/ledger.
func (h *StockHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	itemID, err := queryID(r, "item_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item_id")
		return
	}
	locationID, err := queryID(r, "location_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid location_id")
		return
	}

	entries, err := store.ListLedger(r.Context(), h.DB, itemID, locationID, "", 0)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list ledger")
		return
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Reconcile handles POST /api/stock/reconcile.
func (h *StockHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	drifts, err := store.ReconcileStock(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to reconcile stock")
		return
	}
	if drifts == nil {
		drifts = []model.StockDrift{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"clean":  len(drifts) == 0,
		"drifts": drifts,
	})
}

// queryID parses an optional numeric query parameter, returning 0 when absent.
func queryID(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
