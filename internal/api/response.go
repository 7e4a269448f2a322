package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zanmlakar/emrs/internal/scope"
	"github.com/zanmlakar/emrs/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError translates store-layer errors into HTTP statuses: missing rows
// are 404, authorization failures 403, validation and state conflicts 400
// with the store's message verbatim. Anything else is a 500 with the
// fallback message; the underlying error is logged, never leaked.
func storeError(w http.ResponseWriter, err error, fallback string) {
	var ve *store.ValidationError
	var ce *store.ConflictError
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrUnauthorized), errors.Is(err, scope.ErrCrossDepartment):
		jsonError(w, http.StatusForbidden, "not allowed")
	case errors.As(err, &ve):
		jsonError(w, http.StatusBadRequest, ve.Message)
	case errors.As(err, &ce):
		jsonError(w, http.StatusBadRequest, ce.Message)
	default:
		slog.Error(fallback, "error", err)
		jsonError(w, http.StatusInternalServerError, fallback)
	}
}
