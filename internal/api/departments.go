package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/store"
)

// DepartmentsHandler handles department and request-type routing endpoints.
type DepartmentsHandler struct {
	DB *sql.DB
}

type departmentRequest struct {
	Name string `json:"name"`
}

type mappingRequest struct {
	RequestType  string `json:"request_type"`
	DepartmentID int64  `json:"department_id"`
}

// List handles GET /api/departments.
func (h *DepartmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	departments, err := store.ListDepartments(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list departments")
		return
	}
	if departments == nil {
		departments = []model.Department{}
	}
	jsonResponse(w, http.StatusOK, departments)
}

// Create handles POST /api/departments.
func (h *DepartmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req departmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	department, err := store.CreateDepartment(r.Context(), h.DB, req.Name)
	if err != nil {
		storeError(w, err, "failed to create department")
		return
	}
	jsonResponse(w, http.StatusCreated, department)
}

// Get handles GET /api/departments/{id}.
func (h *DepartmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid department id")
		return
	}

	department, err := store.GetDepartment(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get department")
		return
	}
	if department == nil {
		jsonError(w, http.StatusNotFound, "department not found")
		return
	}
	jsonResponse(w, http.StatusOK, department)
}

// Update handles PUT /api/departments/{id}.
func (h *DepartmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid department id")
		return
	}

	var req departmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := store.UpdateDepartment(r.Context(), h.DB, id, req.Name); err != nil {
		storeError(w, err, "failed to update department")
		return
	}

	department, _ := store.GetDepartment(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, department)
}

// Delete handles DELETE /api/departments/{id}.
func (h *DepartmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid department id")
		return
	}

	if err := store.DeleteDepartment(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete department")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "department deleted"})
}

// ListMappings handles GET /api/request-types.
func (h *DepartmentsHandler) ListMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := store.ListRequestTypeMappings(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list request types")
		return
	}
	if mappings == nil {
		mappings = []model.RequestTypeMapping{}
	}
	jsonResponse(w, http.StatusOK, mappings)
}

// SetMapping handles PUT /api/request-types.
func (h *DepartmentsHandler) SetMapping(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RequestType == "" || req.DepartmentID <= 0 {
		jsonError(w, http.StatusBadRequest, "request_type and department_id required")
		return
	}

	if err := store.SetRequestTypeMapping(r.Context(), h.DB, req.RequestType, req.DepartmentID); err != nil {
		storeError(w, err, "failed to set request type mapping")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "mapping saved"})
}
