package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zanmlakar/emrs/internal/db"
	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(database, testJWTSecret))
	t.Cleanup(server.Close)

	ctx := context.Background()
	dept, err := store.CreateDepartment(ctx, database, "Administration")
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, database, "Admin", "admin", string(hash), model.RoleAdmin, dept.ID)
	require.NoError(t, err)

	return server, login(t, server, "admin", "password")
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	token, _ := loginResp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// do sends an authenticated JSON request and decodes the response into out
// when out is non-nil.
func do(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	server, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/items")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	require.Equal(t, http.StatusOK, do(t, "POST", server.URL+"/api/auth/logout", token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, do(t, "GET", server.URL+"/api/items", token, nil, nil))
}

// TestRequestLifecycle drives a full consumable flow through the HTTP
// surface: catalog and stock setup, request, approval, issue and return.
func TestRequestLifecycle(t *testing.T) {
	server, admin := setupTestServer(t)

	// Stores department with a manager and a staff requester.
	var dept model.Department
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/departments", admin, map[string]string{"name": "Stores"}, &dept))
	require.Equal(t, http.StatusOK,
		do(t, "PUT", server.URL+"/api/request-types", admin,
			map[string]any{"request_type": "material", "department_id": dept.ID}, nil))
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/users", admin, map[string]any{
			"name": "Maja", "username": "maja", "password": "pass",
			"role": model.RoleManager, "department_id": dept.ID,
		}, nil))
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/users", admin, map[string]any{
			"name": "Tine", "username": "tine", "password": "pass",
			"role": model.RoleStaff, "department_id": dept.ID,
		}, nil))
	manager := login(t, server, "maja", "pass")
	staff := login(t, server, "tine", "pass")

	// Consumable item with 10 on hand.
	var item model.Item
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/items", admin, map[string]any{
			"name": "Safety Helmet", "uom": "pcs", "is_consumable": true,
		}, &item))
	require.Equal(t, http.StatusOK,
		do(t, "POST", server.URL+"/api/stock/receive", manager,
			map[string]any{"item_id": item.ID, "qty": 10}, nil))

	// Staff submits a request for 4 helmets.
	var request model.Request
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/requests/items", staff, map[string]any{
			"subject": "Helmets",
			"lines":   []map[string]any{{"item_id": item.ID, "qty": 4}},
		}, &request))
	assert.Equal(t, model.StatusPending, request.Status)
	assert.Equal(t, dept.ID, request.DepartmentID)

	// The manager approves it.
	var approved model.Request
	require.Equal(t, http.StatusOK,
		do(t, "POST", server.URL+fmt.Sprintf("/api/requests/%d/approve", request.ID), manager,
			map[string]string{"notes": "ok"}, &approved))
	assert.Equal(t, model.StatusApproved, approved.Status)

	// Look up the stored line id for the issue.
	var details struct {
		Request model.Request `json:"request"`
	}
	require.Equal(t, http.StatusOK,
		do(t, "GET", server.URL+fmt.Sprintf("/api/requests/%d", request.ID), staff, nil, &details))
	require.Len(t, details.Request.Lines, 1)
	lineID := details.Request.Lines[0].ID

	// The manager issues all 4.
	var issue model.Issue
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/issues", manager, map[string]any{
			"request_id": request.ID,
			"waybill_no": "WB-1",
			"lines": []map[string]any{
				{"request_line_id": lineID, "item_id": item.ID, "qty": 4},
			},
		}, &issue))
	require.Len(t, issue.Lines, 1)

	// Two come back.
	var ret model.Return
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/returns", manager, map[string]any{
			"issue_id": issue.ID,
			"lines":    []map[string]any{{"issue_line_id": issue.Lines[0].ID, "qty": 2}},
		}, &ret))

	// 10 - 4 + 2 on hand, three ledger entries, reconciliation clean.
	var levels []model.StockLevel
	require.Equal(t, http.StatusOK,
		do(t, "GET", server.URL+fmt.Sprintf("/api/stock?item_id=%d", item.ID), manager, nil, &levels))
	require.Len(t, levels, 1)
	assert.Equal(t, 8, levels[0].OnHandQty)

	var entries []model.LedgerEntry
	require.Equal(t, http.StatusOK,
		do(t, "GET", server.URL+fmt.Sprintf("/api/stock/ledger?item_id=%d", item.ID), manager, nil, &entries))
	assert.Len(t, entries, 3)

	var recon struct {
		Clean bool `json:"clean"`
	}
	require.Equal(t, http.StatusOK,
		do(t, "POST", server.URL+"/api/stock/reconcile", manager, nil, &recon))
	assert.True(t, recon.Clean)
}

func TestInsufficientStockStatus(t *testing.T) {
	server, admin := setupTestServer(t)

	var dept model.Department
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/departments", admin, map[string]string{"name": "Stores"}, &dept))
	require.Equal(t, http.StatusOK,
		do(t, "PUT", server.URL+"/api/request-types", admin,
			map[string]any{"request_type": "material", "department_id": dept.ID}, nil))

	var item model.Item
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/items", admin, map[string]any{
			"name": "Gloves", "uom": "pairs", "is_consumable": true,
		}, &item))
	require.Equal(t, http.StatusOK,
		do(t, "POST", server.URL+"/api/stock/receive", admin,
			map[string]any{"item_id": item.ID, "qty": 3}, nil))

	var request model.Request
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/requests/items", admin, map[string]any{
			"lines": []map[string]any{{"item_id": item.ID, "qty": 5}},
		}, &request))
	require.Equal(t, http.StatusOK,
		do(t, "POST", server.URL+fmt.Sprintf("/api/requests/%d/approve", request.ID), admin, nil, nil))

	var details struct {
		Request model.Request `json:"request"`
	}
	require.Equal(t, http.StatusOK,
		do(t, "GET", server.URL+fmt.Sprintf("/api/requests/%d", request.ID), admin, nil, &details))

	var errResp map[string]string
	status := do(t, "POST", server.URL+"/api/issues", admin, map[string]any{
		"request_id": request.ID,
		"lines": []map[string]any{
			{"request_line_id": details.Request.Lines[0].ID, "item_id": item.ID, "qty": 5},
		},
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, errResp["error"], "have 3, need 5")
}

func TestRoleBasedAccess(t *testing.T) {
	server, admin := setupTestServer(t)

	var dept model.Department
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/departments", admin, map[string]string{"name": "Safety"}, &dept))
	require.Equal(t, http.StatusCreated,
		do(t, "POST", server.URL+"/api/users", admin, map[string]any{
			"name": "Tine", "username": "tine", "password": "pass",
			"role": model.RoleStaff, "department_id": dept.ID,
		}, nil))
	staff := login(t, server, "tine", "pass")

	// Staff cannot create items, approve requests, or administer users.
	assert.Equal(t, http.StatusForbidden,
		do(t, "POST", server.URL+"/api/items", staff, map[string]string{"name": "X"}, nil))
	assert.Equal(t, http.StatusForbidden,
		do(t, "POST", server.URL+"/api/requests/1/approve", staff, nil, nil))
	assert.Equal(t, http.StatusForbidden,
		do(t, "GET", server.URL+"/api/users", staff, nil, nil))
}

func TestRequestNotFoundStatus(t *testing.T) {
	server, admin := setupTestServer(t)

	assert.Equal(t, http.StatusNotFound,
		do(t, "GET", server.URL+"/api/requests/424242", admin, nil, nil))
	assert.Equal(t, http.StatusNotFound,
		do(t, "POST", server.URL+"/api/requests/424242/approve", admin, nil, nil))
}

func TestUnmappedRequestTypeStatus(t *testing.T) {
	server, admin := setupTestServer(t)

	status := do(t, "POST", server.URL+"/api/requests", admin, map[string]any{
		"request_type": "transport",
		"lines":        []map[string]any{{"vehicle_type": "Truck", "quantity": 1}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
