package api

import (
	"database/sql"
	"net/http"

	"github.com/zanmlakar/emrs/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	departmentsHandler := &DepartmentsHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	assetsHandler := &AssetsHandler{DB: db}
	requestsHandler := &RequestsHandler{DB: db}
	issuesHandler := &IssuesHandler{DB: db}
	returnsHandler := &ReturnsHandler{DB: db}
	stockHandler := &StockHandler{DB: db}
	activityHandler := &ActivityHandler{DB: db}
	maintenanceHandler := &MaintenanceHandler{DB: db}
	dashboardHandler := &DashboardHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)
	requireEngineer := RequireRole(model.RoleEngineer)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Departments: read (all roles), write (admin only).
	mux.Handle("GET /api/departments", authMW(http.HandlerFunc(departmentsHandler.List)))
	mux.Handle("POST /api/departments", authMW(requireAdmin(http.HandlerFunc(departmentsHandler.Create))))
	mux.Handle("GET /api/departments/{id}", authMW(http.HandlerFunc(departmentsHandler.Get)))
	mux.Handle("PUT /api/departments/{id}", authMW(requireAdmin(http.HandlerFunc(departmentsHandler.Update))))
	mux.Handle("DELETE /api/departments/{id}", authMW(requireAdmin(http.HandlerFunc(departmentsHandler.Delete))))

	// Request-type routing (admin only).
	mux.Handle("GET /api/request-types", authMW(http.HandlerFunc(departmentsHandler.ListMappings)))
	mux.Handle("PUT /api/request-types", authMW(requireAdmin(http.HandlerFunc(departmentsHandler.SetMapping))))

	// Item catalog: read (all roles), write (manager+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("PUT /api/items/{id}/photo", authMW(requireManager(http.HandlerFunc(itemsHandler.UploadPhoto))))
	mux.Handle("GET /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.GetPhoto)))

	// Assets: read (all roles), write (manager+).
	mux.Handle("GET /api/assets", authMW(http.HandlerFunc(assetsHandler.List)))
	mux.Handle("POST /api/assets", authMW(requireManager(http.HandlerFunc(assetsHandler.Create))))
	mux.Handle("GET /api/assets/{id}", authMW(http.HandlerFunc(assetsHandler.Get)))
	mux.Handle("PUT /api/assets/{id}/status", authMW(requireManager(http.HandlerFunc(assetsHandler.UpdateStatus))))

	// Requests (all roles; visibility is scoped in the store).
	mux.Handle("POST /api/requests", authMW(http.HandlerFunc(requestsHandler.Create)))
	mux.Handle("POST /api/requests/items", authMW(http.HandlerFunc(requestsHandler.CreateItems)))
	mux.Handle("POST /api/requests/equipment", authMW(http.HandlerFunc(requestsHandler.CreateBulk)))
	mux.Handle("GET /api/requests", authMW(http.HandlerFunc(requestsHandler.List)))
	mux.Handle("GET /api/requests/{id}", authMW(http.HandlerFunc(requestsHandler.Get)))
	mux.Handle("GET /api/requests/{id}/approvals", authMW(http.HandlerFunc(requestsHandler.Approvals)))

	// Decisions (manager+; department authority is checked in the store).
	mux.Handle("POST /api/requests/{id}/approve", authMW(requireManager(http.HandlerFunc(requestsHandler.Approve))))
	mux.Handle("POST /api/requests/{id}/reject", authMW(requireManager(http.HandlerFunc(requestsHandler.Reject))))
	mux.Handle("POST /api/requests/{id}/transfer", authMW(requireManager(http.HandlerFunc(requestsHandler.Transfer))))

	// Issues and returns (engineer+).
	mux.Handle("POST /api/issues", authMW(requireEngineer(http.HandlerFunc(issuesHandler.Create))))
	mux.Handle("GET /api/issues", authMW(http.HandlerFunc(issuesHandler.List)))
	mux.Handle("GET /api/issues/{id}", authMW(http.HandlerFunc(issuesHandler.Get)))
	mux.Handle("POST /api/returns", authMW(requireEngineer(http.HandlerFunc(returnsHandler.Create))))
	mux.Handle("GET /api/returns/{id}", authMW(http.HandlerFunc(returnsHandler.Get)))

	// Stock: read (all roles), receipt and reconcile (manager+).
	mux.Handle("GET /api/stock", authMW(http.HandlerFunc(stockHandler.List)))
	mux.Handle("POST /api/stock/receive", authMW(requireManager(http.HandlerFunc(stockHandler.Receive))))
	mux.Handle("GET /api/stock/ledger", authMW(http.HandlerFunc(stockHandler.Ledger)))
	mux.Handle("POST /api/stock/reconcile", authMW(requireManager(http.HandlerFunc(stockHandler.Reconcile))))

	// Activity, maintenance, dashboard.
	mux.Handle("GET /api/activity", authMW(http.HandlerFunc(activityHandler.List)))
	mux.Handle("POST /api/maintenance", authMW(requireEngineer(http.HandlerFunc(maintenanceHandler.Create))))
	mux.Handle("GET /api/maintenance", authMW(http.HandlerFunc(maintenanceHandler.List)))
	mux.Handle("GET /api/dashboard", authMW(http.HandlerFunc(dashboardHandler.Get)))

	return mux
}
