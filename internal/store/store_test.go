package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zanmlakar/emrs/internal/db"
	"github.com/zanmlakar/emrs/internal/model"
	"github.com/zanmlakar/emrs/internal/scope"
)

// fixture is the shared seed data for store tests: two departments with a
// manager and a requester each, a consumable item with stock, and an asset.
type fixture struct {
	db *sql.DB

	stores int64 // department owning material/equipment requests
	safety int64 // department owning ppe requests

	admin     scope.Caller
	manager   scope.Caller // manages safety
	storesMgr scope.Caller // manages stores
	engineer  scope.Caller // safety
	staff     scope.Caller // stores

	helmet *model.Item  // consumable, 10 on hand
	drill  *model.Item  // non-consumable
	asset  *model.Asset // drill unit, Ready
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	database := db.NewTestDB(t)
	f := &fixture{db: database}

	admin, err := CreateDepartment(ctx, database, "Administration")
	require.NoError(t, err)
	stores, err := CreateDepartment(ctx, database, "Stores")
	require.NoError(t, err)
	safety, err := CreateDepartment(ctx, database, "Safety")
	require.NoError(t, err)
	f.stores = stores.ID
	f.safety = safety.ID

	require.NoError(t, SetRequestTypeMapping(ctx, database, "ppe", safety.ID))
	require.NoError(t, SetRequestTypeMapping(ctx, database, "material", stores.ID))
	require.NoError(t, SetRequestTypeMapping(ctx, database, "equipment", stores.ID))

	f.admin = f.user(t, "Ana Admin", "ana", model.RoleAdmin, admin.ID)
	f.manager = f.user(t, "Maja Manager", "maja", model.RoleManager, safety.ID)
	f.storesMgr = f.user(t, "Samo Stores", "samo", model.RoleManager, stores.ID)
	f.engineer = f.user(t, "Eva Engineer", "eva", model.RoleEngineer, safety.ID)
	f.staff = f.user(t, "Tine Staff", "tine", model.RoleStaff, stores.ID)

	f.helmet, err = CreateItem(ctx, database, "Safety Helmet", "", "pcs", true)
	require.NoError(t, err)
	require.NoError(t, ReceiveStock(ctx, database, f.helmet.ID, model.BaseLocationID, 10))

	f.drill, err = CreateItem(ctx, database, "Hammer Drill", "", "pcs", false)
	require.NoError(t, err)
	f.asset, err = CreateAsset(ctx, database, f.drill.ID, "DRL-001", model.BaseLocationID)
	require.NoError(t, err)

	return f
}

func (f *fixture) user(t *testing.T, name, username, role string, departmentID int64) scope.Caller {
	t.Helper()
	u, err := CreateUser(context.Background(), f.db, name, username, "hash", role, departmentID)
	require.NoError(t, err)
	return scope.Caller{UserID: u.ID, Role: role, DepartmentID: departmentID}
}

// line builds a raw request-line payload the way the HTTP layer would.
func line(t *testing.T, fields map[string]any) model.NewRequestLine {
	t.Helper()
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	l, err := model.LineFromPayload(raw)
	require.NoError(t, err)
	return l
}

// onHand reads the current on-hand quantity at the base store.
func (f *fixture) onHand(t *testing.T, itemID int64) int {
	t.Helper()
	qty, err := GetOnHand(context.Background(), f.db, itemID, model.BaseLocationID)
	require.NoError(t, err)
	return qty
}

// ledgerSum totals qty_delta for an item at the base store.
func (f *fixture) ledgerSum(t *testing.T, itemID int64) int {
	t.Helper()
	entries, err := ListLedger(context.Background(), f.db, itemID, model.BaseLocationID, "", 0)
	require.NoError(t, err)
	sum := 0
	for _, e := range entries {
		sum += e.QtyDelta
	}
	return sum
}

// approvalCount counts history rows for a request.
func (f *fixture) approvalCount(t *testing.T, requestID int64) int {
	t.Helper()
	approvals, err := ListApprovals(context.Background(), f.db, requestID)
	require.NoError(t, err)
	return len(approvals)
}
