package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanmlakar/emrs/internal/model"
)

// materialRequest creates an approved request for qty helmets and returns it
// with its lines populated.
func (f *fixture) materialRequest(t *testing.T, qty int) *model.Request {
	t.Helper()
	ctx := context.Background()
	r, err := CreateItemRequest(ctx, f.db, f.staff, "Consumables", "",
		[]model.ItemRequestLine{{ItemID: f.helmet.ID, Qty: qty}})
	require.NoError(t, err)
	_, err = ApproveRequest(ctx, f.db, f.storesMgr, r.ID, "")
	require.NoError(t, err)
	got, err := GetRequest(ctx, f.db, f.admin, r.ID)
	require.NoError(t, err)
	return got
}

// assetRequest creates an approved request for the drill and returns it with
// its lines populated.
func (f *fixture) assetRequest(t *testing.T) *model.Request {
	t.Helper()
	ctx := context.Background()
	rs, err := CreateBulkRequests(ctx, f.db, f.staff,
		[]model.EquipmentRequestPayload{{ItemID: &f.drill.ID, Subject: "Drill"}})
	require.NoError(t, err)
	require.Len(t, rs, 1)
	_, err = ApproveRequest(ctx, f.db, f.storesMgr, rs[0].ID, "")
	require.NoError(t, err)
	got, err := GetRequest(ctx, f.db, f.admin, rs[0].ID)
	require.NoError(t, err)
	return got
}

func TestIssueConsumable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.materialRequest(t, 4)

	issue, err := CreateIssue(ctx, f.db, f.storesMgr, r.ID, "WB-17",
		[]model.NewIssueLine{{RequestLineID: r.Lines[0].ID, ItemID: f.helmet.ID, Qty: 4}})
	require.NoError(t, err)

	assert.Equal(t, r.ID, issue.RequestID)
	assert.Equal(t, "WB-17", issue.WaybillNo)
	assert.Equal(t, f.storesMgr.UserID, issue.IssuedBy)
	require.Len(t, issue.Lines, 1)
	require.NotNil(t, issue.Lines[0].Qty)
	assert.Equal(t, 4, *issue.Lines[0].Qty)

	// Stock dropped and the journal recorded a matching negative delta.
	assert.Equal(t, 6, f.onHand(t, f.helmet.ID))
	entries, err := ListLedger(ctx, f.db, f.helmet.ID, 0, "issues", issue.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.TxnIssue, entries[0].TxnType)
	assert.Equal(t, -4, entries[0].QtyDelta)
}

func TestIssueInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Drain stock down to 3 first.
	r1 := f.materialRequest(t, 7)
	_, err := CreateIssue(ctx, f.db, f.storesMgr, r1.ID, "",
		[]model.NewIssueLine{{RequestLineID: r1.Lines[0].ID, ItemID: f.helmet.ID, Qty: 7}})
	require.NoError(t, err)
	require.Equal(t, 3, f.onHand(t, f.helmet.ID))

	r2 := f.materialRequest(t, 5)
	_, err = CreateIssue(ctx, f.db, f.storesMgr, r2.ID, "",
		[]model.NewIssueLine{{RequestLineID: r2.Lines[0].ID, ItemID: f.helmet.ID, Qty: 5}})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Message, "have 3, need 5")

	// The failed issue did not touch stock or the journal.
	assert.Equal(t, 3, f.onHand(t, f.helmet.ID))
	assert.Equal(t, 3, f.ledgerSum(t, f.helmet.ID))
}

func TestIssueAsset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.assetRequest(t)

	issue, err := CreateIssue(ctx, f.db, f.storesMgr, r.ID, "",
		[]model.NewIssueLine{{RequestLineID: r.Lines[0].ID, ItemID: f.drill.ID, AssetID: &f.asset.ID}})
	require.NoError(t, err)

	require.Len(t, issue.Lines, 1)
	require.NotNil(t, issue.Lines[0].AssetID)
	assert.Equal(t, f.asset.ID, *issue.Lines[0].AssetID)

	asset, err := GetAsset(ctx, f.db, f.asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssetIssued, asset.Status)

	// Asset movements journal as zero-delta rows.
	entries, err := ListLedger(ctx, f.db, f.drill.ID, 0, "issues", issue.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].QtyDelta)
}

func TestIssueAssetNotReady(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.assetRequest(t)

	require.NoError(t, UpdateAssetStatus(ctx, f.db, f.asset.ID, model.AssetUnderMaintenance))

	_, err := CreateIssue(ctx, f.db, f.storesMgr, r.ID, "",
		[]model.NewIssueLine{{RequestLineID: r.Lines[0].ID, ItemID: f.drill.ID, AssetID: &f.asset.ID}})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Asset is not available", ce.Message)
}

func TestIssueAssetIDRequired(t *testing.T) {
	f := newFixture(t)
	r := f.assetRequest(t)

	_, err := CreateIssue(context.Background(), f.db, f.storesMgr, r.ID, "",
		[]model.NewIssueLine{{RequestLineID: r.Lines[0].ID, ItemID: f.drill.ID}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestIssueItemMismatch(t *testing.T) {
	f := newFixture(t)
	r := f.materialRequest(t, 2)

	_, err := CreateIssue(context.Background(), f.db, f.storesMgr, r.ID, "",
		[]model.NewIssueLine{{RequestLineID: r.Lines[0].ID, ItemID: f.drill.ID, AssetID: &f.asset.ID}})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
}

func TestIssueUnknownRequestLine(t *testing.T) {
	f := newFixture(t)
	r := f.materialRequest(t, 2)

	_, err := CreateIssue(context.Background(), f.db, f.storesMgr, r.ID, "",
		[]model.NewIssueLine{{RequestLineID: 999, ItemID: f.helmet.ID, Qty: 1}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestIssueRollsBackWholeBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.materialRequest(t, 3)

	// First line is fine, second references a missing request line; neither
	// may take effect.
	_, err := CreateIssue(ctx, f.db, f.storesMgr, r.ID, "", []model.NewIssueLine{
		{RequestLineID: r.Lines[0].ID, ItemID: f.helmet.ID, Qty: 2},
		{RequestLineID: 999, ItemID: f.helmet.ID, Qty: 1},
	})
	require.Error(t, err)

	assert.Equal(t, 10, f.onHand(t, f.helmet.ID))
	assert.Equal(t, 10, f.ledgerSum(t, f.helmet.ID))
}

func TestStockMatchesLedgerAfterMixedHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.materialRequest(t, 4)
	issue, err := CreateIssue(ctx, f.db, f.storesMgr, r.ID, "",
		[]model.NewIssueLine{{RequestLineID: r.Lines[0].ID, ItemID: f.helmet.ID, Qty: 4}})
	require.NoError(t, err)

	_, err = CreateReturn(ctx, f.db, f.storesMgr, issue.ID, "",
		[]model.NewReturnLine{{IssueLineID: issue.Lines[0].ID, Qty: 1}})
	require.NoError(t, err)

	require.NoError(t, ReceiveStock(ctx, f.db, f.helmet.ID, model.BaseLocationID, 5))

	// 10 - 4 + 1 + 5, and the journal agrees exactly.
	assert.Equal(t, 12, f.onHand(t, f.helmet.ID))
	assert.Equal(t, 12, f.ledgerSum(t, f.helmet.ID))

	drifts, err := ReconcileStock(ctx, f.db)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
