package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanmlakar/emrs/internal/model"
)

// issuedConsumable creates an approved material request and issues qty
// helmets against it, returning the issue with lines populated.
func (f *fixture) issuedConsumable(t *testing.T, qty int) *model.Issue {
	t.Helper()
	r := f.materialRequest(t, qty)
	issue, err := CreateIssue(context.Background(), f.db, f.storesMgr, r.ID, "",
		[]model.NewIssueLine{{RequestLineID: r.Lines[0].ID, ItemID: f.helmet.ID, Qty: qty}})
	require.NoError(t, err)
	return issue
}

// issuedAsset creates an approved equipment request and issues the drill
// against it.
func (f *fixture) issuedAsset(t *testing.T) *model.Issue {
	t.Helper()
	r := f.assetRequest(t)
	issue, err := CreateIssue(context.Background(), f.db, f.storesMgr, r.ID, "",
		[]model.NewIssueLine{{RequestLineID: r.Lines[0].ID, ItemID: f.drill.ID, AssetID: &f.asset.ID}})
	require.NoError(t, err)
	return issue
}

func TestReturnConsumable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.issuedConsumable(t, 7)
	require.Equal(t, 3, f.onHand(t, f.helmet.ID))

	ret, err := CreateReturn(ctx, f.db, f.storesMgr, issue.ID, "unused",
		[]model.NewReturnLine{{IssueLineID: issue.Lines[0].ID, Qty: 2}})
	require.NoError(t, err)

	assert.Equal(t, issue.ID, ret.IssueID)
	assert.Equal(t, "unused", ret.Notes)
	require.Len(t, ret.Lines, 1)
	require.NotNil(t, ret.Lines[0].Qty)
	assert.Equal(t, 2, *ret.Lines[0].Qty)

	// 3 on hand + 2 back, with a matching positive journal row.
	assert.Equal(t, 5, f.onHand(t, f.helmet.ID))
	entries, err := ListLedger(ctx, f.db, f.helmet.ID, 0, "returns", ret.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.TxnReturn, entries[0].TxnType)
	assert.Equal(t, 2, entries[0].QtyDelta)
}

func TestReturnAssetOK(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.issuedAsset(t)

	ret, err := CreateReturn(ctx, f.db, f.storesMgr, issue.ID, "",
		[]model.NewReturnLine{{IssueLineID: issue.Lines[0].ID, Condition: model.ConditionOK}})
	require.NoError(t, err)

	require.Len(t, ret.Lines, 1)
	assert.Equal(t, model.ConditionOK, ret.Lines[0].Condition)

	asset, err := GetAsset(ctx, f.db, f.asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssetReady, asset.Status)

	entries, err := ListLedger(ctx, f.db, f.drill.ID, 0, "returns", ret.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].QtyDelta)
}

func TestReturnAssetDamaged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.issuedAsset(t)

	_, err := CreateReturn(ctx, f.db, f.storesMgr, issue.ID, "",
		[]model.NewReturnLine{{IssueLineID: issue.Lines[0].ID, Condition: model.ConditionDamaged}})
	require.NoError(t, err)

	asset, err := GetAsset(ctx, f.db, f.asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssetUnderMaintenance, asset.Status)
}

func TestReturnAssetDefaultsToOK(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.issuedAsset(t)

	ret, err := CreateReturn(ctx, f.db, f.storesMgr, issue.ID, "",
		[]model.NewReturnLine{{IssueLineID: issue.Lines[0].ID}})
	require.NoError(t, err)
	assert.Equal(t, model.ConditionOK, ret.Lines[0].Condition)

	asset, err := GetAsset(ctx, f.db, f.asset.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssetReady, asset.Status)
}

func TestReturnInvalidQty(t *testing.T) {
	f := newFixture(t)
	issue := f.issuedConsumable(t, 4)

	_, err := CreateReturn(context.Background(), f.db, f.storesMgr, issue.ID, "",
		[]model.NewReturnLine{{IssueLineID: issue.Lines[0].ID, Qty: 0}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 6, f.onHand(t, f.helmet.ID))
}

func TestReturnUnknownIssue(t *testing.T) {
	f := newFixture(t)

	_, err := CreateReturn(context.Background(), f.db, f.storesMgr, 424242, "",
		[]model.NewReturnLine{{IssueLineID: 1, Qty: 1}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReturnRollsBackWholeBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.issuedConsumable(t, 4)

	_, err := CreateReturn(ctx, f.db, f.storesMgr, issue.ID, "", []model.NewReturnLine{
		{IssueLineID: issue.Lines[0].ID, Qty: 2},
		{IssueLineID: 999, Qty: 1},
	})
	require.Error(t, err)

	// Neither the valid nor the invalid line took effect.
	assert.Equal(t, 6, f.onHand(t, f.helmet.ID))
	assert.Equal(t, 6, f.ledgerSum(t, f.helmet.ID))
}
