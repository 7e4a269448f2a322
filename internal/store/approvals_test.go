package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanmlakar/emrs/internal/model"
)

func (f *fixture) ppeRequest(t *testing.T) *model.Request {
	t.Helper()
	r, err := CreateRequest(context.Background(), f.db, f.engineer, "ppe", "", "PPE", "",
		[]model.NewRequestLine{line(t, map[string]any{"name": "Helmet", "quantity": 2})})
	require.NoError(t, err)
	return r
}

func TestApproveRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.ppeRequest(t)

	approved, err := ApproveRequest(ctx, f.db, f.manager, r.ID, "go ahead")
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, f.manager.UserID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)

	approvals, err := ListApprovals(ctx, f.db, r.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, model.ApprovalApproved, approvals[0].Status)
	assert.Equal(t, f.safety, approvals[0].DepartmentID)
	assert.Equal(t, "go ahead", approvals[0].Notes)
}

func TestRejectRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.ppeRequest(t)

	rejected, err := RejectRequest(ctx, f.db, f.manager, r.ID, "no budget")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)

	approvals, err := ListApprovals(ctx, f.db, r.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, model.ApprovalRejected, approvals[0].Status)
}

func TestApproveAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.ppeRequest(t)

	// The requester themselves cannot approve.
	_, err := ApproveRequest(ctx, f.db, f.engineer, r.ID, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// A manager of another department cannot approve.
	_, err = ApproveRequest(ctx, f.db, f.storesMgr, r.ID, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Admin can.
	_, err = ApproveRequest(ctx, f.db, f.admin, r.ID, "")
	assert.NoError(t, err)
}

func TestApproveNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := ApproveRequest(context.Background(), f.db, f.admin, 424242, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveAlreadyDecided(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.ppeRequest(t)

	_, err := RejectRequest(ctx, f.db, f.manager, r.ID, "")
	require.NoError(t, err)

	_, err = ApproveRequest(ctx, f.db, f.manager, r.ID, "")
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)

	// No second history row was written.
	assert.Equal(t, 1, f.approvalCount(t, r.ID))
}

func TestTransferRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.ppeRequest(t)

	transferred, err := TransferRequest(ctx, f.db, f.manager, r.ID, f.stores, "wrong queue")
	require.NoError(t, err)

	assert.Equal(t, model.StatusTransferred, transferred.Status)
	assert.Equal(t, f.stores, transferred.DepartmentID)
	require.NotNil(t, transferred.TransferredTo)
	assert.Equal(t, f.stores, *transferred.TransferredTo)
	assert.Equal(t, "wrong queue", transferred.TransferNotes)

	// History row is scoped to the target department.
	approvals, err := ListApprovals(ctx, f.db, r.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, model.ApprovalTransferred, approvals[0].Status)
	assert.Equal(t, f.stores, approvals[0].DepartmentID)

	// The request is now in the stores manager's list, not the safety
	// manager's.
	mine, err := ListRequests(ctx, f.db, f.storesMgr, "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	gone, err := ListRequests(ctx, f.db, f.manager, "")
	require.NoError(t, err)
	assert.Empty(t, gone)
}

func TestTransferTwiceRehomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.ppeRequest(t)

	maintenance, err := CreateDepartment(ctx, f.db, "Maintenance")
	require.NoError(t, err)

	_, err = TransferRequest(ctx, f.db, f.manager, r.ID, f.stores, "")
	require.NoError(t, err)

	// Second hop is decided by the new owning department's manager.
	final, err := TransferRequest(ctx, f.db, f.storesMgr, r.ID, maintenance.ID, "")
	require.NoError(t, err)

	assert.Equal(t, maintenance.ID, final.DepartmentID)
	require.NotNil(t, final.TransferredTo)
	assert.Equal(t, maintenance.ID, *final.TransferredTo)

	// History only ever grows: two transfer rows.
	approvals, err := ListApprovals(ctx, f.db, r.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	assert.Equal(t, model.ApprovalTransferred, approvals[0].Status)
	assert.Equal(t, model.ApprovalTransferred, approvals[1].Status)
	assert.Equal(t, f.stores, approvals[0].DepartmentID)
	assert.Equal(t, maintenance.ID, approvals[1].DepartmentID)
}

func TestTransferredRequestCanBeApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.ppeRequest(t)

	_, err := TransferRequest(ctx, f.db, f.manager, r.ID, f.stores, "")
	require.NoError(t, err)

	// The old department's manager lost authority with the transfer.
	_, err = ApproveRequest(ctx, f.db, f.manager, r.ID, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	approved, err := ApproveRequest(ctx, f.db, f.storesMgr, r.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	assert.Equal(t, 2, f.approvalCount(t, r.ID))
}

func TestTransferToUnknownDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.ppeRequest(t)

	_, err := TransferRequest(ctx, f.db, f.manager, r.ID, 999, "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	// Nothing changed and no history row was written.
	got, err := GetRequest(ctx, f.db, f.manager, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, 0, f.approvalCount(t, r.ID))
}
