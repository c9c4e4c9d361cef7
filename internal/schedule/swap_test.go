package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unithq/cqhub-go/internal/apperrors"
	"github.com/unithq/cqhub-go/internal/models"
)

func seedSwapFixture(t *testing.T) (*mockStore, *Service, Actor, *models.ScheduleEntry) {
	t.Helper()
	st := newMockStore()
	requester := Actor{ID: uuid.New(), Name: "SPC Hall"}

	entry := entryOn("2026-01-25", models.ScheduleStatusScheduled)
	entry.Shift2.Slot1 = slotFor(requester.ID, requester.Name)
	st.entries[entry.Date] = entry

	return st, newTestService(st), requester, entry
}

func TestCreateSwapRequiresHoldingTheSlot(t *testing.T) {
	_, svc, requester, entry := seedSwapFixture(t)

	proposed := uuid.New()

	// requester holds shift2 slot1, not shift1
	_, err := svc.CreateSwap(context.Background(), requester, models.SwapCreateRequest{
		ScheduleID:            entry.ID,
		CurrentShiftType:      models.ShiftType1,
		CurrentPosition:       1,
		ProposedPersonnelID:   proposed,
		ProposedPersonnelName: "PFC West",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	swap, err := svc.CreateSwap(context.Background(), requester, models.SwapCreateRequest{
		ScheduleID:            entry.ID,
		CurrentShiftType:      models.ShiftType2,
		CurrentPosition:       1,
		ProposedPersonnelID:   proposed,
		ProposedPersonnelName: "PFC West",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusPending, swap.Status)
	assert.Equal(t, entry.Date, swap.ScheduleDate)
}

func TestCreateSwapUnknownEntry(t *testing.T) {
	_, svc, requester, _ := seedSwapFixture(t)

	_, err := svc.CreateSwap(context.Background(), requester, models.SwapCreateRequest{
		ScheduleID:            uuid.New(),
		CurrentShiftType:      models.ShiftType2,
		CurrentPosition:       1,
		ProposedPersonnelID:   uuid.New(),
		ProposedPersonnelName: "PFC West",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestApproveSwapUpdatesScheduleAndRequestTogether(t *testing.T) {
	st, svc, requester, entry := seedSwapFixture(t)
	approver := Actor{ID: uuid.New(), Name: "SSG Ford"}
	proposed := uuid.New()

	swap, err := svc.CreateSwap(context.Background(), requester, models.SwapCreateRequest{
		ScheduleID:            entry.ID,
		CurrentShiftType:      models.ShiftType2,
		CurrentPosition:       1,
		ProposedPersonnelID:   proposed,
		ProposedPersonnelName: "PFC West",
	})
	require.NoError(t, err)

	resolved, err := svc.ApproveSwap(context.Background(), swap.ID, approver)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, approver.ID, *resolved.ResolvedBy)

	// the schedule slot now holds the proposed person
	assert.Equal(t, proposed, *entry.Shift2.Slot1.PersonID)
	assert.Equal(t, "PFC West", *entry.Shift2.Slot1.PersonName)
	// the stored request is approved too
	assert.Equal(t, models.SwapStatusApproved, st.swaps[swap.ID].Status)
}

func TestApproveSwapFailureLeavesBothRecordsUntouched(t *testing.T) {
	st, svc, requester, entry := seedSwapFixture(t)
	approver := Actor{ID: uuid.New(), Name: "SSG Ford"}
	proposed := uuid.New()

	swap, err := svc.CreateSwap(context.Background(), requester, models.SwapCreateRequest{
		ScheduleID:            entry.ID,
		CurrentShiftType:      models.ShiftType2,
		CurrentPosition:       1,
		ProposedPersonnelID:   proposed,
		ProposedPersonnelName: "PFC West",
	})
	require.NoError(t, err)

	st.swapApprovalErr = errors.New("injected write failure")

	_, err = svc.ApproveSwap(context.Background(), swap.ID, approver)
	require.Error(t, err)

	// neither half of the approval may be visible
	assert.Equal(t, requester.ID, *entry.Shift2.Slot1.PersonID, "schedule must not change on failure")
	assert.Equal(t, models.SwapStatusPending, st.swaps[swap.ID].Status, "request must stay pending on failure")
}

func TestApproveSwapNonPending(t *testing.T) {
	st, svc, requester, entry := seedSwapFixture(t)
	approver := Actor{ID: uuid.New(), Name: "SSG Ford"}

	swap, err := svc.CreateSwap(context.Background(), requester, models.SwapCreateRequest{
		ScheduleID:            entry.ID,
		CurrentShiftType:      models.ShiftType2,
		CurrentPosition:       1,
		ProposedPersonnelID:   uuid.New(),
		ProposedPersonnelName: "PFC West",
	})
	require.NoError(t, err)
	st.swaps[swap.ID].Status = models.SwapStatusRejected

	_, err = svc.ApproveSwap(context.Background(), swap.ID, approver)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	_, err = svc.ApproveSwap(context.Background(), uuid.New(), approver)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestApproveSwapProceedsWhenSlotHolderChanged(t *testing.T) {
	st, svc, requester, entry := seedSwapFixture(t)
	approver := Actor{ID: uuid.New(), Name: "SSG Ford"}
	proposed := uuid.New()

	swap, err := svc.CreateSwap(context.Background(), requester, models.SwapCreateRequest{
		ScheduleID:            entry.ID,
		CurrentShiftType:      models.ShiftType2,
		CurrentPosition:       1,
		ProposedPersonnelID:   proposed,
		ProposedPersonnelName: "PFC West",
	})
	require.NoError(t, err)

	// someone manually reassigned the slot after the request was filed
	other := uuid.New()
	entry.Shift2.Slot1 = slotFor(other, "SGT Price")

	resolved, err := svc.ApproveSwap(context.Background(), swap.ID, approver)
	require.NoError(t, err, "approval proceeds on the referenced slot")
	assert.Equal(t, models.SwapStatusApproved, resolved.Status)
	assert.Equal(t, proposed, *entry.Shift2.Slot1.PersonID)
	assert.Equal(t, models.SwapStatusApproved, st.swaps[swap.ID].Status)
}

func TestRejectSwapLeavesScheduleAlone(t *testing.T) {
	st, svc, requester, entry := seedSwapFixture(t)
	approver := Actor{ID: uuid.New(), Name: "SSG Ford"}

	swap, err := svc.CreateSwap(context.Background(), requester, models.SwapCreateRequest{
		ScheduleID:            entry.ID,
		CurrentShiftType:      models.ShiftType2,
		CurrentPosition:       1,
		ProposedPersonnelID:   uuid.New(),
		ProposedPersonnelName: "PFC West",
	})
	require.NoError(t, err)

	resolved, err := svc.RejectSwap(context.Background(), swap.ID, approver)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusRejected, resolved.Status)
	assert.Equal(t, requester.ID, *entry.Shift2.Slot1.PersonID)

	// terminal states stay terminal
	_, err = svc.RejectSwap(context.Background(), swap.ID, approver)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
	assert.Equal(t, models.SwapStatusRejected, st.swaps[swap.ID].Status)
}

func TestCancelSwapPermissions(t *testing.T) {
	_, svc, requester, entry := seedSwapFixture(t)

	newPending := func() *models.SwapRequest {
		swap, err := svc.CreateSwap(context.Background(), requester, models.SwapCreateRequest{
			ScheduleID:            entry.ID,
			CurrentShiftType:      models.ShiftType2,
			CurrentPosition:       1,
			ProposedPersonnelID:   uuid.New(),
			ProposedPersonnelName: "PFC West",
		})
		require.NoError(t, err)
		return swap
	}

	// a random member can't cancel someone else's request
	swap := newPending()
	stranger := Actor{ID: uuid.New(), Name: "PV2 Lee"}
	_, err := svc.CancelSwap(context.Background(), swap.ID, stranger, false)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	// the requester can
	resolved, err := svc.CancelSwap(context.Background(), swap.ID, requester, false)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusCancelled, resolved.Status)

	// so can anyone holding approval permission
	swap = newPending()
	approver := Actor{ID: uuid.New(), Name: "SSG Ford"}
	resolved, err = svc.CancelSwap(context.Background(), swap.ID, approver, true)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusCancelled, resolved.Status)

	// cancelled is terminal
	_, err = svc.CancelSwap(context.Background(), swap.ID, requester, false)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestListSwapsRejectsUnknownStatus(t *testing.T) {
	_, svc, _, _ := seedSwapFixture(t)
	_, err := svc.ListSwaps(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
