package schedule

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unithq/cqhub-go/internal/apperrors"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/store"
)

// CreateSwap opens a swap request. The requester must currently hold the slot
// they are asking to be relieved from.
func (s *Service) CreateSwap(ctx context.Context, requester Actor, req models.SwapCreateRequest) (*models.SwapRequest, error) {
	if req.CurrentShiftType != models.ShiftType1 && req.CurrentShiftType != models.ShiftType2 {
		return nil, apperrors.Validation("shift_type must be %s or %s", models.ShiftType1, models.ShiftType2)
	}

	entry, err := s.store.GetEntryByID(ctx, req.ScheduleID)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load schedule entry")
	}
	if entry == nil {
		return nil, apperrors.NotFound("schedule entry not found")
	}

	shift := entry.ShiftFor(req.CurrentShiftType)
	slot := shift.SlotAt(req.CurrentPosition)
	if slot == nil {
		return nil, apperrors.Validation("position must be 1 or 2")
	}
	if slot.PersonID == nil || *slot.PersonID != requester.ID {
		return nil, apperrors.Forbidden("you can only request a swap for a shift you hold")
	}

	swap := &models.SwapRequest{
		ID:                    uuid.New(),
		RequesterID:           requester.ID,
		RequesterName:         requester.Name,
		ScheduleID:            entry.ID,
		ScheduleDate:          entry.Date,
		CurrentShiftType:      req.CurrentShiftType,
		CurrentPosition:       req.CurrentPosition,
		ProposedPersonnelID:   req.ProposedPersonnelID,
		ProposedPersonnelName: req.ProposedPersonnelName,
		Reason:                req.Reason,
		Status:                models.SwapStatusPending,
	}

	if err := s.store.CreateSwap(ctx, swap); err != nil {
		return nil, apperrors.Upstream(err, "failed to create swap request")
	}

	s.hub.Publish(store.TopicSwapRequests, "created", swap.ID)
	return swap, nil
}

// ApproveSwap resolves a pending swap: the proposed person replaces the
// requester in the referenced slot and the request is marked approved, both
// in one transaction.
func (s *Service) ApproveSwap(ctx context.Context, swapID uuid.UUID, approver Actor) (*models.SwapRequest, error) {
	swap, err := s.store.GetSwap(ctx, swapID)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load swap request")
	}
	if swap == nil {
		return nil, apperrors.NotFound("swap request not found")
	}
	if swap.Status != models.SwapStatusPending {
		return nil, apperrors.InvalidState("swap request is already %s", swap.Status)
	}

	entry, err := s.store.GetEntryByID(ctx, swap.ScheduleID)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load schedule entry")
	}
	if entry == nil {
		return nil, apperrors.NotFound("the schedule entry for this swap no longer exists")
	}

	// The slot may have been reassigned since the request was filed. Approval
	// still proceeds on the referenced slot; the mismatch is logged so the
	// approver's action stays auditable.
	shift := entry.ShiftFor(swap.CurrentShiftType)
	slot := shift.SlotAt(swap.CurrentPosition)
	if slot == nil || slot.PersonID == nil || *slot.PersonID != swap.RequesterID {
		s.logger.Warn("swap slot holder changed since request was filed",
			zap.String("swap_id", swap.ID.String()),
			zap.String("schedule_date", swap.ScheduleDate))
	}

	if err := s.store.ApplySwapApproval(ctx, swap, approver); err != nil {
		return nil, apperrors.Upstream(err, "failed to apply swap approval")
	}

	swap.Status = models.SwapStatusApproved
	swap.ResolvedBy = &approver.ID
	swap.ResolvedByName = &approver.Name

	s.hub.Publish(store.TopicSwapRequests, "updated", swap.ID)
	s.hub.Publish(store.TopicSchedule, "updated", swap.ScheduleID)
	return swap, nil
}

// RejectSwap resolves a pending swap without touching the schedule.
func (s *Service) RejectSwap(ctx context.Context, swapID uuid.UUID, approver Actor) (*models.SwapRequest, error) {
	swap, err := s.store.GetSwap(ctx, swapID)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load swap request")
	}
	if swap == nil {
		return nil, apperrors.NotFound("swap request not found")
	}
	if swap.Status != models.SwapStatusPending {
		return nil, apperrors.InvalidState("swap request is already %s", swap.Status)
	}

	if err := s.store.UpdateSwapStatus(ctx, swapID, models.SwapStatusRejected, approver); err != nil {
		return nil, apperrors.Upstream(err, "failed to reject swap request")
	}

	swap.Status = models.SwapStatusRejected
	swap.ResolvedBy = &approver.ID
	swap.ResolvedByName = &approver.Name

	s.hub.Publish(store.TopicSwapRequests, "updated", swap.ID)
	return swap, nil
}

// CancelSwap withdraws a pending swap. Only the requester or someone holding
// swap-approval permission may cancel; isApprover carries the caller's
// permission check.
func (s *Service) CancelSwap(ctx context.Context, swapID uuid.UUID, caller Actor, isApprover bool) (*models.SwapRequest, error) {
	swap, err := s.store.GetSwap(ctx, swapID)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load swap request")
	}
	if swap == nil {
		return nil, apperrors.NotFound("swap request not found")
	}
	if swap.Status != models.SwapStatusPending {
		return nil, apperrors.InvalidState("only pending swap requests can be cancelled")
	}
	if swap.RequesterID != caller.ID && !isApprover {
		return nil, apperrors.Forbidden("only the requester or an approver can cancel this request")
	}

	if err := s.store.UpdateSwapStatus(ctx, swapID, models.SwapStatusCancelled, caller); err != nil {
		return nil, apperrors.Upstream(err, "failed to cancel swap request")
	}

	swap.Status = models.SwapStatusCancelled
	swap.ResolvedBy = &caller.ID
	swap.ResolvedByName = &caller.Name

	s.hub.Publish(store.TopicSwapRequests, "updated", swap.ID)
	return swap, nil
}

// ListSwaps returns swap requests, optionally filtered by status.
func (s *Service) ListSwaps(ctx context.Context, status string) ([]models.SwapRequest, error) {
	if status != "" {
		switch status {
		case models.SwapStatusPending, models.SwapStatusApproved,
			models.SwapStatusRejected, models.SwapStatusCancelled:
		default:
			return nil, apperrors.Validation("unknown swap status %q", status)
		}
	}
	swaps, err := s.store.ListSwaps(ctx, status)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to query swap requests")
	}
	return swaps, nil
}
