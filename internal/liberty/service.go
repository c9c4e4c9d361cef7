package liberty

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unithq/cqhub-go/internal/apperrors"
	"github.com/unithq/cqhub-go/internal/clock"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/store"
)

// supersededReason marks a request cancelled by its own resubmission.
const supersededReason = "superseded by resubmission"

// Requester identifies who a request is filed for.
type Requester struct {
	ID    uuid.UUID
	Name  string
	Email *string
	Rank  string
}

// Approver carries the identity fields approval stamps onto a request.
type Approver struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Name      string // display name fallback
}

// Initials returns the approver's two-letter initials, falling back to
// splitting the display name when first/last are not populated.
func (a Approver) Initials() string {
	first, last := a.FirstName, a.LastName
	if first == "" || last == "" {
		fields := strings.Fields(a.Name)
		if len(fields) >= 2 {
			first, last = fields[0], fields[len(fields)-1]
		} else if len(fields) == 1 {
			first, last = fields[0], ""
		}
	}
	initials := ""
	if first != "" {
		initials += string([]rune(first)[0])
	}
	if last != "" {
		initials += string([]rune(last)[0])
	}
	return strings.ToUpper(initials)
}

// Store is the persistence surface of the liberty subsystem.
type Store interface {
	GetRequest(ctx context.Context, id uuid.UUID) (*models.LibertyRequest, error)
	// FindNonTerminal returns the requester's pending or approved request for
	// the weekend, or nil.
	FindNonTerminal(ctx context.Context, requesterID uuid.UUID, weekendDate string) (*models.LibertyRequest, error)
	CreateRequest(ctx context.Context, req *models.LibertyRequest) error
	// SupersedeAndCreate cancels the old request with the given reason and
	// inserts the new one in the same transaction.
	SupersedeAndCreate(ctx context.Context, oldID uuid.UUID, reason string, req *models.LibertyRequest) error
	UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) error
	// ReplaceTimeSlots overwrites the request's time-slot list.
	ReplaceTimeSlots(ctx context.Context, id uuid.UUID, slots []models.LibertyTimeSlot) error
	ListRequests(ctx context.Context, weekendDate, status string) ([]models.LibertyRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.LibertyRequest, error)
}

// StatusUpdate carries a status transition's stamped metadata.
type StatusUpdate struct {
	Status           string
	ApprovedBy       *uuid.UUID
	ApproverInitials *string
	RejectedBy       *uuid.UUID
	CancelReason     *string
	ResolvedAt       time.Time
}

// Notifier is invoked after a new pending request is created. Implementations
// must never return an error into the create path.
type Notifier interface {
	NotifyNewRequest(ctx context.Context, req *models.LibertyRequest)
}

// Service runs the liberty request lifecycle.
type Service struct {
	store    Store
	notifier Notifier
	hub      *store.Hub
	logger   *zap.Logger
}

func NewService(st Store, notifier Notifier, hub *store.Hub, logger *zap.Logger) *Service {
	return &Service{store: st, notifier: notifier, hub: hub, logger: logger}
}

// Create files a liberty request. At most one non-terminal request may exist
// per (requester, weekend): a duplicate without forceSubmit returns a
// structured duplicate signal and creates nothing; with forceSubmit the prior
// request is cancelled and the new one inserted in the same transaction.
//
// When req.OnBehalfOf is set the request is filed for that person; the caller
// must hold the liberty-approval permission (enforced at the handler).
// AutoApprove stamps the request approved at creation.
func (s *Service) Create(ctx context.Context, requester Requester, req models.LibertyCreateRequest, creator *Approver) (*models.LibertyCreateResult, error) {
	if len(req.Locations) == 0 {
		return nil, apperrors.Validation("at least one location is required")
	}
	for _, loc := range req.Locations {
		if !ValidLocation(loc) {
			return nil, apperrors.Validation("unknown location %q", loc)
		}
	}
	if req.IsDriver && req.PassengerCapacity < 1 {
		return nil, apperrors.Validation("driver requests need a passenger capacity of at least 1")
	}
	weekend, err := clock.ParseDate(req.WeekendDate)
	if err != nil {
		return nil, apperrors.Validation("invalid weekend date %q", req.WeekendDate)
	}
	req.WeekendDate = weekend

	existing, err := s.store.FindNonTerminal(ctx, requester.ID, req.WeekendDate)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to check for existing request")
	}
	if existing != nil && !req.ForceSubmit {
		return &models.LibertyCreateResult{IsDuplicate: true, Existing: existing}, nil
	}

	// Participant lists are managed by JoinTimeSlot only, where the
	// self-join, duplicate, and capacity rules live. Payload slots carry
	// the time windows; any pre-seeded participants are discarded.
	timeSlots := make([]models.LibertyTimeSlot, len(req.TimeSlots))
	for i, slot := range req.TimeSlots {
		slot.Participants = []models.Participant{}
		timeSlots[i] = slot
	}

	request := &models.LibertyRequest{
		ID:                uuid.New(),
		RequesterID:       requester.ID,
		RequesterName:     requester.Name,
		RequesterEmail:    requester.Email,
		Locations:         req.Locations,
		CustomLocation:    req.CustomLocation,
		Destination:       BuildDestination(req.Locations, req.CustomLocation),
		WeekendDate:       req.WeekendDate,
		Companions:        req.Companions,
		IsDriver:          req.IsDriver,
		PassengerCapacity: req.PassengerCapacity,
		TimeSlots:         timeSlots,
		JoinRequests:      []models.JoinRequest{},
		ReturnTime:        req.ReturnTime,
		Notes:             req.Notes,
		Status:            models.LibertyStatusPending,
	}
	if req.AutoApprove && creator != nil {
		now := time.Now()
		initials := creator.Initials()
		request.Status = models.LibertyStatusApproved
		request.ApprovedBy = &creator.ID
		request.ApproverInitials = &initials
		request.ResolvedAt = &now
	}

	if existing != nil {
		reason := supersededReason
		if err := s.store.SupersedeAndCreate(ctx, existing.ID, reason, request); err != nil {
			return nil, apperrors.Upstream(err, "failed to supersede and create request")
		}
		s.hub.Publish(store.TopicLibertyRequests, "updated", existing.ID)
	} else {
		if err := s.store.CreateRequest(ctx, request); err != nil {
			return nil, apperrors.Upstream(err, "failed to create request")
		}
	}

	s.hub.Publish(store.TopicLibertyRequests, "created", request.ID)
	if request.Status == models.LibertyStatusPending && s.notifier != nil {
		s.notifier.NotifyNewRequest(ctx, request)
	}

	return &models.LibertyCreateResult{Success: true, Request: request}, nil
}

// Approve stamps a pending request approved, recording the approver's id and
// two-letter initials.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, approver Approver) (*models.LibertyRequest, error) {
	req, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	initials := approver.Initials()
	update := StatusUpdate{
		Status:           models.LibertyStatusApproved,
		ApprovedBy:       &approver.ID,
		ApproverInitials: &initials,
		ResolvedAt:       now,
	}
	if err := s.store.UpdateStatus(ctx, id, update); err != nil {
		return nil, apperrors.Upstream(err, "failed to approve request")
	}

	req.Status = models.LibertyStatusApproved
	req.ApprovedBy = &approver.ID
	req.ApproverInitials = &initials
	req.ResolvedAt = &now

	s.hub.Publish(store.TopicLibertyRequests, "updated", id)
	return req, nil
}

// Reject stamps a pending request rejected.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, approver Approver) (*models.LibertyRequest, error) {
	req, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	update := StatusUpdate{
		Status:     models.LibertyStatusRejected,
		RejectedBy: &approver.ID,
		ResolvedAt: now,
	}
	if err := s.store.UpdateStatus(ctx, id, update); err != nil {
		return nil, apperrors.Upstream(err, "failed to reject request")
	}

	req.Status = models.LibertyStatusRejected
	req.RejectedBy = &approver.ID
	req.ResolvedAt = &now

	s.hub.Publish(store.TopicLibertyRequests, "updated", id)
	return req, nil
}

// Cancel withdraws a request from pending or approved state. Only the
// requester may cancel their own request; isApprover carries the caller's
// permission check for cancelling on someone's behalf.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, callerID uuid.UUID, isApprover bool, reason *string) (*models.LibertyRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load request")
	}
	if req == nil {
		return nil, apperrors.NotFound("liberty request not found")
	}
	if req.Terminal() {
		return nil, apperrors.InvalidState("request is already %s", req.Status)
	}
	if req.RequesterID != callerID && !isApprover {
		return nil, apperrors.Forbidden("only the requester can cancel this request")
	}

	now := time.Now()
	update := StatusUpdate{
		Status:       models.LibertyStatusCancelled,
		CancelReason: reason,
		ResolvedAt:   now,
	}
	if err := s.store.UpdateStatus(ctx, id, update); err != nil {
		return nil, apperrors.Upstream(err, "failed to cancel request")
	}

	req.Status = models.LibertyStatusCancelled
	req.CancelReason = reason
	req.ResolvedAt = &now

	s.hub.Publish(store.TopicLibertyRequests, "updated", id)
	return req, nil
}

// BulkApprove processes each ID independently and reports a per-ID outcome.
// One item's failure never aborts the rest of the batch.
func (s *Service) BulkApprove(ctx context.Context, ids []uuid.UUID, approver Approver) []models.BulkDecisionResult {
	results := make([]models.BulkDecisionResult, 0, len(ids))
	for _, id := range ids {
		if _, err := s.Approve(ctx, id, approver); err != nil {
			results = append(results, models.BulkDecisionResult{ID: id, Error: apperrors.UserMessage(err)})
			continue
		}
		results = append(results, models.BulkDecisionResult{ID: id, Success: true})
	}
	return results
}

// BulkReject is the rejection counterpart of BulkApprove.
func (s *Service) BulkReject(ctx context.Context, ids []uuid.UUID, approver Approver) []models.BulkDecisionResult {
	results := make([]models.BulkDecisionResult, 0, len(ids))
	for _, id := range ids {
		if _, err := s.Reject(ctx, id, approver); err != nil {
			results = append(results, models.BulkDecisionResult{ID: id, Error: apperrors.UserMessage(err)})
			continue
		}
		results = append(results, models.BulkDecisionResult{ID: id, Success: true})
	}
	return results
}

// JoinTimeSlot adds the caller to a time slot's participant list. The
// requester cannot join their own request; duplicates are rejected; a driver
// request at passenger capacity rejects further joins.
func (s *Service) JoinTimeSlot(ctx context.Context, id uuid.UUID, slotIndex int, joiner Requester) (*models.LibertyRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load request")
	}
	if req == nil {
		return nil, apperrors.NotFound("liberty request not found")
	}
	if slotIndex < 0 || slotIndex >= len(req.TimeSlots) {
		return nil, apperrors.Validation("time slot index out of range")
	}
	if joiner.ID == req.RequesterID {
		return nil, apperrors.Forbidden("you cannot join your own request")
	}

	slot := &req.TimeSlots[slotIndex]
	if slot.HasParticipant(joiner.ID) {
		return nil, apperrors.Duplicate("you are already on this time slot")
	}
	if req.IsDriver && len(slot.Participants) >= req.PassengerCapacity {
		return nil, apperrors.CapacityExceeded("this ride is full (%d seats)", req.PassengerCapacity)
	}

	slot.Participants = append(slot.Participants, models.Participant{
		ID:       joiner.ID,
		Name:     joiner.Name,
		Rank:     joiner.Rank,
		JoinedAt: time.Now(),
	})

	if err := s.store.ReplaceTimeSlots(ctx, id, req.TimeSlots); err != nil {
		return nil, apperrors.Upstream(err, "failed to save time slots")
	}

	s.hub.Publish(store.TopicLibertyRequests, "updated", id)
	return req, nil
}

// LeaveTimeSlot removes the caller's own participant entry.
func (s *Service) LeaveTimeSlot(ctx context.Context, id uuid.UUID, slotIndex int, callerID uuid.UUID) (*models.LibertyRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load request")
	}
	if req == nil {
		return nil, apperrors.NotFound("liberty request not found")
	}
	if slotIndex < 0 || slotIndex >= len(req.TimeSlots) {
		return nil, apperrors.Validation("time slot index out of range")
	}

	slot := &req.TimeSlots[slotIndex]
	idx := -1
	for i, p := range slot.Participants {
		if p.ID == callerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.NotFound("you are not on this time slot")
	}
	slot.Participants = append(slot.Participants[:idx], slot.Participants[idx+1:]...)

	if err := s.store.ReplaceTimeSlots(ctx, id, req.TimeSlots); err != nil {
		return nil, apperrors.Upstream(err, "failed to save time slots")
	}

	s.hub.Publish(store.TopicLibertyRequests, "updated", id)
	return req, nil
}

// ListRequests returns requests, optionally filtered by weekend and status.
func (s *Service) ListRequests(ctx context.Context, weekendDate, status string) ([]models.LibertyRequest, error) {
	reqs, err := s.store.ListRequests(ctx, weekendDate, status)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to query requests")
	}
	return reqs, nil
}

// ListMine returns the caller's own requests, newest first.
func (s *Service) ListMine(ctx context.Context, requesterID uuid.UUID) ([]models.LibertyRequest, error) {
	reqs, err := s.store.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to query requests")
	}
	return reqs, nil
}

func (s *Service) loadPending(ctx context.Context, id uuid.UUID) (*models.LibertyRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load request")
	}
	if req == nil {
		return nil, apperrors.NotFound("liberty request not found")
	}
	if req.Status != models.LibertyStatusPending {
		return nil, apperrors.InvalidState("request is already %s", req.Status)
	}
	return req, nil
}
