package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/unithq/cqhub-go/internal/apperrors"
	"github.com/unithq/cqhub-go/internal/clock"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/store"
)

// RosterMember is the slice of a personnel record the rotation needs.
type RosterMember struct {
	ID   uuid.UUID
	Name string
}

// Actor identifies who is performing a lifecycle operation.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// EntryRedate moves one entry to the slot vacated by its predecessor during a
// skip-date operation.
type EntryRedate struct {
	ID           uuid.UUID
	NewDate      string
	NewDayOfWeek string
}

// Store is the persistence surface of the CQ schedule.
type Store interface {
	GetEntryByDate(ctx context.Context, date string) (*models.ScheduleEntry, error)
	GetEntryByID(ctx context.Context, id uuid.UUID) (*models.ScheduleEntry, error)
	ListEntries(ctx context.Context, startDate, endDate string) ([]models.ScheduleEntry, error)
	// ListScheduledAfter returns entries with status 'scheduled' strictly
	// after the given date, ordered by date ascending.
	ListScheduledAfter(ctx context.Context, date string) ([]models.ScheduleEntry, error)
	InsertEntries(ctx context.Context, entries []models.ScheduleEntry) error
	UpdateSlot(ctx context.Context, entryID uuid.UUID, shiftType string, position int, slot models.ShiftSlot) error
	// ApplySkip deletes the entry and applies every re-date in one
	// transaction; readers never observe a partially shifted rotation.
	ApplySkip(ctx context.Context, deleteID uuid.UUID, redates []EntryRedate) error
	ListActiveRoster(ctx context.Context) ([]RosterMember, error)

	GetSwap(ctx context.Context, id uuid.UUID) (*models.SwapRequest, error)
	CreateSwap(ctx context.Context, swap *models.SwapRequest) error
	ListSwaps(ctx context.Context, status string) ([]models.SwapRequest, error)
	UpdateSwapStatus(ctx context.Context, id uuid.UUID, status string, resolvedBy Actor) error
	// ApplySwapApproval writes the proposed person into the referenced slot
	// and marks the swap approved in one transaction. Both writes commit as
	// one atomic unit or neither does.
	ApplySwapApproval(ctx context.Context, swap *models.SwapRequest, approver Actor) error
}

// Service implements the schedule accessor and the swap lifecycle.
type Service struct {
	store  Store
	hub    *store.Hub
	logger *zap.Logger
}

func NewService(st Store, hub *store.Hub, logger *zap.Logger) *Service {
	return &Service{store: st, hub: hub, logger: logger}
}

// FindMyShiftTonight evaluates the two-entry overnight lookup. A shift is
// keyed by its start date even when its wall-clock span crosses midnight, so
// "the shift starting tonight" can live on either today's or tomorrow's
// entry. Priority order:
//  1. today's shift1 (starts this evening)
//  2. today's shift2 (started after last midnight, in progress)
//  3. tomorrow's shift2 (starts after midnight tonight)
//
// Returns nil when the user has no shift tonight.
func (s *Service) FindMyShiftTonight(ctx context.Context, res *clock.Resolver, userID uuid.UUID) (*models.MyShift, error) {
	today, err := s.store.GetEntryByDate(ctx, res.Today())
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load today's schedule")
	}
	tomorrow, err := s.store.GetEntryByDate(ctx, res.Tomorrow())
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load tomorrow's schedule")
	}

	if today != nil {
		if today.Shift1.Holds(userID) {
			return &models.MyShift{Entry: *today, ShiftType: models.ShiftType1, ShiftContext: models.ShiftContextTonight}, nil
		}
		if today.Shift2.Holds(userID) {
			return &models.MyShift{Entry: *today, ShiftType: models.ShiftType2, ShiftContext: models.ShiftContextInProgress}, nil
		}
	}
	if tomorrow != nil && tomorrow.Shift2.Holds(userID) {
		return &models.MyShift{Entry: *tomorrow, ShiftType: models.ShiftType2, ShiftContext: models.ShiftContextAfterMidnight}, nil
	}

	return nil, nil
}

// SkipDate removes one entry and re-dates every later scheduled entry to the
// slot vacated by its predecessor, preserving contiguous rotation order. The
// whole shift-back commits atomically.
func (s *Service) SkipDate(ctx context.Context, date string, reason *string) (int, error) {
	date, err := clock.ParseDate(date)
	if err != nil {
		return 0, apperrors.Validation("%v", err)
	}

	entry, err := s.store.GetEntryByDate(ctx, date)
	if err != nil {
		return 0, apperrors.Upstream(err, "failed to load schedule entry")
	}
	if entry == nil {
		return 0, apperrors.NotFound("no schedule entry for %s", date)
	}

	later, err := s.store.ListScheduledAfter(ctx, date)
	if err != nil {
		return 0, apperrors.Upstream(err, "failed to load later entries")
	}

	// Each later entry takes the date vacated by its predecessor; the first
	// one takes the skipped date itself.
	redates := make([]EntryRedate, 0, len(later))
	prevDate := date
	for _, e := range later {
		dow, err := clock.Weekday(prevDate)
		if err != nil {
			return 0, apperrors.Validation("%v", err)
		}
		redates = append(redates, EntryRedate{ID: e.ID, NewDate: prevDate, NewDayOfWeek: dow})
		prevDate = e.Date
	}

	if err := s.store.ApplySkip(ctx, entry.ID, redates); err != nil {
		return 0, apperrors.Upstream(err, "failed to apply skip")
	}

	reasonStr := ""
	if reason != nil {
		reasonStr = *reason
	}
	s.logger.Info("schedule date skipped",
		zap.String("date", date),
		zap.Int("entries_shifted", len(redates)),
		zap.String("reason", reasonStr))

	s.hub.Publish(store.TopicSchedule, "deleted", entry.ID)
	return len(redates), nil
}

// Generate creates entries for a date range using simple round-robin
// assignment over the rotation order: four slots a night, two per shift.
// Dates that already have an entry are left untouched.
func (s *Service) Generate(ctx context.Context, req models.ScheduleGenerateRequest) ([]models.ScheduleEntry, error) {
	startDate, err := clock.ParseDate(req.StartDate)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	if req.Days < 1 || req.Days > 366 {
		return nil, apperrors.Validation("days must be between 1 and 366")
	}

	roster, err := s.store.ListActiveRoster(ctx)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load roster")
	}
	if len(req.Personnel) > 0 {
		roster = reorderRoster(roster, req.Personnel)
	}
	if len(roster) < 4 {
		return nil, apperrors.Validation("at least 4 personnel are required to staff a night")
	}

	start, _ := time.Parse("2006-01-02", startDate)
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   req.Days,
		Dtstart: start.UTC(),
	})
	if err != nil {
		return nil, apperrors.Validation("failed to build recurrence: %v", err)
	}

	entries := []models.ScheduleEntry{}
	idx := 0
	for _, day := range rule.All() {
		date := day.Format("2006-01-02")

		existing, err := s.store.GetEntryByDate(ctx, date)
		if err != nil {
			return nil, apperrors.Upstream(err, "failed to check existing entry")
		}
		if existing != nil {
			continue
		}

		entry := models.ScheduleEntry{
			ID:        uuid.New(),
			Date:      date,
			DayOfWeek: day.Weekday().String(),
			Status:    models.ScheduleStatusScheduled,
		}
		entry.Shift1.Slot1 = rosterSlot(roster, idx)
		entry.Shift1.Slot2 = rosterSlot(roster, idx+1)
		entry.Shift2.Slot1 = rosterSlot(roster, idx+2)
		entry.Shift2.Slot2 = rosterSlot(roster, idx+3)
		idx += 4

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return entries, nil
	}

	if err := s.store.InsertEntries(ctx, entries); err != nil {
		return nil, apperrors.Upstream(err, "failed to insert schedule entries")
	}

	for _, e := range entries {
		s.hub.Publish(store.TopicSchedule, "created", e.ID)
	}
	return entries, nil
}

// ReassignSlot is the manual override path for a single shift position.
func (s *Service) ReassignSlot(ctx context.Context, entryID uuid.UUID, req models.ReassignSlotRequest) error {
	if req.ShiftType != models.ShiftType1 && req.ShiftType != models.ShiftType2 {
		return apperrors.Validation("shift_type must be %s or %s", models.ShiftType1, models.ShiftType2)
	}
	if req.Position != 1 && req.Position != 2 {
		return apperrors.Validation("position must be 1 or 2")
	}

	entry, err := s.store.GetEntryByID(ctx, entryID)
	if err != nil {
		return apperrors.Upstream(err, "failed to load schedule entry")
	}
	if entry == nil {
		return apperrors.NotFound("schedule entry not found")
	}

	slot := models.ShiftSlot{PersonID: req.PersonID, PersonName: req.PersonName}
	if err := s.store.UpdateSlot(ctx, entryID, req.ShiftType, req.Position, slot); err != nil {
		return apperrors.Upstream(err, "failed to update slot")
	}

	s.hub.Publish(store.TopicSchedule, "updated", entryID)
	return nil
}

// ListEntries returns the schedule for a date range.
func (s *Service) ListEntries(ctx context.Context, startDate, endDate string) ([]models.ScheduleEntry, error) {
	start, err := clock.ParseDate(startDate)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	end, err := clock.ParseDate(endDate)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	entries, err := s.store.ListEntries(ctx, start, end)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to query schedule")
	}
	return entries, nil
}

func reorderRoster(roster []RosterMember, order []uuid.UUID) []RosterMember {
	byID := make(map[uuid.UUID]RosterMember, len(roster))
	for _, m := range roster {
		byID[m.ID] = m
	}
	out := make([]RosterMember, 0, len(order))
	for _, id := range order {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

func rosterSlot(roster []RosterMember, idx int) models.ShiftSlot {
	m := roster[idx%len(roster)]
	id := m.ID
	name := m.Name
	return models.ShiftSlot{PersonID: &id, PersonName: &name}
}
