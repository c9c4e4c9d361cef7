package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unithq/cqhub-go/internal/apperrors"
	"github.com/unithq/cqhub-go/internal/clock"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/store"
)

// mockStore implements Store over in-memory maps for testing
type mockStore struct {
	entries map[string]*models.ScheduleEntry // keyed by date
	swaps   map[uuid.UUID]*models.SwapRequest
	roster  []RosterMember

	applySkipCalls     [][]EntryRedate
	swapApprovalErr    error
	failSkip           bool
	insertedBatchSizes []int
}

func newMockStore() *mockStore {
	return &mockStore{
		entries: map[string]*models.ScheduleEntry{},
		swaps:   map[uuid.UUID]*models.SwapRequest{},
	}
}

func (m *mockStore) GetEntryByDate(ctx context.Context, date string) (*models.ScheduleEntry, error) {
	return m.entries[date], nil
}

func (m *mockStore) GetEntryByID(ctx context.Context, id uuid.UUID) (*models.ScheduleEntry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockStore) ListEntries(ctx context.Context, startDate, endDate string) ([]models.ScheduleEntry, error) {
	out := []models.ScheduleEntry{}
	for date, e := range m.entries {
		if date >= startDate && date <= endDate {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockStore) ListScheduledAfter(ctx context.Context, date string) ([]models.ScheduleEntry, error) {
	dates := []string{}
	for d, e := range m.entries {
		if d > date && e.Status == models.ScheduleStatusScheduled {
			dates = append(dates, d)
		}
	}
	// ascending order, same as the SQL store
	for i := 0; i < len(dates); i++ {
		for j := i + 1; j < len(dates); j++ {
			if dates[j] < dates[i] {
				dates[i], dates[j] = dates[j], dates[i]
			}
		}
	}
	out := []models.ScheduleEntry{}
	for _, d := range dates {
		out = append(out, *m.entries[d])
	}
	return out, nil
}

func (m *mockStore) InsertEntries(ctx context.Context, entries []models.ScheduleEntry) error {
	m.insertedBatchSizes = append(m.insertedBatchSizes, len(entries))
	for i := range entries {
		e := entries[i]
		m.entries[e.Date] = &e
	}
	return nil
}

func (m *mockStore) UpdateSlot(ctx context.Context, entryID uuid.UUID, shiftType string, position int, slot models.ShiftSlot) error {
	for _, e := range m.entries {
		if e.ID == entryID {
			*e.ShiftFor(shiftType).SlotAt(position) = slot
			return nil
		}
	}
	return errors.New("entry not found")
}

func (m *mockStore) ApplySkip(ctx context.Context, deleteID uuid.UUID, redates []EntryRedate) error {
	if m.failSkip {
		return errors.New("injected skip failure")
	}
	m.applySkipCalls = append(m.applySkipCalls, redates)

	byID := map[uuid.UUID]*models.ScheduleEntry{}
	for _, e := range m.entries {
		byID[e.ID] = e
	}
	for date, e := range m.entries {
		if e.ID == deleteID {
			delete(m.entries, date)
		}
	}
	for _, r := range redates {
		e := byID[r.ID]
		delete(m.entries, e.Date)
		e.Date = r.NewDate
		e.DayOfWeek = r.NewDayOfWeek
		m.entries[r.NewDate] = e
	}
	return nil
}

func (m *mockStore) ListActiveRoster(ctx context.Context) ([]RosterMember, error) {
	return m.roster, nil
}

func (m *mockStore) GetSwap(ctx context.Context, id uuid.UUID) (*models.SwapRequest, error) {
	return m.swaps[id], nil
}

func (m *mockStore) CreateSwap(ctx context.Context, swap *models.SwapRequest) error {
	m.swaps[swap.ID] = swap
	return nil
}

func (m *mockStore) ListSwaps(ctx context.Context, status string) ([]models.SwapRequest, error) {
	out := []models.SwapRequest{}
	for _, s := range m.swaps {
		if status == "" || s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateSwapStatus(ctx context.Context, id uuid.UUID, status string, resolvedBy Actor) error {
	s, ok := m.swaps[id]
	if !ok {
		return errors.New("swap not found")
	}
	s.Status = status
	s.ResolvedBy = &resolvedBy.ID
	s.ResolvedByName = &resolvedBy.Name
	return nil
}

// ApplySwapApproval mirrors the transactional store: on failure neither the
// schedule nor the swap status changes.
func (m *mockStore) ApplySwapApproval(ctx context.Context, swap *models.SwapRequest, approver Actor) error {
	if m.swapApprovalErr != nil {
		return m.swapApprovalErr
	}
	for _, e := range m.entries {
		if e.ID == swap.ScheduleID {
			*e.ShiftFor(swap.CurrentShiftType).SlotAt(swap.CurrentPosition) = models.ShiftSlot{
				PersonID:   &swap.ProposedPersonnelID,
				PersonName: &swap.ProposedPersonnelName,
			}
		}
	}
	stored := m.swaps[swap.ID]
	stored.Status = models.SwapStatusApproved
	stored.ResolvedBy = &approver.ID
	stored.ResolvedByName = &approver.Name
	return nil
}

func slotFor(id uuid.UUID, name string) models.ShiftSlot {
	return models.ShiftSlot{PersonID: &id, PersonName: &name}
}

func entryOn(date string, status string) *models.ScheduleEntry {
	t, _ := time.Parse("2006-01-02", date)
	return &models.ScheduleEntry{
		ID:        uuid.New(),
		Date:      date,
		DayOfWeek: t.Weekday().String(),
		Status:    status,
	}
}

func frozenResolver(t *testing.T, instant string) *clock.Resolver {
	t.Helper()
	r, err := clock.NewResolver("UTC")
	require.NoError(t, err)
	ts, err := time.Parse(time.RFC3339, instant)
	require.NoError(t, err)
	r.Now = func() time.Time { return ts }
	return r
}

func newTestService(st Store) *Service {
	return NewService(st, store.NewHub(), zap.NewNop())
}

func TestFindMyShiftTonightPriorityOrder(t *testing.T) {
	userID := uuid.New()
	res := frozenResolver(t, "2026-01-24T20:00:00Z")

	tests := []struct {
		name        string
		setup       func(st *mockStore)
		wantShift   string
		wantContext string
		wantNone    bool
	}{
		{
			name: "today shift1 wins",
			setup: func(st *mockStore) {
				today := entryOn("2026-01-24", models.ScheduleStatusScheduled)
				today.Shift1.Slot1 = slotFor(userID, "SPC Hall")
				today.Shift2.Slot1 = slotFor(userID, "SPC Hall")
				st.entries["2026-01-24"] = today
			},
			wantShift:   models.ShiftType1,
			wantContext: models.ShiftContextTonight,
		},
		{
			name: "today shift2 is in progress",
			setup: func(st *mockStore) {
				today := entryOn("2026-01-24", models.ScheduleStatusActive)
				today.Shift2.Slot2 = slotFor(userID, "SPC Hall")
				st.entries["2026-01-24"] = today
			},
			wantShift:   models.ShiftType2,
			wantContext: models.ShiftContextInProgress,
		},
		{
			name: "tomorrow shift2 starts after midnight",
			setup: func(st *mockStore) {
				tomorrow := entryOn("2026-01-25", models.ScheduleStatusScheduled)
				tomorrow.Shift2.Slot1 = slotFor(userID, "SPC Hall")
				st.entries["2026-01-25"] = tomorrow
			},
			wantShift:   models.ShiftType2,
			wantContext: models.ShiftContextAfterMidnight,
		},
		{
			name: "tomorrow shift1 does not count as tonight",
			setup: func(st *mockStore) {
				tomorrow := entryOn("2026-01-25", models.ScheduleStatusScheduled)
				tomorrow.Shift1.Slot1 = slotFor(userID, "SPC Hall")
				st.entries["2026-01-25"] = tomorrow
			},
			wantNone: true,
		},
		{
			name:     "no entries at all",
			setup:    func(st *mockStore) {},
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMockStore()
			tt.setup(st)
			svc := newTestService(st)

			my, err := svc.FindMyShiftTonight(context.Background(), res, userID)
			require.NoError(t, err)
			if tt.wantNone {
				assert.Nil(t, my)
				return
			}
			require.NotNil(t, my)
			assert.Equal(t, tt.wantShift, my.ShiftType)
			assert.Equal(t, tt.wantContext, my.ShiftContext)
		})
	}
}

func TestSkipDateShiftsLaterEntriesBack(t *testing.T) {
	st := newMockStore()
	skipped := entryOn("2026-01-24", models.ScheduleStatusScheduled)
	next := entryOn("2026-01-25", models.ScheduleStatusScheduled)
	last := entryOn("2026-01-26", models.ScheduleStatusScheduled)
	done := entryOn("2026-01-23", models.ScheduleStatusCompleted)
	st.entries["2026-01-24"] = skipped
	st.entries["2026-01-25"] = next
	st.entries["2026-01-26"] = last
	st.entries["2026-01-23"] = done

	svc := newTestService(st)
	shifted, err := svc.SkipDate(context.Background(), "2026-01-24", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, shifted)

	require.Len(t, st.applySkipCalls, 1)
	redates := st.applySkipCalls[0]
	require.Len(t, redates, 2)
	assert.Equal(t, next.ID, redates[0].ID)
	assert.Equal(t, "2026-01-24", redates[0].NewDate)
	assert.Equal(t, "Saturday", redates[0].NewDayOfWeek)
	assert.Equal(t, last.ID, redates[1].ID)
	assert.Equal(t, "2026-01-25", redates[1].NewDate)

	// completed entries are untouched
	assert.Equal(t, "2026-01-23", done.Date)
}

func TestSkipDateUnknownDate(t *testing.T) {
	svc := newTestService(newMockStore())
	_, err := svc.SkipDate(context.Background(), "2026-01-24", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestSkipDateFailureLeavesNothingShifted(t *testing.T) {
	st := newMockStore()
	st.entries["2026-01-24"] = entryOn("2026-01-24", models.ScheduleStatusScheduled)
	st.entries["2026-01-25"] = entryOn("2026-01-25", models.ScheduleStatusScheduled)
	st.failSkip = true

	svc := newTestService(st)
	_, err := svc.SkipDate(context.Background(), "2026-01-24", nil)
	require.Error(t, err)

	// the failed transaction must not leave partial state
	assert.NotNil(t, st.entries["2026-01-24"])
	assert.NotNil(t, st.entries["2026-01-25"])
}

func TestGenerateRoundRobinAssignsFourSlotsPerNight(t *testing.T) {
	st := newMockStore()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		st.roster = append(st.roster, RosterMember{ID: uuid.New(), Name: name})
	}
	svc := newTestService(st)

	entries, err := svc.Generate(context.Background(), models.ScheduleGenerateRequest{
		StartDate: "2026-03-02",
		Days:      3,
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "2026-03-02", entries[0].Date)
	assert.Equal(t, "Monday", entries[0].DayOfWeek)
	assert.Equal(t, "A", *entries[0].Shift1.Slot1.PersonName)
	assert.Equal(t, "D", *entries[0].Shift2.Slot2.PersonName)
	// rotation wraps: night two starts at E, then back to A
	assert.Equal(t, "E", *entries[1].Shift1.Slot1.PersonName)
	assert.Equal(t, "A", *entries[1].Shift1.Slot2.PersonName)
	for _, e := range entries {
		assert.Equal(t, models.ScheduleStatusScheduled, e.Status)
	}
}

func TestGenerateSkipsExistingDates(t *testing.T) {
	st := newMockStore()
	for _, name := range []string{"A", "B", "C", "D"} {
		st.roster = append(st.roster, RosterMember{ID: uuid.New(), Name: name})
	}
	st.entries["2026-03-03"] = entryOn("2026-03-03", models.ScheduleStatusScheduled)
	svc := newTestService(st)

	entries, err := svc.Generate(context.Background(), models.ScheduleGenerateRequest{
		StartDate: "2026-03-02",
		Days:      3,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-03-02", entries[0].Date)
	assert.Equal(t, "2026-03-04", entries[1].Date)
}

func TestGenerateRequiresFourPeople(t *testing.T) {
	st := newMockStore()
	st.roster = []RosterMember{{ID: uuid.New(), Name: "A"}, {ID: uuid.New(), Name: "B"}}
	svc := newTestService(st)

	_, err := svc.Generate(context.Background(), models.ScheduleGenerateRequest{
		StartDate: "2026-03-02",
		Days:      1,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestGenerateHonorsExplicitRotationOrder(t *testing.T) {
	st := newMockStore()
	ids := make([]uuid.UUID, 4)
	for i, name := range []string{"A", "B", "C", "D"} {
		ids[i] = uuid.New()
		st.roster = append(st.roster, RosterMember{ID: ids[i], Name: name})
	}
	svc := newTestService(st)

	entries, err := svc.Generate(context.Background(), models.ScheduleGenerateRequest{
		StartDate: "2026-03-02",
		Days:      1,
		Personnel: []uuid.UUID{ids[3], ids[2], ids[1], ids[0]},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "D", *entries[0].Shift1.Slot1.PersonName)
	assert.Equal(t, "A", *entries[0].Shift2.Slot2.PersonName)
}

func TestReassignSlotValidatesInput(t *testing.T) {
	st := newMockStore()
	entry := entryOn("2026-03-02", models.ScheduleStatusScheduled)
	st.entries[entry.Date] = entry
	svc := newTestService(st)

	err := svc.ReassignSlot(context.Background(), entry.ID, models.ReassignSlotRequest{
		ShiftType: "shift3", Position: 1,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	err = svc.ReassignSlot(context.Background(), entry.ID, models.ReassignSlotRequest{
		ShiftType: models.ShiftType1, Position: 3,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	personID := uuid.New()
	name := "SGT Price"
	err = svc.ReassignSlot(context.Background(), entry.ID, models.ReassignSlotRequest{
		ShiftType: models.ShiftType2, Position: 1, PersonID: &personID, PersonName: &name,
	})
	require.NoError(t, err)
	assert.Equal(t, personID, *entry.Shift2.Slot1.PersonID)
}
