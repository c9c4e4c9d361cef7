package weather

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

// mockWeatherStore implements Store for testing
type mockWeatherStore struct {
	rules      []models.WeatherRule
	cached     *models.WeatherSnapshot
	active     *models.WeatherRecommendation
	created    []models.WeatherRecommendation
	superseded []uuid.UUID
	saveErr    error
}

func (m *mockWeatherStore) ListRules(ctx context.Context) ([]models.WeatherRule, error) {
	return m.rules, nil
}

func (m *mockWeatherStore) GetCachedSnapshot(ctx context.Context) (*models.WeatherSnapshot, error) {
	return m.cached, nil
}

func (m *mockWeatherStore) SaveSnapshot(ctx context.Context, snap *models.WeatherSnapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.cached = snap
	return nil
}

func (m *mockWeatherStore) GetActiveRecommendation(ctx context.Context, date, slot string) (*models.WeatherRecommendation, error) {
	if m.active != nil && m.active.TargetDate == date && m.active.TargetSlot == slot {
		return m.active, nil
	}
	return nil, nil
}

func (m *mockWeatherStore) CreateRecommendation(ctx context.Context, rec *models.WeatherRecommendation, supersedeID *uuid.UUID) error {
	if supersedeID != nil {
		m.superseded = append(m.superseded, *supersedeID)
	}
	m.created = append(m.created, *rec)
	return nil
}

func (m *mockWeatherStore) GetRecommendation(ctx context.Context, id uuid.UUID) (*models.WeatherRecommendation, error) {
	if m.active != nil && m.active.ID == id {
		return m.active, nil
	}
	for i := range m.created {
		if m.created[i].ID == id {
			return &m.created[i], nil
		}
	}
	return nil, nil
}

func (m *mockWeatherStore) UpdateRecommendationStatus(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID) error {
	rec, _ := m.GetRecommendation(ctx, id)
	if rec == nil {
		return errors.New("not found")
	}
	rec.Status = status
	rec.DecidedBy = &decidedBy
	return nil
}

func (m *mockWeatherStore) ListRecommendations(ctx context.Context, date string) ([]models.WeatherRecommendation, error) {
	return m.created, nil
}

// mockProvider implements Provider for testing
type mockProvider struct {
	snap    *models.WeatherSnapshot
	err     error
	fetches int
}

func (m *mockProvider) Fetch(ctx context.Context, loc models.WeatherLocation) (*models.WeatherSnapshot, error) {
	m.fetches++
	if m.err != nil {
		return nil, m.err
	}
	return m.snap, nil
}

func freshSnap(temp float64) *models.WeatherSnapshot {
	return &models.WeatherSnapshot{
		Temperature: &temp,
		WeatherMain: "Clear",
		FetchedAt:   time.Now(),
		ExpiresAt:   time.Now().Add(30 * time.Minute),
	}
}

func testResolver(t *testing.T, instant string) *clock.Resolver {
	t.Helper()
	r, err := clock.NewResolver("UTC")
	require.NoError(t, err)
	ts, err := time.Parse(time.RFC3339, instant)
	require.NoError(t, err)
	r.Now = func() time.Time { return ts }
	return r
}

func TestCurrentSnapshotUsesFreshCache(t *testing.T) {
	st := &mockWeatherStore{cached: freshSnap(50)}
	p := &mockProvider{snap: freshSnap(70)}
	svc := NewService(st, p, store.NewHub(), zap.NewNop())

	snap, err := svc.CurrentSnapshot(context.Background(), models.WeatherLocation{})
	require.NoError(t, err)
	assert.Equal(t, 50.0, *snap.Temperature)
	assert.Equal(t, 0, p.fetches, "fresh cache should skip the provider")
}

func TestCurrentSnapshotRefetchesExpiredCache(t *testing.T) {
	stale := freshSnap(50)
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	st := &mockWeatherStore{cached: stale}
	p := &mockProvider{snap: freshSnap(70)}
	svc := NewService(st, p, store.NewHub(), zap.NewNop())

	snap, err := svc.CurrentSnapshot(context.Background(), models.WeatherLocation{})
	require.NoError(t, err)
	assert.Equal(t, 70.0, *snap.Temperature)
	assert.Equal(t, 1, p.fetches)
}

func TestRecommendRejectsSecondActiveWithoutSupersede(t *testing.T) {
	active := &models.WeatherRecommendation{
		ID:         uuid.New(),
		TargetDate: "2026-02-07",
		TargetSlot: "lunch",
		Status:     models.RecommendationStatusPending,
	}
	st := &mockWeatherStore{active: active}
	svc := NewService(st, &mockProvider{}, store.NewHub(), zap.NewNop())

	_, err := svc.Recommend(context.Background(), "2026-02-07", clock.SlotLunch, freshSnap(45), "ocp", false)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindDuplicate))
	assert.Empty(t, st.created, "rejected create must not insert")
}

func TestRecommendSupersedesInSameOperation(t *testing.T) {
	active := &models.WeatherRecommendation{
		ID:         uuid.New(),
		TargetDate: "2026-02-07",
		TargetSlot: "lunch",
		Status:     models.RecommendationStatusApproved,
	}
	st := &mockWeatherStore{active: active}
	svc := NewService(st, &mockProvider{}, store.NewHub(), zap.NewNop())

	rec, err := svc.Recommend(context.Background(), "2026-02-07", clock.SlotLunch, freshSnap(45), "ocp", true)
	require.NoError(t, err)
	require.Len(t, st.superseded, 1)
	assert.Equal(t, active.ID, st.superseded[0])
	assert.Equal(t, models.RecommendationStatusPending, rec.Status)
}

func TestRecommendAppliesMatchedRuleOrDefault(t *testing.T) {
	min, max := 30.0, 50.0
	st := &mockWeatherStore{rules: []models.WeatherRule{
		{ID: uuid.New(), Name: "cold", UniformID: "fleece", Priority: 1, Enabled: true,
			Conditions: &models.RuleConditions{Temperature: &models.FloatRange{Min: &min, Max: &max}}},
	}}
	svc := NewService(st, &mockProvider{}, store.NewHub(), zap.NewNop())

	rec, err := svc.Recommend(context.Background(), "2026-02-07", clock.SlotDinner, freshSnap(45), "ocp", false)
	require.NoError(t, err)
	assert.Equal(t, "fleece", rec.UniformID)
	require.NotNil(t, rec.MatchedRuleID)

	rec, err = svc.Recommend(context.Background(), "2026-02-08", clock.SlotDinner, freshSnap(75), "ocp", false)
	require.NoError(t, err)
	assert.Equal(t, "ocp", rec.UniformID, "no rule matched, default uniform applies")
	assert.Nil(t, rec.MatchedRuleID)
}

func TestRunScheduledCheckNoOpOffSlot(t *testing.T) {
	st := &mockWeatherStore{}
	p := &mockProvider{snap: freshSnap(45)}
	svc := NewService(st, p, store.NewHub(), zap.NewNop())

	res := testResolver(t, "2026-02-07T09:31:00Z")
	slotTimes := map[string]string{"breakfast": "06:00", "lunch": "11:00", "dinner": "16:00"}

	rec, err := svc.RunScheduledCheck(context.Background(), res, slotTimes, models.WeatherLocation{}, "ocp")
	require.NoError(t, err)
	assert.Nil(t, rec, "tick off any slot time is a no-op")
	assert.Equal(t, 0, p.fetches)
}

func TestRunScheduledCheckCreatesOnSlotTime(t *testing.T) {
	st := &mockWeatherStore{}
	p := &mockProvider{snap: freshSnap(45)}
	svc := NewService(st, p, store.NewHub(), zap.NewNop())

	res := testResolver(t, "2026-02-07T11:00:00Z")
	slotTimes := map[string]string{"breakfast": "06:00", "lunch": "11:00", "dinner": "16:00"}

	rec, err := svc.RunScheduledCheck(context.Background(), res, slotTimes, models.WeatherLocation{}, "ocp")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "lunch", rec.TargetSlot)
	assert.Equal(t, "2026-02-07", rec.TargetDate)
}

func TestRunScheduledCheckSkipsWhenActiveExists(t *testing.T) {
	st := &mockWeatherStore{active: &models.WeatherRecommendation{
		ID: uuid.New(), TargetDate: "2026-02-07", TargetSlot: "lunch",
		Status: models.RecommendationStatusPending,
	}}
	p := &mockProvider{snap: freshSnap(45)}
	svc := NewService(st, p, store.NewHub(), zap.NewNop())

	res := testResolver(t, "2026-02-07T11:00:00Z")
	rec, err := svc.RunScheduledCheck(context.Background(), res,
		map[string]string{"lunch": "11:00"}, models.WeatherLocation{}, "ocp")
	require.NoError(t, err)
	assert.Nil(t, rec, "scheduled path never supersedes")
	assert.Empty(t, st.created)
}

func TestDecideRequiresPending(t *testing.T) {
	active := &models.WeatherRecommendation{
		ID:         uuid.New(),
		TargetDate: "2026-02-07",
		TargetSlot: "lunch",
		Status:     models.RecommendationStatusPending,
	}
	st := &mockWeatherStore{active: active}
	svc := NewService(st, &mockProvider{}, store.NewHub(), zap.NewNop())
	decider := uuid.New()

	rec, err := svc.Decide(context.Background(), active.ID, true, decider)
	require.NoError(t, err)
	assert.Equal(t, models.RecommendationStatusApproved, rec.Status)
	assert.Equal(t, decider, *rec.DecidedBy)

	_, err = svc.Decide(context.Background(), active.ID, false, decider)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	_, err = svc.Decide(context.Background(), uuid.New(), true, decider)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestCurrentSnapshotUpstreamFailure(t *testing.T) {
	st := &mockWeatherStore{}
	p := &mockProvider{err: errors.New("provider down")}
	svc := NewService(st, p, store.NewHub(), zap.NewNop())

	_, err := svc.CurrentSnapshot(context.Background(), models.WeatherLocation{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUpstream))
}
