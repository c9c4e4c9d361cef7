package weather

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unithq/cqhub-go/internal/apperrors"
	"github.com/unithq/cqhub-go/internal/clock"
	"github.com/unithq/cqhub-go/internal/models"
	"github.com/unithq/cqhub-go/internal/store"
)

// Store is the persistence surface of the weather subsystem.
type Store interface {
	ListRules(ctx context.Context) ([]models.WeatherRule, error)
	GetCachedSnapshot(ctx context.Context) (*models.WeatherSnapshot, error)
	SaveSnapshot(ctx context.Context, snap *models.WeatherSnapshot) error
	GetActiveRecommendation(ctx context.Context, date, slot string) (*models.WeatherRecommendation, error)
	// CreateRecommendation inserts rec and, when supersedeID is set, marks
	// that recommendation superseded in the same transaction.
	CreateRecommendation(ctx context.Context, rec *models.WeatherRecommendation, supersedeID *uuid.UUID) error
	GetRecommendation(ctx context.Context, id uuid.UUID) (*models.WeatherRecommendation, error)
	UpdateRecommendationStatus(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID) error
	ListRecommendations(ctx context.Context, date string) ([]models.WeatherRecommendation, error)
}

// Service runs the uniform-of-the-day recommendation lifecycle.
type Service struct {
	store    Store
	provider Provider
	hub      *store.Hub
	logger   *zap.Logger
}

func NewService(st Store, provider Provider, hub *store.Hub, logger *zap.Logger) *Service {
	return &Service{store: st, provider: provider, hub: hub, logger: logger}
}

// CurrentSnapshot returns a fresh snapshot, consulting the cache first.
func (s *Service) CurrentSnapshot(ctx context.Context, loc models.WeatherLocation) (*models.WeatherSnapshot, error) {
	cached, err := s.store.GetCachedSnapshot(ctx)
	if err == nil && cached != nil && !cached.Expired(time.Now()) {
		return cached, nil
	}

	snap, err := s.provider.Fetch(ctx, loc)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to fetch weather")
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		// A stale cache is not fatal; log and serve the fresh snapshot.
		s.logger.Warn("failed to cache weather snapshot", zap.Error(err))
	}
	return snap, nil
}

// Recommend creates a recommendation for (date, slot) from the snapshot. At
// most one pending-or-approved recommendation may exist per (date, slot):
// without supersede the call is rejected with a Duplicate error; with
// supersede the existing one is marked superseded in the same transaction
// that creates the new one.
func (s *Service) Recommend(ctx context.Context, date string, slot clock.Slot, snap *models.WeatherSnapshot, defaultUniform string, supersede bool) (*models.WeatherRecommendation, error) {
	active, err := s.store.GetActiveRecommendation(ctx, date, string(slot))
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to check active recommendation")
	}

	var supersedeID *uuid.UUID
	if active != nil {
		if !supersede {
			return nil, apperrors.Duplicate("an active recommendation already exists for %s %s", date, slot)
		}
		supersedeID = &active.ID
	}

	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load weather rules")
	}

	rec := &models.WeatherRecommendation{
		ID:         uuid.New(),
		TargetDate: date,
		TargetSlot: string(slot),
		Snapshot:   *snap,
		UniformID:  defaultUniform,
		Status:     models.RecommendationStatusPending,
	}
	if matched := FindMatchingRule(rules, *snap); matched != nil {
		rec.MatchedRuleID = &matched.ID
		rec.UniformID = matched.UniformID
	}

	if err := s.store.CreateRecommendation(ctx, rec, supersedeID); err != nil {
		return nil, apperrors.Upstream(err, "failed to create recommendation")
	}

	s.hub.Publish(store.TopicRecommendations, "created", rec.ID)
	return rec, nil
}

// Decide resolves a pending recommendation. Only pending recommendations can
// be approved or rejected.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, approve bool, decidedBy uuid.UUID) (*models.WeatherRecommendation, error) {
	rec, err := s.store.GetRecommendation(ctx, id)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to load recommendation")
	}
	if rec == nil {
		return nil, apperrors.NotFound("recommendation not found")
	}
	if rec.Status != models.RecommendationStatusPending {
		return nil, apperrors.InvalidState("recommendation is already %s", rec.Status)
	}

	status := models.RecommendationStatusRejected
	if approve {
		status = models.RecommendationStatusApproved
	}
	if err := s.store.UpdateRecommendationStatus(ctx, id, status, decidedBy); err != nil {
		return nil, apperrors.Upstream(err, "failed to update recommendation")
	}

	rec.Status = status
	rec.DecidedBy = &decidedBy
	s.hub.Publish(store.TopicRecommendations, "updated", id)
	return rec, nil
}

// ListRecommendations returns the day's recommendations.
func (s *Service) ListRecommendations(ctx context.Context, date string) ([]models.WeatherRecommendation, error) {
	recs, err := s.store.ListRecommendations(ctx, date)
	if err != nil {
		return nil, apperrors.Upstream(err, "failed to query recommendations")
	}
	return recs, nil
}

// RunScheduledCheck is invoked on a fixed cadence by the trigger loop. It
// determines whether the current tick matches a configured slot time and is a
// no-op otherwise. An already-active recommendation also makes the tick a
// no-op: the scheduled path never supersedes.
func (s *Service) RunScheduledCheck(ctx context.Context, res *clock.Resolver, slotTimes map[string]string, loc models.WeatherLocation, defaultUniform string) (*models.WeatherRecommendation, error) {
	now := res.CurrentHHMM()

	var slot clock.Slot
	matched := false
	for name, at := range slotTimes {
		if at == now {
			slot = clock.Slot(name)
			matched = true
			break
		}
	}
	if !matched {
		return nil, nil
	}

	snap, err := s.CurrentSnapshot(ctx, loc)
	if err != nil {
		return nil, err
	}

	rec, err := s.Recommend(ctx, res.Today(), slot, snap, defaultUniform, false)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindDuplicate) {
			s.logger.Debug("recommendation already active, skipping tick",
				zap.String("date", res.Today()), zap.String("slot", string(slot)))
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}
