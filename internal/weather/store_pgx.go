package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/models"
)

// PGStore is the pgx-backed weather store for one company database.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) ListRules(ctx context.Context) ([]models.WeatherRule, error) {
	query := `
		SELECT id, name, uniform_id, priority, enabled, conditions, created_at, updated_at
		FROM weather_rules
		ORDER BY priority ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query weather rules: %w", err)
	}
	defer rows.Close()

	rules := []models.WeatherRule{}
	for rows.Next() {
		var rule models.WeatherRule
		var condJSON []byte

		err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.UniformID,
			&rule.Priority,
			&rule.Enabled,
			&condJSON,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse weather rule: %w", err)
		}

		if len(condJSON) > 0 {
			if err := json.Unmarshal(condJSON, &rule.Conditions); err != nil {
				rule.Conditions = nil
			}
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

// ReplaceRules swaps the full rule list in one transaction.
func (s *PGStore) ReplaceRules(ctx context.Context, rules []models.WeatherRule) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM weather_rules`); err != nil {
		return fmt.Errorf("failed to clear weather rules: %w", err)
	}

	for i := range rules {
		rule := &rules[i]
		if rule.ID == uuid.Nil {
			rule.ID = uuid.New()
		}
		condJSON, err := json.Marshal(rule.Conditions)
		if err != nil {
			return fmt.Errorf("failed to encode rule conditions: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO weather_rules (id, name, uniform_id, priority, enabled, conditions, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		`, rule.ID, rule.Name, rule.UniformID, rule.Priority, rule.Enabled, condJSON)
		if err != nil {
			return fmt.Errorf("failed to insert weather rule: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PGStore) GetCachedSnapshot(ctx context.Context) (*models.WeatherSnapshot, error) {
	query := `SELECT snapshot FROM weather_cache WHERE id = 1`

	var snapJSON []byte
	err := s.db.QueryRow(ctx, query).Scan(&snapJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read weather cache: %w", err)
	}

	var snap models.WeatherSnapshot
	if err := json.Unmarshal(snapJSON, &snap); err != nil {
		return nil, nil
	}
	return &snap, nil
}

func (s *PGStore) SaveSnapshot(ctx context.Context, snap *models.WeatherSnapshot) error {
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO weather_cache (id, snapshot, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET snapshot = $1, updated_at = NOW()
	`, snapJSON)
	if err != nil {
		return fmt.Errorf("failed to save weather cache: %w", err)
	}
	return nil
}

func (s *PGStore) GetActiveRecommendation(ctx context.Context, date, slot string) (*models.WeatherRecommendation, error) {
	query := `
		SELECT id, target_date, target_slot, snapshot, matched_rule_id, uniform_id,
		       status, decided_by, created_at, updated_at
		FROM weather_recommendations
		WHERE target_date = $1 AND target_slot = $2 AND status IN ('pending', 'approved')
	`

	row := s.db.QueryRow(ctx, query, date, slot)
	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query active recommendation: %w", err)
	}
	return rec, nil
}

// CreateRecommendation inserts rec, superseding the old active one in the
// same transaction when supersedeID is set.
func (s *PGStore) CreateRecommendation(ctx context.Context, rec *models.WeatherRecommendation, supersedeID *uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if supersedeID != nil {
		_, err = tx.Exec(ctx, `
			UPDATE weather_recommendations
			SET status = 'superseded', updated_at = NOW()
			WHERE id = $1
		`, *supersedeID)
		if err != nil {
			return fmt.Errorf("failed to supersede recommendation: %w", err)
		}
	}

	snapJSON, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO weather_recommendations (
			id, target_date, target_slot, snapshot, matched_rule_id, uniform_id,
			status, decided_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, rec.ID, rec.TargetDate, rec.TargetSlot, snapJSON, rec.MatchedRuleID,
		rec.UniformID, rec.Status, rec.DecidedBy)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PGStore) GetRecommendation(ctx context.Context, id uuid.UUID) (*models.WeatherRecommendation, error) {
	query := `
		SELECT id, target_date, target_slot, snapshot, matched_rule_id, uniform_id,
		       status, decided_by, created_at, updated_at
		FROM weather_recommendations
		WHERE id = $1
	`

	row := s.db.QueryRow(ctx, query, id)
	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query recommendation: %w", err)
	}
	return rec, nil
}

func (s *PGStore) UpdateRecommendationStatus(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID) error {
	result, err := s.db.Exec(ctx, `
		UPDATE weather_recommendations
		SET status = $1, decided_by = $2, updated_at = NOW()
		WHERE id = $3
	`, status, decidedBy, id)
	if err != nil {
		return fmt.Errorf("failed to update recommendation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("recommendation %s not found", id)
	}
	return nil
}

func (s *PGStore) ListRecommendations(ctx context.Context, date string) ([]models.WeatherRecommendation, error) {
	query := `
		SELECT id, target_date, target_slot, snapshot, matched_rule_id, uniform_id,
		       status, decided_by, created_at, updated_at
		FROM weather_recommendations
		WHERE target_date = $1
		ORDER BY target_slot, created_at DESC
	`

	rows, err := s.db.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	recs := []models.WeatherRecommendation{}
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recommendation: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecommendation(row rowScanner) (*models.WeatherRecommendation, error) {
	var rec models.WeatherRecommendation
	var snapJSON []byte

	err := row.Scan(
		&rec.ID,
		&rec.TargetDate,
		&rec.TargetSlot,
		&snapJSON,
		&rec.MatchedRuleID,
		&rec.UniformID,
		&rec.Status,
		&rec.DecidedBy,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(snapJSON) > 0 {
		if err := json.Unmarshal(snapJSON, &rec.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot for recommendation %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}
