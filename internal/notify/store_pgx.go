package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/roles"
)

// PGStore reads approver tokens from the personnel table, where fcm_tokens is
// a text array column.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) ListApproverTokens(ctx context.Context, eligible []roles.Role, excludeUserID uuid.UUID) ([]TokenOwner, error) {
	roleNames := make([]string, len(eligible))
	for i, r := range eligible {
		roleNames[i] = string(r)
	}

	query := `
		SELECT id, fcm_tokens
		FROM personnel
		WHERE role = ANY($1) AND id != $2 AND is_active = true
		  AND fcm_tokens IS NOT NULL AND array_length(fcm_tokens, 1) > 0
	`

	rows, err := s.db.Query(ctx, query, roleNames, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approver tokens: %w", err)
	}
	defer rows.Close()

	owners := []TokenOwner{}
	for rows.Next() {
		var id uuid.UUID
		var tokens []string
		if err := rows.Scan(&id, &tokens); err != nil {
			return nil, fmt.Errorf("failed to parse token row: %w", err)
		}
		for _, t := range tokens {
			owners = append(owners, TokenOwner{Token: t, OwnerID: id})
		}
	}
	return owners, nil
}

// RemoveTokens strips each stale token from its owner's token array. All
// removals commit in one transaction.
func (s *PGStore) RemoveTokens(ctx context.Context, tokens []TokenOwner) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range tokens {
		_, err := tx.Exec(ctx, `
			UPDATE personnel
			SET fcm_tokens = array_remove(fcm_tokens, $1), updated_at = NOW()
			WHERE id = $2
		`, t.Token, t.OwnerID)
		if err != nil {
			return fmt.Errorf("failed to remove stale token: %w", err)
		}
	}

	return tx.Commit(ctx)
}
