package schedule

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

// PGStore is the pgx-backed schedule store for one company database. Shifts
// are stored as JSONB so the two-slot structure travels as one column.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const entryColumns = `id, date, day_of_week, shift1, shift2, is_potential_skip_day, status, created_at, updated_at`

func (s *PGStore) GetEntryByDate(ctx context.Context, date string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM cq_schedule WHERE date = $1`, entryColumns)

	row := s.db.QueryRow(ctx, query, date)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query schedule entry: %w", err)
	}
	return entry, nil
}

func (s *PGStore) GetEntryByID(ctx context.Context, id uuid.UUID) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM cq_schedule WHERE id = $1`, entryColumns)

	row := s.db.QueryRow(ctx, query, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query schedule entry: %w", err)
	}
	return entry, nil
}

func (s *PGStore) ListEntries(ctx context.Context, startDate, endDate string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM cq_schedule
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC
	`, entryColumns)

	rows, err := s.db.Query(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (s *PGStore) ListScheduledAfter(ctx context.Context, date string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM cq_schedule
		WHERE date > $1 AND status = $2
		ORDER BY date ASC
	`, entryColumns)

	rows, err := s.db.Query(ctx, query, date, models.ScheduleStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to query later entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

func (s *PGStore) InsertEntries(ctx context.Context, entries []models.ScheduleEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range entries {
		e := &entries[i]
		shift1JSON, err := json.Marshal(e.Shift1)
		if err != nil {
			return fmt.Errorf("failed to encode shift1: %w", err)
		}
		shift2JSON, err := json.Marshal(e.Shift2)
		if err != nil {
			return fmt.Errorf("failed to encode shift2: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO cq_schedule (id, date, day_of_week, shift1, shift2, is_potential_skip_day, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		`, e.ID, e.Date, e.DayOfWeek, shift1JSON, shift2JSON, e.IsPotentialSkipDay, e.Status)
		if err != nil {
			return fmt.Errorf("failed to insert schedule entry for %s: %w", e.Date, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PGStore) UpdateSlot(ctx context.Context, entryID uuid.UUID, shiftType string, position int, slot models.ShiftSlot) error {
	column := "shift1"
	if shiftType == models.ShiftType2 {
		column = "shift2"
	}

	slotJSON, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("failed to encode slot: %w", err)
	}

	// jsonb_set replaces the single position, leaving the other slot intact.
	query := fmt.Sprintf(`
		UPDATE cq_schedule
		SET %s = jsonb_set(%s, $1, $2), updated_at = NOW()
		WHERE id = $3
	`, column, column)

	path := fmt.Sprintf("{slot%d}", position)
	result, err := s.db.Exec(ctx, query, path, slotJSON, entryID)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule entry %s not found", entryID)
	}
	return nil
}

// ApplySkip deletes one entry and re-dates the rest of the rotation in a
// single transaction. Updates run in ascending date order, so every entry
// moves onto a date its predecessor just vacated.
func (s *PGStore) ApplySkip(ctx context.Context, deleteID uuid.UUID, redates []EntryRedate) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cq_schedule WHERE id = $1`, deleteID); err != nil {
		return fmt.Errorf("failed to delete schedule entry: %w", err)
	}

	for _, r := range redates {
		_, err := tx.Exec(ctx, `
			UPDATE cq_schedule
			SET date = $1, day_of_week = $2, updated_at = NOW()
			WHERE id = $3
		`, r.NewDate, r.NewDayOfWeek, r.ID)
		if err != nil {
			return fmt.Errorf("failed to re-date schedule entry: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PGStore) ListActiveRoster(ctx context.Context) ([]RosterMember, error) {
	query := `
		SELECT id, display_name
		FROM personnel
		WHERE is_active = true AND role = 'member'
		ORDER BY last_name, first_name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	members := []RosterMember{}
	for rows.Next() {
		var m RosterMember
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("failed to parse roster member: %w", err)
		}
		members = append(members, m)
	}
	return members, nil
}

const swapColumns = `id, requester_id, requester_name, schedule_id, schedule_date,
	current_shift_type, current_position, proposed_personnel_id, proposed_personnel_name,
	reason, status, resolved_by, resolved_by_name, resolved_at, created_at, updated_at`

func (s *PGStore) GetSwap(ctx context.Context, id uuid.UUID) (*models.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM cq_swap_requests WHERE id = $1`, swapColumns)

	row := s.db.QueryRow(ctx, query, id)
	swap, err := scanSwap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query swap request: %w", err)
	}
	return swap, nil
}

func (s *PGStore) CreateSwap(ctx context.Context, swap *models.SwapRequest) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO cq_swap_requests (
			id, requester_id, requester_name, schedule_id, schedule_date,
			current_shift_type, current_position, proposed_personnel_id,
			proposed_personnel_name, reason, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`, swap.ID, swap.RequesterID, swap.RequesterName, swap.ScheduleID, swap.ScheduleDate,
		swap.CurrentShiftType, swap.CurrentPosition, swap.ProposedPersonnelID,
		swap.ProposedPersonnelName, swap.Reason, swap.Status)
	if err != nil {
		return fmt.Errorf("failed to insert swap request: %w", err)
	}
	return nil
}

func (s *PGStore) ListSwaps(ctx context.Context, status string) ([]models.SwapRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM cq_swap_requests`, swapColumns)
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query swap requests: %w", err)
	}
	defer rows.Close()

	swaps := []models.SwapRequest{}
	for rows.Next() {
		swap, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to parse swap request: %w", err)
		}
		swaps = append(swaps, *swap)
	}
	return swaps, nil
}

func (s *PGStore) UpdateSwapStatus(ctx context.Context, id uuid.UUID, status string, resolvedBy Actor) error {
	result, err := s.db.Exec(ctx, `
		UPDATE cq_swap_requests
		SET status = $1, resolved_by = $2, resolved_by_name = $3, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $4
	`, status, resolvedBy.ID, resolvedBy.Name, id)
	if err != nil {
		return fmt.Errorf("failed to update swap status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("swap request %s not found", id)
	}
	return nil
}

// ApplySwapApproval writes the proposed person into the slot and marks the
// swap approved, in one transaction.
func (s *PGStore) ApplySwapApproval(ctx context.Context, swap *models.SwapRequest, approver Actor) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	column := "shift1"
	if swap.CurrentShiftType == models.ShiftType2 {
		column = "shift2"
	}

	slotJSON, err := json.Marshal(models.ShiftSlot{
		PersonID:   &swap.ProposedPersonnelID,
		PersonName: &swap.ProposedPersonnelName,
	})
	if err != nil {
		return fmt.Errorf("failed to encode slot: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE cq_schedule
		SET %s = jsonb_set(%s, $1, $2), updated_at = NOW()
		WHERE id = $3
	`, column, column)

	path := fmt.Sprintf("{slot%d}", swap.CurrentPosition)
	result, err := tx.Exec(ctx, query, path, slotJSON, swap.ScheduleID)
	if err != nil {
		return fmt.Errorf("failed to update schedule slot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule entry %s not found", swap.ScheduleID)
	}

	_, err = tx.Exec(ctx, `
		UPDATE cq_swap_requests
		SET status = $1, resolved_by = $2, resolved_by_name = $3, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $4
	`, models.SwapStatusApproved, approver.ID, approver.Name, swap.ID)
	if err != nil {
		return fmt.Errorf("failed to update swap status: %w", err)
	}

	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.ScheduleEntry, error) {
	var entry models.ScheduleEntry
	var shift1JSON, shift2JSON []byte

	err := row.Scan(
		&entry.ID,
		&entry.Date,
		&entry.DayOfWeek,
		&shift1JSON,
		&shift2JSON,
		&entry.IsPotentialSkipDay,
		&entry.Status,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(shift1JSON) > 0 {
		if err := json.Unmarshal(shift1JSON, &entry.Shift1); err != nil {
			return nil, fmt.Errorf("failed to decode shift1 for entry %s: %w", entry.ID, err)
		}
	}
	if len(shift2JSON) > 0 {
		if err := json.Unmarshal(shift2JSON, &entry.Shift2); err != nil {
			return nil, fmt.Errorf("failed to decode shift2 for entry %s: %w", entry.ID, err)
		}
	}
	return &entry, nil
}

func collectEntries(rows pgx.Rows) ([]models.ScheduleEntry, error) {
	entries := []models.ScheduleEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func scanSwap(row rowScanner) (*models.SwapRequest, error) {
	var swap models.SwapRequest

	err := row.Scan(
		&swap.ID,
		&swap.RequesterID,
		&swap.RequesterName,
		&swap.ScheduleID,
		&swap.ScheduleDate,
		&swap.CurrentShiftType,
		&swap.CurrentPosition,
		&swap.ProposedPersonnelID,
		&swap.ProposedPersonnelName,
		&swap.Reason,
		&swap.Status,
		&swap.ResolvedBy,
		&swap.ResolvedByName,
		&swap.ResolvedAt,
		&swap.CreatedAt,
		&swap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &swap, nil
}
