package liberty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/models"
)

// PGStore is the pgx-backed liberty store for one company database. The
// nested lists (companions, time slots, join requests) travel as JSONB.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const requestColumns = `id, requester_id, requester_name, requester_email, locations,
	custom_location, destination, weekend_date, companions, is_driver, passenger_capacity,
	time_slots, join_requests, return_time, notes, status, approved_by, approver_initials,
	rejected_by, resolved_at, cancel_reason, created_at, updated_at`

func (s *PGStore) GetRequest(ctx context.Context, id uuid.UUID) (*models.LibertyRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM liberty_requests WHERE id = $1`, requestColumns)

	row := s.db.QueryRow(ctx, query, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query liberty request: %w", err)
	}
	return req, nil
}

func (s *PGStore) FindNonTerminal(ctx context.Context, requesterID uuid.UUID, weekendDate string) (*models.LibertyRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM liberty_requests
		WHERE requester_id = $1 AND weekend_date = $2 AND status IN ('pending', 'approved')
		ORDER BY created_at DESC
		LIMIT 1
	`, requestColumns)

	row := s.db.QueryRow(ctx, query, requesterID, weekendDate)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query existing request: %w", err)
	}
	return req, nil
}

func (s *PGStore) CreateRequest(ctx context.Context, req *models.LibertyRequest) error {
	return s.insertRequest(ctx, s.db, req)
}

// SupersedeAndCreate cancels the old request and inserts the new one in one
// transaction; a failed insert leaves the old request untouched.
func (s *PGStore) SupersedeAndCreate(ctx context.Context, oldID uuid.UUID, reason string, req *models.LibertyRequest) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE liberty_requests
		SET status = 'cancelled', cancel_reason = $1, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`, reason, oldID)
	if err != nil {
		return fmt.Errorf("failed to cancel prior request: %w", err)
	}

	if err := s.insertRequest(ctx, tx, req); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PGStore) UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) error {
	result, err := s.db.Exec(ctx, `
		UPDATE liberty_requests
		SET status = $1, approved_by = $2, approver_initials = $3, rejected_by = $4,
		    cancel_reason = $5, resolved_at = $6, updated_at = NOW()
		WHERE id = $7
	`, update.Status, update.ApprovedBy, update.ApproverInitials, update.RejectedBy,
		update.CancelReason, update.ResolvedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("liberty request %s not found", id)
	}
	return nil
}

func (s *PGStore) ReplaceTimeSlots(ctx context.Context, id uuid.UUID, slots []models.LibertyTimeSlot) error {
	slotsJSON, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to encode time slots: %w", err)
	}

	result, err := s.db.Exec(ctx, `
		UPDATE liberty_requests
		SET time_slots = $1, updated_at = NOW()
		WHERE id = $2
	`, slotsJSON, id)
	if err != nil {
		return fmt.Errorf("failed to update time slots: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("liberty request %s not found", id)
	}
	return nil
}

func (s *PGStore) ListRequests(ctx context.Context, weekendDate, status string) ([]models.LibertyRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM liberty_requests WHERE 1=1`, requestColumns)
	args := []any{}
	if weekendDate != "" {
		args = append(args, weekendDate)
		query += fmt.Sprintf(` AND weekend_date = $%d`, len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query liberty requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

func (s *PGStore) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.LibertyRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM liberty_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC
	`, requestColumns)

	rows, err := s.db.Query(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query liberty requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// execQuerier covers both the pool and an open transaction.
type execQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (s *PGStore) insertRequest(ctx context.Context, db execQuerier, req *models.LibertyRequest) error {
	companionsJSON, err := json.Marshal(req.Companions)
	if err != nil {
		return fmt.Errorf("failed to encode companions: %w", err)
	}
	slotsJSON, err := json.Marshal(req.TimeSlots)
	if err != nil {
		return fmt.Errorf("failed to encode time slots: %w", err)
	}
	joinsJSON, err := json.Marshal(req.JoinRequests)
	if err != nil {
		return fmt.Errorf("failed to encode join requests: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO liberty_requests (
			id, requester_id, requester_name, requester_email, locations, custom_location,
			destination, weekend_date, companions, is_driver, passenger_capacity,
			time_slots, join_requests, return_time, notes, status, approved_by,
			approver_initials, resolved_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
	`, req.ID, req.RequesterID, req.RequesterName, req.RequesterEmail, req.Locations,
		req.CustomLocation, req.Destination, req.WeekendDate, companionsJSON, req.IsDriver,
		req.PassengerCapacity, slotsJSON, joinsJSON, req.ReturnTime, req.Notes, req.Status,
		req.ApprovedBy, req.ApproverInitials, req.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to insert liberty request: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.LibertyRequest, error) {
	var req models.LibertyRequest
	var companionsJSON, slotsJSON, joinsJSON []byte

	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.RequesterName,
		&req.RequesterEmail,
		&req.Locations,
		&req.CustomLocation,
		&req.Destination,
		&req.WeekendDate,
		&companionsJSON,
		&req.IsDriver,
		&req.PassengerCapacity,
		&slotsJSON,
		&joinsJSON,
		&req.ReturnTime,
		&req.Notes,
		&req.Status,
		&req.ApprovedBy,
		&req.ApproverInitials,
		&req.RejectedBy,
		&req.ResolvedAt,
		&req.CancelReason,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(companionsJSON) > 0 {
		if err := json.Unmarshal(companionsJSON, &req.Companions); err != nil {
			return nil, fmt.Errorf("failed to decode companions for request %s: %w", req.ID, err)
		}
	}
	if len(slotsJSON) > 0 {
		if err := json.Unmarshal(slotsJSON, &req.TimeSlots); err != nil {
			return nil, fmt.Errorf("failed to decode time slots for request %s: %w", req.ID, err)
		}
	}
	if len(joinsJSON) > 0 {
		if err := json.Unmarshal(joinsJSON, &req.JoinRequests); err != nil {
			return nil, fmt.Errorf("failed to decode join requests for request %s: %w", req.ID, err)
		}
	}
	return &req, nil
}

func collectRequests(rows pgx.Rows) ([]models.LibertyRequest, error) {
	reqs := []models.LibertyRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to parse liberty request: %w", err)
		}
		reqs = append(reqs, *req)
	}
	return reqs, nil
}
