package models

import (
	"time"

	"github.com/google/uuid"
)

// Liberty request lifecycle states.
const (
	LibertyStatusPending   = "pending"
	LibertyStatusApproved  = "approved"
	LibertyStatusRejected  = "rejected"
	LibertyStatusCancelled = "cancelled"
)

// Join request states within a liberty request.
const (
	JoinStatusPending  = "pending"
	JoinStatusApproved = "approved"
	JoinStatusRejected = "rejected"
)

// Companion is a soldier traveling with the requester.
type Companion struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Rank string    `json:"rank"`
}

// Participant is a member of a time slot's ride/party list.
type Participant struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Rank     string    `json:"rank"`
	JoinedAt time.Time `json:"joined_at"`
}

// LibertyTimeSlot is one window within a request's weekend, carrying its own
// capacity-limited participant list.
type LibertyTimeSlot struct {
	Date         string        `json:"date"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	Locations    []string      `json:"locations,omitempty"`
	Participants []Participant `json:"participants"`
}

// HasParticipant reports whether the given person is already on the list.
func (s *LibertyTimeSlot) HasParticipant(id uuid.UUID) bool {
	for _, p := range s.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// JoinRequest is a pending ask to ride along on a liberty request.
type JoinRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// LibertyRequest is a pass request anchored to a weekend Saturday.
type LibertyRequest struct {
	ID                uuid.UUID         `json:"id" db:"id"`
	RequesterID       uuid.UUID         `json:"requester_id" db:"requester_id"`
	RequesterName     string            `json:"requester_name" db:"requester_name"`
	RequesterEmail    *string           `json:"requester_email,omitempty" db:"requester_email"`
	Locations         []string          `json:"locations" db:"locations"`
	CustomLocation    *string           `json:"custom_location,omitempty" db:"custom_location"`
	Destination       string            `json:"destination" db:"destination"`
	WeekendDate       string            `json:"weekend_date" db:"weekend_date"`
	Companions        []Companion       `json:"companions" db:"companions"`
	IsDriver          bool              `json:"is_driver" db:"is_driver"`
	PassengerCapacity int               `json:"passenger_capacity" db:"passenger_capacity"`
	TimeSlots         []LibertyTimeSlot `json:"time_slots" db:"time_slots"`
	JoinRequests      []JoinRequest     `json:"join_requests" db:"join_requests"`
	ReturnTime        *string           `json:"return_time,omitempty" db:"return_time"`
	Notes             *string           `json:"notes,omitempty" db:"notes"`
	Status            string            `json:"status" db:"status"`
	ApprovedBy        *uuid.UUID        `json:"approved_by,omitempty" db:"approved_by"`
	ApproverInitials  *string           `json:"approver_initials,omitempty" db:"approver_initials"`
	RejectedBy        *uuid.UUID        `json:"rejected_by,omitempty" db:"rejected_by"`
	ResolvedAt        *time.Time        `json:"resolved_at,omitempty" db:"resolved_at"`
	CancelReason      *string           `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
}

// Terminal reports whether the request can no longer change state.
// Approved is not terminal: it can still be cancelled.
func (r *LibertyRequest) Terminal() bool {
	return r.Status == LibertyStatusRejected || r.Status == LibertyStatusCancelled
}

// LibertyCreateRequest is the request body for POST /api/liberty
type LibertyCreateRequest struct {
	Locations         []string          `json:"locations" binding:"required"`
	CustomLocation    *string           `json:"custom_location,omitempty"`
	WeekendDate       string            `json:"weekend_date,omitempty"`
	Companions        []Companion       `json:"companions,omitempty"`
	IsDriver          bool              `json:"is_driver"`
	PassengerCapacity int               `json:"passenger_capacity"`
	TimeSlots         []LibertyTimeSlot `json:"time_slots,omitempty"`
	ReturnTime        *string           `json:"return_time,omitempty"`
	Notes             *string           `json:"notes,omitempty"`
	ForceSubmit       bool              `json:"force_submit"`

	// Admin-on-behalf creation; requires the liberty-approval permission.
	OnBehalfOf  *uuid.UUID `json:"on_behalf_of,omitempty"`
	AutoApprove bool       `json:"auto_approve"`
}

// LibertyCreateResult is returned by the lifecycle create operation. A
// duplicate is a structured signal, not an error, so the UI can offer an
// explicit override.
type LibertyCreateResult struct {
	Success     bool            `json:"success"`
	IsDuplicate bool            `json:"is_duplicate,omitempty"`
	Existing    *LibertyRequest `json:"existing,omitempty"`
	Request     *LibertyRequest `json:"request,omitempty"`
}

// BulkDecisionRequest is the request body for bulk approve/reject.
type BulkDecisionRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required"`
}

// BulkDecisionResult reports one item's outcome within a bulk operation.
type BulkDecisionResult struct {
	ID      uuid.UUID `json:"id"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}
