package models

import (
	"time"

	"github.com/google/uuid"
)

// Detail assignment lifecycle states.
const (
	DetailStatusOpen                = "open"
	DetailStatusPending             = "pending"
	DetailStatusPendingVerification = "pending_verification"
	DetailStatusVerified            = "verified"
)

// DetailType is a recurring category of unit detail (police call, staff duty
// driver, arms-room cleanup) that assignments are cut from.
type DetailType struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Description      *string   `json:"description,omitempty" db:"description"`
	Category         string    `json:"category" db:"category"`
	EstimatedMinutes *int      `json:"estimated_minutes,omitempty" db:"estimated_minutes"`
	RequiresInspect  bool      `json:"requires_inspection" db:"requires_inspection"`
	RotationEligible bool      `json:"rotation_eligible" db:"rotation_eligible"`
	Active           bool      `json:"active" db:"active"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// DetailAssignment is one tasking of a detail to a soldier.
type DetailAssignment struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	DetailTypeID    uuid.UUID  `json:"detail_type_id" db:"detail_type_id"`
	AssignedTo      *uuid.UUID `json:"assigned_to,omitempty" db:"assigned_to"`
	AssignedBy      *uuid.UUID `json:"assigned_by,omitempty" db:"assigned_by"`
	Status          string     `json:"status" db:"status"`
	DueDate         *time.Time `json:"due_date,omitempty" db:"due_date"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	CompletionNotes *string    `json:"completion_notes,omitempty" db:"completion_notes"`
	InspectionNotes *string    `json:"inspection_notes,omitempty" db:"inspection_notes"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// DetailTypeCreateRequest is the request body for POST /api/details/types
type DetailTypeCreateRequest struct {
	Name             string  `json:"name" binding:"required"`
	Description      *string `json:"description,omitempty"`
	Category         string  `json:"category"`
	EstimatedMinutes *int    `json:"estimated_minutes,omitempty"`
	RequiresInspect  bool    `json:"requires_inspection"`
	RotationEligible bool    `json:"rotation_eligible"`
}

// DetailAssignRequest is the request body for POST /api/details
type DetailAssignRequest struct {
	DetailTypeID uuid.UUID  `json:"detail_type_id" binding:"required"`
	AssignedTo   *uuid.UUID `json:"assigned_to,omitempty"` // omitted = open for claiming
	DueDate      *time.Time `json:"due_date,omitempty"`
}

// DetailCompleteRequest is the request body for completing a detail.
type DetailCompleteRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// DetailVerifyRequest is the request body for verification.
type DetailVerifyRequest struct {
	Approved        bool    `json:"approved"`
	InspectionNotes *string `json:"inspection_notes,omitempty"`
}
