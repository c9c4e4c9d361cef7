package models

import (
	"time"

	"github.com/google/uuid"
)

// Schedule entry lifecycle states.
const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusActive    = "active"
	ScheduleStatusCompleted = "completed"
)

// Shift identifiers. Shift2 conceptually starts after midnight but is stored
// on the entry of the date the duty night begins.
const (
	ShiftType1 = "shift1"
	ShiftType2 = "shift2"
)

// ShiftSlot is one of the two person positions on a shift.
type ShiftSlot struct {
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
	PersonName *string    `json:"person_name,omitempty"`
}

// Shift holds the two slots of a CQ shift.
type Shift struct {
	Slot1 ShiftSlot `json:"slot1"`
	Slot2 ShiftSlot `json:"slot2"`
}

// SlotAt returns a pointer to position 1 or 2, or nil for anything else.
func (s *Shift) SlotAt(position int) *ShiftSlot {
	switch position {
	case 1:
		return &s.Slot1
	case 2:
		return &s.Slot2
	default:
		return nil
	}
}

// Holds reports whether the given person occupies either slot.
func (s *Shift) Holds(personID uuid.UUID) bool {
	return (s.Slot1.PersonID != nil && *s.Slot1.PersonID == personID) ||
		(s.Slot2.PersonID != nil && *s.Slot2.PersonID == personID)
}

// ScheduleEntry is one calendar date of the CQ roster. A shift that crosses
// midnight is keyed by its start date, so consumers looking for "tonight's
// shift" must consult both today's and tomorrow's entries.
type ScheduleEntry struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Date               string    `json:"date" db:"date"`
	DayOfWeek          string    `json:"day_of_week" db:"day_of_week"`
	Shift1             Shift     `json:"shift1" db:"shift1"`
	Shift2             Shift     `json:"shift2" db:"shift2"`
	IsPotentialSkipDay bool      `json:"is_potential_skip_day" db:"is_potential_skip_day"`
	Status             string    `json:"status" db:"status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// ShiftFor returns the named shift, or nil for an unknown type.
func (e *ScheduleEntry) ShiftFor(shiftType string) *Shift {
	switch shiftType {
	case ShiftType1:
		return &e.Shift1
	case ShiftType2:
		return &e.Shift2
	default:
		return nil
	}
}

// Shift context tags for the tonight lookup; the UI phrases each differently.
const (
	ShiftContextTonight       = "tonight"        // today's shift1, starts this evening
	ShiftContextInProgress    = "in_progress"    // today's shift2, started after last midnight
	ShiftContextAfterMidnight = "after_midnight" // tomorrow's shift2, starts after midnight tonight
)

// MyShift is the result of the two-entry tonight lookup.
type MyShift struct {
	Entry        ScheduleEntry `json:"entry"`
	ShiftType    string        `json:"shift_type"`
	ShiftContext string        `json:"shift_context"`
}

// Swap request lifecycle states.
const (
	SwapStatusPending   = "pending"
	SwapStatusApproved  = "approved"
	SwapStatusRejected  = "rejected"
	SwapStatusCancelled = "cancelled"
)

// SwapRequest asks to hand a held schedule slot to another person. Approval
// mutates both this record and the referenced schedule entry atomically.
type SwapRequest struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	RequesterID           uuid.UUID  `json:"requester_id" db:"requester_id"`
	RequesterName         string     `json:"requester_name" db:"requester_name"`
	ScheduleID            uuid.UUID  `json:"schedule_id" db:"schedule_id"`
	ScheduleDate          string     `json:"schedule_date" db:"schedule_date"`
	CurrentShiftType      string     `json:"current_shift_type" db:"current_shift_type"`
	CurrentPosition       int        `json:"current_position" db:"current_position"`
	ProposedPersonnelID   uuid.UUID  `json:"proposed_personnel_id" db:"proposed_personnel_id"`
	ProposedPersonnelName string     `json:"proposed_personnel_name" db:"proposed_personnel_name"`
	Reason                *string    `json:"reason,omitempty" db:"reason"`
	Status                string     `json:"status" db:"status"`
	ResolvedBy            *uuid.UUID `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedByName        *string    `json:"resolved_by_name,omitempty" db:"resolved_by_name"`
	ResolvedAt            *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// SwapCreateRequest is the request body for POST /api/swaps
type SwapCreateRequest struct {
	ScheduleID            uuid.UUID `json:"schedule_id" binding:"required"`
	CurrentShiftType      string    `json:"current_shift_type" binding:"required"`
	CurrentPosition       int       `json:"current_position" binding:"required"`
	ProposedPersonnelID   uuid.UUID `json:"proposed_personnel_id" binding:"required"`
	ProposedPersonnelName string    `json:"proposed_personnel_name" binding:"required"`
	Reason                *string   `json:"reason,omitempty"`
}

// ScheduleGenerateRequest is the request body for POST /api/schedule/generate
type ScheduleGenerateRequest struct {
	StartDate string      `json:"start_date" binding:"required"`
	Days      int         `json:"days" binding:"required"`
	Personnel []uuid.UUID `json:"personnel,omitempty"` // explicit rotation order; defaults to active roster
}

// SkipDateRequest is the request body for POST /api/schedule/skip
type SkipDateRequest struct {
	Date   string  `json:"date" binding:"required"`
	Reason *string `json:"reason,omitempty"`
}

// ReassignSlotRequest is the request body for PUT /api/schedule/:id/slot
type ReassignSlotRequest struct {
	ShiftType  string     `json:"shift_type" binding:"required"`
	Position   int        `json:"position" binding:"required"`
	PersonID   *uuid.UUID `json:"person_id,omitempty"`
	PersonName *string    `json:"person_name,omitempty"`
}
