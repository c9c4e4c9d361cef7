package clock

import (
	"fmt"
	"time"
)

// Slot is a named recurring time window.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
)

const dateLayout = "2006-01-02"

// Resolver derives calendar dates, slots, and deadline checks from wall-clock
// time in a configured IANA timezone. Now is injectable so every derivation is
// deterministic under test.
type Resolver struct {
	loc *time.Location
	Now func() time.Time
}

// NewResolver loads the IANA zone. An empty name resolves to UTC, matching
// time.LoadLocation.
func NewResolver(tz string) (*Resolver, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", tz, err)
	}
	return &Resolver{loc: loc, Now: time.Now}, nil
}

func (r *Resolver) local() time.Time {
	return r.Now().In(r.loc)
}

// Today returns the current calendar date in the configured zone as YYYY-MM-DD.
func (r *Resolver) Today() string {
	return r.local().Format(dateLayout)
}

// Tomorrow returns tomorrow's calendar date in the configured zone.
func (r *Resolver) Tomorrow() string {
	return r.local().AddDate(0, 0, 1).Format(dateLayout)
}

// CurrentHour returns the local hour of day, 0-23.
func (r *Resolver) CurrentHour() int {
	return r.local().Hour()
}

// TargetSlot maps the current hour to a meal slot: before 10:00 is breakfast,
// before 15:00 is lunch, the rest of the day is dinner.
func (r *Resolver) TargetSlot() Slot {
	return SlotForHour(r.CurrentHour())
}

// SlotForHour is the threshold table behind TargetSlot.
func SlotForHour(hour int) Slot {
	switch {
	case hour < 10:
		return SlotBreakfast
	case hour < 15:
		return SlotLunch
	default:
		return SlotDinner
	}
}

// BeforeWeeklyDeadline reports whether "now" falls before a weekly deadline
// given as a day of week plus an HH:MM time of day. Days earlier in the week
// than the deadline day pass outright; on the deadline day the time of day
// decides; later days fail.
func (r *Resolver) BeforeWeeklyDeadline(day time.Weekday, hhmm string) (bool, error) {
	deadline, err := time.Parse("15:04", hhmm)
	if err != nil {
		return false, fmt.Errorf("invalid deadline time %q: %w", hhmm, err)
	}

	now := r.local()
	if now.Weekday() != day {
		return now.Weekday() < day, nil
	}

	nowMinutes := now.Hour()*60 + now.Minute()
	deadlineMinutes := deadline.Hour()*60 + deadline.Minute()
	return nowMinutes < deadlineMinutes, nil
}

// WeekendAnchor returns the canonical Saturday for the weekend "now" belongs
// to: the upcoming Saturday during the week, today on Saturday, and the
// previous day's Saturday on Sunday (the weekend already in progress).
func (r *Resolver) WeekendAnchor() string {
	now := r.local()
	switch now.Weekday() {
	case time.Saturday:
		return now.Format(dateLayout)
	case time.Sunday:
		return now.AddDate(0, 0, -1).Format(dateLayout)
	default:
		days := int(time.Saturday - now.Weekday())
		return now.AddDate(0, 0, days).Format(dateLayout)
	}
}

// LocalizedTime formats the current instant for display, e.g. notification
// titles ("Jan 2 15:04").
func (r *Resolver) LocalizedTime() string {
	return r.local().Format("Jan 2 15:04")
}

// CurrentHHMM returns the local wall-clock time as HH:MM, used to match
// scheduled-trigger ticks against configured slot times.
func (r *Resolver) CurrentHHMM() string {
	return r.local().Format("15:04")
}

// ParseDate validates a YYYY-MM-DD string and returns it normalized.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t.Format(dateLayout), nil
}

// NextDate returns the calendar day after a YYYY-MM-DD date.
func NextDate(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.AddDate(0, 0, 1).Format(dateLayout), nil
}

// Weekday returns the day-of-week name for a YYYY-MM-DD date.
func Weekday(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.Weekday().String(), nil
}
