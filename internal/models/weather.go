package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation lifecycle states.
const (
	RecommendationStatusPending    = "pending"
	RecommendationStatusApproved   = "approved"
	RecommendationStatusRejected   = "rejected"
	RecommendationStatusSuperseded = "superseded"
)

// FloatRange is an inclusive numeric range; either bound may be open.
type FloatRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// PrecipitationCondition matches the snapshot's weather type and/or
// precipitation probability.
type PrecipitationCondition struct {
	Types       []string    `json:"types,omitempty"`
	Probability *FloatRange `json:"probability,omitempty"`
}

// RuleConditions are the optional checks of a uniform rule; a missing
// condition always passes.
type RuleConditions struct {
	Temperature   *FloatRange             `json:"temperature,omitempty"`
	Humidity      *FloatRange             `json:"humidity,omitempty"`
	WindSpeed     *FloatRange             `json:"wind_speed,omitempty"`
	UVIndex       *FloatRange             `json:"uv_index,omitempty"`
	Precipitation *PrecipitationCondition `json:"precipitation,omitempty"`
}

// WeatherRule maps weather conditions to a uniform. Lower priority wins.
type WeatherRule struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	UniformID  string          `json:"uniform_id" db:"uniform_id"`
	Priority   int             `json:"priority" db:"priority"`
	Enabled    bool            `json:"enabled" db:"enabled"`
	Conditions *RuleConditions `json:"conditions,omitempty" db:"conditions"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// WeatherSnapshot is the subset of provider data the matcher reads. Pointer
// fields distinguish "not reported" from zero; an unreported value satisfies
// any range check.
type WeatherSnapshot struct {
	Temperature         *float64  `json:"temperature,omitempty"`
	Humidity            *float64  `json:"humidity,omitempty"`
	WindSpeed           *float64  `json:"wind_speed,omitempty"`
	UVIndex             *float64  `json:"uv_index,omitempty"`
	WeatherMain         string    `json:"weather_main"`
	PrecipitationChance *float64  `json:"precipitation_chance,omitempty"`
	FetchedAt           time.Time `json:"fetched_at"`
	ExpiresAt           time.Time `json:"expires_at"`
}

// Expired reports whether the cached snapshot is past its provider expiry.
func (s *WeatherSnapshot) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// WeatherRecommendation is a uniform-of-the-day decision for one date+slot.
// At most one pending-or-approved recommendation may exist per (date, slot).
type WeatherRecommendation struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TargetDate    string          `json:"target_date" db:"target_date"`
	TargetSlot    string          `json:"target_slot" db:"target_slot"`
	Snapshot      WeatherSnapshot `json:"snapshot" db:"snapshot"`
	MatchedRuleID *uuid.UUID      `json:"matched_rule_id,omitempty" db:"matched_rule_id"`
	UniformID     string          `json:"uniform_id" db:"uniform_id"`
	Status        string          `json:"status" db:"status"`
	DecidedBy     *uuid.UUID      `json:"decided_by,omitempty" db:"decided_by"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// WeatherLocation is the configured coordinate pair for provider lookups.
type WeatherLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Units     string  `json:"units"` // "imperial" or "metric"
}
