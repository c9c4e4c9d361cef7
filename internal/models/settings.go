package models

import (
	"time"

	"github.com/google/uuid"
)

// Well-known setting keys consumed by the core subsystems.
const (
	SettingTimezone         = "timezone"           // IANA zone for all slot/date derivation
	SettingDefaultUniform   = "default_uniform_id" // fallback when no weather rule matches
	SettingWeatherSlotTimes = "weather_slot_times" // dict of slot -> HH:MM check time
	SettingWeatherLocation  = "weather_location"   // dict: latitude/longitude/units
	SettingSwapDeadlineDay  = "swap_deadline_day"  // weekday number, 0=Sunday
	SettingSwapDeadlineTime = "swap_deadline_time" // HH:MM
)

// AppSetting represents a company-wide configuration setting stored as a
// typed key/value row.
type AppSetting struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	SettingKey   string     `json:"setting_key" db:"setting_key"`
	SettingValue string     `json:"setting_value" db:"setting_value"`
	SettingType  string     `json:"setting_type" db:"setting_type"` // int, float, bool, string, dict, list
	Description  *string    `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	UpdatedBy    *uuid.UUID `json:"updated_by,omitempty" db:"updated_by"`
}

// SettingUpdateRequest is the request body for PUT /api/settings/:key
type SettingUpdateRequest struct {
	Value interface{} `json:"value" binding:"required"`
}

// SettingsResponse is the response format for GET /api/settings
type SettingsResponse map[string]interface{}
