package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unithq/cqhub-go/internal/models"
)

// ErrSettingNotFound is returned when a key has no row and no default.
var ErrSettingNotFound = errors.New("setting not found")

// Defaults applied when a company has no explicit row for a key. This is the
// single place defaults live; call sites never inline them.
var settingDefaults = map[string]interface{}{
	models.SettingTimezone:         "America/New_York",
	models.SettingDefaultUniform:   "ocp",
	models.SettingWeatherSlotTimes: map[string]interface{}{"breakfast": "06:00", "lunch": "11:00", "dinner": "16:00"},
	models.SettingSwapDeadlineDay:  4, // Thursday
	models.SettingSwapDeadlineTime: "17:00",
}

// Settings reads and writes the typed key/value configuration rows of one
// company database.
type Settings struct {
	db *pgxpool.Pool
}

func NewSettings(db *pgxpool.Pool) *Settings {
	return &Settings{db: db}
}

// convertValue turns a stored string into its declared type.
func convertValue(value, dataType string) interface{} {
	var converted interface{}
	switch dataType {
	case "int":
		converted, _ = strconv.Atoi(value)
	case "float":
		converted, _ = strconv.ParseFloat(value, 64)
	case "bool":
		converted = value == "true" || value == "1" || value == "yes"
	case "dict", "list":
		json.Unmarshal([]byte(value), &converted)
	default:
		converted = value
	}
	return converted
}

// GetAll returns every setting row, typed, merged over the defaults.
func (s *Settings) GetAll(ctx context.Context) (models.SettingsResponse, error) {
	query := `
		SELECT setting_key, setting_value, setting_type
		FROM app_settings
		ORDER BY setting_key
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(models.SettingsResponse)
	for key, val := range settingDefaults {
		settings[key] = val
	}

	for rows.Next() {
		var key, value, dataType string
		if err := rows.Scan(&key, &value, &dataType); err != nil {
			return nil, fmt.Errorf("failed to parse setting: %w", err)
		}
		settings[key] = convertValue(value, dataType)
	}

	return settings, nil
}

// Get returns one setting, falling back to the default table.
func (s *Settings) Get(ctx context.Context, key string) (interface{}, error) {
	query := `
		SELECT setting_value, setting_type
		FROM app_settings
		WHERE setting_key = $1
	`

	var value, dataType string
	err := s.db.QueryRow(ctx, query, key).Scan(&value, &dataType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if def, ok := settingDefaults[key]; ok {
				return def, nil
			}
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to query setting %s: %w", key, err)
	}

	return convertValue(value, dataType), nil
}

// GetString returns a string setting or its default.
func (s *Settings) GetString(ctx context.Context, key string) (string, error) {
	val, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("setting %s is not a string", key)
	}
	return str, nil
}

// GetStringMap returns a dict setting as map[string]string.
func (s *Settings) GetStringMap(ctx context.Context, key string) (map[string]string, error) {
	val, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	raw, ok := val.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("setting %s is not a dict", key)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}

// Set updates or inserts a setting row with its declared type.
func (s *Settings) Set(ctx context.Context, key, dataType, value string, updatedBy string) error {
	query := `
		INSERT INTO app_settings (setting_key, setting_value, setting_type, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (setting_key)
		DO UPDATE SET setting_value = $2, setting_type = $3, updated_by = $4, updated_at = NOW()
	`
	_, err := s.db.Exec(ctx, query, key, value, dataType, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update setting %s: %w", key, err)
	}
	return nil
}
