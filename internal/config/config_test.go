package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validYAML = `
port: 9000
base_domain: cqhub.app
platform_database_url: postgres://cqhub@localhost:5432/platform
company_db_password: localdev-password
jwt_secret: 0123456789abcdef0123456789abcdef
jwt_issuer: cqhub
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "cqhub.app", cfg.BaseDomain)
	assert.Equal(t, "America/New_York", cfg.DefaultTimezone)
	assert.Contains(t, cfg.WeatherBaseURL, "openweathermap")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "fedcba9876543210fedcba9876543210")
	t.Setenv("COMPANY_DB_PASSWORD", "from-env")

	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "fedcba9876543210fedcba9876543210", cfg.JWTSecret)
	assert.Equal(t, "from-env", cfg.CompanyDBPassword)
}

func TestLoadRejectsShortJWTSecret(t *testing.T) {
	yaml := `
port: 9000
base_domain: cqhub.app
platform_database_url: postgres://cqhub@localhost:5432/platform
company_db_password: localdev-password
jwt_secret: tooshort
`
	_, err := Load(writeConfig(t, yaml))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	_, err := Load(writeConfig(t, "port: 9000\n"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
