package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration, loaded from a YAML file with
// environment-variable overrides for the secrets.
type Config struct {
	Port       int    `yaml:"port" validate:"required,min=1,max=65535"`
	BaseDomain string `yaml:"base_domain" validate:"required,hostname"`

	PlatformDatabaseURL string `yaml:"platform_database_url" validate:"required"`
	CompanyDBPassword   string `yaml:"company_db_password" validate:"required"`

	JWTSecret string `yaml:"jwt_secret" validate:"required,min=32"`
	JWTIssuer string `yaml:"jwt_issuer" validate:"required"`

	WeatherAPIKey  string `yaml:"weather_api_key"`
	WeatherBaseURL string `yaml:"weather_base_url" validate:"omitempty,url"`

	FCMCredentialsFile string `yaml:"fcm_credentials_file"`

	DefaultTimezone string `yaml:"default_timezone"`
}

// envOverrides maps environment variables onto config fields so secrets never
// need to live in the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("PLATFORM_DATABASE_URL"); v != "" {
		c.PlatformDatabaseURL = v
	}
	if v := os.Getenv("COMPANY_DB_PASSWORD"); v != "" {
		c.CompanyDBPassword = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("WEATHER_API_KEY"); v != "" {
		c.WeatherAPIKey = v
	}
	if v := os.Getenv("FCM_CREDENTIALS_FILE"); v != "" {
		c.FCMCredentialsFile = v
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.WeatherBaseURL == "" {
		c.WeatherBaseURL = "https://api.openweathermap.org/data/3.0/onecall"
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "America/New_York"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "cqhub"
	}
}

// Load reads the YAML file at path, applies env overrides and defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
