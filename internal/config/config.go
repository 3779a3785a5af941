package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/construction-aqi-dashboard/internal/logging"
)

type AppConfig struct {
	AppEnv   string `env:"APP_ENV" envDefault:"dev" validate:"oneof=dev prod"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required,numeric"`

	// Feed access. The station id itself is fixed (airquality.StationID).
	WAQIToken   string        `env:"WAQI_TOKEN" envDefault:"demo" validate:"required"`
	WAQIBaseURL string        `env:"WAQI_BASE_URL" envDefault:"https://api.waqi.info" validate:"required,url"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s" validate:"gt=0"`

	// CommunityURL is encoded in the QR code on the dashboard.
	CommunityURL string `env:"COMMUNITY_URL" envDefault:"https://t.me/clear_a1r" validate:"required,url"`

	// RefreshInterval controls how often a refresh cycle runs.
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"5m" validate:"gte=1m"`

	// HistoryWindow is the trend window shown on the dashboard.
	HistoryWindow time.Duration `env:"HISTORY_WINDOW" envDefault:"24h" validate:"gt=0"`

	HistoryDriver string `env:"HISTORY_DRIVER" envDefault:"csv" validate:"oneof=csv sqlite memory"`
	HistoryFile   string `env:"HISTORY_FILE" envDefault:"aqi_history.csv"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"aqi_history.db"`

	// Optional MQTT publication; disabled when MQTTBroker is empty.
	MQTTBroker   string `env:"MQTT_BROKER"`
	MQTTPort     int    `env:"MQTT_PORT" envDefault:"1883" validate:"min=1,max=65535"`
	MQTTTopic    string `env:"MQTT_TOPIC" envDefault:"aqi/readings"`
	MQTTClientID string `env:"MQTT_CLIENT_ID" envDefault:"aqi-dashboard"`
}

var validate = validator.New()

// Load reads configuration from a .env file (if any) and the environment,
// applying defaults and validating the result.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return FromEnv()
}

// FromEnv parses the process environment without touching .env files.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level returns the parsed log level. Load has already validated it.
func (c *AppConfig) Level() slog.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

// MQTTEnabled reports whether readings should be published.
func (c *AppConfig) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}
