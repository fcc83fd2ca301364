package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // WEB_DISPLAY_TIMEZONE must resolve on hosts without zoneinfo

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration loaded from environment variables
type Config struct {
	HTTPPort          string        `env:"WEB_HTTP_PORT" envDefault:"8080"`
	HTTPHost          string        `env:"WEB_HTTP_HOST" envDefault:"localhost"`
	MempoolAPIURL     string        `env:"WEB_MEMPOOL_API_URL" envDefault:"https://mempool.space"`
	CoindeskAPIURL    string        `env:"WEB_COINDESK_API_URL" envDefault:"https://api.coindesk.com"`
	HttpClientTimeout time.Duration `env:"WEB_HTTP_CLIENT_TIMEOUT" envDefault:"30s"`
	DefaultASN        string        `env:"WEB_DEFAULT_ASN" envDefault:"16509"`
	SessionTTL        time.Duration `env:"WEB_SESSION_TTL" envDefault:"15m"`
	SweepInterval     time.Duration `env:"WEB_SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	DisplayTimezone   string        `env:"WEB_DISPLAY_TIMEZONE" envDefault:"Local"`
	TimestampLayout   string        `env:"WEB_TIMESTAMP_LAYOUT" envDefault:"1/2/2006, 3:04:05 PM"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly  bool          `env:"LOG_HUMAN_FRIENDLY" envDefault:"false"`
}

// New loads all configuration from environment variables
func New() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Location resolves DisplayTimezone for timestamp rendering
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid WEB_DISPLAY_TIMEZONE %q: %w", c.DisplayTimezone, err)
	}
	return loc, nil
}
