package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for mempool client acceptance tests
type Config struct {
	ASN         string        `env:"MEMPOOL_TEST_ASN" envDefault:"16509"`
	HTTPTimeout time.Duration `env:"MEMPOOL_TEST_HTTP_TIMEOUT" envDefault:"30s"`
	BaseURL     string        `env:"MEMPOOL_TEST_BASE_URL" envDefault:"https://mempool.space"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads test configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}
