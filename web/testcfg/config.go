package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for web acceptance tests
type Config struct {
	ASN              string        `env:"WEB_TEST_ASN" envDefault:"16509"`
	MempoolAPIURL    string        `env:"WEB_TEST_MEMPOOL_API_URL" envDefault:"https://mempool.space"`
	CoindeskAPIURL   string        `env:"WEB_TEST_COINDESK_API_URL" envDefault:"https://api.coindesk.com"`
	HTTPTimeout      time.Duration `env:"WEB_TEST_HTTP_TIMEOUT" envDefault:"30s"`
	LogLevel         string        `env:"WEB_TEST_LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool          `env:"WEB_TEST_LOG_HUMAN_FRIENDLY" envDefault:"true"`
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
