package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/lnisp/web/config"
)

func TestNew(t *testing.T) {
	t.Run("it applies defaults", func(t *testing.T) {
		// Act
		cfg := config.New()

		// Assert
		assert.Equal(t, "16509", cfg.DefaultASN)
		assert.Equal(t, "https://mempool.space", cfg.MempoolAPIURL)
		assert.Equal(t, "https://api.coindesk.com", cfg.CoindeskAPIURL)
		assert.Equal(t, 30*time.Second, cfg.HttpClientTimeout)
		assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	})

	t.Run("it reads overrides from the environment", func(t *testing.T) {
		// Arrange
		t.Setenv("WEB_DEFAULT_ASN", "8075")
		t.Setenv("WEB_SESSION_TTL", "90s")
		t.Setenv("WEB_DISPLAY_TIMEZONE", "Europe/Berlin")

		// Act
		cfg := config.New()
		loc, err := cfg.Location()

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "8075", cfg.DefaultASN)
		assert.Equal(t, 90*time.Second, cfg.SessionTTL)
		assert.Equal(t, "Europe/Berlin", loc.String())
	})

	t.Run("it rejects unknown time zones", func(t *testing.T) {
		// Arrange
		t.Setenv("WEB_DISPLAY_TIMEZONE", "Mars/Olympus_Mons")

		// Act
		_, err := config.New().Location()

		// Assert
		assert.Error(t, err)
	})
}
