//go:build acceptance

package coindesk_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/lnisp/pkg/coindesk"
	"github.com/screwyprof/lnisp/pkg/coindesk/testcfg"
)

func TestCoindeskClientRealAPI(t *testing.T) {
	t.Parallel()

	// Load test configuration from environment
	testCfg := testcfg.New()

	// Arrange
	client := coindesk.NewClient(&http.Client{
		Timeout: testCfg.HTTPTimeout,
	}, testCfg.BaseURL)

	// Act
	rate, err := client.GetUSDRate(t.Context())

	// Assert
	require.NoError(t, err)
	assert.True(t, rate.IsPositive(), "USD rate should be positive, got %s", rate)

	t.Logf("BTC/USD: %s", rate)
}
