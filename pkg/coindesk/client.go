package coindesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public CoinDesk API host
const DefaultBaseURL = "https://api.coindesk.com"

// Sentinel errors
var (
	ErrAPIRequestFailed = errors.New("coindesk API request failed")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDecodeFailed     = errors.New("decoding response failed")
	ErrRateMissing      = errors.New("currency rate missing from response")
)

// Client represents a CoinDesk Bitcoin Price Index client
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new CoinDesk API client
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// Rate is a single currency entry of the price index
type Rate struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	RateFloat   decimal.NullDecimal `json:"rate_float"`
}

// CurrentPrice is the response body of GET /v1/bpi/currentprice.json
type CurrentPrice struct {
	Time struct {
		UpdatedISO string `json:"updatedISO"`
	} `json:"time"`
	ChartName string          `json:"chartName"`
	BPI       map[string]Rate `json:"bpi"`
}

// Rate returns the rate for the given currency code
func (p CurrentPrice) Rate(code string) (decimal.Decimal, error) {
	rate, ok := p.BPI[code]
	if !ok || !rate.RateFloat.Valid {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrRateMissing, code)
	}
	return rate.RateFloat.Decimal, nil
}

// GetCurrentPrice retrieves the current Bitcoin price index snapshot
func (c *Client) GetCurrentPrice(ctx context.Context) (CurrentPrice, error) {
	endpoint := c.baseURL + "/v1/bpi/currentprice.json"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return CurrentPrice{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return CurrentPrice{}, fmt.Errorf("%w: %w", ErrAPIRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CurrentPrice{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var price CurrentPrice
	if err := json.NewDecoder(resp.Body).Decode(&price); err != nil {
		return CurrentPrice{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	return price, nil
}

// GetUSDRate retrieves the current USD rate of one bitcoin
func (c *Client) GetUSDRate(ctx context.Context) (decimal.Decimal, error) {
	price, err := c.GetCurrentPrice(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return price.Rate("USD")
}
