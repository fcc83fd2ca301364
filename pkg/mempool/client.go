package mempool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultBaseURL is the public mempool.space instance
const DefaultBaseURL = "https://mempool.space"

// Sentinel errors
var (
	ErrAPIRequestFailed = errors.New("mempool API request failed")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDecodeFailed     = errors.New("decoding response failed")
	ErrNodesMissing     = errors.New("response has no nodes list")
)

// Client represents a mempool.space Lightning API client
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new mempool.space API client
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// Country holds the localized country names of a node location.
// Only the English name is used for display.
type Country struct {
	En string `json:"en"`
}

// City holds the localized city names of a node location
type City struct {
	En string `json:"en"`
}

// Node represents a Lightning node as returned by the ISP endpoint
type Node struct {
	PublicKey string   `json:"public_key"`
	Alias     string   `json:"alias"`
	Channels  int64    `json:"channels"`
	Capacity  int64    `json:"capacity"`
	FirstSeen int64    `json:"first_seen"`
	UpdatedAt int64    `json:"updated_at"`
	City      *City    `json:"city"`
	Country   *Country `json:"country"`
	ISOCode   string   `json:"iso_code"`
}

// ISPNodes is the response body of GET /api/v1/lightning/nodes/isp/{asn}
type ISPNodes struct {
	ISP   string `json:"isp"`
	Nodes []Node `json:"nodes"`
}

// GetISPNodes retrieves the nodes hosted by the given ASN.
// The identifier is passed through verbatim apart from path escaping.
func (c *Client) GetISPNodes(ctx context.Context, asn string) (ISPNodes, error) {
	endpoint := fmt.Sprintf("%s/api/v1/lightning/nodes/isp/%s", c.baseURL, url.PathEscape(asn))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ISPNodes{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ISPNodes{}, fmt.Errorf("%w: %w", ErrAPIRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ISPNodes{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var result ISPNodes
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ISPNodes{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	if result.Nodes == nil {
		return ISPNodes{}, fmt.Errorf("%w: %w", ErrDecodeFailed, ErrNodesMissing)
	}

	return result, nil
}
