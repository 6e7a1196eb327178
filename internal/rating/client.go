package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

const baseURL = "https://api.trustpilot.com"

// Score is a live reputation lookup result.
type Score struct {
	Value   decimal.Decimal
	Reviews int
}

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=rating_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TrustAPIClient is a client for the external reputation API.
type TrustAPIClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
}

// TrustAPIClientOption is a configuration option for the reputation client.
type TrustAPIClientOption func(*TrustAPIClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) TrustAPIClientOption {
	return func(c *TrustAPIClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) TrustAPIClientOption {
	return func(c *TrustAPIClient) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) TrustAPIClientOption {
	return func(c *TrustAPIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewTrustAPIClient creates a new reputation API client.
func NewTrustAPIClient(key string, options ...TrustAPIClientOption) (*TrustAPIClient, error) {
	var client = &TrustAPIClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if key != "" {
		client.query.Add("apikey", key)
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Lookup finds the business unit for a provider key and returns its score.
func (c *TrustAPIClient) Lookup(ctx context.Context, providerKey string) (Score, error) {
	u, err := url.Parse(c.baseURL + "/v1/business-units/find")
	if err != nil {
		return Score{}, err
	}
	q := u.Query()
	for key, values := range c.query {
		for _, value := range values {
			q.Add(key, value)
		}
	}
	q.Set("name", providerKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return Score{}, err
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Score{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return Score{}, fmt.Errorf("GET %s -> %d: %s", u.String(), resp.StatusCode, string(b))
	}

	var body businessUnit
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Score{}, fmt.Errorf("decode: %w", err)
	}
	if body.Score == nil || body.Score.TrustScore == nil {
		return Score{}, fmt.Errorf("no trust score for %q", providerKey)
	}
	s := Score{Value: *body.Score.TrustScore}
	if body.NumberOfReviews != nil {
		s.Reviews = body.NumberOfReviews.Total
	}
	return s, nil
}

type businessUnit struct {
	DisplayName     string        `json:"displayName"`
	Score           *scoreBlock   `json:"score"`
	NumberOfReviews *reviewsBlock `json:"numberOfReviews"`
}

type scoreBlock struct {
	TrustScore *decimal.Decimal `json:"trustScore"`
}

type reviewsBlock struct {
	Total int `json:"total"`
}
