package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SerpAPI Google Trends query defaults
const (
	SerpAPIBaseURL    = "https://serpapi.com/search"
	SerpAPIEngine     = "google_trends"
	SerpAPILanguage   = "en"
	SerpAPIDateRange  = "now 7-d"
	SerpAPITimeout    = 10 * time.Second
	maxErrorBodyBytes = 512
)

// TrendsAPI fetches trend data for a single keyword/country pair
type TrendsAPI interface {
	FetchTrends(ctx context.Context, keyword, country string) (json.RawMessage, error)
}

// SerpAPIClient queries the SerpAPI Google Trends engine
type SerpAPIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// SerpAPIConfig holds optional overrides for the client
type SerpAPIConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewSerpAPIClient creates a client with the default endpoint and a 10 second timeout
func NewSerpAPIClient(apiKey string) *SerpAPIClient {
	return NewSerpAPIClientWithConfig(SerpAPIConfig{APIKey: apiKey})
}

// NewSerpAPIClientWithConfig creates a client with custom endpoint, timeout or transport
func NewSerpAPIClientWithConfig(cfg SerpAPIConfig) *SerpAPIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = SerpAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = SerpAPITimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			IdleConnTimeout: 90 * time.Second,
		}
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		}
	}

	return &SerpAPIClient{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// BuildQuery returns the query parameters for one pair
func (c *SerpAPIClient) BuildQuery(keyword, country string) url.Values {
	params := url.Values{}
	params.Set("engine", SerpAPIEngine)
	params.Set("q", keyword)
	params.Set("geo", country)
	params.Set("api_key", c.apiKey)
	params.Set("hl", SerpAPILanguage)
	params.Set("date", SerpAPIDateRange)
	return params
}

// FetchTrends performs a single GET for the pair and returns the JSON body.
// There is no retry; the caller records the error and moves on.
func (c *SerpAPIClient) FetchTrends(ctx context.Context, keyword, country string) (json.RawMessage, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid serpapi base URL: %w", err)
	}
	endpoint.RawQuery = c.BuildQuery(keyword, country).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request failed: %s", c.redact(err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read serpapi response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(body))
		if len(excerpt) > maxErrorBodyBytes {
			excerpt = excerpt[:maxErrorBodyBytes]
		}
		return nil, fmt.Errorf("serpapi returned status %d: %s", resp.StatusCode, excerpt)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("serpapi returned invalid JSON (%d bytes)", len(body))
	}

	return json.RawMessage(body), nil
}

// RedactedURL returns the request URL for a pair with the API key masked, for logging
func (c *SerpAPIClient) RedactedURL(keyword, country string) string {
	params := c.BuildQuery(keyword, country)
	params.Set("api_key", "REDACTED")
	return c.baseURL + "?" + params.Encode()
}

// GetBaseURL returns the configured endpoint
func (c *SerpAPIClient) GetBaseURL() string {
	return c.baseURL
}

// GetTimeout returns the per-request timeout
func (c *SerpAPIClient) GetTimeout() time.Duration {
	return c.httpClient.Timeout
}

// redact strips the API key from transport errors, which embed the full URL
func (c *SerpAPIClient) redact(msg string) string {
	if c.apiKey == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(c.apiKey), "REDACTED")
	return strings.ReplaceAll(msg, c.apiKey, "REDACTED")
}
