package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment variable names read by the function
const (
	EnvAPIKey           = "SERPAPI_KEY"
	EnvBaseURL          = "SERPAPI_BASE_URL"
	EnvTimeout          = "SERPAPI_TIMEOUT"
	EnvKeywordsFile     = "KEYWORDS_FILE"
	EnvKeywordsS3URI    = "KEYWORDS_S3_URI"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
	DefaultBaseURL      = "https://serpapi.com/search"
	DefaultKeywordsFile = "keywords.json"
)

// Function holds everything the fetch_trends handler needs.
// APIKey may be empty; the handler rejects each request in that case.
type Function struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	KeywordsFile  string
	KeywordsS3URI string
	LogLevel      string
	LogFormat     string
}

// HasAPIKey reports whether a SerpAPI key is configured
func (f *Function) HasAPIKey() bool {
	return strings.TrimSpace(f.APIKey) != ""
}

// Load builds a Function config from environment variables.
func Load() (*Function, error) {
	timeout, err := getDuration(EnvTimeout, "10s")
	if err != nil {
		return nil, err
	}

	c := &Function{
		APIKey:        os.Getenv(EnvAPIKey),
		BaseURL:       getEnv(EnvBaseURL, DefaultBaseURL),
		Timeout:       timeout,
		KeywordsFile:  getEnv(EnvKeywordsFile, DefaultKeywordsFile),
		KeywordsS3URI: strings.TrimSpace(os.Getenv(EnvKeywordsS3URI)),
		LogLevel:      getEnv(EnvLogLevel, "info"),
		LogFormat:     getEnv(EnvLogFormat, "json"),
	}

	if c.Timeout <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvTimeout)
	}
	if c.KeywordsS3URI != "" && !strings.HasPrefix(c.KeywordsS3URI, "s3://") {
		return nil, fmt.Errorf("%s must start with s3://", EnvKeywordsS3URI)
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getDuration(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
