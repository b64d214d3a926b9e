package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Request caps applied to every invocation to stay inside the function timeout
const (
	MaxKeywords  = 10
	MaxCountries = 3
)

// LastUpdatedLayout is the format of Meta.LastUpdated (YYYY-MM-DD HH:MM:SS)
const LastUpdatedLayout = "2006-01-02 15:04:05"

// KeywordsConfig is the content of keywords.json
type KeywordsConfig struct {
	Keywords  []string `json:"keywords" mapstructure:"keywords"`
	Countries []string `json:"countries" mapstructure:"countries"`
}

// Truncate returns a copy limited to MaxKeywords keywords and MaxCountries countries.
// Order is preserved.
func (c KeywordsConfig) Truncate() KeywordsConfig {
	return KeywordsConfig{
		Keywords:  firstN(c.Keywords, MaxKeywords),
		Countries: firstN(c.Countries, MaxCountries),
	}
}

// PairCount is the number of (keyword, country) queries this config produces
func (c KeywordsConfig) PairCount() int {
	return len(c.Keywords) * len(c.Countries)
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// PairKey builds the payload key for a keyword/country pair
func PairKey(keyword, country string) string {
	return fmt.Sprintf("%s_%s", keyword, country)
}

// TrendQueryResult holds either the raw upstream body or an error message.
// Exactly one of the two is set.
type TrendQueryResult struct {
	Data  json.RawMessage
	Error string
}

// NewTrendData wraps a successful upstream JSON body
func NewTrendData(data json.RawMessage) TrendQueryResult {
	return TrendQueryResult{Data: data}
}

// NewTrendError wraps a failed query
func NewTrendError(err error) TrendQueryResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return TrendQueryResult{Error: msg}
}

// Failed reports whether the query for this pair failed
func (r TrendQueryResult) Failed() bool {
	return r.Error != "" || len(r.Data) == 0
}

type trendError struct {
	Error string `json:"error"`
}

// MarshalJSON emits the upstream body verbatim, or {"error": "..."} on failure
func (r TrendQueryResult) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		msg := r.Error
		if msg == "" {
			msg = "empty response"
		}
		return json.Marshal(trendError{Error: msg})
	}
	return r.Data, nil
}

// PayloadMeta summarizes one invocation.
// TotalKeywords is the number of pairs attempted, not the number of keywords.
type PayloadMeta struct {
	LastUpdated   string `json:"last_updated"`
	TotalKeywords int    `json:"total_keywords"`
	Errors        int    `json:"errors"`
}

// ResponsePayload is the body returned on a 200 response
type ResponsePayload struct {
	Meta     PayloadMeta                 `json:"meta"`
	Keywords map[string]TrendQueryResult `json:"keywords"`
}

// NewResponsePayload creates an empty payload stamped with the given time
func NewResponsePayload(now time.Time, pairCount int) *ResponsePayload {
	return &ResponsePayload{
		Meta: PayloadMeta{
			LastUpdated:   now.Format(LastUpdatedLayout),
			TotalKeywords: pairCount,
		},
		Keywords: make(map[string]TrendQueryResult, pairCount),
	}
}

// Record stores the result for a pair and updates the error count
func (p *ResponsePayload) Record(keyword, country string, result TrendQueryResult) {
	p.Keywords[PairKey(keyword, country)] = result
	if result.Failed() {
		p.Meta.Errors++
	}
}

// ErrorBody is the body returned on a 500 response
type ErrorBody struct {
	Error string `json:"error"`
}
