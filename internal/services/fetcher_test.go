package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"trends-monitor/internal/models"
)

type stubCall struct {
	keyword string
	country string
}

// stubTrendsAPI records calls and fails the pairs listed in failures
type stubTrendsAPI struct {
	calls    []stubCall
	failures map[string]error
}

func (s *stubTrendsAPI) FetchTrends(ctx context.Context, keyword, country string) (json.RawMessage, error) {
	s.calls = append(s.calls, stubCall{keyword: keyword, country: country})
	if err, ok := s.failures[models.PairKey(keyword, country)]; ok {
		return nil, err
	}
	return json.RawMessage(fmt.Sprintf(`{"q":%q,"geo":%q}`, keyword, country)), nil
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 6, 9, 30, 0, 0, time.Local)
}

func TestTrendsFetcher_SinglePair(t *testing.T) {
	api := &stubTrendsAPI{}
	fetcher := NewTrendsFetcher(api, zerolog.Nop()).WithClock(fixedClock)

	payload := fetcher.FetchAll(context.Background(), models.KeywordsConfig{
		Keywords:  []string{"shoes"},
		Countries: []string{"US"},
	})

	require.Equal(t, []stubCall{{"shoes", "US"}}, api.calls)
	require.Equal(t, 1, payload.Meta.TotalKeywords)
	require.Equal(t, 0, payload.Meta.Errors)
	require.Equal(t, "2025-01-06 09:30:00", payload.Meta.LastUpdated)
	require.Contains(t, payload.Keywords, "shoes_US")
	require.JSONEq(t, `{"q":"shoes","geo":"US"}`, string(payload.Keywords["shoes_US"].Data))
}

func TestTrendsFetcher_TruncatesAndOrders(t *testing.T) {
	var keywords []string
	for i := 0; i < 12; i++ {
		keywords = append(keywords, fmt.Sprintf("k%02d", i))
	}
	api := &stubTrendsAPI{}
	fetcher := NewTrendsFetcher(api, zerolog.Nop())

	payload := fetcher.FetchAll(context.Background(), models.KeywordsConfig{
		Keywords:  keywords,
		Countries: []string{"US", "GB", "DE", "FR"},
	})

	require.Len(t, api.calls, 30)
	require.Equal(t, 30, payload.Meta.TotalKeywords)
	require.Len(t, payload.Keywords, 30)

	// keywords outer, countries inner
	require.Equal(t, stubCall{"k00", "US"}, api.calls[0])
	require.Equal(t, stubCall{"k00", "GB"}, api.calls[1])
	require.Equal(t, stubCall{"k00", "DE"}, api.calls[2])
	require.Equal(t, stubCall{"k01", "US"}, api.calls[3])
	require.Equal(t, stubCall{"k09", "DE"}, api.calls[29])

	require.NotContains(t, payload.Keywords, "k10_US")
	require.NotContains(t, payload.Keywords, "k00_FR")
}

func TestTrendsFetcher_PartialFailure(t *testing.T) {
	api := &stubTrendsAPI{failures: map[string]error{
		"shoes_GB": errors.New("serpapi request failed: context deadline exceeded"),
	}}
	fetcher := NewTrendsFetcher(api, zerolog.Nop())

	payload := fetcher.FetchAll(context.Background(), models.KeywordsConfig{
		Keywords:  []string{"shoes"},
		Countries: []string{"US", "GB"},
	})

	require.Len(t, api.calls, 2)
	require.Equal(t, 2, payload.Meta.TotalKeywords)
	require.Equal(t, 1, payload.Meta.Errors)
	require.False(t, payload.Keywords["shoes_US"].Failed())
	require.True(t, payload.Keywords["shoes_GB"].Failed())
	require.Equal(t, "serpapi request failed: context deadline exceeded", payload.Keywords["shoes_GB"].Error)
}

func TestTrendsFetcher_EmptyConfig(t *testing.T) {
	api := &stubTrendsAPI{}
	fetcher := NewTrendsFetcher(api, zerolog.Nop())

	payload := fetcher.FetchAll(context.Background(), models.KeywordsConfig{
		Keywords: []string{"shoes", "boots"},
	})

	require.Empty(t, api.calls)
	require.Equal(t, 0, payload.Meta.TotalKeywords)
	require.Equal(t, 0, payload.Meta.Errors)
	require.NotNil(t, payload.Keywords)
	require.Empty(t, payload.Keywords)
}

func TestTrendsFetcher_CancelledContext(t *testing.T) {
	api := &stubTrendsAPI{}
	fetcher := NewTrendsFetcher(api, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := fetcher.FetchAll(ctx, models.KeywordsConfig{
		Keywords:  []string{"a", "b"},
		Countries: []string{"US"},
	})

	require.Empty(t, api.calls)
	require.Equal(t, 2, payload.Meta.TotalKeywords)
	require.Equal(t, 2, payload.Meta.Errors)
	require.Equal(t, context.Canceled.Error(), payload.Keywords["a_US"].Error)
}

func TestTrendsFetcher_FailureLogRedactsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"Your account has run out of searches."}`))
	}))
	defer server.Close()

	var logs bytes.Buffer
	client := NewSerpAPIClientWithConfig(SerpAPIConfig{APIKey: "topsecret", BaseURL: server.URL})
	fetcher := NewTrendsFetcher(client, zerolog.New(&logs))

	payload := fetcher.FetchAll(context.Background(), models.KeywordsConfig{
		Keywords:  []string{"shoes"},
		Countries: []string{"US"},
	})
	require.Equal(t, 1, payload.Meta.Errors)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry))
	require.Equal(t, "warn", entry["level"])
	require.Equal(t, "Trends query failed", entry["message"])
	require.Contains(t, entry["url"], "api_key=REDACTED")
	require.Contains(t, entry["url"], "q=shoes")
	require.NotContains(t, logs.String(), "topsecret")
}
