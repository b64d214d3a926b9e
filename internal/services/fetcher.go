package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"trends-monitor/internal/models"
)

// redactedURLer is implemented by clients that can describe a request without its credential
type redactedURLer interface {
	RedactedURL(keyword, country string) string
}

// TrendsFetcher runs one query per keyword/country pair and aggregates the results
type TrendsFetcher struct {
	api    TrendsAPI
	logger zerolog.Logger
	now    func() time.Time
}

// NewTrendsFetcher creates a fetcher backed by the given trends API
func NewTrendsFetcher(api TrendsAPI, logger zerolog.Logger) *TrendsFetcher {
	return &TrendsFetcher{
		api:    api,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the time source used for last_updated
func (f *TrendsFetcher) WithClock(now func() time.Time) *TrendsFetcher {
	f.now = now
	return f
}

// FetchAll truncates the configuration to the request caps, queries every pair
// sequentially (keywords outer, countries inner) and builds the payload.
// A failed pair is recorded in place and never stops the loop.
func (f *TrendsFetcher) FetchAll(ctx context.Context, cfg models.KeywordsConfig) *models.ResponsePayload {
	used := cfg.Truncate()
	if len(cfg.Keywords) > len(used.Keywords) || len(cfg.Countries) > len(used.Countries) {
		f.logger.Debug().
			Int("keywords_configured", len(cfg.Keywords)).
			Int("countries_configured", len(cfg.Countries)).
			Int("keywords_used", len(used.Keywords)).
			Int("countries_used", len(used.Countries)).
			Msg("Truncated keyword configuration")
	}

	payload := models.NewResponsePayload(f.now(), used.PairCount())

	for _, keyword := range used.Keywords {
		for _, country := range used.Countries {
			payload.Record(keyword, country, f.fetchPair(ctx, keyword, country))
		}
	}

	return payload
}

func (f *TrendsFetcher) fetchPair(ctx context.Context, keyword, country string) models.TrendQueryResult {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		f.logger.Warn().Err(err).Str("keyword", keyword).Str("country", country).Msg("Skipped pair, invocation context done")
		return models.NewTrendError(err)
	}

	data, err := f.api.FetchTrends(ctx, keyword, country)
	if err != nil {
		event := f.logger.Warn()
		if api, ok := f.api.(redactedURLer); ok {
			event = event.Str("url", api.RedactedURL(keyword, country))
		}
		event.
			Err(err).
			Str("keyword", keyword).
			Str("country", country).
			Dur("elapsed", time.Since(start)).
			Msg("Trends query failed")
		return models.NewTrendError(err)
	}

	f.logger.Debug().
		Str("keyword", keyword).
		Str("country", country).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("Trends query succeeded")
	return models.NewTrendData(data)
}
