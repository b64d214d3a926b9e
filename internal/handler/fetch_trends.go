package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trends-monitor/internal/config"
	"trends-monitor/internal/models"
	"trends-monitor/internal/services"
)

// KeywordsSource loads the keywords configuration for one invocation
type KeywordsSource interface {
	Load(ctx context.Context) (*models.KeywordsConfig, error)
}

// TrendsAPIFactory builds the upstream client for an API key
type TrendsAPIFactory func(apiKey string) services.TrendsAPI

// FetchTrendsHandler serves GET /api/fetch_trends
type FetchTrendsHandler struct {
	cfg      *config.Function
	keywords KeywordsSource
	newAPI   TrendsAPIFactory
	logger   zerolog.Logger
	now      func() time.Time
}

// NewFetchTrendsHandler wires the handler from the function config
func NewFetchTrendsHandler(cfg *config.Function, logger zerolog.Logger) *FetchTrendsHandler {
	return &FetchTrendsHandler{
		cfg:      cfg,
		keywords: services.NewKeywordsLoader(cfg.KeywordsFile, cfg.KeywordsS3URI),
		newAPI: func(apiKey string) services.TrendsAPI {
			return services.NewSerpAPIClientWithConfig(services.SerpAPIConfig{
				APIKey:  apiKey,
				BaseURL: cfg.BaseURL,
				Timeout: cfg.Timeout,
			})
		},
		logger: logger,
		now:    time.Now,
	}
}

// WithKeywordsSource replaces where keywords are read from
func (h *FetchTrendsHandler) WithKeywordsSource(source KeywordsSource) *FetchTrendsHandler {
	h.keywords = source
	return h
}

// WithTrendsAPIFactory replaces the upstream client constructor
func (h *FetchTrendsHandler) WithTrendsAPIFactory(factory TrendsAPIFactory) *FetchTrendsHandler {
	h.newAPI = factory
	return h
}

// WithClock overrides the time source for last_updated
func (h *FetchTrendsHandler) WithClock(now func() time.Time) *FetchTrendsHandler {
	h.now = now
	return h
}

// KeywordsSource names where keywords are read from, for startup logs
func (h *FetchTrendsHandler) KeywordsSource() string {
	if named, ok := h.keywords.(interface{ Source() string }); ok {
		return named.Source()
	}
	return "custom"
}

// responseHeaders are attached to every response, success or failure
func responseHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET",
		"Content-Type":                 "application/json",
	}
}

// Handle ignores the request content; every invocation reads the config and queries all pairs.
// Failures are reported through the proxy response, never as a Go error.
func (h *FetchTrendsHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	log := h.logger.With().Str("request_id", requestID(request)).Logger()
	log.Info().Str("method", request.HTTPMethod).Str("path", request.Path).Msg("fetch_trends invoked")

	if !h.cfg.HasAPIKey() {
		msg := fmt.Sprintf("%s not configured", config.EnvAPIKey)
		log.Error().Msg(msg)
		return errorResponse(http.StatusInternalServerError, msg), nil
	}

	kwCfg, err := h.keywords.Load(ctx)
	if err != nil {
		msg := fmt.Sprintf("failed to read configuration: %v", err)
		log.Error().Err(err).Msg("Failed to read keywords configuration")
		return errorResponse(http.StatusInternalServerError, msg), nil
	}

	fetcher := services.NewTrendsFetcher(h.newAPI(h.cfg.APIKey), log).WithClock(h.now)
	payload := fetcher.FetchAll(ctx, *kwCfg)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal payload")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    responseHeaders(),
			Body:       `{"error":"internal server error"}`,
		}, nil
	}

	log.Info().
		Int("total_keywords", payload.Meta.TotalKeywords).
		Int("errors", payload.Meta.Errors).
		Int64("processing_ms", time.Since(start).Milliseconds()).
		Msg("fetch_trends completed")

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    responseHeaders(),
		Body:       string(body),
	}, nil
}

func errorResponse(status int, msg string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(models.ErrorBody{Error: msg})
	if err != nil {
		body = []byte(`{"error":"internal server error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    responseHeaders(),
		Body:       string(body),
	}
}

func requestID(request events.APIGatewayProxyRequest) string {
	if request.RequestContext.RequestID != "" {
		return request.RequestContext.RequestID
	}
	return uuid.NewString()
}
