package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"trends-monitor/internal/config"
	"trends-monitor/internal/handler"
	"trends-monitor/internal/logger"
)

// newFunction builds the handler from the environment
func newFunction() (*handler.FetchTrendsHandler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load function config: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if !cfg.HasAPIKey() {
		// requests are rejected one by one, the function still starts
		log.Warn().Msgf("%s is not set", config.EnvAPIKey)
	}

	h := handler.NewFetchTrendsHandler(cfg, log)

	log.Info().
		Str("keywords_source", h.KeywordsSource()).
		Str("serpapi_base_url", cfg.BaseURL).
		Dur("serpapi_timeout", cfg.Timeout).
		Msg("Starting fetch_trends function")

	return h, nil
}

// main is the entry point for the Lambda function
func main() {
	h, err := newFunction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
