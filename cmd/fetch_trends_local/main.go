package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"
	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"trends-monitor/internal/config"
	"trends-monitor/internal/handler"
	"trends-monitor/internal/logger"
)

type args struct {
	KeywordsFile string `arg:"--keywords-file" help:"path to keywords.json (overrides KEYWORDS_FILE)"`
	S3URI        string `arg:"--s3-uri" help:"read keywords from s3://bucket/key (overrides KEYWORDS_S3_URI)"`
	Pretty       bool   `arg:"--pretty" help:"indent the JSON body"`
	LogLevel     string `arg:"--log-level" help:"debug, info, warn, error (overrides LOG_LEVEL)"`
}

func (args) Description() string {
	return "\nrun the fetch_trends function once and print the response body\n"
}

// apply layers the command line flags over the environment config
// and returns the logger settings for the run
func (a args) apply(cfg *config.Function) logger.Config {
	if a.KeywordsFile != "" {
		cfg.KeywordsFile = a.KeywordsFile
	}
	if a.S3URI != "" {
		cfg.KeywordsS3URI = a.S3URI
	}
	level := a.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	return logger.Config{Level: level, Format: "console"}
}

func main() {
	var a args
	arg.MustParse(&a)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	log := logger.NewWithWriter(a.apply(cfg), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	request := events.APIGatewayProxyRequest{
		HTTPMethod: "GET",
		Path:       "/api/fetch_trends",
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID: "local-" + uuid.NewString(),
		},
	}

	resp, err := handler.NewFetchTrendsHandler(cfg, log).Handle(ctx, request)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	body := []byte(resp.Body)
	if a.Pretty {
		var out bytes.Buffer
		if err := json.Indent(&out, body, "", "  "); err == nil {
			body = out.Bytes()
		}
	}

	fmt.Fprintf(os.Stderr, "status: %d\n", resp.StatusCode)
	fmt.Println(string(body))

	if resp.StatusCode >= 500 {
		stop()
		os.Exit(1)
	}
}
