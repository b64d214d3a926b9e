package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"trends-monitor/internal/models"
)

// ObjectDownloader reads a whole object by key
type ObjectDownloader interface {
	DownloadObject(ctx context.Context, key string) ([]byte, error)
}

// ObjectDownloaderFactory opens a downloader for a bucket
type ObjectDownloaderFactory func(ctx context.Context, bucket string) (ObjectDownloader, error)

// KeywordsLoader reads the keywords configuration on every invocation
type KeywordsLoader struct {
	filePath string
	s3URI    string
	openS3   ObjectDownloaderFactory
}

// NewKeywordsLoader creates a loader for a local file, or for an S3 object when s3URI is set
func NewKeywordsLoader(filePath, s3URI string) *KeywordsLoader {
	return &KeywordsLoader{
		filePath: filePath,
		s3URI:    s3URI,
		openS3: func(ctx context.Context, bucket string) (ObjectDownloader, error) {
			return NewS3ClientWithConfig(ctx, S3Config{BucketName: bucket})
		},
	}
}

// WithObjectDownloaderFactory replaces how S3 buckets are opened
func (l *KeywordsLoader) WithObjectDownloaderFactory(factory ObjectDownloaderFactory) *KeywordsLoader {
	l.openS3 = factory
	return l
}

// Source describes where the configuration is read from
func (l *KeywordsLoader) Source() string {
	if l.s3URI != "" {
		return l.s3URI
	}
	return l.filePath
}

// Load reads the configuration from S3 when configured, the local file otherwise
func (l *KeywordsLoader) Load(ctx context.Context) (*models.KeywordsConfig, error) {
	if l.s3URI != "" {
		return l.LoadS3(ctx, l.s3URI)
	}
	return l.LoadFile(l.filePath)
}

// LoadFile reads a JSON keywords file from disk
func (l *KeywordsLoader) LoadFile(path string) (*models.KeywordsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKeywords(data)
}

// LoadS3 downloads s3://bucket/key and decodes it like a local file
func (l *KeywordsLoader) LoadS3(ctx context.Context, uri string) (*models.KeywordsConfig, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	downloader, err := l.openS3(ctx, bucket)
	if err != nil {
		return nil, err
	}

	data, err := downloader.DownloadObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return ParseKeywords(data)
}

// configKeys are the only top-level fields read from keywords.json; matching is exact
var configKeys = []string{"keywords", "countries"}

// ParseKeywords decodes keywords.json content.
// The root must be a JSON object; a missing field is empty, a null one is invalid.
func ParseKeywords(data []byte) (*models.KeywordsConfig, error) {
	filtered, err := selectConfigKeys(data)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(filtered)); err != nil {
		return nil, err
	}
	return decodeKeywords(v)
}

// selectConfigKeys keeps the exact-case config keys, since viper folds key case
func selectConfigKeys(data []byte) ([]byte, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid keywords JSON: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("keywords configuration must be a JSON object")
	}

	out := make(map[string]json.RawMessage, len(configKeys))
	for _, key := range configKeys {
		raw, ok := root[key]
		if !ok {
			continue
		}
		if string(bytes.TrimSpace(raw)) == "null" {
			return nil, fmt.Errorf("%s must be a list of strings, got null", key)
		}
		out[key] = raw
	}
	return json.Marshal(out)
}

func decodeKeywords(v *viper.Viper) (*models.KeywordsConfig, error) {
	var cfg models.KeywordsConfig
	strict := func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = false
		dc.DecodeHook = nil
	}
	if err := v.Unmarshal(&cfg, strict); err != nil {
		return nil, fmt.Errorf("failed to decode keywords: %w", err)
	}
	if cfg.Keywords == nil {
		cfg.Keywords = []string{}
	}
	if cfg.Countries == nil {
		cfg.Countries = []string{}
	}
	return &cfg, nil
}
