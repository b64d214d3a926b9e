package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ObjectGetter is the subset of the S3 API used to read configuration objects
type S3ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Client reads keyword configuration objects from a bucket
type S3Client struct {
	client     S3ObjectGetter
	bucketName string
	region     string
}

// S3Config holds configuration for S3 client
type S3Config struct {
	BucketName string
	Region     string
	Profile    string // AWS profile to use
}

// NewS3ClientWithConfig creates an S3 client from the default AWS config chain
func NewS3ClientWithConfig(ctx context.Context, s3Config S3Config) (*S3Client, error) {
	var optFns []func(*config.LoadOptions) error
	if s3Config.Profile != "" {
		optFns = append(optFns, config.WithSharedConfigProfile(s3Config.Profile))
	}
	if s3Config.Region != "" {
		optFns = append(optFns, config.WithRegion(s3Config.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3ClientFromAPI(s3.NewFromConfig(cfg), s3Config.BucketName, cfg.Region), nil
}

// NewS3ClientFromAPI wraps an existing S3 API implementation
func NewS3ClientFromAPI(api S3ObjectGetter, bucketName, region string) *S3Client {
	return &S3Client{
		client:     api,
		bucketName: bucketName,
		region:     region,
	}
}

// DownloadObject returns the body of an object in the configured bucket
func (s *S3Client) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	// Ensure key doesn't start with /
	key = strings.TrimPrefix(key, "/")

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucketName, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}

	return data, nil
}

// GetBucketName returns the configured bucket name
func (s *S3Client) GetBucketName() string {
	return s.bucketName
}

// GetRegion returns the configured AWS region
func (s *S3Client) GetRegion() string {
	return s.region
}

// ParseS3URI splits s3://bucket/key into its parts
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 URI: %q", uri)
	}

	bucket, key, _ = strings.Cut(rest, "/")
	key = strings.TrimPrefix(key, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("missing bucket in %q", uri)
	}
	if key == "" {
		return "", "", fmt.Errorf("missing object key in %q", uri)
	}

	return bucket, key, nil
}
