package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves objects from memory
type fakeS3 struct {
	objects map[string][]byte
	calls   []string
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	f.calls = append(f.calls, key)
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey: The specified key does not exist.")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Client_DownloadObject(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{
		"test-bucket/config/keywords.json": []byte(`{"keywords":["drone"]}`),
	}}
	client := NewS3ClientFromAPI(fake, "test-bucket", "us-west-2")

	data, err := client.DownloadObject(context.Background(), "/config/keywords.json")
	require.NoError(t, err)
	require.Equal(t, `{"keywords":["drone"]}`, string(data))
	require.Equal(t, []string{"test-bucket/config/keywords.json"}, fake.calls)

	require.Equal(t, "test-bucket", client.GetBucketName())
	require.Equal(t, "us-west-2", client.GetRegion())
}

func TestS3Client_DownloadObjectMissing(t *testing.T) {
	client := NewS3ClientFromAPI(&fakeS3{}, "test-bucket", "us-west-2")

	_, err := client.DownloadObject(context.Background(), "missing.json")
	require.Error(t, err)
	require.Contains(t, err.Error(), "s3://test-bucket/missing.json")
	require.Contains(t, err.Error(), "NoSuchKey")
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		key     string
		wantErr bool
	}{
		{uri: "s3://bucket/keywords.json", bucket: "bucket", key: "keywords.json"},
		{uri: "s3://bucket/config/keywords.json", bucket: "bucket", key: "config/keywords.json"},
		{uri: "s3://bucket//keywords.json", bucket: "bucket", key: "keywords.json"},
		{uri: "https://bucket/keywords.json", wantErr: true},
		{uri: "s3://bucket", wantErr: true},
		{uri: "s3://bucket/", wantErr: true},
		{uri: "s3:///keywords.json", wantErr: true},
	}

	for _, test := range tests {
		bucket, key, err := ParseS3URI(test.uri)
		if test.wantErr {
			require.Error(t, err, test.uri)
			continue
		}
		require.NoError(t, err, test.uri)
		require.Equal(t, test.bucket, bucket, test.uri)
		require.Equal(t, test.key, key, test.uri)
	}
}
