package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// DefaultMaxObjectBytes caps the size of a single object read.
const DefaultMaxObjectBytes = 10 * 1024 * 1024

type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads csv, json and parquet objects. Paths are s3://bucket/key
// or bucket/key.
type S3Source struct {
	client   s3API
	maxBytes int64
}

func NewS3Source(client s3API, maxBytes int64) *S3Source {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxObjectBytes
	}
	return &S3Source{client: client, maxBytes: maxBytes}
}

func (s *S3Source) Read(ctx context.Context, path string) (models.Dataset, error) {
	bucket, key, err := splitS3Path(path)
	if err != nil {
		return models.Dataset{}, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return models.Dataset{}, errs.NewNotFoundError("s3 object not found: " + path)
		}
		return models.Dataset{}, fmt.Errorf("get s3 object %s: %w", path, err)
	}
	defer out.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(out.Body, s.maxBytes+1))
	if err != nil {
		return models.Dataset{}, fmt.Errorf("read s3 object %s: %w", path, err)
	}
	if int64(len(payload)) > s.maxBytes {
		return models.Dataset{}, errs.NewValidationError(fmt.Sprintf("s3 object %s exceeds %d bytes", path, s.maxBytes))
	}
	return decode(formatOf(key), payload)
}

func splitS3Path(path string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(path, "s3://")
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", errs.NewValidationError("s3 path must be s3://bucket/key, got " + path)
	}
	return bucket, key, nil
}
