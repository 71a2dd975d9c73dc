package ports

import (
	"context"
	"io"
	"time"
)

// ObjectStorage is the low-level client to the S3-compatible bucket.
type ObjectStorage interface {
	NewMultipartUpload(ctx context.Context, key, contentType string) (uploadID string, err error)
	PresignPart(ctx context.Context, key, uploadID string, partNumber int, expiry time.Duration) (string, error)
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) error
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (publicURL string, err error)
	PublicBase() string
}
