package ports

import (
	"context"
	"io"
	"time"
)

// CompletedPart is what a finished part PUT hands back: the ETag from the
// storage response and the 1-based part number.
type CompletedPart struct {
	ETag       string `json:"ETag"`
	PartNumber int    `json:"PartNumber"`
}

// PresignedUpload describes an open multipart session.
type PresignedUpload struct {
	UploadID string         `json:"uploadId"`
	Key      string         `json:"s3Key"`
	Parts    map[int]string `json:"parts"`
}

// Asset is a finalized object in the bucket.
type Asset struct {
	ID        string    `json:"assetId"`
	Key       string    `json:"key"`
	CDN       string    `json:"cdn"`
	Extension string    `json:"extension"`
	CreatedAt time.Time `json:"createdAt"`
}

type AssetRepo interface {
	Create(ctx context.Context, a *Asset) error
	Get(ctx context.Context, id string) (*Asset, error)
	Delete(ctx context.Context, id string) error
}

// UploadService issues presigned part URLs and finalizes multipart uploads.
// Presign is not idempotent: every call opens a new session.
type UploadService interface {
	Presign(ctx context.Context, fileName string, size int64) (*PresignedUpload, error)
	Complete(ctx context.Context, key, uploadID string, parts []CompletedPart) (*Asset, error)
	Abort(ctx context.Context, key, uploadID string) error
}

// AssetService adds single-request uploads for files that fit in one part.
type AssetService interface {
	UploadService
	Put(ctx context.Context, fileName string, r io.Reader, size int64) (*Asset, error)
}
