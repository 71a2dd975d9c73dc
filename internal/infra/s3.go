package infra

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Vovarama1992/teetimes/internal/config"
	"github.com/Vovarama1992/teetimes/internal/ports"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type s3Storage struct {
	core   *minio.Core
	bucket string
	host   string
}

func NewS3Storage(ctx context.Context, cfg config.S3Settings) (ports.ObjectStorage, error) {
	core, err := minio.NewCore(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	exists, err := core.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	return &s3Storage{
		core:   core,
		bucket: cfg.Bucket,
		host:   publicHost(cfg),
	}, nil
}

func publicHost(cfg config.S3Settings) string {
	if cfg.CDNBaseURL != "" {
		return strings.TrimRight(cfg.CDNBaseURL, "/")
	}
	scheme := "https"
	if !cfg.Secure {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}

func (s *s3Storage) NewMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	uploadID, err := s.core.NewMultipartUpload(ctx, s.bucket, key, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"uploaded-at": time.Now().Format(time.RFC3339)},
	})
	if err != nil {
		return "", fmt.Errorf("create multipart upload: %w", err)
	}
	return uploadID, nil
}

// PresignPart signs a PUT for one part of an open multipart session.
func (s *s3Storage) PresignPart(ctx context.Context, key, uploadID string, partNumber int, expiry time.Duration) (string, error) {
	params := url.Values{}
	params.Set("partNumber", strconv.Itoa(partNumber))
	params.Set("uploadId", uploadID)

	u, err := s.core.Presign(ctx, "PUT", s.bucket, key, expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign part %d: %w", partNumber, err)
	}
	return u.String(), nil
}

func (s *s3Storage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []ports.CompletedPart) error {
	_, err := s.core.CompleteMultipartUpload(ctx, s.bucket, key, uploadID, toMinioParts(parts), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("complete multipart upload: %w", err)
	}
	return nil
}

func (s *s3Storage) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	if err := s.core.AbortMultipartUpload(ctx, s.bucket, key, uploadID); err != nil {
		return fmt.Errorf("abort multipart upload: %w", err)
	}
	return nil
}

// PutObject uploads a small object in one request and returns its public URL.
func (s *s3Storage) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.core.Client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"uploaded-at": time.Now().Format(time.RFC3339)},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	return buildPublicURL(s.host, key), nil
}

func (s *s3Storage) PublicBase() string {
	return s.host
}

// toMinioParts orders parts by number; S3 rejects unordered part lists.
func toMinioParts(parts []ports.CompletedPart) []minio.CompletePart {
	out := make([]minio.CompletePart, 0, len(parts))
	for _, p := range parts {
		out = append(out, minio.CompletePart{
			PartNumber: p.PartNumber,
			ETag:       strings.Trim(p.ETag, `"`),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })
	return out
}

func buildPublicURL(host, key string) string {
	segments := strings.Split(filepath.ToSlash(key), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s", host, strings.Join(segments, "/"))
}
