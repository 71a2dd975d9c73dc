package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Vovarama1992/teetimes/internal/notificator"
	"github.com/Vovarama1992/teetimes/internal/ports"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// ChunkSize is the fixed part size handed out to upload clients.
	ChunkSize int64 = 5 * 1024 * 1024
	// MaxParts is the S3 ceiling on parts per multipart upload.
	MaxParts = 10000

	assetPrefix = "assets"
)

var ErrInvalidUpload = errors.New("invalid upload")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type uploadService struct {
	storage  ports.ObjectStorage
	assets   ports.AssetRepo
	notifier notificator.Notificator
	expiry   time.Duration
	log      *zap.SugaredLogger
}

func NewUploadService(
	storage ports.ObjectStorage,
	assets ports.AssetRepo,
	notifier notificator.Notificator,
	expiry time.Duration,
	log *zap.SugaredLogger,
) ports.AssetService {
	return &uploadService{
		storage:  storage,
		assets:   assets,
		notifier: notifier,
		expiry:   expiry,
		log:      log,
	}
}

// PartCount returns ceil(size/chunk); an empty file still takes one part.
func PartCount(size, chunk int64) int {
	if size <= 0 {
		return 1
	}
	return int((size + chunk - 1) / chunk)
}

// ObjectKey builds assets/<id>/<clean name>.
func ObjectKey(id, fileName string) string {
	clean := unsafeChars.ReplaceAllString(filepath.Base(fileName), "_")
	clean = strings.Trim(clean, "._")
	if clean == "" {
		clean = "file"
	}
	return fmt.Sprintf("%s/%s/%s", assetPrefix, id, clean)
}

// assetIDFromKey returns the id segment of a key issued by ObjectKey.
func assetIDFromKey(key string) (string, bool) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[0] != assetPrefix || parts[2] == "" {
		return "", false
	}
	if _, err := uuid.Parse(parts[1]); err != nil {
		return "", false
	}
	return parts[1], true
}

func contentTypeOf(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func extensionOf(key string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(key)), ".")
}

func (s *uploadService) Presign(ctx context.Context, fileName string, size int64) (*ports.PresignedUpload, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidUpload)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size", ErrInvalidUpload)
	}
	if size > ChunkSize*MaxParts {
		return nil, fmt.Errorf("%w: %s exceeds the %s limit", ErrInvalidUpload,
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(ChunkSize*MaxParts)))
	}

	key := ObjectKey(uuid.NewString(), fileName)
	uploadID, err := s.storage.NewMultipartUpload(ctx, key, contentTypeOf(key))
	if err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("failed to open multipart upload for %s", key))
		return nil, fmt.Errorf("open upload: %w", err)
	}

	n := PartCount(size, ChunkSize)
	parts := make(map[int]string, n)
	for i := 1; i <= n; i++ {
		u, err := s.storage.PresignPart(ctx, key, uploadID, i, s.expiry)
		if err != nil {
			_ = s.storage.AbortMultipartUpload(ctx, key, uploadID)
			return nil, fmt.Errorf("presign: %w", err)
		}
		parts[i] = u
	}

	s.log.Infow("[upload] presigned",
		"key", key, "upload_id", uploadID, "size", humanize.IBytes(uint64(size)), "parts", n)

	return &ports.PresignedUpload{
		UploadID: uploadID,
		Key:      key,
		Parts:    parts,
	}, nil
}

func (s *uploadService) Complete(ctx context.Context, key, uploadID string, parts []ports.CompletedPart) (*ports.Asset, error) {
	id, ok := assetIDFromKey(key)
	if !ok {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidUpload, key)
	}
	if uploadID == "" {
		return nil, fmt.Errorf("%w: upload id is required", ErrInvalidUpload)
	}
	if err := validateParts(parts); err != nil {
		return nil, err
	}

	if err := s.storage.CompleteMultipartUpload(ctx, key, uploadID, parts); err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("failed to complete upload %s (%d parts)", key, len(parts)))
		return nil, fmt.Errorf("complete upload: %w", err)
	}

	asset := &ports.Asset{
		ID:        id,
		Key:       key,
		CDN:       s.storage.PublicBase(),
		Extension: extensionOf(key),
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("uploaded %s but failed to save asset row", key))
		return nil, fmt.Errorf("save asset: %w", err)
	}

	s.log.Infow("[upload] completed", "key", key, "asset_id", id, "parts", len(parts))
	return asset, nil
}

// Put stores a file of at most one chunk in a single request.
func (s *uploadService) Put(ctx context.Context, fileName string, r io.Reader, size int64) (*ports.Asset, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidUpload)
	}
	if size < 0 || size > ChunkSize {
		return nil, fmt.Errorf("%w: direct uploads are limited to %s", ErrInvalidUpload, humanize.IBytes(uint64(ChunkSize)))
	}

	id := uuid.NewString()
	key := ObjectKey(id, fileName)
	if _, err := s.storage.PutObject(ctx, key, r, size, contentTypeOf(key)); err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("direct upload of %s failed", key))
		return nil, fmt.Errorf("put object: %w", err)
	}

	asset := &ports.Asset{
		ID:        id,
		Key:       key,
		CDN:       s.storage.PublicBase(),
		Extension: extensionOf(key),
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("save asset: %w", err)
	}
	s.log.Infow("[upload] stored", "key", key, "size", humanize.IBytes(uint64(size)))
	return asset, nil
}

func (s *uploadService) Abort(ctx context.Context, key, uploadID string) error {
	if _, ok := assetIDFromKey(key); !ok || uploadID == "" {
		return fmt.Errorf("%w: key and upload id are required", ErrInvalidUpload)
	}
	if err := s.storage.AbortMultipartUpload(ctx, key, uploadID); err != nil {
		return fmt.Errorf("abort upload: %w", err)
	}
	s.log.Infow("[upload] aborted", "key", key, "upload_id", uploadID)
	return nil
}

func validateParts(parts []ports.CompletedPart) error {
	if len(parts) == 0 {
		return fmt.Errorf("%w: no parts", ErrInvalidUpload)
	}
	if len(parts) > MaxParts {
		return fmt.Errorf("%w: too many parts", ErrInvalidUpload)
	}
	seen := make(map[int]bool, len(parts))
	for _, p := range parts {
		if p.PartNumber < 1 || p.PartNumber > MaxParts {
			return fmt.Errorf("%w: part number %d out of range", ErrInvalidUpload, p.PartNumber)
		}
		if p.ETag == "" {
			return fmt.Errorf("%w: part %d has no ETag", ErrInvalidUpload, p.PartNumber)
		}
		if seen[p.PartNumber] {
			return fmt.Errorf("%w: duplicate part %d", ErrInvalidUpload, p.PartNumber)
		}
		seen[p.PartNumber] = true
	}
	return nil
}
