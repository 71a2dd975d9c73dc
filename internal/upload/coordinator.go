package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Vovarama1992/teetimes/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxConcurrency = 8

// Result is the outcome of uploading every part of a plan.
// Completed is ordered by part number.
type Result struct {
	Completed []ports.CompletedPart
	Invalid   []PartError
}

// Progress is reported once per finished part, successful or not.
type Progress struct {
	PartNumber int
	Bytes      int64
	Err        error
	Done       int
	Total      int
}

type Coordinator struct {
	api         ports.UploadService
	parts       PartUploader
	chunk       int64
	concurrency int
	onProgress  func(Progress)
	log         *zap.SugaredLogger
}

type Option func(*Coordinator)

func WithPartUploader(p PartUploader) Option {
	return func(c *Coordinator) { c.parts = p }
}

func WithChunkSize(n int64) Option {
	return func(c *Coordinator) { c.chunk = n }
}

// WithConcurrency caps in-flight PUTs. Zero means min(parts, 8).
func WithConcurrency(n int) Option {
	return func(c *Coordinator) { c.concurrency = n }
}

func WithProgress(fn func(Progress)) Option {
	return func(c *Coordinator) { c.onProgress = fn }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Coordinator) { c.log = log }
}

func NewCoordinator(api ports.UploadService, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:   api,
		parts: NewHTTPPartUploader(5 * time.Minute),
		chunk: DefaultChunkSize,
		log:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload runs presign, uploads every part and then either completes the
// upload or aborts it. Any failed part yields a *Error and complete is
// not called.
func (c *Coordinator) Upload(ctx context.Context, fileName string, src io.ReaderAt, size int64) (*ports.Asset, error) {
	presigned, err := c.api.Presign(ctx, fileName, size)
	if err != nil {
		return nil, fmt.Errorf("presign: %w", err)
	}

	plan := Plan(size, c.chunk)
	if len(plan) != len(presigned.Parts) {
		c.abort(ctx, presigned)
		return nil, fmt.Errorf("presign returned %d urls for %d parts", len(presigned.Parts), len(plan))
	}

	res := c.UploadParts(ctx, src, plan, presigned.Parts)
	if len(res.Invalid) > 0 {
		c.abort(ctx, presigned)
		return nil, &Error{Key: presigned.Key, UploadID: presigned.UploadID, Parts: res.Invalid}
	}

	asset, err := c.api.Complete(ctx, presigned.Key, presigned.UploadID, res.Completed)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	return asset, nil
}

// UploadParts PUTs every part of plan to urls[part.Number] and waits for
// all of them. A failed part is recorded in Invalid; its siblings keep
// going.
func (c *Coordinator) UploadParts(ctx context.Context, src io.ReaderAt, plan []Part, urls map[int]string) Result {
	etags := make([]string, len(plan))
	errs := make([]error, len(plan))

	limit := c.concurrency
	if limit <= 0 {
		limit = min(len(plan), maxConcurrency)
	}

	var (
		mu   sync.Mutex
		done int
	)
	report := func(p Part, err error) {
		if c.onProgress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		c.onProgress(Progress{PartNumber: p.Number, Bytes: p.Length, Err: err, Done: done, Total: len(plan)})
	}

	var g errgroup.Group
	g.SetLimit(max(limit, 1))
	for i, p := range plan {
		g.Go(func() error {
			etag, err := c.putPart(ctx, src, p, urls)
			etags[i], errs[i] = etag, err
			report(p, err)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for i, p := range plan {
		if errs[i] != nil {
			c.log.Warnw("[upload] part failed", "part", p.Number, "error", errs[i])
			res.Invalid = append(res.Invalid, PartError{PartNumber: p.Number, Err: errs[i]})
			continue
		}
		res.Completed = append(res.Completed, ports.CompletedPart{ETag: etags[i], PartNumber: i + 1})
	}
	return res
}

func (c *Coordinator) putPart(ctx context.Context, src io.ReaderAt, p Part, urls map[int]string) (string, error) {
	url, ok := urls[p.Number]
	if !ok || url == "" {
		return "", errors.New("no presigned url")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return c.parts.PutPart(ctx, url, io.NewSectionReader(src, p.Offset, p.Length), p.Length)
}

func (c *Coordinator) abort(ctx context.Context, presigned *ports.PresignedUpload) {
	// A cancelled ctx must not prevent cleanup.
	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := c.api.Abort(abortCtx, presigned.Key, presigned.UploadID); err != nil {
		c.log.Warnw("[upload] abort failed", "key", presigned.Key, "upload_id", presigned.UploadID, "error", err)
	}
}
