package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PartUploader sends one part body to its presigned URL and returns the ETag.
type PartUploader interface {
	PutPart(ctx context.Context, url string, body io.Reader, length int64) (string, error)
}

type httpPartUploader struct {
	client *http.Client
}

func NewHTTPPartUploader(timeout time.Duration) PartUploader {
	return &httpPartUploader{client: &http.Client{Timeout: timeout}}
}

func (u *httpPartUploader) PutPart(ctx context.Context, url string, body io.Reader, length int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return "", err
	}
	req.ContentLength = length

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	etag := resp.Header.Get("ETag")
	if etag == "" {
		return "", fmt.Errorf("response has no ETag header")
	}
	return etag, nil
}
