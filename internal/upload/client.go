package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vovarama1992/teetimes/internal/ports"
	"github.com/goccy/go-json"
)

// Client talks to the /admin/uploads endpoints of a running API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

type presignRequest struct {
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}

type completeRequest struct {
	Key      string                `json:"s3Key"`
	UploadID string                `json:"uploadId"`
	Parts    []ports.CompletedPart `json:"parts"`
}

type abortRequest struct {
	Key      string `json:"s3Key"`
	UploadID string `json:"uploadId"`
}

func (c *Client) Presign(ctx context.Context, fileName string, size int64) (*ports.PresignedUpload, error) {
	var out ports.PresignedUpload
	if err := c.post(ctx, "/admin/uploads/presign", presignRequest{FileName: fileName, Size: size}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Complete(ctx context.Context, key, uploadID string, parts []ports.CompletedPart) (*ports.Asset, error) {
	var out ports.Asset
	if err := c.post(ctx, "/admin/uploads/complete", completeRequest{Key: key, UploadID: uploadID, Parts: parts}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Abort(ctx context.Context, key, uploadID string) error {
	return c.post(ctx, "/admin/uploads/abort", abortRequest{Key: key, UploadID: uploadID}, nil)
}

// Login exchanges the admin password for a bearer token and keeps it for
// later calls.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/auth/login", map[string]string{"password": password}, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("/auth/login: empty token")
	}
	c.token = out.Token
	return out.Token, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: status=%d body=%s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

var _ ports.UploadService = (*Client)(nil)
