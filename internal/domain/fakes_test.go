package domain

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Vovarama1992/teetimes/internal/ports"
)

type fakeStorage struct {
	mu        sync.Mutex
	nextID    int
	opened    []string
	completed map[string][]ports.CompletedPart
	aborted   []string
	failOpen  error
	failSign  error
	failDone  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{completed: map[string][]ports.CompletedPart{}}
}

func (f *fakeStorage) NewMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOpen != nil {
		return "", f.failOpen
	}
	f.nextID++
	f.opened = append(f.opened, key)
	return fmt.Sprintf("upload-%d", f.nextID), nil
}

func (f *fakeStorage) PresignPart(ctx context.Context, key, uploadID string, partNumber int, expiry time.Duration) (string, error) {
	if f.failSign != nil {
		return "", f.failSign
	}
	return fmt.Sprintf("https://s3.test/%s?uploadId=%s&partNumber=%d", key, uploadID, partNumber), nil
}

func (f *fakeStorage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []ports.CompletedPart) error {
	if f.failDone != nil {
		return f.failDone
	}
	f.completed[uploadID] = parts
	return nil
}

func (f *fakeStorage) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	f.aborted = append(f.aborted, uploadID)
	return nil
}

func (f *fakeStorage) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (f *fakeStorage) PublicBase() string { return "https://cdn.test" }

type fakeAssets struct {
	rows map[string]*ports.Asset
	err  error
}

func (f *fakeAssets) Create(ctx context.Context, a *ports.Asset) error {
	if f.err != nil {
		return f.err
	}
	if f.rows == nil {
		f.rows = map[string]*ports.Asset{}
	}
	a.CreatedAt = time.Now()
	f.rows[a.ID] = a
	return nil
}

func (f *fakeAssets) Get(ctx context.Context, id string) (*ports.Asset, error) {
	return f.rows[id], nil
}

func (f *fakeAssets) Delete(ctx context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

type fakeNotifier struct {
	notified []string
}

func (f *fakeNotifier) Notify(ctx context.Context, err error, details string) error {
	f.notified = append(f.notified, details)
	return nil
}

func (f *fakeNotifier) UserNotify(ctx context.Context, chatID int64, text string) error {
	return nil
}

type fakeAuthRepo struct {
	hash string
	err  error
}

func (f fakeAuthRepo) GetPasswordHash(ctx context.Context) (string, error) {
	return f.hash, f.err
}
