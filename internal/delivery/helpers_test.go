package delivery

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/teetimes/internal/bookings"
	"github.com/Vovarama1992/teetimes/internal/domain"
	"github.com/Vovarama1992/teetimes/internal/payments"
	"github.com/Vovarama1992/teetimes/internal/ports"
	"go.uber.org/zap"
)

func nopLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

type fakeNotifier struct {
	mu      sync.Mutex
	details []string
}

func (f *fakeNotifier) Notify(ctx context.Context, err error, details string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details = append(f.details, details)
	return nil
}

func (f *fakeNotifier) UserNotify(ctx context.Context, chatID int64, text string) error {
	return nil
}

type fakeProcessor struct {
	provider payments.Provider
	evt      *payments.Event
	err      error
	body     []byte
}

func (f *fakeProcessor) Provider() payments.Provider { return f.provider }

func (f *fakeProcessor) Parse(header http.Header, body []byte) (*payments.Event, error) {
	f.body = body
	return f.evt, f.err
}

type fakeApplier struct {
	applied []*payments.Event
	err     error
}

func (f *fakeApplier) ApplyPaymentEvent(ctx context.Context, evt *payments.Event) (*bookings.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.applied = append(f.applied, evt)
	return &bookings.Booking{Reference: evt.BookingID}, nil
}

type syncCall struct {
	ref   string
	delta int
}

type fakeSyncer struct {
	calls []syncCall
}

func (f *fakeSyncer) ApplyProviderEvent(ctx context.Context, providerRef string, delta int) error {
	f.calls = append(f.calls, syncCall{providerRef, delta})
	return nil
}

type fakeAuth struct{}

func (fakeAuth) Login(ctx context.Context, password string) (string, error) {
	switch password {
	case "secret":
		return "good-token", nil
	case "boom":
		return "", errors.New("db down")
	default:
		return "", domain.ErrInvalidPassword
	}
}

func (fakeAuth) ValidateToken(ctx context.Context, token string) (bool, error) {
	return token == "good-token", nil
}

type fakeAssets struct {
	presignErr error
	putName    string
	putBody    []byte
}

func (f *fakeAssets) Presign(ctx context.Context, fileName string, size int64) (*ports.PresignedUpload, error) {
	if f.presignErr != nil {
		return nil, f.presignErr
	}
	return &ports.PresignedUpload{
		UploadID: "u-1",
		Key:      "assets/id/" + fileName,
		Parts:    map[int]string{1: "https://s3.test/part1"},
	}, nil
}

func (f *fakeAssets) Complete(ctx context.Context, key, uploadID string, parts []ports.CompletedPart) (*ports.Asset, error) {
	return &ports.Asset{ID: "id", Key: key}, nil
}

func (f *fakeAssets) Abort(ctx context.Context, key, uploadID string) error {
	return nil
}

func (f *fakeAssets) Put(ctx context.Context, fileName string, r io.Reader, size int64) (*ports.Asset, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.putName, f.putBody = fileName, body
	return &ports.Asset{ID: "id", Key: "assets/id/" + fileName}, nil
}
