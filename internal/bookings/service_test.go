package bookings

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/Vovarama1992/teetimes/internal/courses"
	"github.com/Vovarama1992/teetimes/internal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	byID       map[int64]*Booking
	updates    int
	staleCalls int
}

func newMemRepo() *memRepo { return &memRepo{byID: map[int64]*Booking{}} }

func (m *memRepo) Create(ctx context.Context, b *Booking) error {
	b.ID = int64(len(m.byID) + 1)
	cp := *b
	m.byID[b.ID] = &cp
	return nil
}
func (m *memRepo) Get(ctx context.Context, id int64) (*Booking, error) {
	if b, ok := m.byID[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}
func (m *memRepo) GetByReference(ctx context.Context, ref string) (*Booking, error) {
	for _, b := range m.byID {
		if b.Reference == ref {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}
func (m *memRepo) GetByPaymentID(ctx context.Context, paymentID string) (*Booking, error) {
	for _, b := range m.byID {
		if b.PaymentID != nil && *b.PaymentID == paymentID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}
func (m *memRepo) List(ctx context.Context, status Status, limit int) ([]*Booking, error) {
	var out []*Booking
	for _, b := range m.byID {
		if status == "" || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}
func (m *memRepo) ListStale(ctx context.Context, status Status, before time.Time, limit int) ([]*Booking, error) {
	m.staleCalls++
	var out []*Booking
	for _, b := range m.byID {
		if b.Status == status && b.CreatedAt.Before(before) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
func (m *memRepo) SetPayment(ctx context.Context, id int64, provider, paymentID string) error {
	m.byID[id].PaymentProvider = provider
	m.byID[id].PaymentID = &paymentID
	return nil
}
func (m *memRepo) UpdateStatus(ctx context.Context, id int64, from, to Status, method payments.Method) (bool, error) {
	b := m.byID[id]
	if b.Status != from {
		return false, nil
	}
	m.updates++
	b.Status = to
	if method != nil {
		b.PaymentMethod = method
	}
	return true, nil
}

type fakeTeeTimes struct {
	tt       *courses.TeeTime
	reserved int
}

func (f *fakeTeeTimes) GetTeeTime(ctx context.Context, id int64) (*courses.TeeTime, error) {
	if f.tt == nil || f.tt.ID != id {
		return nil, courses.ErrNotFound
	}
	return f.tt, nil
}
func (f *fakeTeeTimes) Reserve(ctx context.Context, id int64, players int) error {
	if f.reserved+players > f.tt.Capacity {
		return courses.ErrNoCapacity
	}
	f.reserved += players
	return nil
}
func (f *fakeTeeTimes) Release(ctx context.Context, id int64, players int) error {
	f.reserved = max(f.reserved-players, 0)
	return nil
}

type fakeProvider struct {
	err   error
	calls int
	amt   int64
}

func (f *fakeProvider) CreateBookingPayment(ctx context.Context, ref string, amount int64, currency, email, desc string) (string, string, error) {
	f.calls++
	f.amt = amount
	if f.err != nil {
		return "", "", f.err
	}
	return "https://pay.test/" + ref, "pay_" + ref, nil
}

type fakeNotifier struct {
	admin []string
	user  []string
}

func (f *fakeNotifier) Notify(ctx context.Context, err error, details string) error {
	f.admin = append(f.admin, details)
	return nil
}
func (f *fakeNotifier) UserNotify(ctx context.Context, chatID int64, text string) error {
	if chatID != 0 {
		f.user = append(f.user, text)
	}
	return nil
}

type fixture struct {
	svc      Service
	repo     *memRepo
	tee      *fakeTeeTimes
	provider *fakeProvider
	notifier *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		repo: newMemRepo(),
		tee: &fakeTeeTimes{tt: &courses.TeeTime{
			ID: 10, CourseID: 1, StartsAt: time.Now().Add(48 * time.Hour),
			Price: 4500, Currency: "USD", Capacity: 4,
		}},
		provider: &fakeProvider{},
		notifier: &fakeNotifier{},
	}
	f.svc = NewService(f.repo, f.tee, f.provider, "hyperswitch", f.notifier, zap.NewNop().Sugar())
	return f
}

func (f *fixture) create(t *testing.T, players int) *Booking {
	t.Helper()
	b, _, err := f.svc.Create(context.Background(), CreateRequest{
		TeeTimeID: 10, CustomerEmail: "golfer@example.com", Players: players, TelegramChatID: 555,
	})
	require.NoError(t, err)
	return b
}

func TestCreate(t *testing.T) {
	f := newFixture()

	b, payURL, err := f.svc.Create(context.Background(), CreateRequest{
		TeeTimeID: 10, CustomerEmail: " golfer@example.com ", Players: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, b.Status)
	assert.EqualValues(t, 13500, b.Amount)
	assert.EqualValues(t, 13500, f.provider.amt)
	assert.Equal(t, "https://pay.test/"+b.Reference, payURL)
	require.NotNil(t, b.PaymentID)
	assert.Equal(t, "pay_"+b.Reference, *b.PaymentID)
	assert.Equal(t, 3, f.tee.reserved)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []CreateRequest{
		{TeeTimeID: 10, CustomerEmail: "golfer@example.com", Players: 0},
		{TeeTimeID: 10, CustomerEmail: "golfer@example.com", Players: 5},
		{TeeTimeID: 10, CustomerEmail: "not-an-email", Players: 1},
		{CustomerEmail: "golfer@example.com", Players: 1},
	}
	for _, req := range cases {
		_, _, err := f.svc.Create(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Zero(t, f.provider.calls)
}

func TestCreate_NoCapacityAndPastTeeTime(t *testing.T) {
	f := newFixture()
	f.create(t, 3)

	_, _, err := f.svc.Create(context.Background(), CreateRequest{TeeTimeID: 10, CustomerEmail: "b@example.com", Players: 2})
	assert.ErrorIs(t, err, courses.ErrNoCapacity)

	f.tee.tt.StartsAt = time.Now().Add(-time.Minute)
	_, _, err = f.svc.Create(context.Background(), CreateRequest{TeeTimeID: 10, CustomerEmail: "b@example.com", Players: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreate_CheckoutFailureReleasesSpots(t *testing.T) {
	f := newFixture()
	f.provider.err = errors.New("503")

	_, _, err := f.svc.Create(context.Background(), CreateRequest{TeeTimeID: 10, CustomerEmail: "b@example.com", Players: 2})
	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.Zero(t, f.tee.reserved)
	assert.Len(t, f.notifier.admin, 1)
	assert.Equal(t, StatusCancelled, f.repo.byID[1].Status)
}

func TestCancel(t *testing.T) {
	f := newFixture()
	b := f.create(t, 2)

	got, err := f.svc.Cancel(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Zero(t, f.tee.reserved)

	_, err = f.svc.Cancel(context.Background(), b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Cancel(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel_PaymentFailedReleasesSpots(t *testing.T) {
	f := newFixture()
	b := f.create(t, 3)
	ctx := context.Background()

	_, err := f.svc.ApplyPaymentEvent(ctx, &payments.Event{Kind: payments.KindFailed, BookingID: b.Reference})
	require.NoError(t, err)
	require.Equal(t, 3, f.tee.reserved)

	got, err := f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Zero(t, f.tee.reserved)
}

func TestApplyPaymentEvent_SucceededIsIdempotent(t *testing.T) {
	f := newFixture()
	b := f.create(t, 2)
	ctx := context.Background()

	evt := &payments.Event{
		ID: "evt_1", Provider: payments.ProviderHyperswitch, Kind: payments.KindSucceeded,
		PaymentID: *b.PaymentID, BookingID: b.Reference, Amount: b.Amount, Currency: "USD",
		Method: payments.CardMethod{Brand: "visa", Last4: "4242", ExpMonth: 1, ExpYear: 2030},
	}

	got, err := f.svc.ApplyPaymentEvent(ctx, evt)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
	assert.Equal(t, evt.Method, f.repo.byID[b.ID].PaymentMethod)
	assert.Len(t, f.notifier.user, 1)

	got, err = f.svc.ApplyPaymentEvent(ctx, evt)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
	assert.Equal(t, 1, f.repo.updates)
	assert.Len(t, f.notifier.user, 1)
}

func TestApplyPaymentEvent_LookupByPaymentID(t *testing.T) {
	f := newFixture()
	b := f.create(t, 1)

	got, err := f.svc.ApplyPaymentEvent(context.Background(), &payments.Event{
		ID: "evt_2", Provider: payments.ProviderStripe, Kind: payments.KindFailed, PaymentID: *b.PaymentID,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentFailed, got.Status)
	assert.Equal(t, 1, f.tee.reserved)
}

func TestApplyPaymentEvent_RefundReleasesSpots(t *testing.T) {
	f := newFixture()
	b := f.create(t, 2)
	ctx := context.Background()

	_, err := f.svc.ApplyPaymentEvent(ctx, &payments.Event{Kind: payments.KindSucceeded, BookingID: b.Reference})
	require.NoError(t, err)

	got, err := f.svc.ApplyPaymentEvent(ctx, &payments.Event{Kind: payments.KindRefunded, PaymentID: *b.PaymentID})
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, got.Status)
	assert.Zero(t, f.tee.reserved)

	// A late failure for the same payment does not reopen the booking.
	got, err = f.svc.ApplyPaymentEvent(ctx, &payments.Event{Kind: payments.KindFailed, BookingID: b.Reference})
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, got.Status)
}

func TestApplyPaymentEvent_AmountMismatchNotifiesAdmins(t *testing.T) {
	f := newFixture()
	b := f.create(t, 1)

	_, err := f.svc.ApplyPaymentEvent(context.Background(), &payments.Event{
		Kind: payments.KindSucceeded, BookingID: b.Reference, Amount: 1, Currency: "USD",
	})
	require.NoError(t, err)
	assert.Len(t, f.notifier.admin, 1)
}

func TestApplyPaymentEvent_SuccessAfterCancelNotifiesAdmins(t *testing.T) {
	f := newFixture()
	b := f.create(t, 2)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)

	got, err := f.svc.ApplyPaymentEvent(ctx, &payments.Event{
		ID: "evt_late", Provider: payments.ProviderHyperswitch, Kind: payments.KindSucceeded,
		PaymentID: *b.PaymentID, Amount: 9000, Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Zero(t, f.tee.reserved)
	require.Len(t, f.notifier.admin, 1)
	assert.Contains(t, f.notifier.admin[0], b.Reference)
	assert.Contains(t, f.notifier.admin[0], "90.00 USD")
	assert.Empty(t, f.notifier.user)

	// A late failure for the cancelled booking stays quiet.
	_, err = f.svc.ApplyPaymentEvent(ctx, &payments.Event{Kind: payments.KindFailed, BookingID: b.Reference})
	require.NoError(t, err)
	assert.Len(t, f.notifier.admin, 1)
}

func TestApplyPaymentEvent_UnknownBookingAndIgnored(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.ApplyPaymentEvent(ctx, &payments.Event{Kind: payments.KindSucceeded, PaymentID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.svc.ApplyPaymentEvent(ctx, &payments.Event{Kind: payments.KindIgnored})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExpirePending(t *testing.T) {
	f := newFixture()
	stale := f.create(t, 2)
	fresh := f.create(t, 1)
	paid := f.create(t, 1)

	f.repo.byID[stale.ID].CreatedAt = time.Now().Add(-time.Hour)
	f.repo.byID[fresh.ID].CreatedAt = time.Now()
	f.repo.byID[paid.ID].CreatedAt = time.Now().Add(-time.Hour)
	f.repo.byID[paid.ID].Status = StatusPaid

	n, err := f.svc.ExpirePending(context.Background(), 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, StatusCancelled, f.repo.byID[stale.ID].Status)
	assert.Equal(t, StatusPending, f.repo.byID[fresh.ID].Status)
	assert.Equal(t, StatusPaid, f.repo.byID[paid.ID].Status)
	assert.Equal(t, 2, f.tee.reserved)
}

func TestExpirePending_ReleasesFailedPayments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.create(t, 4)

	_, err := f.svc.ApplyPaymentEvent(ctx, &payments.Event{Kind: payments.KindFailed, BookingID: b.Reference})
	require.NoError(t, err)
	f.repo.byID[b.ID].CreatedAt = time.Now().Add(-24 * time.Hour)
	require.Equal(t, 4, f.tee.reserved)

	n, err := f.svc.ExpirePending(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, StatusCancelled, f.repo.byID[b.ID].Status)
	assert.Zero(t, f.tee.reserved)

	// The spots are bookable again.
	f.create(t, 4)
}

func TestExpirePending_DrainsInBatches(t *testing.T) {
	f := newFixture()
	f.tee.tt.Capacity = 10
	f.svc.(*service).batch = 2
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := range 5 {
		b := f.create(t, 1)
		f.repo.byID[b.ID].CreatedAt = base.Add(time.Duration(i) * time.Minute)
	}
	fresh := f.create(t, 1)
	f.repo.byID[fresh.ID].CreatedAt = time.Now()

	n, err := f.svc.ExpirePending(ctx, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 1, f.tee.reserved)
	assert.Equal(t, StatusPending, f.repo.byID[fresh.ID].Status)
	// pending: three batches (2, 2, 1); payment_failed: one empty batch.
	assert.Equal(t, 4, f.repo.staleCalls)
}
