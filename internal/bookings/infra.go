package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Vovarama1992/teetimes/internal/payments"
	"github.com/lib/pq"
)

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

const bookingColumns = `id, reference, tee_time_id, customer_email, telegram_chat_id, players,
	amount, currency, status, payment_provider, payment_id, payment_method, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*Booking, error) {
	var (
		b         Booking
		chatID    sql.NullInt64
		provider  sql.NullString
		paymentID sql.NullString
		method    []byte
	)
	err := row.Scan(&b.ID, &b.Reference, &b.TeeTimeID, &b.CustomerEmail, &chatID, &b.Players,
		&b.Amount, &b.Currency, &b.Status, &provider, &paymentID, &method, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.TelegramChatID = chatID.Int64
	b.PaymentProvider = provider.String
	if paymentID.Valid {
		b.PaymentID = &paymentID.String
	}
	if len(method) > 0 {
		m, err := payments.UnmarshalMethod(method)
		if err != nil {
			return nil, fmt.Errorf("booking %d payment method: %w", b.ID, err)
		}
		b.PaymentMethod = m
	}
	return &b, nil
}

func (r *repo) Create(ctx context.Context, b *Booking) error {
	var chatID sql.NullInt64
	if b.TelegramChatID != 0 {
		chatID = sql.NullInt64{Int64: b.TelegramChatID, Valid: true}
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO bookings (reference, tee_time_id, customer_email, telegram_chat_id, players, amount, currency, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		b.Reference, b.TeeTimeID, b.CustomerEmail, chatID, b.Players, b.Amount, b.Currency, b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: reference %s", ErrDuplicate, b.Reference)
	}
	return err
}

func (r *repo) getBy(ctx context.Context, where string, arg any) (*Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (r *repo) Get(ctx context.Context, id int64) (*Booking, error) {
	return r.getBy(ctx, "id=$1", id)
}

func (r *repo) GetByReference(ctx context.Context, ref string) (*Booking, error) {
	return r.getBy(ctx, "reference=$1", ref)
}

func (r *repo) GetByPaymentID(ctx context.Context, paymentID string) (*Booking, error) {
	return r.getBy(ctx, "payment_id=$1", paymentID)
}

func (r *repo) List(ctx context.Context, status Status, limit int) ([]*Booking, error) {
	return r.query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2`,
		string(status), limit,
	)
}

func (r *repo) ListStale(ctx context.Context, status Status, before time.Time, limit int) ([]*Booking, error) {
	return r.query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE status = $1 AND created_at < $2
		 ORDER BY created_at ASC
		 LIMIT $3`,
		string(status), before, limit,
	)
}

func (r *repo) query(ctx context.Context, q string, args ...any) ([]*Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) SetPayment(ctx context.Context, id int64, provider, paymentID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings
		 SET payment_provider=$1, payment_id=$2, updated_at=NOW()
		 WHERE id=$3`,
		provider, paymentID, id,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: payment %s", ErrDuplicate, paymentID)
	}
	return err
}

func (r *repo) UpdateStatus(ctx context.Context, id int64, from, to Status, method payments.Method) (bool, error) {
	var raw sql.NullString
	if method != nil {
		b, err := payments.MarshalMethod(method)
		if err != nil {
			return false, err
		}
		raw = sql.NullString{String: string(b), Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings
		 SET status=$1, payment_method=COALESCE($2, payment_method), updated_at=NOW()
		 WHERE id=$3 AND status=$4`,
		to, raw, id, from,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}
