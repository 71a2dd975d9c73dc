package settings

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRepo struct {
	values map[string]string
	loads  int
	err    error
}

func (r *countingRepo) All(ctx context.Context) (map[string]string, error) {
	r.loads++
	if r.err != nil {
		return nil, r.err
	}
	out := map[string]string{}
	for k, v := range r.values {
		out[k] = v
	}
	return out, nil
}

func (r *countingRepo) Upsert(ctx context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func TestCache_TTL(t *testing.T) {
	repo := &countingRepo{values: map[string]string{"booking.max_players": "4"}}
	c := NewCache(repo, time.Minute, zap.NewNop().Sugar())
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	v, ok, err := c.Get(ctx, "booking.max_players")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "4", v)

	_, _, _ = c.Get(ctx, "booking.max_players")
	assert.Equal(t, 1, repo.loads)

	now = now.Add(2 * time.Minute)
	_, _, _ = c.Get(ctx, "booking.max_players")
	assert.Equal(t, 2, repo.loads)
}

func TestCache_SetInvalidates(t *testing.T) {
	repo := &countingRepo{values: map[string]string{}}
	c := NewCache(repo, time.Hour, zap.NewNop().Sugar())
	ctx := context.Background()

	assert.Equal(t, "fallback", c.GetOr(ctx, "support.email", "fallback"))

	require.NoError(t, c.Set(ctx, "support.email", "help@teetimes.test"))
	assert.Equal(t, "help@teetimes.test", c.GetOr(ctx, "support.email", "fallback"))
	assert.Equal(t, 2, repo.loads)

	assert.ErrorIs(t, c.Set(ctx, "Bad Key!", "x"), ErrInvalidKey)
}

func TestCache_AllReturnsCopy(t *testing.T) {
	repo := &countingRepo{values: map[string]string{"a": "1"}}
	c := NewCache(repo, time.Hour, zap.NewNop().Sugar())

	all, err := c.All(context.Background())
	require.NoError(t, err)
	all["a"] = "changed"

	v, _, _ := c.Get(context.Background(), "a")
	assert.Equal(t, "1", v)
}

func TestCache_LoadError(t *testing.T) {
	repo := &countingRepo{err: errors.New("db down")}
	c := NewCache(repo, time.Hour, zap.NewNop().Sugar())

	_, _, err := c.Get(context.Background(), "a")
	assert.Error(t, err)
	assert.Equal(t, "x", c.GetOr(context.Background(), "a", "x"))
}

func TestRepo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key, value FROM app_settings`)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("a", "1").AddRow("b", "2"))
	all, err := r.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, all)

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (key) DO UPDATE`)).
		WithArgs("a", "3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.Upsert(context.Background(), "a", "3"))

	require.NoError(t, mock.ExpectationsWereMet())
}
