package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

// RedisCounter keeps per-window counters in Redis so every API instance
// shares one budget per identifier.
type RedisCounter struct {
	client  redis.UniversalClient
	window  time.Duration
	timeout time.Duration
}

var _ httprate.LimitCounter = (*RedisCounter)(nil)

func NewRedisCounter(client redis.UniversalClient, timeout time.Duration) *RedisCounter {
	return &RedisCounter{
		client:  client,
		window:  DefaultWindow,
		timeout: timeout,
	}
}

// Dial parses a redis:// URL and checks the server answers.
func Dial(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (c *RedisCounter) Config(requestLimit int, windowLength time.Duration) {
	c.window = windowLength
}

func (c *RedisCounter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

func (c *RedisCounter) IncrementBy(key string, currentWindow time.Time, amount int) error {
	ctx, cancel := c.ctx()
	defer cancel()

	k := windowKey(key, currentWindow)
	pipe := c.client.TxPipeline()
	pipe.IncrBy(ctx, k, int64(amount))
	pipe.Expire(ctx, k, 3*c.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	return nil
}

func (c *RedisCounter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	ctx, cancel := c.ctx()
	defer cancel()

	vals, err := c.client.MGet(ctx, windowKey(key, currentWindow), windowKey(key, previousWindow)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis mget: %w", err)
	}

	curr, err := toCount(vals[0])
	if err != nil {
		return 0, 0, err
	}
	prev, err := toCount(vals[1])
	if err != nil {
		return 0, 0, err
	}
	return curr, prev, nil
}

func (c *RedisCounter) ctx() (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), c.timeout)
}

func windowKey(key string, window time.Time) string {
	return key + ":" + strconv.FormatInt(window.UnixMilli(), 10)
}

func toCount(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return 0, fmt.Errorf("bad counter value %q: %w", x, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected counter type %T", v)
	}
}
