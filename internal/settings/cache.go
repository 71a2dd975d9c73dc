package settings

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,63}$`)

// Cache serves app settings from memory and reloads them from postgres
// once the TTL has passed.
type Cache struct {
	repo   Repo
	ttl    time.Duration
	now    func() time.Time
	log    *zap.SugaredLogger
	group  singleflight.Group
	mu     sync.RWMutex
	values map[string]string
	loaded time.Time
}

func NewCache(repo Repo, ttl time.Duration, log *zap.SugaredLogger) *Cache {
	return &Cache{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		log:  log,
	}
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	values, err := c.snapshot(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// GetOr returns fallback when the key is unset or settings cannot be read.
func (c *Cache) GetOr(ctx context.Context, key, fallback string) string {
	v, ok, err := c.Get(ctx, key)
	if err != nil {
		c.log.Warnw("[settings] read failed, using fallback", "key", key, "error", err)
		return fallback
	}
	if !ok {
		return fallback
	}
	return v
}

func (c *Cache) All(ctx context.Context) (map[string]string, error) {
	values, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return maps.Clone(values), nil
}

// Set writes through to postgres and drops the cached copy.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if err := c.repo.Upsert(ctx, key, value); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	c.Invalidate()
	return nil
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.values = nil
	c.mu.Unlock()
}

func (c *Cache) snapshot(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	values, loaded := c.values, c.loaded
	c.mu.RUnlock()
	if values != nil && c.now().Sub(loaded) < c.ttl {
		return values, nil
	}

	v, err, _ := c.group.Do("all", func() (any, error) {
		fresh, err := c.repo.All(ctx)
		if err != nil {
			return nil, err
		}
		if fresh == nil {
			fresh = map[string]string{}
		}
		c.mu.Lock()
		c.values, c.loaded = fresh, c.now()
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return v.(map[string]string), nil
}
