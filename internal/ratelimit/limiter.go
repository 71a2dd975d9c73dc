package ratelimit

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

const (
	DefaultRequests = 100
	DefaultWindow   = time.Second
	DefaultTimeout  = time.Second
)

type Result struct {
	Success   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter is a sliding-window limiter: the previous window's count is
// weighted by how much of the current window is still ahead.
type Limiter struct {
	counter httprate.LimitCounter
	limit   int
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
	log     *zap.SugaredLogger
	locks   keyLocks
}

func NewLimiter(counter httprate.LimitCounter, limit int, window, timeout time.Duration, log *zap.SugaredLogger) *Limiter {
	if limit <= 0 {
		limit = DefaultRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if counter == nil {
		counter = httprate.NewLocalLimitCounter(window)
	}
	counter.Config(limit, window)

	return &Limiter{
		counter: counter,
		limit:   limit,
		window:  window,
		timeout: timeout,
		now:     time.Now,
		log:     log,
		locks:   keyLocks{held: map[string]*keyLock{}},
	}
}

// Limit counts one request for identifier. When the counter does not
// answer within the timeout the request is let through.
func (l *Limiter) Limit(ctx context.Context, identifier string) (Result, error) {
	now := l.now().UTC()
	currentWindow := now.Truncate(l.window)
	open := Result{Success: true, Limit: l.limit, Remaining: l.limit, Reset: currentWindow.Add(l.window)}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := l.check(identifier, now, currentWindow)
		done <- outcome{res, err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			l.log.Warnw("[ratelimit] counter timed out, admitting request",
				"identifier", identifier, "timeout", l.timeout)
			return open, nil
		}
		return open, ctx.Err()
	}
}

func (l *Limiter) check(identifier string, now, currentWindow time.Time) (Result, error) {
	previousWindow := currentWindow.Add(-l.window)
	res := Result{Limit: l.limit, Reset: currentWindow.Add(l.window)}

	// Get and Increment must not interleave for one identifier. Other
	// identifiers go through untouched.
	unlock := l.locks.lock(identifier)
	defer unlock()

	curr, prev, err := l.counter.Get(identifier, currentWindow, previousWindow)
	if err != nil {
		return Result{Success: true, Limit: l.limit, Remaining: l.limit, Reset: res.Reset}, err
	}

	rate := int(math.Round(slidingRate(curr, prev, now.Sub(currentWindow), l.window)))
	if rate+1 > l.limit {
		res.Remaining = max(l.limit-rate, 0)
		return res, nil
	}

	if err := l.counter.Increment(identifier, currentWindow); err != nil {
		return Result{Success: true, Limit: l.limit, Remaining: l.limit, Reset: res.Reset}, err
	}

	res.Success = true
	res.Remaining = l.limit - rate - 1
	return res, nil
}

func slidingRate(curr, prev int, elapsed, window time.Duration) float64 {
	return float64(prev)*(float64(window)-float64(elapsed))/float64(window) + float64(curr)
}

type keyLock struct {
	sync.Mutex
	refs int
}

// keyLocks hands out one mutex per key and forgets it once nobody holds or
// waits on it.
type keyLocks struct {
	mu   sync.Mutex
	held map[string]*keyLock
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	kl, ok := k.held[key]
	if !ok {
		kl = &keyLock{}
		k.held[key] = kl
	}
	kl.refs++
	k.mu.Unlock()

	kl.Lock()
	return func() {
		kl.Unlock()
		k.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(k.held, key)
		}
		k.mu.Unlock()
	}
}
