// Package ratelimit gates the chat endpoints per caller.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Window     time.Duration
	ResetAfter time.Duration
}

// Limiter decides whether a caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// CounterStore is a shared fixed-window counter.
// *repository.Client satisfies this interface.
type CounterStore interface {
	IncrementWindow(ctx context.Context, key string, windowStart time.Time, ttl time.Duration) (int, error)
}

// StoreLimiter counts hits in fixed windows kept in a CounterStore, so the
// limit holds across processes.
type StoreLimiter struct {
	store  CounterStore
	window time.Duration
	max    int
	now    func() time.Time
}

func NewStoreLimiter(store CounterStore, window time.Duration, limit int) (*StoreLimiter, error) {
	if store == nil {
		return nil, errors.New("ratelimit: store must not be nil")
	}
	if window <= 0 || limit <= 0 {
		return nil, fmt.Errorf("ratelimit: invalid limit %d per %s", limit, window)
	}
	return &StoreLimiter{store: store, window: window, max: limit, now: time.Now}, nil
}

func (l *StoreLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	start := now.Truncate(l.window)
	hits, err := l.store.IncrementWindow(ctx, key, start, 2*l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: increment: %w", err)
	}
	return Decision{
		Allowed:    hits <= l.max,
		Limit:      l.max,
		Remaining:  max(l.max-hits, 0),
		Window:     l.window,
		ResetAfter: start.Add(l.window).Sub(now),
	}, nil
}
