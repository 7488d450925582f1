package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	bucketsPerWindow = 10
	sweepThreshold   = 4096
)

type bucket struct {
	start time.Time
	hits  int
}

// window is a per-key ring of time buckets.
type window struct {
	buckets []bucket
}

// MemoryLimiter is a per-process sliding-window limiter. Each window is
// split into buckets; hits older than the window are pruned on access.
type MemoryLimiter struct {
	mu         sync.Mutex
	window     time.Duration
	bucketSize time.Duration
	max        int
	keys       map[string]*window
	now        func() time.Time
}

func NewMemoryLimiter(win time.Duration, limit int) (*MemoryLimiter, error) {
	if win <= 0 || limit <= 0 {
		return nil, fmt.Errorf("ratelimit: invalid limit %d per %s", limit, win)
	}
	size := win / bucketsPerWindow
	if size <= 0 {
		size = win
	}
	return &MemoryLimiter{
		window:     win,
		bucketSize: size,
		max:        limit,
		keys:       make(map[string]*window),
		now:        time.Now,
	}, nil
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	if key == "" {
		return Decision{}, errors.New("ratelimit: key is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.keys) >= sweepThreshold {
		l.sweepLocked(now)
	}
	w, ok := l.keys[key]
	if !ok {
		w = &window{}
		l.keys[key] = w
	}
	w.pruneLocked(now, l.window)

	used := w.sum()
	d := Decision{Limit: l.max, Window: l.window, ResetAfter: w.resetAfter(now, l.window)}
	if used >= l.max {
		d.Remaining = 0
		return d, nil
	}
	w.add(now.Truncate(l.bucketSize))
	d.Allowed = true
	d.Remaining = l.max - used - 1
	return d, nil
}

// sweepLocked drops keys with no hits left in the window.
// Caller must hold mu.
func (l *MemoryLimiter) sweepLocked(now time.Time) {
	for k, w := range l.keys {
		w.pruneLocked(now, l.window)
		if len(w.buckets) == 0 {
			delete(l.keys, k)
		}
	}
}

func (w *window) pruneLocked(now time.Time, win time.Duration) {
	cutoff := now.Add(-win)
	i := 0
	for i < len(w.buckets) && !w.buckets[i].start.After(cutoff) {
		i++
	}
	w.buckets = w.buckets[i:]
}

func (w *window) add(start time.Time) {
	if n := len(w.buckets); n > 0 && w.buckets[n-1].start.Equal(start) {
		w.buckets[n-1].hits++
		return
	}
	w.buckets = append(w.buckets, bucket{start: start, hits: 1})
}

func (w *window) sum() int {
	total := 0
	for _, b := range w.buckets {
		total += b.hits
	}
	return total
}

// resetAfter is the time until the oldest bucket leaves the window.
func (w *window) resetAfter(now time.Time, win time.Duration) time.Duration {
	if len(w.buckets) == 0 {
		return win
	}
	return w.buckets[0].start.Add(win).Sub(now)
}
