package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
}

func TestMemoryLimiter_AllowsUpToMax(t *testing.T) {
	clock := newClock()
	l, err := NewMemoryLimiter(time.Minute, 3)
	require.NoError(t, err)
	l.now = clock.Now

	for i := 0; i < 3; i++ {
		d, err := l.Allow(context.Background(), "1.2.3.4")
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 2-i, d.Remaining)
		require.Equal(t, 3, d.Limit)
	}
	d, err := l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
	require.Equal(t, time.Minute, d.ResetAfter)

	d, err = l.Allow(context.Background(), "5.6.7.8")
	require.NoError(t, err)
	require.True(t, d.Allowed, "keys are independent")
}

func TestMemoryLimiter_SlidesOldHitsOut(t *testing.T) {
	clock := newClock()
	l, err := NewMemoryLimiter(time.Minute, 2)
	require.NoError(t, err)
	l.now = clock.Now

	_, _ = l.Allow(context.Background(), "k")
	clock.Advance(30 * time.Second)
	_, _ = l.Allow(context.Background(), "k")

	d, _ := l.Allow(context.Background(), "k")
	require.False(t, d.Allowed)
	require.Equal(t, 30*time.Second, d.ResetAfter)

	clock.Advance(31 * time.Second)
	d, _ = l.Allow(context.Background(), "k")
	require.True(t, d.Allowed)
	require.Zero(t, d.Remaining)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	clock := newClock()
	l, err := NewMemoryLimiter(time.Minute, 1)
	require.NoError(t, err)
	l.now = clock.Now

	_, _ = l.Allow(context.Background(), "a")
	clock.Advance(2 * time.Minute)
	l.mu.Lock()
	l.sweepLocked(clock.Now())
	n := len(l.keys)
	l.mu.Unlock()
	require.Zero(t, n)
}

func TestMemoryLimiter_Validation(t *testing.T) {
	_, err := NewMemoryLimiter(0, 1)
	require.Error(t, err)
	_, err = NewMemoryLimiter(time.Minute, 0)
	require.Error(t, err)

	l, err := NewMemoryLimiter(time.Minute, 1)
	require.NoError(t, err)
	_, err = l.Allow(context.Background(), "")
	require.Error(t, err)
}

type fakeStore struct {
	hits      int
	err       error
	lastKey   string
	lastStart time.Time
	lastTTL   time.Duration
}

func (f *fakeStore) IncrementWindow(_ context.Context, key string, start time.Time, ttl time.Duration) (int, error) {
	f.lastKey, f.lastStart, f.lastTTL = key, start, ttl
	if f.err != nil {
		return 0, f.err
	}
	f.hits++
	return f.hits, nil
}

func TestStoreLimiter(t *testing.T) {
	clock := newClock()
	clock.Advance(15 * time.Second)
	store := &fakeStore{hits: 19}
	l, err := NewStoreLimiter(store, time.Minute, 20)
	require.NoError(t, err)
	l.now = clock.Now

	d, err := l.Allow(context.Background(), "ip")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Zero(t, d.Remaining)
	require.Equal(t, 45*time.Second, d.ResetAfter)
	require.Equal(t, "ip", store.lastKey)
	require.Equal(t, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC), store.lastStart)
	require.Equal(t, 2*time.Minute, store.lastTTL)

	d, err = l.Allow(context.Background(), "ip")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
}

func TestStoreLimiter_Errors(t *testing.T) {
	_, err := NewStoreLimiter(nil, time.Minute, 1)
	require.Error(t, err)
	_, err = NewStoreLimiter(&fakeStore{}, time.Minute, 0)
	require.Error(t, err)

	l, err := NewStoreLimiter(&fakeStore{err: errors.New("dynamo down")}, time.Minute, 1)
	require.NoError(t, err)
	_, err = l.Allow(context.Background(), "ip")
	require.ErrorContains(t, err, "dynamo down")
}
