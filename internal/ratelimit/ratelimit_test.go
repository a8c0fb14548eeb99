package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(max int, window time.Duration, clock *time.Time) *Limiter {
	l := New(Policy{Name: "api", Max: max, Window: window}, NewMemoryStore())
	l.now = func() time.Time { return *clock }
	return l
}

func TestAllowsUpToMaxThenRejects(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := newTestLimiter(10, 10*time.Second, &clock)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, 9-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 10, res.Limit)
	assert.Equal(t, clock.Add(10*time.Second), res.Reset)
}

func TestWindowSlides(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := newTestLimiter(2, 10*time.Second, &clock)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "ip")
	clock = clock.Add(6 * time.Second)
	_, _ = l.Allow(ctx, "ip")

	res, _ := l.Allow(ctx, "ip")
	assert.False(t, res.Allowed)

	clock = clock.Add(5 * time.Second)
	res, _ = l.Allow(ctx, "ip")
	assert.True(t, res.Allowed, "first hit left the window")
}

func TestRejectedHitsDoNotExtendWindow(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := newTestLimiter(1, 10*time.Second, &clock)
	ctx := context.Background()

	_, _ = l.Allow(ctx, "ip")
	for i := 0; i < 5; i++ {
		clock = clock.Add(time.Second)
		res, _ := l.Allow(ctx, "ip")
		assert.False(t, res.Allowed)
	}

	clock = clock.Add(5 * time.Second)
	res, _ := l.Allow(ctx, "ip")
	assert.True(t, res.Allowed)
}

func TestKeysAreIndependent(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := newTestLimiter(1, time.Minute, &clock)
	ctx := context.Background()

	a, _ := l.Allow(ctx, "a")
	b, _ := l.Allow(ctx, "b")

	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Time, time.Duration, int) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("redis down")
}

func TestStoreErrorFailsOpen(t *testing.T) {
	l := New(Policy{Name: "api", Max: 1, Window: time.Second}, failingStore{})

	res, err := l.Allow(context.Background(), "ip")

	assert.Error(t, err)
	assert.True(t, res.Allowed)
}

func TestDisabledPolicyAllowsEverything(t *testing.T) {
	l := New(Policy{}, NewMemoryStore())

	res, err := l.Allow(context.Background(), "ip")

	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
