package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerExclusive(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	token, ok, err := l.Acquire(ctx, "wizard:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Acquire(ctx, "wizard:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "wizard:1", token))
	_, ok, _ = l.Acquire(ctx, "wizard:1", time.Minute)
	assert.True(t, ok)
}

func TestMemoryLockerExpires(t *testing.T) {
	l := NewMemoryLocker()
	clock := time.Unix(100, 0)
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	stale, _, _ := l.Acquire(ctx, "k", time.Second)
	clock = clock.Add(2 * time.Second)
	_, ok, _ := l.Acquire(ctx, "k", time.Second)

	assert.True(t, ok)
	assert.ErrorIs(t, l.Release(ctx, "k", stale), ErrNotHeld)
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeRedis) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[key] != value {
		return false, nil
	}
	delete(f.data, key)
	return true, nil
}

func TestRedisLockerOwnerToken(t *testing.T) {
	l, err := NewRedisLocker(&fakeRedis{data: map[string]string{}})
	require.NoError(t, err)
	ctx := context.Background()

	token, ok, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	assert.ErrorIs(t, l.Release(ctx, "k", "someone-else"), ErrNotHeld)
	assert.NoError(t, l.Release(ctx, "k", token))
}

func TestNewRedisLockerRequiresClient(t *testing.T) {
	_, err := NewRedisLocker(nil)
	assert.Error(t, err)
}
