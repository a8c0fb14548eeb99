package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/sunik/internal/redisclient"
)

// Store records a hit for key and reports how many hits, including this one,
// fall inside the window ending at now, plus the oldest hit in that window.
// Implementations must not keep hits that exceed limit.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (int64, time.Time, error)
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Policy names a sliding window of Max requests per Window.
type Policy struct {
	Name   string
	Max    int
	Window time.Duration
}

func (p Policy) enabled() bool {
	return p.Max > 0 && p.Window > 0
}

func (p Policy) key(id string) string {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		name = "api"
	}
	return redisclient.Key("rl", name, id)
}

// Limiter applies a Policy against a Store.
type Limiter struct {
	policy Policy
	store  Store
	now    func() time.Time
}

func New(policy Policy, store Store) *Limiter {
	return &Limiter{policy: policy, store: store, now: time.Now}
}

func (l *Limiter) Policy() Policy {
	return l.policy
}

// Allow records a request from id and reports whether it may proceed.
func (l *Limiter) Allow(ctx context.Context, id string) (Result, error) {
	if l == nil || !l.policy.enabled() || l.store == nil {
		return Result{Allowed: true}, nil
	}
	now := l.now()
	count, oldest, err := l.store.Hit(ctx, l.policy.key(id), now, l.policy.Window, l.policy.Max)
	if err != nil {
		return Result{Allowed: true}, fmt.Errorf("rate limit %s: %w", l.policy.Name, err)
	}
	remaining := l.policy.Max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(l.policy.Max),
		Limit:     l.policy.Max,
		Remaining: remaining,
		Reset:     oldest.Add(l.policy.Window),
	}, nil
}

const memorySweepThreshold = 10000

// MemoryStore keeps hit timestamps in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hits: map[string][]time.Time{}}
}

func (m *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration, limit int) (int64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.hits) > memorySweepThreshold {
		m.sweep(now, window)
	}

	kept := prune(m.hits[key], now, window)
	count := int64(len(kept) + 1)
	if limit <= 0 || count <= int64(limit) {
		kept = append(kept, now)
	}
	if len(kept) == 0 {
		delete(m.hits, key)
	} else {
		m.hits[key] = kept
	}

	oldest := now
	if len(kept) > 0 {
		oldest = kept[0]
	}
	return count, oldest, nil
}

func (m *MemoryStore) sweep(now time.Time, window time.Duration) {
	for k, v := range m.hits {
		if kept := prune(v, now, window); len(kept) == 0 {
			delete(m.hits, k)
		} else {
			m.hits[k] = kept
		}
	}
}

func prune(hits []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// RedisStore keeps the window in a Redis sorted set so every instance shares it.
type RedisStore struct {
	client *redisclient.Client
}

func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (int64, time.Time, error) {
	return r.client.SlidingWindow(ctx, key, now, window, int64(limit))
}
