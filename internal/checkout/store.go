package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/redisclient"
)

var errWizardNotFound = apperrors.NotFound("checkout session not found")

// Store keeps wizard sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*Wizard, error)
	Save(ctx context.Context, w *Wizard, ttl time.Duration) error
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps wizards in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || !s.now().Before(e.expires) {
		delete(s.entries, id)
		return nil, errWizardNotFound
	}
	var w Wizard
	if err := json.Unmarshal(e.data, &w); err != nil {
		return nil, fmt.Errorf("decode wizard: %w", err)
	}
	return &w, nil
}

func (s *MemoryStore) Save(_ context.Context, w *Wizard, ttl time.Duration) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode wizard: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[w.ID] = memoryEntry{data: data, expires: s.now().Add(ttl)}
	return nil
}

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// RedisStore keeps wizards as JSON strings with a TTL.
type RedisStore struct {
	client redisKV
}

func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

func wizardKey(id string) string {
	return redisclient.Key("checkout", "wizard", id)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Wizard, error) {
	raw, err := s.client.Get(ctx, wizardKey(id))
	if errors.Is(err, redisclient.ErrMiss) {
		return nil, errWizardNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "checkout session store unavailable")
	}
	var w Wizard
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("decode wizard: %w", err)
	}
	return &w, nil
}

func (s *RedisStore) Save(ctx context.Context, w *Wizard, ttl time.Duration) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode wizard: %w", err)
	}
	if err := s.client.Set(ctx, wizardKey(w.ID), string(data), ttl); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "checkout session store unavailable")
	}
	return nil
}
