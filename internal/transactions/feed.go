package transactions

import (
	"context"
	"sync"

	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/redisclient"
)

// ChangeFeed signals that the transaction collection changed.
type ChangeFeed interface {
	Notify(ctx context.Context) error
	// Listen returns a channel that receives a value after each change. The
	// channel is closed when ctx ends.
	Listen(ctx context.Context) <-chan struct{}
}

// MemoryFeed fans change signals out to listeners in this process.
type MemoryFeed struct {
	mu        sync.Mutex
	listeners map[chan struct{}]struct{}
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{listeners: map[chan struct{}]struct{}{}}
}

func (f *MemoryFeed) Notify(context.Context) error {
	f.broadcast()
	return nil
}

func (f *MemoryFeed) broadcast() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *MemoryFeed) Listen(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.listeners[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.listeners, ch)
		close(ch)
		f.mu.Unlock()
	}()
	return ch
}

const changeChannel = "transactions:changed"

// RedisFeed relays change signals through Redis pub/sub so every instance
// sees writes made by the others.
type RedisFeed struct {
	client *redisclient.Client
	local  *MemoryFeed
	logg   *logger.Logger
	once   sync.Once
}

func NewRedisFeed(client *redisclient.Client, logg *logger.Logger) *RedisFeed {
	return &RedisFeed{client: client, local: NewMemoryFeed(), logg: logg}
}

func (f *RedisFeed) Notify(ctx context.Context) error {
	return f.client.Publish(ctx, redisclient.Key(changeChannel), "1")
}

// Run relays Redis messages to local listeners until ctx ends.
func (f *RedisFeed) Run(ctx context.Context) error {
	sub, err := f.client.Subscribe(ctx, redisclient.Key(changeChannel))
	if err != nil {
		return err
	}
	defer sub.Close()

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-msgs:
			if !ok {
				return nil
			}
			f.local.broadcast()
		}
	}
}

func (f *RedisFeed) Listen(ctx context.Context) <-chan struct{} {
	return f.local.Listen(ctx)
}
