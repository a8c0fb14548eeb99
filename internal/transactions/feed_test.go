package transactions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFeedFansOut(t *testing.T) {
	feed := NewMemoryFeed()
	ctx, cancel := context.WithCancel(context.Background())
	a := feed.Listen(ctx)
	b := feed.Listen(ctx)

	require.NoError(t, feed.Notify(context.Background()))
	require.NoError(t, feed.Notify(context.Background()))

	for _, ch := range []<-chan struct{}{a, b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("listener not notified")
		}
	}

	cancel()
	select {
	case _, open := <-a:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("listener not closed after cancel")
	}
}
