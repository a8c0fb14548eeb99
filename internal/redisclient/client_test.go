package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCmdable struct {
	cmdable
	data map[string]string
}

func newMock() *mockCmdable {
	return &mockCmdable{data: map[string]string{}}
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = value.(string)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if v, ok := m.data[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if _, ok := m.data[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	m.data[key] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func TestGetMapsNilToMiss(t *testing.T) {
	c := &Client{store: newMock()}

	_, err := c.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrMiss)
}

func TestSetThenGet(t *testing.T) {
	ctx := context.Background()
	c := &Client{store: newMock()}

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	got, err := c.Get(ctx, "k")

	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestSetNXOnlyOnce(t *testing.T) {
	ctx := context.Background()
	c := &Client{store: newMock()}

	first, err := c.SetNX(ctx, "lock", "a", time.Second)
	require.NoError(t, err)
	second, err := c.SetNX(ctx, "lock", "b", time.Second)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestKeySkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "sunik:wizard:abc", Key("wizard", "", " abc "))
	assert.Equal(t, "sunik", Key())
}

func TestSubscribeRequiresConnection(t *testing.T) {
	_, err := (&Client{store: newMock()}).Subscribe(context.Background(), "x")
	assert.Error(t, err)
}
