package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-opsboard/querykey"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Retry = 0
	cfg.RetryDelay = func(int) time.Duration { return time.Millisecond }
	return cfg
}

func newTestClient(t *testing.T, cfg Config, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	c, err := New(cfg, opts...)
	require.NoError(t, err, "failed to create client")
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type task struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func TestGetQueryData(t *testing.T) {
	c := newTestClient(t, testConfig())
	key := querykey.Tasks.All()

	_, ok := GetQueryData[[]task](c, key)
	require.False(t, ok, "expected no data for an unknown key")

	SetQueryData(c, key, []task{{ID: "t1", Status: "pending"}})

	got, ok := GetQueryData[[]task](c, key)
	require.True(t, ok, "expected typed data after SetQueryData")
	assert.Equal(t, []task{{ID: "t1", Status: "pending"}}, got)

	_, ok = GetQueryData[string](c, key)
	assert.False(t, ok, "expected a type mismatch to report false")
}

func TestEnsureQueryData(t *testing.T) {
	c := newTestClient(t, testConfig())

	got, err := EnsureQueryData(context.Background(), c, querykey.Tasks.All(), func(ctx context.Context) ([]task, error) {
		return []task{{ID: "t1"}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEnsureQueryData_TypeMismatch(t *testing.T) {
	c := newTestClient(t, testConfig())
	key := querykey.Properties.All()

	SetQueryData(c, key, "not a slice")
	c.Invalidate(key)

	_, err := EnsureQueryData(context.Background(), c, key, func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	assert.Error(t, err)
}

func TestEnsureQueryData_FetchError(t *testing.T) {
	c := newTestClient(t, testConfig())
	want := errors.New("backend down")

	got, err := EnsureQueryData(context.Background(), c, querykey.Cleaning.All(), func(ctx context.Context) ([]task, error) {
		return nil, want
	})
	require.ErrorIs(t, err, want)
	assert.Nil(t, got, "expected zero value")
}

func TestUpdateQueryData(t *testing.T) {
	c := newTestClient(t, testConfig())
	key := querykey.Tasks.All()

	changed, err := UpdateQueryData(c, key, func(old []task, ok bool) ([]task, bool) {
		assert.False(t, ok, "expected ok=false for an empty key")
		return nil, false
	})
	require.NoError(t, err)
	require.False(t, changed)
	_, exists := c.Get(key)
	assert.False(t, exists, "a declined update must not create an entry")

	SetQueryData(c, key, []task{{ID: "t1", Status: "pending"}})

	changed, err = UpdateQueryData(c, key, func(old []task, ok bool) ([]task, bool) {
		next := make([]task, len(old))
		copy(next, old)
		next[0].Status = "completed"
		return next, true
	})
	require.NoError(t, err)
	require.True(t, changed)

	got, _ := GetQueryData[[]task](c, key)
	assert.Equal(t, "completed", got[0].Status)

	SetQueryData(c, querykey.Properties.All(), 42)
	_, err = UpdateQueryData(c, querykey.Properties.All(), func(old []task, ok bool) ([]task, bool) {
		return old, true
	})
	assert.ErrorIs(t, err, ErrInvalidResultType)
}

func TestErase_Nil(t *testing.T) {
	assert.Nil(t, Erase[int](nil))
}
