package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name"`
}

func TestMemory_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.SetJSON(ctx, "talents:list:a", item{Name: "a"}, time.Minute))

	var got item
	ok, err := m.GetJSON(ctx, "talents:list:a", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", got.Name)

	now = now.Add(2 * time.Minute)
	ok, err = m.GetJSON(ctx, "talents:list:a", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SetJSON(ctx, "talents:1", item{}, 0))
	require.NoError(t, m.SetJSON(ctx, "talents:2", item{}, 0))
	require.NoError(t, m.SetJSON(ctx, "form_fields:active", item{}, 0))

	require.NoError(t, m.DeletePrefix(ctx, "talents:"))

	var got item
	ok, _ := m.GetJSON(ctx, "talents:1", &got)
	assert.False(t, ok)
	ok, _ = m.GetJSON(ctx, "form_fields:active", &got)
	assert.True(t, ok)
}

type stubRedis struct {
	pingErr error
	store   map[string]string
	deleted []string
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := s.store[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	s.store[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	cmd := redis.NewScanCmd(ctx, nil)
	var keys []string
	prefix := match[:len(match)-1]
	for k := range s.store {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	cmd.SetVal(keys, 0)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(s.store, k)
		s.deleted = append(s.deleted, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (s *stubRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", s.pingErr)
}

func (s *stubRedis) Close() error { return nil }

func withStub(t *testing.T, stub *stubRedis) {
	t.Helper()
	redisNewClient = func(o *redis.Options) redisClient { return stub }
	t.Cleanup(func() {
		redisNewClient = func(o *redis.Options) redisClient { return redis.NewClient(o) }
	})
}

func TestRedis_RoundTripAndDeletePrefix(t *testing.T) {
	ctx := context.Background()
	stub := &stubRedis{store: map[string]string{}}
	withStub(t, stub)

	r, err := NewRedis(ctx, "127.0.0.1:6379", "", 0, "th:")
	require.NoError(t, err)

	require.NoError(t, r.SetJSON(ctx, "talents:x", item{Name: "x"}, time.Minute))
	assert.Contains(t, stub.store, "th:talents:x")

	var got item
	ok, err := r.GetJSON(ctx, "talents:x", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", got.Name)

	ok, err = r.GetJSON(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.DeletePrefix(ctx, "talents:"))
	assert.Equal(t, []string{"th:talents:x"}, stub.deleted)
}

func TestNewRedis_PingFailure(t *testing.T) {
	withStub(t, &stubRedis{pingErr: errors.New("refused"), store: map[string]string{}})

	r, err := NewRedis(context.Background(), "addr", "", 0, "")
	require.Error(t, err)
	assert.Nil(t, r)
}
