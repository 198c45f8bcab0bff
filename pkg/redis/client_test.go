package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Fatalf("expected allowed on first request")
	}
	if count != 1 {
		t.Fatalf("expected counter 1 got %d", count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestSetNXOnlyWritesOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.IdempotencyKey("orders.create", "abc")

	ok, err := client.SetNX(ctx, key, "pending", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.SetNX(ctx, key, "other", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "pending", got)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	require.ErrorIs(t, err, redis.Nil)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "ff:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "ff:rate_limit:login:ip:1.2.3.4", client.RateLimitKey("login:ip:1.2.3.4"))
	assert.Equal(t, "ff:session:access:jti-1", client.AccessSessionKey("jti-1"))
	assert.Equal(t, "ff:idempotency:scope", client.IdempotencyKey("scope", " "), "blank parts are skipped")
}

func TestDeleteIfValue(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.CronLockKey("prod", "outbox-retention")
	assert.Equal(t, "ff:cron_lock:prod:outbox-retention", key)

	ok, err := client.SetNX(ctx, key, "worker-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	removed, err := client.DeleteIfValue(ctx, key, "worker-b")
	require.NoError(t, err)
	assert.False(t, removed)
	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "worker-a", got)

	removed, err = client.DeleteIfValue(ctx, key, "worker-a")
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = client.Get(ctx, key)
	require.ErrorIs(t, err, redis.Nil)
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	require.Error(t, client.Ping(context.Background()))
	_, err := client.Get(context.Background(), "k")
	require.Error(t, err)
	require.NoError(t, client.Close())
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

// Eval understands only the compare-and-delete script.
func (m *mockCmdable) Eval(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	if m.data[keys[0]] != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(m.data, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
