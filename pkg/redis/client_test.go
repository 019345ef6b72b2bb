package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emlakhub/emlakhub-backend/pkg/config"
)

type fakeCommands struct {
	data map[string]string
	ttl  map[string]time.Duration
}

func newFake() (*Client, *fakeCommands) {
	f := &fakeCommands{data: map[string]string{}, ttl: map[string]time.Duration{}}
	return &Client{cmd: f}, f
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	f.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	var n int64
	fmt.Sscan(f.data[key], &n)
	n++
	f.data[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func (f *fakeCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if _, ok := f.ttl[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			n++
		}
		delete(f.data, key)
		delete(f.ttl, key)
	}
	return redis.NewIntResult(n, nil)
}

// compareAndDelete stands in for the release script.
func (f *fakeCommands) compareAndDelete(keys []string, args []any) *redis.Cmd {
	if len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, errors.New("unexpected script arguments"))
	}
	if f.data[keys[0]] != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(f.Del(context.Background(), keys[0]).Val(), nil)
}

func (f *fakeCommands) Eval(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return f.compareAndDelete(keys, args)
}

func (f *fakeCommands) EvalSha(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return f.compareAndDelete(keys, args)
}

func (f *fakeCommands) EvalRO(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return f.Eval(ctx, script, keys, args...)
}

func (f *fakeCommands) EvalShaRO(ctx context.Context, sha string, keys []string, args ...any) *redis.Cmd {
	return f.EvalSha(ctx, sha, keys, args...)
}

func (f *fakeCommands) ScriptExists(_ context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeCommands) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	client, fake := newFake()

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "ip:contact:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "hit %d", i+1)
		assert.EqualValues(t, i+1, count)
	}
	assert.Equal(t, time.Minute, fake.ttl["eh:rate_limit:ip:contact:1.2.3.4"])
}

func TestLockReleaseChecksOwner(t *testing.T) {
	ctx := context.Background()
	client, fake := newFake()

	acquired, err := client.AcquireLock(ctx, "outbox-retention", "worker-a", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = client.AcquireLock(ctx, "outbox-retention", "worker-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, client.ReleaseLock(ctx, "outbox-retention", "worker-b"))
	assert.Equal(t, "worker-a", fake.data["eh:lock:outbox-retention"], "a non-owner cannot release")

	require.NoError(t, client.ReleaseLock(ctx, "outbox-retention", "worker-a"))
	assert.NotContains(t, fake.data, "eh:lock:outbox-retention")
	require.NoError(t, client.ReleaseLock(ctx, "outbox-retention", "worker-a"))
}

func TestKeys(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "eh:idempotency:contact:abc", client.IdempotencyKey("contact", "abc"))
	assert.Equal(t, "eh:view:listing:l1:v1", client.ListingViewKey("l1", " v1 "))
	assert.Equal(t, "eh:view:listing:l1", client.ListingViewKey("l1", ""))
	assert.Equal(t, "staging:lock:cron", (&Client{prefix: "staging"}).lockKey("cron"))
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	assert.Error(t, client.Ping(context.Background()))
	_, _, err := client.FixedWindowAllow(context.Background(), "x", 1, time.Second)
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestOptions(t *testing.T) {
	_, err := options(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := options(config.RedisConfig{URL: "redis://:pw@cache:6380/2", PoolSize: 20, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = options(config.RedisConfig{Address: "localhost:6379", DB: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, opts.DB)
}
