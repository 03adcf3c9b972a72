package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"votechain-client/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis 用 go-redis 的结果构造函数模拟命令返回
type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Ping(_ context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func TestSnapshot_RedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	snap := NewSnapshot(NewRedisBackend(fake), 10*time.Minute)

	polls := []model.Poll{{ID: "p1", Title: "T", Options: []string{"Yes", "No"}, Language: model.LanguageFrench}}
	require.NoError(t, snap.SavePolls(ctx, polls))
	require.NoError(t, snap.SaveStats(ctx, model.ChainStats{TotalVotes: 4, IsValid: true}))

	got, err := snap.LoadPolls(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, []string{"Yes", "No"}, got[0].Options)
	assert.Equal(t, 10*time.Minute, fake.ttls[pollsKey])

	stats, err := snap.LoadStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalVotes)
}

func TestSnapshot_RedisMissingKey(t *testing.T) {
	snap := NewSnapshot(NewRedisBackend(newFakeRedis()), time.Minute)

	_, err := snap.LoadPolls(context.Background())
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestSnapshot_RedisErrorIsWrapped(t *testing.T) {
	fake := newFakeRedis()
	fake.err = errors.New("connection refused")
	snap := NewSnapshot(NewRedisBackend(fake), time.Minute)

	_, err := snap.LoadStats(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrKeyNotFound))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSnapshot_CorruptValue(t *testing.T) {
	fake := newFakeRedis()
	fake.data[pollsKey] = "not json"
	snap := NewSnapshot(NewRedisBackend(fake), time.Minute)

	_, err := snap.LoadPolls(context.Background())
	assert.Error(t, err)
}

func TestMockBackend_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	backend := NewMockBackend()
	backend.now = func() time.Time { return now }
	snap := NewSnapshot(backend, time.Minute)

	require.NoError(t, snap.SaveStats(ctx, model.ChainStats{TotalBlocks: 2}))
	_, err := snap.LoadStats(ctx)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = snap.LoadStats(ctx)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestSnapshot_Clear(t *testing.T) {
	ctx := context.Background()
	snap := NewSnapshot(NewMockBackend(), 0)
	require.NoError(t, snap.SavePolls(ctx, []model.Poll{{ID: "p1"}}))

	require.NoError(t, snap.Clear(ctx))
	_, err := snap.LoadPolls(ctx)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestRedisBackend_NilClient(t *testing.T) {
	backend := NewRedisBackend(nil)
	_, err := backend.Get(context.Background(), "k")
	assert.Equal(t, ErrRedisNotAvailable, err)
}
