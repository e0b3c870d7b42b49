package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type barStub struct {
	Open  float64 `json:"open"`
	Close float64 `json:"close"`
}

func TestMemoryCacheSetGetStruct(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	in := []barStub{{Open: 1, Close: 2}, {Open: 2, Close: 3}}
	require.NoError(t, mc.Set(ctx, "bars:a", in, time.Minute))

	var out []barStub
	require.NoError(t, mc.Get(ctx, "bars:a", &out))
	assert.Equal(t, in, out)
}

func TestMemoryCacheStringAndMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "v", 0))
	var s string
	require.NoError(t, mc.Get(ctx, "k", &s))
	assert.Equal(t, "v", s)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &s), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", 1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var n int
	assert.ErrorIs(t, mc.Get(ctx, "k", &n), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Minute))
	time.Sleep(time.Millisecond)

	var n int
	require.NoError(t, mc.Get(ctx, "a", &n))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", 3, time.Minute))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &n), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &n))
	assert.Equal(t, 1, n)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "bars:p1:1h", 1, time.Minute))
	require.NoError(t, mc.Set(ctx, "bars:p1:1d", 1, time.Minute))
	require.NoError(t, mc.Set(ctx, "stats", 1, time.Minute))

	require.NoError(t, mc.DeleteByPattern(ctx, "bars:p1:*"))
	assert.Equal(t, 1, mc.Len())
	var n int
	assert.NoError(t, mc.Get(ctx, "stats", &n))
}

func TestMemoryCacheLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "lock:bars:0x1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = mc.TryLock(ctx, "lock:bars:0x1", time.Minute)
	assert.False(t, ok)

	ok, _ = mc.TryLock(ctx, "lock:bars:0x2", time.Minute)
	assert.True(t, ok, "locks are per key")

	require.NoError(t, mc.Unlock(ctx, "lock:bars:0x1"))
	ok, _ = mc.TryLock(ctx, "lock:bars:0x1", time.Minute)
	assert.True(t, ok)
}

func TestMemoryCacheLockExpires(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, _ := mc.TryLock(ctx, "l", time.Millisecond)
	require.True(t, ok)
	time.Sleep(5 * time.Millisecond)
	ok, _ = mc.TryLock(ctx, "l", time.Minute)
	assert.True(t, ok)
}

func TestMemoryCacheLocksSurviveEvictionAndPatternDelete(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(1))
	defer mc.Close()
	ctx := context.Background()

	ok, _ := mc.TryLock(ctx, "bars:lock", time.Minute)
	require.True(t, ok)
	require.NoError(t, mc.Set(ctx, "bars:a", 1, time.Minute))
	require.NoError(t, mc.Set(ctx, "bars:b", 2, time.Minute))
	require.NoError(t, mc.DeleteByPattern(ctx, "bars:*"))

	ok, _ = mc.TryLock(ctx, "bars:lock", time.Minute)
	assert.False(t, ok)
}

func TestMemoryCacheRawBytes(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", barStub{Open: 1.5}, time.Minute))
	var raw []byte
	require.NoError(t, mc.Get(ctx, "k", &raw))
	assert.JSONEq(t, `{"open":1.5,"close":0}`, string(raw))
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "bars:0xabc", GenerateKey("bars", "0xabc"))
	assert.Equal(t, "bars:0xabc:1h:0:500", GenerateKeyWithParams("bars", "0xabc", "1h", 0, 500))
	assert.Equal(t, "bars:0xabc:*", BuildPattern("bars:0xabc:"))
}
