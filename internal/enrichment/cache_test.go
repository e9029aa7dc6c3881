package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheKey(t *testing.T) {
	a := []Item{{Key: "b::y"}, {Key: "a::x"}}
	b := []Item{{Key: "a::x"}, {Key: "b::y"}}

	assert.Equal(t, "dom casmurro::a::x|b::y", CacheKey("  Dom Casmurro! ", a))
	assert.Equal(t, CacheKey("dom casmurro", a), CacheKey("Dom Casmurro", b))
	assert.NotEqual(t, CacheKey("q", a), CacheKey("q", a[:1]))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, 0)

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k1", map[string]Fields{"x": {Publisher: "Garnier"}}))
	got, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Text("Garnier"), got["x"].Publisher)

	t.Run("returned map is a copy", func(t *testing.T) {
		got["y"] = Fields{}
		again, _, _ := c.Get(ctx, "k1")
		assert.NotContains(t, again, "y")
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "k2", map[string]Fields{}))
		require.NoError(t, c.Set(ctx, "k3", map[string]Fields{}))
		assert.Equal(t, 2, c.Len())
		_, ok, _ := c.Get(ctx, "k1")
		assert.False(t, ok)
	})
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	c := NewRedisCache(client, "", time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", map[string]Fields{"assis::dom casmurro": {Place: "Rio de Janeiro", TotalPages: "256"}}))
	assert.True(t, mr.Exists(DefaultRedisKeyPrefix+"k"))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Text("256"), got["assis::dom casmurro"].TotalPages)

	t.Run("entries expire", func(t *testing.T) {
		mr.FastForward(2 * time.Minute)
		_, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt value is an error", func(t *testing.T) {
		require.NoError(t, mr.Set(DefaultRedisKeyPrefix+"bad", "not json"))
		_, _, err := c.Get(ctx, "bad")
		assert.Error(t, err)
	})
}

func TestCachingOracle(t *testing.T) {
	ctx := context.Background()

	t.Run("second identical batch is served from cache", func(t *testing.T) {
		inner := &stubOracle{answer: map[string]Fields{"assis::dom casmurro": {Publisher: "Garnier"}}}
		co := NewCachingOracle(inner, NewMemoryCache(8, 0), zerolog.Nop())

		var hits, misses int
		co.OnLookup(func(hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		})

		for range 3 {
			out, err := co.EnrichBatch(ctx, "Dom Casmurro", sampleItems())
			require.NoError(t, err)
			assert.Equal(t, Text("Garnier"), out["assis::dom casmurro"].Publisher)
		}

		assert.Equal(t, int32(1), inner.calls.Load())
		assert.Equal(t, 2, hits)
		assert.Equal(t, 1, misses)
		assert.Equal(t, "stub", co.Name())
	})

	t.Run("empty answers are not cached", func(t *testing.T) {
		inner := &stubOracle{answer: map[string]Fields{}}
		co := NewCachingOracle(inner, NewMemoryCache(8, 0), zerolog.Nop())

		_, _ = co.EnrichBatch(ctx, "q", sampleItems())
		_, _ = co.EnrichBatch(ctx, "q", sampleItems())
		assert.Equal(t, int32(2), inner.calls.Load())
	})

	t.Run("errors propagate", func(t *testing.T) {
		inner := &stubOracle{err: errors.New("boom")}
		co := NewCachingOracle(inner, NewMemoryCache(8, 0), zerolog.Nop())

		_, err := co.EnrichBatch(ctx, "q", sampleItems())
		assert.EqualError(t, err, "boom")
	})

	t.Run("redis outage falls through to the oracle", func(t *testing.T) {
		mr, client := newTestRedis(t)
		mr.Close()

		inner := &stubOracle{answer: map[string]Fields{"k": {Nature: "original"}}}
		co := NewCachingOracle(inner, NewRedisCache(client, "", 0), zerolog.Nop())

		out, err := co.EnrichBatch(ctx, "q", sampleItems())
		require.NoError(t, err)
		assert.Equal(t, Text("original"), out["k"].Nature)
	})
}
