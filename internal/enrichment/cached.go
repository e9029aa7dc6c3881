package enrichment

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/bibliomatch-service/internal/textsim"
)

// CacheKey identifies a batch by the folded query and the sorted work keys, so
// the same candidates in a different order share one entry.
func CacheKey(query string, items []Item) string {
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.Key)
	}
	slices.Sort(keys)
	return textsim.Fold(query) + "::" + strings.Join(keys, "|")
}

// CachingOracle serves repeated batches from a Cache. Cache failures are logged
// and bypassed.
type CachingOracle struct {
	inner   Oracle
	cache   Cache
	logger  zerolog.Logger
	observe func(hit bool)
}

// NewCachingOracle decorates inner with cache.
func NewCachingOracle(inner Oracle, cache Cache, logger zerolog.Logger) *CachingOracle {
	return &CachingOracle{
		inner:  inner,
		cache:  cache,
		logger: logger.With().Str("component", "enrichment_cache").Logger(),
	}
}

// OnLookup registers a callback invoked with the outcome of every cache lookup.
func (c *CachingOracle) OnLookup(fn func(hit bool)) {
	c.observe = fn
}

// Name returns the name of the wrapped oracle.
func (c *CachingOracle) Name() string { return c.inner.Name() }

// EnrichBatch implements Oracle. Only non-empty answers are stored.
func (c *CachingOracle) EnrichBatch(ctx context.Context, query string, items []Item) (map[string]Fields, error) {
	key := CacheKey(query, items)

	cached, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("enrichment cache read failed")
	}
	if c.observe != nil {
		c.observe(ok)
	}
	if ok {
		return cached, nil
	}

	out, err := c.inner.EnrichBatch(ctx, query, items)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		if err := c.cache.Set(ctx, key, out); err != nil {
			c.logger.Warn().Err(err).Msg("enrichment cache write failed")
		}
	}
	return out, nil
}
