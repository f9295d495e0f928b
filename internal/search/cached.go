package search

import (
	"context"

	"go.uber.org/zap"
)

// Cached answers from Cache when it can and stores fresh non-empty
// results from the wrapped provider.
type Cached struct {
	Provider Provider
	Cache    Cache
	Logger   *zap.Logger
}

func NewCached(p Provider, c Cache, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{Provider: p, Cache: c, Logger: logger.Named("cache")}
}

func (c *Cached) Name() string { return c.Provider.Name() }

func (c *Cached) Search(ctx context.Context, query string) ([]Result, error) {
	key := cacheKey(c.Provider.Name(), query)
	if c.Cache != nil {
		if v, ok := c.Cache.Get(ctx, key); ok {
			c.Logger.Debug("cache hit", zap.String("provider", c.Name()))
			return v, nil
		}
	}

	out, err := c.Provider.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if c.Cache != nil && len(out) > 0 {
		if err := c.Cache.Put(ctx, key, out); err != nil {
			c.Logger.Warn("cache store failed", zap.Error(err))
		}
	}
	return out, nil
}
