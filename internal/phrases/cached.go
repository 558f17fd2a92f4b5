package phrases

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// Store persists extractions across runs.
type Store interface {
	GetCachedPhrases(extractor, text string, maxAge time.Duration) ([]string, bool, error)
	PutCachedPhrases(extractor, text string, phrases []string) error
}

// CachedExtractor memoises an Extractor in memory and, when a Store is
// given, on disk. Identical titles are frequent in the source data.
type CachedExtractor struct {
	inner  Extractor
	key    string
	store  Store
	memory *gocache.Cache
	maxAge time.Duration
}

// NewCachedExtractor wraps inner. store may be nil; maxAge 0 never expires.
func NewCachedExtractor(inner Extractor, store Store, maxAge time.Duration) *CachedExtractor {
	return &CachedExtractor{
		inner:  inner,
		key:    cacheKey(inner),
		store:  store,
		memory: gocache.New(gocache.NoExpiration, 0),
		maxAge: maxAge,
	}
}

// Name implements Extractor.
func (c *CachedExtractor) Name() string { return c.inner.Name() }

// Extract implements Extractor.
func (c *CachedExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	if v, ok := c.memory.Get(text); ok {
		return v.([]string), nil
	}

	if c.store != nil {
		phrases, found, err := c.store.GetCachedPhrases(c.key, text, c.maxAge)
		if err != nil {
			log.Warn().Err(err).Msg("reading phrase cache")
		} else if found {
			c.memory.SetDefault(text, phrases)
			return phrases, nil
		}
	}

	phrases, err := c.inner.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	c.memory.SetDefault(text, phrases)
	if c.store != nil {
		if err := c.store.PutCachedPhrases(c.key, text, phrases); err != nil {
			log.Warn().Err(err).Msg("writing phrase cache")
		}
	}
	return phrases, nil
}

// Len returns the number of memoised titles.
func (c *CachedExtractor) Len() int { return c.memory.ItemCount() }
