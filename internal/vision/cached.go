package vision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog/log"

	"hostprompt/internal/cache"
)

// CachedDescriber remembers descriptions by image content.
type CachedDescriber struct {
	next  Describer
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedDescriber(next Describer, c cache.Cache, ttl time.Duration) *CachedDescriber {
	return &CachedDescriber{next: next, cache: c, ttl: ttl}
}

// Describe serves from the cache when possible. Cache failures are logged
// and never fail the call.
func (c *CachedDescriber) Describe(ctx context.Context, img Image) (string, error) {
	key := cacheKey(img)

	var cached string
	ok, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("description cache read failed")
	}
	if ok && cached != "" {
		return cached, nil
	}

	text, err := c.next.Describe(ctx, img)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, text, c.ttl); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("description cache write failed")
	}
	return text, nil
}

func cacheKey(img Image) string {
	sum := sha256.Sum256(img.Data)
	return "photo-description:" + hex.EncodeToString(sum[:])
}
