package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cached wraps a Provider with an expiring LRU memo. The gateway embeds the
// same text up to twice per request (once for lookup, once for store); the
// memo makes the second call free and also absorbs repeated identical
// queries arriving close together.
type Cached struct {
	next Provider
	lru  *expirable.LRU[string, []float32]
}

// NewCached creates a memoizing wrapper. A size or ttl of zero returns a
// wrapper that passes every call through.
func NewCached(next Provider, size int, ttl time.Duration) *Cached {
	c := &Cached{next: next}
	if size > 0 && ttl > 0 {
		c.lru = expirable.NewLRU[string, []float32](size, nil, ttl)
	}
	return c
}

// Embed implements Provider.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.lru == nil {
		return c.next.Embed(ctx, text)
	}
	key := memoKey(text)
	if vec, ok := c.lru.Get(key); ok {
		return cloneVector(vec), nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, cloneVector(vec))
	return vec, nil
}

func memoKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// cloneVector copies a vector so cached entries stay immutable even if a
// caller mutates the returned slice.
func cloneVector(vec []float32) []float32 {
	if len(vec) == 0 {
		return nil
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
