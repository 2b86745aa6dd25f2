// Package semantic implements an in-memory semantic response cache shared
// across concurrent request handlers. Responses are stored under an exact
// key and, when an embedding is available, in a similarity index that
// answers nearest-neighbor lookups under a configurable threshold.
//
// Locking discipline: the cache is guarded by a single RWMutex. Lookups
// take the shared lock; inserts take the exclusive lock only across the
// in-memory mutation. Embedding generation is slow (a network call) and is
// never performed while the exclusive lock is held: callers either supply
// a pre-computed embedding (StoreWithEmbedding) or the cache computes it
// before acquiring the lock (StoreResponse).
package semantic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/semgate-ai/semgate/pkg/embedding"
	"github.com/semgate-ai/semgate/pkg/models"
)

// ErrIndexCorrupt signals that the similarity index and entry store have
// diverged. This is an internal bug, not a recoverable condition.
var ErrIndexCorrupt = errors.New("semantic cache: index and store diverged")

// ErrNoProvider is returned by Embed when no embedding provider is
// configured; the cache then serves exact-key matches only.
var ErrNoProvider = errors.New("semantic cache: no embedding provider")

// DefaultThreshold balances hit rate against false-positive matches.
const DefaultThreshold = 0.92

// MinThreshold and MaxThreshold bound the valid similarity range.
const (
	MinThreshold = 0.70
	MaxThreshold = 0.99
)

// Hit is a successful cache lookup.
type Hit struct {
	Response  string
	Tier      models.Tier
	TokenCost int
	HitCount  int64
	Age       time.Duration
}

// SemanticCache stores generated responses keyed by content. It exclusively
// owns its similarity index and entry store; callers hold no references
// into either.
type SemanticCache struct {
	provider   embedding.Provider
	threshold  float32
	ttl        time.Duration
	maxEntries int

	mu    sync.RWMutex
	exact map[string]uint64
	store *entryStore
	index *similarityIndex

	exactHits     atomic.Int64
	semanticHits  atomic.Int64
	misses        atomic.Int64
	embedFailures atomic.Int64
}

// New creates a SemanticCache. The provider may be nil, in which case only
// exact-key matching is available. Thresholds outside [MinThreshold,
// MaxThreshold] are clamped; maxEntries must be positive.
func New(provider embedding.Provider, threshold float32, maxEntries int, ttl time.Duration) *SemanticCache {
	if threshold < MinThreshold {
		threshold = MinThreshold
	}
	if threshold > MaxThreshold {
		threshold = MaxThreshold
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	c := &SemanticCache{
		provider:   provider,
		threshold:  threshold,
		ttl:        ttl,
		maxEntries: maxEntries,
		exact:      make(map[string]uint64),
		index:      &similarityIndex{},
	}
	c.store = newEntryStore(maxEntries, c.dropEvicted)
	return c
}

// dropEvicted keeps the index and exact-key map consistent with the store.
// It runs inside the exclusive section, from the store's eviction callback.
func (c *SemanticCache) dropEvicted(e *Entry) {
	if len(e.Embedding) > 0 {
		c.index.remove(e.id)
	}
	if id, ok := c.exact[e.Key]; ok && id == e.id {
		delete(c.exact, e.Key)
	}
}

// NormalizeKey derives the canonical cache key for request content.
func NormalizeKey(content string) string {
	return strings.TrimSpace(content)
}

// Embed computes an embedding for content using the configured provider.
// No lock is held: this may block on network I/O for a long time and must
// never serialize other cache operations. Failures are counted and returned
// so the caller can fall back to exact-key-only behavior.
func (c *SemanticCache) Embed(ctx context.Context, content string) ([]float32, error) {
	if c.provider == nil {
		return nil, ErrNoProvider
	}
	vec, err := c.provider.Embed(ctx, content)
	if err != nil {
		c.embedFailures.Add(1)
		return nil, fmt.Errorf("%w: %w", embedding.ErrUnavailable, err)
	}
	return vec, nil
}

// Lookup finds a cached response for the request content: exact key match
// first, then nearest-neighbor over embeddings. The embedding is computed
// before any lock is taken.
func (c *SemanticCache) Lookup(ctx context.Context, key, content string) (Hit, bool) {
	var vec []float32
	// Exact hits don't need the embedding, but computing it up front keeps
	// this path lock-free during the slow part and the memoizing provider
	// makes the cost negligible on repeats.
	if c.provider != nil {
		if v, err := c.Embed(ctx, content); err == nil {
			vec = v
		}
	}
	return c.LookupWithEmbedding(key, vec)
}

// LookupWithEmbedding finds a cached response using a pre-computed
// embedding (which may be nil for exact-only matching). Only the shared
// lock is held; concurrent lookups never block each other.
func (c *SemanticCache) LookupWithEmbedding(key string, vec []float32) (Hit, bool) {
	key = NormalizeKey(key)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if id, ok := c.exact[key]; ok {
		e := c.mustGet(id)
		if !e.expired(c.ttl) {
			e.hits.Add(1)
			c.exactHits.Add(1)
			return hitFrom(e), true
		}
	}

	if len(vec) > 0 {
		if id, _, ok := c.index.nearest(vec, c.threshold); ok {
			e := c.mustGet(id)
			if !e.expired(c.ttl) {
				e.hits.Add(1)
				c.semanticHits.Add(1)
				return hitFrom(e), true
			}
		}
	}

	c.misses.Add(1)
	return Hit{}, false
}

// StoreResponse caches a response, computing the embedding internally
// before the exclusive lock is acquired. If embedding generation fails the
// entry is still inserted under its exact key so exact-match caching
// survives provider outages; the caller never sees an error. If ctx is
// cancelled during embedding generation, nothing is inserted.
func (c *SemanticCache) StoreResponse(ctx context.Context, key, response string, tier models.Tier, tokenCost int) {
	vec, err := c.Embed(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			// Caller went away mid-embedding; the shared structures were
			// never touched, so there is no partial state to clean up.
			return
		}
		vec = nil
	}
	c.StoreWithEmbedding(key, vec, response, tier, tokenCost)
}

// StoreWithEmbedding caches a response using an embedding the caller
// already computed (nil for exact-only). It is synchronous and holds the
// exclusive lock only across the in-memory insert.
func (c *SemanticCache) StoreWithEmbedding(key string, vec []float32, response string, tier models.Tier, tokenCost int) {
	key = NormalizeKey(key)
	e := &Entry{
		Key:       key,
		Embedding: vec,
		Response:  response,
		Tier:      tier,
		TokenCost: tokenCost,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpiredLocked()

	// Replace wholesale: a new response for the same key is a new entry,
	// never a mutation of the old one. Last writer wins.
	if old, ok := c.exact[key]; ok {
		c.store.remove(old)
	}

	id := c.store.put(e)
	c.exact[key] = id
	if len(vec) > 0 {
		if err := c.index.insert(id, vec); err != nil {
			// Dimension mismatch against the live index: degrade this
			// entry to exact-only rather than poisoning the index.
			e.Embedding = nil
			c.embedFailures.Add(1)
		}
	}
}

// Remove deletes the entry stored under key, if any.
func (c *SemanticCache) Remove(key string) bool {
	key = NormalizeKey(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.exact[key]
	if !ok {
		return false
	}
	return c.store.remove(id)
}

// Clear removes all entries.
func (c *SemanticCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.each(func(e *Entry) {
		c.store.remove(e.id)
	})
}

// Len returns the number of live entries.
func (c *SemanticCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.len()
}

// Threshold returns the similarity threshold in effect.
func (c *SemanticCache) Threshold() float32 { return c.threshold }

// Stats returns cache performance metrics. Counters are atomics, so this
// needs only the shared lock for the entry count.
func (c *SemanticCache) Stats() models.CacheStats {
	exact := c.exactHits.Load()
	sem := c.semanticHits.Load()
	miss := c.misses.Load()
	total := exact + sem + miss

	s := models.CacheStats{
		Entries:           c.Len(),
		ExactHits:         exact,
		SemanticHits:      sem,
		Misses:            miss,
		EmbeddingFailures: c.embedFailures.Load(),
	}
	if total > 0 {
		s.SemanticHitRate = float64(sem) / float64(total)
		s.TotalHitRate = float64(exact+sem) / float64(total)
	}
	return s
}

// CheckInvariants verifies that the similarity index, entry store, and
// exact-key map agree. It exists for tests and debugging; a non-nil result
// always wraps ErrIndexCorrupt.
func (c *SemanticCache) CheckInvariants() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	indexed := 0
	var err error
	c.store.each(func(e *Entry) {
		if err != nil {
			return
		}
		if id, ok := c.exact[e.Key]; !ok || id != e.id {
			err = fmt.Errorf("%w: entry %d (key %q) missing from exact map", ErrIndexCorrupt, e.id, e.Key)
			return
		}
		if len(e.Embedding) > 0 {
			indexed++
			if !c.index.contains(e.id) {
				err = fmt.Errorf("%w: entry %d missing from index", ErrIndexCorrupt, e.id)
			}
		}
	})
	if err != nil {
		return err
	}
	if c.index.len() != indexed {
		return fmt.Errorf("%w: index has %d items, store has %d embedded entries", ErrIndexCorrupt, c.index.len(), indexed)
	}
	if len(c.exact) != c.store.len() {
		return fmt.Errorf("%w: exact map has %d keys, store has %d entries", ErrIndexCorrupt, len(c.exact), c.store.len())
	}
	return nil
}

// mustGet fetches an entry the index or exact map claims exists. A miss
// here means the consistency invariant is broken, which is an internal bug.
func (c *SemanticCache) mustGet(id uint64) *Entry {
	e, ok := c.store.get(id)
	if !ok {
		panic(fmt.Errorf("%w: entry %d referenced but not stored", ErrIndexCorrupt, id))
	}
	return e
}

// purgeExpiredLocked drops expired entries. Called with the exclusive lock
// held; reads treat expired entries as misses, so this only reclaims
// memory.
func (c *SemanticCache) purgeExpiredLocked() {
	if c.ttl <= 0 {
		return
	}
	var expired []uint64
	c.store.each(func(e *Entry) {
		if e.expired(c.ttl) {
			expired = append(expired, e.id)
		}
	})
	for _, id := range expired {
		c.store.remove(id)
	}
}

func hitFrom(e *Entry) Hit {
	return Hit{
		Response:  e.Response,
		Tier:      e.Tier,
		TokenCost: e.TokenCost,
		HitCount:  e.Hits(),
		Age:       e.Age(),
	}
}
