package semantic

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/semgate-ai/semgate/pkg/models"
)

// Entry is a cached response. Entries are immutable after creation except
// for the hit counter; a new response for the same key replaces the entry
// wholesale.
type Entry struct {
	id        uint64
	Key       string
	Embedding []float32
	Response  string
	Tier      models.Tier
	TokenCost int
	CreatedAt time.Time

	hits atomic.Int64
}

// Hits returns how many lookups this entry has served.
func (e *Entry) Hits() int64 { return e.hits.Load() }

// Age returns how long ago the entry was inserted.
func (e *Entry) Age() time.Duration { return time.Since(e.CreatedAt) }

func (e *Entry) expired(ttl time.Duration) bool {
	return ttl > 0 && e.Age() > ttl
}

// entryStore is the authoritative table of cache entries. It is not safe
// for concurrent use; the owning SemanticCache serializes access. Capacity
// eviction drops the oldest insertion first and reports it through onEvict
// so the index and exact-key map stay consistent.
type entryStore struct {
	lru    *simplelru.LRU[uint64, *Entry]
	nextID uint64
}

func newEntryStore(capacity int, onEvict func(*Entry)) *entryStore {
	lru, err := simplelru.NewLRU(capacity, func(_ uint64, e *Entry) {
		if onEvict != nil {
			onEvict(e)
		}
	})
	if err != nil {
		// only possible with capacity <= 0, which New guards against
		panic(err)
	}
	return &entryStore{lru: lru}
}

// put assigns the entry an id and inserts it, evicting the oldest entry if
// the store is at capacity.
func (s *entryStore) put(e *Entry) uint64 {
	s.nextID++
	e.id = s.nextID
	s.lru.Add(e.id, e)
	return e.id
}

// get returns the entry without touching recency, so it is safe under a
// shared lock.
func (s *entryStore) get(id uint64) (*Entry, bool) {
	return s.lru.Peek(id)
}

func (s *entryStore) remove(id uint64) bool {
	return s.lru.Remove(id)
}

func (s *entryStore) len() int {
	return s.lru.Len()
}

// each visits every entry in eviction order (oldest first).
func (s *entryStore) each(fn func(*Entry)) {
	for _, id := range s.lru.Keys() {
		if e, ok := s.lru.Peek(id); ok {
			fn(e)
		}
	}
}
