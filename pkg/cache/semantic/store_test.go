package semantic

import (
	"testing"

	"github.com/semgate-ai/semgate/pkg/models"
)

func TestStoreEvictCallback(t *testing.T) {
	var evicted []string
	s := newEntryStore(2, func(e *Entry) {
		evicted = append(evicted, e.Key)
	})

	s.put(&Entry{Key: "a", Tier: models.TierLocal})
	s.put(&Entry{Key: "b", Tier: models.TierLocal})
	s.put(&Entry{Key: "c", Tier: models.TierLocal})

	if s.len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.len())
	}
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("expected oldest entry evicted, got %v", evicted)
	}
}

func TestStoreRemoveFiresCallback(t *testing.T) {
	var evicted []string
	s := newEntryStore(4, func(e *Entry) {
		evicted = append(evicted, e.Key)
	})

	id := s.put(&Entry{Key: "a"})
	if !s.remove(id) {
		t.Fatal("expected remove to succeed")
	}
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("expected callback on remove, got %v", evicted)
	}
}

func TestStoreIDsMonotonic(t *testing.T) {
	s := newEntryStore(2, nil)

	id1 := s.put(&Entry{Key: "a"})
	id2 := s.put(&Entry{Key: "b"})
	id3 := s.put(&Entry{Key: "c"}) // evicts a

	if id2 <= id1 || id3 <= id2 {
		t.Errorf("ids not monotonic: %d %d %d", id1, id2, id3)
	}
	if _, ok := s.get(id1); ok {
		t.Error("expected evicted id to be gone")
	}
	if e, ok := s.get(id3); !ok || e.Key != "c" {
		t.Error("expected newest entry present")
	}
}

func TestStoreEachOldestFirst(t *testing.T) {
	s := newEntryStore(4, nil)
	for _, k := range []string{"a", "b", "c"} {
		s.put(&Entry{Key: k})
	}

	var keys []string
	s.each(func(e *Entry) { keys = append(keys, e.Key) })

	want := []string{"a", "b", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, keys)
		}
	}
}
