package semantic

import (
	"fmt"
	"math"
)

// similarityIndex maps entry ids to embeddings and answers nearest-neighbor
// queries by brute-force cosine scan. It is not safe for concurrent use; the
// owning SemanticCache provides reader/writer exclusion. Items are kept in
// insertion order so ties break toward the most recent entry.
type similarityIndex struct {
	dims  int
	items []indexItem
}

type indexItem struct {
	id  uint64
	vec []float32
}

// insert adds an embedding. The first insertion fixes the index dimension;
// later vectors must match it.
func (x *similarityIndex) insert(id uint64, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding")
	}
	if x.dims == 0 {
		x.dims = len(vec)
	} else if len(vec) != x.dims {
		return fmt.Errorf("embedding dimension %d does not match index dimension %d", len(vec), x.dims)
	}
	x.items = append(x.items, indexItem{id: id, vec: vec})
	return nil
}

// nearest returns the entry id whose embedding is most similar to vec,
// provided the similarity meets the threshold. Newest insertions win ties.
func (x *similarityIndex) nearest(vec []float32, threshold float32) (uint64, float32, bool) {
	if len(vec) != x.dims || x.dims == 0 {
		return 0, 0, false
	}
	var (
		bestID    uint64
		bestScore float32
		found     bool
	)
	for i := len(x.items) - 1; i >= 0; i-- {
		score := cosineSimilarity(vec, x.items[i].vec)
		if score >= threshold && (!found || score > bestScore) {
			bestID = x.items[i].id
			bestScore = score
			found = true
		}
	}
	return bestID, bestScore, found
}

// remove deletes an entry's embedding, preserving insertion order.
func (x *similarityIndex) remove(id uint64) bool {
	for i, item := range x.items {
		if item.id == id {
			x.items = append(x.items[:i], x.items[i+1:]...)
			return true
		}
	}
	return false
}

func (x *similarityIndex) len() int {
	return len(x.items)
}

func (x *similarityIndex) contains(id uint64) bool {
	for _, item := range x.items {
		if item.id == id {
			return true
		}
	}
	return false
}

// cosineSimilarity computes the cosine of the angle between two equal-length
// vectors. Zero vectors yield zero similarity.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
