package models

// CacheStats reports semantic cache performance metrics.
type CacheStats struct {
	Entries           int     `json:"entries"`
	ExactHits         int64   `json:"exact_hits"`
	SemanticHits      int64   `json:"semantic_hits"`
	Misses            int64   `json:"misses"`
	EmbeddingFailures int64   `json:"embedding_failures"`
	SemanticHitRate   float64 `json:"semantic_hit_rate"`
	TotalHitRate      float64 `json:"total_hit_rate"`
}
