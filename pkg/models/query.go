package models

import "time"

// QueryRecord tracks a single routed query for cost accounting.
type QueryRecord struct {
	ID               int64     `json:"id"`
	Tier             Tier      `json:"tier"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	SavedUSD         float64   `json:"saved_usd"`
	CacheHit         bool      `json:"cache_hit"`
	LatencyMs        int64     `json:"latency_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewQueryRecord builds a record with cost and savings filled in. Savings
// are measured against running the same tokens on the most expensive tier.
func NewQueryRecord(tier Tier, model string, promptTokens, completionTokens int, latencyMs int64) QueryRecord {
	cost := tier.Cost(promptTokens, completionTokens)
	premium := TierOpus.Cost(promptTokens, completionTokens)
	return QueryRecord{
		Tier:             tier,
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		CostUSD:          cost,
		SavedUSD:         premium - cost,
		CacheHit:         tier == TierCache,
		LatencyMs:        latencyMs,
		CreatedAt:        time.Now().UTC(),
	}
}

// TierSummary aggregates usage for one tier.
type TierSummary struct {
	Tier         Tier    `json:"tier"`
	QueryCount   int     `json:"query_count"`
	TotalTokens  int64   `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	SavedUSD     float64 `json:"saved_usd"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// UsageTotals aggregates usage across all tiers since some point in time.
type UsageTotals struct {
	Queries         int64   `json:"queries"`
	CacheHits       int64   `json:"cache_hits"`
	LocalQueries    int64   `json:"local_queries"`
	CloudQueries    int64   `json:"cloud_queries"`
	TokensProcessed int64   `json:"tokens_processed"`
	SpentUSD        float64 `json:"spent_usd"`
	SavedUSD        float64 `json:"saved_usd"`
}
