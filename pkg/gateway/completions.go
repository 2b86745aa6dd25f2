package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/semgate-ai/semgate/pkg/audit"
	"github.com/semgate-ai/semgate/pkg/cache/semantic"
	"github.com/semgate-ai/semgate/pkg/models"
	"github.com/semgate-ai/semgate/pkg/router"
)

// maxQueryLen bounds the query sent to embedding and inference.
const maxQueryLen = 10000

const cacheModelName = "semgate-cache"

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	r.Body.Close()

	var req models.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeJSONError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	// The cache key is the last user message.
	key := semantic.NormalizeKey(req.Messages[len(req.Messages)-1].Content)
	if key == "" {
		writeJSONError(w, http.StatusBadRequest, "last message has no content")
		return
	}
	if len(key) > maxQueryLen {
		writeJSONError(w, http.StatusBadRequest, "message too long")
		return
	}

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	reqStart := time.Now()

	// Embed once, before any lock is taken. The vector serves both the
	// lookup below and the store after inference.
	var vec []float32
	if s.cache != nil {
		embedCtx := r.Context()
		if t := s.cfg.Cache.EmbedTimeout.Std(); t > 0 {
			var cancel context.CancelFunc
			embedCtx, cancel = context.WithTimeout(embedCtx, t)
			defer cancel()
		}
		vec, err = s.cache.Embed(embedCtx, key)
		if err != nil && !errors.Is(err, semantic.ErrNoProvider) {
			log.Printf("embedding failed for %s: %v", requestID, err)
		}

		if hit, ok := s.cache.LookupWithEmbedding(key, vec); ok {
			s.respondCacheHit(w, r, requestID, key, hit, reqStart)
			return
		}
	}

	// Cache miss: pick a tier.
	var maxTier models.Tier
	if s.enforcer != nil {
		maxTier = s.enforcer.MaxTier(r.Context())
	}

	tier, blocked := s.resolveTier(req.Model, key, maxTier)
	if blocked {
		s.auditBlocked(requestID, key, tier)
		writeJSONError(w, http.StatusForbidden, "cloud tier blocked by paranoid mode")
		return
	}

	result, usedTier, err := s.execute(r.Context(), tier, req.Messages)
	if err != nil {
		log.Printf("inference failed for %s: %v", requestID, err)
		writeJSONError(w, http.StatusBadGateway, "all upstreams failed")
		return
	}

	if s.cache != nil && result.Response != "" {
		if len(vec) > 0 {
			s.cache.StoreWithEmbedding(key, vec, result.Response, usedTier, result.CompletionTokens)
		} else {
			s.cache.StoreResponse(r.Context(), key, result.Response, usedTier, result.CompletionTokens)
		}
	}

	latency := time.Since(reqStart).Milliseconds()
	modelName := s.modelFor(usedTier)
	rec := models.NewQueryRecord(usedTier, modelName, result.PromptTokens, result.CompletionTokens, latency)
	if err := s.tracker.Record(r.Context(), rec); err != nil {
		log.Printf("usage record failed: %v", err)
	}
	s.auditRequest(requestID, key, usedTier, rec.TotalTokens, latency)

	w.Header().Set("X-Semgate-Cache", "miss")
	w.Header().Set("X-Semgate-Tier", string(usedTier))
	writeJSON(w, http.StatusOK, completionResponse(modelName, result.Response, result.PromptTokens, result.CompletionTokens))
}

// resolveTier maps the requested model to a tier, routing "auto" through
// the complexity classifier. blocked is true when paranoid mode refuses an
// explicit cloud request.
func (s *Server) resolveTier(model, query string, maxTier models.Tier) (tier models.Tier, blocked bool) {
	if model == "" || model == "auto" {
		dec := s.router.Route(query, maxTier)
		tier = dec.Tier
		if tier == models.TierCache {
			// Already missed the cache; run it locally.
			tier = models.TierLocal
		}
		return tier, false
	}

	tier = models.ParseTier(model)
	if s.cfg.Paranoid && tier.IsCloud() {
		return tier, true
	}
	tier, _ = router.Cap(tier, maxTier)
	return tier, false
}

// execute runs inference on the chosen tier. Local failures fall back to
// cloud unless paranoid mode forbids it.
func (s *Server) execute(ctx context.Context, tier models.Tier, messages []models.ChatMessage) (*ChatResult, models.Tier, error) {
	if tier.IsCloud() {
		result, err := s.cloud.Chat(ctx, messages)
		return result, tier, err
	}

	result, err := s.local.Chat(ctx, messages)
	if err == nil {
		return result, models.TierLocal, nil
	}
	if s.cfg.Paranoid {
		return nil, models.TierLocal, err
	}

	log.Printf("local inference failed, falling back to cloud: %v", err)
	result, cloudErr := s.cloud.Chat(ctx, messages)
	if cloudErr != nil {
		return nil, models.TierCloud, cloudErr
	}
	return result, models.TierCloud, nil
}

func (s *Server) respondCacheHit(w http.ResponseWriter, r *http.Request, requestID, key string, hit semantic.Hit, reqStart time.Time) {
	latency := time.Since(reqStart).Milliseconds()
	rec := models.NewQueryRecord(models.TierCache, cacheModelName, 0, hit.TokenCost, latency)
	if err := s.tracker.Record(r.Context(), rec); err != nil {
		log.Printf("usage record failed: %v", err)
	}
	s.auditRequest(requestID, key, models.TierCache, hit.TokenCost, latency)

	w.Header().Set("X-Semgate-Cache", "hit")
	w.Header().Set("X-Semgate-Tier", string(models.TierCache))
	writeJSON(w, http.StatusOK, completionResponse(cacheModelName, hit.Response, 0, 0))
}

func (s *Server) modelFor(tier models.Tier) string {
	switch {
	case tier == models.TierCache:
		return cacheModelName
	case tier.IsCloud():
		return s.cfg.OpenRouter.Model
	default:
		return s.cfg.Ollama.Model
	}
}

func (s *Server) auditRequest(requestID, query string, tier models.Tier, totalTokens int, latencyMs int64) {
	if s.auditor == nil {
		return
	}
	hash, prefix := audit.HashQuery(query)
	ev := models.AuditEvent{
		RequestID:   requestID,
		Event:       models.AuditEventRequest,
		Tier:        tier,
		QueryHash:   hash,
		QueryPrefix: prefix,
		TotalTokens: totalTokens,
		LatencyMs:   latencyMs,
		CreatedAt:   time.Now().UTC(),
	}
	go func() {
		if err := s.auditor.Log(context.Background(), ev); err != nil {
			log.Printf("audit log error: %v", err)
		}
	}()
}

func (s *Server) auditBlocked(requestID, query string, tier models.Tier) {
	if s.auditor == nil {
		return
	}
	go func() {
		if err := s.auditor.LogBlocked(context.Background(), requestID, query, "paranoid mode", tier); err != nil {
			log.Printf("audit log error: %v", err)
		}
	}()
}

func completionResponse(model, content string, promptTokens, completionTokens int) models.ChatCompletionResponse {
	return models.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []models.Choice{
			{
				Index:        0,
				Message:      models.ChatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: models.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
}
