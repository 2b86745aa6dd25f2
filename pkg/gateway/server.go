// Package gateway serves the OpenAI-compatible HTTP API and routes each
// chat completion through the semantic cache, the complexity router, and
// the local or cloud upstream.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/semgate-ai/semgate/pkg/audit"
	"github.com/semgate-ai/semgate/pkg/budget"
	"github.com/semgate-ai/semgate/pkg/cache/semantic"
	"github.com/semgate-ai/semgate/pkg/config"
	"github.com/semgate-ai/semgate/pkg/models"
	"github.com/semgate-ai/semgate/pkg/router"
	"github.com/semgate-ai/semgate/pkg/tracker"
)

// Server is the semgate HTTP gateway.
type Server struct {
	cfg      *config.Config
	cache    *semantic.SemanticCache
	tracker  tracker.Tracker
	enforcer *budget.Enforcer
	auditor  *audit.Logger
	router   *router.Router
	local    *OllamaClient
	cloud    *OpenRouterClient
	mux      *http.ServeMux
	started  time.Time
}

// New creates a gateway Server wired with all dependencies. cache,
// enforcer, and auditor may be nil when the corresponding subsystem is
// disabled.
func New(cfg *config.Config, c *semantic.SemanticCache, t tracker.Tracker, e *budget.Enforcer, a *audit.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		cache:    c,
		tracker:  t,
		enforcer: e,
		auditor:  a,
		router:   router.New(cfg.Paranoid),
		local:    NewOllamaClient(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.Timeout.Std()),
		cloud:    NewOpenRouterClient(cfg.OpenRouter.URL, cfg.OpenRouter.APIKey, cfg.OpenRouter.Model),
		mux:      http.NewServeMux(),
		started:  time.Now(),
	}
	s.mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	s.mux.HandleFunc("/v1/models", s.handleModels)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/cache/semantic", s.handleCache)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the gateway with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("semgate listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	created := s.started.Unix()
	resp := models.ModelsResponse{
		Object: "list",
		Data: []models.ModelInfo{
			{ID: "auto", Object: "model", Created: created, OwnedBy: "semgate"},
			{ID: "local", Object: "model", Created: created, OwnedBy: "ollama"},
			{ID: "cloud", Object: "model", Created: created, OwnedBy: "openrouter"},
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ollamaUp := s.local.Ping(r.Context())
	status := "ok"
	if !ollamaUp {
		status = "degraded"
	}

	out := map[string]any{
		"status":         status,
		"ollama":         ollamaUp,
		"paranoid":       s.cfg.Paranoid,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if s.cache != nil {
		out["cache_entries"] = s.cache.Len()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	today, err := s.tracker.Totals(r.Context(), midnight)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "usage query failed")
		return
	}
	allTime, err := s.tracker.Totals(r.Context(), time.Time{})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "usage query failed")
		return
	}

	out := map[string]any{
		"today":    today,
		"all_time": allTime,
	}
	if s.cache != nil {
		out["cache"] = s.cache.Stats()
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCache exposes the semantic cache: GET for stats, DELETE to clear.
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeJSONError(w, http.StatusNotFound, "semantic cache disabled")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.cache.Stats())
	case http.MethodDelete:
		s.cache.Clear()
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"semgate_error","code":%d}}`, message, code)
}
