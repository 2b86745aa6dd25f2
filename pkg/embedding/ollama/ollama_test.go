package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEmbed(t *testing.T) {
	var gotModel, gotPrompt string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel, gotPrompt = req.Model, req.Prompt
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float64{0.1, 0.2, 0.3},
		})
	}))
	defer upstream.Close()

	p := New(upstream.URL, "", time.Second)
	vec, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(vec))
	}
	if gotModel != "nomic-embed-text" {
		t.Errorf("expected default model, got %s", gotModel)
	}
	if gotPrompt != "hello" {
		t.Errorf("expected prompt hello, got %s", gotPrompt)
	}
}

func TestEmbedUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer upstream.Close()

	p := New(upstream.URL, "missing-model", time.Second)
	if _, err := p.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}

func TestEmbedEmptyVector(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{}})
	}))
	defer upstream.Close()

	p := New(upstream.URL, "m", time.Second)
	if _, err := p.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}
