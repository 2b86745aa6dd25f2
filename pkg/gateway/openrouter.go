package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/semgate-ai/semgate/pkg/models"
)

// OpenRouterClient runs chat inference against OpenRouter's
// OpenAI-compatible API, letting its auto-router pick a concrete model.
type OpenRouterClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenRouterClient creates a cloud inference client.
func NewOpenRouterClient(baseURL, apiKey, model string) *OpenRouterClient {
	if model == "" {
		model = "openrouter/auto"
	}
	return &OpenRouterClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Chat runs a non-streaming chat completion.
func (c *OpenRouterClient) Chat(ctx context.Context, messages []models.ChatMessage) (*ChatResult, error) {
	payload, err := json.Marshal(map[string]any{
		"model":    c.model,
		"messages": messages,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal openrouter request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create openrouter request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openrouter response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openrouter returned %d: %s", resp.StatusCode, body)
	}

	var out models.ChatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse openrouter response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("openrouter returned no choices")
	}

	return &ChatResult{
		Response:         out.Choices[0].Message.Content,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
	}, nil
}
