// Package embedding defines the provider interface for turning request
// content into fixed-dimension vectors, plus a memoizing wrapper. Providers
// may be slow (network or model-inference bound); callers must never invoke
// them while holding an exclusive lock on shared state.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable wraps provider failures so callers can degrade to
// exact-only caching without inspecting provider internals.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Provider computes an embedding vector for a piece of text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed implements Provider.
func (f ProviderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}
