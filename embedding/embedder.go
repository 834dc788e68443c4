// Package embedding adapts a sentence-embedding model to the narrative
// engine. Embedding output never influences narrative text; it is consumed
// only by similarity scoring.
package embedding

import (
	"context"
	"errors"
)

// ErrNotReady is returned when the model has not finished loading.
var ErrNotReady = errors.New("embedding model not ready")

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float64, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}
