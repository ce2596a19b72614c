// Package vectorize produces semantic embeddings on a best-effort basis.
package vectorize

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TobiSchelling/SignalEngine/internal/llm"
	"github.com/TobiSchelling/SignalEngine/internal/metrics"
	"github.com/TobiSchelling/SignalEngine/internal/textutil"
)

const (
	// Dimension is the length of every stored embedding.
	Dimension = 768
	// MaxChars caps the text sent to the embedding service.
	MaxChars = 10000
)

// Vectorizer wraps an llm.Embedder and never fails loudly.
type Vectorizer struct {
	embedder llm.Embedder
	metrics  *metrics.Recorder
}

// New creates a Vectorizer. rec may be nil.
func New(embedder llm.Embedder, rec *metrics.Recorder) *Vectorizer {
	return &Vectorizer{embedder: embedder, metrics: rec}
}

// GenerateEmbedding returns the embedding of text, or nil when the service
// fails or answers with a vector of the wrong size.
func (v *Vectorizer) GenerateEmbedding(ctx context.Context, text string) []float32 {
	vec, err := v.embed(ctx, textutil.Truncate(text, MaxChars))
	if err != nil {
		zap.S().Warnf("Embedding unavailable: %v", err)
		v.metrics.EmbeddingFailure()
		return nil
	}
	return vec
}

func (v *Vectorizer) embed(ctx context.Context, text string) ([]float32, error) {
	if v.embedder == nil {
		return nil, llm.ErrNotConfigured
	}
	vecs, err := v.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	if len(vecs[0]) != Dimension {
		return nil, fmt.Errorf("expected %d dimensions, got %d", Dimension, len(vecs[0]))
	}
	return vecs[0], nil
}
