package vectorize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/SignalEngine/internal/metrics"
	"github.com/TobiSchelling/SignalEngine/internal/textutil"
)

// mockEmbedder implements llm.Embedder for testing.
type mockEmbedder struct {
	dim   int
	err   error
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.texts = append(m.texts, texts...)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, m.dim)
		out[i][0] = 0.5
	}
	return out, nil
}

func TestGenerateEmbedding(t *testing.T) {
	e := &mockEmbedder{dim: Dimension}
	vec := New(e, nil).GenerateEmbedding(context.Background(), "hello world")

	require.Len(t, vec, Dimension)
	assert.Equal(t, float32(0.5), vec[0])
	assert.Equal(t, []string{"hello world"}, e.texts)
}

func TestGenerateEmbeddingTruncates(t *testing.T) {
	e := &mockEmbedder{dim: Dimension}
	New(e, nil).GenerateEmbedding(context.Background(), strings.Repeat("ü", MaxChars+1))

	require.Len(t, e.texts, 1)
	assert.Equal(t, MaxChars, textutil.Len(e.texts[0]))
}

const embeddingFailuresOne = `
# HELP signalengine_embedding_failures_total Embedding requests that produced no vector.
# TYPE signalengine_embedding_failures_total counter
signalengine_embedding_failures_total 1
`

func TestGenerateEmbeddingFailuresAreAbsent(t *testing.T) {
	tests := []struct {
		name     string
		embedder *mockEmbedder
	}{
		{name: "service error", embedder: &mockEmbedder{err: errors.New("503")}},
		{name: "wrong dimension", embedder: &mockEmbedder{dim: 384}},
		{name: "empty vector", embedder: &mockEmbedder{dim: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := metrics.New()
			vec := New(tt.embedder, rec).GenerateEmbedding(context.Background(), "text")
			assert.Nil(t, vec)
			assert.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(embeddingFailuresOne), "signalengine_embedding_failures_total"))
		})
	}
}

func TestGenerateEmbeddingWithoutEmbedder(t *testing.T) {
	assert.Nil(t, New(nil, nil).GenerateEmbedding(context.Background(), "text"))
}
