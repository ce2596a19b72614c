package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"decision\":"},{"text":"\"SHOW\"}"}]}}]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider("gemini-2.0-flash", "k", srv.URL, 0.1)
	out, err := p.Generate(context.Background(), "be ruthless", "TOPIC: Go")
	require.NoError(t, err)
	assert.Equal(t, `{"decision":"SHOW"}`, out)

	sys := got["systemInstruction"].(map[string]any)
	parts := sys["parts"].([]any)
	assert.Equal(t, "be ruthless", parts[0].(map[string]any)["text"])
	gen := got["generationConfig"].(map[string]any)
	assert.InDelta(t, 0.1, gen["temperature"], 1e-9)
}

func TestGeminiNotConfigured(t *testing.T) {
	p := NewGeminiProvider("gemini-2.0-flash", "", "", 0.1)
	assert.False(t, p.IsConfigured())
	_, err := p.Generate(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrNotConfigured)

	e := NewGeminiEmbedder("text-embedding-004", "", "")
	_, err = e.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGeminiEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-embedding-004:embedContent", r.URL.Path)
		w.Write([]byte(`{"embedding":{"values":[0.1,0.2,0.3]}}`))
	}))
	defer srv.Close()

	e := NewGeminiEmbedder("text-embedding-004", "k", srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vecs[1])
}

func TestProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("quota exceeded"))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("gpt-4o-mini", "k", srv.URL, 0.1)
	_, err := p.Generate(context.Background(), "sys", "user")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Contains(t, se.Body, "quota")
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var body struct {
			Messages []map[string]string `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0]["role"])
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("gpt-4o-mini", "k", srv.URL, 0.1)
	out, err := p.Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestOpenAIEmbedKeepsInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"index":1,"embedding":[2]},{"index":0,"embedding":[1]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder("text-embedding-3-small", "k", srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vecs)
}

func TestOllamaGenerateAndEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			w.Write([]byte(`{"message":{"content":"hello"}}`))
		case "/api/embed":
			w.Write([]byte(`{"embeddings":[[0.5,0.25]]}`))
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"qwen2.5:7b"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewOllamaProvider("qwen2.5:7b", srv.URL, 0.1)
	assert.True(t, p.IsConfigured())
	out, err := p.Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	e := NewOllamaEmbedder("nomic-embed-text", srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0.25}}, vecs)
}

func TestCreateProviderSelectsByName(t *testing.T) {
	assert.IsType(t, &OpenAIProvider{}, CreateProvider(Options{Provider: "OpenAI", APIKey: "k"}))
	assert.IsType(t, &GeminiProvider{}, CreateProvider(Options{Provider: "gemini"}))
	assert.IsType(t, &OpenAIEmbedder{}, CreateEmbedder(Options{Provider: "openai"}))
	assert.IsType(t, &GeminiEmbedder{}, CreateEmbedder(Options{Provider: "gemini"}))
	assert.IsType(t, &OllamaEmbedder{}, CreateEmbedder(Options{Provider: "ollama"}))
}
