package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by remote providers called without a credential.
var ErrNotConfigured = errors.New("API key not configured")

// Provider is the interface for judgment (chat completion) providers.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, user string) (string, error)
	IsConfigured() bool
}

// Embedder is the interface for generating embeddings.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Options selects and configures a provider.
type Options struct {
	Provider       string
	Model          string
	EmbeddingModel string
	APIKey         string
	BaseURL        string
	Temperature    float64
}

const defaultHTTPTimeout = 60 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// CreateProvider creates the judgment provider named in opts. Providers are
// returned even when unconfigured so misconfiguration surfaces as a per-call
// error rather than a startup failure.
func CreateProvider(opts Options) Provider {
	var p Provider
	switch strings.ToLower(opts.Provider) {
	case "ollama":
		p = NewOllamaProvider(opts.Model, opts.BaseURL, opts.Temperature)
	case "openai":
		p = NewOpenAIProvider(opts.Model, opts.APIKey, opts.BaseURL, opts.Temperature)
	default:
		p = NewGeminiProvider(opts.Model, opts.APIKey, opts.BaseURL, opts.Temperature)
	}

	if p.IsConfigured() {
		zap.S().Infof("Using %s with model: %s", p.Name(), opts.Model)
	} else {
		zap.S().Warnf("%s provider is not configured; judgments will fail until it is", p.Name())
	}
	return p
}

// CreateEmbedder creates the embedding client matching opts.Provider.
func CreateEmbedder(opts Options) Embedder {
	switch strings.ToLower(opts.Provider) {
	case "ollama":
		return NewOllamaEmbedder(opts.EmbeddingModel, opts.BaseURL)
	case "openai":
		return NewOpenAIEmbedder(opts.EmbeddingModel, opts.APIKey, opts.BaseURL)
	default:
		return NewGeminiEmbedder(opts.EmbeddingModel, opts.APIKey, opts.BaseURL)
	}
}

// postJSON sends body as JSON and decodes a 200 response into out.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// StatusError reports a non-200 answer from a provider API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.Code, e.Body)
}
