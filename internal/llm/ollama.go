package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const ollamaBaseURL = "http://localhost:11434"

// OllamaProvider is a local Ollama LLM provider.
type OllamaProvider struct {
	Model       string
	BaseURL     string
	Temperature float64
	client      *http.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(model, baseURL string, temperature float64) *OllamaProvider {
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	return &OllamaProvider{
		Model:       model,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Temperature: temperature,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OllamaProvider) Name() string { return "Ollama" }

// IsConfigured checks if Ollama is running and the model is available.
func (o *OllamaProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range result.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	zap.S().Warnf("Ollama model %q not found", o.Model)
	return false
}

// Generate sends the conversation to Ollama and returns the response.
func (o *OllamaProvider) Generate(ctx context.Context, system, user string) (string, error) {
	var messages []map[string]string
	if system != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": user})

	body := map[string]any{
		"model":    o.Model,
		"messages": messages,
		"stream":   false,
		"format":   "json",
		"options": map[string]any{
			"temperature": o.Temperature,
		},
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := postJSON(ctx, o.client, o.BaseURL+"/api/chat", nil, body, &result); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	return result.Message.Content, nil
}

// OllamaEmbedder generates embeddings via the Ollama API.
type OllamaEmbedder struct {
	Model   string
	BaseURL string
	client  *http.Client
}

// NewOllamaEmbedder creates a new Ollama embedder.
func NewOllamaEmbedder(model, baseURL string) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	return &OllamaEmbedder{
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Embed generates embeddings for the given texts.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body := map[string]any{
		"model": e.Model,
		"input": texts,
	}

	var result struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := postJSON(ctx, e.client, e.BaseURL+"/api/embed", nil, body, &result); err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	return result.Embeddings, nil
}
