package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider is an OpenAI-compatible chat completions provider.
type OpenAIProvider struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	client      *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(model, apiKey, baseURL string, temperature float64) *OpenAIProvider {
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	return &OpenAIProvider{
		Model:       model,
		APIKey:      apiKey,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Temperature: temperature,
		client:      newHTTPClient(),
	}
}

func (o *OpenAIProvider) Name() string { return "OpenAI" }

// IsConfigured checks if the API key is set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.APIKey != ""
}

// Generate sends the system and user messages to OpenAI and returns the response.
func (o *OpenAIProvider) Generate(ctx context.Context, system, user string) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	var messages []map[string]string
	if system != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": user})

	body := map[string]any{
		"model":           o.Model,
		"messages":        messages,
		"temperature":     o.Temperature,
		"response_format": map[string]string{"type": "json_object"},
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + o.APIKey}
	if err := postJSON(ctx, o.client, o.BaseURL+"/chat/completions", headers, body, &result); err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	return result.Choices[0].Message.Content, nil
}

// OpenAIEmbedder generates embeddings via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
	client     *http.Client
}

// NewOpenAIEmbedder creates an embedder that requests 768-dimension vectors.
func NewOpenAIEmbedder(model, apiKey, baseURL string) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	return &OpenAIEmbedder{
		Model:      model,
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Dimensions: 768,
		client:     newHTTPClient(),
	}
}

// Embed generates embeddings for the given texts.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	body := map[string]any{
		"model":      e.Model,
		"input":      texts,
		"dimensions": e.Dimensions,
	}

	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	headers := map[string]string{"Authorization": "Bearer " + e.APIKey}
	if err := postJSON(ctx, e.client, e.BaseURL+"/embeddings", headers, body, &result); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}
