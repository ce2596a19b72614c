package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider calls the Google Generative Language generateContent API.
type GeminiProvider struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	client      *http.Client
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(model, apiKey, baseURL string, temperature float64) *GeminiProvider {
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	return &GeminiProvider{
		Model:       model,
		APIKey:      apiKey,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Temperature: temperature,
		client:      newHTTPClient(),
	}
}

func (g *GeminiProvider) Name() string { return "Gemini" }

// IsConfigured checks if the API key is set.
func (g *GeminiProvider) IsConfigured() bool {
	return g.APIKey != ""
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// Generate sends the system instruction and user message and returns the
// concatenated text of the first candidate.
func (g *GeminiProvider) Generate(ctx context.Context, system, user string) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("gemini: %w", ErrNotConfigured)
	}

	body := map[string]any{
		"contents": []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
		"generationConfig": map[string]any{
			"temperature":      g.Temperature,
			"responseMimeType": "application/json",
		},
	}
	if system != "" {
		body["systemInstruction"] = geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	var result struct {
		Candidates []struct {
			Content geminiContent `json:"content"`
		} `json:"candidates"`
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", g.BaseURL, g.Model)
	if err := postJSON(ctx, g.client, url, map[string]string{"x-goog-api-key": g.APIKey}, body, &result); err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates in response")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// GeminiEmbedder generates embeddings via the embedContent API.
type GeminiEmbedder struct {
	Model   string
	APIKey  string
	BaseURL string
	client  *http.Client
}

// NewGeminiEmbedder creates a new Gemini embedder.
func NewGeminiEmbedder(model, apiKey, baseURL string) *GeminiEmbedder {
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	return &GeminiEmbedder{
		Model:   model,
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

// Embed generates one embedding per text.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent", e.BaseURL, e.Model)
	headers := map[string]string{"x-goog-api-key": e.APIKey}

	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		body := map[string]any{
			"model":   "models/" + e.Model,
			"content": geminiContent{Parts: []geminiPart{{Text: text}}},
		}
		var result struct {
			Embedding struct {
				Values []float32 `json:"values"`
			} `json:"embedding"`
		}
		if err := postJSON(ctx, e.client, url, headers, body, &result); err != nil {
			return nil, fmt.Errorf("gemini embed: %w", err)
		}
		out = append(out, result.Embedding.Values)
	}
	return out, nil
}
