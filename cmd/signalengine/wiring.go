package main

import (
	"fmt"
	"time"

	"github.com/TobiSchelling/SignalEngine/internal/database"
	"github.com/TobiSchelling/SignalEngine/internal/extract"
	"github.com/TobiSchelling/SignalEngine/internal/judge"
	"github.com/TobiSchelling/SignalEngine/internal/llm"
	"github.com/TobiSchelling/SignalEngine/internal/metrics"
	"github.com/TobiSchelling/SignalEngine/internal/pipeline"
	"github.com/TobiSchelling/SignalEngine/internal/vectorize"
)

func openDB() (*database.DB, error) {
	return database.Open(cfg.DatabaseURL())
}

func llmOptions() llm.Options {
	return llm.Options{
		Provider:       cfg.LLM.Provider,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		APIKey:         cfg.APIKey(),
		BaseURL:        cfg.LLM.BaseURL,
		Temperature:    cfg.LLM.Temperature,
	}
}

func newRenderer() extract.Renderer {
	if cfg.Extract.Renderer == "http" {
		return extract.NewHTTPRenderer(cfg.Extract.UserAgent, cfg.Extract.Timeout)
	}
	return extract.NewBrowserRenderer(cfg.Extract.UserAgent, cfg.Extract.Timeout)
}

// buildPipeline wires every collaborator from cfg. store may be nil.
func buildPipeline(store pipeline.Store, rec *metrics.Recorder) (*pipeline.Pipeline, llm.Provider) {
	opts := llmOptions()
	provider := llm.CreateProvider(opts)

	p := pipeline.New(pipeline.Deps{
		Extractor: extract.New(newRenderer(), extract.Mode(cfg.Extract.Mode)),
		Judge: judge.New(provider, judge.Options{
			MaxAttempts:    cfg.Judge.MaxAttempts,
			InitialBackoff: cfg.Judge.InitialBackoff,
			MaxBackoff:     cfg.Judge.MaxBackoff,
			SystemPrompt:   cfg.Judge.SystemPrompt,
			Metrics:        rec,
		}),
		Vectorizer: vectorize.New(llm.CreateEmbedder(opts), rec),
		Store:      store,
		Metrics:    rec,
	})
	return p, provider
}

func formatSeconds(s int) string {
	return (time.Duration(s) * time.Second).String()
}

func parseRequest(url, topic, category string) (pipeline.Request, error) {
	c, err := pipeline.ParseCategory(category)
	if err != nil {
		return pipeline.Request{}, err
	}
	req := pipeline.Request{URL: url, Topic: topic, Category: c}
	if err := req.Validate(); err != nil {
		return pipeline.Request{}, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}
