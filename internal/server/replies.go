package server

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/TobiSchelling/SignalEngine/internal/database"
	"github.com/TobiSchelling/SignalEngine/internal/pipeline"
)

// RootReply is the body of GET /.
type RootReply struct {
	Status     string `json:"status"`
	System     string `json:"system"`
	Database   string `json:"database"`
	AIProvider string `json:"ai_provider"`
}

// HealthReply is the body of GET /health.
type HealthReply struct {
	APIKeyStatus string `json:"api_key_status"`
}

// AnalysisReply is the body of a successful POST /api/v1/analyze.
type AnalysisReply struct {
	URL               string  `json:"url"`
	Title             string  `json:"title"`
	Status            string  `json:"status"`
	QualityScore      float64 `json:"quality_score"`
	Decision          string  `json:"decision"`
	IsClickbait       bool    `json:"is_clickbait"`
	Reasoning         string  `json:"reasoning"`
	EstimatedReadTime int     `json:"estimated_read_time"`
	CleanTextSnippet  string  `json:"clean_text_snippet,omitempty"`
	RecordID          string  `json:"record_id,omitempty"`
}

func NewAnalysisReply(o *pipeline.Outcome) AnalysisReply {
	return AnalysisReply{
		URL:               o.URL,
		Title:             o.Title,
		Status:            o.Status,
		QualityScore:      o.QualityScore,
		Decision:          string(o.Decision),
		IsClickbait:       o.IsClickbait,
		Reasoning:         o.Reasoning,
		EstimatedReadTime: o.EstimatedReadTimeSeconds,
		CleanTextSnippet:  o.CleanTextSnippet,
		RecordID:          o.RecordID,
	}
}

// AssessmentReply is one history entry. Embeddings are not exposed.
type AssessmentReply struct {
	ID                       string    `json:"id"`
	SourceURL                string    `json:"source_url"`
	Title                    string    `json:"title"`
	ContentSummary           string    `json:"content_summary"`
	SignalScore              float64   `json:"signal_score"`
	IsSignal                 bool      `json:"is_signal"`
	RejectionReason          *string   `json:"rejection_reason"`
	CategoryCode             string    `json:"category_code"`
	EstimatedReadTimeSeconds int       `json:"estimated_read_time_seconds"`
	HasEmbedding             bool      `json:"has_embedding"`
	AnalyzedAt               time.Time `json:"analyzed_at"`
}

func NewAssessmentReply(a *database.Assessment) AssessmentReply {
	return AssessmentReply{
		ID:                       a.ID,
		SourceURL:                a.SourceURL,
		Title:                    a.Title,
		ContentSummary:           a.ContentSummary,
		SignalScore:              a.SignalScore,
		IsSignal:                 a.IsSignal,
		RejectionReason:          a.RejectionReason,
		CategoryCode:             a.CategoryCode,
		EstimatedReadTimeSeconds: a.EstimatedReadTimeSeconds,
		HasEmbedding:             a.HasEmbedding,
		AnalyzedAt:               a.AnalyzedAt,
	}
}

// SimilarReply is a history entry with its cosine distance to the reference.
type SimilarReply struct {
	AssessmentReply
	Distance float64 `json:"distance"`
}

// StatsReply is the body of GET /api/v1/stats.
type StatsReply struct {
	database.Stats
}

// ErrorReply carries a failure as {"detail": "..."}.
type ErrorReply struct {
	StatusCode int    `json:"-"`
	Detail     string `json:"detail"`
}

func (e ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func (RootReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (HealthReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (AnalysisReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (AssessmentReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (SimilarReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (StatsReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}
