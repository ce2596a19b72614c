package database

import "time"

// Assessment is one persisted pipeline outcome. Records are append-only.
type Assessment struct {
	ID                       string
	SourceURL                string
	Title                    string
	ContentSummary           string
	SignalScore              float64
	IsSignal                 bool
	RejectionReason          *string // set only when the content was blocked
	CategoryCode             string
	EstimatedReadTimeSeconds int
	Embedding                []float32 // nil when no vector was produced or it was not loaded
	HasEmbedding             bool      // set on reads whether or not Embedding is loaded
	AnalyzedAt               time.Time
}

// Filter narrows ListAssessments. A nil IsSignal matches both decisions.
type Filter struct {
	IsSignal *bool
	Limit    int
}

// Stats aggregates the whole history.
type Stats struct {
	Total                  int     `json:"total"`
	Signals                int     `json:"signals"`
	Noise                  int     `json:"noise"`
	TotalReadTimeSeconds   int     `json:"total_read_time_seconds"`
	BlockedReadTimeSeconds int     `json:"blocked_read_time_seconds"`
	AvgScore               float64 `json:"avg_score"`
}
