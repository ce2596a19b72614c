// Package pipeline runs one assessment: navigate, gate, judge, embed,
// persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TobiSchelling/SignalEngine/internal/database"
	"github.com/TobiSchelling/SignalEngine/internal/extract"
	"github.com/TobiSchelling/SignalEngine/internal/judge"
	"github.com/TobiSchelling/SignalEngine/internal/metrics"
	"github.com/TobiSchelling/SignalEngine/internal/textutil"
)

const (
	// MinContentChars is the smallest clean text worth judging.
	MinContentChars = 50
	// JudgeInputChars caps the text handed to the judge.
	JudgeInputChars = 15000
	// EmbedInputChars caps the text handed to the vectorizer.
	EmbedInputChars = 2000
	// PreviewChars is the length of Outcome.CleanTextSnippet.
	PreviewChars = 200

	StatusSuccess = "success"

	InsufficientContent = "insufficient content"
)

// Stage names a pipeline state.
type Stage string

const (
	StageNavigate Stage = "navigate"
	StageGate     Stage = "gate"
	StageJudge    Stage = "judge"
	StageEmbed    Stage = "embed"
	StagePersist  Stage = "persist"
)

// RejectedError is returned when a request cannot be assessed. It is the
// only error Run returns.
type RejectedError struct {
	Stage  Stage
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

// IsRejected reports whether err is a *RejectedError.
func IsRejected(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej)
}

// Request is one assessment to run.
type Request struct {
	URL      string
	Topic    string
	Category Category
}

// Validate checks a request before it enters the pipeline.
func (r Request) Validate() error {
	u, err := url.Parse(r.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid url %q", r.URL)
	}
	if strings.TrimSpace(r.Topic) == "" {
		return errors.New("topic is required")
	}
	if _, err := ParseCategory(string(r.Category)); err != nil {
		return err
	}
	return nil
}

// Outcome is the result of a completed assessment.
type Outcome struct {
	URL                      string
	Title                    string
	Status                   string
	QualityScore             float64
	Decision                 judge.Decision
	IsClickbait              bool
	Reasoning                string
	EstimatedReadTimeSeconds int
	CleanTextSnippet         string
	// RecordID is empty when the outcome could not be persisted.
	RecordID string
}

// Extractor fetches a URL and returns its clean text.
type Extractor interface {
	FetchAndClean(ctx context.Context, url string) extract.Document
}

// Judge returns a verdict for content. It never fails.
type Judge interface {
	AnalyzeContent(ctx context.Context, content, topic, category string) judge.Verdict
}

// Vectorizer returns an embedding, or nil when none could be produced.
type Vectorizer interface {
	GenerateEmbedding(ctx context.Context, text string) []float32
}

// Store persists assessments.
type Store interface {
	InsertAssessment(ctx context.Context, a *database.Assessment) (string, error)
}

// Deps are the collaborators of a Pipeline. Store and Metrics may be nil.
type Deps struct {
	Extractor  Extractor
	Judge      Judge
	Vectorizer Vectorizer
	Store      Store
	Metrics    *metrics.Recorder
}

// Pipeline orchestrates assessments. It holds no per-run state and is safe
// for concurrent use.
type Pipeline struct {
	extractor  Extractor
	judge      Judge
	vectorizer Vectorizer
	store      Store
	metrics    *metrics.Recorder
}

// New creates a pipeline from its collaborators.
func New(d Deps) *Pipeline {
	return &Pipeline{
		extractor:  d.Extractor,
		judge:      d.Judge,
		vectorizer: d.Vectorizer,
		store:      d.Store,
		metrics:    d.Metrics,
	}
}

// Run assesses one request. The only error it returns is a *RejectedError
// for navigation failures and pages with too little text; judgment,
// embedding and persistence problems degrade the outcome instead.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	// Navigate
	start := time.Now()
	doc := p.extractor.FetchAndClean(ctx, req.URL)
	p.metrics.ObserveStage(string(StageNavigate), start)
	if doc.Failed() {
		return nil, p.reject(StageNavigate, doc.Error)
	}

	// Gate
	if textutil.Len(doc.CleanText) < MinContentChars {
		zap.S().Infof("Rejected %s: %d characters of text", req.URL, textutil.Len(doc.CleanText))
		return nil, p.reject(StageGate, InsufficientContent)
	}

	// Judge
	start = time.Now()
	verdict := p.judge.AnalyzeContent(ctx, textutil.Truncate(doc.CleanText, JudgeInputChars), req.Topic, string(req.Category))
	p.metrics.ObserveStage(string(StageJudge), start)

	// Embed
	start = time.Now()
	embedding := p.vectorizer.GenerateEmbedding(ctx, textutil.Truncate(doc.CleanText, EmbedInputChars))
	p.metrics.ObserveStage(string(StageEmbed), start)

	outcome := &Outcome{
		URL:                      req.URL,
		Title:                    doc.Title,
		Status:                   StatusSuccess,
		QualityScore:             verdict.QualityScore,
		Decision:                 verdict.Decision,
		IsClickbait:              verdict.IsClickbait,
		Reasoning:                verdict.Reasoning,
		EstimatedReadTimeSeconds: verdict.EstimatedReadTimeSeconds,
		CleanTextSnippet:         textutil.Truncate(doc.CleanText, PreviewChars),
	}

	// Persist
	start = time.Now()
	outcome.RecordID = p.persist(ctx, req, doc.Title, verdict, embedding)
	p.metrics.ObserveStage(string(StagePersist), start)

	if verdict.Decision == judge.DecisionShow {
		p.metrics.Assessment(metrics.OutcomeShow)
	} else {
		p.metrics.Assessment(metrics.OutcomeBlock)
	}
	zap.S().Infof("Assessed [%s %.2f]: %s", verdict.Decision, verdict.QualityScore, doc.Title)
	return outcome, nil
}

func (p *Pipeline) reject(stage Stage, reason string) error {
	p.metrics.Assessment(metrics.OutcomeRejected)
	return &RejectedError{Stage: stage, Reason: reason}
}

// persist writes the record and returns its ID, or "" on failure.
func (p *Pipeline) persist(ctx context.Context, req Request, title string, v judge.Verdict, embedding []float32) string {
	if p.store == nil {
		return ""
	}

	record := NewAssessment(req, title, v, embedding)
	id, err := p.store.InsertAssessment(ctx, record)
	if err != nil {
		zap.S().Errorf("Failed to persist assessment of %s: %v", req.URL, err)
		p.metrics.PersistFailure()
		return ""
	}
	return id
}

// NewAssessment maps a verdict onto the stored record. The rejection
// reason is set only for blocked content.
func NewAssessment(req Request, title string, v judge.Verdict, embedding []float32) *database.Assessment {
	a := &database.Assessment{
		SourceURL:                req.URL,
		Title:                    title,
		ContentSummary:           v.Reasoning,
		SignalScore:              v.QualityScore,
		IsSignal:                 v.Decision == judge.DecisionShow,
		CategoryCode:             string(req.Category),
		EstimatedReadTimeSeconds: v.EstimatedReadTimeSeconds,
		Embedding:                embedding,
	}
	if !a.IsSignal {
		reason := v.Reasoning
		a.RejectionReason = &reason
	}
	return a
}
