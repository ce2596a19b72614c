// Package judge asks the judgment service for a quality verdict and shields
// callers from its failures.
package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/TobiSchelling/SignalEngine/internal/llm"
	"github.com/TobiSchelling/SignalEngine/internal/metrics"
	"github.com/TobiSchelling/SignalEngine/internal/textutil"
)

// MaxContentChars caps the content sent for judgment.
const MaxContentChars = 15000

// MaxReadTimeSeconds caps the estimated read time taken from a response.
const MaxReadTimeSeconds = 24 * 60 * 60

const (
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 2 * time.Second
	DefaultMaxBackoff     = 10 * time.Second
)

// FailSafeReasoning is the reasoning attached to the fail-safe verdict.
const FailSafeReasoning = "judgment service temporarily unavailable"

// ErrRetryable wraps every failure of a single judgment attempt: transport,
// quota and unparseable responses alike.
var ErrRetryable = errors.New("retryable judgment failure")

// Decision is the editorial outcome for a piece of content.
type Decision string

const (
	DecisionShow  Decision = "SHOW"
	DecisionBlock Decision = "BLOCK"
)

// ParseDecision accepts SHOW or BLOCK in any case.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToUpper(strings.TrimSpace(s))); d {
	case DecisionShow, DecisionBlock:
		return d, nil
	default:
		return "", fmt.Errorf("unknown decision %q", s)
	}
}

// Verdict is the structured result of one judgment. Score and decision are
// carried exactly as the service returned them.
type Verdict struct {
	QualityScore             float64
	Decision                 Decision
	Reasoning                string
	IsClickbait              bool
	EstimatedReadTimeSeconds int
}

// FailSafe is the verdict used when the service cannot be reached.
func FailSafe() Verdict {
	return Verdict{
		QualityScore: 0.0,
		Decision:     DecisionBlock,
		Reasoning:    FailSafeReasoning,
	}
}

// IsFailSafe reports whether v is the fail-safe verdict.
func (v Verdict) IsFailSafe() bool {
	return v == FailSafe()
}

// ScoreAnomaly reports a quality score outside [0, 1].
func (v Verdict) ScoreAnomaly() bool {
	return v.QualityScore < 0 || v.QualityScore > 1
}

// Options tune the retry policy.
type Options struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	SystemPrompt   string
	Metrics        *metrics.Recorder
}

// Judge produces verdicts through an llm.Provider.
type Judge struct {
	provider       llm.Provider
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	systemPrompt   string
	metrics        *metrics.Recorder

	// onRetry observes each scheduled wait. Used by tests.
	onRetry func(attempt int, wait time.Duration)
}

// New creates a Judge. Zero option values take the defaults.
func New(provider llm.Provider, opts Options) *Judge {
	j := &Judge{
		provider:       provider,
		maxAttempts:    opts.MaxAttempts,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
		systemPrompt:   opts.SystemPrompt,
		metrics:        opts.Metrics,
	}
	if j.maxAttempts <= 0 {
		j.maxAttempts = DefaultMaxAttempts
	}
	if j.initialBackoff <= 0 {
		j.initialBackoff = DefaultInitialBackoff
	}
	if j.maxBackoff <= 0 {
		j.maxBackoff = DefaultMaxBackoff
	}
	if j.systemPrompt == "" {
		j.systemPrompt = DefaultSystemPrompt
	}
	return j
}

// AnalyzeContent judges content against topic and category. It always
// returns a verdict: once retries are exhausted, or ctx is done, the
// fail-safe verdict is returned instead of an error.
func (j *Judge) AnalyzeContent(ctx context.Context, content, topic, category string) Verdict {
	user := fmt.Sprintf(userTemplate, topic, category, textutil.Truncate(content, MaxContentChars))

	var verdict Verdict
	attempt := 0
	err := retry.Do(ctx, j.backoff(), func(ctx context.Context) error {
		attempt++
		j.metrics.JudgeAttempt()

		v, err := j.attempt(ctx, user)
		if err != nil {
			zap.S().Debugf("Judgment attempt %d failed: %v", attempt, err)
			return retry.RetryableError(err)
		}
		verdict = v
		return nil
	})
	if err != nil {
		zap.S().Warnf("Judgment degraded after %d attempt(s): %v", attempt, err)
		j.metrics.JudgeDegraded()
		return FailSafe()
	}

	if verdict.ScoreAnomaly() {
		zap.S().Warnf("Judgment returned out-of-range quality score %.3f", verdict.QualityScore)
	}
	return verdict
}

// backoff builds a fresh schedule for one call: exponential from the
// initial wait, capped, limited to maxAttempts-1 retries.
func (j *Judge) backoff() retry.Backoff {
	b := retry.NewExponential(j.initialBackoff)
	b = retry.WithCappedDuration(j.maxBackoff, b)
	b = retry.WithMaxRetries(uint64(j.maxAttempts-1), b)

	retries := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		wait, stop := b.Next()
		if stop {
			return 0, true
		}
		retries++
		zap.S().Warnf("Judgment service failed, retry %d/%d in %s", retries, j.maxAttempts-1, wait)
		if j.onRetry != nil {
			j.onRetry(retries, wait)
		}
		return wait, false
	})
}

func (j *Judge) attempt(ctx context.Context, user string) (Verdict, error) {
	text, err := j.provider.Generate(ctx, j.systemPrompt, user)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrRetryable, err)
	}
	v, err := ParseVerdict(text)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrRetryable, err)
	}
	return v, nil
}

type rawVerdict struct {
	QualityScore      *float64 `json:"quality_score"`
	Decision          string   `json:"decision"`
	AnalysisReasoning string   `json:"analysis_reasoning"`
	Reasoning         string   `json:"reasoning"`
	IsClickbait       bool     `json:"is_clickbait"`
	EstimatedReadTime *float64 `json:"estimated_read_time_seconds"`
}

// ParseVerdict decodes a judgment response, tolerating code fences.
func ParseVerdict(text string) (Verdict, error) {
	var raw rawVerdict
	if err := llm.DecodeJSON(text, &raw); err != nil {
		return Verdict{}, err
	}
	if raw.QualityScore == nil {
		return Verdict{}, errors.New("response is missing quality_score")
	}
	decision, err := ParseDecision(raw.Decision)
	if err != nil {
		return Verdict{}, err
	}

	reasoning := raw.AnalysisReasoning
	if reasoning == "" {
		reasoning = raw.Reasoning
	}

	readTime := 0
	if raw.EstimatedReadTime != nil && *raw.EstimatedReadTime > 0 {
		secs := *raw.EstimatedReadTime
		if secs > MaxReadTimeSeconds {
			zap.S().Warnf("Judgment returned read time %g s, capping at %d", secs, MaxReadTimeSeconds)
			secs = MaxReadTimeSeconds
		}
		readTime = int(secs)
	}

	return Verdict{
		QualityScore:             *raw.QualityScore,
		Decision:                 decision,
		Reasoning:                reasoning,
		IsClickbait:              raw.IsClickbait,
		EstimatedReadTimeSeconds: readTime,
	}, nil
}
