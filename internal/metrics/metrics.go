// Package metrics exposes Prometheus counters for assessment runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "signalengine"

	outcomeLabel = "outcome"
	stageLabel   = "stage"
)

// Assessment outcomes.
const (
	OutcomeShow     = "show"
	OutcomeBlock    = "block"
	OutcomeRejected = "rejected"
)

// Recorder owns a private registry with every engine metric. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	assessments       *prometheus.CounterVec
	judgeAttempts     prometheus.Counter
	judgeDegraded     prometheus.Counter
	embeddingFailures prometheus.Counter
	persistFailures   prometheus.Counter
	stageDuration     *prometheus.HistogramVec
	requests          *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Assessment runs partitioned by outcome.",
		}, []string{outcomeLabel}),
		judgeAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_attempts_total",
			Help:      "Calls made to the judgment service, retries included.",
		}),
		judgeDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_degraded_total",
			Help:      "Judgments that fell back to the fail-safe verdict.",
		}),
		embeddingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_failures_total",
			Help:      "Embedding requests that produced no vector.",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Assessments that could not be written to the store.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 20, 40},
		}, []string{stageLabel}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests partitioned by status code, method and route.",
		}, []string{"code", "method", "path"}),
	}

	r.registry.MustRegister(
		r.assessments,
		r.judgeAttempts,
		r.judgeDegraded,
		r.embeddingFailures,
		r.persistFailures,
		r.stageDuration,
		r.requests,
	)
	return r
}

// Registry returns the registry backing this recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Assessment(outcome string) {
	if r == nil {
		return
	}
	r.assessments.WithLabelValues(outcome).Inc()
}

func (r *Recorder) JudgeAttempt() {
	if r == nil {
		return
	}
	r.judgeAttempts.Inc()
}

func (r *Recorder) JudgeDegraded() {
	if r == nil {
		return
	}
	r.judgeDegraded.Inc()
}

func (r *Recorder) EmbeddingFailure() {
	if r == nil {
		return
	}
	r.embeddingFailures.Inc()
}

func (r *Recorder) PersistFailure() {
	if r == nil {
		return
	}
	r.persistFailures.Inc()
}

// ObserveStage records how long stage took since start.
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Middleware counts requests by status code, method and chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	fn := func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			r.requests.WithLabelValues(strconv.Itoa(ww.Status()), req.Method, rctx.RoutePattern()).Inc()
		}
	}
	return http.HandlerFunc(fn)
}
