package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()

	r.Assessment(OutcomeShow)
	r.Assessment(OutcomeShow)
	r.Assessment(OutcomeRejected)
	r.JudgeAttempt()
	r.JudgeAttempt()
	r.JudgeAttempt()
	r.JudgeDegraded()
	r.EmbeddingFailure()
	r.PersistFailure()
	r.ObserveStage("judge", time.Now().Add(-time.Second))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.assessments.WithLabelValues(OutcomeShow)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.assessments.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.judgeAttempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.judgeDegraded))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.embeddingFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.persistFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(r.stageDuration))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Assessment(OutcomeBlock)
		r.JudgeAttempt()
		r.JudgeDegraded()
		r.EmbeddingFailure()
		r.PersistFailure()
		r.ObserveStage("navigate", time.Now())
	})
	assert.Nil(t, r.Registry())

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	assert.NotNil(t, r.Middleware(next))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.Assessment(OutcomeBlock)

	router := chi.NewRouter()
	router.Use(r.Middleware)
	router.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	router.Handle("/metrics", r.Handler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `signalengine_assessments_total{outcome="block"} 1`))
	assert.True(t, strings.Contains(body, `signalengine_http_requests_total{code="204",method="GET",path="/ping"} 1`))
}
