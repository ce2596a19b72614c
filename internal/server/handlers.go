package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/TobiSchelling/SignalEngine/internal/database"
	"github.com/TobiSchelling/SignalEngine/internal/pipeline"
)

const (
	maxRequestBytes     = 1 << 20
	maxHistoryLimit     = 500
	defaultSimilarLimit = 10
	maxSimilarLimit     = 100
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, RootReply{
		Status:     "online",
		System:     "The Signal Engine",
		Database:   s.info.Database,
		AIProvider: s.info.AIProvider,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "Missing"
	if s.info.APIKeyLoaded {
		status = "Loaded"
	}
	_ = render.Render(w, r, HealthReply{APIKeyStatus: status})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body AnalyzeRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxRequestBytes), &body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.fail(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(&body); err != nil {
		s.fail(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	category, _ := pipeline.ParseCategory(body.Category)
	outcome, err := s.assessor.Run(r.Context(), pipeline.Request{
		URL:      body.URL,
		Topic:    body.Topic,
		Category: category,
	})
	if err != nil {
		var rej *pipeline.RejectedError
		if errors.As(err, &rej) {
			s.fail(w, r, http.StatusUnprocessableEntity, rej.Reason)
			return
		}
		zap.S().Errorf("Assessment of %s failed: %v", body.URL, err)
		s.fail(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = render.Render(w, r, NewAnalysisReply(outcome))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.fail(w, r, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	var f database.Filter
	if v := r.URL.Query().Get("signal"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, "signal must be true or false")
			return
		}
		f.IsSignal = &b
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			s.fail(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		f.Limit = n
	}

	items, err := s.history.ListAssessments(r.Context(), f)
	if err != nil {
		zap.S().Errorf("Listing history: %v", err)
		s.fail(w, r, http.StatusInternalServerError, "could not read history")
		return
	}

	replies := make([]render.Renderer, len(items))
	for i := range items {
		replies[i] = NewAssessmentReply(&items[i])
	}
	_ = render.RenderList(w, r, replies)
}

func (s *Server) handleAssessment(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.fail(w, r, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	a, err := s.history.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	_ = render.Render(w, r, NewAssessmentReply(a))
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.fail(w, r, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	limit := defaultSimilarLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSimilarLimit {
			s.fail(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	matches, err := s.history.SimilarAssessments(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	replies := make([]render.Renderer, len(matches))
	for i := range matches {
		replies[i] = SimilarReply{
			AssessmentReply: NewAssessmentReply(&matches[i].Assessment),
			Distance:        matches[i].Distance,
		}
	}
	_ = render.RenderList(w, r, replies)
}

// storeError maps lookup errors to 404, 409 or 500.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.fail(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrNoEmbedding):
		s.fail(w, r, http.StatusConflict, err.Error())
	default:
		zap.S().Errorf("Reading history: %v", err)
		s.fail(w, r, http.StatusInternalServerError, "could not read history")
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.fail(w, r, http.StatusServiceUnavailable, "history store not configured")
		return
	}

	stats, err := s.history.GetStats(r.Context())
	if err != nil {
		zap.S().Errorf("Computing stats: %v", err)
		s.fail(w, r, http.StatusInternalServerError, "could not compute stats")
		return
	}
	_ = render.Render(w, r, StatsReply{Stats: *stats})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, code int, detail string) {
	_ = render.Render(w, r, ErrorReply{StatusCode: code, Detail: detail})
}
