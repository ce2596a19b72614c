// Package server exposes the assessment pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/TobiSchelling/SignalEngine/internal/database"
	"github.com/TobiSchelling/SignalEngine/internal/metrics"
	"github.com/TobiSchelling/SignalEngine/internal/pipeline"
)

const gracefulShutdownTimeout = 5 * time.Second

// Assessor runs one assessment.
type Assessor interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

// History reads persisted assessments.
type History interface {
	ListAssessments(ctx context.Context, f database.Filter) ([]database.Assessment, error)
	GetAssessment(ctx context.Context, id string) (*database.Assessment, error)
	SimilarAssessments(ctx context.Context, id string, limit int) ([]database.Match, error)
	GetStats(ctx context.Context) (*database.Stats, error)
}

// Info describes the running system for the root and health endpoints.
type Info struct {
	Database     string
	AIProvider   string
	APIKeyLoaded bool
}

// Options configure a Server. History and Metrics may be nil.
type Options struct {
	Assessor Assessor
	History  History
	Metrics  *metrics.Recorder
	Info     Info
	Logger   *zap.Logger
}

// Server is the HTTP API.
type Server struct {
	assessor  Assessor
	history   History
	metrics   *metrics.Recorder
	info      Info
	validator *Validator
	router    *chi.Mux
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.L()
	}

	s := &Server{
		assessor:  opts.Assessor,
		history:   opts.History,
		metrics:   opts.Metrics,
		info:      opts.Info,
		validator: NewValidator(),
		router:    chi.NewRouter(),
	}

	s.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(logger, "http"),
		s.metrics.Middleware,
		middleware.Recoverer,
	)
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/history", s.handleHistory)
		r.Get("/history/{id}", s.handleAssessment)
		r.Get("/history/{id}/similar", s.handleSimilar)
		r.Get("/stats", s.handleStats)
	})
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, s *Server, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Info("server terminated")
	}()

	zap.S().Infof("Server listening on http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving on %s: %w", addr, err)
	}
	return nil
}
