// Package server exposes the patch engine as a JSON REST API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-guard/internal/engine"
	"github.com/jonathan/resume-guard/internal/server/ratelimit"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 2 << 20

const shutdownGrace = 30 * time.Second

// Server serves the engine over HTTP.
type Server struct {
	httpServer  *http.Server
	engine      *engine.Engine
	rateLimiter *ratelimit.Limiter
	logger      *zap.Logger
}

// Config holds server configuration. A nil RateLimit uses ratelimit.DefaultConfig.
type Config struct {
	Port      int
	RateLimit *ratelimit.Config
	Logger    *zap.Logger
}

// New creates a server for the engine.
func New(cfg Config, eng *engine.Engine) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		engine:      eng,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		logger:      log,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// bullet rewrites and jd_url fetches wait on upstream services
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /ats-score", s.handleScore)

	mux.HandleFunc("POST /resumes", s.handleCreateResume)
	mux.HandleFunc("GET /resumes/{resume_id}", s.handleGetResume)
	mux.HandleFunc("GET /resumes/{resume_id}/versions", s.handleResumeHistory)
	mux.HandleFunc("GET /resumes/{resume_id}/text", s.handleResumeText)

	mux.HandleFunc("POST /resumes/{resume_id}/suggest-patches", s.handleSuggest)
	mux.HandleFunc("POST /resumes/{resume_id}/blocked-plan", s.handleBlockedPlan)
	mux.HandleFunc("POST /resumes/{resume_id}/apply-patches", s.handleApply)
	mux.HandleFunc("POST /resumes/{resume_id}/include-skills", s.handleIncludeSkills)
	mux.HandleFunc("POST /resumes/{resume_id}/rewrite-bullet", s.handleRewriteBullet)

	mux.HandleFunc("GET /resumes/{resume_id}/overrides", s.handleListOverrides)
	mux.HandleFunc("POST /resumes/{resume_id}/overrides", s.handleAddOverrides)
	mux.HandleFunc("POST /resumes/{resume_id}/overrides/from-blocked", s.handleOverridesFromBlocked)

	return chain(mux, withRequestID, s.withLogging, s.withRateLimit, s.withCORS)
}

// Start serves until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests. Applies already past their
// version check finish their commit.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer s.rateLimiter.Stop()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.httpServer.Addr))
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("grace", shutdownGrace))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
