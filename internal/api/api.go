// Package api exposes the analysis operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"

	"github.com/dyike/PortfolioGo/models"
)

// Backend is the set of operations the API serves.
type Backend interface {
	Analyze(ctx context.Context, file *models.UploadedFile) (*models.WorkflowState, error)
	Stream(ctx context.Context, file *models.UploadedFile) <-chan models.StageEvent
	Screen(ctx context.Context, req models.ScreenRequest) ([]models.ScreenResult, error)
	Detail(ctx context.Context, ticker string) (*models.DetailedAnalysis, error)
	WhatIf(ctx context.Context, holdings []models.Holding, ticker string, quantity, price float64) (*models.ScenarioComparison, error)
	Universe(ctx context.Context) ([]string, error)
	SupportedExtensions() []string
}

// Options tune the router.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
	Logger         *log.Logger
}

// NewRouter builds the HTTP API router.
func NewRouter(backend Backend, opts Options) http.Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	if opts.Logger != nil {
		r.Use(requestLoggingMiddleware(opts.Logger))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	h := &handler{backend: backend, maxUpload: opts.MaxUploadBytes}

	r.Get("/api/health", h.health)
	r.Get("/api/formats", h.formats)

	// Portfolio analysis
	r.Post("/api/analyze", h.analyzeStream)
	r.Post("/api/report", h.analyzeReport)

	// On-demand tools
	r.Post("/api/screen", h.screen)
	r.Get("/api/universe", h.universe)
	r.Get("/api/stocks/{ticker}/detail", h.detail)
	r.Post("/api/what-if", h.whatIf)

	return r
}

type handler struct {
	backend   Backend
	maxUpload int64
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
