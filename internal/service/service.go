// Package service wires configuration, data providers, language models and
// the analysis graph into the operations exposed by the CLI and the API.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/dyike/PortfolioGo/config"
	"github.com/dyike/PortfolioGo/internal/agents"
	"github.com/dyike/PortfolioGo/internal/dataflows"
	"github.com/dyike/PortfolioGo/internal/graph"
	"github.com/dyike/PortfolioGo/internal/llm"
	"github.com/dyike/PortfolioGo/internal/parsers"
	"github.com/dyike/PortfolioGo/models"
)

// Service is the single entry point for every analysis operation.
type Service struct {
	deps     *agents.Deps
	pipeline *graph.Pipeline
	screener *agents.Screener
}

// New builds the live service: Yahoo and NewsAPI providers plus the quick
// and deep chat models of the configured provider.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Service, error) {
	quick, err := llm.NewChatModel(ctx, cfg, cfg.QuickThinkLLM)
	if err != nil {
		return nil, fmt.Errorf("init quick model: %w", err)
	}
	deep, err := llm.NewChatModel(ctx, cfg, cfg.DeepThinkLLM)
	if err != nil {
		return nil, fmt.Errorf("init deep model: %w", err)
	}

	providers := dataflows.NewProviders(cfg, logger)
	return NewWithDeps(ctx, &agents.Deps{
		Config:   cfg,
		Parsers:  parsers.NewRegistry(),
		Market:   providers.Market,
		News:     providers.News,
		Fallback: providers.Fallback,
		Universe: providers.Universe,
		Quick:    llm.NewChainGenerator(quick),
		Deep:     llm.NewChainGenerator(deep),
		Log:      logger,
	})
}

// NewWithDeps builds a service over prepared collaborators.
func NewWithDeps(ctx context.Context, deps *agents.Deps) (*Service, error) {
	pipeline, err := graph.NewPipeline(ctx, agents.NewStages(deps), deps.Log)
	if err != nil {
		return nil, err
	}
	return &Service{
		deps:     deps,
		pipeline: pipeline,
		screener: agents.NewScreener(deps),
	}, nil
}

// Analyze runs the full pipeline over one statement.
func (s *Service) Analyze(ctx context.Context, file *models.UploadedFile) (*models.WorkflowState, error) {
	return s.pipeline.Run(ctx, file)
}

// Stream runs the pipeline in the background and yields stage events.
func (s *Service) Stream(ctx context.Context, file *models.UploadedFile) <-chan models.StageEvent {
	return s.pipeline.Stream(ctx, file)
}

func (s *Service) Screen(ctx context.Context, req models.ScreenRequest) ([]models.ScreenResult, error) {
	return s.screener.Screen(ctx, req)
}

func (s *Service) Detail(ctx context.Context, ticker string) (*models.DetailedAnalysis, error) {
	if strings.TrimSpace(ticker) == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	return agents.DetailedAnalysis(ctx, s.deps, ticker), nil
}

func (s *Service) WhatIf(ctx context.Context, holdings []models.Holding, ticker string, quantity, price float64) (*models.ScenarioComparison, error) {
	return agents.WhatIf(ctx, s.deps, holdings, ticker, quantity, price)
}

// Universe lists the candidate tickers offered to the screener.
func (s *Service) Universe(ctx context.Context) ([]string, error) {
	if s.deps.Universe == nil {
		return nil, fmt.Errorf("no stock universe configured")
	}
	return s.deps.Universe.Tickers(ctx)
}

// SupportedExtensions lists the statement formats that can be uploaded.
func (s *Service) SupportedExtensions() []string {
	return s.deps.Parsers.Extensions()
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config {
	return s.deps.Config
}
