package agents

import (
	"context"
	"time"

	"github.com/phuslu/log"

	"github.com/dyike/PortfolioGo/config"
	"github.com/dyike/PortfolioGo/internal/dataflows"
	"github.com/dyike/PortfolioGo/internal/llm"
	"github.com/dyike/PortfolioGo/internal/parsers"
	"github.com/dyike/PortfolioGo/models"
)

// StageFunc is one pipeline stage. It reads the state and returns the delta
// to merge; it never mutates the state itself.
type StageFunc func(ctx context.Context, state *models.WorkflowState) *models.StateDelta

// Deps are the collaborators shared by the stages and the on-demand analyses.
type Deps struct {
	Config   *config.Config
	Parsers  *parsers.Registry
	Market   dataflows.MarketData
	News     dataflows.NewsFeed
	Fallback dataflows.NewsSearcher
	Universe dataflows.Universe

	// Quick answers short verdict and summary prompts; Deep handles the
	// structured synthesis, pros/cons and screening prompts.
	Quick llm.Generator
	Deep  llm.Generator

	Log *log.Logger
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) symbol(ticker string) string {
	return dataflows.Symbol(ticker, d.Config.SymbolSuffix)
}

// Stages are the five analysis pipeline stages in execution order.
type Stages struct {
	Ingest   StageFunc
	Validate StageFunc
	Enrich   StageFunc
	News     StageFunc
	Report   StageFunc
}

// NewStages builds the pipeline stages over d.
func NewStages(d *Deps) Stages {
	return Stages{
		Ingest:   NewIngestion(d),
		Validate: NewValidation(d),
		Enrich:   NewStockAnalyst(d),
		News:     NewNewsAnalyst(d),
		Report:   NewReporter(d),
	}
}
