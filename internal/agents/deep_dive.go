package agents

import (
	"context"
	"strings"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/internal/aggregator"
	"github.com/dyike/PortfolioGo/internal/llm"
	"github.com/dyike/PortfolioGo/models"
)

// DetailedAnalysis returns the name, fundamentals, Lynch scorecard and a
// model written pros/cons list for one ticker. It never fails; problems are
// reported through the pros/cons texts.
func DetailedAnalysis(ctx context.Context, d *Deps, ticker string) *models.DetailedAnalysis {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	symbol := d.symbol(ticker)
	d.Log.Info().Str("symbol", symbol).Msg("detailed analysis started")

	fundamentals, err := d.Market.Fundamentals(ctx, symbol)
	if err != nil || fundamentals.IsEmpty() {
		d.Log.Warn().Err(err).Str("symbol", symbol).Msg("detailed analysis has no data")
		return &models.DetailedAnalysis{
			Name:         ticker,
			Fundamentals: &models.Fundamentals{},
			Scorecard:    aggregator.LynchScorecard(nil),
			ProsCons:     failedProsCons(consts.ProsConsDataFailed),
		}
	}

	name, err := d.Market.CompanyName(ctx, symbol)
	if err != nil || name == "" {
		name = symbol
	}

	result := &models.DetailedAnalysis{
		Name:         name,
		Fundamentals: fundamentals,
		Scorecard:    aggregator.LynchScorecard(fundamentals),
	}

	reply, err := d.Deep.Generate(ctx, llm.ProsConsPrompt, map[string]any{
		"stock_name":   name,
		"fundamentals": compactJSON(fundamentals),
	})
	if err != nil {
		d.Log.Warn().Err(err).Str("symbol", symbol).Msg("pros/cons generation failed")
		result.ProsCons = failedProsCons(consts.ProsConsAIFailed)
		return result
	}

	var pc models.ProsCons
	if err := llm.DecodeJSON(reply, &pc); err != nil || (len(pc.Pros) == 0 && len(pc.Cons) == 0) {
		d.Log.Warn().Err(err).Str("symbol", symbol).Msg("could not parse pros/cons")
		pc = failedProsCons(consts.ProsConsAIFailed)
	}
	result.ProsCons = pc
	return result
}

func failedProsCons(msg string) models.ProsCons {
	return models.ProsCons{Pros: []string{msg}, Cons: []string{msg}}
}
