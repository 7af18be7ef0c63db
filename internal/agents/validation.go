package agents

import (
	"context"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/models"
)

// NewValidation checks that ingestion produced a non-empty holdings list.
func NewValidation(d *Deps) StageFunc {
	return func(ctx context.Context, state *models.WorkflowState) *models.StateDelta {
		delta := &models.StateDelta{Stage: consts.Validate}
		delta.Logf("---VALIDATING PORTFOLIO DATA---")

		switch {
		case state.Portfolio == nil:
			delta.Fatal = consts.MsgInvalidPortfolio
		case state.Portfolio.Stocks == nil:
			delta.Fatal = consts.MsgStocksMissing
		case len(state.Portfolio.Stocks) == 0:
			delta.Fatal = consts.MsgNoStocks
		}
		if delta.Fatal != "" {
			delta.Logf(delta.Fatal)
			d.Log.Warn().Str("reason", delta.Fatal).Msg("portfolio rejected")
		}
		return delta
	}
}
