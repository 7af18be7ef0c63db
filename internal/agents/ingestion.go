package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/internal/parsers"
	"github.com/dyike/PortfolioGo/models"
)

// NewIngestion picks a parser by file extension and loads the portfolio.
// Every failure is fatal for the run.
func NewIngestion(d *Deps) StageFunc {
	return func(ctx context.Context, state *models.WorkflowState) (delta *models.StateDelta) {
		delta = &models.StateDelta{Stage: consts.Ingest}
		delta.Logf("---INGESTING PORTFOLIO---")

		file := state.File
		if file == nil || file.Name == "" {
			delta.Fatal = consts.MsgNoFile
			return delta
		}

		ext := parsers.Extension(file.Name)
		parser, ok := d.Parsers.Lookup(ext)
		if !ok {
			delta.Fatal = fmt.Sprintf(consts.MsgUnsupportedType, ext)
			return delta
		}

		defer func() {
			if r := recover(); r != nil {
				delta.Portfolio = nil
				delta.Fatal = fmt.Sprintf(consts.MsgIngestionFailed, r)
				delta.Logf(delta.Fatal)
				d.Log.Error().Str("file", file.Name).Interface("panic", r).Msg("parser panicked")
			}
		}()

		portfolio, err := parser.Parse(ctx, file.Content)
		switch {
		case errors.Is(err, parsers.ErrParseFailed):
			d.Log.Warn().Err(err).Str("file", file.Name).Msg("statement parse failed")
			delta.Fatal = consts.MsgParseFailed
			delta.Logf(delta.Fatal)
		case err != nil:
			delta.Fatal = fmt.Sprintf(consts.MsgIngestionFailed, err)
			delta.Logf(delta.Fatal)
		case portfolio == nil:
			delta.Fatal = consts.MsgParseFailed
			delta.Logf(delta.Fatal)
		default:
			delta.Portfolio = portfolio
			delta.Logf(fmt.Sprintf("Parsed %d holdings from %s.", len(portfolio.Stocks), file.Name))
			d.Log.Info().Str("file", file.Name).Int("holdings", len(portfolio.Stocks)).Msg("portfolio ingested")
		}
		return delta
	}
}
