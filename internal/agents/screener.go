package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/dyike/PortfolioGo/internal/llm"
	"github.com/dyike/PortfolioGo/models"
)

var validate = validator.New()

// Screener matches candidate tickers against an investor profile using a
// bounded pool of workers.
type Screener struct {
	d       *Deps
	workers int
}

func NewScreener(d *Deps) *Screener {
	workers := d.Config.ScreenerWorkers
	if workers <= 0 {
		workers = 10
	}
	return &Screener{d: d, workers: workers}
}

// Screen returns the candidates the model judged a fit, in request order.
// A candidate whose data or model call fails counts as no match.
func (s *Screener) Screen(ctx context.Context, req models.ScreenRequest) ([]models.ScreenResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid screen request: %w", err)
	}
	s.d.Log.Info().Int("candidates", len(req.Tickers)).Str("risk", req.RiskAppetite).Str("horizon", req.Horizon).Msg("screening started")

	matches := make([]*models.ScreenResult, len(req.Tickers))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, ticker := range req.Tickers {
		g.Go(func() error {
			res, err := s.screenOne(ctx, ticker, req)
			if err != nil {
				s.d.Log.Debug().Err(err).Str("ticker", ticker).Msg("screen candidate failed")
				return nil
			}
			matches[i] = res
			return nil
		})
	}
	_ = g.Wait()

	results := make([]models.ScreenResult, 0, len(matches))
	for _, m := range matches {
		if m != nil {
			results = append(results, *m)
		}
	}
	s.d.Log.Info().Int("matches", len(results)).Msg("screening finished")
	return results, nil
}

func (s *Screener) screenOne(ctx context.Context, ticker string, req models.ScreenRequest) (res *models.ScreenResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	symbol := s.d.symbol(ticker)

	name, err := s.d.Market.CompanyName(ctx, symbol)
	if err != nil || name == "" {
		name = symbol
	}
	beta, err := s.d.Market.Beta(ctx, symbol)
	if err != nil {
		beta = 1.0
	}
	fundamentals, err := s.d.Market.Fundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if fundamentals.IsEmpty() {
		return nil, fmt.Errorf("no fundamentals for %s", symbol)
	}
	technicals, err := s.d.Market.Technicals(ctx, symbol)
	if err != nil {
		return nil, err
	}

	reply, err := s.d.Deep.Generate(ctx, llm.ScreenPrompt, map[string]any{
		"risk_appetite": req.RiskAppetite,
		"horizon":       req.Horizon,
		"stock_name":    name,
		"ticker":        ticker,
		"sector":        fundamentals.Sector,
		"beta":          beta,
		"fundamentals":  compactJSON(fundamentals),
		"technicals":    compactJSON(technicals),
	})
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := llm.DecodeJSON(reply, &fields); err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(llm.StringField(fields, "match", "")), "yes") {
		return nil, nil
	}
	return &models.ScreenResult{
		Ticker: ticker,
		Name:   name,
		Sector: fundamentals.Sector,
		Beta:   beta,
		Reason: llm.StringField(fields, "reason", ""),
	}, nil
}
