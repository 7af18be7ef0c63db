package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/internal/llm"
	"github.com/dyike/PortfolioGo/models"
)

var errLiveDataUnavailable = errors.New(consts.MsgLiveDataUnavailable)

// NewStockAnalyst enriches holdings one at a time with market data and a
// model verdict. A holding that fails is dropped from the output and its
// error recorded; the rest of the batch carries on.
func NewStockAnalyst(d *Deps) StageFunc {
	return func(ctx context.Context, state *models.WorkflowState) *models.StateDelta {
		delta := &models.StateDelta{Stage: consts.Enrich, Enriched: []models.Holding{}}
		delta.Logf("---ENRICHING STOCK DATA---")
		if state.Portfolio == nil {
			return delta
		}

		for i, h := range state.Portfolio.Stocks {
			if h.Ticker == "" {
				msg := fmt.Sprintf(consts.MsgMissingTicker, i+1)
				delta.Errors = append(delta.Errors, msg)
				delta.Logf(msg)
				continue
			}
			if err := ctx.Err(); err != nil {
				msg := fmt.Sprintf(consts.MsgStockFailed, h.Ticker, err)
				delta.Errors = append(delta.Errors, msg)
				continue
			}

			delta.Logf(fmt.Sprintf("Analyzing %s...", d.symbol(h.Ticker)))
			enriched, err := analyzeHolding(ctx, d, h, delta)
			if err != nil {
				msg := fmt.Sprintf(consts.MsgStockFailed, h.Ticker, err)
				delta.Errors = append(delta.Errors, msg)
				delta.Logf(msg)
				d.Log.Warn().Err(err).Str("ticker", h.Ticker).Msg("holding skipped")
				continue
			}
			delta.Enriched = append(delta.Enriched, enriched)
		}
		return delta
	}
}

// analyzeHolding runs the data fetch, circuit breaker and the three step
// verdict chain for a single holding.
func analyzeHolding(ctx context.Context, d *Deps, h models.Holding, delta *models.StateDelta) (out models.Holding, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.Log.Error().Str("ticker", h.Ticker).Interface("panic", r).Str("stack", string(debug.Stack())).Msg("holding analysis panicked")
			err = fmt.Errorf("%v", r)
		}
	}()

	symbol := d.symbol(h.Ticker)

	name, nameErr := d.Market.CompanyName(ctx, symbol)
	if nameErr != nil || name == "" {
		name = symbol
	}
	fundamentals, fErr := d.Market.Fundamentals(ctx, symbol)
	technicals, tErr := d.Market.Technicals(ctx, symbol)
	history, pErr := d.Market.PriceHistory(ctx, symbol)
	beta, bErr := d.Market.Beta(ctx, symbol)
	if bErr != nil {
		beta = 1.0
	}

	if fErr != nil || tErr != nil || pErr != nil ||
		fundamentals.IsEmpty() || technicals.IsEmpty() || len(history) == 0 {
		d.Log.Debug().Str("symbol", symbol).
			Bool("fundamentals", fErr == nil && !fundamentals.IsEmpty()).
			Bool("technicals", tErr == nil && !technicals.IsEmpty()).
			Int("history_bars", len(history)).
			Msg("market data incomplete")
		return out, errLiveDataUnavailable
	}

	fundamentalVerdict, err := d.Quick.Generate(ctx, llm.FundamentalPrompt, map[string]any{"data": compactJSON(fundamentals)})
	if err != nil {
		return out, err
	}
	technicalVerdict, err := d.Quick.Generate(ctx, llm.TechnicalPrompt, map[string]any{"data": compactJSON(technicals)})
	if err != nil {
		return out, err
	}
	reply, err := d.Deep.Generate(ctx, llm.SynthesisPrompt, map[string]any{
		"fundamental_verdict": fundamentalVerdict,
		"technical_verdict":   technicalVerdict,
		"beta":                beta,
	})
	if err != nil {
		return out, err
	}

	verdict := parseVerdict(reply)
	if verdict == nil {
		delta.Logf(fmt.Sprintf("Could not parse final AI response for %s.", h.Ticker))
		d.Log.Warn().Str("ticker", h.Ticker).Msg("synthesis reply had no usable json")
		verdict = &models.Verdict{
			Recommendation: consts.NotAvailable,
			Urgency:        consts.NotAvailable,
			Reason:         consts.VerdictSynthesisFailed,
		}
	}

	out = h
	out.Name = name
	out.Fundamentals = fundamentals
	out.Technicals = technicals
	out.PriceHistory = history
	out.Beta = models.Float(beta)
	out.Recommendation = verdict.Recommendation
	out.Urgency = verdict.Urgency
	out.Reason = verdict.Reason
	return out, nil
}

// parseVerdict decodes the synthesis reply; missing keys take the degraded
// defaults. It returns nil when no JSON object could be decoded.
func parseVerdict(reply string) *models.Verdict {
	var fields map[string]any
	if err := llm.DecodeJSON(reply, &fields); err != nil {
		return nil
	}
	return &models.Verdict{
		Recommendation: llm.StringField(fields, "recommendation", consts.NotAvailable),
		Urgency:        llm.StringField(fields, "urgency", consts.NotAvailable),
		Reason:         llm.StringField(fields, "reason", consts.VerdictSynthesisFailed),
	}
}

func compactJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
