// Package aggregator computes portfolio level metrics from enriched holdings.
// Every function here is pure: the same holdings always give the same result.
package aggregator

import (
	"github.com/shopspring/decimal"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/models"
)

// Aggregate computes totals, P&L, weighted beta risk and allocations.
// It returns nil for an empty list.
func Aggregate(holdings []models.Holding) *models.AggregateMetrics {
	if len(holdings) == 0 {
		return nil
	}

	invested := decimal.Zero
	current := decimal.Zero
	for _, h := range holdings {
		invested = invested.Add(decimal.NewFromFloat(h.InvestedValue))
		current = current.Add(decimal.NewFromFloat(h.CurrentValue))
	}

	m := &models.AggregateMetrics{
		TotalInvestment:  invested.InexactFloat64(),
		CurrentValue:     current.InexactFloat64(),
		RiskProfile:      consts.NotAvailable,
		AssetAllocation:  map[string]float64{consts.AssetStocks: current.InexactFloat64()},
		SectorAllocation: sectorAllocation(holdings),
	}

	if invested.IsPositive() {
		pnl := current.Sub(invested)
		m.OverallPnL = pnl.InexactFloat64()
		m.OverallPnLPercent = models.Float(pnl.Div(invested).Mul(decimal.NewFromInt(100)).InexactFloat64())
	}

	if current.IsPositive() {
		total := current.InexactFloat64()
		beta := 0.0
		for _, h := range holdings {
			beta += h.CurrentValue / total * h.BetaOrDefault()
		}
		m.WeightedBeta = models.Float(beta)
		m.RiskProfile = ClassifyRisk(beta)
	}

	return m
}

// ClassifyRisk maps a weighted beta to a risk label.
func ClassifyRisk(weightedBeta float64) string {
	switch {
	case weightedBeta < consts.ConservativeBetaCeiling:
		return consts.RiskConservative
	case weightedBeta <= consts.ModerateBetaCeiling:
		return consts.RiskModerate
	default:
		return consts.RiskAggressive
	}
}

func sectorAllocation(holdings []models.Holding) map[string]float64 {
	sums := make(map[string]decimal.Decimal)
	for _, h := range holdings {
		sector := h.SectorName()
		if sector == "" || sector == consts.NotAvailable {
			sector = consts.SectorOther
		}
		sums[sector] = sums[sector].Add(decimal.NewFromFloat(h.CurrentValue))
	}

	out := make(map[string]float64, len(sums))
	for sector, v := range sums {
		out[sector] = v.InexactFloat64()
	}
	return out
}
