package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dyike/PortfolioGo/internal/aggregator"
	"github.com/dyike/PortfolioGo/internal/dataflows"
	"github.com/dyike/PortfolioGo/models"
)

// Hypothetical builds a holding for buying quantity shares of ticker at
// price, or at the latest close when price is zero.
func Hypothetical(ctx context.Context, d *Deps, ticker string, quantity, price float64) (models.Holding, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return models.Holding{}, errors.New("ticker is required")
	}
	if quantity <= 0 {
		return models.Holding{}, fmt.Errorf("quantity must be positive, got %v", quantity)
	}
	if price < 0 {
		return models.Holding{}, fmt.Errorf("price must not be negative, got %v", price)
	}
	symbol := d.symbol(ticker)

	if price == 0 {
		history, err := d.Market.PriceHistory(ctx, symbol)
		if err != nil {
			return models.Holding{}, fmt.Errorf("latest price for %s: %w", symbol, err)
		}
		if len(history) == 0 {
			return models.Holding{}, fmt.Errorf("latest price for %s: %w", symbol, dataflows.ErrNoData)
		}
		price = history[len(history)-1].Close
	}

	name, err := d.Market.CompanyName(ctx, symbol)
	if err != nil || name == "" {
		name = symbol
	}
	beta, err := d.Market.Beta(ctx, symbol)
	if err != nil {
		beta = 1.0
	}
	fundamentals, err := d.Market.Fundamentals(ctx, symbol)
	if err != nil {
		d.Log.Debug().Err(err).Str("symbol", symbol).Msg("hypothetical holding without fundamentals")
		fundamentals = nil
	}

	value := quantity * price
	return models.Holding{
		Ticker:        ticker,
		Name:          name,
		Quantity:      quantity,
		AverageCost:   price,
		InvestedValue: value,
		CurrentValue:  value,
		Beta:          models.Float(beta),
		Fundamentals:  fundamentals,
	}, nil
}

// WhatIf compares the portfolio metrics before and after the hypothetical
// purchase.
func WhatIf(ctx context.Context, d *Deps, holdings []models.Holding, ticker string, quantity, price float64) (*models.ScenarioComparison, error) {
	h, err := Hypothetical(ctx, d, ticker, quantity, price)
	if err != nil {
		return nil, err
	}
	d.Log.Info().Str("ticker", h.Ticker).Float64("value", h.CurrentValue).Msg("what-if scenario")
	return aggregator.CompareScenario(holdings, h), nil
}
