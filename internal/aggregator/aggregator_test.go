package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/models"
)

func holding(ticker string, invested, current, beta float64, sector string) models.Holding {
	h := models.Holding{
		Ticker:        ticker,
		InvestedValue: invested,
		CurrentValue:  current,
		Beta:          models.Float(beta),
	}
	if sector != "" {
		h.Fundamentals = &models.Fundamentals{Sector: sector}
	}
	return h
}

func TestAggregateEmpty(t *testing.T) {
	assert.Nil(t, Aggregate(nil))
	assert.Nil(t, Aggregate([]models.Holding{}))
}

func TestAggregateTwoHoldings(t *testing.T) {
	holdings := []models.Holding{
		holding("A", 1000, 1200, 0.6, "Energy"),
		holding("B", 1000, 800, 1.5, "Financial Services"),
	}

	m := Aggregate(holdings)
	require.NotNil(t, m)
	assert.Equal(t, 2000.0, m.TotalInvestment)
	assert.Equal(t, 2000.0, m.CurrentValue)
	assert.Equal(t, 0.0, m.OverallPnL)
	require.NotNil(t, m.OverallPnLPercent)
	assert.Equal(t, 0.0, *m.OverallPnLPercent)
	require.NotNil(t, m.WeightedBeta)
	assert.InDelta(t, 0.96, *m.WeightedBeta, 1e-9)
	assert.Equal(t, consts.RiskModerate, m.RiskProfile)
	assert.Equal(t, map[string]float64{consts.AssetStocks: 2000}, m.AssetAllocation)
	assert.Equal(t, map[string]float64{"Energy": 1200, "Financial Services": 800}, m.SectorAllocation)
}

func TestAggregateIsPure(t *testing.T) {
	holdings := []models.Holding{
		holding("A", 500, 650, 1.1, "IT"),
		holding("B", 300, 250, 0.4, ""),
	}
	assert.Equal(t, Aggregate(holdings), Aggregate(holdings))
}

func TestAggregateZeroInvestment(t *testing.T) {
	m := Aggregate([]models.Holding{holding("A", 0, 100, 1.0, "")})
	require.NotNil(t, m)
	assert.Nil(t, m.OverallPnLPercent)
	assert.Equal(t, 0.0, m.OverallPnL)
	assert.Equal(t, consts.RiskModerate, m.RiskProfile)
}

func TestAggregateZeroCurrentValue(t *testing.T) {
	m := Aggregate([]models.Holding{holding("A", 100, 0, 2.0, "")})
	require.NotNil(t, m)
	assert.Equal(t, consts.NotAvailable, m.RiskProfile)
	assert.Nil(t, m.WeightedBeta)
	require.NotNil(t, m.OverallPnLPercent)
	assert.Equal(t, -100.0, *m.OverallPnLPercent)
}

func TestAggregateDefaultsMissingBeta(t *testing.T) {
	h := models.Holding{Ticker: "A", InvestedValue: 10, CurrentValue: 10}
	m := Aggregate([]models.Holding{h})
	require.NotNil(t, m.WeightedBeta)
	assert.Equal(t, 1.0, *m.WeightedBeta)
}

func TestClassifyRiskBoundaries(t *testing.T) {
	cases := []struct {
		beta float64
		want string
	}{
		{0.7999999, consts.RiskConservative},
		{0.8, consts.RiskModerate},
		{1.0, consts.RiskModerate},
		{1.2, consts.RiskModerate},
		{1.2000001, consts.RiskAggressive},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyRisk(tc.beta), "beta %v", tc.beta)
	}
}

func TestAggregateBoundaryThroughWeights(t *testing.T) {
	assert.Equal(t, consts.RiskModerate, Aggregate([]models.Holding{holding("A", 1, 100, 0.8, "")}).RiskProfile)
	assert.Equal(t, consts.RiskModerate, Aggregate([]models.Holding{holding("A", 1, 100, 1.2, "")}).RiskProfile)
}

func TestSectorBucketing(t *testing.T) {
	holdings := []models.Holding{
		holding("A", 100, 100, 1, ""),
		holding("B", 100, 250, 1, consts.NotAvailable),
		{Ticker: "C", InvestedValue: 1, CurrentValue: 5, Fundamentals: &models.Fundamentals{}},
		holding("D", 100, 40, 1, "Technology"),
	}
	m := Aggregate(holdings)
	assert.Equal(t, map[string]float64{consts.SectorOther: 355, "Technology": 40}, m.SectorAllocation)
}

func TestCompareScenario(t *testing.T) {
	original := []models.Holding{holding("A", 1000, 1000, 0.5, "Energy")}
	extra := holding("B", 1000, 1000, 2.0, "IT")

	cmp := CompareScenario(original, extra)
	require.NotNil(t, cmp.Original)
	require.NotNil(t, cmp.Simulated)
	assert.Len(t, original, 1)
	assert.Equal(t, consts.RiskConservative, cmp.Original.RiskProfile)
	assert.Equal(t, consts.RiskAggressive, cmp.Simulated.RiskProfile)
	assert.Equal(t, 2000.0, cmp.Simulated.CurrentValue)
	assert.Equal(t, Aggregate(original), cmp.Original)
}

func TestLynchScorecard(t *testing.T) {
	checks := LynchScorecard(&models.Fundamentals{
		PERatio:      models.Float(18),
		PEGRatio:     models.Float(2.1),
		DebtToEquity: models.Float(12),
		MarketCap:    models.Float(5e11),
	})
	require.Len(t, checks, 5)

	byMetric := map[string]models.LynchCheck{}
	for _, c := range checks {
		byMetric[c.Metric] = c
	}
	assert.True(t, *byMetric["P/E Ratio"].Pass)
	assert.Nil(t, byMetric["Forward P/E Ratio"].Pass)
	assert.False(t, *byMetric["PEG Ratio"].Pass)
	assert.True(t, *byMetric["Debt-to-Equity"].Pass)
	assert.True(t, *byMetric["Market Cap"].Pass)

	for _, c := range LynchScorecard(nil) {
		assert.Nil(t, c.Pass)
	}
}
