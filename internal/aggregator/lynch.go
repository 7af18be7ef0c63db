package aggregator

import "github.com/dyike/PortfolioGo/models"

// marketCapFloor is Rs. 40,000 crore.
const marketCapFloor = 40_000 * 1e7

type lynchRule struct {
	metric string
	ideal  string
	value  func(*models.Fundamentals) *float64
	pass   func(float64) bool
}

var lynchRules = []lynchRule{
	{"P/E Ratio", "< 25", func(f *models.Fundamentals) *float64 { return f.PERatio }, func(v float64) bool { return v < 25 }},
	{"Forward P/E Ratio", "< 15", func(f *models.Fundamentals) *float64 { return f.ForwardPERatio }, func(v float64) bool { return v < 15 }},
	{"PEG Ratio", "< 1.2", func(f *models.Fundamentals) *float64 { return f.PEGRatio }, func(v float64) bool { return v < 1.2 }},
	// Yahoo reports debt/equity in percent.
	{"Debt-to-Equity", "< 35%", func(f *models.Fundamentals) *float64 { return f.DebtToEquity }, func(v float64) bool { return v < 35 }},
	{"Market Cap", "> Rs.40,000 Crore", func(f *models.Fundamentals) *float64 { return f.MarketCap }, func(v float64) bool { return v > marketCapFloor }},
}

// LynchScorecard checks fundamentals against Peter Lynch's ideal metrics.
func LynchScorecard(f *models.Fundamentals) []models.LynchCheck {
	if f == nil {
		f = &models.Fundamentals{}
	}
	checks := make([]models.LynchCheck, 0, len(lynchRules))
	for _, rule := range lynchRules {
		check := models.LynchCheck{Metric: rule.metric, Ideal: rule.ideal}
		if v := rule.value(f); v != nil {
			check.Value = v
			ok := rule.pass(*v)
			check.Pass = &ok
		}
		checks = append(checks, check)
	}
	return checks
}
