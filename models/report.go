package models

// AggregateMetrics are the portfolio level figures derived from a list of
// holdings. A nil *AggregateMetrics means there was nothing to aggregate.
type AggregateMetrics struct {
	TotalInvestment   float64            `json:"total_investment"`
	CurrentValue      float64            `json:"current_value"`
	OverallPnL        float64            `json:"overall_pnl"`
	OverallPnLPercent *float64           `json:"overall_pnl_percent"` // nil when nothing was invested
	WeightedBeta      *float64           `json:"weighted_beta"`       // nil when current value is zero
	RiskProfile       string             `json:"risk_profile"`
	AssetAllocation   map[string]float64 `json:"asset_allocation"`
	SectorAllocation  map[string]float64 `json:"sector_allocation"`
}

// Report is the final, flat output of an analysis run.
type Report struct {
	StockAnalysis  []Holding    `json:"stock_analysis"`
	News           []NewsBundle `json:"news"`
	AnalysisErrors []string     `json:"analysis_errors"`

	*AggregateMetrics
}

// ScenarioComparison puts the metrics of a portfolio next to the metrics of
// the same portfolio with one hypothetical trade added.
type ScenarioComparison struct {
	Hypothetical Holding           `json:"hypothetical"`
	Original     *AggregateMetrics `json:"original"`
	Simulated    *AggregateMetrics `json:"simulated"`
}

// LynchCheck is one row of the Peter Lynch scorecard.
type LynchCheck struct {
	Metric string   `json:"metric"`
	Value  *float64 `json:"value"`
	Ideal  string   `json:"ideal"`
	Pass   *bool    `json:"pass"` // nil when the metric is unknown
}
