package models

// ScreenRequest describes the investor profile candidates are matched against.
type ScreenRequest struct {
	Tickers      []string `json:"tickers" validate:"required,min=1,dive,required"`
	RiskAppetite string   `json:"risk_appetite" validate:"required,oneof=Conservative Moderate Aggressive"`
	Horizon      string   `json:"horizon" validate:"required"`
}

// ScreenResult is a candidate that matched the profile.
type ScreenResult struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Sector string  `json:"sector"`
	Beta   float64 `json:"beta"`
	Reason string  `json:"reason"`
}

// ProsCons is the balanced summary returned by the detailed analysis.
type ProsCons struct {
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

// DetailedAnalysis is the deep-dive view of a single ticker.
type DetailedAnalysis struct {
	Name         string        `json:"name"`
	Fundamentals *Fundamentals `json:"fundamentals"`
	Scorecard    []LynchCheck  `json:"scorecard"`
	ProsCons     ProsCons      `json:"pros_cons"`
}
