package consts

// Risk classification labels.
const (
	RiskConservative = "Conservative"
	RiskModerate     = "Moderate Growth"
	RiskAggressive   = "Aggressive"
	NotAvailable     = "N/A"
)

// Weighted beta thresholds. A beta equal to a threshold falls into the
// lower-risk bucket.
const (
	ConservativeBetaCeiling = 0.8
	ModerateBetaCeiling     = 1.2
)

// Allocation buckets.
const (
	SectorOther = "Other"
	AssetStocks = "Stocks"
)

// Degraded verdict texts.
const (
	VerdictSynthesisFailed = "AI synthesis failed."
	ProsConsAIFailed       = "AI analysis failed."
	ProsConsDataFailed     = "Data fetching failed."
)

// NewsAPIExhausted is recorded once per run when the fallback news quota is spent.
const NewsAPIExhausted = "NewsAPI fallback unavailable: Daily request limit reached."

// Screener risk appetites.
var RiskAppetites = []string{"Conservative", "Moderate", "Aggressive"}

// Screener horizons.
var Horizons = []string{"Short-term (1-3 years)", "Long-term (5+ years)"}
