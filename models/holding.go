package models

// Fundamentals holds the named financial metrics reported for one security.
// Nil pointers mean the provider did not report the metric.
type Fundamentals struct {
	PERatio        *float64 `json:"pe_ratio,omitempty"`         // trailing P/E
	ForwardPERatio *float64 `json:"forward_pe_ratio,omitempty"` // forward P/E
	PEGRatio       *float64 `json:"peg_ratio,omitempty"`
	EPS            *float64 `json:"eps,omitempty"` // trailing EPS
	PriceToBook    *float64 `json:"price_to_book,omitempty"`
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"` // percent, as reported by Yahoo
	MarketCap      *float64 `json:"market_cap,omitempty"`
	Sector         string   `json:"sector,omitempty"`
	CurrentPrice   *float64 `json:"current_price,omitempty"`
	FiftyTwoWeekHi *float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLo *float64 `json:"fifty_two_week_low,omitempty"`
	BookValue      *float64 `json:"book_value,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"`
	ROE            *float64 `json:"roe,omitempty"`
	ROCE           *float64 `json:"roce,omitempty"` // return on assets used as a proxy
}

// IsEmpty reports whether no metric at all is known.
func (f *Fundamentals) IsEmpty() bool {
	if f == nil {
		return true
	}
	return *f == Fundamentals{}
}

// Technicals holds price-derived indicators.
type Technicals struct {
	MA50  *float64 `json:"ma_50,omitempty"`
	MA200 *float64 `json:"ma_200,omitempty"`
	RSI14 *float64 `json:"rsi_14,omitempty"`
}

// IsEmpty reports whether no indicator could be computed.
func (t *Technicals) IsEmpty() bool {
	return t == nil || (t.MA50 == nil && t.MA200 == nil && t.RSI14 == nil)
}

// PricePoint is one bar of price history with its trailing moving averages.
type PricePoint struct {
	Date  string   `json:"date"` // YYYY-MM-DD
	Close float64  `json:"close"`
	MA50  *float64 `json:"ma_50"`  // nil until 50 bars are available
	MA200 *float64 `json:"ma_200"` // nil until 200 bars are available
}

// Verdict is the structured recommendation produced by the synthesis step.
type Verdict struct {
	Recommendation string `json:"recommendation"`
	Urgency        string `json:"urgency"`
	Reason         string `json:"reason"`
}

// Holding is one portfolio line item. The enrichment fields stay empty until
// the stock analysis stage fills all of them at once.
type Holding struct {
	Ticker        string  `json:"ticker" validate:"required"`
	Name          string  `json:"name,omitempty"`
	Quantity      float64 `json:"quantity"`
	AverageCost   float64 `json:"average_cost"`
	InvestedValue float64 `json:"invested_value"`
	CurrentValue  float64 `json:"current_value"`
	PnL           float64 `json:"pnl"`

	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
	Technicals   *Technicals   `json:"technicals,omitempty"`
	PriceHistory []PricePoint  `json:"price_history,omitempty"`
	Beta         *float64      `json:"beta,omitempty"`

	Recommendation string `json:"recommendation,omitempty"`
	Urgency        string `json:"urgency,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// BetaOrDefault returns the holding beta, 1.0 when it is unknown.
func (h Holding) BetaOrDefault() float64 {
	if h.Beta == nil {
		return 1.0
	}
	return *h.Beta
}

// SectorName returns the fundamentals sector or "" when unknown.
func (h Holding) SectorName() string {
	if h.Fundamentals == nil {
		return ""
	}
	return h.Fundamentals.Sector
}

// Portfolio is the normalized output every statement parser produces.
type Portfolio struct {
	Stocks []Holding `json:"stocks"`
}

// UploadedFile is a statement handed to the pipeline.
type UploadedFile struct {
	Name    string `json:"name"`
	Content []byte `json:"-"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
