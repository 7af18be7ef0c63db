package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/phuslu/log"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"

	"github.com/dyike/PortfolioGo/models"
)

const summaryModules = "price,summaryDetail,defaultKeyStatistics,financialData,assetProfile"

// BarFetcher loads daily closes for symbol between start and end.
type BarFetcher func(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Bar, error)

// NameFetcher resolves the display name of symbol.
type NameFetcher func(ctx context.Context, symbol string) (string, error)

// YahooFinance implements MarketData on top of the Yahoo quoteSummary
// endpoint (fundamentals, beta, sector) and finance-go (names, price bars).
type YahooFinance struct {
	client        *resty.Client
	bars          BarFetcher
	names         NameFetcher
	summaries     *ttlCache[*quoteSummary]
	historyYears  int
	interval      string
	technicalDays int
	now           func() time.Time
	log           *log.Logger
}

type YahooOption func(*YahooFinance)

// WithBarFetcher replaces the finance-go chart lookup.
func WithBarFetcher(f BarFetcher) YahooOption {
	return func(y *YahooFinance) { y.bars = f }
}

// WithNameFetcher replaces the finance-go equity lookup.
func WithNameFetcher(f NameFetcher) YahooOption {
	return func(y *YahooFinance) { y.names = f }
}

// WithClock fixes the time used to compute history windows.
func WithClock(now func() time.Time) YahooOption {
	return func(y *YahooFinance) { y.now = now }
}

func NewYahooFinance(cfg *Config, logger *log.Logger, opts ...YahooOption) *YahooFinance {
	client := resty.New()
	client.SetBaseURL(cfg.YahooBaseURL)
	client.SetTimeout(time.Duration(cfg.HTTPTimeoutSeconds) * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; PortfolioGo/1.0)")

	y := &YahooFinance{
		client:        client,
		bars:          chartBars,
		names:         equityName,
		summaries:     newTTLCache[*quoteSummary](time.Minute),
		historyYears:  cfg.HistoryPeriodYears,
		interval:      cfg.HistoryInterval,
		technicalDays: cfg.TechnicalDays,
		now:           time.Now,
		log:           logger,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *YahooFinance) CompanyName(ctx context.Context, symbol string) (string, error) {
	if name, err := y.names(ctx, symbol); err == nil && name != "" {
		return name, nil
	} else if err != nil {
		y.log.Debug().Err(err).Str("symbol", symbol).Msg("equity lookup failed, trying quote summary")
	}

	s, err := y.summary(ctx, symbol)
	if err != nil {
		return symbol, err
	}
	switch {
	case s.Price.LongName != "":
		return s.Price.LongName, nil
	case s.Price.ShortName != "":
		return s.Price.ShortName, nil
	}
	return symbol, fmt.Errorf("name for %s: %w", symbol, ErrNoData)
}

// Beta returns the reported beta rounded to two decimals.
func (y *YahooFinance) Beta(ctx context.Context, symbol string) (float64, error) {
	s, err := y.summary(ctx, symbol)
	if err != nil {
		return 0, err
	}
	beta := s.SummaryDetail.Beta.Raw
	if beta == nil {
		beta = s.DefaultKeyStatistics.Beta.Raw
	}
	if beta == nil {
		return 0, fmt.Errorf("beta for %s: %w", symbol, ErrNoData)
	}
	return round2(*beta), nil
}

func (y *YahooFinance) Fundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	s, err := y.summary(ctx, symbol)
	if err != nil {
		return nil, err
	}
	sd, ks, fd := s.SummaryDetail, s.DefaultKeyStatistics, s.FinancialData

	f := &models.Fundamentals{
		PERatio:        sd.TrailingPE.Raw,
		ForwardPERatio: first(sd.ForwardPE.Raw, ks.ForwardPE.Raw),
		PEGRatio:       ks.PEGRatio.Raw,
		EPS:            ks.TrailingEPS.Raw,
		PriceToBook:    ks.PriceToBook.Raw,
		DebtToEquity:   fd.DebtToEquity.Raw,
		MarketCap:      first(s.Price.MarketCap.Raw, sd.MarketCap.Raw),
		Sector:         s.AssetProfile.Sector,
		CurrentPrice:   first(s.Price.RegularMarketPrice.Raw, fd.CurrentPrice.Raw),
		FiftyTwoWeekHi: sd.FiftyTwoWeekHigh.Raw,
		FiftyTwoWeekLo: sd.FiftyTwoWeekLow.Raw,
		BookValue:      ks.BookValue.Raw,
		DividendYield:  sd.DividendYield.Raw,
		ROE:            fd.ReturnOnEquity.Raw,
		ROCE:           fd.ReturnOnAssets.Raw,
	}
	return f, nil
}

// Technicals computes indicators over the configured lookback window.
func (y *YahooFinance) Technicals(ctx context.Context, symbol string) (*models.Technicals, error) {
	end := y.now()
	start := end.AddDate(0, 0, -y.technicalDays)
	bars, err := y.bars(ctx, symbol, start, end, "1d")
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return &models.Technicals{}, nil
	}
	return technicalsFromBars(bars), nil
}

// PriceHistory returns the configured period of bars with moving averages.
func (y *YahooFinance) PriceHistory(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	end := y.now()
	start := end.AddDate(-y.historyYears, 0, 0)
	bars, err := y.bars(ctx, symbol, start, end, y.interval)
	if err != nil {
		return nil, err
	}
	return historyFromBars(bars), nil
}

func (y *YahooFinance) summary(ctx context.Context, symbol string) (*quoteSummary, error) {
	if s, ok := y.summaries.get(symbol); ok {
		return s, nil
	}

	resp, err := y.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParam("modules", summaryModules).
		Get("/v10/finance/quoteSummary/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("quote summary for %s: %w", symbol, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("quote summary for %s: %w", symbol, ErrRateLimited)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("quote summary for %s: %w", symbol, ErrNoData)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("quote summary for %s: status %d", symbol, resp.StatusCode())
	}

	var env quoteSummaryEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("decode quote summary: %w", err)
	}
	if env.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quote summary for %s: %s: %w", symbol, env.QuoteSummary.Error.Description, ErrNoData)
	}
	if len(env.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("quote summary for %s: %w", symbol, ErrNoData)
	}

	s := &env.QuoteSummary.Result[0]
	y.summaries.set(symbol, s)
	return s, nil
}

func chartBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.Interval(interval),
	}

	iter := chart.Get(params)
	var bars []Bar
	for iter.Next() {
		b := iter.Bar()
		closePrice := b.Close.InexactFloat64()
		if closePrice <= 0 {
			continue
		}
		bars = append(bars, Bar{
			Date:  time.Unix(int64(b.Timestamp), 0).UTC(),
			Close: closePrice,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("price bars for %s: %w", symbol, err)
	}
	return bars, nil
}

func equityName(ctx context.Context, symbol string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e, err := equity.Get(symbol)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", ErrNoData
	}
	if name := strings.TrimSpace(e.LongName); name != "" {
		return name, nil
	}
	return strings.TrimSpace(e.ShortName), nil
}

func first(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

type quoteSummaryEnvelope struct {
	QuoteSummary struct {
		Result []quoteSummary `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummary struct {
	Price struct {
		LongName           string   `json:"longName"`
		ShortName          string   `json:"shortName"`
		RegularMarketPrice rawValue `json:"regularMarketPrice"`
		MarketCap          rawValue `json:"marketCap"`
	} `json:"price"`
	SummaryDetail struct {
		Beta             rawValue `json:"beta"`
		TrailingPE       rawValue `json:"trailingPE"`
		ForwardPE        rawValue `json:"forwardPE"`
		MarketCap        rawValue `json:"marketCap"`
		FiftyTwoWeekHigh rawValue `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  rawValue `json:"fiftyTwoWeekLow"`
		DividendYield    rawValue `json:"dividendYield"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics struct {
		Beta        rawValue `json:"beta"`
		ForwardPE   rawValue `json:"forwardPE"`
		PEGRatio    rawValue `json:"pegRatio"`
		TrailingEPS rawValue `json:"trailingEps"`
		PriceToBook rawValue `json:"priceToBook"`
		BookValue   rawValue `json:"bookValue"`
	} `json:"defaultKeyStatistics"`
	FinancialData struct {
		CurrentPrice   rawValue `json:"currentPrice"`
		DebtToEquity   rawValue `json:"debtToEquity"`
		ReturnOnEquity rawValue `json:"returnOnEquity"`
		ReturnOnAssets rawValue `json:"returnOnAssets"`
	} `json:"financialData"`
	AssetProfile struct {
		Sector string `json:"sector"`
	} `json:"assetProfile"`
}
