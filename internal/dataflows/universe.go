package dataflows

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/phuslu/log"
)

// fallbackUniverse is served when the exchange list cannot be downloaded.
var fallbackUniverse = []string{
	"ASIANPAINT", "AXISBANK", "BAJFINANCE", "BHARTIARTL", "HCLTECH",
	"HDFCBANK", "HINDUNILVR", "ICICIBANK", "INFY", "ITC",
	"KOTAKBANK", "LT", "MARUTI", "NESTLEIND", "NTPC",
	"ONGC", "POWERGRID", "RELIANCE", "SBIN", "SUNPHARMA",
	"TATAMOTORS", "TATASTEEL", "TCS", "TITAN", "ULTRACEMCO", "WIPRO",
}

// NSEUniverse downloads the NSE equity list and keeps it for a day.
type NSEUniverse struct {
	client *resty.Client
	url    string
	cache  *ttlCache[[]string]
	log    *log.Logger
}

func NewNSEUniverse(cfg *Config, logger *log.Logger) *NSEUniverse {
	client := resty.New()
	client.SetTimeout(time.Duration(cfg.HTTPTimeoutSeconds) * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; PortfolioGo/1.0)")

	return &NSEUniverse{
		client: client,
		url:    cfg.UniverseURL,
		cache:  newTTLCache[[]string](24 * time.Hour),
		log:    logger,
	}
}

// Tickers returns the sorted NSE symbols, or the built-in list when the
// download fails. It never returns an empty list.
func (u *NSEUniverse) Tickers(ctx context.Context) ([]string, error) {
	if t, ok := u.cache.get("nse"); ok {
		return t, nil
	}
	tickers, err := u.download(ctx)
	if err != nil || len(tickers) == 0 {
		u.log.Warn().Err(err).Str("url", u.url).Msg("using built-in stock universe")
		return append([]string(nil), fallbackUniverse...), nil
	}
	u.cache.set("nse", tickers)
	return tickers, nil
}

func (u *NSEUniverse) download(ctx context.Context) ([]string, error) {
	if u.url == "" {
		return nil, fmt.Errorf("universe url not configured")
	}
	resp, err := u.client.R().SetContext(ctx).Get(u.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("universe download: status %d", resp.StatusCode())
	}
	return parseEquityList(resp.Body())
}

// parseEquityList reads the SYMBOL column of EQUITY_L.csv.
func parseEquityList(data []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse equity list: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "SYMBOL") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("parse equity list: SYMBOL column missing")
	}

	seen := make(map[string]bool)
	tickers := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(row[col]))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		tickers = append(tickers, sym)
	}
	sort.Strings(tickers)
	return tickers, nil
}
