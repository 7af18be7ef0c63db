// Package dataflows wraps the external market and news providers behind
// small interfaces so the pipeline stages can be tested with fakes.
package dataflows

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"
)

// Providers bundles the live data sources built from configuration.
type Providers struct {
	Market   MarketData
	News     NewsFeed
	Fallback NewsSearcher
	Universe Universe
}

// NewProviders wires Yahoo market data (cached when enabled), Yahoo news,
// the NewsAPI fallback and the NSE universe.
func NewProviders(cfg *Config, logger *log.Logger) *Providers {
	var market MarketData = NewYahooFinance(cfg, logger)
	if cfg.CacheEnabled && cfg.CacheTTLMinutes > 0 {
		market = NewCachedMarketData(market,
			time.Duration(cfg.CacheTTLMinutes)*time.Minute,
			filepath.Join(cfg.DataCacheDir, "market"),
			logger)
	}

	return &Providers{
		Market:   market,
		News:     NewYahooNews(cfg),
		Fallback: NewNewsAPI(cfg),
		Universe: NewNSEUniverse(cfg, logger),
	}
}

// Symbol qualifies a bare ticker with the exchange suffix, e.g. TCS -> TCS.NS.
// Tickers that already carry a suffix are returned upper-cased as is.
func Symbol(ticker, suffix string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if suffix == "" || strings.Contains(t, ".") {
		return t
	}
	return t + suffix
}
