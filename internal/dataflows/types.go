package dataflows

import (
	"context"
	"errors"
	"time"

	"github.com/dyike/PortfolioGo/config"
	"github.com/dyike/PortfolioGo/models"
)

// Config is an alias for the main application config
type Config = config.Config

var (
	// ErrRateLimited is returned when a provider reports its quota is spent.
	ErrRateLimited = errors.New("provider rate limit reached")
	// ErrNoData is returned when a provider answered but had nothing for the symbol.
	ErrNoData = errors.New("no data returned by provider")
)

// MarketData supplies the per-security figures used by enrichment, the
// screener and the detailed analysis. Symbols are exchange qualified.
type MarketData interface {
	CompanyName(ctx context.Context, symbol string) (string, error)
	Beta(ctx context.Context, symbol string) (float64, error)
	Fundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error)
	Technicals(ctx context.Context, symbol string) (*models.Technicals, error)
	PriceHistory(ctx context.Context, symbol string) ([]models.PricePoint, error)
}

// NewsFeed is the primary, unmetered news source keyed by symbol.
type NewsFeed interface {
	CompanyNews(ctx context.Context, symbol string, since time.Time) ([]models.Article, error)
}

// NewsSearcher is the metered free-text news source. Implementations return
// an error wrapping ErrRateLimited when the quota is exhausted.
type NewsSearcher interface {
	SearchNews(ctx context.Context, query string, pageSize int) ([]models.Article, error)
}

// Universe lists the tickers the screener may pick from.
type Universe interface {
	Tickers(ctx context.Context) ([]string, error)
}

// Bar is one closing price.
type Bar struct {
	Date  time.Time
	Close float64
}
