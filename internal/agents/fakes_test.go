package agents

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dyike/PortfolioGo/config"
	"github.com/dyike/PortfolioGo/internal/dataflows"
	"github.com/dyike/PortfolioGo/internal/llm"
	"github.com/dyike/PortfolioGo/internal/logger"
	"github.com/dyike/PortfolioGo/internal/parsers"
	"github.com/dyike/PortfolioGo/models"
)

type fakeQuote struct {
	name         string
	beta         *float64
	fundamentals *models.Fundamentals
	technicals   *models.Technicals
	history      []models.PricePoint
	err          error
}

type fakeMarket struct {
	mu     sync.Mutex
	quotes map[string]fakeQuote
	calls  map[string]int
}

func newFakeMarket(quotes map[string]fakeQuote) *fakeMarket {
	return &fakeMarket{quotes: quotes, calls: make(map[string]int)}
}

func (m *fakeMarket) get(symbol string) (fakeQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[symbol]++
	q, ok := m.quotes[symbol]
	if !ok {
		return q, dataflows.ErrNoData
	}
	return q, q.err
}

func (m *fakeMarket) CompanyName(ctx context.Context, symbol string) (string, error) {
	q, err := m.get(symbol)
	if err != nil {
		return symbol, err
	}
	return q.name, nil
}

func (m *fakeMarket) Beta(ctx context.Context, symbol string) (float64, error) {
	q, err := m.get(symbol)
	if err != nil {
		return 0, err
	}
	if q.beta == nil {
		return 0, dataflows.ErrNoData
	}
	return *q.beta, nil
}

func (m *fakeMarket) Fundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	q, err := m.get(symbol)
	if err != nil {
		return nil, err
	}
	if q.fundamentals == nil {
		return &models.Fundamentals{}, nil
	}
	return q.fundamentals, nil
}

func (m *fakeMarket) Technicals(ctx context.Context, symbol string) (*models.Technicals, error) {
	q, err := m.get(symbol)
	if err != nil {
		return nil, err
	}
	if q.technicals == nil {
		return &models.Technicals{}, nil
	}
	return q.technicals, nil
}

func (m *fakeMarket) PriceHistory(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	q, err := m.get(symbol)
	if err != nil {
		return nil, err
	}
	return q.history, nil
}

type fakeNews struct {
	articles map[string][]models.Article
	since    time.Time
}

func (f *fakeNews) CompanyNews(ctx context.Context, symbol string, since time.Time) ([]models.Article, error) {
	f.since = since
	return f.articles[symbol], nil
}

type fakeSearcher struct {
	articles map[string][]models.Article
	err      error
	queries  []string
	sizes    []int
}

func (f *fakeSearcher) SearchNews(ctx context.Context, query string, pageSize int) ([]models.Article, error) {
	f.queries = append(f.queries, query)
	f.sizes = append(f.sizes, pageSize)
	if f.err != nil {
		return nil, f.err
	}
	return f.articles[query], nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	respond func(template string, vars map[string]any) (string, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, template string, vars map[string]any) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, template)
	g.mu.Unlock()
	return g.respond(template, vars)
}

func (g *fakeGenerator) count(template string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, p := range g.prompts {
		if p == template {
			n++
		}
	}
	return n
}

// standardReplies answers every prompt of the pipeline with well formed text.
func standardReplies(template string, vars map[string]any) (string, error) {
	switch template {
	case llm.FundamentalPrompt:
		return "Good", nil
	case llm.TechnicalPrompt:
		return "Bullish", nil
	case llm.SynthesisPrompt:
		return "```json\n{\"recommendation\": \"Buy\", \"urgency\": \"High\", \"reason\": \"Strong on both fronts.\"}\n```", nil
	case llm.SummaryPrompt:
		return "Summary of " + vars["article_title"].(string), nil
	}
	return "", nil
}

func fullQuote(name string, beta float64, sector string) fakeQuote {
	return fakeQuote{
		name:         name,
		beta:         models.Float(beta),
		fundamentals: &models.Fundamentals{PERatio: models.Float(20), Sector: sector},
		technicals:   &models.Technicals{RSI14: models.Float(55)},
		history:      []models.PricePoint{{Date: "2025-06-27", Close: 100}, {Date: "2025-06-30", Close: 110}},
	}
}

func testDeps(t *testing.T, market *fakeMarket, gen *fakeGenerator) *Deps {
	t.Helper()
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	return &Deps{
		Config:   cfg,
		Parsers:  parsers.NewRegistry(),
		Market:   market,
		News:     &fakeNews{},
		Fallback: &fakeSearcher{},
		Quick:    gen,
		Deep:     gen,
		Log:      logger.Nop(),
		Now:      func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) },
	}
}
