package agents

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/internal/dataflows"
	"github.com/dyike/PortfolioGo/internal/llm"
	"github.com/dyike/PortfolioGo/internal/parsers"
	"github.com/dyike/PortfolioGo/models"
)

const holdingsCSV = "Instrument,Qty.,Avg. cost,Invested,Cur. val,P&L\nRELIANCE,10,100,1000,1200,200\nTCS,5,200,1000,800,-200\n"

func stateWithFile(name, content string) *models.WorkflowState {
	return models.NewWorkflowState(&models.UploadedFile{Name: name, Content: []byte(content)})
}

func TestIngestion(t *testing.T) {
	d := testDeps(t, newFakeMarket(nil), &fakeGenerator{respond: standardReplies})
	d.Parsers.Register("err", parsers.ParserFunc(func(ctx context.Context, content []byte) (*models.Portfolio, error) {
		return nil, errors.New("disk on fire")
	}))
	d.Parsers.Register("boom", parsers.ParserFunc(func(ctx context.Context, content []byte) (*models.Portfolio, error) {
		panic("parser exploded")
	}))
	ingest := NewIngestion(d)
	ctx := context.Background()

	t.Run("no file", func(t *testing.T) {
		delta := ingest(ctx, models.NewWorkflowState(nil))
		assert.Equal(t, "No file was uploaded.", delta.Fatal)
		assert.Nil(t, delta.Portfolio)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		delta := ingest(ctx, stateWithFile("holdings.txt", "whatever"))
		assert.Equal(t, "Unsupported file type: .txt", delta.Fatal)
	})

	t.Run("parse failure", func(t *testing.T) {
		delta := ingest(ctx, stateWithFile("holdings.csv", "Instrument,Qty.\nTCS,1\n"))
		assert.Equal(t, consts.MsgParseFailed, delta.Fatal)
		assert.Nil(t, delta.Portfolio)
	})

	t.Run("unexpected error", func(t *testing.T) {
		delta := ingest(ctx, stateWithFile("holdings.err", "x"))
		assert.Equal(t, "An unexpected error occurred during file ingestion: disk on fire", delta.Fatal)
	})

	t.Run("parser panic", func(t *testing.T) {
		delta := ingest(ctx, stateWithFile("holdings.boom", "x"))
		assert.Equal(t, "An unexpected error occurred during file ingestion: parser exploded", delta.Fatal)
		assert.Nil(t, delta.Portfolio)
	})

	t.Run("success", func(t *testing.T) {
		delta := ingest(ctx, stateWithFile("Holdings.CSV", holdingsCSV))
		assert.Empty(t, delta.Fatal)
		require.NotNil(t, delta.Portfolio)
		assert.Len(t, delta.Portfolio.Stocks, 2)
		assert.Equal(t, consts.Ingest, delta.Stage)
	})
}

func TestValidation(t *testing.T) {
	validate := NewValidation(testDeps(t, newFakeMarket(nil), &fakeGenerator{respond: standardReplies}))
	ctx := context.Background()

	tests := []struct {
		name      string
		portfolio *models.Portfolio
		fatal     string
	}{
		{"absent portfolio", nil, consts.MsgInvalidPortfolio},
		{"absent stocks", &models.Portfolio{}, consts.MsgStocksMissing},
		{"empty stocks", &models.Portfolio{Stocks: []models.Holding{}}, consts.MsgNoStocks},
		{"valid", &models.Portfolio{Stocks: []models.Holding{{Ticker: "TCS"}}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := models.NewWorkflowState(nil)
			s.Portfolio = tt.portfolio
			delta := validate(ctx, s)
			assert.Equal(t, tt.fatal, delta.Fatal)
			assert.Nil(t, delta.Portfolio, "validation must not modify the portfolio")
		})
	}
}

func TestStockAnalyst(t *testing.T) {
	market := newFakeMarket(map[string]fakeQuote{
		"RELIANCE.NS": fullQuote("Reliance Industries", 1.1, "Energy"),
		"BAD.NS":      {name: "Bad Co", fundamentals: nil, technicals: &models.Technicals{RSI14: models.Float(40)}},
	})
	gen := &fakeGenerator{respond: standardReplies}
	d := testDeps(t, market, gen)

	s := models.NewWorkflowState(nil)
	s.Portfolio = &models.Portfolio{Stocks: []models.Holding{
		{Ticker: "RELIANCE", Quantity: 10, InvestedValue: 1000, CurrentValue: 1200, PnL: 200},
		{Ticker: "BAD", Quantity: 1, InvestedValue: 10, CurrentValue: 10},
		{Ticker: ""},
	}}

	delta := NewStockAnalyst(d)(context.Background(), s)

	require.Len(t, delta.Enriched, 1)
	got := delta.Enriched[0]
	assert.Equal(t, "RELIANCE", got.Ticker)
	assert.Equal(t, "Reliance Industries", got.Name)
	assert.Equal(t, 1200.0, got.CurrentValue)
	assert.Equal(t, "Buy", got.Recommendation)
	assert.Equal(t, "High", got.Urgency)
	assert.Equal(t, "Strong on both fronts.", got.Reason)
	assert.Equal(t, 1.1, *got.Beta)
	assert.Equal(t, "Energy", got.SectorName())
	assert.Len(t, got.PriceHistory, 2)

	assert.Equal(t, []string{
		"Could not process stock BAD: Live market data could not be retrieved from the provider.",
		"Skipped holding #3: ticker is missing.",
	}, delta.Errors)

	// the circuit breaker stops before any model call for BAD
	assert.Equal(t, 1, gen.count(llm.FundamentalPrompt))
	assert.Equal(t, 1, gen.count(llm.SynthesisPrompt))

	// the input holding is not touched
	assert.Empty(t, s.Portfolio.Stocks[0].Recommendation)
}

func TestStockAnalystDegradedVerdict(t *testing.T) {
	market := newFakeMarket(map[string]fakeQuote{"INFY.NS": fullQuote("Infosys", 0.9, "Technology")})
	gen := &fakeGenerator{respond: func(template string, vars map[string]any) (string, error) {
		if template == llm.SynthesisPrompt {
			return "I would rather not say.", nil
		}
		return standardReplies(template, vars)
	}}
	d := testDeps(t, market, gen)

	s := models.NewWorkflowState(nil)
	s.Portfolio = &models.Portfolio{Stocks: []models.Holding{{Ticker: "INFY"}}}
	delta := NewStockAnalyst(d)(context.Background(), s)

	require.Len(t, delta.Enriched, 1)
	assert.Equal(t, "N/A", delta.Enriched[0].Recommendation)
	assert.Equal(t, "N/A", delta.Enriched[0].Urgency)
	assert.Equal(t, "AI synthesis failed.", delta.Enriched[0].Reason)
	assert.Empty(t, delta.Errors)
}

func TestStockAnalystPartialJSONAndDefaultBeta(t *testing.T) {
	q := fullQuote("Infosys", 0, "Technology")
	q.beta = nil
	market := newFakeMarket(map[string]fakeQuote{"INFY.NS": q})
	var sawBeta any
	gen := &fakeGenerator{respond: func(template string, vars map[string]any) (string, error) {
		if template == llm.SynthesisPrompt {
			sawBeta = vars["beta"]
			return `{"recommendation": "Hold"}`, nil
		}
		return standardReplies(template, vars)
	}}
	d := testDeps(t, market, gen)

	s := models.NewWorkflowState(nil)
	s.Portfolio = &models.Portfolio{Stocks: []models.Holding{{Ticker: "INFY"}}}
	delta := NewStockAnalyst(d)(context.Background(), s)

	require.Len(t, delta.Enriched, 1)
	assert.Equal(t, 1.0, sawBeta)
	assert.Equal(t, 1.0, *delta.Enriched[0].Beta)
	assert.Equal(t, "Hold", delta.Enriched[0].Recommendation)
	assert.Equal(t, "N/A", delta.Enriched[0].Urgency)
	assert.Equal(t, "AI synthesis failed.", delta.Enriched[0].Reason)
}

func TestStockAnalystModelErrorSkipsHolding(t *testing.T) {
	market := newFakeMarket(map[string]fakeQuote{
		"ITC.NS": fullQuote("ITC", 0.7, "Consumer Defensive"),
		"TCS.NS": fullQuote("TCS", 0.6, "Technology"),
	})
	var calls atomic.Int32
	gen := &fakeGenerator{respond: func(template string, vars map[string]any) (string, error) {
		if template == llm.FundamentalPrompt && calls.Add(1) == 1 {
			return "", errors.New("model unavailable")
		}
		return standardReplies(template, vars)
	}}
	d := testDeps(t, market, gen)

	s := models.NewWorkflowState(nil)
	s.Portfolio = &models.Portfolio{Stocks: []models.Holding{{Ticker: "ITC"}, {Ticker: "TCS"}}}
	delta := NewStockAnalyst(d)(context.Background(), s)

	require.Len(t, delta.Enriched, 1)
	assert.Equal(t, "TCS", delta.Enriched[0].Ticker)
	assert.Equal(t, []string{"Could not process stock ITC: model unavailable"}, delta.Errors)
}

func articles(titles ...string) []models.Article {
	out := make([]models.Article, len(titles))
	for i, title := range titles {
		out[i] = models.Article{Title: title, Link: fmt.Sprintf("https://news/%d", i), Publisher: "Wire", PublishDate: "2025-06-30"}
	}
	return out
}

func TestNewsAnalystPrimaryCapAndUntitled(t *testing.T) {
	gen := &fakeGenerator{respond: standardReplies}
	d := testDeps(t, newFakeMarket(nil), gen)
	primary := &fakeNews{articles: map[string][]models.Article{
		"TCS.NS": articles("one", "", "three", "four", "five", "six"),
	}}
	fallback := &fakeSearcher{}
	d.News, d.Fallback = primary, fallback

	s := models.NewWorkflowState(nil)
	s.Enriched = []models.Holding{{Ticker: "TCS", Name: "Tata Consultancy Services"}}
	delta := NewNewsAnalyst(d)(context.Background(), s)

	require.Len(t, delta.News, 1)
	bundle := delta.News[0]
	assert.Equal(t, "Tata Consultancy Services", bundle.Ticker)
	require.Len(t, bundle.Articles, 4)
	assert.Equal(t, "one", bundle.Articles[0].Title)
	assert.Equal(t, "Summary of one", bundle.Articles[0].Summary)
	assert.Equal(t, "five", bundle.Articles[3].Title)
	assert.Empty(t, fallback.queries)
	assert.Equal(t, d.now().AddDate(0, 0, -60), primary.since)
}

func TestNewsAnalystFallback(t *testing.T) {
	gen := &fakeGenerator{respond: standardReplies}
	d := testDeps(t, newFakeMarket(nil), gen)
	fallback := &fakeSearcher{articles: map[string][]models.Article{"Infosys": articles("Infosys deal")}}
	d.News, d.Fallback = &fakeNews{}, fallback

	s := models.NewWorkflowState(nil)
	s.Enriched = []models.Holding{{Ticker: "INFY", Name: "Infosys"}, {Ticker: "NONE", Name: "Nobody"}}
	delta := NewNewsAnalyst(d)(context.Background(), s)

	require.Len(t, delta.News, 1)
	assert.Equal(t, "Infosys", delta.News[0].Ticker)
	assert.Equal(t, "Summary of Infosys deal", delta.News[0].Articles[0].Summary)
	assert.Equal(t, []string{"Infosys", "Nobody"}, fallback.queries)
	assert.Equal(t, []int{3, 3}, fallback.sizes)
	assert.Empty(t, delta.Errors)
}

func TestNewsAnalystRateLimitTripsOnce(t *testing.T) {
	gen := &fakeGenerator{respond: standardReplies}
	d := testDeps(t, newFakeMarket(nil), gen)
	fallback := &fakeSearcher{err: fmt.Errorf("search: %w", dataflows.ErrRateLimited)}
	d.News, d.Fallback = &fakeNews{}, fallback

	s := models.NewWorkflowState(nil)
	s.Enriched = []models.Holding{
		{Ticker: "A", Name: "Alpha"},
		{Ticker: "B", Name: "Beta"},
		{Ticker: "C", Name: "Gamma"},
	}
	stage := NewNewsAnalyst(d)
	delta := stage(context.Background(), s)

	assert.Empty(t, delta.News)
	assert.Equal(t, []string{consts.NewsAPIExhausted}, delta.Errors)
	assert.Equal(t, []string{"Alpha"}, fallback.queries)

	// a new run starts with the fallback available again
	delta = stage(context.Background(), s)
	assert.Equal(t, []string{consts.NewsAPIExhausted}, delta.Errors)
	assert.Equal(t, []string{"Alpha", "Alpha"}, fallback.queries)
}

func TestNewsAnalystEmptyInput(t *testing.T) {
	d := testDeps(t, newFakeMarket(nil), &fakeGenerator{respond: standardReplies})
	delta := NewNewsAnalyst(d)(context.Background(), models.NewWorkflowState(nil))
	assert.NotNil(t, delta.News)
	assert.Empty(t, delta.News)
}

func TestNewsAnalystSummaryFailureSkipsHolding(t *testing.T) {
	gen := &fakeGenerator{respond: func(template string, vars map[string]any) (string, error) {
		if vars["article_title"] == "bad" {
			return "", errors.New("timeout")
		}
		return standardReplies(template, vars)
	}}
	d := testDeps(t, newFakeMarket(nil), gen)
	d.News = &fakeNews{articles: map[string][]models.Article{
		"A.NS": articles("bad"),
		"B.NS": articles("good"),
	}}

	s := models.NewWorkflowState(nil)
	s.Enriched = []models.Holding{{Ticker: "A", Name: "Alpha"}, {Ticker: "B", Name: "Beta"}}
	delta := NewNewsAnalyst(d)(context.Background(), s)

	require.Len(t, delta.News, 1)
	assert.Equal(t, "Beta", delta.News[0].Ticker)
	assert.Empty(t, delta.Errors)
}

func TestBuildReport(t *testing.T) {
	s := models.NewWorkflowState(nil)
	s.Errors = []string{"Could not process stock X: boom"}
	s.Enriched = []models.Holding{
		{Ticker: "A", InvestedValue: 1000, CurrentValue: 1200, PnL: 200, Beta: models.Float(0.6)},
		{Ticker: "B", InvestedValue: 1000, CurrentValue: 800, PnL: -200, Beta: models.Float(1.5)},
	}

	r := BuildReport(s)
	assert.Len(t, r.StockAnalysis, 2)
	assert.NotNil(t, r.News)
	assert.Equal(t, s.Errors, r.AnalysisErrors)
	require.NotNil(t, r.AggregateMetrics)
	assert.Equal(t, 2000.0, r.TotalInvestment)
	assert.InDelta(t, 0.96, *r.WeightedBeta, 1e-9)
	assert.Equal(t, consts.RiskModerate, r.RiskProfile)

	empty := BuildReport(models.NewWorkflowState(nil))
	assert.Nil(t, empty.AggregateMetrics)
	assert.NotNil(t, empty.StockAnalysis)
	assert.NotNil(t, empty.AnalysisErrors)
}

func TestScreener(t *testing.T) {
	quotes := map[string]fakeQuote{}
	for _, tk := range []string{"AAA", "BBB", "CCC", "DDD"} {
		quotes[tk+".NS"] = fullQuote(tk+" Ltd", 0.7, "Utilities")
	}
	market := newFakeMarket(quotes)

	var inflight, peak atomic.Int32
	gen := &fakeGenerator{respond: func(template string, vars map[string]any) (string, error) {
		n := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)

		switch vars["ticker"] {
		case "AAA":
			return `{"match": "Yes", "reason": "Low beta utility."}`, nil
		case "BBB":
			return `{"match": "No", "reason": "Too volatile."}`, nil
		case "CCC":
			return "", errors.New("model down")
		}
		return "not json", nil
	}}
	d := testDeps(t, market, gen)
	d.Config.ScreenerWorkers = 2

	res, err := NewScreener(d).Screen(context.Background(), models.ScreenRequest{
		Tickers:      []string{"aaa", "BBB", "CCC", "DDD", "ZZZ"},
		RiskAppetite: "Conservative",
		Horizon:      consts.Horizons[1],
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, models.ScreenResult{Ticker: "AAA", Name: "AAA Ltd", Sector: "Utilities", Beta: 0.7, Reason: "Low beta utility."}, res[0])
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 4, gen.count(llm.ScreenPrompt), "ZZZ has no data and never reaches the model")
}

func TestScreenerRejectsInvalidRequest(t *testing.T) {
	d := testDeps(t, newFakeMarket(nil), &fakeGenerator{respond: standardReplies})
	_, err := NewScreener(d).Screen(context.Background(), models.ScreenRequest{
		Tickers:      []string{"TCS"},
		RiskAppetite: "Reckless",
		Horizon:      "forever",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RiskAppetite")
}

func TestDetailedAnalysis(t *testing.T) {
	q := fullQuote("Tata Consultancy Services", 0.6, "Technology")
	q.fundamentals.ForwardPERatio = models.Float(24)
	market := newFakeMarket(map[string]fakeQuote{"TCS.NS": q})
	gen := &fakeGenerator{respond: func(template string, vars map[string]any) (string, error) {
		assert.Equal(t, llm.ProsConsPrompt, template)
		assert.Equal(t, "Tata Consultancy Services", vars["stock_name"])
		return "```json\n{\"pros\": [\"Cash rich\", \"No debt\", \"Global clients\"], \"cons\": [\"Rich valuation\", \"Slow growth\", \"Currency risk\"]}\n```", nil
	}}
	d := testDeps(t, market, gen)

	res := DetailedAnalysis(context.Background(), d, " tcs ")
	assert.Equal(t, "Tata Consultancy Services", res.Name)
	assert.Len(t, res.ProsCons.Pros, 3)
	assert.Equal(t, "Currency risk", res.ProsCons.Cons[2])
	require.Len(t, res.Scorecard, 5)
	assert.True(t, *res.Scorecard[0].Pass)
	assert.False(t, *res.Scorecard[1].Pass)
}

func TestDetailedAnalysisFailures(t *testing.T) {
	market := newFakeMarket(map[string]fakeQuote{"TCS.NS": fullQuote("TCS", 0.6, "Technology")})
	gen := &fakeGenerator{respond: func(string, map[string]any) (string, error) { return "no structure here", nil }}
	d := testDeps(t, market, gen)

	res := DetailedAnalysis(context.Background(), d, "TCS")
	assert.Equal(t, []string{"AI analysis failed."}, res.ProsCons.Pros)
	assert.Equal(t, []string{"AI analysis failed."}, res.ProsCons.Cons)

	res = DetailedAnalysis(context.Background(), d, "MISSING")
	assert.Equal(t, "MISSING", res.Name)
	assert.Equal(t, []string{"Data fetching failed."}, res.ProsCons.Pros)
	assert.True(t, res.Fundamentals.IsEmpty())
}

func TestWhatIf(t *testing.T) {
	market := newFakeMarket(map[string]fakeQuote{"HDFCBANK.NS": fullQuote("HDFC Bank", 1.0, "Financial Services")})
	d := testDeps(t, market, &fakeGenerator{respond: standardReplies})

	portfolio := []models.Holding{
		{Ticker: "A", InvestedValue: 1000, CurrentValue: 1200, Beta: models.Float(0.6)},
		{Ticker: "B", InvestedValue: 1000, CurrentValue: 800, Beta: models.Float(1.5)},
	}

	cmp, err := WhatIf(context.Background(), d, portfolio, "hdfcbank", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 110.0, cmp.Hypothetical.AverageCost, "defaults to the latest close")
	assert.Equal(t, 1100.0, cmp.Hypothetical.InvestedValue)
	assert.Equal(t, 1100.0, cmp.Hypothetical.CurrentValue)
	assert.Equal(t, "HDFC Bank", cmp.Hypothetical.Name)
	assert.Equal(t, 2000.0, cmp.Original.TotalInvestment)
	assert.Equal(t, 3100.0, cmp.Simulated.TotalInvestment)
	assert.Equal(t, 1100.0, cmp.Simulated.SectorAllocation["Financial Services"])
	assert.Len(t, portfolio, 2)

	cmp, err = WhatIf(context.Background(), d, portfolio, "HDFCBANK", 2, 50)
	require.NoError(t, err)
	assert.Equal(t, 100.0, cmp.Hypothetical.CurrentValue)
}

func TestWhatIfRejectsBadInput(t *testing.T) {
	d := testDeps(t, newFakeMarket(nil), &fakeGenerator{respond: standardReplies})
	_, err := WhatIf(context.Background(), d, nil, "TCS", 0, 10)
	assert.Error(t, err)
	_, err = WhatIf(context.Background(), d, nil, "", 1, 10)
	assert.Error(t, err)
	_, err = WhatIf(context.Background(), d, nil, "NOPE", 1, 0)
	assert.ErrorIs(t, err, dataflows.ErrNoData)
}

func TestNewStagesWiresAll(t *testing.T) {
	st := NewStages(testDeps(t, newFakeMarket(nil), &fakeGenerator{respond: standardReplies}))
	for i, f := range []StageFunc{st.Ingest, st.Validate, st.Enrich, st.News, st.Report} {
		assert.NotNil(t, f, consts.Stages[i])
	}
}
