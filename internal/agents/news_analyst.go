package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dyike/PortfolioGo/consts"
	"github.com/dyike/PortfolioGo/internal/dataflows"
	"github.com/dyike/PortfolioGo/internal/llm"
	"github.com/dyike/PortfolioGo/models"
)

// NewNewsAnalyst attaches summarized headlines to every enriched holding.
// The primary feed is tried first; the metered fallback is used only while
// it has not reported its quota exhausted during this run.
func NewNewsAnalyst(d *Deps) StageFunc {
	return func(ctx context.Context, state *models.WorkflowState) *models.StateDelta {
		delta := &models.StateDelta{Stage: consts.News, News: []models.NewsBundle{}}
		delta.Logf("---FETCHING & SUMMARIZING NEWS (Hybrid Method)---")
		if len(state.Enriched) == 0 {
			return delta
		}

		// scoped to this invocation, which is one run
		fallbackExhausted := false
		since := d.now().AddDate(0, 0, -d.Config.NewsLookbackDays)

		for _, h := range state.Enriched {
			if h.Ticker == "" || h.Name == "" {
				continue
			}
			bundle, err := newsForHolding(ctx, d, h, since, &fallbackExhausted, delta)
			if err != nil {
				delta.Logf(fmt.Sprintf("Could not process news for %s: %v", h.Name, err))
				d.Log.Warn().Err(err).Str("ticker", h.Ticker).Msg("news skipped")
				continue
			}
			if bundle != nil {
				delta.News = append(delta.News, *bundle)
			}
		}
		return delta
	}
}

func newsForHolding(ctx context.Context, d *Deps, h models.Holding, since time.Time, exhausted *bool, delta *models.StateDelta) (bundle *models.NewsBundle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	delta.Logf(fmt.Sprintf("Fetching news for %s...", h.Name))
	articles, err := d.News.CompanyNews(ctx, d.symbol(h.Ticker), since)
	if err != nil {
		d.Log.Debug().Err(err).Str("ticker", h.Ticker).Msg("primary news failed")
		articles = nil
	}

	if len(articles) == 0 && !*exhausted && d.Fallback != nil {
		delta.Logf(fmt.Sprintf("Primary source had no news for %s. Trying NewsAPI fallback...", h.Name))
		found, err := d.Fallback.SearchNews(ctx, h.Name, d.Config.FallbackPageSize)
		switch {
		case errors.Is(err, dataflows.ErrRateLimited):
			*exhausted = true
			delta.Errors = append(delta.Errors, consts.NewsAPIExhausted)
			delta.Logf(consts.NewsAPIExhausted)
		case err != nil:
			d.Log.Debug().Err(err).Str("ticker", h.Ticker).Msg("fallback news failed")
		default:
			articles = found
		}
	}
	if len(articles) == 0 {
		return nil, nil
	}

	if len(articles) > d.Config.MaxArticles {
		articles = articles[:d.Config.MaxArticles]
	}
	out := models.NewsBundle{Ticker: h.Name, Articles: make([]models.Article, 0, len(articles))}
	for _, a := range articles {
		if a.Title == "" {
			continue
		}
		summary, err := d.Quick.Generate(ctx, llm.SummaryPrompt, map[string]any{"article_title": a.Title})
		if err != nil {
			return nil, err
		}
		a.Summary = summary
		out.Articles = append(out.Articles, a)
	}
	if len(out.Articles) == 0 {
		return nil, nil
	}
	return &out, nil
}
