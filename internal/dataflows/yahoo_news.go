package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/dyike/PortfolioGo/models"
)

// YahooNews is the primary news source, backed by the Yahoo search endpoint.
type YahooNews struct {
	client *resty.Client
	count  int
}

func NewYahooNews(cfg *Config) *YahooNews {
	client := resty.New()
	client.SetBaseURL(cfg.YahooBaseURL)
	client.SetTimeout(time.Duration(cfg.HTTPTimeoutSeconds) * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; PortfolioGo/1.0)")

	return &YahooNews{client: client, count: cfg.PrimaryNewsFetched}
}

type yahooSearchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Link                string `json:"link"`
		Publisher           string `json:"publisher"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// CompanyNews returns articles about symbol published after since.
func (yn *YahooNews) CompanyNews(ctx context.Context, symbol string, since time.Time) ([]models.Article, error) {
	resp, err := yn.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":           symbol,
			"quotesCount": "0",
			"newsCount":   strconv.Itoa(yn.count),
		}).
		Get("/v1/finance/search")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", symbol, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("news for %s: %w", symbol, ErrRateLimited)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode(), resp.String())
	}

	var body yahooSearchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}

	articles := make([]models.Article, 0, len(body.News))
	for _, item := range body.News {
		published := time.Unix(item.ProviderPublishTime, 0)
		if !published.After(since) {
			continue
		}
		articles = append(articles, models.Article{
			Title:       cleanText(item.Title),
			Link:        item.Link,
			Publisher:   item.Publisher,
			PublishDate: published.UTC().Format("2006-01-02"),
		})
	}
	return articles, nil
}

// cleanText strips markup that some providers leave in headlines.
func cleanText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
