package dataflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/dyike/PortfolioGo/models"
)

// NewsAPI is the metered fallback news source (newsapi.org).
type NewsAPI struct {
	client  *resty.Client
	apiKey  string
	limiter *rate.Limiter
}

func NewNewsAPI(cfg *Config) *NewsAPI {
	client := resty.New()
	client.SetBaseURL(cfg.NewsAPIBaseURL)
	client.SetTimeout(time.Duration(cfg.HTTPTimeoutSeconds) * time.Second)

	return &NewsAPI{
		client:  client,
		apiKey:  cfg.NewsAPIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.NewsAPIRatePerSec), 1),
	}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// SearchNews queries the everything endpoint by free text, newest first.
func (n *NewsAPI) SearchNews(ctx context.Context, query string, pageSize int) ([]models.Article, error) {
	if n.apiKey == "" {
		return nil, errors.New("news api key not configured")
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", n.apiKey).
		SetQueryParams(map[string]string{
			"q":        query,
			"language": "en",
			"sortBy":   "publishedAt",
			"pageSize": strconv.Itoa(pageSize),
		}).
		Get("/everything")
	if err != nil {
		return nil, fmt.Errorf("news search for %q: %w", query, err)
	}

	var body newsAPIResponse
	_ = json.Unmarshal(resp.Body(), &body)

	if resp.StatusCode() == http.StatusTooManyRequests || body.Code == "rateLimited" {
		return nil, fmt.Errorf("news search for %q: %s: %w", query, body.Message, ErrRateLimited)
	}
	if resp.StatusCode() != http.StatusOK || body.Status != "ok" {
		return nil, fmt.Errorf("news search for %q: status %d %s: %s", query, resp.StatusCode(), body.Code, body.Message)
	}

	articles := make([]models.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		articles = append(articles, models.Article{
			Title:       cleanText(a.Title),
			Link:        a.URL,
			Publisher:   a.Source.Name,
			PublishDate: publishDate(a.PublishedAt),
		})
	}
	return articles, nil
}

// publishDate keeps the YYYY-MM-DD part of an RFC 3339 timestamp.
func publishDate(ts string) string {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.UTC().Format("2006-01-02")
	}
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
