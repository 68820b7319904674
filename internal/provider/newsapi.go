package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feargreed-dashboard/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const DefaultNewsAPIURL = "https://newsapi.org/v2/everything"

// Free tier quota: a burst of five, then one call every three minutes.
const (
	newsAPIBurst    = 5
	newsAPIInterval = 3 * time.Minute
)

// NewsAPIProvider searches newsapi.org. Calls share one limiter.
type NewsAPIProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	tracer  trace.Tracer
}

func NewNewsAPIProvider(tracer trace.Tracer, baseURL, apiKey string, timeout time.Duration) *NewsAPIProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultNewsAPIURL
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &NewsAPIProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Every(newsAPIInterval), newsAPIBurst),
		tracer:  tracer,
	}
}

// Search returns up to pageSize articles matching query, newest first.
// Sentiment is left empty for the caller to stamp.
func (p *NewsAPIProvider) Search(ctx context.Context, query string, pageSize int) ([]domain.NewsArticle, error) {
	ctx, span := p.tracer.Start(ctx, "newsapi.search")
	defer span.End()
	span.SetAttributes(attribute.String("newsapi.query", query))

	if p.apiKey == "" {
		return nil, fmt.Errorf("newsapi: api key is required")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse newsapi url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("apiKey", p.apiKey)
	u.RawQuery = q.Encode()

	var payload struct {
		Status   string `json:"status"`
		Code     string `json:"code"`
		Message  string `json:"message"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			URLToImage  string `json:"urlToImage"`
			PublishedAt string `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := getJSON(ctx, p.client, u.String(), nil, &payload); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	if payload.Status == "error" {
		return nil, fmt.Errorf("newsapi error %s: %s", payload.Code, payload.Message)
	}

	articles := make([]domain.NewsArticle, 0, len(payload.Articles))
	for _, row := range payload.Articles {
		title := sanitizeText(row.Title, 300)
		if title == "" || title == "[Removed]" {
			continue
		}
		articles = append(articles, domain.NewsArticle{
			Title:       title,
			Description: sanitizeText(row.Description, 420),
			Source:      sanitizeText(row.Source.Name, 120),
			URL:         row.URL,
			Image:       row.URLToImage,
			PublishedAt: row.PublishedAt,
		})
	}
	span.SetAttributes(attribute.Int("newsapi.articles", len(articles)))
	return articles, nil
}
