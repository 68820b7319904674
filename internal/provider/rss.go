package provider

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"feargreed-dashboard/internal/domain"

	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RSSNewsProvider searches a fixed set of feeds. It needs no credentials,
// so it can stand in for NewsAPI.
type RSSNewsProvider struct {
	client *http.Client
	feeds  []string
	parser *gofeed.Parser
	tracer trace.Tracer
	now    func() time.Time
}

func NewRSSNewsProvider(tracer trace.Tracer, feeds []string, timeout time.Duration) *RSSNewsProvider {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &RSSNewsProvider{
		client: &http.Client{Timeout: timeout},
		feeds:  feeds,
		parser: gofeed.NewParser(),
		tracer: tracer,
		now:    time.Now,
	}
}

type datedArticle struct {
	article   domain.NewsArticle
	published time.Time
}

// Search keeps feed items that mention any of the OR-separated terms in
// query. It fails only when every feed fails.
func (p *RSSNewsProvider) Search(ctx context.Context, query string, pageSize int) ([]domain.NewsArticle, error) {
	ctx, span := p.tracer.Start(ctx, "rss.search")
	defer span.End()
	span.SetAttributes(attribute.Int("rss.feeds", len(p.feeds)))

	if len(p.feeds) == 0 {
		return nil, fmt.Errorf("rss: no feeds configured")
	}

	terms := queryTerms(query)
	var (
		matched []datedArticle
		lastErr error
		okFeeds int
	)
	for _, feedURL := range p.feeds {
		feed, err := p.fetchFeed(ctx, feedURL)
		if err != nil {
			lastErr = err
			continue
		}
		okFeeds++
		for _, item := range feed.Items {
			if a, ok := p.toArticle(feed, item); ok && matchesAny(a.article, terms) {
				matched = append(matched, a)
			}
		}
	}
	if okFeeds == 0 {
		span.RecordError(lastErr)
		return nil, fmt.Errorf("rss: all feeds failed: %w", lastErr)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].published.After(matched[j].published)
	})
	if pageSize > 0 && len(matched) > pageSize {
		matched = matched[:pageSize]
	}

	articles := make([]domain.NewsArticle, len(matched))
	for i, m := range matched {
		articles[i] = m.article
	}
	return articles, nil
}

func (p *RSSNewsProvider) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	body, err := get(ctx, p.client, feedURL, "application/rss+xml, application/atom+xml, application/xml, text/xml", nil)
	if err != nil {
		return nil, fmt.Errorf("rss fetch %s: %w", feedURL, err)
	}
	defer body.Close()

	feed, err := p.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("decode rss payload %s: %w", feedURL, err)
	}
	return feed, nil
}

func (p *RSSNewsProvider) toArticle(feed *gofeed.Feed, item *gofeed.Item) (datedArticle, bool) {
	title := sanitizeText(item.Title, 300)
	if title == "" {
		return datedArticle{}, false
	}

	published := p.now().UTC()
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC()
	}

	image := ""
	if item.Image != nil {
		image = item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if image == "" && strings.HasPrefix(enc.Type, "image/") {
			image = enc.URL
		}
	}

	return datedArticle{
		article: domain.NewsArticle{
			Title:       title,
			Description: sanitizeText(htmlStrip(item.Description), 420),
			Source:      sanitizeText(feed.Title, 120),
			URL:         item.Link,
			Image:       image,
			PublishedAt: published.Format(time.RFC3339),
		},
		published: published,
	}, true
}

func queryTerms(query string) []string {
	var terms []string
	for _, part := range strings.Split(query, " OR ") {
		if t := strings.ToLower(strings.TrimSpace(part)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func matchesAny(a domain.NewsArticle, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	text := strings.ToLower(a.Title + " " + a.Description)
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
