package news

import (
	"context"
	"sync"
	"time"

	"feargreed-dashboard/internal/domain"
	"feargreed-dashboard/internal/metrics"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRefreshInterval = 15 * time.Minute
	DefaultPageSize        = 10
)

// Searcher looks up articles for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, pageSize int) ([]domain.NewsArticle, error)
}

type Options struct {
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	PageSize        int
}

type entry struct {
	articles  []domain.NewsArticle
	fetchedAt time.Time
}

// Source serves headlines for the sentiment bucket of a value. Each bucket
// is cached on its own; mock articles stand in for missing credentials or
// failed searches and are cached the same way.
type Source struct {
	tracer   trace.Tracer
	logger   zerolog.Logger
	clock    clockwork.Clock
	searcher Searcher

	refreshInterval time.Duration
	fetchTimeout    time.Duration
	pageSize        int

	mu    sync.Mutex
	cache map[domain.Bucket]entry

	flights singleflight.Group
}

// NewSource takes a nil searcher when no news credentials are configured.
func NewSource(tracer trace.Tracer, logger zerolog.Logger, clock clockwork.Clock, searcher Searcher, opts Options) *Source {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Source{
		tracer:          tracer,
		logger:          logger.With().Str("component", "news-source").Logger(),
		clock:           clock,
		searcher:        searcher,
		refreshInterval: opts.RefreshInterval,
		fetchTimeout:    opts.FetchTimeout,
		pageSize:        opts.PageSize,
		cache:           make(map[domain.Bucket]entry, len(domain.Buckets)),
	}
}

// FetchNews returns articles for the bucket of sentimentValue. It never
// fails: anything that goes wrong yields mock articles.
func (s *Source) FetchNews(ctx context.Context, sentimentValue int) []domain.NewsArticle {
	bucket := domain.BucketFor(sentimentValue)

	ctx, span := s.tracer.Start(ctx, "news-source.fetch-news")
	defer span.End()
	span.SetAttributes(attribute.String("news.bucket", string(bucket)))

	if e, ok := s.entry(bucket); ok && s.clock.Since(e.fetchedAt) < s.refreshInterval {
		metrics.CacheHits.WithLabelValues("news", string(bucket)).Inc()
		return domain.CloneArticles(e.articles)
	}

	v, _, _ := s.flights.Do(string(bucket), func() (any, error) {
		return s.refresh(ctx, bucket), nil
	})
	return domain.CloneArticles(v.([]domain.NewsArticle))
}

// GetCachedNews returns the cached articles for a bucket, fresh or not.
func (s *Source) GetCachedNews(bucket domain.Bucket) ([]domain.NewsArticle, bool) {
	e, ok := s.entry(bucket)
	if !ok {
		return nil, false
	}
	return domain.CloneArticles(e.articles), true
}

func (s *Source) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[domain.Bucket]entry, len(domain.Buckets))
	s.mu.Unlock()
}

func (s *Source) refresh(ctx context.Context, bucket domain.Bucket) []domain.NewsArticle {
	articles, err := s.search(ctx, bucket)
	if err != nil {
		s.logger.Warn().Err(err).Str("bucket", string(bucket)).Msg("news search failed, using mock articles")
	}
	if articles == nil {
		metrics.FallbacksTotal.WithLabelValues("news", string(bucket), "mock").Inc()
		articles = MockArticles(bucket, s.clock.Now())
	}

	s.mu.Lock()
	s.cache[bucket] = entry{articles: articles, fetchedAt: s.clock.Now()}
	s.mu.Unlock()
	return articles
}

// search returns nil articles when no searcher is configured.
func (s *Source) search(ctx context.Context, bucket domain.Bucket) ([]domain.NewsArticle, error) {
	if s.searcher == nil {
		return nil, nil
	}

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
	defer cancel()

	start := s.clock.Now()
	found, err := s.searcher.Search(fetchCtx, SearchQuery(bucket), s.pageSize)
	metrics.FetchDuration.WithLabelValues("news").Observe(s.clock.Since(start).Seconds())
	if err != nil {
		metrics.FetchTotal.WithLabelValues("news", "error").Inc()
		return nil, err
	}
	metrics.FetchTotal.WithLabelValues("news", "ok").Inc()

	articles := make([]domain.NewsArticle, len(found))
	for i, a := range found {
		a.Sentiment = bucket
		a.IsMock = false
		articles[i] = a
	}
	return articles, nil
}

func (s *Source) entry(bucket domain.Bucket) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[bucket]
	return e, ok
}
