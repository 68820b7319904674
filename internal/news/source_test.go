package news

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"feargreed-dashboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubSearcher struct {
	mu       sync.Mutex
	calls    int
	queries  []string
	pageSize int
	articles []domain.NewsArticle
	err      error
}

func (s *stubSearcher) Search(ctx context.Context, query string, pageSize int) ([]domain.NewsArticle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.queries = append(s.queries, query)
	s.pageSize = pageSize
	if s.err != nil {
		return nil, s.err
	}
	return domain.CloneArticles(s.articles), nil
}

func newTestSource(clock clockwork.Clock, searcher Searcher) *Source {
	return NewSource(testTracer, zerolog.Nop(), clock, searcher, Options{RefreshInterval: 15 * time.Minute})
}

func TestFetchNewsStampsBucketAndCaches(t *testing.T) {
	clock := clockwork.NewFakeClock()
	searcher := &stubSearcher{articles: []domain.NewsArticle{
		{Title: "Bitcoin surges", Source: "Reuters", URL: "https://r.example/1", PublishedAt: "2026-02-13T10:00:00Z"},
	}}
	src := newTestSource(clock, searcher)

	got := src.FetchNews(context.Background(), 75)
	if len(got) != 1 || got[0].Sentiment != domain.BucketGreed || got[0].IsMock {
		t.Fatalf("unexpected articles: %+v", got)
	}
	if searcher.queries[0] != SearchQuery(domain.BucketGreed) || searcher.pageSize != 10 {
		t.Fatalf("unexpected search call: %q size=%d", searcher.queries[0], searcher.pageSize)
	}

	clock.Advance(14 * time.Minute)
	again := src.FetchNews(context.Background(), 90)
	if searcher.calls != 1 {
		t.Fatalf("expected cached greed bucket, got %d searches", searcher.calls)
	}
	if !reflect.DeepEqual(got, again) {
		t.Fatal("cached articles differ")
	}
}

func TestFetchNewsRefreshesAtInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	searcher := &stubSearcher{articles: []domain.NewsArticle{{Title: "a"}}}
	src := newTestSource(clock, searcher)

	src.FetchNews(context.Background(), 10)
	clock.Advance(15 * time.Minute)
	src.FetchNews(context.Background(), 10)
	if searcher.calls != 2 {
		t.Fatalf("expected refresh once the window elapsed, got %d", searcher.calls)
	}
}

func TestFetchNewsBucketsAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	searcher := &stubSearcher{articles: []domain.NewsArticle{{Title: "a"}}}
	src := newTestSource(clock, searcher)

	src.FetchNews(context.Background(), 10)
	src.FetchNews(context.Background(), 50)
	src.FetchNews(context.Background(), 70)
	if searcher.calls != 3 {
		t.Fatalf("expected one search per bucket, got %d", searcher.calls)
	}
	want := []string{SearchQuery(domain.BucketFear), SearchQuery(domain.BucketNeutral), SearchQuery(domain.BucketGreed)}
	if !reflect.DeepEqual(searcher.queries, want) {
		t.Fatalf("unexpected queries: %v", searcher.queries)
	}
}

func TestFetchNewsWithoutSearcherServesStableMock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := newTestSource(clock, nil)

	first := src.FetchNews(context.Background(), 30)
	if len(first) != 8 {
		t.Fatalf("expected 8 mock articles, got %d", len(first))
	}
	for _, a := range first {
		if !a.IsMock || a.Sentiment != domain.BucketFear {
			t.Fatalf("unexpected mock article: %+v", a)
		}
	}

	clock.Advance(5 * time.Minute)
	second := src.FetchNews(context.Background(), 35)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("mock articles should be identical within the refresh window")
	}
}

func TestFetchNewsFailureFallsBackToMock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	searcher := &stubSearcher{err: errors.New("426 upgrade required")}
	src := newTestSource(clock, searcher)

	got := src.FetchNews(context.Background(), 50)
	if len(got) != 8 || !got[0].IsMock || got[0].Sentiment != domain.BucketNeutral {
		t.Fatalf("expected neutral mock articles, got %+v", got)
	}
	cached, ok := src.GetCachedNews(domain.BucketNeutral)
	if !ok || !reflect.DeepEqual(cached, got) {
		t.Fatal("mock fallback should be cached")
	}

	src.FetchNews(context.Background(), 50)
	if searcher.calls != 1 {
		t.Fatalf("cached mock should suppress retries inside the window, got %d", searcher.calls)
	}
}

func TestNewsClearCache(t *testing.T) {
	clock := clockwork.NewFakeClock()
	searcher := &stubSearcher{articles: []domain.NewsArticle{{Title: "a"}}}
	src := newTestSource(clock, searcher)

	src.FetchNews(context.Background(), 50)
	src.ClearCache()
	if _, ok := src.GetCachedNews(domain.BucketNeutral); ok {
		t.Fatal("expected empty cache")
	}
	src.FetchNews(context.Background(), 50)
	if searcher.calls != 2 {
		t.Fatalf("expected refetch after clear, got %d", searcher.calls)
	}
}
