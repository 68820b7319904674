package sentiment

import (
	"context"
	"fmt"
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
	DefaultRefreshInterval = 5 * time.Minute
	DefaultFetchTimeout    = 10 * time.Second
)

// IndexFetcher reads the live index for one mode.
type IndexFetcher interface {
	FetchIndex(ctx context.Context) (*domain.SentimentReading, error)
}

type Options struct {
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	DefaultMode     domain.Mode
}

type entry struct {
	reading   domain.SentimentReading
	fetchedAt time.Time
}

// Source serves the Fear & Greed reading for the selected mode from a
// per-mode cache, refreshing it when stale and falling back to the stale
// entry or mock data when the upstream fails.
type Source struct {
	tracer trace.Tracer
	logger zerolog.Logger
	clock  clockwork.Clock
	crypto IndexFetcher
	stock  IndexFetcher
	mock   *MockGenerator

	refreshInterval time.Duration
	fetchTimeout    time.Duration

	mu    sync.Mutex
	mode  domain.Mode
	cache map[domain.Mode]entry

	listeners registry
	flights   singleflight.Group
}

// NewSource wires the fetchers. A nil stock fetcher means no stock
// credentials, so stock mode always serves mock data.
func NewSource(
	tracer trace.Tracer,
	logger zerolog.Logger,
	clock clockwork.Clock,
	crypto IndexFetcher,
	stock IndexFetcher,
	mock *MockGenerator,
	opts Options,
) *Source {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if !opts.DefaultMode.Valid() {
		opts.DefaultMode = domain.ModeCrypto
	}
	if mock == nil {
		mock = NewMockGenerator(clock, nil)
	}
	return &Source{
		tracer:          tracer,
		logger:          logger.With().Str("component", "sentiment-source").Logger(),
		clock:           clock,
		crypto:          crypto,
		stock:           stock,
		mock:            mock,
		refreshInterval: opts.RefreshInterval,
		fetchTimeout:    opts.FetchTimeout,
		mode:            opts.DefaultMode,
		cache:           make(map[domain.Mode]entry, len(domain.Modes)),
	}
}

func (s *Source) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the current mode. Caches of both modes are kept.
func (s *Source) SetMode(mode domain.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidArgument, mode)
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return nil
}

// GetCurrentIndex returns the reading for the current mode.
func (s *Source) GetCurrentIndex(ctx context.Context, forceRefresh bool) (domain.SentimentReading, error) {
	return s.GetIndex(ctx, s.Mode(), forceRefresh)
}

// GetIndex returns the reading for mode, refreshing when the cached entry
// is missing, older than the refresh interval, or forceRefresh is set.
// It fails only when the fetch fails and nothing is cached for mode.
func (s *Source) GetIndex(ctx context.Context, mode domain.Mode, forceRefresh bool) (domain.SentimentReading, error) {
	ctx, span := s.tracer.Start(ctx, "sentiment-source.get-index")
	defer span.End()
	span.SetAttributes(
		attribute.String("sentiment.mode", string(mode)),
		attribute.Bool("sentiment.force", forceRefresh),
	)

	if !mode.Valid() {
		return domain.SentimentReading{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidArgument, mode)
	}

	if !forceRefresh {
		if e, ok := s.entry(mode); ok && !s.isStale(e) {
			metrics.CacheHits.WithLabelValues("sentiment", string(mode)).Inc()
			return e.reading.Clone(), nil
		}
	}

	leader := false
	v, err, shared := s.flights.Do(string(mode), func() (any, error) {
		leader = true
		return s.refresh(ctx, mode)
	})
	span.SetAttributes(attribute.Bool("sentiment.shared", shared))
	if err != nil {
		span.RecordError(err)
		return domain.SentimentReading{}, err
	}
	res := v.(refreshResult)
	// Listeners run once the flight has closed so they may call back in.
	if leader && res.fresh {
		s.listeners.notify(res.reading.Clone())
	}
	return res.reading.Clone(), nil
}

// GetCachedData returns whatever is cached for mode without any network.
func (s *Source) GetCachedData(mode domain.Mode) (domain.SentimentReading, bool) {
	e, ok := s.entry(mode)
	if !ok {
		return domain.SentimentReading{}, false
	}
	return e.reading.Clone(), true
}

func (s *Source) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[domain.Mode]entry, len(domain.Modes))
	s.mu.Unlock()
}

// Subscribe registers fn for every freshly fetched reading. Cache hits and
// stale fallbacks are not delivered. The returned func unsubscribes.
func (s *Source) Subscribe(fn Listener) (unsubscribe func()) {
	return s.listeners.add(fn)
}

type refreshResult struct {
	reading domain.SentimentReading
	fresh   bool
}

func (s *Source) refresh(ctx context.Context, mode domain.Mode) (refreshResult, error) {
	// Followers share this flight, so the leader's cancellation must not
	// cut them off; the timeout still bounds the call.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
	defer cancel()

	reading, err := s.fetch(fetchCtx, mode)
	if err != nil {
		if e, ok := s.entry(mode); ok {
			metrics.FallbacksTotal.WithLabelValues("sentiment", string(mode), "stale").Inc()
			s.logger.Warn().Err(err).Str("mode", string(mode)).
				Time("fetched_at", e.fetchedAt).Msg("fetch failed, serving cached reading")
			return refreshResult{reading: e.reading}, nil
		}
		s.logger.Error().Err(err).Str("mode", string(mode)).Msg("fetch failed with empty cache")
		return refreshResult{}, fmt.Errorf("%w: %s index: %w", domain.ErrNetworkFailure, mode, err)
	}

	s.mu.Lock()
	s.cache[mode] = entry{reading: reading, fetchedAt: s.clock.Now()}
	s.mu.Unlock()

	metrics.IndexValue.WithLabelValues(string(mode)).Set(float64(reading.Value))
	return refreshResult{reading: reading, fresh: true}, nil
}

func (s *Source) fetch(ctx context.Context, mode domain.Mode) (domain.SentimentReading, error) {
	var fetcher IndexFetcher
	switch mode {
	case domain.ModeCrypto:
		fetcher = s.crypto
	case domain.ModeStock:
		if s.stock == nil {
			metrics.FallbacksTotal.WithLabelValues("sentiment", string(mode), "mock").Inc()
			return s.mock.Reading(mode), nil
		}
		fetcher = s.stock
	}
	if fetcher == nil {
		return domain.SentimentReading{}, fmt.Errorf("no fetcher configured for %s", mode)
	}

	start := s.clock.Now()
	reading, err := fetcher.FetchIndex(ctx)
	metrics.FetchDuration.WithLabelValues(string(mode)).Observe(s.clock.Since(start).Seconds())
	if err != nil {
		metrics.FetchTotal.WithLabelValues(string(mode), "error").Inc()
		if mode == domain.ModeStock {
			s.logger.Warn().Err(err).Msg("stock index fetch failed, using mock data")
			metrics.FallbacksTotal.WithLabelValues("sentiment", string(mode), "mock").Inc()
			return s.mock.Reading(mode), nil
		}
		return domain.SentimentReading{}, err
	}
	metrics.FetchTotal.WithLabelValues(string(mode), "ok").Inc()
	return normalize(*reading, mode), nil
}

func (s *Source) entry(mode domain.Mode) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[mode]
	return e, ok
}

func (s *Source) isStale(e entry) bool {
	return s.clock.Since(e.fetchedAt) > s.refreshInterval
}

func normalize(r domain.SentimentReading, mode domain.Mode) domain.SentimentReading {
	r.Mode = mode
	clamped := domain.ClampValue(r.Value)
	// An upstream label describes the unclamped value, so relabel when
	// clamping moved it.
	if r.Classification == "" || clamped != r.Value {
		r.Classification = domain.Classify(clamped)
	}
	r.Value = clamped
	return r
}
