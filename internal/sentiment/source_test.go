package sentiment

import (
	"context"
	"errors"
	"math/rand/v2"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feargreed-dashboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubFetcher struct {
	mu      sync.Mutex
	calls   int
	reading domain.SentimentReading
	err     error
	release chan struct{}
}

func (f *stubFetcher) FetchIndex(ctx context.Context) (*domain.SentimentReading, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	reading, err := f.reading.Clone(), f.err
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	return &reading, nil
}

func (f *stubFetcher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func cryptoReading(value int) domain.SentimentReading {
	return domain.SentimentReading{
		Value:          value,
		Classification: domain.Classify(value),
		Timestamp:      1771009800000,
		Historical: []domain.HistoricalPoint{
			{Value: value, Timestamp: 1771009800000},
			{Value: 50, Timestamp: 1770923400000},
		},
	}
}

func newTestSource(clock clockwork.Clock, crypto, stock IndexFetcher) *Source {
	mock := NewMockGenerator(clock, rand.New(rand.NewPCG(1, 2)))
	return NewSource(testTracer, zerolog.Nop(), clock, crypto, stock, mock, Options{
		RefreshInterval: 5 * time.Minute,
		FetchTimeout:    time.Second,
	})
}

func TestGetCurrentIndexFreshCacheHit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	crypto := &stubFetcher{reading: cryptoReading(63)}
	src := newTestSource(clock, crypto, nil)

	notified := 0
	src.Subscribe(func(domain.SentimentReading) { notified++ })

	first, err := src.GetCurrentIndex(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := src.GetCurrentIndex(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if crypto.callCount() != 1 {
		t.Fatalf("expected a single fetch, got %d", crypto.callCount())
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cache hit returned different data: %+v vs %+v", first, second)
	}
	if notified != 1 {
		t.Fatalf("expected one notification, got %d", notified)
	}
	if first.Mode != domain.ModeCrypto || first.Value != 63 {
		t.Fatalf("unexpected reading: %+v", first)
	}
}

func TestGetCurrentIndexRefreshesOnlyAfterInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	crypto := &stubFetcher{reading: cryptoReading(40)}
	src := newTestSource(clock, crypto, nil)
	ctx := context.Background()

	if _, err := src.GetCurrentIndex(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.Advance(5 * time.Minute)
	if _, err := src.GetCurrentIndex(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crypto.callCount() != 1 {
		t.Fatalf("entry at exactly the interval should still be fresh, got %d fetches", crypto.callCount())
	}

	clock.Advance(time.Millisecond)
	if _, err := src.GetCurrentIndex(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := src.GetCurrentIndex(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crypto.callCount() != 2 {
		t.Fatalf("expected exactly one refresh after the interval, got %d fetches", crypto.callCount())
	}
}

func TestGetCurrentIndexForceRefresh(t *testing.T) {
	clock := clockwork.NewFakeClock()
	crypto := &stubFetcher{reading: cryptoReading(40)}
	src := newTestSource(clock, crypto, nil)

	for i := 0; i < 3; i++ {
		if _, err := src.GetCurrentIndex(context.Background(), true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if crypto.callCount() != 3 {
		t.Fatalf("expected every forced call to fetch, got %d", crypto.callCount())
	}
}

func TestGetCurrentIndexServesStaleOnFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	crypto := &stubFetcher{reading: cryptoReading(22)}
	src := newTestSource(clock, crypto, nil)
	ctx := context.Background()

	prior, err := src.GetCurrentIndex(ctx, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	notified := 0
	src.Subscribe(func(domain.SentimentReading) { notified++ })

	crypto.setErr(errors.New("connection reset"))
	clock.Advance(10 * time.Minute)

	got, err := src.GetCurrentIndex(ctx, true)
	if err != nil {
		t.Fatalf("expected stale fallback, got %v", err)
	}
	if !reflect.DeepEqual(got, prior) {
		t.Fatalf("fallback differs from prior cache: %+v vs %+v", got, prior)
	}
	cached, ok := src.GetCachedData(domain.ModeCrypto)
	if !ok || !reflect.DeepEqual(cached, prior) {
		t.Fatalf("failed fetch must not mutate cache: %+v", cached)
	}
	if notified != 0 {
		t.Fatalf("stale fallback must not notify, got %d", notified)
	}
}

func TestGetCurrentIndexFailsWithEmptyCache(t *testing.T) {
	clock := clockwork.NewFakeClock()
	crypto := &stubFetcher{err: errors.New("dns failure")}
	src := newTestSource(clock, crypto, nil)

	_, err := src.GetCurrentIndex(context.Background(), false)
	if !errors.Is(err, domain.ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure, got %v", err)
	}
	if _, ok := src.GetCachedData(domain.ModeCrypto); ok {
		t.Fatal("cache must stay empty after a failed first fetch")
	}
}

func TestStockWithoutKeyServesMock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := newTestSource(clock, &stubFetcher{}, nil)
	if err := src.SetMode(domain.ModeStock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []domain.SentimentReading
	src.Subscribe(func(r domain.SentimentReading) { got = append(got, r) })

	reading, err := src.GetCurrentIndex(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reading.IsMock || reading.Mode != domain.ModeStock {
		t.Fatalf("expected stock mock reading, got %+v", reading)
	}
	if len(reading.Historical) != 30 {
		t.Fatalf("expected 30 mock points, got %d", len(reading.Historical))
	}
	if reading.Classification != domain.Classify(reading.Value) {
		t.Fatalf("mock classification disagrees with value: %+v", reading)
	}
	if len(got) != 1 {
		t.Fatalf("mock fetch should notify once, got %d", len(got))
	}
	if _, ok := src.GetCachedData(domain.ModeStock); !ok {
		t.Fatal("mock reading should be cached")
	}
}

func TestStockFetchErrorFallsBackToMock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	stock := &stubFetcher{err: errors.New("403 forbidden")}
	src := newTestSource(clock, &stubFetcher{}, stock)

	reading, err := src.GetIndex(context.Background(), domain.ModeStock, false)
	if err != nil {
		t.Fatalf("stock errors should not surface: %v", err)
	}
	if !reading.IsMock {
		t.Fatalf("expected mock reading, got %+v", reading)
	}
	if stock.callCount() != 1 {
		t.Fatalf("expected stock fetch attempt, got %d", stock.callCount())
	}
}

func TestSetModeRejectsInvalid(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := newTestSource(clock, &stubFetcher{reading: cryptoReading(70)}, nil)
	before, err := src.GetCurrentIndex(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := src.SetMode(domain.Mode("invalid")); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if src.Mode() != domain.ModeCrypto {
		t.Fatalf("mode changed to %q", src.Mode())
	}
	after, ok := src.GetCachedData(domain.ModeCrypto)
	if !ok || !reflect.DeepEqual(before, after) {
		t.Fatal("cache changed after invalid mode")
	}
}

func TestSwitchingModeKeepsOtherCache(t *testing.T) {
	clock := clockwork.NewFakeClock()
	crypto := &stubFetcher{reading: cryptoReading(70)}
	src := newTestSource(clock, crypto, nil)
	ctx := context.Background()

	if _, err := src.GetCurrentIndex(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := src.SetMode(domain.ModeStock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := src.GetCurrentIndex(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := src.SetMode(domain.ModeCrypto); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := src.GetCurrentIndex(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crypto.callCount() != 1 {
		t.Fatalf("crypto cache should survive a mode round trip, got %d fetches", crypto.callCount())
	}
}

func TestClearCache(t *testing.T) {
	clock := clockwork.NewFakeClock()
	crypto := &stubFetcher{reading: cryptoReading(70)}
	src := newTestSource(clock, crypto, nil)
	ctx := context.Background()

	if _, err := src.GetCurrentIndex(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src.ClearCache()
	if _, ok := src.GetCachedData(domain.ModeCrypto); ok {
		t.Fatal("expected empty cache after clear")
	}
	if _, err := src.GetCurrentIndex(ctx, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if crypto.callCount() != 2 {
		t.Fatalf("expected refetch after clear, got %d", crypto.callCount())
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := newTestSource(clock, &stubFetcher{reading: cryptoReading(70)}, nil)

	var order []string
	unsubA := src.Subscribe(func(domain.SentimentReading) { order = append(order, "a") })
	src.Subscribe(func(domain.SentimentReading) { order = append(order, "b") })

	if _, err := src.GetCurrentIndex(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unsubA()
	unsubA()
	if _, err := src.GetCurrentIndex(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a", "b", "b"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	if src.listeners.len() != 1 {
		t.Fatalf("expected 1 listener left, got %d", src.listeners.len())
	}
}

func TestReturnedReadingIsACopy(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := newTestSource(clock, &stubFetcher{reading: cryptoReading(70)}, nil)

	got, err := src.GetCurrentIndex(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.Historical[0].Value = -1

	cached, _ := src.GetCachedData(domain.ModeCrypto)
	if cached.Historical[0].Value != 70 {
		t.Fatal("caller mutation leaked into cache")
	}
}

func TestConcurrentCallsShareOneFetch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	crypto := &stubFetcher{reading: cryptoReading(55), release: make(chan struct{})}
	src := newTestSource(clock, crypto, nil)

	var notified atomic.Int32
	src.Subscribe(func(domain.SentimentReading) { notified.Add(1) })

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := src.GetCurrentIndex(context.Background(), false); err != nil {
				errs <- err
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(crypto.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
	if crypto.callCount() != 1 {
		t.Fatalf("expected concurrent callers to share one fetch, got %d", crypto.callCount())
	}
	if notified.Load() != 1 {
		t.Fatalf("shared fetch should notify once, got %d", notified.Load())
	}
}

func TestListenerCanForceRefreshSameMode(t *testing.T) {
	clock := clockwork.NewFakeClock()
	crypto := &stubFetcher{reading: cryptoReading(40)}
	src := newTestSource(clock, crypto, nil)

	var seen []int
	src.Subscribe(func(r domain.SentimentReading) {
		seen = append(seen, r.Value)
		if len(seen) == 1 {
			if _, err := src.GetIndex(context.Background(), domain.ModeCrypto, true); err != nil {
				t.Errorf("nested refresh: %v", err)
			}
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := src.GetCurrentIndex(context.Background(), true); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener calling back into the source blocked the fetch")
	}
	if crypto.callCount() != 2 || len(seen) != 2 {
		t.Fatalf("expected two fetches and two notifications, got %d and %v", crypto.callCount(), seen)
	}
}

func TestOutOfRangeValueIsRelabelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	upstream := domain.SentimentReading{Value: 150, Classification: domain.ExtremeFear, Timestamp: 1771009800000}
	src := newTestSource(clock, &stubFetcher{reading: upstream}, nil)

	got, err := src.GetCurrentIndex(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 100 || got.Classification != domain.ExtremeGreed {
		t.Fatalf("expected 100 labelled Extreme Greed, got %d %q", got.Value, got.Classification)
	}
}

func TestUpstreamLabelMatchesLocalClassification(t *testing.T) {
	for _, v := range []int{0, 20, 21, 40, 41, 60, 61, 80, 81, 100} {
		clock := clockwork.NewFakeClock()
		src := newTestSource(clock, &stubFetcher{reading: cryptoReading(v)}, nil)
		got, err := src.GetCurrentIndex(context.Background(), false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Classification != domain.Classify(got.Value) {
			t.Fatalf("value %d labelled %q", got.Value, got.Classification)
		}
	}
}
