package service

import (
	"context"
	"sync"
	"time"

	"feargreed-dashboard/internal/domain"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultRecordTimeout = 3 * time.Second

type ReadingStore interface {
	RecordReading(ctx context.Context, reading domain.SentimentReading) error
}

type ReadingPublisher interface {
	Publish(ctx context.Context, reading domain.SentimentReading) error
}

// ReadingRecorder persists and fans out every fresh reading. Either sink may
// be nil when its backend is not configured.
type ReadingRecorder struct {
	tracer    trace.Tracer
	logger    zerolog.Logger
	store     ReadingStore
	publisher ReadingPublisher
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewReadingRecorder(
	tracer trace.Tracer,
	logger zerolog.Logger,
	store ReadingStore,
	publisher ReadingPublisher,
	timeout time.Duration,
) *ReadingRecorder {
	if timeout <= 0 {
		timeout = defaultRecordTimeout
	}
	return &ReadingRecorder{
		tracer:    tracer,
		logger:    logger.With().Str("component", "reading-recorder").Logger(),
		store:     store,
		publisher: publisher,
		timeout:   timeout,
	}
}

// Enabled reports whether any sink is configured.
func (r *ReadingRecorder) Enabled() bool {
	return r.store != nil || r.publisher != nil
}

// Listen is a sentiment listener. It hands the reading to a goroutine so the
// fetching path never waits on Postgres or Redis.
func (r *ReadingRecorder) Listen(reading domain.SentimentReading) {
	if !r.Enabled() {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Handle(context.Background(), reading)
	}()
}

// Wait blocks until in-flight recordings finish.
func (r *ReadingRecorder) Wait() {
	r.wg.Wait()
}

// Handle writes reading to each configured sink. Failures are logged.
func (r *ReadingRecorder) Handle(ctx context.Context, reading domain.SentimentReading) {
	ctx, span := r.tracer.Start(ctx, "reading-recorder.handle")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.store != nil {
		if err := r.store.RecordReading(ctx, reading); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "record failed")
			r.logger.Warn().Err(err).Str("mode", string(reading.Mode)).Msg("failed to record reading")
		}
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, reading); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
			r.logger.Warn().Err(err).Str("mode", string(reading.Mode)).Msg("failed to publish reading")
		}
	}
}
