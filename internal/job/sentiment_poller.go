package job

import (
	"context"
	"time"

	"feargreed-dashboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AutoRefresher is a dashboard session refreshed on a timer.
type AutoRefresher interface {
	AutoRefresh(ctx context.Context) error
}

// IndexWarmer refreshes a mode's cache entry when it has gone stale.
type IndexWarmer interface {
	GetIndex(ctx context.Context, mode domain.Mode, forceRefresh bool) (domain.SentimentReading, error)
}

// SentimentPoller keeps every mode's cache warm and drives the server-side
// dashboard session, so subscribers see a reading per mode per interval.
type SentimentPoller struct {
	tracer    trace.Tracer
	logger    zerolog.Logger
	clock     clockwork.Clock
	dashboard AutoRefresher
	index     IndexWarmer
	modes     []domain.Mode
	interval  time.Duration
}

func NewSentimentPoller(
	tracer trace.Tracer,
	logger zerolog.Logger,
	clock clockwork.Clock,
	dashboard AutoRefresher,
	index IndexWarmer,
	interval time.Duration,
) *SentimentPoller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SentimentPoller{
		tracer:    tracer,
		logger:    logger.With().Str("component", "sentiment-poller").Logger(),
		clock:     clock,
		dashboard: dashboard,
		index:     index,
		modes:     domain.Modes,
		interval:  interval,
	}
}

// Start launches the polling goroutines. Blocks until ctx is cancelled.
func (p *SentimentPoller) Start(ctx context.Context) {
	p.logger.Info().Dur("interval", p.interval).Msg("sentiment poller starting")

	if p.index != nil {
		for _, mode := range p.modes {
			go p.pollLoop(ctx, "warm-"+string(mode), func(ctx context.Context) error {
				_, err := p.index.GetIndex(ctx, mode, false)
				return err
			})
		}
	}
	if p.dashboard != nil {
		go p.pollLoop(ctx, "dashboard", p.dashboard.AutoRefresh)
	}

	<-ctx.Done()
	p.logger.Info().Msg("sentiment poller stopped")
}

func (p *SentimentPoller) pollLoop(ctx context.Context, name string, fn func(context.Context) error) {
	p.runOnce(ctx, name, fn)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.runOnce(ctx, name, fn)
		}
	}
}

func (p *SentimentPoller) runOnce(ctx context.Context, name string, fn func(context.Context) error) {
	ctx, span := p.tracer.Start(ctx, "sentiment-poller.run-once")
	defer span.End()
	span.SetAttributes(attribute.String("poller.name", name))

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		p.logger.Warn().Err(err).Str("poller", name).Msg("poll failed")
	}
}
