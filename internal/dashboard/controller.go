package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"feargreed-dashboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DegradedNotice is shown when the first load fails and the session drops
// into manual mode.
const DegradedNotice = "Failed to load data. Using manual mode."

var ErrDegraded = errors.New("live data unavailable")

type IndexSource interface {
	GetIndex(ctx context.Context, mode domain.Mode, forceRefresh bool) (domain.SentimentReading, error)
	GetCachedData(mode domain.Mode) (domain.SentimentReading, bool)
}

type NewsSource interface {
	FetchNews(ctx context.Context, sentimentValue int) []domain.NewsArticle
}

type RandomSource interface {
	Value() int
}

// ExtremeFunc is called when the displayed value moves into an extreme zone.
type ExtremeFunc func(value int, classification domain.Classification)

// Controller drives one dashboard session: it owns the session State, pulls
// readings and headlines, and applies manual overrides.
type Controller struct {
	tracer trace.Tracer
	logger zerolog.Logger
	clock  clockwork.Clock
	index  IndexSource
	news   NewsSource
	random RandomSource

	mu        sync.Mutex
	state     State
	reading   *domain.SentimentReading
	articles  []domain.NewsArticle
	notice    string
	degraded  bool
	inExtreme bool
	onExtreme []ExtremeFunc
}

func NewController(
	tracer trace.Tracer,
	logger zerolog.Logger,
	clock clockwork.Clock,
	index IndexSource,
	news NewsSource,
	random RandomSource,
	mode domain.Mode,
) *Controller {
	if !mode.Valid() {
		mode = domain.ModeCrypto
	}
	return &Controller{
		tracer: tracer,
		logger: logger.With().Str("component", "dashboard").Logger(),
		clock:  clock,
		index:  index,
		news:   news,
		random: random,
		state:  State{Mode: mode, CurrentValue: DefaultValue},
	}
}

// OnExtreme registers fn for extreme-zone entries.
func (c *Controller) OnExtreme(fn ExtremeFunc) {
	c.mu.Lock()
	c.onExtreme = append(c.onExtreme, fn)
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LoadData fetches the reading for the session mode and the matching
// headlines. In manual mode it returns the current snapshot untouched. A
// fetch error flips the session into degraded manual mode and wraps
// ErrDegraded.
func (c *Controller) LoadData(ctx context.Context, forceRefresh bool) (Snapshot, error) {
	return c.load(ctx, forceRefresh, false)
}

// load with retry set also runs while the session is degraded, and a
// success returns it to live data.
func (c *Controller) load(ctx context.Context, forceRefresh, retry bool) (Snapshot, error) {
	ctx, span := c.tracer.Start(ctx, "dashboard.load-data")
	defer span.End()

	c.mu.Lock()
	if c.state.Manual && !(retry && c.degraded) {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	mode := c.state.Mode
	c.mu.Unlock()
	span.SetAttributes(attribute.String("dashboard.mode", string(mode)), attribute.Bool("dashboard.force", forceRefresh))

	reading, err := c.index.GetIndex(ctx, mode, forceRefresh)
	if err != nil {
		span.RecordError(err)
		c.logger.Error().Err(err).Str("mode", string(mode)).Msg("load failed, switching to manual mode")
		c.mu.Lock()
		c.state.Manual = true
		c.degraded = true
		c.notice = DegradedNotice
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, fmt.Errorf("%w: %w", ErrDegraded, err)
	}

	articles := c.news.FetchNews(ctx, reading.Value)

	c.mu.Lock()
	if c.state.Mode != mode || (c.state.Manual && !c.degraded) {
		// Mode switched or manual override began while loading.
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	if c.degraded {
		c.logger.Info().Str("mode", string(mode)).Msg("live data recovered, leaving manual mode")
		c.state.Manual = false
		c.degraded = false
	}
	c.reading = &reading
	c.articles = articles
	c.notice = ""
	c.state.LastUpdated = c.clock.Now()
	fire := c.setValueLocked(reading.Value)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	fire()
	return snap, nil
}

// AutoRefresh is the timer entry point: a non-forced load unless the user
// chose manual mode. A degraded session retries so it can recover on its own.
func (c *Controller) AutoRefresh(ctx context.Context) error {
	c.mu.Lock()
	skip := c.state.Manual && !c.degraded
	c.mu.Unlock()
	if skip {
		return nil
	}
	_, err := c.load(ctx, false, true)
	return err
}

func (c *Controller) Refresh(ctx context.Context) (Snapshot, error) {
	return c.LoadData(ctx, true)
}

// SwitchMode selects a new mode and force-loads it. Selecting the current
// mode does nothing.
func (c *Controller) SwitchMode(ctx context.Context, mode domain.Mode) (Snapshot, error) {
	if !mode.Valid() {
		return c.Snapshot(), fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidArgument, mode)
	}

	c.mu.Lock()
	if c.state.Mode == mode {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	c.state.Mode = mode
	c.reading = nil
	c.articles = nil
	c.mu.Unlock()

	return c.LoadData(ctx, true)
}

// ToggleManual flips manual mode. Leaving it force-loads live data.
func (c *Controller) ToggleManual(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	c.state.Manual = !c.state.Manual
	c.degraded = false
	manual := c.state.Manual
	if !manual {
		c.notice = ""
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if manual {
		return snap, nil
	}
	return c.LoadData(ctx, true)
}

// SetManualValue displays v (clamped) when in manual mode. The bool is
// false when the session is not in manual mode.
func (c *Controller) SetManualValue(v int) (Snapshot, bool) {
	c.mu.Lock()
	if !c.state.Manual {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, false
	}
	// A value picked by hand keeps the session manual.
	c.degraded = false
	fire := c.setValueLocked(v)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	fire()
	return snap, true
}

func (c *Controller) Preset(v int) (Snapshot, bool) {
	return c.SetManualValue(v)
}

// Nudge moves the manual value by delta.
func (c *Controller) Nudge(delta int) (Snapshot, bool) {
	return c.SetManualValue(c.State().CurrentValue + delta)
}

func (c *Controller) Random() (Snapshot, bool) {
	if !c.State().Manual {
		return c.Snapshot(), false
	}
	return c.SetManualValue(c.random.Value())
}

// ChartSeries returns up to days points of the cached history for the
// session mode, oldest first.
func (c *Controller) ChartSeries(days int) []domain.HistoricalPoint {
	reading, ok := c.index.GetCachedData(c.State().Mode)
	if !ok {
		return nil
	}
	points := reading.Historical
	if days > 0 && len(points) > days {
		points = points[:days]
	}
	out := make([]domain.HistoricalPoint, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

// setValueLocked clamps and stores v, returning the extreme-zone
// notification to run once the lock is released.
func (c *Controller) setValueLocked(v int) func() {
	v = domain.ClampValue(v)
	c.state.CurrentValue = v

	extreme := domain.IsExtreme(v)
	entered := extreme && !c.inExtreme
	c.inExtreme = extreme
	if !entered || len(c.onExtreme) == 0 {
		return func() {}
	}

	hooks := make([]ExtremeFunc, len(c.onExtreme))
	copy(hooks, c.onExtreme)
	classification := domain.Classify(v)
	return func() {
		for _, fn := range hooks {
			fn(v, classification)
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:          c.state,
		Classification: domain.Classify(c.state.CurrentValue),
		Articles:       domain.CloneArticles(c.articles),
		Notice:         c.notice,
	}
	if c.reading != nil {
		r := c.reading.Clone()
		snap.Reading = &r
		snap.Stats = ComputeStats(r)
	}
	return snap
}
