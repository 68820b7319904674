package sentiment

import (
	"math/rand/v2"
	"sync"
	"time"

	"feargreed-dashboard/internal/domain"

	"github.com/jonboulle/clockwork"
)

const mockHistoryDays = 30

// MockGenerator synthesizes readings when no real data is available.
// History points are drawn independently of the current value.
type MockGenerator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	clock clockwork.Clock
}

// NewMockGenerator uses rng when given, otherwise a time-seeded source.
func NewMockGenerator(clock clockwork.Clock, rng *rand.Rand) *MockGenerator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &MockGenerator{rng: rng, clock: clock}
}

func (g *MockGenerator) Reading(mode domain.Mode) domain.SentimentReading {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	value := g.rng.IntN(domain.MaxValue + 1)

	historical := make([]domain.HistoricalPoint, mockHistoryDays)
	for i := range historical {
		historical[i] = domain.HistoricalPoint{
			Value:     g.rng.IntN(domain.MaxValue + 1),
			Timestamp: now.AddDate(0, 0, -i).UnixMilli(),
		}
	}

	return domain.SentimentReading{
		Mode:           mode,
		Value:          value,
		Classification: domain.Classify(value),
		Timestamp:      now.UnixMilli(),
		Historical:     historical,
		IsMock:         true,
	}
}

// Value draws a single value in [0,100].
func (g *MockGenerator) Value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(domain.MaxValue + 1)
}
