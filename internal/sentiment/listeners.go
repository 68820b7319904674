package sentiment

import (
	"sync"

	"feargreed-dashboard/internal/domain"
	"feargreed-dashboard/internal/metrics"
)

// Listener receives freshly fetched readings. It runs on the goroutine
// that led the fetch, after the fetch has settled, so it may call back
// into the Source. Slow work belongs in a goroutine of its own.
type Listener func(domain.SentimentReading)

type registration struct {
	id uint64
	fn Listener
}

type registry struct {
	mu      sync.Mutex
	nextID  uint64
	entries []registration
}

func (r *registry) add(fn Listener) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, registration{id: id, fn: fn})
	r.mu.Unlock()
	metrics.Subscribers.Inc()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(id) })
	}
}

func (r *registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			metrics.Subscribers.Dec()
			return
		}
	}
}

func (r *registry) notify(reading domain.SentimentReading) {
	r.mu.Lock()
	entries := make([]registration, len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	for _, e := range entries {
		e.fn(reading.Clone())
		metrics.ListenerNotifications.Inc()
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
