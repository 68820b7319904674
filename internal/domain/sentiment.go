package domain

import (
	"fmt"
	"strings"
)

// Mode selects which market the index is read for.
type Mode string

const (
	ModeCrypto Mode = "crypto"
	ModeStock  Mode = "stock"
)

// Modes lists the supported modes in display order.
var Modes = []Mode{ModeCrypto, ModeStock}

func (m Mode) Valid() bool {
	return m == ModeCrypto || m == ModeStock
}

func (m Mode) Label() string {
	if m == ModeStock {
		return "Stock Market"
	}
	return "Crypto"
}

// ParseMode accepts "crypto" or "stock" in any case.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, s)
	}
	return m, nil
}

type Classification string

const (
	ExtremeFear  Classification = "Extreme Fear"
	Fear         Classification = "Fear"
	Neutral      Classification = "Neutral"
	Greed        Classification = "Greed"
	ExtremeGreed Classification = "Extreme Greed"
)

const (
	MinValue = 0
	MaxValue = 100
)

// Classify maps a 0-100 value onto the five sentiment bands.
func Classify(value int) Classification {
	switch {
	case value <= 20:
		return ExtremeFear
	case value <= 40:
		return Fear
	case value <= 60:
		return Neutral
	case value <= 80:
		return Greed
	default:
		return ExtremeGreed
	}
}

// ClampValue pins v into [0,100].
func ClampValue(v int) int {
	if v < MinValue {
		return MinValue
	}
	if v > MaxValue {
		return MaxValue
	}
	return v
}

// IsExtreme reports whether v sits in either alert zone.
func IsExtreme(v int) bool {
	return v <= 20 || v >= 80
}

type HistoricalPoint struct {
	Value     int   `json:"value"`
	Timestamp int64 `json:"timestamp"`
}

// SentimentReading is one observation of the index. Historical is ordered
// most-recent-first and Timestamp fields are epoch milliseconds.
type SentimentReading struct {
	Mode           Mode              `json:"mode"`
	Value          int               `json:"value"`
	Classification Classification    `json:"classification"`
	Timestamp      int64             `json:"timestamp"`
	Historical     []HistoricalPoint `json:"historical"`
	IsMock         bool              `json:"isMock"`
}

// Clone returns a copy that shares no memory with r.
func (r SentimentReading) Clone() SentimentReading {
	out := r
	if r.Historical != nil {
		out.Historical = make([]HistoricalPoint, len(r.Historical))
		copy(out.Historical, r.Historical)
	}
	return out
}
