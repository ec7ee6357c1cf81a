package affect

import (
	"sort"
	"sync"
	"time"
)

// HistoryRecord is one appended emotion observation.
type HistoryRecord struct {
	Timestamp time.Time
	Emotions  EmotionVector
}

// History is a bounded FIFO buffer of emotion observations. It backs the
// risk engine's internal baseline helpers and the per-session slope
// computation; it is not the authoritative user profile.
type History struct {
	mu      sync.Mutex
	cap     int
	records []HistoryRecord
}

// DefaultHistoryCap bounds a History unless the caller asks for more.
const DefaultHistoryCap = 100

// NewHistory creates a History holding at most capacity records.
// A non-positive capacity falls back to DefaultHistoryCap.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{cap: capacity}
}

// Append records an observation, evicting the oldest once full.
func (h *History) Append(emotions EmotionVector) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, HistoryRecord{Timestamp: time.Now(), Emotions: emotions})
	if len(h.records) > h.cap {
		h.records = h.records[len(h.records)-h.cap:]
	}
}

// Len returns the number of buffered records.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// Recent returns a copy of the last n records, oldest first.
func (h *History) Recent(n int) []HistoryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.records) {
		n = len(h.records)
	}
	out := make([]HistoryRecord, n)
	copy(out, h.records[len(h.records)-n:])
	return out
}

// Baseline computes the per-emotion median over the most recent records for
// the given emotion names. An empty history yields an empty map.
func (h *History) Baseline(emotions []string, window int) map[string]float64 {
	recent := h.Recent(window)
	if len(recent) == 0 {
		return map[string]float64{}
	}

	baseline := make(map[string]float64, len(emotions))
	scores := make([]float64, 0, len(recent))
	for _, name := range emotions {
		scores = scores[:0]
		for _, rec := range recent {
			scores = append(scores, rec.Emotions.Get(name))
		}
		baseline[name] = median(scores)
	}
	return baseline
}

// Deviations returns current-minus-baseline for each baseline emotion.
func (h *History) Deviations(current EmotionVector, emotions []string, window int) map[string]float64 {
	baseline := h.Baseline(emotions, window)
	deviations := make(map[string]float64, len(baseline))
	for name, base := range baseline {
		deviations[name] = current.Get(name) - base
	}
	return deviations
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
