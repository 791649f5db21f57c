// Package monitoring instruments batch execution: per-operation wall-clock
// and memory tracking, and throughput validation against a fixed target.
package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Span records one tracked operation. Spans are created by Tracker.Track
// and closed with End.
type Span struct {
	Name           string        `json:"name"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	ItemsProcessed int           `json:"items_processed"`
	// HeapDeltaBytes is the change in allocated heap over the span.
	// Negative values (GC ran mid-span) are reported as zero.
	HeapDeltaBytes uint64 `json:"heap_delta_bytes"`

	startHeap uint64
	tracker   *Tracker
}

// End closes the span, recording duration, item count, and heap delta.
func (s *Span) End(itemsProcessed int) {
	s.Duration = time.Since(s.StartedAt)
	s.ItemsProcessed = itemsProcessed

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc > s.startHeap {
		s.HeapDeltaBytes = ms.HeapAlloc - s.startHeap
	}

	if s.tracker != nil {
		s.tracker.record(s)
	}

	zap.L().Debug("monitoring: span complete",
		zap.String("name", s.Name),
		zap.Duration("duration", s.Duration),
		zap.Int("items", itemsProcessed),
		zap.Uint64("heap_delta_bytes", s.HeapDeltaBytes),
	)
}

// ItemsPerMinute returns the span's throughput, or 0 for an instant span.
func (s *Span) ItemsPerMinute() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.ItemsProcessed) / s.Duration.Minutes()
}

// Tracker collects spans for one run. Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	spans []*Span
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Track starts a named span.
func (t *Tracker) Track(name string) *Span {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return &Span{
		Name:      name,
		StartedAt: time.Now(),
		startHeap: ms.HeapAlloc,
		tracker:   t,
	}
}

func (t *Tracker) record(s *Span) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = append(t.spans, s)
}

// Spans returns completed spans ordered by start time.
func (t *Tracker) Spans() []*Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Span, len(t.spans))
	copy(out, t.spans)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Metrics flattens completed spans into a counts/durations map suitable
// for machine-readable reporting.
func (t *Tracker) Metrics() map[string]any {
	out := map[string]any{}
	for _, s := range t.Spans() {
		out[s.Name+"_ms"] = s.Duration.Milliseconds()
		out[s.Name+"_items"] = s.ItemsProcessed
		out[s.Name+"_heap_delta_bytes"] = s.HeapDeltaBytes
	}
	return out
}
