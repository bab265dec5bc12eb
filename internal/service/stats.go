package service

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// Outcome labels how a conversion finished.
type Outcome string

const (
	OutcomePrimary  Outcome = "primary"
	OutcomeFallback Outcome = "fallback"
	OutcomeDegraded Outcome = "degraded"
)

// StatsSnapshot is a point-in-time aggregate of conversion outcomes
// and latencies.
type StatsSnapshot struct {
	Primary  int64 `json:"primary"`
	Fallback int64 `json:"fallback"`
	Degraded int64 `json:"degraded"`

	// Formats counts conversions by source file extension.
	Formats map[string]int64 `json:"formats,omitempty"`

	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// ConversionStats tracks conversion outcomes, with latency samples
// kept within a rolling window. Outcome counters are cumulative.
type ConversionStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration

	primary  int64
	fallback int64
	degraded int64
	formats  map[string]int64
}

func NewConversionStats(maxAge time.Duration) *ConversionStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &ConversionStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
		formats: make(map[string]int64),
	}
}

func (s *ConversionStats) Record(outcome Outcome, format string, duration time.Duration) {
	durationMs := duration.Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch outcome {
	case OutcomePrimary:
		s.primary++
	case OutcomeFallback:
		s.fallback++
	case OutcomeDegraded:
		s.degraded++
	}
	if format != "" {
		s.formats[format]++
	}

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:  now,
		durationMs: durationMs,
	})
}

func (s *ConversionStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := StatsSnapshot{
		Primary:  s.primary,
		Fallback: s.fallback,
		Degraded: s.degraded,
	}
	if len(s.formats) > 0 {
		snap.Formats = make(map[string]int64, len(s.formats))
		for k, v := range s.formats {
			snap.Formats[k] = v
		}
	}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *ConversionStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
