package llm

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Stats keeps a rolling window of recent call latencies plus lifetime
// call and error counters for the stats endpoint. Observations older
// than the window fall off on the next Record or Snapshot.
type Stats struct {
	mu     sync.Mutex
	window time.Duration
	obs    []observation
	total  int64
	errs   int64
}

type observation struct {
	at      time.Time
	latency time.Duration
}

// StatsSnapshot aggregates the current window. Latencies are reported
// in milliseconds; Total and Errors count over the process lifetime.
type StatsSnapshot struct {
	Count  int     `json:"count"`
	Total  int64   `json:"total_calls"`
	Errors int64   `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window}
}

// Record adds a successful call's latency to the window.
func (s *Stats) Record(latency time.Duration) {
	if latency < 0 {
		latency = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropExpired(now)
	s.obs = append(s.obs, observation{at: now, latency: latency})
	s.total++
}

// RecordError counts a failed call. Failures carry no useful latency.
func (s *Stats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.errs++
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropExpired(time.Now())

	snap := StatsSnapshot{Count: len(s.obs), Total: s.total, Errors: s.errs}
	if len(s.obs) == 0 {
		return snap
	}

	sorted := make([]time.Duration, len(s.obs))
	var sum time.Duration
	for i, o := range s.obs {
		sorted[i] = o.latency
		sum += o.latency
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	snap.MinMs = sorted[0].Milliseconds()
	snap.MaxMs = sorted[len(sorted)-1].Milliseconds()
	snap.AvgMs = float64(sum.Milliseconds()) / float64(len(sorted))
	snap.P50Ms = rank(sorted, 50)
	snap.P95Ms = rank(sorted, 95)
	snap.P99Ms = rank(sorted, 99)
	return snap
}

// dropExpired removes observations past the window. Observations are
// appended in time order, so the survivors are a suffix.
func (s *Stats) dropExpired(now time.Time) {
	cutoff := now.Add(-s.window)
	first := sort.Search(len(s.obs), func(i int) bool {
		return !s.obs[i].at.Before(cutoff)
	})
	if first > 0 {
		s.obs = append(s.obs[:0], s.obs[first:]...)
	}
}

// rank is the nearest-rank percentile of an ascending slice, in ms.
func rank(sorted []time.Duration, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	i := int(math.Ceil(pct/100*float64(len(sorted)))) - 1
	if i < 0 {
		i = 0
	}
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return float64(sorted[i].Milliseconds())
}
