package metrics

import (
	"sync"
	"time"
)

// FanoutMetrics tracks counters across fanout runs. One instance lives for
// the process; the serve mode exposes its snapshot, the CLI logs it when
// verbose.
type FanoutMetrics struct {
	mu sync.RWMutex

	// Run metrics
	TotalRuns    int64
	TotalQueries int64
	RunDuration  time.Duration

	// Per-service outcome metrics
	Successes map[string]int64
	Failures  map[string]int64

	// Poller and capture metrics
	PollTicks    int64
	PollTimedOut int64
	CaptureHits  int64
}

// NewFanoutMetrics creates a zeroed FanoutMetrics instance.
func NewFanoutMetrics() *FanoutMetrics {
	return &FanoutMetrics{
		Successes: make(map[string]int64),
		Failures:  make(map[string]int64),
	}
}

// RecordRun records a completed fanout run and its wall-clock duration.
func (m *FanoutMetrics) RecordRun(queries int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRuns++
	m.TotalQueries += int64(queries)
	m.RunDuration += duration
}

// RecordOutcome records one per-service query outcome.
func (m *FanoutMetrics) RecordOutcome(service string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if success {
		m.Successes[service]++
		return
	}
	m.Failures[service]++
}

// RecordPoll records the tick count one poller consumed and whether it hit
// its cap.
func (m *FanoutMetrics) RecordPoll(ticks int, timedOut bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PollTicks += int64(ticks)
	if timedOut {
		m.PollTimedOut++
	}
}

// RecordCaptureHit records a network capture that produced usable data.
func (m *FanoutMetrics) RecordCaptureHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CaptureHits++
}

// Snapshot returns a copy of the current counters.
func (m *FanoutMetrics) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successes := make(map[string]int64, len(m.Successes))
	for k, v := range m.Successes {
		successes[k] = v
	}

	failures := make(map[string]int64, len(m.Failures))
	for k, v := range m.Failures {
		failures[k] = v
	}

	return map[string]any{
		"total_runs":     m.TotalRuns,
		"total_queries":  m.TotalQueries,
		"run_duration":   m.RunDuration.Seconds(),
		"successes":      successes,
		"failures":       failures,
		"poll_ticks":     m.PollTicks,
		"poll_timed_out": m.PollTimedOut,
		"capture_hits":   m.CaptureHits,
	}
}
