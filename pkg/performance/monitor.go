package performance

import (
	"sync"
	"time"

	"vj-frame/pkg/metrics"
)

// RollingAverage maintains a rolling average of durations over a fixed window
type RollingAverage struct {
	samples    []time.Duration
	maxSamples int
	sum        time.Duration
	index      int
	filled     bool
	mu         sync.RWMutex
}

// NewRollingAverage creates a rolling average tracker with specified window size
func NewRollingAverage(windowSize int) *RollingAverage {
	if windowSize <= 0 {
		windowSize = 1
	}
	return &RollingAverage{
		samples:    make([]time.Duration, windowSize),
		maxSamples: windowSize,
	}
}

// Add records a new sample and updates the rolling average
func (r *RollingAverage) Add(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.filled {
		r.sum -= r.samples[r.index]
	}

	r.samples[r.index] = d
	r.sum += d

	r.index++
	if r.index >= r.maxSamples {
		r.index = 0
		r.filled = true
	}
}

// Average returns the current rolling average
func (r *RollingAverage) Average() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.count()
	if count == 0 {
		return 0
	}
	return r.sum / time.Duration(count)
}

// Count returns the number of samples currently tracked
func (r *RollingAverage) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count()
}

func (r *RollingAverage) count() int {
	if r.filled {
		return r.maxSamples
	}
	return r.index
}

// Reset clears all samples
func (r *RollingAverage) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sum = 0
	r.index = 0
	r.filled = false
	clear(r.samples)
}

// FrameMonitor tracks how long each pass of the render loop takes.
type FrameMonitor struct {
	frames *RollingAverage
	target time.Duration
	last   time.Time
	total  int
	slow   int
	// publishEvery frames the average is pushed to the frame time gauge.
	publishEvery int
}

// FrameReport summarises recent frame timing.
type FrameReport struct {
	AvgFrameMs  float64
	TotalFrames int
	SlowFrames  int  // frames that took longer than twice the target
	IsHealthy   bool // average within the target frame time
}

// NewFrameMonitor creates a monitor for a loop running at targetFPS.
// windowSize determines how many frames to average (120 = 2 seconds at 60fps)
func NewFrameMonitor(targetFPS, windowSize int) *FrameMonitor {
	if targetFPS <= 0 {
		targetFPS = 60
	}
	return &FrameMonitor{
		frames:       NewRollingAverage(windowSize),
		target:       time.Second / time.Duration(targetFPS),
		publishEvery: targetFPS,
	}
}

// Tick marks the start of a frame at now and returns the length of the
// previous one (zero on the first call).
func (m *FrameMonitor) Tick(now time.Time) time.Duration {
	if m.last.IsZero() {
		m.last = now
		return 0
	}
	d := now.Sub(m.last)
	m.last = now
	m.Record(d)
	return d
}

// Record adds one frame duration.
func (m *FrameMonitor) Record(d time.Duration) {
	m.frames.Add(d)
	m.total++
	if d > 2*m.target {
		m.slow++
	}
	if m.total%m.publishEvery == 0 {
		metrics.RecordFrameTime(m.frames.Average())
	}
}

// Report generates a report of the current window.
func (m *FrameMonitor) Report() FrameReport {
	avg := m.frames.Average()
	return FrameReport{
		AvgFrameMs:  float64(avg.Microseconds()) / 1000.0,
		TotalFrames: m.total,
		SlowFrames:  m.slow,
		IsHealthy:   m.frames.Count() > 0 && avg <= m.target+m.target/10,
	}
}

// Reset clears all samples and counters.
func (m *FrameMonitor) Reset() {
	m.frames.Reset()
	m.last = time.Time{}
	m.total = 0
	m.slow = 0
}
