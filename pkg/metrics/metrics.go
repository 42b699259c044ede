// Package metrics exposes the player's Prometheus instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cycling
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vjframe_transitions_total",
			Help: "Media transitions, by kind of the newly shown entry and trigger",
		},
		[]string{"kind", "trigger"}, // trigger: start, segment_end, skip, failure
	)

	MediaFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vjframe_media_failures_total",
			Help: "Entries that failed to load or decode",
		},
		[]string{"kind"},
	)

	SeekRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vjframe_seek_retries_total",
			Help: "Seeks reissued because the landed position was outside tolerance",
		},
	)

	SeekGiveUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vjframe_seek_give_ups_total",
			Help: "Segments that started monitoring off-target after the seek retry budget ran out",
		},
	)

	SegmentFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vjframe_segment_fallbacks_total",
			Help: "Segment parameter computations that substituted defaults",
		},
		[]string{"fallback"},
	)

	SegmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vjframe_segment_duration_seconds",
			Help:    "Planned display duration of each segment",
			Buckets: []float64{1, 2, 3, 5, 8, 12, 20, 30},
		},
		[]string{"kind"},
	)

	CyclingActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vjframe_cycling_active",
			Help: "1 while the scheduler is cycling",
		},
	)

	PoolEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vjframe_pool_entries",
			Help: "Entries in the media pool",
		},
		[]string{"kind"},
	)

	S3SyncObjects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vjframe_s3_sync_total",
			Help: "S3 mirror outcomes",
		},
		[]string{"result"},
	)

	FrameTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vjframe_frame_time_seconds",
			Help: "Rolling average of the render loop frame time",
		},
	)
)

// RecordTransition counts a transition to an entry of kind.
func RecordTransition(kind, trigger string) {
	Transitions.WithLabelValues(kind, trigger).Inc()
}

// RecordMediaFailure counts a load or decode failure.
func RecordMediaFailure(kind string) {
	MediaFailures.WithLabelValues(kind).Inc()
}

// RecordSeekRetry counts a reissued seek.
func RecordSeekRetry() {
	SeekRetries.Inc()
}

// RecordSeekGiveUp counts a seek accepted off-target.
func RecordSeekGiveUp() {
	SeekGiveUps.Inc()
}

// RecordSegment observes a planned segment and its fallback, if any.
func RecordSegment(kind string, duration float64, fallback string) {
	SegmentDuration.WithLabelValues(kind).Observe(duration)
	if fallback != "" && fallback != "none" {
		SegmentFallbacks.WithLabelValues(fallback).Inc()
	}
}

// SetCyclingActive flips the active gauge.
func SetCyclingActive(active bool) {
	if active {
		CyclingActive.Set(1)
		return
	}
	CyclingActive.Set(0)
}

// RecordPoolSize sets the pool gauges.
func RecordPoolSize(images, videos int) {
	PoolEntries.WithLabelValues("image").Set(float64(images))
	PoolEntries.WithLabelValues("video").Set(float64(videos))
}

// RecordS3Sync counts one S3 mirror outcome.
func RecordS3Sync(result string) {
	S3SyncObjects.WithLabelValues(result).Inc()
}

// RecordFrameTime sets the frame time gauge.
func RecordFrameTime(d time.Duration) {
	FrameTime.Set(d.Seconds())
}
