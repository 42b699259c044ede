package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(Transitions.WithLabelValues("video", "segment_end"))
	RecordTransition("video", "segment_end")
	RecordTransition("video", "segment_end")
	after := testutil.ToFloat64(Transitions.WithLabelValues("video", "segment_end"))
	assert.Equal(t, before+2, after)
}

func TestRecordSegmentCountsOnlyRealFallbacks(t *testing.T) {
	before := testutil.ToFloat64(SegmentFallbacks.WithLabelValues("skip_bounds"))
	RecordSegment("video", 4, "none")
	RecordSegment("video", 4, "")
	RecordSegment("video", 4, "skip_bounds")
	assert.Equal(t, before+1, testutil.ToFloat64(SegmentFallbacks.WithLabelValues("skip_bounds")))
}

func TestGauges(t *testing.T) {
	SetCyclingActive(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(CyclingActive))
	SetCyclingActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(CyclingActive))

	RecordPoolSize(3, 5)
	assert.Equal(t, 3.0, testutil.ToFloat64(PoolEntries.WithLabelValues("image")))
	assert.Equal(t, 5.0, testutil.ToFloat64(PoolEntries.WithLabelValues("video")))

	RecordFrameTime(20 * time.Millisecond)
	assert.InDelta(t, 0.02, testutil.ToFloat64(FrameTime), 1e-9)
}

func TestServerRoutes(t *testing.T) {
	healthy := false
	srv := &Server{Healthy: func() bool { return healthy }}
	h := srv.Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	healthy = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	RecordSeekRetry()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vjframe_seek_retries_total")
}
