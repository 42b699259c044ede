package segment

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vj-frame/pkg/settings"
)

const eps = 1e-9

// fixedRand returns the same value on every draw.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func TestCalculateStaysInsideVideo(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	c := New(rng)

	for i := 0; i < 2000; i++ {
		s := settings.Segment{
			MinDuration: 1 + rng.Float64()*29,
			MaxDuration: 1 + rng.Float64()*29,
			SkipStart:   rng.Float64() * 60,
			SkipEnd:     rng.Float64() * 60,
		}
		duration := 0.5 + rng.Float64()*300

		p := c.Calculate(duration, s)

		window := duration
		if !p.Fallback.Includes(FallbackSkipBounds) {
			window = duration - s.SkipEnd - s.SkipStart
			assert.GreaterOrEqual(t, p.Start, s.SkipStart-eps)
		}
		if window >= math.Min(s.MinDuration, s.MaxDuration) {
			assert.False(t, p.Fallback.Includes(FallbackDuration), "settings %+v duration %v", s, duration)
		} else {
			assert.True(t, p.Fallback.Includes(FallbackDuration), "settings %+v duration %v", s, duration)
		}
		require.Greater(t, p.Duration, 0.0, "settings %+v duration %v", s, duration)
		require.LessOrEqual(t, p.Duration, window+eps, "settings %+v duration %v", s, duration)
		require.LessOrEqual(t, p.End(), duration+eps, "settings %+v duration %v", s, duration)
		require.GreaterOrEqual(t, p.Start, 0.0)
	}
}

func TestCalculateSwapsInvertedBounds(t *testing.T) {
	s := settings.Segment{MinDuration: 10, MaxDuration: 2}
	for _, r := range []float64{0, 0.25, 0.5, 0.999} {
		p := New(fixedRand(r)).Calculate(120, s)
		assert.GreaterOrEqual(t, p.Duration, 2.0)
		assert.LessOrEqual(t, p.Duration, 10.0)
		assert.Equal(t, FallbackNone, p.Fallback)
	}
}

func TestCalculateSkipBoundsFallback(t *testing.T) {
	s := settings.Segment{MinDuration: 2, MaxDuration: 2, SkipStart: 4, SkipEnd: 4}
	p := New(fixedRand(0.999)).Calculate(5, s)

	assert.True(t, p.Fallback.Includes(FallbackSkipBounds))
	assert.Equal(t, 2.0, p.Duration)
	// The whole video is usable: the start can reach past skipEnd's bound.
	assert.InDelta(t, 3*0.999, p.Start, eps)
	assert.LessOrEqual(t, p.End(), 5.0)
}

func TestCalculateFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		s        settings.Segment
		draw     float64
		want     Parameters
	}{
		{
			name:     "window shorter than minimum",
			duration: 10,
			s:        settings.Segment{MinDuration: 5, MaxDuration: 8, SkipStart: 4, SkipEnd: 4},
			want:     Parameters{Start: 4, Duration: 2, Fallback: FallbackDuration},
		},
		{
			name:     "window between minimum and maximum",
			duration: 5,
			s:        settings.Segment{MinDuration: 2, MaxDuration: 8},
			draw:     0.9,
			want:     Parameters{Start: 0.9 * 0.3, Duration: 2 + 0.9*3, Fallback: FallbackNone},
		},
		{
			name:     "skip and duration both fall back",
			duration: 1.5,
			s:        settings.Segment{MinDuration: 2, MaxDuration: 2, SkipStart: 3, SkipEnd: 0},
			want:     Parameters{Start: 0, Duration: 1.5, Fallback: FallbackBoth},
		},
		{
			name:     "zero duration",
			duration: 0,
			s:        settings.Segment{MinDuration: 2, MaxDuration: 8},
			want:     Parameters{Start: 0, Duration: 8, Fallback: FallbackBoth},
		},
		{
			name:     "NaN duration",
			duration: math.NaN(),
			s:        settings.Segment{MinDuration: 2, MaxDuration: 8},
			want:     Parameters{Start: 0, Duration: 8, Fallback: FallbackBoth},
		},
		{
			name:     "unknown duration is capped",
			duration: math.Inf(1),
			s:        settings.Segment{MinDuration: 2, MaxDuration: 300},
			want:     Parameters{Start: 0, Duration: DurationMaxLimit.Seconds(), Fallback: FallbackBoth},
		},
		{
			name:     "negative settings",
			duration: 20,
			s:        settings.Segment{MinDuration: -3, MaxDuration: -1, SkipStart: -5, SkipEnd: -5},
			want:     Parameters{Start: 0, Duration: 1, Fallback: FallbackNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(fixedRand(tt.draw)).Calculate(tt.duration, tt.s)
			assert.InDelta(t, tt.want.Start, got.Start, eps)
			assert.InDelta(t, tt.want.Duration, got.Duration, eps)
			assert.Equal(t, tt.want.Fallback, got.Fallback)
		})
	}
}

func TestImageDuration(t *testing.T) {
	s := settings.Segment{MinDuration: 2, MaxDuration: 2}
	assert.Equal(t, 2*time.Second, New(fixedRand(0.7)).ImageDuration(s))

	s = settings.Segment{MinDuration: 6, MaxDuration: 2}
	assert.Equal(t, 4*time.Second, New(fixedRand(0.5)).ImageDuration(s))

	assert.Equal(t, time.Second, New(fixedRand(0.5)).ImageDuration(settings.Segment{}))
}

func TestFallbackIncludes(t *testing.T) {
	assert.True(t, FallbackBoth.Includes(FallbackSkipBounds))
	assert.True(t, FallbackBoth.Includes(FallbackDuration))
	assert.False(t, FallbackDuration.Includes(FallbackSkipBounds))
	assert.Equal(t, FallbackBoth, FallbackSkipBounds.with(FallbackDuration))
	assert.Equal(t, "skip_bounds", FallbackSkipBounds.String())
}
