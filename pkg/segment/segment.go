// Package segment decides which part of a video is played and for how long.
package segment

import (
	"math"
	"math/rand/v2"
	"time"

	"vj-frame/pkg/settings"
)

// DurationMaxLimit caps the segment length when the video duration is
// unknown, and is the length of the fallback timer the scheduler arms when
// a calculation fails outright.
const DurationMaxLimit = 30 * time.Second

// floor replaces a non-positive duration bound.
const floor = 1.0

// Fallback records which defaulting rule fired during a calculation.
type Fallback int

const (
	FallbackNone Fallback = iota
	FallbackSkipBounds
	FallbackDuration
	FallbackBoth
)

func (f Fallback) String() string {
	switch f {
	case FallbackSkipBounds:
		return "skip_bounds"
	case FallbackDuration:
		return "duration"
	case FallbackBoth:
		return "both"
	default:
		return "none"
	}
}

// Includes reports whether f covers other. Both includes everything.
func (f Fallback) Includes(other Fallback) bool {
	return f == other || f == FallbackBoth
}

func (f Fallback) with(other Fallback) Fallback {
	switch {
	case f == FallbackNone:
		return other
	case other == FallbackNone || f == other:
		return f
	default:
		return FallbackBoth
	}
}

// Parameters is the result for one video display.
type Parameters struct {
	Start    float64
	Duration float64
	Fallback Fallback
}

// End is the position at which the segment is complete.
func (p Parameters) End() float64 { return p.Start + p.Duration }

// Rand is the random source. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Calculator draws segment parameters. The zero value is not usable, use New.
type Calculator struct {
	rng      Rand
	MaxLimit time.Duration
}

// New returns a Calculator drawing from rng, or from the process-wide source
// when rng is nil.
func New(rng Rand) *Calculator {
	if rng == nil {
		rng = globalRand{}
	}
	return &Calculator{rng: rng, MaxLimit: DurationMaxLimit}
}

// bounds sanitizes the duration range: negatives and NaN become 0, an
// inverted pair is swapped and non-positive bounds are lifted to the floor.
func bounds(s settings.Segment) (lo, hi float64) {
	lo, hi = nonNegative(s.MinDuration), nonNegative(s.MaxDuration)
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi <= 0 {
		hi = floor
	}
	if lo <= 0 {
		lo = math.Min(floor, hi)
	}
	return lo, hi
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func (c *Calculator) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + c.rng.Float64()*(hi-lo)
}

// ImageDuration draws a display duration for an image from the configured
// range.
func (c *Calculator) ImageDuration(s settings.Segment) time.Duration {
	lo, hi := bounds(s)
	return seconds(c.uniform(lo, hi))
}

// Calculate picks a start point and duration for a video of the given
// length. It never fails: out of range settings and an unknown duration
// produce fallback values instead.
func (c *Calculator) Calculate(videoDuration float64, s settings.Segment) Parameters {
	lo, hi := bounds(s)

	if videoDuration <= 0 || math.IsNaN(videoDuration) || math.IsInf(videoDuration, 0) {
		return Parameters{
			Start:    0,
			Duration: math.Min(hi, c.MaxLimit.Seconds()),
			Fallback: FallbackBoth,
		}
	}

	fallback := FallbackNone
	start := nonNegative(s.SkipStart)
	end := videoDuration - nonNegative(s.SkipEnd)
	if end <= start {
		start, end = 0, videoDuration
		fallback = fallback.with(FallbackSkipBounds)
	}
	window := end - start

	// A window shorter than the minimum is shown whole. Otherwise the draw
	// is limited to what the window can hold.
	var duration float64
	if window < lo {
		duration = window
		fallback = fallback.with(FallbackDuration)
	} else {
		duration = c.uniform(lo, math.Min(hi, window))
	}

	return Parameters{
		Start:    c.uniform(start, math.Max(start, end-duration)),
		Duration: duration,
		Fallback: fallback,
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
