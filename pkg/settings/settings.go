// Package settings holds the user-tunable playback preferences and persists
// them across restarts.
package settings

import (
	"math"
)

// Ranges the settings UI enforces. The playback core does not rely on them
// and copes with anything a hand-edited file contains.
var (
	DurationRange = Range{Min: 1, Max: 30}
	SkipRange     = Range{Min: 0, Max: 300}
	SpeedRange    = Range{Min: 0.25, Max: 4}
)

// Range is a closed interval.
type Range struct {
	Min, Max float64
}

// Clamp limits v to the range. NaN becomes Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) || v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Segment bounds how long each piece of media is shown and which parts of a
// video are eligible. All values are seconds.
type Segment struct {
	MinDuration float64 `json:"minDuration"`
	MaxDuration float64 `json:"maxDuration"`
	SkipStart   float64 `json:"skipStart"`
	SkipEnd     float64 `json:"skipEnd"`
}

// Clamp applies the UI ranges. Min and max are clamped independently, an
// inverted pair is left inverted.
func (s Segment) Clamp() Segment {
	return Segment{
		MinDuration: DurationRange.Clamp(s.MinDuration),
		MaxDuration: DurationRange.Clamp(s.MaxDuration),
		SkipStart:   SkipRange.Clamp(s.SkipStart),
		SkipEnd:     SkipRange.Clamp(s.SkipEnd),
	}
}

// Settings is everything persisted in the settings file.
type Settings struct {
	Segment       Segment `json:"segment"`
	AutoPlay      bool    `json:"autoPlay"`
	PlaybackSpeed float64 `json:"playbackSpeed"`
}

// Defaults returns the settings used when no file exists.
func Defaults() Settings {
	return Settings{
		Segment: Segment{
			MinDuration: 2,
			MaxDuration: 8,
			SkipStart:   0,
			SkipEnd:     0,
		},
		AutoPlay:      true,
		PlaybackSpeed: 1.0,
	}
}

// Provider hands out the current segment bounds. The scheduler reads it at
// every decision point and never caches the value.
type Provider interface {
	Current() Segment
}

// Static is a fixed Provider.
type Static Segment

func (s Static) Current() Segment { return Segment(s) }
