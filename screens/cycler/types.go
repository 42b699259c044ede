package cycler

import (
	"github.com/rs/zerolog"
	"github.com/veandco/go-sdl2/sdl"

	"vj-frame/pkg/input"
	"vj-frame/pkg/media"
	"vj-frame/pkg/playback"
	"vj-frame/pkg/render"
)

// CyclerScreen shows the media pool full screen, one entry at a time.
type CyclerScreen struct {
	loop      *playback.Loop
	surface   *render.Surface
	scheduler *playback.Scheduler
	library   *media.Library
	log       zerolog.Logger

	// Errors reported by the scheduler since the last TakeErrors.
	errors []error

	unsubscribe []func()
	keys        *input.Tracker[sdl.Scancode]
}

// Options configure a CyclerScreen.
type Options struct {
	Playback playback.Options
	// PlaybackRate is applied to every video.
	PlaybackRate float64
	// LoopSize bounds closures queued by background goroutines between frames.
	LoopSize int
}
