package cycler

import (
	"errors"

	"github.com/veandco/go-sdl2/sdl"

	"vj-frame/pkg/input"
	"vj-frame/pkg/logging"
	"vj-frame/pkg/media"
	"vj-frame/pkg/performance"
	"vj-frame/pkg/playback"
	"vj-frame/pkg/render"
	"vj-frame/pkg/segment"
	"vj-frame/pkg/settings"
)

// NewCyclerScreen wires a scheduler to an SDL surface. Changes to lib are
// picked up on the next frame.
func NewCyclerScreen(renderer *sdl.Renderer, lib *media.Library, provider settings.Provider, opts Options) *CyclerScreen {
	loop := playback.NewLoop(opts.LoopSize)
	surface := render.NewSurface(renderer)
	if opts.PlaybackRate > 0 {
		surface.SetPlaybackRate(opts.PlaybackRate)
	}

	c := &CyclerScreen{
		loop:      loop,
		surface:   surface,
		scheduler: playback.NewScheduler(lib, provider, surface, playback.LoopClock{Loop: loop}, opts.Playback),
		library:   lib,
		log:       logging.Component("cycler"),
		keys:      input.NewTracker[sdl.Scancode](),
	}

	c.unsubscribe = append(c.unsubscribe,
		c.scheduler.Subscribe(playback.CyclingError, func(ev playback.Event) {
			c.errors = append(c.errors, ev.(playback.EventCyclingError).Err)
		}),
		c.scheduler.Subscribe(playback.MediaChanged, func(playback.Event) {
			// The previous element was just released.
			performance.ReclaimIfPressured()
		}),
		c.scheduler.Subscribe(playback.CyclingStopped, func(ev playback.Event) {
			c.log.Info().Str("last", ev.(playback.EventCyclingStopped).LastEntry.Name).Msg("Cycling stopped")
		}),
		lib.Subscribe(func(entries []media.Entry) {
			loop.Post(func() { c.scheduler.OnPoolChanged(entries) })
		}),
	)

	return c
}

// Start begins cycling if anything can be shown. An empty pool is not an
// error: auto-play picks it up when media arrives.
func (c *CyclerScreen) Start() error {
	err := c.scheduler.Start()
	if errors.Is(err, playback.ErrNoUsableMedia) && c.library.Len() == 0 {
		c.log.Info().Msg("Media pool is empty, waiting for media")
		return nil
	}
	return err
}

// Toggle starts or stops cycling.
func (c *CyclerScreen) Toggle() {
	if c.scheduler.Active() {
		c.scheduler.Stop()
		return
	}
	if err := c.scheduler.Start(); err != nil {
		c.errors = append(c.errors, err)
	}
}

// Update runs queued work and advances playback. Keys are always tracked
// but only acted on when interactive, so a key held while another screen
// had the keyboard does not fire later.
func (c *CyclerScreen) Update(keyState []uint8, interactive bool) error {
	c.loop.Drain()
	c.surface.Update()

	keys := input.KeyState[sdl.Scancode]{State: keyState, Tracker: c.keys}
	skip := keys.Pressed(sdl.SCANCODE_RIGHT)
	toggle := keys.Pressed(sdl.SCANCODE_SPACE)
	if !interactive {
		return nil
	}
	if skip {
		c.scheduler.Skip()
	}
	if toggle {
		c.Toggle()
	}
	return nil
}

// Draw paints the displayed entry. The caller clears and presents.
func (c *CyclerScreen) Draw(renderer *sdl.Renderer, screenWidth, screenHeight int32) error {
	return c.surface.Draw(screenWidth, screenHeight)
}

// NowPlaying returns the displayed entry and its segment plan.
func (c *CyclerScreen) NowPlaying() (media.Entry, bool, segment.Parameters) {
	entry, ok := c.scheduler.Current()
	return entry, ok, c.scheduler.Segment()
}

func (c *CyclerScreen) Active() bool { return c.scheduler.Active() }

func (c *CyclerScreen) History() []string { return c.scheduler.History() }

// TakeErrors returns and clears the errors reported since the last call.
func (c *CyclerScreen) TakeErrors() []error {
	errs := c.errors
	c.errors = nil
	return errs
}

// ApplySettings pushes the non-segment settings to playback. Segment bounds
// are read by the scheduler itself at every decision point.
func (c *CyclerScreen) ApplySettings(s settings.Settings) {
	c.surface.SetPlaybackRate(s.PlaybackSpeed)
	c.scheduler.SetAutoPlay(s.AutoPlay)
}

// Close stops cycling and releases the surface.
func (c *CyclerScreen) Close() {
	for _, unsubscribe := range c.unsubscribe {
		unsubscribe()
	}
	c.scheduler.Stop()
	c.surface.Close()
}
