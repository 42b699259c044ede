package playback

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"vj-frame/pkg/media"
	"vj-frame/pkg/metrics"
	"vj-frame/pkg/segment"
)

type state int

const (
	stateLoading state = iota
	stateSeeking
	stateMonitoring
	// stateTimed waits for a timer: an image's display duration or the
	// fallback after a failed segment calculation.
	stateTimed
	stateEnded
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case stateSeeking:
		return "seeking"
	case stateMonitoring:
		return "monitoring"
	case stateTimed:
		return "timed"
	case stateEnded:
		return "ended"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// controller drives one displayed entry. It implements MediaEvents for the
// surface and reports completion or failure back to the scheduler. Every
// callback checks that its generation is still the live one, so events
// from a detached element are dropped.
type controller struct {
	s     *Scheduler
	gen   uint64
	entry media.Entry
	log   zerolog.Logger

	element Element
	state   state

	params       segment.Parameters
	seekTarget   float64
	seekAttempts int
	lastCheck    float64
	checked      bool

	// Operations requested before Attach returned the element.
	pendingSeek *float64
	pendingPlay bool
}

func newController(s *Scheduler, entry media.Entry, gen uint64) *controller {
	return &controller{
		s:     s,
		gen:   gen,
		entry: entry,
		log: s.log.With().
			Str("entry", entry.ID).
			Str("name", entry.Name).
			Str("kind", entry.Kind.String()).
			Uint64("generation", gen).
			Logger(),
	}
}

// live reports whether the callback belongs to the displayed element.
func (c *controller) live(event string) bool {
	if !c.s.active || c.gen != c.s.generation || c.state == stateEnded || c.state == stateFailed {
		c.log.Debug().Str("event", event).Str("state", c.state.String()).Msg("Dropping stale media event")
		return false
	}
	return true
}

func (c *controller) bind(el Element) {
	c.element = el
	if c.pendingSeek != nil {
		target := *c.pendingSeek
		c.pendingSeek = nil
		c.seek(target)
	}
	if c.pendingPlay {
		c.pendingPlay = false
		c.play()
	}
}

func (c *controller) seek(target float64) {
	if c.element == nil {
		c.pendingSeek = &target
		return
	}
	if err := c.element.Seek(target); err != nil {
		c.fail(fmt.Errorf("seek to %.2fs: %w", target, err))
	}
}

func (c *controller) play() {
	if c.element == nil {
		c.pendingPlay = true
		return
	}
	if err := c.element.Play(); err != nil {
		c.fail(fmt.Errorf("play: %w", err))
	}
}

func (c *controller) OnLoaded() {
	if !c.live("loaded") || c.state != stateLoading {
		return
	}
	if c.entry.Kind != media.KindImage {
		// Videos wait for their metadata.
		return
	}

	d, err := c.imageDuration()
	if err != nil {
		c.s.reportError(err)
		d = c.s.opts.DurationMaxLimit
	}
	c.state = stateTimed
	metrics.RecordSegment(c.entry.Kind.String(), d.Seconds(), "")
	c.log.Debug().Dur("duration", d).Msg("Image loaded")
	c.s.arm(d, c.timerExpired)
	c.play()
}

func (c *controller) imageDuration() (d time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %w", ErrSegmentCalculation, panicError(r))
		}
	}()
	return c.s.calc.ImageDuration(c.s.settings.Current()), nil
}

func (c *controller) OnMetadataReady(duration float64) {
	if !c.live("metadata") || c.state != stateLoading || c.entry.Kind != media.KindVideo {
		return
	}
	c.entry.Duration = duration

	params, err := c.calculate(duration)
	if err != nil {
		c.s.reportError(err)
		c.state = stateTimed
		metrics.RecordSegment(c.entry.Kind.String(), c.s.opts.DurationMaxLimit.Seconds(), "calculation")
		c.log.Warn().Err(err).Dur("fallback", c.s.opts.DurationMaxLimit).Msg("Playing with fallback timer")
		c.s.arm(c.s.opts.DurationMaxLimit, c.timerExpired)
		c.play()
		return
	}

	c.params = params
	c.s.segment = params
	metrics.RecordSegment(c.entry.Kind.String(), params.Duration, params.Fallback.String())
	if params.Fallback != segment.FallbackNone {
		c.log.Info().
			Str("fallback", params.Fallback.String()).
			Float64("duration", duration).
			Msg("Segment settings did not fit, using fallback")
	}
	c.log.Debug().
		Float64("start", params.Start).
		Float64("length", params.Duration).
		Float64("video_duration", duration).
		Msg("Segment planned")

	c.state = stateSeeking
	c.seekTarget = params.Start
	c.seekAttempts = 0
	c.seek(params.Start)
}

func (c *controller) calculate(duration float64) (p segment.Parameters, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %w", ErrSegmentCalculation, panicError(r))
		}
	}()
	return c.s.calc.Calculate(duration, c.s.settings.Current()), nil
}

func (c *controller) OnSeekSettled(position float64) {
	if !c.live("seeked") || c.state != stateSeeking {
		return
	}

	offBy := math.Abs(position - c.seekTarget)
	if offBy > SeekingTolerance && c.seekAttempts < MaxSeekingAttempts {
		c.seekAttempts++
		metrics.RecordSeekRetry()
		c.log.Debug().
			Float64("target", c.seekTarget).
			Float64("position", position).
			Int("attempt", c.seekAttempts).
			Msg("Seek missed target, retrying")
		c.seek(c.seekTarget)
		return
	}

	if offBy > SeekingTolerance {
		metrics.RecordSeekGiveUp()
		c.log.Debug().
			Float64("target", c.seekTarget).
			Float64("position", position).
			Msg("Seek did not converge, accepting position")
	}

	c.seekTarget = 0
	c.seekAttempts = 0
	c.state = stateMonitoring
	c.checked = false
	c.play()
}

func (c *controller) OnPositionAdvanced(position float64) {
	if !c.live("position") || c.state != stateMonitoring {
		return
	}

	if c.checked && position >= c.lastCheck && position-c.lastCheck < TimeUpdateCheckThreshold-1e-9 {
		return
	}
	c.checked = true
	c.lastCheck = position

	if position >= c.params.End()-SegmentEndTolerance {
		c.complete("segment_end")
	}
}

func (c *controller) OnNaturalEnd() {
	if !c.live("ended") {
		return
	}
	c.complete("ended")
}

func (c *controller) OnLoadError(err error) {
	if !c.live("error") {
		return
	}
	c.fail(err)
}

func (c *controller) timerExpired() {
	if !c.live("timer") {
		return
	}
	c.complete("timer")
}

// complete ends this display and lets the scheduler move on.
func (c *controller) complete(trigger string) {
	c.state = stateEnded
	c.s.onSegmentComplete(c.gen, trigger)
}

// fail reports a per-entry failure and advances after a short delay.
func (c *controller) fail(cause error) {
	if c.state == stateEnded || c.state == stateFailed {
		return
	}
	c.state = stateFailed

	err := &MediaLoadError{EntryID: c.entry.ID, Name: c.entry.Name, Err: cause}
	metrics.RecordMediaFailure(c.entry.Kind.String())
	c.log.Warn().Err(cause).Msg("Media failed, skipping")
	c.s.emit(EventCyclingError{Err: err})
	if !c.s.active || c.gen != c.s.generation {
		// A handler stopped or skipped.
		return
	}

	gen := c.gen
	c.s.arm(c.s.opts.MinTransitionDelay, func() {
		c.s.onSegmentComplete(gen, "failure")
	})
}
