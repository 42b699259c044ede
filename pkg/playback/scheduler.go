// Package playback decides what is on screen and when it changes.
//
// A Scheduler and everything it drives belong to one goroutine. Timers,
// pool watchers and other producers hand work to that goroutine through a
// Loop; media surfaces deliver their events on it directly.
package playback

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vj-frame/pkg/logging"
	"vj-frame/pkg/media"
	"vj-frame/pkg/metrics"
	"vj-frame/pkg/segment"
	"vj-frame/pkg/selector"
	"vj-frame/pkg/settings"
)

const (
	RecentHistorySize        = selector.RecentHistorySize
	MinTransitionDelay       = 100 * time.Millisecond
	SeekingTolerance         = 0.5
	MaxSeekingAttempts       = 3
	SegmentEndTolerance      = 0.1
	TimeUpdateCheckThreshold = 0.1
	DurationMaxLimit         = segment.DurationMaxLimit
)

// Options tune a Scheduler. Zero fields take the package defaults.
type Options struct {
	HistorySize        int
	MinTransitionDelay time.Duration
	// DurationMaxLimit is the fallback timer used when a segment cannot be
	// calculated.
	DurationMaxLimit time.Duration
	AutoPlay         bool

	Selector   *selector.Selector
	Calculator *segment.Calculator
	Logger     *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.HistorySize <= 0 {
		o.HistorySize = RecentHistorySize
	}
	if o.MinTransitionDelay <= 0 {
		o.MinTransitionDelay = MinTransitionDelay
	}
	if o.DurationMaxLimit <= 0 {
		o.DurationMaxLimit = DurationMaxLimit
	}
	if o.Selector == nil {
		o.Selector = selector.New(nil)
	}
	if o.Calculator == nil {
		o.Calculator = segment.New(nil)
		o.Calculator.MaxLimit = o.DurationMaxLimit
	}
	return o
}

// Scheduler is the single authority for what is showing and what comes
// next. It is not safe for concurrent use.
type Scheduler struct {
	pool     media.Pool
	settings settings.Provider
	surface  Surface
	clock    Clock
	selector *selector.Selector
	calc     *segment.Calculator
	history  *selector.History
	opts     Options
	log      zerolog.Logger

	autoPlay   bool
	active     bool
	current    *controller
	generation uint64
	timer      Timer
	segment    segment.Parameters

	subs subscribers
}

// NewScheduler wires a scheduler. pool and settings are read at every
// decision point.
func NewScheduler(pool media.Pool, s settings.Provider, surface Surface, clock Clock, opts Options) *Scheduler {
	opts = opts.withDefaults()
	log := logging.Component("playback")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Scheduler{
		pool:     pool,
		settings: s,
		surface:  surface,
		clock:    clock,
		selector: opts.Selector,
		calc:     opts.Calculator,
		history:  selector.NewHistory(opts.HistorySize),
		opts:     opts,
		log:      log,
		autoPlay: opts.AutoPlay,
	}
}

// Subscribe registers h for events of kind.
func (s *Scheduler) Subscribe(kind EventKind, h Handler) (unsubscribe func()) {
	return s.subs.add(kind, h)
}

// Active reports whether cycling is running.
func (s *Scheduler) Active() bool { return s.active }

// Current returns the displayed entry.
func (s *Scheduler) Current() (media.Entry, bool) {
	if s.current == nil {
		return media.Entry{}, false
	}
	return s.current.entry, true
}

// Segment returns the plan of the displayed video, zero for images.
func (s *Scheduler) Segment() segment.Parameters { return s.segment }

// History returns recently shown ids, most recent first.
func (s *Scheduler) History() []string { return s.history.IDs() }

// AutoPlay reports whether a pool that becomes non-empty starts cycling.
func (s *Scheduler) AutoPlay() bool { return s.autoPlay }

// SetAutoPlay controls whether a pool that becomes non-empty starts
// cycling.
func (s *Scheduler) SetAutoPlay(on bool) { s.autoPlay = on }

// Start begins cycling. It is a no-op while active and returns
// ErrNoUsableMedia, leaving the scheduler inactive, when nothing can be
// shown.
func (s *Scheduler) Start() error {
	if s.active {
		return nil
	}

	entry, ok, err := s.pick()
	if err != nil {
		s.reportError(err)
		return fmt.Errorf("%w: %w", ErrNoUsableMedia, err)
	}
	if !ok {
		s.log.Info().Msg("No usable media, staying idle")
		return ErrNoUsableMedia
	}

	s.active = true
	s.history.Push(entry.ID)
	gen := s.generation + 1
	if err := s.display(entry); err != nil {
		s.reportError(err)
		s.reset()
		return fmt.Errorf("%w: %w", ErrNoUsableMedia, err)
	}
	// An error handler may have stopped or restarted the session while
	// the first entry was attached.
	if !s.active || s.generation != gen {
		return ErrStartInterrupted
	}

	metrics.SetCyclingActive(true)
	metrics.RecordTransition(entry.Kind.String(), "start")
	s.log.Info().Str("entry", entry.ID).Str("name", entry.Name).Msg("Cycling started")
	s.emit(EventCyclingStarted{Entry: entry})
	return nil
}

// Stop ends cycling. Late events from the element that was showing are
// ignored afterwards.
func (s *Scheduler) Stop() {
	if !s.active {
		return
	}
	last, _ := s.Current()
	s.reset()

	s.log.Info().Str("last", last.ID).Msg("Cycling stopped")
	s.emit(EventCyclingStopped{LastEntry: last})
}

// Skip cuts to the next entry immediately.
func (s *Scheduler) Skip() {
	if !s.active {
		return
	}
	s.advance("skip")
}

// OnPoolChanged reacts to a new pool content. The displayed entry is left
// alone; the next transition uses the new pool.
func (s *Scheduler) OnPoolChanged(entries []media.Entry) {
	usable := 0
	for _, e := range entries {
		if e.Usable() {
			usable++
		}
	}

	switch {
	case usable == 0 && s.active:
		s.log.Info().Msg("Media pool is empty, stopping")
		s.Stop()
	case usable > 0 && !s.active && s.autoPlay:
		if err := s.Start(); err != nil {
			s.log.Warn().Err(err).Msg("Auto-play could not start")
		}
	}
}

func (s *Scheduler) onSegmentComplete(gen uint64, trigger string) {
	if !s.active || gen != s.generation {
		s.log.Debug().Str("trigger", trigger).Uint64("generation", gen).Msg("Ignoring stale completion")
		return
	}
	s.advance(trigger)
}

func (s *Scheduler) advance(trigger string) {
	prev, _ := s.Current()

	next, ok, err := s.pick()
	if err != nil {
		s.reportError(err)
		ok = false
	}
	if !ok {
		s.log.Info().Msg("No usable media left")
		s.Stop()
		return
	}

	s.history.Push(next.ID)
	if err := s.display(next); err != nil {
		s.reportError(err)
		s.Stop()
		return
	}

	metrics.RecordTransition(next.Kind.String(), trigger)
	s.log.Debug().
		Str("from", prev.ID).
		Str("to", next.ID).
		Str("trigger", trigger).
		Msg("Media changed")
	s.emit(EventMediaChanged{Previous: prev, Current: next})
}

func (s *Scheduler) pick() (entry media.Entry, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("select media: %w", panicError(r))
		}
	}()
	entry, ok = s.selector.Select(s.pool.List(), s.history.IDs())
	return entry, ok, nil
}

// display replaces the current element with entry.
func (s *Scheduler) display(entry media.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("display %s: %w", entry.ID, panicError(r))
		}
	}()

	s.clear()
	s.generation++
	c := newController(s, entry, s.generation)
	s.current = c

	el, attachErr := s.surface.Attach(entry, c)
	if attachErr != nil {
		c.fail(attachErr)
		return nil
	}
	if c.gen != s.generation {
		// Superseded while attaching.
		s.surface.Detach(el)
		return nil
	}
	c.bind(el)
	return nil
}

// clear disarms the timer and detaches the current element.
func (s *Scheduler) clear() {
	s.disarm()
	s.segment = segment.Parameters{}
	if s.current != nil && s.current.element != nil {
		s.surface.Detach(s.current.element)
	}
	s.current = nil
}

func (s *Scheduler) reset() {
	s.clear()
	s.generation++
	s.active = false
	metrics.SetCyclingActive(false)
}

// arm replaces any pending timer.
func (s *Scheduler) arm(d time.Duration, f func()) {
	s.disarm()
	var t Timer
	t = s.clock.AfterFunc(d, func() {
		if s.timer == t {
			s.timer = nil
		}
		f()
	})
	s.timer = t
}

func (s *Scheduler) disarm() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) reportError(err error) {
	s.log.Error().Err(err).Msg("Playback error")
	s.emit(EventCyclingError{Err: err})
}

func (s *Scheduler) emit(ev Event) {
	for _, h := range s.subs.handlers(ev.Kind()) {
		s.safeCall(h, ev)
	}
}

func (s *Scheduler) safeCall(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Err(panicError(r)).Str("event", ev.Kind().String()).Msg("Event handler panicked")
		}
	}()
	h(ev)
}
