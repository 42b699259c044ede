package playback

import (
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"vj-frame/pkg/media"
	"vj-frame/pkg/segment"
	"vj-frame/pkg/selector"
	"vj-frame/pkg/settings"
)

// manualClock fires timers only when advanced.
type manualClock struct {
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &manualTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers in order.
func (c *manualClock) Advance(d time.Duration) {
	end := c.now + d
	for {
		due := c.due(end)
		if due == nil {
			break
		}
		c.now = due.at
		due.fired = true
		due.f()
	}
	c.now = end
}

func (c *manualClock) due(end time.Duration) *manualTimer {
	var pending []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= end {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].at < pending[j].at })
	return pending[0]
}

func (c *manualClock) pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeElement struct {
	entry    media.Entry
	ev       MediaEvents
	seeks    []float64
	plays    int
	detached bool
}

func (e *fakeElement) Seek(seconds float64) error {
	e.seeks = append(e.seeks, seconds)
	return nil
}

func (e *fakeElement) Play() error {
	e.plays++
	return nil
}

type fakeSurface struct {
	elements  []*fakeElement
	failOn    map[string]error
	panicOn   map[string]bool
	attaching int
}

func (s *fakeSurface) Attach(entry media.Entry, ev MediaEvents) (Element, error) {
	s.attaching++
	if s.panicOn[entry.ID] {
		panic("surface exploded")
	}
	if err := s.failOn[entry.ID]; err != nil {
		return nil, err
	}
	el := &fakeElement{entry: entry, ev: ev}
	s.elements = append(s.elements, el)
	return el, nil
}

func (s *fakeSurface) Detach(el Element) {
	el.(*fakeElement).detached = true
}

func (s *fakeSurface) last() *fakeElement {
	if len(s.elements) == 0 {
		return nil
	}
	return s.elements[len(s.elements)-1]
}

type memSource struct{ ok bool }

func (m memSource) Locator() string { return "memory" }
func (m memSource) Available() bool { return m.ok }

func image(id string) media.Entry {
	return media.Entry{ID: id, Name: id, Kind: media.KindImage, Source: memSource{ok: true}}
}

func video(id string) media.Entry {
	return media.Entry{ID: id, Name: id, Kind: media.KindVideo, Source: memSource{ok: true}}
}

// firstRand always picks the first candidate.
type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

type panicRand struct{}

func (panicRand) Float64() float64 { panic("no entropy") }

type panicPool struct{}

func (panicPool) List() []media.Entry { panic("pool exploded") }

type recorder struct {
	events []Event
}

func (r *recorder) subscribe(s *Scheduler) {
	for _, k := range []EventKind{CyclingStarted, CyclingStopped, MediaChanged, CyclingError} {
		s.Subscribe(k, func(ev Event) { r.events = append(r.events, ev) })
	}
}

func (r *recorder) of(kind EventKind) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

type harness struct {
	sched   *Scheduler
	clock   *manualClock
	surface *fakeSurface
	events  *recorder
}

func newHarness(pool media.Pool, seg settings.Segment, rng segment.Rand) *harness {
	if rng == nil {
		rng = fixedRand(0.5)
	}
	nop := zerolog.Nop()
	h := &harness{
		clock:   &manualClock{},
		surface: &fakeSurface{failOn: map[string]error{}, panicOn: map[string]bool{}},
		events:  &recorder{},
	}
	h.sched = NewScheduler(pool, settings.Static(seg), h.surface, h.clock, Options{
		AutoPlay:   true,
		Selector:   selector.New(firstRand{}),
		Calculator: segment.New(rng),
		Logger:     &nop,
	})
	h.events.subscribe(h.sched)
	return h
}

var errDecode = errors.New("decode failed")
