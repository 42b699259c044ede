package playback

import "vj-frame/pkg/media"

// EventKind selects which events a handler receives.
type EventKind int

const (
	CyclingStarted EventKind = iota
	CyclingStopped
	MediaChanged
	CyclingError
)

func (k EventKind) String() string {
	switch k {
	case CyclingStarted:
		return "cycling_started"
	case CyclingStopped:
		return "cycling_stopped"
	case MediaChanged:
		return "media_changed"
	case CyclingError:
		return "cycling_error"
	default:
		return "unknown"
	}
}

// Event is emitted by the Scheduler.
type Event interface {
	Kind() EventKind
}

type EventCyclingStarted struct {
	Entry media.Entry
}

type EventCyclingStopped struct {
	// LastEntry is zero if nothing was displayed.
	LastEntry media.Entry
}

type EventMediaChanged struct {
	Previous media.Entry
	Current  media.Entry
}

type EventCyclingError struct {
	Err error
}

func (EventCyclingStarted) Kind() EventKind { return CyclingStarted }
func (EventCyclingStopped) Kind() EventKind { return CyclingStopped }
func (EventMediaChanged) Kind() EventKind   { return MediaChanged }
func (EventCyclingError) Kind() EventKind   { return CyclingError }

// Handler receives events on the scheduler's goroutine.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

type subscribers struct {
	next int
	subs map[EventKind][]subscription
}

func (s *subscribers) add(kind EventKind, fn Handler) func() {
	if s.subs == nil {
		s.subs = make(map[EventKind][]subscription)
	}
	id := s.next
	s.next++
	s.subs[kind] = append(s.subs[kind], subscription{id: id, fn: fn})

	return func() {
		list := s.subs[kind]
		for i, sub := range list {
			if sub.id == id {
				s.subs[kind] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (s *subscribers) handlers(kind EventKind) []Handler {
	list := s.subs[kind]
	out := make([]Handler, len(list))
	for i, sub := range list {
		out[i] = sub.fn
	}
	return out
}
