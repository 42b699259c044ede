package playback

import (
	"sync/atomic"
	"time"
)

// Loop serializes work onto the goroutine that owns the scheduler. Other
// goroutines Post closures; the owner calls Drain once per frame.
type Loop struct {
	ch chan func()
}

// NewLoop returns a loop buffering up to size pending closures.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{ch: make(chan func(), size)}
}

// Post queues fn. It blocks while the buffer is full, so it must not be
// called from the draining goroutine.
func (l *Loop) Post(fn func()) {
	l.ch <- fn
}

// Drain runs everything queued when it was called and returns how many
// closures ran. Closures posted while draining wait for the next call.
func (l *Loop) Drain() int {
	n := len(l.ch)
	for i := 0; i < n; i++ {
		select {
		case fn := <-l.ch:
			fn()
		default:
			return i
		}
	}
	return n
}

// Clock arms one-shot timers.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending one-shot callback.
type Timer interface {
	// Stop prevents the callback from running. It returns false if the
	// callback already ran or the timer was already stopped.
	Stop() bool
}

// LoopClock fires timer callbacks on a Loop.
type LoopClock struct {
	Loop *Loop
}

func (c LoopClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		c.Loop.Post(func() {
			// Stop may have run between the timer firing and this drain.
			if t.done.CompareAndSwap(false, true) {
				f()
			}
		})
	})
	return t
}

type loopTimer struct {
	timer *time.Timer
	done  atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.done.CompareAndSwap(false, true)
}
