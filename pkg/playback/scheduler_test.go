package playback

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vj-frame/pkg/media"
	"vj-frame/pkg/settings"
)

var twoSeconds = settings.Segment{MinDuration: 2, MaxDuration: 2}

func TestStartWithoutUsableMediaStaysInactive(t *testing.T) {
	tests := []struct {
		name string
		pool []media.Entry
	}{
		{name: "empty", pool: nil},
		{name: "unavailable", pool: []media.Entry{
			{ID: "gone", Kind: media.KindVideo, Source: memSource{ok: false}},
			{ID: "nosource", Kind: media.KindImage},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(media.NewLibrary(tt.pool...), twoSeconds, nil)

			err := h.sched.Start()
			require.ErrorIs(t, err, ErrNoUsableMedia)
			assert.False(t, h.sched.Active())
			assert.Empty(t, h.events.of(CyclingStarted))
			assert.Zero(t, h.surface.attaching)
			_, ok := h.sched.Current()
			assert.False(t, ok)
		})
	}
}

func TestStartIsNoopWhileActive(t *testing.T) {
	h := newHarness(media.NewLibrary(image("a"), image("b")), twoSeconds, nil)

	require.NoError(t, h.sched.Start())
	require.NoError(t, h.sched.Start())
	assert.Len(t, h.events.of(CyclingStarted), 1)
	assert.Len(t, h.surface.elements, 1)
	assert.Equal(t, []string{"a"}, h.sched.History())
}

func TestImageAndVideoScenario(t *testing.T) {
	h := newHarness(media.NewLibrary(image("A"), video("B")), twoSeconds, fixedRand(0.5))

	require.NoError(t, h.sched.Start())
	started := h.events.of(CyclingStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "A", started[0].(EventCyclingStarted).Entry.ID)

	a := h.surface.last()
	a.ev.OnLoaded()
	assert.Equal(t, 1, a.plays)

	h.clock.Advance(2*time.Second - time.Millisecond)
	assert.Empty(t, h.events.of(MediaChanged), "image shown for its full duration")

	h.clock.Advance(time.Millisecond)
	changed := h.events.of(MediaChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "A", changed[0].(EventMediaChanged).Previous.ID)
	assert.Equal(t, "B", changed[0].(EventMediaChanged).Current.ID)
	assert.True(t, a.detached)

	b := h.surface.last()
	require.Equal(t, "B", b.entry.ID)
	b.ev.OnMetadataReady(10)
	require.Len(t, b.seeks, 1)
	start := b.seeks[0]
	assert.GreaterOrEqual(t, start, 0.0)
	assert.LessOrEqual(t, start, 8.0)
	assert.Equal(t, 2.0, h.sched.Segment().Duration)

	b.ev.OnSeekSettled(start)
	assert.Equal(t, 1, b.plays)

	for i := 1; i < 19; i++ {
		b.ev.OnPositionAdvanced(start + 0.1*float64(i))
	}
	assert.Len(t, h.events.of(MediaChanged), 1, "segment still playing")

	b.ev.OnPositionAdvanced(start + 2)
	changed = h.events.of(MediaChanged)
	require.Len(t, changed, 2)
	assert.Equal(t, "B", changed[1].(EventMediaChanged).Previous.ID)
	assert.True(t, b.detached)
	assert.Equal(t, []string{"A", "B"}, h.sched.History())
}

func TestSeekRetriesAreBounded(t *testing.T) {
	h := newHarness(media.NewLibrary(video("v")), settings.Segment{MinDuration: 2, MaxDuration: 2, SkipStart: 5}, fixedRand(0))
	require.NoError(t, h.sched.Start())

	v := h.surface.last()
	v.ev.OnMetadataReady(60)
	require.Equal(t, []float64{5}, v.seeks)

	for i := 0; i < MaxSeekingAttempts; i++ {
		v.ev.OnSeekSettled(5.7)
		assert.Len(t, v.seeks, i+2)
		assert.Zero(t, v.plays)
	}

	v.ev.OnSeekSettled(5.7)
	assert.Len(t, v.seeks, 1+MaxSeekingAttempts, "no further retries")
	assert.Equal(t, 1, v.plays, "monitoring started")

	// Further settle signals are ignored once monitoring.
	v.ev.OnSeekSettled(5.7)
	assert.Len(t, v.seeks, 1+MaxSeekingAttempts)
}

func TestSeekWithinToleranceConvergesAtOnce(t *testing.T) {
	h := newHarness(media.NewLibrary(video("v")), twoSeconds, fixedRand(0))
	require.NoError(t, h.sched.Start())

	v := h.surface.last()
	v.ev.OnMetadataReady(30)
	v.ev.OnSeekSettled(0.4)
	assert.Len(t, v.seeks, 1)
	assert.Equal(t, 1, v.plays)
}

func TestPositionChecksAreThrottled(t *testing.T) {
	h := newHarness(media.NewLibrary(video("v"), video("w")), twoSeconds, fixedRand(0))
	require.NoError(t, h.sched.Start())

	v := h.surface.last()
	v.ev.OnMetadataReady(30)
	v.ev.OnSeekSettled(0)

	v.ev.OnPositionAdvanced(1.85)
	// Closer than the check threshold to the last evaluated position.
	v.ev.OnPositionAdvanced(1.92)
	assert.Empty(t, h.events.of(MediaChanged))

	v.ev.OnPositionAdvanced(1.96)
	assert.Len(t, h.events.of(MediaChanged), 1)
}

func TestCompletionIsIdempotent(t *testing.T) {
	t.Run("position then natural end", func(t *testing.T) {
		h := newHarness(media.NewLibrary(video("v"), video("w")), twoSeconds, fixedRand(0))
		require.NoError(t, h.sched.Start())

		v := h.surface.last()
		v.ev.OnMetadataReady(10)
		v.ev.OnSeekSettled(0)
		v.ev.OnPositionAdvanced(2)
		v.ev.OnNaturalEnd()
		v.ev.OnPositionAdvanced(2.5)

		assert.Len(t, h.events.of(MediaChanged), 1)
	})

	t.Run("fallback timer then natural end", func(t *testing.T) {
		h := newHarness(media.NewLibrary(video("v"), video("w")), settings.Segment{MinDuration: 2, MaxDuration: 8}, panicRand{})
		require.NoError(t, h.sched.Start())

		v := h.surface.last()
		v.ev.OnMetadataReady(10)
		assert.Equal(t, 1, v.plays, "plays from the start without a plan")
		assert.Empty(t, v.seeks)

		errs := h.events.of(CyclingError)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0].(EventCyclingError).Err, ErrSegmentCalculation)

		h.clock.Advance(DurationMaxLimit)
		v.ev.OnNaturalEnd()

		assert.Len(t, h.events.of(MediaChanged), 1)
		assert.Equal(t, 0, h.clock.pending())
	})

	t.Run("natural end disarms fallback timer", func(t *testing.T) {
		h := newHarness(media.NewLibrary(video("v"), video("w")), settings.Segment{MinDuration: 2, MaxDuration: 8}, panicRand{})
		require.NoError(t, h.sched.Start())

		v := h.surface.last()
		v.ev.OnMetadataReady(10)
		v.ev.OnNaturalEnd()
		h.clock.Advance(DurationMaxLimit)

		assert.Len(t, h.events.of(MediaChanged), 1)
	})
}

func TestStopDiscardsLateSignals(t *testing.T) {
	h := newHarness(media.NewLibrary(image("a"), video("b")), twoSeconds, nil)
	require.NoError(t, h.sched.Start())

	a := h.surface.last()
	a.ev.OnLoaded()
	require.Equal(t, 1, h.clock.pending())

	h.sched.Stop()
	stopped := h.events.of(CyclingStopped)
	require.Len(t, stopped, 1)
	assert.Equal(t, "a", stopped[0].(EventCyclingStopped).LastEntry.ID)
	assert.True(t, a.detached)
	assert.Zero(t, h.clock.pending(), "stop disarms the timer")

	a.ev.(*controller).timerExpired()
	a.ev.OnNaturalEnd()
	a.ev.OnLoadError(errDecode)
	h.clock.Advance(time.Minute)

	assert.False(t, h.sched.Active())
	assert.Empty(t, h.events.of(MediaChanged))
	assert.Empty(t, h.events.of(CyclingError))

	h.sched.Stop()
	assert.Len(t, h.events.of(CyclingStopped), 1, "stop is a no-op when inactive")
}

func TestLoadFailureAdvancesAfterDelay(t *testing.T) {
	h := newHarness(media.NewLibrary(image("a"), image("b")), twoSeconds, nil)
	require.NoError(t, h.sched.Start())

	h.surface.last().ev.OnLoadError(errDecode)

	errs := h.events.of(CyclingError)
	require.Len(t, errs, 1)
	var loadErr *MediaLoadError
	require.ErrorAs(t, errs[0].(EventCyclingError).Err, &loadErr)
	assert.Equal(t, "a", loadErr.EntryID)
	assert.ErrorIs(t, loadErr, errDecode)

	h.clock.Advance(MinTransitionDelay - time.Millisecond)
	assert.Empty(t, h.events.of(MediaChanged))

	h.clock.Advance(time.Millisecond)
	changed := h.events.of(MediaChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "b", changed[0].(EventMediaChanged).Current.ID)
	assert.True(t, h.sched.Active())
}

func TestAttachFailureAdvancesAfterDelay(t *testing.T) {
	h := newHarness(media.NewLibrary(video("a"), image("b")), twoSeconds, nil)
	h.surface.failOn["a"] = errDecode

	require.NoError(t, h.sched.Start())
	require.Len(t, h.events.of(CyclingError), 1)

	h.clock.Advance(MinTransitionDelay)
	changed := h.events.of(MediaChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "b", changed[0].(EventMediaChanged).Current.ID)
}

func TestStopFromErrorHandlerDuringStart(t *testing.T) {
	h := newHarness(media.NewLibrary(video("a"), image("b")), twoSeconds, nil)
	h.surface.failOn["a"] = errDecode
	h.sched.Subscribe(CyclingError, func(Event) { h.sched.Stop() })

	err := h.sched.Start()
	require.ErrorIs(t, err, ErrStartInterrupted)
	assert.False(t, h.sched.Active())
	assert.Empty(t, h.events.of(CyclingStarted))
	assert.Len(t, h.events.of(CyclingStopped), 1)
	assert.Zero(t, h.clock.pending(), "retry timer cancelled by stop")

	h.clock.Advance(time.Second)
	assert.Empty(t, h.events.of(MediaChanged))
}

func TestSkip(t *testing.T) {
	h := newHarness(media.NewLibrary(image("a"), video("b")), twoSeconds, nil)

	h.sched.Skip()
	assert.Empty(t, h.events.events, "skip is a no-op when inactive")

	require.NoError(t, h.sched.Start())
	h.surface.last().ev.OnLoaded()
	require.Equal(t, 1, h.clock.pending())

	h.sched.Skip()
	changed := h.events.of(MediaChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "b", changed[0].(EventMediaChanged).Current.ID)
	assert.Zero(t, h.clock.pending(), "image timer cancelled")
}

func TestPoolChanges(t *testing.T) {
	t.Run("empty pool stops", func(t *testing.T) {
		lib := media.NewLibrary(image("a"))
		h := newHarness(lib, twoSeconds, nil)
		require.NoError(t, h.sched.Start())

		h.sched.OnPoolChanged(nil)
		assert.False(t, h.sched.Active())
		assert.Len(t, h.events.of(CyclingStopped), 1)
	})

	t.Run("non-empty pool auto-starts", func(t *testing.T) {
		lib := media.NewLibrary()
		h := newHarness(lib, twoSeconds, nil)
		require.ErrorIs(t, h.sched.Start(), ErrNoUsableMedia)

		lib.Add(image("a"))
		h.sched.OnPoolChanged(lib.List())
		assert.True(t, h.sched.Active())
		assert.Len(t, h.events.of(CyclingStarted), 1)
	})

	t.Run("auto-play off", func(t *testing.T) {
		lib := media.NewLibrary(image("a"))
		h := newHarness(lib, twoSeconds, nil)
		h.sched.SetAutoPlay(false)

		h.sched.OnPoolChanged(lib.List())
		assert.False(t, h.sched.Active())
	})

	t.Run("cycling continues untouched", func(t *testing.T) {
		lib := media.NewLibrary(image("a"))
		h := newHarness(lib, twoSeconds, nil)
		require.NoError(t, h.sched.Start())
		h.surface.last().ev.OnLoaded()

		lib.Replace([]media.Entry{image("b"), image("c")})
		h.sched.OnPoolChanged(lib.List())

		cur, ok := h.sched.Current()
		require.True(t, ok)
		assert.Equal(t, "a", cur.ID)
		assert.Len(t, h.surface.elements, 1)

		h.clock.Advance(2 * time.Second)
		changed := h.events.of(MediaChanged)
		require.Len(t, changed, 1)
		assert.Equal(t, "b", changed[0].(EventMediaChanged).Current.ID)
	})
}

func TestPanicsAreContained(t *testing.T) {
	t.Run("selection", func(t *testing.T) {
		h := newHarness(panicPool{}, twoSeconds, nil)

		err := h.sched.Start()
		require.ErrorIs(t, err, ErrNoUsableMedia)
		assert.False(t, h.sched.Active())
		assert.Len(t, h.events.of(CyclingError), 1)
	})

	t.Run("display during advance", func(t *testing.T) {
		h := newHarness(media.NewLibrary(image("a"), image("b")), twoSeconds, nil)
		h.surface.panicOn["b"] = true
		require.NoError(t, h.sched.Start())

		h.sched.Skip()
		assert.False(t, h.sched.Active())
		assert.Len(t, h.events.of(CyclingError), 1)
		assert.Len(t, h.events.of(CyclingStopped), 1)
	})

	t.Run("event handler", func(t *testing.T) {
		h := newHarness(media.NewLibrary(image("a")), twoSeconds, nil)
		h.sched.Subscribe(CyclingStarted, func(Event) { panic("listener bug") })

		require.NoError(t, h.sched.Start())
		assert.True(t, h.sched.Active())
	})
}

func TestUnsubscribe(t *testing.T) {
	h := newHarness(media.NewLibrary(image("a")), twoSeconds, nil)
	calls := 0
	unsubscribe := h.sched.Subscribe(CyclingStopped, func(Event) { calls++ })

	require.NoError(t, h.sched.Start())
	h.sched.Stop()
	unsubscribe()
	require.NoError(t, h.sched.Start())
	h.sched.Stop()

	assert.Equal(t, 1, calls)
}

func TestMediaLoadErrorMessage(t *testing.T) {
	err := &MediaLoadError{EntryID: "id", Name: "clip.mp4", Err: errors.New("boom")}
	assert.Contains(t, err.Error(), "clip.mp4")
	assert.ErrorIs(t, err, err.Err)
}
