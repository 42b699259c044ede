// Package input turns polled key and button state into single presses.
package input

// Tracker reports a key only on the frame it goes down. K is whatever the
// caller polls by: an SDL scancode, a mouse button mask.
type Tracker[K comparable] struct {
	pressed map[K]bool
}

// NewTracker creates an empty tracker.
func NewTracker[K comparable]() *Tracker[K] {
	return &Tracker[K]{pressed: make(map[K]bool)}
}

// Edge records the current state of key and returns true only if it is down
// now and was up the last time it was checked.
func (t *Tracker[K]) Edge(key K, down bool) bool {
	was := t.pressed[key]
	t.pressed[key] = down
	return down && !was
}

// KeyState wraps a keyboard state array (sdl.GetKeyboardState) so scancodes
// can be checked through a Tracker.
type KeyState[K ~int | ~uint32] struct {
	State   []uint8
	Tracker *Tracker[K]
}

// Pressed reports a fresh press of scancode.
func (k KeyState[K]) Pressed(scancode K) bool {
	i := int(scancode)
	down := i >= 0 && i < len(k.State) && k.State[i] != 0
	return k.Tracker.Edge(scancode, down)
}

// Any reports whether any of scancodes was freshly pressed. Every scancode is
// checked so none of them keeps a stale state.
func (k KeyState[K]) Any(scancodes ...K) bool {
	hit := false
	for _, sc := range scancodes {
		if k.Pressed(sc) {
			hit = true
		}
	}
	return hit
}

// MaskTracker reports fresh presses of mouse buttons from a button bitmask
// (sdl.GetMouseState).
type MaskTracker struct {
	t *Tracker[uint32]
}

func NewMaskTracker() MaskTracker {
	return MaskTracker{t: NewTracker[uint32]()}
}

// Pressed reports whether mask went down in state since the last check.
func (m MaskTracker) Pressed(state, mask uint32) bool {
	return m.t.Edge(mask, state&mask != 0)
}
