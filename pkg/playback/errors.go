package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrNoUsableMedia is returned by Start when the pool holds nothing that
	// can be shown.
	ErrNoUsableMedia = errors.New("playback: no usable media")

	// ErrStartInterrupted is returned by Start when an event handler stopped
	// cycling before the first entry was shown.
	ErrStartInterrupted = errors.New("playback: start interrupted")

	// ErrSegmentCalculation marks a segment calculation that failed and was
	// replaced by the fallback timer.
	ErrSegmentCalculation = errors.New("playback: segment calculation failed")
)

// MediaLoadError is a per-entry failure. Cycling continues with the next
// entry.
type MediaLoadError struct {
	EntryID string
	Name    string
	Err     error
}

func (e *MediaLoadError) Error() string {
	return fmt.Sprintf("playback: load %s (%s): %v", e.Name, e.EntryID, e.Err)
}

func (e *MediaLoadError) Unwrap() error { return e.Err }

// panicError wraps a recovered panic value.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("recovered panic: %w", err)
	}
	return fmt.Errorf("recovered panic: %v", v)
}
