package playback

import "vj-frame/pkg/media"

// Surface shows media. Attach must not call into ev before returning; the
// events are delivered later on the scheduler's goroutine.
type Surface interface {
	Attach(entry media.Entry, ev MediaEvents) (Element, error)
	Detach(el Element)
}

// Element is one attached entry.
type Element interface {
	// Seek asks for a new position in seconds. Completion is reported
	// through MediaEvents.OnSeekSettled with the position that was reached.
	Seek(seconds float64) error
	Play() error
}

// MediaEvents is what a surface reports about an attached element.
type MediaEvents interface {
	// OnLoaded reports that the content decoded and can be shown.
	OnLoaded()
	// OnMetadataReady reports the duration of a video in seconds.
	OnMetadataReady(duration float64)
	OnSeekSettled(position float64)
	OnPositionAdvanced(position float64)
	// OnNaturalEnd reports that a video reached its physical end.
	OnNaturalEnd()
	OnLoadError(err error)
}
