// Package render shows media entries on an SDL renderer and reports their
// lifecycle back to the playback scheduler.
package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/veandco/go-sdl2/img"
	"github.com/veandco/go-sdl2/sdl"

	"vj-frame/pkg/logging"
	"vj-frame/pkg/media"
	"vj-frame/pkg/mpeg"
	"vj-frame/pkg/playback"
)

// Surface implements playback.Surface. Media events are queued and delivered
// from Update, never from inside Attach or Seek. All methods must be called
// from the render goroutine.
type Surface struct {
	renderer *sdl.Renderer
	log      zerolog.Logger

	active *element
	queue  []func()
	rate   float64
}

func NewSurface(renderer *sdl.Renderer) *Surface {
	return &Surface{
		renderer: renderer,
		log:      logging.Component("render"),
		rate:     1.0,
	}
}

type element struct {
	s     *Surface
	entry media.Entry
	ev    playback.MediaEvents

	texture *sdl.Texture
	w, h    int32
	player  *mpeg.Player

	playing  bool
	ended    bool
	detached bool
}

// post queues an event for el, dropped if el is detached first.
func (s *Surface) post(el *element, fn func(ev playback.MediaEvents)) {
	s.queue = append(s.queue, func() {
		if !el.detached {
			fn(el.ev)
		}
	})
}

func (s *Surface) Attach(entry media.Entry, ev playback.MediaEvents) (playback.Element, error) {
	if entry.Source == nil {
		return nil, errors.New("render: entry has no source")
	}
	if s.active != nil {
		s.Detach(s.active)
	}

	el := &element{s: s, entry: entry, ev: ev}
	s.active = el
	path := entry.Source.Locator()

	switch entry.Kind {
	case media.KindImage:
		tex, err := img.LoadTexture(s.renderer, path)
		if err != nil {
			s.post(el, func(ev playback.MediaEvents) { ev.OnLoadError(fmt.Errorf("load image: %w", err)) })
			return el, nil
		}
		_, _, w, h, err := tex.Query()
		if err != nil {
			tex.Destroy()
			s.post(el, func(ev playback.MediaEvents) { ev.OnLoadError(fmt.Errorf("query image: %w", err)) })
			return el, nil
		}
		el.texture, el.w, el.h = tex, w, h
		s.post(el, func(ev playback.MediaEvents) { ev.OnLoaded() })

	case media.KindVideo:
		player, err := mpeg.Open(path)
		if err != nil {
			s.post(el, func(ev playback.MediaEvents) { ev.OnLoadError(err) })
			return el, nil
		}
		if err := player.SetRenderer(s.renderer); err != nil {
			player.Close()
			s.post(el, func(ev playback.MediaEvents) { ev.OnLoadError(err) })
			return el, nil
		}
		player.SetPlaybackRate(s.rate)
		el.player = player
		duration := player.Duration()
		s.post(el, func(ev playback.MediaEvents) { ev.OnLoaded() })
		s.post(el, func(ev playback.MediaEvents) { ev.OnMetadataReady(duration) })

	default:
		return nil, fmt.Errorf("render: unsupported kind %s", entry.Kind)
	}

	s.log.Debug().Str("entry", entry.ID).Str("path", path).Msg("Attached")
	return el, nil
}

func (s *Surface) Detach(pe playback.Element) {
	el, ok := pe.(*element)
	if !ok || el.detached {
		return
	}
	el.detached = true
	if el.texture != nil {
		el.texture.Destroy()
		el.texture = nil
	}
	if el.player != nil {
		el.player.Close()
		el.player = nil
	}
	if s.active == el {
		s.active = nil
	}
}

func (el *element) Seek(seconds float64) error {
	if el.detached {
		return errors.New("render: element detached")
	}
	if el.player == nil {
		el.s.post(el, func(ev playback.MediaEvents) { ev.OnSeekSettled(0) })
		return nil
	}
	landed, err := el.player.Seek(seconds)
	if err != nil {
		return err
	}
	el.s.post(el, func(ev playback.MediaEvents) { ev.OnSeekSettled(landed) })
	return nil
}

func (el *element) Play() error {
	if el.detached {
		return errors.New("render: element detached")
	}
	el.playing = true
	if el.player != nil {
		el.player.Play()
	}
	return nil
}

// SetPlaybackRate applies to the current video and the ones after it.
func (s *Surface) SetPlaybackRate(rate float64) {
	if rate <= 0 {
		return
	}
	s.rate = rate
	if s.active != nil && s.active.player != nil {
		s.active.player.SetPlaybackRate(rate)
	}
}

// Update delivers queued events, then advances the playing video.
func (s *Surface) Update() {
	pending := s.queue
	s.queue = nil
	for _, fn := range pending {
		fn()
	}

	el := s.active
	if el == nil || el.player == nil || !el.playing || el.ended {
		return
	}

	err := el.player.Update()
	switch {
	case errors.Is(err, io.EOF):
		el.ended = true
		el.ev.OnNaturalEnd()
	case err != nil:
		el.ended = true
		el.ev.OnLoadError(fmt.Errorf("decode: %w", err))
	default:
		el.ev.OnPositionAdvanced(el.player.Position())
	}
}

// Draw paints the active element letterboxed. Nothing is drawn between a
// detach and the next attach, so cuts never show two entries.
func (s *Surface) Draw(screenWidth, screenHeight int32) error {
	el := s.active
	if el == nil {
		return nil
	}
	if el.player != nil {
		return el.player.Draw(s.renderer, screenWidth, screenHeight)
	}
	if el.texture != nil {
		dst := mpeg.Letterbox(el.w, el.h, screenWidth, screenHeight)
		return s.renderer.Copy(el.texture, nil, &dst)
	}
	return nil
}

// Close releases the active element.
func (s *Surface) Close() {
	if s.active != nil {
		s.Detach(s.active)
	}
	s.queue = nil
}
