// Package status draws the now-playing overlay.
package status

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"vj-frame/pkg/media"
	"vj-frame/pkg/segment"
	"vj-frame/ui"
)

const (
	defaultVisibleFor = 4 * time.Second
	noticeVisibleFor  = 6 * time.Second
)

// Widget shows the displayed entry for a few seconds after every change,
// plus notices about fallbacks and errors.
type Widget struct {
	VisibleFor time.Duration

	entryID  string
	title    string
	detail   string
	fallback segment.Fallback
	shownAt  time.Time

	notice      string
	noticeError bool
	noticeAt    time.Time
}

func NewWidget() *Widget {
	return &Widget{VisibleFor: defaultVisibleFor}
}

// Update refreshes the overlay from what is on screen. A new entry restarts
// the visibility window; a segment plan arriving later for the same entry
// only updates the text.
func (w *Widget) Update(entry media.Entry, ok bool, plan segment.Parameters, now time.Time) {
	if !ok {
		w.entryID = ""
		return
	}
	if entry.ID != w.entryID {
		w.entryID = entry.ID
		w.shownAt = now
		w.fallback = segment.FallbackNone
	}
	w.title = entry.Name
	w.detail = describe(entry, plan)

	if plan.Fallback != segment.FallbackNone && plan.Fallback != w.fallback {
		w.fallback = plan.Fallback
		w.Notify(fallbackNotice(plan.Fallback), false, now)
	}
}

// Notify shows message for a while. Errors are drawn in red.
func (w *Widget) Notify(message string, isError bool, now time.Time) {
	w.notice = message
	w.noticeError = isError
	w.noticeAt = now
}

// Visible reports whether anything would be drawn at now.
func (w *Widget) Visible(now time.Time) bool {
	return w.entryVisible(now) || w.noticeVisible(now)
}

func (w *Widget) entryVisible(now time.Time) bool {
	return w.entryID != "" && now.Sub(w.shownAt) < w.VisibleFor
}

func (w *Widget) noticeVisible(now time.Time) bool {
	return w.notice != "" && now.Sub(w.noticeAt) < noticeVisibleFor
}

func describe(entry media.Entry, plan segment.Parameters) string {
	if entry.Kind != media.KindVideo || plan.Duration <= 0 {
		return entry.Kind.String()
	}
	return fmt.Sprintf("video  %.1fs - %.1fs", plan.Start, plan.End())
}

func fallbackNotice(f segment.Fallback) string {
	switch f {
	case segment.FallbackSkipBounds:
		return "Skip start/end leave nothing of this video, showing it from the start"
	case segment.FallbackDuration:
		return "Video shorter than the minimum duration, showing all of it"
	default:
		return "Segment settings do not fit this video, using defaults"
	}
}

// Draw renders the overlay in the bottom-left corner. force keeps the entry
// panel on screen regardless of age, used while the menu is open.
func (w *Widget) Draw(renderer *sdl.Renderer, screenWidth, screenHeight int32, fonts *ui.Fonts, now time.Time, force bool) {
	if fonts == nil {
		return
	}
	y := screenHeight - 40

	if w.noticeVisible(now) {
		color := ui.Warning
		if w.noticeError {
			color = ui.Danger
		}
		width := ui.TextWidth(w.notice, fonts.Small) + 40
		y -= 44
		ui.DrawPanel(renderer, sdl.Rect{X: 30, Y: y, W: min(width, screenWidth-60), H: 36}, sdl.Color{R: 15, G: 23, B: 42, A: 200})
		_ = ui.RenderText(renderer, w.notice, 50, y+8, color, fonts.Small)
	}

	if w.entryID == "" || !(force || w.entryVisible(now)) {
		return
	}
	width := max(ui.TextWidth(w.title, fonts.Medium), ui.TextWidth(w.detail, fonts.Small)) + 40
	y -= 84
	ui.DrawPanel(renderer, sdl.Rect{X: 30, Y: y, W: min(width, screenWidth-60), H: 76}, sdl.Color{R: 15, G: 23, B: 42, A: 200})
	_ = ui.RenderText(renderer, w.title, 50, y+10, ui.White, fonts.Medium)
	_ = ui.RenderText(renderer, w.detail, 50, y+44, ui.Muted, fonts.Small)
}
