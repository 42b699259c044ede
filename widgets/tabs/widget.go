package tabs

import (
	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"

	"vj-frame/ui"
)

// Widget manages tab navigation UI
type Widget struct {
	activeTab TabID
}

func NewWidget() *Widget {
	return &Widget{activeTab: LibraryTab}
}

func (w *Widget) ActiveTab() TabID {
	return w.activeTab
}

// SetActiveTab ignores ids outside the tab set.
func (w *Widget) SetActiveTab(tab TabID) {
	if tab >= 0 && tab < tabCount {
		w.activeTab = tab
	}
}

// Switch moves direction tabs left or right, wrapping at both ends.
func (w *Widget) Switch(direction int) {
	next := (int(w.activeTab) + direction) % int(tabCount)
	if next < 0 {
		next += int(tabCount)
	}
	w.activeTab = TabID(next)
}

// Draw renders the tab bar
func (w *Widget) Draw(renderer *sdl.Renderer, x, y, width int32, font *ttf.Font) error {
	tabWidth := width / int32(tabCount)
	tabHeight := int32(60)

	for i := TabID(0); i < tabCount; i++ {
		tabX := x + int32(i)*tabWidth
		active := i == w.activeTab

		bg := sdl.Color{R: 30, G: 41, B: 59, A: 255}
		if active {
			bg = ui.Highlight
		}
		ui.DrawPanel(renderer, sdl.Rect{X: tabX, Y: y, W: tabWidth, H: tabHeight}, bg)

		if active {
			ui.DrawPanel(renderer, sdl.Rect{X: tabX + 20, Y: y + tabHeight - 4, W: tabWidth - 40, H: 4}, ui.Accent)
		}

		if font != nil {
			color := ui.Muted
			if active {
				color = ui.White
			}
			_ = ui.RenderText(renderer, i.String(), tabX+20, y+18, color, font)
		}
	}

	return nil
}
