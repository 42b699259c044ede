package settings

import (
	"strings"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"

	"vj-frame/ui"
)

// Widget manages settings display and navigation
type Widget struct {
	items         []Item
	selected      int
	currentMenu   MenuType
	statusMessage string
	statusError   bool
}

func NewWidget() *Widget {
	return &Widget{currentMenu: MainMenu}
}

// SetItems updates the settings items, keeping the selection when it is
// still in range.
func (w *Widget) SetItems(items []Item) {
	w.items = items
	if w.selected >= len(items) {
		w.selected = 0
	}
}

func (w *Widget) Items() []Item {
	return w.items
}

func (w *Widget) Selected() int {
	return w.selected
}

func (w *Widget) SelectedItem() Item {
	if w.selected >= 0 && w.selected < len(w.items) {
		return w.items[w.selected]
	}
	return Item{}
}

func (w *Widget) CurrentMenu() MenuType {
	return w.currentMenu
}

// OpenMenu switches to menu with items, selecting the checked option if any.
func (w *Widget) OpenMenu(menu MenuType, items []Item) {
	w.currentMenu = menu
	w.items = items
	w.selected = 0
	for i, it := range items {
		if it.Current {
			w.selected = i
			break
		}
	}
	w.statusMessage = ""
}

// OpenMain returns to the main menu with the cursor on row.
func (w *Widget) OpenMain(items []Item, row int) {
	w.OpenMenu(MainMenu, items)
	if row >= 0 && row < len(items) {
		w.selected = row
	}
}

func (w *Widget) SetStatusMessage(message string) {
	w.statusMessage = message
	w.statusError = false
}

func (w *Widget) SetErrorMessage(message string) {
	w.statusMessage = message
	w.statusError = true
}

func (w *Widget) ClearStatusMessage() {
	w.statusMessage = ""
}

// MoveSelection moves selection up or down with wrapping
func (w *Widget) MoveSelection(delta int) {
	if len(w.items) == 0 {
		return
	}

	w.selected += delta
	if w.selected < 0 {
		w.selected = len(w.items) - 1
	} else if w.selected >= len(w.items) {
		w.selected = 0
	}
}

func menuTitle(m MenuType) string {
	switch m {
	case MinDurationMenu:
		return "Minimum duration"
	case MaxDurationMenu:
		return "Maximum duration"
	case SkipStartMenu:
		return "Skip start"
	case SkipEndMenu:
		return "Skip end"
	case SpeedMenu:
		return "Playback speed"
	default:
		return "Segment settings"
	}
}

// Draw renders the settings tab
func (w *Widget) Draw(renderer *sdl.Renderer, x, y, width, height int32, largeFont, mediumFont, smallFont *ttf.Font) error {
	_ = ui.RenderText(renderer, menuTitle(w.currentMenu), x+40, y+20, ui.White, largeFont)

	itemsStartY := y + 80
	if w.statusMessage != "" {
		color := ui.Success
		if w.statusError {
			color = ui.Danger
		}
		_ = ui.RenderText(renderer, w.statusMessage, x+40, y+60, color, smallFont)
		itemsStartY = y + 100
	}

	// Option lists are single-line rows, the main menu shows values below titles.
	itemHeight := int32(60)
	if w.currentMenu != MainMenu {
		itemHeight = 44
	}

	// Scroll so the selection stays visible.
	visible := max(int((y+height-itemsStartY)/itemHeight), 1)
	first := 0
	if w.selected >= visible {
		first = w.selected - visible + 1
	}

	for i := first; i < len(w.items) && i-first < visible; i++ {
		item := w.items[i]
		itemY := itemsStartY + int32(i-first)*itemHeight

		if i == w.selected {
			ui.DrawPanel(renderer, sdl.Rect{X: x + 20, Y: itemY, W: width - 40, H: itemHeight}, ui.Highlight)
		}

		color := ui.White
		if item.Back {
			color = ui.Muted
		}
		_ = ui.RenderText(renderer, item.Title, x+40, itemY+10, color, mediumFont)

		if item.Value != "" {
			value, detail, _ := strings.Cut(item.Value, " ")
			_ = ui.RenderTextRight(renderer, value, x+width-40, itemY+10, ui.Accent, mediumFont)
			if detail != "" {
				_ = ui.RenderText(renderer, detail, x+40, itemY+36, ui.Muted, smallFont)
			}
		}
	}

	return nil
}

// DrawCloseTab renders the close tab content
func DrawCloseTab(renderer *sdl.Renderer, x, y, width, height int32, mediumFont *ttf.Font) error {
	_ = ui.RenderText(renderer, "Close", x+40, y+20, ui.White, mediumFont)

	itemY := y + 80
	ui.DrawPanel(renderer, sdl.Rect{X: x + 20, Y: itemY, W: width - 40, H: 60}, ui.Highlight)
	_ = ui.RenderText(renderer, "Press confirm to close", x+40, itemY+20, ui.White, mediumFont)

	return nil
}
