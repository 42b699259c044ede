package library

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"

	"vj-frame/ui"
)

const (
	cardHeight  = int32(90)
	cardSpacing = int32(16)
	cardsPerRow = int32(2)
)

// Widget lists the media pool as cards.
type Widget struct {
	cards    []Card
	selected int
	firstRow int
}

func NewWidget() *Widget {
	return &Widget{}
}

// SetCards replaces the cards, keeping the selection on the same entry when
// it is still present.
func (w *Widget) SetCards(cards []Card) {
	var selectedID string
	if w.selected < len(w.cards) {
		selectedID = w.cards[w.selected].ID
	}
	w.cards = cards
	w.selected = 0
	for i, c := range cards {
		if c.ID == selectedID {
			w.selected = i
			break
		}
	}
}

func (w *Widget) Cards() []Card {
	return w.cards
}

func (w *Widget) Selected() int {
	return w.selected
}

// MoveSelection moves selection by delta cards with wrapping
func (w *Widget) MoveSelection(delta int) {
	if len(w.cards) == 0 {
		return
	}

	w.selected += delta
	if w.selected < 0 {
		w.selected = len(w.cards) - 1
	} else if w.selected >= len(w.cards) {
		w.selected = 0
	}
}

// Draw renders the library tab
func (w *Widget) Draw(renderer *sdl.Renderer, x, y, width, height int32, largeFont, mediumFont, smallFont *ttf.Font) error {
	_ = ui.RenderText(renderer, "Library", x+40, y+20, ui.White, largeFont)

	playable := 0
	for _, c := range w.cards {
		if !c.Missing {
			playable++
		}
	}
	summary := fmt.Sprintf("%d entries, %d playable", len(w.cards), playable)
	if len(w.cards) == 0 {
		summary = "No media found. Add images or videos to the media folder."
	}
	_ = ui.RenderText(renderer, summary, x+40, y+60, ui.Muted, smallFont)

	startY := y + 100
	cardWidth := (width - 80 - cardSpacing) / cardsPerRow
	visibleRows := max(int((y+height-startY)/(cardHeight+cardSpacing)), 1)

	// Scroll so the selected card stays on screen.
	selectedRow := w.selected / int(cardsPerRow)
	if selectedRow < w.firstRow {
		w.firstRow = selectedRow
	} else if selectedRow >= w.firstRow+visibleRows {
		w.firstRow = selectedRow - visibleRows + 1
	}

	for i, card := range w.cards {
		row := int32(i)/cardsPerRow - int32(w.firstRow)
		col := int32(i) % cardsPerRow
		if row < 0 {
			continue
		}
		if int(row) >= visibleRows {
			break
		}

		cardX := x + 40 + col*(cardWidth+cardSpacing)
		cardY := startY + row*(cardHeight+cardSpacing)
		DrawCard(renderer, card, cardX, cardY, cardWidth, cardHeight, i == w.selected, mediumFont, smallFont)
	}

	return nil
}
