package library

import (
	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"

	"vj-frame/ui"
)

// DrawCard renders a single entry card with gradient
func DrawCard(renderer *sdl.Renderer, card Card, x, y, width, height int32, selected bool, titleFont, smallFont *ttf.Font) {
	ui.DrawGradientRect(renderer, x, y, width, height, card.ColorStart, card.ColorEnd)

	if selected {
		ui.DrawBorder(renderer, sdl.Rect{X: x, Y: y, W: width, H: height}, ui.White, 3)
	}

	_ = ui.RenderText(renderer, card.Title, x+20, y+12, ui.White, titleFont)
	_ = ui.RenderText(renderer, card.Description, x+20, y+height-32, sdl.Color{R: 255, G: 255, B: 255, A: 200}, smallFont)

	switch {
	case card.Playing:
		_ = ui.RenderTextRight(renderer, "NOW", x+width-16, y+12, ui.Success, smallFont)
	case card.Recent:
		_ = ui.RenderTextRight(renderer, "recent", x+width-16, y+12, ui.Muted, smallFont)
	}
}
