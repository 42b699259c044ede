package ui

import "github.com/veandco/go-sdl2/sdl"

// Palette shared by the overlays.
var (
	White     = sdl.Color{R: 255, G: 255, B: 255, A: 255}
	Muted     = sdl.Color{R: 148, G: 163, B: 184, A: 255}
	Hint      = sdl.Color{R: 156, G: 163, B: 175, A: 255}
	Success   = sdl.Color{R: 34, G: 197, B: 94, A: 255}
	Warning   = sdl.Color{R: 250, G: 204, B: 21, A: 255}
	Danger    = sdl.Color{R: 239, G: 68, B: 68, A: 255}
	Highlight = sdl.Color{R: 51, G: 65, B: 85, A: 255}
	Accent    = sdl.Color{R: 59, G: 130, B: 246, A: 255}
)

// DrawPanel fills rect with color, blending when color is translucent.
func DrawPanel(renderer *sdl.Renderer, rect sdl.Rect, color sdl.Color) {
	if color.A < 255 {
		renderer.SetDrawBlendMode(sdl.BLENDMODE_BLEND)
	}
	renderer.SetDrawColor(color.R, color.G, color.B, color.A)
	renderer.FillRect(&rect)
}

// DrawBorder outlines rect with a border of thickness pixels drawn outward.
func DrawBorder(renderer *sdl.Renderer, rect sdl.Rect, color sdl.Color, thickness int32) {
	renderer.SetDrawColor(color.R, color.G, color.B, color.A)
	for i := int32(0); i < thickness; i++ {
		renderer.DrawRect(&sdl.Rect{X: rect.X - i, Y: rect.Y - i, W: rect.W + 2*i, H: rect.H + 2*i})
	}
}
