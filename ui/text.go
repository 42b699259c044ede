package ui

import (
	"errors"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"
)

var ErrNoFont = errors.New("font not available")

// RenderText renders text at the specified position with the given font and color
func RenderText(renderer *sdl.Renderer, text string, x, y int32, color sdl.Color, font *ttf.Font) error {
	if font == nil {
		return ErrNoFont
	}
	if text == "" {
		return nil
	}

	surface, err := font.RenderUTF8Blended(text, color)
	if err != nil {
		return err
	}
	defer surface.Free()

	texture, err := renderer.CreateTextureFromSurface(surface)
	if err != nil {
		return err
	}
	defer texture.Destroy()

	dstRect := sdl.Rect{X: x, Y: y, W: surface.W, H: surface.H}
	return renderer.Copy(texture, nil, &dstRect)
}

// TextWidth measures text in font, zero when it cannot be measured.
func TextWidth(text string, font *ttf.Font) int32 {
	if font == nil || text == "" {
		return 0
	}
	w, _, err := font.SizeUTF8(text)
	if err != nil {
		return 0
	}
	return int32(w)
}

// RenderTextRight renders text so that it ends at x.
func RenderTextRight(renderer *sdl.Renderer, text string, x, y int32, color sdl.Color, font *ttf.Font) error {
	return RenderText(renderer, text, x-TextWidth(text, font), y, color, font)
}
