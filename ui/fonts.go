// Package ui holds the SDL drawing helpers shared by screens and widgets.
package ui

import (
	"errors"
	"fmt"

	"github.com/veandco/go-sdl2/ttf"
)

// DefaultFontPaths are tried in order after any caller-supplied path.
var DefaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
}

// Fonts manages a set of TrueType fonts at different sizes
type Fonts struct {
	Large  *ttf.Font // 32px for titles
	Medium *ttf.Font // 24px for tabs and menu items
	Small  *ttf.Font // 18px for values, hints and the status overlay
}

// LoadFonts opens the first usable font of paths followed by
// DefaultFontPaths at the three sizes. A set with some sizes missing is
// still returned; every helper tolerates nil fonts.
func LoadFonts(paths ...string) (*Fonts, error) {
	if err := ttf.Init(); err != nil {
		return nil, fmt.Errorf("initialize TTF: %w", err)
	}

	candidates := append(append([]string{}, paths...), DefaultFontPaths...)
	fonts := &Fonts{
		Large:  openFirst(candidates, 32),
		Medium: openFirst(candidates, 24),
		Small:  openFirst(candidates, 18),
	}
	if fonts.Large == nil && fonts.Medium == nil && fonts.Small == nil {
		return fonts, errors.New("no usable font found")
	}
	return fonts, nil
}

func openFirst(paths []string, size int) *ttf.Font {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if f, err := ttf.OpenFont(path, size); err == nil {
			return f
		}
	}
	return nil
}

// Close cleans up font resources
func (f *Fonts) Close() {
	if f == nil {
		return
	}
	for _, font := range []*ttf.Font{f.Large, f.Medium, f.Small} {
		if font != nil {
			font.Close()
		}
	}
	ttf.Quit()
}
