package root

import (
	"sync/atomic"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"vj-frame/pkg/input"
	"vj-frame/pkg/media"
	"vj-frame/pkg/settings"
	"vj-frame/screens/cycler"
	"vj-frame/ui"
	"vj-frame/widgets/library"
	settingswidget "vj-frame/widgets/settings"
	"vj-frame/widgets/status"
	"vj-frame/widgets/tabs"
)

// RootScreen owns the cycler and the overlays drawn on top of it.
type RootScreen struct {
	cycler  *cycler.CyclerScreen
	store   *settings.Store
	library *media.Library

	// SDL2 rendering
	window   *sdl.Window
	renderer *sdl.Renderer

	// UI components
	fonts          *ui.Fonts
	tabsWidget     *tabs.Widget
	libraryWidget  *library.Widget
	settingsWidget *settingswidget.Widget
	statusWidget   *status.Widget
	popupVisible   bool
	// lastMainRow is the main settings row a submenu was opened from.
	lastMainRow int
	// poolChanged is set from library callbacks, which run off the loop.
	poolChanged atomic.Bool

	// Input tracking
	keyState []uint8
	// Mouse button state bitmask from sdl.GetMouseState
	mouseButtons uint32
	keyTracker   *input.Tracker[sdl.Scancode]
	mouseTracker input.MaskTracker

	unsubscribe func()
	now         func() time.Time
}

// Options configure a RootScreen.
type Options struct {
	Cycler cycler.Options
	// FontPath is tried before the system fonts.
	FontPath string
}
