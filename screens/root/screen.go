package root

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"vj-frame/pkg/input"
	"vj-frame/pkg/logging"
	"vj-frame/pkg/media"
	"vj-frame/pkg/settings"
	"vj-frame/screens/cycler"
	"vj-frame/ui"
	"vj-frame/widgets/library"
	settingswidget "vj-frame/widgets/settings"
	"vj-frame/widgets/status"
	"vj-frame/widgets/tabs"
)

// NewRootScreen creates the root screen and starts cycling when auto-play
// is on.
func NewRootScreen(window *sdl.Window, renderer *sdl.Renderer, store *settings.Store, lib *media.Library, opts Options) *RootScreen {
	current := store.Settings()
	opts.Cycler.Playback.AutoPlay = current.AutoPlay
	opts.Cycler.PlaybackRate = current.PlaybackSpeed

	rs := &RootScreen{
		cycler:         cycler.NewCyclerScreen(renderer, lib, store, opts.Cycler),
		store:          store,
		library:        lib,
		window:         window,
		renderer:       renderer,
		tabsWidget:     tabs.NewWidget(),
		libraryWidget:  library.NewWidget(),
		settingsWidget: settingswidget.NewWidget(),
		statusWidget:   status.NewWidget(),
		keyTracker:     input.NewTracker[sdl.Scancode](),
		mouseTracker:   input.NewMaskTracker(),
		now:            time.Now,
	}

	fonts, err := ui.LoadFonts(opts.FontPath)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to load fonts, overlays disabled")
	}
	rs.fonts = fonts

	rs.unsubscribe = lib.Subscribe(func([]media.Entry) { rs.poolChanged.Store(true) })

	if current.AutoPlay {
		if err := rs.cycler.Start(); err != nil {
			logging.Warn().Err(err).Msg("Could not start cycling")
			rs.statusWidget.Notify(err.Error(), true, rs.now())
		}
	}
	return rs
}

// Update handles SDL2 input and updates screen state
func (rs *RootScreen) Update() error {
	rs.keyState = sdl.GetKeyboardState()
	_, _, rs.mouseButtons = sdl.GetMouseState()
	now := rs.now()

	keys := rs.pollKeys()
	// The cycler acts on its own keys only on frames that started with the
	// popup hidden.
	interactive := !rs.popupVisible
	if rs.popupVisible {
		rs.handleUIInput(keys)
	} else {
		rs.handleMainInput(keys)
	}
	err := rs.cycler.Update(rs.keyState, interactive)

	for _, e := range rs.cycler.TakeErrors() {
		rs.statusWidget.Notify(e.Error(), true, now)
	}
	entry, ok, plan := rs.cycler.NowPlaying()
	rs.statusWidget.Update(entry, ok, plan, now)

	if rs.poolChanged.Swap(false) && rs.popupVisible {
		rs.refreshLibrary()
	}
	return err
}

// frameKeys holds the fresh presses of one frame.
type frameKeys struct {
	up, down, left, right bool
	activate              bool
	escape, menu          bool
}

// pollKeys checks every key the popup uses on every frame, so a key held
// across opening or closing the popup is not replayed as a new press.
func (rs *RootScreen) pollKeys() frameKeys {
	keys := input.KeyState[sdl.Scancode]{State: rs.keyState, Tracker: rs.keyTracker}
	k := frameKeys{
		up:       keys.Pressed(sdl.SCANCODE_UP),
		down:     keys.Pressed(sdl.SCANCODE_DOWN),
		left:     keys.Pressed(sdl.SCANCODE_LEFT),
		right:    keys.Pressed(sdl.SCANCODE_RIGHT),
		activate: keys.Any(sdl.SCANCODE_RETURN, sdl.SCANCODE_SPACE),
		escape:   keys.Pressed(sdl.SCANCODE_ESCAPE),
		menu:     keys.Pressed(sdl.SCANCODE_M),
	}
	left := rs.mouseTracker.Pressed(rs.mouseButtons, sdl.ButtonLMask())
	right := rs.mouseTracker.Pressed(rs.mouseButtons, sdl.ButtonRMask())
	k.activate = k.activate || left || right
	return k
}

// handleUIInput processes input when the popup is visible
func (rs *RootScreen) handleUIInput(k frameKeys) {
	if k.down {
		rs.moveSelection(1)
	}
	if k.up {
		rs.moveSelection(-1)
	}

	// Left/Right arrow navigation - switch between tabs
	if k.left {
		rs.switchTab(-1)
	}
	if k.right {
		rs.switchTab(1)
	}

	if k.activate {
		rs.activateSelection()
	}

	switch {
	case k.escape && rs.tabsWidget.ActiveTab() == tabs.SettingsTab && rs.settingsWidget.CurrentMenu() != settingswidget.MainMenu:
		rs.openSettingsMain(-1)
	case k.escape, k.menu:
		rs.hideUI()
	}
}

// handleMainInput processes input when no popup is visible. Skip and
// start/stop keys belong to the cycler.
func (rs *RootScreen) handleMainInput(k frameKeys) {
	if k.down || k.escape || k.menu {
		rs.showUI()
	}
}

func (rs *RootScreen) moveSelection(delta int) {
	switch rs.tabsWidget.ActiveTab() {
	case tabs.LibraryTab:
		rs.libraryWidget.MoveSelection(delta)
	case tabs.SettingsTab:
		rs.settingsWidget.MoveSelection(delta)
	}
}

func (rs *RootScreen) switchTab(direction int) {
	rs.tabsWidget.Switch(direction)
	if rs.tabsWidget.ActiveTab() == tabs.SettingsTab {
		rs.openSettingsMain(0)
	}
}

// Draw renders the complete frame using SDL2
func (rs *RootScreen) Draw() error {
	w, h := rs.window.GetSize()
	now := rs.now()

	rs.renderer.SetDrawColor(0, 0, 0, 255)
	rs.renderer.Clear()

	if err := rs.cycler.Draw(rs.renderer, w, h); err != nil {
		return err
	}

	if rs.popupVisible {
		if err := rs.drawUI(w, h); err != nil {
			return err
		}
	} else {
		rs.drawIdleHint(w, h)
	}
	rs.statusWidget.Draw(rs.renderer, w, h, rs.fonts, now, false)

	rs.renderer.Present()
	return nil
}

// drawIdleHint tells the operator how to get going when nothing is showing.
func (rs *RootScreen) drawIdleHint(screenWidth, screenHeight int32) {
	if rs.cycler.Active() || rs.fonts == nil {
		return
	}
	msg := "Paused. Space to start, Esc for the menu"
	if rs.library.Len() == 0 {
		msg = "Waiting for media..."
	}
	x := (screenWidth - ui.TextWidth(msg, rs.fonts.Medium)) / 2
	_ = ui.RenderText(rs.renderer, msg, x, screenHeight/2, ui.Muted, rs.fonts.Medium)
}

// drawUI renders the popup overlay
func (rs *RootScreen) drawUI(screenWidth, screenHeight int32) error {
	if rs.fonts == nil {
		return nil
	}

	ui.DrawPanel(rs.renderer, sdl.Rect{X: 0, Y: 0, W: screenWidth, H: screenHeight}, sdl.Color{R: 15, G: 23, B: 42, A: 220})

	uiWidth := int32(float64(screenWidth) * 0.8)
	uiHeight := int32(float64(screenHeight) * 0.8)
	uiX := (screenWidth - uiWidth) / 2
	uiY := (screenHeight - uiHeight) / 2

	ui.DrawPanel(rs.renderer, sdl.Rect{X: uiX, Y: uiY, W: uiWidth, H: uiHeight}, sdl.Color{R: 30, G: 41, B: 59, A: 255})

	if err := rs.tabsWidget.Draw(rs.renderer, uiX, uiY, uiWidth, rs.fonts.Medium); err != nil {
		return err
	}

	contentY := uiY + 80
	contentHeight := uiHeight - 120

	var err error
	switch rs.tabsWidget.ActiveTab() {
	case tabs.LibraryTab:
		err = rs.libraryWidget.Draw(rs.renderer, uiX, contentY, uiWidth, contentHeight, rs.fonts.Large, rs.fonts.Medium, rs.fonts.Small)
	case tabs.SettingsTab:
		err = rs.settingsWidget.Draw(rs.renderer, uiX, contentY, uiWidth, contentHeight, rs.fonts.Large, rs.fonts.Medium, rs.fonts.Small)
	case tabs.CloseTab:
		err = settingswidget.DrawCloseTab(rs.renderer, uiX, contentY, uiWidth, contentHeight, rs.fonts.Medium)
	}
	if err != nil {
		return err
	}

	_ = ui.RenderText(rs.renderer, "Up/Down Navigate | Left/Right Switch Tabs | Enter Select | ESC Back", uiX+20, uiY+uiHeight-30, ui.Hint, rs.fonts.Small)
	return nil
}

// showUI displays the popup with current data
func (rs *RootScreen) showUI() {
	rs.refreshLibrary()
	rs.openSettingsMain(0)
	rs.tabsWidget.SetActiveTab(tabs.LibraryTab)
	rs.popupVisible = true
}

func (rs *RootScreen) refreshLibrary() {
	entry, _, _ := rs.cycler.NowPlaying()
	rs.libraryWidget.SetCards(library.CardsFor(rs.library.List(), entry.ID, rs.cycler.History()))
}

// openSettingsMain shows the main settings menu with the cursor on row, or
// on the current row when row is negative.
func (rs *RootScreen) openSettingsMain(row int) {
	if row < 0 {
		row = rs.settingsWidget.Selected()
		if rs.settingsWidget.CurrentMenu() != settingswidget.MainMenu {
			row = rs.lastMainRow
		}
	}
	rs.settingsWidget.OpenMain(settingswidget.BuildMainMenuItems(rs.store.Settings()), row)
}

// activateSelection handles selection activation in the popup
func (rs *RootScreen) activateSelection() {
	switch rs.tabsWidget.ActiveTab() {
	case tabs.LibraryTab:
		rs.hideUI()
	case tabs.SettingsTab:
		rs.handleSettingsSelection()
	case tabs.CloseTab:
		rs.hideUI()
	}
}

func (rs *RootScreen) handleSettingsSelection() {
	menu := rs.settingsWidget.CurrentMenu()
	if menu == settingswidget.MainMenu {
		rs.handleMainMenuSelection(rs.settingsWidget.Selected())
		return
	}

	item := rs.settingsWidget.SelectedItem()
	if item.Back {
		rs.openSettingsMain(-1)
		return
	}
	rs.saveSettings(func(s *settings.Settings) {
		settingswidget.Apply(menu, item.Choice, s)
	})
	rs.settingsWidget.SetItems(settingswidget.BuildOptionItems(menu, rs.store.Settings()))
}

func (rs *RootScreen) handleMainMenuSelection(row int) {
	rs.lastMainRow = row
	if settingswidget.IsAutoPlayRow(row) {
		rs.saveSettings(func(s *settings.Settings) { s.AutoPlay = !s.AutoPlay })
		rs.settingsWidget.SetItems(settingswidget.BuildMainMenuItems(rs.store.Settings()))
		return
	}
	if menu, ok := settingswidget.SubmenuFor(row); ok {
		rs.settingsWidget.OpenMenu(menu, settingswidget.BuildOptionItems(menu, rs.store.Settings()))
	}
}

// saveSettings applies fn, persists it and pushes the result to playback.
// The change takes effect even when it cannot be written.
func (rs *RootScreen) saveSettings(fn func(*settings.Settings)) {
	err := rs.store.Update(fn)
	rs.cycler.ApplySettings(rs.store.Settings())
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to save settings")
		rs.settingsWidget.SetErrorMessage("Error: setting applied but not saved")
		return
	}
	rs.settingsWidget.SetStatusMessage("✓ Saved")
}

// hideUI hides the popup
func (rs *RootScreen) hideUI() {
	rs.popupVisible = false
	rs.settingsWidget.ClearStatusMessage()
}

// Close cleans up resources
func (rs *RootScreen) Close() {
	if rs.unsubscribe != nil {
		rs.unsubscribe()
	}
	rs.cycler.Close()
	rs.fonts.Close()
}

// Cycling reports whether media is being cycled.
func (rs *RootScreen) Cycling() bool { return rs.cycler.Active() }
