package settings

// Item represents a settings menu item
type Item struct {
	Title string
	Value string
	// Choice is the value an option item applies.
	Choice float64
	// Current marks the option matching the stored value.
	Current bool
	Back    bool
}

// MenuType represents the type of settings menu being displayed
type MenuType string

const (
	MainMenu        MenuType = "main"
	MinDurationMenu MenuType = "min_duration"
	MaxDurationMenu MenuType = "max_duration"
	SkipStartMenu   MenuType = "skip_start"
	SkipEndMenu     MenuType = "skip_end"
	SpeedMenu       MenuType = "speed"
)
