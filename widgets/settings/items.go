package settings

import (
	"fmt"
	"math"
	"strconv"

	"vj-frame/pkg/settings"
)

var (
	DurationOptions = []float64{1, 2, 3, 4, 5, 8, 10, 15, 20, 30}
	SkipOptions     = []float64{0, 5, 10, 15, 30, 60, 120, 300}
	SpeedOptions    = []float64{0.25, 0.5, 0.75, 1, 1.5, 2, 3, 4}
)

// Main menu rows, in display order.
const (
	rowMinDuration = iota
	rowMaxDuration
	rowSkipStart
	rowSkipEnd
	rowAutoPlay
	rowSpeed
)

var submenus = map[int]MenuType{
	rowMinDuration: MinDurationMenu,
	rowMaxDuration: MaxDurationMenu,
	rowSkipStart:   SkipStartMenu,
	rowSkipEnd:     SkipEndMenu,
	rowSpeed:       SpeedMenu,
}

// BuildMainMenuItems creates the main settings menu items
func BuildMainMenuItems(s settings.Settings) []Item {
	autoPlay := "Off"
	if s.AutoPlay {
		autoPlay = "On"
	}
	return []Item{
		rowMinDuration: {Title: "Minimum duration", Value: seconds(s.Segment.MinDuration)},
		rowMaxDuration: {Title: "Maximum duration", Value: seconds(s.Segment.MaxDuration)},
		rowSkipStart:   {Title: "Skip start", Value: seconds(s.Segment.SkipStart) + " ignored at the start of each video"},
		rowSkipEnd:     {Title: "Skip end", Value: seconds(s.Segment.SkipEnd) + " ignored at the end of each video"},
		rowAutoPlay:    {Title: "Auto-play", Value: autoPlay},
		rowSpeed:       {Title: "Playback speed", Value: speed(s.PlaybackSpeed)},
	}
}

// SubmenuFor returns the option menu opened by a main menu row. ok is false
// for rows that act directly.
func SubmenuFor(row int) (MenuType, bool) {
	m, ok := submenus[row]
	return m, ok
}

// IsAutoPlayRow reports whether row toggles auto-play.
func IsAutoPlayRow(row int) bool { return row == rowAutoPlay }

// BuildOptionItems lists the choices of menu with the stored value checked.
func BuildOptionItems(menu MenuType, s settings.Settings) []Item {
	var (
		options []float64
		current float64
		label   = seconds
	)
	switch menu {
	case MinDurationMenu:
		options, current = DurationOptions, s.Segment.MinDuration
	case MaxDurationMenu:
		options, current = DurationOptions, s.Segment.MaxDuration
	case SkipStartMenu:
		options, current = SkipOptions, s.Segment.SkipStart
	case SkipEndMenu:
		options, current = SkipOptions, s.Segment.SkipEnd
	case SpeedMenu:
		options, current, label = SpeedOptions, s.PlaybackSpeed, speed
	default:
		return nil
	}

	const eps = 0.0001
	items := make([]Item, 0, len(options)+1)
	for _, opt := range options {
		isCurrent := math.Abs(opt-current) < eps
		title := label(opt)
		if isCurrent {
			title = "✓ " + title
		}
		items = append(items, Item{Title: title, Choice: opt, Current: isCurrent})
	}
	return append(items, Item{Title: "Back", Back: true})
}

// Apply stores v as the value edited by menu, clamped to the UI ranges.
// Moving one duration bound past the other drags the other one along.
func Apply(menu MenuType, v float64, s *settings.Settings) {
	seg := &s.Segment
	switch menu {
	case MinDurationMenu:
		seg.MinDuration = settings.DurationRange.Clamp(v)
		if seg.MaxDuration < seg.MinDuration {
			seg.MaxDuration = seg.MinDuration
		}
	case MaxDurationMenu:
		seg.MaxDuration = settings.DurationRange.Clamp(v)
		if seg.MinDuration > seg.MaxDuration {
			seg.MinDuration = seg.MaxDuration
		}
	case SkipStartMenu:
		seg.SkipStart = settings.SkipRange.Clamp(v)
	case SkipEndMenu:
		seg.SkipEnd = settings.SkipRange.Clamp(v)
	case SpeedMenu:
		s.PlaybackSpeed = settings.SpeedRange.Clamp(v)
	}
	*seg = seg.Clamp()
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "s"
}

func speed(v float64) string {
	return fmt.Sprintf("%gx", v)
}
