package library

import (
	"fmt"
	"time"

	"vj-frame/pkg/media"
)

// Card is one pool entry as shown in the library tab.
type Card struct {
	ID          string
	Title       string
	Description string
	ColorStart  [3]uint8 // RGB start color for gradient
	ColorEnd    [3]uint8 // RGB end color for gradient
	Playing     bool
	Recent      bool
	Missing     bool
}

var (
	imageColors   = [2][3]uint8{{20, 184, 166}, {15, 118, 110}}
	videoColors   = [2][3]uint8{{156, 39, 176}, {74, 20, 140}}
	missingColors = [2][3]uint8{{71, 85, 105}, {51, 65, 85}}
)

// CardsFor builds cards for entries. current is the displayed id, recent
// the selection history.
func CardsFor(entries []media.Entry, current string, recent []string) []Card {
	seen := make(map[string]bool, len(recent))
	for _, id := range recent {
		seen[id] = true
	}

	cards := make([]Card, len(entries))
	for i, e := range entries {
		colors := imageColors
		desc := "Image"
		if e.Kind == media.KindVideo {
			colors = videoColors
			desc = "Video"
			if e.Duration > 0 {
				desc = "Video " + formatDuration(e.Duration)
			}
		}
		missing := !e.Usable()
		if missing {
			colors = missingColors
			desc += " (unavailable)"
		}
		cards[i] = Card{
			ID:          e.ID,
			Title:       e.Name,
			Description: desc,
			ColorStart:  colors[0],
			ColorEnd:    colors[1],
			Playing:     e.ID == current,
			Recent:      seen[e.ID] && e.ID != current,
			Missing:     missing,
		}
	}
	return cards
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
