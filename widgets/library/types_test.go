package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vj-frame/pkg/media"
)

type stubSource bool

func (s stubSource) Locator() string { return "stub" }
func (s stubSource) Available() bool { return bool(s) }

func TestCardsFor(t *testing.T) {
	entries := []media.Entry{
		{ID: "a", Kind: media.KindImage, Name: "a.png", Source: stubSource(true)},
		{ID: "b", Kind: media.KindVideo, Name: "b.mp4", Source: stubSource(true), Duration: 75.4},
		{ID: "c", Kind: media.KindVideo, Name: "c.mp4", Source: stubSource(false)},
	}

	cards := CardsFor(entries, "a", []string{"a", "b"})
	require.Len(t, cards, 3)

	assert.True(t, cards[0].Playing)
	assert.False(t, cards[0].Recent, "the playing entry is not also recent")
	assert.Equal(t, "Image", cards[0].Description)

	assert.True(t, cards[1].Recent)
	assert.Equal(t, "Video 1:15", cards[1].Description)
	assert.Equal(t, videoColors[0], cards[1].ColorStart)

	assert.True(t, cards[2].Missing)
	assert.Equal(t, "Video (unavailable)", cards[2].Description)
	assert.Equal(t, missingColors[1], cards[2].ColorEnd)
}

func TestSelectionFollowsCardID(t *testing.T) {
	w := NewWidget()
	w.SetCards([]Card{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	w.MoveSelection(2)
	require.Equal(t, 2, w.Selected())

	w.SetCards([]Card{{ID: "c"}, {ID: "a"}})
	assert.Equal(t, 0, w.Selected())
}
