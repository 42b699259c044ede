package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vj-frame/pkg/settings"
)

func TestApplyDragsOtherDurationBound(t *testing.T) {
	s := settings.Defaults() // 2..8

	Apply(MinDurationMenu, 10, &s)
	assert.Equal(t, 10.0, s.Segment.MinDuration)
	assert.Equal(t, 10.0, s.Segment.MaxDuration)

	Apply(MaxDurationMenu, 3, &s)
	assert.Equal(t, 3.0, s.Segment.MinDuration)
	assert.Equal(t, 3.0, s.Segment.MaxDuration)
}

func TestApplyClampsToRanges(t *testing.T) {
	s := settings.Defaults()

	Apply(SkipStartMenu, 1000, &s)
	Apply(SkipEndMenu, -5, &s)
	Apply(SpeedMenu, 10, &s)
	Apply(MaxDurationMenu, 0, &s)

	assert.Equal(t, 300.0, s.Segment.SkipStart)
	assert.Equal(t, 0.0, s.Segment.SkipEnd)
	assert.Equal(t, 4.0, s.PlaybackSpeed)
	assert.Equal(t, 1.0, s.Segment.MaxDuration)
	assert.Equal(t, 1.0, s.Segment.MinDuration)
}

func TestBuildOptionItemsChecksCurrent(t *testing.T) {
	s := settings.Defaults()

	items := BuildOptionItems(MaxDurationMenu, s)
	require.Len(t, items, len(DurationOptions)+1)
	assert.True(t, items[len(items)-1].Back)

	var checked []Item
	for _, it := range items {
		if it.Current {
			checked = append(checked, it)
		}
	}
	require.Len(t, checked, 1)
	assert.Equal(t, 8.0, checked[0].Choice)
	assert.Equal(t, "✓ 8s", checked[0].Title)

	assert.Nil(t, BuildOptionItems(MainMenu, s))
}

func TestMainMenuRows(t *testing.T) {
	items := BuildMainMenuItems(settings.Defaults())
	require.Len(t, items, 6)

	for row := range items {
		_, hasSubmenu := SubmenuFor(row)
		assert.NotEqual(t, hasSubmenu, IsAutoPlayRow(row), "row %d", row)
	}
	assert.Equal(t, "On", items[rowAutoPlay].Value)
	assert.Equal(t, "1x", items[rowSpeed].Value)
}
