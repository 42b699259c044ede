package settings

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadMalformedFileGivesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o644))

	s, err := Load(p)
	assert.Error(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadPartialFileKeepsDefaultsForMissingFields(t *testing.T) {
	p := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"segment":{"skipStart":4}}`), 0o644))

	s, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 4.0, s.Segment.SkipStart)
	assert.Equal(t, Defaults().Segment.MinDuration, s.Segment.MinDuration)
	assert.Equal(t, Defaults().Segment.MaxDuration, s.Segment.MaxDuration)
	assert.Equal(t, 1.0, s.PlaybackSpeed)
	assert.True(t, s.AutoPlay)
}

func TestStoreUpdatePersists(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "settings.json")
	st, err := Open(p)
	require.NoError(t, err)

	require.NoError(t, st.Update(func(s *Settings) {
		s.Segment = Segment{MinDuration: 10, MaxDuration: 2, SkipStart: 1, SkipEnd: 3}
		s.AutoPlay = false
	}))
	assert.Equal(t, 10.0, st.Current().MinDuration)

	reopened, err := Open(p)
	require.NoError(t, err)
	assert.Equal(t, st.Settings(), reopened.Settings())
	assert.False(t, reopened.Settings().AutoPlay)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(p), ".settings-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files are cleaned up")
}

func TestSegmentClamp(t *testing.T) {
	got := Segment{MinDuration: 0, MaxDuration: 99, SkipStart: -5, SkipEnd: math.NaN()}.Clamp()
	assert.Equal(t, Segment{MinDuration: 1, MaxDuration: 30, SkipStart: 0, SkipEnd: 0}, got)

	inverted := Segment{MinDuration: 10, MaxDuration: 2}.Clamp()
	assert.Equal(t, 10.0, inverted.MinDuration)
	assert.Equal(t, 2.0, inverted.MaxDuration)
}
