package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	loc string
	ok  bool
}

func (s stubSource) Locator() string { return s.loc }
func (s stubSource) Available() bool { return s.ok }

func entry(id string, kind Kind) Entry {
	return Entry{ID: id, Kind: kind, Name: id, Source: stubSource{loc: id, ok: true}}
}

func TestKindFromPath(t *testing.T) {
	tests := []struct {
		path string
		kind Kind
		ok   bool
	}{
		{"a/b/clip.MP4", KindVideo, true},
		{"loop.webm", KindVideo, true},
		{"still.jpeg", KindImage, true},
		{"still.PNG", KindImage, true},
		{"notes.txt", 0, false},
		{"noext", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			kind, ok := KindFromPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.kind, kind)
			}
		})
	}
}

func TestEntryUsable(t *testing.T) {
	assert.False(t, Entry{ID: "x"}.Usable())
	assert.False(t, Entry{ID: "x", Source: stubSource{ok: false}}.Usable())
	assert.True(t, entry("x", KindImage).Usable())

	dir := t.TempDir()
	p := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(p, []byte("png"), 0o644))
	e, ok := NewFileEntry(p)
	require.True(t, ok)
	assert.True(t, e.Usable())

	require.NoError(t, os.Remove(p))
	assert.False(t, e.Usable(), "deleted file must stop being usable")
}

func TestLibraryListIsSnapshot(t *testing.T) {
	lib := NewLibrary(entry("a", KindImage))
	list := lib.List()
	list[0].ID = "mutated"

	got, ok := lib.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
}

func TestLibraryNotifiesOnlyOnChange(t *testing.T) {
	lib := NewLibrary()
	var calls [][]Entry
	unsubscribe := lib.Subscribe(func(entries []Entry) { calls = append(calls, entries) })

	lib.Replace([]Entry{entry("a", KindImage), entry("b", KindVideo)})
	lib.Replace([]Entry{entry("a", KindImage), entry("b", KindVideo)})
	require.Len(t, calls, 1)
	assert.Len(t, calls[0], 2)

	assert.True(t, lib.Remove("a"))
	assert.False(t, lib.Remove("a"))
	require.Len(t, calls, 2)
	assert.Len(t, calls[1], 1)

	lib.Add(entry("c", KindImage))
	require.Len(t, calls, 3)
	assert.Equal(t, 2, lib.Len())

	unsubscribe()
	lib.Add(entry("d", KindImage))
	assert.Len(t, calls, 3)
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.jpg", "readme.txt", ".hidden.png", "c.mov.part"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mp4"), 0o755))

	entries, err := ScanDirectory(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, KindImage, entries[0].Kind)
	assert.Equal(t, "b", entries[1].Name)
	assert.Equal(t, KindVideo, entries[1].Kind)

	again, err := ScanDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, entries[0].ID, again[0].ID, "ids are stable across scans")
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestScanDirectoryMissing(t *testing.T) {
	_, err := ScanDirectory(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestWatcherRescanReplacesLibrary(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary()
	w := NewWatcher(dir, lib, false)

	require.NoError(t, w.Rescan())
	assert.Equal(t, 0, lib.Len())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("x"), 0o644))
	require.NoError(t, w.Rescan())
	assert.Equal(t, 1, lib.Len())
}
