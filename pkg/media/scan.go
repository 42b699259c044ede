package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes the name-based ids of scanned files.
var idNamespace = uuid.MustParse("6c1f3a52-8d8e-4b1e-9f0e-1c0a5be7d3a4")

// EntryID derives the stable id of a file from its absolute path, so a file
// keeps its id across rescans and restarts.
func EntryID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(idNamespace, []byte(abs)).String()
}

// NewFileEntry builds the entry for a supported file. ok is false when the
// extension is not one the player can show.
func NewFileEntry(path string) (Entry, bool) {
	kind, ok := KindFromPath(path)
	if !ok {
		return Entry{}, false
	}
	return Entry{
		ID:     EntryID(path),
		Kind:   kind,
		Name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Source: FileSource{Path: path},
	}, true
}

// ScanDirectory lists the supported files directly inside dir, sorted by
// file name. Hidden files and partially downloaded files are skipped.
func ScanDirectory(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read media dir %s: %w", dir, err)
	}

	sort.Slice(dirEntries, func(i, j int) bool { return dirEntries[i].Name() < dirEntries[j].Name() })

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, partialSuffix) {
			continue
		}
		if e, ok := NewFileEntry(filepath.Join(dir, name)); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
