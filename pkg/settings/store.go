package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// Store is the file-backed settings holder. Reads are served from memory.
type Store struct {
	path string

	mu       sync.RWMutex
	settings Settings
}

// Open loads path. A missing or malformed file yields defaults so the player
// keeps running; the returned error is only informational in that case and
// the Store is always usable.
func Open(path string) (*Store, error) {
	s, err := Load(path)
	return &Store{path: path, settings: s}, err
}

// Load reads the settings file. When it is missing or cannot be parsed the
// defaults are returned together with the reason.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("read settings: %w", err)
	}

	// Start from defaults so fields missing in an older file keep sane
	// values.
	s := Defaults()
	if err := json.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("parse settings %s: %w", path, err)
	}

	d := Defaults()
	if s.PlaybackSpeed == 0 {
		s.PlaybackSpeed = d.PlaybackSpeed
	}
	if s.Segment.MinDuration == 0 && s.Segment.MaxDuration == 0 {
		s.Segment.MinDuration = d.Segment.MinDuration
		s.Segment.MaxDuration = d.Segment.MaxDuration
	}
	return s, nil
}

// Save writes s atomically: a temp file in the same directory is renamed
// over the target.
func Save(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Current implements Provider.
func (s *Store) Current() Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Segment
}

// Settings returns a copy of everything.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update applies fn and persists the result. On a write error the in-memory
// value is still updated; the next successful Update persists it.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	next := s.settings
	fn(&next)
	s.settings = next
	s.mu.Unlock()

	return Save(s.path, next)
}
