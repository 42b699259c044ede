// Package media describes the media the player can cycle through and the
// pool that holds it.
package media

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind is the type of a media entry.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unknown"
	}
}

var extensions = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".bmp":  KindImage,
	".webp": KindImage,
	".mp4":  KindVideo,
	".m4v":  KindVideo,
	".mov":  KindVideo,
	".mkv":  KindVideo,
	".webm": KindVideo,
	".mpg":  KindVideo,
	".mpeg": KindVideo,
	".avi":  KindVideo,
}

// KindFromPath classifies a file by extension. ok is false for files the
// player cannot show.
func KindFromPath(path string) (Kind, bool) {
	k, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// Source is an opaque reference to the bytes of an entry. Only the
// rendering surface looks behind Locator.
type Source interface {
	Locator() string
	Available() bool
}

// FileSource is a file on local disk.
type FileSource struct {
	Path string
}

func (f FileSource) Locator() string { return f.Path }

// Available reports whether the file can still be opened.
func (f FileSource) Available() bool {
	if f.Path == "" {
		return false
	}
	info, err := os.Stat(f.Path)
	return err == nil && info.Mode().IsRegular()
}

// Entry is one piece of media available for cycling.
type Entry struct {
	ID     string
	Kind   Kind
	Name   string
	Source Source
	// Duration in seconds, 0 when unknown. Only videos ever know it, and
	// only after their metadata was read.
	Duration float64
}

// Usable reports whether the entry has a resolvable source.
func (e Entry) Usable() bool {
	return e.Source != nil && e.Source.Available()
}

// Pool is a read-only view of the available media.
type Pool interface {
	List() []Entry
}
