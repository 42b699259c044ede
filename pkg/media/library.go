package media

import (
	"slices"
	"sync"
)

// Library is the concurrency-safe Pool fed by the directory watcher and the
// S3 mirror. List always returns a copy.
type Library struct {
	mu      sync.RWMutex
	entries []Entry

	subMu  sync.Mutex
	nextID int
	subs   map[int]func([]Entry)
}

// NewLibrary creates a library holding entries.
func NewLibrary(entries ...Entry) *Library {
	return &Library{
		entries: slices.Clone(entries),
		subs:    make(map[int]func([]Entry)),
	}
}

// List returns a snapshot of the entries.
func (l *Library) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// Len returns the number of entries.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Lookup finds an entry by id.
func (l *Library) Lookup(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Replace swaps the whole content. Subscribers are only notified when the
// set of ids or their sources actually changed.
func (l *Library) Replace(entries []Entry) {
	l.mu.Lock()
	if sameEntries(l.entries, entries) {
		l.mu.Unlock()
		return
	}
	l.entries = slices.Clone(entries)
	snapshot := slices.Clone(l.entries)
	l.mu.Unlock()

	l.notify(snapshot)
}

// Add appends or updates an entry with the same id.
func (l *Library) Add(e Entry) {
	l.mu.Lock()
	idx := slices.IndexFunc(l.entries, func(x Entry) bool { return x.ID == e.ID })
	if idx >= 0 {
		l.entries[idx] = e
	} else {
		l.entries = append(l.entries, e)
	}
	snapshot := slices.Clone(l.entries)
	l.mu.Unlock()

	l.notify(snapshot)
}

// Remove drops the entry with id. It returns false if there was none.
func (l *Library) Remove(id string) bool {
	l.mu.Lock()
	idx := slices.IndexFunc(l.entries, func(x Entry) bool { return x.ID == id })
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.entries = slices.Delete(l.entries, idx, idx+1)
	snapshot := slices.Clone(l.entries)
	l.mu.Unlock()

	l.notify(snapshot)
	return true
}

// Subscribe registers fn for change notifications. fn runs on the goroutine
// that changed the library; callers that need a particular goroutine must
// hop themselves.
func (l *Library) Subscribe(fn func([]Entry)) (unsubscribe func()) {
	l.subMu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	l.subMu.Unlock()

	return func() {
		l.subMu.Lock()
		delete(l.subs, id)
		l.subMu.Unlock()
	}
}

func (l *Library) notify(snapshot []Entry) {
	l.subMu.Lock()
	fns := make([]func([]Entry), 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.subMu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(snapshot))
	}
}

func sameEntries(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Kind != b[i].Kind || locator(a[i]) != locator(b[i]) {
			return false
		}
	}
	return true
}

func locator(e Entry) string {
	if e.Source == nil {
		return ""
	}
	return e.Source.Locator()
}
