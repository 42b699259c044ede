package selector

// History is a bounded list of entry ids, most recent first.
type History struct {
	size int
	ids  []string
}

// NewHistory returns an empty History holding at most size ids.
func NewHistory(size int) *History {
	if size < 0 {
		size = 0
	}
	return &History{size: size, ids: make([]string, 0, size)}
}

// Push moves id to the front, dropping any earlier occurrence and anything
// beyond the size limit.
func (h *History) Push(id string) {
	next := make([]string, 0, h.size)
	if h.size > 0 {
		next = append(next, id)
	}
	for _, v := range h.ids {
		if len(next) == h.size {
			break
		}
		if v != id {
			next = append(next, v)
		}
	}
	h.ids = next
}

// IDs returns a copy, most recent first.
func (h *History) IDs() []string {
	out := make([]string, len(h.ids))
	copy(out, h.ids)
	return out
}

// Contains reports whether id is among the recent ids.
func (h *History) Contains(id string) bool {
	return contains(h.ids, id)
}

// Len returns how many ids are held.
func (h *History) Len() int { return len(h.ids) }

// Reset forgets every id.
func (h *History) Reset() { h.ids = h.ids[:0] }
