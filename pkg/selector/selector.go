// Package selector picks the next media entry, steering away from recently
// shown ones.
package selector

import (
	"math/rand/v2"

	"vj-frame/pkg/media"
)

// RecentHistorySize is how many recent entries are avoided.
const RecentHistorySize = 3

// Rand is the random source. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Selector chooses uniformly among usable entries.
type Selector struct {
	rng Rand
}

// New returns a Selector. A nil rng uses the process-wide source.
func New(rng Rand) *Selector {
	if rng == nil {
		rng = globalRand{}
	}
	return &Selector{rng: rng}
}

// Select returns the next entry from pool. Entries whose id is in recent are
// skipped unless that leaves nothing, in which case history is ignored. The
// second result is false only when no entry in pool is usable.
func (s *Selector) Select(pool []media.Entry, recent []string) (media.Entry, bool) {
	usable := make([]media.Entry, 0, len(pool))
	for _, e := range pool {
		if e.Usable() {
			usable = append(usable, e)
		}
	}

	switch len(usable) {
	case 0:
		return media.Entry{}, false
	case 1:
		return usable[0], true
	}

	candidates := make([]media.Entry, 0, len(usable))
	for _, e := range usable {
		if !contains(recent, e.ID) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		candidates = usable
	}

	return candidates[s.rng.IntN(len(candidates))], true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
