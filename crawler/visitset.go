package crawler

import "sync"

// VisitSet tracks canonical URLs already enqueued or completed in the
// current session (spec component C5). Session-scoped: a new VisitSet
// is created on every supervisor session reset.
type VisitSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisitSet returns an empty visit set.
func NewVisitSet() *VisitSet {
	return &VisitSet{seen: make(map[string]struct{})}
}

// Claim atomically inserts url and reports whether it was newly
// inserted. Exactly one caller across any number of concurrent workers
// observes true for a given canonical url in a session.
func (v *VisitSet) Claim(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.seen[url]; ok {
		return false
	}
	v.seen[url] = struct{}{}
	return true
}

// Len reports how many URLs have been claimed so far.
func (v *VisitSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
