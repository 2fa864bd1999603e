// Package names tracks channel names while a channel group is materialized.
package names

// Tracker records names in insertion order and reports the ones that repeat.
//
// Duplicate names are legal in TDM documents; the tracker lets callers surface
// them as a warning instead of silently overwriting map entries.
type Tracker struct {
	seen       map[string]int // name → number of times tracked
	order      []string       // names in the order first tracked
	duplicates []string       // names in the order they first repeated
}

// NewTracker creates a new name tracker.
func NewTracker() *Tracker {
	return &Tracker{
		seen: make(map[string]int),
	}
}

// Track records name and reports whether it had been tracked before.
func (t *Tracker) Track(name string) bool {
	count := t.seen[name]
	t.seen[name] = count + 1

	switch count {
	case 0:
		t.order = append(t.order, name)
		return false
	case 1:
		t.duplicates = append(t.duplicates, name)
	}

	return true
}

// HasDuplicates returns true if any name was tracked more than once.
func (t *Tracker) HasDuplicates() bool {
	return len(t.duplicates) > 0
}

// Duplicates returns every repeated name once, in the order it first repeated.
func (t *Tracker) Duplicates() []string {
	return t.duplicates
}

// Occurrences returns how many times name was tracked.
func (t *Tracker) Occurrences(name string) int {
	return t.seen[name]
}

// Names returns the distinct tracked names in first-seen order.
func (t *Tracker) Names() []string {
	return t.order
}

// Count returns the number of distinct names.
func (t *Tracker) Count() int {
	return len(t.order)
}

// Reset clears all tracked names so the tracker can be reused.
func (t *Tracker) Reset() {
	clear(t.seen)
	t.order = t.order[:0]
	t.duplicates = t.duplicates[:0]
}
