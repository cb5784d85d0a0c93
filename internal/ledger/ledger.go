// Package ledger records which photos have already been mirrored.
//
// A ledger is an append-only list of strings (photo identifiers or uploaded
// filenames). It is read once when a batch starts and rewritten wholesale
// when the batch finishes.
package ledger

import "slices"

// Ledger is the in-memory view of the recorded entries.
// It is not safe for concurrent use.
type Ledger struct {
	entries []string
	index   map[string]struct{}
}

// New returns a ledger holding entries in the given order.
func New(entries []string) *Ledger {
	l := &Ledger{
		entries: make([]string, 0, len(entries)),
		index:   make(map[string]struct{}, len(entries)),
	}
	l.Append(entries...)
	return l
}

// Has reports whether entry has been recorded.
func (l *Ledger) Has(entry string) bool {
	_, ok := l.index[entry]
	return ok
}

// Append records entries after the existing ones. Duplicates are kept.
func (l *Ledger) Append(entries ...string) {
	for _, e := range entries {
		l.entries = append(l.entries, e)
		l.index[e] = struct{}{}
	}
}

// Entries returns a copy of the recorded entries in insertion order.
func (l *Ledger) Entries() []string {
	return slices.Clone(l.entries)
}

func (l *Ledger) Len() int {
	return len(l.entries)
}
