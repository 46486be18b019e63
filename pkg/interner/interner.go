// Package interner implements the process-wide string interner: a mapping
// from string content to a single canonical owned reference, so that every
// selector, class name, and type encoding that recurs across a large binary
// is stored once.
package interner

import "sync"

// Interner is safe for concurrent use by multiple goroutines. The zero
// value is ready to use.
type Interner struct {
	mu    sync.Mutex
	table map[string]string
}

// New returns a ready-to-use Interner. Passing a default instance to the
// driver, or constructing a fresh one per call, are both supported per the
// spec's "no implicit module-scope statics" design note.
func New() *Interner {
	return &Interner{table: make(map[string]string)}
}

// Intern returns the canonical string equal to s. Repeated calls with
// equal-content strings return the exact same underlying string value.
func (in *Interner) Intern(s string) string {
	if s == "" {
		return ""
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if canon, ok := in.table[s]; ok {
		return canon
	}
	in.table[s] = s
	return s
}

// Len reports how many distinct strings have been interned.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.table)
}
