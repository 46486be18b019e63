package registry

import "sync"

// SourceKind records whether a method signature was contributed by a
// class's own method list or by a protocol it conforms to.
type SourceKind int

const (
	SourceClass SourceKind = iota
	SourceProtocol
)

func (k SourceKind) String() string {
	if k == SourceProtocol {
		return "protocol"
	}
	return "class"
}

// MethodSignature is one selector's type encoding as contributed from a
// single source.
type MethodSignature struct {
	Source   SourceKind
	Encoding string
}

// MethodSignatureRegistry maps selector name to every signature seen for
// it across classes and protocols. Safe for concurrent use.
type MethodSignatureRegistry struct {
	mu  sync.Mutex
	sig map[string][]MethodSignature
}

// NewMethodSignatureRegistry returns an empty, ready-to-use registry.
func NewMethodSignatureRegistry() *MethodSignatureRegistry {
	return &MethodSignatureRegistry{sig: make(map[string][]MethodSignature)}
}

// Register records one more signature contribution for selector.
func (r *MethodSignatureRegistry) Register(selector string, source SourceKind, encoding string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sig[selector] = append(r.sig[selector], MethodSignature{Source: source, Encoding: encoding})
}

// Lookup returns the signature recorded for selector, preferring a
// protocol-sourced entry over a class-sourced one when both exist. Ties
// among same-source entries resolve to the first one registered.
func (r *MethodSignatureRegistry) Lookup(selector string) (MethodSignature, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.sig[selector]
	if len(entries) == 0 {
		return MethodSignature{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Source == SourceProtocol && best.Source != SourceProtocol {
			best = e
		}
	}
	return best, true
}

// All returns every signature contribution recorded for selector, in
// registration order.
func (r *MethodSignatureRegistry) All(selector string) []MethodSignature {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MethodSignature, len(r.sig[selector]))
	copy(out, r.sig[selector])
	return out
}
