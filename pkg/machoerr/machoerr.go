// Package machoerr defines the error-kind taxonomy used across the
// extractor so that every sub-component classifies failures the same way,
// and maps them to the driver's recovery policy and exit codes.
package machoerr

import "fmt"

// Kind is a category of failure, not a concrete type: every component wraps
// its errors in one of these seven kinds so the driver can decide whether to
// abort the slice, skip a section, or fall back silently.
type Kind int

const (
	// KindInvalidInput covers magic mismatches, corrupt fat tables, and
	// truncated headers. Fatal for the slice being parsed.
	KindInvalidInput Kind = iota
	// KindRangeOutOfBounds covers a computed offset or length that falls
	// outside the byte source. Fatal locally; recovered at the next
	// section boundary.
	KindRangeOutOfBounds
	// KindInconsistentMetadata covers a declared count that doesn't match
	// what actually fits. Logged; the parser consumes what fits and stops.
	KindInconsistentMetadata
	// KindUnresolvedReference covers a chained bind with no matching
	// import, or a symbolic reference outside the image. Non-fatal.
	KindUnresolvedReference
	// KindPartialDemangle covers a demangle result the validator rejected.
	// Non-fatal; the raw mangled name is returned instead.
	KindPartialDemangle
	// KindCancelled covers cooperative cancellation observed mid-pipeline.
	// Fatal; no partial result is emitted.
	KindCancelled
	// KindDelegateFailure covers an external demangler that was
	// unavailable or crashed. Non-fatal; falls back to the built-in
	// demangler.
	KindDelegateFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid-input"
	case KindRangeOutOfBounds:
		return "range-error"
	case KindInconsistentMetadata:
		return "inconsistent-metadata"
	case KindUnresolvedReference:
		return "unresolved-reference"
	case KindPartialDemangle:
		return "partial-demangle"
	case KindCancelled:
		return "cancelled"
	case KindDelegateFailure:
		return "delegate-failure"
	default:
		return "internal"
	}
}

// Error pairs a Kind with the section/address it occurred at, so recovered
// errors can be logged with a useful prefix per spec §7 ("stderr lines are
// one per recovered error, prefixed by the offending section/address").
type Error struct {
	Kind    Kind
	Section string
	Addr    uint64
	Err     error
}

func (e *Error) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("%s[%#x]: %s: %v", e.Section, e.Addr, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error for the given kind, section and wrapped error.
func New(kind Kind, section string, addr uint64, err error) *Error {
	return &Error{Kind: kind, Section: section, Addr: addr, Err: err}
}

// Fatal reports whether errors of this kind abort the whole slice (true) or
// can be recovered at the next section/entry boundary (false).
func (k Kind) Fatal() bool {
	switch k {
	case KindInvalidInput, KindCancelled:
		return true
	default:
		return false
	}
}

// ExitCode maps a returned error to the process exit codes named in spec §7.
// Exposed as a pure function: exit-code handling itself belongs to the CLI,
// which is out of scope for this module.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var me *Error
	if as(err, &me) {
		switch me.Kind {
		case KindInvalidInput:
			return 1
		case KindRangeOutOfBounds:
			return 2
		case KindCancelled:
			return 3
		}
	}
	return 64
}

func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
