package machoerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{New(KindInvalidInput, "header", 0, errors.New("bad magic")), 1},
		{New(KindRangeOutOfBounds, "segment", 0x1000, errors.New("oob")), 2},
		{New(KindCancelled, "", 0, errors.New("cancelled")), 3},
		{New(KindUnresolvedReference, "", 0, errors.New("x")), 64},
		{fmt.Errorf("wrapped: %w", New(KindInvalidInput, "", 0, errors.New("y"))), 1},
	}
	for _, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Errorf("ExitCode(%v) = %d; want %d", tc.err, got, tc.want)
		}
	}
}

func TestFatalClassification(t *testing.T) {
	fatal := []Kind{KindInvalidInput, KindCancelled}
	recoverable := []Kind{KindRangeOutOfBounds, KindInconsistentMetadata, KindUnresolvedReference, KindPartialDemangle, KindDelegateFailure}
	for _, k := range fatal {
		if !k.Fatal() {
			t.Errorf("%v.Fatal() = false; want true", k)
		}
	}
	for _, k := range recoverable {
		if k.Fatal() {
			t.Errorf("%v.Fatal() = true; want false", k)
		}
	}
}

func TestErrorMessagePrefixedBySection(t *testing.T) {
	err := New(KindUnresolvedReference, "__objc_classlist", 0xdead, errors.New("missing import"))
	want := "__objc_classlist[0xdead]: unresolved-reference: missing import"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q; want %q", got, want)
	}
}
