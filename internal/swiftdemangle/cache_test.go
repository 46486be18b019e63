package swiftdemangle

import "testing"

func TestDemangleIdempotence(t *testing.T) {
	inputs := []string{
		"_$s16DemangleFixtures7CounterC5valueSivg",
		"not a mangled name at all",
		"_$sGARBAGE",
	}
	for _, in := range inputs {
		out, _, err := Demangle(in)
		if err != nil {
			t.Fatalf("Demangle(%q) returned error: %v", in, err)
		}
		if out == in {
			continue
		}
		out2, _, err := Demangle(out)
		if err != nil {
			t.Fatalf("Demangle(%q) (second pass) returned error: %v", out, err)
		}
		if out2 != out {
			t.Fatalf("demangle not idempotent: demangle(%q) = %q, demangle(%q) = %q", in, out, out, out2)
		}
	}
}

func TestDemangleRejectsPartialOutputFallsThroughToRaw(t *testing.T) {
	raw := "_$sNOTREAL_mangled_garbage_1234"
	out, _, err := Demangle(raw)
	if err != nil {
		t.Fatalf("Demangle returned error: %v", err)
	}
	if out != raw {
		t.Fatalf("expected fallthrough to raw input for unparseable name, got %q", out)
	}
}

func TestDemangleIsMemoized(t *testing.T) {
	symbol := "_$s16DemangleFixtures7CounterC5valueSivg"
	first, _, err := DemangleSymbolString(symbol)
	if err != nil {
		t.Fatalf("DemangleSymbolString failed: %v", err)
	}
	cached, ok := demangleCache.get("symbol:" + symbol)
	if !ok {
		t.Fatalf("expected cache hit after first demangle")
	}
	if cached != first {
		t.Fatalf("cached value %q does not match returned value %q", cached, first)
	}
}

func TestValidateDemangledRejectsUnbalancedBrackets(t *testing.T) {
	cases := map[string]bool{
		"Swift.Array<Swift.Int>":  true,
		"Swift.Array<Swift.Int":   false,
		"(Swift.Int, Swift.String)": true,
		"(Swift.Int, Swift.String": false,
		"":                        true,
	}
	for in, want := range cases {
		if got := validateDemangled(in); got != want {
			t.Fatalf("validateDemangled(%q) = %v, want %v", in, got, want)
		}
	}
}
