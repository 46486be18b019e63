package swiftdemangle

import "testing"

// TestDemangleLegacyGenericAndCollectionForms exercises spec §8.2
// scenario 4's exact legacy-mangling vectors.
func TestDemangleLegacyGenericAndCollectionForms(t *testing.T) {
	cases := []struct {
		mangled string
		want    string
	}{
		{"_TtGC10ModuleName9ContainerSS_", "ModuleName.Container<String>"},
		{"_TtGC10ModuleName7PairMapSSSi_", "ModuleName.PairMap<String, Int>"},
		{"_TtSDySSSiG", "[String: Int]"},
		{"_TtSSSg", "String?"},
	}
	for _, c := range cases {
		got, err := DemangleLegacy(c.mangled)
		if err != nil {
			t.Fatalf("DemangleLegacy(%q) returned error: %v", c.mangled, err)
		}
		if got != c.want {
			t.Errorf("DemangleLegacy(%q) = %q, want %q", c.mangled, got, c.want)
		}
	}
}

func TestDemangleLegacyArrayAndSet(t *testing.T) {
	cases := []struct {
		mangled string
		want    string
	}{
		{"_TtSaySiG", "[Int]"},
		{"_TtShySSG", "Set<String>"},
		{"_TtSqySiG", "Int?"},
	}
	for _, c := range cases {
		got, err := DemangleLegacy(c.mangled)
		if err != nil {
			t.Fatalf("DemangleLegacy(%q) returned error: %v", c.mangled, err)
		}
		if got != c.want {
			t.Errorf("DemangleLegacy(%q) = %q, want %q", c.mangled, got, c.want)
		}
	}
}

func TestDemangleLegacyPlainAndNestedNominal(t *testing.T) {
	cases := []struct {
		mangled string
		want    string
	}{
		{"_TtC10ModuleName5Thing", "ModuleName.Thing"},
		{"_TtCC10ModuleName10OuterThing10InnerThing", "ModuleName.OuterThing.InnerThing"},
	}
	for _, c := range cases {
		got, err := DemangleLegacy(c.mangled)
		if err != nil {
			t.Fatalf("DemangleLegacy(%q) returned error: %v", c.mangled, err)
		}
		if got != c.want {
			t.Errorf("DemangleLegacy(%q) = %q, want %q", c.mangled, got, c.want)
		}
	}
}

func TestDemangleLegacyRejectsModernMangling(t *testing.T) {
	if _, err := DemangleLegacy("$sSi"); err == nil {
		t.Errorf("DemangleLegacy accepted a modern mangling without error")
	}
}

func TestDemangleLegacyRejectsMalformed(t *testing.T) {
	cases := []string{
		"_TtGC10ModuleName9Container", // unterminated generic arg list
		"_TtSDySSG",                   // dictionary missing second arg
		"_TtC99ModuleName5Thing",      // declared length overruns input
		"_Tf",                         // not a type mangling at all
	}
	for _, in := range cases {
		if _, err := DemangleLegacy(in); err == nil {
			t.Errorf("DemangleLegacy(%q) unexpectedly succeeded", in)
		}
	}
}

// TestDemangleRoutesLegacyThroughPublicAPI confirms the public Demangle
// entry point dispatches "_Tt..." input to the legacy path rather than
// the modern "$s" parser, and that demangling the result again leaves it
// unchanged.
func TestDemangleRoutesLegacyThroughPublicAPI(t *testing.T) {
	text, _, err := Demangle("_TtSSSg")
	if err != nil {
		t.Fatalf("Demangle returned error: %v", err)
	}
	if text != "String?" {
		t.Errorf("Demangle(%q) = %q, want %q", "_TtSSSg", text, "String?")
	}

	// Idempotence (spec §8.1): demangling the already-demangled output
	// returns it unchanged.
	again, _, err := Demangle(text)
	if err != nil {
		t.Fatalf("Demangle(%q) returned error: %v", text, err)
	}
	if again != text {
		t.Errorf("Demangle(%q) = %q, want %q (idempotence)", text, again, text)
	}
}
