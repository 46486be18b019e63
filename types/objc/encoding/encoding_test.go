package encoding

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"v",
		"@",
		"#",
		":",
		"c",
		"d",
		"*",
		`@"NSString"`,
		"@?",
		"^v",
		"^^i",
		"[12f]",
		"{CGPoint=dd}",
		"{CGRect={CGPoint=dd}{CGSize=dd}}",
		`{CGPoint="x"d"y"d}`,
		"{OpaqueStruct}",
		"(MyUnion=ci)",
		"b4",
		"rc",
		"n@",
		`r^{CGRect={CGPoint=dd}{CGSize=dd}}`,
	}
	for _, in := range cases {
		node, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", in, err)
		}
		out := Encode(node)
		if out != in {
			t.Fatalf("round trip mismatch: Parse(%q) -> Encode() = %q", in, out)
		}
	}
}

// TestParseIsDeterministic asserts that parsing the same encoding twice
// yields structurally identical ASTs (spec §8.1's round-trip property
// restated at the AST level, not just through Encode): cmp.Diff gives a
// field-by-field failure message instead of an opaque DeepEqual bool.
func TestParseIsDeterministic(t *testing.T) {
	cases := []string{
		"@",
		"^v",
		"[12f]",
		"{CGPoint=dd}",
		"{CGRect={CGPoint=dd}{CGSize=dd}}",
		`{CGPoint="x"d"y"d}`,
		"(MyUnion=ci)",
		"b4",
		"rc",
		`r^{CGRect={CGPoint=dd}{CGSize=dd}}`,
	}
	for _, in := range cases {
		first, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", in, err)
		}
		second, err := Parse(in)
		if err != nil {
			t.Fatalf("second Parse(%q) failed: %v", in, err)
		}
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("Parse(%q) not deterministic (-first +second):\n%s", in, diff)
		}
	}
}

// TestParseStructMembersMatchEncoding checks that the member list parsed
// from a struct encoding has the exact names and nested types the source
// string declares, using cmp.Diff against a hand-built expectation so a
// member-ordering or type-mismatch regression shows exactly which field
// diverged.
func TestParseStructMembersMatchEncoding(t *testing.T) {
	node, err := Parse(`{CGPoint="x"d"y"d}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []Member{
		{Name: "x", Type: &Node{Kind: KindDouble}},
		{Name: "y", Type: &Node{Kind: KindDouble}},
	}
	if diff := cmp.Diff(want, node.Members); diff != "" {
		t.Errorf("struct members mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"^",
		"[5",
		"{CGPoint=dd",
		"@\"unterminated",
		"x", // unrecognized code
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q) unexpectedly succeeded", in)
		}
	}
}

func TestForwardDeclarationHasNilMembers(t *testing.T) {
	n, err := Parse("{CGPoint}")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !n.IsForwardDeclaration() {
		t.Fatalf("expected forward declaration, got Members=%v", n.Members)
	}
}

func TestDescribeCNestedPointer(t *testing.T) {
	n, err := Parse(`@"NSArray"`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got, want := DescribeC(n), "NSArray *"; got != want {
		t.Fatalf("DescribeC = %q, want %q", got, want)
	}

	ptr, err := Parse("^d")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got, want := DescribeC(ptr), "double *"; got != want {
		t.Fatalf("DescribeC = %q, want %q", got, want)
	}
}

func TestParsePrefixStopsAtFirstType(t *testing.T) {
	n, consumed, err := ParsePrefix("@24@0:8")
	if err != nil {
		t.Fatalf("ParsePrefix failed: %v", err)
	}
	if n.Kind != KindID {
		t.Fatalf("expected id, got %v", n.Kind)
	}
	if consumed != 1 {
		t.Fatalf("consumed = %d, want 1", consumed)
	}
}
