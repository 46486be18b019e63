package macho

import (
	"testing"

	"github.com/appsworld/machoscope/types/objc"
)

// TestReverseMethodsStability checks that reverseMethods produces the
// canonical (runtime) enumeration order from an on-disk-ordered input,
// and that reversing twice is the identity.
func TestReverseMethodsStability(t *testing.T) {
	onDisk := []objc.Method{
		{Name: "zebra"},
		{Name: "monkey"},
		{Name: "alpha"},
	}
	want := []string{"alpha", "monkey", "zebra"}

	got := append([]objc.Method(nil), onDisk...)
	reverseMethods(got)
	for i, m := range got {
		if m.Name != want[i] {
			t.Fatalf("reverseMethods()[%d] = %q, want %q", i, m.Name, want[i])
		}
	}

	reverseMethods(got)
	for i, m := range got {
		if m.Name != onDisk[i].Name {
			t.Fatalf("double reverse [%d] = %q, want original %q", i, m.Name, onDisk[i].Name)
		}
	}
}

func TestReverseMethodsEmptyAndSingle(t *testing.T) {
	var empty []objc.Method
	reverseMethods(empty) // must not panic

	single := []objc.Method{{Name: "only"}}
	reverseMethods(single)
	if single[0].Name != "only" {
		t.Fatalf("single-element reverse changed the element: %q", single[0].Name)
	}
}

// TestGetObjCCachesByAddress exercises the address->object cache
// contract: a class or protocol already parsed at a given vmaddr is
// returned by GetObjC without needing the original typed accessor.
func TestGetObjCCachesByAddress(t *testing.T) {
	f := &File{
		objc:       map[uint64]*objc.Class{0x1000: {Name: "Foo", ClassPtr: 0x1000}},
		protoCache: map[uint64]*objc.Protocol{0x2000: {Name: "FooProtocol", Ptr: 0x2000}},
	}

	if v, ok := f.GetObjC(0x1000); !ok {
		t.Fatalf("expected class at 0x1000 to be cached")
	} else if c, ok := v.(*objc.Class); !ok || c.Name != "Foo" {
		t.Fatalf("GetObjC(0x1000) = %#v, want class Foo", v)
	}

	if v, ok := f.GetObjC(0x2000); !ok {
		t.Fatalf("expected protocol at 0x2000 to be cached")
	} else if p, ok := v.(*objc.Protocol); !ok || p.Name != "FooProtocol" {
		t.Fatalf("GetObjC(0x2000) = %#v, want protocol FooProtocol", v)
	}

	if _, ok := f.GetObjC(0x3000); ok {
		t.Fatalf("expected no entry at 0x3000")
	}
}

// TestRebasePtrZeroIsZero checks the nil-pointer short circuit that every
// ivar/property/method decode relies on to distinguish "no value" from a
// real address needing translation.
func TestRebasePtrZeroIsZero(t *testing.T) {
	f := &File{}
	if got := f.rebasePtr(0); got != 0 {
		t.Fatalf("rebasePtr(0) = %#x, want 0", got)
	}
}

// TestRebasePtrPassthroughWithoutFixupsOrDSC checks that a raw value is
// returned unchanged when the image has neither chained fixups nor
// dyld_shared_cache mapping context to decode it against.
func TestRebasePtrPassthroughWithoutFixupsOrDSC(t *testing.T) {
	f := &File{}
	const raw = 0x1_0000_2000
	if got := f.rebasePtr(raw); got != raw {
		t.Fatalf("rebasePtr(%#x) = %#x, want unchanged", raw, got)
	}
}
