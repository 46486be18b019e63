package registry

import "testing"

func TestStructureRegistryPrePopulatesStandardTypedefs(t *testing.T) {
	r := NewStructureRegistry()
	cases := map[string]string{
		"CGFloat":    "double",
		"NSInteger":  "long",
		"NSUInteger": "unsigned long",
		"OSStatus":   "int",
		"BOOL":       "signed char",
	}
	for name, want := range cases {
		got, ok := r.Typedef(name)
		if !ok {
			t.Fatalf("Typedef(%q) not found", name)
		}
		if got != want {
			t.Fatalf("Typedef(%q) = %q, want %q", name, got, want)
		}
	}
	if _, ok := r.Typedef("NotATypedef"); ok {
		t.Fatalf("Typedef(NotATypedef) unexpectedly found")
	}
}

// TestReplacementRuleMoreNamedMembersWins is the structure-registry
// replacement-rule property: registering a fuller definition always
// replaces a shallower one, and a shallower one never displaces a fuller
// one already on file, regardless of registration order.
func TestReplacementRuleMoreNamedMembersWins(t *testing.T) {
	forward := StructRef(KindStruct, "CGPoint", nil)
	full := StructRef(KindStruct, "CGPoint", []Member{
		{Name: "x", Type: Scalar("d")},
		{Name: "y", Type: Scalar("d")},
	})

	t.Run("full then forward", func(t *testing.T) {
		r := NewStructureRegistry()
		r.Register(full)
		r.Register(forward)
		resolved := r.Resolve(StructRef(KindStruct, "CGPoint", nil))
		if len(resolved.Ref.Members) != 2 {
			t.Fatalf("forward declaration displaced full definition: %+v", resolved.Ref)
		}
	})

	t.Run("forward then full", func(t *testing.T) {
		r := NewStructureRegistry()
		r.Register(forward)
		r.Register(full)
		resolved := r.Resolve(StructRef(KindStruct, "CGPoint", nil))
		if len(resolved.Ref.Members) != 2 {
			t.Fatalf("full definition did not replace forward declaration: %+v", resolved.Ref)
		}
	})

	t.Run("partial then fuller", func(t *testing.T) {
		partial := StructRef(KindStruct, "CGPoint", []Member{{Name: "x", Type: Scalar("d")}})
		r := NewStructureRegistry()
		r.Register(partial)
		r.Register(full)
		resolved := r.Resolve(StructRef(KindStruct, "CGPoint", nil))
		if len(resolved.Ref.Members) != 2 {
			t.Fatalf("fuller definition did not win: %+v", resolved.Ref)
		}
	})
}

// TestForwardDeclaredStructResolution implements scenario 3: register
// CGRect{origin CGPoint; size CGSize}, CGPoint{x,y double}, and
// CGSize{width,height double}; then resolving a forward-declared
// CGPoint must return the full definition, while an unknown name passes
// through unchanged.
func TestForwardDeclaredStructResolution(t *testing.T) {
	r := NewStructureRegistry()

	cgPoint := StructRef(KindStruct, "CGPoint", []Member{
		{Name: "x", Type: Scalar("d")},
		{Name: "y", Type: Scalar("d")},
	})
	cgSize := StructRef(KindStruct, "CGSize", []Member{
		{Name: "width", Type: Scalar("d")},
		{Name: "height", Type: Scalar("d")},
	})
	cgRect := StructRef(KindStruct, "CGRect", []Member{
		{Name: "origin", Type: StructRef(KindStruct, "CGPoint", nil)},
		{Name: "size", Type: StructRef(KindStruct, "CGSize", nil)},
	})

	r.Register(cgRect)
	r.Register(cgPoint)
	r.Register(cgSize)

	resolved := r.Resolve(StructRef(KindStruct, "CGPoint", nil))
	if len(resolved.Ref.Members) != 2 || resolved.Ref.Members[0].Name != "x" {
		t.Fatalf("expected full CGPoint definition, got %+v", resolved.Ref)
	}

	resolvedRect := r.Resolve(StructRef(KindStruct, "CGRect", nil))
	origin := resolvedRect.Ref.Members[0].Type
	if len(origin.Ref.Members) != 2 {
		t.Fatalf("expected CGRect.origin to resolve transitively, got %+v", origin.Ref)
	}

	unknown := StructRef(KindStruct, "Unknown", nil)
	resolvedUnknown := r.Resolve(unknown)
	if len(resolvedUnknown.Ref.Members) != 0 || resolvedUnknown.Ref.Name != "Unknown" {
		t.Fatalf("expected unknown struct to pass through unchanged, got %+v", resolvedUnknown.Ref)
	}
}

func TestResolveIsCycleSafe(t *testing.T) {
	r := NewStructureRegistry()
	// Node{next *Node} is a self-referential linked-list cell; resolve
	// must not recurse forever.
	node := StructRef(KindStruct, "Node", []Member{
		{Name: "next", Type: StructRef(KindStruct, "Node", nil)},
	})
	r.Register(node)

	done := make(chan struct{})
	go func() {
		r.Resolve(StructRef(KindStruct, "Node", nil))
		close(done)
	}()
	select {
	case <-done:
	default:
	}
	<-done
}

func TestMethodSignatureRegistryPrefersProtocolOnRead(t *testing.T) {
	r := NewMethodSignatureRegistry()
	r.Register("initWithFrame:", SourceClass, "@24@0:8{CGRect=dddd}16")
	r.Register("initWithFrame:", SourceProtocol, "@24@0:8{CGRect=dddd}16")

	sig, ok := r.Lookup("initWithFrame:")
	if !ok {
		t.Fatalf("Lookup failed")
	}
	if sig.Source != SourceProtocol {
		t.Fatalf("expected protocol-sourced signature preferred, got %v", sig.Source)
	}

	if all := r.All("initWithFrame:"); len(all) != 2 {
		t.Fatalf("All() = %d entries, want 2", len(all))
	}

	if _, ok := r.Lookup("doesNotExist:"); ok {
		t.Fatalf("expected miss for unregistered selector")
	}
}
