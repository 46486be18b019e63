// Package registry implements the two cross-reference tables the ObjC
// model builder consults while walking type encodings: the structure
// registry (struct/union name -> most complete definition seen) and the
// method-signature registry (selector -> signatures contributed by
// classes and protocols).
package registry

import "sync"

// StructKind distinguishes a C struct from a union; both are encoded
// under the registry using the same replacement rule.
type StructKind int

const (
	KindStruct StructKind = iota
	KindUnion
)

func (k StructKind) String() string {
	if k == KindUnion {
		return "union"
	}
	return "struct"
}

// Type is the minimal structural tree the registry walks and rewrites.
// A node is either a terminal scalar encoding or a reference to a named
// struct/union payload.
type Type struct {
	Encoding string
	Ref      *StructDef
}

// Scalar builds a terminal, non-aggregate type node.
func Scalar(encoding string) *Type {
	return &Type{Encoding: encoding}
}

// StructRef builds a struct/union reference node. An empty members list
// denotes a forward declaration.
func StructRef(kind StructKind, name string, members []Member) *Type {
	return &Type{Ref: &StructDef{Kind: kind, Name: name, Members: members}}
}

// Member is one named field of a struct or union.
type Member struct {
	Name string
	Type *Type
}

// StructDef describes one struct or union as encountered while walking a
// type. An empty Members slice marks a forward declaration.
type StructDef struct {
	Kind    StructKind
	Name    string
	Members []Member
}

func (d *StructDef) isForwardDeclaration() bool { return len(d.Members) == 0 }

func (d *StructDef) namedMemberCount() int {
	n := 0
	for _, m := range d.Members {
		if m.Name != "" {
			n++
		}
	}
	return n
}

// standardTypedefs are pre-populated into every new StructureRegistry;
// their resolved encodings are platform-dependent only for BOOL, which
// we record as the historical signed char form.
var standardTypedefs = map[string]string{
	"CGFloat":        "double",
	"NSInteger":      "long",
	"NSUInteger":     "unsigned long",
	"CFIndex":        "long",
	"CFTimeInterval": "double",
	"NSTimeInterval": "double",
	"OSStatus":       "int",
	"Boolean":        "unsigned char",
	"BOOL":           "signed char",
}

// StructureRegistry is safe for concurrent use by multiple goroutines.
type StructureRegistry struct {
	mu       sync.Mutex
	defs     map[string]*StructDef
	typedefs map[string]string
}

// NewStructureRegistry returns a registry pre-populated with the
// standard Foundation/CoreFoundation scalar typedefs.
func NewStructureRegistry() *StructureRegistry {
	r := &StructureRegistry{
		defs:     make(map[string]*StructDef),
		typedefs: make(map[string]string, len(standardTypedefs)),
	}
	for name, enc := range standardTypedefs {
		r.typedefs[name] = enc
	}
	return r
}

// Typedef reports the primitive encoding a pre-populated standard
// typedef resolves to.
func (r *StructureRegistry) Typedef(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enc, ok := r.typedefs[name]
	return enc, ok
}

// Register walks t, inserting every struct/union it transitively
// contains. An incoming record replaces the stored one only when it has
// strictly more named members than what's on file, so a forward
// declaration never displaces a full definition.
func (r *StructureRegistry) Register(t *Type) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(t, make(map[string]bool))
}

func (r *StructureRegistry) register(t *Type, visiting map[string]bool) {
	if t == nil || t.Ref == nil {
		return
	}
	def := t.Ref
	if def.Name != "" {
		if visiting[def.Name] {
			return
		}
		visiting[def.Name] = true
		defer delete(visiting, def.Name)

		existing, ok := r.defs[def.Name]
		if !ok || def.namedMemberCount() > existing.namedMemberCount() {
			cp := *def
			r.defs[def.Name] = &cp
		}
	}
	for _, m := range def.Members {
		r.register(m.Type, visiting)
	}
}

// Resolve recursively substitutes forward-declared struct/union
// references in t with the most complete definition on file. A name the
// registry has never seen, or one still being expanded higher up the
// same path, is left unchanged.
func (r *StructureRegistry) Resolve(t *Type) *Type {
	if t == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(t, make(map[string]bool))
}

func (r *StructureRegistry) resolve(t *Type, visiting map[string]bool) *Type {
	if t.Ref == nil {
		return t
	}
	def := t.Ref
	if def.Name != "" && visiting[def.Name] {
		return t
	}

	resolved := def
	if def.isForwardDeclaration() && def.Name != "" {
		if stored, ok := r.defs[def.Name]; ok {
			resolved = stored
		}
	}

	if def.Name != "" {
		visiting[def.Name] = true
		defer delete(visiting, def.Name)
	}

	out := &StructDef{Kind: resolved.Kind, Name: resolved.Name}
	if len(resolved.Members) > 0 {
		out.Members = make([]Member, len(resolved.Members))
		for i, m := range resolved.Members {
			out.Members[i] = Member{Name: m.Name, Type: r.resolve(m.Type, visiting)}
		}
	}
	return &Type{Ref: out}
}
