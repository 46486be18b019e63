// Package encoding implements a grammar-based parser and formatter for
// Objective-C type encodings (the strings produced by @encode and stored
// in method_t/ivar_t/property_t), replacing ad hoc string surgery with a
// proper AST: parse once, then either re-encode (byte for byte) or
// render as a C-ish type description.
package encoding

// Kind identifies the shape of a type-encoding AST node.
type Kind int

const (
	KindVoid Kind = iota
	KindID
	KindClass
	KindSEL
	KindChar
	KindUnsignedChar
	KindShort
	KindUnsignedShort
	KindInt
	KindUnsignedInt
	KindLong
	KindUnsignedLong
	KindLongLong
	KindUnsignedLongLong
	KindInt128
	KindUnsignedInt128
	KindFloat
	KindDouble
	KindLongDouble
	KindBool
	KindCharPtr
	KindUnknown
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindBitField
	KindObject // @"ClassName"
	KindBlock  // @?
)

// Qualifier is one of the leading type-qualifier codes (const, in, out,
// ...) that may prefix any type.
type Qualifier int

const (
	QualConst Qualifier = iota
	QualIn
	QualInout
	QualOut
	QualBycopy
	QualByref
	QualOneway
	QualAtomic
	QualComplex
	QualGNURegister
)

// Member is one field of a struct or union. Name is empty when the
// encoding omits field names, which plain @encode output always does;
// quoted member names appear only in the richer ivar-layout encodings
// some runtimes emit.
type Member struct {
	Name string
	Type *Node
}

// Node is one parsed type encoding. Only the fields relevant to Kind are
// populated; the rest are zero.
type Node struct {
	Kind       Kind
	Qualifiers []Qualifier

	ClassName string // KindObject

	Elem     *Node // KindPointer, KindArray
	ArrayLen int   // KindArray

	Name    string   // KindStruct, KindUnion
	Members []Member // KindStruct, KindUnion; nil => forward declaration

	BitWidth int // KindBitField
}

// IsForwardDeclaration reports whether a struct/union node has no
// member list, i.e. it names a type without defining its layout.
func (n *Node) IsForwardDeclaration() bool {
	return (n.Kind == KindStruct || n.Kind == KindUnion) && n.Members == nil
}
