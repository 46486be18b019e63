package macho

import (
	"github.com/appsworld/machoscope/pkg/registry"
	"github.com/appsworld/machoscope/types/objc"
	"github.com/appsworld/machoscope/types/objc/encoding"
)

// structRegistryType converts one parsed type-encoding node into the
// registry package's own minimal structural tree, the representation its
// replacement rule and cycle-safe resolver operate on.
func structRegistryType(n *encoding.Node) *registry.Type {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case encoding.KindStruct, encoding.KindUnion:
		kind := registry.KindStruct
		if n.Kind == encoding.KindUnion {
			kind = registry.KindUnion
		}
		var members []registry.Member
		if n.Members != nil {
			members = make([]registry.Member, len(n.Members))
			for i, m := range n.Members {
				members[i] = registry.Member{Name: m.Name, Type: structRegistryType(m.Type)}
			}
		}
		return registry.StructRef(kind, n.Name, members)
	case encoding.KindPointer, encoding.KindArray:
		return structRegistryType(n.Elem)
	default:
		return registry.Scalar(encoding.Encode(n))
	}
}

// registerEncodedType parses one @encode string (an ivar type or a
// property type) and records any struct/union it names into reg.
func registerEncodedType(reg *registry.StructureRegistry, enc string) {
	if enc == "" {
		return
	}
	n, err := encoding.Parse(enc)
	if err != nil {
		return
	}
	reg.Register(structRegistryType(n))
}

// registerMethodSignatureTypes walks a method's full @encode signature
// (return type followed by each argument type, each suffixed with a
// stack-offset digit run) and records every struct/union type it names.
func registerMethodSignatureTypes(reg *registry.StructureRegistry, sig string) {
	rest := sig
	for rest != "" {
		n, consumed, err := encoding.ParsePrefix(rest)
		if err != nil || consumed == 0 {
			return
		}
		reg.Register(structRegistryType(n))
		rest = skipLeadingDigits(rest[consumed:])
	}
}

func skipLeadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[i:]
}

// registerObjCSignatures builds the structure and method-signature
// registries described in spec §4.13 out of a fully parsed ObjC model: one
// pass over every protocol's, class's, and category's methods, ivars, and
// properties.
func registerObjCSignatures(sigReg *registry.MethodSignatureRegistry, structReg *registry.StructureRegistry, protos []objc.Protocol, classes []*objc.Class, cats []objc.Category) {
	registerMethods := func(methods []objc.Method, source registry.SourceKind) {
		for _, m := range methods {
			if m.Types == "" {
				continue
			}
			sigReg.Register(m.Name, source, m.Types)
			registerMethodSignatureTypes(structReg, m.Types)
		}
	}
	registerProperties := func(props []objc.Property) {
		for _, p := range props {
			registerEncodedType(structReg, p.Type())
		}
	}
	registerIvars := func(ivars []objc.Ivar) {
		for _, iv := range ivars {
			registerEncodedType(structReg, iv.Type)
		}
	}

	for _, p := range protos {
		registerMethods(p.InstanceMethods, registry.SourceProtocol)
		registerMethods(p.ClassMethods, registry.SourceProtocol)
		registerMethods(p.OptionalInstanceMethods, registry.SourceProtocol)
		registerMethods(p.OptionalClassMethods, registry.SourceProtocol)
		registerProperties(p.InstanceProperties)
	}
	for _, c := range classes {
		registerMethods(c.InstanceMethods, registry.SourceClass)
		registerMethods(c.ClassMethods, registry.SourceClass)
		registerProperties(c.Props)
		registerIvars(c.Ivars)
	}
	for _, cat := range cats {
		registerMethods(cat.InstanceMethods, registry.SourceClass)
		registerMethods(cat.ClassMethods, registry.SourceClass)
		registerProperties(cat.Properties)
	}
}
