package macho

import (
	"errors"
	"strings"

	"github.com/appsworld/machoscope/internal/swiftdemangle"
)

// ErrSwiftSectionError is returned when a requested __swift5_* section
// is absent from the image; callers that treat Swift metadata as
// optional should check errors.Is(err, ErrSwiftSectionError).
var ErrSwiftSectionError = errors.New("swift section not present")

// isSwiftFragment reports whether raw looks like a mangled fragment
// lifted out of a larger mangling (e.g. a symbolic-reference payload or
// a context-dependent metatype marker) rather than a complete top-level
// mangled symbol that demangles standalone.
func isSwiftFragment(raw string) bool {
	trimmed := strings.TrimPrefix(raw, "_")
	trimmed = strings.TrimPrefix(trimmed, "$s")
	trimmed = strings.TrimPrefix(trimmed, "$S")
	return strings.Contains(trimmed, "XD") || strings.HasPrefix(trimmed, "XM")
}

// formatSwiftTypeNameWithContext demangles raw as a Swift type name.
// context is the fully-qualified name of the type raw was found inside;
// it is used only to decide how to present a fragment that cannot be
// demangled on its own: with a context, and with swiftAutoDemangle set,
// it is marked "<undemangled ...>" rather than silently passed through,
// so a renderer can flag it instead of printing a raw mangled string.
func (f *File) formatSwiftTypeNameWithContext(raw, context string) string {
	if text, _, _ := swiftdemangle.Demangle(raw); text != "" && text != raw {
		return text
	}
	if isSwiftFragment(raw) {
		if context != "" && f.swiftAutoDemangle {
			return "<undemangled " + raw + ">"
		}
		return raw
	}
	return raw
}
