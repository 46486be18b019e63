package swiftdemangle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/appsworld/machoscope/types/swift"
)

// isLegacyMangled reports whether mangled belongs to the pre-Swift-4
// "_T"/"_Tt" mangling family (spec §4.11) rather than the modern "$s"
// mangling DemangleSymbol/DemangleType parse.
func isLegacyMangled(mangled string) bool {
	trimmed := strings.TrimPrefix(mangled, "_")
	return strings.HasPrefix(trimmed, "T")
}

// DemangleLegacy demangles the legacy nominal-type mangling family:
// plain and nested class/struct/enum/protocol names ("_TtC...",
// "_TtCC..."), bound generic nominal types ("_TtGC<module><name>(arg)*_"),
// and the built-in Array/Dictionary/Set/Optional shorthand forms
// ("_TtSay...G", "_TtSDy...G", "_TtShy...G", "_TtSqy...G", trailing "Sg").
// It is a separate entry point from DemangleSymbol/DemangleType, which
// only understand the modern "$s..." mangling.
func DemangleLegacy(mangled string) (string, error) {
	s := strings.TrimPrefix(mangled, "_")
	if !strings.HasPrefix(s, "T") {
		return "", fmt.Errorf("not a legacy mangled name: %q", mangled)
	}
	s = s[1:]
	if !strings.HasPrefix(s, "t") {
		return "", fmt.Errorf("unsupported legacy top-level mangling: %q", mangled)
	}
	s = s[1:]

	text, rest, err := parseLegacyType(s)
	if err != nil {
		return "", err
	}
	if rest != "" {
		return "", fmt.Errorf("trailing data %q after legacy mangling %q", rest, mangled)
	}
	return text, nil
}

// parseLegacyType parses one legacy-mangled type starting at s, returning
// its formatted text and whatever of s was not consumed.
func parseLegacyType(s string) (string, string, error) {
	if s == "" {
		return "", "", fmt.Errorf("empty legacy type mangling")
	}

	switch s[0] {
	case 'G':
		return parseLegacyGenericNominal(s)
	case 'C', 'V', 'O', 'P':
		return parseLegacyNominal(s)
	case 'S':
		return parseLegacyStandardType(s)
	default:
		return "", "", fmt.Errorf("unrecognized legacy mangled type at %q", s)
	}
}

// parseLegacyGenericNominal parses "G<kind><module><name>(<arg>)*_",
// e.g. "_TtGC10ModuleName9ContainerSS_" -> "ModuleName.Container<String>".
func parseLegacyGenericNominal(s string) (string, string, error) {
	if len(s) < 2 {
		return "", "", fmt.Errorf("truncated generic nominal mangling %q", s)
	}
	kind := s[1]
	if kind != 'C' && kind != 'V' && kind != 'O' {
		return "", "", fmt.Errorf("unrecognized generic nominal kind %q in %q", string(kind), s)
	}
	rem := s[2:]

	module, rem, ok := readLengthPrefixedIdent(rem)
	if !ok {
		return "", "", fmt.Errorf("expected module name in %q", s)
	}
	name, rem, ok := readLengthPrefixedIdent(rem)
	if !ok {
		return "", "", fmt.Errorf("expected type name in %q", s)
	}

	var args []string
	for {
		if strings.HasPrefix(rem, "_") {
			rem = rem[1:]
			break
		}
		if rem == "" {
			return "", "", fmt.Errorf("unterminated generic argument list in %q", s)
		}
		argText, next, err := parseLegacyType(rem)
		if err != nil {
			return "", "", err
		}
		args = append(args, argText)
		rem = next
	}

	return module + "." + name + "<" + strings.Join(args, ", ") + ">", rem, nil
}

// parseLegacyNominal parses a plain (non-generic) nominal type, handling
// repeated container-kind letters for nesting ("_TtCC..." -> two levels).
func parseLegacyNominal(s string) (string, string, error) {
	letter := s[0]
	depth := 0
	i := 0
	for i < len(s) && s[i] == letter {
		depth++
		i++
	}
	rem := s[i:]

	module, rem, ok := readLengthPrefixedIdent(rem)
	if !ok {
		return "", "", fmt.Errorf("expected module name in %q", s)
	}
	names := make([]string, 0, depth)
	for k := 0; k < depth; k++ {
		name, next, ok := readLengthPrefixedIdent(rem)
		if !ok {
			return "", "", fmt.Errorf("expected nested type name %d in %q", k, s)
		}
		names = append(names, name)
		rem = next
	}

	return module + "." + strings.Join(names, "."), rem, nil
}

// parseLegacyStandardType parses a standard-library shorthand ("Si",
// "SS", ...), the collection/optional forms ("Say...G", "SDy...G",
// "Shy...G", "Sqy...G"), and a trailing "Sg" optional-wrap suffix.
func parseLegacyStandardType(s string) (string, string, error) {
	if len(s) < 2 {
		return "", "", fmt.Errorf("truncated standard-type mangling %q", s)
	}
	code := s[1]
	rem := s[2:]

	switch code {
	case 'a', 'D', 'h', 'q':
		if !strings.HasPrefix(rem, "y") {
			return "", "", fmt.Errorf("expected 'y' after S%c in %q", code, s)
		}
		rem = rem[1:]

		nargs := 1
		if code == 'D' {
			nargs = 2
		}
		args := make([]string, 0, nargs)
		for i := 0; i < nargs; i++ {
			argText, next, err := parseLegacyType(rem)
			if err != nil {
				return "", "", err
			}
			args = append(args, argText)
			rem = next
		}
		if !strings.HasPrefix(rem, "G") {
			return "", "", fmt.Errorf("expected terminating 'G' in %q", s)
		}
		rem = rem[1:]

		switch code {
		case 'a':
			return "[" + args[0] + "]", rem, nil
		case 'D':
			return "[" + args[0] + ": " + args[1] + "]", rem, nil
		case 'h':
			return "Set<" + args[0] + ">", rem, nil
		default: // 'q'
			return args[0] + "?", rem, nil
		}
	default:
		name, ok := swift.MangledKnownTypeKind[string(code)]
		if !ok {
			return "", "", fmt.Errorf("unknown standard type code %q in %q", "S"+string(code), s)
		}
		if strings.HasPrefix(rem, "Sg") {
			rem = rem[2:]
			name += "?"
		}
		return name, rem, nil
	}
}

// readLengthPrefixedIdent reads a Swift mangling "<len><name>" run: a
// decimal length followed by exactly that many bytes of identifier.
func readLengthPrefixedIdent(s string) (name string, rest string, ok bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return "", s, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil || n <= 0 || i+n > len(s) {
		return "", s, false
	}
	return s[i : i+n], s[i+n:], true
}
