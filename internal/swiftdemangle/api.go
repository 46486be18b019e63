package swiftdemangle

import (
	"bytes"
	"regexp"
)

var mangledTokenPattern = regexp.MustCompile(`(?:_?\$[sS]|S[oO])[A-Za-z0-9_]+`)

type Option func(*options)

type options struct {
	resolver SymbolicReferenceResolver
}

func WithResolver(r SymbolicReferenceResolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// Demangle resolves a full mangled symbol to its demangled text and parse
// tree. Results are memoized by the exact mangled input; a result that
// fails post-parse validation falls through to the raw mangled string,
// per the partial-demangle policy.
func Demangle(mangled string, opts ...Option) (string, *Node, error) {
	if isLegacyMangled(mangled) {
		text := demangleCached("legacy:"+mangled, mangled, func() (string, error) {
			return DemangleLegacy(mangled)
		})
		return text, nil, nil
	}

	cfg := buildOptions(opts...)
	dem := New(cfg.resolver)
	var node *Node
	text := demangleCached("text:"+mangled, mangled, func() (string, error) {
		t, n, err := dem.DemangleString([]byte(mangled))
		node = n
		return t, err
	})
	return text, node, nil
}

func DemangleSymbolString(mangled string, opts ...Option) (string, *Node, error) {
	cfg := buildOptions(opts...)
	dem := New(cfg.resolver)
	var node *Node
	text := demangleCached("symbol:"+mangled, mangled, func() (string, error) {
		n, err := dem.DemangleSymbol([]byte(mangled))
		if err != nil {
			return "", err
		}
		node = n
		return Format(n), nil
	})
	return text, node, nil
}

func DemangleTypeString(mangled string, opts ...Option) (string, *Node, error) {
	cfg := buildOptions(opts...)
	dem := New(cfg.resolver)
	var node *Node
	text := demangleCached("type:"+mangled, mangled, func() (string, error) {
		clean := bytes.TrimPrefix([]byte(mangled), []byte("_"))
		n, err := dem.DemangleType(clean)
		if err != nil {
			return "", err
		}
		node = n
		return Format(n), nil
	})
	return text, node, nil
}

func DemangleBlob(blob string, opts ...Option) string {
	return mangledTokenPattern.ReplaceAllStringFunc(blob, func(token string) string {
		out, _, err := Demangle(token, opts...)
		if err != nil {
			return token
		}
		return out
	})
}

func buildOptions(opts ...Option) options {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
