package encoding

import "fmt"

var scalarKinds = map[byte]Kind{
	'v': KindVoid,
	'c': KindChar,
	'C': KindUnsignedChar,
	's': KindShort,
	'S': KindUnsignedShort,
	'i': KindInt,
	'I': KindUnsignedInt,
	'l': KindLong,
	'L': KindUnsignedLong,
	'q': KindLongLong,
	'Q': KindUnsignedLongLong,
	't': KindInt128,
	'T': KindUnsignedInt128,
	'f': KindFloat,
	'd': KindDouble,
	'D': KindLongDouble,
	'B': KindBool,
	'*': KindCharPtr,
	'#': KindClass,
	':': KindSEL,
	'?': KindUnknown,
	'%': KindUnknown,
}

var qualifierCodes = map[byte]Qualifier{
	'r': QualConst,
	'n': QualIn,
	'N': QualInout,
	'o': QualOut,
	'O': QualBycopy,
	'R': QualByref,
	'V': QualOneway,
	'A': QualAtomic,
	'j': QualComplex,
	'+': QualGNURegister,
}

type parser struct {
	data []byte
	pos  int
}

// Parse parses a single complete type encoding. Trailing bytes after the
// first well-formed type are treated as an error: use ParsePrefix to
// consume one type out of a longer encoded string (e.g. a method's
// concatenated argument list).
func Parse(s string) (*Node, error) {
	p := &parser{data: []byte(s)}
	n, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("trailing input at byte %d: %q", p.pos, string(p.data[p.pos:]))
	}
	return n, nil
}

// ParsePrefix parses one type encoding from the start of s and returns
// it along with the number of bytes consumed, leaving any remainder
// (e.g. further arguments, or a stack-size suffix) unparsed.
func ParsePrefix(s string) (*Node, int, error) {
	p := &parser{data: []byte(s)}
	n, err := p.parseType()
	if err != nil {
		return nil, 0, err
	}
	return n, p.pos, nil
}

func (p *parser) eof() bool { return p.pos >= len(p.data) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.data[p.pos]
}

func (p *parser) consume() byte {
	b := p.data[p.pos]
	p.pos++
	return b
}

func (p *parser) expect(b byte) error {
	if p.eof() || p.data[p.pos] != b {
		return fmt.Errorf("expected %q at byte %d", b, p.pos)
	}
	p.pos++
	return nil
}

func (p *parser) readNumber() (int, error) {
	start := p.pos
	n := 0
	for !p.eof() && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		n = n*10 + int(p.data[p.pos]-'0')
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected digit at byte %d", start)
	}
	return n, nil
}

// readUntil consumes and returns everything up to (not including) delim,
// then consumes delim itself.
func (p *parser) readUntil(delim byte) (string, error) {
	start := p.pos
	for !p.eof() {
		if p.data[p.pos] == delim {
			s := string(p.data[start:p.pos])
			p.pos++
			return s, nil
		}
		p.pos++
	}
	return "", fmt.Errorf("unterminated field starting at byte %d, expected %q", start, delim)
}

// readAggregateName consumes a struct/union tag name: letters, digits,
// underscores, up to (not including) '=' or the closing delimiter.
func (p *parser) readAggregateName(closing byte) string {
	start := p.pos
	for !p.eof() && p.data[p.pos] != '=' && p.data[p.pos] != closing {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

func (p *parser) parseType() (*Node, error) {
	var quals []Qualifier
	for !p.eof() {
		q, ok := qualifierCodes[p.peek()]
		if !ok {
			break
		}
		quals = append(quals, q)
		p.consume()
	}
	n, err := p.parseUnqualified()
	if err != nil {
		return nil, err
	}
	n.Qualifiers = quals
	return n, nil
}

func (p *parser) parseUnqualified() (*Node, error) {
	if p.eof() {
		return nil, fmt.Errorf("unexpected end of type encoding")
	}
	b := p.consume()
	switch b {
	case '^':
		elem, err := p.parseType()
		if err != nil {
			return nil, fmt.Errorf("pointer element: %w", err)
		}
		return &Node{Kind: KindPointer, Elem: elem}, nil
	case '[':
		length, err := p.readNumber()
		if err != nil {
			return nil, fmt.Errorf("array length: %w", err)
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		return &Node{Kind: KindArray, ArrayLen: length, Elem: elem}, nil
	case '{':
		return p.parseAggregate(KindStruct, '}')
	case '(':
		return p.parseAggregate(KindUnion, ')')
	case 'b':
		width, err := p.readNumber()
		if err != nil {
			return nil, fmt.Errorf("bitfield width: %w", err)
		}
		return &Node{Kind: KindBitField, BitWidth: width}, nil
	case '@':
		switch p.peek() {
		case '"':
			p.consume()
			name, err := p.readUntil('"')
			if err != nil {
				return nil, err
			}
			if name == "?" {
				return &Node{Kind: KindBlock}, nil
			}
			return &Node{Kind: KindObject, ClassName: name}, nil
		case '?':
			p.consume()
			return &Node{Kind: KindBlock}, nil
		default:
			return &Node{Kind: KindID}, nil
		}
	default:
		if kind, ok := scalarKinds[b]; ok {
			return &Node{Kind: kind}, nil
		}
		return nil, fmt.Errorf("unrecognized type code %q at byte %d", b, p.pos-1)
	}
}

func (p *parser) parseAggregate(kind Kind, closing byte) (*Node, error) {
	name := p.readAggregateName(closing)
	node := &Node{Kind: kind, Name: name}
	if p.peek() == '=' {
		p.consume()
		node.Members = []Member{}
		for !p.eof() && p.peek() != closing {
			var memberName string
			if p.peek() == '"' {
				p.consume()
				n, err := p.readUntil('"')
				if err != nil {
					return nil, err
				}
				memberName = n
			}
			elemType, err := p.parseType()
			if err != nil {
				return nil, fmt.Errorf("%s %s member: %w", name, kind.String(), err)
			}
			node.Members = append(node.Members, Member{Name: memberName, Type: elemType})
		}
	}
	if err := p.expect(closing); err != nil {
		return nil, fmt.Errorf("closing %q for %s %q: %w", closing, kind.String(), name, err)
	}
	return node, nil
}

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindBitField:
		return "bitfield"
	case KindObject:
		return "object"
	case KindBlock:
		return "block"
	default:
		if name, ok := scalarCName[k]; ok {
			return name
		}
		return "type"
	}
}
