package encoding

import "strings"

var scalarCode = map[Kind]byte{
	KindVoid:             'v',
	KindChar:              'c',
	KindUnsignedChar:      'C',
	KindShort:             's',
	KindUnsignedShort:     'S',
	KindInt:               'i',
	KindUnsignedInt:       'I',
	KindLong:              'l',
	KindUnsignedLong:      'L',
	KindLongLong:          'q',
	KindUnsignedLongLong:  'Q',
	KindInt128:            't',
	KindUnsignedInt128:    'T',
	KindFloat:             'f',
	KindDouble:            'd',
	KindLongDouble:        'D',
	KindBool:              'B',
	KindCharPtr:           '*',
	KindClass:             '#',
	KindSEL:               ':',
	KindUnknown:           '?',
}

var qualifierCode = map[Qualifier]byte{
	QualConst:       'r',
	QualIn:          'n',
	QualInout:       'N',
	QualOut:         'o',
	QualBycopy:      'O',
	QualByref:       'R',
	QualOneway:      'V',
	QualAtomic:      'A',
	QualComplex:     'j',
	QualGNURegister: '+',
}

// Encode renders n back to its exact type-encoding string. Encode(Parse(s))
// == s for any well-formed s this package can parse.
func Encode(n *Node) string {
	var b strings.Builder
	encodeNode(&b, n)
	return b.String()
}

func encodeNode(b *strings.Builder, n *Node) {
	for _, q := range n.Qualifiers {
		b.WriteByte(qualifierCode[q])
	}
	switch n.Kind {
	case KindID:
		b.WriteByte('@')
	case KindObject:
		b.WriteString("@\"")
		b.WriteString(n.ClassName)
		b.WriteByte('"')
	case KindBlock:
		b.WriteString("@?")
	case KindPointer:
		b.WriteByte('^')
		encodeNode(b, n.Elem)
	case KindArray:
		b.WriteByte('[')
		b.WriteString(itoa(n.ArrayLen))
		encodeNode(b, n.Elem)
		b.WriteByte(']')
	case KindStruct:
		encodeAggregate(b, n, '{', '}')
	case KindUnion:
		encodeAggregate(b, n, '(', ')')
	case KindBitField:
		b.WriteByte('b')
		b.WriteString(itoa(n.BitWidth))
	default:
		if code, ok := scalarCode[n.Kind]; ok {
			b.WriteByte(code)
		}
	}
}

func encodeAggregate(b *strings.Builder, n *Node, open, close byte) {
	b.WriteByte(open)
	b.WriteString(n.Name)
	if n.Members != nil {
		b.WriteByte('=')
		for _, m := range n.Members {
			if m.Name != "" {
				b.WriteByte('"')
				b.WriteString(m.Name)
				b.WriteByte('"')
			}
			encodeNode(b, m.Type)
		}
	}
	b.WriteByte(close)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}

var scalarCName = map[Kind]string{
	KindVoid:             "void",
	KindID:               "id",
	KindClass:            "Class",
	KindSEL:              "SEL",
	KindChar:             "char",
	KindUnsignedChar:     "unsigned char",
	KindShort:            "short",
	KindUnsignedShort:    "unsigned short",
	KindInt:              "int",
	KindUnsignedInt:      "unsigned int",
	KindLong:             "long",
	KindUnsignedLong:     "unsigned long",
	KindLongLong:         "long long",
	KindUnsignedLongLong: "unsigned long long",
	KindInt128:           "__int128",
	KindUnsignedInt128:   "unsigned __int128",
	KindFloat:            "float",
	KindDouble:           "double",
	KindLongDouble:       "long double",
	KindBool:             "BOOL",
	KindCharPtr:          "char *",
	KindUnknown:          "void",
	KindBlock:            "IMP",
}

// DescribeC renders n as a C-ish type description, the same register the
// teacher's decodeType produced from raw encoding strings, but driven off
// the parsed AST instead of regular expressions.
func DescribeC(n *Node) string {
	switch n.Kind {
	case KindObject:
		return n.ClassName + " *"
	case KindPointer:
		return DescribeC(n.Elem) + " *"
	case KindArray:
		return "[" + itoa(n.ArrayLen) + "]" + DescribeC(n.Elem)
	case KindStruct:
		return "struct " + n.Name
	case KindUnion:
		return "union " + n.Name
	case KindBitField:
		return "bitfield(" + itoa(n.BitWidth) + ")"
	default:
		if s, ok := scalarCName[n.Kind]; ok {
			return s
		}
		return "void"
	}
}
