package trie

import (
	"bytes"
	"testing"
)

// buildSingleEntryTrie hand-assembles the minimal dyld export trie for one
// symbol, following the node layout ParseTrie/WalkTrie expect: a root node
// with no terminal payload and one child edge, and a child node carrying a
// regular-export terminal payload with no children of its own.
func buildSingleEntryTrie(name string, value byte) []byte {
	b := []byte{0x00, 0x01} // root: terminalSize=0, childrenRemaining=1
	b = append(b, []byte(name)...)
	b = append(b, 0x00)                   // edge-string terminator
	b = append(b, byte(len(b)+1))         // child node offset (uleb, single byte)
	b = append(b, 0x02, 0x00, value, 0x00) // child: terminalSize=2, flags=regular, value, 0 children
	return b
}

func TestParseTrieSingleRegularExport(t *testing.T) {
	data := buildSingleEntryTrie("_foo", 0x20)

	entries, err := ParseTrie(data, 0x1000)
	if err != nil {
		t.Fatalf("ParseTrie returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Name != "_foo" {
		t.Errorf("Name = %q, want %q", got.Name, "_foo")
	}
	if got.Address != 0x1020 {
		t.Errorf("Address = %#x, want %#x", got.Address, 0x1020)
	}
	if !got.Flags.Regular() {
		t.Errorf("Flags.Regular() = false, want true")
	}
}

func TestWalkTrieFindsSymbol(t *testing.T) {
	data := buildSingleEntryTrie("_foo", 0x20)

	offset, err := WalkTrie(data, "_foo")
	if err != nil {
		t.Fatalf("WalkTrie returned error: %v", err)
	}
	if offset == 0 {
		t.Errorf("expected a non-zero node offset for a found symbol")
	}
}

func TestWalkTrieMissingSymbol(t *testing.T) {
	data := buildSingleEntryTrie("_foo", 0x20)

	if _, err := WalkTrie(data, "_bar"); err == nil {
		t.Errorf("expected an error looking up a symbol absent from the trie")
	}
}

func TestReadUleb128MultiByte(t *testing.T) {
	// 300 encodes as [0xAC, 0x02] in ULEB128.
	r := bytes.NewReader([]byte{0xAC, 0x02})
	v, err := ReadUleb128(r)
	if err != nil {
		t.Fatalf("ReadUleb128 returned error: %v", err)
	}
	if v != 300 {
		t.Errorf("ReadUleb128 = %d, want 300", v)
	}
}
