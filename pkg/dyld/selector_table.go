package dyld

import (
	"encoding/binary"
	"fmt"

	"github.com/appsworld/machoscope/pkg/machoerr"
)

const selectorTableFixedHeaderSize = 20 // {capacity, occupied, shift, mask, salt}

// SelectorTable is the perfect-hash table mapping selector name to an
// offset within the cache's string pool. Its on-disk layout is
// {capacity, occupied, shift, mask, salt uint32, scramble[256]uint32,
// offsets[capacity]uint32}, with the string pool starting right after.
type SelectorTable struct {
	Capacity  uint32
	Occupied  uint32
	Shift     uint32
	Mask      uint32
	Salt      uint32
	Scramble  [256]uint32
	Offsets   []uint32
	base      []byte // buf sliced at table start
	stringOff int     // offset of the string pool relative to base
}

// ParseSelectorTable reads a perfect-hash selector table starting at the
// beginning of buf.
func ParseSelectorTable(buf []byte) (*SelectorTable, error) {
	if len(buf) < selectorTableFixedHeaderSize {
		return nil, machoerr.New(machoerr.KindInvalidInput, "selector_table", 0, fmt.Errorf("buffer shorter than fixed header"))
	}
	t := &SelectorTable{base: buf}
	t.Capacity = binary.LittleEndian.Uint32(buf[0:4])
	t.Occupied = binary.LittleEndian.Uint32(buf[4:8])
	t.Shift = binary.LittleEndian.Uint32(buf[8:12])
	t.Mask = binary.LittleEndian.Uint32(buf[12:16])
	t.Salt = binary.LittleEndian.Uint32(buf[16:20])

	pos := selectorTableFixedHeaderSize
	if len(buf) < pos+256*4 {
		return nil, machoerr.New(machoerr.KindInvalidInput, "selector_table", uint64(pos), fmt.Errorf("buffer too short for scramble table"))
	}
	for i := 0; i < 256; i++ {
		t.Scramble[i] = binary.LittleEndian.Uint32(buf[pos+i*4 : pos+i*4+4])
	}
	pos += 256 * 4

	offsetsSize := int(t.Capacity) * 4
	if len(buf) < pos+offsetsSize {
		return nil, machoerr.New(machoerr.KindInvalidInput, "selector_table", uint64(pos), fmt.Errorf("buffer too short for offsets table"))
	}
	t.Offsets = make([]uint32, t.Capacity)
	for i := uint32(0); i < t.Capacity; i++ {
		off := pos + int(i)*4
		t.Offsets[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	pos += offsetsSize
	t.stringOff = pos

	return t, nil
}

// hash implements the table's perfect-hash function: h = 0; for each
// byte b: h = (h>>8) ^ scramble[(h^b)&0xFF].
func (t *SelectorTable) hash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = (h >> 8) ^ t.Scramble[(h^uint32(name[i]))&0xFF]
	}
	return h
}

func (t *SelectorTable) slot(name string) uint32 {
	h := t.hash(name)
	if t.Shift > 0 {
		h >>= t.Shift
	}
	return h & t.Mask
}

// Lookup returns the string-pool offset for name's selector, if present.
func (t *SelectorTable) Lookup(name string) (uint32, bool) {
	if t.Capacity == 0 {
		return 0, false
	}
	idx := t.slot(name)
	if idx >= uint32(len(t.Offsets)) {
		return 0, false
	}
	off := t.Offsets[idx]
	got, err := t.stringAt(off)
	if err != nil || got != name {
		return 0, false
	}
	return off, true
}

func (t *SelectorTable) stringAt(off uint32) (string, error) {
	start := t.stringOff + int(off)
	if start < 0 || start >= len(t.base) {
		return "", fmt.Errorf("string offset %d out of range", off)
	}
	for i := start; i < len(t.base); i++ {
		if t.base[i] == 0 {
			return string(t.base[start:i]), nil
		}
	}
	return "", fmt.Errorf("unterminated selector string at %d", off)
}

// Enumerate returns every occupied slot's selector name.
func (t *SelectorTable) Enumerate() []string {
	names := make([]string, 0, t.Occupied)
	seen := make(map[uint32]bool, len(t.Offsets))
	for _, off := range t.Offsets {
		if seen[off] {
			continue
		}
		seen[off] = true
		if s, err := t.stringAt(off); err == nil && s != "" {
			names = append(names, s)
		}
	}
	return names
}
