// Package dyld reads dyld_shared_cache files: the header, mapping
// table, image list, split sub-cache set, and the ObjC selector
// perfect-hash table embedded in (or alongside) libobjc.A.dylib.
package dyld

import (
	"encoding/binary"
	"fmt"

	"github.com/appsworld/machoscope/pkg/bytecursor"
	"github.com/appsworld/machoscope/pkg/machoerr"
)

const magicLen = 16

var byteOrder = binary.LittleEndian

// Arch is the architecture tag recorded in the cache magic.
type Arch string

const (
	ArchARM64    Arch = "arm64"
	ArchARM64e   Arch = "arm64e"
	ArchX86_64   Arch = "x86_64"
	ArchX86_64h  Arch = "x86_64h"
	ArchARMv7k   Arch = "armv7k"
	ArchARM64_32 Arch = "arm64_32"
)

// Header is the subset of dyld_shared_cache's header fields this reader
// relies on. Field offsets follow the cache's own layout, which has
// grown additively across OS releases; unknown trailing fields are
// simply skipped over.
type Header struct {
	Magic string
	Arch  Arch

	MappingOffset uint32
	MappingCount  uint32
	ImagesOffset  uint32
	ImagesCount   uint32

	CodeSignOff  uint64
	CodeSignSize uint64

	SlideInfoOff  uint64
	SlideInfoSize uint64

	LocalSymbolsOff  uint64
	LocalSymbolsSize uint64

	UUID [16]byte

	ObjCOptOffset uint64
	ObjCOptSize   uint64

	SharedRegionStart uint64
	SharedRegionSize  uint64

	ImagesTextOffset uint32
	ImagesTextCount  uint32

	SubCacheArrayOffset uint32
	SubCacheArrayCount  uint32
}

// ParseHeader reads a dyld_shared_cache header from the start of buf.
func ParseHeader(buf []byte) (*Header, error) {
	cur := bytecursor.New(buf)
	if cur.Len() < magicLen {
		return nil, machoerr.New(machoerr.KindInvalidInput, "dyld_header", 0, fmt.Errorf("buffer shorter than magic"))
	}
	magicBytes, err := cur.Slice(magicLen)
	if err != nil {
		return nil, machoerr.New(machoerr.KindInvalidInput, "dyld_header", 0, err)
	}
	magic := trimTrailingSpaces(magicBytes)
	if len(magic) < 6 || magic[:6] != "dyld_v" {
		return nil, machoerr.New(machoerr.KindInvalidInput, "dyld_header", 0, fmt.Errorf("bad magic %q", magic))
	}
	rest := magic[6:]
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' { // format version digits
		rest = rest[1:]
	}
	arch := Arch(trimLeadingSpaces(rest))

	h := &Header{Magic: magic, Arch: arch}

	u32 := func() uint32 { v, e := cur.ReadU32(byteOrder); err = firstErr(err, e); return v }
	u64 := func() uint64 { v, e := cur.ReadU64(byteOrder); err = firstErr(err, e); return v }

	h.MappingOffset = u32()
	h.MappingCount = u32()
	_ = u64() // imagesOffsetOld/imagesCountOld (pre-split-cache layout), unused here
	_ = u64() // dyldBaseAddress, unused

	h.CodeSignOff = u64()
	h.CodeSignSize = u64()
	h.SlideInfoOff = u64()
	h.SlideInfoSize = u64()

	h.LocalSymbolsOff = u64()
	h.LocalSymbolsSize = u64()

	uuidBytes, e := cur.Slice(16)
	err = firstErr(err, e)
	copy(h.UUID[:], uuidBytes)

	_ = u64() // cacheType

	h.ImagesTextOffset = u32()
	h.ImagesTextCount = u32()
	_, _ = u32(), u32() // imagesNameOffset/Count, unused

	_ = u64() // patchInfoAddr

	h.ObjCOptOffset = u64()
	h.ObjCOptSize = u64()

	h.SharedRegionStart = u64()
	h.SharedRegionSize = u64()

	h.ImagesOffset = h.ImagesTextOffset
	h.ImagesCount = h.ImagesTextCount

	h.SubCacheArrayOffset = u32()
	h.SubCacheArrayCount = u32()

	if err != nil {
		return nil, machoerr.New(machoerr.KindInconsistentMetadata, "dyld_header", 0, err)
	}
	return h, nil
}

func firstErr(existing, latest error) error {
	if existing != nil {
		return existing
	}
	return latest
}

func trimTrailingSpaces(b []byte) string {
	n := len(b)
	for n > 0 && (b[n-1] == ' ' || b[n-1] == 0) {
		n--
	}
	return string(b[:n])
}

func trimLeadingSpaces(s string) string {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return s[i:]
}

// Segment classifies a mapping entry by its init_prot bits.
type Segment int

const (
	SegmentLinkedit Segment = iota
	SegmentText
	SegmentData
)

func (s Segment) String() string {
	switch s {
	case SegmentText:
		return "__TEXT"
	case SegmentData:
		return "__DATA"
	default:
		return "__LINKEDIT"
	}
}

const (
	protExec  = 1 << 2
	protWrite = 1 << 1
)

// Mapping is one 32-byte dyld_shared_cache mapping table entry.
type Mapping struct {
	VMAddr   uint64
	VMSize   uint64
	FileOff  uint64
	MaxProt  uint32
	InitProt uint32
}

// Classify reports which segment kind this mapping represents.
func (m Mapping) Classify() Segment {
	switch {
	case m.InitProt&protExec != 0:
		return SegmentText
	case m.InitProt&protWrite != 0:
		return SegmentData
	default:
		return SegmentLinkedit
	}
}

// ParseMappings reads h.MappingCount 32-byte entries starting at
// h.MappingOffset.
func ParseMappings(buf []byte, h *Header) ([]Mapping, error) {
	out := make([]Mapping, 0, h.MappingCount)
	cur, err := bytecursor.New(buf).Seek(int(h.MappingOffset))
	if err != nil {
		return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "mapping_table", uint64(h.MappingOffset), err)
	}
	for i := uint32(0); i < h.MappingCount; i++ {
		var m Mapping
		if m.VMAddr, err = cur.ReadU64(byteOrder); err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "mapping_table", uint64(cur.Pos()), err)
		}
		if m.VMSize, err = cur.ReadU64(byteOrder); err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "mapping_table", uint64(cur.Pos()), err)
		}
		if m.FileOff, err = cur.ReadU64(byteOrder); err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "mapping_table", uint64(cur.Pos()), err)
		}
		if m.MaxProt, err = cur.ReadU32(byteOrder); err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "mapping_table", uint64(cur.Pos()), err)
		}
		if m.InitProt, err = cur.ReadU32(byteOrder); err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "mapping_table", uint64(cur.Pos()), err)
		}
		out = append(out, m)
	}
	return out, nil
}
