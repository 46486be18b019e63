package macho

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/appsworld/machoscope/types"
)

// fatMagic32 and fatMagic64 are the big-endian and little-endian-host
// readings of Apple's 32-bit and 64-bit fat_header magic values (spec
// §4.3). A fat archive is always stored big-endian on disk regardless
// of the slices it contains, so the byte-swapped constants exist only
// to recognize a file opened with the wrong assumed order.
const (
	fatMagic32    uint32 = 0xcafebabe
	fatMagic32Rev uint32 = 0xbebafeca
	fatMagic64    uint32 = 0xcafebabf
	fatMagic64Rev uint32 = 0xbfbafeca
)

// ArchPreference names one (cputype, cpusubtype) pair a caller would
// like selected from a fat archive. An empty slice of preferences means
// "host default" (spec §6.1); Select picks the first arch in the
// archive when no preference is supplied or none of the preferences
// match, mirroring the common case of a single-slice universal binary.
type ArchPreference struct {
	CPU    types.CPU
	SubCPU types.CPUSubtype
}

// FatArch describes one architecture-specific slice inside a fat/
// universal Mach-O archive.
type FatArch struct {
	CPU      types.CPU
	SubCPU   types.CPUSubtype
	Offset   uint64
	Size     uint64
	Align    uint32
	Is64Bit  bool
}

// FatFile is a parsed fat_header plus its fat_arch (or fat_arch_64)
// table; it does not itself hold slice contents, only the directory
// needed to locate one (spec §4.3).
type FatFile struct {
	Magic uint32
	Arches []FatArch
}

// IsFatMagic reports whether magic is one of the four fat-archive magic
// numbers spec §4.3 enumerates (32- and 64-bit fat_header, each in its
// on-disk big-endian form and its byte-swapped form).
func IsFatMagic(magic uint32) bool {
	switch magic {
	case fatMagic32, fatMagic32Rev, fatMagic64, fatMagic64Rev:
		return true
	default:
		return false
	}
}

// NewFatFile parses a fat archive's header and architecture table from
// the start of r. It does not validate that each listed slice is itself
// a well-formed Mach-O image; that happens lazily when the slice is
// selected and handed to NewFile.
func NewFatFile(r io.ReaderAt) (*FatFile, error) {
	var magicBuf [4]byte
	if _, err := r.ReadAt(magicBuf[:], 0); err != nil {
		return nil, fmt.Errorf("failed to read fat magic: %v", err)
	}
	magic := binary.BigEndian.Uint32(magicBuf[:])

	var bo binary.ByteOrder = binary.BigEndian
	is64 := false
	switch magic {
	case fatMagic32:
		// on-disk order, 32-bit arch entries
	case fatMagic32Rev:
		bo = binary.LittleEndian
	case fatMagic64:
		is64 = true
	case fatMagic64Rev:
		is64 = true
		bo = binary.LittleEndian
	default:
		return nil, fmt.Errorf("not a fat archive: magic %#x", magic)
	}

	sr := io.NewSectionReader(r, 0, 1<<63-1)
	if _, err := sr.Seek(4, io.SeekStart); err != nil {
		return nil, err
	}

	var nfatArch uint32
	if err := binary.Read(sr, bo, &nfatArch); err != nil {
		return nil, fmt.Errorf("failed to read fat_header.nfat_arch: %v", err)
	}
	if nfatArch == 0 || nfatArch > 1024 {
		return nil, fmt.Errorf("implausible fat_header.nfat_arch: %d", nfatArch)
	}

	ff := &FatFile{Magic: magic}
	for i := uint32(0); i < nfatArch; i++ {
		var arch FatArch
		arch.Is64Bit = is64
		if is64 {
			var raw struct {
				CPUType    uint32
				CPUSubtype uint32
				Offset     uint64
				Size       uint64
				Align      uint32
				Reserved   uint32
			}
			if err := binary.Read(sr, bo, &raw); err != nil {
				return nil, fmt.Errorf("failed to read fat_arch_64[%d]: %v", i, err)
			}
			arch.CPU = types.CPU(raw.CPUType)
			arch.SubCPU = types.CPUSubtype(raw.CPUSubtype)
			arch.Offset = raw.Offset
			arch.Size = raw.Size
			arch.Align = raw.Align
		} else {
			var raw struct {
				CPUType    uint32
				CPUSubtype uint32
				Offset     uint32
				Size       uint32
				Align      uint32
			}
			if err := binary.Read(sr, bo, &raw); err != nil {
				return nil, fmt.Errorf("failed to read fat_arch[%d]: %v", i, err)
			}
			arch.CPU = types.CPU(raw.CPUType)
			arch.SubCPU = types.CPUSubtype(raw.CPUSubtype)
			arch.Offset = uint64(raw.Offset)
			arch.Size = uint64(raw.Size)
			arch.Align = raw.Align
		}
		ff.Arches = append(ff.Arches, arch)
	}

	return ff, nil
}

// Select picks the slice matching the first satisfiable preference, in
// preference order; with no preferences (or no match) it falls back to
// the archive's first slice, matching the host-default behavior spec
// §6.1 describes for an empty preference list.
func (ff *FatFile) Select(prefs []ArchPreference) (FatArch, error) {
	if len(ff.Arches) == 0 {
		return FatArch{}, fmt.Errorf("fat archive has no architecture slices")
	}
	for _, pref := range prefs {
		for _, arch := range ff.Arches {
			if arch.CPU == pref.CPU && (pref.SubCPU == 0 || arch.SubCPU == pref.SubCPU) {
				return arch, nil
			}
		}
	}
	return ff.Arches[0], nil
}

// OpenFatArch reads the fat/universal archive in r and returns the Mach-O
// slice matching prefs, composing NewFatFile, Select, and NewFile. The
// driver's openArch (process.go) calls it once it has seen a fat magic;
// a thin Mach-O passed here directly is rejected by NewFatFile.
func OpenFatArch(r io.ReaderAt, prefs []ArchPreference) (*File, FatArch, error) {
	ff, err := NewFatFile(r)
	if err != nil {
		return nil, FatArch{}, err
	}
	arch, err := ff.Select(prefs)
	if err != nil {
		return nil, FatArch{}, err
	}
	sr := io.NewSectionReader(r, int64(arch.Offset), int64(arch.Size))
	f, err := NewFile(sr)
	if err != nil {
		return nil, FatArch{}, fmt.Errorf("failed to parse slice at offset %#x: %v", arch.Offset, err)
	}
	return f, arch, nil
}
