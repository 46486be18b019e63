package fixupchains

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/appsworld/machoscope/types"
)

// This file defines the on-disk layout and decoded pointer-record model
// that the chain walker in fixupchains.go operates on. Each chained
// pointer format gets its own record type carrying the raw bit pattern
// (Pointer) alongside the file offset it was read from (Fixup), so a
// decoded record is self-describing without needing the walker that
// produced it.

// DCSymbolsFormat are values for dyld_chained_fixups_header.symbols_format.
type DCSymbolsFormat uint32

const (
	DC_SFORMAT_UNCOMPRESSED    DCSymbolsFormat = 0
	DC_SFORMAT_ZLIB_COMPRESSED DCSymbolsFormat = 1
)

// DCImportsFormat are values for dyld_chained_fixups_header.imports_format.
type DCImportsFormat uint32

const (
	DC_IMPORT          DCImportsFormat = 1
	DC_IMPORT_ADDEND   DCImportsFormat = 2
	DC_IMPORT_ADDEND64 DCImportsFormat = 3
)

// DyldChainedFixupsHeader is the header of the LC_DYLD_CHAINED_FIXUPS payload.
type DyldChainedFixupsHeader struct {
	FixupsVersion uint32          // 0
	StartsOffset  uint32          // offset of DyldChainedStartsInImage in chain_data
	ImportsOffset uint32          // offset of imports table in chain_data
	SymbolsOffset uint32          // offset of symbol strings in chain_data
	ImportsCount  uint32          // number of imported symbol names
	ImportsFormat DCImportsFormat // DYLD_CHAINED_IMPORT*
	SymbolsFormat DCSymbolsFormat // 0 => uncompressed, 1 => zlib compressed
}

// DCPtrKind are values for dyld_chained_starts_in_segment.pointer_format.
type DCPtrKind uint16

const (
	DYLD_CHAINED_PTR_ARM64E              DCPtrKind = 1 // stride 8, unauth target is vmaddr
	DYLD_CHAINED_PTR_64                  DCPtrKind = 2 // target is vmaddr
	DYLD_CHAINED_PTR_32                  DCPtrKind = 3
	DYLD_CHAINED_PTR_32_CACHE            DCPtrKind = 4
	DYLD_CHAINED_PTR_32_FIRMWARE         DCPtrKind = 5
	DYLD_CHAINED_PTR_64_OFFSET           DCPtrKind = 6 // target is vm offset
	DYLD_CHAINED_PTR_ARM64E_KERNEL       DCPtrKind = 7 // stride 4, unauth target is vm offset
	DYLD_CHAINED_PTR_64_KERNEL_CACHE     DCPtrKind = 8
	DYLD_CHAINED_PTR_ARM64E_USERLAND     DCPtrKind = 9  // stride 8, unauth target is vm offset
	DYLD_CHAINED_PTR_ARM64E_FIRMWARE     DCPtrKind = 10 // stride 4, unauth target is vmaddr
	DYLD_CHAINED_PTR_X86_64_KERNEL_CACHE DCPtrKind = 11 // stride 1, x86_64 kernel caches
	DYLD_CHAINED_PTR_ARM64E_USERLAND24   DCPtrKind = 12 // stride 8, unauth target is vm offset, 24-bit bind
	DYLD_CHAINED_PTR_ARM64E_SHARED_CACHE DCPtrKind = 13 // stride 8, used by arm64e entries inside a dyld_shared_cache
	DYLD_CHAINED_PTR_ARM64E_SEGMENTED    DCPtrKind = 14 // stride 4, firmware/kernel variant with a segment-relative target
)

// DyldChainedStartsInSegment is embedded in dyld_chained_starts_in_image
// and passed down to the kernel for page-in linking.
type DyldChainedStartsInSegment struct {
	Size            uint32    // size of this (amount kernel needs to copy)
	PageSize        uint16    // 0x1000 or 0x4000
	PointerFormat   DCPtrKind // DYLD_CHAINED_PTR_*
	SegmentOffset   uint64    // offset in memory to start of segment
	MaxValidPointer uint32    // for 32-bit OS, any value beyond this is not a pointer
	PageCount       uint16    // how many pages are in array
	// page_start[] and, for 32-bit formats needing more than one start
	// per page, chain_starts[] follow in the wire payload and are read
	// separately into DyldChainedStarts.PageStarts.
}

// DCPtrStart is an entry in dyld_chained_starts_in_segment.page_start[].
type DCPtrStart uint16

const (
	DYLD_CHAINED_PTR_START_NONE  DCPtrStart = 0xFFFF // used in page_start[] to denote a page with no fixups
	DYLD_CHAINED_PTR_START_MULTI DCPtrStart = 0x8000 // used in page_start[] to denote a page which has multiple starts
	DYLD_CHAINED_PTR_START_LAST  DCPtrStart = 0x8000 // used in chain_starts[] to denote last start in list for page
)

// DyldChainedStarts pairs a segment's page-start table with the fixups
// discovered by walking it, so callers don't have to re-walk a chain
// they've already seen.
type DyldChainedStarts struct {
	DyldChainedStartsInSegment
	PageStarts []DCPtrStart
	Fixups     []Fixup
}

// segmentRange indexes a segment's fixup-coverage window for binary search
// in findSegmentForOffset.
type segmentRange struct {
	start, end uint64
	index      int
}

// Fixup is satisfied by every decoded chained-pointer record, rebase or
// bind, and reports the file offset the pointer was read from.
type Fixup interface {
	Offset() uint64
}

// Rebase is a Fixup that resolves to a target address or image offset
// without consulting the imports table.
type Rebase interface {
	Fixup
	Target() uint64
}

// Auth is a Rebase whose pointer carries a pointer-authentication
// discriminant (diversity, address-diversity bit, and key).
type Auth interface {
	Rebase
	Diversity() uint64
	AddrDiv() bool
	Key() uint8
}

// Import is satisfied by a DYLD_CHAINED_IMPORT* table entry: it reports
// the offset of the imported symbol's name within the symbols pool.
type Import interface {
	NameOffset() uint64
}

// DcfImport is one resolved entry in a chained-fixups imports table: the
// raw DYLD_CHAINED_IMPORT* record together with the symbol name it names.
type DcfImport struct {
	Name   string
	Import Import
}

func (i DcfImport) String() string {
	return fmt.Sprintf("%s, %s", i.Name, i.Import)
}

// DyldChainedImport is a DYLD_CHAINED_IMPORT table entry.
type DyldChainedImport uint32

func (d DyldChainedImport) LibOrdinal() uint8 {
	return uint8(extractBits(uint64(d), 0, 8))
}
func (d DyldChainedImport) WeakImport() bool {
	return extractBits(uint64(d), 8, 1) != 0
}
func (d DyldChainedImport) NameOffset() uint64 {
	return extractBits(uint64(d), 9, 23)
}
func (d DyldChainedImport) String() string {
	return fmt.Sprintf("lib ordinal: %d, is_weak: %t", d.LibOrdinal(), d.WeakImport())
}

// DyldChainedImportAddend is a DYLD_CHAINED_IMPORT_ADDEND table entry.
type DyldChainedImportAddend struct {
	Import DyldChainedImport
	Addend int32
}

func (i DyldChainedImportAddend) NameOffset() uint64 { return i.Import.NameOffset() }
func (i DyldChainedImportAddend) String() string {
	return fmt.Sprintf("lib ordinal: %d, is_weak: %t, addend: %#x", i.Import.LibOrdinal(), i.Import.WeakImport(), i.Addend)
}

// DyldChainedImportAddend64 is a DYLD_CHAINED_IMPORT_ADDEND64 table entry:
// a packed lib_ordinal(16)/weak_import(1)/reserved(15)/name_offset(32)
// bitfield followed by a 64-bit addend.
type DyldChainedImportAddend64 struct {
	Raw    uint64
	Addend uint64
}

func (i DyldChainedImportAddend64) LibOrdinal() uint16 {
	return uint16(extractBits(i.Raw, 0, 16))
}
func (i DyldChainedImportAddend64) WeakImport() bool {
	return extractBits(i.Raw, 16, 1) != 0
}
func (i DyldChainedImportAddend64) NameOffset() uint64 {
	return extractBits(i.Raw, 32, 32)
}
func (i DyldChainedImportAddend64) String() string {
	return fmt.Sprintf("lib ordinal: %d, is_weak: %t, addend: %#x", i.LibOrdinal(), i.WeakImport(), i.Addend)
}

// DyldChainedFixups walks the page tables and pointer chains described
// by an LC_DYLD_CHAINED_FIXUPS payload, decoding each pointer it finds
// into the Fixup implementation matching its pointer format.
type DyldChainedFixups struct {
	DyldChainedFixupsHeader

	r  *bytes.Reader
	sr types.MachoReader
	bo binary.ByteOrder

	PointerFormat DCPtrKind
	Starts        []DyldChainedStarts
	Imports       []DcfImport

	fixups         map[uint64]Fixup
	chainsParsed   bool
	metadataParsed bool
	importsParsed  bool
	segmentIndex   []segmentRange
}

func extractBits(x uint64, start, nbits int) uint64 {
	return (x >> uint(start)) & ((uint64(1) << uint(nbits)) - 1)
}

// DcpArm64eIsBind reports whether a raw DYLD_CHAINED_PTR_ARM64E* pointer
// is a bind record.
func DcpArm64eIsBind(ptr uint64) bool {
	return extractBits(ptr, 62, 1) != 0
}

// DcpArm64eIsAuth reports whether a raw DYLD_CHAINED_PTR_ARM64E* pointer
// carries a pointer-authentication discriminant.
func DcpArm64eIsAuth(ptr uint64) bool {
	return extractBits(ptr, 63, 1) != 0
}

// DcpArm64eIsRebase reports whether a raw DYLD_CHAINED_PTR_ARM64E*
// pointer is a plain, non-authenticated rebase.
func DcpArm64eIsRebase(ptr uint64) bool {
	return !DcpArm64eIsBind(ptr) && !DcpArm64eIsAuth(ptr)
}

// DcpArm64eNext returns the chain-stride count to the next fixup for a
// raw DYLD_CHAINED_PTR_ARM64E* pointer.
func DcpArm64eNext(ptr uint64) uint64 {
	return extractBits(ptr, 51, 11)
}

// Generic64IsBind reports whether a raw DYLD_CHAINED_PTR_64* pointer is
// a bind record.
func Generic64IsBind(ptr uint64) bool {
	return extractBits(ptr, 63, 1) != 0
}

// Generic64Next returns the chain-stride count to the next fixup for a
// raw DYLD_CHAINED_PTR_64* pointer.
func Generic64Next(ptr uint64) uint64 {
	return extractBits(ptr, 51, 12)
}

// Generic32IsBind reports whether a raw DYLD_CHAINED_PTR_32 pointer is
// a bind record.
func Generic32IsBind(ptr uint32) bool {
	return extractBits(uint64(ptr), 31, 1) != 0
}

// Generic32Next returns the chain-stride count to the next fixup for a
// raw DYLD_CHAINED_PTR_32 pointer.
func Generic32Next(ptr uint32) uint64 {
	return extractBits(uint64(ptr), 26, 5)
}

// PointerSize reports the on-disk width, in bytes, of a chained pointer
// encoded in the given format.
func PointerSize(format DCPtrKind) int {
	switch format {
	case DYLD_CHAINED_PTR_32, DYLD_CHAINED_PTR_32_CACHE, DYLD_CHAINED_PTR_32_FIRMWARE:
		return 4
	default:
		return 8
	}
}

func pointerSize(format DCPtrKind) int {
	return PointerSize(format)
}

// stride returns the chain-stride unit, in bytes, for the given pointer
// format: the "next" field in each record counts in multiples of this.
func stride(format DCPtrKind) uint64 {
	switch format {
	case DYLD_CHAINED_PTR_ARM64E, DYLD_CHAINED_PTR_ARM64E_USERLAND, DYLD_CHAINED_PTR_ARM64E_USERLAND24,
		DYLD_CHAINED_PTR_ARM64E_SHARED_CACHE:
		return 8
	case DYLD_CHAINED_PTR_ARM64E_KERNEL, DYLD_CHAINED_PTR_ARM64E_FIRMWARE, DYLD_CHAINED_PTR_ARM64E_SEGMENTED:
		return 4
	case DYLD_CHAINED_PTR_X86_64_KERNEL_CACHE:
		return 1
	default:
		return 4
	}
}

func keyName(key uint64) string {
	names := []string{"IA", "IB", "DA", "DB"}
	if key >= uint64(len(names)) {
		return "ERROR"
	}
	return names[key]
}

// DyldChainedPtrArm64eRebase is a DYLD_CHAINED_PTR_ARM64E* plain rebase.
type DyldChainedPtrArm64eRebase struct {
	Pointer uint64
	Fixup   uint64
}

func (d DyldChainedPtrArm64eRebase) Target() uint64 { return extractBits(d.Pointer, 0, 43) }
func (d DyldChainedPtrArm64eRebase) High8() uint64   { return extractBits(d.Pointer, 43, 8) }

// UnpackTarget reconstitutes the full runtime address by folding High8
// back into the top byte of Target.
func (d DyldChainedPtrArm64eRebase) UnpackTarget() uint64 {
	return d.Target() | (d.High8() << 43)
}
func (d DyldChainedPtrArm64eRebase) Offset() uint64 { return d.Fixup }
func (d DyldChainedPtrArm64eRebase) Next() uint64    { return extractBits(d.Pointer, 51, 11) }
func (d DyldChainedPtrArm64eRebase) String() string {
	return fmt.Sprintf("offset: %#x, target: %#x, next: %d, type: rebase", d.Fixup, d.UnpackTarget(), d.Next())
}

// DyldChainedPtrArm64eBind is a DYLD_CHAINED_PTR_ARM64E* bind.
type DyldChainedPtrArm64eBind struct {
	Pointer uint64
	Fixup   uint64
	Import  string
}

func (d DyldChainedPtrArm64eBind) Ordinal() uint64 { return extractBits(d.Pointer, 0, 16) }
func (d DyldChainedPtrArm64eBind) Addend() uint64  { return extractBits(d.Pointer, 32, 19) }
func (d DyldChainedPtrArm64eBind) SignExtendedAddend() int64 {
	addend := extractBits(d.Pointer, 32, 19)
	if addend&0x40000 != 0 {
		return int64(addend | 0xFFFFFFFFFFFC0000)
	}
	return int64(addend)
}
func (d DyldChainedPtrArm64eBind) Offset() uint64 { return d.Fixup }
func (d DyldChainedPtrArm64eBind) Next() uint64    { return extractBits(d.Pointer, 51, 11) }
func (d DyldChainedPtrArm64eBind) String() string {
	return fmt.Sprintf("offset: %#x, ordinal: %d, import: %s, next: %d, type: bind", d.Fixup, d.Ordinal(), d.Import, d.Next())
}

// DyldChainedPtrArm64eAuthRebase is a DYLD_CHAINED_PTR_ARM64E* authenticated rebase.
type DyldChainedPtrArm64eAuthRebase struct {
	Pointer uint64
	Fixup   uint64
}

func (d DyldChainedPtrArm64eAuthRebase) Target() uint64    { return extractBits(d.Pointer, 0, 32) }
func (d DyldChainedPtrArm64eAuthRebase) Diversity() uint64 { return extractBits(d.Pointer, 32, 16) }
func (d DyldChainedPtrArm64eAuthRebase) AddrDiv() bool      { return extractBits(d.Pointer, 48, 1) != 0 }
func (d DyldChainedPtrArm64eAuthRebase) Key() uint8         { return uint8(extractBits(d.Pointer, 49, 2)) }
func (d DyldChainedPtrArm64eAuthRebase) Offset() uint64     { return d.Fixup }
func (d DyldChainedPtrArm64eAuthRebase) Next() uint64       { return extractBits(d.Pointer, 51, 11) }
func (d DyldChainedPtrArm64eAuthRebase) String() string {
	return fmt.Sprintf("offset: %#x, target: %#x, diversity: %#x, addrDiv: %t, key: %s, next: %d, type: auth-rebase",
		d.Fixup, d.Target(), d.Diversity(), d.AddrDiv(), keyName(uint64(d.Key())), d.Next())
}

// DyldChainedPtrArm64eAuthBind is a DYLD_CHAINED_PTR_ARM64E* authenticated bind.
type DyldChainedPtrArm64eAuthBind struct {
	Pointer uint64
	Fixup   uint64
	Import  string
}

func (d DyldChainedPtrArm64eAuthBind) Ordinal() uint64    { return extractBits(d.Pointer, 0, 16) }
func (d DyldChainedPtrArm64eAuthBind) Diversity() uint64  { return extractBits(d.Pointer, 32, 16) }
func (d DyldChainedPtrArm64eAuthBind) AddrDiv() bool       { return extractBits(d.Pointer, 48, 1) != 0 }
func (d DyldChainedPtrArm64eAuthBind) Key() uint8          { return uint8(extractBits(d.Pointer, 49, 2)) }
func (d DyldChainedPtrArm64eAuthBind) Offset() uint64      { return d.Fixup }
func (d DyldChainedPtrArm64eAuthBind) Next() uint64        { return extractBits(d.Pointer, 51, 11) }
func (d DyldChainedPtrArm64eAuthBind) String() string {
	return fmt.Sprintf("offset: %#x, ordinal: %d, import: %s, next: %d, type: auth-bind", d.Fixup, d.Ordinal(), d.Import, d.Next())
}

// DyldChainedPtrArm64eBind24 is the 24-bit-ordinal USERLAND24 bind.
type DyldChainedPtrArm64eBind24 struct {
	Pointer uint64
	Fixup   uint64
	Import  string
}

func (d DyldChainedPtrArm64eBind24) Ordinal() uint64 { return extractBits(d.Pointer, 0, 24) }
func (d DyldChainedPtrArm64eBind24) Addend() uint64  { return extractBits(d.Pointer, 32, 19) }
func (d DyldChainedPtrArm64eBind24) SignExtendedAddend() int64 {
	addend := extractBits(d.Pointer, 32, 19)
	if addend&0x40000 != 0 {
		return int64(addend | 0xFFFFFFFFFFFC0000)
	}
	return int64(addend)
}
func (d DyldChainedPtrArm64eBind24) Offset() uint64 { return d.Fixup }
func (d DyldChainedPtrArm64eBind24) Next() uint64    { return extractBits(d.Pointer, 51, 11) }
func (d DyldChainedPtrArm64eBind24) String() string {
	return fmt.Sprintf("offset: %#x, ordinal: %d, import: %s, next: %d, type: bind24", d.Fixup, d.Ordinal(), d.Import, d.Next())
}

// DyldChainedPtrArm64eAuthBind24 is the 24-bit-ordinal USERLAND24 authenticated bind.
type DyldChainedPtrArm64eAuthBind24 struct {
	Pointer uint64
	Fixup   uint64
	Import  string
}

func (d DyldChainedPtrArm64eAuthBind24) Ordinal() uint64   { return extractBits(d.Pointer, 0, 24) }
func (d DyldChainedPtrArm64eAuthBind24) Diversity() uint64 { return extractBits(d.Pointer, 32, 16) }
func (d DyldChainedPtrArm64eAuthBind24) AddrDiv() bool      { return extractBits(d.Pointer, 48, 1) != 0 }
func (d DyldChainedPtrArm64eAuthBind24) Key() uint8         { return uint8(extractBits(d.Pointer, 49, 2)) }
func (d DyldChainedPtrArm64eAuthBind24) Offset() uint64     { return d.Fixup }
func (d DyldChainedPtrArm64eAuthBind24) Next() uint64       { return extractBits(d.Pointer, 51, 11) }
func (d DyldChainedPtrArm64eAuthBind24) String() string {
	return fmt.Sprintf("offset: %#x, ordinal: %d, import: %s, next: %d, type: auth-bind24", d.Fixup, d.Ordinal(), d.Import, d.Next())
}

// DyldChainedPtr64Rebase is a DYLD_CHAINED_PTR_64 plain rebase.
type DyldChainedPtr64Rebase struct {
	Pointer uint64
	Fixup   uint64
}

func (d DyldChainedPtr64Rebase) Target() uint64 { return extractBits(d.Pointer, 0, 36) }
func (d DyldChainedPtr64Rebase) High8() uint64   { return extractBits(d.Pointer, 36, 8) }
func (d DyldChainedPtr64Rebase) UnpackedTarget() uint64 {
	return d.Target() | (d.High8() << 36)
}
func (d DyldChainedPtr64Rebase) Offset() uint64 { return d.Fixup }
func (d DyldChainedPtr64Rebase) Next() uint64    { return extractBits(d.Pointer, 51, 12) }
func (d DyldChainedPtr64Rebase) String() string {
	return fmt.Sprintf("offset: %#x, target: %#x, next: %d, type: rebase", d.Fixup, d.UnpackedTarget(), d.Next())
}

// DyldChainedPtr64RebaseOffset is a DYLD_CHAINED_PTR_64_OFFSET plain rebase.
type DyldChainedPtr64RebaseOffset struct {
	Pointer uint64
	Fixup   uint64
}

func (d DyldChainedPtr64RebaseOffset) Target() uint64 { return extractBits(d.Pointer, 0, 36) }
func (d DyldChainedPtr64RebaseOffset) High8() uint64   { return extractBits(d.Pointer, 36, 8) }
func (d DyldChainedPtr64RebaseOffset) UnpackedTarget() uint64 {
	return d.Target() | (d.High8() << 36)
}
func (d DyldChainedPtr64RebaseOffset) Offset() uint64 { return d.Fixup }
func (d DyldChainedPtr64RebaseOffset) Next() uint64    { return extractBits(d.Pointer, 51, 12) }
func (d DyldChainedPtr64RebaseOffset) String() string {
	return fmt.Sprintf("offset: %#x, target: %#x, next: %d, type: rebase-offset", d.Fixup, d.UnpackedTarget(), d.Next())
}

// DyldChainedPtr64Bind is a DYLD_CHAINED_PTR_64/DYLD_CHAINED_PTR_64_OFFSET bind.
type DyldChainedPtr64Bind struct {
	Pointer uint64
	Fixup   uint64
	Import  string
}

func (d DyldChainedPtr64Bind) Ordinal() uint64 { return extractBits(d.Pointer, 0, 24) }
func (d DyldChainedPtr64Bind) Addend() uint64  { return extractBits(d.Pointer, 24, 8) }
func (d DyldChainedPtr64Bind) Offset() uint64  { return d.Fixup }
func (d DyldChainedPtr64Bind) Next() uint64     { return extractBits(d.Pointer, 51, 12) }
func (d DyldChainedPtr64Bind) String() string {
	return fmt.Sprintf("offset: %#x, ordinal: %d, import: %s, next: %d, type: bind", d.Fixup, d.Ordinal(), d.Import, d.Next())
}

// DyldChainedPtr64KernelCacheRebase covers DYLD_CHAINED_PTR_64_KERNEL_CACHE
// and DYLD_CHAINED_PTR_X86_64_KERNEL_CACHE.
type DyldChainedPtr64KernelCacheRebase struct {
	Pointer uint64
	Fixup   uint64
}

func (d DyldChainedPtr64KernelCacheRebase) Target() uint64     { return extractBits(d.Pointer, 0, 30) }
func (d DyldChainedPtr64KernelCacheRebase) CacheLevel() uint64 { return extractBits(d.Pointer, 30, 2) }
func (d DyldChainedPtr64KernelCacheRebase) Diversity() uint64  { return extractBits(d.Pointer, 32, 16) }
func (d DyldChainedPtr64KernelCacheRebase) AddrDiv() bool       { return extractBits(d.Pointer, 48, 1) != 0 }
func (d DyldChainedPtr64KernelCacheRebase) Key() uint8          { return uint8(extractBits(d.Pointer, 49, 2)) }
func (d DyldChainedPtr64KernelCacheRebase) IsAuth() bool        { return extractBits(d.Pointer, 63, 1) != 0 }
func (d DyldChainedPtr64KernelCacheRebase) Offset() uint64      { return d.Fixup }
func (d DyldChainedPtr64KernelCacheRebase) Next() uint64 {
	return extractBits(d.Pointer, 51, 12)
}
func (d DyldChainedPtr64KernelCacheRebase) String() string {
	return fmt.Sprintf("offset: %#x, target: %#x, cacheLevel: %d, is_auth: %t, next: %d, type: kernel-cache-rebase",
		d.Fixup, d.Target(), d.CacheLevel(), d.IsAuth(), d.Next())
}

// DyldChainedPtr32Rebase is a DYLD_CHAINED_PTR_32 plain rebase.
type DyldChainedPtr32Rebase struct {
	Pointer uint32
	Fixup   uint64
}

func (d DyldChainedPtr32Rebase) Target() uint64 { return extractBits(uint64(d.Pointer), 0, 26) }
func (d DyldChainedPtr32Rebase) Offset() uint64  { return d.Fixup }
func (d DyldChainedPtr32Rebase) Next() uint32    { return uint32(extractBits(uint64(d.Pointer), 26, 5)) }
func (d DyldChainedPtr32Rebase) String() string {
	return fmt.Sprintf("offset: %#x, target: %#x, next: %d, type: rebase", d.Fixup, d.Target(), d.Next())
}

// DyldChainedPtr32Bind is a DYLD_CHAINED_PTR_32 bind.
type DyldChainedPtr32Bind struct {
	Pointer uint32
	Fixup   uint64
	Import  string
}

func (d DyldChainedPtr32Bind) Ordinal() uint64 { return extractBits(uint64(d.Pointer), 0, 20) }
func (d DyldChainedPtr32Bind) Addend() uint32  { return uint32(extractBits(uint64(d.Pointer), 20, 6)) }
func (d DyldChainedPtr32Bind) Offset() uint64  { return d.Fixup }
func (d DyldChainedPtr32Bind) Next() uint32     { return uint32(extractBits(uint64(d.Pointer), 26, 5)) }
func (d DyldChainedPtr32Bind) String() string {
	return fmt.Sprintf("offset: %#x, ordinal: %d, import: %s, next: %d, type: bind", d.Fixup, d.Ordinal(), d.Import, d.Next())
}

// DyldChainedPtr32CacheRebase is a DYLD_CHAINED_PTR_32_CACHE rebase.
type DyldChainedPtr32CacheRebase struct {
	Pointer uint32
	Fixup   uint64
}

func (d DyldChainedPtr32CacheRebase) Target() uint64 { return extractBits(uint64(d.Pointer), 0, 30) }
func (d DyldChainedPtr32CacheRebase) Offset() uint64  { return d.Fixup }
func (d DyldChainedPtr32CacheRebase) Next() uint32     { return uint32(extractBits(uint64(d.Pointer), 30, 2)) }
func (d DyldChainedPtr32CacheRebase) String() string {
	return fmt.Sprintf("offset: %#x, target: %#x, next: %d, type: cache-rebase", d.Fixup, d.Target(), d.Next())
}

// DyldChainedPtr32FirmwareRebase is a DYLD_CHAINED_PTR_32_FIRMWARE rebase.
type DyldChainedPtr32FirmwareRebase struct {
	Pointer uint32
	Fixup   uint64
}

func (d DyldChainedPtr32FirmwareRebase) Target() uint64 { return extractBits(uint64(d.Pointer), 0, 26) }
func (d DyldChainedPtr32FirmwareRebase) Offset() uint64  { return d.Fixup }
func (d DyldChainedPtr32FirmwareRebase) Next() uint32 {
	return uint32(extractBits(uint64(d.Pointer), 26, 6))
}
func (d DyldChainedPtr32FirmwareRebase) String() string {
	return fmt.Sprintf("offset: %#x, target: %#x, next: %d, type: firmware-rebase", d.Fixup, d.Target(), d.Next())
}
