package macho

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/appsworld/machoscope/pkg/fixupchains"
)

// GetObjC looks up an already-decoded Objective-C class or protocol by
// its vm address in the per-file address→object cache described in
// spec §3 ("Class/protocol caches"). Classes are cached as they are
// parsed by GetObjCClass; protocols by getObjcProtocol.
func (f *File) GetObjC(addr uint64) (interface{}, bool) {
	if c, ok := f.objc[addr]; ok {
		return c, true
	}
	if p, ok := f.protoCache[addr]; ok {
		return p, true
	}
	return nil, false
}

// rebasePtr decodes a raw pointer value read from class/protocol
// metadata into a vm address, trying the chained-fixup rebase/bind
// decode first and, for pointers found inside a dyld_shared_cache
// image, the three shared-cache strategies from spec §4.6.
func (f *File) rebasePtr(raw uint64) uint64 {
	if raw == 0 {
		return 0
	}
	if f.HasFixups() && fixupchains.DcpArm64eIsRebase(raw) {
		return f.convertToVMAddr(raw)
	}
	if len(f.dscMappings) > 0 {
		if addr, _, ok := fixupchains.DecodeDscPointer(raw, f.dscSharedRegionBase, f.dscMappings); ok {
			return addr
		}
	}
	return raw
}

// GetPointerAtAddress reads the pointer-sized value stored at a vm
// address and resolves it the same way rebasePtr resolves a value
// already in hand, returning the decoded target address.
func (f *File) GetPointerAtAddress(addr uint64) (uint64, error) {
	off, err := f.vma.GetOffset(addr)
	if err != nil {
		return 0, fmt.Errorf("failed to convert vmaddr %#x: %v", addr, err)
	}
	if _, err := f.cr.Seek(int64(off), io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek to offset %#x: %v", off, err)
	}

	var raw uint64
	if f.pointerSize() == 8 {
		if err := binary.Read(f.cr, f.ByteOrder, &raw); err != nil {
			return 0, fmt.Errorf("failed to read pointer at %#x: %v", addr, err)
		}
	} else {
		var raw32 uint32
		if err := binary.Read(f.cr, f.ByteOrder, &raw32); err != nil {
			return 0, fmt.Errorf("failed to read pointer at %#x: %v", addr, err)
		}
		raw = uint64(raw32)
	}
	return f.rebasePtr(raw), nil
}

// GetSlidPointerAtAddress is GetPointerAtAddress with the result cached
// by address, since the same metadata pointer is often re-read while
// walking class/protocol hierarchies.
func (f *File) GetSlidPointerAtAddress(addr uint64) (uint64, error) {
	if f.slidPointerCache == nil {
		f.slidPointerCache = make(map[uint64]uint64)
	}
	if v, ok := f.slidPointerCache[addr]; ok {
		return v, nil
	}
	v, err := f.GetPointerAtAddress(addr)
	if err != nil {
		return 0, err
	}
	f.slidPointerCache[addr] = v
	return v, nil
}

// SlidePointer decodes a raw pointer value already in hand the same way
// GetPointerAtAddress decodes one read from memory, without re-reading it.
func (f *File) SlidePointer(raw uint64) uint64 {
	return f.rebasePtr(raw)
}

// ResetFixupsCache discards the memoized GetSlidPointerAtAddress results,
// forcing the next lookup of each address to re-decode its fixup.
func (f *File) ResetFixupsCache() {
	f.slidPointerCache = nil
}

// symbolLookup finds the exported or imported symbol name whose value
// equals addr, falling back to the chained-fixup bind table.
func (f *File) symbolLookup(addr uint64) (string, error) {
	if f.Symtab != nil {
		for _, sym := range f.Symtab.Syms {
			if sym.Value == addr && sym.Name != "" {
				return sym.Name, nil
			}
		}
	}
	if name, err := f.GetBindName(addr); err == nil && name != "" {
		return name, nil
	}
	return "", fmt.Errorf("no symbol found at address %#x", addr)
}

