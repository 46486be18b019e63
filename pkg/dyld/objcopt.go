package dyld

import (
	"fmt"

	"github.com/appsworld/machoscope/pkg/bytecursor"
	"github.com/appsworld/machoscope/pkg/machoerr"
)

// ObjCOptHeader is the ObjC optimization header embedded either at
// header.objc_opt_offset (older caches) or inside libobjc.A.dylib's
// __TEXT.__objc_opt_ro section (modern caches).
type ObjCOptHeader struct {
	Version                          uint32
	Flags                            uint32
	SelectorOptOff                   int32
	HeaderROOff                      int32
	ClassOptOff                      int32
	ProtocolOptOff                   int32
	HeaderRWOff                      int32
	RelativeMethodSelectorBaseOffset int64
}

// ParseObjCOptHeader reads the ObjC optimization header from buf, which
// must begin exactly at the header's own start (either the
// header.objc_opt_offset file position or the start of __objc_opt_ro).
func ParseObjCOptHeader(buf []byte) (*ObjCOptHeader, error) {
	cur := bytecursor.New(buf)
	h := &ObjCOptHeader{}
	var err error

	if h.Version, err = cur.ReadU32(byteOrder); err != nil {
		return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "objc_opt", 0, err)
	}
	if h.Flags, err = cur.ReadU32(byteOrder); err != nil {
		return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "objc_opt", 0, err)
	}
	readI32 := func() (int32, error) {
		v, e := cur.ReadU32(byteOrder)
		return int32(v), e
	}
	if h.SelectorOptOff, err = readI32(); err != nil {
		return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "objc_opt", 0, err)
	}
	if h.HeaderROOff, err = readI32(); err != nil {
		return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "objc_opt", 0, err)
	}
	if h.ClassOptOff, err = readI32(); err != nil {
		return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "objc_opt", 0, err)
	}
	if h.ProtocolOptOff, err = readI32(); err != nil {
		return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "objc_opt", 0, err)
	}
	if h.HeaderRWOff, err = readI32(); err != nil {
		return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "objc_opt", 0, err)
	}
	// Trailing fields vary by cache version; relative_method_selector_base
	// is the one this reader needs and always follows header_rw_off on
	// caches new enough to carry small (direct-selector) methods.
	if cur.Remaining() >= 8 {
		v, e := cur.ReadU64(byteOrder)
		if e == nil {
			h.RelativeMethodSelectorBaseOffset = int64(v)
		}
	}
	return h, nil
}

// SelectorBase computes the vm address small methods' relative selector
// offsets are based from, and validates it falls inside one of mappings.
func (h *ObjCOptHeader) SelectorBase(optHeaderVM uint64, mappings []Mapping) (uint64, error) {
	base := uint64(int64(optHeaderVM) + h.RelativeMethodSelectorBaseOffset)
	for _, m := range mappings {
		if base >= m.VMAddr && base < m.VMAddr+m.VMSize {
			return base, nil
		}
	}
	return 0, machoerr.New(machoerr.KindInconsistentMetadata, "objc_opt", base, fmt.Errorf("relative method selector base does not fall within any mapping"))
}
