package dyld

import (
	"github.com/appsworld/machoscope/pkg/bytecursor"
	"github.com/appsworld/machoscope/pkg/machoerr"
)

// Image is one dylib embedded in the cache, normalized across the
// legacy and modern on-disk image-entry formats.
type Image struct {
	Path      string
	Address   uint64
	UUID      [16]byte
	HasUUID   bool
	TextSize  uint64
}

const (
	legacyImageEntrySize = 32 // {addr, modtime, inode, path_off, pad}
	modernImageEntrySize = 32 // {uuid[16], load_addr, text_segment_size, path_off}
)

// ParseImages reads the image list, choosing the legacy or modern entry
// format based on which offset/count pair the header populated.
func ParseImages(buf []byte, h *Header) ([]Image, error) {
	if h.ImagesCount == 0 && h.ImagesTextCount > 0 {
		return parseModernImages(buf, h.ImagesTextOffset, h.ImagesTextCount)
	}
	if h.ImagesTextCount > 0 {
		return parseModernImages(buf, h.ImagesTextOffset, h.ImagesTextCount)
	}
	return parseLegacyImages(buf, h.ImagesOffset, h.ImagesCount)
}

func parseLegacyImages(buf []byte, offset, count uint32) ([]Image, error) {
	out := make([]Image, 0, count)
	cur, err := bytecursor.New(buf).Seek(int(offset))
	if err != nil {
		return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(offset), err)
	}
	for i := uint32(0); i < count; i++ {
		entryStart := cur.Pos()
		addr, err := cur.ReadU64(byteOrder)
		if err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(entryStart), err)
		}
		if err := cur.Advance(8); err != nil { // modtime
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(entryStart), err)
		}
		if err := cur.Advance(8); err != nil { // inode
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(entryStart), err)
		}
		pathOff, err := cur.ReadU32(byteOrder)
		if err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(entryStart), err)
		}
		if err := cur.Advance(4); err != nil { // pad
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(entryStart), err)
		}
		path, err := cur.CStringAt(int(pathOff))
		if err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(pathOff), err)
		}
		out = append(out, Image{Path: path, Address: addr})
	}
	return out, nil
}

func parseModernImages(buf []byte, offset, count uint32) ([]Image, error) {
	out := make([]Image, 0, count)
	cur, err := bytecursor.New(buf).Seek(int(offset))
	if err != nil {
		return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(offset), err)
	}
	for i := uint32(0); i < count; i++ {
		entryStart := cur.Pos()
		uuidBytes, err := cur.Slice(16)
		if err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(entryStart), err)
		}
		loadAddr, err := cur.ReadU64(byteOrder)
		if err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(entryStart), err)
		}
		textSize, err := cur.ReadU32(byteOrder)
		if err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(entryStart), err)
		}
		pathOff, err := cur.ReadU32(byteOrder)
		if err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(entryStart), err)
		}
		path, err := cur.CStringAt(int(pathOff))
		if err != nil {
			return nil, machoerr.New(machoerr.KindRangeOutOfBounds, "image_table", uint64(pathOff), err)
		}
		img := Image{Path: path, Address: loadAddr, TextSize: uint64(textSize), HasUUID: true}
		copy(img.UUID[:], uuidBytes)
		out = append(out, img)
	}
	return out, nil
}

// SubCacheName returns the sibling filename for the n-th (1-indexed)
// sub-cache of a split dyld_shared_cache, e.g. base=".01".
func SubCacheName(base string, n int) string {
	if n <= 0 {
		return base
	}
	return base + subCacheSuffix(n)
}

func subCacheSuffix(n int) string {
	const digits = "0123456789"
	if n < 10 {
		return "." + string(digits[0]) + string(digits[n])
	}
	hi := digits[n/10]
	lo := digits[n%10]
	return "." + string(hi) + string(lo)
}

// SymbolsCacheName returns the optional ".symbols" sibling file name.
func SymbolsCacheName(base string) string {
	return base + ".symbols"
}
