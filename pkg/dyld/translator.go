package dyld

import (
	"fmt"
	"sort"

	"github.com/appsworld/machoscope/pkg/machoerr"
)

// CacheFile is one file backing a (possibly split) shared cache: its own
// header plus its own mapping table.
type CacheFile struct {
	Name     string
	Mappings []Mapping
}

// Translator resolves a vm address to a (file index, file offset) pair
// across every sub-cache file composing a split shared cache, by binary
// search over the sorted set of mapping address ranges.
type Translator struct {
	ranges []addrRange
}

type addrRange struct {
	start, end uint64 // [start, end)
	fileIndex  int
	fileOff    uint64
}

// NewTranslator builds a composite translator over files, which must be
// supplied in the order their FileIndex should be reported (conventionally
// the base cache first, then .01, .02, ...).
func NewTranslator(files []CacheFile) *Translator {
	var ranges []addrRange
	for fi, f := range files {
		for _, m := range f.Mappings {
			if m.VMSize == 0 {
				continue
			}
			ranges = append(ranges, addrRange{
				start:     m.VMAddr,
				end:       m.VMAddr + m.VMSize,
				fileIndex: fi,
				fileOff:   m.FileOff,
			})
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })
	return &Translator{ranges: ranges}
}

// Translate maps a vm address to the file index and file offset it lands
// in, or a range-error if no mapping covers it.
func (t *Translator) Translate(addr uint64) (fileIndex int, fileOff uint64, err error) {
	i := sort.Search(len(t.ranges), func(i int) bool { return t.ranges[i].end > addr })
	if i >= len(t.ranges) || addr < t.ranges[i].start {
		return 0, 0, machoerr.New(machoerr.KindRangeOutOfBounds, "dyld_translator", addr, fmt.Errorf("address not covered by any mapping"))
	}
	r := t.ranges[i]
	return r.fileIndex, r.fileOff + (addr - r.start), nil
}
