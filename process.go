package macho

import (
	"context"
	"io"
	"os"
	"sort"

	"github.com/appsworld/machoscope/pkg/concurrent"
	"github.com/appsworld/machoscope/pkg/dyld"
	"github.com/appsworld/machoscope/pkg/fixupchains"
	"github.com/appsworld/machoscope/pkg/interner"
	"github.com/appsworld/machoscope/pkg/machoerr"
	"github.com/appsworld/machoscope/pkg/registry"
	"github.com/appsworld/machoscope/pkg/trie"
	"github.com/appsworld/machoscope/types/objc"
	"github.com/appsworld/machoscope/types/swift/protocols"
	stypes "github.com/appsworld/machoscope/types/swift/types"
)

// ProcessOptions configures one call to Process (spec §4.14). ArchPrefs
// selects a slice out of a fat/universal input; it is ignored for a
// thin image. SwiftAutoDemangle is threaded down to File.swiftAutoDemangle.
type ProcessOptions struct {
	ArchPrefs         []ArchPreference
	SwiftAutoDemangle bool
}

// Model is the fully extracted, cross-referenced result of one Process
// call: every class, protocol, category and Swift type the image
// declares, plus the signature/structure registries built from them.
// Slices are sorted by name, except SwiftTypes, which keeps the order of
// the __swift5_types section; so two runs over the same input produce a
// byte-identical Model (spec §4.14, "deterministic ordering").
type Model struct {
	CPUArch string

	Classes    []*objc.Class
	Categories []objc.Category
	Protocols  []objc.Protocol
	CFStrings  []objc.CFString

	SwiftTypes     []stypes.TypeDescriptor
	SwiftProtocols []protocols.Protocol

	// ExportedSymbols is the dyld export trie (LC_DYLD_INFO[_ONLY]'s
	// export_off/export_size), decoded alongside the ObjC/Swift walks.
	// Absent on images with no dyld export info; never fatal.
	ExportedSymbols []trie.TrieEntry

	Signatures *registry.MethodSignatureRegistry
	Structs    *registry.StructureRegistry

	Interned int // count of distinct strings owned by the run's interner
}

// Process opens path (thin or fat) and runs the full extraction
// pipeline described in spec §4.14: fat/thin dispatch, Mach-O parse,
// parallel ObjC/Swift/protocol/category walks, then registry
// construction over the combined result.
func Process(ctx context.Context, path string, opts ProcessOptions) (*Model, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, machoerr.New(machoerr.KindInvalidInput, "", 0, err)
	}
	defer fh.Close()

	f, _, err := openArch(fh, opts.ArchPrefs)
	if err != nil {
		return nil, err
	}
	f.swiftAutoDemangle = opts.SwiftAutoDemangle

	return processFile(ctx, f)
}

// ProcessDSCImage extracts one image contained in a dyld_shared_cache.
// imageReader provides the bytes of the sub-cache file img was found
// in; header and mappings are that same sub-cache's parsed header and
// mapping table. Wiring them into the resulting File lets rebasePtr
// apply the three shared-cache pointer strategies from spec §4.6 to any
// pointer the image's ObjC/Swift metadata holds in place rather than on
// a chained-fixup chain.
func ProcessDSCImage(ctx context.Context, header *dyld.Header, mappings []dyld.Mapping, imageReader io.ReaderAt, img dyld.Image, opts ProcessOptions) (*Model, error) {
	sr := io.NewSectionReader(imageReader, 0, 1<<63-1)
	f, err := NewFile(sr)
	if err != nil {
		return nil, machoerr.New(machoerr.KindInvalidInput, img.Path, img.Address, err)
	}
	f.swiftAutoDemangle = opts.SwiftAutoDemangle
	f.dscSharedRegionBase = header.SharedRegionStart
	for _, m := range mappings {
		f.dscMappings = append(f.dscMappings, fixupchains.DscMappingRange{
			VMAddr:  m.VMAddr,
			VMSize:  m.VMSize,
			FileOff: m.FileOff,
		})
	}

	return processFile(ctx, f)
}

func openArch(r io.ReaderAt, prefs []ArchPreference) (*File, FatArch, error) {
	var magicBuf [4]byte
	if _, err := r.ReadAt(magicBuf[:], 0); err != nil {
		return nil, FatArch{}, machoerr.New(machoerr.KindInvalidInput, "", 0, err)
	}
	magic := beUint32(magicBuf)
	if IsFatMagic(magic) {
		return OpenFatArch(r, prefs)
	}
	f, err := NewFile(r)
	if err != nil {
		return nil, FatArch{}, machoerr.New(machoerr.KindInvalidInput, "", 0, err)
	}
	return f, FatArch{CPU: f.CPU, SubCPU: f.SubCPU}, nil
}

func beUint32(b [4]byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// processFile runs the parallel extraction phase over an already-opened
// slice, then the sequential registry-building and sort phase.
func processFile(ctx context.Context, f *File) (*Model, error) {
	interned := interner.New()

	var classes []*objc.Class
	var cats []objc.Category
	var protos []objc.Protocol
	var cfstrs []objc.CFString
	var swiftTypes *[]stypes.TypeDescriptor
	var swiftProtos *[]protocols.Protocol
	var exports []trie.TrieEntry

	err := concurrent.Run(ctx,
		func(ctx context.Context) error {
			var err error
			classes, err = f.GetObjCClasses()
			if err != nil {
				return machoerr.New(machoerr.KindInconsistentMetadata, "__objc_classlist", 0, err)
			}
			return nil
		},
		func(ctx context.Context) error {
			var err error
			cats, err = f.GetObjCCategories()
			if err != nil {
				return machoerr.New(machoerr.KindInconsistentMetadata, "__objc_catlist", 0, err)
			}
			return nil
		},
		func(ctx context.Context) error {
			var err error
			protos, err = f.GetObjCProtocols()
			if err != nil {
				return machoerr.New(machoerr.KindInconsistentMetadata, "__objc_protolist", 0, err)
			}
			return nil
		},
		func(ctx context.Context) error {
			var err error
			cfstrs, err = f.GetCFStrings()
			if err != nil {
				return machoerr.New(machoerr.KindInconsistentMetadata, "__cfstring", 0, err)
			}
			return nil
		},
		func(ctx context.Context) error {
			// Swift section absence is not fatal to an ObjC-only image.
			if t, err := f.GetSwiftTypes(); err == nil {
				swiftTypes = t
			}
			return nil
		},
		func(ctx context.Context) error {
			if p, err := f.GetSwiftProtocols(); err == nil {
				swiftProtos = p
			}
			return nil
		},
		func(ctx context.Context) error {
			// No LC_DYLD_INFO[_ONLY] export trie is not an error; it's
			// absent from plenty of valid images (e.g. static archives).
			if e, err := f.DyldExports(); err == nil {
				exports = e
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	for _, c := range classes {
		interned.Intern(c.Name)
	}
	for _, p := range protos {
		interned.Intern(p.Name)
	}

	sigReg := registry.NewMethodSignatureRegistry()
	structReg := registry.NewStructureRegistry()
	registerObjCSignatures(sigReg, structReg, protos, classes, cats)

	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	sort.Slice(protos, func(i, j int) bool { return protos[i].Name < protos[j].Name })
	sort.Slice(cfstrs, func(i, j int) bool { return cfstrs[i].Name < cfstrs[j].Name })
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })

	m := &Model{
		CPUArch:         f.CPU.String(),
		Classes:         classes,
		Categories:      cats,
		Protocols:       protos,
		CFStrings:       cfstrs,
		ExportedSymbols: exports,
		Signatures:      sigReg,
		Structs:         structReg,
		Interned:        interned.Len(),
	}
	if swiftTypes != nil {
		m.SwiftTypes = *swiftTypes
	}
	if swiftProtos != nil {
		m.SwiftProtocols = *swiftProtos
		sort.Slice(m.SwiftProtocols, func(i, j int) bool { return m.SwiftProtocols[i].Name < m.SwiftProtocols[j].Name })
	}

	return m, nil
}
