package macho

import "testing"

func testSegment(addr, memsz, offset, filesz uint64) *Segment {
	s := &Segment{}
	s.Addr = addr
	s.Memsz = memsz
	s.Offset = offset
	s.Filesz = filesz
	return s
}

func TestAddrIndexTranslation(t *testing.T) {
	segs := Segments{
		testSegment(0x100000000, 0x1000, 0, 0x1000),
		testSegment(0x100001000, 0x2000, 0x1000, 0x2000),
	}
	idx := newAddrIndex(segs)

	off, err := idx.offset(0x100001010)
	if err != nil {
		t.Fatalf("offset failed: %v", err)
	}
	if off != 0x1010 {
		t.Fatalf("offset = %#x, want 0x1010", off)
	}

	addr, err := idx.vmAddress(0x10)
	if err != nil {
		t.Fatalf("vmAddress failed: %v", err)
	}
	if addr != 0x100000010 {
		t.Fatalf("vmAddress = %#x, want 0x100000010", addr)
	}

	if _, err := idx.offset(0x999999999); err == nil {
		t.Fatalf("expected error for out-of-range address")
	}
}

func TestAddrIndexCachesRepeatedLookups(t *testing.T) {
	segs := Segments{testSegment(0x100000000, 0x1000, 0, 0x1000)}
	idx := newAddrIndex(segs)

	first, err := idx.offset(0x100000010)
	if err != nil {
		t.Fatalf("offset failed: %v", err)
	}
	if _, ok := idx.offsetItems[0x100000010]; !ok {
		t.Fatalf("expected lookup to populate cache")
	}
	second, err := idx.offset(0x100000010)
	if err != nil {
		t.Fatalf("offset failed: %v", err)
	}
	if first != second {
		t.Fatalf("cached lookup returned different value: %#x vs %#x", first, second)
	}
}
