package fixupchains

import "testing"

// TestDscPointerDecodingChoosesFirstValidStrategy implements the DSC
// pointer decoding scenario: shared region base 0x180000000, raw pointer
// 0xFFFFFF8004001230. Strategy 1 (direct) fails since the raw value
// itself is miles outside the cache region. Strategy 2 (32-bit offset)
// computes 0x180000000 + 0x04001230 = 0x184001230, which lands in the
// mapped range, so that's the expected answer; strategy 3 never runs.
func TestDscPointerDecodingChoosesFirstValidStrategy(t *testing.T) {
	const sharedRegionBase = 0x180000000
	const raw = 0xFFFFFF8004001230

	mappings := []DscMappingRange{
		{VMAddr: 0x180000000, VMSize: 0x10000000, FileOff: 0},
	}

	addr, strategy, ok := DecodeDscPointer(raw, sharedRegionBase, mappings)
	if !ok {
		t.Fatalf("DecodeDscPointer failed to resolve a valid strategy")
	}
	if strategy != StrategyOffset32 {
		t.Fatalf("strategy = %v, want %v", strategy, StrategyOffset32)
	}
	if want := uint64(0x184001230); addr != want {
		t.Fatalf("addr = %#x, want %#x", addr, want)
	}
}

func TestDscPointerDirectStrategyPreferredWhenValid(t *testing.T) {
	mappings := []DscMappingRange{{VMAddr: 0x180000000, VMSize: 0x1000, FileOff: 0}}
	addr, strategy, ok := DecodeDscPointer(0x180000500, 0x180000000, mappings)
	if !ok || strategy != StrategyDirect || addr != 0x180000500 {
		t.Fatalf("expected direct strategy to win, got addr=%#x strategy=%v ok=%v", addr, strategy, ok)
	}
}

func TestDscPointerFallsThroughToRebase51(t *testing.T) {
	const base = 0x180000000
	// A far mapping more than 4GB past the shared-region base: only a
	// decode that keeps bits above bit 31 (strategy 3) can ever reach it,
	// so both direct and 32-bit-offset strategies must fail here first.
	mappings := []DscMappingRange{{VMAddr: base + 0x500000000, VMSize: 0x10000000, FileOff: 0}}
	raw := uint64(0x500001000)

	addr, strategy, ok := DecodeDscPointer(raw, base, mappings)
	if !ok {
		t.Fatalf("expected rebase51 strategy to resolve")
	}
	if strategy != StrategyRebase51 {
		t.Fatalf("strategy = %v, want %v", strategy, StrategyRebase51)
	}
	if want := base + raw; addr != want {
		t.Fatalf("addr = %#x, want %#x", addr, want)
	}
}

func TestDscPointerAllStrategiesFail(t *testing.T) {
	mappings := []DscMappingRange{{VMAddr: 0x180000000, VMSize: 0x1000, FileOff: 0}}
	if _, _, ok := DecodeDscPointer(0xFFFFFFFFFFFFFFFF, 0x180000000, mappings); ok {
		t.Fatalf("expected no strategy to resolve")
	}
}

func TestTranslateDscPointerReturnsFileOffset(t *testing.T) {
	mappings := []DscMappingRange{{VMAddr: 0x180000000, VMSize: 0x10000000, FileOff: 0x4000}}
	off, strategy, ok := TranslateDscPointer(0x180001000, 0x180000000, mappings)
	if !ok || strategy != StrategyDirect {
		t.Fatalf("expected direct translation, got ok=%v strategy=%v", ok, strategy)
	}
	if want := uint64(0x4000 + 0x1000); off != want {
		t.Fatalf("off = %#x, want %#x", off, want)
	}
}
