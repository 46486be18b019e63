package macho

import (
	"container/list"
	"fmt"
	"sort"
	"sync"
)

// addrIndexCacheCapacity bounds the vm-address/file-offset translation
// cache; beyond this many distinct lookups the oldest entries are
// evicted rather than letting the cache grow unbounded over a binary
// with a huge fixup chain to resolve.
const addrIndexCacheCapacity = 100_000

type vmRange struct {
	vmAddr  uint64
	vmSize  uint64
	fileOff uint64
}

// addrIndex translates between vm address and file offset via binary
// search over the segment ranges, sorted once at construction, backed by
// a bounded LRU so a hot loop (e.g. resolving every bound pointer in a
// chained-fixups page) doesn't re-search on every call.
type addrIndex struct {
	byVMAddr  []vmRange // sorted by vmAddr
	byFileOff []vmRange // sorted by fileOff

	mu          sync.Mutex
	offsetCache *list.List
	offsetItems map[uint64]*list.Element
	vmCache     *list.List
	vmItems     map[uint64]*list.Element
}

type cacheItem struct {
	key   uint64
	value uint64
}

func newAddrIndex(segs Segments) *addrIndex {
	idx := &addrIndex{
		offsetCache: list.New(),
		offsetItems: make(map[uint64]*list.Element),
		vmCache:     list.New(),
		vmItems:     make(map[uint64]*list.Element),
	}
	for _, s := range segs {
		idx.byVMAddr = append(idx.byVMAddr, vmRange{vmAddr: s.Addr, vmSize: s.Memsz, fileOff: s.Offset})
		idx.byFileOff = append(idx.byFileOff, vmRange{vmAddr: s.Addr, vmSize: s.Filesz, fileOff: s.Offset})
	}
	sort.Slice(idx.byVMAddr, func(i, j int) bool { return idx.byVMAddr[i].vmAddr < idx.byVMAddr[j].vmAddr })
	sort.Slice(idx.byFileOff, func(i, j int) bool { return idx.byFileOff[i].fileOff < idx.byFileOff[j].fileOff })
	return idx
}

func (idx *addrIndex) offset(addr uint64) (uint64, error) {
	idx.mu.Lock()
	if el, ok := idx.offsetItems[addr]; ok {
		idx.offsetCache.MoveToFront(el)
		v := el.Value.(*cacheItem).value
		idx.mu.Unlock()
		return v, nil
	}
	idx.mu.Unlock()

	i := sort.Search(len(idx.byVMAddr), func(i int) bool {
		return idx.byVMAddr[i].vmAddr+idx.byVMAddr[i].vmSize > addr
	})
	if i >= len(idx.byVMAddr) || addr < idx.byVMAddr[i].vmAddr {
		return 0, fmt.Errorf("address %#x not within any segment's address range", addr)
	}
	r := idx.byVMAddr[i]
	off := (addr - r.vmAddr) + r.fileOff

	idx.putOffset(addr, off)
	return off, nil
}

func (idx *addrIndex) vmAddress(off uint64) (uint64, error) {
	idx.mu.Lock()
	if el, ok := idx.vmItems[off]; ok {
		idx.vmCache.MoveToFront(el)
		v := el.Value.(*cacheItem).value
		idx.mu.Unlock()
		return v, nil
	}
	idx.mu.Unlock()

	i := sort.Search(len(idx.byFileOff), func(i int) bool {
		return idx.byFileOff[i].fileOff+idx.byFileOff[i].vmSize > off
	})
	if i >= len(idx.byFileOff) || off < idx.byFileOff[i].fileOff {
		return 0, fmt.Errorf("offset %#x not within any segment's file offset range", off)
	}
	r := idx.byFileOff[i]
	addr := (off - r.fileOff) + r.vmAddr

	idx.putVMAddr(off, addr)
	return addr, nil
}

func (idx *addrIndex) putOffset(key, value uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if el, ok := idx.offsetItems[key]; ok {
		idx.offsetCache.MoveToFront(el)
		el.Value.(*cacheItem).value = value
		return
	}
	el := idx.offsetCache.PushFront(&cacheItem{key: key, value: value})
	idx.offsetItems[key] = el
	if idx.offsetCache.Len() > addrIndexCacheCapacity {
		oldest := idx.offsetCache.Back()
		idx.offsetCache.Remove(oldest)
		delete(idx.offsetItems, oldest.Value.(*cacheItem).key)
	}
}

func (idx *addrIndex) putVMAddr(key, value uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if el, ok := idx.vmItems[key]; ok {
		idx.vmCache.MoveToFront(el)
		el.Value.(*cacheItem).value = value
		return
	}
	el := idx.vmCache.PushFront(&cacheItem{key: key, value: value})
	idx.vmItems[key] = el
	if idx.vmCache.Len() > addrIndexCacheCapacity {
		oldest := idx.vmCache.Back()
		idx.vmCache.Remove(oldest)
		delete(idx.vmItems, oldest.Value.(*cacheItem).key)
	}
}
