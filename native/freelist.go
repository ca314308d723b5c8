package native

import (
	"slices"
	"sort"
	"sync"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
)

// Region is linear memory managed by a FreeList. Valid addresses are [0, Size()).
type Region interface {
	Size() uint32
	// Grow extends the region by at least minBytes.
	Grow(minBytes uint32) error
}

type span struct {
	addr uint32
	size uint32
}

// FreeList is a first-fit allocator over a Region.
// Every live allocation is tracked so frees can be validated.
type FreeList struct {
	mu        sync.Mutex
	region    Region
	base      uint32
	top       uint32
	maxAlloc  uint32
	free      []span
	live      map[uint32]uint32
	liveBytes uint64
}

// Stats describes allocator occupancy.
type Stats struct {
	Live      int
	LiveBytes uint64
	FreeBytes uint64
	Size      uint32
}

// NewFreeList manages region addresses from base up. Addresses below base are
// never returned, so base > 0 keeps 0 free to mean null.
func NewFreeList(r Region, base, maxAlloc uint32) *FreeList {
	f := &FreeList{
		region:   r,
		base:     base,
		top:      base,
		maxAlloc: maxAlloc,
		live:     make(map[uint32]uint32),
	}
	if size := r.Size(); size > base {
		f.free = append(f.free, span{addr: base, size: size - base})
		f.top = size
	}
	return f
}

// Alloc reserves size bytes aligned to align. Zero-sized requests reserve one
// byte so that every returned address is unique and tracked.
func (f *FreeList) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, errors.New(errors.PhaseNative, errors.KindInvalidInput).
			Detail("alignment %d is not a power of two", align).
			Build()
	}
	size = normalize(size)
	if size > f.maxAlloc {
		return 0, errors.AllocationFailed(errors.PhaseNative, size, align)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if addr, ok := f.carve(size, align); ok {
		return addr, nil
	}
	need, ok := abi.SafeAddU32(size, align)
	if !ok {
		return 0, errors.AllocationFailed(errors.PhaseNative, size, align)
	}
	if err := f.region.Grow(need); err != nil {
		return 0, errors.New(errors.PhaseNative, errors.KindAllocation).
			Detail("grow by %d bytes", need).
			Cause(err).
			Build()
	}
	if newTop := f.region.Size(); newTop > f.top {
		f.insert(span{addr: f.top, size: newTop - f.top})
		f.top = newTop
	}
	if addr, ok := f.carve(size, align); ok {
		return addr, nil
	}
	return 0, errors.AllocationFailed(errors.PhaseNative, size, align)
}

func (f *FreeList) carve(size, align uint32) (uint32, bool) {
	for i, s := range f.free {
		start := abi.AlignTo(s.addr, align)
		end, ok := abi.SafeAddU32(start, size)
		if !ok || start < s.addr || end > s.addr+s.size {
			continue
		}
		var rest []span
		if start > s.addr {
			rest = append(rest, span{addr: s.addr, size: start - s.addr})
		}
		if tail := s.addr + s.size - end; tail > 0 {
			rest = append(rest, span{addr: end, size: tail})
		}
		f.free = slices.Replace(f.free, i, i+1, rest...)
		f.live[start] = size
		f.liveBytes += uint64(size)
		return start, true
	}
	return 0, false
}

// Free releases an allocation. It fails without side effects when ptr is not
// a live allocation or size disagrees with the allocated size.
func (f *FreeList) Free(ptr, size uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	reserved, ok := f.live[ptr]
	if !ok {
		return errors.New(errors.PhaseNative, errors.KindNotFound).
			Detail("free of untracked address 0x%x", ptr).
			Value(ptr).
			Build()
	}
	if normalize(size) != reserved {
		return errors.New(errors.PhaseNative, errors.KindInvalidInput).
			Detail("free of 0x%x with size %d, allocated %d", ptr, size, reserved).
			Value(ptr).
			Build()
	}
	delete(f.live, ptr)
	f.liveBytes -= uint64(reserved)
	f.insert(span{addr: ptr, size: reserved})
	return nil
}

// Owns reports whether ptr is the start of a live allocation.
func (f *FreeList) Owns(ptr uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.live[ptr]
	return ok
}

// insert adds s to the free list, coalescing with neighbours.
func (f *FreeList) insert(s span) {
	i := sort.Search(len(f.free), func(i int) bool { return f.free[i].addr > s.addr })
	f.free = slices.Insert(f.free, i, s)
	if i+1 < len(f.free) && f.free[i].addr+f.free[i].size == f.free[i+1].addr {
		f.free[i].size += f.free[i+1].size
		f.free = slices.Delete(f.free, i+1, i+2)
	}
	if i > 0 && f.free[i-1].addr+f.free[i-1].size == f.free[i].addr {
		f.free[i-1].size += f.free[i].size
		f.free = slices.Delete(f.free, i, i+1)
	}
}

// Stats returns current occupancy.
func (f *FreeList) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	var free uint64
	for _, s := range f.free {
		free += uint64(s.size)
	}
	return Stats{
		Live:      len(f.live),
		LiveBytes: f.liveBytes,
		FreeBytes: free,
		Size:      f.top,
	}
}

func normalize(size uint32) uint32 {
	if size == 0 {
		return 1
	}
	return size
}
