package native

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
)

// MapBase is the first address handed out for host mappings. Heap addresses
// are always below it.
const MapBase uint32 = 0x8000_0000

// heapBase keeps the first bytes unallocated so address 0 is never valid.
const heapBase = 16

var (
	_ interop.Domain      = (*Heap)(nil)
	_ interop.Mapper      = (*Heap)(nil)
	_ interop.MemorySizer = (*Heap)(nil)
)

type mapping struct {
	addr uint32
	buf  []byte
}

// Heap is an in-process native domain: a linear byte region with its own
// allocator, plus a window through which pinned host buffers are addressable.
//
// Slices returned by Read alias heap memory and stay valid until the next
// allocation grows the heap.
type Heap struct {
	cfg     Config
	mu      sync.RWMutex
	arena   arena
	alloc   *FreeList
	maps    []mapping
	nextMap uint32
	closed  bool
}

// NewHeap creates a heap. A nil config uses DefaultConfig.
func NewHeap(cfg *Config) (*Heap, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Heap{cfg: *cfg, nextMap: MapBase}
	if cfg.UseMmap && mmapSupported {
		a, err := newMmapArena(cfg.InitialSize, cfg.MaxSize)
		if err != nil {
			Logger().Warn("mmap heap unavailable, using Go memory", zap.Error(err))
		} else {
			h.arena = a
		}
	}
	if h.arena == nil {
		h.arena = newSliceArena(cfg.InitialSize, cfg.MaxSize)
	}
	h.alloc = NewFreeList(h, heapBase, cfg.MaxAllocation)

	Logger().Debug("heap created",
		zap.Uint32("initial", cfg.InitialSize),
		zap.Uint32("max", cfg.MaxSize),
		zap.Bool("mmap", cfg.UseMmap && mmapSupported))
	return h, nil
}

// Size implements interop.MemorySizer and Region.
func (h *Heap) Size() uint32 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0
	}
	return uint32(len(h.arena.bytes()))
}

// Grow implements Region.
func (h *Heap) Grow(minBytes uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.NotInitialized(errors.PhaseNative, "heap")
	}
	size := uint32(len(h.arena.bytes()))
	step := max(minBytes, h.cfg.GrowthStep)
	newSize, ok := abi.SafeAddU32(size, step)
	if !ok || newSize > h.cfg.MaxSize {
		newSize = h.cfg.MaxSize
	}
	if newSize-size < minBytes {
		return errors.New(errors.PhaseNative, errors.KindAllocation).
			Detail("heap limit %d reached", h.cfg.MaxSize).
			Build()
	}
	if err := h.arena.grow(newSize); err != nil {
		return err
	}
	Logger().Debug("heap grown", zap.Uint32("from", size), zap.Uint32("to", newSize))
	return nil
}

// Alloc implements interop.Allocator.
func (h *Heap) Alloc(size, align uint32) (uint32, error) {
	ptr, err := h.alloc.Alloc(size, align)
	if err != nil {
		Logger().Warn("native alloc failed", zap.Uint32("size", size), zap.Uint32("align", align), zap.Error(err))
		return 0, err
	}
	return ptr, nil
}

// Free implements interop.Allocator. Freeing an address that is not a live
// allocation is ignored, which makes repeated frees harmless.
func (h *Heap) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	if err := h.alloc.Free(ptr, size); err != nil {
		Logger().Warn("native free rejected", zap.Uint32("ptr", ptr), zap.Uint32("size", size), zap.Error(err))
	}
}

// Owns reports whether ptr is a live heap allocation.
func (h *Heap) Owns(ptr uint32) bool {
	return h.alloc.Owns(ptr)
}

// Stats returns allocator occupancy.
func (h *Heap) Stats() Stats {
	return h.alloc.Stats()
}

// Map exposes buf at a native address without copying. The caller must keep
// buf pinned until Unmap.
func (h *Heap) Map(buf []byte) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, errors.NotInitialized(errors.PhaseNative, "heap")
	}
	if uint64(len(buf)) > math.MaxUint32 {
		return 0, errors.Overflow(errors.PhaseNative, nil, len(buf), "u32")
	}
	addr := h.nextMap
	next, ok := abi.SafeAddU32(addr, max(uint32(len(buf)), 1))
	if !ok {
		return 0, errors.New(errors.PhaseNative, errors.KindAllocation).
			Detail("host mapping window exhausted").
			Build()
	}
	h.nextMap = abi.AlignTo(next, 16)
	if h.nextMap < next {
		h.nextMap = math.MaxUint32
	}
	h.maps = append(h.maps, mapping{addr: addr, buf: buf})
	Logger().Debug("host buffer mapped", zap.Uint32("addr", addr), zap.Int("len", len(buf)))
	return addr, nil
}

// Unmap removes a mapping created by Map.
func (h *Heap) Unmap(addr uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := sort.Search(len(h.maps), func(i int) bool { return h.maps[i].addr >= addr })
	if i == len(h.maps) || h.maps[i].addr != addr {
		return errors.NotFound(errors.PhaseNative, "mapping", fmt.Sprintf("0x%x", addr))
	}
	h.maps = append(h.maps[:i], h.maps[i+1:]...)
	Logger().Debug("host buffer unmapped", zap.Uint32("addr", addr))
	return nil
}

// Close releases the backing store. Further access fails.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.maps = nil
	return h.arena.release()
}

// view resolves [addr, addr+n) to bytes. Callers hold h.mu.
func (h *Heap) view(addr, n uint32) ([]byte, error) {
	if h.closed {
		return nil, errors.NotInitialized(errors.PhaseNative, "heap")
	}
	end, ok := abi.SafeAddU32(addr, n)
	if !ok {
		return nil, h.outOfBounds(addr, n)
	}
	if addr >= MapBase {
		i := sort.Search(len(h.maps), func(i int) bool { return h.maps[i].addr > addr }) - 1
		if i < 0 {
			return nil, h.outOfBounds(addr, n)
		}
		m := h.maps[i]
		if uint64(end) > uint64(m.addr)+uint64(len(m.buf)) {
			return nil, h.outOfBounds(addr, n)
		}
		off := addr - m.addr
		return m.buf[off : off+n : off+n], nil
	}
	mem := h.arena.bytes()
	if uint64(end) > uint64(len(mem)) {
		return nil, h.outOfBounds(addr, n)
	}
	return mem[addr:end:end], nil
}

func (h *Heap) outOfBounds(addr, n uint32) error {
	return errors.New(errors.PhaseNative, errors.KindOutOfBounds).
		Detail("access offset=0x%x length=%d", addr, n).
		Value(addr).
		Build()
}

// Read returns a view of n bytes at offset.
func (h *Heap) Read(offset uint32, length uint32) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.view(offset, length)
}

// Write copies data to offset.
func (h *Heap) Write(offset uint32, data []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, err := h.view(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (h *Heap) ReadU8(offset uint32) (uint8, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, err := h.view(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (h *Heap) ReadU16(offset uint32) (uint16, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, err := h.view(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (h *Heap) ReadU32(offset uint32) (uint32, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, err := h.view(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (h *Heap) ReadU64(offset uint32) (uint64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, err := h.view(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// WriteU8 writes an unsigned 8-bit value.
func (h *Heap) WriteU8(offset uint32, value uint8) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, err := h.view(offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (h *Heap) WriteU16(offset uint32, value uint16) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, err := h.view(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (h *Heap) WriteU32(offset uint32, value uint32) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, err := h.view(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (h *Heap) WriteU64(offset uint32, value uint64) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, err := h.view(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}
