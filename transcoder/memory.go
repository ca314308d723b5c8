package transcoder

import (
	"encoding/binary"
	"sync"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
)

// HostMemory is a bounds-checked Memory over a host byte slice. It holds
// unmanaged values that have not crossed into a native domain yet.
type HostMemory struct {
	buf []byte
}

var _ Memory = (*HostMemory)(nil)

func NewHostMemory(buf []byte) *HostMemory {
	return &HostMemory{buf: buf}
}

// Bytes returns the underlying buffer.
func (m *HostMemory) Bytes() []byte {
	return m.buf
}

func (m *HostMemory) Size() uint32 {
	return uint32(len(m.buf))
}

func (m *HostMemory) view(offset, n uint32) ([]byte, error) {
	end, ok := abi.SafeAddU32(offset, n)
	if !ok || uint64(end) > uint64(len(m.buf)) {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Detail("host memory access offset=%d length=%d size=%d", offset, n, len(m.buf)).
			Build()
	}
	return m.buf[offset:end:end], nil
}

func (m *HostMemory) Read(offset uint32, length uint32) ([]byte, error) {
	return m.view(offset, length)
}

func (m *HostMemory) Write(offset uint32, data []byte) error {
	b, err := m.view(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

func (m *HostMemory) ReadU8(offset uint32) (uint8, error) {
	b, err := m.view(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *HostMemory) ReadU16(offset uint32) (uint16, error) {
	b, err := m.view(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *HostMemory) ReadU32(offset uint32) (uint32, error) {
	b, err := m.view(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *HostMemory) ReadU64(offset uint32) (uint64, error) {
	b, err := m.view(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *HostMemory) WriteU8(offset uint32, value uint8) error {
	b, err := m.view(offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

func (m *HostMemory) WriteU16(offset uint32, value uint16) error {
	b, err := m.view(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

func (m *HostMemory) WriteU32(offset uint32, value uint32) error {
	b, err := m.view(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func (m *HostMemory) WriteU64(offset uint32, value uint64) error {
	b, err := m.view(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

// ToUnmanaged encodes v into a fresh buffer of exactly the codec's size.
func ToUnmanaged[T any](c Codec[T], v T) ([]byte, error) {
	buf := make([]byte, c.Layout().Size)
	if err := c.Store(NewHostMemory(buf), 0, v); err != nil {
		return nil, err
	}
	return buf, nil
}

// ToManaged decodes a buffer produced by ToUnmanaged.
func ToManaged[T any](c Codec[T], b []byte) (T, error) {
	var zero T
	if size := c.Layout().Size; uint32(len(b)) != size {
		return zero, errors.New(errors.PhaseDecode, errors.KindSizeMismatch).
			ABIType(c.Name()).
			Detail("buffer has %d bytes, layout needs %d", len(b), size).
			Build()
	}
	return c.Load(NewHostMemory(b), 0)
}

// Allocation is a temporary native allocation.
type Allocation struct {
	Ptr   uint32
	Size  uint32
	Align uint32
}

// AllocationList tracks temporary allocations made for a single call so they
// can be freed together when it returns.
type AllocationList struct {
	allocations []Allocation
}

var allocationListPool = sync.Pool{
	New: func() any {
		return &AllocationList{allocations: make([]Allocation, 0, 8)}
	},
}

// NewAllocationList takes an empty list from the pool.
func NewAllocationList() *AllocationList {
	return allocationListPool.Get().(*AllocationList)
}

const maxPooledAllocationCapacity = 128

// Release returns the list to the pool. Call it after Free; the list must not
// be used afterwards.
func (al *AllocationList) Release() {
	if cap(al.allocations) > maxPooledAllocationCapacity {
		return
	}
	al.Reset()
	allocationListPool.Put(al)
}

// FreeAndRelease frees every recorded allocation and returns the list to the pool.
func (al *AllocationList) FreeAndRelease(allocator Allocator) {
	al.Free(allocator)
	al.Release()
}

// Alloc allocates through allocator and records the allocation.
func (al *AllocationList) Alloc(allocator Allocator, size, align uint32) (uint32, error) {
	ptr, err := allocator.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	al.Add(ptr, size, align)
	return ptr, nil
}

// Add records an allocation made elsewhere so Free releases it too.
func (al *AllocationList) Add(ptr, size, align uint32) {
	al.allocations = append(al.allocations, Allocation{
		Ptr:   ptr,
		Size:  size,
		Align: align,
	})
}

// Free releases the recorded allocations, newest first, and empties the list.
// Null pointers are skipped.
func (al *AllocationList) Free(allocator Allocator) {
	if allocator == nil {
		return
	}
	for i := len(al.allocations) - 1; i >= 0; i-- {
		if a := al.allocations[i]; a.Ptr != 0 {
			allocator.Free(a.Ptr, a.Size, a.Align)
		}
	}
	al.Reset()
}

// Reset forgets the recorded allocations without freeing them.
func (al *AllocationList) Reset() {
	al.allocations = al.allocations[:0]
}

// Count returns the number of recorded allocations.
func (al *AllocationList) Count() int {
	return len(al.allocations)
}
