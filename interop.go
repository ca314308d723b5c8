package interop

// Memory represents the linear memory of a native domain.
// All multi-byte accessors are little-endian.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of native memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates memory in the native domain
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

// Domain is a native memory space together with its allocator.
type Domain interface {
	Memory
	Allocator
}

// Mapper exposes host-owned bytes at a native address without copying.
// The host must keep the bytes pinned until Unmap returns.
type Mapper interface {
	Map(buf []byte) (uint32, error)
	Unmap(addr uint32) error
}

// RawParts is the unmanaged {pointer, length, capacity} triple of an owned buffer.
// Length and capacity are element counts.
type RawParts struct {
	Ptr uint64
	Len uint64
	Cap uint64
}

// IsNull reports whether the triple points nowhere.
func (p RawParts) IsNull() bool {
	return p.Ptr == 0
}
