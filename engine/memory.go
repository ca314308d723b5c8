package engine

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
)

const pageSize = 65536

var (
	_ interop.Memory      = Memory{}
	_ interop.MemorySizer = Memory{}
)

// Memory adapts wazero api.Memory to interop.Memory.
type Memory struct {
	Mem api.Memory
}

func outOfBounds(op string, offset uint32, length int) error {
	return errors.New(errors.PhaseRuntime, errors.KindOutOfBounds).
		Detail("memory %s out of bounds: offset=%d, length=%d", op, offset, length).
		Value(offset).
		Build()
}

// Size returns the memory size in bytes.
func (m Memory) Size() uint32 {
	return m.Mem.Size()
}

// Read reads bytes from memory. The result aliases linear memory.
func (m Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, outOfBounds("read", offset, int(length))
	}
	return data, nil
}

// Write writes bytes to memory.
func (m Memory) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return outOfBounds("write", offset, len(data))
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m Memory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.Mem.ReadByte(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 1)
	}
	return v, nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (m Memory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.Mem.ReadUint16Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 2)
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m Memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 4)
	}
	return v, nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (m Memory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.Mem.ReadUint64Le(offset)
	if !ok {
		return 0, outOfBounds("read", offset, 8)
	}
	return v, nil
}

// WriteU8 writes an unsigned 8-bit value.
func (m Memory) WriteU8(offset uint32, value uint8) error {
	if !m.Mem.WriteByte(offset, value) {
		return outOfBounds("write", offset, 1)
	}
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (m Memory) WriteU16(offset uint32, value uint16) error {
	if !m.Mem.WriteUint16Le(offset, value) {
		return outOfBounds("write", offset, 2)
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m Memory) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return outOfBounds("write", offset, 4)
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m Memory) WriteU64(offset uint32, value uint64) error {
	if !m.Mem.WriteUint64Le(offset, value) {
		return outOfBounds("write", offset, 8)
	}
	return nil
}

// Grow adds whole pages covering at least minBytes. It lets a host-side
// native.FreeList manage linear memory.
func (m Memory) Grow(minBytes uint32) error {
	pages := (uint64(minBytes) + pageSize - 1) / pageSize
	if _, ok := m.Mem.Grow(uint32(pages)); !ok {
		return errors.New(errors.PhaseRuntime, errors.KindAllocation).
			Detail("memory.grow by %d pages failed", pages).
			Build()
	}
	return nil
}
