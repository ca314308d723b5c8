package transcoder

import (
	"runtime"
	"unsafe"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
)

// Primitive is the set of element types whose Go representation matches
// the unmanaged one on little-endian hosts.
type Primitive interface {
	~bool | ~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 |
		~uint64 | ~int64 | ~float32 | ~float64
}

// MappedMemory is a native memory that can expose host buffers in place.
type MappedMemory interface {
	Memory
	interop.Mapper
}

var littleEndianHost = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// rawBytes views buf as bytes without copying.
func rawBytes[T Primitive](buf []T) []byte {
	if len(buf) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), len(buf)*int(unsafe.Sizeof(zero)))
}

func checkPrimitive[T Primitive](elem Codec[T]) error {
	var zero T
	if !littleEndianHost {
		return errors.Unsupported(errors.PhaseTransfer, "zero-copy views on big-endian hosts")
	}
	if elem.Layout().Size != uint32(unsafe.Sizeof(zero)) {
		return errors.TypeMismatch(errors.PhaseTransfer, nil, abi.TypeNameOf[T](), elem.Name())
	}
	return nil
}

// Pin exposes buf to native code for the duration of fn only: the backing
// array is pinned and mapped, fn receives a read-only view, then the mapping
// is removed and the pin dropped.
func Pin[T Primitive](mem MappedMemory, elem Codec[T], buf []T, fn func(Slice[T]) error) error {
	return pin(mem, elem, buf, false, fn)
}

// PinMut is Pin with a mutable view. Writes made by native code are visible
// in buf as soon as they happen.
func PinMut[T Primitive](mem MappedMemory, elem Codec[T], buf []T, fn func(Slice[T]) error) error {
	return pin(mem, elem, buf, true, fn)
}

func pin[T Primitive](mem MappedMemory, elem Codec[T], buf []T, mutable bool, fn func(Slice[T]) error) error {
	m, err := mapBuffer(mem, elem, buf, mutable)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m.Slice())
}

// Mapping is a host buffer exposed at a native address until Close.
type Mapping[T Primitive] struct {
	mem    MappedMemory
	buf    []T
	slice  Slice[T]
	pinner runtime.Pinner
	closed bool
}

// Wrap exposes buf without a call scope. The caller guarantees buf stays
// referenced and unmodified in length until Close; native code may hold the
// address for that long.
func Wrap[T Primitive](mem MappedMemory, elem Codec[T], buf []T, mutable bool) (*Mapping[T], error) {
	return mapBuffer(mem, elem, buf, mutable)
}

func mapBuffer[T Primitive](mem MappedMemory, elem Codec[T], buf []T, mutable bool) (*Mapping[T], error) {
	if err := checkPrimitive(elem); err != nil {
		return nil, err
	}
	m := &Mapping[T]{mem: mem, buf: buf}
	if len(buf) == 0 {
		m.slice = Slice[T]{mem: mem, elem: elem, mutable: mutable}
		return m, nil
	}
	m.pinner.Pin(&buf[0])
	addr, err := mem.Map(rawBytes(buf))
	if err != nil {
		m.pinner.Unpin()
		return nil, err
	}
	m.slice = Slice[T]{mem: mem, elem: elem, ptr: addr, n: len(buf), mutable: mutable}
	return m, nil
}

// Slice returns the native view of the mapped buffer.
func (m *Mapping[T]) Slice() Slice[T] {
	return m.slice
}

// Close unmaps and unpins the buffer. It is safe to call more than once.
func (m *Mapping[T]) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	defer m.pinner.Unpin()
	if m.slice.ptr == 0 {
		return nil
	}
	return m.mem.Unmap(m.slice.ptr)
}
