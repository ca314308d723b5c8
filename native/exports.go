package native

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
)

// Exports are the builtins a native library exports next to its own
// functions: constructors and the paired destroy calls for strings, vectors
// and Wire buffers. Each destroy takes exactly the triple needed to validate
// what it frees.
type Exports struct {
	Domain interop.Domain
}

// StringCreate copies n UTF-8 bytes at ptr into a new native string.
func (e Exports) StringCreate(ptr, n uint32) (interop.RawParts, error) {
	if n == 0 {
		return interop.RawParts{}, nil
	}
	if n > abi.MaxStringSize {
		return interop.RawParts{}, errors.Overflow(errors.PhaseNative, nil, n, "string")
	}
	src, err := e.Domain.Read(ptr, n)
	if err != nil {
		return interop.RawParts{}, err
	}
	if !utf8.Valid(src) {
		return interop.RawParts{}, errors.InvalidUTF8(errors.PhaseNative, nil, src)
	}
	return e.copyBytes(src, 1)
}

// StringClone makes an independent copy of a native string.
func (e Exports) StringClone(p interop.RawParts) (interop.RawParts, error) {
	ptr, _, ok := abi.BufferBytes(p, 1)
	if !ok {
		return interop.RawParts{}, invalidTriple("string", p)
	}
	if p.Len == 0 {
		return interop.RawParts{}, nil
	}
	src, err := e.Domain.Read(ptr, uint32(p.Len))
	if err != nil {
		return interop.RawParts{}, err
	}
	return e.copyBytes(src, 1)
}

// StringDestroy frees a native string.
func (e Exports) StringDestroy(p interop.RawParts) error {
	return e.destroy("string", p, 1, 1)
}

// VecCreate allocates an empty vector with room for capacity elements.
func (e Exports) VecCreate(capacity uint64, elemSize, align uint32) (interop.RawParts, error) {
	if capacity == 0 {
		return interop.RawParts{}, nil
	}
	c, ok := abi.NarrowU64(capacity)
	if !ok || c > abi.MaxListLength {
		return interop.RawParts{}, errors.Overflow(errors.PhaseNative, nil, capacity, "vec capacity")
	}
	n, ok := abi.SafeMulU32(c, elemSize)
	if !ok {
		return interop.RawParts{}, errors.Overflow(errors.PhaseNative, nil, capacity, "vec capacity")
	}
	ptr, err := e.Domain.Alloc(n, align)
	if err != nil {
		return interop.RawParts{}, err
	}
	return interop.RawParts{Ptr: uint64(ptr), Cap: capacity}, nil
}

// VecDestroy frees a vector's buffer. Elements are not dropped.
func (e Exports) VecDestroy(p interop.RawParts, elemSize, align uint32) error {
	return e.destroy("vec", p, elemSize, align)
}

// WireBufferCreate allocates a native-owned Wire buffer of n bytes.
func (e Exports) WireBufferCreate(n int32) (uint64, error) {
	if n <= 0 {
		return 0, errors.InvalidInput(errors.PhaseNative, "wire buffer size must be positive")
	}
	ptr, err := e.Domain.Alloc(uint32(n), 1)
	if err != nil {
		return 0, err
	}
	return uint64(ptr), nil
}

// WireBufferDestroy frees a Wire buffer allocated by WireBufferCreate.
// Borrowed (capacity 0) and host-owned (capacity < 0) buffers are not ours
// and are left alone.
func (e Exports) WireBufferDestroy(data uint64, length, capacity int32) error {
	if capacity <= 0 {
		Logger().Debug("wire buffer not native-owned", zap.Int32("cap", capacity))
		return nil
	}
	if length < 0 || length > capacity {
		return errors.New(errors.PhaseNative, errors.KindInvalidData).
			Detail("wire buffer len=%d cap=%d", length, capacity).
			Build()
	}
	return e.destroy("wire buffer", interop.RawParts{Ptr: data, Len: uint64(length), Cap: uint64(capacity)}, 1, 1)
}

func (e Exports) copyBytes(src []byte, align uint32) (interop.RawParts, error) {
	n := uint32(len(src))
	buf := make([]byte, n)
	copy(buf, src)
	ptr, err := e.Domain.Alloc(n, align)
	if err != nil {
		return interop.RawParts{}, err
	}
	if err := e.Domain.Write(ptr, buf); err != nil {
		e.Domain.Free(ptr, n, align)
		return interop.RawParts{}, err
	}
	return interop.RawParts{Ptr: uint64(ptr), Len: uint64(n), Cap: uint64(n)}, nil
}

func (e Exports) destroy(what string, p interop.RawParts, elemSize, align uint32) error {
	ptr, capBytes, ok := abi.BufferBytes(p, elemSize)
	if !ok {
		return invalidTriple(what, p)
	}
	if ptr == 0 {
		return nil
	}
	e.Domain.Free(ptr, capBytes, align)
	return nil
}

func invalidTriple(what string, p interop.RawParts) error {
	return errors.New(errors.PhaseNative, errors.KindInvalidData).
		ABIType(what).
		Detail("invalid triple ptr=0x%x len=%d cap=%d", p.Ptr, p.Len, p.Cap).
		Value(p).
		Build()
}
