package abi

import (
	"math"
	"reflect"

	"github.com/wippyai/interop"
)

func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// NarrowU64 converts a 64-bit unmanaged field to a 32-bit native address or size.
func NarrowU64(v uint64) (uint32, bool) {
	if v > math.MaxUint32 {
		return 0, false
	}
	return uint32(v), true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// TypeNameOf names T without needing a value.
func TypeNameOf[T any]() string {
	return reflect.TypeFor[T]().String()
}

func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

const (
	MaxStringSize = 1 << 30 // 1 GB max string size
	MaxListLength = 1 << 27 // 128M max elements
	MaxAlloc      = 1 << 30 // 1 GB max single allocation
)

// BufferBytes validates an owned-buffer triple and returns its address and
// capacity in bytes. A null pointer is valid only with zero capacity.
func BufferBytes(p interop.RawParts, elemSize uint32) (ptr, capBytes uint32, ok bool) {
	if p.Len > p.Cap {
		return 0, 0, false
	}
	if p.Ptr == 0 {
		return 0, 0, p.Cap == 0
	}
	ptr, ok = NarrowU64(p.Ptr)
	if !ok {
		return 0, 0, false
	}
	capElems, ok := NarrowU64(p.Cap)
	if !ok {
		return 0, 0, false
	}
	capBytes, ok = SafeMulU32(capElems, elemSize)
	if !ok || capBytes > MaxAlloc {
		return 0, 0, false
	}
	if _, ok = SafeAddU32(ptr, capBytes); !ok {
		return 0, 0, false
	}
	return ptr, capBytes, true
}
