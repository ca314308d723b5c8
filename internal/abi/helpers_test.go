package abi

import (
	"math"
	"testing"

	"github.com/wippyai/interop"
)

func TestCheckedArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		op     func(a, b uint32) (uint32, bool)
		a, b   uint32
		want   uint32
		wantOK bool
	}{
		{"mul by zero", SafeMulU32, math.MaxUint32, 0, 0, true},
		{"mul element size", SafeMulU32, 1 << 20, 8, 8 << 20, true},
		{"mul at limit", SafeMulU32, 65536, 65535, 65536 * 65535, true},
		{"mul past limit", SafeMulU32, 65536, 65537, 0, false},
		{"mul overflow", SafeMulU32, 2, math.MaxUint32, 0, false},
		{"add to end of space", SafeAddU32, 0xFFFF0000, 0xFFFF, math.MaxUint32, true},
		{"add past end of space", SafeAddU32, 0xFFFF0000, 0x10000, 0, false},
		{"add one to max", SafeAddU32, math.MaxUint32, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.op(tt.a, tt.b)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("(%d, %d) = %d, %v; want %d, %v", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTypeNames(t *testing.T) {
	if got := TypeName(nil); got != "nil" {
		t.Errorf("TypeName(nil) = %q", got)
	}
	if got := TypeName([]uint32{1}); got != "[]uint32" {
		t.Errorf("TypeName([]uint32) = %q", got)
	}
	if got := TypeNameOf[interop.RawParts](); got != "interop.RawParts" {
		t.Errorf("TypeNameOf[RawParts] = %q", got)
	}
	if got := TypeNameOf[error](); got != "error" {
		t.Errorf("TypeNameOf[error] = %q", got)
	}
}

func TestAlignTo(t *testing.T) {
	// union payloads: discriminant is 4 bytes, payload aligned to its own alignment
	for _, tt := range []struct{ offset, align, want uint32 }{
		{4, 0, 4},
		{4, 1, 4},
		{4, 2, 4},
		{4, 4, 4},
		{4, 8, 8},
		{4, 16, 16},
		{13, 8, 16},
		{17, 16, 32},
	} {
		if got := AlignTo(tt.offset, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.offset, tt.align, got, tt.want)
		}
	}
}

func TestNarrowU64(t *testing.T) {
	tests := []struct {
		name   string
		in     uint64
		want   uint32
		wantOK bool
	}{
		{"zero", 0, 0, true},
		{"max u32", math.MaxUint32, math.MaxUint32, true},
		{"max u32 + 1", math.MaxUint32 + 1, 0, false},
		{"max u64", math.MaxUint64, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NarrowU64(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("NarrowU64(%d) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBufferBytes(t *testing.T) {
	tests := []struct {
		name     string
		parts    interop.RawParts
		elemSize uint32
		wantPtr  uint32
		wantCap  uint32
		wantOK   bool
	}{
		{"empty null", interop.RawParts{}, 4, 0, 0, true},
		{"null with capacity", interop.RawParts{Cap: 1}, 4, 0, 0, false},
		{"len above cap", interop.RawParts{Ptr: 16, Len: 3, Cap: 2}, 4, 0, 0, false},
		{"u32 elements", interop.RawParts{Ptr: 16, Len: 2, Cap: 3}, 4, 16, 12, true},
		{"pointer above 4G", interop.RawParts{Ptr: 1 << 32, Len: 1, Cap: 1}, 1, 0, 0, false},
		{"capacity overflow", interop.RawParts{Ptr: 16, Len: 1, Cap: 1 << 31}, 4, 0, 0, false},
		{"end overflow", interop.RawParts{Ptr: math.MaxUint32 - 2, Len: 1, Cap: 4}, 1, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ptr, capBytes, ok := BufferBytes(tt.parts, tt.elemSize)
			if ok != tt.wantOK {
				t.Fatalf("BufferBytes(%+v) ok = %v, want %v", tt.parts, ok, tt.wantOK)
			}
			if ok && (ptr != tt.wantPtr || capBytes != tt.wantCap) {
				t.Errorf("BufferBytes(%+v) = %d, %d; want %d, %d", tt.parts, ptr, capBytes, tt.wantPtr, tt.wantCap)
			}
		})
	}
}
