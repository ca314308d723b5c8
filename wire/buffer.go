package wire

import (
	"fmt"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder"
)

// Ownership says which side frees a Buffer.
type Ownership uint8

const (
	// Borrowed buffers belong to the caller and are never freed here.
	Borrowed Ownership = iota
	// NativeOwned buffers were allocated by the native domain.
	NativeOwned
	// HostOwned buffers are pinned host bytes mapped into the native domain.
	HostOwned
)

func (o Ownership) String() string {
	switch o {
	case Borrowed:
		return "borrowed"
	case NativeOwned:
		return "native"
	case HostOwned:
		return "host"
	default:
		return fmt.Sprintf("ownership(%d)", uint8(o))
	}
}

// Buffer is the {data, len, cap} triple that carries a Wire message across
// the boundary. The sign of Cap encodes ownership: zero is borrowed,
// positive is native-owned and negative is host-owned. |Cap| is the
// allocated size in bytes.
type Buffer struct {
	Data uint64
	Len  int32
	Cap  int32
}

func (b Buffer) Ownership() Ownership {
	switch {
	case b.Cap > 0:
		return NativeOwned
	case b.Cap < 0:
		return HostOwned
	default:
		return Borrowed
	}
}

// Capacity returns the allocated size, which is zero for borrowed buffers.
func (b Buffer) Capacity() int {
	if b.Cap < 0 {
		return -int(b.Cap)
	}
	return int(b.Cap)
}

// Validate checks that the triple is self-consistent.
func (b Buffer) Validate() error {
	switch {
	case b.Len < 0:
		return errors.InvalidData(errors.PhaseWire, []string{"len"}, fmt.Sprintf("negative length %d", b.Len))
	case b.Cap != 0 && int(b.Len) > b.Capacity():
		return errors.New(errors.PhaseWire, errors.KindOutOfBounds).
			Path("len").
			Detail("length %d exceeds capacity %d", b.Len, b.Capacity()).
			Build()
	case b.Data == 0 && b.Len > 0:
		return errors.NilPointer(errors.PhaseWire, []string{"data"}, "Buffer")
	case b.Data > uint64(^uint32(0)):
		return errors.Overflow(errors.PhaseWire, []string{"data"}, b.Data, "u32")
	}
	return nil
}

func (b Buffer) String() string {
	return fmt.Sprintf("wire.Buffer{data=0x%x len=%d cap=%d %s}", b.Data, b.Len, b.Cap, b.Ownership())
}

// BufferCodec lays a Buffer out as {data u64, len i32, cap i32}.
var BufferCodec = transcoder.Record[Buffer]("WireBuffer",
	transcoder.Field("data", transcoder.U64, func(b *Buffer) *uint64 { return &b.Data }),
	transcoder.Field("len", transcoder.I32, func(b *Buffer) *int32 { return &b.Len }),
	transcoder.Field("cap", transcoder.I32, func(b *Buffer) *int32 { return &b.Cap }),
)

func fmtAddr(addr uint64) string {
	return fmt.Sprintf("0x%x", addr)
}
