package transcoder

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
)

// SliceLayout is the unmanaged {ptr u64, len u64} pair.
var SliceLayout = Layout{Size: 16, Align: 8}

// Slice is a borrowed view of n elements at ptr. It never owns memory and
// never copies unless Copied is called.
type Slice[T any] struct {
	mem     Memory
	elem    Codec[T]
	ptr     uint32
	n       int
	mutable bool
}

// SliceOf returns a read-only view over memory owned by someone else.
func SliceOf[T any](mem Memory, elem Codec[T], ptr uint32, n int) Slice[T] {
	return Slice[T]{mem: mem, elem: elem, ptr: ptr, n: n}
}

// SliceMutOf returns a mutable view. Writes land in the referenced memory.
func SliceMutOf[T any](mem Memory, elem Codec[T], ptr uint32, n int) Slice[T] {
	return Slice[T]{mem: mem, elem: elem, ptr: ptr, n: n, mutable: true}
}

func (s Slice[T]) Len() int      { return s.n }
func (s Slice[T]) Ptr() uint32   { return s.ptr }
func (s Slice[T]) Mutable() bool { return s.mutable }

// ReadOnly drops the write capability.
func (s Slice[T]) ReadOnly() Slice[T] {
	s.mutable = false
	return s
}

func (s Slice[T]) addr(i int, phase errors.Phase) (uint32, error) {
	if i < 0 || i >= s.n {
		return 0, errors.OutOfBounds(phase, nil, i, s.n)
	}
	off, ok := abi.SafeMulU32(uint32(i), s.elem.Layout().Size)
	if ok {
		off, ok = abi.SafeAddU32(s.ptr, off)
	}
	if !ok {
		return 0, errors.Overflow(phase, nil, i, "u32 address")
	}
	return off, nil
}

// Get reads element i.
func (s Slice[T]) Get(i int) (T, error) {
	addr, err := s.addr(i, errors.PhaseDecode)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.elem.Load(s.mem, addr)
}

// Set writes element i in place.
func (s Slice[T]) Set(i int, v T) error {
	if !s.mutable {
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			ABIType(s.Name()).
			Detail("write through read-only slice").
			Build()
	}
	addr, err := s.addr(i, errors.PhaseEncode)
	if err != nil {
		return err
	}
	return s.elem.Store(s.mem, addr, v)
}

// Copied materializes the elements into a host slice.
func (s Slice[T]) Copied() ([]T, error) {
	out := make([]T, s.n)
	for i := range out {
		v, err := s.Get(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s Slice[T]) Name() string {
	return sliceName(s.elem, s.mutable)
}

func sliceName(elem Descriptor, mutable bool) string {
	if mutable {
		return unionName("SliceMut", elem)
	}
	return unionName("Slice", elem)
}

type sliceCodec[T any] struct {
	elem    Codec[T]
	mutable bool
}

// SliceCodec encodes a Slice as its {ptr, len} pair. Loaded slices view the
// memory they were loaded from.
func SliceCodec[T any](elem Codec[T], mutable bool) Codec[Slice[T]] {
	return &sliceCodec[T]{elem: elem, mutable: mutable}
}

func (c *sliceCodec[T]) Name() string   { return sliceName(c.elem, c.mutable) }
func (c *sliceCodec[T]) Kind() Kind     { return KindSlice }
func (c *sliceCodec[T]) Layout() Layout { return SliceLayout }
func (c *sliceCodec[T]) WIT() wit.Type  { return typeDef("", &wit.List{Type: c.elem.WIT()}) }

func (c *sliceCodec[T]) Store(mem Memory, addr uint32, v Slice[T]) error {
	if c.mutable && !v.mutable {
		return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			ABIType(c.Name()).
			Detail("read-only slice passed where a mutable slice is required").
			Build()
	}
	if err := mem.WriteU64(addr, uint64(v.ptr)); err != nil {
		return err
	}
	return mem.WriteU64(addr+8, uint64(v.n))
}

func (c *sliceCodec[T]) Load(mem Memory, addr uint32) (Slice[T], error) {
	ptr, err := mem.ReadU64(addr)
	if err != nil {
		return Slice[T]{}, err
	}
	n, err := mem.ReadU64(addr + 8)
	if err != nil {
		return Slice[T]{}, err
	}
	p, ok := abi.NarrowU64(ptr)
	if !ok || n > abi.MaxListLength {
		return Slice[T]{}, errors.New(errors.PhaseDecode, errors.KindOverflow).
			ABIType(c.Name()).
			Detail("slice ptr=0x%x len=%d", ptr, n).
			Build()
	}
	if p == 0 && n != 0 {
		return Slice[T]{}, errors.NilPointer(errors.PhaseDecode, nil, c.Name())
	}
	return Slice[T]{mem: mem, elem: c.elem, ptr: p, n: int(n), mutable: c.mutable}, nil
}
