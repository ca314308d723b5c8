package transcoder

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
	"github.com/wippyai/interop/native"
)

// VecLayout is the unmanaged {ptr u64, len u64, cap u64} triple shared by
// vectors and strings.
var VecLayout = Layout{Size: 24, Align: 8}

// ownership is the lifecycle of an owned buffer handle.
type ownership uint8

const (
	ownLive ownership = iota
	ownMoved
	ownDestroyed
)

func (o ownership) check(phase errors.Phase, name, op string) error {
	switch o {
	case ownMoved:
		return errors.Moved(phase, name, op)
	case ownDestroyed:
		return errors.Destroyed(phase, name, op)
	}
	return nil
}

// Vec is an owned growable buffer in a native domain. Exactly one handle
// owns the buffer at a time: Transfer hands it over and leaves this handle
// as a tombstone that fails every later access.
//
// A Vec is not safe for concurrent use.
type Vec[T any] struct {
	dom   Domain
	elem  Codec[T]
	ptr   uint32
	n     uint32
	cap   uint32
	state ownership
}

// NewVec allocates an empty vector with room for capacity elements.
func NewVec[T any](dom Domain, elem Codec[T], capacity int) (*Vec[T], error) {
	if capacity < 0 {
		return nil, errors.InvalidInput(errors.PhaseTransfer, "negative vec capacity")
	}
	l := elem.Layout()
	p, err := native.Exports{Domain: dom}.VecCreate(uint64(capacity), l.Size, l.Align)
	if err != nil {
		return nil, err
	}
	return &Vec[T]{dom: dom, elem: elem, ptr: uint32(p.Ptr), cap: uint32(p.Cap)}, nil
}

// IntoVec copies values into a new native vector.
func IntoVec[T any](dom Domain, elem Codec[T], values []T) (*Vec[T], error) {
	v, err := NewVec(dom, elem, len(values))
	if err != nil {
		return nil, err
	}
	for _, x := range values {
		if err := v.Push(x); err != nil {
			_ = v.Destroy()
			return nil, err
		}
	}
	return v, nil
}

// ReclaimVec takes ownership of a triple produced by Transfer or by native code.
func ReclaimVec[T any](dom Domain, elem Codec[T], p RawParts) (*Vec[T], error) {
	ptr, _, ok := abi.BufferBytes(p, elem.Layout().Size)
	if !ok || p.Cap > abi.MaxListLength {
		return nil, errors.New(errors.PhaseTransfer, errors.KindInvalidData).
			ABIType(unionName("Vec", elem)).
			Detail("invalid triple ptr=0x%x len=%d cap=%d", p.Ptr, p.Len, p.Cap).
			Build()
	}
	return &Vec[T]{dom: dom, elem: elem, ptr: ptr, n: uint32(p.Len), cap: uint32(p.Cap)}, nil
}

func (v *Vec[T]) Name() string { return unionName("Vec", v.elem) }

// Live reports whether the handle still owns its buffer.
func (v *Vec[T]) Live() bool { return v.state == ownLive }

func (v *Vec[T]) Len() (int, error) {
	if err := v.state.check(errors.PhaseTransfer, v.Name(), "len"); err != nil {
		return 0, err
	}
	return int(v.n), nil
}

func (v *Vec[T]) Cap() (int, error) {
	if err := v.state.check(errors.PhaseTransfer, v.Name(), "cap"); err != nil {
		return 0, err
	}
	return int(v.cap), nil
}

// view borrows the initialized elements. Callers have checked state.
func (v *Vec[T]) view() Slice[T] {
	return SliceMutOf[T](v.dom, v.elem, v.ptr, int(v.n))
}

func (v *Vec[T]) Get(i int) (T, error) {
	if err := v.state.check(errors.PhaseDecode, v.Name(), "get"); err != nil {
		var zero T
		return zero, err
	}
	return v.view().Get(i)
}

func (v *Vec[T]) Set(i int, x T) error {
	if err := v.state.check(errors.PhaseEncode, v.Name(), "set"); err != nil {
		return err
	}
	return v.view().Set(i, x)
}

// Push appends x, reallocating when the buffer is full.
func (v *Vec[T]) Push(x T) error {
	if err := v.state.check(errors.PhaseEncode, v.Name(), "push"); err != nil {
		return err
	}
	if v.n == v.cap {
		if err := v.grow(max(4, v.cap*2)); err != nil {
			return err
		}
	}
	v.n++
	if err := v.view().Set(int(v.n-1), x); err != nil {
		v.n--
		return err
	}
	return nil
}

func (v *Vec[T]) grow(newCap uint32) error {
	if newCap > abi.MaxListLength {
		return errors.Overflow(errors.PhaseEncode, nil, newCap, v.Name())
	}
	l := v.elem.Layout()
	exp := native.Exports{Domain: v.dom}
	p, err := exp.VecCreate(uint64(newCap), l.Size, l.Align)
	if err != nil {
		return err
	}
	if used := v.n * l.Size; used > 0 {
		data, err := v.dom.Read(v.ptr, used)
		if err == nil {
			err = v.dom.Write(uint32(p.Ptr), data)
		}
		if err != nil {
			_ = exp.VecDestroy(p, l.Size, l.Align)
			return err
		}
	}
	if err := exp.VecDestroy(v.parts(), l.Size, l.Align); err != nil {
		_ = exp.VecDestroy(p, l.Size, l.Align)
		return err
	}
	v.ptr, v.cap = uint32(p.Ptr), uint32(p.Cap)
	return nil
}

// View borrows the elements as a mutable slice. The view is valid until the
// next Push, Transfer or Destroy.
func (v *Vec[T]) View() (Slice[T], error) {
	if err := v.state.check(errors.PhaseDecode, v.Name(), "view"); err != nil {
		return Slice[T]{}, err
	}
	return v.view(), nil
}

// ToSlice copies the elements out.
func (v *Vec[T]) ToSlice() ([]T, error) {
	if err := v.state.check(errors.PhaseDecode, v.Name(), "read"); err != nil {
		return nil, err
	}
	return v.view().Copied()
}

// Clone makes an independent copy with its own allocation.
func (v *Vec[T]) Clone() (*Vec[T], error) {
	if err := v.state.check(errors.PhaseTransfer, v.Name(), "clone"); err != nil {
		return nil, err
	}
	c, err := NewVec(v.dom, v.elem, int(v.n))
	if err != nil {
		return nil, err
	}
	if used := v.n * v.elem.Layout().Size; used > 0 {
		data, err := v.dom.Read(v.ptr, used)
		if err == nil {
			err = v.dom.Write(c.ptr, data)
		}
		if err != nil {
			_ = c.Destroy()
			return nil, err
		}
	}
	c.n = v.n
	return c, nil
}

func (v *Vec[T]) parts() RawParts {
	return RawParts{Ptr: uint64(v.ptr), Len: uint64(v.n), Cap: uint64(v.cap)}
}

// Transfer hands the buffer to the receiver and invalidates this handle.
func (v *Vec[T]) Transfer() (RawParts, error) {
	if err := v.state.check(errors.PhaseTransfer, v.Name(), "transfer"); err != nil {
		return RawParts{}, err
	}
	p := v.parts()
	v.state = ownMoved
	v.ptr, v.n, v.cap = 0, 0, 0
	return p, nil
}

// Destroy frees the buffer. Elements are not destroyed. Calling Destroy on a
// destroyed or transferred handle does nothing.
func (v *Vec[T]) Destroy() error {
	if v.state != ownLive {
		return nil
	}
	l := v.elem.Layout()
	if err := (native.Exports{Domain: v.dom}).VecDestroy(v.parts(), l.Size, l.Align); err != nil {
		return err
	}
	v.state = ownDestroyed
	v.ptr, v.n, v.cap = 0, 0, 0
	return nil
}

func storeParts(mem Memory, addr uint32, p RawParts) error {
	if err := mem.WriteU64(addr, p.Ptr); err != nil {
		return err
	}
	if err := mem.WriteU64(addr+8, p.Len); err != nil {
		return err
	}
	return mem.WriteU64(addr+16, p.Cap)
}

func loadParts(mem Memory, addr uint32) (RawParts, error) {
	var p RawParts
	var err error
	if p.Ptr, err = mem.ReadU64(addr); err != nil {
		return p, err
	}
	if p.Len, err = mem.ReadU64(addr + 8); err != nil {
		return p, err
	}
	p.Cap, err = mem.ReadU64(addr + 16)
	return p, err
}

type vecCodec[T any] struct {
	dom  Domain
	elem Codec[T]
}

// VecCodec encodes a vector owned by dom as its triple. Store transfers the
// vector; Load reclaims the triple into a new owning handle.
func VecCodec[T any](dom Domain, elem Codec[T]) Codec[*Vec[T]] {
	return &vecCodec[T]{dom: dom, elem: elem}
}

func (c *vecCodec[T]) Name() string   { return unionName("Vec", c.elem) }
func (c *vecCodec[T]) Kind() Kind     { return KindVec }
func (c *vecCodec[T]) Layout() Layout { return VecLayout }
func (c *vecCodec[T]) WIT() wit.Type  { return typeDef("", &wit.List{Type: c.elem.WIT()}) }

func (c *vecCodec[T]) Store(mem Memory, addr uint32, v *Vec[T]) error {
	if v == nil {
		return errors.NilPointer(errors.PhaseEncode, nil, c.Name())
	}
	if err := v.state.check(errors.PhaseEncode, c.Name(), "store"); err != nil {
		return err
	}
	if err := storeParts(mem, addr, v.parts()); err != nil {
		return err
	}
	_, err := v.Transfer()
	return err
}

func (c *vecCodec[T]) Load(mem Memory, addr uint32) (*Vec[T], error) {
	p, err := loadParts(mem, addr)
	if err != nil {
		return nil, err
	}
	return ReclaimVec(c.dom, c.elem, p)
}
