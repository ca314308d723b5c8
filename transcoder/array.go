package transcoder

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
	"github.com/wippyai/interop/transcoder/internal/layout"
)

// ArrayCodec is an inline fixed-length array. The length is part of the type;
// nothing is written for it.
type ArrayCodec[T any] struct {
	elem   Codec[T]
	n      int
	layout Layout
}

// Array returns a codec for n consecutive elements.
func Array[T any](elem Codec[T], n int) *ArrayCodec[T] {
	return &ArrayCodec[T]{
		elem:   elem,
		n:      n,
		layout: layout.Array(elem.Layout(), uint32(n)),
	}
}

// New builds an array value, rejecting any count other than the declared length.
func (a *ArrayCodec[T]) New(elems ...T) ([]T, error) {
	if len(elems) != a.n {
		return nil, errors.LengthMismatch(errors.PhaseEncode, a.Name(), a.n, len(elems))
	}
	out := make([]T, a.n)
	copy(out, elems)
	return out, nil
}

func (a *ArrayCodec[T]) Len() int       { return a.n }
func (a *ArrayCodec[T]) Name() string   { return fmt.Sprintf("[%s; %d]", a.elem.Name(), a.n) }
func (a *ArrayCodec[T]) Kind() Kind     { return KindArray }
func (a *ArrayCodec[T]) Layout() Layout { return a.layout }

func (a *ArrayCodec[T]) WIT() wit.Type {
	elems := make([]wit.Type, a.n)
	for i := range elems {
		elems[i] = a.elem.WIT()
	}
	return typeDef("", &wit.Tuple{Types: elems})
}

func (a *ArrayCodec[T]) Store(mem Memory, addr uint32, v []T) error {
	if len(v) != a.n {
		return errors.LengthMismatch(errors.PhaseEncode, a.Name(), a.n, len(v))
	}
	stride := a.elem.Layout().Size
	for i, e := range v {
		off, ok := abi.SafeAddU32(addr, uint32(i)*stride)
		if !ok {
			return errors.Overflow(errors.PhaseEncode, []string{fmt.Sprint(i)}, addr, "address")
		}
		if err := a.elem.Store(mem, off, e); err != nil {
			return err
		}
	}
	return nil
}

func (a *ArrayCodec[T]) Load(mem Memory, addr uint32) ([]T, error) {
	out := make([]T, a.n)
	stride := a.elem.Layout().Size
	for i := range out {
		off, ok := abi.SafeAddU32(addr, uint32(i)*stride)
		if !ok {
			return nil, errors.Overflow(errors.PhaseDecode, []string{fmt.Sprint(i)}, addr, "address")
		}
		v, err := a.elem.Load(mem, off)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
