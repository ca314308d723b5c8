package transcoder

import (
	"fmt"
	"reflect"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder/internal/layout"
)

// Option discriminants.
const (
	OptionSome uint32 = 0
	OptionNone uint32 = 1
)

// Option is an optional value. The zero value is uninitialized, not None.
type Option[T any] struct {
	value T
	tag   uint32
	state unionState
}

func Some[T any](v T) Option[T] {
	return Option[T]{value: v, tag: OptionSome, state: stateKnown}
}

func None[T any]() Option[T] {
	return Option[T]{tag: OptionNone, state: stateKnown}
}

func (o Option[T]) IsSome() bool       { return o.state == stateKnown && o.tag == OptionSome }
func (o Option[T]) IsNone() bool       { return o.state == stateKnown && o.tag == OptionNone }
func (o Option[T]) Valid() bool        { return o.state == stateKnown }
func (o Option[T]) Unrecognized() bool { return o.state == stateUnrecognized }
func (o Option[T]) Tag() uint32        { return o.tag }

func (o Option[T]) variant() string {
	switch {
	case o.IsSome():
		return "Some"
	case o.IsNone():
		return "None"
	case o.Unrecognized():
		return fmt.Sprintf("<unrecognized %d>", o.tag)
	default:
		return "<uninitialized>"
	}
}

// Value returns the Some payload.
func (o Option[T]) Value() (T, error) {
	if !o.IsSome() {
		var zero T
		return zero, errors.VariantMismatch(errors.PhaseDecode, "Option", "Some", o.variant())
	}
	return o.value, nil
}

// ValueOr returns the Some payload or def.
func (o Option[T]) ValueOr(def T) T {
	if o.IsSome() {
		return o.value
	}
	return def
}

// Equal compares discriminants and, for Some, the payloads.
func (o Option[T]) Equal(other Option[T]) bool {
	if o.state != other.state || o.tag != other.tag {
		return false
	}
	if o.IsSome() {
		return reflect.DeepEqual(o.value, other.value)
	}
	return true
}

func (o Option[T]) String() string {
	if o.IsSome() {
		return fmt.Sprintf("Some(%v)", o.value)
	}
	return o.variant()
}

type optionCodec[T any] struct {
	elem   Codec[T]
	layout Layout
}

// OptionOf returns the tagged-union codec for Option<T>.
func OptionOf[T any](elem Codec[T]) Codec[Option[T]] {
	return &optionCodec[T]{
		elem:   elem,
		layout: layout.Union([]layout.Info{elem.Layout()}),
	}
}

func (c *optionCodec[T]) Name() string   { return unionName("Option", c.elem) }
func (c *optionCodec[T]) Kind() Kind     { return KindOption }
func (c *optionCodec[T]) Layout() Layout { return c.layout }
func (c *optionCodec[T]) WIT() wit.Type  { return typeDef("", &wit.Option{Type: c.elem.WIT()}) }

func (c *optionCodec[T]) Members() []Member {
	off := c.layout.Offsets[0]
	return []Member{
		{Name: "Some", Type: c.elem, Offset: off},
		{Name: "None", Offset: off},
	}
}

func (c *optionCodec[T]) Store(mem Memory, addr uint32, v Option[T]) error {
	if !v.Valid() {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			ABIType(c.Name()).
			Detail("cannot store %s option", v.variant()).
			Build()
	}
	if err := mem.WriteU32(addr, v.tag); err != nil {
		return err
	}
	if v.tag == OptionSome {
		if err := c.elem.Store(mem, addr+c.layout.Offsets[0], v.value); err != nil {
			return fieldError(errors.PhaseEncode, c.Name(), "Some", err)
		}
	}
	return nil
}

func (c *optionCodec[T]) Load(mem Memory, addr uint32) (Option[T], error) {
	tag, err := mem.ReadU32(addr)
	if err != nil {
		return Option[T]{}, err
	}
	switch tag {
	case OptionSome:
		v, err := c.elem.Load(mem, addr+c.layout.Offsets[0])
		if err != nil {
			return Option[T]{}, fieldError(errors.PhaseDecode, c.Name(), "Some", err)
		}
		return Some(v), nil
	case OptionNone:
		return None[T](), nil
	default:
		return Option[T]{tag: tag, state: stateUnrecognized}, nil
	}
}
