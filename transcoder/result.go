package transcoder

import (
	"fmt"
	"reflect"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder/internal/layout"
)

// Result discriminants. Panic and Null carry no payload and signal a native
// fault rather than a domain error.
const (
	ResultOk    uint32 = 0
	ResultErr   uint32 = 1
	ResultPanic uint32 = 2
	ResultNull  uint32 = 3
)

var resultVariants = [...]string{"Ok", "Err", "Panic", "Null"}

// Result is a success value or an error value. The zero value is uninitialized.
type Result[T, E any] struct {
	ok    T
	err   E
	tag   uint32
	state unionState
}

func Ok[T, E any](v T) Result[T, E] {
	return Result[T, E]{ok: v, tag: ResultOk, state: stateKnown}
}

func Err[T, E any](e E) Result[T, E] {
	return Result[T, E]{err: e, tag: ResultErr, state: stateKnown}
}

// Panic signals that the producer panicked.
func Panic[T, E any]() Result[T, E] {
	return Result[T, E]{tag: ResultPanic, state: stateKnown}
}

// Null signals that the producer was handed a null pointer.
func Null[T, E any]() Result[T, E] {
	return Result[T, E]{tag: ResultNull, state: stateKnown}
}

func (r Result[T, E]) is(tag uint32) bool { return r.state == stateKnown && r.tag == tag }

func (r Result[T, E]) IsOk() bool         { return r.is(ResultOk) }
func (r Result[T, E]) IsErr() bool        { return r.is(ResultErr) }
func (r Result[T, E]) IsPanic() bool      { return r.is(ResultPanic) }
func (r Result[T, E]) IsNull() bool       { return r.is(ResultNull) }
func (r Result[T, E]) Valid() bool        { return r.state == stateKnown }
func (r Result[T, E]) Unrecognized() bool { return r.state == stateUnrecognized }
func (r Result[T, E]) Tag() uint32        { return r.tag }

func (r Result[T, E]) variant() string {
	switch r.state {
	case stateKnown:
		return resultVariants[r.tag]
	case stateUnrecognized:
		return fmt.Sprintf("<unrecognized %d>", r.tag)
	default:
		return "<uninitialized>"
	}
}

// OkValue returns the Ok payload.
func (r Result[T, E]) OkValue() (T, error) {
	if !r.IsOk() {
		var zero T
		return zero, errors.VariantMismatch(errors.PhaseDecode, "Result", "Ok", r.variant())
	}
	return r.ok, nil
}

// ErrValue returns the Err payload.
func (r Result[T, E]) ErrValue() (E, error) {
	if !r.IsErr() {
		var zero E
		return zero, errors.VariantMismatch(errors.PhaseDecode, "Result", "Err", r.variant())
	}
	return r.err, nil
}

// Into converts to Go's (value, error) form. An Err payload becomes a
// *ResultError[E]; Panic and Null become errors matching ErrNativePanic and
// ErrNativeNull, so callers can tell native faults from domain errors.
func (r Result[T, E]) Into() (T, error) {
	var zero T
	switch {
	case r.IsOk():
		return r.ok, nil
	case r.IsErr():
		return zero, &ResultError[E]{Value: r.err}
	case r.IsPanic():
		return zero, errors.New(errors.PhaseDecode, errors.KindNativePanic).
			Detail("native side panicked").
			Build()
	case r.IsNull():
		return zero, errors.New(errors.PhaseDecode, errors.KindNativeNull).
			Detail("native side received a null pointer").
			Build()
	case r.Unrecognized():
		return zero, errors.InvalidDiscriminant(errors.PhaseDecode, nil, r.tag, ResultNull)
	default:
		return zero, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("uninitialized result").
			Build()
	}
}

// Equal compares discriminants and the live payload only.
func (r Result[T, E]) Equal(o Result[T, E]) bool {
	if r.state != o.state || r.tag != o.tag {
		return false
	}
	switch {
	case r.IsOk():
		return reflect.DeepEqual(r.ok, o.ok)
	case r.IsErr():
		return reflect.DeepEqual(r.err, o.err)
	}
	return true
}

func (r Result[T, E]) String() string {
	switch {
	case r.IsOk():
		return fmt.Sprintf("Ok(%v)", r.ok)
	case r.IsErr():
		return fmt.Sprintf("Err(%v)", r.err)
	}
	return r.variant()
}

// ResultError carries the Err payload of a Result converted with Into.
type ResultError[E any] struct {
	Value E
}

func (e *ResultError[E]) Error() string {
	if err, ok := any(e.Value).(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("result error: %v", e.Value)
}

// Unwrap exposes payloads that are themselves errors.
func (e *ResultError[E]) Unwrap() error {
	if err, ok := any(e.Value).(error); ok {
		return err
	}
	return nil
}

type resultCodec[T, E any] struct {
	ok     Codec[T]
	err    Codec[E]
	layout Layout
}

// ResultOf returns the tagged-union codec for Result<T, E>.
func ResultOf[T, E any](ok Codec[T], err Codec[E]) Codec[Result[T, E]] {
	return &resultCodec[T, E]{
		ok:     ok,
		err:    err,
		layout: layout.Union([]layout.Info{ok.Layout(), err.Layout()}),
	}
}

func (c *resultCodec[T, E]) Name() string   { return unionName("Result", c.ok, c.err) }
func (c *resultCodec[T, E]) Kind() Kind     { return KindResult }
func (c *resultCodec[T, E]) Layout() Layout { return c.layout }

func (c *resultCodec[T, E]) WIT() wit.Type {
	return typeDef("", &wit.Result{OK: c.ok.WIT(), Err: c.err.WIT()})
}

func (c *resultCodec[T, E]) Members() []Member {
	off := c.layout.Offsets[0]
	return []Member{
		{Name: "Ok", Type: c.ok, Offset: off},
		{Name: "Err", Type: c.err, Offset: off},
		{Name: "Panic", Offset: off},
		{Name: "Null", Offset: off},
	}
}

func (c *resultCodec[T, E]) Store(mem Memory, addr uint32, v Result[T, E]) error {
	if !v.Valid() {
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			ABIType(c.Name()).
			Detail("cannot store %s result", v.variant()).
			Build()
	}
	if err := mem.WriteU32(addr, v.tag); err != nil {
		return err
	}
	payload := addr + c.layout.Offsets[0]
	switch v.tag {
	case ResultOk:
		if err := c.ok.Store(mem, payload, v.ok); err != nil {
			return fieldError(errors.PhaseEncode, c.Name(), "Ok", err)
		}
	case ResultErr:
		if err := c.err.Store(mem, payload, v.err); err != nil {
			return fieldError(errors.PhaseEncode, c.Name(), "Err", err)
		}
	}
	return nil
}

func (c *resultCodec[T, E]) Load(mem Memory, addr uint32) (Result[T, E], error) {
	tag, err := mem.ReadU32(addr)
	if err != nil {
		return Result[T, E]{}, err
	}
	payload := addr + c.layout.Offsets[0]
	switch tag {
	case ResultOk:
		v, err := c.ok.Load(mem, payload)
		if err != nil {
			return Result[T, E]{}, fieldError(errors.PhaseDecode, c.Name(), "Ok", err)
		}
		return Ok[T, E](v), nil
	case ResultErr:
		e, err := c.err.Load(mem, payload)
		if err != nil {
			return Result[T, E]{}, fieldError(errors.PhaseDecode, c.Name(), "Err", err)
		}
		return Err[T](e), nil
	case ResultPanic:
		return Panic[T, E](), nil
	case ResultNull:
		return Null[T, E](), nil
	default:
		return Result[T, E]{tag: tag, state: stateUnrecognized}, nil
	}
}
