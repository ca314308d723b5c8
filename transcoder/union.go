package transcoder

import (
	"fmt"
	"reflect"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder/internal/layout"
)

// unionState is the lifecycle of a tagged-union value.
type unionState uint8

const (
	stateUninitialized unionState = iota
	stateKnown
	stateUnrecognized
)

// Case is one variant of an enum. Unit cases carry no payload.
type Case struct {
	name   string
	desc   Descriptor
	accept func(any) bool
	store  func(mem Memory, addr uint32, v any) error
	load   func(mem Memory, addr uint32) (any, error)
}

// CaseOf declares a variant carrying a payload of type T.
func CaseOf[T any](name string, c Codec[T]) Case {
	return Case{
		name: name,
		desc: c,
		accept: func(v any) bool {
			_, ok := v.(T)
			return ok
		},
		store: func(mem Memory, addr uint32, v any) error {
			return c.Store(mem, addr, v.(T))
		},
		load: func(mem Memory, addr uint32) (any, error) {
			return c.Load(mem, addr)
		},
	}
}

// UnitCase declares a variant without payload.
func UnitCase(name string) Case {
	return Case{name: name, accept: func(v any) bool { return v == nil }}
}

// UnionCodec is a general enum with payloads. Case i has discriminant i.
type UnionCodec struct {
	name   string
	cases  []Case
	index  map[string]uint32
	layout Layout
}

// Enum builds an enum codec. Case names must be unique.
func Enum(name string, cases ...Case) *UnionCodec {
	if len(cases) == 0 {
		panic(fmt.Sprintf("transcoder: enum %s has no cases", name))
	}
	u := &UnionCodec{
		name:  name,
		cases: cases,
		index: make(map[string]uint32, len(cases)),
	}
	payloads := make([]layout.Info, 0, len(cases))
	for i, c := range cases {
		if _, dup := u.index[c.name]; dup {
			panic(fmt.Sprintf("transcoder: duplicate case %q in enum %s", c.name, name))
		}
		u.index[c.name] = uint32(i)
		if c.desc != nil {
			payloads = append(payloads, c.desc.Layout())
		}
	}
	u.layout = layout.Union(payloads)
	return u
}

func (u *UnionCodec) Name() string   { return u.name }
func (u *UnionCodec) Kind() Kind     { return KindEnum }
func (u *UnionCodec) Layout() Layout { return u.layout }

// PayloadOffset is where every payload starts.
func (u *UnionCodec) PayloadOffset() uint32 { return u.layout.Offsets[0] }

func (u *UnionCodec) Members() []Member {
	out := make([]Member, len(u.cases))
	for i, c := range u.cases {
		out[i] = Member{Name: c.name, Type: c.desc, Offset: u.PayloadOffset()}
	}
	return out
}

func (u *UnionCodec) WIT() wit.Type {
	cases := make([]wit.Case, len(u.cases))
	allUnit := true
	for i, c := range u.cases {
		cases[i] = wit.Case{Name: c.name}
		if c.desc != nil {
			cases[i].Type = c.desc.WIT()
			allUnit = false
		}
	}
	if allUnit {
		enumCases := make([]wit.EnumCase, len(u.cases))
		for i, c := range u.cases {
			enumCases[i] = wit.EnumCase{Name: c.name}
		}
		return typeDef(u.name, &wit.Enum{Cases: enumCases})
	}
	return typeDef(u.name, &wit.Variant{Cases: cases})
}

// Variant constructs the named variant. payload must be nil for unit cases
// and of the case's Go type otherwise.
func (u *UnionCodec) Variant(name string, payload any) (Union, error) {
	tag, ok := u.index[name]
	if !ok {
		return Union{}, errors.NotFound(errors.PhaseEncode, "variant", name)
	}
	if !u.cases[tag].accept(payload) {
		return Union{}, errors.TypeMismatch(errors.PhaseEncode, []string{name}, fmt.Sprintf("%T", payload), u.caseTypeName(tag))
	}
	return Union{codec: u, state: stateKnown, tag: tag, payload: payload}, nil
}

// MustVariant is Variant for statically known arguments.
func (u *UnionCodec) MustVariant(name string, payload any) Union {
	v, err := u.Variant(name, payload)
	if err != nil {
		panic(err)
	}
	return v
}

func (u *UnionCodec) caseTypeName(tag uint32) string {
	if d := u.cases[tag].desc; d != nil {
		return d.Name()
	}
	return "()"
}

func (u *UnionCodec) Store(mem Memory, addr uint32, v Union) error {
	switch v.state {
	case stateUninitialized:
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			ABIType(u.name).
			Detail("uninitialized enum value").
			Build()
	case stateUnrecognized:
		return errors.InvalidDiscriminant(errors.PhaseEncode, nil, v.tag, uint32(len(u.cases)-1))
	}
	if v.codec != u {
		return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
			ABIType(u.name).
			Detail("value belongs to enum %s", v.codec.name).
			Build()
	}
	if err := mem.WriteU32(addr, v.tag); err != nil {
		return err
	}
	c := u.cases[v.tag]
	if c.store == nil {
		return nil
	}
	if err := c.store(mem, addr+u.PayloadOffset(), v.payload); err != nil {
		return fieldError(errors.PhaseEncode, u.name, c.name, err)
	}
	return nil
}

// Load decodes the discriminant and only the live payload. A discriminant no
// case claims yields an unrecognized value rather than an error.
func (u *UnionCodec) Load(mem Memory, addr uint32) (Union, error) {
	tag, err := mem.ReadU32(addr)
	if err != nil {
		return Union{}, err
	}
	if tag >= uint32(len(u.cases)) {
		return Union{codec: u, state: stateUnrecognized, tag: tag}, nil
	}
	c := u.cases[tag]
	var payload any
	if c.load != nil {
		payload, err = c.load(mem, addr+u.PayloadOffset())
		if err != nil {
			return Union{}, fieldError(errors.PhaseDecode, u.name, c.name, err)
		}
	}
	return Union{codec: u, state: stateKnown, tag: tag, payload: payload}, nil
}

// Union is a value of a UnionCodec enum. The zero value is uninitialized.
type Union struct {
	codec   *UnionCodec
	payload any
	tag     uint32
	state   unionState
}

// Tag returns the raw discriminant.
func (v Union) Tag() uint32 { return v.tag }

// Valid reports whether v holds a known variant.
func (v Union) Valid() bool { return v.state == stateKnown }

// Unrecognized reports whether v was decoded from a discriminant no case claims.
func (v Union) Unrecognized() bool { return v.state == stateUnrecognized }

// Variant returns the live variant name.
func (v Union) Variant() string {
	switch v.state {
	case stateKnown:
		return v.codec.cases[v.tag].name
	case stateUnrecognized:
		return fmt.Sprintf("<unrecognized %d>", v.tag)
	default:
		return "<uninitialized>"
	}
}

// Is reports whether the live variant is name.
func (v Union) Is(name string) bool {
	return v.state == stateKnown && v.codec.cases[v.tag].name == name
}

// Payload returns the live payload, nil for unit cases.
func (v Union) Payload() any { return v.payload }

// Equal compares discriminants and, for known variants, the live payload only.
func (v Union) Equal(o Union) bool {
	if v.state != o.state || v.tag != o.tag || v.codec != o.codec {
		return false
	}
	return reflect.DeepEqual(v.payload, o.payload)
}

func (v Union) String() string {
	if v.payload == nil {
		return v.Variant()
	}
	return fmt.Sprintf("%s(%v)", v.Variant(), v.payload)
}

// As returns the payload of v when its live variant is name.
func As[T any](v Union, name string) (T, error) {
	var zero T
	if !v.Is(name) {
		enumName := ""
		if v.codec != nil {
			enumName = v.codec.name
		}
		return zero, errors.VariantMismatch(errors.PhaseDecode, enumName, name, v.Variant())
	}
	p, ok := v.payload.(T)
	if !ok {
		return zero, errors.TypeMismatch(errors.PhaseDecode, []string{name}, fmt.Sprintf("%T", zero), v.codec.caseTypeName(v.tag))
	}
	return p, nil
}

func unionName(kind string, args ...Descriptor) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name()
	}
	return kind + "<" + strings.Join(names, ", ") + ">"
}
