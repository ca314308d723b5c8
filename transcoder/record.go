package transcoder

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder/internal/layout"
)

// FieldSpec binds one field of the Go struct S to a codec.
type FieldSpec[S any] struct {
	name  string
	desc  Descriptor
	store func(mem Memory, addr uint32, s *S) error
	load  func(mem Memory, addr uint32, s *S) error
}

// Field declares a struct field. ref returns the address of the field inside S.
//
//	transcoder.Field("x", transcoder.F64, func(p *Point) *float64 { return &p.X })
func Field[S, F any](name string, c Codec[F], ref func(*S) *F) FieldSpec[S] {
	return FieldSpec[S]{
		name: name,
		desc: c,
		store: func(mem Memory, addr uint32, s *S) error {
			return c.Store(mem, addr, *ref(s))
		},
		load: func(mem Memory, addr uint32, s *S) error {
			v, err := c.Load(mem, addr)
			if err != nil {
				return err
			}
			*ref(s) = v
			return nil
		},
	}
}

// RecordCodec lays out a Go struct field by field in declaration order.
type RecordCodec[S any] struct {
	name   string
	kind   Kind
	fields []FieldSpec[S]
	layout Layout
}

// Record returns a codec with sequential, naturally aligned fields.
func Record[S any](name string, fields ...FieldSpec[S]) *RecordCodec[S] {
	return newRecord(name, KindRecord, layout.Sequential, fields)
}

// Packed returns a codec with no inter-field padding and alignment 1.
func Packed[S any](name string, fields ...FieldSpec[S]) *RecordCodec[S] {
	return newRecord(name, KindPacked, layout.Packed, fields)
}

func newRecord[S any](name string, kind Kind, calc func([]layout.Info) layout.Info, fields []FieldSpec[S]) *RecordCodec[S] {
	infos := make([]layout.Info, len(fields))
	for i, f := range fields {
		infos[i] = f.desc.Layout()
	}
	return &RecordCodec[S]{
		name:   name,
		kind:   kind,
		fields: fields,
		layout: calc(infos),
	}
}

func (r *RecordCodec[S]) Name() string   { return r.name }
func (r *RecordCodec[S]) Kind() Kind     { return r.kind }
func (r *RecordCodec[S]) Layout() Layout { return r.layout }

// Offsets returns the byte offset of each field.
func (r *RecordCodec[S]) Offsets() []uint32 {
	return append([]uint32(nil), r.layout.Offsets...)
}

func (r *RecordCodec[S]) Members() []Member {
	out := make([]Member, len(r.fields))
	for i, f := range r.fields {
		out[i] = Member{Name: f.name, Type: f.desc, Offset: r.layout.Offsets[i]}
	}
	return out
}

func (r *RecordCodec[S]) WIT() wit.Type {
	fields := make([]wit.Field, len(r.fields))
	for i, f := range r.fields {
		fields[i] = wit.Field{Name: f.name, Type: f.desc.WIT()}
	}
	return typeDef(r.name, &wit.Record{Fields: fields})
}

func (r *RecordCodec[S]) Store(mem Memory, addr uint32, v S) error {
	for i, f := range r.fields {
		if err := f.store(mem, addr+r.layout.Offsets[i], &v); err != nil {
			return fieldError(errors.PhaseEncode, r.name, f.name, err)
		}
	}
	return nil
}

func (r *RecordCodec[S]) Load(mem Memory, addr uint32) (S, error) {
	var v S
	for i, f := range r.fields {
		if err := f.load(mem, addr+r.layout.Offsets[i], &v); err != nil {
			var zero S
			return zero, fieldError(errors.PhaseDecode, r.name, f.name, err)
		}
	}
	return v, nil
}

// fieldError prefixes the field name onto structured errors and wraps others.
func fieldError(phase errors.Phase, record, field string, err error) error {
	if e, ok := err.(*errors.Error); ok {
		cp := *e
		cp.Path = append([]string{field}, e.Path...)
		return &cp
	}
	return errors.New(phase, errors.KindInvalidData).
		Path(field).
		ABIType(record).
		Cause(err).
		Build()
}
