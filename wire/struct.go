package wire

import (
	"github.com/wippyai/interop/errors"
)

// FieldSpec binds one field of the Go struct S to a Wire codec.
type FieldSpec[S any] struct {
	name  string
	min   int
	size  func(s *S) int
	write func(w *Writer, s *S) error
	read  func(r *Reader, s *S) error
}

// Field declares a struct field. ref returns the address of the field inside S.
func Field[S, F any](name string, c Codec[F], ref func(*S) *F) FieldSpec[S] {
	return FieldSpec[S]{
		name:  name,
		min:   minSize(c),
		size:  func(s *S) int { return c.Size(*ref(s)) },
		write: func(w *Writer, s *S) error { return c.Write(w, *ref(s)) },
		read: func(r *Reader, s *S) error {
			v, err := c.Read(r)
			if err != nil {
				return err
			}
			*ref(s) = v
			return nil
		},
	}
}

// StructCodec encodes fields back to back in declaration order. Nested
// structs are fields whose codec is another StructCodec.
type StructCodec[S any] struct {
	name   string
	fields []FieldSpec[S]
}

func Struct[S any](name string, fields ...FieldSpec[S]) *StructCodec[S] {
	return &StructCodec[S]{name: name, fields: fields}
}

func (c *StructCodec[S]) Name() string { return c.name }

// Fields returns the field names in wire order.
func (c *StructCodec[S]) Fields() []string {
	out := make([]string, len(c.fields))
	for i, f := range c.fields {
		out[i] = f.name
	}
	return out
}

// MinSize is the sum of the fields' smallest encodings. A struct without
// fields encodes to nothing.
func (c *StructCodec[S]) MinSize() int {
	n := 0
	for _, f := range c.fields {
		n += f.min
	}
	return n
}

func (c *StructCodec[S]) Size(v S) int {
	n := 0
	for _, f := range c.fields {
		n += f.size(&v)
	}
	return n
}

func (c *StructCodec[S]) Write(w *Writer, v S) error {
	for _, f := range c.fields {
		if err := f.write(w, &v); err != nil {
			return fieldError(err, c.name, f.name)
		}
	}
	return nil
}

func (c *StructCodec[S]) Read(r *Reader) (S, error) {
	var v S
	for _, f := range c.fields {
		if err := f.read(r, &v); err != nil {
			var zero S
			return zero, fieldError(err, c.name, f.name)
		}
	}
	return v, nil
}

func fieldError(err error, record, field string) error {
	if e, ok := err.(*errors.Error); ok {
		cp := *e
		cp.Path = append([]string{field}, e.Path...)
		if cp.ABIType == "" {
			cp.ABIType = record
		}
		return &cp
	}
	return errors.New(errors.PhaseWire, errors.KindInvalidData).
		Path(field).
		ABIType(record).
		Cause(err).
		Build()
}
