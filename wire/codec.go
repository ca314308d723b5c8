package wire

import (
	"fmt"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/wippyai/interop/errors"
)

// Codec serializes values of type T in the Wire format. Size must return
// exactly the number of bytes Write appends for the same value.
type Codec[T any] interface {
	Name() string
	Size(v T) int
	Write(w *Writer, v T) error
	Read(r *Reader) (T, error)
}

// fixed is a codec whose encoding has the same width for every value.
type fixed[T any] struct {
	name  string
	size  int
	write func(w *Writer, v T)
	read  func(r *Reader) (T, error)
}

func (f *fixed[T]) Name() string               { return f.name }
func (f *fixed[T]) Size(T) int                 { return f.size }
func (f *fixed[T]) Read(r *Reader) (T, error)  { return f.read(r) }
func (f *fixed[T]) Write(w *Writer, v T) error { f.write(w, v); return nil }

// minSizer is implemented by codecs that know the smallest encoding of any
// of their values. It may be zero.
type minSizer interface {
	MinSize() int
}

// minSize is the smallest encoding of any value, used to bound counts.
// Codecs that do not say are assumed to take at least one byte.
func minSize[T any](c Codec[T]) int {
	if m, ok := c.(minSizer); ok {
		return m.MinSize()
	}
	return 1
}

func (f *fixed[T]) MinSize() int { return f.size }
func (stringCodec) MinSize() int { return LengthSize }
func (bytesCodec) MinSize() int  { return LengthSize }
func (vecCodec[T]) MinSize() int { return LengthSize }

// Primitive codecs. Bool writes 1 for true; any non-zero byte reads as true.
var (
	Bool Codec[bool]    = &fixed[bool]{name: "bool", size: 1, write: (*Writer).Bool, read: (*Reader).Bool}
	U8   Codec[uint8]   = &fixed[uint8]{name: "u8", size: 1, write: (*Writer).Uint8, read: (*Reader).Uint8}
	U16  Codec[uint16]  = &fixed[uint16]{name: "u16", size: 2, write: (*Writer).Uint16, read: (*Reader).Uint16}
	U32  Codec[uint32]  = &fixed[uint32]{name: "u32", size: 4, write: (*Writer).Uint32, read: (*Reader).Uint32}
	U64  Codec[uint64]  = &fixed[uint64]{name: "u64", size: 8, write: (*Writer).Uint64, read: (*Reader).Uint64}
	F32  Codec[float32] = &fixed[float32]{name: "f32", size: 4, write: (*Writer).Float32, read: (*Reader).Float32}
	F64  Codec[float64] = &fixed[float64]{name: "f64", size: 8, write: (*Writer).Float64, read: (*Reader).Float64}

	I8 Codec[int8] = &fixed[int8]{
		name: "i8", size: 1,
		write: func(w *Writer, v int8) { w.Uint8(uint8(v)) },
		read: func(r *Reader) (int8, error) {
			v, err := r.Uint8()
			return int8(v), err
		},
	}
	I16 Codec[int16] = &fixed[int16]{
		name: "i16", size: 2,
		write: func(w *Writer, v int16) { w.Uint16(uint16(v)) },
		read: func(r *Reader) (int16, error) {
			v, err := r.Uint16()
			return int16(v), err
		},
	}
	I32 Codec[int32] = &fixed[int32]{
		name: "i32", size: 4,
		write: func(w *Writer, v int32) { w.Uint32(uint32(v)) },
		read: func(r *Reader) (int32, error) {
			v, err := r.Uint32()
			return int32(v), err
		},
	}
	I64 Codec[int64] = &fixed[int64]{
		name: "i64", size: 8,
		write: func(w *Writer, v int64) { w.Uint64(uint64(v)) },
		read: func(r *Reader) (int64, error) {
			v, err := r.Uint64()
			return int64(v), err
		},
	}
)

type stringCodec struct{}

// String is a length-prefixed UTF-8 string. Invalid UTF-8 is rejected in
// both directions.
var String Codec[string] = stringCodec{}

func (stringCodec) Name() string                   { return "string" }
func (stringCodec) Size(s string) int              { return LengthSize + len(s) }
func (stringCodec) Read(r *Reader) (string, error) { return r.String() }

func (stringCodec) Write(w *Writer, s string) error {
	if !utf8.ValidString(s) {
		return errors.InvalidUTF8(errors.PhaseWire, nil, []byte(s))
	}
	w.String(s)
	return nil
}

type bytesCodec struct{}

// Bytes is a length-prefixed byte vector copied in bulk.
var Bytes Codec[[]byte] = bytesCodec{}

func (bytesCodec) Name() string                    { return "vec<u8>" }
func (bytesCodec) Size(b []byte) int               { return LengthSize + len(b) }
func (bytesCodec) Write(w *Writer, b []byte) error { w.Bytes(b); return nil }
func (bytesCodec) Read(r *Reader) ([]byte, error)  { return r.Bytes() }

type vecCodec[T any] struct {
	elem Codec[T]
}

// Vec is a count-prefixed homogeneous sequence.
func Vec[T any](elem Codec[T]) Codec[[]T] {
	return vecCodec[T]{elem: elem}
}

func (c vecCodec[T]) Name() string { return "vec<" + c.elem.Name() + ">" }

func (c vecCodec[T]) Size(v []T) int {
	if f, ok := c.elem.(*fixed[T]); ok {
		return LengthSize + len(v)*f.size
	}
	n := LengthSize
	for _, e := range v {
		n += c.elem.Size(e)
	}
	return n
}

func (c vecCodec[T]) Write(w *Writer, v []T) error {
	w.Length(len(v))
	for i, e := range v {
		if err := c.elem.Write(w, e); err != nil {
			return elemError(err, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

func (c vecCodec[T]) Read(r *Reader) ([]T, error) {
	n, err := r.Length(minSize(c.elem))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := range n {
		e, err := c.elem.Read(r)
		if err != nil {
			return nil, elemError(err, fmt.Sprintf("[%d]", i))
		}
		out = append(out, e)
	}
	return out, nil
}

type mapCodec[K comparable, V any] struct {
	key Codec[K]
	val Codec[V]
}

// Map is a count-prefixed stream of key/value pairs. Go maps have no order,
// so the wire order of a Map is unspecified; use OrderedMap when it matters.
// Duplicate keys on decode are rejected.
func Map[K comparable, V any](key Codec[K], val Codec[V]) Codec[map[K]V] {
	return mapCodec[K, V]{key: key, val: val}
}

func (c mapCodec[K, V]) Name() string {
	return "map<" + c.key.Name() + ", " + c.val.Name() + ">"
}

func (c mapCodec[K, V]) Size(m map[K]V) int {
	n := LengthSize
	for k, v := range m {
		n += c.key.Size(k) + c.val.Size(v)
	}
	return n
}

func (c mapCodec[K, V]) Write(w *Writer, m map[K]V) error {
	w.Length(len(m))
	for k, v := range m {
		if err := c.key.Write(w, k); err != nil {
			return elemError(err, fmt.Sprintf("{%v}", k))
		}
		if err := c.val.Write(w, v); err != nil {
			return elemError(err, fmt.Sprintf("[%v]", k))
		}
	}
	return nil
}

func (c mapCodec[K, V]) Read(r *Reader) (map[K]V, error) {
	n, err := r.Length(minSize(c.key) + minSize(c.val))
	if err != nil {
		return nil, err
	}
	out := make(map[K]V, r.capHint(n))
	for range n {
		k, v, err := readPair(r, c.key, c.val)
		if err != nil {
			return nil, err
		}
		if _, dup := out[k]; dup {
			return nil, duplicateKey(k)
		}
		out[k] = v
	}
	return out, nil
}

type orderedMapCodec[K comparable, V any] struct {
	key Codec[K]
	val Codec[V]
}

// OrderedMap is Map for insertion-ordered maps: the wire order is the
// insertion order and decoding restores it.
func OrderedMap[K comparable, V any](key Codec[K], val Codec[V]) Codec[*orderedmap.OrderedMap[K, V]] {
	return orderedMapCodec[K, V]{key: key, val: val}
}

func (c orderedMapCodec[K, V]) Name() string {
	return "map<" + c.key.Name() + ", " + c.val.Name() + ">"
}

func (c orderedMapCodec[K, V]) Size(m *orderedmap.OrderedMap[K, V]) int {
	n := LengthSize
	if m == nil {
		return n
	}
	for p := m.Oldest(); p != nil; p = p.Next() {
		n += c.key.Size(p.Key) + c.val.Size(p.Value)
	}
	return n
}

func (c orderedMapCodec[K, V]) Write(w *Writer, m *orderedmap.OrderedMap[K, V]) error {
	if m == nil {
		w.Length(0)
		return nil
	}
	w.Length(m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		if err := c.key.Write(w, p.Key); err != nil {
			return elemError(err, fmt.Sprintf("{%v}", p.Key))
		}
		if err := c.val.Write(w, p.Value); err != nil {
			return elemError(err, fmt.Sprintf("[%v]", p.Key))
		}
	}
	return nil
}

func (c orderedMapCodec[K, V]) Read(r *Reader) (*orderedmap.OrderedMap[K, V], error) {
	n, err := r.Length(minSize(c.key) + minSize(c.val))
	if err != nil {
		return nil, err
	}
	out := orderedmap.New[K, V](r.capHint(n))
	for range n {
		k, v, err := readPair(r, c.key, c.val)
		if err != nil {
			return nil, err
		}
		if _, present := out.Set(k, v); present {
			return nil, duplicateKey(k)
		}
	}
	return out, nil
}

func readPair[K, V any](r *Reader, key Codec[K], val Codec[V]) (K, V, error) {
	var zk K
	var zv V
	k, err := key.Read(r)
	if err != nil {
		return zk, zv, err
	}
	v, err := val.Read(r)
	if err != nil {
		return zk, zv, elemError(err, fmt.Sprintf("[%v]", k))
	}
	return k, v, nil
}

func duplicateKey(k any) error {
	return errors.New(errors.PhaseWire, errors.KindInvalidData).
		Detail("duplicate map key %v", k).
		Value(k).
		Build()
}

type optionalCodec[T any] struct {
	elem Codec[T]
}

// Optional is a presence byte followed by the payload when present.
// A nil pointer is absent.
func Optional[T any](elem Codec[T]) Codec[*T] {
	return optionalCodec[T]{elem: elem}
}

func (c optionalCodec[T]) Name() string { return "option<" + c.elem.Name() + ">" }

func (c optionalCodec[T]) Size(v *T) int {
	if v == nil {
		return 1
	}
	return 1 + c.elem.Size(*v)
}

func (c optionalCodec[T]) Write(w *Writer, v *T) error {
	w.Bool(v != nil)
	if v == nil {
		return nil
	}
	return c.elem.Write(w, *v)
}

func (c optionalCodec[T]) Read(r *Reader) (*T, error) {
	present, err := r.Bool()
	if err != nil || !present {
		return nil, err
	}
	v, err := c.elem.Read(r)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type enumCodec[E ~uint32] struct {
	name  string
	cases []string
}

// Enum is a 4-byte discriminant of a unit-only enumeration whose cases are
// numbered from 0 in the order given. Unknown discriminants fail.
func Enum[E ~uint32](name string, cases ...string) Codec[E] {
	return enumCodec[E]{name: name, cases: cases}
}

func (c enumCodec[E]) Name() string { return c.name }
func (c enumCodec[E]) Size(E) int   { return 4 }

func (c enumCodec[E]) check(v E) error {
	if uint32(v) >= uint32(len(c.cases)) {
		return errors.InvalidDiscriminant(errors.PhaseWire, []string{c.name}, uint32(v), uint32(len(c.cases))-1)
	}
	return nil
}

func (c enumCodec[E]) Write(w *Writer, v E) error {
	if err := c.check(v); err != nil {
		return err
	}
	w.Uint32(uint32(v))
	return nil
}

func (c enumCodec[E]) Read(r *Reader) (E, error) {
	d, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	if err := c.check(E(d)); err != nil {
		return 0, err
	}
	return E(d), nil
}

// CaseName returns the declared name of v.
func (c enumCodec[E]) CaseName(v E) string {
	if uint32(v) < uint32(len(c.cases)) {
		return c.cases[v]
	}
	return fmt.Sprintf("%s(%d)", c.name, uint32(v))
}

func elemError(err error, elem string) error {
	if e, ok := err.(*errors.Error); ok {
		cp := *e
		cp.Path = append([]string{elem}, e.Path...)
		return &cp
	}
	return err
}
