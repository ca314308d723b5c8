package transcoder

import (
	"math"

	"go.bytecodealliance.org/wit"
)

// primitive is a fixed-width scalar codec. Floats are stored bit-exact,
// NaN payloads included.
type primitive[T any] struct {
	name  string
	kind  Kind
	size  uint32
	wit   wit.Type
	store func(mem Memory, addr uint32, v T) error
	load  func(mem Memory, addr uint32) (T, error)
}

func (p *primitive[T]) Name() string   { return p.name }
func (p *primitive[T]) Kind() Kind     { return p.kind }
func (p *primitive[T]) Layout() Layout { return Layout{Size: p.size, Align: p.size} }
func (p *primitive[T]) WIT() wit.Type  { return p.wit }

func (p *primitive[T]) Store(mem Memory, addr uint32, v T) error {
	return p.store(mem, addr, v)
}

func (p *primitive[T]) Load(mem Memory, addr uint32) (T, error) {
	return p.load(mem, addr)
}

// Primitive codecs. Bool is one byte; any non-zero byte decodes as true.
var (
	Bool Codec[bool] = &primitive[bool]{
		name: "bool", kind: KindBool, size: 1, wit: wit.Bool{},
		store: func(mem Memory, addr uint32, v bool) error {
			var b uint8
			if v {
				b = 1
			}
			return mem.WriteU8(addr, b)
		},
		load: func(mem Memory, addr uint32) (bool, error) {
			b, err := mem.ReadU8(addr)
			return b != 0, err
		},
	}

	U8 Codec[uint8] = &primitive[uint8]{
		name: "u8", kind: KindU8, size: 1, wit: wit.U8{},
		store: func(mem Memory, addr uint32, v uint8) error { return mem.WriteU8(addr, v) },
		load:  func(mem Memory, addr uint32) (uint8, error) { return mem.ReadU8(addr) },
	}

	I8 Codec[int8] = &primitive[int8]{
		name: "i8", kind: KindI8, size: 1, wit: wit.S8{},
		store: func(mem Memory, addr uint32, v int8) error { return mem.WriteU8(addr, uint8(v)) },
		load: func(mem Memory, addr uint32) (int8, error) {
			v, err := mem.ReadU8(addr)
			return int8(v), err
		},
	}

	U16 Codec[uint16] = &primitive[uint16]{
		name: "u16", kind: KindU16, size: 2, wit: wit.U16{},
		store: func(mem Memory, addr uint32, v uint16) error { return mem.WriteU16(addr, v) },
		load:  func(mem Memory, addr uint32) (uint16, error) { return mem.ReadU16(addr) },
	}

	I16 Codec[int16] = &primitive[int16]{
		name: "i16", kind: KindI16, size: 2, wit: wit.S16{},
		store: func(mem Memory, addr uint32, v int16) error { return mem.WriteU16(addr, uint16(v)) },
		load: func(mem Memory, addr uint32) (int16, error) {
			v, err := mem.ReadU16(addr)
			return int16(v), err
		},
	}

	U32 Codec[uint32] = &primitive[uint32]{
		name: "u32", kind: KindU32, size: 4, wit: wit.U32{},
		store: func(mem Memory, addr uint32, v uint32) error { return mem.WriteU32(addr, v) },
		load:  func(mem Memory, addr uint32) (uint32, error) { return mem.ReadU32(addr) },
	}

	I32 Codec[int32] = &primitive[int32]{
		name: "i32", kind: KindI32, size: 4, wit: wit.S32{},
		store: func(mem Memory, addr uint32, v int32) error { return mem.WriteU32(addr, uint32(v)) },
		load: func(mem Memory, addr uint32) (int32, error) {
			v, err := mem.ReadU32(addr)
			return int32(v), err
		},
	}

	U64 Codec[uint64] = &primitive[uint64]{
		name: "u64", kind: KindU64, size: 8, wit: wit.U64{},
		store: func(mem Memory, addr uint32, v uint64) error { return mem.WriteU64(addr, v) },
		load:  func(mem Memory, addr uint32) (uint64, error) { return mem.ReadU64(addr) },
	}

	I64 Codec[int64] = &primitive[int64]{
		name: "i64", kind: KindI64, size: 8, wit: wit.S64{},
		store: func(mem Memory, addr uint32, v int64) error { return mem.WriteU64(addr, uint64(v)) },
		load: func(mem Memory, addr uint32) (int64, error) {
			v, err := mem.ReadU64(addr)
			return int64(v), err
		},
	}

	F32 Codec[float32] = &primitive[float32]{
		name: "f32", kind: KindF32, size: 4, wit: wit.F32{},
		store: func(mem Memory, addr uint32, v float32) error {
			return mem.WriteU32(addr, math.Float32bits(v))
		},
		load: func(mem Memory, addr uint32) (float32, error) {
			v, err := mem.ReadU32(addr)
			return math.Float32frombits(v), err
		},
	}

	F64 Codec[float64] = &primitive[float64]{
		name: "f64", kind: KindF64, size: 8, wit: wit.F64{},
		store: func(mem Memory, addr uint32, v float64) error {
			return mem.WriteU64(addr, math.Float64bits(v))
		},
		load: func(mem Memory, addr uint32) (float64, error) {
			v, err := mem.ReadU64(addr)
			return math.Float64frombits(v), err
		},
	}
)

// Unit is the empty type, used for payload-less Result branches.
type Unit struct{}

type unitCodec struct{}

// UnitCodec occupies no bytes.
var UnitCodec Codec[Unit] = unitCodec{}

func (unitCodec) Name() string                      { return "()" }
func (unitCodec) Kind() Kind                        { return KindUnit }
func (unitCodec) Layout() Layout                    { return Layout{Size: 0, Align: 1} }
func (unitCodec) WIT() wit.Type                     { return nil }
func (unitCodec) Store(Memory, uint32, Unit) error  { return nil }
func (unitCodec) Load(Memory, uint32) (Unit, error) { return Unit{}, nil }
