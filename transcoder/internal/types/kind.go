package types

type Kind uint8

const (
	KindBool Kind = iota
	KindU8
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	KindU64
	KindI64
	KindF32
	KindF64
	KindUnit
	KindArray
	KindRecord
	KindPacked
	KindOption
	KindResult
	KindEnum
	KindSlice
	KindVec
	KindString
	KindBinding
	KindCStr
)

var kindNames = [...]string{
	KindBool:    "bool",
	KindU8:      "u8",
	KindI8:      "i8",
	KindU16:     "u16",
	KindI16:     "i16",
	KindU32:     "u32",
	KindI32:     "i32",
	KindU64:     "u64",
	KindI64:     "i64",
	KindF32:     "f32",
	KindF64:     "f64",
	KindUnit:    "unit",
	KindArray:   "array",
	KindRecord:  "record",
	KindPacked:  "packed",
	KindOption:  "option",
	KindResult:  "result",
	KindEnum:    "enum",
	KindSlice:   "slice",
	KindVec:     "vec",
	KindString:  "string",
	KindBinding: "binding",
	KindCStr:    "cstr",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) IsPrimitive() bool {
	return k <= KindF64
}

// IsTaggedUnion reports whether values carry a discriminant.
func (k Kind) IsTaggedUnion() bool {
	return k == KindOption || k == KindResult || k == KindEnum
}

// Owning reports whether values own a native allocation that must be
// transferred or destroyed.
func (k Kind) Owning() bool {
	return k == KindVec || k == KindString
}
