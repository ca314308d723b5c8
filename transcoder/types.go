package transcoder

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/transcoder/internal/layout"
	"github.com/wippyai/interop/transcoder/internal/types"
)

type Memory = interop.Memory
type Allocator = interop.Allocator
type Domain = interop.Domain
type RawParts = interop.RawParts

type Kind = types.Kind

const (
	KindBool    = types.KindBool
	KindU8      = types.KindU8
	KindI8      = types.KindI8
	KindU16     = types.KindU16
	KindI16     = types.KindI16
	KindU32     = types.KindU32
	KindI32     = types.KindI32
	KindU64     = types.KindU64
	KindI64     = types.KindI64
	KindF32     = types.KindF32
	KindF64     = types.KindF64
	KindUnit    = types.KindUnit
	KindArray   = types.KindArray
	KindRecord  = types.KindRecord
	KindPacked  = types.KindPacked
	KindOption  = types.KindOption
	KindResult  = types.KindResult
	KindEnum    = types.KindEnum
	KindSlice   = types.KindSlice
	KindVec     = types.KindVec
	KindString  = types.KindString
	KindBinding = types.KindBinding
	KindCStr    = types.KindCStr
)

// Layout is the unmanaged size and alignment of a type.
type Layout = layout.Info

// Descriptor describes an unmanaged type independent of its Go representation.
type Descriptor interface {
	// Name is the unmanaged type name, e.g. "u32", "Option<u32>", "Point".
	Name() string
	Kind() Kind
	Layout() Layout
	// WIT describes the type for interface-description tooling.
	WIT() wit.Type
}

// Codec converts between a Go value of type T and its unmanaged layout.
// Codecs are resolved statically; there is no reflection on the hot path.
type Codec[T any] interface {
	Descriptor
	Store(mem Memory, addr uint32, v T) error
	Load(mem Memory, addr uint32) (T, error)
}

// Composite is implemented by descriptors with named members: record
// fields or tagged-union cases.
type Composite interface {
	Descriptor
	Members() []Member
}

// Member is one field of a composite or one case of a tagged union.
type Member struct {
	Name   string
	Type   Descriptor // nil for unit cases
	Offset uint32
}

func typeDef(name string, kind wit.TypeDefKind) *wit.TypeDef {
	td := &wit.TypeDef{Kind: kind}
	if name != "" {
		td.Name = &name
	}
	return td
}
