package callback

import (
	"context"
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder"
)

// FuncPtr is a native-callable function pointer issued by a Table.
// FuncPtr 0 is null and never issued.
type FuncPtr uint64

// Thunk is the native entry point behind a FuncPtr. Native code passes the
// address of the encoded arguments and of a slot for the encoded return
// value; data is the binding's user-data word.
type Thunk func(ctx context.Context, mem interop.Memory, data uint64, args, ret uint32) error

// Binding is the unmanaged {function pointer, user data} pair handed to
// native code.
type Binding struct {
	Fn   FuncPtr
	Data uint64
}

// IsNull reports whether the binding has no function.
func (b Binding) IsNull() bool { return b.Fn == 0 }

// BindingLayout is two u64 words.
var BindingLayout = transcoder.Layout{Size: 16, Align: 8, Offsets: []uint32{0, 8}}

type bindingCodec struct{}

// BindingCodec encodes a Binding as {fn u64, data u64}.
var BindingCodec transcoder.Codec[Binding] = bindingCodec{}

func (bindingCodec) Name() string              { return "Binding" }
func (bindingCodec) Kind() transcoder.Kind     { return transcoder.KindBinding }
func (bindingCodec) Layout() transcoder.Layout { return BindingLayout }

func (bindingCodec) WIT() wit.Type {
	name := "binding"
	return &wit.TypeDef{
		Name: &name,
		Kind: &wit.Record{Fields: []wit.Field{
			{Name: "fn", Type: wit.U64{}},
			{Name: "data", Type: wit.U64{}},
		}},
	}
}

func (bindingCodec) Store(mem transcoder.Memory, addr uint32, b Binding) error {
	if err := mem.WriteU64(addr, uint64(b.Fn)); err != nil {
		return err
	}
	return mem.WriteU64(addr+8, b.Data)
}

func (bindingCodec) Load(mem transcoder.Memory, addr uint32) (Binding, error) {
	fn, err := mem.ReadU64(addr)
	if err != nil {
		return Binding{}, err
	}
	data, err := mem.ReadU64(addr + 8)
	if err != nil {
		return Binding{}, err
	}
	return Binding{Fn: FuncPtr(fn), Data: data}, nil
}

// EventType identifies a table lifecycle event.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventReleased
	EventInvoked
)

func (t EventType) String() string {
	switch t {
	case EventRegistered:
		return "registered"
	case EventReleased:
		return "released"
	case EventInvoked:
		return "invoked"
	}
	return "unknown"
}

// Event is a table lifecycle notification.
type Event struct {
	Name string
	Ptr  FuncPtr
	Type EventType
}

// Observer receives table lifecycle events. Observers are called
// synchronously and must not call back into the table.
type Observer interface {
	OnCallbackEvent(Event)
}

func releasedError(ptr FuncPtr) error {
	return errors.New(errors.PhaseCallback, errors.KindReleased).
		Detail("function pointer %s already released", ptr).
		Value(ptr).
		Build()
}

func (p FuncPtr) String() string {
	return fmt.Sprintf("0x%x", uint64(p))
}
