package nativetest

import (
	"github.com/wippyai/interop"
	"github.com/wippyai/interop/callback"
	"github.com/wippyai/interop/transcoder"
	"github.com/wippyai/interop/wire"
)

// API is the inventory of types and entry points the library exports.
func API(dom interop.Domain) transcoder.Inventory {
	d := func(ds ...transcoder.Descriptor) []transcoder.Descriptor { return ds }
	var (
		u32     = transcoder.U32
		binding = callback.BindingCodec
		buffer  = wire.BufferCodec
	)
	return transcoder.Inventory{
		Types: d(Sample, CheckedResult, FillSlice, VecU32(dom), binding, buffer, transcoder.CStrCodec),
		Functions: []transcoder.Signature{
			{Name: "api_version", Results: d(transcoder.U64)},
			{Name: "fill_via_callback", Params: d(binding, FillSlice)},
			{Name: "double_enum", Params: d(u32, u32)},
			{Name: "echo_wire", Params: d(buffer), Results: d(buffer)},
			{Name: "summarize_wire", Params: d(buffer), Results: d(buffer)},
			{Name: "consume_vec", Params: d(u32), Results: d(transcoder.U64)},
			{Name: "invoke_checked", Params: d(binding, u32), Results: d(CheckedResult)},
			{Name: "invoke_unchecked", Params: d(binding, u32), Results: d(u32)},
			{Name: "async_square", Params: d(binding, u32)},
			{Name: "register_delegates", Params: d(u32, u32)},
			{Name: "fire_delegates", Params: d(u32)},
			{Name: "str_len", Params: d(transcoder.CStrCodec), Results: d(u32)},
		},
	}
}

// APIVersion is the first entry point bindings call after loading.
func (l *Library) APIVersion() transcoder.APIVersion {
	return API(l.Domain).Version()
}
