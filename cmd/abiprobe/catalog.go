package main

import (
	"cmp"
	"slices"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/callback"
	"github.com/wippyai/interop/nativetest"
	"github.com/wippyai/interop/transcoder"
	"github.com/wippyai/interop/wire"
)

type point struct {
	X, Y int32
}

var pointCodec = transcoder.Record("Point",
	transcoder.Field("x", transcoder.I32, func(p *point) *int32 { return &p.X }),
	transcoder.Field("y", transcoder.I32, func(p *point) *int32 { return &p.Y }),
)

// catalog lists the registered primitives plus one instance of every
// composite shape, ordered by name. Owning types are bound to dom.
func catalog(dom interop.Domain) []transcoder.Descriptor {
	descs := append(transcoder.DefaultRegistry.Descriptors(),
		transcoder.OptionOf(transcoder.U32),
		transcoder.ResultOf(transcoder.U32, transcoder.U32),
		transcoder.SliceCodec(transcoder.U8, false),
		transcoder.SliceCodec(transcoder.U8, true),
		transcoder.Array(transcoder.U16, 4),
		transcoder.VecCodec(dom, transcoder.U32),
		transcoder.StringCodec(dom),
		pointCodec,
		nativetest.Sample,
		callback.BindingCodec,
		wire.BufferCodec,
	)
	slices.SortFunc(descs, func(a, b transcoder.Descriptor) int {
		return cmp.Compare(a.Name(), b.Name())
	})
	return descs
}

func findDescriptor(descs []transcoder.Descriptor, name string) (transcoder.Descriptor, bool) {
	for _, d := range descs {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}
