package layout

import "github.com/wippyai/interop/internal/abi"

// DiscriminantSize is the width of every tagged-union discriminant.
const DiscriminantSize = 4

// Info is the unmanaged size and alignment of a type. Offsets holds field
// offsets for composites and the payload offset for tagged unions.
type Info struct {
	Size    uint32
	Align   uint32
	Offsets []uint32
}

var Empty = Info{Size: 0, Align: 1}

// Sequential lays fields out in declaration order with natural alignment.
// The total size is padded to the largest field alignment.
func Sequential(fields []Info) Info {
	if len(fields) == 0 {
		return Empty
	}

	offsets := make([]uint32, len(fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	for i, f := range fields {
		offset = abi.AlignTo(offset, f.Align)
		offsets[i] = offset

		if f.Align > maxAlign {
			maxAlign = f.Align
		}

		offset += f.Size
	}

	return Info{
		Size:    abi.AlignTo(offset, maxAlign),
		Align:   maxAlign,
		Offsets: offsets,
	}
}

// Packed lays fields out back to back with no padding and alignment 1.
func Packed(fields []Info) Info {
	offsets := make([]uint32, len(fields))
	offset := uint32(0)
	for i, f := range fields {
		offsets[i] = offset
		offset += f.Size
	}
	return Info{Size: offset, Align: 1, Offsets: offsets}
}

// Array is n consecutive elements. Element size already includes trailing padding.
func Array(elem Info, n uint32) Info {
	return Info{Size: elem.Size * n, Align: elem.Align}
}

// Union is a u32 discriminant at offset 0 followed by a payload region sized to
// the largest payload and aligned to the strictest one. Offsets[0] is the
// payload offset.
func Union(payloads []Info) Info {
	maxAlign := uint32(DiscriminantSize)
	maxSize := uint32(0)

	for _, p := range payloads {
		if p.Align > maxAlign {
			maxAlign = p.Align
		}
		if p.Size > maxSize {
			maxSize = p.Size
		}
	}

	payloadOffset := abi.AlignTo(DiscriminantSize, maxAlign)

	return Info{
		Size:    abi.AlignTo(payloadOffset+maxSize, maxAlign),
		Align:   maxAlign,
		Offsets: []uint32{payloadOffset},
	}
}
