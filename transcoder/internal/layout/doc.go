// Package layout computes unmanaged size, alignment and offsets.
//
// # Layout Rules
//
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8, etc.)
//   - Sequential composites: fields in declaration order, each at its natural
//     alignment, total padded to the largest alignment
//   - Packed composites: no padding, alignment 1
//   - Tagged unions: u32 discriminant at offset 0, payload at the first
//     offset aligned for the strictest payload
//
// This package is internal to the transcoder.
package layout
