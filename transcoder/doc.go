// Package transcoder converts between Go values and their unmanaged,
// byte-exact representation in a native domain.
//
// Every type is described by a Codec that is resolved statically: callers
// compose codecs for their types once and reuse them. There is no
// reflection on the encode or decode path.
//
//	┌─────────────────────────────────────────────────────────────┐
//	│ Go value ←→ [Codec] ←→ native memory (interop.Memory)       │
//	└─────────────────────────────────────────────────────────────┘
//
// # Layouts
//
//	Type            Size              Alignment
//	─────────────────────────────────────────────────
//	bool, u8, i8    1                 1
//	u16, i16        2                 2
//	u32, i32, f32   4                 4
//	u64, i64, f64   8                 8
//	[T; n]          n * size(T)       align(T)
//	record          sequential        max field align
//	packed record   sum of fields     1
//	tagged union    4 + payload       max(4, payload align)
//	Slice<T>        16                8 (ptr u64, len u64)
//	Vec<T>, String  24                8 (ptr u64, len u64, cap u64)
//
// Tagged unions store a u32 discriminant at offset 0 and every payload at
// the same offset, aligned to the widest payload. Option uses Some=0,
// None=1. Result uses Ok=0, Err=1 and reserves Panic=2 and Null=3 for
// native faults. A discriminant outside the declared cases decodes into an
// unrecognized value; reading a payload from it fails.
//
// # Ownership
//
// Slices borrow memory owned by someone else. Pin and PinMut expose a Go
// slice for the duration of one call; Wrap exposes it until the returned
// Mapping is closed.
//
// Vec and Utf8String own their buffer. Transfer hands the {ptr, len, cap}
// triple to the other side and turns the handle into a tombstone: any
// later access or second transfer fails with a moved error. Destroy frees
// the buffer and can be called any number of times.
//
// # Thread Safety
//
// Codecs are immutable and safe for concurrent use. Values that own or
// borrow native memory are not; callers serialize access to each one.
package transcoder
