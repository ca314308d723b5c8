// Package wire implements the Wire message format, a length-prefixed binary
// serialization used instead of raw pointer passing when one side cannot
// keep its memory pinned for the duration of a call.
//
// Encoding rules (all integers little-endian):
//
//	bool        1 byte, 1 for true; any non-zero byte decodes as true
//	integers    fixed width two's complement
//	floats      IEEE-754 bit pattern
//	string      u64 byte length, then UTF-8 bytes
//	vec<T>      u64 element count, then elements
//	map<K, V>   u64 pair count, then key/value pairs
//	option<T>   1 presence byte, then the payload when present
//	enum        u32 discriminant of a unit case
//	struct      fields back to back in declaration order
//
// Codec.Size predicts exactly the number of bytes Write appends, so buffers
// are allocated once at the right size. Deserialize consumes the whole
// input; trailing bytes are an error.
//
// A Message places an encoded value in a Buffer whose signed capacity says
// who frees it:
//
//	Cap == 0   borrowed: the caller owns the bytes
//	Cap  > 0   native-owned: freed with the native wire buffer deallocator
//	Cap  < 0   host-owned: pinned host bytes, unmapped and unpinned on release
//
// Release is idempotent; a released message refuses further reads.
package wire
