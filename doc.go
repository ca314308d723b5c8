// Package interop moves values between a host domain (Go) and a native domain
// that owns its own linear memory and allocator.
//
// The module is organized by boundary concern:
//
//	interop/             Root package with Memory, Allocator, Domain and Mapper
//	├── native/          In-process native domain: heap, allocator, exported deallocators
//	├── engine/          Native domain backed by a wazero WebAssembly instance
//	├── transcoder/      Unmanaged layouts: primitives, records, tagged unions,
//	│                    slices, vectors and UTF-8 strings
//	├── callback/        Function-pointer table, thunks, delegate tables, async tokens
//	├── wire/            Length-prefixed Wire format and tri-state buffer ownership
//	├── nativetest/      A native fixture library used by the end-to-end tests
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
//	heap, err := native.NewHeap(native.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer heap.Close()
//
//	v, err := transcoder.NewVec(heap, transcoder.U32, []uint32{1, 2, 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	parts, err := v.Transfer() // v is now a tombstone
//
// # Ownership
//
// Vectors and strings are owned by exactly one domain. Transfer hands the raw
// triple to the other side and invalidates the source handle; any later access
// fails with errors.ErrMoved. Destroy may be called any number of times.
//
// Wire buffers carry their owner in the sign of the capacity field:
// zero is borrowed, positive is native-owned, negative is host-owned.
//
// # Thread Safety
//
// Codecs are stateless and safe for concurrent use. Vec, Utf8String and Slice
// handles are not synchronized; callers serialize access to a single handle.
package interop
