// Package native implements an in-process native domain.
//
// A Heap is a linear byte region with its own first-fit allocator. On Linux
// and the BSDs the region is an anonymous mmap reserved at its maximum size,
// so the base address never moves; elsewhere it is a Go byte slice. Address 0
// is never allocated and serves as the null pointer.
//
// Host buffers can be mapped into the heap's address space above MapBase.
// Reads and writes through a mapped address go straight to the host bytes,
// which is how borrowed slices over pinned host memory are exposed to native
// code without copying.
//
// Exports bundles the builtins a native library publishes alongside its own
// functions: string and vector constructors and the destroy calls paired with
// them, including the Wire buffer deallocator that honours the ownership tag.
package native
