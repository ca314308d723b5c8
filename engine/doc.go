// Package engine provides a native domain backed by a wazero WebAssembly
// instance.
//
// The domain's memory is the instance's exported linear memory. Allocation
// goes through the module's exported realloc-style function when it has one
// (the Canonical ABI cabi_realloc convention). Modules that export only a
// memory are managed from the host side by a native.FreeList that grows the
// memory page by page.
//
// When no module is supplied, New generates a minimal core module: a memory
// export and, with Config.GuestAllocator, a bump allocator export.
//
//	inst, err := engine.New(ctx, engine.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer inst.Close(ctx)
//
//	v, err := transcoder.NewVec(inst, transcoder.U32, []uint32{1, 2, 3})
//
// Calls into the guest allocator are serialized by an internal lock.
package engine
