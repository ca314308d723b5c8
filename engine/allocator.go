package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/interop/errors"
)

// GuestAllocator adapts an exported realloc-style function
// (old_ptr, old_size, align, new_size) -> ptr to interop.Allocator.
type GuestAllocator struct {
	Ctx context.Context
	Fn  api.Function

	mu sync.Mutex
}

// Alloc allocates memory by calling realloc(0, 0, align, size).
func (a *GuestAllocator) Alloc(size, align uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	results, err := a.Fn.Call(a.Ctx, 0, 0, uint64(align), uint64(size))
	if err != nil {
		return 0, errors.New(errors.PhaseRuntime, errors.KindAllocation).
			Detail("guest allocation of %d bytes", size).
			Cause(err).
			Build()
	}
	if len(results) == 0 {
		return 0, errors.InvalidData(errors.PhaseRuntime, nil, "allocation returned no result")
	}
	ptr := uint32(results[0])
	if ptr == 0 && size > 0 {
		return 0, errors.AllocationFailed(errors.PhaseRuntime, size, align)
	}
	return ptr, nil
}

// Free deallocates memory by calling realloc(ptr, size, align, 0).
func (a *GuestAllocator) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.Fn.Call(a.Ctx, uint64(ptr), uint64(size), uint64(align), 0); err != nil {
		Logger().Warn("guest free failed", zap.Uint32("ptr", ptr), zap.Error(err))
	}
}
