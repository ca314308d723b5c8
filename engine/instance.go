package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/native"
)

var _ interop.Domain = (*Instance)(nil)

// Instance is a native domain living inside a WebAssembly instance: its
// exported linear memory plus an allocator.
type Instance struct {
	Memory
	runtime   wazero.Runtime
	module    api.Module
	allocator interop.Allocator
	host      *native.FreeList
}

// New creates a runtime and instantiates cfg.Module, or a generated module
// when cfg.Module is nil. A nil config uses DefaultConfig.
//
// Allocation uses the module's AllocExport when it has one; otherwise a
// host-side free list manages linear memory from HeapBase up.
func New(ctx context.Context, cfg *Config) (*Instance, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wasmBytes := cfg.Module
	if wasmBytes == nil {
		wasmBytes = buildModule(cfg, cfg.GuestAllocator)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithMemoryLimitPages(cfg.MaxPages))
	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Load("compile module", err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Instantiation(err)
	}

	mem := mod.ExportedMemory(cfg.MemoryExport)
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.NotFound(errors.PhaseLoad, "memory export", cfg.MemoryExport)
	}

	inst := &Instance{
		Memory:  Memory{Mem: mem},
		runtime: rt,
		module:  mod,
	}
	if fn := mod.ExportedFunction(cfg.AllocExport); fn != nil {
		inst.allocator = &GuestAllocator{Ctx: ctx, Fn: fn}
		Logger().Debug("using guest allocator", zap.String("export", cfg.AllocExport))
	} else {
		maxAlloc := min(uint64(cfg.MaxPages)*pageSize, uint64(native.MapBase))
		inst.host = native.NewFreeList(inst.Memory, cfg.HeapBase, uint32(maxAlloc))
		Logger().Debug("using host allocator", zap.Uint32("heap_base", cfg.HeapBase))
	}
	return inst, nil
}

// Alloc implements interop.Allocator.
func (i *Instance) Alloc(size, align uint32) (uint32, error) {
	if i.host != nil {
		return i.host.Alloc(size, align)
	}
	return i.allocator.Alloc(size, align)
}

// Free implements interop.Allocator.
func (i *Instance) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	if i.host != nil {
		if err := i.host.Free(ptr, size); err != nil {
			Logger().Warn("free rejected", zap.Uint32("ptr", ptr), zap.Error(err))
		}
		return
	}
	i.allocator.Free(ptr, size, align)
}

// GuestManaged reports whether allocation goes through the module's export.
func (i *Instance) GuestManaged() bool {
	return i.host == nil
}

// Module returns the underlying wazero module.
func (i *Instance) Module() api.Module {
	return i.module
}

// Close closes the instance and its runtime.
func (i *Instance) Close(ctx context.Context) error {
	return i.runtime.Close(ctx)
}
