package engine

import (
	"github.com/go-playground/validator/v10"

	"github.com/wippyai/interop/errors"
)

var validate = validator.New()

// Config holds configuration for instance creation
type Config struct {
	// Module is a custom core module. It must export a memory named
	// MemoryExport. When nil a module is generated from the fields below.
	Module []byte `json:"-"`

	// InitialPages and MaxPages size the generated memory (64KB pages).
	InitialPages uint32 `json:"initial_pages" validate:"gte=1,ltefield=MaxPages"`
	MaxPages     uint32 `json:"max_pages" validate:"gte=1,lte=32768"`

	// GuestAllocator makes the generated module export a bump allocator as
	// AllocExport. Without it allocation is managed from the host side.
	GuestAllocator bool `json:"guest_allocator"`

	// HeapBase is the first address either allocator hands out.
	HeapBase uint32 `json:"heap_base" validate:"gte=8"`

	MemoryExport string `json:"memory_export" validate:"required"`
	AllocExport  string `json:"alloc_export" validate:"required"`
}

// DefaultConfig returns a 1-page instance that may grow to 16MB.
func DefaultConfig() *Config {
	return &Config{
		InitialPages: 1,
		MaxPages:     256,
		HeapBase:     1024,
		MemoryExport: "memory",
		AllocExport:  "cabi_realloc",
	}
}

// Validate checks the config constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			GoType("engine.Config").
			Detail("engine config").
			Cause(err).
			Build()
	}
	return nil
}
