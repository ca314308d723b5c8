package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/interop"
	ierrors "github.com/wippyai/interop/errors"
)

// memoryWASM is a minimal module with 1 page of memory exported as "memory".
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory"
	0x02, 0x00, // kind: memory, index 0
}

func newInstance(t *testing.T, cfg *Config) *Instance {
	t.Helper()
	ctx := context.Background()
	inst, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = inst.Close(ctx) })
	return inst
}

func TestLEB(t *testing.T) {
	tests := []struct {
		v int64
		u []byte
		s []byte
	}{
		{0, []byte{0x00}, []byte{0x00}},
		{1, []byte{0x01}, []byte{0x01}},
		{63, []byte{0x3f}, []byte{0x3f}},
		{64, []byte{0x40}, []byte{0xc0, 0x00}},
		{127, []byte{0x7f}, []byte{0xff, 0x00}},
		{128, []byte{0x80, 0x01}, []byte{0x80, 0x01}},
		{1024, []byte{0x80, 0x08}, []byte{0x80, 0x08}},
		{624485, []byte{0xe5, 0x8e, 0x26}, []byte{0xe5, 0x8e, 0x26}},
	}
	for _, tt := range tests {
		if got := appendULEB(nil, uint64(tt.v)); string(got) != string(tt.u) {
			t.Errorf("ULEB(%d) = %x, want %x", tt.v, got, tt.u)
		}
		if got := appendSLEB(nil, tt.v); string(got) != string(tt.s) {
			t.Errorf("SLEB(%d) = %x, want %x", tt.v, got, tt.s)
		}
	}
	if got := appendSLEB(nil, -1); string(got) != "\x7f" {
		t.Errorf("SLEB(-1) = %x", got)
	}
}

func TestBuildModule_MemoryOnlyMatchesHandEncoding(t *testing.T) {
	cfg := DefaultConfig()
	got := buildModule(cfg, false)
	// same as memoryWASM except the memory limits carry a max of 256 pages
	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x05, 0x05, 0x01, 0x01, 0x01, 0x80, 0x02,
		0x07, 0x0a, 0x01, 0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00,
	}
	if string(got) != string(want) {
		t.Errorf("buildModule =\n%x\nwant\n%x", got, want)
	}
}

func TestMemory_ReadWrite(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, memoryWASM)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	var mem interop.Memory = Memory{Mem: mod.ExportedMemory("memory")}

	if err := mem.Write(0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := mem.WriteU16(8, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	if err := mem.WriteU32(12, 0xCAFEBABE); err != nil {
		t.Fatal(err)
	}
	if err := mem.WriteU64(16, 0x1122334455667788); err != nil {
		t.Fatal(err)
	}
	if err := mem.WriteU8(24, 0x42); err != nil {
		t.Fatal(err)
	}

	if b, _ := mem.Read(0, 4); string(b) != "\x01\x02\x03\x04" {
		t.Errorf("Read = %v", b)
	}
	if v, _ := mem.ReadU16(8); v != 0xBEEF {
		t.Errorf("ReadU16 = %x", v)
	}
	if v, _ := mem.ReadU32(12); v != 0xCAFEBABE {
		t.Errorf("ReadU32 = %x", v)
	}
	if v, _ := mem.ReadU64(16); v != 0x1122334455667788 {
		t.Errorf("ReadU64 = %x", v)
	}
	if v, _ := mem.ReadU8(24); v != 0x42 {
		t.Errorf("ReadU8 = %x", v)
	}

	if _, err := mem.Read(pageSize-2, 4); !errors.Is(err, ierrors.ErrOutOfBounds) {
		t.Errorf("read past end = %v", err)
	}
	if err := mem.WriteU64(pageSize-4, 1); !errors.Is(err, ierrors.ErrOutOfBounds) {
		t.Errorf("write past end = %v", err)
	}
}

func TestInstance_HostAllocator(t *testing.T) {
	inst := newInstance(t, DefaultConfig())
	if inst.GuestManaged() {
		t.Fatal("generated memory-only module should use host allocation")
	}

	a, err := inst.Alloc(100, 8)
	if err != nil {
		t.Fatal(err)
	}
	if a < 1024 || a%8 != 0 {
		t.Errorf("Alloc = %d", a)
	}
	b, err := inst.Alloc(3*pageSize, 8)
	if err != nil {
		t.Fatalf("Alloc across growth: %v", err)
	}
	if inst.Size() < b+3*pageSize {
		t.Errorf("memory size %d does not cover allocation at %d", inst.Size(), b)
	}
	if err := inst.WriteU32(b+3*pageSize-4, 7); err != nil {
		t.Errorf("write at end of grown allocation: %v", err)
	}

	inst.Free(a, 100, 8)
	inst.Free(a, 100, 8)
	c, err := inst.Alloc(100, 8)
	if err != nil {
		t.Fatal(err)
	}
	if c != a {
		t.Errorf("freed block not reused: %d != %d", c, a)
	}
}

func TestInstance_GuestAllocator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GuestAllocator = true
	inst := newInstance(t, cfg)
	if !inst.GuestManaged() {
		t.Fatal("expected guest allocator")
	}

	a, err := inst.Alloc(10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if a != 1024 {
		t.Errorf("first allocation = %d, want heap base 1024", a)
	}
	b, err := inst.Alloc(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if b != 1040 {
		t.Errorf("aligned allocation = %d, want 1040", b)
	}

	big, err := inst.Alloc(2*pageSize, 16)
	if err != nil {
		t.Fatalf("Alloc across growth: %v", err)
	}
	if err := inst.WriteU64(big+2*pageSize-8, 1); err != nil {
		t.Errorf("guest did not grow memory: %v", err)
	}
	inst.Free(a, 10, 1)
}

func TestInstance_GuestAllocatorLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GuestAllocator = true
	cfg.MaxPages = 2
	inst := newInstance(t, cfg)

	if _, err := inst.Alloc(4*pageSize, 8); err == nil {
		t.Fatal("expected allocation past max pages to fail")
	}
}

func TestInstance_CustomModule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Module = memoryWASM
	inst := newInstance(t, cfg)
	if inst.Size() != pageSize {
		t.Errorf("Size = %d", inst.Size())
	}

	cfg = DefaultConfig()
	cfg.Module = memoryWASM
	cfg.MemoryExport = "heap"
	if _, err := New(context.Background(), cfg); !errors.Is(err, &ierrors.Error{Kind: ierrors.KindNotFound}) {
		t.Errorf("missing export = %v", err)
	}

	cfg = DefaultConfig()
	cfg.Module = []byte("not wasm")
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected compile failure")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"initial above max", func(c *Config) { c.InitialPages = c.MaxPages + 1 }, true},
		{"zero pages", func(c *Config) { c.InitialPages = 0 }, true},
		{"too many pages", func(c *Config) { c.MaxPages = 40000 }, true},
		{"no memory export", func(c *Config) { c.MemoryExport = "" }, true},
		{"heap base in null page", func(c *Config) { c.HeapBase = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
