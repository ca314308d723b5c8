package native

import (
	"errors"
	"testing"

	ierrors "github.com/wippyai/interop/errors"
)

type fakeRegion struct {
	size  uint32
	limit uint32
	grows int
}

func (r *fakeRegion) Size() uint32 { return r.size }

func (r *fakeRegion) Grow(minBytes uint32) error {
	if r.size+minBytes > r.limit {
		return ierrors.AllocationFailed(ierrors.PhaseNative, minBytes, 1)
	}
	r.size += minBytes
	r.grows++
	return nil
}

func TestFreeList_AllocAlignment(t *testing.T) {
	f := NewFreeList(&fakeRegion{size: 1024, limit: 1024}, 16, 1024)

	tests := []struct {
		size, align uint32
	}{
		{1, 1}, {3, 2}, {8, 8}, {5, 4}, {16, 16}, {1, 8},
	}
	seen := map[uint32]bool{}
	for _, tt := range tests {
		ptr, err := f.Alloc(tt.size, tt.align)
		if err != nil {
			t.Fatalf("Alloc(%d, %d): %v", tt.size, tt.align, err)
		}
		if ptr%tt.align != 0 {
			t.Errorf("Alloc(%d, %d) = %d, not aligned", tt.size, tt.align, ptr)
		}
		if ptr < 16 {
			t.Errorf("Alloc returned %d below base", ptr)
		}
		if seen[ptr] {
			t.Errorf("address %d returned twice", ptr)
		}
		seen[ptr] = true
	}
	if got := f.Stats().Live; got != len(tests) {
		t.Errorf("Live = %d, want %d", got, len(tests))
	}
}

func TestFreeList_RejectsBadAlignment(t *testing.T) {
	f := NewFreeList(&fakeRegion{size: 256, limit: 256}, 16, 256)
	if _, err := f.Alloc(4, 3); err == nil {
		t.Fatal("expected error for alignment 3")
	}
}

func TestFreeList_FreeCoalesces(t *testing.T) {
	f := NewFreeList(&fakeRegion{size: 128, limit: 128}, 16, 128)

	a, _ := f.Alloc(32, 1)
	b, _ := f.Alloc(32, 1)
	c, _ := f.Alloc(32, 1)
	if _, err := f.Alloc(32, 1); err == nil {
		t.Fatal("expected exhaustion")
	}

	for _, p := range []uint32{a, c, b} {
		if err := f.Free(p, 32); err != nil {
			t.Fatalf("Free(%d): %v", p, err)
		}
	}
	st := f.Stats()
	if st.Live != 0 || st.LiveBytes != 0 {
		t.Errorf("stats after free = %+v", st)
	}
	if st.FreeBytes != 112 {
		t.Errorf("FreeBytes = %d, want 112", st.FreeBytes)
	}
	if len(f.free) != 1 {
		t.Errorf("free list not coalesced: %v", f.free)
	}

	big, err := f.Alloc(112, 1)
	if err != nil {
		t.Fatalf("Alloc after coalesce: %v", err)
	}
	if big != 16 {
		t.Errorf("Alloc = %d, want 16", big)
	}
}

func TestFreeList_FreeValidation(t *testing.T) {
	f := NewFreeList(&fakeRegion{size: 256, limit: 256}, 16, 256)
	p, _ := f.Alloc(24, 8)

	var e *ierrors.Error
	err := f.Free(p, 16)
	if !errors.As(err, &e) || e.Kind != ierrors.KindInvalidInput {
		t.Fatalf("size mismatch free = %v", err)
	}
	if !f.Owns(p) {
		t.Fatal("rejected free must not release the allocation")
	}
	if err := f.Free(p, 24); err != nil {
		t.Fatalf("Free: %v", err)
	}
	err = f.Free(p, 24)
	if !errors.As(err, &e) || e.Kind != ierrors.KindNotFound {
		t.Fatalf("double free = %v", err)
	}
}

func TestFreeList_Grows(t *testing.T) {
	r := &fakeRegion{size: 64, limit: 4096}
	f := NewFreeList(r, 16, 4096)

	p, err := f.Alloc(1000, 8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if r.grows != 1 {
		t.Errorf("grows = %d, want 1", r.grows)
	}
	if p%8 != 0 || p+1000 > r.size {
		t.Errorf("allocation %d outside region size %d", p, r.size)
	}
	if _, err := f.Alloc(4000, 1); err == nil {
		t.Error("expected failure past region limit")
	}
}

func TestFreeList_ZeroSize(t *testing.T) {
	f := NewFreeList(&fakeRegion{size: 64, limit: 64}, 16, 64)
	a, err := f.Alloc(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.Alloc(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("zero-size allocations share an address")
	}
	if err := f.Free(a, 0); err != nil {
		t.Errorf("Free zero-size: %v", err)
	}
}

func TestFreeList_MaxAlloc(t *testing.T) {
	f := NewFreeList(&fakeRegion{size: 1024, limit: 1024}, 16, 100)
	var e *ierrors.Error
	if _, err := f.Alloc(101, 1); !errors.As(err, &e) || e.Kind != ierrors.KindAllocation {
		t.Fatalf("Alloc above max = %v", err)
	}
}
