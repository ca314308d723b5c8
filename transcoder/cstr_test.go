package transcoder

import (
	"errors"
	"testing"

	ierrors "github.com/wippyai/interop/errors"
)

func TestCStr_AllocAndRead(t *testing.T) {
	h := newTestHeap(t)
	al := NewAllocationList()
	defer al.Release()

	c, err := AllocCStr(al, h, "hello world")
	if err != nil {
		t.Fatal(err)
	}
	if c.IsNull() || h.Stats().Live != 1 {
		t.Fatalf("ptr = 0x%x live = %d", c.Ptr(), h.Stats().Live)
	}
	got, err := c.ToHostString()
	if err != nil || got != "hello world" {
		t.Fatalf("ToHostString = %q, %v", got, err)
	}

	al.Free(h)
	if h.Stats().Live != 0 {
		t.Errorf("live after free = %d", h.Stats().Live)
	}
}

func TestCStr_StopsAtFirstNul(t *testing.T) {
	h := newTestHeap(t)
	addr, err := h.Alloc(16, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Write(addr, []byte("hello\x00world\x00")); err != nil {
		t.Fatal(err)
	}
	got, err := CStrOf(h, addr).ToHostString()
	if err != nil || got != "hello" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestCStr_ShortMappedRegion(t *testing.T) {
	h := newTestHeap(t)

	addr, err := h.Map([]byte("ab\x00"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := CStrOf(h, addr).ToHostString()
	if err != nil || got != "ab" {
		t.Errorf("terminated: got %q, %v", got, err)
	}

	addr, err = h.Map([]byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = CStrOf(h, addr).Bytes()
	var e *ierrors.Error
	if !errors.As(err, &e) || e.Kind != ierrors.KindOutOfBounds {
		t.Errorf("unterminated: err = %v, want out_of_bounds", err)
	}
}

func TestCStr_Errors(t *testing.T) {
	h := newTestHeap(t)
	al := NewAllocationList()
	defer al.FreeAndRelease(h)

	tests := []struct {
		name string
		run  func() error
		kind ierrors.Kind
	}{
		{"null pointer", func() error {
			_, err := CStrOf(h, 0).ToHostString()
			return err
		}, ierrors.KindNilPointer},
		{"zero value", func() error {
			_, err := CStrPtr{}.Bytes()
			return err
		}, ierrors.KindNilPointer},
		{"interior nul", func() error {
			_, err := AllocCStr(al, h, "a\x00b")
			return err
		}, ierrors.KindInvalidData},
		{"invalid utf8", func() error {
			addr, err := h.Map([]byte{0xff, 0xfe, 0})
			if err != nil {
				return err
			}
			_, err = CStrOf(h, addr).ToHostString()
			return err
		}, ierrors.KindInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e *ierrors.Error
			if err := tt.run(); !errors.As(err, &e) || e.Kind != tt.kind {
				t.Errorf("err = %v, want %s", err, tt.kind)
			}
		})
	}
	if al.Count() != 0 {
		t.Errorf("rejected string left %d allocations", al.Count())
	}
}

func TestCStrCodec_StoreLoad(t *testing.T) {
	h := newTestHeap(t)
	al := NewAllocationList()
	defer al.FreeAndRelease(h)

	c, err := AllocCStr(al, h, "point")
	if err != nil {
		t.Fatal(err)
	}
	slot, err := al.Alloc(h, CStrCodec.Layout().Size, CStrCodec.Layout().Align)
	if err != nil {
		t.Fatal(err)
	}
	if err := CStrCodec.Store(h, slot, c); err != nil {
		t.Fatal(err)
	}
	back, err := CStrCodec.Load(h, slot)
	if err != nil {
		t.Fatal(err)
	}
	if back.Ptr() != c.Ptr() {
		t.Errorf("ptr = 0x%x, want 0x%x", back.Ptr(), c.Ptr())
	}
	if s, err := back.ToHostString(); err != nil || s != "point" {
		t.Errorf("loaded = %q, %v", s, err)
	}

	if err := h.WriteU64(slot, 1<<40); err != nil {
		t.Fatal(err)
	}
	var e *ierrors.Error
	if _, err := CStrCodec.Load(h, slot); !errors.As(err, &e) || e.Kind != ierrors.KindOverflow {
		t.Errorf("wide pointer: err = %v, want overflow", err)
	}
}
