package main

import (
	"strings"
	"testing"

	"github.com/wippyai/interop/native"
	"github.com/wippyai/interop/transcoder"
)

func TestCatalog(t *testing.T) {
	h, err := native.NewHeap(nil)
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}
	defer h.Close()

	descs := catalog(h)
	for i := 1; i < len(descs); i++ {
		if descs[i-1].Name() > descs[i].Name() {
			t.Fatalf("catalog not sorted: %q before %q", descs[i-1].Name(), descs[i].Name())
		}
	}

	tests := []struct {
		name  string
		size  uint32
		align uint32
	}{
		{"u32", 4, 4},
		{"Option<u32>", 8, 4},
		{"Slice<u8>", 16, 8},
		{"Point", 8, 4},
		{"WireBuffer", 16, 8},
		{"Binding", 16, 8},
		{"CStrPtr", 8, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := findDescriptor(descs, tt.name)
			if !ok {
				t.Fatalf("%s not in catalog", tt.name)
			}
			if l := d.Layout(); l.Size != tt.size || l.Align != tt.align {
				t.Errorf("layout = %d/%d, want %d/%d", l.Size, l.Align, tt.size, tt.align)
			}
		})
	}

	if _, ok := findDescriptor(descs, "nope"); ok {
		t.Error("found unknown type")
	}
}

func TestBrowseModel_Filter(t *testing.T) {
	descs := []transcoder.Descriptor{transcoder.U8, transcoder.U32, transcoder.I32}
	m := newBrowseModel(descs)
	m.filter.SetValue("U")
	m.applyFilter()
	if len(m.visible) != 2 {
		t.Fatalf("visible = %d, want 2", len(m.visible))
	}
	if !strings.Contains(m.View(), "u32") {
		t.Error("view does not list u32")
	}
}
