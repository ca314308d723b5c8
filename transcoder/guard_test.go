package transcoder

import (
	"errors"
	"testing"

	ierrors "github.com/wippyai/interop/errors"
)

func guardInventory() Inventory {
	return Inventory{
		Types: []Descriptor{
			Record("Mixed", mixedFields()...),
			OptionOf(U32),
		},
		Functions: []Signature{
			{Name: "sum", Params: []Descriptor{U32, U32}, Results: []Descriptor{U64}},
			{Name: "reset"},
		},
	}
}

func TestInventory_Version(t *testing.T) {
	base := guardInventory().Version()
	if base != guardInventory().Version() {
		t.Fatal("version is not deterministic")
	}

	reordered := guardInventory()
	reordered.Types[0], reordered.Types[1] = reordered.Types[1], reordered.Types[0]
	reordered.Functions[0], reordered.Functions[1] = reordered.Functions[1], reordered.Functions[0]
	if reordered.Version() != base {
		t.Error("declaration order changed the version")
	}

	changes := []struct {
		name   string
		modify func(inv *Inventory)
	}{
		{"packed layout", func(inv *Inventory) { inv.Types[0] = Packed("Mixed", mixedFields()...) }},
		{"renamed field", func(inv *Inventory) {
			fs := mixedFields()
			fs[3] = Field("e", F64, func(m *mixed) *float64 { return &m.D })
			inv.Types[0] = Record("Mixed", fs...)
		}},
		{"payload type", func(inv *Inventory) { inv.Types[1] = OptionOf(U64) }},
		{"param type", func(inv *Inventory) { inv.Functions[0].Params[1] = U64 }},
		{"added function", func(inv *Inventory) {
			inv.Functions = append(inv.Functions, Signature{Name: "noop"})
		}},
		{"added type", func(inv *Inventory) { inv.Types = append(inv.Types, CStrCodec) }},
	}
	for _, tt := range changes {
		t.Run(tt.name, func(t *testing.T) {
			inv := guardInventory()
			tt.modify(&inv)
			if inv.Version() == base {
				t.Errorf("version unchanged at %s", base)
			}
		})
	}
}

func TestCheckAPI(t *testing.T) {
	v := guardInventory().Version()
	if err := CheckAPI(v, v); err != nil {
		t.Fatalf("matching versions: %v", err)
	}
	err := CheckAPI(v, v+1)
	if !errors.Is(err, ierrors.ErrAPIMismatch) {
		t.Fatalf("err = %v, want api_mismatch", err)
	}
	var e *ierrors.Error
	if !errors.As(err, &e) || e.Phase != ierrors.PhaseLoad {
		t.Errorf("phase = %v", e)
	}
}
