package transcoder

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	ierrors "github.com/wippyai/interop/errors"
)

func TestUnion_Layout(t *testing.T) {
	tests := []struct {
		name    string
		desc    Descriptor
		size    uint32
		align   uint32
		payload uint32
	}{
		{"option u8", OptionOf(U8), 8, 4, 4},
		{"option u64", OptionOf(U64), 16, 8, 8},
		{"result u32 u64", ResultOf(U32, U64), 16, 8, 8},
		{"result unit u16", ResultOf(UnitCodec, U16), 8, 4, 4},
		{"enum unit only", Enum("Color", UnitCase("Red"), UnitCase("Green")), 4, 4, 4},
		{"enum packed payload", Enum("E", CaseOf("A", Codec[mixed](Packed("P", mixedFields()...)))), 20, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.desc.Layout()
			if l.Size != tt.size || l.Align != tt.align || l.Offsets[0] != tt.payload {
				t.Errorf("layout = %+v, want size %d align %d payload @%d", l, tt.size, tt.align, tt.payload)
			}
		})
	}
}

func TestOption(t *testing.T) {
	c := OptionOf(U32)

	some := roundTrip(t, c, Some[uint32](42))
	if !some.IsSome() || !some.Equal(Some[uint32](42)) {
		t.Errorf("Some round trip = %v", some)
	}
	if v, err := some.Value(); err != nil || v != 42 {
		t.Errorf("Value = %d, %v", v, err)
	}

	none := roundTrip(t, c, None[uint32]())
	if !none.IsNone() {
		t.Errorf("None round trip = %v", none)
	}
	if _, err := none.Value(); !errors.Is(err, ierrors.ErrVariantMismatch) {
		t.Errorf("Value on None: %v", err)
	}
	if none.ValueOr(7) != 7 {
		t.Error("ValueOr ignored default")
	}

	if _, err := ToUnmanaged(c, Option[uint32]{}); err == nil {
		t.Error("stored an uninitialized option")
	}
}

func TestOption_EqualIgnoresDeadPayload(t *testing.T) {
	c := OptionOf(U32)
	b, err := ToUnmanaged(c, None[uint32]())
	if err != nil {
		t.Fatal(err)
	}
	b[4] = 0xAA // garbage in the dead payload region
	got, err := ToManaged(c, b)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(None[uint32]()) {
		t.Errorf("got %v", got)
	}
}

func TestResult(t *testing.T) {
	c := ResultOf(U32, I32)

	ok := roundTrip(t, c, Ok[uint32, int32](5))
	if v, err := ok.Into(); err != nil || v != 5 {
		t.Errorf("Ok.Into = %d, %v", v, err)
	}
	if _, err := ok.ErrValue(); !errors.Is(err, ierrors.ErrVariantMismatch) {
		t.Errorf("ErrValue on Ok: %v", err)
	}

	failed := roundTrip(t, c, Err[uint32](int32(-9)))
	if e, err := failed.ErrValue(); err != nil || e != -9 {
		t.Errorf("ErrValue = %d, %v", e, err)
	}
	_, err := failed.Into()
	var re *ResultError[int32]
	if !errors.As(err, &re) || re.Value != -9 {
		t.Errorf("Err.Into: %v", err)
	}
	if errors.Is(err, ierrors.ErrNativePanic) {
		t.Error("domain error matched native panic")
	}
}

func TestResult_ReservedDiscriminants(t *testing.T) {
	c := ResultOf(U32, I32)
	tests := []struct {
		name   string
		value  Result[uint32, int32]
		tag    uint32
		target error
	}{
		{"panic", Panic[uint32, int32](), ResultPanic, ierrors.ErrNativePanic},
		{"null", Null[uint32, int32](), ResultNull, ierrors.ErrNativeNull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ToUnmanaged(c, tt.value)
			if err != nil {
				t.Fatal(err)
			}
			got, err := ToManaged(c, b)
			if err != nil {
				t.Fatal(err)
			}
			if got.Tag() != tt.tag || !got.Equal(tt.value) {
				t.Errorf("got %v tag %d", got, got.Tag())
			}
			_, err = got.Into()
			if !errors.Is(err, tt.target) {
				t.Errorf("Into: %v", err)
			}
			var re *ResultError[int32]
			if errors.As(err, &re) {
				t.Error("native fault surfaced as domain error")
			}
		})
	}
}

func TestResult_Unrecognized(t *testing.T) {
	c := ResultOf(U32, I32)
	b := make([]byte, c.Layout().Size)
	b[0] = 9
	got, err := ToManaged(c, b)
	if err != nil {
		t.Fatalf("unknown discriminant failed to decode: %v", err)
	}
	if !got.Unrecognized() || got.Valid() || got.Tag() != 9 {
		t.Errorf("got %v", got)
	}
	if _, err := got.OkValue(); !errors.Is(err, ierrors.ErrVariantMismatch) {
		t.Errorf("OkValue: %v", err)
	}
	if _, err := got.Into(); !errors.Is(err, &ierrors.Error{Kind: ierrors.KindInvalidVariant}) {
		t.Errorf("Into: %v", err)
	}
	if _, err := ToUnmanaged(c, got); err == nil {
		t.Error("re-encoded an unrecognized result")
	}
}

func payloadEnum() *UnionCodec {
	return Enum("Payload",
		UnitCase("A"),
		CaseOf("B", U8),
		CaseOf("C", U32),
	)
}

func TestEnum_RoundTrip(t *testing.T) {
	e := payloadEnum()
	for _, v := range []Union{
		e.MustVariant("A", nil),
		e.MustVariant("B", uint8(200)),
		e.MustVariant("C", uint32(123)),
	} {
		t.Run(v.Variant(), func(t *testing.T) {
			got := roundTrip(t, Codec[Union](e), v)
			if !got.Equal(v) {
				t.Errorf("got %v, want %v", got, v)
			}
		})
	}
}

func TestEnum_Accessors(t *testing.T) {
	e := payloadEnum()
	v := e.MustVariant("C", uint32(123))

	got, err := As[uint32](v, "C")
	if err != nil || got != 123 {
		t.Errorf("As C = %d, %v", got, err)
	}
	_, err = As[uint8](v, "B")
	if !errors.Is(err, ierrors.ErrVariantMismatch) {
		t.Fatalf("As B: %v", err)
	}
	var ie *ierrors.Error
	if errors.As(err, &ie) && ie.ABIType != "Payload" {
		t.Errorf("ABIType = %q", ie.ABIType)
	}
}

func TestEnum_Variant(t *testing.T) {
	e := payloadEnum()
	if _, err := e.Variant("D", nil); !errors.Is(err, &ierrors.Error{Kind: ierrors.KindNotFound}) {
		t.Errorf("unknown case: %v", err)
	}
	if _, err := e.Variant("C", "text"); !errors.Is(err, &ierrors.Error{Kind: ierrors.KindTypeMismatch}) {
		t.Errorf("wrong payload type: %v", err)
	}
	if _, err := e.Variant("A", uint8(1)); err == nil {
		t.Error("unit case accepted a payload")
	}

	other := Enum("Other", UnitCase("A"))
	if _, err := ToUnmanaged(Codec[Union](e), other.MustVariant("A", nil)); !errors.Is(err, &ierrors.Error{Kind: ierrors.KindTypeMismatch}) {
		t.Errorf("foreign value: %v", err)
	}
}

func TestEnum_Unrecognized(t *testing.T) {
	e := payloadEnum()
	b := make([]byte, e.Layout().Size)
	b[0] = 3
	v, err := ToManaged(Codec[Union](e), b)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Unrecognized() || v.Is("A") {
		t.Errorf("got %v", v)
	}
	if _, err := As[uint8](v, "B"); !errors.Is(err, ierrors.ErrVariantMismatch) {
		t.Errorf("As: %v", err)
	}
}

func TestEnum_WIT(t *testing.T) {
	if got := Definition(payloadEnum()); got != "variant Payload { A, B(u8), C(u32) }" {
		t.Errorf("variant = %q", got)
	}
	colors := Enum("Color", UnitCase("Red"), UnitCase("Green"))
	if got := Definition(colors); got != "enum Color { Red, Green }" {
		t.Errorf("enum = %q", got)
	}
	members := payloadEnum().Members()
	if diff := cmp.Diff([]string{"A", "B", "C"}, []string{members[0].Name, members[1].Name, members[2].Name}); diff != "" {
		t.Errorf("members (-want +got):\n%s", diff)
	}
}

func TestEnum_DuplicateCasePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate case did not panic")
		}
	}()
	Enum("Dup", UnitCase("A"), UnitCase("A"))
}

func TestEnum_NoCasesPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("empty enum did not panic")
		}
	}()
	Enum("Empty")
}
