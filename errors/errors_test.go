package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseEncode,
				Kind:    KindTypeMismatch,
				Path:    []string{"point", "x"},
				GoType:  "string",
				ABIType: "u32",
				Detail:  "cannot convert",
			},
			contains: []string{"[encode]", "type_mismatch", "point.x", "Go type string", "ABI type u32", " - cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "abi type only",
			err: &Error{
				Phase:   PhaseWire,
				Kind:    KindSizeMismatch,
				ABIType: "Message",
			},
			contains: []string{"[wire]", "ABI type Message"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseNative,
				Kind:   KindAllocation,
				Detail: "heap full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[native]", "allocation", ": heap full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEncode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not follow cause chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseTransfer,
		Kind:  KindMoved,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseTransfer, Kind: KindMoved}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindMoved}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseTransfer, Kind: KindDestroyed}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrMoved) {
		t.Error("kind-only sentinel should match any phase")
	}
	if errors.Is(err, ErrDestroyed) {
		t.Error("sentinel of another kind should not match")
	}

	wrapped := fmt.Errorf("consume: %w", err)
	if !errors.Is(wrapped, ErrMoved) {
		t.Error("errors.Is should see through fmt wrapping")
	}
	var target *Error
	if !errors.As(wrapped, &target) || target.Kind != KindMoved {
		t.Errorf("errors.As = %v", target)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, KindVariantMismatch).
		Path("shape", "radius").
		GoType("float64").
		ABIType("enum Shape").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "B", "C").
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindVariantMismatch {
		t.Errorf("Kind = %v, want %v", err.Kind, KindVariantMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "shape" || err.Path[1] != "radius" {
		t.Errorf("Path = %v, want [shape radius]", err.Path)
	}
	if err.GoType != "float64" {
		t.Errorf("GoType = %v, want 'float64'", err.GoType)
	}
	if err.ABIType != "enum Shape" {
		t.Errorf("ABIType = %v, want 'enum Shape'", err.ABIType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected B, got C" {
		t.Errorf("Detail = %v, want 'expected B, got C'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		kind   Kind
		detail string
	}{
		{"TypeMismatch", TypeMismatch(PhaseEncode, []string{"field"}, "int", "string"), KindTypeMismatch, ""},
		{"VariantMismatch", VariantMismatch(PhaseDecode, "enum E", "B", "C"), KindVariantMismatch, "live variant is C"},
		{"InvalidUTF8", InvalidUTF8(PhaseDecode, []string{"str"}, []byte{0xff, 0xfe}), KindInvalidUTF8, "fffe"},
		{"AllocationFailed", AllocationFailed(PhaseNative, 1024, 8), KindAllocation, "1024"},
		{"InvalidDiscriminant", InvalidDiscriminant(PhaseWire, nil, 5, 3), KindInvalidVariant, "discriminant 5"},
		{"Unsupported", Unsupported(PhaseLayout, "payload variants"), KindUnsupported, "payload variants"},
		{"OutOfBounds", OutOfBounds(PhaseDecode, []string{"slice"}, 10, 5), KindOutOfBounds, "length 5"},
		{"LengthMismatch", LengthMismatch(PhaseEncode, "[4]u8", 4, 3), KindLengthMismatch, "expected 4"},
		{"SizeMismatch", SizeMismatch(PhaseWire, "Msg", 39, 40), KindSizeMismatch, "predicted 39"},
		{"Truncated", Truncated(PhaseWire, nil, 8, 3), KindTruncated, "need 8"},
		{"NilPointer", NilPointer(PhaseEncode, []string{"ptr"}, "*Point"), KindNilPointer, "nil pointer"},
		{"Overflow", Overflow(PhaseEncode, []string{"val"}, 300, "u8"), KindOverflow, "300"},
		{"Moved", Moved(PhaseTransfer, "Vec[u8]", "get"), KindMoved, "get after"},
		{"Destroyed", Destroyed(PhaseTransfer, "Vec[u8]", "transfer"), KindDestroyed, "transfer after destroy"},
		{"Released", Released(PhaseWire, "message"), KindReleased, "message already released"},
		{"CallbackPanic", CallbackPanic("boom"), KindCallbackPanic, "boom"},
		{"NotFound", NotFound(PhaseLoad, "export", "memory"), KindNotFound, `"memory"`},
		{"APIMismatch", APIMismatch(0xab, 0xcd), KindAPIMismatch, "reports API 00000000000000cd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if !strings.Contains(tt.err.Detail, tt.detail) {
				t.Errorf("Detail = %q, want it to contain %q", tt.err.Detail, tt.detail)
			}
		})
	}
}
