package types //nolint:revive // package name is used by internal consumers

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		want string
		kind Kind
	}{
		{"bool", KindBool},
		{"u8", KindU8},
		{"i8", KindI8},
		{"u16", KindU16},
		{"i16", KindI16},
		{"u32", KindU32},
		{"i32", KindI32},
		{"u64", KindU64},
		{"i64", KindI64},
		{"f32", KindF32},
		{"f64", KindF64},
		{"unit", KindUnit},
		{"array", KindArray},
		{"record", KindRecord},
		{"packed", KindPacked},
		{"option", KindOption},
		{"result", KindResult},
		{"enum", KindEnum},
		{"slice", KindSlice},
		{"vec", KindVec},
		{"string", KindString},
		{"binding", KindBinding},
		{"cstr", KindCStr},
		{"unknown", Kind(255)},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.kind.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKindPredicates(t *testing.T) {
	for k := KindBool; k <= KindF64; k++ {
		if !k.IsPrimitive() {
			t.Errorf("%s should be primitive", k)
		}
	}
	for _, k := range []Kind{KindUnit, KindRecord, KindOption, KindVec, KindString, KindBinding} {
		if k.IsPrimitive() {
			t.Errorf("%s should not be primitive", k)
		}
	}

	for _, k := range []Kind{KindOption, KindResult, KindEnum} {
		if !k.IsTaggedUnion() {
			t.Errorf("%s should be a tagged union", k)
		}
	}
	if KindRecord.IsTaggedUnion() {
		t.Error("record should not be a tagged union")
	}

	for _, k := range []Kind{KindVec, KindString} {
		if !k.Owning() {
			t.Errorf("%s should own its allocation", k)
		}
	}
	if KindSlice.Owning() {
		t.Error("slice should not own its memory")
	}
}
