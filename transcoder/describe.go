package transcoder

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"
)

// Describe renders the unmanaged layout of d, including member offsets of
// records and unions, one line per member.
func Describe(d Descriptor) string {
	var sb strings.Builder
	describe(&sb, d, "", 0)
	return sb.String()
}

func describe(sb *strings.Builder, d Descriptor, label string, depth int) {
	indent := strings.Repeat("  ", depth)
	l := d.Layout()
	if label != "" {
		fmt.Fprintf(sb, "%s%s: %s (size=%d align=%d)\n", indent, label, d.Name(), l.Size, l.Align)
	} else {
		fmt.Fprintf(sb, "%s%s %s (size=%d align=%d)\n", indent, d.Kind(), d.Name(), l.Size, l.Align)
	}
	c, ok := d.(Composite)
	if !ok {
		return
	}
	for i, m := range c.Members() {
		if c.Kind().IsTaggedUnion() {
			if m.Type == nil {
				fmt.Fprintf(sb, "%s  [%d] %s\n", indent, i, m.Name)
				continue
			}
			describe(sb, m.Type, fmt.Sprintf("[%d] %s @%d", i, m.Name, m.Offset), depth+1)
			continue
		}
		describe(sb, m.Type, fmt.Sprintf("%s @%d", m.Name, m.Offset), depth+1)
	}
}

// WITString renders a type in WIT syntax. Named definitions are referenced
// by name.
func WITString(t wit.Type) string {
	switch t := t.(type) {
	case nil:
		return "_"
	case *wit.TypeDef:
		if t.Name != nil {
			return *t.Name
		}
		return witKind(t.Kind)
	case wit.TypeDefKind:
		return witKind(t)
	}
	return fmt.Sprintf("%v", t)
}

func witKind(k wit.TypeDefKind) string {
	switch k := k.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.String:
		return "string"
	case *wit.List:
		return "list<" + WITString(k.Type) + ">"
	case *wit.Option:
		return "option<" + WITString(k.Type) + ">"
	case *wit.Result:
		return "result<" + WITString(k.OK) + ", " + WITString(k.Err) + ">"
	case *wit.Tuple:
		parts := make([]string, len(k.Types))
		for i, e := range k.Types {
			parts[i] = WITString(e)
		}
		return "tuple<" + strings.Join(parts, ", ") + ">"
	case *wit.Record:
		parts := make([]string, len(k.Fields))
		for i, f := range k.Fields {
			parts[i] = f.Name + ": " + WITString(f.Type)
		}
		return "record { " + strings.Join(parts, ", ") + " }"
	case *wit.Enum:
		parts := make([]string, len(k.Cases))
		for i, c := range k.Cases {
			parts[i] = c.Name
		}
		return "enum { " + strings.Join(parts, ", ") + " }"
	case *wit.Variant:
		parts := make([]string, len(k.Cases))
		for i, c := range k.Cases {
			parts[i] = c.Name
			if c.Type != nil {
				parts[i] += "(" + WITString(c.Type) + ")"
			}
		}
		return "variant { " + strings.Join(parts, ", ") + " }"
	}
	return fmt.Sprintf("%T", k)
}

// Definition renders a named composite as a WIT definition, e.g.
// "record point { x: s32, y: s32 }".
func Definition(d Descriptor) string {
	td, ok := d.WIT().(*wit.TypeDef)
	if !ok || td.Name == nil {
		return WITString(d.WIT())
	}
	body := witKind(td.Kind)
	keyword, rest, _ := strings.Cut(body, " ")
	return keyword + " " + *td.Name + " " + rest
}
