package transcoder

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/wippyai/interop/errors"
)

// Signature is one exported function as seen across the boundary.
type Signature struct {
	Name    string
	Params  []Descriptor
	Results []Descriptor
}

// Inventory lists the types and functions a library exposes. Bindings and
// library each build one and compare versions when the library is loaded.
type Inventory struct {
	Types     []Descriptor
	Functions []Signature
}

// APIVersion is a hash over an Inventory. Any change to a type name, kind,
// layout, member or signature changes it, additions included.
type APIVersion uint64

func (v APIVersion) String() string { return fmt.Sprintf("%016x", uint64(v)) }

// Version hashes the inventory. Declaration order does not matter; member
// order does, through the offsets.
func (inv Inventory) Version() APIVersion {
	lines := make([]string, 0, len(inv.Types)+len(inv.Functions))
	for _, d := range inv.Types {
		var sb strings.Builder
		sb.WriteString("type ")
		writeShape(&sb, d)
		lines = append(lines, sb.String())
	}
	for _, f := range inv.Functions {
		var sb strings.Builder
		sb.WriteString("fn ")
		sb.WriteString(f.Name)
		writeShapes(&sb, f.Params)
		sb.WriteString(" -> ")
		writeShapes(&sb, f.Results)
		lines = append(lines, sb.String())
	}
	slices.Sort(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return APIVersion(binary.LittleEndian.Uint64(sum[:8]))
}

func writeShapes(sb *strings.Builder, ds []Descriptor) {
	sb.WriteByte('(')
	for i, d := range ds {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeShape(sb, d)
	}
	sb.WriteByte(')')
}

func writeShape(sb *strings.Builder, d Descriptor) {
	l := d.Layout()
	fmt.Fprintf(sb, "%s:%s/%d/%d", d.Name(), d.Kind(), l.Size, l.Align)
	c, ok := d.(Composite)
	if !ok {
		return
	}
	sb.WriteByte('{')
	for i, m := range c.Members() {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(sb, "%s@%d", m.Name, m.Offset)
		if m.Type != nil {
			sb.WriteByte('=')
			writeShape(sb, m.Type)
		}
	}
	sb.WriteByte('}')
}

// CheckAPI fails with api_mismatch when the version a library reports is not
// the one its bindings were generated for.
func CheckAPI(want, got APIVersion) error {
	if want != got {
		return errors.APIMismatch(uint64(want), uint64(got))
	}
	return nil
}
