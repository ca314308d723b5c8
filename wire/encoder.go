package wire

import (
	"encoding/binary"
	"math"
)

// LengthSize is the width of every string, vector and map length prefix.
const LengthSize = 8

// A Writer appends Wire-encoded values to Out. All multi-byte values are
// little endian and nothing is padded.
type Writer struct {
	Out []byte
}

// Write writes bs as-is.
func (w *Writer) Write(bs []byte) {
	w.Out = append(w.Out, bs...)
}

func (w *Writer) Uint8(v uint8) {
	w.Out = append(w.Out, v)
}

func (w *Writer) Uint16(v uint16) {
	w.Out = binary.LittleEndian.AppendUint16(w.Out, v)
}

func (w *Writer) Uint32(v uint32) {
	w.Out = binary.LittleEndian.AppendUint32(w.Out, v)
}

func (w *Writer) Uint64(v uint64) {
	w.Out = binary.LittleEndian.AppendUint64(w.Out, v)
}

// Bool writes one byte, 1 for true.
func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
		return
	}
	w.Uint8(0)
}

// Length writes a length prefix.
func (w *Writer) Length(n int) {
	w.Uint64(uint64(n))
}

// Bytes writes a length-prefixed byte string.
func (w *Writer) Bytes(bs []byte) {
	w.Length(len(bs))
	w.Write(bs)
}

// String writes a length-prefixed UTF-8 string.
func (w *Writer) String(s string) {
	w.Length(len(s))
	w.Out = append(w.Out, s...)
}

func (w *Writer) Float32(v float32) { w.Uint32(math.Float32bits(v)) }
func (w *Writer) Float64(v float64) { w.Uint64(math.Float64bits(v)) }

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.Out)
}
