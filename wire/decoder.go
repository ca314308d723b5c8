package wire

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
)

// A Reader consumes Wire-encoded values from In.
type Reader struct {
	In []byte

	offset int
}

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int {
	return r.offset
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.In) - r.offset
}

// Read returns the next n bytes without copying.
func (r *Reader) Read(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, errors.Truncated(errors.PhaseWire, nil, n, r.Remaining())
	}
	bs := r.In[r.offset : r.offset+n : r.offset+n]
	r.offset += n
	return bs, nil
}

func (r *Reader) Uint8() (uint8, error) {
	bs, err := r.Read(1)
	if err != nil {
		return 0, err
	}
	return bs[0], nil
}

func (r *Reader) Uint16() (uint16, error) {
	bs, err := r.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(bs), nil
}

func (r *Reader) Uint32() (uint32, error) {
	bs, err := r.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(bs), nil
}

func (r *Reader) Uint64() (uint64, error) {
	bs, err := r.Read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(bs), nil
}

// Bool reads one byte; any non-zero byte is true.
func (r *Reader) Bool() (bool, error) {
	b, err := r.Uint8()
	return b != 0, err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// Length reads a length prefix. Counts that cannot fit in the rest of the
// input at minSize bytes per item are rejected before anything is allocated.
func (r *Reader) Length(minSize int) (int, error) {
	n, err := r.Uint64()
	if err != nil {
		return 0, err
	}
	if n > abi.MaxAlloc {
		return 0, errors.Overflow(errors.PhaseWire, nil, n, "length")
	}
	if minSize > 0 && n > uint64(r.Remaining()/minSize) {
		return 0, errors.Truncated(errors.PhaseWire, nil, int(n)*minSize, r.Remaining())
	}
	return int(n), nil
}

// capHint bounds a preallocation for n decoded items by what the input can
// still hold. Zero-size items pass Length with any count.
func (r *Reader) capHint(n int) int {
	return min(n, r.Remaining()+1)
}

// Bytes reads a length-prefixed byte string into a new slice.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Length(1)
	if err != nil {
		return nil, err
	}
	bs, err := r.Read(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), bs...), nil
}

// String reads a length-prefixed string and validates its UTF-8.
func (r *Reader) String() (string, error) {
	n, err := r.Length(1)
	if err != nil {
		return "", err
	}
	bs, err := r.Read(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bs) {
		return "", errors.InvalidUTF8(errors.PhaseWire, nil, bs)
	}
	return string(bs), nil
}
