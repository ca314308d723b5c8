package wire

import (
	"github.com/wippyai/interop/errors"
)

// Serialize encodes v into a buffer sized by a first Size pass. A codec whose
// Size disagrees with what Write produced is reported as a size mismatch.
func Serialize[T any](c Codec[T], v T) ([]byte, error) {
	size := c.Size(v)
	w := Writer{Out: make([]byte, 0, size)}
	if err := c.Write(&w, v); err != nil {
		return nil, err
	}
	if w.Len() != size {
		return nil, errors.SizeMismatch(errors.PhaseWire, c.Name(), size, w.Len())
	}
	return w.Out, nil
}

// SerializeInto encodes v into the front of dst without allocating and
// returns the number of bytes written. dst must hold at least Size(v) bytes.
func SerializeInto[T any](c Codec[T], v T, dst []byte) (int, error) {
	size := c.Size(v)
	if len(dst) < size {
		return 0, errors.Truncated(errors.PhaseWire, nil, size, len(dst))
	}
	w := Writer{Out: dst[:0:size]}
	if err := c.Write(&w, v); err != nil {
		return 0, err
	}
	if w.Len() != size {
		return 0, errors.SizeMismatch(errors.PhaseWire, c.Name(), size, w.Len())
	}
	return size, nil
}

// Deserialize decodes exactly one value from b. Bytes left over after the
// value are an error.
func Deserialize[T any](c Codec[T], b []byte) (T, error) {
	var zero T
	r := Reader{In: b}
	v, err := c.Read(&r)
	if err != nil {
		return zero, err
	}
	if r.Remaining() != 0 {
		return zero, errors.New(errors.PhaseWire, errors.KindLengthMismatch).
			ABIType(c.Name()).
			Detail("%d trailing bytes after %d-byte value", r.Remaining(), r.Offset()).
			Build()
	}
	return v, nil
}
