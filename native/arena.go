package native

import "github.com/wippyai/interop/errors"

// arena is the backing store of a heap. bytes covers [0, size).
type arena interface {
	bytes() []byte
	grow(newSize uint32) error
	release() error
}

// sliceArena lives on the Go heap and is reallocated on growth.
type sliceArena struct {
	buf []byte
	max uint32
}

func newSliceArena(initial, max uint32) *sliceArena {
	return &sliceArena{buf: make([]byte, initial), max: max}
}

func (a *sliceArena) bytes() []byte {
	return a.buf
}

func (a *sliceArena) grow(newSize uint32) error {
	if newSize > a.max {
		return errors.AllocationFailed(errors.PhaseNative, newSize, 1)
	}
	if int(newSize) <= len(a.buf) {
		return nil
	}
	buf := make([]byte, newSize)
	copy(buf, a.buf)
	a.buf = buf
	return nil
}

func (a *sliceArena) release() error {
	a.buf = nil
	return nil
}
