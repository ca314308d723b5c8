//go:build linux || darwin || freebsd || netbsd || openbsd

package native

import (
	"golang.org/x/sys/unix"

	"github.com/wippyai/interop/errors"
)

const mmapSupported = true

// mmapArena reserves the maximum size up front so the base address never moves.
type mmapArena struct {
	buf  []byte
	size uint32
}

func newMmapArena(initial, max uint32) (arena, error) {
	buf, err := unix.Mmap(-1, 0, int(max), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseNative, errors.KindAllocation, err, "mmap heap")
	}
	return &mmapArena{buf: buf, size: initial}, nil
}

func (a *mmapArena) bytes() []byte {
	return a.buf[:a.size]
}

func (a *mmapArena) grow(newSize uint32) error {
	if int(newSize) > len(a.buf) {
		return errors.AllocationFailed(errors.PhaseNative, newSize, 1)
	}
	if newSize > a.size {
		a.size = newSize
	}
	return nil
}

func (a *mmapArena) release() error {
	if a.buf == nil {
		return nil
	}
	err := unix.Munmap(a.buf)
	a.buf = nil
	a.size = 0
	if err != nil {
		return errors.Wrap(errors.PhaseNative, errors.KindInvalidData, err, "munmap heap")
	}
	return nil
}
