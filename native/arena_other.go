//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package native

import "github.com/wippyai/interop/errors"

const mmapSupported = false

func newMmapArena(initial, max uint32) (arena, error) {
	return nil, errors.Unsupported(errors.PhaseNative, "mmap heap on this platform")
}
