package nativetest

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/interop/callback"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder"
)

type job struct {
	done callback.Binding
	n    uint32
}

// AsyncSquare schedules n*n to be computed on the library's worker and
// delivered as a u64 to the completion binding done. It returns before
// the work starts.
func (l *Library) AsyncSquare(done callback.Binding, n uint32) error {
	if done.IsNull() {
		return errors.NilPointer(errors.PhaseNative, []string{"done"}, "Binding")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.NotInitialized(errors.PhaseNative, "library")
	}
	l.jobs.Add(job{done: done, n: n})
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

func (l *Library) pump() {
	defer close(l.stopped)
	for {
		j, ok := func() (job, bool) {
			l.mu.Lock()
			defer l.mu.Unlock()
			return l.jobs.Pop()
		}()
		if !ok {
			select {
			case <-l.stop:
				return
			case <-l.wake:
				continue
			}
		}
		sq := uint64(j.n) * uint64(j.n)
		if _, err := call(context.Background(), l, j.done, transcoder.U64, transcoder.UnitCodec, sq); err != nil {
			Logger().Warn("async completion failed",
				zap.Stringer("fn", j.done.Fn),
				zap.Error(err))
		}
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
