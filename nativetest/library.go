package nativetest

import (
	"context"
	"sync"

	"github.com/creachadair/mds/queue"
	"go.uber.org/zap"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/callback"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder"
)

// Library is the native side of the fixtures. Its exported methods behave
// like C entry points: they see only addresses, raw parts, bindings and
// buffers.
type Library struct {
	Domain interop.Domain
	Table  *callback.Table

	mu        sync.Mutex
	cleanups  []string
	delegates []callback.Binding
	jobs      queue.Queue[job]
	closed    bool

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

// New loads the library into dom with the bindings in this package.
// Callbacks it invokes must be registered in t, and t must share dom.
func New(dom interop.Domain, t *callback.Table) (*Library, error) {
	return Open(dom, t, API(dom).Version())
}

// Open loads the library and fails with api_mismatch unless it reports the
// API version the caller's bindings were generated for.
func Open(dom interop.Domain, t *callback.Table, want transcoder.APIVersion) (*Library, error) {
	if t.Domain() != dom {
		return nil, errors.InvalidInput(errors.PhaseNative, "callback table belongs to another domain")
	}
	l := &Library{
		Domain:  dom,
		Table:   t,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if err := transcoder.CheckAPI(want, l.APIVersion()); err != nil {
		Logger().Error("library rejected", zap.Stringer("want", want), zap.Stringer("got", l.APIVersion()))
		return nil, err
	}
	go l.pump()
	return l, nil
}

// Close stops the async worker. Queued operations that have not started
// are dropped.
func (l *Library) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	dropped := l.jobs.Len()
	l.jobs.Clear()
	l.delegates = nil
	l.mu.Unlock()

	close(l.stop)
	<-l.stopped
	if dropped > 0 {
		Logger().Warn("async operations dropped on close", zap.Int("count", dropped))
	}
	return nil
}

// Cleanups lists the post-call steps that ran, in order.
func (l *Library) Cleanups() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.cleanups...)
}

func (l *Library) cleanup(step string) {
	l.mu.Lock()
	l.cleanups = append(l.cleanups, step)
	l.mu.Unlock()
}

// call is how native code invokes a binding: through fresh argument and
// return slots in its own domain.
func call[A, R any](ctx context.Context, l *Library, b callback.Binding, args transcoder.Codec[A], ret transcoder.Codec[R], a A) (R, error) {
	return callback.Call(ctx, l.Table, b, args, ret, a)
}
