package callback

import (
	"context"
	"sync"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder"
)

// Pending is a completion token for one asynchronous native operation.
// Native code completes it by invoking its Binding once with the result
// encoded at the argument address. Each token is independent.
type Pending[T any] struct {
	cb    *Callback
	done  chan struct{}
	once  sync.Once
	value T
}

// Async registers a one-shot completion callback whose argument is decoded
// with codec. The callback releases itself when it fires, so a second
// completion fails with a released error.
func Async[T any](t *Table, name string, codec transcoder.Codec[T]) (*Pending[T], error) {
	p := &Pending[T]{done: make(chan struct{})}
	cb, err := register(t, name, func(_ context.Context, mem interop.Memory, _ uint64, args, _ uint32) error {
		v, err := codec.Load(mem, args)
		if err != nil {
			return err
		}
		completed := false
		p.once.Do(func() {
			p.value = v
			close(p.done)
			completed = true
		})
		if !completed {
			return errors.Released(errors.PhaseCallback, "completion token "+name)
		}
		_ = p.cb.Release()
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.cb = cb
	return p, nil
}

// Binding returns the pair native code invokes on completion.
func (p *Pending[T]) Binding() Binding {
	return p.cb.Binding()
}

// Done is closed when the operation completes.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Await blocks until completion or until ctx is done. The completion
// happens before Await returns its value.
func (p *Pending[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Release gives up on the token without waiting. It does not stop the native
// operation; a completion arriving afterwards fails with a released error.
func (p *Pending[T]) Release() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	return p.cb.Release()
}
