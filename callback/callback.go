package callback

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder"
)

// Callback is a host closure registered in a Table. The host must keep it
// registered for as long as native code may call it; Release ends that.
type Callback struct {
	table *Table
	name  string
	ptr   FuncPtr
}

func (c *Callback) Name() string { return c.name }
func (c *Callback) Ptr() FuncPtr { return c.ptr }

// Binding returns the pair to hand to native code, with no user data.
func (c *Callback) Binding() Binding {
	return Binding{Fn: c.ptr}
}

// BindingWith returns the pair carrying data as its user-data word.
func (c *Callback) BindingWith(data uint64) Binding {
	return Binding{Fn: c.ptr, Data: data}
}

// Release invalidates the function pointer.
func (c *Callback) Release() error {
	return c.table.Release(c.ptr)
}

func register(t *Table, name string, th Thunk) (*Callback, error) {
	ptr, err := t.Register(name, th)
	if err != nil {
		return nil, err
	}
	return &Callback{table: t, name: name, ptr: ptr}, nil
}

// Func adapts fn as an unchecked callback. A panic in fn unwinds through
// the native caller; there is nothing in the return type to carry it.
func Func[A, R any](t *Table, name string, args transcoder.Codec[A], ret transcoder.Codec[R], fn func(context.Context, A) R) (*Callback, error) {
	return register(t, name, func(ctx context.Context, mem interop.Memory, _ uint64, argsAddr, retAddr uint32) error {
		a, err := args.Load(mem, argsAddr)
		if err != nil {
			return errors.Wrap(errors.PhaseCallback, errors.KindInvalidData, err, name+": decode arguments")
		}
		return ret.Store(mem, retAddr, fn(ctx, a))
	})
}

// Checked adapts fn as a callback returning Result<R, E>. An error from fn
// is encoded as Err(mapErr(err)); a panic is recovered, logged, and encoded
// as Panic. The native caller always gets a result and keeps running.
func Checked[A, R, E any](
	t *Table,
	name string,
	args transcoder.Codec[A],
	ret transcoder.Codec[transcoder.Result[R, E]],
	fn func(context.Context, A) (R, error),
	mapErr func(error) E,
) (*Callback, error) {
	if mapErr == nil {
		return nil, errors.InvalidInput(errors.PhaseCallback, "checked callback needs an error mapping")
	}
	return register(t, name, func(ctx context.Context, mem interop.Memory, _ uint64, argsAddr, retAddr uint32) error {
		a, err := args.Load(mem, argsAddr)
		if err != nil {
			return ret.Store(mem, retAddr, transcoder.Err[R](mapErr(err)))
		}
		return ret.Store(mem, retAddr, invokeChecked(ctx, name, a, fn, mapErr))
	})
}

func invokeChecked[A, R, E any](ctx context.Context, name string, a A, fn func(context.Context, A) (R, error), mapErr func(error) E) (res transcoder.Result[R, E]) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("callback panicked",
				zap.String("name", name),
				zap.Error(errors.CallbackPanic(r)),
				zap.String("value", fmt.Sprint(r)),
			)
			res = transcoder.Panic[R, E]()
		}
	}()
	v, err := fn(ctx, a)
	if err != nil {
		return transcoder.Err[R](mapErr(err))
	}
	return transcoder.Ok[R, E](v)
}

// Call invokes b the way native code does: it allocates argument and return
// slots in the table's domain, stores a, invokes, decodes the return value
// and frees the slots.
func Call[A, R any](ctx context.Context, t *Table, b Binding, args transcoder.Codec[A], ret transcoder.Codec[R], a A) (R, error) {
	var zero R
	dom := t.Domain()
	al := transcoder.NewAllocationList()
	defer al.FreeAndRelease(dom)

	argsAddr, err := slot(al, dom, args.Layout())
	if err != nil {
		return zero, err
	}
	retAddr, err := slot(al, dom, ret.Layout())
	if err != nil {
		return zero, err
	}
	if err := args.Store(dom, argsAddr, a); err != nil {
		return zero, err
	}
	if err := t.Invoke(ctx, b, argsAddr, retAddr); err != nil {
		return zero, err
	}
	return ret.Load(dom, retAddr)
}

func slot(al *transcoder.AllocationList, dom interop.Domain, l transcoder.Layout) (uint32, error) {
	if l.Size == 0 {
		return 0, nil
	}
	return al.Alloc(dom, l.Size, l.Align)
}
