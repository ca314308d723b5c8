package callback

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/native"
	"github.com/wippyai/interop/transcoder"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	cfg := native.DefaultConfig()
	cfg.InitialSize = 1 << 16
	cfg.MaxSize = 1 << 22
	cfg.GrowthStep = 1 << 16
	cfg.MaxAllocation = 1 << 20
	cfg.UseMmap = false
	h, err := native.NewHeap(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	tbl := NewTable(h)
	t.Cleanup(func() { _ = tbl.Close() })
	return tbl
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnCallbackEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestBindingCodec(t *testing.T) {
	b := Binding{Fn: 7, Data: 0xDEADBEEF}
	raw, err := transcoder.ToUnmanaged(BindingCodec, b)
	require.NoError(t, err)
	assert.Len(t, raw, 16)
	assert.Equal(t, byte(7), raw[0])
	got, err := transcoder.ToManaged(BindingCodec, raw)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestFunc_RoundTrip(t *testing.T) {
	tbl := newTestTable(t)
	cb, err := Func(tbl, "double", transcoder.U32, transcoder.U64, func(_ context.Context, v uint32) uint64 {
		return uint64(v) * 2
	})
	require.NoError(t, err)

	got, err := Call(context.Background(), tbl, cb.Binding(), transcoder.U32, transcoder.U64, 21)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)
	assert.Zero(t, tbl.Domain().(*native.Heap).Stats().Live, "call slots leaked")
}

func TestFunc_PanicPropagates(t *testing.T) {
	tbl := newTestTable(t)
	cb, err := Func(tbl, "boom", transcoder.U8, transcoder.U8, func(context.Context, uint8) uint8 {
		panic("boom")
	})
	require.NoError(t, err)

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = Call(context.Background(), tbl, cb.Binding(), transcoder.U8, transcoder.U8, 1)
	})
	assert.Zero(t, tbl.Domain().(*native.Heap).Stats().Live, "call slots leaked during unwind")
}

func TestChecked(t *testing.T) {
	tbl := newTestTable(t)
	ret := transcoder.ResultOf(transcoder.I32, transcoder.U32)
	cb, err := Checked(tbl, "div", transcoder.I32, ret,
		func(_ context.Context, v int32) (int32, error) {
			switch {
			case v == 0:
				return 0, stderrors.New("zero")
			case v < 0:
				panic("negative")
			}
			return 100 / v, nil
		},
		func(error) uint32 { return 22 },
	)
	require.NoError(t, err)

	call := func(v int32) transcoder.Result[int32, uint32] {
		res, err := Call(context.Background(), tbl, cb.Binding(), transcoder.I32, ret, v)
		require.NoError(t, err)
		return res
	}

	assert.True(t, call(4).Equal(transcoder.Ok[int32, uint32](25)))
	assert.True(t, call(0).Equal(transcoder.Err[int32](uint32(22))))

	res := call(-1)
	assert.True(t, res.IsPanic())
	_, err = res.Into()
	assert.ErrorIs(t, err, errors.ErrNativePanic)
}

func TestChecked_RequiresErrorMapping(t *testing.T) {
	tbl := newTestTable(t)
	_, err := Checked[uint8, uint8, uint8](tbl, "x", transcoder.U8, transcoder.ResultOf(transcoder.U8, transcoder.U8),
		func(context.Context, uint8) (uint8, error) { return 0, nil }, nil)
	assert.Error(t, err)
}

func TestTable_Release(t *testing.T) {
	tbl := newTestTable(t)
	obs := &recorder{}
	tbl.Subscribe(obs)

	cb, err := Func(tbl, "id", transcoder.U8, transcoder.U8, func(_ context.Context, v uint8) uint8 { return v })
	require.NoError(t, err)
	_, err = Call(context.Background(), tbl, cb.Binding(), transcoder.U8, transcoder.U8, 3)
	require.NoError(t, err)

	require.NoError(t, cb.Release())
	assert.ErrorIs(t, cb.Release(), errors.ErrReleased)
	assert.Equal(t, 0, tbl.Len())

	_, err = Call(context.Background(), tbl, cb.Binding(), transcoder.U8, transcoder.U8, 3)
	assert.ErrorIs(t, err, errors.ErrReleased)

	next, err := Func(tbl, "other", transcoder.U8, transcoder.U8, func(_ context.Context, v uint8) uint8 { return v + 1 })
	require.NoError(t, err)
	assert.NotEqual(t, cb.Ptr(), next.Ptr(), "function pointer reused")

	var types []EventType
	for _, e := range obs.events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventRegistered, EventInvoked, EventReleased, EventRegistered}, types)

	tbl.Unsubscribe(obs)
	require.NoError(t, next.Release())
	assert.Len(t, obs.events, 4)
}

func TestTable_UnknownPointer(t *testing.T) {
	tbl := newTestTable(t)
	err := tbl.Invoke(context.Background(), Binding{Fn: 99}, 0, 0)
	assert.ErrorIs(t, err, &errors.Error{Kind: errors.KindNotFound})
	assert.Error(t, tbl.Release(99))
}

func TestTable_Close(t *testing.T) {
	tbl := newTestTable(t)
	cb, err := Func(tbl, "id", transcoder.U8, transcoder.U8, func(_ context.Context, v uint8) uint8 { return v })
	require.NoError(t, err)

	require.NoError(t, tbl.Close())
	require.NoError(t, tbl.Close())
	assert.Equal(t, 0, tbl.Len())
	assert.ErrorIs(t, tbl.Invoke(context.Background(), cb.Binding(), 0, 0), errors.ErrReleased)

	_, err = tbl.Register("late", func(context.Context, interop.Memory, uint64, uint32, uint32) error { return nil })
	assert.Error(t, err)
}

func TestThunk_ReceivesUserData(t *testing.T) {
	tbl := newTestTable(t)
	var seen uint64
	ptr, err := tbl.Register("data", func(_ context.Context, _ interop.Memory, data uint64, _, _ uint32) error {
		seen = data
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, tbl.Invoke(context.Background(), Binding{Fn: ptr, Data: 1234}, 0, 0))
	assert.Equal(t, uint64(1234), seen)
}

func TestDelegates(t *testing.T) {
	tbl := newTestTable(t)
	var mu sync.Mutex
	calls := map[string]uint32{}
	mk := func(name string) *Callback {
		cb, err := Func(tbl, name, transcoder.U32, transcoder.UnitCodec, func(_ context.Context, v uint32) transcoder.Unit {
			mu.Lock()
			defer mu.Unlock()
			calls[name] += v
			return transcoder.Unit{}
		})
		require.NoError(t, err)
		return cb
	}
	d, err := Delegates("Events", mk("on_start"), mk("on_tick"), mk("on_stop"))
	require.NoError(t, err)
	assert.Equal(t, uint32(48), d.Layout().Size)

	addr, err := d.Alloc()
	require.NoError(t, err)
	bindings, err := LoadDelegates(tbl.Domain(), addr, d.Len())
	require.NoError(t, err)
	require.Len(t, bindings, 3)

	tick, err := d.Binding("on_tick")
	require.NoError(t, err)
	assert.Equal(t, tick, bindings[1])

	for i, b := range bindings {
		_, err := Call(context.Background(), tbl, b, transcoder.U32, transcoder.UnitCodec, uint32(i+1))
		require.NoError(t, err)
	}
	assert.Equal(t, map[string]uint32{"on_start": 1, "on_tick": 2, "on_stop": 3}, calls)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, 0, tbl.Len())
	_, err = Call(context.Background(), tbl, bindings[0], transcoder.U32, transcoder.UnitCodec, 1)
	assert.ErrorIs(t, err, errors.ErrReleased)
	assert.Zero(t, tbl.Domain().(*native.Heap).Stats().Live)
}

func TestDelegates_Validation(t *testing.T) {
	tbl := newTestTable(t)
	other := newTestTable(t)
	id := func(_ context.Context, v uint8) uint8 { return v }
	a, err := Func(tbl, "a", transcoder.U8, transcoder.U8, id)
	require.NoError(t, err)
	a2, err := Func(tbl, "a", transcoder.U8, transcoder.U8, id)
	require.NoError(t, err)
	b, err := Func(other, "b", transcoder.U8, transcoder.U8, id)
	require.NoError(t, err)

	_, err = Delegates("empty")
	assert.Error(t, err)
	_, err = Delegates("dup", a, a2)
	assert.Error(t, err)
	_, err = Delegates("mixed", a, b)
	assert.Error(t, err)
}

func TestAsync(t *testing.T) {
	tbl := newTestTable(t)
	const n = 8
	pending := make([]*Pending[uint64], n)
	for i := range pending {
		p, err := Async(tbl, "done", transcoder.U64)
		require.NoError(t, err)
		pending[i] = p
	}

	var wg sync.WaitGroup
	for i, p := range pending {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Call(context.Background(), tbl, p.Binding(), transcoder.U64, transcoder.UnitCodec, uint64(i*i))
			assert.NoError(t, err)
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := n - 1; i >= 0; i-- {
		v, err := pending[i].Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(i*i), v)
	}
	wg.Wait()

	_, err := Call(context.Background(), tbl, pending[0].Binding(), transcoder.U64, transcoder.UnitCodec, 1)
	assert.ErrorIs(t, err, errors.ErrReleased, "second completion")
}

func TestAsync_AwaitHonorsContext(t *testing.T) {
	tbl := newTestTable(t)
	p, err := Async(tbl, "never", transcoder.U32)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, p.Release())
	_, err = Call(context.Background(), tbl, p.Binding(), transcoder.U32, transcoder.UnitCodec, 1)
	assert.ErrorIs(t, err, errors.ErrReleased)
}
