package callback

import (
	"context"
	"sync"

	"github.com/creachadair/mds/mapset"
	"go.uber.org/zap"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
)

type entry struct {
	name  string
	thunk Thunk
}

// Table issues function pointers for host thunks within one native domain.
// Pointers are never reused, so a released pointer keeps failing instead of
// reaching a later registration.
type Table struct {
	dom       interop.Domain
	entries   map[FuncPtr]entry
	released  mapset.Set[FuncPtr]
	next      FuncPtr
	mu        sync.RWMutex
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates a table whose thunks read and write dom.
func NewTable(dom interop.Domain) *Table {
	return &Table{
		dom:      dom,
		entries:  make(map[FuncPtr]entry),
		released: mapset.New[FuncPtr](),
	}
}

// Domain returns the native domain the table's thunks operate on.
func (t *Table) Domain() interop.Domain {
	return t.dom
}

// Register issues a function pointer for th.
func (t *Table) Register(name string, th Thunk) (FuncPtr, error) {
	if th == nil {
		return 0, errors.InvalidInput(errors.PhaseCallback, "nil thunk")
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, errors.NotInitialized(errors.PhaseCallback, "callback table")
	}
	t.next++
	ptr := t.next
	t.entries[ptr] = entry{name: name, thunk: th}
	t.mu.Unlock()

	Logger().Debug("callback registered", zap.String("name", name), zap.Uint64("ptr", uint64(ptr)))
	t.notify(Event{Type: EventRegistered, Ptr: ptr, Name: name})
	return ptr, nil
}

// Release invalidates ptr. Invoking it afterwards fails with a released error.
func (t *Table) Release(ptr FuncPtr) error {
	t.mu.Lock()
	e, ok := t.entries[ptr]
	if !ok {
		isReleased := t.released.Has(ptr)
		t.mu.Unlock()
		if isReleased {
			return releasedError(ptr)
		}
		return errors.NotFound(errors.PhaseCallback, "function pointer", ptr.String())
	}
	delete(t.entries, ptr)
	t.released.Add(ptr)
	t.mu.Unlock()

	Logger().Debug("callback released", zap.String("name", e.name), zap.Uint64("ptr", uint64(ptr)))
	t.notify(Event{Type: EventReleased, Ptr: ptr, Name: e.name})
	return nil
}

// Invoke calls the thunk bound to b as native code would. Panics raised by
// the thunk are not recovered here.
func (t *Table) Invoke(ctx context.Context, b Binding, args, ret uint32) error {
	t.mu.RLock()
	e, ok := t.entries[b.Fn]
	isReleased := !ok && t.released.Has(b.Fn)
	t.mu.RUnlock()
	switch {
	case isReleased:
		Logger().Warn("invoke of released callback", zap.Uint64("ptr", uint64(b.Fn)))
		return releasedError(b.Fn)
	case !ok:
		return errors.NotFound(errors.PhaseCallback, "function pointer", b.Fn.String())
	}

	t.notify(Event{Type: EventInvoked, Ptr: b.Fn, Name: e.name})
	return e.thunk(ctx, t.dom, b.Data, args, ret)
}

// Len returns the number of live function pointers.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close releases every pointer and stops accepting registrations.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	ptrs := make([]FuncPtr, 0, len(t.entries))
	for p := range t.entries {
		ptrs = append(ptrs, p)
	}
	t.mu.Unlock()

	for _, p := range ptrs {
		_ = t.Release(p)
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnCallbackEvent(e)
	}
}
