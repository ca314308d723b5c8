package callback

import (
	"go.uber.org/zap"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder"
)

// DelegateTable is a set of named callbacks handed to native code at once,
// laid out as consecutive Bindings in declaration order. Native code may
// call any slot until Close.
type DelegateTable struct {
	name   string
	slots  []*Callback
	index  map[string]int
	addr   uint32
	table  *Table
	closed bool
}

// Delegates groups callbacks registered in the same table.
func Delegates(name string, slots ...*Callback) (*DelegateTable, error) {
	if len(slots) == 0 {
		return nil, errors.InvalidInput(errors.PhaseCallback, "delegate table needs at least one slot")
	}
	d := &DelegateTable{
		name:  name,
		slots: slots,
		index: make(map[string]int, len(slots)),
		table: slots[0].table,
	}
	for i, s := range slots {
		if s.table != d.table {
			return nil, errors.InvalidInput(errors.PhaseCallback, "delegate slots belong to different tables")
		}
		if _, dup := d.index[s.name]; dup {
			return nil, errors.InvalidInput(errors.PhaseCallback, "duplicate delegate slot "+s.name)
		}
		d.index[s.name] = i
	}
	return d, nil
}

func (d *DelegateTable) Name() string { return d.name }
func (d *DelegateTable) Len() int     { return len(d.slots) }

// Layout is len(slots) Bindings.
func (d *DelegateTable) Layout() transcoder.Layout {
	return transcoder.Array(BindingCodec, len(d.slots)).Layout()
}

// Binding returns the binding stored in the named slot.
func (d *DelegateTable) Binding(name string) (Binding, error) {
	i, ok := d.index[name]
	if !ok {
		return Binding{}, errors.NotFound(errors.PhaseCallback, "delegate slot", name)
	}
	return d.slots[i].Binding(), nil
}

func (d *DelegateTable) bindings() []Binding {
	out := make([]Binding, len(d.slots))
	for i, s := range d.slots {
		out[i] = s.Binding()
	}
	return out
}

// Store writes the slots at addr.
func (d *DelegateTable) Store(mem transcoder.Memory, addr uint32) error {
	if d.closed {
		return errors.Released(errors.PhaseCallback, "delegate table "+d.name)
	}
	return transcoder.Array(BindingCodec, len(d.slots)).Store(mem, addr, d.bindings())
}

// Alloc stores the slots in a fresh allocation in the table's domain and
// returns its address. The allocation is freed by Close.
func (d *DelegateTable) Alloc() (uint32, error) {
	if d.addr != 0 {
		return d.addr, nil
	}
	dom := d.table.Domain()
	l := d.Layout()
	addr, err := dom.Alloc(l.Size, l.Align)
	if err != nil {
		return 0, err
	}
	if err := d.Store(dom, addr); err != nil {
		dom.Free(addr, l.Size, l.Align)
		return 0, err
	}
	d.addr = addr
	return addr, nil
}

// Close releases every slot and frees the stored table. Further calls do nothing.
func (d *DelegateTable) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	var first error
	for _, s := range d.slots {
		if err := s.Release(); err != nil && first == nil {
			first = err
		}
	}
	if d.addr != 0 {
		l := d.Layout()
		d.table.Domain().Free(d.addr, l.Size, l.Align)
		d.addr = 0
	}
	Logger().Debug("delegate table closed", zap.String("name", d.name), zap.Int("slots", len(d.slots)))
	return first
}

// LoadDelegates reads n consecutive Bindings at addr.
func LoadDelegates(mem transcoder.Memory, addr uint32, n int) ([]Binding, error) {
	return transcoder.Array(BindingCodec, n).Load(mem, addr)
}
