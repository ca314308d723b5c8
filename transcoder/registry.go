package transcoder

import (
	"reflect"
	"sort"
	"sync"

	"github.com/wippyai/interop/errors"
)

// Registry maps Go types to their codecs. Codecs are registered explicitly;
// lookups are by type identity only.
type Registry struct {
	mu     sync.RWMutex
	codecs map[reflect.Type]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{codecs: make(map[reflect.Type]Descriptor)}
}

// DefaultRegistry holds the primitive codecs and the C string pointer.
var DefaultRegistry = func() *Registry {
	r := NewRegistry()
	mustRegister(r, Bool)
	mustRegister(r, U8)
	mustRegister(r, I8)
	mustRegister(r, U16)
	mustRegister(r, I16)
	mustRegister(r, U32)
	mustRegister(r, I32)
	mustRegister(r, U64)
	mustRegister(r, I64)
	mustRegister(r, F32)
	mustRegister(r, F64)
	mustRegister(r, UnitCodec)
	mustRegister(r, CStrCodec)
	return r
}()

func mustRegister[T any](r *Registry, c Codec[T]) {
	if err := Register(r, c); err != nil {
		panic(err)
	}
}

// Register binds c to T. A type can be registered once.
func Register[T any](r *Registry, c Codec[T]) error {
	t := reflect.TypeFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.codecs[t]; ok {
		return errors.New(errors.PhaseLayout, errors.KindInvalidInput).
			GoType(t.String()).
			Detail("already registered as %s", prev.Name()).
			Build()
	}
	r.codecs[t] = c
	return nil
}

// Lookup returns the codec registered for T.
func Lookup[T any](r *Registry) (Codec[T], error) {
	t := reflect.TypeFor[T]()
	r.mu.RLock()
	d, ok := r.codecs[t]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound(errors.PhaseLayout, "codec", t.String())
	}
	return d.(Codec[T]), nil
}

// Descriptors lists registered codecs ordered by name.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	out := make([]Descriptor, 0, len(r.codecs))
	for _, d := range r.codecs {
		out = append(out, d)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
