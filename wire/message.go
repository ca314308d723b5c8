package wire

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/native"
	"github.com/wippyai/interop/transcoder"
)

// hostKey names a host buffer by the memory it is mapped into and its
// address there. Every heap maps from the same base, so the address alone is
// ambiguous.
type hostKey struct {
	mem  interop.Memory
	addr uint64
}

// hostBuffers tracks the host allocations behind HostOwned buffers so that
// whichever side receives the buffer can hand it back to its owner.
var hostBuffers = struct {
	sync.Mutex
	m map[hostKey]*transcoder.Mapping[uint8]
}{m: make(map[hostKey]*transcoder.Mapping[uint8])}

func registerHost(k hostKey, m *transcoder.Mapping[uint8]) {
	hostBuffers.Lock()
	hostBuffers.m[k] = m
	hostBuffers.Unlock()
}

// releaseHost unmaps the buffer registered under k. A non-nil owner only
// matches its own mapping, so a stale sender never frees a later buffer that
// reused the address.
func releaseHost(k hostKey, owner *transcoder.Mapping[uint8]) error {
	hostBuffers.Lock()
	m, ok := hostBuffers.m[k]
	if ok && owner != nil && m != owner {
		ok = false
	}
	if ok {
		delete(hostBuffers.m, k)
	}
	hostBuffers.Unlock()
	if !ok {
		return errors.NotFound(errors.PhaseWire, "host buffer", fmtAddr(k.addr))
	}
	return m.Close()
}

// Message is a Wire-encoded value sitting in a Buffer that native code can
// read. It is safe for concurrent use; Release may be called from any
// goroutine and only the first call frees the buffer.
type Message[T any] struct {
	codec Codec[T]
	mem   interop.Memory
	dom   interop.Domain
	buf   Buffer
	host  *transcoder.Mapping[uint8]

	mu       sync.Mutex
	released bool
}

// New serializes v into a buffer allocated by the native domain.
// The message owns the buffer until Release.
func New[T any](dom interop.Domain, c Codec[T], v T) (*Message[T], error) {
	size := c.Size(v)
	scratch := getScratch(size)
	defer putScratch(scratch)

	if _, err := SerializeInto(c, v, *scratch); err != nil {
		return nil, err
	}
	alloc := max(size, 1)
	if alloc > int(^uint32(0)>>1) {
		return nil, errors.Overflow(errors.PhaseWire, nil, size, "i32")
	}
	exp := native.Exports{Domain: dom}
	data, err := exp.WireBufferCreate(int32(alloc))
	if err != nil {
		return nil, err
	}
	if err := dom.Write(uint32(data), *scratch); err != nil {
		_ = exp.WireBufferDestroy(data, int32(size), int32(alloc))
		return nil, err
	}
	Logger().Debug("wire message created",
		zap.String("type", c.Name()),
		zap.Uint64("data", data),
		zap.Int("len", size))
	return &Message[T]{
		codec: c,
		mem:   dom,
		dom:   dom,
		buf:   Buffer{Data: data, Len: int32(size), Cap: int32(alloc)},
	}, nil
}

// NewHost serializes v into host memory and maps it into the native domain
// without copying. The bytes stay pinned until Release.
func NewHost[T any](mem transcoder.MappedMemory, c Codec[T], v T) (*Message[T], error) {
	size := c.Size(v)
	alloc := max(size, 1)
	if alloc > int(^uint32(0)>>1) {
		return nil, errors.Overflow(errors.PhaseWire, nil, size, "i32")
	}
	bs := make([]byte, alloc)
	if _, err := SerializeInto(c, v, bs); err != nil {
		return nil, err
	}
	mapping, err := transcoder.Wrap(mem, transcoder.U8, bs, false)
	if err != nil {
		return nil, err
	}
	data := uint64(mapping.Slice().Ptr())
	registerHost(hostKey{mem: mem, addr: data}, mapping)
	return &Message[T]{
		codec: c,
		mem:   mem,
		buf:   Buffer{Data: data, Len: int32(size), Cap: -int32(alloc)},
		host:  mapping,
	}, nil
}

// NewBorrowed serializes v into n bytes at addr that the caller owns.
// Releasing the message never frees them.
func NewBorrowed[T any](mem interop.Memory, c Codec[T], v T, addr uint32, n int) (*Message[T], error) {
	size := c.Size(v)
	if size > n {
		return nil, errors.Truncated(errors.PhaseWire, nil, size, n)
	}
	if size > int(^uint32(0)>>1) {
		return nil, errors.Overflow(errors.PhaseWire, nil, size, "i32")
	}
	scratch := getScratch(size)
	defer putScratch(scratch)

	if _, err := SerializeInto(c, v, *scratch); err != nil {
		return nil, err
	}
	if err := mem.Write(addr, *scratch); err != nil {
		return nil, err
	}
	return &Message[T]{
		codec: c,
		mem:   mem,
		buf:   Buffer{Data: uint64(addr), Len: int32(size)},
	}, nil
}

// Receive adopts a Buffer produced by the other side. Releasing the message
// frees the buffer with the allocator its ownership tag names.
func Receive[T any](dom interop.Domain, c Codec[T], b Buffer) (*Message[T], error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &Message[T]{codec: c, mem: dom, dom: dom, buf: b}, nil
}

// Buffer returns the triple to hand to the other side.
func (m *Message[T]) Buffer() Buffer {
	return m.buf
}

// Bytes returns a copy of the encoded message.
func (m *Message[T]) Bytes() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil, errors.Released(errors.PhaseWire, "wire message")
	}
	return m.read()
}

func (m *Message[T]) read() ([]byte, error) {
	if m.buf.Len == 0 {
		return nil, nil
	}
	bs, err := m.mem.Read(uint32(m.buf.Data), uint32(m.buf.Len))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), bs...), nil
}

// Unwire decodes the message.
func (m *Message[T]) Unwire() (T, error) {
	var zero T
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return zero, errors.Released(errors.PhaseWire, "wire message")
	}
	bs, err := m.read()
	if err != nil {
		return zero, err
	}
	return Deserialize(m.codec, bs)
}

// Released reports whether Release has run.
func (m *Message[T]) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// Release frees the buffer according to its ownership. Borrowed buffers are
// left to their owner. Later calls are no-ops.
func (m *Message[T]) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil
	}
	m.released = true

	b := m.buf
	Logger().Debug("wire release",
		zap.String("type", m.codec.Name()),
		zap.Stringer("ownership", b.Ownership()),
		zap.Uint64("data", b.Data))

	switch b.Ownership() {
	case NativeOwned:
		if m.dom == nil {
			return errors.NotInitialized(errors.PhaseWire, "native domain")
		}
		return native.Exports{Domain: m.dom}.WireBufferDestroy(b.Data, b.Len, b.Cap)
	case HostOwned:
		return releaseHost(hostKey{mem: m.mem, addr: b.Data}, m.host)
	default:
		return nil
	}
}
