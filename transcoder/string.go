package transcoder

import (
	"unicode/utf8"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
	"github.com/wippyai/interop/native"
)

const stringName = "String"

// Utf8String is an owned UTF-8 byte buffer in a native domain. It follows
// the same move-once discipline as Vec. The bytes are validated when the
// string is created or reclaimed and again when converted back to a Go string.
type Utf8String struct {
	dom   Domain
	ptr   uint32
	n     uint32
	cap   uint32
	state ownership
}

// FromHostString copies s into a new native string.
func FromHostString(dom Domain, s string) (*Utf8String, error) {
	return StringFromBytes(dom, []byte(s))
}

// StringFromBytes copies b into a new native string. b must be valid UTF-8.
func StringFromBytes(dom Domain, b []byte) (*Utf8String, error) {
	if !utf8.Valid(b) {
		return nil, errors.InvalidUTF8(errors.PhaseEncode, nil, b)
	}
	if len(b) > abi.MaxStringSize {
		return nil, errors.Overflow(errors.PhaseEncode, nil, len(b), stringName)
	}
	exp := native.Exports{Domain: dom}
	p, err := exp.VecCreate(uint64(len(b)), 1, 1)
	if err != nil {
		return nil, err
	}
	if len(b) > 0 {
		if err := dom.Write(uint32(p.Ptr), b); err != nil {
			_ = exp.StringDestroy(p)
			return nil, err
		}
	}
	return &Utf8String{dom: dom, ptr: uint32(p.Ptr), n: uint32(len(b)), cap: uint32(p.Cap)}, nil
}

// ReclaimString takes ownership of a triple and validates its bytes.
func ReclaimString(dom Domain, p RawParts) (*Utf8String, error) {
	ptr, _, ok := abi.BufferBytes(p, 1)
	if !ok || p.Cap > abi.MaxStringSize {
		return nil, errors.New(errors.PhaseTransfer, errors.KindInvalidData).
			ABIType(stringName).
			Detail("invalid triple ptr=0x%x len=%d cap=%d", p.Ptr, p.Len, p.Cap).
			Build()
	}
	s := &Utf8String{dom: dom, ptr: ptr, n: uint32(p.Len), cap: uint32(p.Cap)}
	if _, err := s.bytes(errors.PhaseTransfer); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Utf8String) bytes(phase errors.Phase) ([]byte, error) {
	if s.n == 0 {
		return nil, nil
	}
	b, err := s.dom.Read(s.ptr, s.n)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(b) {
		return nil, errors.InvalidUTF8(phase, nil, b)
	}
	return b, nil
}

func (s *Utf8String) Live() bool { return s.state == ownLive }

// Len is the length in bytes.
func (s *Utf8String) Len() (int, error) {
	if err := s.state.check(errors.PhaseTransfer, stringName, "len"); err != nil {
		return 0, err
	}
	return int(s.n), nil
}

func (s *Utf8String) Cap() (int, error) {
	if err := s.state.check(errors.PhaseTransfer, stringName, "cap"); err != nil {
		return 0, err
	}
	return int(s.cap), nil
}

// ToHostString decodes the bytes into a Go string, failing on invalid UTF-8.
func (s *Utf8String) ToHostString() (string, error) {
	if err := s.state.check(errors.PhaseDecode, stringName, "read"); err != nil {
		return "", err
	}
	b, err := s.bytes(errors.PhaseDecode)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Clone makes an independent copy with its own allocation.
func (s *Utf8String) Clone() (*Utf8String, error) {
	if err := s.state.check(errors.PhaseTransfer, stringName, "clone"); err != nil {
		return nil, err
	}
	p, err := native.Exports{Domain: s.dom}.StringClone(s.parts())
	if err != nil {
		return nil, err
	}
	return &Utf8String{dom: s.dom, ptr: uint32(p.Ptr), n: uint32(p.Len), cap: uint32(p.Cap)}, nil
}

func (s *Utf8String) parts() RawParts {
	return RawParts{Ptr: uint64(s.ptr), Len: uint64(s.n), Cap: uint64(s.cap)}
}

// Transfer hands the buffer to the receiver and invalidates this handle.
func (s *Utf8String) Transfer() (RawParts, error) {
	if err := s.state.check(errors.PhaseTransfer, stringName, "transfer"); err != nil {
		return RawParts{}, err
	}
	p := s.parts()
	s.state = ownMoved
	s.ptr, s.n, s.cap = 0, 0, 0
	return p, nil
}

// Destroy frees the buffer. Later calls do nothing.
func (s *Utf8String) Destroy() error {
	if s.state != ownLive {
		return nil
	}
	if err := (native.Exports{Domain: s.dom}).StringDestroy(s.parts()); err != nil {
		return err
	}
	s.state = ownDestroyed
	s.ptr, s.n, s.cap = 0, 0, 0
	return nil
}

type stringCodec struct {
	dom Domain
}

// StringCodec encodes a string owned by dom as its triple, transferring on
// Store and reclaiming on Load.
func StringCodec(dom Domain) Codec[*Utf8String] {
	return stringCodec{dom: dom}
}

func (stringCodec) Name() string   { return stringName }
func (stringCodec) Kind() Kind     { return KindString }
func (stringCodec) Layout() Layout { return VecLayout }
func (stringCodec) WIT() wit.Type  { return wit.String{} }

func (c stringCodec) Store(mem Memory, addr uint32, s *Utf8String) error {
	if s == nil {
		return errors.NilPointer(errors.PhaseEncode, nil, stringName)
	}
	if err := s.state.check(errors.PhaseEncode, stringName, "store"); err != nil {
		return err
	}
	if err := storeParts(mem, addr, s.parts()); err != nil {
		return err
	}
	_, err := s.Transfer()
	return err
}

func (c stringCodec) Load(mem Memory, addr uint32) (*Utf8String, error) {
	p, err := loadParts(mem, addr)
	if err != nil {
		return nil, err
	}
	return ReclaimString(c.dom, p)
}
