package transcoder

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/internal/abi"
)

const cstrName = "CStrPtr"

// cstrChunk is how many bytes are read per step while looking for the
// terminator.
const cstrChunk = 64

// CStrPtr is a borrowed pointer to a NUL-terminated string in native memory.
// Address 0 is the null string. The pointer owns nothing; the bytes belong to
// whoever handed it over and must outlive every use.
type CStrPtr struct {
	mem Memory
	ptr uint32
}

// CStrOf views the string starting at ptr in mem.
func CStrOf(mem Memory, ptr uint32) CStrPtr {
	return CStrPtr{mem: mem, ptr: ptr}
}

// AllocCStr copies s and a terminator into dom and records the allocation in
// al, so the string lives until al is freed. s must not contain NUL.
func AllocCStr(al *AllocationList, dom Domain, s string) (CStrPtr, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return CStrPtr{}, errors.InvalidData(errors.PhaseEncode, nil, "C string contains NUL")
	}
	if len(s) >= abi.MaxStringSize {
		return CStrPtr{}, errors.Overflow(errors.PhaseEncode, nil, len(s), cstrName)
	}
	n := uint32(len(s)) + 1
	ptr, err := al.Alloc(dom, n, 1)
	if err != nil {
		return CStrPtr{}, err
	}
	buf := make([]byte, n)
	copy(buf, s)
	if err := dom.Write(ptr, buf); err != nil {
		return CStrPtr{}, err
	}
	return CStrPtr{mem: dom, ptr: ptr}, nil
}

func (c CStrPtr) Ptr() uint32 { return c.ptr }

func (c CStrPtr) IsNull() bool { return c.ptr == 0 }

// Bytes returns the bytes before the terminator. A string that runs off the
// end of memory fails with out_of_bounds.
func (c CStrPtr) Bytes() ([]byte, error) {
	if c.ptr == 0 || c.mem == nil {
		return nil, errors.NilPointer(errors.PhaseDecode, nil, cstrName)
	}
	var out []byte
	addr, step := c.ptr, uint32(cstrChunk)
	for {
		bs, err := c.mem.Read(addr, step)
		if err != nil {
			// The tail of a region may be shorter than a chunk.
			if step > 1 {
				step = 1
				continue
			}
			return nil, err
		}
		if i := bytes.IndexByte(bs, 0); i >= 0 {
			return append(out, bs[:i]...), nil
		}
		out = append(out, bs...)
		if len(out) > abi.MaxStringSize {
			return nil, errors.Overflow(errors.PhaseDecode, nil, len(out), cstrName)
		}
		next, ok := abi.SafeAddU32(addr, step)
		if !ok {
			return nil, errors.OutOfBounds(errors.PhaseDecode, nil, int(addr), int(addr))
		}
		addr = next
	}
}

// ToHostString copies the string out and validates it as UTF-8.
// A null pointer fails with nil_pointer.
func (c CStrPtr) ToHostString() (string, error) {
	bs, err := c.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bs) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, nil, bs)
	}
	return string(bs), nil
}

type cstrCodec struct{}

// CStrCodec stores a CStrPtr as a single u64 address. Loaded pointers read
// the memory they were loaded from.
var CStrCodec Codec[CStrPtr] = cstrCodec{}

var cstrLayout = Layout{Size: 8, Align: 8}

func (cstrCodec) Name() string   { return cstrName }
func (cstrCodec) Kind() Kind     { return KindCStr }
func (cstrCodec) Layout() Layout { return cstrLayout }
func (cstrCodec) WIT() wit.Type  { return wit.String{} }

func (cstrCodec) Store(mem Memory, addr uint32, v CStrPtr) error {
	return mem.WriteU64(addr, uint64(v.ptr))
}

func (cstrCodec) Load(mem Memory, addr uint32) (CStrPtr, error) {
	p, err := mem.ReadU64(addr)
	if err != nil {
		return CStrPtr{}, err
	}
	ptr, ok := abi.NarrowU64(p)
	if !ok {
		return CStrPtr{}, errors.Overflow(errors.PhaseDecode, nil, p, cstrName)
	}
	return CStrPtr{mem: mem, ptr: ptr}, nil
}
