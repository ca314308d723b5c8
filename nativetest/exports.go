package nativetest

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/interop"
	"github.com/wippyai/interop/callback"
	"github.com/wippyai/interop/errors"
	"github.com/wippyai/interop/transcoder"
	"github.com/wippyai/interop/wire"
)

// Sample is the library's enum: A, B(i64), C(u32).
var Sample = transcoder.Enum("Sample",
	transcoder.UnitCase("A"),
	transcoder.CaseOf("B", transcoder.I64),
	transcoder.CaseOf("C", transcoder.U32),
)

// Summary is the Wire message accepted by EchoWire and SummarizeWire.
type Summary struct {
	Text   string
	Values []uint32
}

var SummaryCodec = wire.Struct("Summary",
	wire.Field("text", wire.String, func(s *Summary) *string { return &s.Text }),
	wire.Field("values", wire.Vec(wire.U32), func(s *Summary) *[]uint32 { return &s.Values }),
)

// Report is the Wire reply of SummarizeWire.
type Report struct {
	Text    string
	Count   uint64
	Sum     uint64
	Largest *uint32
}

var ReportCodec = wire.Struct("Report",
	wire.Field("text", wire.String, func(r *Report) *string { return &r.Text }),
	wire.Field("count", wire.U64, func(r *Report) *uint64 { return &r.Count }),
	wire.Field("sum", wire.U64, func(r *Report) *uint64 { return &r.Sum }),
	wire.Field("largest", wire.Optional(wire.U32), func(r *Report) **uint32 { return &r.Largest }),
)

// CheckedResult is the return type of callbacks driven by InvokeChecked:
// Result<u32, u32> where the error is a code.
var CheckedResult = transcoder.ResultOf(transcoder.U32, transcoder.U32)

// FillSlice is the argument codec of FillViaCallback's callback.
var FillSlice = transcoder.SliceCodec(transcoder.U8, true)

// FillViaCallback hands the writable slice to the callback b. Whatever the
// callback writes lands in the memory behind s.
func (l *Library) FillViaCallback(ctx context.Context, b callback.Binding, s transcoder.Slice[uint8]) error {
	if !s.Mutable() {
		return errors.Unsupported(errors.PhaseNative, "fill into read-only slice")
	}
	_, err := call(ctx, l, b, FillSlice, transcoder.UnitCodec, s)
	return err
}

// DoubleEnum reads a Sample at in and writes it to out with a C payload
// doubled. Other variants are echoed.
func (l *Library) DoubleEnum(in, out uint32) error {
	v, err := Sample.Load(l.Domain, in)
	if err != nil {
		return err
	}
	if n, err := transcoder.As[uint32](v, "C"); err == nil {
		v, err = Sample.Variant("C", n*2)
		if err != nil {
			return err
		}
	}
	return Sample.Store(l.Domain, out, v)
}

// EchoWire consumes the message in and returns the same value in a buffer
// the library allocated. The caller owns the reply.
func (l *Library) EchoWire(in wire.Buffer) (wire.Buffer, error) {
	s, err := l.consume(in)
	if err != nil {
		return wire.Buffer{}, err
	}
	reply, err := wire.New[Summary](l.Domain, SummaryCodec, s)
	if err != nil {
		return wire.Buffer{}, err
	}
	return reply.Buffer(), nil
}

// SummarizeWire consumes the message in and replies with a Report.
func (l *Library) SummarizeWire(in wire.Buffer) (wire.Buffer, error) {
	s, err := l.consume(in)
	if err != nil {
		return wire.Buffer{}, err
	}
	r := Report{Text: s.Text, Count: uint64(len(s.Values))}
	for _, v := range s.Values {
		r.Sum += uint64(v)
		if r.Largest == nil || v > *r.Largest {
			largest := v
			r.Largest = &largest
		}
	}
	reply, err := wire.New[Report](l.Domain, ReportCodec, r)
	if err != nil {
		return wire.Buffer{}, err
	}
	return reply.Buffer(), nil
}

// consume decodes in and releases it to whichever side its tag names.
func (l *Library) consume(in wire.Buffer) (Summary, error) {
	msg, err := wire.Receive[Summary](l.Domain, SummaryCodec, in)
	if err != nil {
		return Summary{}, err
	}
	s, err := msg.Unwire()
	if rerr := msg.Release(); rerr != nil && err == nil {
		err = rerr
	}
	return s, err
}

// StrLen returns the byte length of the C string s after checking that it
// is valid UTF-8.
func (l *Library) StrLen(s transcoder.CStrPtr) (uint32, error) {
	str, err := s.ToHostString()
	if err != nil {
		return 0, err
	}
	return uint32(len(str)), nil
}

// VecU32 is the {ptr, len, cap} layout ConsumeVec reads.
func VecU32(dom interop.Domain) transcoder.Codec[*transcoder.Vec[uint32]] {
	return transcoder.VecCodec(dom, transcoder.U32)
}

// ConsumeVec takes ownership of the Vec<u32> stored at addr, frees it and
// returns the sum of its elements.
func (l *Library) ConsumeVec(addr uint32) (uint64, error) {
	v, err := VecU32(l.Domain).Load(l.Domain, addr)
	if err != nil {
		return 0, err
	}
	defer v.Destroy()
	vals, err := v.ToSlice()
	if err != nil {
		return 0, err
	}
	var sum uint64
	for _, x := range vals {
		sum += uint64(x)
	}
	return sum, nil
}

// InvokeChecked calls b with arg and then runs its own cleanup step, which
// happens even when the host closure panicked.
func (l *Library) InvokeChecked(ctx context.Context, b callback.Binding, arg uint32) (transcoder.Result[uint32, uint32], error) {
	r, err := call(ctx, l, b, transcoder.U32, CheckedResult, arg)
	l.cleanup("checked")
	return r, err
}

// InvokeUnchecked calls b with arg. A panic in the host closure unwinds
// through here and the cleanup step never runs.
func (l *Library) InvokeUnchecked(ctx context.Context, b callback.Binding, arg uint32) (uint32, error) {
	r, err := call(ctx, l, b, transcoder.U32, transcoder.U32, arg)
	l.cleanup("unchecked")
	return r, err
}

// RegisterDelegates remembers the n bindings stored at addr. Later calls
// replace earlier ones.
func (l *Library) RegisterDelegates(addr uint32, n int) error {
	bs, err := callback.LoadDelegates(l.Domain, addr, n)
	if err != nil {
		return err
	}
	for i, b := range bs {
		if b.IsNull() {
			return errors.NilPointer(errors.PhaseNative, []string{"delegates", itoa(i)}, "Binding")
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.NotInitialized(errors.PhaseNative, "library")
	}
	l.delegates = bs
	return nil
}

// FireDelegates invokes every registered delegate with event, in table
// order, stopping at the first failure.
func (l *Library) FireDelegates(ctx context.Context, event uint32) error {
	l.mu.Lock()
	bs := append([]callback.Binding(nil), l.delegates...)
	l.mu.Unlock()

	for i, b := range bs {
		if _, err := call(ctx, l, b, transcoder.U32, transcoder.UnitCodec, event); err != nil {
			Logger().Debug("delegate failed", zap.Int("slot", i), zap.Error(err))
			return err
		}
	}
	return nil
}
