package engine

// Core module section ids and opcodes used by the generated module.
const (
	secType     = 0x01
	secFunction = 0x03
	secMemory   = 0x05
	secGlobal   = 0x06
	secExport   = 0x07
	secCode     = 0x0a

	valI32    = 0x7f
	typeFunc  = 0x60
	blockVoid = 0x40

	exportFunc   = 0x00
	exportMemory = 0x02
)

const (
	opUnreachable = 0x00
	opBlock       = 0x02
	opLoop        = 0x03
	opIf          = 0x04
	opEnd         = 0x0b
	opBr          = 0x0c
	opBrIf        = 0x0d
	opReturn      = 0x0f
	opLocalGet    = 0x20
	opLocalTee    = 0x22
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opMemorySize  = 0x3f
	opMemoryGrow  = 0x40
	opI32Const    = 0x41
	opI32Eqz      = 0x45
	opI32Eq       = 0x46
	opI32LeU      = 0x4d
	opI32Add      = 0x6a
	opI32Sub      = 0x6b
	opI32And      = 0x71
	opI32Shl      = 0x74
)

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func appendULEB(b []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
			continue
		}
		return append(b, c)
	}
}

func appendSLEB(b []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}

func appendName(b []byte, s string) []byte {
	b = appendULEB(b, uint64(len(s)))
	return append(b, s...)
}

func appendSection(b []byte, id byte, content []byte) []byte {
	b = append(b, id)
	b = appendULEB(b, uint64(len(content)))
	return append(b, content...)
}

// buildModule generates a module exporting a memory and, when guestAlloc is
// set, a bump allocator with the realloc signature
// (old_ptr, old_size, align, new_size) -> ptr. The allocator never reuses
// memory; a call with new_size 0 frees nothing and returns 0.
func buildModule(cfg *Config, guestAlloc bool) []byte {
	m := append([]byte(nil), wasmHeader...)

	if guestAlloc {
		typ := []byte{0x01, typeFunc, 0x04, valI32, valI32, valI32, valI32, 0x01, valI32}
		m = appendSection(m, secType, typ)
		m = appendSection(m, secFunction, []byte{0x01, 0x00})
	}

	mem := []byte{0x01, 0x01}
	mem = appendULEB(mem, uint64(cfg.InitialPages))
	mem = appendULEB(mem, uint64(cfg.MaxPages))
	m = appendSection(m, secMemory, mem)

	if guestAlloc {
		glob := []byte{0x01, valI32, 0x01, opI32Const}
		glob = appendSLEB(glob, int64(int32(cfg.HeapBase)))
		glob = append(glob, opEnd)
		m = appendSection(m, secGlobal, glob)
	}

	var exp []byte
	if guestAlloc {
		exp = append(exp, 0x02)
	} else {
		exp = append(exp, 0x01)
	}
	exp = appendName(exp, cfg.MemoryExport)
	exp = append(exp, exportMemory, 0x00)
	if guestAlloc {
		exp = appendName(exp, cfg.AllocExport)
		exp = append(exp, exportFunc, 0x00)
	}
	m = appendSection(m, secExport, exp)

	if guestAlloc {
		body := bumpAllocBody()
		code := []byte{0x01}
		code = appendULEB(code, uint64(len(body)))
		code = append(code, body...)
		m = appendSection(m, secCode, code)
	}
	return m
}

// bumpAllocBody: params 0..3 are old_ptr, old_size, align, new_size; local 4 is the result.
func bumpAllocBody() []byte {
	return []byte{
		0x01, 0x01, valI32, // one i32 local

		opLocalGet, 0x03, opI32Eqz,
		opIf, blockVoid,
		opI32Const, 0x00, opReturn,
		opEnd,

		// ptr = (heap + align - 1) & -align
		opGlobalGet, 0x00,
		opLocalGet, 0x02, opI32Add,
		opI32Const, 0x01, opI32Sub,
		opI32Const, 0x00, opLocalGet, 0x02, opI32Sub,
		opI32And,
		opLocalTee, 0x04,
		opLocalGet, 0x03, opI32Add,
		opGlobalSet, 0x00,

		// grow one page at a time until heap <= memory.size * 64K
		opBlock, blockVoid,
		opLoop, blockVoid,
		opGlobalGet, 0x00,
		opMemorySize, 0x00, opI32Const, 0x10, opI32Shl,
		opI32LeU,
		opBrIf, 0x01,
		opI32Const, 0x01, opMemoryGrow, 0x00,
		opI32Const, 0x7f, opI32Eq,
		opIf, blockVoid,
		opUnreachable,
		opEnd,
		opBr, 0x00,
		opEnd,
		opEnd,

		opLocalGet, 0x04,
		opEnd,
	}
}
