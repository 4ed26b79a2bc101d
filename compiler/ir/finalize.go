package ir

import "encoding/binary"

// Finalize computes each instruction's byte offset and emits the
// immutable byte stream, encoding every branch operand as the absolute
// byte offset of its target instruction's first byte (spec.md §4.5
// "Finalization", invariants I2/P3). Instrs, including each branch's
// instruction-index Target, is left unchanged. It is
// idempotent: calling it more than once returns the same bytes without
// re-deriving them.
func (p *Program) Finalize() []byte {
	if p.finalized {
		return p.bytes
	}

	offsets := make([]int, len(p.Instrs)+1)

	off := 0
	for i, instr := range p.Instrs {
		offsets[i] = off
		off += instr.Op.Size()
	}

	offsets[len(p.Instrs)] = off

	buf := make([]byte, 0, off)

	for _, instr := range p.Instrs {
		buf = append(buf, byte(instr.Op))

		switch instr.Op {
		case OpPushImm64:
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], instr.Imm)
			buf = append(buf, b[:]...)

		case OpStoreLcl, OpLoadLcl:
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], instr.Slot)
			buf = append(buf, b[:]...)

		case OpJzAbs, OpJmpAbs:
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(offsets[instr.Target]))
			buf = append(buf, b[:]...)
		}
	}

	p.bytes = buf
	p.finalized = true

	return p.bytes
}

// InstrOffsets returns the byte offset of every instruction, in
// instruction order, without mutating Instrs or finalizing the program.
func (p *Program) InstrOffsets() []int {
	offsets := make([]int, len(p.Instrs))

	off := 0
	for i, instr := range p.Instrs {
		offsets[i] = off
		off += instr.Op.Size()
	}

	return offsets
}
