// Package vm interprets finalized Parashade bytecode on a stack machine
// with a fixed local-slot array and a growable array heap (spec.md
// §4.6). It is grounded on smasonuk-sicpu's CPU: exported opcode
// constants plus a single fetch-decode-execute loop, adapted from a
// 16-bit register machine to a 64-bit stack machine, and on
// original_source's VM::run_all for exact per-opcode semantics.
//
// Each VM owns its own instruction pointer; per spec.md §9 design note
// (a), there is deliberately no shared or static IP anywhere in this
// package.
package vm

import (
	"context"
	"encoding/binary"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/JoeySoprano420/Parashade/compiler/ir"
)

// VM executes one finalized instruction stream to completion.
type VM struct {
	code   []byte
	stack  []int64
	locals []int64
	heap   [][]int64
	ip     int
}

// New creates a VM over code with numLocals zero-initialized local slots.
func New(code []byte, numLocals int) *VM {
	return &VM{
		code:   code,
		locals: make([]int64, numLocals),
	}
}

// Run executes from instruction pointer 0 until RET, returning the
// value it pops as the program's integer result (spec.md §4.6).
func (m *VM) Run(ctx context.Context) (result int64, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "vm: run", "code_len", len(m.code), "locals", len(m.locals))
	defer tr.Finish("err", &err)

	for {
		start := m.ip

		op, err := m.fetch()
		if err != nil {
			return 0, errors.Wrap(err, "fetch opcode")
		}

		switch op {
		case ir.OpPushImm64:
			v, err := m.fetchU64()
			if err != nil {
				return 0, errors.Wrap(err, "push_imm64")
			}

			m.push(int64(v))

		case ir.OpAdd:
			b, a, err := m.pop2()
			if err != nil {
				return 0, errors.Wrap(err, "add")
			}

			m.push(a + b)

		case ir.OpDup:
			v, err := m.peek()
			if err != nil {
				return 0, errors.Wrap(err, "dup")
			}

			m.push(v)

		case ir.OpStoreLcl:
			slot, err := m.fetchU16()
			if err != nil {
				return 0, errors.Wrap(err, "store_lcl")
			}

			v, err := m.pop()
			if err != nil {
				return 0, errors.Wrap(err, "store_lcl")
			}

			if int(slot) < len(m.locals) {
				m.locals[slot] = v
			}

		case ir.OpLoadLcl:
			slot, err := m.fetchU16()
			if err != nil {
				return 0, errors.Wrap(err, "load_lcl")
			}

			var v int64
			if int(slot) < len(m.locals) {
				v = m.locals[slot]
			}

			m.push(v)

		case ir.OpRet:
			v, err := m.pop()
			if err != nil {
				return 0, errors.Wrap(err, "ret")
			}

			tr.Printw("ret", "ip", start, "result", v)

			return v, nil

		case ir.OpMax:
			b, a, err := m.pop2()
			if err != nil {
				return 0, errors.Wrap(err, "max")
			}

			if a > b {
				m.push(a)
			} else {
				m.push(b)
			}

		case ir.OpMin:
			b, a, err := m.pop2()
			if err != nil {
				return 0, errors.Wrap(err, "min")
			}

			if a < b {
				m.push(a)
			} else {
				m.push(b)
			}

		case ir.OpCmpGt, ir.OpCmpLt, ir.OpCmpEq, ir.OpCmpNe, ir.OpCmpGe, ir.OpCmpLe:
			b, a, err := m.pop2()
			if err != nil {
				return 0, errors.Wrap(err, "cmp")
			}

			m.push(boolToWord(compare(op, a, b)))

		case ir.OpArrNew:
			n, err := m.pop()
			if err != nil {
				return 0, errors.Wrap(err, "arr_new")
			}

			if n < 0 {
				n = 0
			}

			m.heap = append(m.heap, make([]int64, n))
			m.push(int64(len(m.heap)))

		case ir.OpArrGet:
			idx, handle, err := m.pop2()
			if err != nil {
				return 0, errors.Wrap(err, "arr_get")
			}

			m.push(m.arrGet(handle, idx))

		case ir.OpArrSet:
			val, idx, err := m.pop2()
			if err != nil {
				return 0, errors.Wrap(err, "arr_set")
			}

			handle, err := m.pop()
			if err != nil {
				return 0, errors.Wrap(err, "arr_set")
			}

			m.arrSet(handle, idx, val)
			m.push(handle)

		case ir.OpJzAbs:
			target, err := m.fetchU32()
			if err != nil {
				return 0, errors.Wrap(err, "jz_abs")
			}

			v, err := m.pop()
			if err != nil {
				return 0, errors.Wrap(err, "jz_abs")
			}

			if v == 0 {
				m.ip = int(target)
			}

		case ir.OpJmpAbs:
			target, err := m.fetchU32()
			if err != nil {
				return 0, errors.Wrap(err, "jmp_abs")
			}

			m.ip = int(target)

		default:
			return 0, VmError{IP: start, Reason: "unknown opcode"}
		}
	}
}

// arrGet applies spec.md §4.6's silent out-of-range/unknown-handle
// policy: a bad read yields 0, never a fault (invariant I5).
func (m *VM) arrGet(handle, idx int64) int64 {
	arr := m.arrFor(handle)
	if arr == nil || idx < 0 || idx >= int64(len(arr)) {
		return 0
	}

	return arr[idx]
}

func (m *VM) arrSet(handle, idx, val int64) {
	arr := m.arrFor(handle)
	if arr == nil || idx < 0 || idx >= int64(len(arr)) {
		return
	}

	arr[idx] = val
}

func (m *VM) arrFor(handle int64) []int64 {
	if handle <= 0 || handle > int64(len(m.heap)) {
		return nil
	}

	return m.heap[handle-1]
}

func compare(op ir.Op, a, b int64) bool {
	switch op {
	case ir.OpCmpGt:
		return a > b
	case ir.OpCmpLt:
		return a < b
	case ir.OpCmpEq:
		return a == b
	case ir.OpCmpNe:
		return a != b
	case ir.OpCmpGe:
		return a >= b
	case ir.OpCmpLe:
		return a <= b
	default:
		return false
	}
}

func boolToWord(b bool) int64 {
	if b {
		return 1
	}

	return 0
}

func (m *VM) fetch() (ir.Op, error) {
	if m.ip >= len(m.code) {
		return 0, VmError{IP: m.ip, Reason: "instruction pointer out of range"}
	}

	op := ir.Op(m.code[m.ip])
	m.ip++

	return op, nil
}

func (m *VM) fetchU64() (uint64, error) {
	if m.ip+8 > len(m.code) {
		return 0, VmError{IP: m.ip, Reason: "truncated operand"}
	}

	v := binary.LittleEndian.Uint64(m.code[m.ip : m.ip+8])
	m.ip += 8

	return v, nil
}

func (m *VM) fetchU32() (uint32, error) {
	if m.ip+4 > len(m.code) {
		return 0, VmError{IP: m.ip, Reason: "truncated operand"}
	}

	v := binary.LittleEndian.Uint32(m.code[m.ip : m.ip+4])
	m.ip += 4

	return v, nil
}

func (m *VM) fetchU16() (uint16, error) {
	if m.ip+2 > len(m.code) {
		return 0, VmError{IP: m.ip, Reason: "truncated operand"}
	}

	v := binary.LittleEndian.Uint16(m.code[m.ip : m.ip+2])
	m.ip += 2

	return v, nil
}

func (m *VM) push(v int64) {
	m.stack = append(m.stack, v)
}

func (m *VM) pop() (int64, error) {
	if len(m.stack) == 0 {
		return 0, VmError{IP: m.ip, Reason: "pop from empty stack"}
	}

	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]

	return v, nil
}

// pop2 pops twice and returns (first popped, second popped) — i.e. for
// a binary op "a OP b" with a pushed before b, this returns (b, a).
func (m *VM) pop2() (int64, int64, error) {
	b, err := m.pop()
	if err != nil {
		return 0, 0, err
	}

	a, err := m.pop()
	if err != nil {
		return 0, 0, err
	}

	return b, a, nil
}

func (m *VM) peek() (int64, error) {
	if len(m.stack) == 0 {
		return 0, VmError{IP: m.ip, Reason: "peek on empty stack"}
	}

	return m.stack[len(m.stack)-1], nil
}
