// Package ir lowers a parsed ast.Module to Parashade's stack-bytecode
// intermediate representation: a flat instruction sequence with
// symbolic (instruction-index) branch targets, finalized once to an
// immutable byte stream with absolute byte offsets (spec.md §3, §4.5).
package ir

// Op is an opcode byte, laid out exactly as spec.md §3's opcode table.
type Op byte

const (
	OpPushImm64 Op = 0x01
	OpAdd       Op = 0x02
	OpDup       Op = 0x06
	OpStoreLcl  Op = 0x10
	OpLoadLcl   Op = 0x11
	OpRet       Op = 0x21
	OpMax       Op = 0x30
	OpMin       Op = 0x31
	OpCmpGt     Op = 0x32
	OpCmpLt     Op = 0x33
	OpCmpEq     Op = 0x34
	OpCmpNe     Op = 0x35
	OpCmpGe     Op = 0x36
	OpCmpLe     Op = 0x37
	OpArrNew    Op = 0x40
	OpArrGet    Op = 0x41
	OpArrSet    Op = 0x42
	OpJzAbs     Op = 0x70
	OpJmpAbs    Op = 0x71
)

// Size returns the byte length of an instruction with this opcode,
// including its operand, per spec.md §3's "Operand bytes" column.
func (op Op) Size() int {
	switch op {
	case OpPushImm64:
		return 9
	case OpStoreLcl, OpLoadLcl:
		return 3
	case OpJzAbs, OpJmpAbs:
		return 5
	default:
		return 1
	}
}

// Instr is a single IR instruction, matching spec.md §3's uniform
// record {op, imm?, slot?, target?}. Target always holds an instruction
// index; Finalize writes the matching absolute byte offset into the byte
// stream only and leaves Target as it is.
type Instr struct {
	Op     Op
	Imm    uint64
	Slot   uint16
	Target int
}

// LocalType is one of the two Parashade value types.
type LocalType int

const (
	IntType LocalType = iota
	ArrType
)

func (t LocalType) String() string {
	if t == ArrType {
		return "arr"
	}

	return "int"
}

// Local is one declared slot in the function's local table, assigned in
// first-declaration order starting at 0 (spec.md §3, property P4).
type Local struct {
	Name     string
	Type     LocalType
	Index    uint16
	DeclLine int
	Explicit bool
}

// Warning codes, per spec.md §3.
const (
	WImplicitType = "W001"
	WFoldOrInline = "W100"
)

// Warning is a diagnostic recorded by the Typer/Emitter pass.
type Warning struct {
	Code    string
	Message string
	Line    int
}

// Program is one compiled function's symbolic IR plus its side tables.
// Instrs is mutated by Emit and only read by Finalize; once finalized it
// must not be mutated again (spec.md §9 "Branch patching").
type Program struct {
	ModuleName string
	FuncName   string
	Instrs     []Instr
	Locals     []Local
	Warnings   []Warning

	finalized bool
	bytes     []byte
}
