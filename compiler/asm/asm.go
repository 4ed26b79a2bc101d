// Package asm lowers symbolic IR (an ir.Program's instruction sequence,
// not its finalized bytes) to x86-64 NASM source targeting the
// Windows PE/COFF ABI, plus the build.bat that assembles and links it
// into a standalone .exe (spec.md §4.7). It is grounded on
// original_source/parashade_win.cpp's NASM struct — prologue/epilogue,
// a virtual operand stack realized with push/pop, and a build.bat
// template driving nasm + link.exe — reworked into the teacher's
// builder-over-strings.Builder idiom and its ctx/tlog/errors
// conventions (compiler/back/back6.go).
package asm

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/JoeySoprano420/Parashade/compiler/ir"
	"github.com/JoeySoprano420/Parashade/compiler/set"
)

// UnsupportedOpError is raised when the emitter meets an opcode it does
// not know how to lower (spec.md §7).
type UnsupportedOpError struct {
	Op ir.Op
}

func (e UnsupportedOpError) Error() string {
	return fmt.Sprintf("asm: unsupported opcode 0x%02x", byte(e.Op))
}

// emitter builds one function's NASM text. targets records, by
// instruction index, which instructions are the destination of a
// branch — those and only those get a label emitted ahead of them.
type emitter struct {
	w       strings.Builder
	targets set.Bitmap
	nSafe   int
}

// CompileProgram lowers prog to NASM source for a `main` entry point
// that exits the process with the program's return value as its exit
// code, in the style of parashade_win.cpp's --emit-nasm mode.
func CompileProgram(ctx context.Context, prog *ir.Program) ([]byte, error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "asm: compile program", "func", prog.FuncName)

	e := &emitter{}

	for _, instr := range prog.Instrs {
		if instr.Op == ir.OpJzAbs || instr.Op == ir.OpJmpAbs {
			e.targets.Set(instr.Target)
		}
	}

	e.prologue(len(prog.Locals))

	usesHeap := false
	for _, instr := range prog.Instrs {
		if instr.Op == ir.OpArrNew || instr.Op == ir.OpArrGet || instr.Op == ir.OpArrSet {
			usesHeap = true
			break
		}
	}

	for i, instr := range prog.Instrs {
		if e.targets.IsSet(i) {
			e.label(i)
		}

		if err := e.lower(instr); err != nil {
			return nil, errors.Wrap(err, "instr %d", i)
		}
	}

	out := header(usesHeap) + e.w.String()

	tr.Printw("emitted nasm", "bytes", len(out), "locals", len(prog.Locals))

	return []byte(out), nil
}

func header(usesHeap bool) string {
	var h strings.Builder

	h.WriteString("default rel\n")
	h.WriteString("extern ExitProcess\n")

	if usesHeap {
		h.WriteString("extern GetProcessHeap\n")
		h.WriteString("extern HeapAlloc\n")
	}

	h.WriteString("section .text\n")
	h.WriteString("global main\n")

	return h.String()
}

func (e *emitter) printf(format string, args ...any) {
	fmt.Fprintf(&e.w, format, args...)
}

func (e *emitter) label(i int) {
	e.printf(".L%d:\n", i)
}

// prologue reserves one 8-byte slot per local plus the 32-byte shadow
// space the Windows x64 ABI requires before any call, then aligns rsp
// to 16 bytes — identical layout to parashade_win.cpp's NASM::prologue.
func (e *emitter) prologue(locals int) {
	e.printf("main:\n")
	e.printf("    push rbp\n")
	e.printf("    mov rbp, rsp\n")

	reserve := locals*8 + 32
	e.printf("    sub rsp, %d\n", reserve)
	e.printf("    and rsp, -16\n")
}

func (e *emitter) lower(instr ir.Instr) error {
	switch instr.Op {
	case ir.OpPushImm64:
		e.printf("    mov rax, 0x%x\n", instr.Imm)
		e.printf("    push rax\n")

	case ir.OpAdd:
		e.printf("    pop rbx\n")
		e.printf("    pop rax\n")
		e.printf("    add rax, rbx\n")
		e.printf("    push rax\n")

	case ir.OpDup:
		e.printf("    mov rax, [rsp]\n")
		e.printf("    push rax\n")

	case ir.OpStoreLcl:
		off := (int(instr.Slot) + 1) * 8
		e.printf("    pop rax\n")
		e.printf("    mov [rbp - %d], rax\n", off)

	case ir.OpLoadLcl:
		off := (int(instr.Slot) + 1) * 8
		e.printf("    mov rax, [rbp - %d]\n", off)
		e.printf("    push rax\n")

	case ir.OpRet:
		e.printf("    pop rax\n")
		e.printf("    mov ecx, eax\n")
		e.printf("    call ExitProcess\n")

	case ir.OpMax:
		e.printf("    pop rbx\n")
		e.printf("    pop rax\n")
		e.printf("    cmp rax, rbx\n")
		e.printf("    cmovl rax, rbx\n")
		e.printf("    push rax\n")

	case ir.OpMin:
		e.printf("    pop rbx\n")
		e.printf("    pop rax\n")
		e.printf("    cmp rax, rbx\n")
		e.printf("    cmovg rax, rbx\n")
		e.printf("    push rax\n")

	case ir.OpCmpGt, ir.OpCmpLt, ir.OpCmpEq, ir.OpCmpNe, ir.OpCmpGe, ir.OpCmpLe:
		e.printf("    pop rbx\n")
		e.printf("    pop rax\n")
		e.printf("    cmp rax, rbx\n")
		e.printf("    %s al\n", setCC(instr.Op))
		e.printf("    movzx rax, al\n")
		e.printf("    push rax\n")

	case ir.OpArrNew:
		e.lowerArrNew()

	case ir.OpArrGet:
		e.lowerArrGet()

	case ir.OpArrSet:
		e.lowerArrSet()

	case ir.OpJzAbs:
		e.printf("    pop rax\n")
		e.printf("    test rax, rax\n")
		e.printf("    jz .L%d\n", instr.Target)

	case ir.OpJmpAbs:
		e.printf("    jmp .L%d\n", instr.Target)

	default:
		return UnsupportedOpError{Op: instr.Op}
	}

	return nil
}

func setCC(op ir.Op) string {
	switch op {
	case ir.OpCmpGt:
		return "setg"
	case ir.OpCmpLt:
		return "setl"
	case ir.OpCmpEq:
		return "sete"
	case ir.OpCmpNe:
		return "setne"
	case ir.OpCmpGe:
		return "setge"
	default:
		return "setle"
	}
}

// lowerArrNew allocates (n+1)*8 bytes on the process heap: one 8-byte
// length header followed by n 8-byte elements, and pushes the header
// pointer as the array's handle. Negative n is clamped to 0, matching
// compiler/vm's ArrNew semantics.
func (e *emitter) lowerArrNew() {
	e.printf("    pop rax\n")
	e.printf("    xor rcx, rcx\n")
	e.printf("    cmp rax, 0\n")
	e.printf("    cmovl rax, rcx\n")
	e.printf("    mov rbx, rax\n")
	e.printf("    lea rax, [rax + 1]\n")
	e.printf("    imul rax, rax, 8\n")
	e.printf("    mov rsi, rax\n")
	e.printf("    call GetProcessHeap\n")
	e.printf("    mov rcx, rax\n")
	e.printf("    mov rdx, 8\n")
	e.printf("    mov r8, rsi\n")
	e.printf("    call HeapAlloc\n")
	e.printf("    mov [rax], rbx\n")
	e.printf("    push rax\n")
}

// lowerArrGet and lowerArrSet apply spec.md §4.6's silent bounds policy
// in raw asm: a null handle or an out-of-range index is not a fault,
// it is simply a no-op read-as-zero or write-as-discard.
func (e *emitter) lowerArrGet() {
	n := e.nSafe
	e.nSafe++

	e.printf("    pop rdx\n")
	e.printf("    pop rax\n")
	e.printf("    test rax, rax\n")
	e.printf("    jz .Lmiss%d\n", n)
	e.printf("    mov rcx, [rax]\n")
	e.printf("    cmp rdx, 0\n")
	e.printf("    jl .Lmiss%d\n", n)
	e.printf("    cmp rdx, rcx\n")
	e.printf("    jge .Lmiss%d\n", n)
	e.printf("    mov rax, [rax + 8 + rdx*8]\n")
	e.printf("    jmp .Ldone%d\n", n)
	e.printf(".Lmiss%d:\n", n)
	e.printf("    xor rax, rax\n")
	e.printf(".Ldone%d:\n", n)
	e.printf("    push rax\n")
}

func (e *emitter) lowerArrSet() {
	n := e.nSafe
	e.nSafe++

	e.printf("    pop rdx\n")
	e.printf("    pop rcx\n")
	e.printf("    pop rax\n")
	e.printf("    test rax, rax\n")
	e.printf("    jz .Lsdone%d\n", n)
	e.printf("    mov rbx, [rax]\n")
	e.printf("    cmp rcx, 0\n")
	e.printf("    jl .Lsdone%d\n", n)
	e.printf("    cmp rcx, rbx\n")
	e.printf("    jge .Lsdone%d\n", n)
	e.printf("    mov [rax + 8 + rcx*8], rdx\n")
	e.printf(".Lsdone%d:\n", n)
	e.printf("    push rax\n")
}

// BuildScript returns the build.bat that assembles parashade_main.asm
// with nasm and links it with MSVC's link.exe into exeName, verbatim
// in shape from parashade_win.cpp's emit_nasm_pe build.bat template.
func BuildScript(exeName string) []byte {
	if exeName == "" {
		exeName = "parashade.exe"
	}

	var b strings.Builder

	b.WriteString("REM Build PE from NASM with MSVC LINK\n")
	b.WriteString("@echo off\n")
	b.WriteString("setlocal\n")
	b.WriteString("if \"%VSCMD_ARG_TGT_ARCH%\"==\"\" (\n")
	b.WriteString("  echo (Tip) Run from \"x64 Native Tools Command Prompt for VS\" so link.exe is on PATH.\n")
	b.WriteString(")\n")
	fmt.Fprintf(&b, "set OUT=%s\n", exeName)
	b.WriteString("echo Assembling...\n")
	b.WriteString("nasm -f win64 parashade_main.asm -o parashade_main.obj || exit /b 1\n")
	b.WriteString("echo Linking...\n")
	b.WriteString("link /subsystem:console /entry:main parashade_main.obj kernel32.lib /out:%OUT% || exit /b 1\n")
	b.WriteString("echo Done: %OUT%\n")

	return []byte(b.String())
}
