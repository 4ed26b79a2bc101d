package ir

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JoeySoprano420/Parashade/compiler/ast"
)

func mustEmit(t *testing.T, mod *ast.Module) *Program {
	prog, err := Emit(context.Background(), mod)
	require.NoError(t, err)

	return prog
}

func TestEmitReturnLiteral(t *testing.T) {
	mod := &ast.Module{
		Name: "demo",
		Main: &ast.Function{
			Name: "main",
			Body: []ast.Statement{
				ast.Return{Expr: ast.Num{Value: 0x2A}},
			},
		},
	}

	prog := mustEmit(t, mod)

	require.Equal(t, []Instr{
		{Op: OpPushImm64, Imm: 0x2A},
		{Op: OpRet},
	}, prog.Instrs)
}

func TestEmitImplicitLetWarns(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.Let{Name: "x", Type: ast.IntType, Expr: ast.Num{Value: 0x2A}},
				ast.Let{Name: "y", Expr: ast.Add{Left: ast.Var{Name: "x"}, Right: ast.Num{Value: 0x10}}},
				ast.Return{Expr: ast.Var{Name: "y"}},
			},
		},
	}

	prog := mustEmit(t, mod)

	require.Len(t, prog.Locals, 2)
	require.Equal(t, "x", prog.Locals[0].Name)
	require.Equal(t, uint16(0), prog.Locals[0].Index)
	require.True(t, prog.Locals[0].Explicit)

	require.Equal(t, "y", prog.Locals[1].Name)
	require.Equal(t, uint16(1), prog.Locals[1].Index)
	require.False(t, prog.Locals[1].Explicit)

	require.Len(t, prog.Warnings, 1)
	require.Equal(t, WImplicitType, prog.Warnings[0].Code)
}

func TestEmitMaxFoldsAndWarns(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.Return{Expr: ast.Call{Name: "max", Args: []ast.Expression{
					ast.Num{Value: 3}, ast.Num{Value: 7},
				}}},
			},
		},
	}

	prog := mustEmit(t, mod)

	require.Equal(t, []Instr{
		{Op: OpPushImm64, Imm: 7},
		{Op: OpRet},
	}, prog.Instrs)

	require.Len(t, prog.Warnings, 1)
	require.Equal(t, WFoldOrInline, prog.Warnings[0].Code)
	require.Equal(t, "fold:max", prog.Warnings[0].Message)
}

func TestEmitUtterlyInlineAlwaysWarnsEvenWhenConstant(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.Return{Expr: ast.Call{Name: "utterly_inline", Args: []ast.Expression{ast.Num{Value: 9}}}},
			},
		},
	}

	prog := mustEmit(t, mod)

	require.Len(t, prog.Warnings, 1)
	require.Equal(t, "hint:inline", prog.Warnings[0].Message)
	require.Equal(t, []Instr{
		{Op: OpPushImm64, Imm: 9},
		{Op: OpRet},
	}, prog.Instrs)
}

func TestEmitEverExactOnlyWarnsWhenItFolds(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.Let{Name: "x", Expr: ast.Num{Value: 1}},
				ast.Return{Expr: ast.Call{Name: "ever_exact", Args: []ast.Expression{ast.Var{Name: "x"}}}},
			},
		},
	}

	prog := mustEmit(t, mod)

	// x is a Var, not constant, so ever_exact falls through silently:
	// one W001 for the implicit let, nothing from ever_exact.
	require.Len(t, prog.Warnings, 1)
	require.Equal(t, WImplicitType, prog.Warnings[0].Code)
}

func TestEmitIfElseBranchTargets(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.If{
					Cond: ast.Call{Name: "gt", Args: []ast.Expression{ast.Num{Value: 5}, ast.Num{Value: 3}}},
					Then: []ast.Statement{ast.Return{Expr: ast.Num{Value: 1}}},
					Else: []ast.Statement{ast.Return{Expr: ast.Num{Value: 2}}},
				},
			},
		},
	}

	prog := mustEmit(t, mod)

	var jz, jmp int
	for _, in := range prog.Instrs {
		if in.Op == OpJzAbs {
			jz++
		}

		if in.Op == OpJmpAbs {
			jmp++
		}
	}

	require.Equal(t, 1, jz)
	require.Equal(t, 1, jmp)

	// the JZ_ABS target must be the instruction index of the first
	// instruction of the else arm.
	var jzInstr, jmpInstr Instr
	var jzIdx int
	for i, in := range prog.Instrs {
		if in.Op == OpJzAbs {
			jzInstr = in
			jzIdx = i
		}

		if in.Op == OpJmpAbs {
			jmpInstr = in
		}
	}

	require.Equal(t, jzInstr.Target, jmpInstr.Target-2) // else arm starts right after the JMP_ABS
	require.Greater(t, jzInstr.Target, jzIdx)
}

func TestEmitStopsAfterFirstUnconditionalReturn(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.Return{Expr: ast.Num{Value: 1}},
				ast.Return{Expr: ast.Num{Value: 2}},
				ast.Let{Name: "x", Type: ast.IntType, Expr: ast.Num{Value: 3}},
			},
		},
	}

	prog := mustEmit(t, mod)

	require.Equal(t, []Instr{
		{Op: OpPushImm64, Imm: 1},
		{Op: OpRet},
	}, prog.Instrs)
	require.Empty(t, prog.Locals)
}

func TestEmitStopsAfterReturnInsideIfArm(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.If{
					Cond: ast.Num{Value: 1},
					Then: []ast.Statement{
						ast.Return{Expr: ast.Num{Value: 1}},
						ast.Return{Expr: ast.Num{Value: 9}},
					},
					Else: []ast.Statement{
						ast.Return{Expr: ast.Num{Value: 2}},
					},
				},
			},
		},
	}

	prog := mustEmit(t, mod)

	var rets int
	for _, in := range prog.Instrs {
		if in.Op == OpRet {
			rets++
		}
	}

	require.Equal(t, 2, rets)
}

func TestEmitArrayOfAndGet(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.Let{Name: "a", Type: ast.ArrType, Expr: ast.Call{Name: "arr_of", Args: []ast.Expression{
					ast.Num{Value: 10}, ast.Num{Value: 20}, ast.Num{Value: 30},
				}}},
				ast.Return{Expr: ast.Call{Name: "arr_get", Args: []ast.Expression{ast.Var{Name: "a"}, ast.Num{Value: 1}}}},
			},
		},
	}

	prog := mustEmit(t, mod)

	last := prog.Instrs[len(prog.Instrs)-2]
	require.Equal(t, OpArrGet, last.Op)
}

func TestEmitUndeclaredNameFails(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.Return{Expr: ast.Var{Name: "missing", Line: 3}},
			},
		},
	}

	_, err := Emit(context.Background(), mod)
	require.Error(t, err)

	var nameErr NameError
	require.ErrorAs(t, err, &nameErr)
	require.Equal(t, 3, nameErr.Line)
}

func TestEmitArityMismatchFails(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.Return{Expr: ast.Call{Name: "max", Args: []ast.Expression{ast.Num{Value: 1}}, Line: 5}},
			},
		},
	}

	_, err := Emit(context.Background(), mod)
	require.Error(t, err)

	var arityErr CallArityError
	require.ErrorAs(t, err, &arityErr)
	require.Equal(t, 5, arityErr.Line)
}

func TestEmitUnknownCallFails(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.Return{Expr: ast.Call{Name: "bogus", Line: 9}},
			},
		},
	}

	_, err := Emit(context.Background(), mod)
	require.Error(t, err)

	var unkErr UnknownCallError
	require.ErrorAs(t, err, &unkErr)
	require.Equal(t, 9, unkErr.Line)
}

func TestLocalSlotsAssignedInDeclarationOrder(t *testing.T) {
	mod := &ast.Module{
		Main: &ast.Function{
			Body: []ast.Statement{
				ast.Let{Name: "a", Type: ast.IntType, Expr: ast.Num{Value: 1}},
				ast.Let{Name: "b", Type: ast.IntType, Expr: ast.Num{Value: 2}},
				ast.Let{Name: "c", Type: ast.IntType, Expr: ast.Num{Value: 3}},
				ast.Return{Expr: ast.Var{Name: "c"}},
			},
		},
	}

	prog := mustEmit(t, mod)

	for i, l := range prog.Locals {
		require.Equal(t, uint16(i), l.Index)
	}
}
