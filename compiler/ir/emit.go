package ir

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/JoeySoprano420/Parashade/compiler/ast"
)

// cmpOps maps a comparison builtin's name to its opcode.
var cmpOps = map[string]Op{
	"gt": OpCmpGt,
	"lt": OpCmpLt,
	"eq": OpCmpEq,
	"ne": OpCmpNe,
	"ge": OpCmpGe,
	"le": OpCmpLe,
}

// arrTypeHints is the set of top-level call names that mark an
// implicitly-typed `let` as an arr rather than an int (spec.md §4.4).
var arrTypeHints = map[string]bool{
	"arr_new": true,
	"arr_set": true,
	"arr_of":  true,
}

// emitter carries the single-pass locals table, in the shape of the
// teacher's analyze.Analyze: one small stateful walker, no separate
// type-checking tree pass (spec.md §4.4 "a single pass during emission").
type emitter struct {
	prog   *Program
	locals map[string]*Local
}

// Emit lowers mod's main function to IR, assigning local slots,
// inferring implicit types, constant-folding, and linearizing control
// flow, in one pass over the AST (spec.md §4.4, §4.5).
func Emit(ctx context.Context, mod *ast.Module) (prog *Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "ir: emit", "module", mod.Name)
	defer tr.Finish("err", &err)

	e := &emitter{
		prog: &Program{
			ModuleName: mod.Name,
			FuncName:   mod.Main.Name,
		},
		locals: map[string]*Local{},
	}

	if err := e.genBody(mod.Main.Body); err != nil {
		return nil, err
	}

	tr.Printw("emitted", "instrs", len(e.prog.Instrs), "locals", len(e.prog.Locals))

	return e.prog, nil
}

// genBody emits each statement of a body in order, stopping right after
// the first unconditionally-reached `return`: spec.md §4.7 requires that
// trailing statements after that point are never emitted, in either
// backend, since control can never reach them.
func (e *emitter) genBody(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := e.genStmt(s); err != nil {
			return err
		}

		if _, ok := s.(ast.Return); ok {
			break
		}
	}

	return nil
}

func (e *emitter) emit(i Instr) int {
	e.prog.Instrs = append(e.prog.Instrs, i)
	return len(e.prog.Instrs) - 1
}

func (e *emitter) warn(code, msg string, line int) {
	e.prog.Warnings = append(e.prog.Warnings, Warning{Code: code, Message: msg, Line: line})
}

func (e *emitter) genStmt(s ast.Statement) error {
	switch s := s.(type) {
	case ast.Let:
		return e.genLet(s)
	case ast.Return:
		if err := e.genExpr(s.Expr); err != nil {
			return errors.Wrap(err, "return")
		}

		e.emit(Instr{Op: OpRet})

		return nil
	case ast.If:
		return e.genIf(s)
	default:
		return nil
	}
}

func (e *emitter) genLet(s ast.Let) error {
	local, ok := e.locals[s.Name]
	if !ok {
		local = &Local{
			Name:     s.Name,
			Index:    uint16(len(e.locals)),
			DeclLine: s.Line,
			Explicit: s.Type != ast.Implicit,
		}

		switch s.Type {
		case ast.IntType:
			local.Type = IntType
		case ast.ArrType:
			local.Type = ArrType
		default:
			local.Type = inferType(s.Expr)
			e.warn(WImplicitType, "implicit type inferred: "+s.Name, s.Line)
		}

		e.locals[s.Name] = local
		e.prog.Locals = append(e.prog.Locals, *local)
	}

	if err := e.genExpr(s.Expr); err != nil {
		return errors.Wrap(err, "let %v", s.Name)
	}

	e.emit(Instr{Op: OpStoreLcl, Slot: local.Index})

	return nil
}

// inferType implements spec.md §4.4's implicit-let rule: arr only when
// the top-level RHS expression is itself a call to one of the array
// builtins, int otherwise.
func inferType(e ast.Expression) LocalType {
	if c, ok := e.(ast.Call); ok && arrTypeHints[c.Name] {
		return ArrType
	}

	return IntType
}

func (e *emitter) genIf(s ast.If) error {
	if err := e.genExpr(s.Cond); err != nil {
		return errors.Wrap(err, "if cond")
	}

	jz := e.emit(Instr{Op: OpJzAbs, Target: -1})

	if err := e.genBody(s.Then); err != nil {
		return errors.Wrap(err, "if then")
	}

	jend := e.emit(Instr{Op: OpJmpAbs, Target: -1})

	e.prog.Instrs[jz].Target = len(e.prog.Instrs)

	if err := e.genBody(s.Else); err != nil {
		return errors.Wrap(err, "if else")
	}

	e.prog.Instrs[jend].Target = len(e.prog.Instrs)

	return nil
}

func (e *emitter) genExpr(expr ast.Expression) error {
	switch ex := expr.(type) {
	case ast.Num:
		e.emit(Instr{Op: OpPushImm64, Imm: ex.Value})
		return nil

	case ast.Var:
		local, ok := e.locals[ex.Name]
		if !ok {
			return NameError{Name: ex.Name, Line: ex.Line}
		}

		e.emit(Instr{Op: OpLoadLcl, Slot: local.Index})

		return nil

	case ast.Add:
		if err := e.genExpr(ex.Left); err != nil {
			return errors.Wrap(err, "add")
		}

		if err := e.genExpr(ex.Right); err != nil {
			return errors.Wrap(err, "add")
		}

		e.emit(Instr{Op: OpAdd})

		return nil

	case ast.Call:
		return e.genCall(ex)

	default:
		return nil
	}
}

func (e *emitter) genCall(c ast.Call) error {
	switch c.Name {
	case "utterly_inline":
		if len(c.Args) != 1 {
			return CallArityError{Name: c.Name, Want: 1, Got: len(c.Args), Line: c.Line}
		}

		e.warn(WFoldOrInline, "hint:inline", c.Line)

		return e.genExpr(c.Args[0])

	case "ever_exact":
		if len(c.Args) != 1 {
			return CallArityError{Name: c.Name, Want: 1, Got: len(c.Args), Line: c.Line}
		}

		if v, ok := fold(c); ok {
			e.warn(WFoldOrInline, "fold:"+c.Name, c.Line)
			e.emit(Instr{Op: OpPushImm64, Imm: v})

			return nil
		}

		return e.genExpr(c.Args[0])

	case "max", "min":
		if len(c.Args) != 2 {
			return CallArityError{Name: c.Name, Want: 2, Got: len(c.Args), Line: c.Line}
		}

		if v, ok := fold(c); ok {
			e.warn(WFoldOrInline, "fold:"+c.Name, c.Line)
			e.emit(Instr{Op: OpPushImm64, Imm: v})

			return nil
		}

		if err := e.genExpr(c.Args[0]); err != nil {
			return errors.Wrap(err, "call %v", c.Name)
		}

		if err := e.genExpr(c.Args[1]); err != nil {
			return errors.Wrap(err, "call %v", c.Name)
		}

		op := OpMax
		if c.Name == "min" {
			op = OpMin
		}

		e.emit(Instr{Op: op})

		return nil

	case "gt", "lt", "eq", "ne", "ge", "le":
		if len(c.Args) != 2 {
			return CallArityError{Name: c.Name, Want: 2, Got: len(c.Args), Line: c.Line}
		}

		if v, ok := fold(c); ok {
			e.warn(WFoldOrInline, "fold:"+c.Name, c.Line)
			e.emit(Instr{Op: OpPushImm64, Imm: v})

			return nil
		}

		if err := e.genExpr(c.Args[0]); err != nil {
			return errors.Wrap(err, "call %v", c.Name)
		}

		if err := e.genExpr(c.Args[1]); err != nil {
			return errors.Wrap(err, "call %v", c.Name)
		}

		e.emit(Instr{Op: cmpOps[c.Name]})

		return nil

	case "arr_new":
		if len(c.Args) != 1 {
			return CallArityError{Name: c.Name, Want: 1, Got: len(c.Args), Line: c.Line}
		}

		if err := e.genExpr(c.Args[0]); err != nil {
			return errors.Wrap(err, "call %v", c.Name)
		}

		e.emit(Instr{Op: OpArrNew})

		return nil

	case "arr_get":
		if len(c.Args) != 2 {
			return CallArityError{Name: c.Name, Want: 2, Got: len(c.Args), Line: c.Line}
		}

		if err := e.genExpr(c.Args[0]); err != nil {
			return errors.Wrap(err, "call %v", c.Name)
		}

		if err := e.genExpr(c.Args[1]); err != nil {
			return errors.Wrap(err, "call %v", c.Name)
		}

		e.emit(Instr{Op: OpArrGet})

		return nil

	case "arr_set":
		if len(c.Args) != 3 {
			return CallArityError{Name: c.Name, Want: 3, Got: len(c.Args), Line: c.Line}
		}

		for _, a := range c.Args {
			if err := e.genExpr(a); err != nil {
				return errors.Wrap(err, "call %v", c.Name)
			}
		}

		e.emit(Instr{Op: OpArrSet})

		return nil

	case "arr_of":
		e.emit(Instr{Op: OpPushImm64, Imm: uint64(len(c.Args))})
		e.emit(Instr{Op: OpArrNew})

		for i, a := range c.Args {
			e.emit(Instr{Op: OpDup})
			e.emit(Instr{Op: OpPushImm64, Imm: uint64(i)})

			if err := e.genExpr(a); err != nil {
				return errors.Wrap(err, "call %v", c.Name)
			}

			e.emit(Instr{Op: OpArrSet})
		}

		return nil

	default:
		return UnknownCallError{Name: c.Name, Line: c.Line}
	}
}
