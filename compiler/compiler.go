package compiler

import (
	"context"
	"os"
	"path/filepath"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/JoeySoprano420/Parashade/compiler/ast"
	"github.com/JoeySoprano420/Parashade/compiler/asm"
	"github.com/JoeySoprano420/Parashade/compiler/front"
	"github.com/JoeySoprano420/Parashade/compiler/ir"
	"github.com/JoeySoprano420/Parashade/compiler/meta"
	"github.com/JoeySoprano420/Parashade/compiler/vm"
)

// Compile runs the front half of the pipeline common to every driver
// mode: normalize, lex, parse, emit (spec.md §4.1-§4.5). Each stage is
// wrapped with its own name so failures are traceable to the stage
// that produced them.
func Compile(ctx context.Context, src string) (mod *ast.Module, prog *ir.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compiler: compile")
	defer tr.Finish("err", &err)

	norm := front.Normalize(src)

	toks := front.Lex(norm)
	tr.Printw("lexed", "tokens", len(toks))

	mod, err = front.ParseModule(ctx, toks)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse")
	}

	prog, err = ir.Emit(ctx, mod)
	if err != nil {
		return nil, nil, errors.Wrap(err, "emit")
	}

	tr.Printw("emitted", "instrs", len(prog.Instrs), "locals", len(prog.Locals), "warnings", len(prog.Warnings))

	return mod, prog, nil
}

// Run compiles src and executes it on the bytecode VM, returning the
// program's integer result (spec.md §6 "--run").
func Run(ctx context.Context, src string) (int64, error) {
	_, prog, err := Compile(ctx, src)
	if err != nil {
		return 0, err
	}

	code := prog.Finalize()

	m := vm.New(code, len(prog.Locals))

	result, err := m.Run(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "run")
	}

	return result, nil
}

// EmitText compiles src and renders the hex IR dump plus metadata JSON
// exactly as the driver's "--emit" mode prints them (spec.md §4.8, §6).
func EmitText(ctx context.Context, src string) (string, error) {
	mod, prog, err := Compile(ctx, src)
	if err != nil {
		return "", err
	}

	code := prog.Finalize()

	js, err := meta.Metadata(mod, prog).JSON()
	if err != nil {
		return "", errors.Wrap(err, "metadata")
	}

	return meta.HexDump(code) + "\n; METADATA\n" + js + "\n", nil
}

// EmitNASM compiles src and writes outdir/parashade_main.asm and
// outdir/build.bat, NASM PE/COFF output for a standalone .exe
// (spec.md §4.7, §6 "--emit-nasm").
func EmitNASM(ctx context.Context, src, outdir string) error {
	_, prog, err := Compile(ctx, src)
	if err != nil {
		return err
	}

	text, err := asm.CompileProgram(ctx, prog)
	if err != nil {
		return errors.Wrap(err, "asm")
	}

	if err := writeOutputs(outdir, text, asm.BuildScript("")); err != nil {
		return errors.Wrap(err, "write outputs")
	}

	return nil
}

// IoError reports a failure creating the output directory or writing
// one of its files (spec.md §7).
type IoError struct {
	Path string
	Err  error
}

func (e IoError) Error() string {
	return "io: " + e.Path + ": " + e.Err.Error()
}

func (e IoError) Unwrap() error {
	return e.Err
}

func writeOutputs(outdir string, asmText, buildScript []byte) error {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return IoError{Path: outdir, Err: err}
	}

	asmPath := filepath.Join(outdir, "parashade_main.asm")
	if err := os.WriteFile(asmPath, asmText, 0o644); err != nil {
		return IoError{Path: asmPath, Err: err}
	}

	batPath := filepath.Join(outdir, "build.bat")
	if err := os.WriteFile(batPath, buildScript, 0o644); err != nil {
		return IoError{Path: batPath, Err: err}
	}

	return nil
}
