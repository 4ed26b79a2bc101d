package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/tlog"

	"github.com/JoeySoprano420/Parashade/compiler"
)

func main() {
	app := &cli.Command{
		Name:        "parashade",
		Description: "parashade compiles and runs Parashade teaching-dialect source read from stdin",
		Action:      runAct,
		Args:        cli.Args{},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

// runAct reads one mode flag and the source to act on from stdin, per
// spec.md §6: "--run", "--emit", or "--emit-nasm <outdir>", the first
// recognized one wins.
func runAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	mode, outdir := parseMode(c.Args)
	if mode == "" {
		fmt.Fprintln(os.Stderr, "Usage: parashade --run | --emit | --emit-nasm <outdir>")
		os.Exit(1)
	}

	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compile/Run error: %v\n", err)
		os.Exit(2)
	}

	if err := dispatch(ctx, mode, outdir, string(src)); err != nil {
		fmt.Fprintf(os.Stderr, "Compile/Run error: %v\n", err)
		os.Exit(2)
	}

	return nil
}

func parseMode(args cli.Args) (mode, outdir string) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--run":
			return "run", ""
		case "--emit":
			return "emit", ""
		case "--emit-nasm":
			dir := "."
			if i+1 < len(args) {
				dir = args[i+1]
			}

			return "emit-nasm", dir
		}
	}

	return "", ""
}

func dispatch(ctx context.Context, mode, outdir, src string) error {
	switch mode {
	case "run":
		result, err := compiler.Run(ctx, src)
		if err != nil {
			return err
		}

		fmt.Println(result)

		return nil

	case "emit":
		out, err := compiler.EmitText(ctx, src)
		if err != nil {
			return err
		}

		fmt.Print(out)

		return nil

	case "emit-nasm":
		if err := compiler.EmitNASM(ctx, src, outdir); err != nil {
			return err
		}

		fmt.Printf("Wrote %s/parashade_main.asm and build.bat\n", outdir)

		return nil

	default:
		return nil
	}
}
