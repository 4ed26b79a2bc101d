package compiler

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMinimum(t *testing.T) {
	src := "module Demo :\nscope main range app :\nreturn 0x2A\nend\n"

	result, err := Run(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, int64(42), result)
}

func TestRunImplicitAdd(t *testing.T) {
	src := "module D:\nscope main range app:\nlet int x = 0x2A\nlet y = x + 0x10\nreturn y\nend\n"

	result, err := Run(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, int64(58), result)
}

func TestRunFold(t *testing.T) {
	src := "module D:\nscope main range app:\nreturn max(3,7)\nend\n"

	result, err := Run(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, int64(7), result)
}

func TestRunBranch(t *testing.T) {
	src := "module D:\nscope main range app:\nif (gt(5,3)):\nreturn 1\nelse:\nreturn 2\nend\nend\n"

	result, err := Run(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, int64(1), result)
}

func TestRunArray(t *testing.T) {
	src := "module D:\nscope main range app:\nlet arr a = arr_of(10,20,30)\nreturn arr_get(a,1)\nend\n"

	result, err := Run(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, int64(20), result)
}

func TestRunArrayOutOfRange(t *testing.T) {
	src := "module D:\nscope main range app:\nlet arr a = arr_new(2)\nreturn arr_get(a,5)\nend\n"

	result, err := Run(context.Background(), src)
	require.NoError(t, err)
	require.Equal(t, int64(0), result)
}

func TestEmitTextIncludesWarningsAndHex(t *testing.T) {
	src := "module D:\nscope main range app:\nlet y = max(3,7)\nreturn y\nend\n"

	out, err := EmitText(context.Background(), src)
	require.NoError(t, err)

	require.Contains(t, out, "; PARASHADE HEX IR")
	require.Contains(t, out, "; METADATA")
	require.Contains(t, out, "W100")
	require.Contains(t, out, "W001")
}

func TestEmitNASMWritesFiles(t *testing.T) {
	dir := t.TempDir()

	src := "module D:\nscope main range app:\nreturn 0x2A\nend\n"

	err := EmitNASM(context.Background(), src, dir)
	require.NoError(t, err)

	asmBytes, err := os.ReadFile(dir + "/parashade_main.asm")
	require.NoError(t, err)
	require.Contains(t, string(asmBytes), "global main")

	batBytes, err := os.ReadFile(dir + "/build.bat")
	require.NoError(t, err)
	require.Contains(t, string(batBytes), "nasm -f win64")
}
