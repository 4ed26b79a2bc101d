package front

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JoeySoprano420/Parashade/compiler/ast"
)

func TestParseMinimum(t *testing.T) {
	toks := Lex(Normalize("module Demo :\nscope main range app :\nreturn 0x2A\nend\n"))

	mod, err := ParseModule(context.Background(), toks)
	require.NoError(t, err)
	require.Equal(t, "demo", mod.Name)
	require.Len(t, mod.Main.Body, 1)

	ret, ok := mod.Main.Body[0].(ast.Return)
	require.True(t, ok)

	num, ok := ret.Expr.(ast.Num)
	require.True(t, ok)
	require.Equal(t, uint64(0x2A), num.Value)
}

func TestParseIfElse(t *testing.T) {
	src := "module D:\nscope main range app:\nif (gt(5,3)):\nreturn 1\nelse:\nreturn 2\nend\nend\n"

	mod, err := ParseModule(context.Background(), Lex(Normalize(src)))
	require.NoError(t, err)
	require.Len(t, mod.Main.Body, 1)

	ifs, ok := mod.Main.Body[0].(ast.If)
	require.True(t, ok)
	require.Len(t, ifs.Then, 1)
	require.Len(t, ifs.Else, 1)

	cond, ok := ifs.Cond.(ast.Call)
	require.True(t, ok)
	require.Equal(t, "gt", cond.Name)
	require.Len(t, cond.Args, 2)
}

func TestParseMissingTokenReportsLine(t *testing.T) {
	src := "module D\nscope main range app:\nreturn 1\nend\n"

	_, err := ParseModule(context.Background(), Lex(Normalize(src)))
	require.Error(t, err)

	var perr ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, 2, perr.Line)
}

func TestParseCallArgs(t *testing.T) {
	src := "module D:\nscope main range app:\nreturn arr_of(1,2,3)\nend\n"

	mod, err := ParseModule(context.Background(), Lex(Normalize(src)))
	require.NoError(t, err)

	ret := mod.Main.Body[0].(ast.Return)
	call := ret.Expr.(ast.Call)
	require.Equal(t, "arr_of", call.Name)
	require.Len(t, call.Args, 3)
}
