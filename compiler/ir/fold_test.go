package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JoeySoprano420/Parashade/compiler/ast"
)

func TestFoldNum(t *testing.T) {
	v, ok := fold(ast.Num{Value: 7})
	require.True(t, ok)
	require.Equal(t, uint64(7), v)
}

func TestFoldAddBothSidesConstant(t *testing.T) {
	v, ok := fold(ast.Add{Left: ast.Num{Value: 40}, Right: ast.Num{Value: 2}})
	require.True(t, ok)
	require.Equal(t, uint64(42), v)
}

func TestFoldAddFailsWithVar(t *testing.T) {
	_, ok := fold(ast.Add{Left: ast.Num{Value: 40}, Right: ast.Var{Name: "x"}})
	require.False(t, ok)
}

func TestFoldMaxMin(t *testing.T) {
	v, ok := fold(ast.Call{Name: "max", Args: []ast.Expression{ast.Num{Value: 3}, ast.Num{Value: 7}}})
	require.True(t, ok)
	require.Equal(t, uint64(7), v)

	v, ok = fold(ast.Call{Name: "min", Args: []ast.Expression{ast.Num{Value: 3}, ast.Num{Value: 7}}})
	require.True(t, ok)
	require.Equal(t, uint64(3), v)
}

func TestFoldComparisons(t *testing.T) {
	cases := []struct {
		name string
		want uint64
	}{
		{"gt", 1}, {"lt", 0}, {"eq", 0}, {"ne", 1}, {"ge", 1}, {"le", 0},
	}

	for _, c := range cases {
		v, ok := fold(ast.Call{Name: c.name, Args: []ast.Expression{ast.Num{Value: 5}, ast.Num{Value: 3}}})
		require.True(t, ok, c.name)
		require.Equal(t, c.want, v, c.name)
	}
}

func TestFoldEverExactAndUtterlyInlinePassThrough(t *testing.T) {
	v, ok := fold(ast.Call{Name: "ever_exact", Args: []ast.Expression{ast.Num{Value: 9}}})
	require.True(t, ok)
	require.Equal(t, uint64(9), v)

	v, ok = fold(ast.Call{Name: "utterly_inline", Args: []ast.Expression{ast.Num{Value: 9}}})
	require.True(t, ok)
	require.Equal(t, uint64(9), v)
}

func TestFoldUnknownCallFails(t *testing.T) {
	_, ok := fold(ast.Call{Name: "arr_new", Args: []ast.Expression{ast.Num{Value: 1}}})
	require.False(t, ok)
}
