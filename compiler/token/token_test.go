package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindStringFallsBackToQuestionMark(t *testing.T) {
	require.Equal(t, "?", Kind(999).String())
	require.Equal(t, "'module'", KwModule.String())
}

func TestTokenStringShowsLexemeForIdentAndNumber(t *testing.T) {
	require.Equal(t, "foo", Token{Kind: Ident, Lexeme: "foo"}.String())
	require.Equal(t, "0x2a", Token{Kind: Number, Lexeme: "0x2a", Value: 42}.String())
	require.Equal(t, "'+'", Token{Kind: Plus}.String())
}

func TestKeywordsCoverReservedWords(t *testing.T) {
	for _, w := range []string{"module", "scope", "range", "let", "int", "arr", "return", "end", "if", "else"} {
		_, ok := Keywords[w]
		require.True(t, ok, "missing keyword %q", w)
	}
}
