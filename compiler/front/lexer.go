package front

import (
	"strconv"
	"strings"

	"github.com/JoeySoprano420/Parashade/compiler/token"
)

// Lex streams tokens out of normalized core-dialect text (spec.md §4.2).
// Unknown characters are skipped rather than raised as errors — this is
// documented lenience, not a LexError (spec.md §7).
func Lex(src string) []token.Token {
	var toks []token.Token

	lines := strings.Split(src, "\n")

	for ln, line := range lines {
		i := 0

		for i < len(line) {
			c := line[i]

			switch {
			case c == ' ' || c == '\t' || c == '\r':
				i++
			case c == '(':
				toks = append(toks, token.Token{Kind: token.LParen, Line: ln + 1})
				i++
			case c == ')':
				toks = append(toks, token.Token{Kind: token.RParen, Line: ln + 1})
				i++
			case c == ',':
				toks = append(toks, token.Token{Kind: token.Comma, Line: ln + 1})
				i++
			case c == ':':
				toks = append(toks, token.Token{Kind: token.Colon, Line: ln + 1})
				i++
			case c == '=':
				toks = append(toks, token.Token{Kind: token.Equals, Line: ln + 1})
				i++
			case c == '+':
				toks = append(toks, token.Token{Kind: token.Plus, Line: ln + 1})
				i++
			case isIdentStart(c):
				j := i + 1
				for j < len(line) && isIdentPart(line[j]) {
					j++
				}

				word := line[i:j]
				lower := strings.ToLower(word)

				if kw, ok := token.Keywords[lower]; ok {
					toks = append(toks, token.Token{Kind: kw, Lexeme: lower, Line: ln + 1})
				} else {
					toks = append(toks, token.Token{Kind: token.Ident, Lexeme: lower, Line: ln + 1})
				}

				i = j
			case isDigit(c):
				j := i
				base := 10

				if c == '0' && i+1 < len(line) && (line[i+1] == 'x' || line[i+1] == 'X') {
					base = 16
					j = i + 2
					for j < len(line) && isHexPart(line[j]) {
						j++
					}
				} else {
					for j < len(line) && (isDigit(line[j]) || line[j] == '_') {
						j++
					}
				}

				lexeme := line[i:j]
				v, _ := parseNumber(lexeme, base)

				toks = append(toks, token.Token{Kind: token.Number, Lexeme: lexeme, Value: v, Line: ln + 1})

				i = j
			default:
				// Unknown character: skip (documented lenience, spec.md §7).
				i++
			}
		}
	}

	toks = append(toks, token.Token{Kind: token.EOF, Line: len(lines)})

	return toks
}

func parseNumber(lexeme string, base int) (uint64, error) {
	digits := lexeme
	if base == 16 {
		digits = lexeme[2:]
	}

	digits = strings.ReplaceAll(digits, "_", "")

	return strconv.ParseUint(digits, base, 64)
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexPart(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' || c == '_'
}
