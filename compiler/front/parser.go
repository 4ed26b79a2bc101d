package front

import (
	"context"
	"fmt"

	"tlog.app/go/tlog"

	"github.com/JoeySoprano420/Parashade/compiler/ast"
	"github.com/JoeySoprano420/Parashade/compiler/token"
)

// ParseError reports a grammar mismatch with the offending line, as
// spec.md §4.3 requires ("Any deviation fails with ParseError citing the
// line and expected token").
type ParseError struct {
	Line     int
	Expected string
	Got      token.Token
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: expected %s, got %v", e.Line, e.Expected, e.Got)
}

// Parser is a recursive-descent parser over a peekable token stream, in
// the shape of the teacher's index-and-helpers style (peek/pop/expect
// over a flat slice), generalized to Parashade's module/scope grammar.
type Parser struct {
	toks []token.Token
	i    int
}

// NewParser wraps a token stream for parsing.
func NewParser(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// ParseModule parses a full module per the grammar in spec.md §4.3.
func ParseModule(ctx context.Context, toks []token.Token) (mod *ast.Module, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "front: parse module", "tokens", len(toks))
	defer tr.Finish("err", &err)

	p := NewParser(toks)

	mod, err = p.parseModule()
	if err != nil {
		return nil, err
	}

	tr.Printw("parsed", "module", mod.Name, "stmts", len(mod.Main.Body))

	return mod, nil
}

func (p *Parser) peek() token.Token {
	return p.toks[p.i]
}

func (p *Parser) pop() token.Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}

	return t
}

func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.peek().Kind == k {
		return p.pop(), true
	}

	return token.Token{}, false
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if t, ok := p.accept(k); ok {
		return t, nil
	}

	t := p.peek()

	return token.Token{}, ParseError{Line: t.Line, Expected: k.String(), Got: t}
}

func (p *Parser) parseModule() (*ast.Module, error) {
	if _, err := p.expect(token.KwModule); err != nil {
		return nil, err
	}

	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}

	fn, err := p.parseScope()
	if err != nil {
		return nil, err
	}

	return &ast.Module{Name: name.Lexeme, Main: fn}, nil
}

func (p *Parser) parseScope() (*ast.Function, error) {
	kw, err := p.expect(token.KwScope)
	if err != nil {
		return nil, err
	}

	scopeName, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}

	if scopeName.Lexeme != "main" {
		return nil, ParseError{Line: scopeName.Line, Expected: "'main'", Got: scopeName}
	}

	if _, err := p.expect(token.KwRange); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Ident); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}

	body, err := p.parseStmts(token.KwEnd)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.KwEnd); err != nil {
		return nil, err
	}

	return &ast.Function{Name: "main", Body: body, Line: kw.Line}, nil
}

// parseStmts parses statements until a token of kind stop (not consumed),
// an 'else', or end-of-input is reached.
func (p *Parser) parseStmts(stop token.Kind) ([]ast.Statement, error) {
	var body []ast.Statement

	for {
		k := p.peek().Kind
		if k == stop || k == token.EOF || k == token.KwElse {
			break
		}

		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}

		body = append(body, s)
	}

	return body, nil
}

func (p *Parser) parseStmt() (ast.Statement, error) {
	switch p.peek().Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwIf:
		return p.parseIf()
	default:
		t := p.peek()
		return nil, ParseError{Line: t.Line, Expected: "statement", Got: t}
	}
}

func (p *Parser) parseLet() (ast.Statement, error) {
	kw, err := p.expect(token.KwLet)
	if err != nil {
		return nil, err
	}

	declared := ast.Implicit

	switch p.peek().Kind {
	case token.KwInt:
		p.pop()
		declared = ast.IntType
	case token.KwArr:
		p.pop()
		declared = ast.ArrType
	}

	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Equals); err != nil {
		return nil, err
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return ast.Let{Name: name.Lexeme, Type: declared, Expr: expr, Line: kw.Line}, nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	kw, err := p.expect(token.KwReturn)
	if err != nil {
		return nil, err
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return ast.Return{Expr: expr, Line: kw.Line}, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	kw, err := p.expect(token.KwIf)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}

	thenBody, err := p.parseStmts(token.KwEnd)
	if err != nil {
		return nil, err
	}

	var elseBody []ast.Statement

	if _, ok := p.accept(token.KwElse); ok {
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}

		elseBody, err = p.parseStmts(token.KwEnd)
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(token.KwEnd); err != nil {
		return nil, err
	}

	return ast.If{Cond: cond, Then: thenBody, Else: elseBody, Line: kw.Line}, nil
}

func (p *Parser) parseExpr() (ast.Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		plus, ok := p.accept(token.Plus)
		if !ok {
			break
		}

		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		left = ast.Add{Left: left, Right: right, Line: plus.Line}
	}

	return left, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	t := p.peek()

	switch t.Kind {
	case token.Number:
		p.pop()
		return ast.Num{Value: t.Value, Line: t.Line}, nil

	case token.Ident:
		p.pop()

		if _, ok := p.accept(token.LParen); ok {
			var args []ast.Expression

			if p.peek().Kind != token.RParen {
				for {
					a, err := p.parseExpr()
					if err != nil {
						return nil, err
					}

					args = append(args, a)

					if _, ok := p.accept(token.Comma); !ok {
						break
					}
				}
			}

			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}

			return ast.Call{Name: t.Lexeme, Args: args, Line: t.Line}, nil
		}

		return ast.Var{Name: t.Lexeme, Line: t.Line}, nil

	case token.LParen:
		p.pop()

		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}

		return e, nil

	default:
		return nil, ParseError{Line: t.Line, Expected: "number, identifier, or '('", Got: t}
	}
}
