// Package parser implements Pudl's two front ends: a recursive-descent
// parser for the C-like typed statement dialect (typed.go) and an
// operator-precedence parser for the Kaleidoscope-style expression
// dialect (expr.go). The two dialects are two separate parser types
// sharing only lexer and diagnostic plumbing, rather than one parser
// with a mode flag threaded through every production.
package parser

import (
	"fmt"

	"github.com/pudl-lang/pudlc/internal/errors"
	"github.com/pudl-lang/pudlc/internal/lexer"
	"github.com/pudl-lang/pudlc/internal/token"
)

// base holds the state common to both front ends: the token stream, the
// current look-ahead token, and accumulated diagnostics.
type base struct {
	lex    *lexer.Lexer
	cur    token.Token
	errs   []*errors.CompilerError
	source string
	file   string
}

func newBase(l *lexer.Lexer, source, file string) base {
	b := base{lex: l, source: source, file: file}
	b.advance()
	return b
}

func (b *base) advance() {
	b.cur = b.lex.Lex()
}

func (b *base) errorf(stage errors.Stage, pos token.Position, format string, args ...interface{}) {
	b.errs = append(b.errs, errors.New(stage, pos, fmt.Sprintf(format, args...), b.source, b.file))
}

// expect consumes the current token if it has kind k, recording a parse
// error and returning the zero Token otherwise. The caller is responsible
// for error recovery.
func (b *base) expect(k token.Type) (token.Token, bool) {
	if b.cur.Kind != k {
		b.errorf(errors.StageParse, b.cur.Pos, "%s", errors.Expected(b.cur.Pos, k.String(), describe(b.cur)))
		return token.Token{}, false
	}
	t := b.cur
	b.advance()
	return t, true
}

func describe(t token.Token) string {
	if t.Kind == token.EOF {
		return "EOF"
	}
	if t.Lexeme != "" {
		return fmt.Sprintf("%q", t.Lexeme)
	}
	return t.Kind.String()
}

// Errors returns all diagnostics accumulated so far.
func (b *base) Errors() []*errors.CompilerError { return b.errs }
