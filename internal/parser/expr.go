package parser

import (
	"strconv"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/errors"
	"github.com/pudl-lang/pudlc/internal/lexer"
	"github.com/pudl-lang/pudlc/internal/token"
	"github.com/pudl-lang/pudlc/internal/types"
)

// defaultPrecedence holds the initial operator table:
// '=' -> 2, '<' -> 10, '+' -> 20, '-' -> 20, '*' -> 40.
func defaultPrecedence() map[string]int {
	return map[string]int{"=": 2, "<": 10, "+": 20, "-": 20, "*": 40}
}

// ExprParser parses the Kaleidoscope-style expression dialect one
// top-level item at a time, the shape the REPL driver needs.
// binopPrecedence is owned by this instance rather than by a package
// global and is mutated only by "binary <op> [prec]" prototype
// declarations, so the same tokens always parse to the same AST modulo
// the operators such prototypes install.
type ExprParser struct {
	base
	binopPrecedence map[string]int
	protos          map[string]*ast.Prototype
}

// NewExpr creates an ExprParser over source.
func NewExpr(source, file string) *ExprParser {
	return NewExprResuming(source, file, defaultPrecedence(), make(map[string]*ast.Prototype))
}

// NewExprResuming creates an ExprParser that continues from a previous
// instance's operator-precedence table and prototype table, instead of
// starting from the defaults. The REPL driver needs this: each input
// line gets its own Lexer/ExprParser (a Lexer is fixed to the string it
// was built over), but a `binary <op> [prec]` or `extern` declared on
// one line must still be visible to items parsed from later lines.
func NewExprResuming(source, file string, precedence map[string]int, protos map[string]*ast.Prototype) *ExprParser {
	p := &ExprParser{binopPrecedence: precedence, protos: protos}
	p.base = newBase(lexer.New(source), source, file)
	return p
}

// Precedence returns the operator-precedence table as mutated by any
// `binary <op> [prec]` prototypes parsed so far, for a caller that wants
// to carry it into a follow-up ExprParser via NewExprResuming.
func (p *ExprParser) Precedence() map[string]int { return p.binopPrecedence }

// Protos returns the accumulated prototype table (including `extern`
// declarations), for the same resumption purpose as Precedence.
func (p *ExprParser) Protos() map[string]*ast.Prototype { return p.protos }

// AtEOF reports whether the token stream is exhausted.
func (p *ExprParser) AtEOF() bool { return p.cur.Kind == token.EOF }

// ParseNextItem parses one top-level item: ';' is skipped and reported as
// "no item", 'def' parses a function definition, 'extern' records a
// prototype, and anything else is parsed as a bare expression wrapped in
// a synthetic "__anon_expr" function. On a parse error the offending
// token is consumed and nil is returned, so a failed item never blocks
// the items after it.
func (p *ExprParser) ParseNextItem() ast.TopLevel {
	if p.cur.Kind == token.SEMI {
		p.advance()
		return nil
	}
	switch p.cur.Kind {
	case token.DEF:
		if fd := p.parseDefinition(); fd != nil {
			return fd
		}
		return nil
	case token.EXTERN:
		if ext := p.parseExternDecl(); ext != nil {
			return ext
		}
		return nil
	default:
		return p.parseTopLevelExpr()
	}
}

func (p *ExprParser) parsePrototype() *ast.Prototype {
	pos := p.cur.Pos
	kind := ast.OpKindID
	var opSym string

	switch p.cur.Kind {
	case token.UNARY:
		p.advance()
		kind = ast.OpKindUnary
		opSym = p.consumeOperatorSymbol()
	case token.BINARY:
		p.advance()
		kind = ast.OpKindBinary
		opSym = p.consumeOperatorSymbol()
	}

	var name string
	if kind != ast.OpKindID {
		name = "unary" + opSym
		if kind == ast.OpKindBinary {
			name = "binary" + opSym
		}
	} else {
		nt, ok := p.expect(token.SYMBOL)
		if !ok {
			return nil
		}
		name = nt.Lexeme
	}

	precedence := 30
	if kind == ast.OpKindBinary && p.cur.Kind == token.INT {
		precedence = int(parseInt(p.cur.Lexeme))
		p.advance()
	}

	p.expect(token.LPAREN)
	var params []ast.Param
	for p.cur.Kind == token.SYMBOL {
		params = append(params, ast.Param{Name: p.cur.Lexeme, Typ: types.Float})
		p.advance()
	}
	p.expect(token.RPAREN)

	proto := &ast.Prototype{Position: pos, Name: name, Params: params, Kind: kind, Precedence: precedence}
	if kind == ast.OpKindBinary {
		p.binopPrecedence[opSym] = precedence
	}
	p.protos[name] = proto
	return proto
}

// consumeOperatorSymbol accepts the current token as an operator symbol
// regardless of its lexical kind: Kaleidoscope lets "binary"/"unary"
// declarations name any punctuation character, including ones that are
// otherwise reserved (":") or that the lexer otherwise cannot classify.
func (p *ExprParser) consumeOperatorSymbol() string {
	sym := p.cur.Lexeme
	if sym == "" {
		sym = p.cur.Kind.String()
	}
	p.advance()
	return sym
}

func (p *ExprParser) parseDefinition() *ast.FunctionDef {
	pos := p.cur.Pos
	p.advance() // 'def'
	proto := p.parsePrototype()
	if proto == nil {
		p.recoverItem()
		return nil
	}
	body := p.parseExpression()
	return &ast.FunctionDef{Position: pos, Name: proto.Name, Params: proto.Params, BodyExpr: body, ReturnType: types.Float, Proto: proto}
}

func (p *ExprParser) parseExternDecl() *ast.Extern {
	pos := p.cur.Pos
	p.advance() // 'extern'
	proto := p.parsePrototype()
	if proto == nil {
		p.recoverItem()
		return nil
	}
	return &ast.Extern{Position: pos, Proto: proto}
}

func (p *ExprParser) parseTopLevelExpr() *ast.TopLevelExpr {
	pos := p.cur.Pos
	e := p.parseExpression()
	proto := &ast.Prototype{Name: ast.AnonFuncName}
	p.protos[ast.AnonFuncName] = proto
	return &ast.TopLevelExpr{Position: pos, Expr: e}
}

// recoverItem implements the REPL's "on any parse error, consume one
// token and continue" policy.
func (p *ExprParser) recoverItem() {
	if p.cur.Kind != token.EOF {
		p.advance()
	}
}

func (p *ExprParser) parseExpression() ast.Expr {
	lhs := p.parseUnary()
	return p.parseBinOpRHS(0, lhs)
}

// parseBinOpRHS is the classic Kaleidoscope precedence-climbing loop:
// consume operators whose precedence is >= exprPrec, recursing to bind
// tighter-or-equal-precedence chains on the right before folding in a
// looser one.
func (p *ExprParser) parseBinOpRHS(exprPrec int, lhs ast.Expr) ast.Expr {
	for {
		tokPrec := p.tokPrecedence()
		if tokPrec < exprPrec {
			return lhs
		}
		opPos := p.cur.Pos
		opSym := p.cur.Lexeme
		p.advance()

		rhs := p.parseUnary()

		nextPrec := p.tokPrecedence()
		if tokPrec < nextPrec {
			rhs = p.parseBinOpRHS(tokPrec+1, rhs)
		}

		lhs = p.mkBinary(opPos, opSym, lhs, rhs)
	}
}

func (p *ExprParser) tokPrecedence() int {
	sym := p.cur.Lexeme
	if sym == "" {
		return -1
	}
	if prec, ok := p.binopPrecedence[sym]; ok {
		return prec
	}
	return -1
}

func (p *ExprParser) mkBinary(pos token.Position, opSym string, lhs, rhs ast.Expr) ast.Expr {
	if opSym == "=" {
		v, ok := lhs.(*ast.Var)
		if !ok {
			p.errorf(errors.StageType, pos, "destination of '=' must be a variable")
			return &ast.Binary{Position: pos, Op: ast.OpAssign, Lhs: lhs, Rhs: rhs, Typ: types.Float}
		}
		return &ast.Binary{Position: pos, Op: ast.OpAssign, Lhs: v, Rhs: rhs, Typ: types.Float}
	}
	if op, ok := builtinBinaryOp(opSym); ok {
		return &ast.Binary{Position: pos, Op: op, Lhs: lhs, Rhs: rhs, Typ: types.Float}
	}
	// Unknown operator: resolved at codegen time as a call to a
	// user-defined "binary<op>" function.
	return &ast.Binary{Position: pos, Op: "", UserOp: opSym, Lhs: lhs, Rhs: rhs, Typ: types.Float}
}

func builtinBinaryOp(sym string) (ast.BinaryOp, bool) {
	switch sym {
	case "+":
		return ast.OpAdd, true
	case "-":
		return ast.OpSub, true
	case "*":
		return ast.OpMul, true
	case "<":
		return ast.OpLt, true
	default:
		return "", false
	}
}

func (p *ExprParser) parseUnary() ast.Expr {
	if !p.looksLikeUnaryOperator() {
		return p.parsePrimary()
	}
	pos := p.cur.Pos
	opSym := p.consumeOperatorSymbol()
	operand := p.parseUnary()
	return &ast.Unary{Position: pos, UserOp: opSym, Sub: operand, Typ: types.Float}
}

// looksLikeUnaryOperator mirrors Kaleidoscope's ParseUnary: any token that
// is not '(' and does not start a primary expression is treated as a
// user-defined unary operator prefix.
func (p *ExprParser) looksLikeUnaryOperator() bool {
	switch p.cur.Kind {
	case token.LPAREN, token.SYMBOL, token.INT, token.FLOAT, token.IF, token.FOR, token.VAR, token.MINUS:
		return false
	case token.EOF, token.RPAREN, token.COMMA:
		return false
	default:
		return p.cur.Lexeme != ""
	}
}

func (p *ExprParser) parsePrimary() ast.Expr {
	pos := p.cur.Pos
	switch p.cur.Kind {
	case token.INT:
		v := p.cur.Lexeme
		p.advance()
		f, _ := strconv.ParseFloat(v, 32)
		return &ast.FloatLit{Position: pos, Value: float32(f)}
	case token.FLOAT:
		v := p.cur.Lexeme
		p.advance()
		f, _ := strconv.ParseFloat(v, 32)
		return &ast.FloatLit{Position: pos, Value: float32(f)}
	case token.MINUS:
		// Leading '-' before a primary is the built-in unary negation.
		p.advance()
		operand := p.parseUnary()
		return &ast.Unary{Position: pos, Op: ast.UnaryNeg, Sub: operand, Typ: types.Float}
	case token.LPAREN:
		p.advance()
		e := p.parseExpression()
		p.expect(token.RPAREN)
		return e
	case token.SYMBOL:
		name := p.cur.Lexeme
		p.advance()
		if p.cur.Kind != token.LPAREN {
			return &ast.Var{Position: pos, Name: name, Typ: types.Float}
		}
		p.advance()
		var args []ast.Expr
		for p.cur.Kind != token.RPAREN && p.cur.Kind != token.EOF {
			args = append(args, p.parseExpression())
			if p.cur.Kind == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RPAREN)
		return &ast.Call{Position: pos, Callee: name, Args: args, ReturnType: types.Float}
	case token.IF:
		return p.parseIfExpr()
	case token.FOR:
		return p.parseForExpr()
	case token.VAR:
		return p.parseVarExpr()
	default:
		p.errorf(errors.StageParse, pos, "%s", errors.Expected(pos, "expression", describe(p.cur)))
		p.advance()
		return &ast.FloatLit{Position: pos, Value: 0}
	}
}

func (p *ExprParser) parseIfExpr() ast.Expr {
	pos := p.cur.Pos
	p.advance() // 'if'
	cond := p.parseExpression()
	p.expect(token.THEN)
	then := p.parseExpression()
	p.expect(token.ELSE)
	els := p.parseExpression()
	return &ast.IfExpr{Position: pos, Cond: cond, Then: then, Else: els}
}

func (p *ExprParser) parseForExpr() ast.Expr {
	pos := p.cur.Pos
	p.advance() // 'for'
	name, ok := p.expect(token.SYMBOL)
	if !ok {
		return &ast.FloatLit{Position: pos}
	}
	p.expect(token.ASSIGN)
	start := p.parseExpression()
	p.expect(token.COMMA)
	end := p.parseExpression()
	var step ast.Expr
	if p.cur.Kind == token.COMMA {
		p.advance()
		step = p.parseExpression()
	}
	p.expect(token.IN)
	body := p.parseExpression()
	return &ast.ForExpr{Position: pos, Var: name.Lexeme, Start: start, End: end, Step: step, Body: body}
}

func (p *ExprParser) parseVarExpr() ast.Expr {
	pos := p.cur.Pos
	p.advance() // 'var'
	if p.cur.IsType() {
		p.advance() // the typed dialect's type keyword is accepted but
		// unused here: every expression-dialect value is a double.
	}
	var bindings []ast.VarBinding
	for {
		name, ok := p.expect(token.SYMBOL)
		if !ok {
			break
		}
		var init ast.Expr
		if p.cur.Kind == token.ASSIGN {
			p.advance()
			init = p.parseExpression()
		}
		bindings = append(bindings, ast.VarBinding{Name: name.Lexeme, Init: init})
		if p.cur.Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.IN)
	body := p.parseExpression()
	return &ast.VarExpr{Position: pos, Bindings: bindings, Body: body}
}
