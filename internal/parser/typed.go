package parser

import (
	"strconv"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/errors"
	"github.com/pudl-lang/pudlc/internal/lexer"
	"github.com/pudl-lang/pudlc/internal/token"
	"github.com/pudl-lang/pudlc/internal/types"
)

// TypedParser parses the C-like typed statement dialect. Variable
// references are resolved to a type at parse time, so every ast.Var the
// parser builds already carries its static Type.
type TypedParser struct {
	base

	// scope is the current function's name->Var table. The typed dialect
	// has one scope per function (no block scoping), reset at each
	// function-def boundary.
	scope map[string]*ast.Var

	// funcs is the module-level function signature table, populated by a
	// pre-scan of the source before any body is parsed, so that forward
	// calls type-check.
	funcs map[string]*ast.FunctionDef
}

// NewTyped creates a TypedParser. source and file are kept for error
// rendering only.
func NewTyped(source, file string) *TypedParser {
	p := &TypedParser{funcs: make(map[string]*ast.FunctionDef)}
	p.source = source
	p.file = file
	p.prescanSignatures(source)
	p.base = newBase(lexer.New(source), source, file)
	return p
}

// prescanSignatures runs a throwaway lexer over the whole source purely to
// harvest "func NAME(params): TYPE" headers, skipping every other token
// until the next `func` keyword, so that the function table is complete
// before any call site is type-checked.
func (p *TypedParser) prescanSignatures(source string) {
	l := lexer.New(source)
	for {
		t := l.Lex()
		if t.Kind == token.EOF {
			return
		}
		if t.Kind != token.FUNC {
			continue
		}
		nameTok := l.Lex()
		if nameTok.Kind != token.SYMBOL {
			continue
		}
		var params []ast.Param
		if peek := l.Lex(); peek.Kind == token.LPAREN {
			for {
				tp := l.Lex()
				if tp.Kind == token.RPAREN {
					break
				}
				if !tp.IsType() {
					continue
				}
				nm := l.Lex()
				params = append(params, ast.Param{Name: nm.Lexeme, Typ: typeKeyword(tp.Kind)})
				if c := l.Lex(); c.Kind == token.RPAREN {
					break
				}
			}
		} else {
			l.Unlex(peek)
		}
		var ret types.Type
		if _, ok := p.consumeOpt(l, token.COLON); ok {
			rt := l.Lex()
			ret = typeKeyword(rt.Kind)
		}
		p.funcs[nameTok.Lexeme] = &ast.FunctionDef{Name: nameTok.Lexeme, Params: params, ReturnType: ret}
	}
}

func (p *TypedParser) consumeOpt(l *lexer.Lexer, k token.Type) (token.Token, bool) {
	t := l.Lex()
	if t.Kind == k {
		return t, true
	}
	l.Unlex(t)
	return token.Token{}, false
}

func typeKeyword(k token.Type) types.Type {
	switch k {
	case token.TYPE_INT:
		return types.Integer
	case token.TYPE_FLOAT:
		return types.Float
	case token.TYPE_BOOL:
		return types.Bool
	default:
		return types.Undefined
	}
}

// ParseProgram parses the whole translation unit: zero or more function
// definitions (unit := function-def*).
func (p *TypedParser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for p.cur.Kind != token.EOF {
		if p.cur.Kind != token.FUNC {
			p.errorf(errors.StageParse, p.cur.Pos, "%s", errors.Expected(p.cur.Pos, "func", describe(p.cur)))
			p.recoverToTopLevel()
			continue
		}
		fn := p.parseFunctionDef()
		if fn != nil {
			prog.Items = append(prog.Items, fn)
		}
	}
	return prog
}

// recoverToTopLevel skips the offending token and resumes at the next
// top-level keyword or ';'.
func (p *TypedParser) recoverToTopLevel() {
	for p.cur.Kind != token.EOF && p.cur.Kind != token.FUNC && p.cur.Kind != token.SEMI {
		p.advance()
	}
	if p.cur.Kind == token.SEMI {
		p.advance()
	}
}

func (p *TypedParser) parseFunctionDef() *ast.FunctionDef {
	pos := p.cur.Pos
	p.advance() // 'func'
	name, ok := p.expect(token.SYMBOL)
	if !ok {
		p.recoverToTopLevel()
		return nil
	}

	var params []ast.Param
	if p.cur.Kind == token.LPAREN {
		p.advance()
		for p.cur.Kind != token.RPAREN {
			if !p.cur.IsType() {
				p.errorf(errors.StageParse, p.cur.Pos, "%s", errors.Expected(p.cur.Pos, "parameter type", describe(p.cur)))
				break
			}
			typ := typeKeyword(p.cur.Kind)
			p.advance()
			pname, ok := p.expect(token.SYMBOL)
			if !ok {
				break
			}
			params = append(params, ast.Param{Name: pname.Lexeme, Typ: typ})
			if p.cur.Kind == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		p.expect(token.RPAREN)
	}

	var ret types.Type
	if p.cur.Kind == token.COLON {
		p.advance()
		if !p.cur.IsType() {
			p.errorf(errors.StageParse, p.cur.Pos, "%s", errors.Expected(p.cur.Pos, "return type", describe(p.cur)))
		} else {
			ret = typeKeyword(p.cur.Kind)
			p.advance()
		}
	}

	// Reset the function-wide scope and seed it with parameters.
	p.scope = make(map[string]*ast.Var)
	for _, prm := range params {
		p.scope[prm.Name] = &ast.Var{Name: prm.Name, Typ: prm.Typ}
	}

	body := p.parseStatement()

	fn := &ast.FunctionDef{Position: pos, Name: name.Lexeme, Params: params, Body: body, ReturnType: ret}
	p.funcs[name.Lexeme] = fn
	return fn
}

func (p *TypedParser) parseStatement() ast.Stmt {
	switch p.cur.Kind {
	case token.LBRACE:
		return p.parseBlock()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.DO:
		return p.parseDoWhile()
	case token.PRINT:
		return p.parsePrint()
	case token.RETURN:
		return p.parseReturn()
	case token.TYPE_INT, token.TYPE_FLOAT, token.TYPE_BOOL:
		return p.parseDeclaration()
	case token.SYMBOL:
		return p.parseAssignOrCall()
	default:
		p.errorf(errors.StageParse, p.cur.Pos, "%s", errors.Expected(p.cur.Pos, "statement", describe(p.cur)))
		p.advance()
		return &ast.Block{}
	}
}

func (p *TypedParser) parseBlock() *ast.Block {
	pos := p.cur.Pos
	p.advance() // '{'
	blk := &ast.Block{Position: pos}
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		blk.Stmts = append(blk.Stmts, p.parseStatement())
	}
	p.expect(token.RBRACE)
	return blk
}

func (p *TypedParser) parseIf() *ast.If {
	pos := p.cur.Pos
	p.advance() // 'if'
	cond := p.parseExpression()
	p.checkCondType(cond)
	then := p.parseStatement()
	var els ast.Stmt
	if p.cur.Kind == token.ELSE {
		p.advance()
		els = p.parseStatement()
	}
	return &ast.If{Position: pos, Cond: cond, Then: then, Else: els}
}

func (p *TypedParser) parseWhile() *ast.While {
	pos := p.cur.Pos
	p.advance() // 'while'
	cond := p.parseExpression()
	p.checkCondType(cond)
	body := p.parseStatement()
	return &ast.While{Position: pos, Cond: cond, Body: body}
}

func (p *TypedParser) parseDoWhile() *ast.DoWhile {
	pos := p.cur.Pos
	p.advance() // 'do'
	body := p.parseStatement()
	p.expect(token.WHILE)
	cond := p.parseExpression()
	p.checkCondType(cond)
	p.optionalSemi()
	return &ast.DoWhile{Position: pos, Body: body, Cond: cond}
}

func (p *TypedParser) parsePrint() *ast.Print {
	pos := p.cur.Pos
	p.advance() // 'print'
	e := p.parseExpression()
	p.optionalSemi()
	return &ast.Print{Position: pos, Sub: e}
}

func (p *TypedParser) parseReturn() *ast.Return {
	pos := p.cur.Pos
	p.advance() // 'return'
	e := p.parseExpression()
	p.optionalSemi()
	return &ast.Return{Position: pos, Sub: e}
}

func (p *TypedParser) parseDeclaration() ast.Stmt {
	pos := p.cur.Pos
	typ := typeKeyword(p.cur.Kind)
	p.advance()
	name, ok := p.expect(token.SYMBOL)
	if !ok {
		return &ast.Block{}
	}
	p.expect(token.ASSIGN)
	rhs := p.parseExpression()
	p.checkAssignCompat(typ, rhs, pos)
	p.optionalSemi()

	v := &ast.Var{Position: pos, Name: name.Lexeme, Typ: typ}
	p.scope[name.Lexeme] = v
	return &ast.Decl{Position: pos, Target: v, Value: rhs}
}

func (p *TypedParser) parseAssignOrCall() ast.Stmt {
	pos := p.cur.Pos
	name := p.cur
	p.advance()
	if p.cur.Kind == token.LPAREN {
		call := p.parseCallTail(pos, name.Lexeme)
		p.optionalSemi()
		return &ast.ExprStmt{Position: pos, Sub: call}
	}

	p.expect(token.ASSIGN)
	rhs := p.parseExpression()

	v, ok := p.scope[name.Lexeme]
	if !ok {
		p.errorf(errors.StageType, pos, "Can't find variable %s", name.Lexeme)
		v = &ast.Var{Position: pos, Name: name.Lexeme, Typ: rhs.Type()}
	} else {
		p.checkAssignCompat(v.Typ, rhs, pos)
	}
	p.optionalSemi()
	return &ast.Assign{Position: pos, Target: v, Value: rhs}
}

func (p *TypedParser) optionalSemi() {
	if p.cur.Kind == token.SEMI {
		p.advance()
	}
}

func (p *TypedParser) checkCondType(e ast.Expr) {
	if e.Type() != types.Bool {
		p.errorf(errors.StageType, e.Pos(), "condition must be bool, got %s", e.Type())
	}
}

func (p *TypedParser) checkAssignCompat(target types.Type, value ast.Expr, pos token.Position) {
	if target == types.Bool && value.Type() != types.Bool {
		p.errorf(errors.StageType, pos, "cannot assign %s to bool", value.Type())
	} else if target != types.Bool && value.Type() == types.Bool {
		p.errorf(errors.StageType, pos, "cannot assign bool to %s", target)
	}
}

// ---- Expressions: recursive-descent precedence ladder. ----

func (p *TypedParser) parseExpression() ast.Expr { return p.parseLor() }

func (p *TypedParser) parseLor() ast.Expr {
	lhs := p.parseLand()
	if p.cur.Kind == token.LOR {
		pos := p.cur.Pos
		p.advance()
		rhs := p.parseLor()
		return p.mkLogical(pos, ast.OpOr, lhs, rhs)
	}
	return lhs
}

func (p *TypedParser) parseLand() ast.Expr {
	lhs := p.parseCmpEq()
	if p.cur.Kind == token.LAND {
		pos := p.cur.Pos
		p.advance()
		rhs := p.parseLand()
		return p.mkLogical(pos, ast.OpAnd, lhs, rhs)
	}
	return lhs
}

func (p *TypedParser) parseCmpEq() ast.Expr {
	lhs := p.parseCmp()
	if p.cur.Kind == token.EQ || p.cur.Kind == token.NE {
		op := ast.OpEq
		if p.cur.Kind == token.NE {
			op = ast.OpNe
		}
		pos := p.cur.Pos
		p.advance()
		rhs := p.parseCmpEq()
		return p.mkEquality(pos, op, lhs, rhs)
	}
	return lhs
}

func (p *TypedParser) parseCmp() ast.Expr {
	lhs := p.parseAdd()
	switch p.cur.Kind {
	case token.LT, token.GT, token.LE, token.GE:
		op := relOp(p.cur.Kind)
		pos := p.cur.Pos
		p.advance()
		rhs := p.parseCmp()
		return p.mkRelational(pos, op, lhs, rhs)
	}
	return lhs
}

func relOp(k token.Type) ast.BinaryOp {
	switch k {
	case token.LT:
		return ast.OpLt
	case token.GT:
		return ast.OpGt
	case token.LE:
		return ast.OpLe
	default:
		return ast.OpGe
	}
}

func (p *TypedParser) parseAdd() ast.Expr {
	lhs := p.parseMul()
	for p.cur.Kind == token.PLUS || p.cur.Kind == token.MINUS {
		op := ast.OpAdd
		if p.cur.Kind == token.MINUS {
			op = ast.OpSub
		}
		pos := p.cur.Pos
		p.advance()
		rhs := p.parseAddRHS()
		lhs = p.mkArith(pos, op, lhs, rhs)
	}
	return lhs
}

// parseAddRHS parses one mul-level operand for a "+"/"-" chain.
// parseAdd loops at this tier so repeated "+"/"-" associate left to
// right ("a - b - c" groups as "(a - b) - c"), the conventional
// grouping for arithmetic.
func (p *TypedParser) parseAddRHS() ast.Expr { return p.parseMul() }

func (p *TypedParser) parseMul() ast.Expr {
	lhs := p.parseUnary()
	for p.cur.Kind == token.STAR || p.cur.Kind == token.SLASH {
		op := ast.OpMul
		if p.cur.Kind == token.SLASH {
			op = ast.OpDiv
		}
		pos := p.cur.Pos
		p.advance()
		rhs := p.parseUnary()
		lhs = p.mkArith(pos, op, lhs, rhs)
	}
	return lhs
}

func (p *TypedParser) parseUnary() ast.Expr {
	switch p.cur.Kind {
	case token.MINUS:
		pos := p.cur.Pos
		p.advance()
		sub := p.parseUnary()
		if sub.Type() == types.Bool {
			p.errorf(errors.StageType, pos, "unary - requires a number, got bool")
		}
		return &ast.Unary{Position: pos, Op: ast.UnaryNeg, Sub: sub, Typ: sub.Type()}
	case token.LNOT:
		pos := p.cur.Pos
		p.advance()
		sub := p.parseUnary()
		if sub.Type() != types.Bool {
			p.errorf(errors.StageType, pos, "! requires bool, got %s", sub.Type())
		}
		return &ast.Unary{Position: pos, Op: ast.UnaryNot, Sub: sub, Typ: types.Bool}
	default:
		return p.parseFactor()
	}
}

func (p *TypedParser) parseFactor() ast.Expr {
	pos := p.cur.Pos
	switch p.cur.Kind {
	case token.LPAREN:
		p.advance()
		e := p.parseExpression()
		p.expect(token.RPAREN)
		return e
	case token.INT:
		v := p.cur
		p.advance()
		return &ast.IntLit{Position: pos, Value: parseInt(v.Lexeme)}
	case token.FLOAT:
		v := p.cur
		p.advance()
		return &ast.FloatLit{Position: pos, Value: parseFloat(v.Lexeme)}
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Position: pos, Value: true}
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Position: pos, Value: false}
	case token.SYMBOL:
		name := p.cur.Lexeme
		p.advance()
		if p.cur.Kind == token.LPAREN {
			return p.parseCallTail(pos, name)
		}
		v, ok := p.scope[name]
		if !ok {
			p.errorf(errors.StageType, pos, "Can't find variable %s", name)
			return &ast.Var{Position: pos, Name: name, Typ: types.Undefined}
		}
		return &ast.Var{Position: pos, Name: name, Typ: v.Typ}
	default:
		p.errorf(errors.StageParse, pos, "%s", errors.Expected(pos, "expression", describe(p.cur)))
		p.advance()
		return &ast.IntLit{Position: pos, Value: 0}
	}
}

func (p *TypedParser) parseCallTail(pos token.Position, name string) ast.Expr {
	p.advance() // '('
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

	sig, ok := p.funcs[name]
	if !ok {
		p.errorf(errors.StageType, pos, "call to undeclared function %s", name)
		return &ast.Call{Position: pos, Callee: name, Args: args, ReturnType: types.Undefined}
	}
	if len(args) != len(sig.Params) {
		p.errorf(errors.StageType, pos, "%s expects %d argument(s), got %d", name, len(sig.Params), len(args))
	}
	return &ast.Call{Position: pos, Callee: name, Args: args, ReturnType: sig.ReturnType}
}

func (p *TypedParser) mkArith(pos token.Position, op ast.BinaryOp, lhs, rhs ast.Expr) ast.Expr {
	if lhs.Type() == types.Bool || rhs.Type() == types.Bool {
		p.errorf(errors.StageType, pos, "arithmetic operator %s does not accept bool", op)
	}
	return &ast.Binary{Position: pos, Op: op, Lhs: lhs, Rhs: rhs, Typ: types.Promote(lhs.Type(), rhs.Type())}
}

func (p *TypedParser) mkRelational(pos token.Position, op ast.BinaryOp, lhs, rhs ast.Expr) ast.Expr {
	if lhs.Type() == types.Bool || rhs.Type() == types.Bool {
		p.errorf(errors.StageType, pos, "comparison operator %s does not accept bool", op)
	}
	return &ast.Binary{Position: pos, Op: op, Lhs: lhs, Rhs: rhs, Typ: types.Bool}
}

func (p *TypedParser) mkEquality(pos token.Position, op ast.BinaryOp, lhs, rhs ast.Expr) ast.Expr {
	return &ast.Binary{Position: pos, Op: op, Lhs: lhs, Rhs: rhs, Typ: types.Bool}
}

func (p *TypedParser) mkLogical(pos token.Position, op ast.BinaryOp, lhs, rhs ast.Expr) ast.Expr {
	if lhs.Type() != types.Bool || rhs.Type() != types.Bool {
		p.errorf(errors.StageType, pos, "logical operator %s requires bool operands", op)
	}
	return &ast.Binary{Position: pos, Op: op, Lhs: lhs, Rhs: rhs, Typ: types.Bool}
}

func parseInt(s string) int32 {
	v, _ := strconv.ParseInt(s, 10, 32)
	return int32(v)
}

func parseFloat(s string) float32 {
	v, _ := strconv.ParseFloat(s, 32)
	return float32(v)
}
