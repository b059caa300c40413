package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/parser"
	"github.com/pudl-lang/pudlc/internal/types"
)

func parseTyped(t *testing.T, source string) (*ast.Program, *parser.TypedParser) {
	t.Helper()
	p := parser.NewTyped(source, "<test>")
	return p.ParseProgram(), p
}

func onlyFunc(t *testing.T, prog *ast.Program) *ast.FunctionDef {
	t.Helper()
	require.Len(t, prog.Items, 1)
	fd, ok := prog.Items[0].(*ast.FunctionDef)
	require.True(t, ok)
	return fd
}

func returnExpr(t *testing.T, fd *ast.FunctionDef) ast.Expr {
	t.Helper()
	blk, ok := fd.Body.(*ast.Block)
	require.True(t, ok)
	require.NotEmpty(t, blk.Stmts)
	ret, ok := blk.Stmts[len(blk.Stmts)-1].(*ast.Return)
	require.True(t, ok)
	return ret.Sub
}

func TestTypedParse_MulBindsTighterThanAdd(t *testing.T) {
	prog, p := parseTyped(t, `func mast(): int { return 1 + 2 * 3; }`)
	require.Empty(t, p.Errors())
	require.Equal(t, "(1 + (2 * 3))", returnExpr(t, onlyFunc(t, prog)).String())
}

func TestTypedParse_ComparisonYieldsBool(t *testing.T) {
	prog, p := parseTyped(t, `func f(int n): bool { return n < 10; }`)
	require.Empty(t, p.Errors())
	require.Equal(t, types.Bool, returnExpr(t, onlyFunc(t, prog)).Type())
}

func TestTypedParse_NumericPromotionToFloat(t *testing.T) {
	prog, p := parseTyped(t, `func f(float x): float { return x + 1; }`)
	require.Empty(t, p.Errors())
	require.Equal(t, types.Float, returnExpr(t, onlyFunc(t, prog)).Type())
}

func TestTypedParse_IntOperandsStayInteger(t *testing.T) {
	prog, p := parseTyped(t, `func f(int a, int b): int { return a + b; }`)
	require.Empty(t, p.Errors())
	require.Equal(t, types.Integer, returnExpr(t, onlyFunc(t, prog)).Type())
}

func TestTypedParse_BoolDeclarationRejectsNumericInitializer(t *testing.T) {
	// The diagnostic must mention the bool/number mismatch and carry
	// line 1.
	_, p := parseTyped(t, `func mast(): int { bool b = 1 + 2; return 0; }`)
	errs := p.Errors()
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0].Message, "bool")
	require.Equal(t, 1, errs[0].Pos.Line)
}

func TestTypedParse_ArithmeticRejectsBool(t *testing.T) {
	_, p := parseTyped(t, `func mast(): int { int x = True + 1; return x; }`)
	require.NotEmpty(t, p.Errors())
	require.Contains(t, p.Errors()[0].Message, "bool")
}

func TestTypedParse_LogicalOperatorsRequireBool(t *testing.T) {
	_, p := parseTyped(t, `func mast(): bool { return 1 && 2; }`)
	require.NotEmpty(t, p.Errors())
	require.Contains(t, p.Errors()[0].Message, "bool")
}

func TestTypedParse_OrderingRejectsBool(t *testing.T) {
	_, p := parseTyped(t, `func mast(): bool { return True < False; }`)
	require.NotEmpty(t, p.Errors())
}

func TestTypedParse_ConditionMustBeBool(t *testing.T) {
	_, p := parseTyped(t, `func mast(): int { if 1 { return 1; } return 0; }`)
	require.NotEmpty(t, p.Errors())
	require.Contains(t, p.Errors()[0].Message, "condition must be bool")
}

func TestTypedParse_UndeclaredVariableReported(t *testing.T) {
	_, p := parseTyped(t, `func mast(): int { return nope; }`)
	require.NotEmpty(t, p.Errors())
	require.Contains(t, p.Errors()[0].Message, "Can't find variable nope")
}

func TestTypedParse_CallArityChecked(t *testing.T) {
	src := `
	func helper(int a, int b): int { return a + b; }
	func mast(): int { return helper(1); }
	`
	_, p := parseTyped(t, src)
	require.NotEmpty(t, p.Errors())
	require.Contains(t, p.Errors()[0].Message, "expects 2 argument(s), got 1")
}

func TestTypedParse_ForwardCallResolvesViaPrescan(t *testing.T) {
	src := `
	func mast(): int { return later(2); }
	func later(int n): int { return n; }
	`
	prog, p := parseTyped(t, src)
	require.Empty(t, p.Errors())
	call, ok := returnExpr(t, prog.Items[0].(*ast.FunctionDef)).(*ast.Call)
	require.True(t, ok)
	require.Equal(t, types.Integer, call.ReturnType)
}

func TestTypedParse_ParameterShadowingScopeResetsPerFunction(t *testing.T) {
	src := `
	func a(int x): int { return x; }
	func b(): int { return x; }
	`
	_, p := parseTyped(t, src)
	require.NotEmpty(t, p.Errors(), "x from a must not leak into b's scope")
}

func TestTypedParse_RecoversAtNextTopLevelKeyword(t *testing.T) {
	src := `
	garbage tokens here ;
	func mast(): int { return 1; }
	`
	prog, p := parseTyped(t, src)
	require.NotEmpty(t, p.Errors())
	require.Len(t, prog.Items, 1, "the func after the bad item still parses")
	require.Contains(t, p.Errors()[0].Message, "expected func")
}

func TestTypedParse_ExpectedMessageFormat(t *testing.T) {
	_, p := parseTyped(t, "func 9(): int { return 0; }")
	require.NotEmpty(t, p.Errors())
	require.Contains(t, p.Errors()[0].Message, "expected SYMBOL at (1:6) but given")
}

func TestTypedParse_BareCallStatementBecomesExprStmt(t *testing.T) {
	src := `
	func noise(): int { return 0; }
	func mast(): int { noise(); return 0; }
	`
	prog, p := parseTyped(t, src)
	require.Empty(t, p.Errors())
	blk := prog.Items[1].(*ast.FunctionDef).Body.(*ast.Block)
	_, ok := blk.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok, "a bare call statement must be kept, not dropped")
}

func TestTypedParse_EveryExpressionCarriesDefinedType(t *testing.T) {
	src := `func mast(float f): int {
		int i = 3;
		float g = f * 2.0 + i;
		if g < 10.0 { print g; }
		return i;
	}`
	prog, p := parseTyped(t, src)
	require.Empty(t, p.Errors())
	walkExprs(t, onlyFunc(t, prog).Body, func(e ast.Expr) {
		require.NotEqual(t, types.Undefined, e.Type(), "expression %s", e)
	})
}

func walkExprs(t *testing.T, s ast.Stmt, visit func(ast.Expr)) {
	t.Helper()
	var expr func(ast.Expr)
	expr = func(e ast.Expr) {
		visit(e)
		switch n := e.(type) {
		case *ast.Unary:
			expr(n.Sub)
		case *ast.Binary:
			expr(n.Lhs)
			expr(n.Rhs)
		case *ast.Call:
			for _, a := range n.Args {
				expr(a)
			}
		}
	}
	var stmt func(ast.Stmt)
	stmt = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.Block:
			for _, st := range n.Stmts {
				stmt(st)
			}
		case *ast.Decl:
			expr(n.Value)
		case *ast.Assign:
			expr(n.Value)
		case *ast.If:
			expr(n.Cond)
			stmt(n.Then)
			if n.Else != nil {
				stmt(n.Else)
			}
		case *ast.While:
			expr(n.Cond)
			stmt(n.Body)
		case *ast.DoWhile:
			stmt(n.Body)
			expr(n.Cond)
		case *ast.Print:
			expr(n.Sub)
		case *ast.Return:
			expr(n.Sub)
		case *ast.ExprStmt:
			expr(n.Sub)
		}
	}
	stmt(s)
}
