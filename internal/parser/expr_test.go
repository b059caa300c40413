package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/parser"
)

func parseItems(t *testing.T, source string) ([]ast.TopLevel, *parser.ExprParser) {
	t.Helper()
	p := parser.NewExpr(source, "<test>")
	var items []ast.TopLevel
	for !p.AtEOF() {
		if item := p.ParseNextItem(); item != nil {
			items = append(items, item)
		}
	}
	return items, p
}

func TestExprParse_DefExternAndBareExpression(t *testing.T) {
	items, p := parseItems(t, `def id(x) x; extern printd(v); id(4);`)
	require.Empty(t, p.Errors())
	require.Len(t, items, 3)

	fd, ok := items[0].(*ast.FunctionDef)
	require.True(t, ok)
	require.Equal(t, "id", fd.Name)
	require.Len(t, fd.Params, 1)

	ext, ok := items[1].(*ast.Extern)
	require.True(t, ok)
	require.Equal(t, "printd", ext.Proto.Name)

	_, ok = items[2].(*ast.TopLevelExpr)
	require.True(t, ok)
}

func TestExprParse_DefaultPrecedenceClimb(t *testing.T) {
	items, p := parseItems(t, `a + b * c;`)
	require.Empty(t, p.Errors())
	require.Equal(t, "(a + (b * c))", items[0].String())
}

func TestExprParse_EqualPrecedenceFoldsLeft(t *testing.T) {
	items, p := parseItems(t, `a - b + c;`)
	require.Empty(t, p.Errors())
	// Equal precedence folds as the climb consumes: (a - b) first.
	require.Equal(t, "((a - b) + c)", items[0].String())
}

func TestExprParse_BinaryPrototypeInstallsPrecedence(t *testing.T) {
	items, p := parseItems(t, `def binary : 1 (x y) y; a : b + c;`)
	require.Empty(t, p.Errors())
	require.Len(t, items, 2)

	fd := items[0].(*ast.FunctionDef)
	require.Equal(t, "binary:", fd.Name)
	require.Equal(t, ast.OpKindBinary, fd.Proto.Kind)
	require.Equal(t, 1, fd.Proto.Precedence)
	require.Equal(t, 1, p.Precedence()[":"])

	// ':' binds looser than '+', so the '+' chain groups on its right.
	require.Equal(t, "(a : (b + c))", items[1].String())
}

func TestExprParse_UnknownOperatorBecomesUserOpNode(t *testing.T) {
	items, p := parseItems(t, `def binary| 5 (a b) a; x | y;`)
	require.Empty(t, p.Errors())
	bin, ok := items[1].(*ast.TopLevelExpr).Expr.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, "|", bin.UserOp)
}

func TestExprParse_UnaryPrototypeAndApplication(t *testing.T) {
	items, p := parseItems(t, `def unary!(v) if v then 0 else 1; !5;`)
	require.Empty(t, p.Errors())

	fd := items[0].(*ast.FunctionDef)
	require.Equal(t, "unary!", fd.Name)
	require.Equal(t, ast.OpKindUnary, fd.Proto.Kind)

	un, ok := items[1].(*ast.TopLevelExpr).Expr.(*ast.Unary)
	require.True(t, ok)
	require.Equal(t, "!", un.UserOp)
}

func TestExprParse_AssignmentTargetMustBeVariable(t *testing.T) {
	_, p := parseItems(t, `1 = 2;`)
	require.NotEmpty(t, p.Errors())
	require.Contains(t, p.Errors()[0].Message, "must be a variable")
}

func TestExprParse_IfThenElse(t *testing.T) {
	items, p := parseItems(t, `if x then 1 else 2;`)
	require.Empty(t, p.Errors())
	ife, ok := items[0].(*ast.TopLevelExpr).Expr.(*ast.IfExpr)
	require.True(t, ok)
	require.NotNil(t, ife.Cond)
	require.NotNil(t, ife.Then)
	require.NotNil(t, ife.Else)
}

func TestExprParse_ForWithOptionalStep(t *testing.T) {
	items, p := parseItems(t, `for i = 1, i < 10 in i; for j = 0, j < 5, 2 in j;`)
	require.Empty(t, p.Errors())

	noStep := items[0].(*ast.TopLevelExpr).Expr.(*ast.ForExpr)
	require.Equal(t, "i", noStep.Var)
	require.Nil(t, noStep.Step)

	withStep := items[1].(*ast.TopLevelExpr).Expr.(*ast.ForExpr)
	require.Equal(t, "j", withStep.Var)
	require.NotNil(t, withStep.Step)
}

func TestExprParse_VarBindingsWithAndWithoutInit(t *testing.T) {
	items, p := parseItems(t, `var a = 1, b in a + b;`)
	require.Empty(t, p.Errors())
	ve, ok := items[0].(*ast.TopLevelExpr).Expr.(*ast.VarExpr)
	require.True(t, ok)
	require.Len(t, ve.Bindings, 2)
	require.NotNil(t, ve.Bindings[0].Init)
	require.Nil(t, ve.Bindings[1].Init)
}

func TestExprParse_IntLiteralsAreDoubles(t *testing.T) {
	items, p := parseItems(t, `42;`)
	require.Empty(t, p.Errors())
	lit, ok := items[0].(*ast.TopLevelExpr).Expr.(*ast.FloatLit)
	require.True(t, ok, "every expression-dialect value is a double")
	require.Equal(t, float32(42), lit.Value)
}

func TestExprParse_ResumingCarriesOperatorTable(t *testing.T) {
	first := parser.NewExpr(`def binary : 1 (x y) y;`, "<line1>")
	for !first.AtEOF() {
		first.ParseNextItem()
	}
	require.Empty(t, first.Errors())

	second := parser.NewExprResuming(`a : b;`, "<line2>", first.Precedence(), first.Protos())
	item := second.ParseNextItem()
	require.Empty(t, second.Errors())
	bin, ok := item.(*ast.TopLevelExpr).Expr.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ":", bin.UserOp)
}

func TestExprParse_UnknownOperatorTerminatesClimb(t *testing.T) {
	// '?' has no installed precedence, so the climb stops after "a"; the
	// leftover '?' starts the next item (as a user-defined unary operator).
	p := parser.NewExpr(`a ? b;`, "<test>")
	item := p.ParseNextItem()
	require.NotNil(t, item)
	require.Equal(t, "a", item.(*ast.TopLevelExpr).Expr.String())
}
