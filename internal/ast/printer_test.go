package ast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/parser"
)

func parseTypedProgram(t *testing.T, source string) *ast.Program {
	t.Helper()
	p := parser.NewTyped(source, "<test>")
	prog := p.ParseProgram()
	require.Empty(t, p.Errors())
	return prog
}

func TestPrintAST_FunctionWithStatements(t *testing.T) {
	prog := parseTypedProgram(t,
		`func mast(int a): int { int x = 5; print 3.5; if a < 1 { x = 2; } return x; }`)
	want := "(Func mast : ([int a]) -> int " +
		"{ (Assign [int x] [5I]); (Print [3.5F]); " +
		"(If (< [int a] [1I]) { (Assign [int x] [2I]); }); " +
		"(Ret [int x]); })"
	require.Equal(t, want, ast.PrintAST(prog))
}

func TestPrintAST_LoopsAndUnary(t *testing.T) {
	prog := parseTypedProgram(t,
		`func f(bool b): bool { while b { do { b = !b; } while b } return !b; }`)
	want := "(Func f : ([bool b]) -> bool " +
		"{ (While [bool b] { (Do { (Assign [bool b] (! [bool b])); } While [bool b]); }); " +
		"(Ret (! [bool b])); })"
	require.Equal(t, want, ast.PrintAST(prog))
}

func TestPrintAST_CallCarriesSignatureTypes(t *testing.T) {
	prog := parseTypedProgram(t, `
	func inc(int n): int { return n; }
	func mast(): int { return inc(True == False) ; }
	`)
	// A deliberately odd argument to show literals keep their own tags.
	out := ast.PrintAST(prog)
	require.Contains(t, out, "(Func inc : ([int n]) -> int { (Ret [int n]); })")
	require.Contains(t, out, "(Call inc : ((== [True] [False])) -> int)")
}

func TestPrintAST_ExpressionDialectFallsBackToStringForm(t *testing.T) {
	p := parser.NewExpr(`if x then 1 else 2;`, "<test>")
	item := p.ParseNextItem()
	require.Empty(t, p.Errors())
	prog := &ast.Program{Items: []ast.TopLevel{item}}
	require.Equal(t, "(if x then 1 else 2)", ast.PrintAST(prog))
}
