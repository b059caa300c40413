package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/codegen"
	"github.com/pudl-lang/pudlc/internal/ir/refir"
	"github.com/pudl-lang/pudlc/internal/parser"
)

func mustFunctionDef(t *testing.T, item ast.TopLevel) *ast.FunctionDef {
	t.Helper()
	fd, ok := item.(*ast.FunctionDef)
	require.True(t, ok, "expected *ast.FunctionDef, got %T", item)
	return fd
}

// compileAndRun parses a typed-dialect program, lowers it to refir IR,
// and calls the named function, covering the full parser -> codegen ->
// executor path.
func compileAndRun(t *testing.T, source, entry string, args ...float64) float64 {
	t.Helper()
	p := parser.NewTyped(source, "<test>")
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors")

	b := refir.NewBuilder()
	g := codegen.New(b)
	require.NoError(t, g.GenTypedProgram(prog))

	exec := refir.NewExec(b)
	result, err := exec.CallFunction(entry, args)
	require.NoError(t, err)
	return result
}

func TestTyped_ArithmeticPrecedence(t *testing.T) {
	// 1 + 2 * 3 == 7: '*' binds tighter than '+'.
	got := compileAndRun(t, `func mast(): int { return 1 + 2 * 3; }`, "mast")
	require.Equal(t, float64(7), got)
}

func TestTyped_WhileLoopAccumulates(t *testing.T) {
	src := `func mast(): int {
		int x = 0;
		int i = 0;
		while i < 10 { x = x + i; i = i + 1; }
		return x;
	}`
	got := compileAndRun(t, src, "mast")
	require.Equal(t, float64(45), got)
}

func TestTyped_DoWhileRunsBodyAtLeastOnce(t *testing.T) {
	src := `func mast(): int {
		int i = 0;
		do { i = i + 1; } while i < 0;
		return i;
	}`
	got := compileAndRun(t, src, "mast")
	require.Equal(t, float64(1), got)
}

func TestTyped_IfElseBranches(t *testing.T) {
	src := `func pick(bool cond): int {
		if cond { return 1; } else { return 2; }
	}`
	require.Equal(t, float64(1), compileAndRun(t, src, "pick", 1))
	require.Equal(t, float64(2), compileAndRun(t, src, "pick", 0))
}

func TestTyped_PrintLowersToSyntheticPerTypeCall(t *testing.T) {
	var got float64
	var gotFloat bool
	src := `func mast(): int { print 3.5; return 0; }`

	p := parser.NewTyped(src, "<test>")
	prog := p.ParseProgram()
	require.Empty(t, p.Errors())

	b := refir.NewBuilder()
	g := codegen.New(b)
	require.NoError(t, g.GenTypedProgram(prog))

	exec := refir.NewExec(b)
	exec.Print = func(v float64, isFloat bool) { got, gotFloat = v, isFloat }
	_, err := exec.CallFunction("mast", nil)
	require.NoError(t, err)
	require.True(t, gotFloat)
	require.InDelta(t, 3.5, got, 1e-9)
}

func TestTyped_FunctionCallsForwardDeclaredFunction(t *testing.T) {
	src := `
	func mast(): int { return helper(4); }
	func helper(int n): int { return n * n; }
	`
	got := compileAndRun(t, src, "mast")
	require.Equal(t, float64(16), got)
}

func TestTyped_RecursiveCall(t *testing.T) {
	src := `func fact(int n): int {
		if n < 2 { return 1; }
		return n * fact(n - 1);
	}`
	got := compileAndRun(t, src, "fact", 5)
	require.Equal(t, float64(120), got)
}

func TestExpr_FibonacciViaIfThenElse(t *testing.T) {
	// fib(10) computed directly through codegen, no driver involved.
	p := parser.NewExpr(`def fib(n) if n < 2 then n else fib(n-1)+fib(n-2);`, "<test>")
	item := p.ParseNextItem()
	require.Empty(t, p.Errors())

	b := refir.NewBuilder()
	g := codegen.New(b)
	_, err := g.GenFunctionDef(mustFunctionDef(t, item))
	require.NoError(t, err)

	exec := refir.NewExec(b)
	result, err := exec.CallFunction("fib", []float64{10})
	require.NoError(t, err)
	require.Equal(t, float64(55), result)
}

func TestExpr_ForLoopEvaluatesToZero(t *testing.T) {
	p := parser.NewExpr(`def loopsum() for i = 1, i < 5 in i;`, "<test>")
	item := p.ParseNextItem()
	require.Empty(t, p.Errors())

	b := refir.NewBuilder()
	g := codegen.New(b)
	_, err := g.GenFunctionDef(mustFunctionDef(t, item))
	require.NoError(t, err)

	exec := refir.NewExec(b)
	result, err := exec.CallFunction("loopsum", nil)
	require.NoError(t, err)
	require.Equal(t, float64(0), result) // for-expr always evaluates to 0.0
}
