package refir_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pudl-lang/pudlc/internal/ir"
	"github.com/pudl-lang/pudlc/internal/ir/refir"
)

// buildAdd builds `func add(a: int, b: int): int { return a + b; }`
// directly against the Builder, bypassing the code generator, so these
// tests exercise the reference backend in isolation.
func buildAdd(t *testing.T) (*refir.Builder, ir.Function) {
	t.Helper()
	b := refir.NewBuilder()
	fn := b.DeclareFunction("add", []ir.Type{b.I32(), b.I32()}, []string{"a", "b"}, b.I32())
	entry := b.NewBlock(fn, "entry")
	b.SetInsertPoint(entry)
	params := b.Params(fn)
	sum := b.IAdd(params[0], params[1])
	b.Ret(sum)
	return b, fn
}

func TestBuilder_DeclareFunctionRegistersParams(t *testing.T) {
	b, fn := buildAdd(t)
	require.Len(t, b.Params(fn), 2)
	require.True(t, b.Terminated(nil), "a nil block is vacuously terminated")
}

func TestBuilder_TerminatedTracksCurrentBlock(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("f", nil, nil, b.I32())
	entry := b.NewBlock(fn, "entry")
	b.SetInsertPoint(entry)
	require.False(t, b.Terminated(b.CurrentBlock()))
	b.Ret(b.ConstInt(b.I32(), 0))
	require.True(t, b.Terminated(b.CurrentBlock()))
}

func TestBuilder_EraseFunctionDropsItFromModule(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("printf.i32", []ir.Type{b.I32()}, []string{"v"}, b.I1())
	require.Len(t, b.Functions, 1)
	b.EraseFunction(fn)
	require.Empty(t, b.Functions)
}

func TestDump_RendersFunctionSignatureAndBody(t *testing.T) {
	b, _ := buildAdd(t)
	var sb strings.Builder
	require.NoError(t, b.Dump(&sb))
	out := sb.String()
	require.Contains(t, out, "@add(")
	require.Contains(t, out, "ret")
}

func TestExec_CallFunctionRunsArithmetic(t *testing.T) {
	b, _ := buildAdd(t)
	exec := refir.NewExec(b)
	result, err := exec.CallFunction("add", []float64{3, 4})
	require.NoError(t, err)
	require.Equal(t, float64(7), result)
}

func TestExec_CallFunctionUnknownNameErrors(t *testing.T) {
	b := refir.NewBuilder()
	exec := refir.NewExec(b)
	_, err := exec.CallFunction("nope", nil)
	require.Error(t, err)
}

func TestExec_BranchingSelectsCorrectArm(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("abs", []ir.Type{b.I32()}, []string{"x"}, b.I32())
	entry := b.NewBlock(fn, "entry")
	thenB := b.NewBlock(fn, "then")
	elseB := b.NewBlock(fn, "else")

	b.SetInsertPoint(entry)
	x := b.Params(fn)[0]
	cond := b.ICmp(ir.ISLT, x, b.ConstInt(b.I32(), 0))
	b.CondBr(cond, thenB, elseB)

	b.SetInsertPoint(thenB)
	b.Ret(b.INeg(x))

	b.SetInsertPoint(elseB)
	b.Ret(x)

	exec := refir.NewExec(b)
	neg, err := exec.CallFunction("abs", []float64{-5})
	require.NoError(t, err)
	require.Equal(t, float64(5), neg)

	pos, err := exec.CallFunction("abs", []float64{5})
	require.NoError(t, err)
	require.Equal(t, float64(5), pos)
}

func TestExec_PhiResolvesPerPredecessor(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("sel", []ir.Type{b.I1()}, []string{"cond"}, b.I32())
	entry := b.NewBlock(fn, "entry")
	thenB := b.NewBlock(fn, "then")
	elseB := b.NewBlock(fn, "else")
	mergeB := b.NewBlock(fn, "merge")

	b.SetInsertPoint(entry)
	cond := b.Params(fn)[0]
	b.CondBr(cond, thenB, elseB)

	b.SetInsertPoint(thenB)
	b.Br(mergeB)

	b.SetInsertPoint(elseB)
	b.Br(mergeB)

	b.SetInsertPoint(mergeB)
	phi := b.Phi(b.I32(), []ir.PhiIncoming{
		{Value: b.ConstInt(b.I32(), 1), Pred: thenB},
		{Value: b.ConstInt(b.I32(), 2), Pred: elseB},
	})
	b.Ret(phi)

	exec := refir.NewExec(b)
	whenTrue, err := exec.CallFunction("sel", []float64{1})
	require.NoError(t, err)
	require.Equal(t, float64(1), whenTrue)

	whenFalse, err := exec.CallFunction("sel", []float64{0})
	require.NoError(t, err)
	require.Equal(t, float64(2), whenFalse)
}
