package passes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pudl-lang/pudlc/internal/ir"
	"github.com/pudl-lang/pudlc/internal/ir/refir"
	"github.com/pudl-lang/pudlc/internal/passes"
)

func TestForLevel_IsCumulative(t *testing.T) {
	require.Empty(t, passes.ForLevel("O0"))
	require.Empty(t, passes.ForLevel("ONone"))
	require.Len(t, passes.ForLevel("O1"), 1)
	require.Len(t, passes.ForLevel("O2"), 2)
	require.Len(t, passes.ForLevel("O6"), len(passes.AllPasses()))
	require.Len(t, passes.ForLevel("Oall"), len(passes.AllPasses()))
	require.Empty(t, passes.ForLevel("bogus"))
}

func TestInstCombine_FoldsConstantArithmeticAndIdentities(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("f", nil, nil, b.I32())
	entry := b.NewBlock(fn, "entry")
	b.SetInsertPoint(entry)
	folded := b.IAdd(b.ConstInt(b.I32(), 2), b.ConstInt(b.I32(), 3))
	identity := b.IAdd(folded, b.ConstInt(b.I32(), 0))
	b.Ret(identity)

	fnImpl := b.Functions[0]
	changed := passes.InstCombine().Run(fnImpl)
	require.True(t, changed)

	exec := refir.NewExec(b)
	result, err := exec.CallFunction("f", nil)
	require.NoError(t, err)
	require.Equal(t, float64(5), result)
}

func TestReassociate_MovesConstantToRHS(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("f", []ir.Type{b.I32()}, []string{"x"}, b.I32())
	entry := b.NewBlock(fn, "entry")
	b.SetInsertPoint(entry)
	x := b.Params(fn)[0]
	sum := b.IAdd(b.ConstInt(b.I32(), 1), x)
	b.Ret(sum)

	fnImpl := b.Functions[0]
	changed := passes.Reassociate().Run(fnImpl)
	require.True(t, changed)

	sumInstr := sum.(*refir.Instr)
	require.Equal(t, x, sumInstr.Operands[0])
	require.Equal(t, refir.OpConstInt, sumInstr.Operands[1].Op)

	// idempotent: running again finds nothing left to move.
	require.False(t, passes.Reassociate().Run(fnImpl))
}

func TestRegPromotion_ElidesWriteOnceAlloca(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("f", nil, nil, b.I32())
	entry := b.NewBlock(fn, "entry")
	b.SetInsertPoint(entry)
	slot := b.Alloca(b.I32(), "x")
	b.Store(b.ConstInt(b.I32(), 7), slot)
	loaded := b.Load(slot)
	b.Ret(loaded)

	fnImpl := b.Functions[0]
	require.True(t, passes.RegPromotion().Run(fnImpl))

	exec := refir.NewExec(b)
	result, err := exec.CallFunction("f", nil)
	require.NoError(t, err)
	require.Equal(t, float64(7), result)

	for _, in := range fnImpl.Blocks[0].Instrs {
		require.NotEqual(t, refir.OpAlloca, in.Op)
	}
}

func TestRegPromotion_LeavesSelfReferentialStoreAlone(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("f", nil, nil, b.I32())
	entry := b.NewBlock(fn, "entry")
	b.SetInsertPoint(entry)
	slot := b.Alloca(b.I32(), "x")
	b.Store(b.ConstInt(b.I32(), 0), slot)
	loaded := b.Load(slot)
	incremented := b.IAdd(loaded, b.ConstInt(b.I32(), 1))
	b.Store(incremented, slot)
	b.Ret(b.Load(slot))

	fnImpl := b.Functions[0]
	// two stores to the same alloca: not write-once, reg-promotion skips it.
	require.False(t, passes.RegPromotion().Run(fnImpl))
}

func TestGVN_DeduplicatesRedundantPureInstructions(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("f", []ir.Type{b.I32()}, []string{"x"}, b.I32())
	entry := b.NewBlock(fn, "entry")
	b.SetInsertPoint(entry)
	x := b.Params(fn)[0]
	one := b.ConstInt(b.I32(), 1)
	a := b.IAdd(x, one)
	c := b.IAdd(x, one)
	sum := b.IAdd(a, c)
	b.Ret(sum)

	fnImpl := b.Functions[0]
	require.True(t, passes.GVN().Run(fnImpl))

	exec := refir.NewExec(b)
	result, err := exec.CallFunction("f", []float64{4})
	require.NoError(t, err)
	require.Equal(t, float64(10), result) // (4+1) + (4+1)
}

func TestDCE_RemovesUnusedPureInstructionButKeepsStore(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("f", nil, nil, b.I32())
	entry := b.NewBlock(fn, "entry")
	b.SetInsertPoint(entry)
	dead := b.IAdd(b.ConstInt(b.I32(), 1), b.ConstInt(b.I32(), 2))
	_ = dead
	slot := b.Alloca(b.I32(), "x")
	b.Store(b.ConstInt(b.I32(), 9), slot)
	b.Ret(b.Load(slot))

	fnImpl := b.Functions[0]
	before := countInstrs(fnImpl)
	require.True(t, passes.DCE().Run(fnImpl))
	after := countInstrs(fnImpl)
	require.Less(t, after, before)

	var sawStore bool
	for _, in := range fnImpl.Blocks[0].Instrs {
		if in.Op == refir.OpStore {
			sawStore = true
		}
	}
	require.True(t, sawStore, "dce must not remove a Store even with no recorded uses")
}

func TestSimplifyCFG_MergesStraightLineBlocksAndDropsUnreachable(t *testing.T) {
	b := refir.NewBuilder()
	fn := b.DeclareFunction("f", nil, nil, b.I32())
	entry := b.NewBlock(fn, "entry")
	next := b.NewBlock(fn, "next")
	dead := b.NewBlock(fn, "dead")
	_ = dead

	b.SetInsertPoint(entry)
	b.Br(next)

	b.SetInsertPoint(next)
	b.Ret(b.ConstInt(b.I32(), 1))

	fnImpl := b.Functions[0]
	require.Len(t, fnImpl.Blocks, 3)
	require.True(t, passes.SimplifyCFG().Run(fnImpl))
	require.Len(t, fnImpl.Blocks, 1, "entry absorbs next, dead is unreachable")

	exec := refir.NewExec(b)
	result, err := exec.CallFunction("f", nil)
	require.NoError(t, err)
	require.Equal(t, float64(1), result)
}

func countInstrs(fn *refir.Function) int {
	n := 0
	for _, blk := range fn.Blocks {
		n += len(blk.Instrs)
	}
	return n
}
