package passes

import "github.com/pudl-lang/pudlc/internal/ir/refir"

type reassociatePass struct{ named }

// Run canonicalizes commutative binary operators so a constant operand
// always sits on the right (e.g. "1 + x" becomes the same shape as
// "x + 1"), which is enough reassociation to let inst-combine's
// identity rules fire regardless of which side the user wrote a
// literal on. A full reassociation pass (flattening +/- chains and
// sorting by rank) is out of scope for this reference pipeline.
func (reassociatePass) Run(fn *refir.Function) bool {
	changed := false
	for _, blk := range fn.Blocks {
		for _, in := range blk.Instrs {
			if !isCommutative(in.Op) || len(in.Operands) != 2 {
				continue
			}
			l, r := in.Operands[0], in.Operands[1]
			if isConst(l) && !isConst(r) {
				in.Operands[0], in.Operands[1] = r, l
				changed = true
			}
		}
	}
	return changed
}

func isCommutative(op refir.Op) bool {
	switch op {
	case refir.OpIAdd, refir.OpIMul, refir.OpFAdd, refir.OpFMul, refir.OpAnd, refir.OpOr, refir.OpXor:
		return true
	default:
		return false
	}
}

func isConst(v *refir.Instr) bool {
	return v.Op == refir.OpConstInt || v.Op == refir.OpConstFloat
}
