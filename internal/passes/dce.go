package passes

import "github.com/pudl-lang/pudlc/internal/ir/refir"

type dcePass struct{ named }

// Run removes instructions with no uses and no observable side effect.
// Store, Call, and every terminator are kept unconditionally: a Store
// writes memory another block's Load may read, and a Call may have
// effects the IR can't see (print, an extern).
func (dcePass) Run(fn *refir.Function) bool {
	uses := countUses(fn)
	changed := false
	for _, blk := range fn.Blocks {
		out := blk.Instrs[:0]
		for _, in := range blk.Instrs {
			if uses[in] == 0 && isPure(in.Op) {
				changed = true
				continue
			}
			out = append(out, in)
		}
		blk.Instrs = out
	}
	return changed
}

func countUses(fn *refir.Function) map[*refir.Instr]int {
	uses := map[*refir.Instr]int{}
	for _, blk := range fn.Blocks {
		for _, in := range blk.Instrs {
			for _, op := range in.Operands {
				uses[op]++
			}
			for _, inc := range in.Incoming {
				if v, ok := inc.Value.(*refir.Instr); ok {
					uses[v]++
				}
			}
		}
	}
	return uses
}

func isPure(op refir.Op) bool {
	switch op {
	case refir.OpStore, refir.OpCall, refir.OpCondBr, refir.OpBr, refir.OpRet:
		return false
	default:
		return true
	}
}
