package passes

import (
	"fmt"
	"strings"

	"github.com/pudl-lang/pudlc/internal/ir/refir"
)

type gvnPass struct{ named }

// Run is a block-local common-subexpression elimination: two pure
// instructions in the same block with identical opcode, type, comparison
// predicate, and operand identity are redundant, so the second is rewritten to alias
// the first. True global value numbering across branches needs a
// dominator tree, which this reference pipeline does not build.
func (gvnPass) Run(fn *refir.Function) bool {
	changed := false
	for _, blk := range fn.Blocks {
		seen := map[string]*refir.Instr{}
		for _, in := range blk.Instrs {
			if in.Op == refir.OpStore || in.Op == refir.OpCall {
				// A write (or a callee that may write) changes what an
				// earlier Load observed; forget every remembered Load so
				// a later one is not aliased across it.
				for k, v := range seen {
					if v.Op == refir.OpLoad {
						delete(seen, k)
					}
				}
				continue
			}
			if !isPure(in.Op) || in.Op == refir.OpAlloca || in.Op == refir.OpPhi {
				continue
			}
			key := gvnKey(in)
			if key == "" {
				continue
			}
			if earlier, ok := seen[key]; ok {
				replaceWithOperand(in, earlier)
				changed = true
				continue
			}
			seen[key] = in
		}
	}
	return changed
}

func gvnKey(in *refir.Instr) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%p:%d:%d", in.Op, in.Type, in.IntPred, in.FloatPred)
	for _, op := range in.Operands {
		fmt.Fprintf(&sb, ":%p", op)
	}
	return sb.String()
}
