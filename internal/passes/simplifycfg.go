package passes

import "github.com/pudl-lang/pudlc/internal/ir/refir"

type simplifyCFGPass struct{ named }

// Run merges a block that ends in an unconditional branch into its sole
// successor when that successor has no other predecessor, and drops
// blocks unreachable from the entry block — the two simplest of the
// structural cleanups conventionally grouped under "simplify-cfg".
func (simplifyCFGPass) Run(fn *refir.Function) bool {
	changed := false
	changed = mergeStraightLineBlocks(fn) || changed
	changed = dropUnreachableBlocks(fn) || changed
	return changed
}

func mergeStraightLineBlocks(fn *refir.Function) bool {
	changed := false
	for {
		merged := false
		for _, blk := range fn.Blocks {
			last := lastInstr(blk)
			if last == nil || last.Op != refir.OpBr {
				continue
			}
			succ := last.Target
			if succ == blk || len(succ.Preds()) != 1 {
				continue
			}
			blk.Instrs = append(blk.Instrs[:len(blk.Instrs)-1], succ.Instrs...)
			removeBlock(fn, succ)
			merged = true
			changed = true
			break // block list mutated; restart the scan
		}
		if !merged {
			break
		}
	}
	return changed
}

func dropUnreachableBlocks(fn *refir.Function) bool {
	if len(fn.Blocks) == 0 {
		return false
	}
	reachable := map[*refir.Block]bool{fn.Blocks[0]: true}
	worklist := []*refir.Block{fn.Blocks[0]}
	for len(worklist) > 0 {
		blk := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		last := lastInstr(blk)
		if last == nil {
			continue
		}
		for _, succ := range successorsOf(last) {
			if !reachable[succ] {
				reachable[succ] = true
				worklist = append(worklist, succ)
			}
		}
	}
	changed := false
	kept := fn.Blocks[:0]
	for _, blk := range fn.Blocks {
		if reachable[blk] {
			kept = append(kept, blk)
		} else {
			changed = true
		}
	}
	fn.Blocks = kept
	return changed
}

func successorsOf(term *refir.Instr) []*refir.Block {
	switch term.Op {
	case refir.OpBr:
		return []*refir.Block{term.Target}
	case refir.OpCondBr:
		return []*refir.Block{term.Then, term.Else}
	default:
		return nil
	}
}

func lastInstr(blk *refir.Block) *refir.Instr {
	if len(blk.Instrs) == 0 {
		return nil
	}
	return blk.Instrs[len(blk.Instrs)-1]
}

func removeBlock(fn *refir.Function, target *refir.Block) {
	out := fn.Blocks[:0]
	for _, b := range fn.Blocks {
		if b != target {
			out = append(out, b)
		}
	}
	fn.Blocks = out
}
