package passes

import "github.com/pudl-lang/pudlc/internal/ir/refir"

type regPromotionPass struct{ named }

// Run promotes "write-once" allocas directly to the value stored into
// them, eliding the alloca/store/load triad for every local that is
// never reassigned — the common case for every typed-dialect function
// parameter and every straight-line `TYPE name = expr` declaration. It
// intentionally does not handle allocas reassigned from multiple
// predecessors (that needs real dominance-frontier phi insertion);
// those stay on the stack and the interpreter still runs them
// correctly.
func (regPromotionPass) Run(fn *refir.Function) bool {
	changed := false
	for _, blk := range fn.Blocks {
		for _, in := range blk.Instrs {
			if in.Op != refir.OpAlloca {
				continue
			}
			stores := collectStores(fn, in)
			if len(stores) != 1 {
				continue
			}
			storedValue := stores[0].Operands[0]
			if usesInstr(storedValue, in) {
				continue // self-referential store, e.g. "x = x + 1"; not write-once
			}
			replaceLoadsWith(fn, in, storedValue)
			removeInstr(blk, stores[0])
			removeInstr(blk, in)
			changed = true
		}
	}
	return changed
}

func collectStores(fn *refir.Function, alloca *refir.Instr) []*refir.Instr {
	var stores []*refir.Instr
	for _, blk := range fn.Blocks {
		for _, in := range blk.Instrs {
			if in.Op == refir.OpStore && len(in.Operands) == 2 && in.Operands[1] == alloca {
				stores = append(stores, in)
			}
		}
	}
	return stores
}

func usesInstr(root, target *refir.Instr) bool {
	if root == target {
		return true
	}
	for _, op := range root.Operands {
		if usesInstr(op, target) {
			return true
		}
	}
	return false
}

func replaceLoadsWith(fn *refir.Function, alloca, value *refir.Instr) {
	for _, blk := range fn.Blocks {
		for _, in := range blk.Instrs {
			if in.Op == refir.OpLoad && len(in.Operands) == 1 && in.Operands[0] == alloca {
				replaceAllUses(fn, in, value)
			}
		}
	}
}

// replaceAllUses rewrites every operand reference to old with new,
// across every instruction and terminator in fn, including Phi
// incoming edges and Call arguments.
func replaceAllUses(fn *refir.Function, old, repl *refir.Instr) {
	for _, blk := range fn.Blocks {
		for _, in := range blk.Instrs {
			for i, op := range in.Operands {
				if op == old {
					in.Operands[i] = repl
				}
			}
			for i, inc := range in.Incoming {
				if v, ok := inc.Value.(*refir.Instr); ok && v == old {
					in.Incoming[i].Value = repl
				}
			}
		}
	}
}

func removeInstr(blk *refir.Block, target *refir.Instr) {
	out := blk.Instrs[:0]
	for _, in := range blk.Instrs {
		if in != target {
			out = append(out, in)
		}
	}
	blk.Instrs = out
}
