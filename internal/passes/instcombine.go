package passes

import "github.com/pudl-lang/pudlc/internal/ir/refir"

type instCombinePass struct{ named }

// Run folds constant-operand arithmetic and a handful of algebraic
// identities (x+0, x*1, x*0, x-0) in place.
func (instCombinePass) Run(fn *refir.Function) bool {
	changed := false
	for _, blk := range fn.Blocks {
		for _, in := range blk.Instrs {
			if foldConstant(in) {
				changed = true
				continue
			}
			if foldIdentity(in) {
				changed = true
			}
		}
	}
	return changed
}

func foldConstant(in *refir.Instr) bool {
	if len(in.Operands) != 2 {
		return false
	}
	l, r := in.Operands[0], in.Operands[1]
	if l.Op == refir.OpConstInt && r.Op == refir.OpConstInt {
		var v int64
		ok := true
		switch in.Op {
		case refir.OpIAdd:
			v = l.IntConst + r.IntConst
		case refir.OpISub:
			v = l.IntConst - r.IntConst
		case refir.OpIMul:
			v = l.IntConst * r.IntConst
		case refir.OpSDiv:
			if r.IntConst == 0 {
				ok = false
			} else {
				v = l.IntConst / r.IntConst
			}
		default:
			ok = false
		}
		if ok {
			*in = refir.Instr{ID: in.ID, Op: refir.OpConstInt, Type: in.Type, IntConst: v, Block: in.Block}
			return true
		}
	}
	if l.Op == refir.OpConstFloat && r.Op == refir.OpConstFloat {
		var v float64
		ok := true
		switch in.Op {
		case refir.OpFAdd:
			v = l.FloatConst + r.FloatConst
		case refir.OpFSub:
			v = l.FloatConst - r.FloatConst
		case refir.OpFMul:
			v = l.FloatConst * r.FloatConst
		case refir.OpFDiv:
			v = l.FloatConst / r.FloatConst
		default:
			ok = false
		}
		if ok {
			*in = refir.Instr{ID: in.ID, Op: refir.OpConstFloat, Type: in.Type, FloatConst: v, Block: in.Block}
			return true
		}
	}
	return false
}

func foldIdentity(in *refir.Instr) bool {
	if len(in.Operands) != 2 {
		return false
	}
	l, r := in.Operands[0], in.Operands[1]
	switch in.Op {
	case refir.OpIAdd:
		if isIntConst(r, 0) {
			return replaceWithOperand(in, l)
		}
		if isIntConst(l, 0) {
			return replaceWithOperand(in, r)
		}
	case refir.OpISub:
		if isIntConst(r, 0) {
			return replaceWithOperand(in, l)
		}
	case refir.OpIMul:
		if isIntConst(r, 1) {
			return replaceWithOperand(in, l)
		}
		if isIntConst(l, 1) {
			return replaceWithOperand(in, r)
		}
		if isIntConst(r, 0) {
			return replaceWithOperand(in, r)
		}
		if isIntConst(l, 0) {
			return replaceWithOperand(in, l)
		}
	case refir.OpFAdd:
		if isFloatConst(r, 0) {
			return replaceWithOperand(in, l)
		}
	case refir.OpFMul:
		if isFloatConst(r, 1) {
			return replaceWithOperand(in, l)
		}
	}
	return false
}

func isIntConst(v *refir.Instr, want int64) bool {
	return v.Op == refir.OpConstInt && v.IntConst == want
}

func isFloatConst(v *refir.Instr, want float64) bool {
	return v.Op == refir.OpConstFloat && v.FloatConst == want
}

// replaceWithOperand turns in into a transparent alias of keep by
// copying keep's opcode/payload in place, so every existing pointer to
// in still resolves to the right value without a second rewrite pass.
func replaceWithOperand(in, keep *refir.Instr) bool {
	id, blk := in.ID, in.Block
	*in = *keep
	in.ID, in.Block = id, blk
	return true
}
