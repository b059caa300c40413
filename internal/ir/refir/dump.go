package refir

import (
	"fmt"
	"io"
	"strings"

	"github.com/pudl-lang/pudlc/internal/ir"
)

// Dump renders b's module as a readable, LLVM-flavored SSA listing:
// one line per instruction, result name on the left, operands on the
// right, block labels as bare "name:" lines.
func Dump(w io.Writer, b *Builder) error {
	for _, g := range b.Globals {
		if _, err := fmt.Fprintf(w, "@%s = constant %s\n", g.Name, quote(g.Data)); err != nil {
			return err
		}
	}
	if len(b.Globals) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for _, fn := range b.Functions {
		if err := dumpFunction(w, fn); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunction(w io.Writer, fn *Function) error {
	params := make([]string, len(fn.ParamTypes))
	for i, pt := range fn.ParamTypes {
		name := fn.ParamNames[i]
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		params[i] = fmt.Sprintf("%s %%%s", pt, name)
	}
	if _, err := fmt.Fprintf(w, "define %s @%s(%s) {\n", fn.RetType, fn.Name, strings.Join(params, ", ")); err != nil {
		return err
	}
	for _, blk := range fn.Blocks {
		if _, err := fmt.Fprintf(w, "%s:\n", blk.Name); err != nil {
			return err
		}
		for _, in := range blk.Instrs {
			if _, err := fmt.Fprintf(w, "  %s\n", dumpInstr(in)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

func dumpInstr(in *Instr) string {
	lhs := ""
	if !in.isTerminator() && in.Op != OpStore {
		lhs = fmt.Sprintf("%%%d = ", in.ID)
	}
	switch in.Op {
	case OpConstInt:
		return fmt.Sprintf("%s%s %d", lhs, in.Type, in.IntConst)
	case OpConstFloat:
		return fmt.Sprintf("%s%s %g", lhs, in.Type, in.FloatConst)
	case OpParam:
		return fmt.Sprintf("%s%s param %%%s", lhs, in.Type, in.Name)
	case OpGlobalAddr:
		return fmt.Sprintf("%sgep @%s", lhs, in.Global.Name)
	case OpAlloca:
		elem := in.Operands[0].Type
		return fmt.Sprintf("%salloca %s, name=%q", lhs, elem, in.Name)
	case OpLoad:
		return fmt.Sprintf("%sload %s, %s", lhs, in.Type, ref(in.Operands[0]))
	case OpStore:
		return fmt.Sprintf("store %s, %s", ref(in.Operands[0]), ref(in.Operands[1]))
	case OpIAdd, OpISub, OpIMul, OpUDiv, OpSDiv, OpFAdd, OpFSub, OpFMul, OpFDiv, OpAnd, OpOr, OpXor:
		return fmt.Sprintf("%s%s %s, %s, %s", lhs, in.Op, in.Type, ref(in.Operands[0]), ref(in.Operands[1]))
	case OpINeg, OpFNeg, OpNot:
		return fmt.Sprintf("%s%s %s, %s", lhs, in.Op, in.Type, ref(in.Operands[0]))
	case OpICmp:
		return fmt.Sprintf("%sicmp %s %s, %s", lhs, intPredName(in.IntPred), ref(in.Operands[0]), ref(in.Operands[1]))
	case OpFCmp:
		return fmt.Sprintf("%sfcmp %s %s, %s", lhs, floatPredName(in.FloatPred), ref(in.Operands[0]), ref(in.Operands[1]))
	case OpCast:
		return fmt.Sprintf("%scast %s to %s", lhs, ref(in.Operands[0]), in.Type)
	case OpCall:
		args := make([]string, len(in.Operands))
		for i, a := range in.Operands {
			args[i] = ref(a)
		}
		return fmt.Sprintf("%scall @%s(%s)", lhs, in.Callee.Name, strings.Join(args, ", "))
	case OpCondBr:
		return fmt.Sprintf("condbr %s, %s, %s", ref(in.Operands[0]), in.Then.Name, in.Else.Name)
	case OpBr:
		return fmt.Sprintf("br %s", in.Target.Name)
	case OpPhi:
		parts := make([]string, len(in.Incoming))
		for i, inc := range in.Incoming {
			parts[i] = fmt.Sprintf("[%s, %s]", ref(inc.Value.(*Instr)), inc.Pred.(*Block).Name)
		}
		return fmt.Sprintf("%sphi %s %s", lhs, in.Type, strings.Join(parts, ", "))
	case OpRet:
		if len(in.Operands) == 0 {
			return "ret void"
		}
		return fmt.Sprintf("ret %s", ref(in.Operands[0]))
	default:
		return fmt.Sprintf("%s<unknown op %s>", lhs, in.Op)
	}
}

func ref(in *Instr) string {
	switch in.Op {
	case OpConstInt:
		return fmt.Sprintf("%d", in.IntConst)
	case OpConstFloat:
		return fmt.Sprintf("%g", in.FloatConst)
	case OpParam:
		return "%" + in.Name
	default:
		return fmt.Sprintf("%%%d", in.ID)
	}
}

func intPredName(p ir.IntPredicate) string {
	switch p {
	case ir.IEQ:
		return "eq"
	case ir.INE:
		return "ne"
	case ir.ISGT:
		return "sgt"
	case ir.ISLT:
		return "slt"
	case ir.ISGE:
		return "sge"
	case ir.ISLE:
		return "sle"
	default:
		return "?"
	}
}

func floatPredName(p ir.FloatPredicate) string {
	switch p {
	case ir.FOEQ:
		return "oeq"
	case ir.FONE:
		return "one"
	case ir.FOGT:
		return "ogt"
	case ir.FOLT:
		return "olt"
	case ir.FOGE:
		return "oge"
	case ir.FOLE:
		return "ole"
	case ir.FONEZero:
		return "one0"
	default:
		return "?"
	}
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
