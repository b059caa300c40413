// Package refir is the reference implementation of the abstract IR
// Builder contract (internal/ir): one concrete instruction
// representation, a disassembler, and an in-process executor, all built
// purely on the standard library. A production backend (LLVM, a VM)
// would live outside this repo; refir is the stand-in that keeps the
// whole pipeline runnable and testable in-process.
package refir

import (
	"fmt"

	"github.com/pudl-lang/pudlc/internal/ir"
)

// Kind enumerates the handful of scalar types the builder exposes.
type Kind int

const (
	KI1 Kind = iota
	KI32
	KF32
	KF64
	KPtrI8
	KArrayI8
)

// Type is refir's concrete ir.Type.
type Type struct {
	Kind Kind
	Len  int // only meaningful for KArrayI8
}

func (*Type) IRType() {}

func (t *Type) String() string {
	switch t.Kind {
	case KI1:
		return "i1"
	case KI32:
		return "i32"
	case KF32:
		return "f32"
	case KF64:
		return "f64"
	case KPtrI8:
		return "i8*"
	case KArrayI8:
		return fmt.Sprintf("[%d x i8]", t.Len)
	default:
		return "?"
	}
}

// Op names an instruction opcode.
type Op string

const (
	OpConstInt   Op = "const.int"
	OpConstFloat Op = "const.float"
	OpParam      Op = "param"
	OpGlobalAddr Op = "global.addr"
	OpAlloca     Op = "alloca"
	OpLoad       Op = "load"
	OpStore      Op = "store"
	OpIAdd       Op = "iadd"
	OpISub       Op = "isub"
	OpIMul       Op = "imul"
	OpUDiv       Op = "udiv"
	OpSDiv       Op = "sdiv"
	OpINeg       Op = "ineg"
	OpFAdd       Op = "fadd"
	OpFSub       Op = "fsub"
	OpFMul       Op = "fmul"
	OpFDiv       Op = "fdiv"
	OpFNeg       Op = "fneg"
	OpAnd        Op = "and"
	OpOr         Op = "or"
	OpXor        Op = "xor"
	OpNot        Op = "not"
	OpICmp       Op = "icmp"
	OpFCmp       Op = "fcmp"
	OpCast       Op = "cast"
	OpCall       Op = "call"
	OpCondBr     Op = "condbr"
	OpBr         Op = "br"
	OpPhi        Op = "phi"
	OpRet        Op = "ret"
)

// Instr is both an instruction and the SSA value it produces: refir's
// concrete ir.Value.
type Instr struct {
	ID       int
	Op       Op
	Type     *Type
	Operands []*Instr
	Block    *Block

	// Instruction-specific payload.
	IntConst   int64
	FloatConst float64
	Name       string           // alloca/param debug name
	Global     *Global          // global.addr target
	Callee     *Function        // call target
	IntPred    ir.IntPredicate  // icmp predicate
	FloatPred  ir.FloatPredicate
	SrcSigned  bool // cast
	DstSigned  bool // cast
	Then, Else *Block // condbr targets
	Target     *Block // br target
	Incoming   []ir.PhiIncoming
}

func (*Instr) IRValue()       {}
func (i *Instr) Typ() ir.Type { return i.Type }

// SetIncoming lets the code generator back-patch a Phi's incoming edges
// after Builder.Phi returns, needed for loop headers (internal/codegen's
// "for" lowering) where the back-edge predecessor block doesn't exist
// yet when the phi itself is created.
func (i *Instr) SetIncoming(incoming []ir.PhiIncoming) {
	i.Incoming = incoming
}

func (i *Instr) String() string {
	switch i.Op {
	case OpConstInt:
		return fmt.Sprintf("%d", i.IntConst)
	case OpConstFloat:
		return fmt.Sprintf("%g", i.FloatConst)
	default:
		return fmt.Sprintf("%%%d", i.ID)
	}
}

// isTerminator reports whether this instruction ends a basic block.
func (i *Instr) isTerminator() bool {
	switch i.Op {
	case OpCondBr, OpBr, OpRet:
		return true
	default:
		return false
	}
}

// Global is a private-linkage constant byte array, used for printf
// format strings.
type Global struct {
	Name string
	Data string
}

func (*Global) IRGlobal() {}

// Block is a basic block: a maximal straight-line instruction sequence
// ending in exactly one terminator.
type Block struct {
	Name   string
	Func   *Function
	Instrs []*Instr
}

func (*Block) IRBlock() {}

// Terminated reports whether this block already ends in a terminator.
func (b *Block) Terminated() bool {
	return len(b.Instrs) > 0 && b.Instrs[len(b.Instrs)-1].isTerminator()
}

// Preds returns the blocks within Func that branch to b, computed by
// scanning terminators — used by internal/passes' simplify-cfg to find
// single-predecessor blocks.
func (b *Block) Preds() []*Block {
	var preds []*Block
	for _, blk := range b.Func.Blocks {
		last := blk.last()
		if last == nil {
			continue
		}
		switch last.Op {
		case OpBr:
			if last.Target == b {
				preds = append(preds, blk)
			}
		case OpCondBr:
			if last.Then == b || last.Else == b {
				preds = append(preds, blk)
			}
		}
	}
	return preds
}

func (b *Block) last() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}

// Function is a defined function: its parameters, declared return type,
// and basic blocks in emission order.
type Function struct {
	Name       string
	ParamTypes []*Type
	ParamNames []string
	Params     []*Instr
	RetType    *Type
	Blocks     []*Block

	blockSeq int
}

func (*Function) IRFunction() {}

// EntryBlock returns the function's first basic block, the block
// locals are alloca'd in.
func (f *Function) EntryBlock() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}
