package refir

import (
	"fmt"
	"io"

	"github.com/pudl-lang/pudlc/internal/ir"
)

var (
	tI1    = &Type{Kind: KI1}
	tI32   = &Type{Kind: KI32}
	tF32   = &Type{Kind: KF32}
	tF64   = &Type{Kind: KF64}
	tPtrI8 = &Type{Kind: KPtrI8}
)

// FunctionPass is the interface a concrete optimization pass must
// implement to run against refir's IR (internal/passes implements
// this). It is distinct from the opaque ir.Pass marker so that
// internal/ir stays backend-agnostic while internal/passes can still
// see and mutate concrete refir.Function values.
type FunctionPass interface {
	ir.Pass
	// Run applies the pass to fn, returning whether it changed anything.
	Run(fn *Function) bool
}

// Builder is the reference, in-repo implementation of ir.Builder. It
// owns all emitted functions/globals and the cursor ("current block")
// the code generator appends instructions through.
type Builder struct {
	Functions []*Function
	Globals   []*Global

	curFn    *Function
	curBlock *Block

	passes []ir.Pass
	nextID int
}

// NewBuilder creates an empty module.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) nextValueID() int {
	b.nextID++
	return b.nextID
}

// --- types ---

func (b *Builder) I1() ir.Type    { return tI1 }
func (b *Builder) I32() ir.Type   { return tI32 }
func (b *Builder) F32() ir.Type   { return tF32 }
func (b *Builder) F64() ir.Type   { return tF64 }
func (b *Builder) PtrI8() ir.Type { return tPtrI8 }
func (b *Builder) ArrayI8(n int) ir.Type {
	return &Type{Kind: KArrayI8, Len: n}
}

// --- constants ---

func (b *Builder) ConstInt(t ir.Type, v int64) ir.Value {
	return &Instr{ID: b.nextValueID(), Op: OpConstInt, Type: t.(*Type), IntConst: v}
}

func (b *Builder) ConstFloat(t ir.Type, v float64) ir.Value {
	return &Instr{ID: b.nextValueID(), Op: OpConstFloat, Type: t.(*Type), FloatConst: v}
}

// --- globals ---

func (b *Builder) DeclareStringGlobal(name, value string) ir.Global {
	g := &Global{Name: uniqueGlobalName(b, name), Data: value}
	b.Globals = append(b.Globals, g)
	return g
}

func uniqueGlobalName(b *Builder, base string) string {
	name := base
	for i := 2; globalNameTaken(b, name); i++ {
		name = fmt.Sprintf("%s.%d", base, i)
	}
	return name
}

func globalNameTaken(b *Builder, name string) bool {
	for _, g := range b.Globals {
		if g.Name == name {
			return true
		}
	}
	return false
}

func (b *Builder) GEPStringPointer(g ir.Global) ir.Value {
	rg := g.(*Global)
	return &Instr{ID: b.nextValueID(), Op: OpGlobalAddr, Type: tPtrI8, Global: rg}
}

// --- functions ---

func (b *Builder) DeclareFunction(name string, paramTypes []ir.Type, paramNames []string, retType ir.Type) ir.Function {
	fn := &Function{Name: name, RetType: retType.(*Type)}
	for i, pt := range paramTypes {
		rt := pt.(*Type)
		fn.ParamTypes = append(fn.ParamTypes, rt)
		pname := ""
		if i < len(paramNames) {
			pname = paramNames[i]
		}
		fn.ParamNames = append(fn.ParamNames, pname)
		fn.Params = append(fn.Params, &Instr{ID: b.nextValueID(), Op: OpParam, Type: rt, Name: pname})
	}
	b.Functions = append(b.Functions, fn)
	b.curFn = fn
	return fn
}

func (b *Builder) Params(fn ir.Function) []ir.Value {
	rf := fn.(*Function)
	out := make([]ir.Value, len(rf.Params))
	for i, p := range rf.Params {
		out[i] = p
	}
	return out
}

// EraseFunction drops fn from the module, used by the REPL driver to
// discard a failed top-level item's partial definition.
func (b *Builder) EraseFunction(fn ir.Function) {
	rf := fn.(*Function)
	for i, f := range b.Functions {
		if f == rf {
			b.Functions = append(b.Functions[:i], b.Functions[i+1:]...)
			break
		}
	}
	if b.curFn == rf {
		b.curFn = nil
		b.curBlock = nil
	}
}

// --- basic blocks ---

func (b *Builder) NewBlock(fn ir.Function, name string) ir.Block {
	rf := fn.(*Function)
	rf.blockSeq++
	blk := &Block{Name: fmt.Sprintf("%s.%d", name, rf.blockSeq), Func: rf}
	rf.Blocks = append(rf.Blocks, blk)
	return blk
}

func (b *Builder) SetInsertPoint(blk ir.Block) {
	rb := blk.(*Block)
	b.curBlock = rb
	b.curFn = rb.Func
}

func (b *Builder) CurrentBlock() ir.Block {
	if b.curBlock == nil {
		return nil
	}
	return b.curBlock
}

func (b *Builder) Terminated(blk ir.Block) bool {
	if blk == nil {
		return true
	}
	return blk.(*Block).Terminated()
}

func (b *Builder) emit(in *Instr) *Instr {
	in.ID = b.nextValueID()
	in.Block = b.curBlock
	b.curBlock.Instrs = append(b.curBlock.Instrs, in)
	return in
}

// --- memory ---

func (b *Builder) Alloca(t ir.Type, name string) ir.Value {
	return b.emit(&Instr{Op: OpAlloca, Type: tPtrI8, Name: name, Operands: []*Instr{{Type: t.(*Type)}}})
}

func (b *Builder) Load(ptr ir.Value) ir.Value {
	rp := ptr.(*Instr)
	elemType := rp.Type
	if len(rp.Operands) > 0 {
		elemType = rp.Operands[0].Type
	}
	return b.emit(&Instr{Op: OpLoad, Type: elemType, Operands: []*Instr{rp}})
}

func (b *Builder) Store(val, ptr ir.Value) {
	b.emit(&Instr{Op: OpStore, Type: tI1, Operands: []*Instr{val.(*Instr), ptr.(*Instr)}})
}

// --- integer arithmetic ---

func (b *Builder) iBinOp(op Op, l, r ir.Value) ir.Value {
	rl := l.(*Instr)
	return b.emit(&Instr{Op: op, Type: rl.Type, Operands: []*Instr{rl, r.(*Instr)}})
}

func (b *Builder) IAdd(l, r ir.Value) ir.Value { return b.iBinOp(OpIAdd, l, r) }
func (b *Builder) ISub(l, r ir.Value) ir.Value { return b.iBinOp(OpISub, l, r) }
func (b *Builder) IMul(l, r ir.Value) ir.Value { return b.iBinOp(OpIMul, l, r) }
func (b *Builder) UDiv(l, r ir.Value) ir.Value { return b.iBinOp(OpUDiv, l, r) }
func (b *Builder) SDiv(l, r ir.Value) ir.Value { return b.iBinOp(OpSDiv, l, r) }

func (b *Builder) INeg(v ir.Value) ir.Value {
	rv := v.(*Instr)
	return b.emit(&Instr{Op: OpINeg, Type: rv.Type, Operands: []*Instr{rv}})
}

// --- float arithmetic ---

func (b *Builder) fBinOp(op Op, l, r ir.Value) ir.Value {
	rl := l.(*Instr)
	return b.emit(&Instr{Op: op, Type: rl.Type, Operands: []*Instr{rl, r.(*Instr)}})
}

func (b *Builder) FAdd(l, r ir.Value) ir.Value { return b.fBinOp(OpFAdd, l, r) }
func (b *Builder) FSub(l, r ir.Value) ir.Value { return b.fBinOp(OpFSub, l, r) }
func (b *Builder) FMul(l, r ir.Value) ir.Value { return b.fBinOp(OpFMul, l, r) }
func (b *Builder) FDiv(l, r ir.Value) ir.Value { return b.fBinOp(OpFDiv, l, r) }

func (b *Builder) FNeg(v ir.Value) ir.Value {
	rv := v.(*Instr)
	return b.emit(&Instr{Op: OpFNeg, Type: rv.Type, Operands: []*Instr{rv}})
}

// --- logical ---

func (b *Builder) logic(op Op, l, r ir.Value) ir.Value {
	return b.emit(&Instr{Op: op, Type: tI1, Operands: []*Instr{l.(*Instr), r.(*Instr)}})
}

func (b *Builder) And(l, r ir.Value) ir.Value { return b.logic(OpAnd, l, r) }
func (b *Builder) Or(l, r ir.Value) ir.Value  { return b.logic(OpOr, l, r) }
func (b *Builder) Xor(l, r ir.Value) ir.Value { return b.logic(OpXor, l, r) }

func (b *Builder) Not(v ir.Value) ir.Value {
	return b.emit(&Instr{Op: OpNot, Type: tI1, Operands: []*Instr{v.(*Instr)}})
}

// --- comparisons ---

func (b *Builder) ICmp(pred ir.IntPredicate, l, r ir.Value) ir.Value {
	return b.emit(&Instr{Op: OpICmp, Type: tI1, IntPred: pred, Operands: []*Instr{l.(*Instr), r.(*Instr)}})
}

func (b *Builder) FCmp(pred ir.FloatPredicate, l, r ir.Value) ir.Value {
	rr := r.(*Instr)
	return b.emit(&Instr{Op: OpFCmp, Type: tI1, FloatPred: pred, Operands: []*Instr{l.(*Instr), rr}})
}

// --- casts ---

func (b *Builder) Cast(v ir.Value, dst ir.Type, srcSigned, dstSigned bool) ir.Value {
	rv := v.(*Instr)
	rd := dst.(*Type)
	if rv.Type == rd {
		return rv
	}
	return b.emit(&Instr{Op: OpCast, Type: rd, SrcSigned: srcSigned, DstSigned: dstSigned, Operands: []*Instr{rv}})
}

// --- calls ---

func (b *Builder) Call(fn ir.Function, args []ir.Value) ir.Value {
	rf := fn.(*Function)
	in := &Instr{Op: OpCall, Type: rf.RetType, Callee: rf}
	for _, a := range args {
		in.Operands = append(in.Operands, a.(*Instr))
	}
	return b.emit(in)
}

// --- control flow ---

func (b *Builder) CondBr(cond ir.Value, thenB, elseB ir.Block) {
	b.emit(&Instr{Op: OpCondBr, Type: tI1, Operands: []*Instr{cond.(*Instr)}, Then: thenB.(*Block), Else: elseB.(*Block)})
}

func (b *Builder) Br(blk ir.Block) {
	b.emit(&Instr{Op: OpBr, Type: tI1, Target: blk.(*Block)})
}

func (b *Builder) Phi(t ir.Type, incoming []ir.PhiIncoming) ir.Value {
	return b.emit(&Instr{Op: OpPhi, Type: t.(*Type), Incoming: incoming})
}

func (b *Builder) Ret(v ir.Value) {
	in := &Instr{Op: OpRet}
	if v != nil {
		rv := v.(*Instr)
		in.Type = rv.Type
		in.Operands = []*Instr{rv}
	} else {
		in.Type = tI1
	}
	b.emit(in)
}

// --- passes ---

func (b *Builder) AddPass(p ir.Pass) { b.passes = append(b.passes, p) }

func (b *Builder) InitPasses() {
	// No global analyses to precompute in this reference backend; the
	// hook exists so a richer pass (e.g. one keeping a cross-function
	// call graph) has somewhere to prime state once per module.
}

func (b *Builder) RunPasses(fn ir.Function) {
	rf := fn.(*Function)
	for _, p := range b.passes {
		fp, ok := p.(FunctionPass)
		if !ok {
			continue
		}
		for fp.Run(rf) {
			// Iterate the pass to a fixed point: re-run until it
			// stops finding work.
		}
	}
}

// --- emission ---

func (b *Builder) Dump(w io.Writer) error {
	return Dump(w, b)
}

func (b *Builder) EmitObject(w io.Writer, targetTriple string) error {
	return fmt.Errorf("refir: EmitObject not supported; this reference backend only supports Dump and in-process execution (refir.Exec)")
}
