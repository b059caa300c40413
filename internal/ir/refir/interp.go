package refir

import (
	"fmt"
	"math"
	"strings"

	"github.com/pudl-lang/pudlc/internal/ir"
)

// value is the tagged runtime representation Exec works with. Pudl has
// exactly two runtime scalar domains: i1/i32 share the integer lane,
// f32/f64 share the float lane.
type value struct {
	isFloat bool
	i       int64
	f       float64
}

func (v value) asFloat() float64 {
	if v.isFloat {
		return v.f
	}
	return float64(v.i)
}

// Exec is the in-process executor standing in for an external JIT or
// linked-executable backend. It directly walks a refir.Function's basic
// blocks, which is enough to run compiled programs end to end without a
// native target.
type Exec struct {
	b *Builder

	// Print is called for the typed dialect's print statement (lowered
	// to a call of a synthetic "print.<type>" function); it defaults to
	// writing "%f\n" (float) or "%d\n" (int/bool) to stdout but tests
	// substitute a buffer.
	Print func(v float64, isFloat bool)
	// ExternFunc resolves calls to extern-declared functions that have
	// no refir body, used by the expression dialect's extern feature;
	// the zero value refuses all externs.
	ExternFunc func(name string, args []float64) (float64, error)
}

// NewExec builds an executor bound to b's current module contents.
func NewExec(b *Builder) *Exec {
	return &Exec{b: b, Print: defaultPrint}
}

func defaultPrint(v float64, isFloat bool) {
	if isFloat {
		fmt.Printf("%f\n", v)
	} else {
		fmt.Printf("%d\n", int64(v))
	}
}

// CallFunction runs fn (previously declared via Builder.DeclareFunction
// and populated with blocks by the code generator) with the given
// arguments, returning its result as a float64 (Pudl's only
// dynamically-uniform numeric domain at the driver boundary; the typed
// dialect's int results are exact within a float64's 53 mantissa bits
// for every integer Pudl can represent, since it has no 64-bit type).
func (e *Exec) CallFunction(name string, args []float64) (float64, error) {
	fn := e.lookup(name)
	if fn == nil {
		return 0, fmt.Errorf("refir: no such function %q", name)
	}
	argVals := make([]value, len(args))
	for i, a := range args {
		argVals[i] = value{isFloat: fn.ParamTypes[i].Kind == KF32 || fn.ParamTypes[i].Kind == KF64, f: a, i: int64(a)}
	}
	v, err := e.run(fn, argVals)
	if err != nil {
		return 0, err
	}
	return v.asFloat(), nil
}

// lookup scans newest-first: the REPL appends a fresh function per
// top-level item, and a redefinition (or each successive __anon_expr)
// must shadow the older one of the same name.
func (e *Exec) lookup(name string) *Function {
	for i := len(e.b.Functions) - 1; i >= 0; i-- {
		if e.b.Functions[i].Name == name {
			return e.b.Functions[i]
		}
	}
	return nil
}

type frame struct {
	vals    map[*Instr]value
	allocas map[*Instr]value
}

func newFrame() *frame {
	return &frame{vals: map[*Instr]value{}, allocas: map[*Instr]value{}}
}

// run interprets fn starting at its entry block until a Ret is reached.
func (e *Exec) run(fn *Function, args []value) (value, error) {
	if len(fn.Blocks) == 0 {
		return value{}, fmt.Errorf("refir: function %q has no body (extern-only)", fn.Name)
	}
	fr := newFrame()
	for i, p := range fn.Params {
		fr.vals[p] = args[i]
	}
	blk := fn.EntryBlock()
	var prev *Block
	for {
		for _, in := range blk.Instrs {
			if in.isTerminator() {
				break
			}
			if in.Op == OpPhi {
				continue // already resolved on the edge by resolvePhis
			}
			v, err := e.step(fr, in)
			if err != nil {
				return value{}, err
			}
			fr.vals[in] = v
		}
		term := blk.last()
		if term == nil {
			return value{}, fmt.Errorf("refir: block %s has no terminator", blk.Name)
		}
		switch term.Op {
		case OpRet:
			if len(term.Operands) == 0 {
				return value{}, nil
			}
			return e.operand(fr, term.Operands[0]), nil
		case OpBr:
			prev, blk = blk, term.Target
		case OpCondBr:
			cond := e.operand(fr, term.Operands[0])
			prev = blk
			if cond.i != 0 {
				blk = term.Then
			} else {
				blk = term.Else
			}
		default:
			return value{}, fmt.Errorf("refir: malformed terminator %s", term.Op)
		}
		e.resolvePhis(fr, blk, prev)
	}
}

// resolvePhis evaluates every leading Phi of blk against the edge
// just taken from prev, matching how a real SSA interpreter treats phi
// nodes as "happening on the edge" rather than inside the block.
func (e *Exec) resolvePhis(fr *frame, blk, prev *Block) {
	for _, in := range blk.Instrs {
		if in.Op != OpPhi {
			return
		}
		for _, inc := range in.Incoming {
			if inc.Pred.(*Block) == prev {
				fr.vals[in] = e.operand(fr, inc.Value.(*Instr))
				break
			}
		}
	}
}

func (e *Exec) operand(fr *frame, in *Instr) value {
	switch in.Op {
	case OpConstInt:
		return value{i: in.IntConst}
	case OpConstFloat:
		return value{isFloat: true, f: in.FloatConst}
	default:
		return fr.vals[in]
	}
}

func (e *Exec) step(fr *frame, in *Instr) (value, error) {
	switch in.Op {
	case OpConstInt, OpConstFloat, OpParam:
		return e.operand(fr, in), nil
	case OpGlobalAddr:
		return value{}, nil // string globals are opaque to this executor; print handles its own formatting
	case OpAlloca:
		fr.allocas[in] = value{isFloat: in.Operands[0].Type.Kind == KF32 || in.Operands[0].Type.Kind == KF64}
		return value{}, nil
	case OpLoad:
		ptr := in.Operands[0]
		return fr.allocas[ptr], nil
	case OpStore:
		ptr := in.Operands[1]
		fr.allocas[ptr] = e.operand(fr, in.Operands[0])
		return value{}, nil
	case OpIAdd:
		return e.ibin(fr, in, func(a, b int64) int64 { return a + b }), nil
	case OpISub:
		return e.ibin(fr, in, func(a, b int64) int64 { return a - b }), nil
	case OpIMul:
		return e.ibin(fr, in, func(a, b int64) int64 { return a * b }), nil
	case OpUDiv:
		return e.ibin(fr, in, func(a, b int64) int64 { return int64(uint64(a) / uint64(b)) }), nil
	case OpSDiv:
		return e.ibin(fr, in, func(a, b int64) int64 { return a / b }), nil
	case OpINeg:
		a := e.operand(fr, in.Operands[0])
		return value{i: -a.i}, nil
	case OpFAdd:
		return e.fbin(fr, in, func(a, b float64) float64 { return a + b }), nil
	case OpFSub:
		return e.fbin(fr, in, func(a, b float64) float64 { return a - b }), nil
	case OpFMul:
		return e.fbin(fr, in, func(a, b float64) float64 { return a * b }), nil
	case OpFDiv:
		return e.fbin(fr, in, func(a, b float64) float64 { return a / b }), nil
	case OpFNeg:
		a := e.operand(fr, in.Operands[0])
		return value{isFloat: true, f: -a.f}, nil
	case OpAnd:
		return e.ibin(fr, in, func(a, b int64) int64 { return b1(a != 0 && b != 0) }), nil
	case OpOr:
		return e.ibin(fr, in, func(a, b int64) int64 { return b1(a != 0 || b != 0) }), nil
	case OpXor:
		return e.ibin(fr, in, func(a, b int64) int64 { return b1((a != 0) != (b != 0)) }), nil
	case OpNot:
		a := e.operand(fr, in.Operands[0])
		return value{i: b1(a.i == 0)}, nil
	case OpICmp:
		a, bb := e.operand(fr, in.Operands[0]), e.operand(fr, in.Operands[1])
		return value{i: b1(evalIntPred(in.IntPred, a.i, bb.i))}, nil
	case OpFCmp:
		a, bb := e.operand(fr, in.Operands[0]), e.operand(fr, in.Operands[1])
		return value{i: b1(evalFloatPred(in.FloatPred, a.f, bb.f))}, nil
	case OpCast:
		a := e.operand(fr, in.Operands[0])
		if in.Type.Kind == KF32 || in.Type.Kind == KF64 {
			return value{isFloat: true, f: a.asFloat()}, nil
		}
		return value{i: int64(a.asFloat())}, nil
	case OpCall:
		return e.call(fr, in)
	default:
		return value{}, fmt.Errorf("refir: cannot execute opcode %s", in.Op)
	}
}

func (e *Exec) ibin(fr *frame, in *Instr, f func(a, b int64) int64) value {
	a, b := e.operand(fr, in.Operands[0]), e.operand(fr, in.Operands[1])
	return value{i: f(a.i, b.i)}
}

func (e *Exec) fbin(fr *frame, in *Instr, f func(a, b float64) float64) value {
	a, b := e.operand(fr, in.Operands[0]), e.operand(fr, in.Operands[1])
	return value{isFloat: true, f: f(a.f, b.f)}
}

func (e *Exec) call(fr *frame, in *Instr) (value, error) {
	args := make([]float64, len(in.Operands))
	for i, op := range in.Operands {
		args[i] = e.operand(fr, op).asFloat()
	}
	if strings.HasPrefix(in.Callee.Name, "print.") {
		if len(args) == 0 {
			return value{}, nil
		}
		isFloat := in.Operands[0].Type.Kind == KF32 || in.Operands[0].Type.Kind == KF64
		e.Print(args[0], isFloat)
		return value{}, nil
	}
	if len(in.Callee.Blocks) == 0 {
		if e.ExternFunc == nil {
			return value{}, fmt.Errorf("refir: extern function %q has no resolver", in.Callee.Name)
		}
		r, err := e.ExternFunc(in.Callee.Name, args)
		return value{isFloat: true, f: r}, err
	}
	argVals := make([]value, len(args))
	for i, a := range args {
		argVals[i] = value{isFloat: in.Callee.ParamTypes[i].Kind == KF32 || in.Callee.ParamTypes[i].Kind == KF64, f: a, i: int64(a)}
	}
	return e.run(in.Callee, argVals)
}

func b1(cond bool) int64 {
	if cond {
		return 1
	}
	return 0
}

func evalIntPred(p ir.IntPredicate, a, b int64) bool {
	switch p {
	case ir.IEQ:
		return a == b
	case ir.INE:
		return a != b
	case ir.ISGT:
		return a > b
	case ir.ISLT:
		return a < b
	case ir.ISGE:
		return a >= b
	case ir.ISLE:
		return a <= b
	default:
		return false
	}
}

func evalFloatPred(p ir.FloatPredicate, a, b float64) bool {
	switch p {
	case ir.FOEQ:
		return a == b
	case ir.FONE:
		return a != b
	case ir.FOGT:
		return a > b
	case ir.FOLT:
		return a < b
	case ir.FOGE:
		return a >= b
	case ir.FOLE:
		return a <= b
	case ir.FONEZero:
		return a != 0 && !math.IsNaN(a)
	default:
		return false
	}
}
