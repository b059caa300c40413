// Package codegen lowers Pudl's AST to IR through the abstract
// internal/ir.Builder contract: typed-dialect statements become
// basic-block control flow over alloca'd locals, and expression-dialect
// "if"/"for"/"var" forms become phi-joined basic blocks in the classic
// Kaleidoscope style. Each visit returns the produced ir.Value directly
// rather than pushing it through a side-effecting operand stack.
package codegen

import (
	"fmt"

	"github.com/pudl-lang/pudlc/internal/ir"
	"github.com/pudl-lang/pudlc/internal/types"
)

// Generator owns the running ir.Builder and the per-function scopes: a
// single name->alloca map, since Pudl's typed dialect has no
// block-local scoping.
type Generator struct {
	b ir.Builder

	funcs map[string]ir.Function // module-wide function signature table
	sigs  map[string]*funcSig

	locals  map[string]ir.Value // name -> alloca pointer, current function
	localTy map[string]types.Type

	printFns map[types.Type]ir.Function

	curFnVal   ir.Function
	curRetType types.Type
}

func (g *Generator) curFn() ir.Function { return g.curFnVal }

type funcSig struct {
	paramTypes []types.Type
	retType    types.Type
}

// New creates a Generator over an empty module owned by b.
func New(b ir.Builder) *Generator {
	return &Generator{
		b:        b,
		funcs:    map[string]ir.Function{},
		sigs:     map[string]*funcSig{},
		locals:   map[string]ir.Value{},
		localTy:  map[string]types.Type{},
		printFns: map[types.Type]ir.Function{},
	}
}

// Builder exposes the underlying IR builder, e.g. so the driver can call
// Dump/EmitObject/RunPasses after generation.
func (g *Generator) Builder() ir.Builder { return g.b }

func (g *Generator) irType(t types.Type) ir.Type {
	switch t {
	case types.Bool:
		return g.b.I1()
	case types.Integer:
		return g.b.I32()
	case types.Float:
		return g.b.F64()
	default:
		panic(fmt.Sprintf("codegen: no IR type for %s", t))
	}
}

func (g *Generator) signed(t types.Type) bool {
	return t == types.Integer
}

// ensurePrintFn lazily declares the synthetic, extern-style "print"
// intrinsic the typed dialect's print statement lowers to,
// one overload per argument type since Pudl has no variadics;
// internal/ir/refir's executor special-cases any call whose callee name
// starts with "print.".
// Declaring it never gives it a body, so it never occupies a real
// insertion point, but DeclareFunction still moves the builder's
// "current function" cursor — save and restore the block the caller was
// actually emitting into around the declare/erase pair.
func (g *Generator) ensurePrintFn(argType types.Type) ir.Function {
	if fn, ok := g.printFns[argType]; ok {
		return fn
	}
	savedBlock := g.b.CurrentBlock()
	name := "print." + argType.String()
	fn := g.b.DeclareFunction(name, []ir.Type{g.irType(argType)}, []string{"v"}, g.b.I1())
	g.b.EraseFunction(fn) // intrinsic: never emitted as a real function in Dump output
	if savedBlock != nil {
		g.b.SetInsertPoint(savedBlock)
	}
	g.printFns[argType] = fn
	return fn
}

// cast converts v (of static type from) to static type to, choosing
// the conversion by the (srcSigned, dstSigned, srcType, dstType)
// quadruple, for numeric promotion and assignment/return/call coercion.
func (g *Generator) cast(v ir.Value, from, to types.Type) ir.Value {
	if from == to {
		return v
	}
	return g.b.Cast(v, g.irType(to), g.signed(from), g.signed(to))
}

// widen applies the promotion rule (types.Promote) to a binary operator's
// two operands, inserting a cast on whichever side is narrower.
func (g *Generator) widen(lv ir.Value, lt types.Type, rv ir.Value, rt types.Type) (ir.Value, ir.Value, types.Type) {
	result := types.Promote(lt, rt)
	return g.cast(lv, lt, result), g.cast(rv, rt, result), result
}

// comparisonResult adapts a raw i1 comparison to the static type the
// parser already assigned the enclosing ast.Binary: the typed dialect
// declares comparisons Bool, but the expression dialect declares every
// expression (including comparisons) Float, representing true/false as
// 1.0/0.0 doubles exactly as the Kaleidoscope tutorial's
// "convert bool 0/1 to double" step does.
func (g *Generator) comparisonResult(i1 ir.Value, want types.Type) ir.Value {
	if want == types.Bool {
		return i1
	}
	return g.cast(i1, types.Bool, want)
}
