package codegen

import (
	"fmt"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/ir"
	"github.com/pudl-lang/pudlc/internal/types"
)

// GenFunctionDef lowers one expression-dialect "def" item to a defined
// IR function, for the REPL/top-level driving mode: each item is
// generated independently as soon as it is parsed, unlike the typed
// dialect's whole-module GenTypedProgram.
func (g *Generator) GenFunctionDef(fd *ast.FunctionDef) (ir.Function, error) {
	paramTypes := make([]ir.Type, len(fd.Params))
	paramNames := make([]string, len(fd.Params))
	sigTypes := make([]types.Type, len(fd.Params))
	for i, p := range fd.Params {
		paramTypes[i] = g.b.F64()
		paramNames[i] = p.Name
		sigTypes[i] = types.Float
	}
	fn := g.b.DeclareFunction(fd.Name, paramTypes, paramNames, g.b.F64())
	g.funcs[fd.Name] = fn
	g.sigs[fd.Name] = &funcSig{paramTypes: sigTypes, retType: types.Float}

	g.curFnVal = fn
	g.curRetType = types.Float
	entry := g.b.NewBlock(fn, "entry")
	g.b.SetInsertPoint(entry)

	g.locals = map[string]ir.Value{}
	g.localTy = map[string]types.Type{}
	params := g.b.Params(fn)
	for i, p := range fd.Params {
		slot := g.b.Alloca(g.b.F64(), p.Name)
		g.b.Store(params[i], slot)
		g.locals[p.Name] = slot
		g.localTy[p.Name] = types.Float
	}

	v, _, err := g.genExpr(fd.BodyExpr)
	if err != nil {
		// Discard the partial definition so the module never holds an
		// unterminated function body; a later item may then re-use the
		// name cleanly.
		g.b.EraseFunction(fn)
		if g.funcs[fd.Name] == fn {
			delete(g.funcs, fd.Name)
			delete(g.sigs, fd.Name)
		}
		return nil, err
	}
	g.b.Ret(v)
	return fn, nil
}

// GenExtern records an extern-declared prototype in the function table
// without emitting a body; internal/ir/refir.Exec.ExternFunc resolves
// calls to it at execution time.
func (g *Generator) GenExtern(ext *ast.Extern) ir.Function {
	paramTypes := make([]ir.Type, len(ext.Proto.Params))
	paramNames := make([]string, len(ext.Proto.Params))
	sigTypes := make([]types.Type, len(ext.Proto.Params))
	for i, p := range ext.Proto.Params {
		paramTypes[i] = g.b.F64()
		paramNames[i] = p.Name
		sigTypes[i] = types.Float
	}
	fn := g.b.DeclareFunction(ext.Proto.Name, paramTypes, paramNames, g.b.F64())
	g.b.EraseFunction(fn) // extern: never emitted as a defined function in Dump output
	g.funcs[ext.Proto.Name] = fn
	g.sigs[ext.Proto.Name] = &funcSig{paramTypes: sigTypes, retType: types.Float}
	return fn
}

// GenTopLevelExpr wraps a bare top-level expression in the synthetic
// ast.AnonFuncName function and generates it, for the REPL's
// wrap-evaluate-print sequence.
func (g *Generator) GenTopLevelExpr(e *ast.TopLevelExpr) (ir.Function, error) {
	fd := &ast.FunctionDef{
		Position: e.Position,
		Name:     ast.AnonFuncName,
		BodyExpr: e.Expr,
	}
	return g.GenFunctionDef(fd)
}

func (g *Generator) genIfExpr(n *ast.IfExpr) (ir.Value, types.Type, error) {
	cond, ct, err := g.genExpr(n.Cond)
	if err != nil {
		return nil, types.Undefined, err
	}
	if ct != types.Bool {
		cond = g.b.FCmp(fONEZeroPred(), cond, g.b.ConstFloat(g.b.F64(), 0))
	}
	fn := g.curFn()
	thenB := g.b.NewBlock(fn, "if.then")
	elseB := g.b.NewBlock(fn, "if.else")
	mergeB := g.b.NewBlock(fn, "if.merge")
	g.b.CondBr(cond, thenB, elseB)

	g.b.SetInsertPoint(thenB)
	thenV, _, err := g.genExpr(n.Then)
	if err != nil {
		return nil, types.Undefined, err
	}
	thenEnd := g.b.CurrentBlock()
	g.b.Br(mergeB)

	g.b.SetInsertPoint(elseB)
	elseV, _, err := g.genExpr(n.Else)
	if err != nil {
		return nil, types.Undefined, err
	}
	elseEnd := g.b.CurrentBlock()
	g.b.Br(mergeB)

	g.b.SetInsertPoint(mergeB)
	phi := g.b.Phi(g.b.F64(), []ir.PhiIncoming{
		{Value: thenV, Pred: thenEnd},
		{Value: elseV, Pred: elseEnd},
	})
	return phi, types.Float, nil
}

// genForExpr lowers "for var = start, end[, step] in body" to a
// classic three-block counted loop with the induction variable carried
// through a phi node; the whole expression evaluates to 0.0.
func (g *Generator) genForExpr(n *ast.ForExpr) (ir.Value, types.Type, error) {
	fn := g.curFn()
	startV, _, err := g.genExpr(n.Start)
	if err != nil {
		return nil, types.Undefined, err
	}
	preheader := g.b.CurrentBlock()

	loopB := g.b.NewBlock(fn, "for.loop")
	afterB := g.b.NewBlock(fn, "for.after")
	g.b.Br(loopB)
	g.b.SetInsertPoint(loopB)

	indVar := g.b.Phi(g.b.F64(), nil) // incoming list patched below, once we know the latch block
	savedSlot, hadShadow := g.locals[n.Var]
	savedTy := g.localTy[n.Var]
	// The induction variable is a pure SSA phi, not a stack slot, but
	// genExpr's ast.Var case reads through g.locals; shadow it with an
	// alloca initialized from the phi so the body can reference it
	// uniformly with every other local (same trick the typed dialect
	// uses for every variable).
	shadow := g.b.Alloca(g.b.F64(), n.Var)
	g.b.Store(indVar, shadow)
	g.locals[n.Var] = shadow
	g.localTy[n.Var] = types.Float

	if _, _, err := g.genExpr(n.Body); err != nil {
		return nil, types.Undefined, err
	}

	var stepV ir.Value
	if n.Step != nil {
		stepV, _, err = g.genExpr(n.Step)
	} else {
		stepV = g.b.ConstFloat(g.b.F64(), 1)
	}
	if err != nil {
		return nil, types.Undefined, err
	}
	curV := g.b.Load(shadow)
	nextV := g.b.FAdd(curV, stepV)

	endV, endT, err := g.genExpr(n.End)
	if err != nil {
		return nil, types.Undefined, err
	}
	if endT != types.Bool {
		endV = g.b.FCmp(fONEZeroPred(), endV, g.b.ConstFloat(g.b.F64(), 0))
	}
	latch := g.b.CurrentBlock()
	g.b.CondBr(endV, loopB, afterB)

	// Patch the phi's incoming edges now that both the preheader and the
	// latch block are known (mirrors how a real SSA builder back-patches
	// loop headers once the back edge exists).
	g.patchPhiIncoming(indVar, []ir.PhiIncoming{
		{Value: startV, Pred: preheader},
		{Value: nextV, Pred: latch},
	})

	g.b.SetInsertPoint(afterB)
	if hadShadow {
		g.locals[n.Var] = savedSlot
		g.localTy[n.Var] = savedTy
	} else {
		delete(g.locals, n.Var)
		delete(g.localTy, n.Var)
	}
	return g.b.ConstFloat(g.b.F64(), 0), types.Float, nil
}

func (g *Generator) genVarExpr(n *ast.VarExpr) (ir.Value, types.Type, error) {
	type saved struct {
		slot ir.Value
		ty   types.Type
		had  bool
	}
	savedByName := map[string]saved{}
	for _, bind := range n.Bindings {
		var initV ir.Value
		if bind.Init != nil {
			v, _, err := g.genExpr(bind.Init)
			if err != nil {
				return nil, types.Undefined, err
			}
			initV = v
		} else {
			initV = g.b.ConstFloat(g.b.F64(), 0)
		}
		prevSlot, had := g.locals[bind.Name]
		savedByName[bind.Name] = saved{slot: prevSlot, ty: g.localTy[bind.Name], had: had}
		slot := g.b.Alloca(g.b.F64(), bind.Name)
		g.b.Store(initV, slot)
		g.locals[bind.Name] = slot
		g.localTy[bind.Name] = types.Float
	}

	v, vt, err := g.genExpr(n.Body)

	for name, s := range savedByName {
		if s.had {
			g.locals[name] = s.slot
			g.localTy[name] = s.ty
		} else {
			delete(g.locals, name)
			delete(g.localTy, name)
		}
	}
	if err != nil {
		return nil, types.Undefined, err
	}
	return v, vt, nil
}

// patchPhiIncoming is a small escape hatch for the reference backend: a
// Phi built via ir.Builder.Phi with a nil incoming list must still be
// filled in once the predecessor blocks exist. Concrete backends that
// need eager incoming lists can ignore this by always passing a
// pre-patched list; refir stores Incoming directly on the instruction.
func (g *Generator) patchPhiIncoming(v ir.Value, incoming []ir.PhiIncoming) {
	type patchable interface {
		SetIncoming([]ir.PhiIncoming)
	}
	if p, ok := v.(patchable); ok {
		p.SetIncoming(incoming)
		return
	}
	panic(fmt.Sprintf("codegen: backend %T does not support patching phi incoming lists", v))
}

func fONEZeroPred() ir.FloatPredicate { return ir.FONEZero }
