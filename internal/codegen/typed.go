package codegen

import (
	"fmt"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/ir"
	"github.com/pudl-lang/pudlc/internal/token"
	"github.com/pudl-lang/pudlc/internal/types"
)

// GenTypedProgram lowers a whole typed-dialect translation unit in one
// pass, matching the Batch driving mode: every function
// signature is declared before any body is generated, so calls to
// functions defined later in the file resolve without a forward-
// declaration syntax, mirroring the parser's own prescanSignatures pass.
func (g *Generator) GenTypedProgram(prog *ast.Program) error {
	for _, item := range prog.Items {
		fd, ok := item.(*ast.FunctionDef)
		if !ok {
			continue
		}
		g.declareTypedSignature(fd)
	}
	for _, item := range prog.Items {
		fd, ok := item.(*ast.FunctionDef)
		if !ok {
			continue
		}
		if err := g.genTypedFunction(fd); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) declareTypedSignature(fd *ast.FunctionDef) {
	paramTypes := make([]ir.Type, len(fd.Params))
	paramNames := make([]string, len(fd.Params))
	sigTypes := make([]types.Type, len(fd.Params))
	for i, p := range fd.Params {
		paramTypes[i] = g.irType(p.Typ)
		paramNames[i] = p.Name
		sigTypes[i] = p.Typ
	}
	fn := g.b.DeclareFunction(fd.Name, paramTypes, paramNames, g.irType(fd.ReturnType))
	g.funcs[fd.Name] = fn
	g.sigs[fd.Name] = &funcSig{paramTypes: sigTypes, retType: fd.ReturnType}
}

func (g *Generator) genTypedFunction(fd *ast.FunctionDef) error {
	fn := g.funcs[fd.Name]
	g.curFnVal = fn
	g.curRetType = fd.ReturnType
	entry := g.b.NewBlock(fn, "entry")
	g.b.SetInsertPoint(entry)

	g.locals = map[string]ir.Value{}
	g.localTy = map[string]types.Type{}

	params := g.b.Params(fn)
	for i, p := range fd.Params {
		slot := g.b.Alloca(g.irType(p.Typ), p.Name)
		g.b.Store(params[i], slot)
		g.locals[p.Name] = slot
		g.localTy[p.Name] = p.Typ
	}

	if err := g.genStmt(fd.Body); err != nil {
		return err
	}

	// A function whose body falls through without an explicit return
	// implicitly returns the zero value of its declared return type.
	if !g.b.Terminated(g.b.CurrentBlock()) {
		g.b.Ret(g.zeroValue(fd.ReturnType))
	}
	return nil
}

func (g *Generator) zeroValue(t types.Type) ir.Value {
	switch t {
	case types.Bool:
		return g.b.ConstInt(g.b.I1(), 0)
	case types.Integer:
		return g.b.ConstInt(g.b.I32(), 0)
	case types.Float:
		return g.b.ConstFloat(g.b.F64(), 0)
	default:
		panic("codegen: zeroValue of undefined type")
	}
}

func (g *Generator) genStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.Block:
		for _, st := range n.Stmts {
			if err := g.genStmt(st); err != nil {
				return err
			}
			if g.b.Terminated(g.b.CurrentBlock()) {
				break // a Return/unreachable branch already closed this block
			}
		}
		return nil

	case *ast.Decl:
		val, vt, err := g.genExpr(n.Value)
		if err != nil {
			return err
		}
		slot := g.b.Alloca(g.irType(n.Target.Typ), n.Target.Name)
		g.b.Store(g.cast(val, vt, n.Target.Typ), slot)
		g.locals[n.Target.Name] = slot
		g.localTy[n.Target.Name] = n.Target.Typ
		return nil

	case *ast.Assign:
		val, vt, err := g.genExpr(n.Value)
		if err != nil {
			return err
		}
		slot, ok := g.locals[n.Target.Name]
		if !ok {
			return g.codegenErr(n.Position, "assignment to undeclared variable %q", n.Target.Name)
		}
		g.b.Store(g.cast(val, vt, n.Target.Typ), slot)
		return nil

	case *ast.If:
		return g.genIf(n)

	case *ast.While:
		return g.genWhile(n)

	case *ast.DoWhile:
		return g.genDoWhile(n)

	case *ast.Print:
		val, vt, err := g.genExpr(n.Sub)
		if err != nil {
			return err
		}
		g.b.Call(g.ensurePrintFn(vt), []ir.Value{val})
		return nil

	case *ast.Return:
		val, vt, err := g.genExpr(n.Sub)
		if err != nil {
			return err
		}
		g.b.Ret(g.cast(val, vt, g.curRetType))
		return nil

	case *ast.ExprStmt:
		_, _, err := g.genExpr(n.Sub)
		return err

	default:
		return fmt.Errorf("codegen: unhandled statement %T", s)
	}
}

// genIf lowers "if cond then else" into three or four basic blocks: a
// then-block, an optional else-block, and a shared merge block that
// execution resumes at.
func (g *Generator) genIf(n *ast.If) error {
	cond, ct, err := g.genExpr(n.Cond)
	if err != nil {
		return err
	}
	if ct != types.Bool {
		return g.codegenErr(n.Position, "if condition must be bool, got %s", ct)
	}
	fn := g.curFn()
	thenB := g.b.NewBlock(fn, "if.then")
	mergeB := g.b.NewBlock(fn, "if.merge")
	elseB := mergeB
	if n.Else != nil {
		elseB = g.b.NewBlock(fn, "if.else")
	}
	g.b.CondBr(cond, thenB, elseB)

	g.b.SetInsertPoint(thenB)
	if err := g.genStmt(n.Then); err != nil {
		return err
	}
	if !g.b.Terminated(g.b.CurrentBlock()) {
		g.b.Br(mergeB)
	}

	if n.Else != nil {
		g.b.SetInsertPoint(elseB)
		if err := g.genStmt(n.Else); err != nil {
			return err
		}
		if !g.b.Terminated(g.b.CurrentBlock()) {
			g.b.Br(mergeB)
		}
	}

	g.b.SetInsertPoint(mergeB)
	return nil
}

func (g *Generator) genWhile(n *ast.While) error {
	fn := g.curFn()
	condB := g.b.NewBlock(fn, "while.cond")
	bodyB := g.b.NewBlock(fn, "while.body")
	endB := g.b.NewBlock(fn, "while.end")

	g.b.Br(condB)
	g.b.SetInsertPoint(condB)
	cond, ct, err := g.genExpr(n.Cond)
	if err != nil {
		return err
	}
	if ct != types.Bool {
		return g.codegenErr(n.Position, "while condition must be bool, got %s", ct)
	}
	g.b.CondBr(cond, bodyB, endB)

	g.b.SetInsertPoint(bodyB)
	if err := g.genStmt(n.Body); err != nil {
		return err
	}
	if !g.b.Terminated(g.b.CurrentBlock()) {
		g.b.Br(condB)
	}

	g.b.SetInsertPoint(endB)
	return nil
}

func (g *Generator) genDoWhile(n *ast.DoWhile) error {
	fn := g.curFn()
	bodyB := g.b.NewBlock(fn, "dowhile.body")
	condB := g.b.NewBlock(fn, "dowhile.cond")
	endB := g.b.NewBlock(fn, "dowhile.end")

	g.b.Br(bodyB)
	g.b.SetInsertPoint(bodyB)
	if err := g.genStmt(n.Body); err != nil {
		return err
	}
	if !g.b.Terminated(g.b.CurrentBlock()) {
		g.b.Br(condB)
	}

	g.b.SetInsertPoint(condB)
	cond, ct, err := g.genExpr(n.Cond)
	if err != nil {
		return err
	}
	if ct != types.Bool {
		return g.codegenErr(n.Position, "do/while condition must be bool, got %s", ct)
	}
	g.b.CondBr(cond, bodyB, endB)

	g.b.SetInsertPoint(endB)
	return nil
}

// codegenErr reports a codegen-stage diagnostic. Unlike the parser's
// errors (which recover and keep scanning), a codegen error aborts
// generation: of the whole module in GenTypedProgram, of the current
// top-level item in the expression dialect's per-item entry points.
func (g *Generator) codegenErr(pos token.Position, format string, args ...interface{}) error {
	return fmt.Errorf("%d:%d: %s", pos.Line, pos.Column, fmt.Sprintf(format, args...))
}
