package codegen

import (
	"fmt"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/ir"
	"github.com/pudl-lang/pudlc/internal/types"
)

// genExpr lowers any shared AST expression node to an ir.Value, along
// with the static type that value carries. Dialect-only node kinds
// (ast.IfExpr, ast.ForExpr, ast.VarExpr — expression dialect; plain
// ast.If/ast.While statements belong to the typed dialect and are
// handled in typed.go) are dispatched to the matching *Expr method.
func (g *Generator) genExpr(e ast.Expr) (ir.Value, types.Type, error) {
	switch n := e.(type) {
	case *ast.IntLit:
		return g.b.ConstInt(g.b.I32(), int64(n.Value)), types.Integer, nil

	case *ast.FloatLit:
		return g.b.ConstFloat(g.b.F64(), float64(n.Value)), types.Float, nil

	case *ast.BoolLit:
		v := int64(0)
		if n.Value {
			v = 1
		}
		return g.b.ConstInt(g.b.I1(), v), types.Bool, nil

	case *ast.Var:
		slot, ok := g.locals[n.Name]
		if !ok {
			return nil, types.Undefined, g.codegenErr(n.Position, "undeclared variable %q", n.Name)
		}
		return g.b.Load(slot), g.localTy[n.Name], nil

	case *ast.Unary:
		return g.genUnary(n)

	case *ast.Binary:
		return g.genBinary(n)

	case *ast.Call:
		return g.genCall(n)

	case *ast.IfExpr:
		return g.genIfExpr(n)

	case *ast.ForExpr:
		return g.genForExpr(n)

	case *ast.VarExpr:
		return g.genVarExpr(n)

	default:
		return nil, types.Undefined, fmt.Errorf("codegen: unhandled expression %T", e)
	}
}

func (g *Generator) genUnary(n *ast.Unary) (ir.Value, types.Type, error) {
	sub, st, err := g.genExpr(n.Sub)
	if err != nil {
		return nil, types.Undefined, err
	}
	switch n.Op {
	case ast.UnaryNeg:
		if !st.IsNumeric() {
			return nil, types.Undefined, g.codegenErr(n.Position, "unary - requires a numeric operand, got %s", st)
		}
		if st == types.Float {
			return g.b.FNeg(sub), types.Float, nil
		}
		return g.b.INeg(sub), types.Integer, nil
	case ast.UnaryNot:
		if st != types.Bool {
			return nil, types.Undefined, g.codegenErr(n.Position, "unary ! requires a bool operand, got %s", st)
		}
		return g.b.Not(sub), types.Bool, nil
	default:
		// Expression-dialect user-defined unary operator, e.g. "!x"
		// resolving to a "def unary!(x) ..." declaration.
		name := "unary" + n.UserOp
		if fn, ok := g.funcs[name]; ok {
			return g.b.Call(fn, []ir.Value{sub}), g.sigs[name].retType, nil
		}
		return nil, types.Undefined, g.codegenErr(n.Position, "no such unary operator %q", n.UserOp)
	}
}

func (g *Generator) genBinary(n *ast.Binary) (ir.Value, types.Type, error) {
	if n.Op == ast.OpAssign {
		return g.genAssignExpr(n)
	}

	lv, lt, err := g.genExpr(n.Lhs)
	if err != nil {
		return nil, types.Undefined, err
	}
	rv, rt, err := g.genExpr(n.Rhs)
	if err != nil {
		return nil, types.Undefined, err
	}

	switch n.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		if !lt.IsNumeric() || !rt.IsNumeric() {
			return nil, types.Undefined, g.codegenErr(n.Position, "operator %s requires numeric operands", n.Op)
		}
		lv, rv, result := g.widen(lv, lt, rv, rt)
		return g.arith(n.Op, lv, rv, result), result, nil

	case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		if !lt.IsNumeric() || !rt.IsNumeric() {
			return nil, types.Undefined, g.codegenErr(n.Position, "operator %s requires numeric operands", n.Op)
		}
		lv, rv, result := g.widen(lv, lt, rv, rt)
		return g.comparisonResult(g.compare(n.Op, lv, rv, result), n.Typ), n.Typ, nil

	case ast.OpEq, ast.OpNe:
		if lt.IsNumeric() && rt.IsNumeric() {
			lv, rv, result := g.widen(lv, lt, rv, rt)
			return g.comparisonResult(g.compare(n.Op, lv, rv, result), n.Typ), n.Typ, nil
		}
		if lt != types.Bool || rt != types.Bool {
			return nil, types.Undefined, g.codegenErr(n.Position, "operator %s requires operands of the same comparable type", n.Op)
		}
		var i1 ir.Value
		if n.Op == ast.OpEq {
			i1 = g.b.Not(g.b.Xor(lv, rv))
		} else {
			i1 = g.b.Xor(lv, rv)
		}
		return g.comparisonResult(i1, n.Typ), n.Typ, nil

	case ast.OpAnd, ast.OpOr, ast.OpXor:
		if lt != types.Bool || rt != types.Bool {
			return nil, types.Undefined, g.codegenErr(n.Position, "operator %s requires bool operands", n.Op)
		}
		switch n.Op {
		case ast.OpAnd:
			return g.b.And(lv, rv), types.Bool, nil
		case ast.OpOr:
			return g.b.Or(lv, rv), types.Bool, nil
		default:
			return g.b.Xor(lv, rv), types.Bool, nil
		}

	default:
		// Expression-dialect user-defined binary operator, e.g. "x |y"
		// resolving to a "def binary|(x y) ..." declaration.
		name := "binary" + n.UserOp
		if fn, ok := g.funcs[name]; ok {
			return g.b.Call(fn, []ir.Value{lv, rv}), g.sigs[name].retType, nil
		}
		return nil, types.Undefined, g.codegenErr(n.Position, "no such binary operator %q", n.UserOp)
	}
}

func (g *Generator) arith(op ast.BinaryOp, l, r ir.Value, t types.Type) ir.Value {
	if t == types.Float {
		switch op {
		case ast.OpAdd:
			return g.b.FAdd(l, r)
		case ast.OpSub:
			return g.b.FSub(l, r)
		case ast.OpMul:
			return g.b.FMul(l, r)
		default:
			return g.b.FDiv(l, r)
		}
	}
	switch op {
	case ast.OpAdd:
		return g.b.IAdd(l, r)
	case ast.OpSub:
		return g.b.ISub(l, r)
	case ast.OpMul:
		return g.b.IMul(l, r)
	default:
		// Pudl's int is always signed (there is no unsigned surface
		// type), so integer division lowers to SDiv unconditionally;
		// UDiv stays a backend primitive for a future unsigned
		// extension.
		return g.b.SDiv(l, r)
	}
}

func (g *Generator) compare(op ast.BinaryOp, l, r ir.Value, operandType types.Type) ir.Value {
	if operandType == types.Float {
		return g.b.FCmp(floatPred(op), l, r)
	}
	return g.b.ICmp(intPred(op), l, r)
}

func (g *Generator) genAssignExpr(n *ast.Binary) (ir.Value, types.Type, error) {
	v, ok := n.Lhs.(*ast.Var)
	if !ok {
		return nil, types.Undefined, g.codegenErr(n.Position, "left-hand side of = must be a variable")
	}
	rv, rt, err := g.genExpr(n.Rhs)
	if err != nil {
		return nil, types.Undefined, err
	}
	slot, ok2 := g.locals[v.Name]
	if !ok2 {
		return nil, types.Undefined, g.codegenErr(n.Position, "assignment to undeclared variable %q", v.Name)
	}
	lt := g.localTy[v.Name]
	casted := g.cast(rv, rt, lt)
	g.b.Store(casted, slot)
	return casted, lt, nil
}

func (g *Generator) genCall(n *ast.Call) (ir.Value, types.Type, error) {
	fn, ok := g.funcs[n.Callee]
	if !ok {
		return nil, types.Undefined, g.codegenErr(n.Position, "call to undeclared function %q", n.Callee)
	}
	sig := g.sigs[n.Callee]
	if sig != nil && len(sig.paramTypes) != len(n.Args) {
		return nil, types.Undefined, g.codegenErr(n.Position, "%q expects %d argument(s), got %d", n.Callee, len(sig.paramTypes), len(n.Args))
	}
	args := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		av, at, err := g.genExpr(a)
		if err != nil {
			return nil, types.Undefined, err
		}
		if sig != nil {
			av = g.cast(av, at, sig.paramTypes[i])
		}
		args[i] = av
	}
	retType := types.Float
	if sig != nil {
		retType = sig.retType
	}
	return g.b.Call(fn, args), retType, nil
}
