package codegen

import (
	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/ir"
)

func intPred(op ast.BinaryOp) ir.IntPredicate {
	switch op {
	case ast.OpLt:
		return ir.ISLT
	case ast.OpGt:
		return ir.ISGT
	case ast.OpLe:
		return ir.ISLE
	case ast.OpGe:
		return ir.ISGE
	case ast.OpEq:
		return ir.IEQ
	case ast.OpNe:
		return ir.INE
	default:
		panic("codegen: not a comparison operator: " + op)
	}
}

func floatPred(op ast.BinaryOp) ir.FloatPredicate {
	switch op {
	case ast.OpLt:
		return ir.FOLT
	case ast.OpGt:
		return ir.FOGT
	case ast.OpLe:
		return ir.FOLE
	case ast.OpGe:
		return ir.FOGE
	case ast.OpEq:
		return ir.FOEQ
	case ast.OpNe:
		return ir.FONE
	default:
		panic("codegen: not a comparison operator: " + op)
	}
}
