package ast

import (
	"fmt"
	"strings"

	"github.com/pudl-lang/pudlc/internal/types"
)

// PrintAST renders a parsed program in the compact s-expression dump
// the parse subcommand prints: literals tagged by type ([5I], [3.5F],
// [True]), variables as [type name], statements bracketed by their
// keyword ((If ...), (While ...), (Do ... While ...), (Print ...),
// (Ret ...)), and functions as (Func name : (params) -> type body).
// Expression-dialect-only nodes fall back to their String form.
func PrintAST(prog *Program) string {
	var sb strings.Builder
	for i, item := range prog.Items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeTopLevel(&sb, item)
	}
	return sb.String()
}

func writeTopLevel(sb *strings.Builder, item TopLevel) {
	switch n := item.(type) {
	case *FunctionDef:
		sb.WriteString("(Func " + n.Name + " : (")
		for i, p := range n.Params {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(sb, "[%s %s]", showType(p.Typ), p.Name)
		}
		sb.WriteString(") -> " + showType(n.ReturnType) + " ")
		if n.Body != nil {
			writeStmt(sb, n.Body)
		} else {
			writeExpr(sb, n.BodyExpr)
		}
		sb.WriteByte(')')
	case *TopLevelExpr:
		writeExpr(sb, n.Expr)
	default:
		sb.WriteString(item.String())
	}
}

func writeStmt(sb *strings.Builder, s Stmt) {
	switch n := s.(type) {
	case *Block:
		sb.WriteString("{ ")
		for _, st := range n.Stmts {
			writeStmt(sb, st)
			sb.WriteString("; ")
		}
		sb.WriteByte('}')
	case *Decl:
		writeAssign(sb, n.Target, n.Value)
	case *Assign:
		writeAssign(sb, n.Target, n.Value)
	case *If:
		sb.WriteString("(If ")
		writeExpr(sb, n.Cond)
		sb.WriteByte(' ')
		writeStmt(sb, n.Then)
		if n.Else != nil {
			sb.WriteString(" Else ")
			writeStmt(sb, n.Else)
		}
		sb.WriteByte(')')
	case *While:
		sb.WriteString("(While ")
		writeExpr(sb, n.Cond)
		sb.WriteByte(' ')
		writeStmt(sb, n.Body)
		sb.WriteByte(')')
	case *DoWhile:
		sb.WriteString("(Do ")
		writeStmt(sb, n.Body)
		sb.WriteString(" While ")
		writeExpr(sb, n.Cond)
		sb.WriteByte(')')
	case *Print:
		sb.WriteString("(Print ")
		writeExpr(sb, n.Sub)
		sb.WriteByte(')')
	case *Return:
		sb.WriteString("(Ret ")
		writeExpr(sb, n.Sub)
		sb.WriteByte(')')
	case *ExprStmt:
		writeExpr(sb, n.Sub)
	default:
		sb.WriteString(s.String())
	}
}

func writeAssign(sb *strings.Builder, target *Var, value Expr) {
	sb.WriteString("(Assign ")
	writeExpr(sb, target)
	sb.WriteByte(' ')
	writeExpr(sb, value)
	sb.WriteByte(')')
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *IntLit:
		fmt.Fprintf(sb, "[%dI]", n.Value)
	case *FloatLit:
		fmt.Fprintf(sb, "[%gF]", n.Value)
	case *BoolLit:
		if n.Value {
			sb.WriteString("[True]")
		} else {
			sb.WriteString("[False]")
		}
	case *Var:
		fmt.Fprintf(sb, "[%s %s]", showType(n.Typ), n.Name)
	case *Unary:
		sb.WriteString("(" + n.opString() + " ")
		writeExpr(sb, n.Sub)
		sb.WriteByte(')')
	case *Binary:
		sb.WriteString("(" + n.opString() + " ")
		writeExpr(sb, n.Lhs)
		sb.WriteByte(' ')
		writeExpr(sb, n.Rhs)
		sb.WriteByte(')')
	case *Call:
		sb.WriteString("(Call " + n.Callee + " : (")
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeExpr(sb, a)
		}
		sb.WriteString(") -> " + showType(n.ReturnType) + ")")
	default:
		sb.WriteString(e.String())
	}
}

func showType(t types.Type) string {
	if t == types.Undefined {
		return "undef"
	}
	return t.String()
}
