// Package ast defines Pudl's abstract syntax tree: one shared node algebra
// for both the typed statement dialect and the Kaleidoscope-style
// expression dialect. Every Expr carries a static Type, assigned by the
// parser as each node is built.
package ast

import (
	"bytes"
	"fmt"

	"github.com/pudl-lang/pudlc/internal/token"
	"github.com/pudl-lang/pudlc/internal/types"
)

// Node is implemented by every AST node; String renders a debug form used
// by `pudlc parse --dialect=expr` and by tests.
type Node interface {
	String() string
	Pos() token.Position
}

// Expr is any expression node. Every Expr has a static Type assigned at
// parse time.
type Expr interface {
	Node
	exprNode()
	Type() types.Type
}

// Stmt is any statement node (typed dialect only).
type Stmt interface {
	Node
	stmtNode()
}

// ---- Expressions ----

// IntLit is an integer literal, always typed Integer.
type IntLit struct {
	Position token.Position
	Value    int32
}

func (*IntLit) exprNode()             {}
func (n *IntLit) Pos() token.Position { return n.Position }
func (n *IntLit) Type() types.Type    { return types.Integer }
func (n *IntLit) String() string      { return fmt.Sprintf("%d", n.Value) }

// FloatLit is a floating-point literal, always typed Float.
type FloatLit struct {
	Position token.Position
	Value    float32
}

func (*FloatLit) exprNode()             {}
func (n *FloatLit) Pos() token.Position { return n.Position }
func (n *FloatLit) Type() types.Type    { return types.Float }
func (n *FloatLit) String() string      { return fmt.Sprintf("%g", n.Value) }

// BoolLit is a boolean literal, always typed Bool.
type BoolLit struct {
	Position token.Position
	Value    bool
}

func (*BoolLit) exprNode()             {}
func (n *BoolLit) Pos() token.Position { return n.Position }
func (n *BoolLit) Type() types.Type    { return types.Bool }
func (n *BoolLit) String() string      { return fmt.Sprintf("%t", n.Value) }

// Var references a previously-declared name. Its Typ is resolved by the
// parser at the point of reference (typed dialect) or is always Float in
// the expression dialect.
type Var struct {
	Position token.Position
	Name     string
	Typ      types.Type
}

func (*Var) exprNode()             {}
func (n *Var) Pos() token.Position { return n.Position }
func (n *Var) Type() types.Type    { return n.Typ }
func (n *Var) String() string      { return n.Name }

// UnaryOp is one of the unary operators "-" or "!" (typed dialect) or a
// user-defined "unary<op>" (expression dialect).
type UnaryOp string

const (
	UnaryNeg UnaryOp = "-"
	UnaryNot UnaryOp = "!"
)

// Unary applies a unary operator to a sub-expression.
type Unary struct {
	Position token.Position
	Sub      Expr
	Op       UnaryOp
	// UserOp names a user-defined unary operator (expression dialect,
	// e.g. "unary!"); empty for the built-in Neg/Not operators.
	UserOp string
	Typ    types.Type
}

func (*Unary) exprNode()             {}
func (n *Unary) Pos() token.Position { return n.Position }
func (n *Unary) Type() types.Type    { return n.Typ }
func (n *Unary) String() string      { return fmt.Sprintf("(%s%s)", n.opString(), n.Sub) }

func (n *Unary) opString() string {
	if n.Op != "" {
		return string(n.Op)
	}
	return n.UserOp
}

// BinaryOp names a binary operator token.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpLt  BinaryOp = "<"
	OpGt  BinaryOp = ">"
	OpLe  BinaryOp = "<="
	OpGe  BinaryOp = ">="
	OpEq  BinaryOp = "=="
	OpNe  BinaryOp = "!="
	OpAnd BinaryOp = "&&"
	OpOr  BinaryOp = "||"
	OpXor BinaryOp = "xor"
	// OpAssign is the expression-dialect assignment operator "=", which is
	// parsed as a binary operator whose LHS must be a Var.
	OpAssign BinaryOp = "="
)

// Binary is a binary operator expression.
type Binary struct {
	Position token.Position
	Lhs, Rhs Expr
	Op       BinaryOp
	// UserOp names a user-defined binary operator installed via a
	// "binary<op>" prototype (expression dialect); empty for built-ins.
	UserOp string
	Typ    types.Type
}

func (*Binary) exprNode()             {}
func (n *Binary) Pos() token.Position { return n.Position }
func (n *Binary) Type() types.Type    { return n.Typ }
func (n *Binary) String() string      { return fmt.Sprintf("(%s %s %s)", n.Lhs, n.opString(), n.Rhs) }

func (n *Binary) opString() string {
	if n.Op != "" {
		return string(n.Op)
	}
	return n.UserOp
}

// Call invokes a named function with evaluated arguments.
type Call struct {
	Position   token.Position
	Callee     string
	Args       []Expr
	ReturnType types.Type
}

func (*Call) exprNode()             {}
func (n *Call) Pos() token.Position { return n.Position }
func (n *Call) Type() types.Type    { return n.ReturnType }
func (n *Call) String() string {
	var buf bytes.Buffer
	buf.WriteString(n.Callee)
	buf.WriteByte('(')
	for i, a := range n.Args {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(a.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// IfExpr is the expression-dialect "if cond then e1 else e2" form. Its
// static type is the common type of the two branches (always Float in the
// expression dialect, since every value is a double).
type IfExpr struct {
	Position         token.Position
	Cond, Then, Else Expr
}

func (*IfExpr) exprNode()             {}
func (n *IfExpr) Pos() token.Position { return n.Position }
func (n *IfExpr) Type() types.Type    { return types.Float }
func (n *IfExpr) String() string {
	return fmt.Sprintf("(if %s then %s else %s)", n.Cond, n.Then, n.Else)
}

// ForExpr is the expression-dialect "for var = start, end[, step] in body"
// loop-as-expression. It always evaluates to 0.0.
type ForExpr struct {
	Position         token.Position
	Var              string
	Start, End, Step Expr // Step may be nil, defaulting to 1.0
	Body             Expr
}

func (*ForExpr) exprNode()             {}
func (n *ForExpr) Pos() token.Position { return n.Position }
func (n *ForExpr) Type() types.Type    { return types.Float }
func (n *ForExpr) String() string {
	return fmt.Sprintf("(for %s = %s, %s in %s)", n.Var, n.Start, n.End, n.Body)
}

// VarBinding is one "name = init" pair inside a VarExpr.
type VarBinding struct {
	Name string
	Init Expr // nil means "default to 0.0"
}

// VarExpr is the expression-dialect "var type id = e, ... in body" let
// form. Its type is the type of Body (always Float).
type VarExpr struct {
	Position token.Position
	Bindings []VarBinding
	Body     Expr
}

func (*VarExpr) exprNode()             {}
func (n *VarExpr) Pos() token.Position { return n.Position }
func (n *VarExpr) Type() types.Type    { return n.Body.Type() }
func (n *VarExpr) String() string {
	return fmt.Sprintf("(var ... in %s)", n.Body)
}

// ---- Statements (typed dialect) ----

// Block is a brace-delimited sequence of statements. It does not
// introduce a new name scope: the typed dialect resolves every name
// within one function-wide scope.
type Block struct {
	Position token.Position
	Stmts    []Stmt
}

func (*Block) stmtNode()             {}
func (n *Block) Pos() token.Position { return n.Position }
func (n *Block) String() string {
	var buf bytes.Buffer
	buf.WriteString("{ ")
	for _, s := range n.Stmts {
		buf.WriteString(s.String())
		buf.WriteString("; ")
	}
	buf.WriteString("}")
	return buf.String()
}

// Decl declares a new typed local and initializes it: "TYPE name = expr".
type Decl struct {
	Position token.Position
	Target   *Var
	Value    Expr
}

func (*Decl) stmtNode()             {}
func (n *Decl) Pos() token.Position { return n.Position }
func (n *Decl) String() string {
	return fmt.Sprintf("%s %s = %s", n.Target.Typ, n.Target.Name, n.Value)
}

// Assign stores a new value into an already-declared local.
type Assign struct {
	Position token.Position
	Target   *Var
	Value    Expr
}

func (*Assign) stmtNode()             {}
func (n *Assign) Pos() token.Position { return n.Position }
func (n *Assign) String() string      { return fmt.Sprintf("%s = %s", n.Target.Name, n.Value) }

// If is the typed-dialect conditional statement; Else may be nil.
type If struct {
	Position   token.Position
	Cond       Expr
	Then, Else Stmt
}

func (*If) stmtNode()             {}
func (n *If) Pos() token.Position { return n.Position }
func (n *If) String() string {
	if n.Else == nil {
		return fmt.Sprintf("if %s %s", n.Cond, n.Then)
	}
	return fmt.Sprintf("if %s %s else %s", n.Cond, n.Then, n.Else)
}

// While is a pre-tested loop.
type While struct {
	Position token.Position
	Cond     Expr
	Body     Stmt
}

func (*While) stmtNode()             {}
func (n *While) Pos() token.Position { return n.Position }
func (n *While) String() string      { return fmt.Sprintf("while %s %s", n.Cond, n.Body) }

// DoWhile is a post-tested loop: the body runs at least once.
type DoWhile struct {
	Position token.Position
	Body     Stmt
	Cond     Expr
}

func (*DoWhile) stmtNode()             {}
func (n *DoWhile) Pos() token.Position { return n.Position }
func (n *DoWhile) String() string      { return fmt.Sprintf("do %s while %s", n.Body, n.Cond) }

// Print evaluates Sub and writes it through the code generator's
// per-type "print.<type>" intrinsic ("%d\n" for int/bool, "%f\n" for float).
type Print struct {
	Position token.Position
	Sub      Expr
}

func (*Print) stmtNode()             {}
func (n *Print) Pos() token.Position { return n.Position }
func (n *Print) String() string      { return fmt.Sprintf("print %s", n.Sub) }

// Return evaluates Sub, casts it to the enclosing function's return type,
// and terminates the function.
type Return struct {
	Position token.Position
	Sub      Expr
}

func (*Return) stmtNode()             {}
func (n *Return) Pos() token.Position { return n.Position }
func (n *Return) String() string      { return fmt.Sprintf("return %s", n.Sub) }

// ExprStmt is a bare call used for its side effect. The code generator
// always lowers it, so the call's observable effects happen even though
// its result value is discarded.
type ExprStmt struct {
	Position token.Position
	Sub      Expr
}

func (*ExprStmt) stmtNode()             {}
func (n *ExprStmt) Pos() token.Position { return n.Position }
func (n *ExprStmt) String() string      { return n.Sub.String() }

// ---- Top level ----

// TopLevel is any item that can appear at file scope.
type TopLevel interface {
	Node
	topLevelNode()
}

// Param is one typed function parameter.
type Param struct {
	Name string
	Typ  types.Type
}

// FunctionDef is a fully-defined function: typed-dialect "func" or
// expression-dialect "def".
type FunctionDef struct {
	Position   token.Position
	Name       string
	Params     []Param
	Body       Stmt // typed dialect
	BodyExpr   Expr // expression dialect
	ReturnType types.Type
	Proto      *Prototype // expression dialect operator metadata, may be nil
}

func (*FunctionDef) topLevelNode()         {}
func (n *FunctionDef) Pos() token.Position { return n.Position }
func (n *FunctionDef) String() string {
	return fmt.Sprintf("func %s(...): %s", n.Name, n.ReturnType)
}

// OperatorKind classifies a Prototype as a plain function, a user-defined
// unary operator, or a user-defined binary operator (expression dialect).
type OperatorKind int

const (
	OpKindID OperatorKind = iota
	OpKindUnary
	OpKindBinary
)

// Prototype is a function's name, parameter list, and, in the expression
// dialect, operator kind and declared precedence.
type Prototype struct {
	Position   token.Position
	Name       string
	Params     []Param
	Kind       OperatorKind
	Precedence int // only meaningful when Kind == OpKindBinary
}

func (n *Prototype) Pos() token.Position { return n.Position }
func (n *Prototype) String() string      { return fmt.Sprintf("prototype %s/%d", n.Name, len(n.Params)) }

// Extern declares an externally-defined function (expression dialect).
type Extern struct {
	Position token.Position
	Proto    *Prototype
}

func (*Extern) topLevelNode()         {}
func (n *Extern) Pos() token.Position { return n.Position }
func (n *Extern) String() string      { return "extern " + n.Proto.String() }

// TopLevelExpr wraps a bare top-level expression (expression dialect),
// synthesized into an anonymous function named "__anon_expr" by the
// driver before code generation.
type TopLevelExpr struct {
	Position token.Position
	Expr     Expr
}

func (*TopLevelExpr) topLevelNode()         {}
func (n *TopLevelExpr) Pos() token.Position { return n.Position }
func (n *TopLevelExpr) String() string      { return n.Expr.String() }

// AnonFuncName is the synthetic name given to a bare top-level expression.
const AnonFuncName = "__anon_expr"

// Program is a parsed translation unit: the typed dialect produces a flat
// list of FunctionDef items; the expression dialect produces an
// interleaved stream of FunctionDef/Extern/TopLevelExpr items, one per
// REPL/batch iteration.
type Program struct {
	Items []TopLevel
}

func (p *Program) String() string {
	var buf bytes.Buffer
	for _, it := range p.Items {
		buf.WriteString(it.String())
		buf.WriteByte('\n')
	}
	return buf.String()
}
