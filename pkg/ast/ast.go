// Package ast defines the abstract syntax tree the code generator consumes
// and the decompiler reconstructs. Identifiers are plain strings here; the
// compiler interns them into environment slots.
package ast

import "github.com/moorhen-dev/moorhen/pkg/value"

// Stmt is a statement node.
type Stmt interface{ isStmt() }

// Expr is an expression node.
type Expr interface{ isExpr() }

// Cond is an if statement: one or more condition/body arms and an optional
// else body.
type Cond struct {
	Arms      []CondArm
	Otherwise []Stmt
}

// CondArm is one `if`/`elseif` arm of a Cond.
type CondArm struct {
	Condition  Expr
	Statements []Stmt
}

// While is a while loop, optionally labelled with the name its break and
// continue statements refer to.
type While struct {
	ID        string // empty when unlabelled
	Condition Expr
	Body      []Stmt
}

// ForList iterates a loop variable over the elements of a list.
type ForList struct {
	ID   string
	Expr Expr
	Body []Stmt
}

// ForRange iterates a loop variable over an inclusive integer or object range.
type ForRange struct {
	ID   string
	From Expr
	To   Expr
	Body []Stmt
}

// Fork schedules its body as a separate task after a delay, optionally
// binding the new task's id to a variable.
type Fork struct {
	ID   string // empty when no task-id variable
	Time Expr
	Body []Stmt
}

// TryExcept runs its body with one or more error handlers.
type TryExcept struct {
	Body    []Stmt
	Excepts []ExceptArm
}

// ExceptArm is one `except` clause: the codes it handles, an optional
// variable bound to the caught exception, and its handler body.
type ExceptArm struct {
	ID         string // empty when the exception value is discarded
	Codes      CatchCodes
	Statements []Stmt
}

// TryFinally runs its handler on every exit from its body.
type TryFinally struct {
	Body    []Stmt
	Handler []Stmt
}

// Break exits the innermost loop, or the named one.
type Break struct {
	Exit string // empty for the innermost loop
}

// Continue restarts the innermost loop, or the named one.
type Continue struct {
	Exit string
}

// Return exits the verb, yielding Expr or 0 when Expr is nil.
type Return struct {
	Expr Expr
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	Expr Expr
}

func (*Cond) isStmt()       {}
func (*While) isStmt()      {}
func (*ForList) isStmt()    {}
func (*ForRange) isStmt()   {}
func (*Fork) isStmt()       {}
func (*TryExcept) isStmt()  {}
func (*TryFinally) isStmt() {}
func (*Break) isStmt()      {}
func (*Continue) isStmt()   {}
func (*Return) isStmt()     {}
func (*ExprStmt) isStmt()   {}

// VarExpr is a literal value.
type VarExpr struct {
	Value value.Var
}

// ID is a variable reference.
type ID struct {
	Name string
}

// ArgKind distinguishes plain arguments from spliced ones.
type ArgKind uint8

const (
	ArgNormal ArgKind = iota
	ArgSplice
)

// Arg is one element of an argument list or list constructor; a splice
// flattens its list-valued expression into the surrounding list.
type Arg struct {
	Kind ArgKind
	Expr Expr
}

// ListExpr constructs a list.
type ListExpr struct {
	Args []Arg
}

// BinaryOp enumerates the binary operators.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinExp
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinIn
)

// Binary is a strict binary operator application.
type Binary struct {
	Op  BinaryOp
	LHS Expr
	RHS Expr
}

// UnaryOp enumerates the unary operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

// Unary is a unary operator application.
type Unary struct {
	Op   UnaryOp
	Expr Expr
}

// And short-circuits: RHS evaluates only when LHS is truthy.
type And struct {
	LHS Expr
	RHS Expr
}

// Or short-circuits: RHS evaluates only when LHS is falsy.
type Or struct {
	LHS Expr
	RHS Expr
}

// CondExpr is the ternary `cond ? cons | alt` expression.
type CondExpr struct {
	Condition   Expr
	Consequence Expr
	Alternative Expr
}

// Index is `base[index]`.
type Index struct {
	Base  Expr
	Index Expr
}

// RangeExpr is `base[from..to]`.
type RangeExpr struct {
	Base Expr
	From Expr
	To   Expr
}

// Length is the `$` pseudo-variable: the length of the sequence being
// indexed in the enclosing index or range expression.
type Length struct{}

// Assign is `left = right` where left is an lvalue: a variable, an index or
// range over one, or a property.
type Assign struct {
	Left  Expr
	Right Expr
}

// ScatterKind distinguishes the three flavors of scatter target.
type ScatterKind uint8

const (
	ScatterRequired ScatterKind = iota
	ScatterOptional
	ScatterRest
)

// ScatterItem is one target of a scatter assignment; optional targets may
// carry a default-value expression.
type ScatterItem struct {
	Kind ScatterKind
	ID   string
	Expr Expr // default for optional targets, nil otherwise
}

// Scatter is the destructuring assignment `{a, ?b = d, @c} = expr`.
type Scatter struct {
	Items []ScatterItem
	Expr  Expr
}

// Prop is `location.property`.
type Prop struct {
	Location Expr
	Property Expr
}

// Verb is the verb call `location:verb(args)`.
type Verb struct {
	Location Expr
	Verb     Expr
	Args     []Arg
}

// Call is a built-in function call.
type Call struct {
	Function string
	Args     []Arg
}

// Pass re-dispatches the current verb up the inheritance chain.
type Pass struct {
	Args []Arg
}

// Catch is the error-catching expression `` `expr ! codes => except' ``.
type Catch struct {
	Trye   Expr
	Codes  CatchCodes
	Except Expr // nil: yield the caught code itself
}

// CatchCodes is the code set of a Catch expression or ExceptArm: either any
// error, or an explicit list.
type CatchCodes struct {
	Any   bool
	Codes []Arg // meaningful when !Any
}

func (*VarExpr) isExpr()   {}
func (*ID) isExpr()        {}
func (*ListExpr) isExpr()  {}
func (*Binary) isExpr()    {}
func (*Unary) isExpr()     {}
func (*And) isExpr()       {}
func (*Or) isExpr()        {}
func (*CondExpr) isExpr()  {}
func (*Index) isExpr()     {}
func (*RangeExpr) isExpr() {}
func (*Length) isExpr()    {}
func (*Assign) isExpr()    {}
func (*Scatter) isExpr()   {}
func (*Prop) isExpr()      {}
func (*Verb) isExpr()      {}
func (*Call) isExpr()      {}
func (*Pass) isExpr()      {}
func (*Catch) isExpr()     {}
