// Package program defines the typed program representation the engine
// executes. A front end (out of scope here) resolves names and types;
// every node carries enough type information that the engine never
// infers.
package program

import (
	"github.com/sigilzk/sigil/types"
	"github.com/sigilzk/sigil/value"
)

// Program is a table of monomorphic functions plus a designated entry
// point. The entry point's parameters are the circuit inputs.
type Program struct {
	Functions map[string]*Function
	Entry     string
}

type Function struct {
	Name   string
	Params []Param
	Result types.Type
	Body   *Block
}

// Param is one function parameter. Public only matters on the entry
// point, where it tags the parameter's allocations as public inputs.
type Param struct {
	Name   string
	Type   types.Type
	Public bool
}

// Block is a statement list with an optional tail expression. A nil
// Tail makes the block's value unit.
type Block struct {
	Stmts []Stmt
	Tail  Expr
}

// ---------------------------------------------------------------------------
// statements

type Stmt interface{ stmt() }

// Let binds a new name in the current scope.
type Let struct {
	Name    string
	Mutable bool
	Value   Expr
}

// Assign rebinds a mutable name, optionally through a field/index path
// into a composite.
type Assign struct {
	Name  string
	Path  []Accessor
	Value Expr
}

// Require asserts a boolean condition. Under an enclosing conditional it
// only binds where the branch is taken.
type Require struct {
	Cond    Expr
	Message string
}

// ExprStmt evaluates an expression for its constraints and drops the
// value.
type ExprStmt struct{ X Expr }

func (*Let) stmt()      {}
func (*Assign) stmt()   {}
func (*Require) stmt()  {}
func (*ExprStmt) stmt() {}

// Accessor is one step of an assignment path.
type Accessor interface{ accessor() }

type FieldAccess struct{ Name string }

type IndexAccess struct{ Index int }

func (FieldAccess) accessor() {}
func (IndexAccess) accessor() {}

// ---------------------------------------------------------------------------
// expressions

type Expr interface{ expr() }

// Lit is a typed literal; composite literals with all-constant leaves
// also arrive here.
type Lit struct {
	Type  types.Type
	Value *value.Literal
}

type Ident struct{ Name string }

type Unary struct {
	Op UnaryOp
	X  Expr
}

type Binary struct {
	Op   BinaryOp
	X, Y Expr
}

// Cond evaluates both blocks and merges their results under the
// condition. Else may be nil when the conditional's value is unit.
type Cond struct {
	If   Expr
	Then *Block
	Else *Block
}

// Call is a static call by name; dispatch is monomorphic.
type Call struct {
	Func string
	Args []Expr
}

type ArrayLit struct {
	Elem  types.Type
	Elems []Expr
}

type TupleLit struct{ Elems []Expr }

type StructLit struct {
	Type   types.Struct
	Fields []StructLitField
}

type StructLitField struct {
	Name  string
	Value Expr
}

// Index is constant-index element access into an array or tuple.
type Index struct {
	X     Expr
	Index int
}

// Member is struct field access.
type Member struct {
	X    Expr
	Name string
}

type CastExpr struct {
	X  Expr
	To types.Type
}

// Variant references an enum variant as a value.
type Variant struct {
	Enum types.Enum
	Name string
}

// Intrinsic is a built-in call. To carries the result scalar type for
// from_bits; the other intrinsics ignore it.
type Intrinsic struct {
	Op   IntrinsicOp
	Args []Expr
	To   types.Type
}

func (*Lit) expr()       {}
func (*Ident) expr()     {}
func (*Unary) expr()     {}
func (*Binary) expr()    {}
func (*Cond) expr()      {}
func (*Call) expr()      {}
func (*ArrayLit) expr()  {}
func (*TupleLit) expr()  {}
func (*StructLit) expr() {}
func (*Index) expr()     {}
func (*Member) expr()    {}
func (*CastExpr) expr()  {}
func (*Variant) expr()   {}
func (*Intrinsic) expr() {}
