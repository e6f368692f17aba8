package cs

import (
	"github.com/consensys/gnark/constraint"

	"github.com/sigilzk/sigil/expr"
)

// Kind distinguishes the two constraint forms, which together suffice for
// every gadget.
type Kind uint8

const (
	// KindLinear is Σ cᵢ·xᵢ = Σ dᵢ·xᵢ with both sides linear.
	KindLinear Kind = iota + 1
	// KindQuadratic is (Σ aᵢ·xᵢ)·(Σ bᵢ·xᵢ) = Σ cᵢ·xᵢ.
	KindQuadratic
)

// Constraint is one relation over allocations: A = C when linear,
// A·B = C when quadratic. All sides are linear expressions.
type Constraint struct {
	Kind    Kind
	A, B, C expr.Expression
}

// NewLinear builds the constraint l = c.
func NewLinear(l expr.Expression, c constraint.Element) Constraint {
	return Constraint{Kind: KindLinear, A: l, C: expr.NewConstant(c)}
}

// NewLinearEq builds the constraint l = r.
func NewLinearEq(l, r expr.Expression) Constraint {
	return Constraint{Kind: KindLinear, A: l, C: r}
}

// NewQuadratic builds the constraint a·b = c.
func NewQuadratic(a, b, c expr.Expression) Constraint {
	return Constraint{Kind: KindQuadratic, A: a, B: b, C: c}
}
