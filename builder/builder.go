// Package builder implements the gadget layer: reusable building blocks
// (arithmetic, comparison, checked division, bit decomposition, selection)
// expressed as constraints over allocations. Expressions handled here are
// linear; products are compressed into cached internal allocations so that
// every enforced relation fits the linear/quadratic constraint forms.
package builder

import (
	"errors"
	"math/big"
	"sort"

	"github.com/consensys/gnark/constraint"

	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/field"
	"github.com/sigilzk/sigil/utils"
)

var (
	// ErrOverflow reports an arithmetic or cast result outside its result
	// type's domain.
	ErrOverflow = errors.New("overflow")
	// ErrDivisionByZero reports a divisor that is, or is proven to be, the
	// zero field element.
	ErrDivisionByZero = errors.New("division by zero")
)

// Builder wraps one constraint system and provides the gadget operations.
// It caches product allocations and already-asserted facts so repeated
// gadget applications do not duplicate constraints.
type Builder struct {
	sys   *cs.System
	field field.Field

	tOne        constraint.Element
	eZero, eOne expr.Expression

	// asserted or marked boolean expressions
	booleans utils.Map
	// asserted-zero expressions
	zeroes utils.Map
	// product expression -> allocation id
	products utils.Map
}

func New(sys *cs.System) *Builder {
	b := &Builder{
		sys:      sys,
		field:    sys.Field(),
		booleans: make(utils.Map),
		zeroes:   make(utils.Map),
		products: make(utils.Map),
	}
	b.tOne = b.field.One()
	b.eZero = expr.NewConstant(constraint.Element{})
	b.eOne = expr.NewConstant(b.tOne)
	return b
}

func (b *Builder) System() *cs.System { return b.sys }

func (b *Builder) Field() field.Field { return b.field }

// Zero returns the constant-zero expression.
func (b *Builder) Zero() expr.Expression { return b.eZero }

// One returns the constant-one expression.
func (b *Builder) One() expr.Expression { return b.eOne }

// Constant lifts a Go value into a constant expression.
func (b *Builder) Constant(v interface{}) expr.Expression {
	return expr.NewConstant(b.field.FromInterface(v))
}

// ConstantValue unwraps a compile-time constant expression. Witness-known
// values of allocated variables do not count as constants; only
// allocation-free expressions do.
func (b *Builder) ConstantValue(e expr.Expression) (constraint.Element, bool) {
	if len(e) != 1 || e[0].VID0 != 0 {
		return constraint.Element{}, false
	}
	return e[0].Coeff, true
}

// Witness returns the concrete value of an expression in witness mode.
func (b *Builder) Witness(e expr.Expression) (constraint.Element, bool) {
	return b.sys.Eval(e)
}

// Input allocates a fresh variable of class, assigned val in witness
// mode, and returns it together with its allocation id so the caller can
// tag it public.
func (b *Builder) Input(class cs.Class, val constraint.Element) (expr.Expression, int) {
	id := b.allocate(class, val)
	return expr.NewLinear(id, b.tOne), id
}

// allocate creates an allocation and assigns val in witness mode.
func (b *Builder) allocate(class cs.Class, val constraint.Element) int {
	id := b.sys.Allocate(class)
	b.sys.Assign(id, val)
	return id
}

// mustEnforce is for relations that hold by construction; a failure is an
// engine bug, not a user-visible condition.
func (b *Builder) mustEnforce(c cs.Constraint) {
	if err := b.sys.Enforce(c); err != nil {
		panic(err)
	}
}

// asProduct returns a linear expression equal to x*y, allocating and
// constraining a product variable unless one is cached for the pair.
func (b *Builder) asProduct(x, y expr.Expression) expr.Expression {
	key := productKey(x, y)
	if id, ok := b.products.Find(key); ok {
		return expr.NewLinear(id.(int), b.tOne)
	}

	val := constraint.Element{}
	if vx, ok := b.sys.Eval(x); ok {
		vy, _ := b.sys.Eval(y)
		val = b.field.Mul(vx, vy)
	}
	id := b.allocate(cs.ClassField, val)
	p := expr.NewLinear(id, b.tOne)
	b.mustEnforce(cs.NewQuadratic(x, y, p))
	b.products.Set(key, id)
	return p
}

// productKey builds a canonical, commutative cache key for a product of
// two linear expressions. The separator term keeps (x, y) splits from
// colliding.
func productKey(x, y expr.Expression) expr.Expression {
	if exprLess(y, x) {
		x, y = y, x
	}
	key := make(expr.Expression, 0, len(x)+len(y)+1)
	key = append(key, x...)
	key = append(key, expr.Term{VID0: -1, VID1: -1})
	key = append(key, y...)
	return key
}

func exprLess(a, c expr.Expression) bool {
	if len(a) != len(c) {
		return len(a) < len(c)
	}
	for i := range a {
		if a[i].VID0 != c[i].VID0 {
			return a[i].VID0 < c[i].VID0
		}
		if a[i].VID1 != c[i].VID1 {
			return a[i].VID1 < c[i].VID1
		}
		if a[i].Coeff != c[i].Coeff {
			ab, cb := a[i].Coeff, c[i].Coeff
			for j := 5; j >= 0; j-- {
				if ab[j] != cb[j] {
					return ab[j] < cb[j]
				}
			}
		}
	}
	return false
}

// bigPow2 returns 2^n.
func bigPow2(n int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(n))
}

// sortExpr sorts terms in place and returns e for chaining.
func sortExpr(e expr.Expression) expr.Expression {
	sort.Sort(e)
	return e
}
