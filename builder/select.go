package builder

import (
	"github.com/consensys/gnark/constraint"

	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/expr"
)

// Select yields a if cond is one, b otherwise, through the single
// quadratic constraint cond·(a-b) = res-b. Only a compile-time-constant
// cond folds without allocating; a runtime selector always produces the
// same constraint shape regardless of its witness value.
func (b *Builder) Select(cond, x, y expr.Expression, class cs.Class) (expr.Expression, error) {
	if err := b.AssertIsBoolean(cond); err != nil {
		return nil, err
	}

	if c, ok := b.ConstantValue(cond); ok {
		if b.field.IsOne(c) {
			return x, nil
		}
		return y, nil
	}

	val := constraint.Element{}
	if cv, ok := b.sys.Eval(cond); ok {
		if b.field.IsOne(cv) {
			val, _ = b.sys.Eval(x)
		} else {
			val, _ = b.sys.Eval(y)
		}
	}
	id := b.allocate(class, val)
	res := expr.NewLinear(id, b.tOne)

	if err := b.sys.Enforce(cs.NewQuadratic(cond, b.Sub(x, y), b.Sub(res, y))); err != nil {
		return nil, err
	}
	return res, nil
}

// IsZero returns 1 if i is zero and 0 otherwise, via an inverse witness:
// with m = 1 - i·inv, the constraints i·m = 0 and inv's definition force
// m to be the zero indicator.
func (b *Builder) IsZero(i expr.Expression) (expr.Expression, error) {
	if c, ok := b.ConstantValue(i); ok {
		if c.IsZero() {
			return b.eOne, nil
		}
		return b.eZero, nil
	}

	inv := constraint.Element{}
	if v, ok := b.sys.Eval(i); ok {
		if x, invertible := b.field.Inverse(v); invertible {
			inv = x
		}
	}
	id := b.allocate(cs.ClassField, inv)
	invExpr := expr.NewLinear(id, b.tOne)

	m := b.Sub(b.eOne, b.Mul(i, invExpr))
	if err := b.sys.Enforce(cs.NewQuadratic(i, m, b.eZero)); err != nil {
		return nil, err
	}
	b.MarkBoolean(m)
	return m, nil
}
