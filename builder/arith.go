package builder

import (
	"github.com/consensys/gnark/constraint"

	"github.com/sigilzk/sigil/expr"
)

// Add returns i1+i2+... as a linear expression; no constraint is emitted.
func (b *Builder) Add(i1, i2 expr.Expression, in ...expr.Expression) expr.Expression {
	return b.merge(append([]expr.Expression{i1, i2}, in...), false)
}

// Sub returns i1-i2-...; no constraint is emitted.
func (b *Builder) Sub(i1, i2 expr.Expression, in ...expr.Expression) expr.Expression {
	return b.merge(append([]expr.Expression{i1, i2}, in...), true)
}

// merge sums the expressions term-by-term, accumulating coefficients of
// equal (VID0, VID1) pairs and dropping cancelled terms. With sub set,
// every expression after the first is negated.
func (b *Builder) merge(vars []expr.Expression, sub bool) expr.Expression {
	capacity := 0
	for _, v := range vars {
		capacity += len(v)
	}
	all := make(expr.Expression, 0, capacity)
	for lID, v := range vars {
		for _, t := range v {
			if sub && lID != 0 {
				t.Coeff = b.field.Neg(t.Coeff)
			}
			all = append(all, t)
		}
	}
	sortExpr(all)

	res := make(expr.Expression, 0, len(all))
	for _, t := range all {
		if t.Coeff.IsZero() {
			continue
		}
		if n := len(res); n > 0 && res[n-1].VID0 == t.VID0 && res[n-1].VID1 == t.VID1 {
			res[n-1].Coeff = b.field.Add(res[n-1].Coeff, t.Coeff)
			if res[n-1].Coeff.IsZero() {
				res = res[:n-1]
			}
			continue
		}
		res = append(res, t)
	}
	if len(res) == 0 {
		return b.eZero
	}
	return res
}

// Neg returns -i; no constraint is emitted.
func (b *Builder) Neg(i expr.Expression) expr.Expression {
	res := i.Clone()
	for k := range res {
		res[k].Coeff = b.field.Neg(res[k].Coeff)
	}
	return res
}

// MulConstant scales an expression by a constant; no constraint is
// emitted.
func (b *Builder) MulConstant(i expr.Expression, lambda constraint.Element) expr.Expression {
	if lambda.IsZero() {
		return b.eZero
	}
	res := i.Clone()
	for k := range res {
		res[k].Coeff = b.field.Mul(res[k].Coeff, lambda)
	}
	return res
}

// Mul returns the product. Multiplying two non-constant expressions
// allocates (or reuses) a product variable with one quadratic constraint;
// every other case folds into coefficients.
func (b *Builder) Mul(i1, i2 expr.Expression, in ...expr.Expression) expr.Expression {
	res := b.mul2(i1, i2)
	for _, v := range in {
		res = b.mul2(res, v)
	}
	return res
}

func (b *Builder) mul2(x, y expr.Expression) expr.Expression {
	cx, xConst := b.ConstantValue(x)
	cy, yConst := b.ConstantValue(y)

	switch {
	case xConst && yConst:
		return expr.NewConstant(b.field.Mul(cx, cy))
	case xConst:
		return b.MulConstant(y, cx)
	case yConst:
		return b.MulConstant(x, cy)
	}
	return b.asProduct(x, y)
}
