package builder

import (
	"fmt"
	"math/big"

	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/expr"
)

// AssertIsEqual constrains i1 == i2.
func (b *Builder) AssertIsEqual(i1, i2 expr.Expression) error {
	return b.AssertIsZero(b.Sub(i1, i2))
}

// AssertIsZero constrains i == 0. An already-asserted expression emits
// nothing.
func (b *Builder) AssertIsZero(i expr.Expression) error {
	if v, ok := b.ConstantValue(i); ok {
		if !v.IsZero() {
			return fmt.Errorf("%w: nonzero constant asserted zero", cs.ErrUnsatisfiable)
		}
		return nil
	}
	key := sortExpr(i.Clone())
	if _, ok := b.zeroes.Find(key); ok {
		return nil
	}
	if err := b.sys.Enforce(cs.NewLinearEq(i, b.eZero)); err != nil {
		return err
	}
	b.zeroes.Set(key, struct{}{})
	return nil
}

// AssertIsBoolean constrains i ∈ {0, 1} with i·(1-i) = 0, once per
// expression.
func (b *Builder) AssertIsBoolean(i expr.Expression) error {
	if v, ok := b.ConstantValue(i); ok {
		if !(v.IsZero() || b.field.IsOne(v)) {
			return fmt.Errorf("%w: constant %s asserted boolean", cs.ErrUnsatisfiable, b.field.String(v))
		}
		return nil
	}
	key := sortExpr(i.Clone())
	if _, ok := b.booleans.Find(key); ok {
		return nil
	}
	if err := b.sys.Enforce(cs.NewQuadratic(i, b.Sub(b.eOne, i), b.eZero)); err != nil {
		return err
	}
	b.booleans.Set(key, struct{}{})
	return nil
}

// MarkBoolean records that i is already constrained to be boolean through
// some other relation, without emitting a constraint.
func (b *Builder) MarkBoolean(i expr.Expression) {
	if _, ok := b.ConstantValue(i); ok {
		return
	}
	b.booleans.Set(sortExpr(i.Clone()), struct{}{})
}

// assertBitsLessOrEqCst constrains the little-endian boolean decomposition
// aBits to represent a value ≤ bound. The bits themselves get their
// boolean constraints here, so callers may pass unconstrained bits.
func (b *Builder) assertBitsLessOrEqCst(aBits []expr.Expression, bound *big.Int) error {
	nbBits := len(aBits)
	if bound.Sign() < 0 || bound.BitLen() > nbBits {
		panic("invalid bound for bit-decomposed comparison")
	}

	// t trailing one-bits of the bound
	t := 0
	for t < nbBits && bound.Bit(t) == 1 {
		t++
	}

	// p[i] == 1 iff a[j] == bound[j] for all j >= i
	p := make([]expr.Expression, nbBits+1)
	p[nbBits] = b.eOne
	for i := nbBits - 1; i >= t; i-- {
		if bound.Bit(i) == 0 {
			p[i] = p[i+1]
		} else {
			p[i] = b.Mul(p[i+1], aBits[i])
		}
	}

	for i := nbBits - 1; i >= 0; i-- {
		if bound.Bit(i) == 0 {
			// (1 - p[i+1] - a[i]) * a[i] == 0
			// forces a[i] to zero wherever the more significant bits
			// already match the bound, and to a boolean elsewhere
			l := b.Sub(b.eOne, p[i+1], aBits[i])
			if err := b.sys.Enforce(cs.NewQuadratic(l, aBits[i], b.eZero)); err != nil {
				return err
			}
			b.MarkBoolean(aBits[i])
		} else {
			if err := b.AssertIsBoolean(aBits[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
