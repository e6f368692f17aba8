package builder

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint"

	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/expr"
)

// DivRem is checked truncating integer division: it allocates quotient and
// remainder witnesses with x = d·q + r, |r| < |d| and sign(r) ∈ {0,
// sign(x)}, so q truncates toward zero like native fixed-width division.
//
// The divisor actually constrained is Select(cond, y, 1): under an
// inactive branch selector the gadget divides by one, so a divisor that is
// zero only on an untaken path cannot abort witness generation. A
// concretely active zero divisor is ErrDivisionByZero; a quotient outside
// the class domain (min / -1) is ErrOverflow.
func (b *Builder) DivRem(cond, x, y expr.Expression, class cs.Class) (expr.Expression, expr.Expression, error) {
	w := int(class.Bits)

	denom, err := b.Select(cond, y, b.eOne, class)
	if err != nil {
		return nil, nil, err
	}
	if c, ok := b.ConstantValue(denom); ok && c.IsZero() {
		return nil, nil, fmt.Errorf("%w: constant divisor", ErrDivisionByZero)
	}

	qv, rv := constraint.Element{}, constraint.Element{}
	if vx, ok := b.sys.Eval(x); ok {
		vd, _ := b.sys.Eval(denom)
		ax := b.signedBig(vx, class)
		ad := b.signedBig(vd, class)
		if ad.Sign() == 0 {
			return nil, nil, ErrDivisionByZero
		}
		qv = b.field.FromInterface(new(big.Int).Quo(ax, ad))
		rv = b.field.FromInterface(new(big.Int).Rem(ax, ad))
	}

	q := expr.NewLinear(b.allocate(class, qv), b.tOne)
	r := expr.NewLinear(b.allocate(class, rv), b.tOne)

	// x = d·q + r
	if err := b.sys.Enforce(cs.NewQuadratic(denom, q, b.Sub(x, r))); err != nil {
		return nil, nil, err
	}

	if _, err := b.RangeCheck(q, class); err != nil {
		return nil, nil, err
	}
	rBits, err := b.RangeCheck(r, class)
	if err != nil {
		return nil, nil, err
	}

	if !class.Signed {
		if err := b.AssertLtUnsigned(r, denom, w); err != nil {
			return nil, nil, err
		}
		return q, r, nil
	}

	// sign bits: after the range shift the top bit is 1 exactly for
	// non-negative values
	xBits, err := b.RangeCheck(x, class)
	if err != nil {
		return nil, nil, err
	}
	dBits, err := b.RangeCheck(denom, class)
	if err != nil {
		return nil, nil, err
	}
	negX := b.Sub(b.eOne, xBits[w-1])
	negR := b.Sub(b.eOne, rBits[w-1])
	negD := b.Sub(b.eOne, dBits[w-1])

	uclass := cs.NewClass(uint8(w), false)
	absR, err := b.Select(negR, b.Neg(r), r, uclass)
	if err != nil {
		return nil, nil, err
	}
	absD, err := b.Select(negD, b.Neg(denom), denom, uclass)
	if err != nil {
		return nil, nil, err
	}
	if err := b.AssertLtUnsigned(absR, absD, w); err != nil {
		return nil, nil, err
	}

	// r == 0 or sign(r) == sign(x)
	rIsZero, err := b.IsZero(r)
	if err != nil {
		return nil, nil, err
	}
	nz := b.Sub(b.eOne, rIsZero)
	if err := b.sys.Enforce(cs.NewQuadratic(nz, b.Sub(negR, negX), b.eZero)); err != nil {
		return nil, nil, err
	}
	return q, r, nil
}

// Inverse returns 1/x over the field, guarded by the branch selector the
// same way DivRem guards its divisor.
func (b *Builder) Inverse(cond, x expr.Expression) (expr.Expression, error) {
	guarded, err := b.Select(cond, x, b.eOne, cs.ClassField)
	if err != nil {
		return nil, err
	}
	if c, ok := b.ConstantValue(guarded); ok {
		if c.IsZero() {
			return nil, fmt.Errorf("%w: constant zero inverted", ErrDivisionByZero)
		}
		inv, _ := b.field.Inverse(c)
		return expr.NewConstant(inv), nil
	}

	val := constraint.Element{}
	if v, ok := b.sys.Eval(guarded); ok {
		inv, invertible := b.field.Inverse(v)
		if !invertible {
			return nil, ErrDivisionByZero
		}
		val = inv
	}
	id := b.allocate(cs.ClassField, val)
	invExpr := expr.NewLinear(id, b.tOne)
	if err := b.sys.Enforce(cs.NewQuadratic(guarded, invExpr, b.eOne)); err != nil {
		return nil, err
	}
	return invExpr, nil
}

// signedBig maps a field element back to the integer it represents in the
// class domain.
func (b *Builder) signedBig(v constraint.Element, class cs.Class) *big.Int {
	t := b.field.ToBigInt(v)
	if class.Signed {
		max := new(big.Int).Sub(bigPow2(int(class.Bits)-1), big.NewInt(1))
		if t.Cmp(max) > 0 {
			t.Sub(t, b.field.Field())
		}
	}
	return t
}
