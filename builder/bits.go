package builder

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint"

	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/expr"
)

// ToBits decomposes i into nbBits little-endian boolean allocations,
// enforcing one boolean constraint per bit plus the weighted recomposition
// Σ 2^k·bit_k = i. In witness mode a value outside [0, 2^nbBits) is
// ErrOverflow.
func (b *Builder) ToBits(i expr.Expression, nbBits int) ([]expr.Expression, error) {
	var val *big.Int
	if v, ok := b.sys.Eval(i); ok {
		val = b.field.ToBigInt(v)
		if val.BitLen() > nbBits {
			return nil, fmt.Errorf("%w: value %s needs more than %d bits", ErrOverflow, val.String(), nbBits)
		}
	}

	bits := make([]expr.Expression, nbBits)
	sum := make(expr.Expression, 0, nbBits)
	coeff := b.tOne
	for k := 0; k < nbBits; k++ {
		bv := constraint.Element{}
		if val != nil && val.Bit(k) == 1 {
			bv = b.tOne
		}
		id := b.allocate(cs.ClassBool, bv)
		bits[k] = expr.NewLinear(id, b.tOne)
		if err := b.AssertIsBoolean(bits[k]); err != nil {
			return nil, err
		}
		sum = append(sum, expr.NewTerm(id, 0, coeff))
		coeff = b.field.Add(coeff, coeff)
	}

	if err := b.sys.Enforce(cs.NewLinearEq(sortExpr(sum), i)); err != nil {
		return nil, err
	}
	return bits, nil
}

// ToBitsCanonical decomposes a full field element into FieldBitLen bits
// and additionally proves the decomposition is the canonical one, i.e.
// the recomposed integer is at most p-1.
func (b *Builder) ToBitsCanonical(i expr.Expression) ([]expr.Expression, error) {
	nbBits := b.field.FieldBitLen()
	bits, err := b.ToBits(i, nbBits)
	if err != nil {
		return nil, err
	}
	bound := new(big.Int).Sub(b.field.Field(), big.NewInt(1))
	if err := b.assertBitsLessOrEqCst(bits, bound); err != nil {
		return nil, err
	}
	return bits, nil
}

// FromBits recomposes little-endian bits into Σ 2^k·bit_k. No constraint
// is emitted; truncation is a matter of slicing the input.
func (b *Builder) FromBits(bits []expr.Expression) expr.Expression {
	sum := b.eZero
	coeff := b.tOne
	for _, bit := range bits {
		sum = b.Add(sum, b.MulConstant(bit, coeff))
		coeff = b.field.Add(coeff, coeff)
	}
	return sum
}

// RangeCheck constrains i to the domain of its width class and returns
// the bits of the shifted value i-min. Field-class values are
// unconstrained; a witness value outside the domain is ErrOverflow.
func (b *Builder) RangeCheck(i expr.Expression, class cs.Class) ([]expr.Expression, error) {
	switch {
	case class == cs.ClassField:
		return nil, nil
	case class == cs.ClassBool:
		return []expr.Expression{i}, b.AssertIsBoolean(i)
	}

	shifted := i
	if class.Signed {
		// map [-2^(w-1), 2^(w-1)-1] onto [0, 2^w)
		half := b.field.FromInterface(bigPow2(int(class.Bits) - 1))
		shifted = b.Add(i, expr.NewConstant(half))
	}
	return b.ToBits(shifted, int(class.Bits))
}
