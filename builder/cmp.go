package builder

import (
	"github.com/sigilzk/sigil/expr"
)

// LtUnsigned returns the boolean a < b for operands already known to lie
// in [0, 2^nbBits): bit nbBits of b - a - 1 + 2^nbBits is the comparison
// result.
func (b *Builder) LtUnsigned(x, y expr.Expression, nbBits int) (expr.Expression, error) {
	shift := b.Constant(bigPow2(nbBits))
	t := b.Add(b.Sub(y, x), b.Sub(shift, b.eOne))
	bits, err := b.ToBits(t, nbBits+1)
	if err != nil {
		return nil, err
	}
	return bits[nbBits], nil
}

// AssertLtUnsigned constrains a < b for operands in [0, 2^nbBits).
func (b *Builder) AssertLtUnsigned(x, y expr.Expression, nbBits int) error {
	lt, err := b.LtUnsigned(x, y, nbBits)
	if err != nil {
		return err
	}
	return b.AssertIsEqual(lt, b.eOne)
}

// LtBits compares two little-endian boolean decompositions of equal
// length, folding from the most significant bit down. The running eq
// product tracks whether all higher bits matched, so at most one of
// the per-bit contributions to lt is nonzero.
func (b *Builder) LtBits(x, y []expr.Expression) (expr.Expression, error) {
	if len(x) != len(y) {
		panic("builder: bit length mismatch")
	}
	lt := b.eZero
	eq := b.eOne
	for i := len(x) - 1; i >= 0; i-- {
		// x[i] < y[i] is (1 - x[i])·y[i]
		bitLt := b.Mul(b.Sub(b.eOne, x[i]), y[i])
		lt = b.Add(lt, b.Mul(eq, bitLt))
		if i == 0 {
			break
		}
		// x[i] == y[i] is 1 - x[i] - y[i] + 2·x[i]·y[i]
		xy := b.Mul(x[i], y[i])
		eq = b.Mul(eq, b.Add(b.Sub(b.eOne, x[i], y[i]), xy, xy))
	}
	b.MarkBoolean(lt)
	return lt, nil
}
