// Package expr implements symbolic expressions over constraint-system
// allocations: sorted sums of terms with degree at most two.
package expr

import (
	"github.com/consensys/gnark/constraint"

	"github.com/sigilzk/sigil/utils"
)

// Expression is a sum of terms, kept sorted by (VID0, VID1).
type Expression []Term

// NewConstant returns the expression c.
func NewConstant(c constraint.Element) Expression {
	return Expression{NewTerm(0, 0, c)}
}

// NewLinear returns the expression c * x_v.
func NewLinear(v int, c constraint.Element) Expression {
	return Expression{NewTerm(v, 0, c)}
}

// NewQuadratic returns the expression c * x_v0 * x_v1.
func NewQuadratic(v0, v1 int, c constraint.Element) Expression {
	return Expression{NewTerm(v0, v1, c)}
}

func (e Expression) Clone() Expression {
	res := make(Expression, len(e))
	copy(res, e)
	return res
}

// Degree returns the degree of the polynomial, at most 2.
func (e Expression) Degree() int {
	res := 0
	for _, t := range e {
		if d := t.Degree(); d > res {
			res = d
			if res == 2 {
				break
			}
		}
	}
	return res
}

// IsConstant reports whether the expression references no allocation.
func (e Expression) IsConstant() bool {
	for _, t := range e {
		if t.VID0 != 0 {
			return false
		}
	}
	return true
}

// Constant returns the value of a constant expression.
//
// pre condition: e.IsConstant()
func (e Expression) Constant() constraint.Element {
	if len(e) == 0 {
		return constraint.Element{}
	}
	return e[0].Coeff
}

// Equal reports whether two sorted expressions are identical.
func (e Expression) Equal(o Expression) bool {
	if len(e) != len(o) {
		return false
	}
	for i := range e {
		if e[i] != o[i] {
			return false
		}
	}
	return true
}

// EqualI makes Expression a utils.Hashable map key.
func (e Expression) EqualI(o utils.Hashable) bool {
	return e.Equal(o.(Expression))
}

// HashCode returns a fast, non-cryptographic hash of a sorted expression.
func (e Expression) HashCode() uint64 {
	h := uint64(17)
	for _, t := range e {
		h = h*23 + t.HashCode()
	}
	return h
}

// MaxVID returns the largest allocation id referenced by the expression.
func (e Expression) MaxVID() int {
	res := 0
	for _, t := range e {
		if t.VID0 > res {
			res = t.VID0
		}
	}
	return res
}

// sort.Interface, ordering terms by allocation ids.

func (e Expression) Len() int { return len(e) }

func (e Expression) Swap(i, j int) { e[i], e[j] = e[j], e[i] }

func (e Expression) Less(i, j int) bool {
	if e[i].VID0 != e[j].VID0 {
		return e[i].VID0 < e[j].VID0
	}
	return e[i].VID1 < e[j].VID1
}
