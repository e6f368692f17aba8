package builder

import (
	"github.com/sigilzk/sigil/expr"
)

// Xor returns a ⊕ b for boolean operands: a·(1-2b) + b.
func (b *Builder) Xor(x, y expr.Expression) (expr.Expression, error) {
	if err := b.AssertIsBoolean(x); err != nil {
		return nil, err
	}
	if err := b.AssertIsBoolean(y); err != nil {
		return nil, err
	}
	t := b.Sub(b.eOne, b.Add(y, y))
	res := b.Add(b.Mul(x, t), y)
	b.MarkBoolean(res)
	return res, nil
}

// And returns a ∧ b for boolean operands: a·b.
func (b *Builder) And(x, y expr.Expression) (expr.Expression, error) {
	if err := b.AssertIsBoolean(x); err != nil {
		return nil, err
	}
	if err := b.AssertIsBoolean(y); err != nil {
		return nil, err
	}
	res := b.Mul(x, y)
	b.MarkBoolean(res)
	return res, nil
}

// Or returns a ∨ b for boolean operands: a + b - a·b.
func (b *Builder) Or(x, y expr.Expression) (expr.Expression, error) {
	if err := b.AssertIsBoolean(x); err != nil {
		return nil, err
	}
	if err := b.AssertIsBoolean(y); err != nil {
		return nil, err
	}
	res := b.Sub(b.Add(x, y), b.Mul(x, y))
	b.MarkBoolean(res)
	return res, nil
}

// Not returns ¬a for a boolean operand: 1 - a.
func (b *Builder) Not(x expr.Expression) (expr.Expression, error) {
	if err := b.AssertIsBoolean(x); err != nil {
		return nil, err
	}
	res := b.Sub(b.eOne, x)
	b.MarkBoolean(res)
	return res, nil
}
