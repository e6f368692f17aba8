package value

import (
	"fmt"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/types"
)

func sameScalar(x, y *Scalar) (types.Type, error) {
	if !types.Equal(x.Typ, y.Typ) {
		return nil, fmt.Errorf("%w: %s vs %s", types.ErrShapeMismatch, x.Typ, y.Typ)
	}
	return x.Typ, nil
}

func numericType(t types.Type) error {
	switch t.Kind() {
	case types.KindField, types.KindInteger:
		return nil
	}
	return fmt.Errorf("%w: %s is not numeric", types.ErrTypeMismatch, t)
}

// checked wraps an arithmetic result with the result type's range
// check. The value actually checked and returned is Select(cond, e, 0):
// under an inactive branch selector the result collapses to zero, so an
// overflow on an untaken path neither aborts witness generation nor
// leaves an unsatisfiable constraint in the circuit. cond is the active
// branch conjunction, like builder.DivRem's.
func checked(b *builder.Builder, cond, e expr.Expression, t types.Type) (*Scalar, error) {
	it, ok := t.(types.Integer)
	if !ok {
		return &Scalar{Typ: t, X: e}, nil
	}
	g, err := b.Select(cond, e, b.Zero(), ClassOf(it))
	if err != nil {
		return nil, err
	}
	if _, err := b.RangeCheck(g, ClassOf(it)); err != nil {
		return nil, err
	}
	return &Scalar{Typ: t, X: g}, nil
}

func Add(b *builder.Builder, cond expr.Expression, x, y *Scalar) (*Scalar, error) {
	t, err := sameScalar(x, y)
	if err != nil {
		return nil, err
	}
	if err := numericType(t); err != nil {
		return nil, err
	}
	return checked(b, cond, b.Add(x.X, y.X), t)
}

func Sub(b *builder.Builder, cond expr.Expression, x, y *Scalar) (*Scalar, error) {
	t, err := sameScalar(x, y)
	if err != nil {
		return nil, err
	}
	if err := numericType(t); err != nil {
		return nil, err
	}
	return checked(b, cond, b.Sub(x.X, y.X), t)
}

func Mul(b *builder.Builder, cond expr.Expression, x, y *Scalar) (*Scalar, error) {
	t, err := sameScalar(x, y)
	if err != nil {
		return nil, err
	}
	if err := numericType(t); err != nil {
		return nil, err
	}
	return checked(b, cond, b.Mul(x.X, y.X), t)
}

func Neg(b *builder.Builder, cond expr.Expression, x *Scalar) (*Scalar, error) {
	if err := numericType(x.Typ); err != nil {
		return nil, err
	}
	return checked(b, cond, b.Neg(x.X), x.Typ)
}

// Div is truncating division for integers and multiplication by the
// inverse for fields. cond is the active branch selector; see
// builder.DivRem for its role.
func Div(b *builder.Builder, cond expr.Expression, x, y *Scalar) (*Scalar, error) {
	t, err := sameScalar(x, y)
	if err != nil {
		return nil, err
	}
	switch tt := t.(type) {
	case types.Field:
		inv, err := b.Inverse(cond, y.X)
		if err != nil {
			return nil, err
		}
		return &Scalar{Typ: t, X: b.Mul(x.X, inv)}, nil
	case types.Integer:
		q, _, err := b.DivRem(cond, x.X, y.X, ClassOf(tt))
		if err != nil {
			return nil, err
		}
		return &Scalar{Typ: t, X: q}, nil
	}
	return nil, fmt.Errorf("%w: cannot divide %s", types.ErrTypeMismatch, t)
}

// Rem is the remainder matching Div's truncation: sign follows the
// dividend.
func Rem(b *builder.Builder, cond expr.Expression, x, y *Scalar) (*Scalar, error) {
	t, err := sameScalar(x, y)
	if err != nil {
		return nil, err
	}
	tt, ok := t.(types.Integer)
	if !ok {
		return nil, fmt.Errorf("%w: remainder needs integer operands, got %s", types.ErrTypeMismatch, t)
	}
	_, r, err := b.DivRem(cond, x.X, y.X, ClassOf(tt))
	if err != nil {
		return nil, err
	}
	return &Scalar{Typ: t, X: r}, nil
}

// Inverse is the field multiplicative inverse, condition-guarded.
func Inverse(b *builder.Builder, cond expr.Expression, x *Scalar) (*Scalar, error) {
	if x.Typ.Kind() != types.KindField {
		return nil, fmt.Errorf("%w: inverse needs a field operand, got %s", types.ErrTypeMismatch, x.Typ)
	}
	inv, err := b.Inverse(cond, x.X)
	if err != nil {
		return nil, err
	}
	return &Scalar{Typ: x.Typ, X: inv}, nil
}

// ---------------------------------------------------------------------------
// comparisons

func Eq(b *builder.Builder, x, y *Scalar) (*Scalar, error) {
	if _, err := sameScalar(x, y); err != nil {
		return nil, err
	}
	e, err := b.IsZero(b.Sub(x.X, y.X))
	if err != nil {
		return nil, err
	}
	return &Scalar{Typ: types.Bool{}, X: e}, nil
}

func Ne(b *builder.Builder, x, y *Scalar) (*Scalar, error) {
	eq, err := Eq(b, x, y)
	if err != nil {
		return nil, err
	}
	return Not(b, eq)
}

func Lt(b *builder.Builder, x, y *Scalar) (*Scalar, error) { return order(b, x, y, false, false) }

func Le(b *builder.Builder, x, y *Scalar) (*Scalar, error) { return order(b, x, y, true, false) }

func Gt(b *builder.Builder, x, y *Scalar) (*Scalar, error) { return order(b, x, y, false, true) }

func Ge(b *builder.Builder, x, y *Scalar) (*Scalar, error) { return order(b, x, y, true, true) }

// order computes x < y (or with orEqual, x ≤ y), swapping operands when
// reversed. ≤ is computed as ¬(y < x).
func order(b *builder.Builder, x, y *Scalar, orEqual, reversed bool) (*Scalar, error) {
	t, err := sameScalar(x, y)
	if err != nil {
		return nil, err
	}
	if reversed {
		x, y = y, x
	}
	if orEqual {
		x, y = y, x
	}

	var lt expr.Expression
	switch tt := t.(type) {
	case types.Integer:
		ux, uy := x.X, y.X
		if tt.IsSigned {
			half := b.Constant(pow2(int(tt.Width) - 1))
			ux = b.Add(ux, half)
			uy = b.Add(uy, half)
		}
		lt, err = b.LtUnsigned(ux, uy, int(tt.Width))
	case types.Field:
		var xBits, yBits []expr.Expression
		if xBits, err = b.ToBitsCanonical(x.X); err != nil {
			return nil, err
		}
		if yBits, err = b.ToBitsCanonical(y.X); err != nil {
			return nil, err
		}
		lt, err = b.LtBits(xBits, yBits)
	default:
		return nil, fmt.Errorf("%w: %s is not ordered", types.ErrTypeMismatch, t)
	}
	if err != nil {
		return nil, err
	}

	if orEqual {
		notLt, err := b.Not(lt)
		if err != nil {
			return nil, err
		}
		return &Scalar{Typ: types.Bool{}, X: notLt}, nil
	}
	return &Scalar{Typ: types.Bool{}, X: lt}, nil
}

// ---------------------------------------------------------------------------
// logical and bitwise

func boolOp(b *builder.Builder, x, y *Scalar, op func(a, c expr.Expression) (expr.Expression, error)) (*Scalar, error) {
	if x.Typ.Kind() != types.KindBool || y.Typ.Kind() != types.KindBool {
		return nil, fmt.Errorf("%w: logical operation on %s and %s", types.ErrTypeMismatch, x.Typ, y.Typ)
	}
	e, err := op(x.X, y.X)
	if err != nil {
		return nil, err
	}
	return &Scalar{Typ: types.Bool{}, X: e}, nil
}

func And(b *builder.Builder, x, y *Scalar) (*Scalar, error) { return boolOp(b, x, y, b.And) }

func Or(b *builder.Builder, x, y *Scalar) (*Scalar, error) { return boolOp(b, x, y, b.Or) }

func Xor(b *builder.Builder, x, y *Scalar) (*Scalar, error) { return boolOp(b, x, y, b.Xor) }

func Not(b *builder.Builder, x *Scalar) (*Scalar, error) {
	if x.Typ.Kind() != types.KindBool {
		return nil, fmt.Errorf("%w: logical not on %s", types.ErrTypeMismatch, x.Typ)
	}
	e, err := b.Not(x.X)
	if err != nil {
		return nil, err
	}
	return &Scalar{Typ: types.Bool{}, X: e}, nil
}

// bitwiseOp applies a per-bit gadget to unsigned integer operands.
func bitwiseOp(b *builder.Builder, x, y *Scalar, op func(a, c expr.Expression) (expr.Expression, error)) (*Scalar, error) {
	t, err := sameScalar(x, y)
	if err != nil {
		return nil, err
	}
	tt, ok := t.(types.Integer)
	if !ok || tt.IsSigned {
		return nil, fmt.Errorf("%w: bitwise operation needs unsigned integers, got %s", types.ErrTypeMismatch, t)
	}
	xBits, err := b.ToBits(x.X, int(tt.Width))
	if err != nil {
		return nil, err
	}
	yBits, err := b.ToBits(y.X, int(tt.Width))
	if err != nil {
		return nil, err
	}
	res := make([]expr.Expression, len(xBits))
	for i := range res {
		if res[i], err = op(xBits[i], yBits[i]); err != nil {
			return nil, err
		}
	}
	return &Scalar{Typ: t, X: b.FromBits(res)}, nil
}

func BitAnd(b *builder.Builder, x, y *Scalar) (*Scalar, error) { return bitwiseOp(b, x, y, b.And) }

func BitOr(b *builder.Builder, x, y *Scalar) (*Scalar, error) { return bitwiseOp(b, x, y, b.Or) }

func BitXor(b *builder.Builder, x, y *Scalar) (*Scalar, error) { return bitwiseOp(b, x, y, b.Xor) }

// Shl shifts an unsigned integer left by a constant, truncating to the
// type's width.
func Shl(b *builder.Builder, x *Scalar, shift int) (*Scalar, error) {
	return shiftBits(b, x, shift, true)
}

// Shr shifts an unsigned integer right by a constant.
func Shr(b *builder.Builder, x *Scalar, shift int) (*Scalar, error) {
	return shiftBits(b, x, shift, false)
}

func shiftBits(b *builder.Builder, x *Scalar, shift int, left bool) (*Scalar, error) {
	tt, ok := x.Typ.(types.Integer)
	if !ok || tt.IsSigned {
		return nil, fmt.Errorf("%w: shift needs an unsigned integer, got %s", types.ErrTypeMismatch, x.Typ)
	}
	if shift < 0 {
		return nil, fmt.Errorf("%w: negative shift", types.ErrTypeMismatch)
	}
	w := int(tt.Width)
	bits, err := b.ToBits(x.X, w)
	if err != nil {
		return nil, err
	}
	res := make([]expr.Expression, w)
	for i := range res {
		var src int
		if left {
			src = i - shift
		} else {
			src = i + shift
		}
		if src >= 0 && src < w {
			res[i] = bits[src]
		} else {
			res[i] = b.Zero()
		}
	}
	return &Scalar{Typ: x.Typ, X: b.FromBits(res)}, nil
}
