package value

import (
	"fmt"
	"math/big"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/types"
)

// Cast converts a scalar between scalar types. Widening casts whose
// target domain contains the whole source domain are free: the field
// representation of the value does not change. Narrowing casts go
// through a two's complement bit decomposition and keep the low bits of
// the target width. Casting to an enum additionally constrains the
// result to the declared discriminants.
func Cast(b *builder.Builder, x *Scalar, to types.Type) (*Scalar, error) {
	from := x.Typ
	if types.Equal(from, to) {
		return x, nil
	}

	switch tt := to.(type) {
	case types.Bool:
		return nil, fmt.Errorf("%w: cannot cast %s to bool", types.ErrTypeMismatch, from)

	case types.Field:
		switch from.Kind() {
		case types.KindBool, types.KindInteger, types.KindEnum, types.KindField:
			return &Scalar{Typ: to, X: x.X}, nil
		}

	case types.Enum:
		var e expr.Expression
		switch from.Kind() {
		case types.KindField, types.KindEnum:
			e = x.X
		case types.KindInteger:
			if from.(types.Integer).IsSigned {
				return nil, fmt.Errorf("%w: cannot cast %s to enum %s", types.ErrTypeMismatch, from, tt.Name)
			}
			e = x.X
		default:
			return nil, fmt.Errorf("%w: cannot cast %s to enum %s", types.ErrTypeMismatch, from, tt.Name)
		}
		if err := EnforceEnumMembership(b, e, tt); err != nil {
			return nil, err
		}
		return &Scalar{Typ: to, X: e}, nil

	case types.Integer:
		switch ft := from.(type) {
		case types.Bool:
			return &Scalar{Typ: to, X: x.X}, nil
		case types.Enum:
			if enumFits(ft, tt) {
				return &Scalar{Typ: to, X: x.X}, nil
			}
			bits, err := b.ToBitsCanonical(x.X)
			if err != nil {
				return nil, err
			}
			return reinterpret(b, bits, tt), nil
		case types.Integer:
			if tt.Min().Cmp(ft.Min()) <= 0 && tt.Max().Cmp(ft.Max()) >= 0 {
				return &Scalar{Typ: to, X: x.X}, nil
			}
			bits, err := twosBits(b, x.X, ft)
			if err != nil {
				return nil, err
			}
			bits = extend(b, bits, int(tt.Width), ft.IsSigned)
			return reinterpret(b, bits, tt), nil
		case types.Field:
			bits, err := b.ToBitsCanonical(x.X)
			if err != nil {
				return nil, err
			}
			return reinterpret(b, bits, tt), nil
		}
	}
	return nil, fmt.Errorf("%w: cannot cast %s to %s", types.ErrTypeMismatch, from, to)
}

// enumFits reports whether every declared discriminant lies in the
// target integer's domain.
func enumFits(e types.Enum, t types.Integer) bool {
	for _, v := range e.Variants {
		if !t.Contains(v.Value) {
			return false
		}
	}
	return len(e.Variants) > 0
}

// twosBits returns the w-bit two's complement decomposition of an
// integer-typed expression. For signed operands the range shift bits
// are reused: the bits of x + 2^(w-1) match two's complement except for
// an inverted sign bit.
func twosBits(b *builder.Builder, x expr.Expression, t types.Integer) ([]expr.Expression, error) {
	if !t.IsSigned {
		return b.ToBits(x, int(t.Width))
	}
	bits, err := b.RangeCheck(x, ClassOf(t))
	if err != nil {
		return nil, err
	}
	top, err := b.Not(bits[len(bits)-1])
	if err != nil {
		return nil, err
	}
	out := make([]expr.Expression, len(bits))
	copy(out, bits[:len(bits)-1])
	out[len(bits)-1] = top
	return out, nil
}

// extend pads a bit vector to n bits, sign extending when the source is
// signed. Truncation is left to the caller's reinterpret width.
func extend(b *builder.Builder, bits []expr.Expression, n int, signed bool) []expr.Expression {
	for len(bits) < n {
		if signed {
			bits = append(bits, bits[len(bits)-1])
		} else {
			bits = append(bits, b.Zero())
		}
	}
	return bits
}

// reinterpret reads the low t.Width bits of a two's complement vector
// as a value of t. The result is in range by construction.
func reinterpret(b *builder.Builder, bits []expr.Expression, t types.Integer) *Scalar {
	w := int(t.Width)
	if !t.IsSigned {
		return &Scalar{Typ: t, X: b.FromBits(bits[:w])}
	}
	low := b.FromBits(bits[:w-1])
	sign := b.Mul(bits[w-1], b.Constant(pow2(w-1)))
	return &Scalar{Typ: t, X: b.Sub(low, sign)}
}

func pow2(n int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(n))
}
