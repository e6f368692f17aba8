package value

import (
	"fmt"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/types"
)

// ToBitsValue decomposes a scalar into a bool array, most significant
// bit first. Signed integers decompose to two's complement; fields to
// their canonical full-width form.
func ToBitsValue(b *builder.Builder, x *Scalar) (Value, error) {
	var bits []expr.Expression
	var err error
	switch tt := x.Typ.(type) {
	case types.Bool:
		bits = []expr.Expression{x.X}
	case types.Integer:
		bits, err = twosBits(b, x.X, tt)
	case types.Field:
		bits, err = b.ToBitsCanonical(x.X)
	default:
		return nil, fmt.Errorf("%w: cannot decompose %s into bits", types.ErrTypeMismatch, x.Typ)
	}
	if err != nil {
		return nil, err
	}
	n := len(bits)
	elems := make([]Value, n)
	for i := range elems {
		elems[i] = &Scalar{Typ: types.Bool{}, X: bits[n-1-i]}
	}
	return &Composite{
		Typ:   types.Array{Elem: types.Bool{}, Len: n},
		Elems: elems,
	}, nil
}

// FromBitsValue recomposes a bool array, most significant bit first,
// into a scalar of type to. Signed targets read the bits as two's
// complement; the array length must match the target width exactly, and
// field targets accept any length below the field's bit length.
func FromBitsValue(b *builder.Builder, v Value, to types.Type) (*Scalar, error) {
	arr, ok := v.(*Composite)
	if !ok {
		return nil, fmt.Errorf("%w: expected a bool array, got %s", types.ErrTypeMismatch, v.Type())
	}
	at, ok := arr.Typ.(types.Array)
	if !ok || at.Elem.Kind() != types.KindBool {
		return nil, fmt.Errorf("%w: expected a bool array, got %s", types.ErrTypeMismatch, arr.Typ)
	}

	n := len(arr.Elems)
	bits := make([]expr.Expression, n)
	for i, e := range arr.Elems {
		bits[n-1-i] = e.(*Scalar).X
	}

	switch tt := to.(type) {
	case types.Integer:
		if n != int(tt.Width) {
			return nil, fmt.Errorf("%w: %d bits for %s", types.ErrShapeMismatch, n, to)
		}
		return reinterpret(b, bits, tt), nil
	case types.Field:
		if n >= b.Field().FieldBitLen() {
			return nil, fmt.Errorf("%w: %d bits do not fit a field element", types.ErrShapeMismatch, n)
		}
		return &Scalar{Typ: to, X: b.FromBits(bits)}, nil
	}
	return nil, fmt.Errorf("%w: cannot recompose bits into %s", types.ErrTypeMismatch, to)
}
