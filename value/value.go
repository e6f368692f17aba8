// Package value implements the runtime counterpart of the type model: a
// scalar value is one symbolic expression over allocations, a composite
// value is an ordered collection matching its type's shape, and every
// operation on values goes through the gadget layer.
package value

import (
	"fmt"
	"math/big"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/types"
)

type Value interface {
	Type() types.Type
}

// Unit is the single value of the unit type.
type Unit struct{}

func (Unit) Type() types.Type { return types.Unit{} }

// Scalar is one circuit variable with its scalar type (bool, field,
// integer or enum).
type Scalar struct {
	Typ types.Type
	X   expr.Expression
}

func (s *Scalar) Type() types.Type { return s.Typ }

// Composite is an array, tuple or struct value; children are ordered to
// match the type's shape.
type Composite struct {
	Typ   types.Type
	Elems []Value
}

func (c *Composite) Type() types.Type { return c.Typ }

// ClassOf maps a scalar type to its allocation width class.
func ClassOf(t types.Type) cs.Class {
	switch tt := t.(type) {
	case types.Bool:
		return cs.ClassBool
	case types.Integer:
		return cs.NewClass(tt.Width, tt.IsSigned)
	default:
		return cs.ClassField
	}
}

// Zero returns the default value of a type: false, zero, the first
// declared enum variant, and composites thereof.
func Zero(b *builder.Builder, t types.Type) (Value, error) {
	switch tt := t.(type) {
	case types.Unit:
		return Unit{}, nil
	case types.Bool, types.Field, types.Integer:
		return &Scalar{Typ: t, X: b.Zero()}, nil
	case types.Enum:
		if len(tt.Variants) == 0 {
			return nil, fmt.Errorf("%w: enum %s has no variants", types.ErrTypeMismatch, tt.Name)
		}
		return &Scalar{Typ: t, X: b.Constant(tt.Variants[0].Value)}, nil
	case types.Array:
		elems := make([]Value, tt.Len)
		for i := range elems {
			e, err := Zero(b, tt.Elem)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return &Composite{Typ: t, Elems: elems}, nil
	case types.Tuple:
		elems := make([]Value, len(tt.Elems))
		for i, et := range tt.Elems {
			e, err := Zero(b, et)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return &Composite{Typ: t, Elems: elems}, nil
	case types.Struct:
		elems := make([]Value, len(tt.Fields))
		for i, f := range tt.Fields {
			e, err := Zero(b, f.Type)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return &Composite{Typ: t, Elems: elems}, nil
	}
	return nil, fmt.Errorf("%w: no zero value for %s", types.ErrTypeMismatch, t)
}

// Leaves appends the scalar leaves of v in shape order.
func Leaves(v Value) []*Scalar {
	return appendLeaves(nil, v)
}

func appendLeaves(acc []*Scalar, v Value) []*Scalar {
	switch vv := v.(type) {
	case Unit:
		return acc
	case *Scalar:
		return append(acc, vv)
	case *Composite:
		for _, e := range vv.Elems {
			acc = appendLeaves(acc, e)
		}
		return acc
	}
	panic(fmt.Sprintf("unknown value %T", v))
}

// EnforceEnumMembership constrains a field-backed scalar to equal one of
// the enum's declared discriminants: Π (x - dᵢ) = 0.
func EnforceEnumMembership(b *builder.Builder, x expr.Expression, enum types.Enum) error {
	if len(enum.Variants) == 0 {
		return fmt.Errorf("%w: enum %s has no variants", types.ErrTypeMismatch, enum.Name)
	}
	if v, ok := b.Witness(x); ok {
		if _, declared := enum.VariantOf(b.Field().ToBigInt(v)); !declared {
			return fmt.Errorf("%w: %s is not a variant of %s", types.ErrTypeMismatch, b.Field().String(v), enum.Name)
		}
	}
	acc := b.One()
	for _, variant := range enum.Variants {
		acc = b.Mul(acc, b.Sub(x, b.Constant(variant.Value)))
	}
	return b.AssertIsZero(acc)
}

// scalarBig returns the integer a scalar leaf evaluates to under the
// witness, mapped back from field representation for signed types.
func scalarBig(b *builder.Builder, s *Scalar) (*big.Int, bool) {
	v, ok := b.Witness(s.X)
	if !ok {
		return nil, false
	}
	t := b.Field().ToBigInt(v)
	if it, isInt := s.Typ.(types.Integer); isInt && it.IsSigned {
		if t.Cmp(it.Max()) > 0 {
			t.Sub(t, b.Field().Field())
		}
	}
	return t, true
}
