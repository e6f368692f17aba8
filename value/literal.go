package value

import (
	"fmt"
	"math/big"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/types"
)

// Literal is a shape-checked external value. Program inputs, expected
// outputs and in-source constants all arrive in this form; exactly one
// of the fields is populated per node.
type Literal struct {
	Bool    *bool
	Int     *big.Int
	Variant string
	List    []*Literal
	Fields  map[string]*Literal
}

func LitBool(v bool) *Literal                       { return &Literal{Bool: &v} }
func LitInt(v int64) *Literal                       { return &Literal{Int: big.NewInt(v)} }
func LitBig(v *big.Int) *Literal                    { return &Literal{Int: v} }
func LitVariant(name string) *Literal               { return &Literal{Variant: name} }
func LitList(elems ...*Literal) *Literal            { return &Literal{List: elems} }
func LitFields(fields map[string]*Literal) *Literal { return &Literal{Fields: fields} }

// scalarLiteral validates a literal leaf against a scalar type and
// returns the field representand to assign.
func scalarLiteral(t types.Type, lit *Literal) (*big.Int, error) {
	switch tt := t.(type) {
	case types.Bool:
		if lit.Bool == nil {
			return nil, fmt.Errorf("%w: expected a bool literal for %s", types.ErrShapeMismatch, t)
		}
		if *lit.Bool {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case types.Field:
		if lit.Int == nil {
			return nil, fmt.Errorf("%w: expected an integer literal for %s", types.ErrShapeMismatch, t)
		}
		return lit.Int, nil
	case types.Integer:
		if lit.Int == nil {
			return nil, fmt.Errorf("%w: expected an integer literal for %s", types.ErrShapeMismatch, t)
		}
		if !tt.Contains(lit.Int) {
			return nil, fmt.Errorf("%w: %s out of range for %s", types.ErrTypeMismatch, lit.Int, t)
		}
		return lit.Int, nil
	case types.Enum:
		var d *big.Int
		switch {
		case lit.Variant != "":
			var ok bool
			if d, ok = tt.Discriminant(lit.Variant); !ok {
				return nil, fmt.Errorf("%w: %s has no variant %s", types.ErrTypeMismatch, t, lit.Variant)
			}
		case lit.Int != nil:
			if _, ok := tt.VariantOf(lit.Int); !ok {
				return nil, fmt.Errorf("%w: %s is not a variant of %s", types.ErrTypeMismatch, lit.Int, t)
			}
			d = lit.Int
		default:
			return nil, fmt.Errorf("%w: expected a variant literal for %s", types.ErrShapeMismatch, t)
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s is not scalar", types.ErrShapeMismatch, t)
}

// FromLiteral allocates a fresh input value of type t carrying lit's
// data, constrained to the type's domain. Every leaf allocation is
// tagged public when public is set.
func FromLiteral(b *builder.Builder, t types.Type, lit *Literal, public bool) (Value, error) {
	switch tt := t.(type) {
	case types.Unit:
		return Unit{}, nil

	case types.Bool, types.Field, types.Integer, types.Enum:
		rep, err := scalarLiteral(t, lit)
		if err != nil {
			return nil, err
		}
		e, id := b.Input(ClassOf(t), b.Field().FromInterface(rep))
		if public {
			b.System().MarkPublicInput(id)
		}
		switch tt := t.(type) {
		case types.Bool:
			if err := b.AssertIsBoolean(e); err != nil {
				return nil, err
			}
		case types.Integer:
			if _, err := b.RangeCheck(e, ClassOf(tt)); err != nil {
				return nil, err
			}
		case types.Enum:
			if err := EnforceEnumMembership(b, e, tt); err != nil {
				return nil, err
			}
		}
		return &Scalar{Typ: t, X: e}, nil

	case types.Array:
		if len(lit.List) != tt.Len {
			return nil, fmt.Errorf("%w: %d elements for %s", types.ErrShapeMismatch, len(lit.List), t)
		}
		elems := make([]Value, tt.Len)
		for i, el := range lit.List {
			v, err := FromLiteral(b, tt.Elem, el, public)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &Composite{Typ: t, Elems: elems}, nil

	case types.Tuple:
		if len(lit.List) != len(tt.Elems) {
			return nil, fmt.Errorf("%w: %d elements for %s", types.ErrShapeMismatch, len(lit.List), t)
		}
		elems := make([]Value, len(tt.Elems))
		for i, et := range tt.Elems {
			v, err := FromLiteral(b, et, lit.List[i], public)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &Composite{Typ: t, Elems: elems}, nil

	case types.Struct:
		if lit.Fields == nil {
			return nil, fmt.Errorf("%w: expected fields for %s", types.ErrShapeMismatch, t)
		}
		elems := make([]Value, len(tt.Fields))
		for i, f := range tt.Fields {
			fl, ok := lit.Fields[f.Name]
			if !ok {
				return nil, fmt.Errorf("%w: missing field %s of %s", types.ErrShapeMismatch, f.Name, t)
			}
			v, err := FromLiteral(b, f.Type, fl, public)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		if len(lit.Fields) != len(tt.Fields) {
			return nil, fmt.Errorf("%w: extra fields for %s", types.ErrShapeMismatch, t)
		}
		return &Composite{Typ: t, Elems: elems}, nil
	}
	return nil, fmt.Errorf("%w: cannot build %s from literal", types.ErrShapeMismatch, t)
}

// ConstFromLiteral builds a compile-time constant value. No allocations
// and no constraints result; validation happens statically.
func ConstFromLiteral(b *builder.Builder, t types.Type, lit *Literal) (Value, error) {
	switch t.(type) {
	case types.Unit:
		return Unit{}, nil
	case types.Bool, types.Field, types.Integer, types.Enum:
		rep, err := scalarLiteral(t, lit)
		if err != nil {
			return nil, err
		}
		return &Scalar{Typ: t, X: b.Constant(rep)}, nil
	case types.Array, types.Tuple, types.Struct:
		// composite constants share the element walk with FromLiteral;
		// recurse by shape.
		return constComposite(b, t, lit)
	}
	return nil, fmt.Errorf("%w: cannot build %s from literal", types.ErrShapeMismatch, t)
}

func constComposite(b *builder.Builder, t types.Type, lit *Literal) (Value, error) {
	switch tt := t.(type) {
	case types.Array:
		if len(lit.List) != tt.Len {
			return nil, fmt.Errorf("%w: %d elements for %s", types.ErrShapeMismatch, len(lit.List), t)
		}
		elems := make([]Value, tt.Len)
		for i, el := range lit.List {
			v, err := ConstFromLiteral(b, tt.Elem, el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &Composite{Typ: t, Elems: elems}, nil
	case types.Tuple:
		if len(lit.List) != len(tt.Elems) {
			return nil, fmt.Errorf("%w: %d elements for %s", types.ErrShapeMismatch, len(lit.List), t)
		}
		elems := make([]Value, len(tt.Elems))
		for i, et := range tt.Elems {
			v, err := ConstFromLiteral(b, et, lit.List[i])
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &Composite{Typ: t, Elems: elems}, nil
	case types.Struct:
		if lit.Fields == nil {
			return nil, fmt.Errorf("%w: expected fields for %s", types.ErrShapeMismatch, t)
		}
		elems := make([]Value, len(tt.Fields))
		for i, f := range tt.Fields {
			fl, ok := lit.Fields[f.Name]
			if !ok {
				return nil, fmt.Errorf("%w: missing field %s of %s", types.ErrShapeMismatch, f.Name, t)
			}
			v, err := ConstFromLiteral(b, f.Type, fl)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &Composite{Typ: t, Elems: elems}, nil
	}
	return nil, fmt.Errorf("%w: %s is not composite", types.ErrShapeMismatch, t)
}

// ToLiteral reads a value back out of the witness. It fails outside
// witness mode.
func ToLiteral(b *builder.Builder, v Value) (*Literal, error) {
	switch vv := v.(type) {
	case Unit:
		return &Literal{}, nil
	case *Scalar:
		n, ok := scalarBig(b, vv)
		if !ok {
			return nil, fmt.Errorf("no witness value for %s", vv.Typ)
		}
		switch tt := vv.Typ.(type) {
		case types.Bool:
			return LitBool(n.Sign() != 0), nil
		case types.Enum:
			if name, ok := tt.VariantOf(n); ok {
				return &Literal{Variant: name, Int: n}, nil
			}
			return LitBig(n), nil
		default:
			return LitBig(n), nil
		}
	case *Composite:
		switch tt := vv.Typ.(type) {
		case types.Struct:
			fields := make(map[string]*Literal, len(tt.Fields))
			for i, f := range tt.Fields {
				fl, err := ToLiteral(b, vv.Elems[i])
				if err != nil {
					return nil, err
				}
				fields[f.Name] = fl
			}
			return &Literal{Fields: fields}, nil
		default:
			elems := make([]*Literal, len(vv.Elems))
			for i, e := range vv.Elems {
				el, err := ToLiteral(b, e)
				if err != nil {
					return nil, err
				}
				elems[i] = el
			}
			return &Literal{List: elems}, nil
		}
	}
	panic(fmt.Sprintf("unknown value %T", v))
}
