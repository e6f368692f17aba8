package value

import (
	"fmt"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/types"
)

// Merge combines the results of two branches under a boolean selector,
// leaf by leaf: cond·then + (1-cond)·else. Leaves whose expressions are
// identical pass through untouched, so merging a value with itself costs
// nothing.
func Merge(b *builder.Builder, cond expr.Expression, then, els Value) (Value, error) {
	if !types.Equal(then.Type(), els.Type()) {
		return nil, fmt.Errorf("%w: branch types %s and %s", types.ErrShapeMismatch, then.Type(), els.Type())
	}
	return merge(b, cond, then, els)
}

func merge(b *builder.Builder, cond expr.Expression, then, els Value) (Value, error) {
	switch tv := then.(type) {
	case Unit:
		return Unit{}, nil
	case *Scalar:
		ev := els.(*Scalar)
		if tv.X.Equal(ev.X) {
			return tv, nil
		}
		sel, err := b.Select(cond, tv.X, ev.X, ClassOf(tv.Typ))
		if err != nil {
			return nil, err
		}
		return &Scalar{Typ: tv.Typ, X: sel}, nil
	case *Composite:
		ev := els.(*Composite)
		elems := make([]Value, len(tv.Elems))
		for i := range tv.Elems {
			m, err := merge(b, cond, tv.Elems[i], ev.Elems[i])
			if err != nil {
				return nil, err
			}
			elems[i] = m
		}
		return &Composite{Typ: tv.Typ, Elems: elems}, nil
	}
	panic(fmt.Sprintf("unknown value %T", then))
}
