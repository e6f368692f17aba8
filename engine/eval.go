package engine

import (
	"fmt"
	"sort"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/program"
	"github.com/sigilzk/sigil/std/sha256"
	"github.com/sigilzk/sigil/types"
	"github.com/sigilzk/sigil/value"
)

// evaluator walks one function body at a time. It is single threaded;
// concurrent evaluations get independent evaluators over independent
// systems.
type evaluator struct {
	b     *builder.Builder
	prog  *program.Program
	conds condStack

	// active call chain, for recursion detection
	calls []string
}

func (ev *evaluator) evalBlock(env *env, blk *program.Block) (value.Value, error) {
	env.push()
	defer env.pop()

	for _, s := range blk.Stmts {
		if err := ev.evalStmt(env, s); err != nil {
			return nil, err
		}
	}
	if blk.Tail == nil {
		return value.Unit{}, nil
	}
	return ev.evalExpr(env, blk.Tail)
}

func (ev *evaluator) evalStmt(env *env, s program.Stmt) error {
	switch st := s.(type) {
	case *program.Let:
		v, err := ev.evalExpr(env, st.Value)
		if err != nil {
			return err
		}
		env.define(st.Name, v, st.Mutable)
		return nil

	case *program.Assign:
		v, err := ev.evalExpr(env, st.Value)
		if err != nil {
			return err
		}
		if len(st.Path) > 0 {
			cur, ok := env.lookup(st.Name)
			if !ok {
				return fmt.Errorf("undefined name %q", st.Name)
			}
			if v, err = updatePath(cur, st.Path, v); err != nil {
				return err
			}
		}
		return env.assign(st.Name, v)

	case *program.Require:
		c, err := ev.evalExpr(env, st.Cond)
		if err != nil {
			return err
		}
		return ev.require(c, st.Message)

	case *program.ExprStmt:
		_, err := ev.evalExpr(env, st.X)
		return err
	}
	panic(fmt.Sprintf("unknown statement %T", s))
}

// require enforces a condition, relaxed to an implication under the
// active branch selectors: taken branch implies condition.
func (ev *evaluator) require(c value.Value, msg string) error {
	s, ok := c.(*value.Scalar)
	if !ok || s.Typ.Kind() != types.KindBool {
		return fmt.Errorf("%w: require needs a bool, got %s", types.ErrTypeMismatch, c.Type())
	}
	b := ev.b
	cond := s.X
	if active := ev.conds.active(b); !active.Equal(b.One()) {
		notActive, err := b.Not(active)
		if err != nil {
			return err
		}
		if cond, err = b.Or(notActive, cond); err != nil {
			return err
		}
	}
	if err := b.AssertIsEqual(cond, b.One()); err != nil {
		if msg != "" {
			return fmt.Errorf("requirement %q failed: %w", msg, err)
		}
		return fmt.Errorf("requirement failed: %w", err)
	}
	return nil
}

// updatePath rebuilds a composite with the element at path replaced.
// Values are never mutated in place; enclosing bindings keep their old
// structure until reassigned.
func updatePath(cur value.Value, path []program.Accessor, v value.Value) (value.Value, error) {
	if len(path) == 0 {
		if !types.Equal(cur.Type(), v.Type()) {
			return nil, fmt.Errorf("%w: writing %s over %s", types.ErrTypeMismatch, v.Type(), cur.Type())
		}
		return v, nil
	}

	comp, ok := cur.(*value.Composite)
	if !ok {
		return nil, fmt.Errorf("%w: cannot descend into %s", types.ErrShapeMismatch, cur.Type())
	}
	var idx int
	switch acc := path[0].(type) {
	case program.FieldAccess:
		st, ok := comp.Typ.(types.Struct)
		if !ok {
			return nil, fmt.Errorf("%w: field access on %s", types.ErrShapeMismatch, comp.Typ)
		}
		if idx, ok = st.FieldIndex(acc.Name); !ok {
			return nil, fmt.Errorf("%w: %s has no field %s", types.ErrShapeMismatch, comp.Typ, acc.Name)
		}
	case program.IndexAccess:
		if acc.Index < 0 || acc.Index >= len(comp.Elems) {
			return nil, fmt.Errorf("%w: index %d out of bounds for %s", types.ErrShapeMismatch, acc.Index, comp.Typ)
		}
		idx = acc.Index
	default:
		panic(fmt.Sprintf("unknown accessor %T", path[0]))
	}

	inner, err := updatePath(comp.Elems[idx], path[1:], v)
	if err != nil {
		return nil, err
	}
	elems := make([]value.Value, len(comp.Elems))
	copy(elems, comp.Elems)
	elems[idx] = inner
	return &value.Composite{Typ: comp.Typ, Elems: elems}, nil
}

func (ev *evaluator) evalExpr(env *env, x program.Expr) (value.Value, error) {
	b := ev.b
	switch xt := x.(type) {
	case *program.Lit:
		return value.ConstFromLiteral(b, xt.Type, xt.Value)

	case *program.Ident:
		v, ok := env.lookup(xt.Name)
		if !ok {
			return nil, fmt.Errorf("undefined name %q", xt.Name)
		}
		return v, nil

	case *program.Unary:
		return ev.evalUnary(env, xt)

	case *program.Binary:
		return ev.evalBinary(env, xt)

	case *program.Cond:
		return ev.evalCond(env, xt)

	case *program.Call:
		return ev.evalCall(env, xt)

	case *program.ArrayLit:
		elems := make([]value.Value, len(xt.Elems))
		for i, el := range xt.Elems {
			v, err := ev.evalExpr(env, el)
			if err != nil {
				return nil, err
			}
			if !types.Equal(v.Type(), xt.Elem) {
				return nil, fmt.Errorf("%w: array element %d is %s, want %s",
					types.ErrTypeMismatch, i, v.Type(), xt.Elem)
			}
			elems[i] = v
		}
		return &value.Composite{
			Typ:   types.Array{Elem: xt.Elem, Len: len(elems)},
			Elems: elems,
		}, nil

	case *program.TupleLit:
		elems := make([]value.Value, len(xt.Elems))
		ts := make([]types.Type, len(xt.Elems))
		for i, el := range xt.Elems {
			v, err := ev.evalExpr(env, el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
			ts[i] = v.Type()
		}
		return &value.Composite{Typ: types.Tuple{Elems: ts}, Elems: elems}, nil

	case *program.StructLit:
		return ev.evalStructLit(env, xt)

	case *program.Index:
		v, err := ev.evalExpr(env, xt.X)
		if err != nil {
			return nil, err
		}
		comp, ok := v.(*value.Composite)
		if !ok {
			return nil, fmt.Errorf("%w: indexing %s", types.ErrShapeMismatch, v.Type())
		}
		if xt.Index < 0 || xt.Index >= len(comp.Elems) {
			return nil, fmt.Errorf("%w: index %d out of bounds for %s", types.ErrShapeMismatch, xt.Index, comp.Typ)
		}
		return comp.Elems[xt.Index], nil

	case *program.Member:
		v, err := ev.evalExpr(env, xt.X)
		if err != nil {
			return nil, err
		}
		comp, ok := v.(*value.Composite)
		if !ok {
			return nil, fmt.Errorf("%w: member access on %s", types.ErrShapeMismatch, v.Type())
		}
		st, ok := comp.Typ.(types.Struct)
		if !ok {
			return nil, fmt.Errorf("%w: member access on %s", types.ErrShapeMismatch, comp.Typ)
		}
		idx, ok := st.FieldIndex(xt.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no field %s", types.ErrShapeMismatch, comp.Typ, xt.Name)
		}
		return comp.Elems[idx], nil

	case *program.CastExpr:
		v, err := ev.evalExpr(env, xt.X)
		if err != nil {
			return nil, err
		}
		s, ok := v.(*value.Scalar)
		if !ok {
			return nil, fmt.Errorf("%w: cannot cast %s", types.ErrTypeMismatch, v.Type())
		}
		return value.Cast(b, s, xt.To)

	case *program.Variant:
		d, ok := xt.Enum.Discriminant(xt.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no variant %s", types.ErrTypeMismatch, xt.Enum, xt.Name)
		}
		return &value.Scalar{Typ: xt.Enum, X: b.Constant(d)}, nil

	case *program.Intrinsic:
		return ev.evalIntrinsic(env, xt)
	}
	panic(fmt.Sprintf("unknown expression %T", x))
}

func (ev *evaluator) evalUnary(env *env, x *program.Unary) (value.Value, error) {
	v, err := ev.evalExpr(env, x.X)
	if err != nil {
		return nil, err
	}
	s, ok := v.(*value.Scalar)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", types.ErrTypeMismatch, x.Op, v.Type())
	}
	switch x.Op {
	case program.OpNeg:
		return value.Neg(ev.b, ev.conds.active(ev.b), s)
	case program.OpNot:
		return value.Not(ev.b, s)
	}
	panic(fmt.Sprintf("unknown unary op %d", x.Op))
}

func (ev *evaluator) evalBinary(env *env, x *program.Binary) (value.Value, error) {
	xv, err := ev.evalExpr(env, x.X)
	if err != nil {
		return nil, err
	}
	yv, err := ev.evalExpr(env, x.Y)
	if err != nil {
		return nil, err
	}
	xs, ok := xv.(*value.Scalar)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", types.ErrTypeMismatch, x.Op, xv.Type())
	}
	ys, ok := yv.(*value.Scalar)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", types.ErrTypeMismatch, x.Op, yv.Type())
	}

	b := ev.b
	switch x.Op {
	case program.OpAdd:
		return value.Add(b, ev.conds.active(b), xs, ys)
	case program.OpSub:
		return value.Sub(b, ev.conds.active(b), xs, ys)
	case program.OpMul:
		return value.Mul(b, ev.conds.active(b), xs, ys)
	case program.OpDiv:
		return value.Div(b, ev.conds.active(b), xs, ys)
	case program.OpRem:
		return value.Rem(b, ev.conds.active(b), xs, ys)
	case program.OpEq:
		return value.Eq(b, xs, ys)
	case program.OpNe:
		return value.Ne(b, xs, ys)
	case program.OpLt:
		return value.Lt(b, xs, ys)
	case program.OpLe:
		return value.Le(b, xs, ys)
	case program.OpGt:
		return value.Gt(b, xs, ys)
	case program.OpGe:
		return value.Ge(b, xs, ys)
	case program.OpAnd:
		return value.And(b, xs, ys)
	case program.OpOr:
		return value.Or(b, xs, ys)
	case program.OpXor:
		return value.Xor(b, xs, ys)
	case program.OpBitAnd:
		return value.BitAnd(b, xs, ys)
	case program.OpBitOr:
		return value.BitOr(b, xs, ys)
	case program.OpBitXor:
		return value.BitXor(b, xs, ys)
	case program.OpShl, program.OpShr:
		n, err := ev.constShift(ys)
		if err != nil {
			return nil, err
		}
		if x.Op == program.OpShl {
			return value.Shl(b, xs, n)
		}
		return value.Shr(b, xs, n)
	}
	panic(fmt.Sprintf("unknown binary op %d", x.Op))
}

// constShift unwraps a compile-time constant shift amount.
func (ev *evaluator) constShift(s *value.Scalar) (int, error) {
	cv, ok := ev.b.ConstantValue(s.X)
	if !ok {
		return 0, fmt.Errorf("%w: shift amount must be a constant", types.ErrTypeMismatch)
	}
	n, ok := ev.b.Field().Uint64(cv)
	if !ok || n > 248 {
		return 0, fmt.Errorf("%w: shift amount out of range", types.ErrTypeMismatch)
	}
	return int(n), nil
}

// evalCond evaluates a conditional. Constant selectors fold to one
// branch; otherwise both branches run and their results and writes merge
// under the selector.
func (ev *evaluator) evalCond(env *env, x *program.Cond) (value.Value, error) {
	b := ev.b
	cv, err := ev.evalExpr(env, x.If)
	if err != nil {
		return nil, err
	}
	sel, ok := cv.(*value.Scalar)
	if !ok || sel.Typ.Kind() != types.KindBool {
		return nil, fmt.Errorf("%w: condition is %s, want bool", types.ErrTypeMismatch, cv.Type())
	}

	if c, isConst := b.ConstantValue(sel.X); isConst {
		if b.Field().IsOne(c) {
			return ev.evalBlock(env, x.Then)
		}
		if x.Else == nil {
			return value.Unit{}, nil
		}
		return ev.evalBlock(env, x.Else)
	}

	notSel, err := b.Not(sel.X)
	if err != nil {
		return nil, err
	}

	env.pushBranch()
	ev.conds.push(b, sel.X)
	thenVal, err := ev.evalBlock(env, x.Then)
	ev.conds.pop()
	thenWrites := env.pop().writes
	if err != nil {
		return nil, err
	}

	elseVal := value.Value(value.Unit{})
	elseWrites := map[string]value.Value{}
	if x.Else != nil {
		env.pushBranch()
		ev.conds.push(b, notSel)
		elseVal, err = ev.evalBlock(env, x.Else)
		ev.conds.pop()
		elseWrites = env.pop().writes
		if err != nil {
			return nil, err
		}
	}

	if err := ev.mergeWrites(env, sel.X, thenWrites, elseWrites); err != nil {
		return nil, err
	}
	if x.Else == nil {
		if thenVal.Type().Kind() != types.KindUnit {
			return nil, fmt.Errorf("%w: conditional without else yields %s", types.ErrShapeMismatch, thenVal.Type())
		}
		return value.Unit{}, nil
	}
	return value.Merge(b, sel.X, thenVal, elseVal)
}

// mergeWrites folds branch-captured assignments back into the enclosing
// scope, one merge per written name.
func (ev *evaluator) mergeWrites(env *env, sel expr.Expression, thenW, elseW map[string]value.Value) error {
	names := make(map[string]struct{}, len(thenW)+len(elseW))
	for n := range thenW {
		names[n] = struct{}{}
	}
	for n := range elseW {
		names[n] = struct{}{}
	}
	// deterministic order keeps the two evaluation modes emitting
	// identical constraint sequences
	ordered := make([]string, 0, len(names))
	for n := range names {
		ordered = append(ordered, n)
	}
	sort.Strings(ordered)

	for _, name := range ordered {
		base, ok := env.lookup(name)
		if !ok {
			return fmt.Errorf("undefined name %q", name)
		}
		tv, ok := thenW[name]
		if !ok {
			tv = base
		}
		evv, ok := elseW[name]
		if !ok {
			evv = base
		}
		merged, err := value.Merge(ev.b, sel, tv, evv)
		if err != nil {
			return err
		}
		if err := env.assign(name, merged); err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluator) evalCall(env *env, x *program.Call) (value.Value, error) {
	fn, ok := ev.prog.Functions[x.Func]
	if !ok {
		return nil, fmt.Errorf("undefined function %q", x.Func)
	}
	for _, active := range ev.calls {
		if active == x.Func {
			return nil, fmt.Errorf("recursive call to %q", x.Func)
		}
	}
	if len(x.Args) != len(fn.Params) {
		return nil, fmt.Errorf("%w: %q takes %d arguments, got %d",
			types.ErrShapeMismatch, x.Func, len(fn.Params), len(x.Args))
	}

	callEnv := newEnv()
	for i, arg := range x.Args {
		v, err := ev.evalExpr(env, arg)
		if err != nil {
			return nil, err
		}
		if !types.Equal(v.Type(), fn.Params[i].Type) {
			return nil, fmt.Errorf("%w: argument %d of %q is %s, want %s",
				types.ErrTypeMismatch, i, x.Func, v.Type(), fn.Params[i].Type)
		}
		callEnv.define(fn.Params[i].Name, v, false)
	}

	ev.calls = append(ev.calls, x.Func)
	out, err := ev.evalBlock(callEnv, fn.Body)
	ev.calls = ev.calls[:len(ev.calls)-1]
	if err != nil {
		return nil, err
	}
	if !types.Equal(out.Type(), fn.Result) {
		return nil, fmt.Errorf("%w: %q returns %s, want %s",
			types.ErrTypeMismatch, x.Func, out.Type(), fn.Result)
	}
	return out, nil
}

func (ev *evaluator) evalStructLit(env *env, x *program.StructLit) (value.Value, error) {
	given := make(map[string]program.Expr, len(x.Fields))
	for _, f := range x.Fields {
		if _, dup := given[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %s in %s literal", types.ErrShapeMismatch, f.Name, x.Type)
		}
		given[f.Name] = f.Value
	}
	elems := make([]value.Value, len(x.Type.Fields))
	for i, f := range x.Type.Fields {
		fx, ok := given[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %s in %s literal", types.ErrShapeMismatch, f.Name, x.Type)
		}
		v, err := ev.evalExpr(env, fx)
		if err != nil {
			return nil, err
		}
		if !types.Equal(v.Type(), f.Type) {
			return nil, fmt.Errorf("%w: field %s is %s, want %s", types.ErrTypeMismatch, f.Name, v.Type(), f.Type)
		}
		elems[i] = v
	}
	if len(x.Fields) != len(x.Type.Fields) {
		return nil, fmt.Errorf("%w: extra fields in %s literal", types.ErrShapeMismatch, x.Type)
	}
	return &value.Composite{Typ: x.Type, Elems: elems}, nil
}

func (ev *evaluator) evalIntrinsic(env *env, x *program.Intrinsic) (value.Value, error) {
	b := ev.b
	args := make([]value.Value, len(x.Args))
	for i, a := range x.Args {
		v, err := ev.evalExpr(env, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch x.Op {
	case program.IntrinsicToBits:
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: to_bits takes one argument", types.ErrShapeMismatch)
		}
		s, ok := args[0].(*value.Scalar)
		if !ok {
			return nil, fmt.Errorf("%w: to_bits on %s", types.ErrTypeMismatch, args[0].Type())
		}
		return value.ToBitsValue(b, s)

	case program.IntrinsicFromBits:
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: from_bits takes one argument", types.ErrShapeMismatch)
		}
		return value.FromBitsValue(b, args[0], x.To)

	case program.IntrinsicSha256:
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: sha256 takes one argument", types.ErrShapeMismatch)
		}
		return ev.evalSha256(args[0])

	case program.IntrinsicInverse:
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: inverse takes one argument", types.ErrShapeMismatch)
		}
		s, ok := args[0].(*value.Scalar)
		if !ok {
			return nil, fmt.Errorf("%w: inverse on %s", types.ErrTypeMismatch, args[0].Type())
		}
		return value.Inverse(b, ev.conds.active(b), s)
	}
	panic(fmt.Sprintf("unknown intrinsic %d", x.Op))
}

func (ev *evaluator) evalSha256(v value.Value) (value.Value, error) {
	arr, ok := v.(*value.Composite)
	if !ok {
		return nil, fmt.Errorf("%w: sha256 needs a bool array, got %s", types.ErrTypeMismatch, v.Type())
	}
	at, ok := arr.Typ.(types.Array)
	if !ok || at.Elem.Kind() != types.KindBool {
		return nil, fmt.Errorf("%w: sha256 needs a bool array, got %s", types.ErrTypeMismatch, arr.Typ)
	}
	if err := sha256.BitLength(len(arr.Elems)); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrShapeMismatch, err)
	}

	bits := make([]expr.Expression, len(arr.Elems))
	for i, e := range arr.Elems {
		bits[i] = e.(*value.Scalar).X
	}
	digest, err := sha256.Hash(ev.b, bits)
	if err != nil {
		return nil, err
	}
	elems := make([]value.Value, len(digest))
	for i, d := range digest {
		elems[i] = &value.Scalar{Typ: types.Bool{}, X: d}
	}
	return &value.Composite{
		Typ:   types.Array{Elem: types.Bool{}, Len: len(elems)},
		Elems: elems,
	}, nil
}
