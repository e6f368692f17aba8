package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/field/bn254"
	"github.com/sigilzk/sigil/types"
)

var (
	u8  = types.Integer{Width: 8}
	i8  = types.Integer{Width: 8, IsSigned: true}
	u16 = types.Integer{Width: 16}
	i16 = types.Integer{Width: 16, IsSigned: true}

	suit = types.Enum{
		Name: "Suit",
		Variants: []types.EnumVariant{
			{Name: "Clubs", Value: big.NewInt(0)},
			{Name: "Hearts", Value: big.NewInt(7)},
			{Name: "Spades", Value: big.NewInt(20)},
		},
	}
)

func newWitnessBuilder() *builder.Builder {
	return builder.New(cs.NewWitness(&bn254.Field{}))
}

func scalar(t *testing.T, b *builder.Builder, typ types.Type, v int64) *Scalar {
	t.Helper()
	s, err := FromLiteral(b, typ, LitInt(v), false)
	require.NoError(t, err)
	return s.(*Scalar)
}

func boolScalar(t *testing.T, b *builder.Builder, v bool) *Scalar {
	t.Helper()
	s, err := FromLiteral(b, types.Bool{}, LitBool(v), false)
	require.NoError(t, err)
	return s.(*Scalar)
}

func evalScalar(t *testing.T, b *builder.Builder, s *Scalar) *big.Int {
	t.Helper()
	n, ok := scalarBig(b, s)
	require.True(t, ok)
	return n
}

func TestTypedArithmetic(t *testing.T) {
	b := newWitnessBuilder()
	x := scalar(t, b, i16, -300)
	y := scalar(t, b, i16, 500)

	sum, err := Add(b, b.One(), x, y)
	require.NoError(t, err)
	require.Equal(t, int64(200), evalScalar(t, b, sum).Int64())

	diff, err := Sub(b, b.One(), x, y)
	require.NoError(t, err)
	require.Equal(t, int64(-800), evalScalar(t, b, diff).Int64())

	prod, err := Mul(b, b.One(), scalar(t, b, i16, -25), scalar(t, b, i16, 40))
	require.NoError(t, err)
	require.Equal(t, int64(-1000), evalScalar(t, b, prod).Int64())
}

func TestArithmeticOverflow(t *testing.T) {
	b := newWitnessBuilder()
	_, err := Add(b, b.One(), scalar(t, b, u8, 200), scalar(t, b, u8, 100))
	require.ErrorIs(t, err, builder.ErrOverflow)

	b = newWitnessBuilder()
	_, err = Sub(b, b.One(), scalar(t, b, u8, 0), scalar(t, b, u8, 1))
	require.ErrorIs(t, err, builder.ErrOverflow)

	b = newWitnessBuilder()
	_, err = Mul(b, b.One(), scalar(t, b, i8, -128), scalar(t, b, i8, -1))
	require.ErrorIs(t, err, builder.ErrOverflow)
}

func TestArithmeticUnderInactiveBranch(t *testing.T) {
	// an overflow that happens only on an untaken path collapses to a
	// zero result instead of failing the run
	b := newWitnessBuilder()
	cond := boolScalar(t, b, false)

	sum, err := Add(b, cond.X, scalar(t, b, u8, 200), scalar(t, b, u8, 100))
	require.NoError(t, err)
	require.Equal(t, int64(0), evalScalar(t, b, sum).Int64())

	neg, err := Neg(b, cond.X, scalar(t, b, u8, 1))
	require.NoError(t, err)
	require.Equal(t, int64(0), evalScalar(t, b, neg).Int64())

	// the same selector at one keeps overflow fatal
	b = newWitnessBuilder()
	cond = boolScalar(t, b, true)
	_, err = Add(b, cond.X, scalar(t, b, u8, 200), scalar(t, b, u8, 100))
	require.ErrorIs(t, err, builder.ErrOverflow)
}

func TestMixedTypesRejected(t *testing.T) {
	b := newWitnessBuilder()
	_, err := Add(b, b.One(), scalar(t, b, u8, 1), scalar(t, b, u16, 1))
	require.ErrorIs(t, err, types.ErrShapeMismatch)

	_, err = Add(b, b.One(), boolScalar(t, b, true), boolScalar(t, b, false))
	require.ErrorIs(t, err, types.ErrTypeMismatch)
}

func TestDivisionTruncates(t *testing.T) {
	cases := []struct {
		a, b, q, r int64
	}{
		{7, 2, 3, 1},
		{-7, 2, -3, -1},
		{7, -2, -3, 1},
		{-7, -2, 3, -1},
		{-32768, 1, -32768, 0},
		{6, 3, 2, 0},
	}
	for _, tc := range cases {
		b := newWitnessBuilder()
		x := scalar(t, b, i16, tc.a)
		y := scalar(t, b, i16, tc.b)

		q, err := Div(b, b.One(), x, y)
		require.NoError(t, err, "%d / %d", tc.a, tc.b)
		require.Equal(t, tc.q, evalScalar(t, b, q).Int64(), "%d / %d", tc.a, tc.b)

		r, err := Rem(b, b.One(), x, y)
		require.NoError(t, err, "%d %% %d", tc.a, tc.b)
		require.Equal(t, tc.r, evalScalar(t, b, r).Int64(), "%d %% %d", tc.a, tc.b)
	}
}

func TestDivisionFailures(t *testing.T) {
	b := newWitnessBuilder()
	_, err := Div(b, b.One(), scalar(t, b, i16, 5), scalar(t, b, i16, 0))
	require.ErrorIs(t, err, builder.ErrDivisionByZero)

	b = newWitnessBuilder()
	_, err = Div(b, b.One(), scalar(t, b, i16, -32768), scalar(t, b, i16, -1))
	require.ErrorIs(t, err, builder.ErrOverflow)

	// zero divisor under an untaken branch divides by one instead
	b = newWitnessBuilder()
	q, err := Div(b, b.Zero(), scalar(t, b, i16, 5), scalar(t, b, i16, 0))
	require.NoError(t, err)
	require.NotNil(t, q)
}

func TestFieldDivision(t *testing.T) {
	b := newWitnessBuilder()
	x := scalar(t, b, types.Field{}, 12)
	y := scalar(t, b, types.Field{}, 4)
	q, err := Div(b, b.One(), x, y)
	require.NoError(t, err)
	require.Equal(t, int64(3), evalScalar(t, b, q).Int64())

	_, err = Rem(b, b.One(), x, y)
	require.ErrorIs(t, err, types.ErrTypeMismatch)
}

func TestComparisons(t *testing.T) {
	cases := []struct {
		name string
		typ  types.Type
		a, b int64
	}{
		{"unsigned", u8, 3, 200},
		{"signed", i8, -5, 4},
		{"signed negatives", i16, -300, -200},
		{"field", types.Field{}, 10, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newWitnessBuilder()
			x := scalar(t, b, tc.typ, tc.a)
			y := scalar(t, b, tc.typ, tc.b)

			for _, chk := range []struct {
				op   func(*builder.Builder, *Scalar, *Scalar) (*Scalar, error)
				want bool
			}{
				{Lt, tc.a < tc.b},
				{Le, tc.a <= tc.b},
				{Gt, tc.a > tc.b},
				{Ge, tc.a >= tc.b},
				{Eq, tc.a == tc.b},
				{Ne, tc.a != tc.b},
			} {
				got, err := chk.op(b, x, y)
				require.NoError(t, err)
				require.Equal(t, chk.want, evalScalar(t, b, got).Sign() != 0)
			}
		})
	}
}

func TestOrderingRejectsBool(t *testing.T) {
	b := newWitnessBuilder()
	_, err := Lt(b, boolScalar(t, b, false), boolScalar(t, b, true))
	require.ErrorIs(t, err, types.ErrTypeMismatch)
}

func TestBitwise(t *testing.T) {
	b := newWitnessBuilder()
	x := scalar(t, b, u8, 0b1100)
	y := scalar(t, b, u8, 0b1010)

	and, err := BitAnd(b, x, y)
	require.NoError(t, err)
	require.Equal(t, int64(0b1000), evalScalar(t, b, and).Int64())

	or, err := BitOr(b, x, y)
	require.NoError(t, err)
	require.Equal(t, int64(0b1110), evalScalar(t, b, or).Int64())

	xor, err := BitXor(b, x, y)
	require.NoError(t, err)
	require.Equal(t, int64(0b0110), evalScalar(t, b, xor).Int64())

	shl, err := Shl(b, x, 3)
	require.NoError(t, err)
	require.Equal(t, int64(0b1100000), evalScalar(t, b, shl).Int64())

	shr, err := Shr(b, x, 2)
	require.NoError(t, err)
	require.Equal(t, int64(0b11), evalScalar(t, b, shr).Int64())

	// left shift truncates at the width
	shl8, err := Shl(b, x, 8)
	require.NoError(t, err)
	require.Equal(t, int64(0), evalScalar(t, b, shl8).Int64())

	_, err = BitAnd(b, scalar(t, b, i8, 1), scalar(t, b, i8, 1))
	require.ErrorIs(t, err, types.ErrTypeMismatch)
}

func TestCastRules(t *testing.T) {
	t.Run("widening is free", func(t *testing.T) {
		b := newWitnessBuilder()
		x := scalar(t, b, i8, -5)
		before := b.System().NbConstraints()
		wide, err := Cast(b, x, i16)
		require.NoError(t, err)
		require.Equal(t, before, b.System().NbConstraints())
		require.Equal(t, int64(-5), evalScalar(t, b, wide).Int64())
	})

	t.Run("narrowing truncates", func(t *testing.T) {
		b := newWitnessBuilder()
		x := scalar(t, b, u16, 0x1FF)
		narrow, err := Cast(b, x, u8)
		require.NoError(t, err)
		require.Equal(t, int64(0xFF), evalScalar(t, b, narrow).Int64())
	})

	t.Run("signedness reinterprets", func(t *testing.T) {
		b := newWitnessBuilder()
		x := scalar(t, b, u8, 200)
		signed, err := Cast(b, x, i8)
		require.NoError(t, err)
		require.Equal(t, int64(200-256), evalScalar(t, b, signed).Int64())
	})

	t.Run("signed to unsigned wraps", func(t *testing.T) {
		b := newWitnessBuilder()
		x := scalar(t, b, i8, -1)
		u, err := Cast(b, x, u8)
		require.NoError(t, err)
		require.Equal(t, int64(255), evalScalar(t, b, u).Int64())
	})

	t.Run("field to integer keeps low bits", func(t *testing.T) {
		b := newWitnessBuilder()
		x := scalar(t, b, types.Field{}, 0x1234)
		u, err := Cast(b, x, u8)
		require.NoError(t, err)
		require.Equal(t, int64(0x34), evalScalar(t, b, u).Int64())
	})

	t.Run("enum to field is free", func(t *testing.T) {
		b := newWitnessBuilder()
		v, err := FromLiteral(b, suit, LitVariant("Hearts"), false)
		require.NoError(t, err)
		f, err := Cast(b, v.(*Scalar), types.Field{})
		require.NoError(t, err)
		require.Equal(t, int64(7), evalScalar(t, b, f).Int64())
	})

	t.Run("enum survives a field round trip", func(t *testing.T) {
		b := newWitnessBuilder()
		v, err := FromLiteral(b, suit, LitVariant("Hearts"), false)
		require.NoError(t, err)
		f, err := Cast(b, v.(*Scalar), types.Field{})
		require.NoError(t, err)
		back, err := Cast(b, f, suit)
		require.NoError(t, err)
		out, err := ToLiteral(b, back)
		require.NoError(t, err)
		require.Equal(t, "Hearts", out.Variant)

		// a field value outside the discriminant set does not cast back
		b = newWitnessBuilder()
		_, err = Cast(b, scalar(t, b, types.Field{}, 3), suit)
		require.ErrorIs(t, err, types.ErrTypeMismatch)
	})

	t.Run("integer to enum checks membership", func(t *testing.T) {
		b := newWitnessBuilder()
		ok, err := Cast(b, scalar(t, b, u8, 20), suit)
		require.NoError(t, err)
		require.Equal(t, suit, ok.Type())

		b = newWitnessBuilder()
		_, err = Cast(b, scalar(t, b, u8, 3), suit)
		require.ErrorIs(t, err, types.ErrTypeMismatch)
	})

	t.Run("bool target rejected", func(t *testing.T) {
		b := newWitnessBuilder()
		_, err := Cast(b, scalar(t, b, u8, 1), types.Bool{})
		require.ErrorIs(t, err, types.ErrTypeMismatch)
	})
}

func TestMerge(t *testing.T) {
	pair := types.Struct{
		Name: "Pair",
		Fields: []types.StructField{
			{Name: "flag", Type: types.Bool{}},
			{Name: "count", Type: u8},
		},
	}

	t.Run("per leaf", func(t *testing.T) {
		b := newWitnessBuilder()
		cond := boolScalar(t, b, true)
		then, err := FromLiteral(b, pair, LitFields(map[string]*Literal{
			"flag": LitBool(true), "count": LitInt(255),
		}), false)
		require.NoError(t, err)
		els, err := FromLiteral(b, pair, LitFields(map[string]*Literal{
			"flag": LitBool(false), "count": LitInt(0),
		}), false)
		require.NoError(t, err)

		merged, err := Merge(b, cond.X, then, els)
		require.NoError(t, err)
		leaves := Leaves(merged)
		require.Len(t, leaves, 2)
		require.Equal(t, int64(1), evalScalar(t, b, leaves[0]).Int64())
		require.Equal(t, int64(255), evalScalar(t, b, leaves[1]).Int64())
	})

	t.Run("identical leaves pass through", func(t *testing.T) {
		b := newWitnessBuilder()
		cond := boolScalar(t, b, false)
		v := scalar(t, b, u8, 9)
		before := b.System().NbConstraints()
		merged, err := Merge(b, cond.X, v, v)
		require.NoError(t, err)
		require.Equal(t, before, b.System().NbConstraints())
		require.Same(t, v, merged)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		b := newWitnessBuilder()
		cond := boolScalar(t, b, true)
		_, err := Merge(b, cond.X, scalar(t, b, u8, 1), scalar(t, b, u16, 1))
		require.ErrorIs(t, err, types.ErrShapeMismatch)
	})
}

func TestLiteralIntake(t *testing.T) {
	t.Run("out of range input", func(t *testing.T) {
		b := newWitnessBuilder()
		_, err := FromLiteral(b, u8, LitInt(256), false)
		require.ErrorIs(t, err, types.ErrTypeMismatch)
	})

	t.Run("undeclared variant", func(t *testing.T) {
		b := newWitnessBuilder()
		_, err := FromLiteral(b, suit, LitInt(3), false)
		require.ErrorIs(t, err, types.ErrTypeMismatch)
	})

	t.Run("wrong arity", func(t *testing.T) {
		b := newWitnessBuilder()
		arr := types.Array{Elem: u8, Len: 3}
		_, err := FromLiteral(b, arr, LitList(LitInt(1), LitInt(2)), false)
		require.ErrorIs(t, err, types.ErrShapeMismatch)
	})

	t.Run("round trip", func(t *testing.T) {
		b := newWitnessBuilder()
		arr := types.Array{Elem: i8, Len: 3}
		in := LitList(LitInt(-1), LitInt(0), LitInt(127))
		v, err := FromLiteral(b, arr, in, false)
		require.NoError(t, err)
		out, err := ToLiteral(b, v)
		require.NoError(t, err)
		require.Len(t, out.List, 3)
		require.Equal(t, int64(-1), out.List[0].Int.Int64())
		require.Equal(t, int64(127), out.List[2].Int.Int64())
	})

	t.Run("enum round trip", func(t *testing.T) {
		b := newWitnessBuilder()
		v, err := FromLiteral(b, suit, LitVariant("Spades"), false)
		require.NoError(t, err)
		out, err := ToLiteral(b, v)
		require.NoError(t, err)
		require.Equal(t, "Spades", out.Variant)
	})
}

func TestZeroValues(t *testing.T) {
	b := newWitnessBuilder()
	z, err := Zero(b, types.Tuple{Elems: []types.Type{u8, suit, types.Bool{}}})
	require.NoError(t, err)
	leaves := Leaves(z)
	require.Len(t, leaves, 3)
	// the enum's zero is its first declared variant
	require.Equal(t, int64(0), evalScalar(t, b, leaves[1]).Int64())
}
