package builder

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/field/bn254"
)

func newWitnessBuilder() *Builder {
	return New(cs.NewWitness(&bn254.Field{}))
}

func newSynthBuilder() *Builder {
	return New(cs.New(&bn254.Field{}))
}

// wire allocates a field-class variable carrying v.
func wire(b *Builder, v interface{}) expr.Expression {
	e, _ := b.Input(cs.ClassField, b.field.FromInterface(v))
	return e
}

func wireClass(b *Builder, class cs.Class, v interface{}) expr.Expression {
	e, _ := b.Input(class, b.field.FromInterface(v))
	return e
}

func eval(t *testing.T, b *Builder, e expr.Expression) *big.Int {
	t.Helper()
	v, ok := b.Witness(e)
	require.True(t, ok, "expected a witness value")
	return b.field.ToBigInt(v)
}

func TestArithmetic(t *testing.T) {
	b := newWitnessBuilder()
	x := wire(b, 20)
	y := wire(b, 3)

	require.Equal(t, int64(23), eval(t, b, b.Add(x, y)).Int64())
	require.Equal(t, int64(17), eval(t, b, b.Sub(x, y)).Int64())
	require.Equal(t, int64(60), eval(t, b, b.Mul(x, y)).Int64())
	require.Equal(t, int64(400), eval(t, b, b.Mul(x, x)).Int64())

	// constants fold without allocating
	c := b.Mul(b.Constant(6), b.Constant(7))
	cv, isConst := b.ConstantValue(c)
	require.True(t, isConst)
	require.Equal(t, int64(42), b.field.ToBigInt(cv).Int64())
}

func TestMulCachesProducts(t *testing.T) {
	b := newWitnessBuilder()
	x := wire(b, 5)
	y := wire(b, 7)

	before := b.sys.NbAllocations()
	p1 := b.Mul(x, y)
	mid := b.sys.NbAllocations()
	p2 := b.Mul(y, x)
	after := b.sys.NbAllocations()

	require.Equal(t, before+1, mid, "first product allocates")
	require.Equal(t, mid, after, "commuted product hits the cache")
	require.True(t, p1.Equal(p2))
}

func TestAssertIsEqual(t *testing.T) {
	b := newWitnessBuilder()
	x := wire(b, 9)
	require.NoError(t, b.AssertIsEqual(x, b.Constant(9)))
	require.ErrorIs(t, b.AssertIsEqual(x, b.Constant(10)), cs.ErrUnsatisfiable)
}

func TestToBitsRoundTrip(t *testing.T) {
	b := newWitnessBuilder()
	x := wire(b, 0b101101)
	bits, err := b.ToBits(x, 8)
	require.NoError(t, err)
	require.Len(t, bits, 8)
	for i, want := range []int64{1, 0, 1, 1, 0, 1, 0, 0} {
		require.Equal(t, want, eval(t, b, bits[i]).Int64(), "bit %d", i)
	}
	require.Equal(t, int64(0b101101), eval(t, b, b.FromBits(bits)).Int64())
}

func TestToBitsOverflow(t *testing.T) {
	b := newWitnessBuilder()
	x := wire(b, 256)
	_, err := b.ToBits(x, 8)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestRangeCheck(t *testing.T) {
	u8 := cs.NewClass(8, false)
	i8 := cs.NewClass(8, true)
	cases := []struct {
		name  string
		class cs.Class
		v     interface{}
		ok    bool
	}{
		{"u8 max", u8, 255, true},
		{"u8 over", u8, 256, false},
		{"i8 max", i8, 127, true},
		{"i8 min", i8, -128, true},
		{"i8 over", i8, 128, false},
		{"i8 under", i8, -129, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newWitnessBuilder()
			x := wireClass(b, tc.class, tc.v)
			_, err := b.RangeCheck(x, tc.class)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrOverflow)
			}
		})
	}
}

func TestCanonicalDecomposition(t *testing.T) {
	b := newWitnessBuilder()
	pMinusOne := new(big.Int).Sub(b.field.Field(), big.NewInt(1))
	x := wire(b, pMinusOne)
	bits, err := b.ToBitsCanonical(x)
	require.NoError(t, err)
	require.Equal(t, pMinusOne, eval(t, b, b.FromBits(bits)))
}

func TestSelect(t *testing.T) {
	b := newWitnessBuilder()
	cond := wireClass(b, cs.ClassBool, 1)
	x := wire(b, 11)
	y := wire(b, 22)

	sel, err := b.Select(cond, x, y, cs.ClassField)
	require.NoError(t, err)
	require.Equal(t, int64(11), eval(t, b, sel).Int64())

	// constant selectors fold to the operand itself
	folded, err := b.Select(b.Zero(), x, y, cs.ClassField)
	require.NoError(t, err)
	require.True(t, folded.Equal(y))
}

func TestIsZero(t *testing.T) {
	b := newWitnessBuilder()
	z, err := b.IsZero(wire(b, 0))
	require.NoError(t, err)
	require.Equal(t, int64(1), eval(t, b, z).Int64())

	nz, err := b.IsZero(wire(b, 42))
	require.NoError(t, err)
	require.Equal(t, int64(0), eval(t, b, nz).Int64())
}

func TestLogic(t *testing.T) {
	b := newWitnessBuilder()
	one := wireClass(b, cs.ClassBool, 1)
	zero := wireClass(b, cs.ClassBool, 0)

	check := func(got expr.Expression, err error, want int64) {
		t.Helper()
		require.NoError(t, err)
		require.Equal(t, want, eval(t, b, got).Int64())
	}
	and, err := b.And(one, zero)
	check(and, err, 0)
	or, err := b.Or(one, zero)
	check(or, err, 1)
	xor, err := b.Xor(one, one)
	check(xor, err, 0)
	not, err := b.Not(zero)
	check(not, err, 1)
}

func TestLtUnsigned(t *testing.T) {
	cases := []struct {
		a, b uint64
		want int64
	}{
		{3, 5, 1},
		{5, 3, 0},
		{7, 7, 0},
		{0, 255, 1},
		{255, 0, 0},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d<%d", tc.a, tc.b), func(t *testing.T) {
			b := newWitnessBuilder()
			lt, err := b.LtUnsigned(wire(b, tc.a), wire(b, tc.b), 8)
			require.NoError(t, err)
			require.Equal(t, tc.want, eval(t, b, lt).Int64())
		})
	}
}

func TestLtBits(t *testing.T) {
	cases := []struct {
		a, b uint64
		want int64
	}{
		{3, 5, 1},
		{5, 3, 0},
		{9, 9, 0},
		{0, 1, 1},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d<%d", tc.a, tc.b), func(t *testing.T) {
			b := newWitnessBuilder()
			aBits, err := b.ToBits(wire(b, tc.a), 8)
			require.NoError(t, err)
			bBits, err := b.ToBits(wire(b, tc.b), 8)
			require.NoError(t, err)
			lt, err := b.LtBits(aBits, bBits)
			require.NoError(t, err)
			require.Equal(t, tc.want, eval(t, b, lt).Int64())
		})
	}
}

func TestModeParity(t *testing.T) {
	// the same gadget sequence must allocate and constrain identically
	// with and without a witness
	build := func(b *Builder) {
		x := wireClass(b, cs.NewClass(16, true), 1234)
		y := wireClass(b, cs.NewClass(16, true), -56)
		q, r, err := b.DivRem(b.One(), x, y, cs.NewClass(16, true))
		require.NoError(t, err)
		s := b.Add(b.Mul(q, r), x)
		_, err = b.IsZero(s)
		require.NoError(t, err)
	}

	wb := newWitnessBuilder()
	build(wb)
	sb := newSynthBuilder()
	build(sb)

	require.Equal(t, sb.sys.NbAllocations(), wb.sys.NbAllocations())
	require.Equal(t, sb.sys.NbConstraints(), wb.sys.NbConstraints())
}
