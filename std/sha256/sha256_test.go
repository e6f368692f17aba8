package sha256

import (
	cryptosha "crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/field/bn254"
)

// msgBits allocates one boolean variable per message bit, most
// significant bit of each byte first.
func msgBits(b *builder.Builder, msg []byte) []expr.Expression {
	bits := make([]expr.Expression, 0, len(msg)*8)
	for _, by := range msg {
		for i := 7; i >= 0; i-- {
			v := b.Field().FromInterface(uint64(by >> uint(i) & 1))
			e, _ := b.Input(cs.ClassBool, v)
			bits = append(bits, e)
		}
	}
	return bits
}

func digestBytes(t *testing.T, b *builder.Builder, bits []expr.Expression) []byte {
	t.Helper()
	require.Len(t, bits, 256)
	out := make([]byte, 32)
	for i, bit := range bits {
		v, ok := b.Witness(bit)
		require.True(t, ok)
		if !v.IsZero() {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func TestHashMatchesStdlib(t *testing.T) {
	fullBlock := make([]byte, 64)
	for i := range fullBlock {
		fullBlock[i] = byte(i)
	}
	cases := []struct {
		name string
		msg  []byte
	}{
		{"empty", nil},
		{"abc", []byte("abc")},
		{"short", []byte("hello world")},
		// one full block exactly, forcing a second padding block
		{"full_block", fullBlock},
		// spans two blocks
		{"two_blocks", []byte("abcdbcdecdefdefgefghfghighijhijkijkljklmklmnlmnomnopnopq")},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			b := builder.New(cs.NewWitness(&bn254.Field{}))
			digest, err := Hash(b, msgBits(b, tc.msg))
			require.NoError(t, err)

			want := cryptosha.Sum256(tc.msg)
			require.Equal(t, want[:], digestBytes(t, b, digest))
		})
	}
}

func TestHashDeterministicShape(t *testing.T) {
	build := func(witness bool) (int, int) {
		var sys *cs.System
		if witness {
			sys = cs.NewWitness(&bn254.Field{})
		} else {
			sys = cs.New(&bn254.Field{})
		}
		b := builder.New(sys)
		_, err := Hash(b, msgBits(b, []byte("mode parity")))
		require.NoError(t, err)
		return sys.NbAllocations(), sys.NbConstraints()
	}
	wa, wc := build(true)
	sa, sc := build(false)
	require.Equal(t, sa, wa)
	require.Equal(t, sc, wc)
}

func TestBitLength(t *testing.T) {
	require.NoError(t, BitLength(0))
	require.NoError(t, BitLength(512))
	require.Error(t, BitLength(7))
}
