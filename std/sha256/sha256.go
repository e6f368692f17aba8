// Package sha256 implements SHA-256 as a circuit gadget. Words are 32
// boolean allocations, logic operations work bit by bit, rotations and
// shifts are pure rewiring, and modular addition decomposes a widened
// linear sum and keeps the low 32 bits.
package sha256

import (
	"fmt"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/expr"
)

var initH = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

var roundK = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// word is 32 bits, least significant first. Message and digest bit
// strings are most significant first; intake and output reverse per
// word.
type word []expr.Expression

// Hash computes the SHA-256 digest of a message given as a bit string,
// most significant bit of each byte first. The input bits must already
// be boolean constrained; the 256 digest bits come from 32-bit range
// decompositions and need no extra constraints.
func Hash(b *builder.Builder, msg []expr.Expression) ([]expr.Expression, error) {
	padded := pad(b, msg)

	var h [8]word
	for i, v := range initH {
		h[i] = constWord(b, v)
	}

	for off := 0; off < len(padded); off += 512 {
		if err := compress(b, &h, padded[off:off+512]); err != nil {
			return nil, err
		}
	}

	digest := make([]expr.Expression, 0, 256)
	for _, w := range h {
		for j := 31; j >= 0; j-- {
			digest = append(digest, w[j])
		}
	}
	return digest, nil
}

// pad appends the 1 bit, the zero run and the 64-bit big-endian message
// length, all as constants. The message length is static, so padding
// never allocates.
func pad(b *builder.Builder, msg []expr.Expression) []expr.Expression {
	l := len(msg)
	padded := make([]expr.Expression, 0, l+576)
	padded = append(padded, msg...)
	padded = append(padded, b.One())
	for (len(padded)+64)%512 != 0 {
		padded = append(padded, b.Zero())
	}
	for i := 63; i >= 0; i-- {
		if uint64(l)>>uint(i)&1 == 1 {
			padded = append(padded, b.One())
		} else {
			padded = append(padded, b.Zero())
		}
	}
	return padded
}

func compress(b *builder.Builder, h *[8]word, chunk []expr.Expression) error {
	var w [64]word
	for i := 0; i < 16; i++ {
		wi := make(word, 32)
		for j := 0; j < 32; j++ {
			wi[31-j] = chunk[i*32+j]
		}
		w[i] = wi
	}
	for i := 16; i < 64; i++ {
		s0, err := xorWords(b, rotr(w[i-15], 7), rotr(w[i-15], 18), shr(b, w[i-15], 3))
		if err != nil {
			return err
		}
		s1, err := xorWords(b, rotr(w[i-2], 17), rotr(w[i-2], 19), shr(b, w[i-2], 10))
		if err != nil {
			return err
		}
		if w[i], err = addWords(b, w[i-16], s0, w[i-7], s1); err != nil {
			return err
		}
	}

	a, bb, c, d := (*h)[0], (*h)[1], (*h)[2], (*h)[3]
	e, f, g, hh := (*h)[4], (*h)[5], (*h)[6], (*h)[7]

	for i := 0; i < 64; i++ {
		s1, err := xorWords(b, rotr(e, 6), rotr(e, 11), rotr(e, 25))
		if err != nil {
			return err
		}
		ch, err := chWord(b, e, f, g)
		if err != nil {
			return err
		}
		temp1, err := addWords(b, hh, s1, ch, constWord(b, roundK[i]), w[i])
		if err != nil {
			return err
		}
		s0, err := xorWords(b, rotr(a, 2), rotr(a, 13), rotr(a, 22))
		if err != nil {
			return err
		}
		maj, err := majWord(b, a, bb, c)
		if err != nil {
			return err
		}
		temp2, err := addWords(b, s0, maj)
		if err != nil {
			return err
		}

		hh = g
		g = f
		f = e
		if e, err = addWords(b, d, temp1); err != nil {
			return err
		}
		d = c
		c = bb
		bb = a
		if a, err = addWords(b, temp1, temp2); err != nil {
			return err
		}
	}

	var err error
	for i, v := range [8]word{a, bb, c, d, e, f, g, hh} {
		if (*h)[i], err = addWords(b, (*h)[i], v); err != nil {
			return err
		}
	}
	return nil
}

func constWord(b *builder.Builder, v uint32) word {
	w := make(word, 32)
	for i := 0; i < 32; i++ {
		if v>>uint(i)&1 == 1 {
			w[i] = b.One()
		} else {
			w[i] = b.Zero()
		}
	}
	return w
}

// rotr rotates right by n; a pure reindexing.
func rotr(w word, n int) word {
	out := make(word, 32)
	for i := 0; i < 32; i++ {
		out[i] = w[(i+n)%32]
	}
	return out
}

// shr shifts right by n, filling with constant zeros.
func shr(b *builder.Builder, w word, n int) word {
	out := make(word, 32)
	for i := 0; i < 32; i++ {
		if i+n < 32 {
			out[i] = w[i+n]
		} else {
			out[i] = b.Zero()
		}
	}
	return out
}

func xorWords(b *builder.Builder, ws ...word) (word, error) {
	out := ws[0]
	for _, w := range ws[1:] {
		next := make(word, 32)
		for i := 0; i < 32; i++ {
			x, err := b.Xor(out[i], w[i])
			if err != nil {
				return nil, err
			}
			next[i] = x
		}
		out = next
	}
	return out, nil
}

// chWord is the choice function (e and f) xor ((not e) and g), computed
// per bit as g + e·(f - g): one product per bit.
func chWord(b *builder.Builder, e, f, g word) (word, error) {
	out := make(word, 32)
	for i := 0; i < 32; i++ {
		out[i] = b.Add(g[i], b.Mul(e[i], b.Sub(f[i], g[i])))
		b.MarkBoolean(out[i])
	}
	return out, nil
}

// majWord is the majority function, computed per bit as
// c·(a xor b) + a·b.
func majWord(b *builder.Builder, x, y, z word) (word, error) {
	out := make(word, 32)
	for i := 0; i < 32; i++ {
		xy, err := b.Xor(x[i], y[i])
		if err != nil {
			return nil, err
		}
		out[i] = b.Add(b.Mul(z[i], xy), b.Mul(x[i], y[i]))
		b.MarkBoolean(out[i])
	}
	return out, nil
}

// addWords sums words modulo 2^32: one widened decomposition per sum,
// truncated back to 32 bits.
func addWords(b *builder.Builder, ws ...word) (word, error) {
	sum := b.Zero()
	for _, w := range ws {
		sum = b.Add(sum, b.FromBits(w))
	}
	extra := 0
	for 1<<uint(extra) < len(ws) {
		extra++
	}
	bits, err := b.ToBits(sum, 32+extra)
	if err != nil {
		return nil, err
	}
	return word(bits[:32]), nil
}

// BitLength validates a message length for the gadget: whole bytes only.
func BitLength(n int) error {
	if n%8 != 0 {
		return fmt.Errorf("message length %d is not a whole number of bytes", n)
	}
	return nil
}
