package types

import "math/big"

// MinWidth and MaxWidth bound the integer width ladder; widths are
// multiples of 8.
const (
	MinWidth = 8
	MaxWidth = 248
)

type domain struct {
	min *big.Int
	max *big.Int
}

// domains is the process-wide width → [min, max] table, built once at
// start and never mutated.
var domains map[uint16]domain

func init() {
	domains = make(map[uint16]domain)
	one := big.NewInt(1)
	for w := MinWidth; w <= MaxWidth; w += 8 {
		// unsigned: [0, 2^w - 1]
		umax := new(big.Int).Lsh(one, uint(w))
		umax.Sub(umax, one)
		domains[domainKey(uint8(w), false)] = domain{min: big.NewInt(0), max: umax}

		// signed: [-2^(w-1), 2^(w-1) - 1]
		smax := new(big.Int).Lsh(one, uint(w-1))
		smin := new(big.Int).Neg(smax)
		smax = new(big.Int).Sub(smax, one)
		domains[domainKey(uint8(w), true)] = domain{min: smin, max: smax}
	}
}

func domainKey(width uint8, signed bool) uint16 {
	k := uint16(width)
	if signed {
		k |= 1 << 8
	}
	return k
}

func domainOf(width uint8, signed bool) domain {
	d, ok := domains[domainKey(width, signed)]
	if !ok {
		panic("unsupported integer width")
	}
	return d
}

// ValidWidth reports whether the width is on the supported ladder.
func ValidWidth(w int) bool {
	return w >= MinWidth && w <= MaxWidth && w%8 == 0
}
