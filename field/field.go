// Package field abstracts the finite field the engine works over. The
// scalar arithmetic itself is supplied by gnark-crypto; implementations
// only adapt it to the constraint.Field interface.
package field

import (
	"math/big"

	"github.com/consensys/gnark/constraint"
)

type Field interface {
	constraint.Field

	// Field returns the modulus of the field.
	Field() *big.Int
	// FieldBitLen returns the bit length of the modulus.
	FieldBitLen() int
}
