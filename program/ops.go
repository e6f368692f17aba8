package program

type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	}
	return "?"
}

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpAnd
	OpOr
	OpXor

	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
)

var binaryNames = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpRem: "%",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "&&", OpOr: "||", OpXor: "^^",
	OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^", OpShl: "<<", OpShr: ">>",
}

func (op BinaryOp) String() string {
	if s, ok := binaryNames[op]; ok {
		return s
	}
	return "?"
}

type IntrinsicOp int

const (
	IntrinsicToBits IntrinsicOp = iota
	IntrinsicFromBits
	IntrinsicSha256
	IntrinsicInverse
)

func (op IntrinsicOp) String() string {
	switch op {
	case IntrinsicToBits:
		return "to_bits"
	case IntrinsicFromBits:
		return "from_bits"
	case IntrinsicSha256:
		return "sha256"
	case IntrinsicInverse:
		return "inverse"
	}
	return "?"
}
