package conformance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/program"
	"github.com/sigilzk/sigil/types"
	"github.com/sigilzk/sigil/value"
)

const vectorsJSON = `[
  {"name": "adds", "inputs": {"a": 100, "b": 55}, "expected": 155},
  {"name": "adds zero", "inputs": {"a": 0, "b": 0}, "expected": 0},
  {"name": "overflows", "inputs": {"a": 200, "b": 100}, "should_fail": "overflow"},
  {"name": "rejects out of range input", "inputs": {"a": 300, "b": 1}, "should_fail": "type_mismatch"},
  {"name": "adds hex", "inputs": {"a": "0x1f", "b": "0x20"}, "expected": "0x3f"}
]`

func addProgram() *program.Program {
	u8 := types.Integer{Width: 8}
	f := &program.Function{
		Name: "add",
		Params: []program.Param{
			{Name: "a", Type: u8, Public: true},
			{Name: "b", Type: u8, Public: true},
		},
		Result: u8,
		Body: &program.Block{
			Tail: &program.Binary{
				Op: program.OpAdd,
				X:  &program.Ident{Name: "a"},
				Y:  &program.Ident{Name: "b"},
			},
		},
	}
	return &program.Program{Functions: map[string]*program.Function{"add": f}, Entry: "add"}
}

func TestLoadVectors(t *testing.T) {
	vs, err := LoadVectors(strings.NewReader(vectorsJSON))
	require.NoError(t, err)
	require.Len(t, vs, 5)
	require.Equal(t, "adds", vs[0].Name)
	require.Equal(t, int64(100), vs[0].Inputs["a"].Int.Int64())
	require.Equal(t, int64(155), vs[0].Expected.Int.Int64())
	require.ErrorIs(t, vs[2].ShouldFail, builder.ErrOverflow)
	require.Equal(t, int64(0x1f), vs[4].Inputs["a"].Int.Int64())
	require.Equal(t, int64(0x3f), vs[4].Expected.Int.Int64())
}

func TestLoadVectorsRejectsUnknownFailureClass(t *testing.T) {
	_, err := LoadVectors(strings.NewReader(
		`[{"name": "x", "inputs": {}, "should_fail": "gremlins"}]`))
	require.ErrorContains(t, err, "unknown failure class")
}

func TestRunVectors(t *testing.T) {
	vs, err := LoadVectors(strings.NewReader(vectorsJSON))
	require.NoError(t, err)
	Run(t, addProgram(), vs)
}

func TestParseLiteralShapes(t *testing.T) {
	lit, err := parseLiteral([]byte(`{"flag": true, "items": [1, "2", 3], "kind": {"$variant": "Big"}}`))
	require.NoError(t, err)
	require.Equal(t, true, *lit.Fields["flag"].Bool)
	require.Len(t, lit.Fields["items"].List, 3)
	require.Equal(t, int64(2), lit.Fields["items"].List[1].Int.Int64())
	require.Equal(t, "Big", lit.Fields["kind"].Variant)
}

func TestLiteralsEqual(t *testing.T) {
	require.True(t, LiteralsEqual(value.LitInt(5), value.LitInt(5)))
	require.False(t, LiteralsEqual(value.LitInt(5), value.LitInt(6)))
	require.True(t, LiteralsEqual(
		value.LitList(value.LitBool(true), value.LitInt(1)),
		value.LitList(value.LitBool(true), value.LitInt(1))))
	require.True(t, LiteralsEqual(value.LitVariant("A"), &value.Literal{Variant: "A", Int: value.LitInt(3).Int}))
	require.False(t, LiteralsEqual(value.LitVariant("A"), value.LitVariant("B")))
}
