package conformance

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/sigilzk/sigil/engine"
	"github.com/sigilzk/sigil/field/bn254"
	"github.com/sigilzk/sigil/program"
	"github.com/sigilzk/sigil/value"
)

// literalDiff renders a semantic literal comparison for failure output.
var literalDiff = cmp.Comparer(func(a, b *value.Literal) bool {
	return LiteralsEqual(a, b) || LiteralsEqual(b, a)
})

// Run executes each vector in witness mode and, for passing cases,
// re-runs constraint synthesis and checks the two modes built the same
// circuit: identical allocation and constraint counts, and the first
// run's witness satisfies the re-synthesized system.
func Run(t *testing.T, p *program.Program, vectors []Vector) {
	t.Helper()
	for _, vec := range vectors {
		vec := vec
		t.Run(vec.Name, func(t *testing.T) {
			res, err := engine.Execute(p, vec.Inputs)
			if vec.ShouldFail != nil {
				require.ErrorIs(t, err, vec.ShouldFail)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(vec.Expected, res.Output, literalDiff); diff != "" {
				t.Fatalf("output mismatch (-want +got):\n%s", diff)
			}

			synth, err := engine.Synthesize(p, vec.Inputs)
			require.NoError(t, err)
			require.Equal(t, synth.NbAllocations, res.NbAllocations,
				"allocation counts diverge between modes")
			require.Equal(t, synth.NbConstraints, res.NbConstraints,
				"constraint counts diverge between modes")
			require.Equal(t, len(res.Witness.Values), res.NbAllocations)
			require.NoError(t, synth.Artifact.Satisfied(&bn254.Field{}, res.Witness),
				"witness does not satisfy the synthesized circuit")
		})
	}
}
