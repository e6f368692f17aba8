package cs

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/sigilzk/sigil/field"
)

// Artifact is the serializable form of a synthesized constraint system:
// the contract handed to a proving backend.
type Artifact struct {
	Modulus      []byte
	Classes      []Class
	Constraints  []Constraint
	PublicInputs []int
	Outputs      []int
}

// Artifact snapshots the system. The snapshot shares no mutable state with
// the system apart from the immutable expressions.
func (s *System) Artifact() *Artifact {
	a := &Artifact{
		Modulus:      s.field.Field().Bytes(),
		Classes:      append([]Class(nil), s.classes...),
		Constraints:  append([]Constraint(nil), s.constraints...),
		PublicInputs: append([]int(nil), s.publicInputs...),
		Outputs:      append([]int(nil), s.outputs...),
	}
	return a
}

// Satisfied checks a witness against every constraint in the snapshot.
// It needs no live system, so a witness produced by one run can be
// verified against a circuit synthesized by another.
func (a *Artifact) Satisfied(f field.Field, w *Witness) error {
	if len(w.Values) != len(a.Classes) {
		return fmt.Errorf("witness has %d values, artifact has %d allocations", len(w.Values), len(a.Classes))
	}
	for i, c := range a.Constraints {
		if err := checkConstraint(f, c, w.Values); err != nil {
			return fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	return nil
}

func (a *Artifact) Serialize() ([]byte, error) {
	buf, err := cbor.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("serializing constraint system: %w", err)
	}
	return buf, nil
}

func DeserializeArtifact(buf []byte) (*Artifact, error) {
	a := &Artifact{}
	if err := cbor.Unmarshal(buf, a); err != nil {
		return nil, fmt.Errorf("deserializing constraint system: %w", err)
	}
	return a, nil
}
