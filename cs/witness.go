package cs

import (
	"fmt"

	"github.com/consensys/gnark/constraint"
	"github.com/fxamacker/cbor/v2"
)

// Witness is the concrete assignment produced by a witness-mode run: one
// field scalar per allocation, in allocation order.
type Witness struct {
	Values []constraint.Element
}

// WitnessArtifact extracts the witness. Every allocation must have been
// assigned; an unassigned allocation means a gadget failed to solve.
func (s *System) WitnessArtifact() (*Witness, error) {
	if !s.witness {
		return nil, fmt.Errorf("witness artifact requested in constraint-synthesis mode")
	}
	for id, ok := range s.assigned {
		if !ok {
			return nil, fmt.Errorf("allocation %d has no value", id)
		}
	}
	return &Witness{Values: append([]constraint.Element(nil), s.values...)}, nil
}

// Satisfied checks the witness against every constraint emitted so far.
// This is the invariant verified before a witness run returns
// successfully.
func (s *System) Satisfied(w *Witness) error {
	if len(w.Values) != len(s.classes) {
		return fmt.Errorf("witness has %d values, system has %d allocations", len(w.Values), len(s.classes))
	}
	for i, c := range s.constraints {
		if err := checkConstraint(s.field, c, w.Values); err != nil {
			return fmt.Errorf("constraint %d: %w", i, err)
		}
	}
	return nil
}

func (w *Witness) Serialize() ([]byte, error) {
	buf, err := cbor.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("serializing witness: %w", err)
	}
	return buf, nil
}

func DeserializeWitness(buf []byte) (*Witness, error) {
	w := &Witness{}
	if err := cbor.Unmarshal(buf, w); err != nil {
		return nil, fmt.Errorf("deserializing witness: %w", err)
	}
	return w, nil
}
