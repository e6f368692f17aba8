// Package cs implements the constraint system: an append-only allocation
// table and an ordered list of linear and quadratic relations over the
// allocations. In witness mode each allocation additionally carries one
// concrete field scalar, and every relation is checked against the witness
// the moment it is enforced.
package cs

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark/constraint"

	"github.com/sigilzk/sigil/expr"
	"github.com/sigilzk/sigil/field"
)

// ErrUnsatisfiable reports a constraint that a present witness fails to
// satisfy. Outside of overflow and division failures this is a consistency
// bug, not a user input problem.
var ErrUnsatisfiable = errors.New("unsatisfiable constraint")

// Class is the declared width class of an allocation. Bits == 0 tags a
// full-width field element.
type Class struct {
	Bits   uint8
	Signed bool
}

var (
	ClassField = Class{}
	ClassBool  = Class{Bits: 1}
)

func NewClass(bits uint8, signed bool) Class {
	return Class{Bits: bits, Signed: signed}
}

// System owns the allocations and constraints of one evaluation. It is not
// safe for concurrent use; independent evaluations get independent systems.
type System struct {
	field   field.Field
	witness bool

	classes  []Class
	values   []constraint.Element
	assigned []bool

	constraints []Constraint

	publicInputs []int
	outputs      []int
}

// New returns a system in constraint-synthesis mode: allocations carry no
// concrete values.
func New(f field.Field) *System {
	return newSystem(f, false)
}

// NewWitness returns a system in witness mode: every allocation must be
// assigned a concrete value on creation and constraints are checked
// eagerly.
func NewWitness(f field.Field) *System {
	return newSystem(f, true)
}

func newSystem(f field.Field, witness bool) *System {
	s := &System{
		field:   f,
		witness: witness,
	}
	// allocation 0 is the constant-one wire
	s.classes = append(s.classes, ClassField)
	s.values = append(s.values, f.One())
	s.assigned = append(s.assigned, true)
	return s
}

func (s *System) Field() field.Field { return s.field }

func (s *System) WitnessMode() bool { return s.witness }

func (s *System) NbAllocations() int { return len(s.classes) }

func (s *System) NbConstraints() int { return len(s.constraints) }

func (s *System) Class(id int) Class { return s.classes[id] }

// Allocate appends a new unconstrained allocation and returns its id. Ids
// are never reused and allocations are never mutated after assignment.
func (s *System) Allocate(c Class) int {
	id := len(s.classes)
	s.classes = append(s.classes, c)
	s.values = append(s.values, constraint.Element{})
	s.assigned = append(s.assigned, false)
	return id
}

// Assign sets the concrete value of an allocation. It is a no-op outside
// witness mode and must be called exactly once per allocation inside it.
func (s *System) Assign(id int, v constraint.Element) {
	if !s.witness {
		return
	}
	if s.assigned[id] {
		panic("allocation assigned twice")
	}
	s.values[id] = v
	s.assigned[id] = true
}

// Value returns the concrete value of an allocation in witness mode.
func (s *System) Value(id int) (constraint.Element, bool) {
	if !s.witness {
		return constraint.Element{}, false
	}
	if !s.assigned[id] {
		panic("unassigned allocation")
	}
	return s.values[id], true
}

// Eval computes the concrete value of an expression over the witness. The
// second return is false in constraint-synthesis mode.
func (s *System) Eval(e expr.Expression) (constraint.Element, bool) {
	if !s.witness {
		return constraint.Element{}, false
	}
	res := constraint.Element{}
	for _, t := range e {
		if !s.assigned[t.VID0] || !s.assigned[t.VID1] {
			panic("unassigned allocation in expression")
		}
		x := s.field.Mul(s.values[t.VID0], s.values[t.VID1])
		x = s.field.Mul(x, t.Coeff)
		res = s.field.Add(res, x)
	}
	return res, true
}

// Enforce appends a constraint. In witness mode the relation is evaluated
// immediately; a violation fails the whole evaluation with
// ErrUnsatisfiable.
func (s *System) Enforce(c Constraint) error {
	s.constraints = append(s.constraints, c)
	if !s.witness {
		return nil
	}
	if err := checkConstraint(s.field, c, s.values); err != nil {
		return err
	}
	return nil
}

func checkConstraint(f field.Field, c Constraint, values []constraint.Element) error {
	evalLinear := func(e expr.Expression) constraint.Element {
		res := constraint.Element{}
		for _, t := range e {
			x := f.Mul(values[t.VID0], values[t.VID1])
			res = f.Add(res, f.Mul(x, t.Coeff))
		}
		return res
	}

	lhs := evalLinear(c.A)
	if c.Kind == KindQuadratic {
		lhs = f.Mul(lhs, evalLinear(c.B))
	}
	rhs := evalLinear(c.C)
	if lhs != rhs {
		return fmt.Errorf("%w: %s != %s", ErrUnsatisfiable, f.String(lhs), f.String(rhs))
	}
	return nil
}

// MarkPublicInput tags an allocation as a public input of the circuit.
func (s *System) MarkPublicInput(id int) {
	s.publicInputs = append(s.publicInputs, id)
}

// MarkOutput tags an allocation as a public output of the circuit.
func (s *System) MarkOutput(id int) {
	s.outputs = append(s.outputs, id)
}

func (s *System) PublicInputs() []int { return s.publicInputs }

func (s *System) Outputs() []int { return s.outputs }
