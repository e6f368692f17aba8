// Package engine executes a typed program in one of two modes over the
// same evaluation path: constraint synthesis produces the circuit
// artifact alone, witness execution additionally assigns every
// allocation and checks every constraint as it is emitted. The two
// modes allocate and constrain identically.
package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/field"
	"github.com/sigilzk/sigil/field/bn254"
	"github.com/sigilzk/sigil/logger"
	"github.com/sigilzk/sigil/program"
	"github.com/sigilzk/sigil/types"
	"github.com/sigilzk/sigil/value"
)

// Option configures an evaluation run.
type Option func(*config)

type config struct {
	field field.Field
	log   zerolog.Logger
}

// WithField selects the scalar field backend. The default is BN254.
func WithField(f field.Field) Option {
	return func(c *config) { c.field = f }
}

// WithLogger routes the run's log output to l.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.log = l }
}

// Result is one evaluation's products. Output and Witness are only set
// in witness mode.
type Result struct {
	Value    value.Value
	Output   *value.Literal
	Artifact *cs.Artifact
	Witness  *cs.Witness

	NbAllocations int
	NbConstraints int
}

// Synthesize runs the entry point in constraint-synthesis mode. Inputs
// still shape the circuit (literal validation is static), but carry no
// values.
func Synthesize(p *program.Program, inputs map[string]*value.Literal, opts ...Option) (*Result, error) {
	return run(p, inputs, false, opts)
}

// Execute runs the entry point in witness mode and verifies the
// produced witness against every emitted constraint.
func Execute(p *program.Program, inputs map[string]*value.Literal, opts ...Option) (*Result, error) {
	return run(p, inputs, true, opts)
}

func run(p *program.Program, inputs map[string]*value.Literal, witnessMode bool, opts []Option) (*Result, error) {
	entry, ok := p.Functions[p.Entry]
	if !ok {
		return nil, fmt.Errorf("undefined entry point %q", p.Entry)
	}

	cfg := config{field: &bn254.Field{}, log: logger.Logger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var sys *cs.System
	if witnessMode {
		sys = cs.NewWitness(cfg.field)
	} else {
		sys = cs.New(cfg.field)
	}
	b := builder.New(sys)
	ev := &evaluator{b: b, prog: p}

	start := time.Now()
	log := cfg.log.With().
		Str("entry", p.Entry).
		Bool("witness", witnessMode).
		Logger()

	env := newEnv()
	for _, param := range entry.Params {
		lit, ok := inputs[param.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing input %q", types.ErrShapeMismatch, param.Name)
		}
		v, err := value.FromLiteral(b, param.Type, lit, param.Public)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", param.Name, err)
		}
		env.define(param.Name, v, false)
	}

	out, err := ev.evalBlock(env, entry.Body)
	if err != nil {
		return nil, err
	}
	if !types.Equal(out.Type(), entry.Result) {
		return nil, fmt.Errorf("%w: entry point returns %s, want %s",
			types.ErrTypeMismatch, out.Type(), entry.Result)
	}
	if err := markOutputs(b, out); err != nil {
		return nil, err
	}

	res := &Result{
		Value:         out,
		Artifact:      sys.Artifact(),
		NbAllocations: sys.NbAllocations(),
		NbConstraints: sys.NbConstraints(),
	}
	if witnessMode {
		w, err := sys.WitnessArtifact()
		if err != nil {
			return nil, err
		}
		if err := sys.Satisfied(w); err != nil {
			return nil, err
		}
		res.Witness = w
		if res.Output, err = value.ToLiteral(b, out); err != nil {
			return nil, err
		}
	}

	log.Info().
		Int("allocations", res.NbAllocations).
		Int("constraints", res.NbConstraints).
		Dur("took", time.Since(start)).
		Msg("evaluation done")
	return res, nil
}

// markOutputs mirrors each output leaf into a dedicated allocation and
// tags it, so the artifact's output section is a plain allocation list
// regardless of the leaf expressions' shapes.
func markOutputs(b *builder.Builder, out value.Value) error {
	for _, leaf := range value.Leaves(out) {
		val, _ := b.Witness(leaf.X)
		e, id := b.Input(value.ClassOf(leaf.Typ), val)
		if err := b.AssertIsEqual(e, leaf.X); err != nil {
			return err
		}
		b.System().MarkOutput(id)
	}
	return nil
}
