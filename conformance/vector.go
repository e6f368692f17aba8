// Package conformance defines the test-vector format shared by the
// engine's behavioral tests: named input bundles with either an
// expected output or an expected failure class, executed in both
// evaluation modes.
package conformance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/sigilzk/sigil/builder"
	"github.com/sigilzk/sigil/cs"
	"github.com/sigilzk/sigil/types"
	"github.com/sigilzk/sigil/value"
)

// Vector is one conformance case. Exactly one of Expected and
// ShouldFail is set.
type Vector struct {
	Name     string
	Inputs   map[string]*value.Literal
	Expected *value.Literal
	// ShouldFail is the sentinel the failure must wrap.
	ShouldFail error
}

type vectorJSON struct {
	Name       string                     `json:"name"`
	Inputs     map[string]json.RawMessage `json:"inputs"`
	Expected   json.RawMessage            `json:"expected,omitempty"`
	ShouldFail string                     `json:"should_fail,omitempty"`
}

var failureClasses = map[string]error{
	"overflow":         builder.ErrOverflow,
	"division_by_zero": builder.ErrDivisionByZero,
	"unsatisfiable":    cs.ErrUnsatisfiable,
	"type_mismatch":    types.ErrTypeMismatch,
	"shape_mismatch":   types.ErrShapeMismatch,
}

// LoadVectors reads a JSON array of vectors.
func LoadVectors(r io.Reader) ([]Vector, error) {
	var raw []vectorJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]Vector, 0, len(raw))
	for _, rv := range raw {
		v := Vector{Name: rv.Name, Inputs: map[string]*value.Literal{}}
		for name, in := range rv.Inputs {
			lit, err := parseLiteral(in)
			if err != nil {
				return nil, fmt.Errorf("vector %q, input %q: %w", rv.Name, name, err)
			}
			v.Inputs[name] = lit
		}
		switch {
		case rv.ShouldFail != "":
			cls, ok := failureClasses[rv.ShouldFail]
			if !ok {
				return nil, fmt.Errorf("vector %q: unknown failure class %q", rv.Name, rv.ShouldFail)
			}
			v.ShouldFail = cls
		case rv.Expected != nil:
			lit, err := parseLiteral(rv.Expected)
			if err != nil {
				return nil, fmt.Errorf("vector %q, expected: %w", rv.Name, err)
			}
			v.Expected = lit
		default:
			return nil, fmt.Errorf("vector %q: needs expected or should_fail", rv.Name)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseLiteral maps JSON to the literal form: booleans and numbers to
// scalars, decimal or 0x-prefixed strings to big integers, arrays to
// lists, objects to struct fields, and the single-key object
// {"$variant": name} to an enum variant.
func parseLiteral(raw json.RawMessage) (*value.Literal, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return fromJSON(v)
}

func fromJSON(v interface{}) (*value.Literal, error) {
	switch vv := v.(type) {
	case bool:
		return value.LitBool(vv), nil
	case json.Number:
		n, ok := new(big.Int).SetString(vv.String(), 10)
		if !ok {
			return nil, fmt.Errorf("not an integer: %s", vv)
		}
		return value.LitBig(n), nil
	case string:
		// decimal or 0x-prefixed
		n, ok := new(big.Int).SetString(vv, 0)
		if !ok {
			return nil, fmt.Errorf("not an integer: %q", vv)
		}
		return value.LitBig(n), nil
	case []interface{}:
		elems := make([]*value.Literal, len(vv))
		for i, el := range vv {
			lit, err := fromJSON(el)
			if err != nil {
				return nil, err
			}
			elems[i] = lit
		}
		return &value.Literal{List: elems}, nil
	case map[string]interface{}:
		if variant, ok := vv["$variant"]; ok && len(vv) == 1 {
			name, ok := variant.(string)
			if !ok {
				return nil, fmt.Errorf("variant name must be a string")
			}
			return value.LitVariant(name), nil
		}
		fields := make(map[string]*value.Literal, len(vv))
		for name, fv := range vv {
			lit, err := fromJSON(fv)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			fields[name] = lit
		}
		return &value.Literal{Fields: fields}, nil
	}
	return nil, fmt.Errorf("unsupported literal %T", v)
}

// LiteralsEqual compares two literals semantically: enum leaves match
// by variant name when both carry one and by discriminant otherwise.
func LiteralsEqual(a, b *value.Literal) bool {
	switch {
	case a == nil || b == nil:
		return a == b
	case a.Bool != nil:
		return b.Bool != nil && *a.Bool == *b.Bool
	case a.Variant != "" && b.Variant != "":
		return a.Variant == b.Variant
	case a.Int != nil:
		return b.Int != nil && a.Int.Cmp(b.Int) == 0
	case a.List != nil:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !LiteralsEqual(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case a.Fields != nil:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for name, av := range a.Fields {
			bv, ok := b.Fields[name]
			if !ok || !LiteralsEqual(av, bv) {
				return false
			}
		}
		return true
	}
	// unit
	return b.Bool == nil && b.Int == nil && b.Variant == "" && b.List == nil && b.Fields == nil
}
