// Package types describes every representable type of the language. Types
// are fully resolved before a program reaches the engine; nothing here is
// inferred at run time.
package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrTypeMismatch reports a literal or runtime value that does not
	// conform to its declared type's domain or shape.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrShapeMismatch reports two structurally different types where
	// identical shapes are required.
	ErrShapeMismatch = errors.New("shape mismatch")
)

type Kind uint8

const (
	KindUnit Kind = iota + 1
	KindBool
	KindField
	KindInteger
	KindArray
	KindTuple
	KindStruct
	KindEnum
)

type Type interface {
	Kind() Kind
	String() string
}

type Unit struct{}

func (Unit) Kind() Kind     { return KindUnit }
func (Unit) String() string { return "()" }

type Bool struct{}

func (Bool) Kind() Kind     { return KindBool }
func (Bool) String() string { return "bool" }

type Field struct{}

func (Field) Kind() Kind     { return KindField }
func (Field) String() string { return "field" }

// Integer is a fixed-width integer type. Width is a multiple of 8 between
// 8 and 248; the domain is two's complement for signed types.
type Integer struct {
	Width    uint8
	IsSigned bool
}

func (t Integer) Kind() Kind { return KindInteger }

func (t Integer) String() string {
	if t.IsSigned {
		return fmt.Sprintf("i%d", t.Width)
	}
	return fmt.Sprintf("u%d", t.Width)
}

// Min returns the smallest value of the type's domain.
func (t Integer) Min() *big.Int { return domainOf(t.Width, t.IsSigned).min }

// Max returns the largest value of the type's domain.
func (t Integer) Max() *big.Int { return domainOf(t.Width, t.IsSigned).max }

// Contains reports whether x lies in the type's domain.
func (t Integer) Contains(x *big.Int) bool {
	d := domainOf(t.Width, t.IsSigned)
	return x.Cmp(d.min) >= 0 && x.Cmp(d.max) <= 0
}

type Array struct {
	Elem Type
	Len  int
}

func (t Array) Kind() Kind     { return KindArray }
func (t Array) String() string { return fmt.Sprintf("[%s; %d]", t.Elem, t.Len) }

type Tuple struct {
	Elems []Type
}

func (t Tuple) Kind() Kind { return KindTuple }

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type StructField struct {
	Name string
	Type Type
}

type Struct struct {
	Name   string
	Fields []StructField
}

func (t Struct) Kind() Kind     { return KindStruct }
func (t Struct) String() string { return "struct " + t.Name }

// FieldIndex returns the position of a named field.
func (t Struct) FieldIndex(name string) (int, bool) {
	for i, f := range t.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

type EnumVariant struct {
	Name  string
	Value *big.Int
}

// Enum is a named set of integer discriminants. Values are Field-backed
// scalars constrained to the declared set; discriminants need not be
// contiguous or start at zero.
type Enum struct {
	Name     string
	Variants []EnumVariant
}

func (t Enum) Kind() Kind     { return KindEnum }
func (t Enum) String() string { return "enum " + t.Name }

// Discriminant returns the declared value of a variant.
func (t Enum) Discriminant(name string) (*big.Int, bool) {
	for _, v := range t.Variants {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// VariantOf returns the variant name for a discriminant value.
func (t Enum) VariantOf(x *big.Int) (string, bool) {
	for _, v := range t.Variants {
		if v.Value.Cmp(x) == 0 {
			return v.Name, true
		}
	}
	return "", false
}

// IsScalar reports whether values of the type occupy a single circuit
// variable.
func IsScalar(t Type) bool {
	switch t.Kind() {
	case KindBool, KindField, KindInteger, KindEnum:
		return true
	}
	return false
}

// ScalarCount returns the number of circuit variables a value of the type
// occupies.
func ScalarCount(t Type) int {
	switch tt := t.(type) {
	case Unit:
		return 0
	case Array:
		return tt.Len * ScalarCount(tt.Elem)
	case Tuple:
		n := 0
		for _, e := range tt.Elems {
			n += ScalarCount(e)
		}
		return n
	case Struct:
		n := 0
		for _, f := range tt.Fields {
			n += ScalarCount(f.Type)
		}
		return n
	default:
		return 1
	}
}

// Equal reports structural equality. Structs and enums additionally
// compare by name.
func Equal(a, b Type) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch at := a.(type) {
	case Unit, Bool, Field:
		return true
	case Integer:
		bt := b.(Integer)
		return at.Width == bt.Width && at.IsSigned == bt.IsSigned
	case Array:
		bt := b.(Array)
		return at.Len == bt.Len && Equal(at.Elem, bt.Elem)
	case Tuple:
		bt := b.(Tuple)
		if len(at.Elems) != len(bt.Elems) {
			return false
		}
		for i := range at.Elems {
			if !Equal(at.Elems[i], bt.Elems[i]) {
				return false
			}
		}
		return true
	case Struct:
		bt := b.(Struct)
		if at.Name != bt.Name || len(at.Fields) != len(bt.Fields) {
			return false
		}
		for i := range at.Fields {
			if at.Fields[i].Name != bt.Fields[i].Name || !Equal(at.Fields[i].Type, bt.Fields[i].Type) {
				return false
			}
		}
		return true
	case Enum:
		bt := b.(Enum)
		if at.Name != bt.Name || len(at.Variants) != len(bt.Variants) {
			return false
		}
		for i := range at.Variants {
			if at.Variants[i].Name != bt.Variants[i].Name || at.Variants[i].Value.Cmp(bt.Variants[i].Value) != 0 {
				return false
			}
		}
		return true
	}
	return false
}
