package value

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Kind identifies a primitive variant.
type Kind uint8

const (
	// Invalid is the zero Kind. A Value of this kind carries no data.
	Invalid Kind = iota
	Int
	Float
	String
	Bool
)

var kindNames = map[Kind]string{
	Int:    "int",
	Float:  "float",
	String: "string",
	Bool:   "bool",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "invalid"
}

func parseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return Invalid, false
}

// Type describes a port or value: either a primitive kind or a list of one
// primitive kind. Two types are compatible only when they are equal.
type Type struct {
	Kind Kind
	List bool
}

// Primitive returns the scalar type of kind k.
func Primitive(k Kind) Type { return Type{Kind: k} }

// ListOf returns the list type whose elements are of kind k.
func ListOf(k Kind) Type { return Type{Kind: k, List: true} }

// Valid reports whether t names a real type.
func (t Type) Valid() bool { return t.Kind != Invalid }

// Elem returns the element type of a list type, or t itself for a primitive.
func (t Type) Elem() Type { return Type{Kind: t.Kind} }

// String renders the type the way ParseType accepts it, e.g. "list(string)".
func (t Type) String() string {
	if t.List {
		return "list(" + t.Kind.String() + ")"
	}
	return t.Kind.String()
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid type")
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType parses "int", "float", "string", "bool" or "list(<kind>)".
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if inner, ok := strings.CutPrefix(s, "list("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return Type{}, fmt.Errorf("malformed list type %q", s)
		}
		k, ok := parseKind(strings.TrimSpace(inner))
		if !ok {
			return Type{}, fmt.Errorf("unknown list element kind %q", inner)
		}
		return ListOf(k), nil
	}
	k, ok := parseKind(s)
	if !ok {
		return Type{}, fmt.Errorf("unknown type %q", s)
	}
	return Primitive(k), nil
}

// CtyType returns the cty type used to carry values of t. Int and Float both
// map onto cty.Number; range checks happen on conversion back.
func (t Type) CtyType() cty.Type {
	var elem cty.Type
	switch t.Kind {
	case Int, Float:
		elem = cty.Number
	case String:
		elem = cty.String
	case Bool:
		elem = cty.Bool
	default:
		return cty.DynamicPseudoType
	}
	if t.List {
		return cty.List(elem)
	}
	return elem
}
