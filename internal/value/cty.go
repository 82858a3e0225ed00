package value

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ErrNull is returned when converting a null or unknown cty value.
var ErrNull = errors.New("value is null or unknown")

// Cty returns v as a cty value of v.Type().CtyType().
func (v Value) Cty() cty.Value {
	if v.typ.List {
		items := v.list.Snapshot()
		if len(items) == 0 {
			return cty.ListValEmpty(v.typ.Elem().CtyType())
		}
		vals := make([]cty.Value, len(items))
		for i, item := range items {
			vals[i] = item.Cty()
		}
		return cty.ListVal(vals)
	}
	switch v.typ.Kind {
	case Int:
		return cty.NumberIntVal(int64(v.i))
	case Float:
		return cty.NumberFloatVal(v.f)
	case String:
		return cty.StringVal(v.s)
	case Bool:
		return cty.BoolVal(v.b)
	}
	return cty.NilVal
}

// FromCty converts cv to a Value of type t using cty's conversion rules, so
// "3" converts to Int 3 and a tuple of strings converts to list(string).
// Numbers that do not fit an int32 are rejected.
func FromCty(cv cty.Value, t Type) (Value, error) {
	if !t.Valid() {
		return Value{}, fmt.Errorf("cannot convert to invalid type")
	}
	if cv.IsNull() || !cv.IsWhollyKnown() {
		return Value{}, ErrNull
	}
	conv, err := convert.Convert(cv, t.CtyType())
	if err != nil {
		return Value{}, fmt.Errorf("cannot convert %s to %s: %w", cv.Type().FriendlyName(), t, err)
	}

	if t.List {
		l := NewList(t.Kind)
		for it := conv.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			item, err := FromCty(ev, t.Elem())
			if err != nil {
				return Value{}, err
			}
			l.items = append(l.items, item)
		}
		return ListValue(l), nil
	}

	switch t.Kind {
	case Int:
		var n int32
		if err := gocty.FromCtyValue(conv, &n); err != nil {
			return Value{}, fmt.Errorf("invalid int: %w", err)
		}
		return IntValue(n), nil
	case Float:
		var f float64
		if err := gocty.FromCtyValue(conv, &f); err != nil {
			return Value{}, fmt.Errorf("invalid float: %w", err)
		}
		return FloatValue(f), nil
	case String:
		return StringValue(conv.AsString()), nil
	default:
		return BoolValue(conv.True()), nil
	}
}

// FromGo converts a plain Go value (as produced by JSON decoding or a
// client library) to a Value of type t.
func FromGo(x any, t Type) (Value, error) {
	if x == nil {
		return Value{}, ErrNull
	}
	if slice, ok := x.([]any); ok && t.List {
		l := NewList(t.Kind)
		for _, item := range slice {
			v, err := FromGo(item, t.Elem())
			if err != nil {
				return Value{}, err
			}
			l.items = append(l.items, v)
		}
		return ListValue(l), nil
	}
	implied, err := gocty.ImpliedType(x)
	if err != nil {
		return Value{}, fmt.Errorf("unsupported Go value %T: %w", x, err)
	}
	cv, err := gocty.ToCtyValue(x, implied)
	if err != nil {
		return Value{}, fmt.Errorf("unsupported Go value %T: %w", x, err)
	}
	return FromCty(cv, t)
}
