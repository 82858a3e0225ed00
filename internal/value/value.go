package value

import (
	"fmt"
	"strconv"
)

// Value is a tagged union over the primitive kinds and shared lists. The
// zero Value is invalid and is what lookups return when nothing is stored.
type Value struct {
	typ  Type
	i    int32
	f    float64
	s    string
	b    bool
	list *List
}

func IntValue(v int32) Value     { return Value{typ: Primitive(Int), i: v} }
func FloatValue(v float64) Value { return Value{typ: Primitive(Float), f: v} }
func StringValue(v string) Value { return Value{typ: Primitive(String), s: v} }
func BoolValue(v bool) Value     { return Value{typ: Primitive(Bool), b: v} }

// ListValue wraps l. The returned Value shares l with every copy made of it.
func ListValue(l *List) Value {
	if l == nil {
		return Value{}
	}
	return Value{typ: ListOf(l.Kind()), list: l}
}

// Default returns the default-valued instance of t: 0, 0.0, "", false or a
// fresh empty list.
func Default(t Type) Value {
	if t.List {
		return ListValue(NewList(t.Kind))
	}
	return Value{typ: t}
}

// Type returns the type tag of v.
func (v Value) Type() Type { return v.typ }

// Valid reports whether v holds a value of a known type.
func (v Value) Valid() bool { return v.typ.Valid() }

// SameType compares the type tags of a and b, ignoring payloads.
func SameType(a, b Value) bool { return a.typ == b.typ }

func (v Value) AsInt() (int32, bool) {
	if v.typ != Primitive(Int) {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.typ != Primitive(Float) {
		return 0, false
	}
	return v.f, true
}

func (v Value) AsString() (string, bool) {
	if v.typ != Primitive(String) {
		return "", false
	}
	return v.s, true
}

func (v Value) AsBool() (bool, bool) {
	if v.typ != Primitive(Bool) {
		return false, false
	}
	return v.b, true
}

// AsList returns the shared list held by v.
func (v Value) AsList() (*List, bool) {
	if !v.typ.List || v.list == nil {
		return nil, false
	}
	return v.list, true
}

// Equal compares type and contents. Lists compare element-wise.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	if v.typ.List {
		if v.list == o.list {
			return true
		}
		a, b := v.list.Snapshot(), o.list.Snapshot()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	}
	return v.i == o.i && v.f == o.f && v.s == o.s && v.b == o.b
}

// Interface returns the plain Go form of v: int32, float64, string, bool or
// []any for lists. Invalid values yield nil.
func (v Value) Interface() any {
	if v.typ.List {
		items := v.list.Snapshot()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item.Interface()
		}
		return out
	}
	switch v.typ.Kind {
	case Int:
		return v.i
	case Float:
		return v.f
	case String:
		return v.s
	case Bool:
		return v.b
	}
	return nil
}

func (v Value) String() string {
	if v.typ.List {
		return fmt.Sprintf("%v", v.Interface())
	}
	switch v.typ.Kind {
	case Int:
		return strconv.FormatInt(int64(v.i), 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case String:
		return v.s
	case Bool:
		return strconv.FormatBool(v.b)
	}
	return "<invalid>"
}
