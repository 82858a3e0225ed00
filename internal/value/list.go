package value

import (
	"errors"
	"fmt"
	"sync"
)

// ErrKindMismatch is returned when a list receives an element of another kind.
var ErrKindMismatch = errors.New("list element kind mismatch")

// List is a growable, homogeneous sequence of primitive values. All access
// goes through the list's mutex, so a List may be shared freely between
// goroutines.
type List struct {
	mu    sync.Mutex
	kind  Kind
	items []Value
}

// NewList returns an empty list of kind k.
func NewList(k Kind) *List {
	return &List{kind: k}
}

// NewStringList builds a string list from items.
func NewStringList(items ...string) *List {
	l := NewList(String)
	for _, s := range items {
		l.items = append(l.items, StringValue(s))
	}
	return l
}

// NewIntList builds an int list from items.
func NewIntList(items ...int32) *List {
	l := NewList(Int)
	for _, n := range items {
		l.items = append(l.items, IntValue(n))
	}
	return l
}

func (l *List) Kind() Kind { return l.kind }

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

func (l *List) check(v Value) error {
	if v.typ != Primitive(l.kind) {
		return fmt.Errorf("%w: list of %s cannot hold %s", ErrKindMismatch, l.kind, v.typ)
	}
	return nil
}

// Append adds v to the end of the list.
func (l *List) Append(v Value) error {
	if err := l.check(v); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, v)
	return nil
}

// Get returns the element at i, or false when i is out of range.
func (l *List) Get(i int) (Value, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.items) {
		return Value{}, false
	}
	return l.items[i], true
}

// Set replaces the element at i.
func (l *List) Set(i int, v Value) error {
	if err := l.check(v); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("list index %d out of range [0,%d)", i, len(l.items))
	}
	l.items[i] = v
	return nil
}

// Clear removes every element.
func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}

// Snapshot copies the current elements out of the list.
func (l *List) Snapshot() []Value {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Value, len(l.items))
	copy(out, l.items)
	return out
}
