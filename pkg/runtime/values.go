package runtime

import (
	"fmt"
	"math"

	"able/records-go/pkg/ordered"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindNil
	KindInteger
	KindFloat
	KindList
	KindMap
	KindTypeDefinition
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindNil:
		return "nil"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindTypeDefinition:
		return "type_def"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }

// IntegerValue is kept as a plain int64 so scalars stay comparable and usable as map keys.
type IntegerValue struct {
	Val int64
}

func (v IntegerValue) Kind() Kind { return KindInteger }

type FloatValue struct {
	Val float64
}

func (v FloatValue) Kind() Kind { return KindFloat }

// Str, Int, Float and Bool build scalar values.
func Str(s string) StringValue { return StringValue{Val: s} }
func Int(i int64) IntegerValue { return IntegerValue{Val: i} }
func Float(f float64) FloatValue { return FloatValue{Val: f} }
func Bool(b bool) BoolValue { return BoolValue{Val: b} }

//-----------------------------------------------------------------------------
// Collections
//-----------------------------------------------------------------------------

// ListValue is a mutable sequence. It is always handled by pointer, so every
// holder of the same *ListValue observes in-place mutation.
type ListValue struct {
	Elements []Value
}

func (v *ListValue) Kind() Kind { return KindList }

// NewList builds a list holding the provided elements.
func NewList(elems ...Value) *ListValue {
	return &ListValue{Elements: append([]Value(nil), elems...)}
}

// Append adds elements at the end in place.
func (v *ListValue) Append(elems ...Value) {
	v.Elements = append(v.Elements, elems...)
}

// Len reports the element count.
func (v *ListValue) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Elements)
}

// MapValue is an insertion-ordered map from scalar keys to values.
type MapValue struct {
	Entries *ordered.Map[Value, Value]
}

func (v *MapValue) Kind() Kind { return KindMap }

// Entry is a key/value pair of a MapValue.
type Entry = ordered.Pair[Value, Value]

// NewMap builds a map value from pairs, rejecting unhashable keys.
func NewMap(pairs ...Entry) (*MapValue, error) {
	m := &MapValue{Entries: ordered.WithCapacity[Value, Value](len(pairs))}
	for _, p := range pairs {
		if err := m.Set(p.Key, p.Value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Set inserts or updates key. Only scalar keys are accepted.
func (v *MapValue) Set(key, value Value) error {
	if !IsHashable(key) {
		return fmt.Errorf("map key of kind %s: %w", kindOf(key), ErrUnhashableKey)
	}
	if v.Entries == nil {
		v.Entries = ordered.New[Value, Value]()
	}
	v.Entries.Set(key, value)
	return nil
}

// Len reports the entry count.
func (v *MapValue) Len() int {
	if v == nil {
		return 0
	}
	return v.Entries.Len()
}

// IsHashable reports whether v may be used as a map key. NaN is rejected
// because it is not equal to itself.
func IsHashable(v Value) bool {
	switch n := v.(type) {
	case StringValue, BoolValue, NilValue, IntegerValue:
		return true
	case FloatValue:
		return !math.IsNaN(n.Val)
	default:
		return false
	}
}

func kindOf(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.Kind().String()
}

//-----------------------------------------------------------------------------
// Utility helpers
//-----------------------------------------------------------------------------

// Copy returns a deep copy of lists and maps. Scalars, records and type
// definitions are returned as is.
func Copy(v Value) Value {
	switch val := v.(type) {
	case *ListValue:
		if val == nil {
			return NewList()
		}
		out := &ListValue{Elements: make([]Value, len(val.Elements))}
		for i, el := range val.Elements {
			out.Elements[i] = Copy(el)
		}
		return out
	case *MapValue:
		out := &MapValue{Entries: ordered.WithCapacity[Value, Value](val.Len())}
		if val == nil {
			return out
		}
		for k, el := range val.Entries.All() {
			out.Entries.Set(k, Copy(el))
		}
		return out
	default:
		return v
	}
}
