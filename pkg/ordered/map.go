// Package ordered implements an insertion-ordered associative container.
//
// A Map keeps its keys unique and iterates them in the order they were first
// inserted. Updating an existing key leaves its position untouched; deleting a
// key and inserting it again moves it to the end.
package ordered

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// ErrKeyNotFound is returned by lookups whose contract requires the key to be present.
var ErrKeyNotFound = errors.New("key not found")

// Pair is a single key/value entry.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// P is shorthand for building a Pair inline.
func P[K comparable, V any](key K, value V) Pair[K, V] {
	return Pair[K, V]{Key: key, Value: value}
}

// Map is an insertion-ordered map. The zero value is an empty map ready to use.
//
// Keys match under Go's == operator, so a floating-point NaN key never finds
// itself: every Set of NaN appends a new entry and Get or Delete of NaN misses.
type Map[K comparable, V any] struct {
	entries []Pair[K, V]
	index   map[K]int
}

// New creates an empty map.
func New[K comparable, V any]() *Map[K, V] {
	return WithCapacity[K, V](0)
}

// WithCapacity creates an empty map sized for n entries.
func WithCapacity[K comparable, V any](n int) *Map[K, V] {
	if n < 0 {
		n = 0
	}
	return &Map[K, V]{
		entries: make([]Pair[K, V], 0, n),
		index:   make(map[K]int, n),
	}
}

// FromPairs builds a map from pairs in order. A repeated key keeps its first
// position and takes the last value.
func FromPairs[K comparable, V any](pairs ...Pair[K, V]) *Map[K, V] {
	m := WithCapacity[K, V](len(pairs))
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// Collect builds a map from a key/value sequence, the equivalent of a
// dictionary comprehension.
func Collect[K comparable, V any](seq iter.Seq2[K, V]) *Map[K, V] {
	m := New[K, V]()
	for k, v := range seq {
		m.Set(k, v)
	}
	return m
}

// Len reports the number of entries.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Set inserts key with value, or updates the value in place when key exists.
func (m *Map[K, V]) Set(key K, value V) {
	if m.index == nil {
		m.index = make(map[K]int)
	}
	if idx, ok := m.index[key]; ok {
		m.entries[idx].Value = value
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Pair[K, V]{Key: key, Value: value})
}

// Get returns the value stored under key and whether it was present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	idx, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return m.entries[idx].Value, true
}

// Lookup is Get for callers that require presence.
func (m *Map[K, V]) Lookup(key K) (V, error) {
	v, ok := m.Get(key)
	if !ok {
		return v, fmt.Errorf("lookup %v: %w", key, ErrKeyNotFound)
	}
	return v, nil
}

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[key]
	return ok
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	if m == nil {
		return false
	}
	idx, ok := m.index[key]
	if !ok {
		return false
	}
	delete(m.index, key)
	m.entries = slices.Delete(m.entries, idx, idx+1)
	for i := idx; i < len(m.entries); i++ {
		m.index[m.entries[i].Key] = i
	}
	return true
}

// Keys returns the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	out := make([]K, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Key
	}
	return out
}

// Values returns the values aligned with Keys.
func (m *Map[K, V]) Values() []V {
	if m == nil {
		return nil
	}
	out := make([]V, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Value
	}
	return out
}

// Pairs returns a copy of the entries in insertion order.
func (m *Map[K, V]) Pairs() []Pair[K, V] {
	if m == nil {
		return nil
	}
	return slices.Clone(m.entries)
}

// All iterates the entries in insertion order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}
		for _, e := range m.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Clone returns a shallow copy; values are not copied.
func (m *Map[K, V]) Clone() *Map[K, V] {
	if m == nil {
		return New[K, V]()
	}
	return FromPairs(m.entries...)
}

// SortedKeysFunc returns the keys ordered by compare, ignoring insertion order.
func (m *Map[K, V]) SortedKeysFunc(compare func(a, b K) int) []K {
	keys := m.Keys()
	slices.SortStableFunc(keys, compare)
	return keys
}

// SortedKeys returns the keys in ascending order.
func SortedKeys[K cmp.Ordered, V any](m *Map[K, V]) []K {
	keys := m.Keys()
	slices.Sort(keys)
	return keys
}

// SortedValues returns the values in ascending order.
func SortedValues[K comparable, V cmp.Ordered](m *Map[K, V]) []V {
	values := m.Values()
	slices.Sort(values)
	return values
}

// String renders the map as {k: v, ...} in insertion order.
func (m *Map[K, V]) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range m.Pairs() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v: %v", e.Key, e.Value)
	}
	b.WriteByte('}')
	return b.String()
}
