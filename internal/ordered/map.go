// Package ordered implements an insertion-ordered map, used to read a YAML
// document, change a few keys and write it back without reshuffling the rest.
package ordered

import (
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

var _ interface {
	yaml.IsZeroer
	yaml.Marshaler
	yaml.Unmarshaler
} = (*Map[string, any])(nil)

// Map is a map that remembers the order keys were first set in.
type Map[K comparable, V any] struct {
	items []Tuple[K, V]
	index map[K]int
}

// MapSS is a map of strings to strings. Secret sets use it.
type MapSS = Map[string, string]

// MapSA is a map of strings to anything. Decoded documents use it.
type MapSA = Map[string, any]

// NewMap returns an empty map with room for cap items.
func NewMap[K comparable, V any](cap int) *Map[K, V] {
	return &Map[K, V]{
		items: make([]Tuple[K, V], 0, cap),
		index: make(map[K]int, cap),
	}
}

// MapFromItems creates a Map holding the given items, in order.
func MapFromItems[K comparable, V any](ts ...Tuple[K, V]) *Map[K, V] {
	m := NewMap[K, V](len(ts))
	for _, t := range ts {
		m.Set(t.Key, t.Value)
	}
	return m
}

// Len returns the number of keys in the map.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// IsZero reports if m is nil or empty. yaml.v3 calls it for omitempty.
func (m *Map[K, V]) IsZero() bool {
	return m.Len() == 0
}

// Get returns the value for k, and whether it was present.
func (m *Map[K, V]) Get(k K) (V, bool) {
	var zv V
	if m == nil {
		return zv, false
	}
	idx, ok := m.index[k]
	if !ok {
		return zv, false
	}
	return m.items[idx].Value, true
}

// Contains reports if k is in the map.
func (m *Map[K, V]) Contains(k K) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[k]
	return ok
}

// Set stores v under k. An existing key keeps its position; a new key goes
// on the end.
func (m *Map[K, V]) Set(k K, v V) {
	// new(Map) leaves index nil.
	if m.index == nil {
		m.index = make(map[K]int, 1)
	}
	if idx, ok := m.index[k]; ok {
		m.items[idx].Value = v
		return
	}
	m.index[k] = len(m.items)
	m.items = append(m.items, Tuple[K, V]{Key: k, Value: v})
}

// Keys returns the keys in order.
func (m *Map[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	keys := make([]K, 0, len(m.items))
	for _, t := range m.items {
		keys = append(keys, t.Key)
	}
	return keys
}

// Range calls f with each key and value in order. It stops at, and returns,
// the first error f returns.
func (m *Map[K, V]) Range(f func(k K, v V) error) error {
	if m == nil {
		return nil
	}
	for _, t := range m.items {
		if err := f(t.Key, t.Value); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether a and b hold the same items in the same order.
// Values are compared with go-cmp, treating nested MapSA and MapSS values
// with Equal as well.
func Equal[K comparable, V any](a, b *Map[K, V]) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.items) != len(b.items) {
		return false
	}
	for i := range a.items {
		if a.items[i].Key != b.items[i].Key {
			return false
		}
		if !cmp.Equal(a.items[i].Value, b.items[i].Value, cmp.Comparer(EqualSA), cmp.Comparer(EqualSS)) {
			return false
		}
	}
	return true
}

// EqualSA compares two MapSA values.
func EqualSA(a, b *MapSA) bool { return Equal(a, b) }

// EqualSS compares two MapSS values.
func EqualSS(a, b *MapSS) bool { return Equal(a, b) }
