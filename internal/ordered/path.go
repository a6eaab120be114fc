package ordered

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotAMap is returned by EnsureMap when a path segment holds something
// other than a map.
var ErrNotAMap = errors.New("not a map")

// EnsureMap walks down path from m and returns the map at its end. Missing
// segments, and segments holding null, are replaced with new empty maps.
func EnsureMap(m *MapSA, path ...string) (*MapSA, error) {
	cur := m
	for i, key := range path {
		v, ok := cur.Get(key)
		if !ok || v == nil {
			next := NewMap[string, any](0)
			cur.Set(key, next)
			cur = next
			continue
		}
		next, ok := v.(*MapSA)
		if !ok {
			return nil, fmt.Errorf("%s: %w (found %T)", strings.Join(path[:i+1], "."), ErrNotAMap, v)
		}
		cur = next
	}
	return cur, nil
}
