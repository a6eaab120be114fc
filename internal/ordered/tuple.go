package ordered

// Tuple is a key and value stored in a Map.
type Tuple[K comparable, V any] struct {
	Key   K
	Value V
}

// TupleSS is a Tuple of two strings.
type TupleSS = Tuple[string, string]

// TupleSA is a Tuple of a string and anything.
type TupleSA = Tuple[string, any]
