package ordered

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// MarshalYAML returns a mapping node holding the items of m in order.
// Strings containing a newline are emitted in literal block style.
func (m *Map[K, V]) MarshalYAML() (any, error) {
	n := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}
	err := m.Range(func(k K, v V) error {
		nk, err := EncodeYAML(k)
		if err != nil {
			return err
		}
		nv, err := EncodeYAML(v)
		if err != nil {
			return fmt.Errorf("encoding value for key %v: %w", k, err)
		}
		n.Content = append(n.Content, nk, nv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// UnmarshalYAML decodes a mapping node into m. Only *MapSA is supported;
// nested mappings become *MapSA too, rather than yaml.v3's map[string]any.
func (m *Map[K, V]) UnmarshalYAML(n *yaml.Node) error {
	tm, ok := any(m).(*MapSA)
	if !ok {
		return fmt.Errorf("cannot unmarshal into %T, want *ordered.MapSA", m)
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d, col %d: cannot unmarshal %s into a map", n.Line, n.Column, kindName(n.Kind))
	}
	v, err := DecodeYAML(n)
	if err != nil {
		return err
	}
	*tm = *v.(*MapSA)
	return nil
}

// EncodeYAML converts v into a node. Maps keep their order, []any becomes a
// sequence, and multi-line strings use literal block style when that reads
// back to the same string. Nodes are used as they are. Anything else is left
// to yaml.v3.
func EncodeYAML(v any) (*yaml.Node, error) {
	switch tv := v.(type) {
	case string:
		return stringNode(tv)

	case float64:
		return floatNode(tv), nil

	case *yaml.Node:
		return tv, nil

	case yaml.Marshaler:
		out, err := tv.MarshalYAML()
		if err != nil {
			return nil, err
		}
		if n, ok := out.(*yaml.Node); ok {
			return n, nil
		}
		return EncodeYAML(out)

	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, e := range tv {
			en, err := EncodeYAML(e)
			if err != nil {
				return nil, fmt.Errorf("encoding item %d: %w", i, err)
			}
			n.Content = append(n.Content, en)
		}
		return n, nil

	default:
		n := new(yaml.Node)
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}

// stringNode tags s as !!str, so yaml.v3 quotes strings that would otherwise
// read back as another type ("8080", "true", "~"). Invalid UTF-8 is left to
// yaml.v3, which writes it as !!binary.
func stringNode(s string) (*yaml.Node, error) {
	if !utf8.ValidString(s) {
		n := new(yaml.Node)
		if err := n.Encode(s); err != nil {
			return nil, err
		}
		return n, nil
	}

	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.Contains(s, "\n") {
		if literalSafe(s) {
			n.Style = yaml.LiteralStyle
		} else {
			n.Style = yaml.DoubleQuotedStyle
		}
	}
	return n, nil
}

// literalSafe reports whether s reads back unchanged from a literal block.
// Blocks of nothing but whitespace collapse to "", and a tab opening the
// first line is taken for indentation.
func literalSafe(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	first := strings.TrimLeft(s, "\r\n")
	return !strings.HasPrefix(first, "\t")
}

// floatNode keeps a trailing ".0" on whole numbers, so 1.0 reads back as a
// float rather than an int.
func floatNode(f float64) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float"}
	switch {
	case math.IsNaN(f):
		n.Value = ".nan"
	case math.IsInf(f, 1):
		n.Value = ".inf"
	case math.IsInf(f, -1):
		n.Value = "-.inf"
	default:
		n.Value = strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(n.Value, ".eE") {
			n.Value += ".0"
		}
	}
	return n
}

// DecodeYAML turns n into plain values: scalars become string, int, float64,
// bool or nil, sequences become []any and mappings become *MapSA. Aliases
// and merge keys (<<) are resolved. Scalars that would be written back
// differently (timestamps, !!binary, custom tags, 0x1F, 1.50) are kept as a
// copy of their *yaml.Node.
func DecodeYAML(n *yaml.Node) (any, error) {
	return decodeYAML(make(map[*yaml.Node]bool), n)
}

// decodeYAML tracks the nodes on the current path in seen, so that an alias
// pointing back at one of its parents is an error rather than a stack
// overflow.
func decodeYAML(seen map[*yaml.Node]bool, n *yaml.Node) (any, error) {
	// A zero node is what unmarshaling an empty document leaves behind.
	if n == nil || n.Kind == 0 {
		return nil, nil
	}
	if seen[n] {
		return nil, fmt.Errorf("line %d, col %d: alias refers to itself", n.Line, n.Column)
	}
	seen[n] = true
	// The same anchor may be used in sibling subtrees.
	defer delete(seen, n)

	switch n.Kind {
	case yaml.DocumentNode:
		switch len(n.Content) {
		case 0:
			return nil, nil
		case 1:
			return decodeYAML(seen, n.Content[0])
		default:
			return nil, fmt.Errorf("line %d, col %d: document has %d root nodes", n.Line, n.Column, len(n.Content))
		}

	case yaml.ScalarNode:
		return decodeScalar(n)

	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeYAML(seen, c)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil

	case yaml.MappingNode:
		m := NewMap[string, any](len(n.Content) / 2)
		err := rangeYAMLMap(n, func(k string, vn *yaml.Node) error {
			v, err := decodeYAML(seen, vn)
			if err != nil {
				return err
			}
			m.Set(k, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return m, nil

	case yaml.AliasNode:
		return decodeYAML(seen, n.Alias)

	default:
		return nil, fmt.Errorf("line %d, col %d: unsupported node kind %s", n.Line, n.Column, kindName(n.Kind))
	}
}

func decodeScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!str", "!!null", "!!int", "!!float", "!!bool":
	default:
		return scalarCopy(n), nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}

	var text string
	switch tv := v.(type) {
	case int:
		text = strconv.Itoa(tv)
	case int64:
		text = strconv.FormatInt(tv, 10)
	case uint64:
		text = strconv.FormatUint(tv, 10)
	case float64:
		text = floatNode(tv).Value
	case bool:
		text = strconv.FormatBool(tv)
	default:
		return v, nil
	}
	if text != n.Value {
		return scalarCopy(n), nil
	}
	return v, nil
}

func scalarCopy(n *yaml.Node) *yaml.Node {
	c := *n
	c.Line, c.Column = 0, 0
	return &c
}

// rangeYAMLMap calls f for each key and value of a mapping node, following
// merge keys. Keys written in the mapping itself win over merged keys, and
// earlier merges win over later ones (https://yaml.org/type/merge.html).
func rangeYAMLMap(n *yaml.Node, f func(k string, v *yaml.Node) error) error {
	return rangeMerged(make(map[*yaml.Node]bool), n, f)
}

func rangeMerged(merged map[*yaml.Node]bool, n *yaml.Node, f func(k string, v *yaml.Node) error) error {
	if n == nil || merged[n] {
		return nil
	}
	merged[n] = true

	switch n.Kind {
	case yaml.AliasNode:
		return rangeMerged(merged, n.Alias, f)

	case yaml.SequenceNode:
		// <<: [*a, *b]
		for _, c := range n.Content {
			if err := rangeMerged(merged, c, f); err != nil {
				return err
			}
		}
		return nil

	case yaml.MappingNode:
		// handled below

	default:
		return fmt.Errorf("line %d, col %d: cannot merge %s into a map", n.Line, n.Column, kindName(n.Kind))
	}

	if len(n.Content)%2 != 0 {
		return fmt.Errorf("line %d, col %d: mapping has odd number of nodes (%d)", n.Line, n.Column, len(n.Content))
	}

	// Collect the explicit keys first, so merged keys can't displace them.
	own := make(map[string]bool, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		if isMergeKey(n.Content[i]) {
			continue
		}
		k, err := mapKey(n.Content[i])
		if err != nil {
			return err
		}
		own[k] = true
	}

	fromMerge := func(k string, v *yaml.Node) error {
		if own[k] {
			return nil
		}
		own[k] = true
		return f(k, v)
	}

	for i := 0; i < len(n.Content); i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		if isMergeKey(kn) {
			if err := rangeMerged(merged, vn, fromMerge); err != nil {
				return err
			}
			continue
		}
		k, err := mapKey(kn)
		if err != nil {
			return err
		}
		if err := f(k, vn); err != nil {
			return err
		}
	}
	return nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!merge"
}

// mapKey returns the string form of a scalar key. Helm values are keyed by
// strings, so non-scalar and null keys are rejected.
func mapKey(n *yaml.Node) (string, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d, col %d: map key must be a scalar, got %s", n.Line, n.Column, kindName(n.Kind))
	}
	if n.Tag == "!!null" {
		return "", fmt.Errorf("line %d, col %d: null map key", n.Line, n.Column)
	}
	return n.Value, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind %#x", k)
	}
}
