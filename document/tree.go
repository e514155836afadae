package document

import "go.yaml.in/yaml/v4"

// Pair is one key/value entry of a mapping node.
type Pair struct {
	Key   string
	Value *yaml.Node
}

// Resolve follows alias nodes to the node they refer to.
func Resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// IsMapping reports whether n (after alias resolution) is a mapping node.
func IsMapping(n *yaml.Node) bool {
	n = Resolve(n)
	return n != nil && n.Kind == yaml.MappingNode
}

// IsSequence reports whether n (after alias resolution) is a sequence node.
func IsSequence(n *yaml.Node) bool {
	n = Resolve(n)
	return n != nil && n.Kind == yaml.SequenceNode
}

// ScalarString returns the value of a scalar node.
func ScalarString(n *yaml.Node) (string, bool) {
	n = Resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

// maxMergeDepth bounds merge-key chains, which may be cyclic.
const maxMergeDepth = 32

// MappingIndex returns the index of key's key node within m.Content, or -1.
// Only keys written directly in m are found; merged keys are not.
func MappingIndex(m *yaml.Node, key string) int {
	m = Resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return -1
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key && !isMergeKey(m.Content[i]) {
			return i
		}
	}
	return -1
}

// MappingValue returns the value stored under key, or nil when m is not a
// mapping or has no such key. Aliases are resolved. A key absent from m is
// looked up in the mappings merged in with "<<", in merge order.
func MappingValue(m *yaml.Node, key string) *yaml.Node {
	return mappingValue(m, key, 0)
}

func mappingValue(m *yaml.Node, key string, depth int) *yaml.Node {
	if i := MappingIndex(m, key); i >= 0 {
		return Resolve(Resolve(m).Content[i+1])
	}
	if depth >= maxMergeDepth {
		return nil
	}
	for _, src := range mergeSources(m) {
		if v := mappingValue(src, key, depth+1); v != nil {
			return v
		}
	}
	return nil
}

// HasKey reports whether mapping m contains key, directly or through a merge.
func HasKey(m *yaml.Node, key string) bool {
	return MappingValue(m, key) != nil
}

// HasMerge reports whether m carries a "<<" merge entry.
func HasMerge(m *yaml.Node) bool {
	return len(mergeSources(m)) > 0
}

// isMergeKey reports whether k is the plain "<<" merge key.
func isMergeKey(k *yaml.Node) bool {
	return k.Kind == yaml.ScalarNode && k.Value == "<<" && k.ShortTag() == "!!merge"
}

// mergeSources returns the mappings merged into m, highest precedence first.
// A "<<" value is a mapping or a sequence of mappings.
func mergeSources(m *yaml.Node) []*yaml.Node {
	m = Resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	var sources []*yaml.Node
	for i := 0; i+1 < len(m.Content); i += 2 {
		if !isMergeKey(m.Content[i]) {
			continue
		}
		v := Resolve(m.Content[i+1])
		switch {
		case v == nil:
		case v.Kind == yaml.MappingNode:
			sources = append(sources, v)
		case v.Kind == yaml.SequenceNode:
			for _, item := range v.Content {
				if IsMapping(item) {
					sources = append(sources, Resolve(item))
				}
			}
		}
	}
	return sources
}

// SetMappingValue stores v under key. An existing entry keeps its position;
// a new entry is appended after the last key.
func SetMappingValue(m *yaml.Node, key string, v *yaml.Node) {
	m = Resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return
	}
	if i := MappingIndex(m, key); i >= 0 {
		m.Content[i+1] = v
		return
	}
	m.Content = append(m.Content, NewString(key), v)
}

// DeleteMappingKey removes key from m and reports whether it was present.
// A key that m only inherits through a merge is not removed.
func DeleteMappingKey(m *yaml.Node, key string) bool {
	i := MappingIndex(m, key)
	if i < 0 {
		return false
	}
	m = Resolve(m)
	m.Content = append(m.Content[:i], m.Content[i+2:]...)
	return true
}

// MappingKeys returns the keys of m in order.
func MappingKeys(m *yaml.Node) []string {
	pairs := MappingPairs(m)
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, p.Key)
	}
	return keys
}

// MappingPairs returns the entries of m in order, with values alias-resolved.
// Keys merged in with "<<" follow the keys written in m; the merge entry
// itself is not returned.
func MappingPairs(m *yaml.Node) []Pair {
	return mappingPairs(m, make(map[string]bool), 0)
}

func mappingPairs(m *yaml.Node, seen map[string]bool, depth int) []Pair {
	m = Resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	pairs := make([]Pair, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k := m.Content[i]
		if isMergeKey(k) || seen[k.Value] {
			continue
		}
		seen[k.Value] = true
		pairs = append(pairs, Pair{Key: k.Value, Value: Resolve(m.Content[i+1])})
	}
	if depth < maxMergeDepth {
		for _, src := range mergeSources(m) {
			pairs = append(pairs, mappingPairs(src, seen, depth+1)...)
		}
	}
	return pairs
}

// SequenceItems returns the alias-resolved items of sequence n.
func SequenceItems(n *yaml.Node) []*yaml.Node {
	n = Resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	items := make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		items[i] = Resolve(c)
	}
	return items
}

// NewMapping returns an empty block-style mapping node.
func NewMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// NewSequence returns a sequence node holding items.
func NewSequence(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}

// NewString returns a plain string scalar.
func NewString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
