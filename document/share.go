package document

import "go.yaml.in/yaml/v4"

// Expand returns a deep copy of n with every alias replaced by a copy of its
// target and every anchor dropped. The copy shares no nodes with the document.
func Expand(n *yaml.Node) *yaml.Node {
	return expand(n, make(map[*yaml.Node]bool))
}

func expand(n *yaml.Node, active map[*yaml.Node]bool) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		c := expand(n.Alias, active)
		c.HeadComment, c.LineComment, c.FootComment = n.HeadComment, n.LineComment, n.FootComment
		return c
	}
	if active[n] {
		// An alias to one of its own ancestors has no finite expansion.
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	active[n] = true
	defer delete(active, n)

	c := *n
	c.Anchor = ""
	c.Alias = nil
	if len(n.Content) > 0 {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = expand(child, active)
		}
	}
	return &c
}

// Own makes the value under key in mapping m private to that entry and
// returns it, so that it can be changed without changing any other part of
// the document:
//   - an alias is replaced by an expanded copy of its target;
//   - a value m only inherits through "<<" is copied into m;
//   - aliases elsewhere that point at the value are replaced by copies of it.
//
// It returns nil when m has no such key.
func (d *Document) Own(m *yaml.Node, key string) *yaml.Node {
	i := MappingIndex(m, key)
	if i < 0 {
		v := MappingValue(m, key)
		if v == nil {
			return nil
		}
		c := Expand(v)
		SetMappingValue(m, key, c)
		return c
	}
	m = Resolve(m)
	raw := m.Content[i+1]
	if raw.Kind == yaml.AliasNode {
		c := Expand(raw)
		m.Content[i+1] = c
		return c
	}
	if raw.Anchor != "" {
		d.materialize(map[*yaml.Node]bool{raw: true})
		raw.Anchor = ""
	}
	return raw
}

// Release prepares n for removal from the document: aliases outside n that
// point at n or at an anchored node inside it are replaced by copies, so no
// alias is left without its anchor.
func (d *Document) Release(n *yaml.Node) {
	if n == nil || n.Kind == yaml.AliasNode {
		return
	}
	anchored := make(map[*yaml.Node]bool)
	collectAnchors(n, anchored)
	if len(anchored) > 0 {
		d.materialize(anchored)
	}
}

// OwnOperation makes the path item and operation mapping of op private to
// their entries and returns the operation mapping.
func (d *Document) OwnOperation(op Operation) *yaml.Node {
	item := d.Own(d.Paths(), op.Path)
	if !IsMapping(item) {
		return op.Node
	}
	if node := d.Own(item, op.Method); IsMapping(node) {
		return Resolve(node)
	}
	return op.Node
}

func collectAnchors(n *yaml.Node, out map[*yaml.Node]bool) {
	if n == nil || n.Kind == yaml.AliasNode {
		return
	}
	if n.Anchor != "" {
		out[n] = true
	}
	for _, c := range n.Content {
		collectAnchors(c, out)
	}
}

// materialize replaces, in place, every alias whose target is in targets by
// an expanded copy of that target.
func (d *Document) materialize(targets map[*yaml.Node]bool) {
	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		if n == nil {
			return
		}
		if n.Kind == yaml.AliasNode {
			if targets[n.Alias] {
				head, line, foot := n.HeadComment, n.LineComment, n.FootComment
				*n = *Expand(n.Alias)
				n.HeadComment, n.LineComment, n.FootComment = head, line, foot
			}
			return
		}
		for _, c := range n.Content {
			walk(c)
		}
	}
	walk(d.node)
}

// Refresh returns op with Node read again from the paths mapping, which
// differs from the original once Own has copied the operation.
func (d *Document) Refresh(op Operation) Operation {
	if node := MappingValue(MappingValue(d.Paths(), op.Path), op.Method); IsMapping(node) {
		op.Node = node
	}
	return op
}

// Replace stores v under key in m. The value it displaces is released first,
// so aliases pointing into it keep a target.
func (d *Document) Replace(m *yaml.Node, key string, v *yaml.Node) {
	if i := MappingIndex(m, key); i >= 0 {
		d.Release(Resolve(m).Content[i+1])
	}
	SetMappingValue(m, key, v)
}

// FlattenMerges replaces the "<<" entries of mapping m with copies of the
// keys they contribute, so m no longer depends on the merged mappings.
// Keys written in m keep their values. The merged keys take the place of the
// first merge entry.
func FlattenMerges(m *yaml.Node) {
	m = Resolve(m)
	if !HasMerge(m) {
		return
	}
	var merged []*yaml.Node
	for _, p := range MappingPairs(m) {
		if MappingIndex(m, p.Key) < 0 {
			merged = append(merged, NewString(p.Key), Expand(p.Value))
		}
	}

	content := make([]*yaml.Node, 0, len(m.Content)+len(merged))
	placed := false
	for i := 0; i+1 < len(m.Content); i += 2 {
		if isMergeKey(m.Content[i]) {
			if !placed {
				content = append(content, merged...)
				placed = true
			}
			continue
		}
		content = append(content, m.Content[i], m.Content[i+1])
	}
	m.Content = content
}
