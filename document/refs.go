package document

import (
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// ResolveRef follows a local JSON reference ("#/components/parameters/ApiKey")
// to the node it names. It returns nil for external references and for
// pointers that do not resolve.
func (d *Document) ResolveRef(ref string) *yaml.Node {
	if ref == "#" {
		return d.Root()
	}
	if !strings.HasPrefix(ref, "#/") {
		return nil
	}
	n := d.Root()
	for _, token := range strings.Split(strings.TrimPrefix(ref, "#/"), "/") {
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		switch {
		case IsMapping(n):
			n = MappingValue(n, token)
		case IsSequence(n):
			i, err := strconv.Atoi(token)
			items := SequenceItems(n)
			if err != nil || i < 0 || i >= len(items) {
				return nil
			}
			n = items[i]
		default:
			return nil
		}
		if n == nil {
			return nil
		}
	}
	return n
}

// Deref returns the target of n when n is a mapping holding only a local
// "$ref", and n itself otherwise or when the reference does not resolve.
func (d *Document) Deref(n *yaml.Node) *yaml.Node {
	ref, ok := ScalarString(MappingValue(n, "$ref"))
	if !ok {
		return n
	}
	if target := d.ResolveRef(ref); IsMapping(target) {
		return target
	}
	return n
}
