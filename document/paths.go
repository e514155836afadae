package document

import (
	"slices"

	"go.yaml.in/yaml/v4"
)

// OperationMethods lists the path item keys that hold an Operation, in the
// order OpenAPI documents them. "query" was added in OAS 3.2.
var OperationMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace", "query"}

// IsOperationKey reports whether key names an Operation within a path item.
// The comparison is exact: "GET" is not an operation key.
func IsOperationKey(key string) bool {
	return slices.Contains(OperationMethods, key)
}

// Operation is one method entry under paths.
type Operation struct {
	Path   string
	Method string
	// Node is the operation mapping; mutations are visible in the document.
	Node *yaml.Node
}

// PathItem is one entry of the paths mapping.
type PathItem struct {
	Path string
	Node *yaml.Node
}

// Paths returns the mapping node under the top-level "paths" key, or nil.
func (d *Document) Paths() *yaml.Node {
	p := MappingValue(d.Root(), "paths")
	if !IsMapping(p) {
		return nil
	}
	return p
}

// PathItems returns every path item whose value is a mapping, in document order.
func (d *Document) PathItems() []PathItem {
	var items []PathItem
	for _, p := range MappingPairs(d.Paths()) {
		if IsMapping(p.Value) {
			items = append(items, PathItem{Path: p.Key, Node: p.Value})
		}
	}
	return items
}

// Operations returns every operation in document order. Path item keys that
// are not HTTP methods (summary, parameters, servers, $ref, extensions) are
// skipped, as are method entries whose value is not a mapping.
func (d *Document) Operations() []Operation {
	var ops []Operation
	for _, item := range d.PathItems() {
		for _, p := range MappingPairs(item.Node) {
			if !IsOperationKey(p.Key) || !IsMapping(p.Value) {
				continue
			}
			ops = append(ops, Operation{Path: item.Path, Method: p.Key, Node: p.Value})
		}
	}
	return ops
}

// Stats contains counts about a document.
type Stats struct {
	PathCount      int
	OperationCount int
	SchemeCount    int
}

// Stats computes counts for display.
func (d *Document) Stats() Stats {
	schemes := MappingValue(MappingValue(d.Root(), "components"), "securitySchemes")
	return Stats{
		PathCount:      len(MappingPairs(d.Paths())),
		OperationCount: len(d.Operations()),
		SchemeCount:    len(MappingPairs(schemes)),
	}
}
