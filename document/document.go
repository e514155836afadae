package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"go.yaml.in/yaml/v4"

	"github.com/moenvlab/oaskeyguard/internal/fileutil"
	"github.com/moenvlab/oaskeyguard/oaserrors"
)

// Document is an OpenAPI document held as a YAML node tree.
//
// Mapping nodes keep their keys in source order, so a document that is loaded
// and saved without modification keeps the layout of its sections.
type Document struct {
	node   *yaml.Node // the DocumentNode wrapping Root()
	source string
}

// yamlLineRe extracts the position the decoder reports in its messages,
// e.g. "yaml: line 12: did not find expected key".
var yamlLineRe = regexp.MustCompile(`line (\d+)(?:, column (\d+))?`)

// Parse decodes data into a Document. The source is only used in error messages.
// It returns a *oaserrors.ParseError when data is not valid YAML/JSON, is empty,
// or does not have a mapping at its root.
func Parse(data []byte, source string) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, newParseError(source, err)
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return nil, &oaserrors.ParseError{Path: source, Message: "empty document"}
	}
	root := Resolve(node.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, &oaserrors.ParseError{
			Path:    source,
			Line:    root.Line,
			Column:  root.Column,
			Message: fmt.Sprintf("document root is a %s, expected a mapping", kindName(root.Kind)),
		}
	}
	return &Document{node: &node, source: source}, nil
}

// ParseReader reads r fully and decodes it with Parse.
func ParseReader(r io.Reader, source string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("document: reading %s: %w", source, err)
	}
	return Parse(data, source)
}

// Load reads the file at path and decodes it with Parse.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is caller supplied by design
	if err != nil {
		return nil, fmt.Errorf("document: reading %s: %w", path, err)
	}
	return Parse(data, path)
}

// Root returns the root mapping node. Passes mutate it in place.
func (d *Document) Root() *yaml.Node {
	return Resolve(d.node.Content[0])
}

// Source returns the file path or identifier the document was parsed from.
func (d *Document) Source() string {
	return d.source
}

// Bytes serializes the document as YAML with a two-space indent.
// Keys are written in tree order; nothing is sorted.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.node); err != nil {
		return nil, &oaserrors.WriteError{Path: d.source, Op: "encode", Cause: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &oaserrors.WriteError{Path: d.source, Op: "encode", Cause: err}
	}
	return buf.Bytes(), nil
}

// Save serializes the document and replaces the file at path with the result.
// The replacement is all-or-nothing: on error the previous content is intact.
// Failures are reported as *oaserrors.WriteError.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, fileutil.OwnerReadWrite)
}

// Clone returns a deep copy of the document. Anchors and aliases inside the
// copy point at copied nodes.
func (d *Document) Clone() *Document {
	seen := make(map[*yaml.Node]*yaml.Node)
	return &Document{node: cloneNode(d.node, seen), source: d.source}
}

// Version returns the value of the top-level "openapi" or "swagger" key,
// or an empty string when neither is present.
func (d *Document) Version() string {
	for _, key := range []string{"openapi", "swagger"} {
		if v, ok := ScalarString(MappingValue(d.Root(), key)); ok {
			return v
		}
	}
	return ""
}

func cloneNode(n *yaml.Node, seen map[*yaml.Node]*yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if c, ok := seen[n]; ok {
		return c
	}
	c := *n
	seen[n] = &c
	if len(n.Content) > 0 {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child, seen)
		}
	}
	c.Alias = cloneNode(n.Alias, seen)
	return &c
}

func newParseError(source string, err error) *oaserrors.ParseError {
	pe := &oaserrors.ParseError{Path: source, Message: "invalid YAML/JSON", Cause: err}
	if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			pe.Column, _ = strconv.Atoi(m[2])
		}
	}
	return pe
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "node"
	}
}
