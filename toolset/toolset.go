package toolset

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/moenvlab/oaskeyguard/document"
	"github.com/moenvlab/oaskeyguard/oaserrors"
)

// Parameter is the part of a parameter object a tool caller needs.
type Parameter struct {
	Name     string `json:"name" yaml:"name"`
	In       string `json:"in,omitempty" yaml:"in,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Operation describes one OpenAPI operation exposed as a tool.
type Operation struct {
	Name        string      `json:"name" yaml:"name"`
	OperationID string      `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Method      string      `json:"method" yaml:"method"`
	Path        string      `json:"path" yaml:"path"`
	Summary     string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters"`
	// Security lists the scheme names of the operation's requirements.
	Security []string `json:"security,omitempty" yaml:"security,omitempty"`
}

// Operations returns one Operation per method entry under paths, in document
// order. Path-level parameters are merged in unless the operation overrides
// them by name and location. Local $ref parameters are followed.
func Operations(doc *document.Document) []Operation {
	var ops []Operation
	for _, item := range doc.PathItems() {
		shared := document.MappingValue(item.Node, "parameters")
		for _, p := range document.MappingPairs(item.Node) {
			if !document.IsOperationKey(p.Key) || !document.IsMapping(p.Value) {
				continue
			}
			ops = append(ops, describe(doc, item.Path, p.Key, p.Value, shared))
		}
	}
	return ops
}

func describe(doc *document.Document, path, method string, node, shared *yaml.Node) Operation {
	op := Operation{Path: path, Method: method}
	op.OperationID, _ = document.ScalarString(document.MappingValue(node, "operationId"))
	op.Summary, _ = document.ScalarString(document.MappingValue(node, "summary"))
	if op.OperationID != "" {
		op.Name = ToolName(op.OperationID)
	} else {
		op.Name = fallbackName(method, path)
	}

	own := parameters(doc, document.MappingValue(node, "parameters"))
	seen := make(map[string]bool, len(own))
	for _, p := range own {
		seen[p.In+"/"+p.Name] = true
	}
	for _, p := range parameters(doc, shared) {
		if !seen[p.In+"/"+p.Name] {
			op.Parameters = append(op.Parameters, p)
		}
	}
	op.Parameters = append(op.Parameters, own...)
	if op.Parameters == nil {
		op.Parameters = []Parameter{}
	}

	for _, req := range document.SequenceItems(document.MappingValue(node, "security")) {
		op.Security = append(op.Security, document.MappingKeys(req)...)
	}
	return op
}

func parameters(doc *document.Document, list *yaml.Node) []Parameter {
	var out []Parameter
	for _, item := range document.SequenceItems(list) {
		n := doc.Deref(item)
		name, ok := document.ScalarString(document.MappingValue(n, "name"))
		if !ok {
			continue
		}
		p := Parameter{Name: name}
		p.In, _ = document.ScalarString(document.MappingValue(n, "in"))
		req, _ := document.ScalarString(document.MappingValue(n, "required"))
		p.Required = req == "true"
		p.Type, _ = document.ScalarString(document.MappingValue(document.MappingValue(n, "schema"), "type"))
		out = append(out, p)
	}
	return out
}

// Carrier says where an apiKey credential is sent.
type Carrier struct {
	// In is "query", "header", or "cookie".
	In   string `json:"in" yaml:"in"`
	Name string `json:"name" yaml:"name"`
}

// ResolveCarrier looks up components.securitySchemes.<scheme>. It reports
// false when the scheme is missing, is not of type apiKey, or lacks in/name.
func ResolveCarrier(doc *document.Document, scheme string) (Carrier, bool) {
	schemes := document.MappingValue(document.MappingValue(doc.Root(), "components"), "securitySchemes")
	n := doc.Deref(document.MappingValue(schemes, scheme))
	if typ, _ := document.ScalarString(document.MappingValue(n, "type")); typ != "apiKey" {
		return Carrier{}, false
	}
	var c Carrier
	c.In, _ = document.ScalarString(document.MappingValue(n, "in"))
	c.Name, _ = document.ScalarString(document.MappingValue(n, "name"))
	if c.In == "" || c.Name == "" {
		return Carrier{}, false
	}
	return c, true
}

// Credential is an API key read from the environment.
type Credential struct {
	// Env is the variable the key came from.
	Env string
	key string
}

// CredentialFromEnv reads the API key from the named environment variable.
// An unset or blank variable is a *oaserrors.ConfigError.
func CredentialFromEnv(env string) (Credential, error) {
	v := strings.TrimSpace(os.Getenv(env))
	if v == "" {
		return Credential{}, &oaserrors.ConfigError{
			Option:  env,
			Message: "environment variable is not set",
		}
	}
	return Credential{Env: env, key: v}, nil
}

// Key returns the raw credential.
func (c Credential) Key() string { return c.key }

// String masks all but the last four characters of the key.
func (c Credential) String() string {
	if c.key == "" {
		return c.Env + "=<unset>"
	}
	shown := ""
	if r := []rune(c.key); len(r) > 8 {
		shown = string(r[len(r)-4:])
	}
	return fmt.Sprintf("%s=****%s", c.Env, shown)
}

// Apply pairs the key with the location and name the carrier prescribes.
func (c Credential) Apply(carrier Carrier) (in, name, value string) {
	return carrier.In, carrier.Name, c.key
}
