package sanitizer

import (
	"fmt"

	"go.yaml.in/yaml/v4"

	"github.com/moenvlab/oaskeyguard/document"
)

// Scrub removes hardcoded defaults for the api_key parameter and request body
// property from every operation, whatever its method, using the default names.
// It mutates doc in place and returns the fixes it made.
func Scrub(doc *document.Document) []Fix {
	return New().Scrub(doc)
}

// scrub is the Default-Value Scrubber.
//
// It visits parameters at path-item level, parameters and request body schema
// properties of every operation, and the components.parameters map. Structure
// that is absent or not shaped as expected is skipped.
func (s *Sanitizer) scrub(doc *document.Document, fixes *[]Fix) {
	if !s.isFixEnabled(FixTypeScrubbedDefault) {
		return
	}

	for _, item := range doc.PathItems() {
		s.scrubParameters(document.MappingValue(item.Node, "parameters"),
			fmt.Sprintf("paths.%s.parameters", item.Path), item.Path, "", fixes)
	}

	for _, op := range doc.Operations() {
		base := fmt.Sprintf("paths.%s.%s", op.Path, op.Method)
		s.scrubParameters(document.MappingValue(op.Node, "parameters"), base+".parameters", op.Path, op.Method, fixes)
		s.scrubRequestBody(document.MappingValue(op.Node, "requestBody"), base+".requestBody", op, fixes)
	}

	params := document.MappingValue(document.MappingValue(doc.Root(), "components"), "parameters")
	for _, p := range document.MappingPairs(params) {
		if !s.isAPIKeyParameter(p.Value) {
			continue
		}
		if removeDefault(p.Value) {
			s.record(fixes, Fix{
				Type:        FixTypeScrubbedDefault,
				Path:        "components.parameters." + p.Key,
				Description: fmt.Sprintf("removed hardcoded default from component parameter %s", p.Key),
				Before:      Redacted,
			})
		}
	}
}

func (s *Sanitizer) scrubParameters(params *yaml.Node, base, path, method string, fixes *[]Fix) {
	for i, param := range document.SequenceItems(params) {
		if !s.isAPIKeyParameter(param) {
			continue
		}
		if !removeDefault(param) {
			continue
		}
		desc := fmt.Sprintf("removed hardcoded default API key from %s -> %s -> %s", path, method, s.APIKeyName)
		if method == "" {
			desc = fmt.Sprintf("removed hardcoded default API key from %s -> %s", path, s.APIKeyName)
		}
		s.record(fixes, Fix{
			Type:        FixTypeScrubbedDefault,
			Path:        fmt.Sprintf("%s[%d]", base, i),
			Description: desc,
			Before:      Redacted,
		})
	}
}

func (s *Sanitizer) scrubRequestBody(body *yaml.Node, base string, op document.Operation, fixes *[]Fix) {
	content := document.MappingValue(body, "content")
	for _, media := range document.MappingPairs(content) {
		props := document.MappingValue(document.MappingValue(media.Value, "schema"), "properties")
		prop := document.MappingValue(props, s.APIKeyName)
		if !removeDefault(prop) {
			continue
		}
		s.record(fixes, Fix{
			Type:        FixTypeScrubbedDefault,
			Path:        fmt.Sprintf("%s.content.%s.schema.properties.%s", base, media.Key, s.APIKeyName),
			Description: fmt.Sprintf("removed hardcoded default API key from requestBody: %s -> %s -> %s", op.Path, op.Method, s.APIKeyName),
			Before:      Redacted,
		})
	}
}

// isAPIKeyParameter reports whether n is a Parameter mapping named APIKeyName.
func (s *Sanitizer) isAPIKeyParameter(n *yaml.Node) bool {
	name, ok := document.ScalarString(document.MappingValue(n, "name"))
	return ok && name == s.APIKeyName
}

// Redacted stands in for scrubbed key values in fix records, which may be
// logged or persisted.
const Redacted = "[REDACTED]"

// removeDefault deletes the "default" key of mapping n and reports whether it
// existed. A default n inherits through "<<" is removed from n alone: the
// merged keys are copied into n and the mapping it merged from is left as is.
func removeDefault(n *yaml.Node) bool {
	if !document.HasKey(n, "default") {
		return false
	}
	if document.DeleteMappingKey(n, "default") && !document.HasKey(n, "default") {
		return true
	}
	document.FlattenMerges(n)
	document.DeleteMappingKey(n, "default")
	return true
}

// nodeValue decodes n into a generic value for fix records.
func nodeValue(n *yaml.Node) any {
	var v any
	if err := n.Decode(&v); err != nil {
		return n.Value
	}
	return v
}
