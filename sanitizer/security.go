package sanitizer

import (
	"fmt"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/moenvlab/oaskeyguard/document"
)

// Normalize gives every GET operation the requirement [{ApiKeyAuth: []}] and
// removes its api_key parameters, using the default names. It mutates doc in
// place and returns the fixes it made.
func Normalize(doc *document.Document) []Fix {
	return New().Normalize(doc)
}

// normalize is the Security Normalizer.
//
// Only operations keyed exactly TargetMethod are touched. Their security is
// overwritten with a single requirement for SchemeName, and their parameters
// are rebuilt without entries named APIKeyName. An absent parameters list
// becomes an explicit empty sequence; a parameters value that is not a
// sequence is left as it is.
func (s *Sanitizer) normalize(doc *document.Document, fixes *[]Fix) {
	injectSecurity := s.isFixEnabled(FixTypeInjectedSecurity)
	removeParams := s.isFixEnabled(FixTypeRemovedAPIKeyParameter)

	if injectSecurity && s.isFixEnabled(FixTypeAddedSecurityScheme) {
		s.ensureScheme(doc, fixes)
	}

	for _, op := range doc.Operations() {
		if op.Method != s.TargetMethod {
			continue
		}
		// An earlier operation may have copied this one out of a shared node.
		op = doc.Refresh(op)
		base := fmt.Sprintf("paths.%s.%s", op.Path, op.Method)
		if injectSecurity {
			s.setSecurity(doc, &op, base, fixes)
		}
		if removeParams {
			s.filterParameters(doc, &op, base, fixes)
		}
	}
}

// setSecurity overwrites the security of op. Nodes shared through anchors,
// aliases or merge keys are copied before they change, so operations of
// other methods keep their own values.
func (s *Sanitizer) setSecurity(doc *document.Document, op *document.Operation, base string, fixes *[]Fix) {
	existing := document.MappingValue(op.Node, "security")
	if s.isSchemeRequirement(existing) {
		return
	}

	var before any
	if existing != nil {
		before = nodeValue(existing)
	}
	op.Node = doc.OwnOperation(*op)
	doc.Replace(op.Node, "security", s.requirementNode())
	s.record(fixes, Fix{
		Type:        FixTypeInjectedSecurity,
		Path:        base + ".security",
		Description: fmt.Sprintf("set security requirement %s on %s %s", s.SchemeName, strings.ToUpper(op.Method), op.Path),
		Before:      before,
		After:       []any{map[string]any{s.SchemeName: []any{}}},
	})
}

// requirementNode builds [{<SchemeName>: []}].
func (s *Sanitizer) requirementNode() *yaml.Node {
	req := document.NewMapping()
	document.SetMappingValue(req, s.SchemeName, document.NewSequence())
	return document.NewSequence(req)
}

// isSchemeRequirement reports whether n already equals [{<SchemeName>: []}].
func (s *Sanitizer) isSchemeRequirement(n *yaml.Node) bool {
	items := document.SequenceItems(n)
	if len(items) != 1 {
		return false
	}
	pairs := document.MappingPairs(items[0])
	if len(pairs) != 1 || pairs[0].Key != s.SchemeName {
		return false
	}
	return document.IsSequence(pairs[0].Value) && len(pairs[0].Value.Content) == 0
}

func (s *Sanitizer) filterParameters(doc *document.Document, op *document.Operation, base string, fixes *[]Fix) {
	params := document.MappingValue(op.Node, "parameters")
	if params == nil {
		op.Node = doc.OwnOperation(*op)
		document.SetMappingValue(op.Node, "parameters", document.NewSequence())
		s.log().Debug("added empty parameters list", "path", op.Path, "method", op.Method)
		return
	}
	if params.Kind != yaml.SequenceNode {
		return
	}

	drop := make(map[int]bool)
	for i, param := range document.SequenceItems(params) {
		if s.isAPIKeyParameter(doc.Deref(param)) {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return
	}

	op.Node = doc.OwnOperation(*op)
	params = doc.Own(op.Node, "parameters")
	kept := make([]*yaml.Node, 0, len(params.Content)-len(drop))
	for i, raw := range params.Content {
		if !drop[i] {
			kept = append(kept, raw)
			continue
		}
		doc.Release(raw)
		s.record(fixes, Fix{
			Type:        FixTypeRemovedAPIKeyParameter,
			Path:        fmt.Sprintf("%s.parameters[%d]", base, i),
			Description: fmt.Sprintf("removed %s parameter; the key is carried by security scheme %s", s.APIKeyName, s.SchemeName),
			Before:      parameterSummary(document.Resolve(raw)),
		})
	}
	params.Content = kept
}

// parameterSummary describes a removed parameter without its default value.
func parameterSummary(param *yaml.Node) map[string]any {
	summary := make(map[string]any)
	for _, key := range []string{"name", "in", "$ref"} {
		if v, ok := document.ScalarString(document.MappingValue(param, key)); ok {
			summary[key] = v
		}
	}
	return summary
}

// ensureScheme adds components.securitySchemes.<SchemeName> as a query apiKey
// scheme named APIKeyName when no scheme of that name exists.
func (s *Sanitizer) ensureScheme(doc *document.Document, fixes *[]Fix) {
	root := doc.Root()
	components := document.MappingValue(root, "components")
	if components == nil {
		components = document.NewMapping()
		document.SetMappingValue(root, "components", components)
	}
	if !document.IsMapping(components) {
		return
	}
	schemes := document.MappingValue(components, "securitySchemes")
	if schemes == nil {
		schemes = document.NewMapping()
		document.SetMappingValue(components, "securitySchemes", schemes)
	}
	if !document.IsMapping(schemes) || document.HasKey(schemes, s.SchemeName) {
		return
	}

	scheme := document.NewMapping()
	document.SetMappingValue(scheme, "type", document.NewString("apiKey"))
	document.SetMappingValue(scheme, "in", document.NewString("query"))
	document.SetMappingValue(scheme, "name", document.NewString(s.APIKeyName))
	document.SetMappingValue(schemes, s.SchemeName, scheme)

	s.record(fixes, Fix{
		Type:        FixTypeAddedSecurityScheme,
		Path:        "components.securitySchemes." + s.SchemeName,
		Description: fmt.Sprintf("added apiKey security scheme %s carried in query parameter %s", s.SchemeName, s.APIKeyName),
		After:       map[string]any{"type": "apiKey", "in": "query", "name": s.APIKeyName},
	})
}
