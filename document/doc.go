// Package document loads and saves OpenAPI documents as order-preserving YAML trees.
//
// The sanitizer does not model Operations or Parameters as Go types. A third-party
// specification may carry keys no schema anticipates, and every one of them must
// survive a load/save cycle untouched. Instead the whole document is kept as a
// [go.yaml.in/yaml/v4] node tree and passes match on the presence of keys.
//
// # Loading and saving
//
//	doc, err := document.Load("moenv_openapi.yaml")
//	if err != nil {
//		return err // *oaserrors.ParseError
//	}
//	// ... mutate doc.Root() ...
//	if err := doc.Save("moenv_openapi.yaml"); err != nil {
//		return err // *oaserrors.WriteError
//	}
//
// Save writes a temporary file next to the destination and renames it into
// place, so an interrupted write never leaves a truncated specification.
//
// # Tree helpers
//
// [MappingValue], [SetMappingValue], and [DeleteMappingKey] operate on mapping
// nodes without disturbing key order. [Document.Operations] lists every
// method entry under paths.
package document
