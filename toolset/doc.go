// Package toolset derives tool descriptors from a sanitized OpenAPI document.
//
// Each operation becomes one [Operation] named after its operationId in
// snake_case. [ResolveCarrier] reports where the API key travels according to
// components.securitySchemes, and [CredentialFromEnv] reads the key itself so
// that it never has to live in the document.
//
//	doc, _ := document.Load("moenv_openapi.yaml")
//	for _, op := range toolset.Operations(doc) {
//		fmt.Println(op.Name, op.Method, op.Path)
//	}
package toolset
