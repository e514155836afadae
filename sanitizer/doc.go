// Package sanitizer patches third-party OpenAPI documents so that a generic
// OpenAPI-to-tool loader can consume them safely.
//
// # Quick Start
//
// Sanitize a file using functional options:
//
//	result, err := sanitizer.SanitizeWithOptions(
//		sanitizer.WithFilePath("moenv_openapi.yaml"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := result.WriteTo("moenv_openapi.yaml"); err != nil {
//		log.Fatal(err)
//	}
//
// Or use a reusable Sanitizer instance:
//
//	s := sanitizer.New()
//	s.SchemeName = "MoenvKey"
//	result, _ := s.Sanitize("moenv_openapi.yaml")
//
// # Passes
//
// The pipeline runs three passes in a fixed order:
//
//   - Response-Key Quoter (raw text): rewrites `responses: { 200: { description: OK } }`
//     to `responses: { '200': { description: OK } }`. With QuoteAll, any numeric key
//     opening a flow-style responses mapping is quoted.
//   - Default-Value Scrubber (tree, every method): deletes the "default" of every
//     parameter named api_key and of every requestBody schema property api_key.
//   - Security Normalizer (tree, GET only): sets security to [{ApiKeyAuth: []}] and
//     drops api_key from the parameters list.
//
// Every pass is idempotent. Missing structure is never an error: an operation
// without parameters or requestBody passes through, and values that are not
// shaped as expected are left untouched.
//
// Each change is reported as a [Fix]. Scrubbed key values are never copied
// into fix records.
package sanitizer
