// Package oaskeyguard prepares third-party OpenAPI documents for automated tool loading.
//
// Government open-data APIs often publish specifications that a generic
// OpenAPI-to-tool loader cannot consume as-is: numeric response keys written in
// flow style, API keys declared as plain query parameters instead of a security
// scheme, and real API keys left behind as parameter defaults. oaskeyguard
// repairs these issues with a small set of idempotent passes.
//
// # Packages
//
//   - document: Load and save OpenAPI documents as order-preserving YAML trees
//   - sanitizer: Quote response keys, scrub API-key defaults, inject security requirements
//   - toolset: Derive one tool descriptor per operation from a sanitized document
//   - oaserrors: Structured error types for errors.Is and errors.As
//
// # Quick Start
//
//	result, err := sanitizer.SanitizeWithOptions(
//		sanitizer.WithFilePath("moenv_openapi.yaml"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Applied %d fixes\n", result.FixCount)
//	if err := result.WriteTo("moenv_openapi.yaml"); err != nil {
//		log.Fatal(err)
//	}
//
// The command line tool wraps the same pipeline:
//
//	oaskeyguard sanitize --in-place moenv_openapi.yaml
//	oaskeyguard tools moenv_openapi.yaml
package oaskeyguard
