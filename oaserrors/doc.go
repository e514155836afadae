// Package oaserrors provides structured error types for oaskeyguard.
//
// The sanitization passes themselves never fail: missing or oddly shaped
// structure is passed through unchanged. Errors only arise at the edges of the
// pipeline, when text is decoded, when a document is written back, and when
// required configuration is absent.
//
// # Error Types
//
//   - [ParseError]: the document text is not valid YAML/JSON or has no mapping root
//   - [WriteError]: the sanitized document could not be persisted
//   - [ConfigError]: invalid options or a missing credential environment variable
//
// # Sentinel Errors
//
// Each error type has a corresponding sentinel error for use with errors.Is():
//
//   - [ErrParse]: Matches any [ParseError]
//   - [ErrWrite]: Matches any [WriteError]
//   - [ErrConfig]: Matches any [ConfigError]
//
// # Usage Examples
//
//	doc, err := document.Load("moenv_openapi.yaml")
//	if errors.Is(err, oaserrors.ErrParse) {
//	    // Try sanitizer.QuoteResponseKeys on the raw text and parse again
//	}
//
//	var cfgErr *oaserrors.ConfigError
//	if errors.As(err, &cfgErr) {
//	    fmt.Printf("set %s before starting\n", cfgErr.Option)
//	}
package oaserrors
