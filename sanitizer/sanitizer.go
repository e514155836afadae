package sanitizer

import (
	"fmt"
	"os"
	"slices"

	"github.com/moenvlab/oaskeyguard/document"
	"github.com/moenvlab/oaskeyguard/oaserrors"
)

// Defaults match the MOENV open-data API.
const (
	// DefaultTargetMethod is the method whose operations receive a security requirement.
	DefaultTargetMethod = "get"
	// DefaultSchemeName is the security scheme referenced by injected requirements.
	DefaultSchemeName = "ApiKeyAuth"
	// DefaultAPIKeyName is the parameter and property name carrying the API key.
	DefaultAPIKeyName = "api_key"
)

// FixType identifies the type of fix applied
type FixType string

const (
	// FixTypeQuotedResponseKey indicates an unquoted numeric response key was quoted in the raw text
	FixTypeQuotedResponseKey FixType = "quoted-response-key"
	// FixTypeScrubbedDefault indicates a hardcoded API key default was removed
	FixTypeScrubbedDefault FixType = "scrubbed-api-key-default"
	// FixTypeInjectedSecurity indicates an operation's security requirement was set
	FixTypeInjectedSecurity FixType = "injected-security"
	// FixTypeRemovedAPIKeyParameter indicates an explicit API key parameter was removed
	FixTypeRemovedAPIKeyParameter FixType = "removed-api-key-parameter"
	// FixTypeAddedSecurityScheme indicates a missing security scheme definition was added
	FixTypeAddedSecurityScheme FixType = "added-security-scheme"
)

// AllFixTypes lists every fix type in pipeline order.
var AllFixTypes = []FixType{
	FixTypeQuotedResponseKey,
	FixTypeScrubbedDefault,
	FixTypeInjectedSecurity,
	FixTypeRemovedAPIKeyParameter,
	FixTypeAddedSecurityScheme,
}

// Fix represents a single change made to the document
type Fix struct {
	// Type identifies the category of fix
	Type FixType `json:"type"`
	// Path is the location of the change (e.g., "paths./aqx_p_10.get.parameters[0]"),
	// or "line N" for text-level fixes
	Path string `json:"path"`
	// Description is a human-readable description of the fix
	Description string `json:"description"`
	// Before is the state before the fix (nil if adding a new element)
	Before any `json:"before,omitempty"`
	// After is the value that was added or changed (nil if removing)
	After any `json:"after,omitempty"`
}

// Result contains the results of a sanitize operation
type Result struct {
	// Document is the sanitized document
	Document *document.Document
	// SourcePath is the path or identifier the document was read from
	SourcePath string
	// Fixes contains all fixes applied, in the order they were made
	Fixes []Fix
	// FixCount is the total number of fixes applied
	FixCount int
	// Stats contains counts about the sanitized document
	Stats document.Stats
}

// HasFixes returns true if any fixes were applied
func (r *Result) HasFixes() bool {
	return r.FixCount > 0
}

// Bytes serializes the sanitized document.
func (r *Result) Bytes() ([]byte, error) {
	return r.Document.Bytes()
}

// WriteTo replaces the file at path with the sanitized document.
func (r *Result) WriteTo(path string) error {
	return r.Document.Save(path)
}

// CountByType returns how many fixes of each type were applied.
func (r *Result) CountByType() map[FixType]int {
	counts := make(map[FixType]int)
	for _, f := range r.Fixes {
		counts[f.Type]++
	}
	return counts
}

// EventSink receives every fix as it is applied. internal/eventlog provides a
// JSON lines implementation.
type EventSink interface {
	Record(fix Fix) error
}

// Sanitizer applies the sanitization passes to OpenAPI documents
type Sanitizer struct {
	// TargetMethod selects the operations that receive a security requirement.
	// Matching is exact and case-sensitive.
	TargetMethod string
	// SchemeName is the security scheme referenced by the injected requirement.
	SchemeName string
	// APIKeyName is the parameter/property name that carries the API key.
	APIKeyName string
	// QuoteAll quotes any numeric key opening a flow-style responses mapping,
	// instead of only the literal `responses: { 200: { description: OK } }`.
	QuoteAll bool
	// EnsureScheme adds an apiKey scheme named SchemeName under
	// components.securitySchemes when it is missing.
	EnsureScheme bool
	// EnabledFixes specifies which fix types to apply.
	// If nil or empty, all fix types are enabled except FixTypeAddedSecurityScheme,
	// which is controlled by EnsureScheme.
	EnabledFixes []FixType
	// Logger receives one record per fix. Defaults to NopLogger.
	Logger Logger
	// Events, when set, persists every fix.
	Events EventSink
}

// New creates a new Sanitizer with the default names and all fixes enabled
func New() *Sanitizer {
	return &Sanitizer{
		TargetMethod: DefaultTargetMethod,
		SchemeName:   DefaultSchemeName,
		APIKeyName:   DefaultAPIKeyName,
	}
}

func (s *Sanitizer) log() Logger {
	if s.Logger == nil {
		return NopLogger{}
	}
	return s.Logger
}

func (s *Sanitizer) isFixEnabled(ft FixType) bool {
	if ft == FixTypeAddedSecurityScheme && !s.EnsureScheme {
		return false
	}
	if len(s.EnabledFixes) == 0 {
		return true
	}
	return slices.Contains(s.EnabledFixes, ft)
}

// record appends a fix to the result and reports it to the logger and event sink.
func (s *Sanitizer) record(fixes *[]Fix, fix Fix) {
	*fixes = append(*fixes, fix)
	s.log().Info("applied fix", "type", string(fix.Type), "path", fix.Path, "description", fix.Description)
	if s.Events != nil {
		if err := s.Events.Record(fix); err != nil {
			s.log().Warn("recording fix event failed", "path", fix.Path, "error", err)
		}
	}
}

// Sanitize reads the file at path and runs the full pipeline on it.
// The file itself is not modified; use Result.WriteTo to persist the result.
func (s *Sanitizer) Sanitize(path string) (*Result, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is caller supplied by design
	if err != nil {
		return nil, fmt.Errorf("sanitizer: reading %s: %w", path, err)
	}
	return s.SanitizeBytes(data, path)
}

// SanitizeBytes runs the full pipeline on raw document text.
//
// The Response-Key Quoter runs on the text first, since the malformed
// shorthand may keep strict decoders from parsing it. The decoded tree is then
// scrubbed and normalized.
func (s *Sanitizer) SanitizeBytes(data []byte, source string) (*Result, error) {
	var fixes []Fix
	text := string(data)
	if s.isFixEnabled(FixTypeQuotedResponseKey) {
		text = s.quoteResponseKeys(text, &fixes)
	}

	doc, err := document.Parse([]byte(text), source)
	if err != nil {
		return nil, fmt.Errorf("sanitizer: %w", err)
	}

	result := s.SanitizeDocument(doc)
	result.Fixes = append(fixes, result.Fixes...)
	result.FixCount = len(result.Fixes)
	return result, nil
}

// SanitizeDocument runs the tree passes on an already parsed document,
// mutating it in place: the Default-Value Scrubber, then the Security Normalizer.
func (s *Sanitizer) SanitizeDocument(doc *document.Document) *Result {
	var fixes []Fix
	s.scrub(doc, &fixes)
	s.normalize(doc, &fixes)

	return &Result{
		Document:   doc,
		SourcePath: doc.Source(),
		Fixes:      fixes,
		FixCount:   len(fixes),
		Stats:      doc.Stats(),
	}
}

// Normalize runs only the Security Normalizer and returns the fixes it made.
func (s *Sanitizer) Normalize(doc *document.Document) []Fix {
	var fixes []Fix
	s.normalize(doc, &fixes)
	return fixes
}

// Scrub runs only the Default-Value Scrubber and returns the fixes it made.
func (s *Sanitizer) Scrub(doc *document.Document) []Fix {
	var fixes []Fix
	s.scrub(doc, &fixes)
	return fixes
}

// QuoteResponseKeys runs only the Response-Key Quoter on raw text.
func (s *Sanitizer) QuoteResponseKeys(text string) (string, []Fix) {
	var fixes []Fix
	if !s.isFixEnabled(FixTypeQuotedResponseKey) {
		return text, nil
	}
	out := s.quoteResponseKeys(text, &fixes)
	return out, fixes
}

// Option is a function that configures a sanitize operation
type Option func(*sanitizeConfig) error

// sanitizeConfig holds configuration for a sanitize operation
type sanitizeConfig struct {
	// Input source (exactly one must be set)
	filePath *string
	data     []byte
	source   string

	targetMethod string
	schemeName   string
	apiKeyName   string
	quoteAll     bool
	ensureScheme bool
	enabledFixes []FixType
	logger       Logger
	events       EventSink
}

// SanitizeWithOptions sanitizes an OpenAPI document using functional options.
//
// Example:
//
//	result, err := sanitizer.SanitizeWithOptions(
//	    sanitizer.WithFilePath("moenv_openapi.yaml"),
//	    sanitizer.WithSchemeName("ApiKeyAuth"),
//	)
func SanitizeWithOptions(opts ...Option) (*Result, error) {
	cfg, err := applyOptions(opts...)
	if err == nil {
		err = cfg.validateSource()
	}
	if err != nil {
		return nil, fmt.Errorf("sanitizer: invalid options: %w", err)
	}

	s := cfg.sanitizer()
	if cfg.filePath != nil {
		return s.Sanitize(*cfg.filePath)
	}
	return s.SanitizeBytes(cfg.data, cfg.source)
}

// NewWithOptions builds a Sanitizer from options for running single passes.
// Input options (WithFilePath, WithBytes) are accepted and ignored.
func NewWithOptions(opts ...Option) (*Sanitizer, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("sanitizer: invalid options: %w", err)
	}
	return cfg.sanitizer(), nil
}

func (cfg *sanitizeConfig) sanitizer() *Sanitizer {
	return &Sanitizer{
		TargetMethod: cfg.targetMethod,
		SchemeName:   cfg.schemeName,
		APIKeyName:   cfg.apiKeyName,
		QuoteAll:     cfg.quoteAll,
		EnsureScheme: cfg.ensureScheme,
		EnabledFixes: cfg.enabledFixes,
		Logger:       cfg.logger,
		Events:       cfg.events,
	}
}

// applyOptions applies option functions and validates configuration
func applyOptions(opts ...Option) (*sanitizeConfig, error) {
	cfg := &sanitizeConfig{
		targetMethod: DefaultTargetMethod,
		schemeName:   DefaultSchemeName,
		apiKeyName:   DefaultAPIKeyName,
		source:       "<bytes>",
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// validateSource checks that exactly one input source was given.
func (cfg *sanitizeConfig) validateSource() error {
	sources := 0
	if cfg.filePath != nil {
		sources++
	}
	if cfg.data != nil {
		sources++
	}
	if sources == 0 {
		return &oaserrors.ConfigError{Option: "input", Message: "no input source specified: use WithFilePath or WithBytes"}
	}
	if sources > 1 {
		return &oaserrors.ConfigError{Option: "input", Message: "multiple input sources specified: use only one of WithFilePath or WithBytes"}
	}
	return nil
}

// WithFilePath specifies the file to sanitize
func WithFilePath(path string) Option {
	return func(cfg *sanitizeConfig) error {
		if path == "" {
			return &oaserrors.ConfigError{Option: "file path", Message: "cannot be empty"}
		}
		cfg.filePath = &path
		return nil
	}
}

// WithBytes specifies raw document text to sanitize. The source names it in errors.
func WithBytes(data []byte, source string) Option {
	return func(cfg *sanitizeConfig) error {
		if data == nil {
			data = []byte{}
		}
		cfg.data = data
		if source != "" {
			cfg.source = source
		}
		return nil
	}
}

// WithTargetMethod selects the operations that receive a security requirement
func WithTargetMethod(method string) Option {
	return func(cfg *sanitizeConfig) error {
		if !document.IsOperationKey(method) {
			return &oaserrors.ConfigError{
				Option:  "target method",
				Value:   method,
				Message: "must be a lowercase HTTP method key",
			}
		}
		cfg.targetMethod = method
		return nil
	}
}

// WithSchemeName sets the security scheme referenced by injected requirements
func WithSchemeName(name string) Option {
	return func(cfg *sanitizeConfig) error {
		if name == "" {
			return &oaserrors.ConfigError{Option: "scheme name", Message: "cannot be empty"}
		}
		cfg.schemeName = name
		return nil
	}
}

// WithAPIKeyName sets the parameter/property name carrying the API key
func WithAPIKeyName(name string) Option {
	return func(cfg *sanitizeConfig) error {
		if name == "" {
			return &oaserrors.ConfigError{Option: "api key name", Message: "cannot be empty"}
		}
		cfg.apiKeyName = name
		return nil
	}
}

// WithQuoteAll enables quoting of any numeric flow-style response key
func WithQuoteAll(enabled bool) Option {
	return func(cfg *sanitizeConfig) error {
		cfg.quoteAll = enabled
		return nil
	}
}

// WithEnsureScheme enables adding a missing security scheme definition
func WithEnsureScheme(enabled bool) Option {
	return func(cfg *sanitizeConfig) error {
		cfg.ensureScheme = enabled
		return nil
	}
}

// WithEnabledFixes specifies which fix types to apply
func WithEnabledFixes(fixes ...FixType) Option {
	return func(cfg *sanitizeConfig) error {
		for _, f := range fixes {
			if !slices.Contains(AllFixTypes, f) {
				return &oaserrors.ConfigError{Option: "enabled fixes", Value: string(f), Message: "unknown fix type"}
			}
		}
		cfg.enabledFixes = fixes
		return nil
	}
}

// WithLogger sets the logger that receives one record per fix
func WithLogger(l Logger) Option {
	return func(cfg *sanitizeConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithEventSink sets a sink that persists every fix
func WithEventSink(sink EventSink) Option {
	return func(cfg *sanitizeConfig) error {
		cfg.events = sink
		return nil
	}
}
