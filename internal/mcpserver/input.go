package mcpserver

import (
	"fmt"

	"github.com/moenvlab/oaskeyguard/internal/eventlog"
	"github.com/moenvlab/oaskeyguard/sanitizer"
)

// specInput represents the two ways a document can be provided to a tool.
// Exactly one of File or Content must be set.
type specInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to an OpenAPI file on disk"`
	Content string `json:"content,omitempty" jsonschema:"Inline OpenAPI document content (JSON or YAML)"`
}

// pipelineOptions holds the naming options shared by sanitize and list_tools.
type pipelineOptions struct {
	scheme     string
	apiKeyName string
	quoteAll   bool
}

// source returns the sanitizer option for whichever input was provided.
func (s specInput) source(maxInline int64) (sanitizer.Option, error) {
	switch {
	case s.File != "" && s.Content != "":
		return nil, fmt.Errorf("exactly one of file or content must be provided (got 2)")
	case s.File != "":
		return sanitizer.WithFilePath(s.File), nil
	case s.Content != "":
		if maxInline > 0 && int64(len(s.Content)) > maxInline {
			return nil, fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set OASKEYGUARD_MAX_INLINE_SIZE to increase",
				len(s.Content), maxInline)
		}
		return sanitizer.WithBytes([]byte(s.Content), "<content>"), nil
	default:
		return nil, fmt.Errorf("exactly one of file or content must be provided (got 0)")
	}
}

// options translates the shared naming input into sanitizer options.
func (p pipelineOptions) options() []sanitizer.Option {
	var opts []sanitizer.Option
	if p.scheme != "" {
		opts = append(opts, sanitizer.WithSchemeName(p.scheme))
	}
	if p.apiKeyName != "" {
		opts = append(opts, sanitizer.WithAPIKeyName(p.apiKeyName))
	}
	if p.quoteAll {
		opts = append(opts, sanitizer.WithQuoteAll(true))
	}
	return opts
}

// run sanitizes the document with the server's logging.
func (ts *toolServer) run(spec specInput, p pipelineOptions, extra ...sanitizer.Option) (*sanitizer.Result, error) {
	src, err := spec.source(ts.cfg.MaxInlineSize)
	if err != nil {
		return nil, err
	}
	opts := append([]sanitizer.Option{src}, p.options()...)
	opts = append(opts, extra...)
	if ts.logger != nil {
		opts = append(opts, sanitizer.WithLogger(sanitizer.NewSlogAdapter(ts.logger)))
	}
	return sanitizer.SanitizeWithOptions(opts...)
}

// flushEvents appends the held fixes to the fix log. It is called once the
// sanitized document has been written or returned.
func (ts *toolServer) flushEvents(spec specInput, pending *eventlog.Pending) error {
	if pending == nil || pending.Len() == 0 {
		return nil
	}
	events, err := eventlog.Open(ts.cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = events.Close() }()
	name := spec.File
	if name == "" {
		name = "<content>"
	}
	return pending.Flush(events.ForSource(name))
}
