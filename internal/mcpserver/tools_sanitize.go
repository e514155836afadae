package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moenvlab/oaskeyguard/internal/eventlog"
	"github.com/moenvlab/oaskeyguard/sanitizer"
)

type sanitizeInput struct {
	Spec            specInput `json:"spec"                       jsonschema:"The OpenAPI document to sanitize"`
	Scheme          string    `json:"scheme,omitempty"           jsonschema:"Security scheme name for the injected requirement (default ApiKeyAuth)"`
	APIKeyName      string    `json:"api_key_name,omitempty"     jsonschema:"Parameter and property name that carries the API key (default api_key)"`
	QuoteAll        bool      `json:"quote_all,omitempty"        jsonschema:"Quote any numeric status code opening a flow-style responses mapping"`
	EnabledFixes    []string  `json:"enabled_fixes,omitempty"    jsonschema:"Fix types to apply (default all): quoted-response-key\\, scrubbed-api-key-default\\, injected-security\\, removed-api-key-parameter"`
	EnsureScheme    bool      `json:"ensure_scheme,omitempty"    jsonschema:"Add the security scheme under components.securitySchemes when it is missing"`
	DryRun          bool      `json:"dry_run,omitempty"          jsonschema:"Preview fixes without writing or returning the document"`
	Output          string    `json:"output,omitempty"           jsonschema:"File path to write the sanitized document. Use the input file path to sanitize in place."`
	IncludeDocument bool      `json:"include_document,omitempty" jsonschema:"Include the sanitized document in output"`
	Offset          int       `json:"offset,omitempty"           jsonschema:"Skip the first N fixes (for pagination)"`
	Limit           int       `json:"limit,omitempty"            jsonschema:"Maximum number of fixes to return (default 100)"`
}

type fixApplied struct {
	Type        string `json:"type"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

type sanitizeOutput struct {
	FixCount       int            `json:"fix_count"`
	Returned       int            `json:"returned"`
	Fixes          []fixApplied   `json:"fixes,omitempty"`
	Counts         map[string]int `json:"counts,omitempty"`
	PathCount      int            `json:"path_count"`
	OperationCount int            `json:"operation_count"`
	WrittenTo      string         `json:"written_to,omitempty"`
	Document       string         `json:"document,omitempty"`
}

func (ts *toolServer) handleSanitize(_ context.Context, _ *mcp.CallToolRequest, input sanitizeInput) (*mcp.CallToolResult, sanitizeOutput, error) {
	var opts []sanitizer.Option
	if len(input.EnabledFixes) > 0 {
		fixes := make([]sanitizer.FixType, 0, len(input.EnabledFixes))
		for _, f := range input.EnabledFixes {
			fixes = append(fixes, sanitizer.FixType(f))
		}
		opts = append(opts, sanitizer.WithEnabledFixes(fixes...))
	}
	if input.EnsureScheme {
		opts = append(opts, sanitizer.WithEnsureScheme(true))
	}

	var pending *eventlog.Pending
	if !input.DryRun && ts.cfg.FullLog {
		pending = &eventlog.Pending{}
		opts = append(opts, sanitizer.WithEventSink(pending))
	}

	result, err := ts.run(input.Spec, pipelineOptions{scheme: input.Scheme, apiKeyName: input.APIKeyName, quoteAll: input.QuoteAll}, opts...)
	if err != nil {
		return errResult(err), sanitizeOutput{}, nil
	}

	output := sanitizeOutput{
		FixCount:       result.FixCount,
		PathCount:      result.Stats.PathCount,
		OperationCount: result.Stats.OperationCount,
	}

	output.Fixes = makeSlice[fixApplied](len(result.Fixes))
	for _, f := range result.Fixes {
		output.Fixes = append(output.Fixes, fixApplied{
			Type:        string(f.Type),
			Path:        f.Path,
			Description: f.Description,
		})
	}
	if counts := result.CountByType(); len(counts) > 0 {
		output.Counts = make(map[string]int, len(counts))
		for ft, n := range counts {
			output.Counts[string(ft)] = n
		}
	}

	output.Fixes = paginate(output.Fixes, input.Offset, input.Limit)
	output.Returned = len(output.Fixes)

	if input.DryRun {
		return nil, output, nil
	}

	if input.Output != "" {
		if err := result.WriteTo(input.Output); err != nil {
			return errResult(fmt.Errorf("failed to write output file: %w", err)), sanitizeOutput{}, nil
		}
		output.WrittenTo = input.Output
	}
	if input.IncludeDocument || (input.Spec.Content != "" && input.Output == "") {
		data, err := result.Bytes()
		if err != nil {
			return errResult(err), sanitizeOutput{}, nil
		}
		output.Document = string(data)
	}
	if err := ts.flushEvents(input.Spec, pending); err != nil {
		return errResult(fmt.Errorf("failed to record fixes: %w", err)), sanitizeOutput{}, nil
	}

	return nil, output, nil
}
