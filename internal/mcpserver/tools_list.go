package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moenvlab/oaskeyguard/sanitizer"
	"github.com/moenvlab/oaskeyguard/toolset"
)

type listToolsInput struct {
	Spec       specInput `json:"spec"                   jsonschema:"The OpenAPI document to describe"`
	Scheme     string    `json:"scheme,omitempty"       jsonschema:"Security scheme name (default ApiKeyAuth)"`
	APIKeyName string    `json:"api_key_name,omitempty" jsonschema:"Parameter and property name that carries the API key (default api_key)"`
	QuoteAll   bool      `json:"quote_all,omitempty"    jsonschema:"Quote any numeric status code opening a flow-style responses mapping"`
	Offset     int       `json:"offset,omitempty"       jsonschema:"Skip the first N tools (for pagination)"`
	Limit      int       `json:"limit,omitempty"        jsonschema:"Maximum number of tools to return (default 100)"`
}

type listToolsOutput struct {
	Total    int                 `json:"total"`
	Returned int                 `json:"returned"`
	Tools    []toolset.Operation `json:"tools,omitempty"`
	Carrier  *toolset.Carrier    `json:"carrier,omitempty"`
	// Credential is the masked data-platform key, or empty when unset.
	Credential string `json:"credential,omitempty"`
}

func (ts *toolServer) handleListTools(_ context.Context, _ *mcp.CallToolRequest, input listToolsInput) (*mcp.CallToolResult, listToolsOutput, error) {
	opts := pipelineOptions{scheme: input.Scheme, apiKeyName: input.APIKeyName, quoteAll: input.QuoteAll}
	result, err := ts.run(input.Spec, opts)
	if err != nil {
		return errResult(err), listToolsOutput{}, nil
	}

	ops := toolset.Operations(result.Document)
	output := listToolsOutput{Total: len(ops)}
	output.Tools = paginate(ops, input.Offset, input.Limit)
	output.Returned = len(output.Tools)

	scheme := input.Scheme
	if scheme == "" {
		scheme = sanitizer.DefaultSchemeName
	}
	if carrier, ok := toolset.ResolveCarrier(result.Document, scheme); ok {
		output.Carrier = &carrier
	}
	if cred, err := toolset.CredentialFromEnv(ts.cfg.DataKeyEnv); err == nil {
		output.Credential = cred.String()
	}

	return nil, output, nil
}
