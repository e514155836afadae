// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes the oaskeyguard pipeline as MCP tools over stdio.
package mcpserver

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moenvlab/oaskeyguard"
	"github.com/moenvlab/oaskeyguard/internal/config"
)

const serverInstructions = `oaskeyguard MCP server: removes hardcoded API keys from OpenAPI documents and moves authentication to a security scheme.

Tools:
- sanitize: quote flow-style response keys, scrub api_key defaults, and inject the ApiKeyAuth requirement on GET operations. Use dry_run=true to preview fixes.
- quote_response_keys: text-level quoting of unquoted status codes in flow-style responses mappings.
- list_tools: one tool descriptor per operation of the sanitized document, with the API key carrier.

Configuration comes from the environment: MOENV_API_KEY holds the data-platform key (it is never written to documents), OASKEYGUARD_FULL_LOG and OASKEYGUARD_LOG_FILE enable a JSON-lines log of every fix, OASKEYGUARD_MAX_INLINE_SIZE caps inline content.`

// toolServer holds the configuration shared by all tool handlers.
type toolServer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "oaskeyguard", Version: oaskeyguard.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server, &toolServer{cfg: cfg, logger: logger})
	logStartup(logger, cfg)
	return server.Run(ctx, &mcp.StdioTransport{})
}

// logStartup reports the version and the model routing configured for the
// agent that consumes the tools. The model provider key is never logged.
func logStartup(logger *slog.Logger, cfg *config.Config) {
	logger.Info("mcp server starting", "version", oaskeyguard.Version())
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = "(provider default)"
	}
	logger.Info("using LiteLLM model",
		"model", cfg.ModelName,
		"api_base", apiBase,
		"api_key", secretState(cfg.APIKey),
	)
}

func secretState(v string) string {
	if v == "" {
		return "(not set)"
	}
	return "(set)"
}

func registerAllTools(server *mcp.Server, ts *toolServer) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "sanitize",
		Description: "Sanitize an OpenAPI document for tool generation. Quotes the unquoted 200 key of flow-style responses mappings, removes hardcoded default values of api_key parameters and request body properties, sets security to [{ApiKeyAuth: []}] on every GET operation, and drops the api_key query parameter from GET operations. Use dry_run=true to preview fixes. Use output to write to a file, or include_document to return the result inline. Inline content always returns the document unless dry_run is set.",
	}, ts.handleSanitize)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quote_response_keys",
		Description: "Quote unquoted numeric status codes in flow-style responses mappings, working on raw text so the document does not have to parse first. By default only the literal `responses: { 200: { description: OK } }` is rewritten; set quote_all=true to quote any status code.",
	}, ts.handleQuoteResponseKeys)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tools",
		Description: "Sanitize an OpenAPI document and list one tool descriptor per operation: snake_case name, method, path, summary, parameters, and security scheme names. Also reports where the API key is carried (query, header, or cookie) and whether the data-platform key is configured. Use offset/limit to paginate.",
	}, ts.handleListTools)
}

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// paginate applies offset/limit pagination to a slice, returning the
// requested page. A non-positive limit defaults to defaultLimit.
func paginate[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end < offset || end > len(items) { // overflow or beyond slice
		end = len(items)
	}
	return items[offset:end]
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
