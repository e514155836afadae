package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moenvlab/oaskeyguard/sanitizer"
)

type quoteInput struct {
	Content  string `json:"content"             jsonschema:"Raw OpenAPI text"`
	QuoteAll bool   `json:"quote_all,omitempty" jsonschema:"Quote any numeric status code instead of only the literal 200 case"`
}

type quoteOutput struct {
	Changed  bool     `json:"changed"`
	FixCount int      `json:"fix_count"`
	Lines    []string `json:"lines,omitempty"`
	Content  string   `json:"content"`
}

func (ts *toolServer) handleQuoteResponseKeys(_ context.Context, _ *mcp.CallToolRequest, input quoteInput) (*mcp.CallToolResult, quoteOutput, error) {
	if input.Content == "" {
		return errResult(fmt.Errorf("content is required")), quoteOutput{}, nil
	}
	if limit := ts.cfg.MaxInlineSize; limit > 0 && int64(len(input.Content)) > limit {
		return errResult(fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes", len(input.Content), limit)), quoteOutput{}, nil
	}

	s := sanitizer.New()
	s.QuoteAll = input.QuoteAll
	text, fixes := s.QuoteResponseKeys(input.Content)

	output := quoteOutput{
		Changed:  text != input.Content,
		FixCount: len(fixes),
		Lines:    makeSlice[string](len(fixes)),
		Content:  text,
	}
	for _, f := range fixes {
		output.Lines = append(output.Lines, f.Path)
	}
	return nil, output, nil
}
