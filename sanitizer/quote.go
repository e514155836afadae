package sanitizer

import (
	"fmt"
	"regexp"
	"strings"
)

// The shorthand published in the MOENV specification and its quoted form.
const (
	malformedResponses = "responses: { 200: { description: OK } }"
	quotedResponses    = "responses: { '200': { description: OK } }"
)

// flowResponseKeyRe matches a bare numeric key opening a flow-style responses mapping.
var flowResponseKeyRe = regexp.MustCompile(`responses: \{ (\d+):`)

// QuoteResponseKeys rewrites every occurrence of the literal
// `responses: { 200: { description: OK } }` to
// `responses: { '200': { description: OK } }`. Text without that fragment is
// returned unchanged, so the function is idempotent.
func QuoteResponseKeys(text string) string {
	return strings.ReplaceAll(text, malformedResponses, quotedResponses)
}

// QuoteAllResponseKeys quotes the numeric key that opens any flow-style
// responses mapping, e.g. `responses: { 404: ...` becomes
// `responses: { '404': ...`. Surrounding whitespace and structure are kept.
// Already-quoted keys do not match, so the function is idempotent.
func QuoteAllResponseKeys(text string) string {
	return flowResponseKeyRe.ReplaceAllString(text, "responses: { '$1':")
}

// quoteResponseKeys applies the configured quoting and records one fix per rewrite.
func (s *Sanitizer) quoteResponseKeys(text string, fixes *[]Fix) string {
	if s.QuoteAll {
		for _, m := range flowResponseKeyRe.FindAllStringSubmatchIndex(text, -1) {
			code := text[m[2]:m[3]]
			s.record(fixes, Fix{
				Type:        FixTypeQuotedResponseKey,
				Path:        fmt.Sprintf("line %d", lineAt(text, m[0])),
				Description: fmt.Sprintf("quoted response status key %s", code),
				Before:      text[m[0]:m[1]],
				After:       fmt.Sprintf("responses: { '%s':", code),
			})
		}
		return QuoteAllResponseKeys(text)
	}

	for offset := 0; ; {
		i := strings.Index(text[offset:], malformedResponses)
		if i < 0 {
			break
		}
		s.record(fixes, Fix{
			Type:        FixTypeQuotedResponseKey,
			Path:        fmt.Sprintf("line %d", lineAt(text, offset+i)),
			Description: "quoted response status key 200",
			Before:      malformedResponses,
			After:       quotedResponses,
		})
		offset += i + len(malformedResponses)
	}
	return QuoteResponseKeys(text)
}

// lineAt returns the 1-based line number of byte offset i.
func lineAt(text string, i int) int {
	return strings.Count(text[:i], "\n") + 1
}
