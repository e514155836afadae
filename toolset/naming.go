package toolset

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// ToolName converts an operationId or path into a snake_case tool name.
// Word boundaries are separators, lower-to-upper transitions, and the last
// capital of an acronym followed by a lowercase letter.
// Example: "getUserByID" -> "get_user_by_id"
// Example: "APIClient" -> "api_client"
func ToolName(s string) string {
	var words []string
	var word []rune
	flush := func() {
		if len(word) > 0 {
			words = append(words, lower.String(string(word)))
			word = word[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(word) > 0 {
			prev := word[len(word)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				flush()
			}
		}
		word = append(word, r)
	}
	flush()
	return strings.Join(words, "_")
}

// fallbackName names an operation without an operationId.
func fallbackName(method, path string) string {
	return ToolName(method + "_" + path)
}
