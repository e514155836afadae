package toolset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty string", input: "", want: ""},
		{name: "already snake case", input: "aqx_p_10", want: "aqx_p_10"},
		{name: "camelCase", input: "getUserById", want: "get_user_by_id"},
		{name: "trailing acronym", input: "getUserByID", want: "get_user_by_id"},
		{name: "leading acronym", input: "APIClient", want: "api_client"},
		{name: "kebab case", input: "list-air-quality", want: "list_air_quality"},
		{name: "path with template", input: "get_/users/{id}", want: "get_users_id"},
		{name: "digit then upper", input: "v2Client", want: "v2_client"},
		{name: "only separators", input: "/-_", want: ""},
		{name: "unicode letters", input: "Über_User", want: "über_user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToolName(tt.input))
		})
	}
}

func TestFallbackName(t *testing.T) {
	assert.Equal(t, "post_eedu_p_10", fallbackName("post", "/eedu_p_10"))
}
