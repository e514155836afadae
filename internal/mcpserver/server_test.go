package mcpserver

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moenvlab/oaskeyguard/internal/config"
)

func TestPaginate(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}

	tests := []struct {
		name   string
		items  []int
		offset int
		limit  int
		want   []int
	}{
		{name: "default limit returns all when under 100", items: items, offset: 0, limit: 0, want: []int{0, 1, 2, 3, 4}},
		{name: "explicit limit", items: items, offset: 0, limit: 2, want: []int{0, 1}},
		{name: "offset only", items: items, offset: 2, limit: 0, want: []int{2, 3, 4}},
		{name: "offset and limit", items: items, offset: 1, limit: 2, want: []int{1, 2}},
		{name: "offset beyond end", items: items, offset: 5, limit: 2, want: nil},
		{name: "negative offset", items: items, offset: -1, limit: 2, want: nil},
		{name: "nil slice", items: nil, offset: 0, limit: 2, want: nil},
		{name: "negative limit treated as default", items: items, offset: 0, limit: -1, want: []int{0, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paginate(tt.items, tt.offset, tt.limit))
		})
	}
}

func TestPaginate_Limits(t *testing.T) {
	items := make([]int, 1500)
	for i := range items {
		items[i] = i
	}

	assert.Len(t, paginate(items, 0, 0), defaultLimit)
	assert.Len(t, paginate(items, 0, 1500), maxLimit)
	assert.Equal(t, []int{1498, 1499}, paginate(items, 1498, math.MaxInt))
}

func TestMakeSlice(t *testing.T) {
	assert.Nil(t, makeSlice[string](0))
	s := makeSlice[string](3)
	assert.NotNil(t, s)
	assert.Empty(t, s)
	assert.Equal(t, 3, cap(s))
}

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil error returns empty string", err: nil, want: ""},
		{
			name: "strips absolute path",
			err:  fmt.Errorf("failed to open /home/user/secret/moenv_openapi.yaml: no such file"),
			want: "failed to open <path>: no such file",
		},
		{
			name: "preserves non-path content",
			err:  fmt.Errorf("parse error: invalid YAML/JSON at line 5"),
			want: "parse error: invalid YAML/JSON at line 5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeError(tt.err))
		})
	}
}

func TestErrResult(t *testing.T) {
	res := errResult(fmt.Errorf("cannot write /tmp/out.yaml"))
	assert.True(t, res.IsError)
	assert.Len(t, res.Content, 1)
}

func TestLogStartup(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		contains []string
	}{
		{
			name:     "key set",
			cfg:      config.Config{ModelName: "openai/gpt-4o", APIBase: "http://litellm:4000", APIKey: "sk-model-secret"},
			contains: []string{"model=openai/gpt-4o", "api_base=http://litellm:4000", "api_key=(set)"},
		},
		{
			name:     "defaults",
			cfg:      config.Config{ModelName: config.DefaultModelName},
			contains: []string{"model=" + config.DefaultModelName, `api_base="(provider default)"`, `api_key="(not set)"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logStartup(slog.New(slog.NewTextHandler(&buf, nil)), &tt.cfg)

			out := buf.String()
			assert.Contains(t, out, "using LiteLLM model")
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, "sk-model-secret")
		})
	}
}
