package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moenvlab/oaskeyguard/document"
	"github.com/moenvlab/oaskeyguard/internal/testutil"
)

const getAndPostSpec = `openapi: 3.0.0
paths:
  /aqx_p_10:
    get:
      parameters:
        - name: api_key
          in: query
        - name: limit
          in: query
    post:
      security:
        - Other: []
      parameters:
        - name: api_key
          in: query
        - name: limit
          in: query
`

func TestNormalize_SelectiveByMethod(t *testing.T) {
	doc := parseDoc(t, getAndPostSpec)

	fixes := Normalize(doc)
	require.Len(t, fixes, 2)
	assert.Equal(t, FixTypeInjectedSecurity, fixes[0].Type)
	assert.Equal(t, "paths./aqx_p_10.get.security", fixes[0].Path)
	assert.Equal(t, FixTypeRemovedAPIKeyParameter, fixes[1].Type)
	assert.Equal(t, "paths./aqx_p_10.get.parameters[0]", fixes[1].Path)
	assert.Equal(t, map[string]any{"name": "api_key", "in": "query"}, fixes[1].Before)

	out := testutil.DecodeYAML(t, []byte(docBytes(t, doc)))

	assert.Equal(t, []any{map[string]any{"ApiKeyAuth": []any{}}}, testutil.Lookup(out, "paths", "/aqx_p_10", "get", "security"))
	assert.Equal(t, []any{map[string]any{"name": "limit", "in": "query"}}, testutil.Lookup(out, "paths", "/aqx_p_10", "get", "parameters"))

	assert.Equal(t, []any{map[string]any{"Other": []any{}}}, testutil.Lookup(out, "paths", "/aqx_p_10", "post", "security"))
	assert.Equal(t, "api_key", testutil.Lookup(out, "paths", "/aqx_p_10", "post", "parameters", 0, "name"))
	assert.Equal(t, "limit", testutil.Lookup(out, "paths", "/aqx_p_10", "post", "parameters", 1, "name"))
}

func TestNormalize_OverwritesExistingSecurity(t *testing.T) {
	doc := parseDoc(t, `openapi: 3.0.0
paths:
  /a:
    get:
      security:
        - BasicAuth: []
        - ApiKeyAuth: [read]
      parameters: []
`)

	fixes := Normalize(doc)
	require.Len(t, fixes, 1)
	assert.Equal(t,
		[]any{map[string]any{"BasicAuth": []any{}}, map[string]any{"ApiKeyAuth": []any{"read"}}},
		fixes[0].Before)

	out := testutil.DecodeYAML(t, []byte(docBytes(t, doc)))
	assert.Equal(t, []any{map[string]any{"ApiKeyAuth": []any{}}}, testutil.Lookup(out, "paths", "/a", "get", "security"))
}

func TestNormalize_Idempotent(t *testing.T) {
	doc := parseDoc(t, testutil.MOENVSpec)
	Normalize(doc)
	once := docBytes(t, doc)

	fixes := Normalize(doc)
	assert.Empty(t, fixes)
	assert.Equal(t, once, docBytes(t, doc))
}

// An operation without parameters or requestBody only gains security and an empty parameters list.
func TestNormalize_NonDestructive(t *testing.T) {
	doc := parseDoc(t, testutil.MinimalSpec)

	Normalize(doc)

	op := doc.Operations()[0].Node
	assert.Equal(t, []string{"responses", "security", "parameters"}, document.MappingKeys(op))
	params := document.MappingValue(op, "parameters")
	require.NotNil(t, params)
	assert.True(t, document.IsSequence(params))
	assert.Empty(t, params.Content)
}

func TestNormalize_MalformedParametersPassThrough(t *testing.T) {
	doc := parseDoc(t, `openapi: 3.0.0
paths:
  /a:
    get:
      parameters:
        api_key: not-a-list
  /b: 42
`)

	fixes := Normalize(doc)
	require.Len(t, fixes, 1, "only security is injected")

	out := testutil.DecodeYAML(t, []byte(docBytes(t, doc)))
	assert.Equal(t, map[string]any{"api_key": "not-a-list"}, testutil.Lookup(out, "paths", "/a", "get", "parameters"))
	assert.Equal(t, 42, testutil.Lookup(out, "paths", "/b"))
}

func TestNormalize_CaseSensitiveMethod(t *testing.T) {
	doc := parseDoc(t, `openapi: 3.0.0
paths:
  /a:
    GET:
      parameters:
        - name: api_key
`)
	before := docBytes(t, doc)

	assert.Empty(t, Normalize(doc))
	assert.Equal(t, before, docBytes(t, doc))
}

func TestNormalize_RemovesReferencedAPIKeyParameter(t *testing.T) {
	doc := parseDoc(t, `openapi: 3.0.0
paths:
  /a:
    get:
      parameters:
        - $ref: '#/components/parameters/ApiKey'
        - $ref: '#/components/parameters/Limit'
        - $ref: '#/components/parameters/Missing'
components:
  parameters:
    ApiKey:
      name: api_key
      in: query
    Limit:
      name: limit
      in: query
`)

	fixes := Normalize(doc)
	require.Len(t, fixes, 2)
	assert.Equal(t, map[string]any{"$ref": "#/components/parameters/ApiKey"}, fixes[1].Before)

	out := testutil.DecodeYAML(t, []byte(docBytes(t, doc)))
	assert.Equal(t, []any{
		map[string]any{"$ref": "#/components/parameters/Limit"},
		map[string]any{"$ref": "#/components/parameters/Missing"},
	}, testutil.Lookup(out, "paths", "/a", "get", "parameters"))
}

func TestNormalize_DisabledSubsteps(t *testing.T) {
	s := New()
	s.EnabledFixes = []FixType{FixTypeInjectedSecurity}
	doc := parseDoc(t, getAndPostSpec)

	fixes := s.Normalize(doc)
	require.Len(t, fixes, 1)
	assert.Equal(t, FixTypeInjectedSecurity, fixes[0].Type)

	params := document.SequenceItems(document.MappingValue(doc.Operations()[0].Node, "parameters"))
	assert.Len(t, params, 2, "parameter filtering is disabled")
}

func TestEnsureScheme_KeepsExisting(t *testing.T) {
	s := New()
	s.EnsureScheme = true
	doc := parseDoc(t, testutil.MOENVSpec)

	fixes := s.Normalize(doc)
	for _, f := range fixes {
		assert.NotEqual(t, FixTypeAddedSecurityScheme, f.Type)
	}
}

func TestEnsureScheme_ComponentsNotMapping(t *testing.T) {
	s := New()
	s.EnsureScheme = true
	doc := parseDoc(t, "openapi: 3.0.0\ncomponents: []\npaths: {}\n")

	assert.Empty(t, s.Normalize(doc))
}

func TestNormalize_SharedNodes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, out map[string]any)
	}{
		{
			name: "parameters anchored on get",
			input: `openapi: 3.0.0
paths:
  /a:
    get:
      parameters: &common
        - {name: api_key, in: query}
        - {name: limit, in: query}
    post:
      parameters: *common
`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, []any{map[string]any{"name": "limit", "in": "query"}}, testutil.Lookup(out, "paths", "/a", "get", "parameters"))
				assert.Equal(t, "api_key", testutil.Lookup(out, "paths", "/a", "post", "parameters", 0, "name"))
				assert.Equal(t, "limit", testutil.Lookup(out, "paths", "/a", "post", "parameters", 1, "name"))
			},
		},
		{
			name: "parameters anchored on post",
			input: `openapi: 3.0.0
paths:
  /a:
    post:
      parameters: &common
        - {name: api_key, in: query}
        - {name: limit, in: query}
    get:
      parameters: *common
`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, []any{map[string]any{"name": "limit", "in": "query"}}, testutil.Lookup(out, "paths", "/a", "get", "parameters"))
				assert.Equal(t, "api_key", testutil.Lookup(out, "paths", "/a", "post", "parameters", 0, "name"))
			},
		},
		{
			name: "removed parameter anchored",
			input: `openapi: 3.0.0
paths:
  /a:
    get:
      parameters:
        - &key {name: api_key, in: query}
        - {name: limit, in: query}
    put:
      parameters:
        - *key
`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, "limit", testutil.Lookup(out, "paths", "/a", "get", "parameters", 0, "name"))
				assert.Equal(t, "api_key", testutil.Lookup(out, "paths", "/a", "put", "parameters", 0, "name"))
			},
		},
		{
			name: "security anchored on get",
			input: `openapi: 3.0.0
paths:
  /a:
    get:
      security: &sec
        - Other: []
    post:
      security: *sec
`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, []any{map[string]any{"ApiKeyAuth": []any{}}}, testutil.Lookup(out, "paths", "/a", "get", "security"))
				assert.Equal(t, []any{map[string]any{"Other": []any{}}}, testutil.Lookup(out, "paths", "/a", "post", "security"))
			},
		},
		{
			name: "whole operation shared",
			input: `openapi: 3.0.0
paths:
  /a:
    get: &op
      parameters:
        - {name: api_key, in: query}
    head: *op
`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, []any{}, testutil.Lookup(out, "paths", "/a", "get", "parameters"))
				assert.Equal(t, "api_key", testutil.Lookup(out, "paths", "/a", "head", "parameters", 0, "name"))
				assert.Nil(t, testutil.Lookup(out, "paths", "/a", "head", "security"))
			},
		},
		{
			name: "operation merged in",
			input: `openapi: 3.0.0
x-base: &base
  parameters:
    - {name: api_key, in: query}
paths:
  /a:
    get:
      <<: *base
      summary: merged
    post:
      <<: *base
`,
			check: func(t *testing.T, out map[string]any) {
				assert.Equal(t, []any{}, testutil.Lookup(out, "paths", "/a", "get", "parameters"))
				assert.Equal(t, "merged", testutil.Lookup(out, "paths", "/a", "get", "summary"))
				assert.Equal(t, "api_key", testutil.Lookup(out, "paths", "/a", "post", "parameters", 0, "name"))
				assert.Equal(t, "api_key", testutil.Lookup(out, "x-base", "parameters", 0, "name"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, tt.input)
			require.NotEmpty(t, Normalize(doc))

			data := docBytes(t, doc)
			_, err := document.Parse([]byte(data), "again.yaml")
			require.NoError(t, err, "output must parse:\n%s", data)
			tt.check(t, testutil.DecodeYAML(t, []byte(data)))

			again := parseDoc(t, data)
			assert.Empty(t, Normalize(again), "second run")
		})
	}
}

func TestNormalize_SharedPathItem(t *testing.T) {
	doc := parseDoc(t, `openapi: 3.0.0
paths:
  /a: &item
    get:
      parameters:
        - {name: api_key, in: query}
  /b: *item
`)

	fixes := Normalize(doc)
	require.Len(t, fixes, 4)
	assert.Equal(t, "paths./a.get.security", fixes[0].Path)
	assert.Equal(t, "paths./b.get.parameters[0]", fixes[3].Path)

	out := testutil.DecodeYAML(t, []byte(docBytes(t, doc)))
	for _, p := range []string{"/a", "/b"} {
		assert.Equal(t, []any{}, testutil.Lookup(out, "paths", p, "get", "parameters"), p)
		assert.Equal(t, []any{map[string]any{"ApiKeyAuth": []any{}}}, testutil.Lookup(out, "paths", p, "get", "security"), p)
	}
}

func TestNormalize_MergedAPIKeyParameter(t *testing.T) {
	doc := parseDoc(t, `openapi: 3.0.0
components:
  parameters:
    ApiKey: &key
      name: api_key
      in: query
paths:
  /a:
    get:
      parameters:
        - <<: *key
        - {name: limit, in: query}
`)

	fixes := Normalize(doc)
	require.Len(t, fixes, 2)
	assert.Equal(t, map[string]any{"name": "api_key", "in": "query"}, fixes[1].Before)

	out := testutil.DecodeYAML(t, []byte(docBytes(t, doc)))
	assert.Equal(t, []any{map[string]any{"name": "limit", "in": "query"}}, testutil.Lookup(out, "paths", "/a", "get", "parameters"))
	assert.Equal(t, "api_key", testutil.Lookup(out, "components", "parameters", "ApiKey", "name"))
}
