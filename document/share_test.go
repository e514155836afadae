package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"

	"github.com/moenvlab/oaskeyguard/internal/testutil"
)

// reparse encodes doc and decodes it again, failing on dangling aliases.
func reparse(t *testing.T, doc *Document) map[string]any {
	t.Helper()
	data, err := doc.Bytes()
	require.NoError(t, err)
	_, err = Parse(data, "again.yaml")
	require.NoError(t, err, "output:\n%s", data)
	return testutil.DecodeYAML(t, data)
}

const mergeSpec = `base: &base
  name: api_key
  in: query
  default: SECRET
extra: &extra
  in: header
  description: extra
one:
  <<: *base
  description: own
many:
  <<: [*base, *extra]
  in: cookie
`

func TestMappingValue_Merge(t *testing.T) {
	m := mustMapping(t, mergeSpec)
	one := MappingValue(m, "one")
	many := MappingValue(m, "many")

	tests := []struct {
		name string
		m    *yaml.Node
		key  string
		want string
	}{
		{"merged key", one, "name", "api_key"},
		{"own key", one, "description", "own"},
		{"own key wins over merge", many, "in", "cookie"},
		{"earlier source wins", many, "name", "api_key"},
		{"later source fills in", many, "description", "extra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := ScalarString(MappingValue(tt.m, tt.key))
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}

	assert.True(t, HasKey(one, "default"))
	assert.True(t, HasMerge(one))
	assert.False(t, HasMerge(MappingValue(m, "base")))
	assert.Equal(t, -1, MappingIndex(one, "default"), "merged keys have no index in the mapping")
	assert.False(t, DeleteMappingKey(one, "default"), "merged keys are not deleted")
	assert.Equal(t, []string{"description", "name", "in", "default"}, MappingKeys(one))
	assert.Equal(t, []string{"in", "name", "default", "description"}, MappingKeys(many))
}

func TestMappingValue_QuotedMergeKeyIsLiteral(t *testing.T) {
	m := mustMapping(t, "a: &a {x: 1}\nb: {'<<': *a}\n")
	b := MappingValue(m, "b")

	assert.Nil(t, MappingValue(b, "x"))
	assert.Equal(t, []string{"<<"}, MappingKeys(b))
}

func TestMappingValue_CyclicMerge(t *testing.T) {
	m := mustMapping(t, "a: &a\n  x: 1\n  <<: *a\n")
	a := MappingValue(m, "a")

	assert.Nil(t, MappingValue(a, "missing"))
	assert.Equal(t, []string{"x"}, MappingKeys(a))
}

func TestFlattenMerges(t *testing.T) {
	doc, err := Parse([]byte(mergeSpec), "merge.yaml")
	require.NoError(t, err)
	many := MappingValue(doc.Root(), "many")

	FlattenMerges(many)

	assert.False(t, HasMerge(many))
	assert.Equal(t, []string{"name", "default", "description", "in"}, MappingKeys(many))
	v, _ := ScalarString(MappingValue(many, "in"))
	assert.Equal(t, "cookie", v)

	require.True(t, DeleteMappingKey(many, "default"))
	out := reparse(t, doc)
	assert.Nil(t, testutil.Lookup(out, "many", "default"))
	assert.Equal(t, "SECRET", testutil.Lookup(out, "base", "default"), "merged mapping is unchanged")
	assert.Equal(t, "SECRET", testutil.Lookup(out, "one", "default"))
}

func TestExpand(t *testing.T) {
	m := mustMapping(t, "a: &a [1, 2]\nb: {list: *a}\n")

	c := Expand(MappingValue(m, "b"))
	list := MappingValue(c, "list")
	require.Equal(t, yaml.SequenceNode, list.Kind)
	assert.Empty(t, list.Anchor)
	assert.NotSame(t, MappingValue(m, "a"), list)

	list.Content = nil
	assert.Len(t, SequenceItems(MappingValue(m, "a")), 2, "the copy shares nothing")
}

func TestOwn(t *testing.T) {
	t.Run("alias is replaced by a copy", func(t *testing.T) {
		doc, err := Parse([]byte("a: &x [1, 2]\nb: *x\n"), "t.yaml")
		require.NoError(t, err)

		b := doc.Own(doc.Root(), "b")
		b.Content = b.Content[:1]

		out := reparse(t, doc)
		assert.Equal(t, []any{1, 2}, out["a"])
		assert.Equal(t, []any{1}, out["b"])
	})

	t.Run("anchor users get copies", func(t *testing.T) {
		doc, err := Parse([]byte("a: &x [1, 2]\nb: *x\nc: {nested: *x}\n"), "t.yaml")
		require.NoError(t, err)

		a := doc.Own(doc.Root(), "a")
		assert.Empty(t, a.Anchor)
		a.Content = a.Content[:1]

		out := reparse(t, doc)
		assert.Equal(t, []any{1}, out["a"])
		assert.Equal(t, []any{1, 2}, out["b"])
		assert.Equal(t, []any{1, 2}, testutil.Lookup(out, "c", "nested"))
	})

	t.Run("merged value is copied in", func(t *testing.T) {
		doc, err := Parse([]byte("a: &x {list: [1, 2]}\nb: {<<: *x}\n"), "t.yaml")
		require.NoError(t, err)
		b := MappingValue(doc.Root(), "b")

		list := doc.Own(b, "list")
		require.NotNil(t, list)
		list.Content = nil

		out := reparse(t, doc)
		assert.Equal(t, []any{1, 2}, testutil.Lookup(out, "a", "list"))
		assert.Equal(t, []any{}, testutil.Lookup(out, "b", "list"))
	})

	t.Run("missing key", func(t *testing.T) {
		doc, err := Parse([]byte("a: 1\n"), "t.yaml")
		require.NoError(t, err)
		assert.Nil(t, doc.Own(doc.Root(), "b"))
	})
}

func TestRelease(t *testing.T) {
	doc, err := Parse([]byte("list:\n  - &k {name: api_key}\n  - {name: limit}\nother: [*k]\n"), "t.yaml")
	require.NoError(t, err)
	list := MappingValue(doc.Root(), "list")

	doc.Release(list.Content[0])
	list.Content = list.Content[1:]

	out := reparse(t, doc)
	assert.Equal(t, "limit", testutil.Lookup(out, "list", 0, "name"))
	assert.Equal(t, "api_key", testutil.Lookup(out, "other", 0, "name"))
}

func TestReplace(t *testing.T) {
	doc, err := Parse([]byte("a: &s [{Other: []}]\nb: *s\n"), "t.yaml")
	require.NoError(t, err)

	doc.Replace(doc.Root(), "a", NewSequence())

	out := reparse(t, doc)
	assert.Equal(t, []any{}, out["a"])
	assert.Equal(t, []any{map[string]any{"Other": []any{}}}, out["b"])
}

func TestRefreshAndOwnOperation(t *testing.T) {
	doc, err := Parse([]byte(`paths:
  /a: &item
    get: {summary: a}
  /b: *item
`), "t.yaml")
	require.NoError(t, err)
	ops := doc.Operations()
	require.Len(t, ops, 2)
	assert.Same(t, ops[0].Node, ops[1].Node)

	node := doc.OwnOperation(ops[0])
	SetMappingValue(node, "summary", NewString("changed"))

	b := doc.Refresh(ops[1])
	assert.NotSame(t, node, b.Node)
	v, _ := ScalarString(MappingValue(b.Node, "summary"))
	assert.Equal(t, "a", v)

	out := reparse(t, doc)
	assert.Equal(t, "changed", testutil.Lookup(out, "paths", "/a", "get", "summary"))
	assert.Equal(t, "a", testutil.Lookup(out, "paths", "/b", "get", "summary"))
}
