package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/mdforge/api"
)

func TestAnalyzeValue_Primitives(t *testing.T) {
	tests := []struct {
		value any
		kind  Kind
	}{
		{nil, KindNull},
		{true, KindBoolean},
		{"s", KindString},
		{3.14, KindNumber},
		{int64(7), KindNumber},
		{42, KindNumber},
	}
	for _, tt := range tests {
		n, err := AnalyzeValue(tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.kind, n.Kind)
	}
}

func TestAnalyzeValue_NestedObject(t *testing.T) {
	n, err := AnalyzeValue(map[string]any{
		"name": "x",
		"meta": map[string]any{"count": 2.0},
		"tags": []any{"a", "b"},
	})
	require.NoError(t, err)
	require.Equal(t, KindObject, n.Kind)
	assert.Equal(t, []string{"meta", "name", "tags"}, n.ChildKeys())
	assert.Equal(t, KindArray, n.Children["tags"].Kind)
	assert.Equal(t, KindString, n.Children["tags"].Element.Kind)
	assert.Equal(t, KindNumber, n.Children["meta"].Children["count"].Kind)
}

func TestAnalyzeValue_EmptyArray(t *testing.T) {
	n, err := AnalyzeValue([]any{})
	require.NoError(t, err)
	assert.Equal(t, KindArray, n.Kind)
	assert.Nil(t, n.Element)
}

func TestAnalyzeValue_HeterogeneousArray(t *testing.T) {
	_, err := AnalyzeValue(map[string]any{
		"items": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b"},
			"not an object",
		},
	})
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items", verr.Path)
	assert.Contains(t, verr.Message, "element 2")
}

func TestAnalyzeSchema(t *testing.T) {
	schema, err := api.ParseSchema([]byte(`{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"count": {"type": "integer"},
			"items": {
				"type": "array",
				"items": {"type": "object", "properties": {"id": {"type": "string"}}}
			}
		}
	}`))
	require.NoError(t, err)

	n, err := AnalyzeSchema(schema)
	require.NoError(t, err)
	assert.Equal(t, KindObject, n.Kind)
	assert.Equal(t, KindString, n.Children["name"].Kind)
	assert.Equal(t, KindNumber, n.Children["count"].Kind)
	assert.Equal(t, KindArray, n.Children["items"].Kind)
	assert.Equal(t, KindObject, n.Children["items"].Element.Kind)
}

func TestAnalyzeSchema_UntypedObjectWithProperties(t *testing.T) {
	schema, err := api.ParseSchema([]byte(`{"properties": {"a": {"type": "string"}}}`))
	require.NoError(t, err)

	n, err := AnalyzeSchema(schema)
	require.NoError(t, err)
	assert.Equal(t, KindObject, n.Kind)
}

func TestAnalyzeSchema_Untypable(t *testing.T) {
	schema, err := api.ParseSchema([]byte(`{"description": "nothing else"}`))
	require.NoError(t, err)

	_, err = AnalyzeSchema(schema)
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestEqual_ValueInsensitive(t *testing.T) {
	a, err := AnalyzeValue(map[string]any{"name": "alpha", "score": 1.0})
	require.NoError(t, err)
	b, err := AnalyzeValue(map[string]any{"name": "omega", "score": 99.0})
	require.NoError(t, err)
	assert.True(t, Equal(a, b))
}

func TestEqual_KeyDrift(t *testing.T) {
	a, err := AnalyzeValue(map[string]any{"name": "x"})
	require.NoError(t, err)
	b, err := AnalyzeValue(map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.False(t, Equal(a, b))
}

func TestEqual_EmptyArraysMatch(t *testing.T) {
	a, err := AnalyzeValue([]any{})
	require.NoError(t, err)
	b, err := AnalyzeValue([]any{})
	require.NoError(t, err)
	assert.True(t, Equal(a, b))
}

func TestValidateAlignment_Identical(t *testing.T) {
	schema, err := api.ParseSchema([]byte(`{
		"type": "object",
		"properties": {"name": {"type": "string"}, "count": {"type": "number"}}
	}`))
	require.NoError(t, err)

	data := map[string]any{"name": "a", "count": 1.0}
	template := map[string]any{"name": "{{name}}", "count": 0.0}
	assert.NoError(t, ValidateAlignment(data, schema, template))
}

func TestValidateAlignment_DataSchemaMismatch(t *testing.T) {
	schema, err := api.ParseSchema([]byte(`{
		"type": "object",
		"properties": {"name": {"type": "string"}}
	}`))
	require.NoError(t, err)

	data := map[string]any{"name": "a", "extra": true}
	err = ValidateAlignment(data, schema, map[string]any{"name": "{{name}}"})
	require.Error(t, err)
	var aerr *AlignmentError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "data/schema", aerr.Pair)
	assert.Equal(t, "extra", aerr.Path)
}

func TestValidateAlignment_SchemaTemplateMismatch(t *testing.T) {
	schema, err := api.ParseSchema([]byte(`{
		"type": "object",
		"properties": {"items": {"type": "array", "items": {"type": "string"}}}
	}`))
	require.NoError(t, err)

	data := map[string]any{"items": []any{"a"}}
	template := map[string]any{"items": []any{1.0}}
	err = ValidateAlignment(data, schema, template)
	require.Error(t, err)
	var aerr *AlignmentError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "schema/template", aerr.Pair)
	assert.Equal(t, "items[]", aerr.Path)
}

func TestFirstMismatch_ReportsDeepPath(t *testing.T) {
	a, err := AnalyzeValue(map[string]any{"meta": map[string]any{"count": 1.0}})
	require.NoError(t, err)
	b, err := AnalyzeValue(map[string]any{"meta": map[string]any{"count": "one"}})
	require.NoError(t, err)
	assert.Equal(t, "meta.count", firstMismatch(a, b, ""))
}
