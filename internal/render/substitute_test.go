package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute_BarePlaceholders(t *testing.T) {
	data := map[string]any{"name": "alpha", "count": 3.0}
	out, err := Substitute("name={{name}} count={{count}}", data)
	require.NoError(t, err)
	assert.Equal(t, "name=alpha count=3", out)
}

func TestSubstitute_QuotedPlaceholderKeepsType(t *testing.T) {
	data := map[string]any{"count": 3.0, "tags": []any{"a", "b"}}
	out, err := Substitute(`{"count": "{{count}}", "tags": "{{tags}}"}`, data)
	require.NoError(t, err)
	assert.Equal(t, `{"count": 3, "tags": ["a","b"]}`, out)
}

func TestSubstitute_NestedPath(t *testing.T) {
	data := map[string]any{"meta": map[string]any{"title": "T"}}
	out, err := Substitute("{{meta.title}}", data)
	require.NoError(t, err)
	assert.Equal(t, "T", out)
}

func TestSubstitute_UnresolvedPlaceholder(t *testing.T) {
	_, err := Substitute("{{missing}}", map[string]any{"name": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestSubstitute_NonIntegralFloat(t *testing.T) {
	out, err := Substitute("{{score}}", map[string]any{"score": 2.5})
	require.NoError(t, err)
	assert.Equal(t, "2.5", out)
}

func TestSubstituteItems(t *testing.T) {
	items := []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
	}
	out, err := SubstituteItems("- {{name}}", items)
	require.NoError(t, err)
	assert.Equal(t, []string{"- a", "- b"}, out)
}

func TestSubstituteItems_ErrorNamesIndex(t *testing.T) {
	items := []any{
		map[string]any{"name": "a"},
		map[string]any{"other": "b"},
	}
	_, err := SubstituteItems("- {{name}}", items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")
}

func TestParseTemplateValue(t *testing.T) {
	v, err := ParseTemplateValue(`{"n": 1, "s": "x"}`, "json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 1.0, "s": "x"}, v)

	v, err = ParseTemplateValue("n: 1\ns: x\n", "yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": 1.0, "s": "x"}, v)

	v, err = ParseTemplateValue("# heading", "markdown")
	require.NoError(t, err)
	assert.Equal(t, "# heading", v)
}

func TestParseTemplateValue_BadJSON(t *testing.T) {
	_, err := ParseTemplateValue("{not json", "json")
	require.Error(t, err)
}

func TestRenderArtifact_CanonicalJSON(t *testing.T) {
	out, err := RenderArtifact(`{"b": 2, "a": 1}`, "json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}\n", out)
}

func TestRenderArtifact_YAML(t *testing.T) {
	out, err := RenderArtifact("b: 2\na: 1\n", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "a: 1")
	assert.Contains(t, out, "b: 2")
}

func TestRenderArtifact_MarkdownPassThrough(t *testing.T) {
	out, err := RenderArtifact("# Title", "markdown")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n", out)
}

func TestRenderArtifact_InvalidSubstitutedJSON(t *testing.T) {
	_, err := RenderArtifact("{broken", "json")
	require.Error(t, err)
}
