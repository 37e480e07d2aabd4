package pipeline

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/mdforge/internal/shape"
)

func TestWriteArtifact_PerItemJSON(t *testing.T) {
	schema := `{
		"type": "object",
		"x-frontmatter-part": "items",
		"x-template": "{\"name\": \"{{name}}\"}",
		"x-template-items": "items",
		"properties": {
			"items": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["name"],
					"properties": {"name": {"type": "string"}}
				}
			}
		}
	}`
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/work/schema.json", []byte(schema), 0o644))
	writeDoc(t, fs, "/work/a.md", "name: alpha\n", "")
	writeDoc(t, fs, "/work/b.md", "name: beta\n", "")

	c := testCoordinator(fs)
	_, err := c.Transform(context.Background(), Request{
		SchemaPath:    "/work/schema.json",
		DocumentPaths: []string{"/work/a.md", "/work/b.md"},
		OutputPath:    "/work/out.json",
	})
	require.NoError(t, err)

	artifact, err := util.ReadFile(fs, "/work/out.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name": "alpha"}, {"name": "beta"}]`, string(artifact))
}

func TestWriteArtifact_MarkdownWithAggregation(t *testing.T) {
	schema := `{
		"type": "object",
		"x-frontmatter-part": "items",
		"x-template": "# Report\n\nTotal: {{total}}",
		"x-template-format": "markdown",
		"properties": {
			"items": {"type": "array", "items": {"type": "object"}},
			"total": {"type": "number", "x-derived-count": "name"}
		}
	}`
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/work/schema.json", []byte(schema), 0o644))
	writeDoc(t, fs, "/work/a.md", "name: alpha\n", "")
	writeDoc(t, fs, "/work/b.md", "name: beta\n", "")

	c := testCoordinator(fs)
	_, err := c.Transform(context.Background(), Request{
		SchemaPath:    "/work/schema.json",
		DocumentPaths: []string{"/work/a.md", "/work/b.md"},
		Aggregate:     true,
		OutputPath:    "/work/report.md",
	})
	require.NoError(t, err)

	artifact, err := util.ReadFile(fs, "/work/report.md")
	require.NoError(t, err)
	assert.Equal(t, "# Report\n\nTotal: 2\n", string(artifact))
}

func TestWriteArtifact_FileTemplate(t *testing.T) {
	schema := `{
		"type": "object",
		"x-frontmatter-part": "items",
		"x-template": "entry.md",
		"x-template-items": "items",
		"properties": {
			"items": {"type": "array", "items": {"type": "object"}}
		}
	}`
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/work/schema.json", []byte(schema), 0o644))
	require.NoError(t, util.WriteFile(fs, "/work/entry.md", []byte("## {{name}}"), 0o644))
	writeDoc(t, fs, "/work/a.md", "name: alpha\n", "")
	writeDoc(t, fs, "/work/b.md", "name: beta\n", "")

	c := testCoordinator(fs)
	_, err := c.Transform(context.Background(), Request{
		SchemaPath:    "/work/schema.json",
		DocumentPaths: []string{"/work/a.md", "/work/b.md"},
		OutputPath:    "/work/out.md",
	})
	require.NoError(t, err)

	artifact, err := util.ReadFile(fs, "/work/out.md")
	require.NoError(t, err)
	assert.Equal(t, "## alpha\n\n## beta\n", string(artifact))
}

func TestWriteArtifact_ItemAlignmentFailure(t *testing.T) {
	// The template names a field the per-document schema does not carry, so
	// alignment fails before any substitution.
	schema := `{
		"type": "object",
		"x-frontmatter-part": "items",
		"x-template": "{\"name\": \"{{name}}\", \"extra\": \"{{extra}}\"}",
		"x-template-items": "items",
		"properties": {
			"items": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["name"],
					"properties": {"name": {"type": "string"}}
				}
			}
		}
	}`
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/work/schema.json", []byte(schema), 0o644))
	writeDoc(t, fs, "/work/a.md", "name: alpha\n", "")

	c := testCoordinator(fs)
	_, err := c.Transform(context.Background(), Request{
		SchemaPath:    "/work/schema.json",
		DocumentPaths: []string{"/work/a.md"},
		OutputPath:    "/work/out.json",
	})
	require.Error(t, err)
	var aerr *shape.AlignmentError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "schema/template", aerr.Pair)

	// Nothing was written.
	_, readErr := util.ReadFile(fs, "/work/out.json")
	assert.Error(t, readErr)
}

func TestWriteArtifact_MissingTemplateDirective(t *testing.T) {
	schema := `{
		"type": "object",
		"x-frontmatter-part": "items",
		"properties": {
			"items": {"type": "array", "items": {"type": "object"}}
		}
	}`
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/work/schema.json", []byte(schema), 0o644))
	writeDoc(t, fs, "/work/a.md", "name: alpha\n", "")

	c := testCoordinator(fs)
	_, err := c.Transform(context.Background(), Request{
		SchemaPath:    "/work/schema.json",
		DocumentPaths: []string{"/work/a.md"},
		OutputPath:    "/work/out.json",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x-template")
}

func TestJoinPieces(t *testing.T) {
	pieces := []string{`{"a":1}`, `{"a":2}`}
	assert.Equal(t, `[{"a":1},{"a":2}]`, joinPieces(pieces, "json"))
	assert.Equal(t, "{\"a\":1}\n\n{\"a\":2}", joinPieces(pieces, "markdown"))
}
