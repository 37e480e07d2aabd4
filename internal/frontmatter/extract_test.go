package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_YAMLFrontMatter(t *testing.T) {
	doc := []byte(`---
name: alpha
score: 4
tags:
  - go
  - tool
---
# Alpha

Body text.
`)
	res := Extract(doc)
	require.True(t, res.Present)
	assert.Equal(t, []string{"name", "score", "tags"}, res.Data.Keys)

	name, ok := res.Data.Get("name")
	require.True(t, ok)
	assert.Equal(t, "alpha", name)

	score, _ := res.Data.Get("score")
	assert.Equal(t, 4.0, score)

	tags, _ := res.Data.Get("tags")
	assert.Equal(t, []any{"go", "tool"}, tags)

	assert.Equal(t, "# Alpha\n\nBody text.\n", res.Body)
}

func TestExtract_JSONFrontMatter(t *testing.T) {
	doc := []byte(`---
{"name": "beta", "count": 2}
---
body
`)
	res := Extract(doc)
	require.True(t, res.Present)
	name, _ := res.Data.Get("name")
	assert.Equal(t, "beta", name)
	count, _ := res.Data.Get("count")
	assert.Equal(t, 2.0, count)
}

func TestExtract_BareJSONBlock(t *testing.T) {
	doc := []byte(`{
  "name": "beta",
  "tags": ["go"]
}
# Beta

Body text.
`)
	res := Extract(doc)
	require.True(t, res.Present)
	assert.Equal(t, []string{"name", "tags"}, res.Data.Keys)
	name, _ := res.Data.Get("name")
	assert.Equal(t, "beta", name)
	assert.Equal(t, "# Beta\n\nBody text.\n", res.Body)
}

func TestExtract_BareJSONBlockSingleLine(t *testing.T) {
	doc := []byte("{\"name\": \"gamma\"}\nbody\n")
	res := Extract(doc)
	require.True(t, res.Present)
	name, _ := res.Data.Get("name")
	assert.Equal(t, "gamma", name)
	assert.Equal(t, "body\n", res.Body)
}

func TestExtract_UnclosedJSONBlockDegrades(t *testing.T) {
	doc := []byte("{\n\"name\": \"x\"\nno closing brace\n")
	res := Extract(doc)
	assert.False(t, res.Present)
	assert.Equal(t, string(doc), res.Body)
}

func TestData_MapIsIndependentlyOwned(t *testing.T) {
	doc := []byte(`---
name: alpha
meta:
  author: a
tags:
  - go
---
`)
	res := Extract(doc)
	require.True(t, res.Present)

	m := res.Data.Map()
	m["name"] = "changed"
	m["meta"].(map[string]any)["author"] = "changed"
	m["tags"].([]any)[0] = "changed"

	fresh := res.Data.Map()
	assert.Equal(t, "alpha", fresh["name"])
	assert.Equal(t, "a", fresh["meta"].(map[string]any)["author"])
	assert.Equal(t, "go", fresh["tags"].([]any)[0])
}

func TestExtract_NoFrontMatter(t *testing.T) {
	doc := []byte("# Just a heading\n\nNo fences here.\n")
	res := Extract(doc)
	assert.False(t, res.Present)
	assert.Nil(t, res.Data)
	assert.Equal(t, string(doc), res.Body)
}

func TestExtract_UnclosedFence(t *testing.T) {
	doc := []byte("---\nname: x\nno closing fence\n")
	res := Extract(doc)
	assert.False(t, res.Present)
	assert.Equal(t, string(doc), res.Body)
}

func TestExtract_MalformedYAMLDegrades(t *testing.T) {
	doc := []byte("---\nname: [unclosed\n---\nbody\n")
	res := Extract(doc)
	assert.False(t, res.Present)
	assert.Equal(t, string(doc), res.Body)
}

func TestExtract_NonMappingBlockDegrades(t *testing.T) {
	doc := []byte("---\n- just\n- a\n- list\n---\nbody\n")
	res := Extract(doc)
	assert.False(t, res.Present)
}

func TestExtract_FenceMustEndLine(t *testing.T) {
	doc := []byte("--- not a fence\nname: x\n---\n")
	res := Extract(doc)
	assert.False(t, res.Present)
}

func TestExtract_HorizontalRuleInBody(t *testing.T) {
	doc := []byte(`---
title: rules
---
above

---

below
`)
	res := Extract(doc)
	require.True(t, res.Present)
	title, _ := res.Data.Get("title")
	assert.Equal(t, "rules", title)
	assert.Equal(t, "above\n\n---\n\nbelow\n", res.Body)
}

func TestExtract_NestedMapsNormalized(t *testing.T) {
	doc := []byte(`---
meta:
  author: a
  counts:
    words: 120
---
`)
	res := Extract(doc)
	require.True(t, res.Present)
	meta, _ := res.Data.Get("meta")
	m, ok := meta.(map[string]any)
	require.True(t, ok)
	counts, ok := m["counts"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 120.0, counts["words"])
}

func TestExtract_DuplicateKeysKeepLast(t *testing.T) {
	doc := []byte("---\nname: first\nname: second\n---\n")
	res := Extract(doc)
	if !res.Present {
		// yaml.v3 may reject duplicate mapping keys outright; degrading to
		// absent is the documented behavior for undecodable blocks.
		assert.Equal(t, string(doc), res.Body)
		return
	}
	assert.Equal(t, []string{"name"}, res.Data.Keys)
	name, _ := res.Data.Get("name")
	assert.Equal(t, "second", name)
}

func TestExtract_EmptyDocument(t *testing.T) {
	res := Extract(nil)
	assert.False(t, res.Present)
	assert.Equal(t, "", res.Body)
}

func TestExtract_FrontMatterOnly(t *testing.T) {
	doc := []byte("---\nname: solo\n---")
	res := Extract(doc)
	require.True(t, res.Present)
	assert.Equal(t, "", res.Body)
}
