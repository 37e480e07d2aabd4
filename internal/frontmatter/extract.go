// Package frontmatter splits Markdown documents into their front-matter
// block and body. The extractor never propagates a parse failure: anything it
// cannot parse degrades to an absent result carrying the original content.
package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Data is an order-preserving field map: Keys holds the declaration order,
// Fields the decoded values.
type Data struct {
	Keys   []string
	Fields map[string]any
}

// Get returns a field value.
func (d *Data) Get(key string) (any, bool) {
	v, ok := d.Fields[key]
	return v, ok
}

// Map returns the fields as a plain map. The map is a deep copy: extraction
// results are shared through the cache, so every caller gets independently
// owned data it may mutate freely.
func (d *Data) Map() map[string]any {
	out := make(map[string]any, len(d.Fields))
	for k, v := range d.Fields {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, c := range val {
			out[k] = copyValue(c)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, c := range val {
			out[i] = copyValue(c)
		}
		return out
	default:
		return v
	}
}

// Result is the tagged extraction outcome: Present with front matter and
// body, or Absent with the body alone.
type Result struct {
	Present bool
	Data    *Data
	Body    string
}

// Extract parses the leading front-matter block of a document. YAML between
// --- fences is the primary form; a bare JSON object block opening the
// document is the other, parsed through the same decoder since YAML is a
// JSON superset. Malformed blocks degrade to Absent{Body: original}.
func Extract(raw []byte) Result {
	content := string(raw)
	absent := Result{Body: content}

	if strings.HasPrefix(content, "{") {
		return extractJSONBlock(content)
	}

	rest, ok := strings.CutPrefix(content, delimiter)
	if !ok {
		return absent
	}
	// The opening fence must end its line.
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 || strings.TrimSpace(rest[:nl]) != "" {
		return absent
	}
	rest = rest[nl+1:]

	block, body, found := cutClosingFence(rest)
	if !found {
		return absent
	}

	data, err := decodeOrdered([]byte(block))
	if err != nil || data == nil {
		return absent
	}
	return Result{Present: true, Data: data, Body: body}
}

// extractJSONBlock handles a document opening with a bare JSON object. The
// block ends at the first line whose trailing character closes the object and
// decodes as a mapping; everything after that line is the body.
func extractJSONBlock(content string) Result {
	absent := Result{Body: content}
	offset := 0
	for {
		nl := strings.IndexByte(content[offset:], '\n')
		lineEnd := len(content)
		if nl >= 0 {
			lineEnd = offset + nl
		}
		if strings.HasSuffix(strings.TrimSpace(content[offset:lineEnd]), "}") {
			if data, err := decodeOrdered([]byte(content[:lineEnd])); err == nil && data != nil {
				body := ""
				if nl >= 0 {
					body = content[lineEnd+1:]
				}
				return Result{Present: true, Data: data, Body: body}
			}
		}
		if nl < 0 {
			return absent
		}
		offset = lineEnd + 1
	}
}

// cutClosingFence finds the next line consisting of the fence delimiter.
func cutClosingFence(s string) (block, body string, found bool) {
	offset := 0
	for {
		idx := strings.Index(s[offset:], "\n"+delimiter)
		if idx < 0 {
			return "", "", false
		}
		lineStart := offset + idx + 1
		lineEnd := strings.IndexByte(s[lineStart:], '\n')
		var line string
		if lineEnd < 0 {
			line = s[lineStart:]
		} else {
			line = s[lineStart : lineStart+lineEnd]
		}
		if strings.TrimSpace(line) == delimiter {
			block = s[:offset+idx+1]
			if lineEnd < 0 {
				return block, "", true
			}
			return block, s[lineStart+lineEnd+1:], true
		}
		offset = lineStart
	}
}

// decodeOrdered decodes a YAML mapping keeping key order via the yaml.Node
// API. Non-mapping front matter (a bare list or scalar) is rejected.
func decodeOrdered(block []byte) (*Data, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty front matter")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter is not a mapping")
	}
	data := &Data{Fields: make(map[string]any, len(root.Content)/2)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, err
		}
		var val any
		if err := valNode.Decode(&val); err != nil {
			return nil, err
		}
		if _, dup := data.Fields[key]; !dup {
			data.Keys = append(data.Keys, key)
		}
		data.Fields[key] = normalize(val)
	}
	return data, nil
}

// normalize rewrites yaml.v3 container types into the string-keyed maps and
// float numbers the rest of the pipeline compares against JSON-decoded data.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, c := range val {
			out[k] = normalize(c)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, c := range val {
			out[fmt.Sprintf("%v", k)] = normalize(c)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, c := range val {
			out[i] = normalize(c)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return v
	}
}
