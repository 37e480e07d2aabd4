package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"
)

// quotedPlaceholder matches a placeholder that spans an entire quoted string,
// e.g. "{{count}}". Those are replaced with the JSON encoding of the value so
// numbers and lists survive substitution with their type intact.
var (
	quotedPlaceholder = regexp.MustCompile(`"\{\{\s*([^{}"]+?)\s*\}\}"`)
	barePlaceholder   = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
)

// Substitute replaces {{path}} placeholders in the template with values from
// data. Paths are property paths evaluated against the data root. Unresolved
// placeholders are an error: a template/data drift that alignment should have
// caught is never papered over silently.
func Substitute(template string, data any) (string, error) {
	var firstErr error
	out := quotedPlaceholder.ReplaceAllStringFunc(template, func(m string) string {
		path := quotedPlaceholder.FindStringSubmatch(m)[1]
		v, err := lookup(data, path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return oj.JSON(v, &oj.Options{Sort: true})
	})
	out = barePlaceholder.ReplaceAllStringFunc(out, func(m string) string {
		path := barePlaceholder.FindStringSubmatch(m)[1]
		v, err := lookup(data, path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return scalarString(v)
	})
	return out, firstErr
}

// SubstituteItems applies the main template once per item of the named
// collection, returning the rendered pieces in item order.
func SubstituteItems(template string, items []any) ([]string, error) {
	out := make([]string, 0, len(items))
	for i, item := range items {
		rendered, err := Substitute(template, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, rendered)
	}
	return out, nil
}

func lookup(data any, path string) (any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("placeholder path %q: %w", path, err)
	}
	results := expr.Get(data)
	if len(results) == 0 {
		return nil, fmt.Errorf("placeholder %q resolves to nothing", path)
	}
	return results[0], nil
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		// Render integral floats without the trailing .0 that JSON decoding
		// gives every number.
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseTemplateValue parses template content into a value for structural
// analysis. JSON parses via ojg, YAML via yaml.v3; markdown and xml templates
// have no structural form and analyze as plain strings.
func ParseTemplateValue(content, format string) (any, error) {
	switch format {
	case "json":
		v, err := oj.ParseString(content)
		if err != nil {
			return nil, fmt.Errorf("parse json template: %w", err)
		}
		return normalize(v), nil
	case "yaml":
		var v any
		if err := yaml.Unmarshal([]byte(content), &v); err != nil {
			return nil, fmt.Errorf("parse yaml template: %w", err)
		}
		return normalizeYAML(v), nil
	default:
		return content, nil
	}
}

// RenderArtifact turns substituted output into its final textual form. For
// json and yaml the substituted text is reparsed and re-emitted so the
// artifact is canonical; markdown and xml pass through.
func RenderArtifact(substituted, format string) (string, error) {
	switch format {
	case "json":
		v, err := oj.ParseString(substituted)
		if err != nil {
			return "", fmt.Errorf("substituted output is not valid json: %w", err)
		}
		return oj.JSON(v, &oj.Options{Sort: true, Indent: 2}) + "\n", nil
	case "yaml":
		var v any
		if err := yaml.Unmarshal([]byte(substituted), &v); err != nil {
			return "", fmt.Errorf("substituted output is not valid yaml: %w", err)
		}
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("marshal yaml artifact: %w", err)
		}
		return string(out), nil
	default:
		if !strings.HasSuffix(substituted, "\n") {
			substituted += "\n"
		}
		return substituted, nil
	}
}

// normalize converts ojg generic containers into the map[string]any / []any
// forms the rest of the pipeline uses.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, c := range val {
			out[k] = normalize(c)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, c := range val {
			out[i] = normalize(c)
		}
		return out
	case int64:
		return float64(val)
	default:
		return v
	}
}

// normalizeYAML converts yaml.v3 map[any]any containers to string-keyed maps.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, c := range val {
			out[k] = normalizeYAML(c)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, c := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(c)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, c := range val {
			out[i] = normalizeYAML(c)
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
