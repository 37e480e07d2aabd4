package pipeline

import (
	"fmt"

	"github.com/scribeworks/mdforge/api"
	"github.com/scribeworks/mdforge/internal/detect"
	"github.com/scribeworks/mdforge/internal/directive"
	"github.com/scribeworks/mdforge/internal/frontmatter"
)

// ValidationError reports a document that violates the adjusted rules, or a
// whole-run structural failure. Fatal to the operation it occurs in; shared
// state stays intact and the caller may re-run after fixing input.
type ValidationError struct {
	Path    string // document path, "" for run-level failures
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("validation: %s", e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation %s: field %q %s", e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("validation %s: %s", e.Path, e.Message)
}

// rules is the adjusted per-document validation rule set produced by Stage 1.
type rules struct {
	required []string
	types    map[string]string // field -> expected JSON type
}

// adjustRules derives per-document validation rules from the schema and the
// detected structure. Fields computed at aggregation time (targets of derived
// directives) are removed from the per-document requirements: documents never
// carry them, the pipeline does.
func adjustRules(schema *api.Schema, reg *directive.Registry, st detect.StructureType, hints detect.ProcessingHints) (rules, error) {
	r := rules{types: make(map[string]string)}

	doc := documentSchema(schema, st)
	if doc == nil {
		return r, nil
	}

	directives, err := reg.ExtractDirectives(schema)
	if err != nil {
		return rules{}, fmt.Errorf("adjust validation rules: %w", err)
	}
	derived := make(map[string]struct{})
	for _, d := range directives {
		for _, rule := range hints.DerivationRules {
			if d.Name == rule {
				derived[d.Target] = struct{}{}
			}
		}
	}

	for _, name := range doc.Required {
		if _, isDerived := derived[name]; isDerived {
			continue
		}
		r.required = append(r.required, name)
	}
	for _, key := range doc.PropertyKeys() {
		if t := doc.Properties[key].Type; t != "" {
			r.types[key] = t
		}
	}
	return r, nil
}

// documentSchema locates the schema node describing a single document: the
// items of the collection field, or the schema of the part object.
func documentSchema(schema *api.Schema, st detect.StructureType) *api.Schema {
	switch st.Kind {
	case detect.Collection:
		if prop, ok := schema.Properties[st.Path]; ok && prop.Items != nil {
			return prop.Items
		}
	case detect.Custom:
		if prop, ok := schema.Properties[st.Path]; ok {
			return prop
		}
	}
	// Registry, or a collection field the schema does not model: documents
	// validate against the root object's scalar properties.
	return schema
}

// validateDocument checks extracted front matter against the adjusted rules.
func validateDocument(path string, data *frontmatter.Data, r rules) error {
	for _, field := range r.required {
		if _, ok := data.Get(field); !ok {
			return &ValidationError{Path: path, Field: field, Message: "is required"}
		}
	}
	for field, want := range r.types {
		v, ok := data.Get(field)
		if !ok {
			continue
		}
		if got := jsonType(v); !typeMatches(got, want) {
			return &ValidationError{
				Path:    path,
				Field:   field,
				Message: fmt.Sprintf("has type %s, schema wants %s", got, want),
			}
		}
	}
	return nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, float32, int, int64, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}

func typeMatches(got, want string) bool {
	if want == "integer" {
		return got == "number"
	}
	return got == want
}
