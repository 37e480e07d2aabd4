package shape

import (
	"fmt"

	"github.com/scribeworks/mdforge/api"
)

// AlignmentError names the pair of structures that failed to match and the
// first path where they diverge, so the operator can fix the schema or the
// template without extra instrumentation.
type AlignmentError struct {
	Pair string // "data/schema" or "schema/template"
	Path string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("structural alignment failed between %s at %s", e.Pair, e.Path)
}

// ValidateAlignment analyzes the shapes of collected data, the schema, and
// the parsed template, and requires all three to be identical. The check is
// binary: any key, array-homogeneity, or primitive-kind drift at any depth
// fails, identifying the first mismatching pair.
func ValidateAlignment(data any, schema *api.Schema, template any) error {
	dataNode, err := AnalyzeValue(data)
	if err != nil {
		return fmt.Errorf("analyze data: %w", err)
	}
	schemaNode, err := AnalyzeSchema(schema)
	if err != nil {
		return fmt.Errorf("analyze schema: %w", err)
	}
	templateNode, err := AnalyzeTemplate(template)
	if err != nil {
		return fmt.Errorf("analyze template: %w", err)
	}

	if !Equal(dataNode, schemaNode) {
		return &AlignmentError{Pair: "data/schema", Path: orRoot(firstMismatch(dataNode, schemaNode, ""))}
	}
	if !Equal(schemaNode, templateNode) {
		return &AlignmentError{Pair: "schema/template", Path: orRoot(firstMismatch(schemaNode, templateNode, ""))}
	}
	return nil
}
