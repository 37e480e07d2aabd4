package pipeline

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"github.com/scribeworks/mdforge/api"
	"github.com/scribeworks/mdforge/internal/detect"
	"github.com/scribeworks/mdforge/internal/render"
	"github.com/scribeworks/mdforge/internal/shape"
)

// writeArtifact resolves the schema's template directives, proves structural
// alignment, substitutes, and writes the rendered artifact. Any failure here
// is fatal: a run that cannot render its requested output did not succeed.
func (c *Coordinator) writeArtifact(req Request, schema *api.Schema, st detect.StructureType, result *Result) error {
	resolver := render.NewResolver(c.files.FS)
	if err := resolver.ExtractConfiguration(schema); err != nil {
		return err
	}
	if err := resolver.ResolveFiles(req.SchemaPath); err != nil {
		return err
	}
	main, err := resolver.MainTemplate()
	if err != nil {
		return err
	}
	itemsField, err := resolver.ItemsField()
	if err != nil {
		return err
	}
	format, err := resolver.OutputFormat()
	if err != nil {
		return err
	}

	data := result.AggregatedData
	if data == nil {
		data = buildBase(schema, st, result.ProcessedData)
		populateBaseProperties(schema, data)
	}

	// Alignment runs before any substitution, and only for formats whose
	// templates have a structural form.
	if format == "json" || format == "yaml" {
		tmplValue, err := render.ParseTemplateValue(main, format)
		if err != nil {
			return err
		}
		if itemsField != "" {
			if err := c.validateItemAlignment(schema, st, data, itemsField, tmplValue); err != nil {
				return err
			}
		} else if err := shape.ValidateAlignment(data, schema, tmplValue); err != nil {
			return err
		}
	}

	var substituted string
	if itemsField != "" {
		items, _ := data[itemsField].([]any)
		pieces, err := render.SubstituteItems(main, items)
		if err != nil {
			return err
		}
		substituted = joinPieces(pieces, format)
	} else {
		substituted, err = render.Substitute(main, data)
		if err != nil {
			return err
		}
	}

	artifact, err := render.RenderArtifact(substituted, format)
	if err != nil {
		return err
	}
	if err := util.WriteFile(c.files.FS, req.OutputPath, []byte(artifact), 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", req.OutputPath, err)
	}
	c.logger.Info("artifact written", "path", req.OutputPath, "format", format)
	return nil
}

// validateItemAlignment checks per-item templates: the first item's shape,
// the schema's per-document node, and the template must agree. An empty
// collection has nothing to misalign.
func (c *Coordinator) validateItemAlignment(schema *api.Schema, st detect.StructureType, data map[string]any, itemsField string, tmplValue any) error {
	items, ok := data[itemsField].([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	doc := documentSchema(schema, st)
	if doc == schema {
		// No per-document schema node to compare against; skip rather than
		// misreport the whole-schema shape as an item shape.
		return nil
	}
	return shape.ValidateAlignment(items[0], doc, tmplValue)
}

// joinPieces combines per-item renderings into a single artifact body. JSON
// pieces join into an array; everything else joins on blank lines.
func joinPieces(pieces []string, format string) string {
	if format == "json" {
		return "[" + strings.Join(pieces, ",") + "]"
	}
	return strings.Join(pieces, "\n\n")
}
