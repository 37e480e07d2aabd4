package pipeline

import (
	"fmt"

	"github.com/scribeworks/mdforge/api"
	"github.com/scribeworks/mdforge/internal/detect"
)

// aggregate folds the per-document data into a single dataset and runs every
// present directive through its handler in dependency order.
func (c *Coordinator) aggregate(schema *api.Schema, st detect.StructureType, docs []map[string]any) (map[string]any, error) {
	data := buildBase(schema, st, docs)

	directives, err := c.registry.ExtractDirectives(schema)
	if err != nil {
		return nil, fmt.Errorf("extract directives: %w", err)
	}
	order, err := c.registry.ProcessingOrder()
	if err != nil {
		return nil, fmt.Errorf("order handlers: %w", err)
	}

	byName := make(map[string][]int, len(directives))
	for i, d := range directives {
		byName[d.Name] = append(byName[d.Name], i)
	}

	for _, h := range order {
		for _, i := range byName[h.Name()] {
			d := directives[i]
			updated, meta, err := h.ProcessData(data, d)
			if err != nil {
				return nil, err
			}
			data = updated
			if count, ok := meta["count"]; ok {
				c.logger.Debug("directive applied",
					"directive", d.Name, "target", d.Target, "count", count)
			}
		}
	}
	return data, nil
}

// buildBase assembles the aggregation root for the detected structure: a
// list-valued collection field, a name-keyed registry map, or a custom list.
func buildBase(schema *api.Schema, st detect.StructureType, docs []map[string]any) map[string]any {
	switch st.Kind {
	case detect.Registry:
		entries := make(map[string]any, len(docs))
		for i, doc := range docs {
			entries[registryKey(doc, i)] = doc
		}
		return map[string]any{registryField(schema): entries}
	case detect.Custom:
		field := st.Path
		if field == "" {
			field = "items"
		}
		return map[string]any{field: docList(docs)}
	default:
		return map[string]any{st.Path: docList(docs)}
	}
}

func docList(docs []map[string]any) []any {
	list := make([]any, len(docs))
	for i, d := range docs {
		list[i] = d
	}
	return list
}

// registryField picks the field name holding registry entries: the declared
// x-frontmatter-part when present, otherwise "entries".
func registryField(schema *api.Schema) string {
	if raw, _, ok := schema.FindExtension("x-frontmatter-part"); ok {
		if s, ok := raw.(string); ok && s != "" {
			return s
		}
	}
	return "entries"
}

// registryKey derives the entry key for a document: its name or id field,
// falling back to the document's position.
func registryKey(doc map[string]any, index int) string {
	for _, field := range []string{"name", "id"} {
		if v, ok := doc[field].(string); ok && v != "" {
			return v
		}
	}
	return fmt.Sprintf("entry-%d", index)
}

// populateBaseProperties fills top-level schema properties that declare a
// default and are still absent after aggregation. Stage 5 of the pipeline.
func populateBaseProperties(schema *api.Schema, data map[string]any) {
	for _, key := range schema.PropertyKeys() {
		prop := schema.Properties[key]
		if prop.Default == nil {
			continue
		}
		if _, present := data[key]; !present {
			data[key] = prop.Default
		}
	}
}
