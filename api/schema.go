package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Schema is one node of a parsed JSON Schema document. Only the keywords the
// pipeline reads are modeled; every "x-*" key on the node is collected into
// Extensions verbatim.
type Schema struct {
	// Type is the JSON Schema "type" keyword (object, array, string, ...).
	Type string
	// Description of the node, carried through to extracted extensions.
	Description string
	// Properties of an object-typed node.
	Properties map[string]*Schema
	// Items of an array-typed node.
	Items *Schema
	// Required property names of an object-typed node.
	Required []string
	// Default value for the node, if the schema declares one.
	Default any
	// Extensions holds the raw values of all x-* directive keys on this node.
	Extensions map[string]any
}

// ParseSchema decodes a JSON Schema document into a Schema tree.
func ParseSchema(data []byte) (*Schema, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schema json: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema root is %T, want object", raw)
	}
	return buildSchema(obj), nil
}

func buildSchema(obj map[string]any) *Schema {
	s := &Schema{}
	for key, val := range obj {
		switch key {
		case "type":
			if t, ok := val.(string); ok {
				s.Type = t
			}
		case "description":
			if d, ok := val.(string); ok {
				s.Description = d
			}
		case "default":
			s.Default = val
		case "required":
			if list, ok := val.([]any); ok {
				for _, r := range list {
					if name, ok := r.(string); ok {
						s.Required = append(s.Required, name)
					}
				}
			}
		case "properties":
			props, ok := val.(map[string]any)
			if !ok {
				continue
			}
			s.Properties = make(map[string]*Schema, len(props))
			for name, child := range props {
				if childObj, ok := child.(map[string]any); ok {
					s.Properties[name] = buildSchema(childObj)
				} else {
					s.Properties[name] = &Schema{}
				}
			}
		case "items":
			if childObj, ok := val.(map[string]any); ok {
				s.Items = buildSchema(childObj)
			}
		default:
			if strings.HasPrefix(key, "x-") {
				if s.Extensions == nil {
					s.Extensions = make(map[string]any)
				}
				s.Extensions[key] = val
			}
		}
	}
	return s
}

// PropertyKeys returns the node's property names in sorted order.
// Map iteration order is not deterministic; every traversal sorts.
func (s *Schema) PropertyKeys() []string {
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extension returns the raw value of an x-* key on this node.
func (s *Schema) Extension(name string) (any, bool) {
	v, ok := s.Extensions[name]
	return v, ok
}

// frame is one entry of the explicit traversal stack used by Walk.
type frame struct {
	path string
	node *Schema
}

// Walk visits every node depth-first, parents before children, calling fn with
// the dotted property path ("" for the root). Returning false stops the walk.
// The traversal uses an explicit stack so recursion depth is bounded by the
// schema size, not the goroutine stack.
func (s *Schema) Walk(fn func(path string, node *Schema) bool) {
	stack := []frame{{path: "", node: s}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(top.path, top.node) {
			return
		}
		if top.node.Items != nil {
			stack = append(stack, frame{path: joinPath(top.path, "items"), node: top.node.Items})
		}
		// Push properties in reverse-sorted order so they pop sorted.
		keys := top.node.PropertyKeys()
		for i := len(keys) - 1; i >= 0; i-- {
			k := keys[i]
			stack = append(stack, frame{path: joinPath(top.path, k), node: top.node.Properties[k]})
		}
	}
}

// FindExtension locates the first node (depth-first) carrying the named x-*
// key and returns its value together with the node's dotted path.
func (s *Schema) FindExtension(name string) (value any, path string, ok bool) {
	s.Walk(func(p string, node *Schema) bool {
		if v, present := node.Extensions[name]; present {
			value, path, ok = v, p, true
			return false
		}
		return true
	})
	return value, path, ok
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
