package shape

import (
	"fmt"

	"github.com/scribeworks/mdforge/api"
)

// ValidationError reports a value that cannot be given a shape, such as an
// array whose elements disagree structurally.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("structure at %s: %s", orRoot(e.Path), e.Message)
}

// AnalyzeValue builds the shape of decoded YAML/JSON data. Arrays must be
// homogeneous: every element is required to share the first element's shape,
// and the first offender is reported by index.
func AnalyzeValue(v any) (*Node, error) {
	return analyzeValue(v, "")
}

func analyzeValue(v any, path string) (*Node, error) {
	switch val := v.(type) {
	case nil:
		return &Node{Path: path, Kind: KindNull}, nil
	case bool:
		return &Node{Path: path, Kind: KindBoolean}, nil
	case string:
		return &Node{Path: path, Kind: KindString}, nil
	case float64, float32, int, int64, uint64:
		return &Node{Path: path, Kind: KindNumber}, nil
	case []any:
		node := &Node{Path: path, Kind: KindArray}
		if len(val) == 0 {
			return node, nil
		}
		first, err := analyzeValue(val[0], path+"[0]")
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(val); i++ {
			el, err := analyzeValue(val[i], fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			if !Equal(first, el) {
				return nil, &ValidationError{
					Path:    path,
					Message: fmt.Sprintf("heterogeneous array: element %d does not match element 0", i),
				}
			}
		}
		node.Element = first
		return node, nil
	case map[string]any:
		node := &Node{Path: path, Kind: KindObject, Children: make(map[string]*Node, len(val))}
		for key, child := range val {
			cn, err := analyzeValue(child, joinPath(path, key))
			if err != nil {
				return nil, err
			}
			node.Children[key] = cn
		}
		return node, nil
	default:
		return nil, &ValidationError{Path: path, Message: fmt.Sprintf("unsupported value type %T", v)}
	}
}

// AnalyzeSchema builds the shape a JSON Schema node describes, reading
// type/properties/items rather than literal values.
func AnalyzeSchema(s *api.Schema) (*Node, error) {
	return analyzeSchema(s, "")
}

func analyzeSchema(s *api.Schema, path string) (*Node, error) {
	if s == nil {
		return nil, &ValidationError{Path: path, Message: "nil schema node"}
	}
	switch s.Type {
	case "object":
		node := &Node{Path: path, Kind: KindObject, Children: make(map[string]*Node, len(s.Properties))}
		for _, key := range s.PropertyKeys() {
			cn, err := analyzeSchema(s.Properties[key], joinPath(path, key))
			if err != nil {
				return nil, err
			}
			node.Children[key] = cn
		}
		return node, nil
	case "array":
		node := &Node{Path: path, Kind: KindArray}
		if s.Items != nil {
			el, err := analyzeSchema(s.Items, path+"[]")
			if err != nil {
				return nil, err
			}
			node.Element = el
		}
		return node, nil
	case "string":
		return &Node{Path: path, Kind: KindString}, nil
	case "number", "integer":
		return &Node{Path: path, Kind: KindNumber}, nil
	case "boolean":
		return &Node{Path: path, Kind: KindBoolean}, nil
	case "null":
		return &Node{Path: path, Kind: KindNull}, nil
	case "":
		// Untyped nodes with properties are treated as objects, matching how
		// hand-written schemas commonly omit "type": "object".
		if len(s.Properties) > 0 {
			typed := *s
			typed.Type = "object"
			return analyzeSchema(&typed, path)
		}
		return nil, &ValidationError{Path: path, Message: "schema node has no type"}
	default:
		return nil, &ValidationError{Path: path, Message: fmt.Sprintf("unsupported schema type %q", s.Type)}
	}
}

// AnalyzeTemplate builds the shape of a parsed template value. Placeholders
// are plain strings after parsing, so a template mirrors its output shape.
func AnalyzeTemplate(v any) (*Node, error) {
	return analyzeValue(v, "")
}
