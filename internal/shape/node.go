// Package shape builds recursive structure descriptors for YAML/JSON data,
// JSON Schema nodes, and parsed templates, and proves the three identical
// before any template substitution happens. The comparison is deliberately
// exact: no optional-field tolerance, no fuzzy matching.
package shape

import "sort"

// Kind classifies a structure node.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
)

// Node is a recursive shape descriptor. Children is set for objects, Element
// for arrays. Nodes are never mutated after construction.
type Node struct {
	Path     string
	Kind     Kind
	Children map[string]*Node
	Element  *Node
}

// ChildKeys returns the object's keys in sorted order.
func (n *Node) ChildKeys() []string {
	keys := make([]string, 0, len(n.Children))
	for k := range n.Children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether two nodes describe the same shape. Primitive values
// are irrelevant: two string nodes are equal regardless of content. Objects
// need identical key sets with pairwise-equal children; arrays need equal
// element shapes (or both absent, for empty arrays).
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindObject:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for key, ac := range a.Children {
			bc, ok := b.Children[key]
			if !ok || !Equal(ac, bc) {
				return false
			}
		}
		return true
	case KindArray:
		return Equal(a.Element, b.Element)
	default:
		return true
	}
}

// firstMismatch walks two nodes in parallel and returns the path of the first
// structural difference, for error reporting. Returns "" when equal.
func firstMismatch(a, b *Node, path string) string {
	if a == nil || b == nil {
		if a == b {
			return ""
		}
		return orRoot(path)
	}
	if a.Kind != b.Kind {
		return orRoot(path)
	}
	switch a.Kind {
	case KindObject:
		keys := make(map[string]struct{}, len(a.Children)+len(b.Children))
		for k := range a.Children {
			keys[k] = struct{}{}
		}
		for k := range b.Children {
			keys[k] = struct{}{}
		}
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)
		for _, k := range sorted {
			ac, aok := a.Children[k]
			bc, bok := b.Children[k]
			child := joinPath(path, k)
			if !aok || !bok {
				return child
			}
			if m := firstMismatch(ac, bc, child); m != "" {
				return m
			}
		}
		return ""
	case KindArray:
		return firstMismatch(a.Element, b.Element, path+"[]")
	default:
		return ""
	}
}

func orRoot(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
