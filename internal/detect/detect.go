// Package detect classifies the dataset shape a schema describes: a keyed
// registry of named entries, a homogeneous collection, or a custom nested
// shape. The x-frontmatter-part directive always wins; pattern and type based
// inference are fallbacks. Detection is total and never errors.
package detect

import (
	"regexp"

	"github.com/scribeworks/mdforge/api"
)

// StructureKind tags a StructureType.
type StructureKind int

const (
	Registry StructureKind = iota
	Collection
	Custom
)

func (k StructureKind) String() string {
	switch k {
	case Registry:
		return "registry"
	case Collection:
		return "collection"
	case Custom:
		return "custom"
	}
	return "unknown"
}

// StructureType is the detected dataset shape. Path carries the collection
// field for Collection and the declaring path for Custom; it is empty for
// Registry. Immutable once produced; hints are derived from it, never stored
// back onto it.
type StructureType struct {
	Kind StructureKind
	Path string
}

// Config tunes the pattern fallback. MinMatches is deliberately configuration,
// not a constant: ambiguous schemas are resolved by the operator.
type Config struct {
	// SequentialPatterns match numbered field families like c1, c2, c3.
	SequentialPatterns []string
	// NamedPatterns are registry-like property names (commands, tools, ...).
	NamedPatterns []string
	// CustomPatterns are operator-supplied regular expressions.
	CustomPatterns []string
	// MinMatches is the minimum number of matching properties for the
	// pattern fallback to classify a schema as Registry.
	MinMatches int
}

// DefaultConfig mirrors the shipped pattern set.
func DefaultConfig() Config {
	return Config{
		SequentialPatterns: []string{`^c\d+$`},
		NamedPatterns:      []string{"commands", "tools", "entries"},
		MinMatches:         2,
	}
}

// Detector classifies schemas. Construct with NewDetector; the zero value has
// no patterns and only the directive and default paths fire.
type Detector struct {
	cfg        Config
	sequential []*regexp.Regexp
	custom     []*regexp.Regexp
	named      map[string]struct{}
}

// NewDetector compiles the configured patterns. Invalid regular expressions
// are skipped: detection must stay total, so a bad pattern narrows the
// fallback instead of failing it.
func NewDetector(cfg Config) *Detector {
	d := &Detector{cfg: cfg, named: make(map[string]struct{}, len(cfg.NamedPatterns))}
	for _, p := range cfg.SequentialPatterns {
		if re, err := regexp.Compile(p); err == nil {
			d.sequential = append(d.sequential, re)
		}
	}
	for _, p := range cfg.CustomPatterns {
		if re, err := regexp.Compile(p); err == nil {
			d.custom = append(d.custom, re)
		}
	}
	for _, n := range cfg.NamedPatterns {
		d.named[n] = struct{}{}
	}
	return d
}

// Detect returns exactly one StructureType for any schema. First match wins:
// the x-frontmatter-part directive, the property-name pattern fallback,
// property-type inference, then the generic Collection default.
func (d *Detector) Detect(s *api.Schema) StructureType {
	if t, ok := d.detectFromDirective(s); ok {
		return t
	}
	if t, ok := d.detectFromPatterns(s); ok {
		return t
	}
	if t, ok := d.detectFromTypes(s); ok {
		return t
	}
	return StructureType{Kind: Collection, Path: "items"}
}

// detectFromDirective classifies by the x-frontmatter-part path shape: a part
// naming a top-level array is a Collection, a part pointing inside a
// registry-named object is a Registry, anything else is Custom.
func (d *Detector) detectFromDirective(s *api.Schema) (StructureType, bool) {
	raw, declaredAt, ok := s.FindExtension("x-frontmatter-part")
	if !ok {
		return StructureType{}, false
	}
	part, ok := raw.(string)
	if !ok || part == "" {
		// Malformed marker: fall through to the other strategies.
		return StructureType{}, false
	}

	target := s.Properties[part]
	if declaredAt == "" && target != nil {
		switch {
		case target.Type == "array":
			return StructureType{Kind: Collection, Path: part}, true
		case d.isRegistryName(part) && target.Type == "object":
			return StructureType{Kind: Registry}, true
		}
	}
	if d.isRegistryName(part) || d.isRegistryName(lastSegment(declaredAt)) {
		return StructureType{Kind: Registry}, true
	}
	return StructureType{Kind: Custom, Path: joinPath(declaredAt, part)}, true
}

// detectFromTypes infers structure from property types. An array-typed
// property whose key matches a configured pattern classifies Registry, so all
// arrays are scanned before falling back to the first array as a Collection.
func (d *Detector) detectFromTypes(s *api.Schema) (StructureType, bool) {
	keys := s.PropertyKeys()
	firstArray := ""
	for _, key := range keys {
		if s.Properties[key].Type != "array" {
			continue
		}
		if d.matchesAny(key) {
			return StructureType{Kind: Registry}, true
		}
		if firstArray == "" {
			firstArray = key
		}
	}
	if firstArray != "" {
		return StructureType{Kind: Collection, Path: firstArray}, true
	}
	for _, key := range keys {
		if s.Properties[key].Type == "object" && d.matchesAny(key) {
			return StructureType{Kind: Custom, Path: key}, true
		}
	}
	return StructureType{}, false
}

func (d *Detector) isRegistryName(name string) bool {
	_, ok := d.named[name]
	return ok
}

func (d *Detector) matchesAny(key string) bool {
	if d.isRegistryName(key) {
		return true
	}
	for _, re := range d.sequential {
		if re.MatchString(key) {
			return true
		}
	}
	for _, re := range d.custom {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
