// Package directive implements the x-* schema directive catalogue: a closed
// set of directive kinds, one handler per kind, and a registry that extracts
// directive configuration from schema nodes and applies handlers to collected
// front-matter data in dependency order.
package directive

// Kind enumerates every supported x-* directive. The set is closed: adding a
// kind without a handler panics in handlerFor when the default registry is
// built, which the registry tests exercise for the full enumeration.
type Kind int

const (
	KindFrontmatterPart Kind = iota
	KindCollectPattern
	KindFlattenArrays
	KindDerivedFrom
	KindDerivedCount
	KindDerivedAverage
	KindDerivedCountWhere
	KindJMESPathFilter
	KindTemplate
	KindTemplateItems
	KindTemplateFormat

	kindCount // sentinel, keep last
)

var kindNames = [kindCount]string{
	KindFrontmatterPart:   "x-frontmatter-part",
	KindCollectPattern:    "x-collect-pattern",
	KindFlattenArrays:     "x-flatten-arrays",
	KindDerivedFrom:       "x-derived-from",
	KindDerivedCount:      "x-derived-count",
	KindDerivedAverage:    "x-derived-average",
	KindDerivedCountWhere: "x-derived-count-where",
	KindJMESPathFilter:    "x-jmespath-filter",
	KindTemplate:          "x-template",
	KindTemplateItems:     "x-template-items",
	KindTemplateFormat:    "x-template-format",
}

// Name returns the schema key for the kind (e.g. "x-derived-from").
func (k Kind) Name() string {
	if k < 0 || k >= kindCount {
		return "x-unknown"
	}
	return kindNames[k]
}

func (k Kind) String() string { return k.Name() }

// KindForName maps a schema key back to its Kind.
func KindForName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Kinds returns every directive kind, in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}
