package directive

import "fmt"

// Directive is one extracted x-* annotation: the directive name, the schema
// property it was found on, and its typed configuration. Immutable once
// extracted; consumed once by its handler.
type Directive struct {
	Name    string
	Target  string // property key the directive was declared on
	Config  any    // typed per kind, nil when not present
	Present bool
}

// PartConfig configures x-frontmatter-part: the field holding per-document data.
type PartConfig struct {
	Path string
}

// PatternConfig configures x-collect-pattern: a property-name glob collected
// from each document into a list on the target field.
type PatternConfig struct {
	Pattern string
}

// FlattenConfig configures x-flatten-arrays on a target field.
type FlattenConfig struct {
	Enabled bool
}

// DerivedConfig configures x-derived-from and the counting/averaging variants.
// Source is a property path evaluated against the aggregated dataset.
type DerivedConfig struct {
	Source  string
	Unique  bool
	Flatten bool
}

// CountWhereConfig configures x-derived-count-where.
type CountWhereConfig struct {
	From  string
	Where string // "path == literal" comparison applied per element
}

// FilterConfig configures x-jmespath-filter: a path expression whose result
// replaces the target field.
type FilterConfig struct {
	Expression string
}

// TemplateConfig carries the string value of the three template directives.
type TemplateConfig struct {
	Value string
}

// Meta is handler-specific metadata returned by ProcessData, e.g. the number
// of values collected by x-derived-from.
type Meta map[string]any

// ConfigError reports a missing or malformed directive configuration. Always
// fatal to the operation that raised it.
type ConfigError struct {
	Directive string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("directive %s: %s", e.Directive, e.Reason)
}

// ProcessingError reports a handler that failed to transform data. The
// registry never swallows these; they propagate to the handler's caller.
type ProcessingError struct {
	Directive string
	Target    string
	Err       error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("directive %s on %q: %v", e.Directive, e.Target, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Handler owns the semantics of one directive kind. Handlers are stateless;
// all per-invocation state travels in the Directive.
type Handler interface {
	// Kind identifies the directive this handler owns.
	Kind() Kind
	// Name is the schema key, always Kind().Name().
	Name() string
	// Priority orders handlers when dependencies leave a tie. Lower runs first.
	Priority() int
	// Dependencies lists directive names that must be processed before this one.
	Dependencies() []string
	// ExtractConfig converts a raw schema value into a typed Directive.
	// A nil raw value is absence, a normal state: the returned Directive has
	// Present=false and no error. Only malformed present values error.
	ExtractConfig(target string, raw any) (Directive, error)
	// ProcessData applies the directive to the aggregated dataset, returning
	// the updated dataset and handler-specific metadata.
	ProcessData(data map[string]any, d Directive) (map[string]any, Meta, error)
	// Extension renders the directive back to a (key, value) extension pair
	// for schema-migration use. ok is false when the directive is absent.
	Extension(d Directive) (key string, value any, ok bool)
}
