// Package render resolves the template directives of a schema into concrete
// template content and an output format, and performs the narrow placeholder
// substitution that turns aggregated data into the rendered artifact.
package render

import (
	"fmt"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/scribeworks/mdforge/api"
)

// ConfigError reports missing or malformed template directives.
type ConfigError struct {
	Directive string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("template configuration %s: %s", e.Directive, e.Reason)
}

// InitializationError reports a getter called before resolution. A programming
// error surfaced as a typed failure, not a crash.
type InitializationError struct {
	Getter string
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("%s called before template resolution", e.Getter)
}

// Configuration is the raw template directive set extracted from a schema.
type Configuration struct {
	MainTemplate  string
	ItemsTemplate string // names a data collection, not a file
	OutputFormat  string
}

// Resolved is the configuration after file resolution: concrete template
// content and a definite output format. Created once per run, read thereafter.
type Resolved struct {
	MainContent  string
	ItemsField   string
	OutputFormat string
}

var extensionFormats = map[string]string{
	".json": "json",
	".yml":  "yaml",
	".yaml": "yaml",
	".xml":  "xml",
	".md":   "markdown",
}

// Resolver turns template directives into resolved template content. Reads go
// through the injected filesystem so tests run against memfs.
type Resolver struct {
	fs       billy.Filesystem
	cfg      *Configuration
	resolved *Resolved
}

func NewResolver(fs billy.Filesystem) *Resolver {
	return &Resolver{fs: fs}
}

// ExtractConfiguration reads the template directives from the schema tree by
// depth-first key search, first match at any depth. A schema without
// x-template cannot render and is a configuration error.
func (r *Resolver) ExtractConfiguration(s *api.Schema) error {
	cfg := &Configuration{}
	if raw, _, ok := s.FindExtension("x-template"); ok {
		v, ok := raw.(string)
		if !ok || v == "" {
			return &ConfigError{Directive: "x-template", Reason: fmt.Sprintf("want non-empty string, got %T", raw)}
		}
		cfg.MainTemplate = v
	} else {
		return &ConfigError{Directive: "x-template", Reason: "missing"}
	}
	if raw, _, ok := s.FindExtension("x-template-items"); ok {
		if v, ok := raw.(string); ok {
			cfg.ItemsTemplate = v
		}
	}
	if raw, _, ok := s.FindExtension("x-template-format"); ok {
		v, ok := raw.(string)
		if !ok {
			return &ConfigError{Directive: "x-template-format", Reason: fmt.Sprintf("want string, got %T", raw)}
		}
		switch v {
		case "json", "yaml", "xml", "markdown":
			cfg.OutputFormat = v
		default:
			return &ConfigError{Directive: "x-template-format", Reason: fmt.Sprintf("unsupported format %q", v)}
		}
	}
	r.cfg = cfg
	return nil
}

// ResolveFiles turns the extracted configuration into concrete content.
// Inline template values are used as-is; file values resolve relative to the
// schema file's directory (absolute paths pass through) and are read from the
// filesystem. The output format follows the precedence: explicit directive,
// file-extension inference, default json.
func (r *Resolver) ResolveFiles(schemaPath string) error {
	if r.cfg == nil {
		return &InitializationError{Getter: "ResolveFiles"}
	}
	res := &Resolved{ItemsField: r.cfg.ItemsTemplate}

	main := r.cfg.MainTemplate
	if isInline(main) {
		res.MainContent = main
	} else {
		path := main
		if !filepath.IsAbs(path) && schemaPath != "" {
			path = filepath.Join(filepath.Dir(schemaPath), path)
		}
		content, err := util.ReadFile(r.fs, path)
		if err != nil {
			return &ConfigError{Directive: "x-template", Reason: fmt.Sprintf("read %s: %v", path, err)}
		}
		res.MainContent = string(content)
	}

	switch {
	case r.cfg.OutputFormat != "":
		res.OutputFormat = r.cfg.OutputFormat
	case !isInline(main):
		if f, ok := extensionFormats[strings.ToLower(filepath.Ext(main))]; ok {
			res.OutputFormat = f
		} else {
			res.OutputFormat = "json"
		}
	default:
		res.OutputFormat = "json"
	}

	r.resolved = res
	return nil
}

// MainTemplate returns the resolved main template content.
func (r *Resolver) MainTemplate() (string, error) {
	if r.resolved == nil {
		return "", &InitializationError{Getter: "MainTemplate"}
	}
	return r.resolved.MainContent, nil
}

// ItemsField returns the data collection named by x-template-items, or "".
// The per-item content is always the main template applied per item.
func (r *Resolver) ItemsField() (string, error) {
	if r.resolved == nil {
		return "", &InitializationError{Getter: "ItemsField"}
	}
	return r.resolved.ItemsField, nil
}

// OutputFormat returns the resolved output format.
func (r *Resolver) OutputFormat() (string, error) {
	if r.resolved == nil {
		return "", &InitializationError{Getter: "OutputFormat"}
	}
	return r.resolved.OutputFormat, nil
}

// isInline classifies a main-template value as inline content rather than a
// file path: template syntax markers, embedded newlines, or a leading #.
func isInline(value string) bool {
	return strings.Contains(value, "{{") ||
		strings.Contains(value, "{%") ||
		strings.Contains(value, "\n") ||
		strings.HasPrefix(value, "#")
}
