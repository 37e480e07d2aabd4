package directive

import (
	"fmt"
	"sort"

	"github.com/scribeworks/mdforge/api"
)

// Registry holds the registered handlers. It is an explicit value passed to
// its consumers, never a package-level singleton, so tests stay independent.
type Registry struct {
	handlers map[string]Handler
	names    []string // registration order
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// NewDefaultRegistry registers one handler for every directive kind.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, k := range Kinds() {
		if err := r.Register(handlerFor(k)); err != nil {
			// Duplicate kinds in the closed enumeration are a programming
			// error, not a runtime condition.
			panic(err)
		}
	}
	return r
}

// Register adds a handler. A name collision is a configuration error.
func (r *Registry) Register(h Handler) error {
	name := h.Name()
	if _, dup := r.handlers[name]; dup {
		return &ConfigError{Directive: name, Reason: "handler already registered"}
	}
	r.handlers[name] = h
	r.names = append(r.names, name)
	return nil
}

// Handler returns the handler registered under name.
func (r *Registry) Handler(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// ExtractAllExtensions applies every registered handler's extractor to a
// schema node, collecting the (key, value) pairs of directives that are
// present, plus the node's literal description. Malformed values are skipped;
// extension extraction serves schema migration and must not fail the caller.
func (r *Registry) ExtractAllExtensions(node *api.Schema) map[string]any {
	out := make(map[string]any)
	for _, name := range r.names {
		h := r.handlers[name]
		raw, present := node.Extension(name)
		if !present {
			continue
		}
		d, err := h.ExtractConfig("", raw)
		if err != nil || !d.Present {
			continue
		}
		if key, value, ok := h.Extension(d); ok {
			out[key] = value
		}
	}
	if node.Description != "" {
		out["description"] = node.Description
	}
	return out
}

// ExtractDirectives walks a schema subtree and extracts every present
// directive, keyed to the property it was declared on. Malformed present
// values are configuration errors.
func (r *Registry) ExtractDirectives(s *api.Schema) ([]Directive, error) {
	var out []Directive
	var firstErr error
	s.Walk(func(path string, node *api.Schema) bool {
		for _, name := range r.names {
			raw, present := node.Extension(name)
			if !present {
				continue
			}
			d, err := r.handlers[name].ExtractConfig(lastSegment(path), raw)
			if err != nil {
				firstErr = fmt.Errorf("at %q: %w", path, err)
				return false
			}
			if d.Present {
				out = append(out, d)
			}
		}
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// ProcessingOrder returns the handlers sorted so that every handler follows
// all of its declared dependencies, ties broken by ascending priority then
// name. A dependency cycle is a configuration error naming a participant.
func (r *Registry) ProcessingOrder() ([]Handler, error) {
	// Stable visit order: priority, then name.
	names := make([]string, len(r.names))
	copy(names, r.names)
	sort.Slice(names, func(i, j int) bool {
		hi, hj := r.handlers[names[i]], r.handlers[names[j]]
		if hi.Priority() != hj.Priority() {
			return hi.Priority() < hj.Priority()
		}
		return names[i] < names[j]
	})

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(names))
	order := make([]Handler, 0, len(names))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return &ConfigError{Directive: name, Reason: "dependency cycle through this handler"}
		}
		state[name] = visiting
		h := r.handlers[name]
		deps := make([]string, 0, len(h.Dependencies()))
		deps = append(deps, h.Dependencies()...)
		sort.Strings(deps)
		for _, dep := range deps {
			if _, known := r.handlers[dep]; !known {
				// Unregistered dependencies are skipped: a registry trimmed
				// to a subset of directives still orders consistently.
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, h)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}
