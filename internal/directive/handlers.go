package directive

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// handlerFor builds the handler owning a kind. The switch covers every Kind;
// an unhandled kind panics at registry construction, which the registry test
// exercises for the full enumeration.
func handlerFor(k Kind) Handler {
	switch k {
	case KindFrontmatterPart:
		return &partHandler{}
	case KindCollectPattern:
		return &collectHandler{}
	case KindFlattenArrays:
		return &flattenHandler{}
	case KindDerivedFrom:
		return &derivedFromHandler{}
	case KindDerivedCount:
		return &derivedCountHandler{}
	case KindDerivedAverage:
		return &derivedAverageHandler{}
	case KindDerivedCountWhere:
		return &countWhereHandler{}
	case KindJMESPathFilter:
		return &filterHandler{}
	case KindTemplate:
		return &templateHandler{kind: KindTemplate}
	case KindTemplateItems:
		return &templateHandler{kind: KindTemplateItems}
	case KindTemplateFormat:
		return &templateHandler{kind: KindTemplateFormat}
	case kindCount:
		panic("kindCount is not a directive")
	}
	panic(fmt.Sprintf("no handler for kind %d", k))
}

// absent is the shared not-present result.
func absent(k Kind, target string) Directive {
	return Directive{Name: k.Name(), Target: target}
}

func stringValue(k Kind, raw any) (string, error) {
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", &ConfigError{Directive: k.Name(), Reason: fmt.Sprintf("want non-empty string, got %T", raw)}
	}
	return s, nil
}

// --- x-frontmatter-part ---

type partHandler struct{}

func (h *partHandler) Kind() Kind             { return KindFrontmatterPart }
func (h *partHandler) Name() string           { return KindFrontmatterPart.Name() }
func (h *partHandler) Priority() int          { return 0 }
func (h *partHandler) Dependencies() []string { return nil }

func (h *partHandler) ExtractConfig(target string, raw any) (Directive, error) {
	if raw == nil {
		return absent(KindFrontmatterPart, target), nil
	}
	s, err := stringValue(KindFrontmatterPart, raw)
	if err != nil {
		return Directive{}, err
	}
	return Directive{Name: h.Name(), Target: target, Config: PartConfig{Path: s}, Present: true}, nil
}

// ProcessData is the identity: the part marker steers detection and
// aggregation, it does not transform data itself.
func (h *partHandler) ProcessData(data map[string]any, d Directive) (map[string]any, Meta, error) {
	cfg := d.Config.(PartConfig)
	return data, Meta{"part": cfg.Path}, nil
}

func (h *partHandler) Extension(d Directive) (string, any, bool) {
	if !d.Present {
		return "", nil, false
	}
	return h.Name(), d.Config.(PartConfig).Path, true
}

// --- x-collect-pattern ---

type collectHandler struct{}

func (h *collectHandler) Kind() Kind             { return KindCollectPattern }
func (h *collectHandler) Name() string           { return KindCollectPattern.Name() }
func (h *collectHandler) Priority() int          { return 10 }
func (h *collectHandler) Dependencies() []string { return nil }

func (h *collectHandler) ExtractConfig(target string, raw any) (Directive, error) {
	if raw == nil {
		return absent(KindCollectPattern, target), nil
	}
	s, err := stringValue(KindCollectPattern, raw)
	if err != nil {
		return Directive{}, err
	}
	if _, err := path.Match(s, ""); err != nil {
		return Directive{}, &ConfigError{Directive: h.Name(), Reason: fmt.Sprintf("bad pattern %q: %v", s, err)}
	}
	return Directive{Name: h.Name(), Target: target, Config: PatternConfig{Pattern: s}, Present: true}, nil
}

// ProcessData collects, from every document in the dataset, the values of
// fields whose key matches the configured glob, into a list on the target.
func (h *collectHandler) ProcessData(data map[string]any, d Directive) (map[string]any, Meta, error) {
	cfg := d.Config.(PatternConfig)
	var out []any
	for _, doc := range documentMaps(data) {
		keys := make([]string, 0, len(doc))
		for k := range doc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if ok, _ := path.Match(cfg.Pattern, k); ok {
				out = append(out, doc[k])
			}
		}
	}
	data[d.Target] = out
	return data, Meta{"collected": len(out)}, nil
}

func (h *collectHandler) Extension(d Directive) (string, any, bool) {
	if !d.Present {
		return "", nil, false
	}
	return h.Name(), d.Config.(PatternConfig).Pattern, true
}

// --- x-derived-from ---

type derivedFromHandler struct{}

func (h *derivedFromHandler) Kind() Kind             { return KindDerivedFrom }
func (h *derivedFromHandler) Name() string           { return KindDerivedFrom.Name() }
func (h *derivedFromHandler) Priority() int          { return 20 }
func (h *derivedFromHandler) Dependencies() []string { return nil }

func (h *derivedFromHandler) ExtractConfig(target string, raw any) (Directive, error) {
	if raw == nil {
		return absent(KindDerivedFrom, target), nil
	}
	cfg := DerivedConfig{}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return Directive{}, &ConfigError{Directive: h.Name(), Reason: "empty source path"}
		}
		cfg.Source = v
	case map[string]any:
		s, ok := v["from"].(string)
		if !ok || s == "" {
			return Directive{}, &ConfigError{Directive: h.Name(), Reason: `missing "from" path`}
		}
		cfg.Source = s
		cfg.Unique, _ = v["unique"].(bool)
		cfg.Flatten, _ = v["flatten"].(bool)
	default:
		return Directive{}, &ConfigError{Directive: h.Name(), Reason: fmt.Sprintf("want string or object, got %T", raw)}
	}
	return Directive{Name: h.Name(), Target: target, Config: cfg, Present: true}, nil
}

func (h *derivedFromHandler) ProcessData(data map[string]any, d Directive) (map[string]any, Meta, error) {
	cfg := d.Config.(DerivedConfig)
	values, err := sourceValues(data, cfg.Source)
	if err != nil {
		return nil, nil, &ProcessingError{Directive: h.Name(), Target: d.Target, Err: err}
	}
	if cfg.Flatten {
		values = flattenValues(values)
	}
	if cfg.Unique {
		values = uniqueValues(values)
	}
	data[d.Target] = values
	return data, Meta{"count": len(values)}, nil
}

func (h *derivedFromHandler) Extension(d Directive) (string, any, bool) {
	if !d.Present {
		return "", nil, false
	}
	cfg := d.Config.(DerivedConfig)
	if !cfg.Unique && !cfg.Flatten {
		return h.Name(), cfg.Source, true
	}
	return h.Name(), map[string]any{"from": cfg.Source, "unique": cfg.Unique, "flatten": cfg.Flatten}, true
}

// --- x-derived-count ---

type derivedCountHandler struct{}

func (h *derivedCountHandler) Kind() Kind             { return KindDerivedCount }
func (h *derivedCountHandler) Name() string           { return KindDerivedCount.Name() }
func (h *derivedCountHandler) Priority() int          { return 40 }
func (h *derivedCountHandler) Dependencies() []string { return []string{KindDerivedFrom.Name()} }

func (h *derivedCountHandler) ExtractConfig(target string, raw any) (Directive, error) {
	if raw == nil {
		return absent(KindDerivedCount, target), nil
	}
	s, err := stringValue(KindDerivedCount, raw)
	if err != nil {
		return Directive{}, err
	}
	return Directive{Name: h.Name(), Target: target, Config: DerivedConfig{Source: s}, Present: true}, nil
}

func (h *derivedCountHandler) ProcessData(data map[string]any, d Directive) (map[string]any, Meta, error) {
	cfg := d.Config.(DerivedConfig)
	values, err := sourceValues(data, cfg.Source)
	if err != nil {
		return nil, nil, &ProcessingError{Directive: h.Name(), Target: d.Target, Err: err}
	}
	data[d.Target] = len(values)
	return data, Meta{"count": len(values)}, nil
}

func (h *derivedCountHandler) Extension(d Directive) (string, any, bool) {
	if !d.Present {
		return "", nil, false
	}
	return h.Name(), d.Config.(DerivedConfig).Source, true
}

// --- x-derived-average ---

type derivedAverageHandler struct{}

func (h *derivedAverageHandler) Kind() Kind             { return KindDerivedAverage }
func (h *derivedAverageHandler) Name() string           { return KindDerivedAverage.Name() }
func (h *derivedAverageHandler) Priority() int          { return 40 }
func (h *derivedAverageHandler) Dependencies() []string { return []string{KindDerivedFrom.Name()} }

func (h *derivedAverageHandler) ExtractConfig(target string, raw any) (Directive, error) {
	if raw == nil {
		return absent(KindDerivedAverage, target), nil
	}
	s, err := stringValue(KindDerivedAverage, raw)
	if err != nil {
		return Directive{}, err
	}
	return Directive{Name: h.Name(), Target: target, Config: DerivedConfig{Source: s}, Present: true}, nil
}

func (h *derivedAverageHandler) ProcessData(data map[string]any, d Directive) (map[string]any, Meta, error) {
	cfg := d.Config.(DerivedConfig)
	values, err := sourceValues(data, cfg.Source)
	if err != nil {
		return nil, nil, &ProcessingError{Directive: h.Name(), Target: d.Target, Err: err}
	}
	var sum float64
	var n int
	for _, v := range values {
		if f, ok := asFloat(v); ok {
			sum += f
			n++
		}
	}
	avg := 0.0
	if n > 0 {
		avg = sum / float64(n)
	}
	data[d.Target] = avg
	return data, Meta{"numeric": n}, nil
}

func (h *derivedAverageHandler) Extension(d Directive) (string, any, bool) {
	if !d.Present {
		return "", nil, false
	}
	return h.Name(), d.Config.(DerivedConfig).Source, true
}

// --- x-derived-count-where ---

type countWhereHandler struct{}

func (h *countWhereHandler) Kind() Kind             { return KindDerivedCountWhere }
func (h *countWhereHandler) Name() string           { return KindDerivedCountWhere.Name() }
func (h *countWhereHandler) Priority() int          { return 40 }
func (h *countWhereHandler) Dependencies() []string { return []string{KindDerivedFrom.Name()} }

func (h *countWhereHandler) ExtractConfig(target string, raw any) (Directive, error) {
	if raw == nil {
		return absent(KindDerivedCountWhere, target), nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return Directive{}, &ConfigError{Directive: h.Name(), Reason: fmt.Sprintf("want object {from, where}, got %T", raw)}
	}
	from, ok := obj["from"].(string)
	if !ok || from == "" {
		return Directive{}, &ConfigError{Directive: h.Name(), Reason: `missing "from" path`}
	}
	where, ok := obj["where"].(string)
	if !ok || where == "" {
		return Directive{}, &ConfigError{Directive: h.Name(), Reason: `missing "where" clause`}
	}
	if _, _, err := parseWhere(where); err != nil {
		return Directive{}, &ConfigError{Directive: h.Name(), Reason: err.Error()}
	}
	cfg := CountWhereConfig{From: from, Where: where}
	return Directive{Name: h.Name(), Target: target, Config: cfg, Present: true}, nil
}

func (h *countWhereHandler) ProcessData(data map[string]any, d Directive) (map[string]any, Meta, error) {
	cfg := d.Config.(CountWhereConfig)
	values, err := sourceValues(data, cfg.From)
	if err != nil {
		return nil, nil, &ProcessingError{Directive: h.Name(), Target: d.Target, Err: err}
	}
	field, want, err := parseWhere(cfg.Where)
	if err != nil {
		return nil, nil, &ProcessingError{Directive: h.Name(), Target: d.Target, Err: err}
	}
	expr, err := jp.ParseString(field)
	if err != nil {
		return nil, nil, &ProcessingError{Directive: h.Name(), Target: d.Target, Err: fmt.Errorf("where path %q: %w", field, err)}
	}
	count := 0
	for _, v := range values {
		got := expr.First(v)
		if valuesEqual(got, want) {
			count++
		}
	}
	data[d.Target] = count
	return data, Meta{"matched": count, "scanned": len(values)}, nil
}

func (h *countWhereHandler) Extension(d Directive) (string, any, bool) {
	if !d.Present {
		return "", nil, false
	}
	cfg := d.Config.(CountWhereConfig)
	return h.Name(), map[string]any{"from": cfg.From, "where": cfg.Where}, true
}

// parseWhere splits a "path == literal" clause. The literal may be a quoted
// string, a number, or a boolean.
func parseWhere(clause string) (field string, want any, err error) {
	parts := strings.SplitN(clause, "==", 2)
	if len(parts) != 2 {
		parts = strings.SplitN(clause, "=", 2)
	}
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("where clause %q: want \"path == literal\"", clause)
	}
	field = strings.TrimSpace(parts[0])
	lit := strings.TrimSpace(parts[1])
	if field == "" || lit == "" {
		return "", nil, fmt.Errorf("where clause %q: empty side", clause)
	}
	switch {
	case lit == "true":
		want = true
	case lit == "false":
		want = false
	case strings.HasPrefix(lit, `"`) && strings.HasSuffix(lit, `"`) && len(lit) >= 2:
		want = lit[1 : len(lit)-1]
	case strings.HasPrefix(lit, "'") && strings.HasSuffix(lit, "'") && len(lit) >= 2:
		want = lit[1 : len(lit)-1]
	default:
		if f, ferr := strconv.ParseFloat(lit, 64); ferr == nil {
			want = f
		} else {
			want = lit
		}
	}
	return field, want, nil
}

// --- x-jmespath-filter ---

type filterHandler struct{}

func (h *filterHandler) Kind() Kind             { return KindJMESPathFilter }
func (h *filterHandler) Name() string           { return KindJMESPathFilter.Name() }
func (h *filterHandler) Priority() int          { return 50 }
func (h *filterHandler) Dependencies() []string { return []string{KindDerivedFrom.Name()} }

func (h *filterHandler) ExtractConfig(target string, raw any) (Directive, error) {
	if raw == nil {
		return absent(KindJMESPathFilter, target), nil
	}
	s, err := stringValue(KindJMESPathFilter, raw)
	if err != nil {
		return Directive{}, err
	}
	if _, err := jp.ParseString(s); err != nil {
		return Directive{}, &ConfigError{Directive: h.Name(), Reason: fmt.Sprintf("bad expression %q: %v", s, err)}
	}
	return Directive{Name: h.Name(), Target: target, Config: FilterConfig{Expression: s}, Present: true}, nil
}

func (h *filterHandler) ProcessData(data map[string]any, d Directive) (map[string]any, Meta, error) {
	cfg := d.Config.(FilterConfig)
	expr, err := jp.ParseString(cfg.Expression)
	if err != nil {
		return nil, nil, &ProcessingError{Directive: h.Name(), Target: d.Target, Err: err}
	}
	results := expr.Get(data)
	switch len(results) {
	case 1:
		data[d.Target] = results[0]
	default:
		data[d.Target] = results
	}
	return data, Meta{"matches": len(results)}, nil
}

func (h *filterHandler) Extension(d Directive) (string, any, bool) {
	if !d.Present {
		return "", nil, false
	}
	return h.Name(), d.Config.(FilterConfig).Expression, true
}

// --- x-template / x-template-items / x-template-format ---

// templateHandler covers the three template directives. They carry
// configuration for the template resolver and never transform data.
type templateHandler struct {
	kind Kind
}

func (h *templateHandler) Kind() Kind             { return h.kind }
func (h *templateHandler) Name() string           { return h.kind.Name() }
func (h *templateHandler) Priority() int          { return 90 }
func (h *templateHandler) Dependencies() []string { return nil }

func (h *templateHandler) ExtractConfig(target string, raw any) (Directive, error) {
	if raw == nil {
		return absent(h.kind, target), nil
	}
	s, err := stringValue(h.kind, raw)
	if err != nil {
		return Directive{}, err
	}
	return Directive{Name: h.Name(), Target: target, Config: TemplateConfig{Value: s}, Present: true}, nil
}

func (h *templateHandler) ProcessData(data map[string]any, d Directive) (map[string]any, Meta, error) {
	return data, nil, nil
}

func (h *templateHandler) Extension(d Directive) (string, any, bool) {
	if !d.Present {
		return "", nil, false
	}
	return h.Name(), d.Config.(TemplateConfig).Value, true
}

// --- x-flatten-arrays ---

type flattenHandler struct{}

func (h *flattenHandler) Kind() Kind             { return KindFlattenArrays }
func (h *flattenHandler) Name() string           { return KindFlattenArrays.Name() }
func (h *flattenHandler) Priority() int          { return 30 }
func (h *flattenHandler) Dependencies() []string { return []string{KindDerivedFrom.Name()} }

func (h *flattenHandler) ExtractConfig(target string, raw any) (Directive, error) {
	if raw == nil {
		return absent(KindFlattenArrays, target), nil
	}
	b, ok := raw.(bool)
	if !ok {
		return Directive{}, &ConfigError{Directive: h.Name(), Reason: fmt.Sprintf("want bool, got %T", raw)}
	}
	return Directive{Name: h.Name(), Target: target, Config: FlattenConfig{Enabled: b}, Present: true}, nil
}

func (h *flattenHandler) ProcessData(data map[string]any, d Directive) (map[string]any, Meta, error) {
	cfg := d.Config.(FlattenConfig)
	if !cfg.Enabled {
		return data, nil, nil
	}
	cur, ok := data[d.Target].([]any)
	if !ok {
		return data, Meta{"flattened": 0}, nil
	}
	flat := flattenValues(cur)
	data[d.Target] = flat
	return data, Meta{"flattened": len(flat)}, nil
}

func (h *flattenHandler) Extension(d Directive) (string, any, bool) {
	if !d.Present {
		return "", nil, false
	}
	return h.Name(), d.Config.(FlattenConfig).Enabled, true
}

// --- shared helpers ---

// documentMaps returns every document object reachable from list-valued
// fields of the dataset, scanning fields in sorted order for determinism.
func documentMaps(data map[string]any) []map[string]any {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var docs []map[string]any
	for _, k := range keys {
		list, ok := data[k].([]any)
		if !ok {
			continue
		}
		for _, el := range list {
			if m, ok := el.(map[string]any); ok {
				docs = append(docs, m)
			}
		}
	}
	return docs
}

// sourceValues evaluates a source path against the dataset. A bare field name
// that matches nothing directly falls back to collecting that field from every
// document in the dataset's collections.
func sourceValues(data map[string]any, source string) ([]any, error) {
	expr, err := jp.ParseString(source)
	if err != nil {
		return nil, fmt.Errorf("source path %q: %w", source, err)
	}
	values := expr.Get(data)
	if len(values) == 0 && !strings.ContainsAny(source, ".[$") {
		for _, doc := range documentMaps(data) {
			if v, ok := doc[source]; ok {
				values = append(values, v)
			}
		}
	}
	return values, nil
}

func flattenValues(in []any) []any {
	var out []any
	for _, v := range in {
		if nested, ok := v.([]any); ok {
			out = append(out, flattenValues(nested)...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func uniqueValues(in []any) []any {
	seen := make(map[string]struct{}, len(in))
	var out []any
	for _, v := range in {
		key := fmt.Sprintf("%T:%v", v, v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func valuesEqual(got, want any) bool {
	if gf, ok := asFloat(got); ok {
		if wf, ok := asFloat(want); ok {
			return gf == wf
		}
	}
	return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
}
