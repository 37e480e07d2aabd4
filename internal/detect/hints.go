package detect

// ProcessingHints tell the coordinator how to treat a detected structure.
// A pure function of the StructureType and the configured field patterns:
// no I/O, no failure mode.
type ProcessingHints struct {
	RequiresAggregation bool
	ExpectedArrayFields []string
	DerivationRules     []string
	TemplateFormat      string // json | yaml | auto
}

var derivationDirectives = []string{
	"x-derived-from",
	"x-derived-count",
	"x-derived-average",
	"x-derived-count-where",
}

// Hints returns the processing hints for a structure type.
func (d *Detector) Hints(t StructureType) ProcessingHints {
	switch t.Kind {
	case Registry:
		return ProcessingHints{
			RequiresAggregation: true,
			ExpectedArrayFields: append([]string(nil), d.cfg.NamedPatterns...),
			DerivationRules:     derivationDirectives,
			TemplateFormat:      "auto",
		}
	case Collection:
		return ProcessingHints{
			RequiresAggregation: true,
			ExpectedArrayFields: []string{t.Path},
			DerivationRules:     derivationDirectives,
			TemplateFormat:      "json",
		}
	default:
		return ProcessingHints{
			RequiresAggregation: false,
			TemplateFormat:      "auto",
		}
	}
}
