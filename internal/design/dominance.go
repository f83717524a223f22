package design

import (
	"go.uber.org/zap"

	"github.com/tabiya-tech/elicit/internal/preference"
)

// DominanceFilter removes profiles that are globally dominated: some other
// profile is at least as good on every attribute and strictly better on at
// least one. Available but bypassed by default for static-vignette
// generation, where pairwise rather than global dominance is what matters.
type DominanceFilter struct {
	defs   []preference.AttributeDefinition
	logger *zap.Logger
}

// NewDominanceFilter builds a filter oriented by the attribute grid's
// higher-is-better directions.
func NewDominanceFilter(defs []preference.AttributeDefinition, logger *zap.Logger) *DominanceFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DominanceFilter{defs: defs, logger: logger}
}

// Filter returns the non-dominated subset, preserving input order.
func (f *DominanceFilter) Filter(profiles []*preference.JobProfile) []*preference.JobProfile {
	kept := make([]*preference.JobProfile, 0, len(profiles))
	for i, p := range profiles {
		dominated := false
		for j, other := range profiles {
			if i == j {
				continue
			}
			if f.Dominates(other, p) {
				dominated = true
				break
			}
		}
		if !dominated {
			kept = append(kept, p)
		}
	}

	f.logger.Info("dominance filter",
		zap.Int("initial", len(profiles)),
		zap.Int("dropped", len(profiles)-len(kept)),
		zap.Int("left", len(kept)),
	)
	return kept
}

// Dominates reports whether profile a dominates profile b on the grid.
func (f *DominanceFilter) Dominates(a, b *preference.JobProfile) bool {
	strictlyBetter := false
	for _, def := range f.defs {
		av := orientedValue(def, a.Attributes[def.Name])
		bv := orientedValue(def, b.Attributes[def.Name])
		if av < bv {
			return false
		}
		if av > bv {
			strictlyBetter = true
		}
	}
	return strictlyBetter
}

// orientedValue maps an attribute value onto a scale where larger is
// always better.
func orientedValue(def preference.AttributeDefinition, raw any) float64 {
	var v float64
	switch def.Type {
	case preference.AttrBoolean:
		if b, ok := raw.(bool); ok && b {
			v = 1
		}
	default:
		switch n := raw.(type) {
		case float64:
			v = n
		case int:
			v = float64(n)
		}
		if !def.HigherIsBetter {
			v = -v
		}
	}
	return v
}
