package design

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tabiya-tech/elicit/internal/preference"
)

// ProfileGenerator enumerates the Cartesian product of the attribute grid
// into candidate job profiles.
type ProfileGenerator struct {
	defs        []preference.AttributeDefinition
	maxProfiles int
	logger      *zap.Logger
}

// NewProfileGenerator builds a generator over an attribute grid. maxProfiles
// caps the enumeration; zero or negative means no cap.
func NewProfileGenerator(defs []preference.AttributeDefinition, maxProfiles int, logger *zap.Logger) (*ProfileGenerator, error) {
	if err := preference.ValidateAttributes(defs); err != nil {
		return nil, fmt.Errorf("profile generator: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileGenerator{defs: defs, maxProfiles: maxProfiles, logger: logger}, nil
}

// Generate enumerates every combination of attribute levels, in grid order,
// up to the configured cap.
func (g *ProfileGenerator) Generate() []*preference.JobProfile {
	levels := make([][]any, len(g.defs))
	for i, def := range g.defs {
		switch def.Type {
		case preference.AttrBoolean:
			levels[i] = []any{false, true}
		default:
			vals := make([]any, len(def.Levels))
			for j, l := range def.Levels {
				vals[j] = l
			}
			levels[i] = vals
		}
	}

	total := 1
	for _, l := range levels {
		total *= len(l)
	}
	capacity := total
	if g.maxProfiles > 0 && g.maxProfiles < capacity {
		capacity = g.maxProfiles
	}

	profiles := make([]*preference.JobProfile, 0, capacity)
	indices := make([]int, len(levels))
	for len(profiles) < capacity {
		attrs := make(map[string]any, len(g.defs))
		for i, def := range g.defs {
			attrs[def.Name] = levels[i][indices[i]]
		}
		profiles = append(profiles, &preference.JobProfile{
			ProfileID:  fmt.Sprintf("profile_%05d", len(profiles)+1),
			Attributes: attrs,
		})

		// Advance the odometer.
		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(levels[pos]) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}

	g.logger.Info("generated candidate profiles",
		zap.Int("grid_size", total),
		zap.Int("generated", len(profiles)),
		zap.Int("cap", g.maxProfiles),
	)
	return profiles
}
