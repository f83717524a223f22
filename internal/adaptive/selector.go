package adaptive

import (
	"go.uber.org/zap"

	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/infotheory"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// Selector picks the next vignette from the adaptive library by expected
// information gain against the current belief, weighted toward the
// dimensions the posterior is least sure about.
type Selector struct {
	fisher *infotheory.FisherCalculator
	logger *zap.Logger
}

// NewSelector builds a selector over the shared Fisher calculator.
func NewSelector(fisher *infotheory.FisherCalculator, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{fisher: fisher, logger: logger}
}

// Next returns the highest-scoring library vignette not already shown, or
// nil when the library is exhausted.
func (s *Selector) Next(library []*preference.Vignette, posterior *bayes.Posterior, excluded map[string]bool) *preference.Vignette {
	uncertainty := make(map[string]float64, preference.NumDimensions)
	for _, dim := range posterior.Dimensions() {
		uncertainty[dim] = posterior.Variance(dim)
	}
	weights := preference.Weights(posterior.Mean())

	var best *preference.Vignette
	bestScore := -1.0
	for _, v := range library {
		if v == nil || excluded[v.VignetteID] {
			continue
		}
		score := s.fisher.InformationGain(v, weights, uncertainty)
		if score > bestScore {
			best = v
			bestScore = score
		}
	}

	if best != nil {
		s.logger.Debug("selected adaptive vignette",
			zap.String("vignette_id", best.VignetteID),
			zap.Float64("information_gain", bestScore),
		)
	}
	return best
}
