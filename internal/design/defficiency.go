package design

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/tabiya-tech/elicit/internal/infotheory"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// DEfficiencyOptimizer selects the static vignette set: the subset of
// candidate profile pairs that maximizes cumulative D-efficiency under the
// prior weights, chosen greedily one pair at a time.
type DEfficiencyOptimizer struct {
	encoder *preference.Encoder
	fisher  *infotheory.FisherCalculator
	rng     *rand.Rand
	logger  *zap.Logger
}

// NewDEfficiencyOptimizer builds an optimizer over the shared encoder and
// Fisher calculator. The seed fixes the pair-sampling order for
// reproducible designs.
func NewDEfficiencyOptimizer(encoder *preference.Encoder, fisher *infotheory.FisherCalculator, seed uint64, logger *zap.Logger) *DEfficiencyOptimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DEfficiencyOptimizer{
		encoder: encoder,
		fisher:  fisher,
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger,
	}
}

// SelectStaticVignettes picks numStatic maximally informative pairs and
// splits them into a beginning subset of numBeginning and an end subset of
// the remainder. An empty profile pool is a configuration error.
func (o *DEfficiencyOptimizer) SelectStaticVignettes(profiles []*preference.JobProfile, numStatic, numBeginning int, priorMean preference.Weights, sampleSize int) (beginning, end []*ProfilePair, err error) {
	if numStatic <= 0 {
		return nil, nil, fmt.Errorf("num-static must be positive, got %d", numStatic)
	}
	if numBeginning < 0 || numBeginning > numStatic {
		return nil, nil, fmt.Errorf("num-beginning %d must be within [0, %d]", numBeginning, numStatic)
	}

	candidates := samplePairs(profiles, o.encoder, sampleSize, o.rng)
	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("no candidate pairs available from %d profiles", len(profiles))
	}

	selected := o.greedySelect(candidates, numStatic, priorMean, nil)
	if len(selected) < numStatic {
		o.logger.Warn("candidate pool smaller than requested static set",
			zap.Int("requested", numStatic),
			zap.Int("selected", len(selected)),
		)
	}

	if numBeginning > len(selected) {
		numBeginning = len(selected)
	}
	return selected[:numBeginning], selected[numBeginning:], nil
}

// greedySelect repeatedly adds the pair with the largest D-efficiency gain
// over the accumulated information matrix.
func (o *DEfficiencyOptimizer) greedySelect(candidates []*ProfilePair, count int, priorMean preference.Weights, excluded map[string]bool) []*ProfilePair {
	cumulative := infotheory.ZeroFIM()
	selected := make([]*ProfilePair, 0, count)
	used := make(map[string]bool, count)

	for len(selected) < count {
		var best *ProfilePair
		var bestFIM *mat.SymDense
		bestScore := -1.0

		for _, pair := range candidates {
			key := pair.Key()
			if used[key] || excluded[key] {
				continue
			}
			next := infotheory.ZeroFIM()
			next.CopySym(cumulative)
			next.AddSym(next, o.fisher.FIMFromDiff(pair.Diff, priorMean))
			if score := infotheory.DEfficiency(next); score > bestScore {
				best = pair
				bestFIM = next
				bestScore = score
			}
		}

		if best == nil {
			break
		}
		used[best.Key()] = true
		selected = append(selected, best)
		cumulative = bestFIM

		o.logger.Debug("selected static pair",
			zap.String("pair", best.Key()),
			zap.Float64("d_efficiency", bestScore),
		)
	}

	return selected
}
