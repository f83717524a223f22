package design

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"github.com/tabiya-tech/elicit/internal/infotheory"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// AdaptiveLibraryBuilder selects the larger vignette pool the runtime's
// adaptive selector draws from, blending informativeness under the prior
// with diversity against already-selected pairs.
type AdaptiveLibraryBuilder struct {
	encoder *preference.Encoder
	fisher  *infotheory.FisherCalculator
	rng     *rand.Rand
	logger  *zap.Logger
}

// NewAdaptiveLibraryBuilder builds a library builder over the shared
// encoder and Fisher calculator.
func NewAdaptiveLibraryBuilder(encoder *preference.Encoder, fisher *infotheory.FisherCalculator, seed uint64, logger *zap.Logger) *AdaptiveLibraryBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdaptiveLibraryBuilder{
		encoder: encoder,
		fisher:  fisher,
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger,
	}
}

// Build selects numLibrary unique pairs disjoint from the excluded set.
// diversityWeight in [0,1] linearly blends the two scores: 0 is pure
// informativeness, 1 is pure diversity (cosine distance of the candidate's
// feature difference to the selected pairs' differences).
func (b *AdaptiveLibraryBuilder) Build(profiles []*preference.JobProfile, numLibrary int, excluded map[string]bool, priorMean preference.Weights, diversityWeight float64, sampleSize int) ([]*ProfilePair, error) {
	if numLibrary <= 0 {
		return nil, fmt.Errorf("num-library must be positive, got %d", numLibrary)
	}
	if diversityWeight < 0 || diversityWeight > 1 {
		return nil, fmt.Errorf("diversity-weight %v must be within [0,1]", diversityWeight)
	}

	candidates := samplePairs(profiles, b.encoder, sampleSize, b.rng)
	available := make([]*ProfilePair, 0, len(candidates))
	for _, pair := range candidates {
		if !excluded[pair.Key()] {
			available = append(available, pair)
		}
	}
	if len(available) == 0 {
		return nil, fmt.Errorf("no candidate pairs left after exclusions (%d profiles, %d excluded keys)", len(profiles), len(excluded))
	}

	// Informativeness is normalized to [0,1] over the candidate set so the
	// blend with the (already [0,1]) diversity score is balanced.
	info := make(map[string]float64, len(available))
	maxInfo := 0.0
	for _, pair := range available {
		score := infotheory.DEfficiency(b.fisher.FIMFromDiff(pair.Diff, priorMean))
		info[pair.Key()] = score
		if score > maxInfo {
			maxInfo = score
		}
	}
	if maxInfo > 0 {
		for k := range info {
			info[k] /= maxInfo
		}
	}

	selected := make([]*ProfilePair, 0, numLibrary)
	used := make(map[string]bool, numLibrary)
	for len(selected) < numLibrary {
		var best *ProfilePair
		bestScore := math.Inf(-1)
		for _, pair := range available {
			if used[pair.Key()] {
				continue
			}
			score := (1-diversityWeight)*info[pair.Key()] + diversityWeight*b.diversity(pair, selected)
			if score > bestScore {
				best = pair
				bestScore = score
			}
		}
		if best == nil {
			break
		}
		used[best.Key()] = true
		selected = append(selected, best)
	}

	b.logger.Info("built adaptive library",
		zap.Int("requested", numLibrary),
		zap.Int("selected", len(selected)),
		zap.Float64("diversity_weight", diversityWeight),
	)
	return selected, nil
}

// diversity is the minimum cosine distance between the candidate's feature
// difference and the already-selected differences. The first selection is
// maximally diverse by definition.
func (b *AdaptiveLibraryBuilder) diversity(candidate *ProfilePair, selected []*ProfilePair) float64 {
	if len(selected) == 0 {
		return 1
	}
	minDist := 1.0
	for _, s := range selected {
		dist := 1 - math.Abs(cosineSimilarity(candidate.Diff, s.Diff))
		if dist < minDist {
			minDist = dist
		}
	}
	return minDist
}

func cosineSimilarity(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
