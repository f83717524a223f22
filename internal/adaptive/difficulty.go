package adaptive

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// Difficulty tiers for upcoming vignettes. Higher posterior uncertainty on a
// dimension warrants an easier, more discriminating vignette.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Thresholds are the variance breakpoints separating difficulty tiers and
// trade-off strengths. Empirically tuned defaults, kept as configuration.
type Thresholds struct {
	Easy       float64 `mapstructure:"easy"`
	Medium     float64 `mapstructure:"medium"`
	StrictHard float64 `mapstructure:"strict-hard"`
}

// DefaultThresholds returns the tuned breakpoints.
func DefaultThresholds() Thresholds {
	return Thresholds{Easy: 0.5, Medium: 0.3, StrictHard: 0.15}
}

// DifficultyTuner maps posterior uncertainty to vignette difficulty and
// trade-off strength.
type DifficultyTuner struct {
	thresholds Thresholds
}

// NewDifficultyTuner builds a tuner with the given breakpoints.
func NewDifficultyTuner(thresholds Thresholds) *DifficultyTuner {
	return &DifficultyTuner{thresholds: thresholds}
}

// SetDifficulty assigns a tier to every posterior dimension. Dimensions in
// the uncertain set are tiered by variance; the rest default to medium.
func (t *DifficultyTuner) SetDifficulty(uncertainDimensions []string, posterior *bayes.Posterior) map[string]string {
	uncertain := make(map[string]bool, len(uncertainDimensions))
	for _, d := range uncertainDimensions {
		uncertain[d] = true
	}

	out := make(map[string]string, preference.NumDimensions)
	for _, dim := range posterior.Dimensions() {
		if !uncertain[dim] {
			out[dim] = DifficultyMedium
			continue
		}
		out[dim] = t.tier(posterior.Variance(dim))
	}
	return out
}

// TradeOffStrength maps one dimension's confidence to a trade-off strength
// in {1.0, 0.7, 0.5, 0.3}, non-decreasing in variance.
func (t *DifficultyTuner) TradeOffStrength(dimension string, posterior *bayes.Posterior) float64 {
	v := posterior.Variance(dimension)
	switch {
	case v > t.thresholds.Easy:
		return 1.0
	case v > t.thresholds.Medium:
		return 0.7
	case v > t.thresholds.StrictHard:
		return 0.5
	default:
		return 0.3
	}
}

// Recommendation bundles everything the selection layer needs for the next
// vignette: the most uncertain dimensions, per-dimension difficulty and
// trade-off strength, and a readable summary.
type Recommendation struct {
	UncertainDimensions []string
	Difficulty          map[string]string
	TradeOffStrength    map[string]float64
	Summary             string
}

// Recommend computes the top-3 highest-variance dimensions and derives the
// full difficulty and trade-off mappings from that same uncertain set, so
// the per-dimension methods reproduce the combined output exactly.
func (t *DifficultyTuner) Recommend(posterior *bayes.Posterior) Recommendation {
	dims := posterior.Dimensions()
	sort.SliceStable(dims, func(i, j int) bool {
		return posterior.Variance(dims[i]) > posterior.Variance(dims[j])
	})

	top := dims
	if len(top) > 3 {
		top = top[:3]
	}
	uncertain := make([]string, len(top))
	copy(uncertain, top)

	strengths := make(map[string]float64, preference.NumDimensions)
	for _, dim := range posterior.Dimensions() {
		strengths[dim] = t.TradeOffStrength(dim, posterior)
	}

	return Recommendation{
		UncertainDimensions: uncertain,
		Difficulty:          t.SetDifficulty(uncertain, posterior),
		TradeOffStrength:    strengths,
		Summary: fmt.Sprintf("focus next vignettes on %s (highest posterior uncertainty)",
			strings.Join(uncertain, ", ")),
	}
}

func (t *DifficultyTuner) tier(variance float64) string {
	switch {
	case variance > t.thresholds.Easy:
		return DifficultyEasy
	case variance > t.thresholds.Medium:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}
