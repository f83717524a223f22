package infotheory

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// StoppingConfig bounds the elicitation run. The defaults are empirically
// tuned; they are configuration, not derived constants.
type StoppingConfig struct {
	MinVignettes         int     `mapstructure:"min-vignettes"`
	MaxVignettes         int     `mapstructure:"max-vignettes"`
	DetThreshold         float64 `mapstructure:"det-threshold"`
	MaxVarianceThreshold float64 `mapstructure:"max-variance-threshold"`
}

// DefaultStoppingConfig returns the tuned default bounds.
func DefaultStoppingConfig() StoppingConfig {
	return StoppingConfig{
		MinVignettes:         4,
		MaxVignettes:         12,
		DetThreshold:         1e3,
		MaxVarianceThreshold: 0.3,
	}
}

// StoppingCriterion decides when enough vignettes have been shown.
type StoppingCriterion struct {
	config StoppingConfig
}

// NewStoppingCriterion builds a criterion from the given bounds.
func NewStoppingCriterion(config StoppingConfig) *StoppingCriterion {
	return &StoppingCriterion{config: config}
}

// Config returns the configured bounds.
func (s *StoppingCriterion) Config() StoppingConfig {
	return s.config
}

// ShouldContinue applies the decision rules in strict priority order: the
// minimum count always forces continuation and the maximum count always
// forces a stop, before any information-based signal is consulted.
func (s *StoppingCriterion) ShouldContinue(posterior *bayes.Posterior, fim *mat.SymDense, shown int) (bool, string) {
	if shown < s.config.MinVignettes {
		return true, fmt.Sprintf("minimum vignette count not reached (%d/%d)", shown, s.config.MinVignettes)
	}
	if shown >= s.config.MaxVignettes {
		return false, fmt.Sprintf("maximum vignette count reached (%d)", shown)
	}

	det := Determinant(fim)
	if det > s.config.DetThreshold {
		return false, fmt.Sprintf("information determinant %.4g exceeds threshold %.4g", det, s.config.DetThreshold)
	}

	maxVar := maxVariance(posterior)
	if maxVar <= s.config.MaxVarianceThreshold {
		return false, fmt.Sprintf("all variances at or below %.4g", s.config.MaxVarianceThreshold)
	}

	return true, fmt.Sprintf("residual uncertainty %.4g above threshold, continuing", maxVar)
}

// UncertaintyReport maps every dimension to its current posterior variance.
func (s *StoppingCriterion) UncertaintyReport(posterior *bayes.Posterior) map[string]float64 {
	out := make(map[string]float64, preference.NumDimensions)
	for _, dim := range preference.Dimensions() {
		out[dim] = safeFinite(posterior.Variance(dim))
	}
	return out
}

// Diagnostics returns every quantity the stopping decision looks at, all
// finite even for a degenerate zero FIM.
func (s *StoppingCriterion) Diagnostics(posterior *bayes.Posterior, fim *mat.SymDense, shown int) map[string]any {
	report := s.UncertaintyReport(posterior)

	maxVar := math.Inf(-1)
	minVar := math.Inf(1)
	sum := 0.0
	for _, v := range report {
		maxVar = math.Max(maxVar, v)
		minVar = math.Min(minVar, v)
		sum += v
	}
	meanVar := sum / float64(len(report))
	det := Determinant(fim)

	return map[string]any{
		"vignettes_shown":          shown,
		"fim_determinant":          safeFinite(det),
		"max_variance":             safeFinite(maxVar),
		"min_variance":             safeFinite(minVar),
		"mean_variance":            safeFinite(meanVar),
		"uncertainty":              report,
		"below_min_vignettes":      shown < s.config.MinVignettes,
		"at_max_vignettes":         shown >= s.config.MaxVignettes,
		"det_exceeds_threshold":    det > s.config.DetThreshold,
		"variance_below_threshold": maxVar <= s.config.MaxVarianceThreshold,
	}
}

func maxVariance(posterior *bayes.Posterior) float64 {
	maxVar := 0.0
	for _, v := range posterior.Variances() {
		if v > maxVar {
			maxVar = v
		}
	}
	return maxVar
}

func safeFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
