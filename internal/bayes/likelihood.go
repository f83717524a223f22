package bayes

import (
	"math"

	"github.com/tabiya-tech/elicit/internal/preference"
)

// DefaultTemperature is the logistic temperature used when none is
// configured. Higher temperatures flatten choice probabilities toward 0.5.
const DefaultTemperature = 1.0

// LikelihoodFunc scores a weight vector against an observation, returning a
// probability in [0,1]. It is the seam between a single observed choice and
// the posterior updater.
type LikelihoodFunc func(observation string, weights preference.Weights) float64

// LikelihoodCalculator evaluates the Bradley-Terry choice model for
// vignettes under a preference-weight vector.
type LikelihoodCalculator struct {
	encoder     *preference.Encoder
	temperature float64
}

// NewLikelihoodCalculator builds a calculator sharing the engine-wide
// feature encoder. A non-positive temperature falls back to the default.
func NewLikelihoodCalculator(encoder *preference.Encoder, temperature float64) *LikelihoodCalculator {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &LikelihoodCalculator{encoder: encoder, temperature: temperature}
}

// Temperature returns the configured logistic temperature.
func (c *LikelihoodCalculator) Temperature() float64 {
	return c.temperature
}

// ChoiceLikelihood returns the probability of choosing the given option
// under the weight vector. The utility difference is weights · (x_A - x_B)
// and P(A) = sigmoid(diff / temperature), so a zero weight vector yields
// exactly 0.5 either way.
func (c *LikelihoodCalculator) ChoiceLikelihood(v *preference.Vignette, chosenOption string, weights preference.Weights) float64 {
	pA := c.ChoiceProbabilityFromDiff(c.encoder.FeatureDiff(v), weights)
	if chosenOption == preference.OptionB {
		return 1 - pA
	}
	return pA
}

// ChoiceProbabilityFromDiff returns P(choose A) for a precomputed feature
// difference x_A - x_B. The offline optimizer scores candidate pairs
// through this, so runtime and design-time probabilities come from the
// same model.
func (c *LikelihoodCalculator) ChoiceProbabilityFromDiff(diff []float64, weights preference.Weights) float64 {
	return stableSigmoid(weights.Dot(diff) / c.temperature)
}

// LikelihoodFunction returns a closure over a fixed vignette and chosen
// option, suitable for injection into the posterior updater.
func (c *LikelihoodCalculator) LikelihoodFunction(v *preference.Vignette, chosenOption string) LikelihoodFunc {
	return func(_ string, weights preference.Weights) float64 {
		return c.ChoiceLikelihood(v, chosenOption, weights)
	}
}

// stableSigmoid evaluates 1/(1+exp(-z)) without overflowing for large |z|.
func stableSigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
