package bayes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabiya-tech/elicit/internal/preference"
)

func salaryVignette(t *testing.T, id string, salaryA, salaryB float64) *preference.Vignette {
	t.Helper()
	v, err := preference.NewVignette(id, "financial", "choose",
		preference.VignetteOption{OptionID: preference.OptionA, Title: "Job A", Attributes: map[string]any{"monthly_salary": salaryA}},
		preference.VignetteOption{OptionID: preference.OptionB, Title: "Job B", Attributes: map[string]any{"monthly_salary": salaryB}},
	)
	require.NoError(t, err)
	return v
}

func TestChoiceProbabilitiesSumToOne(t *testing.T) {
	calc := NewLikelihoodCalculator(preference.NewEncoder(preference.DefaultAttributes()), 1.0)
	v := salaryVignette(t, "v1", 6000, 2500)

	for _, w := range []preference.Weights{
		preference.ZeroWeights(),
		{1, 0.5, -0.2, 0, 0.1, 0, 0},
		{-3, 2, 1, -1, 0.5, 0.2, -0.7},
	} {
		pA := calc.ChoiceLikelihood(v, preference.OptionA, w)
		pB := calc.ChoiceLikelihood(v, preference.OptionB, w)
		assert.InDelta(t, 1.0, pA+pB, 1e-12)
		assert.GreaterOrEqual(t, pA, 0.0)
		assert.LessOrEqual(t, pA, 1.0)
	}
}

func TestZeroWeightsGiveCoinFlip(t *testing.T) {
	calc := NewLikelihoodCalculator(preference.NewEncoder(preference.DefaultAttributes()), 1.0)
	v := salaryVignette(t, "v1", 6000, 2500)

	assert.Equal(t, 0.5, calc.ChoiceLikelihood(v, preference.OptionA, preference.ZeroWeights()))
	assert.Equal(t, 0.5, calc.ChoiceLikelihood(v, preference.OptionB, preference.ZeroWeights()))
}

func TestExtremeWeightsStayFinite(t *testing.T) {
	calc := NewLikelihoodCalculator(preference.NewEncoder(preference.DefaultAttributes()), 1.0)
	v := salaryVignette(t, "v1", 6000, 2500)

	huge := preference.Weights{1e9, 1e9, 1e9, 1e9, 1e9, 1e9, 1e9}
	pA := calc.ChoiceLikelihood(v, preference.OptionA, huge)
	require.False(t, math.IsNaN(pA))
	assert.InDelta(t, 1.0, pA, 1e-12)

	neg := preference.Weights{-1e9, 0, 0, 0, 0, 0, 0}
	pA = calc.ChoiceLikelihood(v, preference.OptionA, neg)
	require.False(t, math.IsNaN(pA))
	assert.InDelta(t, 0.0, pA, 1e-12)
}

func TestHigherTemperatureFlattensChoices(t *testing.T) {
	enc := preference.NewEncoder(preference.DefaultAttributes())
	sharp := NewLikelihoodCalculator(enc, 0.5)
	flat := NewLikelihoodCalculator(enc, 5.0)
	v := salaryVignette(t, "v1", 6000, 2500)
	w := preference.Weights{2, 0, 0, 0, 0, 0, 0}

	pSharp := sharp.ChoiceLikelihood(v, preference.OptionA, w)
	pFlat := flat.ChoiceLikelihood(v, preference.OptionA, w)
	assert.Greater(t, pSharp, pFlat)
	assert.Greater(t, pFlat, 0.5)
}

func TestLikelihoodFunctionClosesOverChoice(t *testing.T) {
	calc := NewLikelihoodCalculator(preference.NewEncoder(preference.DefaultAttributes()), 1.0)
	v := salaryVignette(t, "v1", 6000, 2500)
	w := preference.Weights{1, 0, 0, 0, 0, 0, 0}

	fnA := calc.LikelihoodFunction(v, preference.OptionA)
	fnB := calc.LikelihoodFunction(v, preference.OptionB)

	assert.Equal(t, calc.ChoiceLikelihood(v, preference.OptionA, w), fnA("", w))
	assert.Equal(t, calc.ChoiceLikelihood(v, preference.OptionB, w), fnB("", w))
}
