package infotheory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/preference"
)

func newTestFisher() *FisherCalculator {
	enc := preference.NewEncoder(preference.DefaultAttributes())
	return NewFisherCalculator(enc, bayes.NewLikelihoodCalculator(enc, 1.0))
}

func vignetteWithSalaries(t *testing.T, id string, salaryA, salaryB float64) *preference.Vignette {
	t.Helper()
	v, err := preference.NewVignette(id, "financial", "choose",
		preference.VignetteOption{OptionID: preference.OptionA, Attributes: map[string]any{"monthly_salary": salaryA}},
		preference.VignetteOption{OptionID: preference.OptionB, Attributes: map[string]any{"monthly_salary": salaryB}},
	)
	require.NoError(t, err)
	return v
}

func TestFIMIsSymmetricPSD(t *testing.T) {
	calc := newTestFisher()
	v, err := preference.NewVignette("v1", "mixed", "choose",
		preference.VignetteOption{OptionID: preference.OptionA, Attributes: map[string]any{"monthly_salary": 6000.0, "career_growth": true}},
		preference.VignetteOption{OptionID: preference.OptionB, Attributes: map[string]any{"monthly_salary": 2500.0, "permanent_contract": true}},
	)
	require.NoError(t, err)

	fim := calc.FIM(v, preference.Weights{0.5, 0, 0.2, 0, -0.1, 0, 0})

	n := preference.NumDimensions
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.Equal(t, fim.At(i, j), fim.At(j, i))
		}
	}

	var es mat.EigenSym
	require.True(t, es.Factorize(fim, false))
	for _, ev := range es.Values(nil) {
		assert.GreaterOrEqual(t, ev, -1e-12)
	}
}

func TestFIMZeroForIdenticalOptions(t *testing.T) {
	calc := newTestFisher()
	v := vignetteWithSalaries(t, "v1", 4000, 4000)

	fim := calc.FIM(v, preference.Weights{1, 1, 1, 1, 1, 1, 1})
	assert.True(t, mat.EqualApprox(fim, ZeroFIM(), 1e-15))
}

func TestLargerFeatureDifferenceCarriesMoreInformation(t *testing.T) {
	calc := newTestFisher()
	small := vignetteWithSalaries(t, "small", 4000, 3500)
	large := vignetteWithSalaries(t, "large", 6000, 2500)
	w := preference.ZeroWeights()

	fin, _ := preference.DimensionIndex(preference.DimFinancial)
	assert.Greater(t, calc.FIM(large, w).At(fin, fin), calc.FIM(small, w).At(fin, fin))
}

func TestInformationIsMaximalAtEvenOdds(t *testing.T) {
	calc := newTestFisher()
	v := vignetteWithSalaries(t, "v1", 6000, 2500)

	fin, _ := preference.DimensionIndex(preference.DimFinancial)
	even := calc.FIM(v, preference.ZeroWeights()).At(fin, fin)
	skewed := calc.FIM(v, preference.Weights{5, 0, 0, 0, 0, 0, 0}).At(fin, fin)
	assert.Greater(t, even, skewed)
}

func TestCumulativeFIMIsAdditive(t *testing.T) {
	calc := newTestFisher()
	v := vignetteWithSalaries(t, "v1", 6000, 2500)
	w := preference.Weights{0.3, 0, 0, 0, 0, 0, 0}

	single := calc.FIM(v, w)
	double := calc.CumulativeFIM([]*preference.Vignette{v, v}, w)

	expected := ZeroFIM()
	expected.AddSym(single, single)
	assert.True(t, mat.EqualApprox(expected, double, 1e-15))

	empty := calc.CumulativeFIM(nil, w)
	assert.True(t, mat.EqualApprox(empty, ZeroFIM(), 1e-15))
}

func TestExpectedFIMReportsNonNegativeIncrease(t *testing.T) {
	calc := newTestFisher()
	w := preference.Weights{0.3, 0, 0, 0, 0, 0, 0}
	current := calc.FIM(vignetteWithSalaries(t, "v1", 6000, 2500), w)

	for _, salaries := range [][2]float64{{5000, 3000}, {4000, 4000}, {6000, 2500}} {
		candidate := vignetteWithSalaries(t, "cand", salaries[0], salaries[1])
		next, increase := calc.ExpectedFIM(candidate, w, current)
		assert.GreaterOrEqual(t, increase, -1e-10)
		assert.NotNil(t, next)
	}

	_, increase := calc.ExpectedFIM(vignetteWithSalaries(t, "cand", 5000, 3000), w, nil)
	assert.GreaterOrEqual(t, increase, -1e-10)
}

func TestDEfficiencyHandlesSingularMatrices(t *testing.T) {
	assert.GreaterOrEqual(t, DEfficiency(ZeroFIM()), 0.0)
	assert.GreaterOrEqual(t, DEfficiency(nil), 0.0)

	calc := newTestFisher()
	// Rank-one information: singular but not zero.
	fim := calc.FIM(vignetteWithSalaries(t, "v1", 6000, 2500), preference.ZeroWeights())
	assert.GreaterOrEqual(t, DEfficiency(fim), 0.0)
}

func TestInformationPerDimensionReturnsDiagonal(t *testing.T) {
	calc := newTestFisher()
	fim := calc.FIM(vignetteWithSalaries(t, "v1", 6000, 2500), preference.ZeroWeights())

	perDim := InformationPerDimension(fim)
	fin, _ := preference.DimensionIndex(preference.DimFinancial)
	assert.InDelta(t, fim.At(fin, fin), perDim[preference.DimFinancial], 1e-15)
	assert.Zero(t, perDim[preference.DimValuesCulture])
	assert.Len(t, perDim, preference.NumDimensions)
}

func TestInformationGainIsNonNegativeAndRanks(t *testing.T) {
	calc := newTestFisher()
	w := preference.ZeroWeights()
	uncertainty := map[string]float64{preference.DimFinancial: 1.0}

	gainLarge := calc.InformationGain(vignetteWithSalaries(t, "l", 6000, 2500), w, uncertainty)
	gainSmall := calc.InformationGain(vignetteWithSalaries(t, "s", 4000, 3500), w, uncertainty)

	assert.GreaterOrEqual(t, gainSmall, 0.0)
	assert.Greater(t, gainLarge, gainSmall)
}
