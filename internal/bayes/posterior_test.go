package bayes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/tabiya-tech/elicit/internal/preference"
)

func TestPosteriorVarianceAndCorrelation(t *testing.T) {
	n := preference.NumDimensions
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, float64(i+1))
	}
	cov.SetSym(0, 1, 0.5)

	p := NewPosterior(make([]float64, n), cov)

	assert.InDelta(t, 1.0, p.Variance(preference.DimFinancial), 1e-9)
	assert.InDelta(t, 2.0, p.Variance(preference.DimWorkEnvironment), 1e-9)
	assert.Zero(t, p.Variance("unknown_dimension"))

	corr := p.Correlation(preference.DimFinancial, preference.DimWorkEnvironment)
	assert.InDelta(t, 0.5/1.4142135, corr, 1e-3)
}

func TestCorrelationWithZeroVarianceIsZero(t *testing.T) {
	n := preference.NumDimensions
	cov := mat.NewSymDense(n, nil)
	cov.SetSym(1, 1, 2.0)
	// Dimension 0 has (near-)zero variance after the PSD floor.
	p := NewPosterior(make([]float64, n), cov)

	assert.InDelta(t, 0.0, p.Correlation(preference.DimFinancial, preference.DimWorkEnvironment), 1e-3)
}

func TestEnsurePSDLiftsNegativeEigenvalues(t *testing.T) {
	n := preference.NumDimensions
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, 1.0)
	}
	// Off-diagonal larger than the variances makes this indefinite.
	cov.SetSym(0, 1, 2.0)

	p := NewPosterior(make([]float64, n), cov)

	var es mat.EigenSym
	require.True(t, es.Factorize(p.Covariance(), false))
	for _, v := range es.Values(nil) {
		assert.GreaterOrEqual(t, v, -1e-9)
	}
}

func TestSampleMeanConvergesToPosteriorMean(t *testing.T) {
	mean := []float64{0.3, -0.2, 0.1, 0, 0.5, -0.4, 0.2}
	p := NewIsotropicPosterior(mean, 0.5)

	src := rand.NewSource(7)
	samples := p.Sample(20000, src)
	require.Len(t, samples, 20000)

	for dim := 0; dim < preference.NumDimensions; dim++ {
		sum := 0.0
		for _, s := range samples {
			sum += s[dim]
		}
		assert.InDelta(t, mean[dim], sum/float64(len(samples)), 0.03)
	}
}

func TestSampleDegenerateCovarianceReturnsMean(t *testing.T) {
	mean := []float64{1, 2, 3, 4, 5, 6, 7}
	p := NewIsotropicPosterior(mean, 0)

	samples := p.Sample(3, rand.NewSource(1))
	require.Len(t, samples, 3)
	for _, s := range samples {
		for dim := range s {
			assert.InDelta(t, mean[dim], s[dim], 1e-2)
		}
	}
}

func TestPosteriorDocumentRoundTrip(t *testing.T) {
	n := preference.NumDimensions
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, 0.5+float64(i)*0.1)
	}
	cov.SetSym(2, 4, 0.05)
	mean := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}

	p := NewPosterior(mean, cov)
	docMean, docCov := p.ToDocument()
	restored := PosteriorFromDocument(docMean, docCov)

	assert.Equal(t, p.Mean(), restored.Mean())
	assert.True(t, mat.EqualApprox(p.Covariance(), restored.Covariance(), 1e-12))
}
