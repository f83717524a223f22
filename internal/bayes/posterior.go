package bayes

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/tabiya-tech/elicit/internal/preference"
)

// eigenFloor is the smallest eigenvalue tolerated before a covariance matrix
// gets regularized back onto the PSD cone.
const eigenFloor = 1e-9

// Posterior is a Gaussian belief over the preference-weight vector: a mean
// and a symmetric positive-semidefinite covariance, indexed by the canonical
// dimension ordering.
type Posterior struct {
	dims []string
	mean []float64
	cov  *mat.SymDense
}

// NewPosterior builds a posterior from a mean vector and covariance matrix.
// The covariance is symmetrized and clipped onto the PSD cone on the way in.
func NewPosterior(mean []float64, cov *mat.SymDense) *Posterior {
	n := preference.NumDimensions
	m := make([]float64, n)
	copy(m, mean)
	return &Posterior{
		dims: preference.Dimensions(),
		mean: m,
		cov:  ensurePSD(cov),
	}
}

// NewIsotropicPosterior builds a posterior centered at mean with variance v
// on every dimension.
func NewIsotropicPosterior(mean []float64, v float64) *Posterior {
	n := preference.NumDimensions
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, v)
	}
	return NewPosterior(mean, cov)
}

// Dimensions returns the ordered dimension names.
func (p *Posterior) Dimensions() []string {
	out := make([]string, len(p.dims))
	copy(out, p.dims)
	return out
}

// Mean returns a copy of the posterior mean.
func (p *Posterior) Mean() []float64 {
	out := make([]float64, len(p.mean))
	copy(out, p.mean)
	return out
}

// Covariance returns a copy of the posterior covariance.
func (p *Posterior) Covariance() *mat.SymDense {
	n := p.cov.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	out.CopySym(p.cov)
	return out
}

// Variance returns the marginal variance of one dimension, or 0 for an
// unknown name.
func (p *Posterior) Variance(dimension string) float64 {
	i, ok := preference.DimensionIndex(dimension)
	if !ok {
		return 0
	}
	return p.cov.At(i, i)
}

// Variances returns the diagonal of the covariance in dimension order.
func (p *Posterior) Variances() []float64 {
	n := len(p.dims)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = p.cov.At(i, i)
	}
	return out
}

// Correlation returns the correlation between two dimensions. When either
// variance is zero the correlation is 0 rather than a division by zero.
func (p *Posterior) Correlation(dimA, dimB string) float64 {
	i, okA := preference.DimensionIndex(dimA)
	j, okB := preference.DimensionIndex(dimB)
	if !okA || !okB {
		return 0
	}
	denom := math.Sqrt(p.cov.At(i, i) * p.cov.At(j, j))
	if denom == 0 || math.IsNaN(denom) {
		return 0
	}
	return p.cov.At(i, j) / denom
}

// Sample draws n samples from the posterior's multivariate normal. A nil
// source uses the package-global generator.
func (p *Posterior) Sample(n int, src rand.Source) [][]float64 {
	if n <= 0 {
		return nil
	}

	cov := p.Covariance()
	normal, ok := distmv.NewNormal(p.mean, cov, src)
	for jitter := eigenFloor; !ok && jitter < 1; jitter *= 10 {
		// Not strictly PD. Nudge the diagonal until the factorization
		// succeeds.
		for i := 0; i < cov.SymmetricDim(); i++ {
			cov.SetSym(i, i, cov.At(i, i)+jitter)
		}
		normal, ok = distmv.NewNormal(p.mean, cov, src)
	}
	if !ok {
		// Degenerate beyond repair: every draw is the mean.
		out := make([][]float64, n)
		for i := range out {
			out[i] = p.Mean()
		}
		return out
	}

	out := make([][]float64, n)
	for i := range out {
		out[i] = normal.Rand(nil)
	}
	return out
}

// ToDocument flattens the posterior for the persistence boundary.
func (p *Posterior) ToDocument() (mean []float64, cov [][]float64) {
	mean = p.Mean()
	n := p.cov.SymmetricDim()
	cov = make([][]float64, n)
	for i := 0; i < n; i++ {
		cov[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			cov[i][j] = p.cov.At(i, j)
		}
	}
	return mean, cov
}

// PosteriorFromDocument rebuilds a posterior from persisted nested lists.
func PosteriorFromDocument(mean []float64, cov [][]float64) *Posterior {
	n := preference.NumDimensions
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n && i < len(cov); i++ {
		for j := i; j < n && j < len(cov[i]); j++ {
			sym.SetSym(i, j, (cov[i][j]+cov[j][i])/2)
		}
	}
	return NewPosterior(mean, sym)
}

// ensurePSD symmetrizes and eigenvalue-clips a covariance candidate.
// Eigenvalues below the floor are lifted to it.
func ensurePSD(cov *mat.SymDense) *mat.SymDense {
	n := preference.NumDimensions
	out := mat.NewSymDense(n, nil)
	if cov == nil {
		return out
	}

	var es mat.EigenSym
	if !es.Factorize(cov, true) {
		// Factorization failed: keep the diagonal, floored.
		for i := 0; i < n; i++ {
			out.SetSym(i, i, math.Max(cov.At(i, i), eigenFloor))
		}
		return out
	}

	values := es.Values(nil)
	clipped := false
	for _, v := range values {
		if v < eigenFloor || math.IsNaN(v) {
			clipped = true
			break
		}
	}
	if !clipped {
		out.CopySym(cov)
		return out
	}

	var vecs mat.Dense
	es.VectorsTo(&vecs)
	for i := range values {
		if values[i] < eigenFloor || math.IsNaN(values[i]) {
			values[i] = eigenFloor
		}
	}

	// Reconstruct V diag(λ) Vᵗ.
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += vecs.At(i, k) * values[k] * vecs.At(j, k)
			}
			out.SetSym(i, j, sum)
		}
	}
	return out
}
