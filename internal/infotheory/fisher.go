package infotheory

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// detRidge is the diagonal regularization applied before taking
// determinants, so singular information matrices yield a finite
// non-negative D-efficiency instead of blowing up downstream.
const detRidge = 1e-10

// FisherCalculator computes the closed-form Fisher Information Matrix of
// the two-alternative logit choice model:
//
//	FIM = P(A)·P(B)·(x_A - x_B)(x_A - x_B)ᵗ
//
// It shares the feature encoder and temperature with the likelihood
// calculator, which keeps the two views of a vignette consistent.
type FisherCalculator struct {
	encoder    *preference.Encoder
	likelihood *bayes.LikelihoodCalculator
}

// NewFisherCalculator builds a calculator over the shared encoder and
// likelihood model.
func NewFisherCalculator(encoder *preference.Encoder, likelihood *bayes.LikelihoodCalculator) *FisherCalculator {
	return &FisherCalculator{encoder: encoder, likelihood: likelihood}
}

// FIM returns the information contributed by one vignette under the given
// weights. Feature-identical options yield the zero matrix.
func (c *FisherCalculator) FIM(v *preference.Vignette, weights preference.Weights) *mat.SymDense {
	return c.FIMFromDiff(c.encoder.FeatureDiff(v), weights)
}

// FIMFromDiff computes the same information matrix from a precomputed
// feature difference, used by the offline optimizer over profile pairs.
func (c *FisherCalculator) FIMFromDiff(diff []float64, weights preference.Weights) *mat.SymDense {
	pA := c.likelihood.ChoiceProbabilityFromDiff(diff, weights)
	scale := pA * (1 - pA)

	n := preference.NumDimensions
	fim := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			fim.SetSym(i, j, scale*diff[i]*diff[j])
		}
	}
	return fim
}

// CumulativeFIM sums per-vignette contributions. An empty list yields the
// zero matrix.
func (c *FisherCalculator) CumulativeFIM(vignettes []*preference.Vignette, weights preference.Weights) *mat.SymDense {
	n := preference.NumDimensions
	total := mat.NewSymDense(n, nil)
	for _, v := range vignettes {
		total.AddSym(total, c.FIM(v, weights))
	}
	return total
}

// ExpectedFIM previews the cumulative information after adding one more
// vignette, returning the new matrix and the raw determinant increase.
// Under the additive model the increase is non-negative up to
// floating-point noise.
func (c *FisherCalculator) ExpectedFIM(candidate *preference.Vignette, weights preference.Weights, current *mat.SymDense) (*mat.SymDense, float64) {
	n := preference.NumDimensions
	next := mat.NewSymDense(n, nil)
	if current != nil {
		next.CopySym(current)
	}
	next.AddSym(next, c.FIM(candidate, weights))

	increase := Determinant(next) - Determinant(current)
	return next, increase
}

// InformationGain scores a candidate vignette for selection: the trace of
// its information contribution, weighted by the caller's per-dimension
// uncertainty so poorly-known dimensions count for more. Always
// non-negative.
func (c *FisherCalculator) InformationGain(v *preference.Vignette, weights preference.Weights, uncertainty map[string]float64) float64 {
	fim := c.FIM(v, weights)
	gain := 0.0
	for i, dim := range preference.Dimensions() {
		w := 1.0
		if u, ok := uncertainty[dim]; ok && u > 0 {
			w = u
		}
		gain += w * fim.At(i, i)
	}
	if gain < 0 {
		return 0
	}
	return gain
}

// Determinant returns det(fim) for a possibly nil or singular matrix,
// clamping tiny negative floating-point results to zero.
func Determinant(fim *mat.SymDense) float64 {
	if fim == nil {
		return 0
	}
	d := mat.Det(fim)
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

// DEfficiency summarizes an information matrix as the geometric mean of its
// eigenvalue product, det(FIM + ridge·I)^(1/k). Singular input yields a
// small non-negative value instead of an error.
func DEfficiency(fim *mat.SymDense) float64 {
	n := preference.NumDimensions
	reg := mat.NewSymDense(n, nil)
	if fim != nil {
		reg.CopySym(fim)
	}
	for i := 0; i < n; i++ {
		reg.SetSym(i, i, reg.At(i, i)+detRidge)
	}

	d := mat.Det(reg)
	if math.IsNaN(d) || d <= 0 {
		return 0
	}
	return math.Pow(d, 1/float64(n))
}

// InformationPerDimension returns the diagonal of the information matrix in
// dimension order.
func InformationPerDimension(fim *mat.SymDense) map[string]float64 {
	out := make(map[string]float64, preference.NumDimensions)
	for i, dim := range preference.Dimensions() {
		if fim == nil {
			out[dim] = 0
			continue
		}
		out[dim] = fim.At(i, i)
	}
	return out
}

// ZeroFIM returns the additive identity of the information model.
func ZeroFIM() *mat.SymDense {
	return mat.NewSymDense(preference.NumDimensions, nil)
}
