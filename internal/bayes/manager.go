package bayes

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/tabiya-tech/elicit/internal/preference"
)

// likelihoodFloor keeps log-likelihoods finite for zero-probability
// evaluations far from the data.
const likelihoodFloor = 1e-12

// PosteriorManager owns the running Gaussian belief and updates it after
// every observed choice via a Laplace approximation: a MAP search over the
// combined log-likelihood + log-prior, with the covariance taken from the
// inverse negative Hessian at the mode.
type PosteriorManager struct {
	posterior *Posterior
	solver    MAPSolver
	logger    *zap.Logger
}

// NewPosteriorManager builds a manager starting from the given prior. A nil
// solver uses the built-in Newton solver; a nil logger is replaced by a
// no-op one.
func NewPosteriorManager(priorMean []float64, priorCov *mat.SymDense, solver MAPSolver, logger *zap.Logger) *PosteriorManager {
	if solver == nil {
		solver = NewNewtonSolver()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PosteriorManager{
		posterior: NewPosterior(priorMean, priorCov),
		solver:    solver,
		logger:    logger,
	}
}

// Posterior returns the current belief.
func (m *PosteriorManager) Posterior() *Posterior {
	return m.posterior
}

// Restore replaces the current belief, e.g. when resuming a persisted
// session.
func (m *PosteriorManager) Restore(p *Posterior) {
	if p != nil {
		m.posterior = p
	}
}

// Update folds one observation into the belief and returns the new
// posterior. The current posterior acts as the prior for the update, so
// repeated consistent observations progressively weaken the original
// prior's pull. Numerical degeneracy never surfaces as an error: failed
// solves keep the prior mean and a regularized covariance.
func (m *PosteriorManager) Update(likelihood LikelihoodFunc, observation string) *Posterior {
	prior := m.posterior
	priorMean := prior.Mean()
	precision, ok := invertSym(prior.Covariance())
	if !ok {
		m.logger.Debug("prior covariance is singular, regularizing before update")
		precision, _ = invertSym(ridge(prior.Covariance(), 1e-6))
	}

	obj := func(w preference.Weights) float64 {
		lik := likelihood(observation, w)
		if lik < likelihoodFloor {
			lik = likelihoodFloor
		}
		return math.Log(lik) + logGaussian(w, priorMean, precision)
	}

	mode, hessian, converged := m.solver.Solve(obj, priorMean)
	if !converged {
		m.logger.Debug("MAP search did not converge, keeping prior mean")
		m.posterior = NewPosterior(priorMean, prior.Covariance())
		return m.posterior
	}

	cov := laplaceCovariance(hessian, prior)
	m.posterior = NewPosterior(mode, cov)
	return m.posterior
}

// laplaceCovariance inverts the negative Hessian at the mode, falling back
// to a ridge-regularized inverse and finally to the prior covariance.
func laplaceCovariance(hessian *mat.SymDense, prior *Posterior) *mat.SymDense {
	n := preference.NumDimensions
	negH := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			negH.SetSym(i, j, -hessian.At(i, j))
		}
	}

	if cov, ok := invertSym(negH); ok {
		return cov
	}
	for lambda := 1e-6; lambda < 1; lambda *= 10 {
		if cov, ok := invertSym(ridge(negH, lambda)); ok {
			return cov
		}
	}
	return prior.Covariance()
}

// logGaussian is the log-density of N(mean, precision⁻¹) up to its
// normalizing constant, which the MAP search does not need.
func logGaussian(x, mean []float64, precision *mat.SymDense) float64 {
	if precision == nil {
		return 0
	}
	n := len(mean)
	quad := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			quad += (x[i] - mean[i]) * precision.At(i, j) * (x[j] - mean[j])
		}
	}
	return -0.5 * quad
}

// invertSym inverts a symmetric matrix, reporting failure instead of
// propagating a singular-matrix error. The result is re-symmetrized and
// checked for non-finite entries.
func invertSym(a *mat.SymDense) (*mat.SymDense, bool) {
	if a == nil {
		return nil, false
	}
	n := a.SymmetricDim()
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return nil, false
	}

	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := (inv.At(i, j) + inv.At(j, i)) / 2
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, false
			}
			out.SetSym(i, j, v)
		}
	}
	return out, true
}

// ridge returns a + lambda*I.
func ridge(a *mat.SymDense, lambda float64) *mat.SymDense {
	n := a.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	out.CopySym(a)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, out.At(i, i)+lambda)
	}
	return out
}
