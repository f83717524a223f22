package bayes

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tabiya-tech/elicit/internal/preference"
)

// Objective is a log-density to be maximized over the weight space.
type Objective func(weights preference.Weights) float64

// MAPSolver finds the mode of a log-posterior objective and reports the
// Hessian there, so alternative solvers can replace the built-in one without
// touching the posterior manager.
type MAPSolver interface {
	// Solve returns the located mode, the Hessian of the objective at the
	// mode, and whether the search converged within its budget.
	Solve(obj Objective, start []float64) (mode []float64, hessian *mat.SymDense, converged bool)
}

// NewtonSolver is a damped Newton ascent with central finite-difference
// gradients and Hessians. Iteration counts are hard-bounded so a
// pathological objective degrades to non-convergence instead of hanging.
type NewtonSolver struct {
	MaxIterations int
	GradientTol   float64
	FDStep        float64
	MaxStepNorm   float64
}

// NewNewtonSolver returns a solver with the default budget.
func NewNewtonSolver() *NewtonSolver {
	return &NewtonSolver{
		MaxIterations: 50,
		GradientTol:   1e-6,
		FDStep:        1e-4,
		MaxStepNorm:   1.0,
	}
}

// Solve implements MAPSolver.
func (s *NewtonSolver) Solve(obj Objective, start []float64) ([]float64, *mat.SymDense, bool) {
	n := preference.NumDimensions
	x := make([]float64, n)
	copy(x, start)

	converged := false
	for iter := 0; iter < s.MaxIterations; iter++ {
		grad := s.gradient(obj, x)
		if norm(grad) < s.GradientTol {
			converged = true
			break
		}

		hess := s.hessian(obj, x)
		step, ok := newtonStep(hess, grad)
		if !ok {
			// Singular or indefinite Hessian: plain gradient ascent.
			step = make([]float64, n)
			for i := range step {
				step[i] = 0.1 * grad[i]
			}
		}
		clampNorm(step, s.MaxStepNorm)

		// Backtracking keeps the ascent monotone.
		current := obj(x)
		scale := 1.0
		improved := false
		for attempt := 0; attempt < 8; attempt++ {
			candidate := make([]float64, n)
			for i := range candidate {
				candidate[i] = x[i] + scale*step[i]
			}
			if v := obj(candidate); v > current && !math.IsNaN(v) {
				x = candidate
				improved = true
				break
			}
			scale /= 2
		}
		if !improved {
			converged = norm(grad) < math.Sqrt(s.GradientTol)
			break
		}
	}

	return x, s.hessian(obj, x), converged
}

// gradient computes a central-difference gradient.
func (s *NewtonSolver) gradient(obj Objective, x []float64) []float64 {
	n := len(x)
	grad := make([]float64, n)
	h := s.FDStep
	for i := 0; i < n; i++ {
		plus := perturb(x, i, h)
		minus := perturb(x, i, -h)
		grad[i] = (obj(plus) - obj(minus)) / (2 * h)
	}
	return grad
}

// hessian computes a central-difference Hessian. Entries are filled for
// j >= i and mirrored, so the result is exactly symmetric.
func (s *NewtonSolver) hessian(obj Objective, x []float64) *mat.SymDense {
	n := len(x)
	hess := mat.NewSymDense(n, nil)
	h := s.FDStep
	f0 := obj(x)

	for i := 0; i < n; i++ {
		// Diagonal: (f(x+h) - 2f(x) + f(x-h)) / h².
		fp := obj(perturb(x, i, h))
		fm := obj(perturb(x, i, -h))
		hess.SetSym(i, i, (fp-2*f0+fm)/(h*h))

		for j := i + 1; j < n; j++ {
			fpp := obj(perturb2(x, i, h, j, h))
			fpm := obj(perturb2(x, i, h, j, -h))
			fmp := obj(perturb2(x, i, -h, j, h))
			fmm := obj(perturb2(x, i, -h, j, -h))
			hess.SetSym(i, j, (fpp-fpm-fmp+fmm)/(4*h*h))
		}
	}
	return hess
}

// newtonStep solves H d = -g for the ascent direction.
func newtonStep(hess *mat.SymDense, grad []float64) ([]float64, bool) {
	n := len(grad)
	neg := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		neg.SetVec(i, -grad[i])
	}

	var d mat.VecDense
	if err := d.SolveVec(hess, neg); err != nil {
		return nil, false
	}

	step := make([]float64, n)
	ascent := 0.0
	for i := 0; i < n; i++ {
		step[i] = d.AtVec(i)
		ascent += step[i] * grad[i]
		if math.IsNaN(step[i]) || math.IsInf(step[i], 0) {
			return nil, false
		}
	}
	// A Newton step against the gradient means the Hessian is not negative
	// definite here; reject it.
	if ascent <= 0 {
		return nil, false
	}
	return step, true
}

func perturb(x []float64, i int, h float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	out[i] += h
	return out
}

func perturb2(x []float64, i int, hi float64, j int, hj float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	out[i] += hi
	out[j] += hj
	return out
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func clampNorm(v []float64, max float64) {
	if max <= 0 {
		return
	}
	n := norm(v)
	if n <= max || n == 0 {
		return
	}
	scale := max / n
	for i := range v {
		v[i] *= scale
	}
}
