package preference

// NumDimensions is the size of the preference-weight space.
const NumDimensions = 7

// Canonical dimension names, in fixed order. All vectors and matrices in the
// engine are indexed by this ordering.
const (
	DimFinancial       = "financial"
	DimWorkEnvironment = "work_environment"
	DimCareerGrowth    = "career_growth"
	DimWorkLifeBalance = "work_life_balance"
	DimJobSecurity     = "job_security"
	DimTaskPreference  = "task_preference"
	DimValuesCulture   = "values_culture"
)

// Dimensions returns the canonical dimension ordering as a fresh slice.
func Dimensions() []string {
	return []string{
		DimFinancial,
		DimWorkEnvironment,
		DimCareerGrowth,
		DimWorkLifeBalance,
		DimJobSecurity,
		DimTaskPreference,
		DimValuesCulture,
	}
}

// DimensionIndex returns the position of a dimension name in the canonical
// ordering.
func DimensionIndex(name string) (int, bool) {
	for i, d := range Dimensions() {
		if d == name {
			return i, true
		}
	}
	return 0, false
}

// Weights is a preference-weight vector over the canonical dimensions,
// interpreted as log-odds contributions. No hard bounds.
type Weights []float64

// ZeroWeights returns an all-zero weight vector.
func ZeroWeights() Weights {
	return make(Weights, NumDimensions)
}

// Dot returns the inner product with a feature vector. Vectors shorter than
// the weight vector contribute zero for the missing entries.
func (w Weights) Dot(x []float64) float64 {
	sum := 0.0
	for i := range w {
		if i >= len(x) {
			break
		}
		sum += w[i] * x[i]
	}
	return sum
}
