package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabiya-tech/elicit/internal/preference"
)

func TestBuildLibraryCountUniquenessAndExclusion(t *testing.T) {
	encoder, fisher := designToolkit(t)
	profiles := gridProfiles(t)

	// Reserve the statically selected pairs so the library stays disjoint.
	opt := NewDEfficiencyOptimizer(encoder, fisher, 42, nil)
	beginning, end, err := opt.SelectStaticVignettes(profiles, 4, 2, preference.ZeroWeights(), 0)
	require.NoError(t, err)
	excluded := make(map[string]bool)
	for _, p := range append(append([]*ProfilePair{}, beginning...), end...) {
		excluded[p.Key()] = true
	}

	for _, weight := range []float64{0.0, 0.3, 1.0} {
		builder := NewAdaptiveLibraryBuilder(encoder, fisher, 43, nil)
		library, err := builder.Build(profiles, 10, excluded, preference.ZeroWeights(), weight, 0)
		require.NoError(t, err)
		assert.Len(t, library, 10)

		seen := make(map[string]bool)
		for _, p := range library {
			assert.False(t, excluded[p.Key()], "library must not repeat static pairs")
			assert.False(t, seen[p.Key()], "library pairs must be unique")
			seen[p.Key()] = true
		}
	}
}

func TestBuildLibraryValidation(t *testing.T) {
	encoder, fisher := designToolkit(t)
	builder := NewAdaptiveLibraryBuilder(encoder, fisher, 1, nil)
	profiles := gridProfiles(t)

	_, err := builder.Build(profiles, 0, nil, preference.ZeroWeights(), 0.3, 0)
	assert.Error(t, err, "num-library must be positive")

	_, err = builder.Build(profiles, 5, nil, preference.ZeroWeights(), 1.5, 0)
	assert.Error(t, err, "diversity weight outside [0,1]")

	_, err = builder.Build(profiles[:1], 5, nil, preference.ZeroWeights(), 0.3, 0)
	assert.Error(t, err, "a single profile yields no pairs")
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-12)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-3, 0}), 1e-12)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 4}), 1e-12)
	assert.Equal(t, 0.0, cosineSimilarity([]float64{0, 0}, []float64{1, 1}), "zero vector has no direction")
}
