package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabiya-tech/elicit/internal/preference"
)

func TestConvertProducesValidVignette(t *testing.T) {
	encoder := preference.NewEncoder(smallGrid())
	converter := NewVignetteConverter(encoder)

	a := &preference.JobProfile{ProfileID: "p1", Attributes: map[string]any{
		"monthly_salary": 6000.0, "career_growth": true, "permanent_contract": false,
	}}
	b := &preference.JobProfile{ProfileID: "p2", Attributes: map[string]any{
		"monthly_salary": 2500.0, "career_growth": true, "permanent_contract": false,
	}}
	pair := &ProfilePair{A: a, B: b, Diff: encoderDiff(encoder, a, b)}

	v, err := converter.Convert(pair)
	require.NoError(t, err)
	require.NoError(t, v.Validate())

	assert.NotEmpty(t, v.VignetteID)
	assert.Equal(t, preference.DimFinancial, v.Category, "salary is the discriminating attribute")
	require.NotNil(t, v.Option(preference.OptionA))
	require.NotNil(t, v.Option(preference.OptionB))
	assert.Equal(t, a.Attributes, v.Option(preference.OptionA).Attributes)
	assert.Contains(t, v.Option(preference.OptionA).Description, "monthly salary: 6000")
	assert.Contains(t, v.Option(preference.OptionA).Description, "no permanent contract")
}

func TestConvertAllAssignsUniqueIDs(t *testing.T) {
	encoder := preference.NewEncoder(smallGrid())
	converter := NewVignetteConverter(encoder)
	profiles := gridProfiles(t)

	pairs := samplePairs(profiles, encoder, 0, nil)
	require.NotEmpty(t, pairs)

	vignettes, err := converter.ConvertAll(pairs[:5])
	require.NoError(t, err)
	require.Len(t, vignettes, 5)

	seen := make(map[string]bool)
	for _, v := range vignettes {
		assert.False(t, seen[v.VignetteID])
		seen[v.VignetteID] = true
	}
}

func encoderDiff(encoder *preference.Encoder, a, b *preference.JobProfile) []float64 {
	fa := encoder.EncodeProfile(a)
	fb := encoder.EncodeProfile(b)
	diff := make([]float64, len(fa))
	for i := range fa {
		diff[i] = fa[i] - fb[i]
	}
	return diff
}
