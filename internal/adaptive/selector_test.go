package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/infotheory"
	"github.com/tabiya-tech/elicit/internal/preference"
)

func testLibrary(t *testing.T) []*preference.Vignette {
	t.Helper()
	build := func(id string, salaryA, salaryB float64) *preference.Vignette {
		v, err := preference.NewVignette(id, "financial", "choose",
			preference.VignetteOption{OptionID: preference.OptionA, Attributes: map[string]any{"monthly_salary": salaryA}},
			preference.VignetteOption{OptionID: preference.OptionB, Attributes: map[string]any{"monthly_salary": salaryB}},
		)
		require.NoError(t, err)
		return v
	}
	return []*preference.Vignette{
		build("weak", 4000, 3800),
		build("strong", 6000, 2500),
		build("medium", 5000, 3500),
	}
}

func TestSelectorPicksHighestInformationGain(t *testing.T) {
	enc := preference.NewEncoder(preference.DefaultAttributes())
	fisher := infotheory.NewFisherCalculator(enc, bayes.NewLikelihoodCalculator(enc, 1.0))
	selector := NewSelector(fisher, nil)
	posterior := bayes.NewIsotropicPosterior(preference.ZeroWeights(), 1.0)

	library := testLibrary(t)

	next := selector.Next(library, posterior, nil)
	require.NotNil(t, next)
	assert.Equal(t, "strong", next.VignetteID)
}

func TestSelectorSkipsExcludedAndExhausts(t *testing.T) {
	enc := preference.NewEncoder(preference.DefaultAttributes())
	fisher := infotheory.NewFisherCalculator(enc, bayes.NewLikelihoodCalculator(enc, 1.0))
	selector := NewSelector(fisher, nil)
	posterior := bayes.NewIsotropicPosterior(preference.ZeroWeights(), 1.0)

	library := testLibrary(t)
	excluded := map[string]bool{"strong": true}

	next := selector.Next(library, posterior, excluded)
	require.NotNil(t, next)
	assert.Equal(t, "medium", next.VignetteID)

	all := map[string]bool{"weak": true, "strong": true, "medium": true}
	assert.Nil(t, selector.Next(library, posterior, all))
}
