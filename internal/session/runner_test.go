package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabiya-tech/elicit/internal/adaptive"
	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/design"
	"github.com/tabiya-tech/elicit/internal/infotheory"
	"github.com/tabiya-tech/elicit/internal/preference"
)

func testRunner(t *testing.T, artifacts *design.ArtifactSet, maxAdaptive int, stopping infotheory.StoppingConfig) *Runner {
	t.Helper()
	encoder := preference.NewEncoder(preference.DefaultAttributes())
	likelihood := bayes.NewLikelihoodCalculator(encoder, bayes.DefaultTemperature)
	fisher := infotheory.NewFisherCalculator(encoder, likelihood)
	manager := bayes.NewPosteriorManager(preference.ZeroWeights(), nil, nil, nil)
	selector := adaptive.NewSelector(fisher, nil)
	sequencer := NewSequencer(artifacts, selector, maxAdaptive)
	return NewRunner(likelihood, fisher, manager, infotheory.NewStoppingCriterion(stopping), sequencer, artifacts, nil)
}

func TestRecordChoiceRejectsUnknownOption(t *testing.T) {
	artifacts := testArtifacts(t, 1, 1, 1)
	runner := testRunner(t, artifacts, 1, infotheory.DefaultStoppingConfig())
	state := NewState("s1", testPrior(), false)

	err := runner.RecordChoice(state, artifacts.Beginning[0], "option_c")
	assert.Error(t, err)
	assert.Equal(t, 0, state.VignettesShown())
}

func TestRecordChoiceMovesBeliefTowardChoice(t *testing.T) {
	artifacts := testArtifacts(t, 2, 0, 0)
	runner := testRunner(t, artifacts, 0, infotheory.DefaultStoppingConfig())
	state := NewState("s1", testPrior(), false)

	// Option A always pays more in the test artifacts; choosing it should
	// pull the financial weight positive and sharpen that dimension.
	v := runner.NextVignette(state)
	require.NotNil(t, v)
	require.NoError(t, runner.RecordChoice(state, v, preference.OptionA))

	assert.Greater(t, state.Posterior.Mean()[0], 0.0)
	assert.Less(t, state.Posterior.Variance(preference.DimFinancial), 1.0)
	assert.Greater(t, state.FIM.At(0, 0), 0.0)
	assert.InDelta(t, 1.0, state.Posterior.Variance(preference.DimValuesCulture), 1e-3,
		"dimensions the vignette never discriminates stay at the prior")
}

func TestRecordChoiceCountsAdaptiveVignettes(t *testing.T) {
	artifacts := testArtifacts(t, 1, 1, 0)
	runner := testRunner(t, artifacts, 1, infotheory.DefaultStoppingConfig())
	state := NewState("s1", testPrior(), false)

	require.NoError(t, runner.RecordChoice(state, artifacts.Beginning[0], preference.OptionA))
	assert.Equal(t, 0, state.AdaptiveShown, "static vignettes do not count")

	require.NoError(t, runner.RecordChoice(state, artifacts.Library[0], preference.OptionB))
	assert.Equal(t, 1, state.AdaptiveShown)
}

func TestAdaptiveSelectionPrefersInformativeVignettes(t *testing.T) {
	weak := testVignette(t, "weak", preference.DimFinancial, 3100, 3000)
	strong := testVignette(t, "strong", preference.DimFinancial, 6000, 2500)
	artifacts := &design.ArtifactSet{Library: []*preference.Vignette{weak, strong}}

	runner := testRunner(t, artifacts, 2, infotheory.DefaultStoppingConfig())
	state := NewState("s1", testPrior(), true)

	v := runner.NextVignette(state)
	require.NotNil(t, v)
	assert.Equal(t, "strong", v.VignetteID, "the larger trade-off carries more information under a flat belief")
}

func TestSessionContinuesAtSixAndStopsAtTwelve(t *testing.T) {
	artifacts := testArtifacts(t, 4, 6, 4)
	runner := testRunner(t, artifacts, 4, infotheory.DefaultStoppingConfig())
	state := NewState("s1", testPrior(), false)

	shown := 0
	for {
		cont, reason := runner.ShouldContinue(state)
		if shown == 6 {
			// Salary-only vignettes leave six dimensions at the prior, so
			// neither information signal can fire mid-session.
			assert.True(t, cont)
			assert.Contains(t, reason, "continuing")
		}
		if !cont {
			assert.Equal(t, 12, shown)
			assert.Contains(t, reason, "maximum")
			break
		}

		v := runner.NextVignette(state)
		require.NotNil(t, v, "the progression must outlast the stopping rule")
		require.NoError(t, runner.RecordChoice(state, v, preference.OptionA))
		shown++
	}

	diag := runner.Diagnostics(state)
	assert.Equal(t, 12, diag["vignettes_shown"])
	assert.Equal(t, true, diag["at_max_vignettes"])
}

func TestSessionResumesFromStore(t *testing.T) {
	ctx := context.Background()
	artifacts := testArtifacts(t, 2, 2, 2)
	runner := testRunner(t, artifacts, 2, infotheory.DefaultStoppingConfig())
	store := NewMemoryStore()

	state := NewState("s1", testPrior(), false)
	for i := 0; i < 3; i++ {
		v := runner.NextVignette(state)
		require.NotNil(t, v)
		require.NoError(t, runner.RecordChoice(state, v, preference.OptionA))
	}
	require.NoError(t, store.Save(ctx, state))

	resumed, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, resumed.VignettesShown())
	assert.InDeltaSlice(t, state.Posterior.Mean(), resumed.Posterior.Mean(), 1e-9,
		"persistence must not disturb the belief")

	// The resumed session picks up exactly where the progression left off.
	next := runner.NextVignette(resumed)
	require.NotNil(t, next)
	assert.False(t, resumed.HasSeen(next.VignetteID))
	require.NoError(t, runner.RecordChoice(resumed, next, preference.OptionB))
	assert.Equal(t, 4, resumed.VignettesShown())
}
