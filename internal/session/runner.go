package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/design"
	"github.com/tabiya-tech/elicit/internal/infotheory"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// Runner executes one elicitation turn at a time: present the sequencer's
// next vignette, fold the choice into the posterior, accumulate Fisher
// information, and consult the stopping rule. Strictly sequential; the
// state is owned by the in-flight turn.
type Runner struct {
	likelihood *bayes.LikelihoodCalculator
	fisher     *infotheory.FisherCalculator
	manager    *bayes.PosteriorManager
	stopping   *infotheory.StoppingCriterion
	sequencer  *Sequencer
	libraryIDs map[string]bool
	logger     *zap.Logger
}

// NewRunner wires the numeric core together for a session.
func NewRunner(
	likelihood *bayes.LikelihoodCalculator,
	fisher *infotheory.FisherCalculator,
	manager *bayes.PosteriorManager,
	stopping *infotheory.StoppingCriterion,
	sequencer *Sequencer,
	artifacts *design.ArtifactSet,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	libraryIDs := make(map[string]bool)
	if artifacts != nil {
		for _, v := range artifacts.Library {
			libraryIDs[v.VignetteID] = true
		}
	}
	return &Runner{
		likelihood: likelihood,
		fisher:     fisher,
		manager:    manager,
		stopping:   stopping,
		sequencer:  sequencer,
		libraryIDs: libraryIDs,
		logger:     logger,
	}
}

// NextVignette returns the vignette to present, or nil when the
// progression is exhausted.
func (r *Runner) NextVignette(state *State) *preference.Vignette {
	return r.sequencer.Next(state)
}

// RecordChoice folds one observed A/B choice into the session: posterior
// update via the Laplace approximation, Fisher information accumulation
// under the updated mean, and history bookkeeping.
func (r *Runner) RecordChoice(state *State, v *preference.Vignette, chosenOption string) error {
	if chosenOption != preference.OptionA && chosenOption != preference.OptionB {
		return fmt.Errorf("chosen option must be %q or %q, got %q", preference.OptionA, preference.OptionB, chosenOption)
	}
	if err := state.RecordResponse(v, chosenOption); err != nil {
		return err
	}
	if r.libraryIDs[v.VignetteID] {
		state.AdaptiveShown++
	}

	r.manager.Restore(state.Posterior)
	likelihoodFn := r.likelihood.LikelihoodFunction(v, chosenOption)
	posterior := r.manager.Update(likelihoodFn, chosenOption)

	fim := infotheory.ZeroFIM()
	fim.CopySym(state.FIM)
	fim.AddSym(fim, r.fisher.FIM(v, posterior.Mean()))

	state.ApplyUpdate(posterior, fim)

	r.logger.Debug("recorded choice",
		zap.String("vignette_id", v.VignetteID),
		zap.String("chosen_option", chosenOption),
		zap.Int("vignettes_shown", state.VignettesShown()),
		zap.Float64("fim_determinant", infotheory.Determinant(fim)),
	)
	return nil
}

// ShouldContinue applies the stopping rule to the session's current
// belief.
func (r *Runner) ShouldContinue(state *State) (bool, string) {
	return r.stopping.ShouldContinue(state.Posterior, state.FIM, state.VignettesShown())
}

// Diagnostics surfaces the stopping rule's full view of the session.
func (r *Runner) Diagnostics(state *State) map[string]any {
	return r.stopping.Diagnostics(state.Posterior, state.FIM, state.VignettesShown())
}
