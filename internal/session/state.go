package session

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/infotheory"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// Phase is a conversation phase of the elicitation session.
type Phase string

// Conversation phases, in the order a default session visits them.
// FOLLOW_UP is an excursion from VIGNETTES that returns to it; COMPLETE is
// terminal.
const (
	PhaseIntro               Phase = "INTRO"
	PhaseExperienceQuestions Phase = "EXPERIENCE_QUESTIONS"
	PhaseBWS                 Phase = "BWS"
	PhaseVignettes           Phase = "VIGNETTES"
	PhaseFollowUp            Phase = "FOLLOW_UP"
	PhaseWrapup              Phase = "WRAPUP"
	PhaseComplete            Phase = "COMPLETE"
)

var legalTransitions = map[Phase][]Phase{
	PhaseIntro:               {PhaseExperienceQuestions},
	PhaseExperienceQuestions: {PhaseBWS},
	PhaseBWS:                 {PhaseVignettes},
	PhaseVignettes:           {PhaseFollowUp, PhaseWrapup},
	PhaseFollowUp:            {PhaseVignettes},
	PhaseWrapup:              {PhaseComplete},
	PhaseComplete:            {},
}

// CanTransition reports whether moving to next is legal from this phase.
func (p Phase) CanTransition(next Phase) bool {
	for _, allowed := range legalTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the phase has no outgoing transitions.
func (p Phase) Terminal() bool {
	return len(legalTransitions[p]) == 0
}

// State is the durable session aggregate threading the numeric core
// together across turns. It is owned by exactly one in-flight turn at a
// time; no concurrent mutation is supported.
type State struct {
	SessionID string
	Phase     Phase

	Posterior *bayes.Posterior
	FIM       *mat.SymDense

	Uncertainty         map[string]float64
	CompletedVignettes  []string
	CompletedCategories []string
	VignetteResponses   map[string]string

	AdaptiveShown        int
	UseAdaptiveSelection bool

	UpdatedAt time.Time
}

// NewState creates a fresh session at the intro phase with the given prior
// belief.
func NewState(sessionID string, prior *bayes.Posterior, useAdaptive bool) *State {
	s := &State{
		SessionID:            sessionID,
		Phase:                PhaseIntro,
		Posterior:            prior,
		FIM:                  infotheory.ZeroFIM(),
		VignetteResponses:    make(map[string]string),
		UseAdaptiveSelection: useAdaptive,
		UpdatedAt:            time.Now().UTC(),
	}
	s.refreshUncertainty()
	return s
}

// TransitionTo moves the session to the next phase, rejecting illegal
// transitions.
func (s *State) TransitionTo(next Phase) error {
	if !s.Phase.CanTransition(next) {
		return fmt.Errorf("illegal phase transition %s -> %s", s.Phase, next)
	}
	s.Phase = next
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// VignettesShown is the number of completed vignettes.
func (s *State) VignettesShown() int {
	return len(s.CompletedVignettes)
}

// HasSeen reports whether a vignette id was already shown this session.
func (s *State) HasSeen(vignetteID string) bool {
	for _, id := range s.CompletedVignettes {
		if id == vignetteID {
			return true
		}
	}
	return false
}

// RecordResponse appends one completed vignette to the history. Repeated
// ids are rejected: a vignette is shown at most once per session.
func (s *State) RecordResponse(v *preference.Vignette, chosenOption string) error {
	if s.HasSeen(v.VignetteID) {
		return fmt.Errorf("vignette %s was already shown this session", v.VignetteID)
	}
	s.CompletedVignettes = append(s.CompletedVignettes, v.VignetteID)
	s.CompletedCategories = append(s.CompletedCategories, v.Category)
	s.VignetteResponses[v.VignetteID] = chosenOption
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// CategoryCoverage counts distinct categories among completed vignettes.
func (s *State) CategoryCoverage() int {
	seen := make(map[string]bool, len(s.CompletedCategories))
	for _, c := range s.CompletedCategories {
		seen[c] = true
	}
	return len(seen)
}

// CompletionGate holds the three conjunctive conditions for early
// termination.
type CompletionGate struct {
	MinVignettes  int     `mapstructure:"min-vignettes"`
	MinCategories int     `mapstructure:"min-categories"`
	MaxVariance   float64 `mapstructure:"max-variance"`
}

// CanComplete reports whether the session may terminate early: minimum
// vignette count, minimum category coverage, and posterior confidence must
// all hold.
func (s *State) CanComplete(gate CompletionGate) bool {
	if s.VignettesShown() < gate.MinVignettes {
		return false
	}
	if s.CategoryCoverage() < gate.MinCategories {
		return false
	}
	for _, v := range s.Posterior.Variances() {
		if v > gate.MaxVariance {
			return false
		}
	}
	return true
}

// ApplyUpdate installs the turn's new belief and accumulated information.
func (s *State) ApplyUpdate(posterior *bayes.Posterior, fim *mat.SymDense) {
	s.Posterior = posterior
	s.FIM = fim
	s.refreshUncertainty()
	s.UpdatedAt = time.Now().UTC()
}

func (s *State) refreshUncertainty() {
	s.Uncertainty = make(map[string]float64, preference.NumDimensions)
	for _, dim := range preference.Dimensions() {
		s.Uncertainty[dim] = s.Posterior.Variance(dim)
	}
}
