package session

import (
	"github.com/tabiya-tech/elicit/internal/adaptive"
	"github.com/tabiya-tech/elicit/internal/design"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// Sequencer walks the default vignette progression: the beginning statics
// in order, then an adaptive-library segment bounded by MaxAdaptive, then
// the end statics. Vignette ids never repeat within a session.
type Sequencer struct {
	artifacts   *design.ArtifactSet
	selector    *adaptive.Selector
	maxAdaptive int
}

// NewSequencer builds a sequencer over the offline artifacts. The selector
// is only consulted when the session has adaptive selection enabled; a nil
// selector forces fixed library order.
func NewSequencer(artifacts *design.ArtifactSet, selector *adaptive.Selector, maxAdaptive int) *Sequencer {
	if maxAdaptive < 0 {
		maxAdaptive = 0
	}
	return &Sequencer{artifacts: artifacts, selector: selector, maxAdaptive: maxAdaptive}
}

// Next returns the vignette to show for the session's current progress, or
// nil when the progression is exhausted.
func (q *Sequencer) Next(state *State) *preference.Vignette {
	if v := q.firstUnseen(q.artifacts.Beginning, state); v != nil {
		return v
	}

	if state.AdaptiveShown < q.maxAdaptive {
		if v := q.nextAdaptive(state); v != nil {
			return v
		}
		// Library exhausted; fall through to the end statics.
	}

	return q.firstUnseen(q.artifacts.End, state)
}

func (q *Sequencer) firstUnseen(vignettes []*preference.Vignette, state *State) *preference.Vignette {
	for _, v := range vignettes {
		if !state.HasSeen(v.VignetteID) {
			return v
		}
	}
	return nil
}

func (q *Sequencer) nextAdaptive(state *State) *preference.Vignette {
	if state.UseAdaptiveSelection && q.selector != nil {
		excluded := make(map[string]bool, len(state.CompletedVignettes))
		for _, id := range state.CompletedVignettes {
			excluded[id] = true
		}
		return q.selector.Next(q.artifacts.Library, state.Posterior, excluded)
	}
	return q.firstUnseen(q.artifacts.Library, state)
}
