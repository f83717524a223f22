package session

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"gonum.org/v1/gonum/mat"

	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// stateDocument is the persistence-boundary shape of a session: plain
// strings and nested float lists, nothing matrix-typed. The internal
// representation converts to and from it exactly, at this boundary only.
type stateDocument struct {
	SessionID            string             `json:"session_id" mapstructure:"session_id"`
	Phase                string             `json:"phase" mapstructure:"phase"`
	Dimensions           []string           `json:"dimensions" mapstructure:"dimensions"`
	PosteriorMean        []float64          `json:"posterior_mean" mapstructure:"posterior_mean"`
	PosteriorCov         [][]float64        `json:"posterior_cov" mapstructure:"posterior_cov"`
	FIM                  [][]float64        `json:"fim" mapstructure:"fim"`
	Uncertainty          map[string]float64 `json:"uncertainty" mapstructure:"uncertainty"`
	CompletedVignettes   []string           `json:"completed_vignettes" mapstructure:"completed_vignettes"`
	CompletedCategories  []string           `json:"completed_categories" mapstructure:"completed_categories"`
	VignetteResponses    map[string]string  `json:"vignette_responses" mapstructure:"vignette_responses"`
	AdaptiveShown        int                `json:"adaptive_shown" mapstructure:"adaptive_shown"`
	UseAdaptiveSelection bool               `json:"use_adaptive_selection" mapstructure:"use_adaptive_selection"`
	UpdatedAt            string             `json:"updated_at" mapstructure:"updated_at"`
}

// ToDocument flattens a state into a document mapping for the store.
func ToDocument(s *State) map[string]any {
	mean, cov := s.Posterior.ToDocument()

	n := preference.NumDimensions
	fim := make([][]float64, n)
	for i := 0; i < n; i++ {
		fim[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if s.FIM != nil {
				fim[i][j] = s.FIM.At(i, j)
			}
		}
	}

	doc := stateDocument{
		SessionID:            s.SessionID,
		Phase:                string(s.Phase),
		Dimensions:           s.Posterior.Dimensions(),
		PosteriorMean:        mean,
		PosteriorCov:         cov,
		FIM:                  fim,
		Uncertainty:          s.Uncertainty,
		CompletedVignettes:   s.CompletedVignettes,
		CompletedCategories:  s.CompletedCategories,
		VignetteResponses:    s.VignetteResponses,
		AdaptiveShown:        s.AdaptiveShown,
		UseAdaptiveSelection: s.UseAdaptiveSelection,
		UpdatedAt:            s.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}

	out := make(map[string]any)
	// Encoding a flat struct into a map cannot fail; the decoder config is
	// the same one FromDocument uses.
	_ = mapstructure.Decode(&doc, &out)
	return out
}

// FromDocument rebuilds a typed state from a document mapping, e.g. one
// that round-tripped through JSON.
func FromDocument(doc map[string]any) (*State, error) {
	var d stateDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &d,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("building session document decoder: %w", err)
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding session document: %w", err)
	}
	if d.SessionID == "" {
		return nil, fmt.Errorf("session document has no session_id")
	}

	n := preference.NumDimensions
	fim := mat.NewSymDense(n, nil)
	for i := 0; i < n && i < len(d.FIM); i++ {
		for j := i; j < n && j < len(d.FIM[i]); j++ {
			fim.SetSym(i, j, (d.FIM[i][j]+d.FIM[j][i])/2)
		}
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, d.UpdatedAt)
	if err != nil {
		updatedAt = time.Now().UTC()
	}

	responses := d.VignetteResponses
	if responses == nil {
		responses = make(map[string]string)
	}

	state := &State{
		SessionID:            d.SessionID,
		Phase:                Phase(d.Phase),
		Posterior:            bayes.PosteriorFromDocument(d.PosteriorMean, d.PosteriorCov),
		FIM:                  fim,
		Uncertainty:          d.Uncertainty,
		CompletedVignettes:   d.CompletedVignettes,
		CompletedCategories:  d.CompletedCategories,
		VignetteResponses:    responses,
		AdaptiveShown:        d.AdaptiveShown,
		UseAdaptiveSelection: d.UseAdaptiveSelection,
		UpdatedAt:            updatedAt,
	}
	if state.Uncertainty == nil {
		state.refreshUncertainty()
	}
	return state, nil
}
