package preference

import (
	"fmt"
)

// Option identifiers used across the engine and in persisted artifacts.
const (
	OptionA = "A"
	OptionB = "B"
)

// VignetteOption is one side of a forced-choice pair. Immutable once
// constructed.
type VignetteOption struct {
	OptionID    string         `json:"option_id"`
	Title       string         `json:"title"`
	Attributes  map[string]any `json:"attributes"`
	Description string         `json:"description"`
}

// Vignette is a forced-choice pair of job options presented to the user.
type Vignette struct {
	VignetteID   string           `json:"vignette_id"`
	Category     string           `json:"category"`
	ScenarioText string           `json:"scenario_text"`
	Options      []VignetteOption `json:"options"`
}

// NewVignette builds a vignette from exactly two options with distinct
// option ids.
func NewVignette(id, category, scenario string, a, b VignetteOption) (*Vignette, error) {
	v := &Vignette{
		VignetteID:   id,
		Category:     category,
		ScenarioText: scenario,
		Options:      []VignetteOption{a, b},
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks the two-option invariant.
func (v *Vignette) Validate() error {
	if len(v.Options) != 2 {
		return fmt.Errorf("vignette %s: expected exactly 2 options, got %d", v.VignetteID, len(v.Options))
	}
	if v.Options[0].OptionID == v.Options[1].OptionID {
		return fmt.Errorf("vignette %s: option ids must be distinct, both are %q", v.VignetteID, v.Options[0].OptionID)
	}
	return nil
}

// Option returns the option with the given id, or nil.
func (v *Vignette) Option(optionID string) *VignetteOption {
	for i := range v.Options {
		if v.Options[i].OptionID == optionID {
			return &v.Options[i]
		}
	}
	return nil
}

// JobProfile is a point on the discrete attribute grid used by the offline
// design pipeline. Profiles are feature-encoded exactly like vignette
// options.
type JobProfile struct {
	ProfileID  string         `json:"profile_id"`
	Attributes map[string]any `json:"attributes"`
}
