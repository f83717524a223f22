package design

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tabiya-tech/elicit/internal/preference"
)

const defaultScenario = "Imagine you are choosing between these two jobs. Which one would you prefer?"

// VignetteConverter turns selected profile pairs into runtime vignettes,
// inferring a category label from the dimension the pair discriminates
// most strongly on.
type VignetteConverter struct {
	encoder *preference.Encoder
}

// NewVignetteConverter builds a converter over the shared encoder.
func NewVignetteConverter(encoder *preference.Encoder) *VignetteConverter {
	return &VignetteConverter{encoder: encoder}
}

// Convert serializes one pair into the runtime vignette schema.
func (c *VignetteConverter) Convert(pair *ProfilePair) (*preference.Vignette, error) {
	optA := preference.VignetteOption{
		OptionID:    preference.OptionA,
		Title:       "Job A",
		Attributes:  pair.A.Attributes,
		Description: describeAttributes(pair.A.Attributes),
	}
	optB := preference.VignetteOption{
		OptionID:    preference.OptionB,
		Title:       "Job B",
		Attributes:  pair.B.Attributes,
		Description: describeAttributes(pair.B.Attributes),
	}

	return preference.NewVignette(
		uuid.NewString(),
		c.inferCategory(pair),
		defaultScenario,
		optA, optB,
	)
}

// ConvertAll converts a selection in order.
func (c *VignetteConverter) ConvertAll(pairs []*ProfilePair) ([]*preference.Vignette, error) {
	out := make([]*preference.Vignette, 0, len(pairs))
	for _, pair := range pairs {
		v, err := c.Convert(pair)
		if err != nil {
			return nil, fmt.Errorf("converting pair %s: %w", pair.Key(), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// inferCategory names the dimension with the largest absolute feature
// difference.
func (c *VignetteConverter) inferCategory(pair *ProfilePair) string {
	best := 0
	for i := range pair.Diff {
		if math.Abs(pair.Diff[i]) > math.Abs(pair.Diff[best]) {
			best = i
		}
	}
	return preference.Dimensions()[best]
}

func describeAttributes(attrs map[string]any) string {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		label := strings.ReplaceAll(name, "_", " ")
		switch v := attrs[name].(type) {
		case bool:
			if v {
				parts = append(parts, label)
			} else {
				parts = append(parts, "no "+label)
			}
		case float64:
			parts = append(parts, fmt.Sprintf("%s: %g", label, v))
		default:
			parts = append(parts, fmt.Sprintf("%s: %v", label, v))
		}
	}
	return strings.Join(parts, ", ")
}
