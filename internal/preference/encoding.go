package preference

// Encoder maps attribute mappings into the 7-dimension feature space. The
// same encoder instance must be shared by the likelihood and Fisher
// information calculators so both see identical feature vectors.
type Encoder struct {
	defs []AttributeDefinition
}

// NewEncoder builds an encoder for the given attribute grid.
func NewEncoder(defs []AttributeDefinition) *Encoder {
	return &Encoder{defs: defs}
}

// Definitions returns the attribute grid backing this encoder.
func (e *Encoder) Definitions() []AttributeDefinition {
	return e.defs
}

// Encode turns an attribute mapping into a feature vector. Contributions to
// the same dimension accumulate. Missing attributes contribute zero.
func (e *Encoder) Encode(attrs map[string]any) []float64 {
	features := make([]float64, NumDimensions)
	for _, def := range e.defs {
		raw, ok := attrs[def.Name]
		if !ok {
			continue
		}

		idx, ok := DimensionIndex(def.Dimension)
		if !ok {
			continue
		}

		var value float64
		switch def.Type {
		case AttrBoolean:
			if asBool(raw) {
				value = 1
			}
		case AttrNumeric:
			scale := def.Scale
			if scale == 0 {
				scale = 1
			}
			value = asFloat(raw) / scale
			if !def.HigherIsBetter {
				value = -value
			}
		}

		features[idx] += value
	}
	return features
}

// EncodeOption encodes a vignette option's attributes.
func (e *Encoder) EncodeOption(opt *VignetteOption) []float64 {
	if opt == nil {
		return make([]float64, NumDimensions)
	}
	return e.Encode(opt.Attributes)
}

// EncodeProfile encodes a job profile's attributes.
func (e *Encoder) EncodeProfile(p *JobProfile) []float64 {
	if p == nil {
		return make([]float64, NumDimensions)
	}
	return e.Encode(p.Attributes)
}

// FeatureDiff returns x_A - x_B for a vignette's two options.
func (e *Encoder) FeatureDiff(v *Vignette) []float64 {
	xa := e.EncodeOption(v.Option(OptionA))
	xb := e.EncodeOption(v.Option(OptionB))
	diff := make([]float64, NumDimensions)
	for i := range diff {
		diff[i] = xa[i] - xb[i]
	}
	return diff
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case string:
		return b == "true"
	default:
		return false
	}
}
