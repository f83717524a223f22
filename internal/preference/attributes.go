package preference

import (
	"encoding/json"
	"fmt"
	"os"
)

// Attribute value kinds.
const (
	AttrNumeric = "numeric"
	AttrBoolean = "boolean"
)

// AttributeDefinition describes one attribute of the job-profile grid: which
// preference dimension it loads on, the discrete levels the offline generator
// enumerates, and how raw values are scaled into feature space.
type AttributeDefinition struct {
	Name      string `json:"name" mapstructure:"name"`
	Dimension string `json:"dimension" mapstructure:"dimension"`
	Type      string `json:"type" mapstructure:"type"`
	// Levels are the grid values for numeric attributes. Boolean attributes
	// always enumerate false and true.
	Levels []float64 `json:"levels,omitempty" mapstructure:"levels"`
	// Scale divides numeric values before they enter the feature vector
	// (e.g. salary in currency units divided by 5000). Defaults to 1.
	Scale float64 `json:"scale,omitempty" mapstructure:"scale"`
	// HigherIsBetter orients the attribute for dominance comparison and
	// flips the sign of the feature contribution when false (e.g. commute
	// minutes). Booleans are always higher-is-better.
	HigherIsBetter bool `json:"higher_is_better" mapstructure:"higher_is_better"`
}

type attributeFile struct {
	Attributes []AttributeDefinition `json:"attributes"`
}

// DefaultAttributes is the built-in job-attribute grid used when no
// attribute-definition file is supplied.
func DefaultAttributes() []AttributeDefinition {
	return []AttributeDefinition{
		{Name: "monthly_salary", Dimension: DimFinancial, Type: AttrNumeric, Levels: []float64{2500, 4000, 6000}, Scale: 5000, HigherIsBetter: true},
		{Name: "supportive_team", Dimension: DimWorkEnvironment, Type: AttrBoolean, HigherIsBetter: true},
		{Name: "physical_demand", Dimension: DimWorkEnvironment, Type: AttrNumeric, Levels: []float64{0, 1}, Scale: 1, HigherIsBetter: false},
		{Name: "career_growth", Dimension: DimCareerGrowth, Type: AttrBoolean, HigherIsBetter: true},
		{Name: "schedule_flexibility", Dimension: DimWorkLifeBalance, Type: AttrNumeric, Levels: []float64{0, 0.5, 1}, Scale: 1, HigherIsBetter: true},
		{Name: "commute_minutes", Dimension: DimWorkLifeBalance, Type: AttrNumeric, Levels: []float64{15, 60}, Scale: 60, HigherIsBetter: false},
		{Name: "permanent_contract", Dimension: DimJobSecurity, Type: AttrBoolean, HigherIsBetter: true},
		{Name: "hands_on_work", Dimension: DimTaskPreference, Type: AttrBoolean, HigherIsBetter: true},
		{Name: "mission_driven", Dimension: DimValuesCulture, Type: AttrBoolean, HigherIsBetter: true},
		{Name: "remote_work", Dimension: DimWorkLifeBalance, Type: AttrBoolean, HigherIsBetter: true},
	}
}

// LoadAttributes reads an attribute-definition JSON file. A malformed file is
// a configuration error and fails immediately.
func LoadAttributes(path string) ([]AttributeDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attribute definitions from %q: %w", path, err)
	}

	var file attributeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing attribute definitions from %q: %w", path, err)
	}

	if err := ValidateAttributes(file.Attributes); err != nil {
		return nil, fmt.Errorf("attribute definitions in %q: %w", path, err)
	}

	return file.Attributes, nil
}

// ValidateAttributes checks an attribute grid for the invariants the encoder
// and the generator rely on.
func ValidateAttributes(defs []AttributeDefinition) error {
	if len(defs) == 0 {
		return fmt.Errorf("no attributes defined")
	}

	seen := make(map[string]bool, len(defs))
	for i := range defs {
		def := &defs[i]
		if def.Name == "" {
			return fmt.Errorf("attribute %d: name is required", i)
		}
		if seen[def.Name] {
			return fmt.Errorf("attribute %q: duplicate name", def.Name)
		}
		seen[def.Name] = true

		if _, ok := DimensionIndex(def.Dimension); !ok {
			return fmt.Errorf("attribute %q: unknown dimension %q", def.Name, def.Dimension)
		}

		switch def.Type {
		case AttrNumeric:
			if len(def.Levels) < 2 {
				return fmt.Errorf("attribute %q: numeric attributes need at least 2 levels", def.Name)
			}
			if def.Scale == 0 {
				def.Scale = 1
			}
			if def.Scale < 0 {
				return fmt.Errorf("attribute %q: scale must be positive", def.Name)
			}
		case AttrBoolean:
			if len(def.Levels) != 0 {
				return fmt.Errorf("attribute %q: boolean attributes must not define levels", def.Name)
			}
		default:
			return fmt.Errorf("attribute %q: unknown type %q", def.Name, def.Type)
		}
	}

	return nil
}
