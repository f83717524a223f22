package design

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tabiya-tech/elicit/internal/bayes"
	"github.com/tabiya-tech/elicit/internal/infotheory"
	"github.com/tabiya-tech/elicit/internal/preference"
)

// PipelineConfig is the full knob set for one offline design run.
type PipelineConfig struct {
	OutputDir       string
	AttributeConfig string
	NumStatic       int
	NumBeginning    int
	NumLibrary      int
	DiversityWeight float64
	SampleSize      int
	MaxProfiles     int
	ApplyDominance  bool
	Seed            uint64
	Temperature     float64
	PriorMean       []float64
}

// Validate fails fast on configuration errors before any work starts.
func (c *PipelineConfig) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.NumStatic <= 0 {
		return fmt.Errorf("num-static must be positive, got %d", c.NumStatic)
	}
	if c.NumBeginning < 0 || c.NumBeginning > c.NumStatic {
		return fmt.Errorf("num-beginning %d must be within [0, %d]", c.NumBeginning, c.NumStatic)
	}
	if c.NumLibrary <= 0 {
		return fmt.Errorf("num-library must be positive, got %d", c.NumLibrary)
	}
	if c.DiversityWeight < 0 || c.DiversityWeight > 1 {
		return fmt.Errorf("diversity-weight %v must be within [0,1]", c.DiversityWeight)
	}
	if c.PriorMean != nil && len(c.PriorMean) != preference.NumDimensions {
		return fmt.Errorf("prior mean must have %d entries, got %d", preference.NumDimensions, len(c.PriorMean))
	}
	return nil
}

// RunPipeline executes the full offline design pipeline: profile
// generation, optional dominance filtering, D-efficient static selection,
// and diversity-aware library construction, writing every artifact to the
// output directory.
func RunPipeline(cfg *PipelineConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	defs := preference.DefaultAttributes()
	if cfg.AttributeConfig != "" {
		loaded, err := preference.LoadAttributes(cfg.AttributeConfig)
		if err != nil {
			return err
		}
		defs = loaded
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %q: %w", cfg.OutputDir, err)
	}

	encoder := preference.NewEncoder(defs)
	likelihood := bayes.NewLikelihoodCalculator(encoder, cfg.Temperature)
	fisher := infotheory.NewFisherCalculator(encoder, likelihood)

	priorMean := preference.Weights(cfg.PriorMean)
	if priorMean == nil {
		priorMean = preference.ZeroWeights()
	}

	// Step 1: enumerate the grid.
	generator, err := NewProfileGenerator(defs, cfg.MaxProfiles, logger)
	if err != nil {
		return err
	}
	profiles := generator.Generate()
	if err := WriteProfiles(
		filepath.Join(cfg.OutputDir, AllProfilesFile),
		NewMetadata("all_profiles", len(profiles), nil),
		profiles,
	); err != nil {
		return err
	}

	// Step 2: dominance filtering, off by default. Pairwise informativeness
	// drives static selection, so globally dominated profiles still make
	// useful vignette sides.
	candidates := profiles
	if cfg.ApplyDominance {
		candidates = NewDominanceFilter(defs, logger).Filter(profiles)
	}
	if err := WriteProfiles(
		filepath.Join(cfg.OutputDir, CandidateProfilesFile),
		NewMetadata("candidate_profiles", len(candidates), map[string]any{"dominance_applied": cfg.ApplyDominance}),
		candidates,
	); err != nil {
		return err
	}

	converter := NewVignetteConverter(encoder)

	// Step 3: D-efficient static selection.
	optimizer := NewDEfficiencyOptimizer(encoder, fisher, cfg.Seed, logger)
	beginningPairs, endPairs, err := optimizer.SelectStaticVignettes(candidates, cfg.NumStatic, cfg.NumBeginning, priorMean, cfg.SampleSize)
	if err != nil {
		return fmt.Errorf("static selection: %w", err)
	}
	logger.Info("static selection complete",
		zap.Int("beginning", len(beginningPairs)),
		zap.Int("end", len(endPairs)),
	)

	beginning, err := converter.ConvertAll(beginningPairs)
	if err != nil {
		return err
	}
	end, err := converter.ConvertAll(endPairs)
	if err != nil {
		return err
	}
	if err := WriteVignettes(
		filepath.Join(cfg.OutputDir, StaticBeginningFile),
		NewMetadata("static_vignettes_beginning", len(beginning), nil),
		beginning,
	); err != nil {
		return err
	}
	if err := WriteVignettes(
		filepath.Join(cfg.OutputDir, StaticEndFile),
		NewMetadata("static_vignettes_end", len(end), nil),
		end,
	); err != nil {
		return err
	}

	// Step 4: adaptive library, disjoint from the statics.
	excluded := make(map[string]bool, len(beginningPairs)+len(endPairs))
	for _, pair := range beginningPairs {
		excluded[pair.Key()] = true
	}
	for _, pair := range endPairs {
		excluded[pair.Key()] = true
	}

	builder := NewAdaptiveLibraryBuilder(encoder, fisher, cfg.Seed+1, logger)
	libraryPairs, err := builder.Build(candidates, cfg.NumLibrary, excluded, priorMean, cfg.DiversityWeight, cfg.SampleSize)
	if err != nil {
		return fmt.Errorf("adaptive library: %w", err)
	}
	library, err := converter.ConvertAll(libraryPairs)
	if err != nil {
		return err
	}
	if err := WriteVignettes(
		filepath.Join(cfg.OutputDir, AdaptiveLibraryFile),
		NewMetadata("adaptive_library", len(library), map[string]any{"diversity_weight": cfg.DiversityWeight}),
		library,
	); err != nil {
		return err
	}

	logger.Info("design pipeline complete",
		zap.String("output_dir", cfg.OutputDir),
		zap.Int("profiles", len(profiles)),
		zap.Int("candidates", len(candidates)),
		zap.Int("static_vignettes", len(beginning)+len(end)),
		zap.Int("library_vignettes", len(library)),
	)
	return nil
}
