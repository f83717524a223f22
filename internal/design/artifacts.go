package design

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tabiya-tech/elicit/internal/preference"
)

// Artifact file names written by the pipeline and read at session start.
const (
	AllProfilesFile       = "all_profiles.json"
	CandidateProfilesFile = "candidate_profiles.json"
	StaticBeginningFile   = "static_vignettes_beginning.json"
	StaticEndFile         = "static_vignettes_end.json"
	AdaptiveLibraryFile   = "adaptive_library.json"
)

// ProfileArtifact is the on-disk shape of a profile list.
type ProfileArtifact struct {
	Metadata map[string]any           `json:"metadata"`
	Profiles []*preference.JobProfile `json:"profiles"`
}

// VignetteArtifact is the on-disk shape of a vignette list.
type VignetteArtifact struct {
	Metadata  map[string]any         `json:"metadata"`
	Vignettes []*preference.Vignette `json:"vignettes"`
}

// ArtifactSet is everything a runtime session needs from the offline
// pipeline.
type ArtifactSet struct {
	Beginning []*preference.Vignette
	End       []*preference.Vignette
	Library   []*preference.Vignette
}

// NewMetadata stamps common artifact metadata.
func NewMetadata(kind string, count int, extra map[string]any) map[string]any {
	meta := map[string]any{
		"kind":         kind,
		"count":        count,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}

// WriteProfiles writes a profile artifact.
func WriteProfiles(path string, metadata map[string]any, profiles []*preference.JobProfile) error {
	return writeJSON(path, ProfileArtifact{Metadata: metadata, Profiles: profiles})
}

// WriteVignettes writes a vignette artifact.
func WriteVignettes(path string, metadata map[string]any, vignettes []*preference.Vignette) error {
	return writeJSON(path, VignetteArtifact{Metadata: metadata, Vignettes: vignettes})
}

// ReadVignettes loads and validates a vignette artifact.
func ReadVignettes(path string) (*VignetteArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vignette artifact %q: %w", path, err)
	}
	var artifact VignetteArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parsing vignette artifact %q: %w", path, err)
	}
	for _, v := range artifact.Vignettes {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("artifact %q: %w", path, err)
		}
	}
	return &artifact, nil
}

// LoadArtifacts reads the three runtime vignette artifacts from a
// directory.
func LoadArtifacts(dir string) (*ArtifactSet, error) {
	beginning, err := ReadVignettes(filepath.Join(dir, StaticBeginningFile))
	if err != nil {
		return nil, err
	}
	end, err := ReadVignettes(filepath.Join(dir, StaticEndFile))
	if err != nil {
		return nil, err
	}
	library, err := ReadVignettes(filepath.Join(dir, AdaptiveLibraryFile))
	if err != nil {
		return nil, err
	}
	return &ArtifactSet{
		Beginning: beginning.Vignettes,
		End:       end.Vignettes,
		Library:   library.Vignettes,
	}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %q: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}
