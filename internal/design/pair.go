package design

import (
	"golang.org/x/exp/rand"

	"github.com/tabiya-tech/elicit/internal/preference"
)

// ProfilePair is a candidate vignette before conversion: two distinct
// profiles and their feature difference.
type ProfilePair struct {
	A    *preference.JobProfile
	B    *preference.JobProfile
	Diff []float64
}

// Key identifies a pair regardless of option ordering.
func (p *ProfilePair) Key() string {
	if p.A.ProfileID < p.B.ProfileID {
		return p.A.ProfileID + "|" + p.B.ProfileID
	}
	return p.B.ProfileID + "|" + p.A.ProfileID
}

// samplePairs draws up to sampleSize distinct unordered profile pairs with
// non-zero feature difference. With a small pool it degrades to full
// enumeration.
func samplePairs(profiles []*preference.JobProfile, encoder *preference.Encoder, sampleSize int, rng *rand.Rand) []*ProfilePair {
	n := len(profiles)
	if n < 2 {
		return nil
	}

	totalPairs := n * (n - 1) / 2
	features := make([][]float64, n)
	for i, p := range profiles {
		features[i] = encoder.EncodeProfile(p)
	}

	build := func(i, j int) *ProfilePair {
		diff := make([]float64, preference.NumDimensions)
		zero := true
		for k := range diff {
			diff[k] = features[i][k] - features[j][k]
			if diff[k] != 0 {
				zero = false
			}
		}
		if zero {
			// Indistinguishable alternatives carry no information.
			return nil
		}
		return &ProfilePair{A: profiles[i], B: profiles[j], Diff: diff}
	}

	if sampleSize <= 0 || sampleSize >= totalPairs {
		pairs := make([]*ProfilePair, 0, totalPairs)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if p := build(i, j); p != nil {
					pairs = append(pairs, p)
				}
			}
		}
		return pairs
	}

	seen := make(map[string]bool, sampleSize)
	pairs := make([]*ProfilePair, 0, sampleSize)
	// Rejection sampling with a bounded attempt budget.
	for attempts := 0; len(pairs) < sampleSize && attempts < sampleSize*20; attempts++ {
		i := rng.Intn(n)
		j := rng.Intn(n)
		if i == j {
			continue
		}
		if i > j {
			i, j = j, i
		}
		p := build(i, j)
		if p == nil || seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		pairs = append(pairs, p)
	}
	return pairs
}
