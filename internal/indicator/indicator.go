// Package indicator provides calcium indicator presets that set the decay
// dynamics of the generated traces.
package indicator

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/mrsinham/calciumforge/internal/util"
)

// Kind distinguishes genetically encoded indicators from synthetic dyes.
type Kind string

const (
	Genetic Kind = "GECI" // Genetically encoded calcium indicator
	Dye     Kind = "dye"  // Synthetic chemical dye
)

// Preset describes one calcium indicator.
type Preset struct {
	Name        string
	Kind        Kind
	Tau         float64 // Decay time constant in seconds
	Description string
}

var presets = []Preset{
	{Name: "GCaMP6s", Kind: Genetic, Tau: 1.0, Description: "slow, high sensitivity"},
	{Name: "GCaMP6m", Kind: Genetic, Tau: 0.7, Description: "medium kinetics"},
	{Name: "GCaMP6f", Kind: Genetic, Tau: 0.4, Description: "fast kinetics"},
	{Name: "jGCaMP7s", Kind: Genetic, Tau: 1.2, Description: "slow, very high sensitivity"},
	{Name: "jGCaMP7f", Kind: Genetic, Tau: 0.27, Description: "fast kinetics"},
	{Name: "jGCaMP8f", Kind: Genetic, Tau: 0.1, Description: "ultrafast kinetics"},
	{Name: "OGB-1", Kind: Dye, Tau: 0.5, Description: "Oregon Green BAPTA-1 AM dye"},
	{Name: "Cal-520", Kind: Dye, Tau: 0.6, Description: "high signal-to-noise dye"},
}

// All returns every preset in declaration order.
func All() []Preset {
	return slices.Clone(presets)
}

// Names returns the preset names, sorted.
func Names() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	slices.Sort(names)
	return names
}

// IsValid checks if a preset name is known (case-insensitive).
func IsValid(name string) bool {
	_, err := Lookup(name)
	return err == nil
}

// Lookup returns the preset with the given name, ignoring case.
func Lookup(name string) (Preset, error) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return Preset{}, util.UnknownNameError("indicator", name, Names())
}

// Apply sets the decay constant of opts to the preset's.
func (p Preset) Apply(opts *synth.Options) {
	opts.Tau = p.Tau
	opts.CellTaus = nil
}

// CellTaus draws one decay constant per cell, uniform in
// tau*(1-spread) .. tau*(1+spread). spread is clamped to [0, 0.9].
func CellTaus(tau float64, cells int, spread float64, rng *rand.Rand) []float64 {
	spread = min(max(spread, 0), 0.9)
	taus := make([]float64, cells)
	for i := range taus {
		taus[i] = tau * (1 + spread*(2*rng.Float64()-1))
	}
	return taus
}
