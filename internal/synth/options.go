// Package synth generates synthetic calcium-imaging datasets with known
// ground truth: spatial footprints, spike trains, calcium traces, a
// correlated background and the noisy movie that combines them.
package synth

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
)

// Dims is the image plane size in pixels.
type Dims struct {
	Height int
	Width  int
}

// Pixels returns Height*Width.
func (d Dims) Pixels() int {
	return d.Height * d.Width
}

// String returns the dims as "HxW".
func (d Dims) String() string {
	return fmt.Sprintf("%dx%d", d.Height, d.Width)
}

// Index returns the flattened (column-major) pixel index of (row, col).
func (d Dims) Index(row, col int) int {
	return row + col*d.Height
}

// FluctuationScales holds the correlation length scales of the background
// fluctuations, in frames (Temporal) and pixels (Spatial).
type FluctuationScales struct {
	Temporal float64
	Spatial  float64
}

// DefaultFluctuationScales returns the length scales used by DefaultOptions.
func DefaultFluctuationScales() *FluctuationScales {
	return &FluctuationScales{Temporal: 50, Spatial: 300}
}

// Options contains all parameters needed to generate a synthetic dataset
type Options struct {
	Dims  Dims
	Cells int // Number of retained cells (N)

	// Footprint shape
	Sig                   [2]float64 // Base Gaussian scale per axis
	Truncate              float64    // Per-footprint threshold, fraction of its own peak
	DifferenceOfGaussians bool       // Ring-like shapes instead of plain blobs
	Boundary              int        // Margin kept free of centers on every edge

	// Dynamics
	Frames       int       // Duration T
	Framerate    float64   // Frames per second
	FireRate     float64   // Events per second per cell
	Tau          float64   // Indicator decay constant in seconds
	CellTaus     []float64 // Optional per-cell decay constants (len == Cells), overrides Tau
	WarmupFrames int       // Quiet period before the staggered onsets of the first half of cells

	// Background and noise
	Noise        float64            // Std of the additive Gaussian noise
	Baseline     float64            // Fluorescence baseline
	Fluctuations *FluctuationScales // nil disables correlated fluctuations
	MaxJitter    float64            // Largest diagonal jitter tried when factorizing covariances

	// Randomness: Rand wins over Seed when set.
	Seed int64
	Rand *rand.Rand

	// Optional collaborators
	Visualizer *Visualizer
	Logger     *slog.Logger

	// Progress reporting, called once per completed stage
	ProgressCallback func(current, total int)
}

// DefaultOptions returns the reference parameter set: a 48x48 field with 10
// cells imaged for 2000 frames at 30Hz.
func DefaultOptions() Options {
	return Options{
		Dims:                  Dims{Height: 48, Width: 48},
		Cells:                 10,
		Sig:                   [2]float64{3, 3},
		Truncate:              math.Exp(-2),
		DifferenceOfGaussians: true,
		Boundary:              4,
		Frames:                2000,
		Framerate:             30,
		FireRate:              0.5,
		Tau:                   1,
		WarmupFrames:          500,
		Noise:                 0.3,
		Baseline:              10,
		Fluctuations:          DefaultFluctuationScales(),
		MaxJitter:             1e-6,
		Seed:                  3,
	}
}

// CandidateCount returns the number of candidate footprints drawn before
// pruning down to n cells.
func CandidateCount(n int) int {
	return int(math.Round(1.5 * float64(n)))
}

// Validate checks the options, returning an error wrapping ErrInvalidDimensions
// or ErrInvalidOptions.
func (o *Options) Validate() error {
	if o.Dims.Height <= 0 || o.Dims.Width <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDimensions, o.Dims)
	}
	if o.Boundary < 0 {
		return fmt.Errorf("%w: boundary must be >= 0, got %d", ErrInvalidOptions, o.Boundary)
	}
	if o.Dims.Height-2*o.Boundary <= 0 || o.Dims.Width-2*o.Boundary <= 0 {
		return fmt.Errorf("%w: %s leaves no room for centers with boundary %d", ErrInvalidDimensions, o.Dims, o.Boundary)
	}
	if o.Cells < 1 {
		return fmt.Errorf("%w: cells must be >= 1, got %d", ErrInvalidOptions, o.Cells)
	}
	if o.Frames < 1 {
		return fmt.Errorf("%w: frames must be >= 1, got %d", ErrInvalidOptions, o.Frames)
	}
	if o.Framerate <= 0 {
		return fmt.Errorf("%w: framerate must be > 0, got %g", ErrInvalidOptions, o.Framerate)
	}
	if o.FireRate < 0 {
		return fmt.Errorf("%w: fire rate must be >= 0, got %g", ErrInvalidOptions, o.FireRate)
	}
	if o.Sig[0] <= 0 || o.Sig[1] <= 0 {
		return fmt.Errorf("%w: sig must be > 0, got %v", ErrInvalidOptions, o.Sig)
	}
	if o.Truncate < 0 || o.Truncate >= 1 {
		return fmt.Errorf("%w: truncate must be in [0, 1), got %g", ErrInvalidOptions, o.Truncate)
	}
	if o.Noise < 0 {
		return fmt.Errorf("%w: noise must be >= 0, got %g", ErrInvalidOptions, o.Noise)
	}
	if o.Baseline <= 0 {
		return fmt.Errorf("%w: baseline must be > 0, got %g", ErrInvalidOptions, o.Baseline)
	}
	if o.WarmupFrames < 0 {
		return fmt.Errorf("%w: warm-up must be >= 0, got %d", ErrInvalidOptions, o.WarmupFrames)
	}
	if o.CellTaus != nil {
		if len(o.CellTaus) != o.Cells {
			return fmt.Errorf("%w: %d per-cell taus for %d cells", ErrInvalidOptions, len(o.CellTaus), o.Cells)
		}
		for i, tau := range o.CellTaus {
			if tau <= 0 {
				return fmt.Errorf("%w: tau of cell %d must be > 0, got %g", ErrInvalidOptions, i, tau)
			}
		}
	} else if o.Tau <= 0 {
		return fmt.Errorf("%w: tau must be > 0, got %g", ErrInvalidOptions, o.Tau)
	}
	if f := o.Fluctuations; f != nil && (f.Temporal <= 0 || f.Spatial <= 0) {
		return fmt.Errorf("%w: fluctuation length scales must be > 0, got %g,%g", ErrInvalidOptions, f.Temporal, f.Spatial)
	}
	return nil
}

// tau returns the decay constant of cell i.
func (o *Options) tau(i int) float64 {
	if o.CellTaus != nil {
		return o.CellTaus[i]
	}
	return o.Tau
}

// NewRand creates the deterministic generator used for a given seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// Fields returns the parameters as a flat mapping keyed by their
// conventional short names, for persistence alongside the data.
func (o Options) Fields() map[string]any {
	fields := map[string]any{
		"dims":                    []int{o.Dims.Height, o.Dims.Width},
		"N":                       o.Cells,
		"sig":                     []float64{o.Sig[0], o.Sig[1]},
		"truncate":                o.Truncate,
		"difference_of_Gaussians": o.DifferenceOfGaussians,
		"boundary":                o.Boundary,
		"T":                       o.Frames,
		"framerate":               o.Framerate,
		"firerate":                o.FireRate,
		"tau":                     o.Tau,
		"warmup":                  o.WarmupFrames,
		"noise":                   o.Noise,
		"bkgrd":                   o.Baseline,
		"fluctuating_bkgrd":       nil,
		"seed":                    o.Seed,
	}
	if o.Fluctuations != nil {
		fields["fluctuating_bkgrd"] = []float64{o.Fluctuations.Temporal, o.Fluctuations.Spatial}
	}
	if o.CellTaus != nil {
		fields["cell_taus"] = append([]float64(nil), o.CellTaus...)
	}
	return fields
}
