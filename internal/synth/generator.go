package synth

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/mrsinham/calciumforge/internal/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// stages is the number of progress steps reported by Generate.
const stages = 4

// Dataset is the ground truth and observed movie of one synthetic run.
type Dataset struct {
	Yr      *mat.Dense    // observed data, pixels x frames
	C       *mat.Dense    // calcium traces, cells x frames
	S       *mat.Dense    // spike trains, cells x frames
	A       *mat.Dense    // footprints, pixels x cells
	B       *mat.VecDense // spatial background, pixels
	F       *mat.VecDense // temporal modulation, frames
	Centers []Center      // one per candidate footprint
	Dims    Dims

	Options Options // effective parameters
}

// Movie returns the observed data as a (row, col, frame) view.
func (d *Dataset) Movie() *Movie {
	return NewMovie(d.Yr, d.Dims)
}

// KeptCenters returns the centers of the retained footprints, in column order of A.
func (d *Dataset) KeptCenters() []Center {
	kept := make([]Center, 0, d.Options.Cells)
	for _, c := range d.Centers {
		if c.Kept {
			kept = append(kept, c)
		}
	}
	return kept
}

// Generate runs the four stages (footprints, traces, fluctuations,
// composition) and returns the dataset. It is deterministic for a given seed
// or injected generator.
func Generate(ctx context.Context, opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rng := opts.Rand
	if rng == nil {
		rng = NewRand(opts.Seed)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	progress := func(stage int) {
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(stage, stages)
		}
	}

	logger.Debug("synthesizing footprints",
		"dims", opts.Dims.String(), "cells", opts.Cells, "candidates", CandidateCount(opts.Cells))
	footprints, centers, err := synthesizeFootprints(rng, &opts)
	if err != nil {
		return nil, fmt.Errorf("footprints: %w", err)
	}
	for i, c := range centers {
		logger.Log(ctx, logging.LevelTrace, "candidate footprint", "index", i, "row", c.Row, "col", c.Col, "kept", c.Kept)
	}
	progress(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("synthesizing traces", "frames", opts.Frames, "framerate", opts.Framerate, "fire_rate", opts.FireRate)
	spikes, calcium := synthesizeTraces(rng, &opts)
	for i := 0; i < opts.Cells; i++ {
		logger.Log(ctx, logging.LevelTrace, "cell trace", "cell", i, "tau", opts.tau(i), "spikes", floats.Sum(spikes.RawRowView(i)))
	}
	progress(2)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("synthesizing fluctuations", "enabled", opts.Fluctuations != nil)
	modulation, background, err := synthesizeFluctuations(rng, &opts)
	if err != nil {
		return nil, fmt.Errorf("fluctuations: %w", err)
	}
	progress(3)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("composing movie", "pixels", opts.Dims.Pixels(), "noise", opts.Noise)
	ds := &Dataset{
		Yr:      compose(rng, footprints, calcium, background, modulation, opts.Noise),
		C:       calcium,
		S:       spikes,
		A:       footprints,
		B:       background,
		F:       modulation,
		Centers: centers,
		Dims:    opts.Dims,
		Options: opts,
	}
	ds.Options.Rand = nil
	progress(4)

	if v := opts.Visualizer; v != nil {
		logger.Debug("rendering diagnostics", "colormap", v.Colormap)
		if err := visualize(v, ds); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// compose returns outer(b, f) + noise*N(0,1) + A*C. Noise is drawn
// pixel-major.
func compose(rng *rand.Rand, a, c *mat.Dense, b, f *mat.VecDense, noise float64) *mat.Dense {
	pixels := b.Len()
	frames := f.Len()

	var yr mat.Dense
	yr.Outer(1, b, f)
	if noise > 0 {
		for p := 0; p < pixels; p++ {
			for t := 0; t < frames; t++ {
				yr.Set(p, t, yr.At(p, t)+noise*rng.NormFloat64())
			}
		}
	}

	var signal mat.Dense
	signal.Mul(a, c)
	yr.Add(&yr, &signal)
	return &yr
}

func visualize(v *Visualizer, ds *Dataset) error {
	if v.Correlate == nil || v.Render == nil {
		return fmt.Errorf("%w: visualizer needs both Correlate and Render", ErrVisualization)
	}
	movie := ds.Movie()
	cn, err := v.Correlate(movie)
	if err != nil {
		return fmt.Errorf("%w: correlation image: %w", ErrVisualization, err)
	}
	err = v.Render(Diagnostics{
		Colormap:    v.Colormap,
		Movie:       movie,
		Correlation: cn,
		Dataset:     ds,
		Baseline:    ds.Options.Baseline,
	})
	if err != nil {
		return fmt.Errorf("%w: render: %w", ErrVisualization, err)
	}
	return nil
}
