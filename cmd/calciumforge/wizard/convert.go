package wizard

import (
	"fmt"

	"github.com/mrsinham/calciumforge/internal/indicator"
	"github.com/mrsinham/calciumforge/internal/pipeline"
	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/mrsinham/calciumforge/internal/util"
)

// Output defaults used when the config leaves them empty.
const (
	DefaultOutputPath = "synthetic"
	DefaultFormats    = "store"
)

// tauSpreadStream offsets the seed of the generator drawing per-cell decay
// constants, so the dataset itself draws the same numbers with or without
// a spread.
const tauSpreadStream = 0x7a75

// ToOptions converts the dataset section to generator options, starting from
// synth.DefaultOptions. An explicit tau wins over the indicator preset.
func ToOptions(c DatasetConfig) (synth.Options, error) {
	opts := synth.DefaultOptions()

	if c.Dims != "" {
		h, w, err := util.ParseDims(c.Dims)
		if err != nil {
			return opts, err
		}
		opts.Dims = synth.Dims{Height: h, Width: w}
	}
	if c.Cells != 0 {
		opts.Cells = c.Cells
	}
	switch len(c.Sig) {
	case 0:
	case 1:
		opts.Sig = [2]float64{c.Sig[0], c.Sig[0]}
	case 2:
		opts.Sig = [2]float64{c.Sig[0], c.Sig[1]}
	default:
		return opts, fmt.Errorf("sig must have 1 or 2 values, got %d", len(c.Sig))
	}
	if c.Truncate != nil {
		opts.Truncate = *c.Truncate
	}
	if c.DifferenceOfGaussians != nil {
		opts.DifferenceOfGaussians = *c.DifferenceOfGaussians
	}
	if c.Boundary != nil {
		opts.Boundary = *c.Boundary
	}
	if c.Frames != 0 {
		opts.Frames = c.Frames
	}
	if c.Framerate != 0 {
		opts.Framerate = c.Framerate
	}
	if c.FireRate != nil {
		opts.FireRate = *c.FireRate
	}
	if c.Indicator != "" {
		preset, err := indicator.Lookup(c.Indicator)
		if err != nil {
			return opts, err
		}
		preset.Apply(&opts)
	}
	if c.Tau != 0 {
		opts.Tau = c.Tau
	}
	if c.WarmupFrames != nil {
		opts.WarmupFrames = *c.WarmupFrames
	}
	if c.Noise != nil {
		opts.Noise = *c.Noise
	}
	if c.Baseline != 0 {
		opts.Baseline = c.Baseline
	}
	if c.Fluctuations != "" {
		temporal, spatial, ok, err := util.ParseScales(c.Fluctuations)
		if err != nil {
			return opts, err
		}
		opts.Fluctuations = nil
		if ok {
			opts.Fluctuations = &synth.FluctuationScales{Temporal: temporal, Spatial: spatial}
		}
	}
	if c.Seed != nil {
		opts.Seed = *c.Seed
	}
	if c.TauSpread > 0 && opts.Cells > 0 {
		opts.CellTaus = indicator.CellTaus(opts.Tau, opts.Cells, c.TauSpread, synth.NewRand(opts.Seed+tauSpreadStream))
	}

	return opts, opts.Validate()
}

// ToRequest converts a full config into a pipeline request.
func ToRequest(c *Config) (pipeline.Request, error) {
	opts, err := ToOptions(c.Dataset)
	if err != nil {
		return pipeline.Request{}, err
	}

	formats := c.Output.Formats
	if formats == "" {
		formats = DefaultFormats
	}
	parsed, err := util.ParseFormats(formats)
	if err != nil {
		return pipeline.Request{}, err
	}

	path := c.Output.Path
	if path == "" {
		path = DefaultOutputPath
	}

	return pipeline.Request{
		Options: opts,
		Output:  path,
		Formats: parsed,
		Plots:   c.Output.Plots,
		Workers: c.Output.Workers,
		Label:   c.Output.Label,
	}, nil
}

// FromOptions creates a Config from generator options, writing every
// parameter explicitly. Used for --save-config. Per-cell decay constants
// have no YAML form and are dropped.
func FromOptions(opts synth.Options, out OutputConfig) *Config {
	seed := opts.Seed
	truncate := opts.Truncate
	dog := opts.DifferenceOfGaussians
	boundary := opts.Boundary
	fireRate := opts.FireRate
	warmup := opts.WarmupFrames
	noise := opts.Noise

	fluctuations := util.FormatScales(0, 0, false)
	if f := opts.Fluctuations; f != nil {
		fluctuations = util.FormatScales(f.Temporal, f.Spatial, true)
	}

	return &Config{
		Dataset: DatasetConfig{
			Dims:                  opts.Dims.String(),
			Cells:                 opts.Cells,
			Sig:                   []float64{opts.Sig[0], opts.Sig[1]},
			Truncate:              &truncate,
			DifferenceOfGaussians: &dog,
			Boundary:              &boundary,
			Frames:                opts.Frames,
			Framerate:             opts.Framerate,
			FireRate:              &fireRate,
			Tau:                   opts.Tau,
			WarmupFrames:          &warmup,
			Noise:                 &noise,
			Baseline:              opts.Baseline,
			Fluctuations:          fluctuations,
			Seed:                  &seed,
		},
		Output: out,
	}
}
