package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/mrsinham/calciumforge/cmd/calciumforge/wizard"
	"github.com/mrsinham/calciumforge/internal/logging"
	"github.com/mrsinham/calciumforge/internal/pipeline"
	"github.com/mrsinham/calciumforge/internal/render"
	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/mrsinham/calciumforge/internal/util"
	"github.com/spf13/cobra"
)

type generateFlags struct {
	dims         string
	cells        int
	sig          []float64
	tau          float64
	tauSpread    float64
	indicator    string
	noise        float64
	frames       int
	framerate    float64
	firerate     float64
	seed         int64
	truncate     float64
	gaussian     bool
	fluctuations string
	baseline     float64
	warmup       int
	boundary     int

	output  string
	format  string
	plots   string
	workers int
	label   bool

	config     string
	saveConfig string
	quiet      bool
	logLevel   string
}

func newGenerateCmd() *cobra.Command {
	f := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic dataset",
		Example: `  # Reference dataset: 48x48, 10 cells, 2000 frames, seed 3
  calciumforge generate

  # Small fast-indicator dataset as HDF5 and DICOM, with plots
  calciumforge generate --dims 64x64 --cells 20 --indicator GCaMP6f --format h5,dicom --plots kindlmann

  # Reproduce a saved configuration
  calciumforge generate --config run.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, f)
		},
	}

	def := synth.DefaultOptions()
	fl := cmd.Flags()
	fl.StringVar(&f.dims, "dims", def.Dims.String(), "Field of view as HxW")
	fl.IntVar(&f.cells, "cells", def.Cells, "Number of cells kept after pruning")
	fl.Float64SliceVar(&f.sig, "sig", def.Sig[:], "Footprint Gaussian scale, one value or one per axis")
	fl.Float64Var(&f.tau, "tau", def.Tau, "Indicator decay constant in seconds (overrides --indicator)")
	fl.Float64Var(&f.tauSpread, "tau-spread", 0, "Relative per-cell spread of the decay constant, 0 disables")
	fl.StringVar(&f.indicator, "indicator", "", "Calcium indicator preset setting tau (e.g. GCaMP6f)")
	fl.Float64Var(&f.noise, "noise", def.Noise, "Standard deviation of the additive noise")
	fl.IntVar(&f.frames, "frames", def.Frames, "Number of frames")
	fl.Float64Var(&f.framerate, "framerate", def.Framerate, "Frames per second")
	fl.Float64Var(&f.firerate, "firerate", def.FireRate, "Events per second per cell")
	fl.Int64Var(&f.seed, "seed", def.Seed, "Seed for reproducibility")
	fl.Float64Var(&f.truncate, "truncate", def.Truncate, "Footprint threshold as a fraction of its peak")
	fl.BoolVar(&f.gaussian, "gaussian", false, "Plain Gaussian footprints instead of difference of Gaussians")
	fl.StringVar(&f.fluctuations, "fluctuations", util.FormatScales(def.Fluctuations.Temporal, def.Fluctuations.Spatial, true), "Background fluctuation scales as temporal,spatial or none")
	fl.Float64Var(&f.baseline, "baseline", def.Baseline, "Fluorescence baseline")
	fl.IntVar(&f.warmup, "warmup", def.WarmupFrames, "Quiet frames before the staggered onsets")
	fl.IntVar(&f.boundary, "boundary", def.Boundary, "Margin kept free of cell centers")

	fl.StringVarP(&f.output, "output", "o", wizard.DefaultOutputPath, "Output path without extension")
	fl.StringVar(&f.format, "format", wizard.DefaultFormats, "Comma-separated output formats: store, h5, dicom")
	fl.StringVar(&f.plots, "plots", "", fmt.Sprintf("Colormap of the diagnostic plots, empty disables them (%v)", render.Colormaps()))
	fl.IntVar(&f.workers, "workers", 0, fmt.Sprintf("Number of parallel DICOM writers (default: %d = CPU cores)", runtime.NumCPU()))
	fl.BoolVar(&f.label, "label", false, "Burn the frame number into DICOM images")

	fl.StringVar(&f.config, "config", "", "Load configuration from YAML file; flags given explicitly win")
	fl.StringVar(&f.saveConfig, "save-config", "", "Save the effective configuration to YAML file")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "Only print errors")
	fl.StringVar(&f.logLevel, "log-level", "warn", fmt.Sprintf("Log level %v", logging.Levels))

	return cmd
}

func runGenerate(cmd *cobra.Command, f *generateFlags) error {
	cfg := &wizard.Config{}
	if f.config != "" {
		loaded, err := wizard.LoadFromYAML(f.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyFlags(cmd.Flags().Changed, f, cfg)

	req, err := wizard.ToRequest(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	level := f.logLevel
	if f.quiet {
		level = "error"
		out = io.Discard
	}
	req.Logger = logging.NewLogger(level, cmd.ErrOrStderr())
	req.Progress = progressPrinter(out)

	fmt.Fprintln(out, "calciumforge")
	fmt.Fprintln(out, "============")
	if f.config != "" {
		fmt.Fprintf(out, "Loading config from %s\n", f.config)
	}
	fmt.Fprintln(out)

	res, err := pipeline.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	if f.saveConfig != "" {
		saved := wizard.FromOptions(req.Options, cfg.Output)
		saved.Dataset.TauSpread = cfg.Dataset.TauSpread
		if err := wizard.SaveToYAML(saved, f.saveConfig); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not save config: %v\n", err)
		} else {
			fmt.Fprintf(out, "Configuration saved to %s\n", f.saveConfig)
		}
	}

	fmt.Fprintln(out, "\n✓ Generation complete!")
	fmt.Fprintf(out, "  Cells: %d, frames: %d, %.1fs\n", req.Options.Cells, req.Options.Frames, res.Duration.Seconds())
	for _, o := range res.Outputs {
		fmt.Fprintf(out, "  %s: %s", o.Format, o.Path)
		if o.Files > 1 {
			fmt.Fprintf(out, " (%d files)", o.Files)
		}
		fmt.Fprintln(out)
	}
	if res.PlotDir != "" {
		fmt.Fprintf(out, "  plots: %s\n", res.PlotDir)
	}
	return nil
}

// applyFlags copies the flags set on the command line into cfg, leaving
// values from the config file (or the defaults) for the others.
func applyFlags(changed func(name string) bool, f *generateFlags, cfg *wizard.Config) {
	d := &cfg.Dataset

	if changed("dims") {
		d.Dims = f.dims
	}
	if changed("cells") {
		d.Cells = f.cells
	}
	if changed("sig") {
		d.Sig = f.sig
	}
	if changed("indicator") {
		d.Indicator = f.indicator
		if !changed("tau") {
			d.Tau = 0
		}
	}
	if changed("tau") {
		d.Tau = f.tau
	}
	if changed("tau-spread") {
		d.TauSpread = f.tauSpread
	}
	if changed("noise") {
		d.Noise = &f.noise
	}
	if changed("frames") {
		d.Frames = f.frames
	}
	if changed("framerate") {
		d.Framerate = f.framerate
	}
	if changed("firerate") {
		d.FireRate = &f.firerate
	}
	if changed("seed") {
		d.Seed = &f.seed
	}
	if changed("truncate") {
		d.Truncate = &f.truncate
	}
	if changed("gaussian") {
		dog := !f.gaussian
		d.DifferenceOfGaussians = &dog
	}
	if changed("fluctuations") {
		d.Fluctuations = f.fluctuations
	}
	if changed("baseline") {
		d.Baseline = f.baseline
	}
	if changed("warmup") {
		d.WarmupFrames = &f.warmup
	}
	if changed("boundary") {
		d.Boundary = &f.boundary
	}

	o := &cfg.Output
	if changed("output") {
		o.Path = f.output
	}
	if changed("format") {
		o.Formats = f.format
	}
	if changed("plots") {
		o.Plots = f.plots
	}
	if changed("workers") {
		o.Workers = f.workers
	}
	if changed("label") {
		o.Label = f.label
	}
}

var stageLabels = map[string]string{
	pipeline.StageGenerate: "Synthesizing dataset",
	pipeline.StageDICOM:    "Writing DICOM frames",
}

// progressPrinter prints one line per generation stage and a DICOM line at
// every 10% step.
func progressPrinter(w io.Writer) func(stage string, current, total int) {
	lastPercent := 0
	return func(stage string, current, total int) {
		if total <= 0 {
			return
		}
		if stage == pipeline.StageGenerate {
			fmt.Fprintf(w, "  %s: step %d/%d\n", stageLabels[stage], current, total)
			return
		}
		percent := current * 100 / total
		if percent/10 == lastPercent/10 && current != total {
			return
		}
		lastPercent = percent
		fmt.Fprintf(w, "  %s: %d/%d (%d%%)\n", stageLabels[stage], current, total, percent)
	}
}
