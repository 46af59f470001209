// Package pipeline runs a full generation: synthesize the dataset, render
// the optional diagnostics, then write every requested output format.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mrsinham/calciumforge/internal/export"
	"github.com/mrsinham/calciumforge/internal/logging"
	"github.com/mrsinham/calciumforge/internal/render"
	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/mrsinham/calciumforge/internal/util"
)

// Stage names reported through Progress.
const (
	StageGenerate = "generate"
	StageDICOM    = "dicom"
)

// Request describes one run.
type Request struct {
	Options synth.Options
	Output  string        // output path without extension
	Formats []util.Format // nothing is written when empty
	Plots   string        // colormap name, empty disables diagnostics
	Workers int
	Label   bool // burn frame labels into DICOM images

	Logger *slog.Logger

	// Progress is called with the stage name and its progress
	Progress func(stage string, current, total int)
}

// Result summarizes a completed run.
type Result struct {
	Dataset  *synth.Dataset
	Outputs  []export.Output
	PlotDir  string
	Duration time.Duration
}

// Run generates the dataset and writes the requested outputs.
func Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	logger := req.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	progress := func(stage string) func(int, int) {
		if req.Progress == nil {
			return nil
		}
		return func(current, total int) { req.Progress(stage, current, total) }
	}

	opts := req.Options
	opts.Logger = logger
	opts.ProgressCallback = progress(StageGenerate)

	var plotDir string
	if req.Plots != "" {
		plotDir = plotDirFor(req.Output)
		vis, err := render.NewVisualizer(plotDir, req.Plots)
		if err != nil {
			return nil, err
		}
		opts.Visualizer = vis
	}

	logger.Info("generating dataset", "dims", opts.Dims.String(), "cells", opts.Cells, "frames", opts.Frames, "seed", opts.Seed)
	ds, err := synth.Generate(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	outputs, err := export.Write(ctx, req.Output, ds, export.Options{
		Formats: req.Formats,
		Logger:  logger,
		DICOM: export.DICOMOptions{
			Workers:          req.Workers,
			Label:            req.Label,
			ProgressCallback: progress(StageDICOM),
		},
	})
	if err != nil {
		return nil, err
	}
	for _, o := range outputs {
		logger.Info("wrote output", "format", o.Format.String(), "path", o.Path, "files", o.Files)
	}

	return &Result{
		Dataset:  ds,
		Outputs:  outputs,
		PlotDir:  plotDir,
		Duration: time.Since(start),
	}, nil
}

// plotDirFor returns the directory holding the diagnostics of output.
func plotDirFor(output string) string {
	if output == "" {
		return "plots"
	}
	return filepath.Clean(output) + "_plots"
}
