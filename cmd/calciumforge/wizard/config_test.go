package wizard

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/mrsinham/calciumforge/internal/util"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadFromYAML_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
dataset:
  dims: 64x32
  cells: 12
  sig: [4, 2]
  difference_of_gaussians: false
  frames: 500
  framerate: 15
  fire_rate: 0
  indicator: GCaMP6f
  noise: 0
  fluctuations: none
  seed: 42
output:
  path: ./out/ds
  formats: store,h5
  plots: heat
  workers: 3
  label_frames: true
`)

	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}

	d := cfg.Dataset
	if d.Dims != "64x32" {
		t.Errorf("Expected dims 64x32, got %s", d.Dims)
	}
	if d.Cells != 12 {
		t.Errorf("Expected cells 12, got %d", d.Cells)
	}
	if !reflect.DeepEqual(d.Sig, []float64{4, 2}) {
		t.Errorf("Expected sig [4 2], got %v", d.Sig)
	}
	if d.DifferenceOfGaussians == nil || *d.DifferenceOfGaussians {
		t.Errorf("Expected difference_of_gaussians false, got %v", d.DifferenceOfGaussians)
	}
	if d.FireRate == nil || *d.FireRate != 0 {
		t.Errorf("Expected explicit fire_rate 0, got %v", d.FireRate)
	}
	if d.Noise == nil || *d.Noise != 0 {
		t.Errorf("Expected explicit noise 0, got %v", d.Noise)
	}
	if d.Seed == nil || *d.Seed != 42 {
		t.Errorf("Expected seed 42, got %v", d.Seed)
	}
	if d.Indicator != "GCaMP6f" {
		t.Errorf("Expected indicator GCaMP6f, got %s", d.Indicator)
	}

	o := cfg.Output
	if o.Path != "./out/ds" || o.Formats != "store,h5" || o.Plots != "heat" || o.Workers != 3 || !o.Label {
		t.Errorf("Unexpected output config: %+v", o)
	}
}

func TestLoadFromYAML_UnknownField(t *testing.T) {
	path := writeConfig(t, "dataset:\n  cels: 3\n")

	if _, err := LoadFromYAML(path); err == nil {
		t.Error("Expected error for unknown field")
	}
}

func TestLoadFromYAML_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "dataset: [unclosed\n")

	if _, err := LoadFromYAML(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadFromYAML_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("Expected empty file to load, got %v", err)
	}
	if !reflect.DeepEqual(*cfg, Config{}) {
		t.Errorf("Expected zero config, got %+v", cfg)
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	if _, err := LoadFromYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestSaveToYAML_RoundTrip(t *testing.T) {
	seed := int64(9)
	noise := 0.0
	original := &Config{
		Dataset: DatasetConfig{
			Dims:         "40x30",
			Cells:        6,
			Sig:          []float64{2.5},
			Frames:       300,
			Indicator:    "OGB-1",
			TauSpread:    0.2,
			Noise:        &noise,
			Fluctuations: "20,100",
			Seed:         &seed,
		},
		Output: OutputConfig{Path: "run", Formats: "dicom", Label: true},
	}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := SaveToYAML(original, path); err != nil {
		t.Fatalf("SaveToYAML failed: %v", err)
	}
	loaded, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}

	if !reflect.DeepEqual(original, loaded) {
		t.Errorf("Round trip mismatch:\nwant %+v\ngot  %+v", original, loaded)
	}
}

func TestSaveToYAML_OmitsUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := SaveToYAML(&Config{Dataset: DatasetConfig{Cells: 3}}, path); err != nil {
		t.Fatalf("SaveToYAML failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "noise") {
		t.Errorf("Expected unset noise to be omitted:\n%s", data)
	}
	if !strings.Contains(string(data), "cells: 3") {
		t.Errorf("Expected cells to be written:\n%s", data)
	}
}

func TestToOptions_EmptyKeepsDefaults(t *testing.T) {
	opts, err := ToOptions(DatasetConfig{})
	if err != nil {
		t.Fatalf("ToOptions failed: %v", err)
	}
	if !reflect.DeepEqual(opts, synth.DefaultOptions()) {
		t.Errorf("Expected default options, got %+v", opts)
	}
}

func TestToOptions_Overrides(t *testing.T) {
	fireRate := 0.0
	dog := false
	seed := int64(-4)
	opts, err := ToOptions(DatasetConfig{
		Dims:                  "20x30",
		Cells:                 4,
		Sig:                   []float64{2},
		DifferenceOfGaussians: &dog,
		Frames:                100,
		Framerate:             10,
		FireRate:              &fireRate,
		Fluctuations:          "none",
		Seed:                  &seed,
	})
	if err != nil {
		t.Fatalf("ToOptions failed: %v", err)
	}

	if opts.Dims != (synth.Dims{Height: 20, Width: 30}) {
		t.Errorf("Expected dims 20x30, got %s", opts.Dims)
	}
	if opts.Sig != [2]float64{2, 2} {
		t.Errorf("Expected a single sig to apply to both axes, got %v", opts.Sig)
	}
	if opts.DifferenceOfGaussians {
		t.Error("Expected plain Gaussian footprints")
	}
	if opts.FireRate != 0 {
		t.Errorf("Expected explicit zero fire rate, got %g", opts.FireRate)
	}
	if opts.Fluctuations != nil {
		t.Errorf("Expected fluctuations disabled, got %+v", opts.Fluctuations)
	}
	if opts.Seed != -4 {
		t.Errorf("Expected seed -4, got %d", opts.Seed)
	}
	if opts.Frames != 100 || opts.Framerate != 10 || opts.Cells != 4 {
		t.Errorf("Unexpected dynamics: %+v", opts)
	}
}

func TestToOptions_IndicatorAndTau(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DatasetConfig
		wantTau float64
	}{
		{"default", DatasetConfig{}, 1},
		{"preset", DatasetConfig{Indicator: "GCaMP6f"}, 0.4},
		{"preset case-insensitive", DatasetConfig{Indicator: "gcamp6m"}, 0.7},
		{"explicit tau", DatasetConfig{Tau: 0.25}, 0.25},
		{"tau wins over preset", DatasetConfig{Indicator: "GCaMP6s", Tau: 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ToOptions(tt.cfg)
			if err != nil {
				t.Fatalf("ToOptions failed: %v", err)
			}
			if opts.Tau != tt.wantTau {
				t.Errorf("Expected tau %g, got %g", tt.wantTau, opts.Tau)
			}
		})
	}
}

func TestToOptions_Errors(t *testing.T) {
	negative := -1.0
	tests := []struct {
		name string
		cfg  DatasetConfig
	}{
		{"bad dims", DatasetConfig{Dims: "48x"}},
		{"three sig values", DatasetConfig{Sig: []float64{1, 2, 3}}},
		{"unknown indicator", DatasetConfig{Indicator: "GCaMP9"}},
		{"bad fluctuations", DatasetConfig{Fluctuations: "50"}},
		{"negative noise", DatasetConfig{Noise: &negative}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToOptions(tt.cfg); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestToOptions_ValidationError(t *testing.T) {
	negative := -1.0
	_, err := ToOptions(DatasetConfig{Noise: &negative})
	if !errors.Is(err, synth.ErrInvalidOptions) {
		t.Errorf("Expected ErrInvalidOptions, got %v", err)
	}
}

func TestToOptions_TauSpread(t *testing.T) {
	cfg := DatasetConfig{Cells: 8, Tau: 1, TauSpread: 0.3}

	opts, err := ToOptions(cfg)
	if err != nil {
		t.Fatalf("ToOptions failed: %v", err)
	}
	if len(opts.CellTaus) != 8 {
		t.Fatalf("Expected 8 per-cell taus, got %d", len(opts.CellTaus))
	}
	for i, tau := range opts.CellTaus {
		if tau < 0.7 || tau > 1.3 {
			t.Errorf("Cell %d: tau %g outside [0.7, 1.3]", i, tau)
		}
	}

	again, err := ToOptions(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts.CellTaus, again.CellTaus) {
		t.Error("Expected per-cell taus to be deterministic for a seed")
	}
}

func TestToRequest_Defaults(t *testing.T) {
	req, err := ToRequest(&Config{})
	if err != nil {
		t.Fatalf("ToRequest failed: %v", err)
	}
	if req.Output != DefaultOutputPath {
		t.Errorf("Expected output %s, got %s", DefaultOutputPath, req.Output)
	}
	if !reflect.DeepEqual(req.Formats, []util.Format{util.FormatStore}) {
		t.Errorf("Expected store format, got %v", req.Formats)
	}
	if req.Plots != "" {
		t.Errorf("Expected plots disabled, got %q", req.Plots)
	}
}

func TestToRequest_Output(t *testing.T) {
	req, err := ToRequest(&Config{Output: OutputConfig{
		Path:    "x/y",
		Formats: "dicom, h5, dicom",
		Plots:   "gray",
		Workers: 2,
		Label:   true,
	}})
	if err != nil {
		t.Fatalf("ToRequest failed: %v", err)
	}
	if !reflect.DeepEqual(req.Formats, []util.Format{util.FormatDICOM, util.FormatHDF5}) {
		t.Errorf("Expected dicom,h5, got %v", req.Formats)
	}
	if req.Output != "x/y" || req.Plots != "gray" || req.Workers != 2 || !req.Label {
		t.Errorf("Unexpected request: %+v", req)
	}

	if _, err := ToRequest(&Config{Output: OutputConfig{Formats: "tiff"}}); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestFromOptions_RoundTrip(t *testing.T) {
	opts := synth.DefaultOptions()
	opts.Dims = synth.Dims{Height: 30, Width: 20}
	opts.Sig = [2]float64{3, 1.5}
	opts.FireRate = 0
	opts.Noise = 0
	opts.Tau = 0.37
	opts.Truncate = math.Exp(-3)
	opts.Fluctuations = nil
	opts.Seed = 1234

	cfg := FromOptions(opts, OutputConfig{Path: "p", Formats: "h5"})

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := SaveToYAML(cfg, path); err != nil {
		t.Fatalf("SaveToYAML failed: %v", err)
	}
	loaded, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}

	got, err := ToOptions(loaded.Dataset)
	if err != nil {
		t.Fatalf("ToOptions failed: %v", err)
	}
	if !reflect.DeepEqual(got, opts) {
		t.Errorf("Round trip mismatch:\nwant %+v\ngot  %+v", opts, got)
	}
	if loaded.Output.Path != "p" || loaded.Output.Formats != "h5" {
		t.Errorf("Unexpected output: %+v", loaded.Output)
	}
}
