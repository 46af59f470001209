package wizard

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mrsinham/calciumforge/cmd/calciumforge/wizard/screens"
	"github.com/mrsinham/calciumforge/internal/export"
	"github.com/mrsinham/calciumforge/internal/pipeline"
	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/mrsinham/calciumforge/internal/util"
)

func TestNewWizard_DefaultValues(t *testing.T) {
	w, err := NewWizard(nil)
	if err != nil {
		t.Fatalf("NewWizard failed: %v", err)
	}

	if w.phase != PhaseDataset {
		t.Errorf("Expected initial phase PhaseDataset, got %v", w.phase)
	}

	want := &screens.DatasetValues{
		Dims:         "48x48",
		Cells:        "10",
		Sig:          "3",
		Shape:        screens.ShapeDoG,
		Frames:       "2000",
		Framerate:    "30",
		FireRate:     "0.5",
		Noise:        "0.3",
		Fluctuations: "50,300",
		Seed:         "3",
		Output:       DefaultOutputPath,
		Formats:      []string{"store"},
		Plots:        "none",
	}
	if !reflect.DeepEqual(w.values, want) {
		t.Errorf("Unexpected default values:\nwant %+v\ngot  %+v", want, w.values)
	}
}

func TestNewWizard_FromConfig(t *testing.T) {
	cfg := &Config{
		Dataset: DatasetConfig{Dims: "20x10", Sig: []float64{2, 1}, Indicator: "GCaMP6f", Fluctuations: "none"},
		Output:  OutputConfig{Path: "out", Formats: "h5,dicom", Plots: "heat"},
	}
	w, err := NewWizard(cfg)
	if err != nil {
		t.Fatalf("NewWizard failed: %v", err)
	}

	if w.Config() != cfg {
		t.Error("Expected wizard to edit the provided config")
	}
	v := w.values
	if v.Dims != "20x10" || v.Sig != "2,1" || v.Indicator != "GCaMP6f" || v.Fluctuations != "none" {
		t.Errorf("Unexpected dataset values: %+v", v)
	}
	if !reflect.DeepEqual(v.Formats, []string{"h5", "dicom"}) || v.Plots != "heat" || v.Output != "out" {
		t.Errorf("Unexpected output values: %+v", v)
	}
}

func TestNewWizard_InvalidConfig(t *testing.T) {
	if _, err := NewWizard(&Config{Dataset: DatasetConfig{Indicator: "nope"}}); err == nil {
		t.Error("Expected error for unknown indicator")
	}
}

func TestApplyValues_RoundTrip(t *testing.T) {
	cfg := &Config{}
	values, err := ValuesFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	values.Dims = "32x24"
	values.Cells = "5"
	values.Sig = "2.5,2"
	values.Shape = screens.ShapeGaussian
	values.Noise = "0"
	values.Fluctuations = "none"
	values.Formats = []string{"h5", "store"}
	values.Plots = "gray"

	if err := ApplyValues(cfg, values); err != nil {
		t.Fatalf("ApplyValues failed: %v", err)
	}

	opts, err := ToOptions(cfg.Dataset)
	if err != nil {
		t.Fatalf("ToOptions failed: %v", err)
	}
	if opts.Dims != (synth.Dims{Height: 32, Width: 24}) || opts.Cells != 5 {
		t.Errorf("Unexpected geometry: %s, %d cells", opts.Dims, opts.Cells)
	}
	if opts.Sig != [2]float64{2.5, 2} || opts.DifferenceOfGaussians {
		t.Errorf("Unexpected footprint shape: %v dog=%v", opts.Sig, opts.DifferenceOfGaussians)
	}
	if opts.Noise != 0 || opts.Fluctuations != nil {
		t.Errorf("Expected no noise and no fluctuations, got %g, %+v", opts.Noise, opts.Fluctuations)
	}
	if cfg.Output.Formats != "h5,store" || cfg.Output.Plots != "gray" {
		t.Errorf("Unexpected output config: %+v", cfg.Output)
	}

	again, err := ValuesFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(again, values) {
		t.Errorf("Values did not survive the round trip:\nwant %+v\ngot  %+v", values, again)
	}
}

func TestApplyValues_IndicatorClearsTau(t *testing.T) {
	cfg := &Config{Dataset: DatasetConfig{Tau: 2}}
	values, err := ValuesFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}

	values.Indicator = "jGCaMP8f"
	if err := ApplyValues(cfg, values); err != nil {
		t.Fatalf("ApplyValues failed: %v", err)
	}
	if cfg.Dataset.Tau != 0 {
		t.Errorf("Expected explicit tau to be cleared, got %g", cfg.Dataset.Tau)
	}
	opts, err := ToOptions(cfg.Dataset)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Tau != 0.1 {
		t.Errorf("Expected preset tau 0.1, got %g", opts.Tau)
	}
}

func TestApplyValues_KeepsTauWithoutIndicator(t *testing.T) {
	cfg := &Config{Dataset: DatasetConfig{Tau: 2}}
	values, err := ValuesFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := ApplyValues(cfg, values); err != nil {
		t.Fatalf("ApplyValues failed: %v", err)
	}
	if cfg.Dataset.Tau != 2 {
		t.Errorf("Expected tau 2 to be kept, got %g", cfg.Dataset.Tau)
	}
}

func TestApplyValues_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *screens.DatasetValues)
	}{
		{"dims", func(v *screens.DatasetValues) { v.Dims = "ax3" }},
		{"cells", func(v *screens.DatasetValues) { v.Cells = "many" }},
		{"sig", func(v *screens.DatasetValues) { v.Sig = "1,2,3" }},
		{"frames", func(v *screens.DatasetValues) { v.Frames = "" }},
		{"noise", func(v *screens.DatasetValues) { v.Noise = "loud" }},
		{"fluctuations", func(v *screens.DatasetValues) { v.Fluctuations = "1,2,3" }},
		{"seed", func(v *screens.DatasetValues) { v.Seed = "1.5" }},
		{"formats", func(v *screens.DatasetValues) { v.Formats = []string{"tiff"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			values, err := ValuesFromConfig(cfg)
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(values)
			if err := ApplyValues(cfg, values); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestSummaryRows(t *testing.T) {
	cfg := &Config{
		Dataset: DatasetConfig{Cells: 4, Indicator: "GCaMP6f", Fluctuations: "none"},
		Output:  OutputConfig{Path: "run", Formats: "store,dicom"},
	}
	rows, err := SummaryRows(cfg)
	if err != nil {
		t.Fatalf("SummaryRows failed: %v", err)
	}

	got := map[string]string{}
	for _, r := range rows {
		got[r.Label] = r.Value
	}
	want := map[string]string{
		"Cells":        "4 (6 candidates)",
		"Decay":        "0.4s (GCaMP6f)",
		"Fluctuations": "none",
		"Outputs":      "run.db, run/",
		"Plots":        "none",
	}
	for label, value := range want {
		if got[label] != value {
			t.Errorf("%s: expected %q, got %q", label, value, got[label])
		}
	}
}

func TestCommand(t *testing.T) {
	seed := int64(7)
	dog := false
	cfg := &Config{
		Dataset: DatasetConfig{
			Dims:                  "32x32",
			Cells:                 5,
			Sig:                   []float64{2, 3},
			DifferenceOfGaussians: &dog,
			Seed:                  &seed,
		},
		Output: OutputConfig{Path: "my data", Formats: "h5"},
	}

	got := Command(cfg)
	want := `calciumforge generate --dims 32x32 --cells 5 --sig 2,3 --gaussian --seed 7 --output "my data" --format h5`
	if got != want {
		t.Errorf("Expected command\n%s\ngot\n%s", want, got)
	}
}

func TestWizard_SummaryBackToDataset(t *testing.T) {
	w, err := NewWizard(nil)
	if err != nil {
		t.Fatal(err)
	}
	w.transitionToSummary()
	if w.phase != PhaseSummary {
		t.Fatalf("Expected PhaseSummary, got %v", w.phase)
	}
	if !strings.Contains(w.View(), "SUMMARY") {
		t.Error("Expected summary view")
	}

	w.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if w.phase != PhaseDataset {
		t.Errorf("Expected esc to go back to PhaseDataset, got %v", w.phase)
	}
}

func TestWizard_SaveConfigEscReturnsToSummary(t *testing.T) {
	w, err := NewWizard(nil)
	if err != nil {
		t.Fatal(err)
	}
	w.transitionToSaveConfig()
	if w.phase != PhaseSaveConfig {
		t.Fatalf("Expected PhaseSaveConfig, got %v", w.phase)
	}
	if w.configPath != "calciumforge.yaml" {
		t.Errorf("Expected default config path, got %s", w.configPath)
	}

	w.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if w.phase != PhaseSummary {
		t.Errorf("Expected PhaseSummary, got %v", w.phase)
	}
}

func TestWizard_Fail(t *testing.T) {
	w, err := NewWizard(nil)
	if err != nil {
		t.Fatal(err)
	}
	w.fail(errors.New("disk full"))

	if w.phase != PhaseError {
		t.Fatalf("Expected PhaseError, got %v", w.phase)
	}
	if !strings.Contains(w.View(), "disk full") {
		t.Error("Expected the error in the view")
	}

	_, cmd := w.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !w.finished {
		t.Error("Expected enter to finish the wizard")
	}
}

func TestCompletionMsg(t *testing.T) {
	opts := synth.DefaultOptions()
	msg := completionMsg(&pipeline.Result{
		Dataset: &synth.Dataset{Options: opts},
		Outputs: []export.Output{
			{Format: util.FormatStore, Path: "a.db", Files: 1},
			{Format: util.FormatDICOM, Path: "a", Files: 2000},
		},
		PlotDir:  "a_plots",
		Duration: 2 * time.Second,
	})

	if !reflect.DeepEqual(msg.Outputs, []string{"a.db", "a (2000 files)"}) {
		t.Errorf("Unexpected outputs: %v", msg.Outputs)
	}
	if msg.Cells != 10 || msg.Frames != 2000 || msg.PlotDir != "a_plots" {
		t.Errorf("Unexpected completion message: %+v", msg)
	}
}

func TestWizard_Generation(t *testing.T) {
	warmup := 2
	base := filepath.Join(t.TempDir(), "ds")
	w, err := NewWizard(&Config{
		Dataset: DatasetConfig{Dims: "16x16", Cells: 2, Frames: 20, WarmupFrames: &warmup, Fluctuations: "none"},
		Output:  OutputConfig{Path: base, Formats: "store"},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, cmd := w.startGeneration()
	progress := 0
	for w.phase == PhaseProgress {
		if cmd == nil {
			t.Fatal("Generation stopped without a result")
		}
		msg := cmd()
		if _, ok := msg.(screens.ProgressMsg); ok {
			progress++
		}
		_, cmd = w.Update(msg)
	}

	if w.phase != PhaseComplete {
		t.Fatalf("Expected PhaseComplete, got %v (err %v)", w.phase, w.err)
	}
	if progress == 0 {
		t.Error("Expected progress messages")
	}
	if _, err := os.Stat(base + ".db"); err != nil {
		t.Errorf("Expected store output: %v", err)
	}
	if !strings.Contains(w.View(), "Generation complete") {
		t.Error("Expected completion view")
	}
}
