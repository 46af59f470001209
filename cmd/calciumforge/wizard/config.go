// Package wizard provides the YAML configuration format and the interactive
// TUI used to configure a generation run.
package wizard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents a complete run configuration for YAML serialization.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Output  OutputConfig  `yaml:"output"`
}

// DatasetConfig holds the generation parameters. Unset fields keep the
// generator defaults; pointers mark fields whose zero value is meaningful.
type DatasetConfig struct {
	Dims                  string    `yaml:"dims,omitempty"` // "HxW"
	Cells                 int       `yaml:"cells,omitempty"`
	Sig                   []float64 `yaml:"sig,omitempty"`
	Truncate              *float64  `yaml:"truncate,omitempty"`
	DifferenceOfGaussians *bool     `yaml:"difference_of_gaussians,omitempty"`
	Boundary              *int      `yaml:"boundary,omitempty"`
	Frames                int       `yaml:"frames,omitempty"`
	Framerate             float64   `yaml:"framerate,omitempty"`
	FireRate              *float64  `yaml:"fire_rate,omitempty"`
	Indicator             string    `yaml:"indicator,omitempty"`
	Tau                   float64   `yaml:"tau,omitempty"`
	TauSpread             float64   `yaml:"tau_spread,omitempty"`
	WarmupFrames          *int      `yaml:"warmup_frames,omitempty"`
	Noise                 *float64  `yaml:"noise,omitempty"`
	Baseline              float64   `yaml:"baseline,omitempty"`
	Fluctuations          string    `yaml:"fluctuations,omitempty"` // "temporal,spatial" or "none"
	Seed                  *int64    `yaml:"seed,omitempty"`
}

// OutputConfig holds where and how the dataset is written.
type OutputConfig struct {
	Path    string `yaml:"path"`
	Formats string `yaml:"formats"`         // comma-separated: store,h5,dicom
	Plots   string `yaml:"plots,omitempty"` // colormap name, empty disables diagnostics
	Workers int    `yaml:"workers,omitempty"`
	Label   bool   `yaml:"label_frames,omitempty"`
}

// LoadFromYAML reads a Config from a YAML file. Unknown keys are rejected.
func LoadFromYAML(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveToYAML writes cfg to path.
func SaveToYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
