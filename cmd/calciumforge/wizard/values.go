package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrsinham/calciumforge/cmd/calciumforge/wizard/screens"
	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/mrsinham/calciumforge/internal/util"
)

// formatFloat prints f without trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ValuesFromConfig fills the form values from cfg, falling back to the
// generator defaults for unset fields.
func ValuesFromConfig(cfg *Config) (*screens.DatasetValues, error) {
	opts, err := ToOptions(cfg.Dataset)
	if err != nil {
		return nil, err
	}

	sig := formatFloat(opts.Sig[0])
	if opts.Sig[1] != opts.Sig[0] {
		sig += "," + formatFloat(opts.Sig[1])
	}
	shape := screens.ShapeGaussian
	if opts.DifferenceOfGaussians {
		shape = screens.ShapeDoG
	}
	fluctuations := util.FormatScales(0, 0, false)
	if f := opts.Fluctuations; f != nil {
		fluctuations = util.FormatScales(f.Temporal, f.Spatial, true)
	}

	formats := cfg.Output.Formats
	if formats == "" {
		formats = DefaultFormats
	}
	parsed, err := util.ParseFormats(formats)
	if err != nil {
		return nil, err
	}
	formatNames := make([]string, len(parsed))
	for i, f := range parsed {
		formatNames[i] = f.String()
	}

	output := cfg.Output.Path
	if output == "" {
		output = DefaultOutputPath
	}
	plots := cfg.Output.Plots
	if plots == "" {
		plots = "none"
	}

	return &screens.DatasetValues{
		Dims:         opts.Dims.String(),
		Cells:        strconv.Itoa(opts.Cells),
		Sig:          sig,
		Shape:        shape,
		Frames:       strconv.Itoa(opts.Frames),
		Framerate:    formatFloat(opts.Framerate),
		FireRate:     formatFloat(opts.FireRate),
		Indicator:    cfg.Dataset.Indicator,
		Noise:        formatFloat(opts.Noise),
		Fluctuations: fluctuations,
		Seed:         strconv.FormatInt(opts.Seed, 10),
		Output:       output,
		Formats:      formatNames,
		Plots:        plots,
	}, nil
}

// ApplyValues writes the submitted form values back into cfg. Picking an
// indicator clears an explicit tau so the preset applies.
func ApplyValues(cfg *Config, v *screens.DatasetValues) error {
	d := &cfg.Dataset

	if _, _, err := util.ParseDims(v.Dims); err != nil {
		return err
	}
	d.Dims = strings.TrimSpace(v.Dims)

	cells, err := strconv.Atoi(strings.TrimSpace(v.Cells))
	if err != nil {
		return fmt.Errorf("cells: %w", err)
	}
	d.Cells = cells

	sig, err := screens.ParseSig(v.Sig)
	if err != nil {
		return fmt.Errorf("sig: %w", err)
	}
	d.Sig = sig

	dog := v.Shape != screens.ShapeGaussian
	d.DifferenceOfGaussians = &dog

	frames, err := strconv.Atoi(strings.TrimSpace(v.Frames))
	if err != nil {
		return fmt.Errorf("frames: %w", err)
	}
	d.Frames = frames

	if d.Framerate, err = strconv.ParseFloat(strings.TrimSpace(v.Framerate), 64); err != nil {
		return fmt.Errorf("framerate: %w", err)
	}
	fireRate, err := strconv.ParseFloat(strings.TrimSpace(v.FireRate), 64)
	if err != nil {
		return fmt.Errorf("fire rate: %w", err)
	}
	d.FireRate = &fireRate

	if v.Indicator != d.Indicator && v.Indicator != "" {
		d.Tau = 0
	}
	d.Indicator = v.Indicator

	noise, err := strconv.ParseFloat(strings.TrimSpace(v.Noise), 64)
	if err != nil {
		return fmt.Errorf("noise: %w", err)
	}
	d.Noise = &noise

	if _, _, _, err := util.ParseScales(v.Fluctuations); err != nil {
		return err
	}
	d.Fluctuations = strings.TrimSpace(v.Fluctuations)

	seed, err := strconv.ParseInt(strings.TrimSpace(v.Seed), 10, 64)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	d.Seed = &seed

	cfg.Output.Path = strings.TrimSpace(v.Output)
	formats, err := util.ParseFormats(strings.Join(v.Formats, ","))
	if err != nil {
		return err
	}
	cfg.Output.Formats = util.JoinFormats(formats)
	cfg.Output.Plots = ""
	if v.Plots != "none" {
		cfg.Output.Plots = v.Plots
	}
	return nil
}

// SummaryRows describes the resolved configuration for the summary screen.
func SummaryRows(cfg *Config) ([]screens.SummaryRow, error) {
	req, err := ToRequest(cfg)
	if err != nil {
		return nil, err
	}
	opts := req.Options

	shape := "Gaussian"
	if opts.DifferenceOfGaussians {
		shape = "Difference of Gaussians"
	}
	fluctuations := "none"
	if f := opts.Fluctuations; f != nil {
		fluctuations = fmt.Sprintf("%s frames, %s pixels", formatFloat(f.Temporal), formatFloat(f.Spatial))
	}
	tau := formatFloat(opts.Tau) + "s"
	if cfg.Dataset.Indicator != "" {
		tau += " (" + cfg.Dataset.Indicator + ")"
	}
	plots := req.Plots
	if plots == "" {
		plots = "none"
	}
	outputs := make([]string, len(req.Formats))
	for i, f := range req.Formats {
		outputs[i] = req.Output + f.Extension()
		if f == util.FormatDICOM {
			outputs[i] += "/"
		}
	}

	return []screens.SummaryRow{
		{Label: "Field of view", Value: opts.Dims.String()},
		{Label: "Cells", Value: fmt.Sprintf("%d (%d candidates)", opts.Cells, synth.CandidateCount(opts.Cells))},
		{Label: "Footprints", Value: fmt.Sprintf("%s, sig %s,%s", shape, formatFloat(opts.Sig[0]), formatFloat(opts.Sig[1]))},
		{Label: "Frames", Value: fmt.Sprintf("%d at %sHz", opts.Frames, formatFloat(opts.Framerate))},
		{Label: "Firing rate", Value: formatFloat(opts.FireRate) + "Hz"},
		{Label: "Decay", Value: tau},
		{Label: "Noise", Value: formatFloat(opts.Noise)},
		{Label: "Fluctuations", Value: fluctuations},
		{Label: "Seed", Value: strconv.FormatInt(opts.Seed, 10)},
		{Label: "Outputs", Value: strings.Join(outputs, ", ")},
		{Label: "Plots", Value: plots},
	}, nil
}

// Command returns the equivalent generate command line.
func Command(cfg *Config) string {
	d := cfg.Dataset
	args := []string{"calciumforge", "generate"}
	add := func(flag, value string) {
		if strings.ContainsAny(value, " \t") {
			value = strconv.Quote(value)
		}
		args = append(args, "--"+flag, value)
	}

	if d.Dims != "" {
		add("dims", d.Dims)
	}
	if d.Cells != 0 {
		add("cells", strconv.Itoa(d.Cells))
	}
	if len(d.Sig) > 0 {
		parts := make([]string, len(d.Sig))
		for i, s := range d.Sig {
			parts[i] = formatFloat(s)
		}
		add("sig", strings.Join(parts, ","))
	}
	if d.DifferenceOfGaussians != nil && !*d.DifferenceOfGaussians {
		args = append(args, "--gaussian")
	}
	if d.Frames != 0 {
		add("frames", strconv.Itoa(d.Frames))
	}
	if d.Framerate != 0 {
		add("framerate", formatFloat(d.Framerate))
	}
	if d.FireRate != nil {
		add("firerate", formatFloat(*d.FireRate))
	}
	if d.Indicator != "" {
		add("indicator", d.Indicator)
	}
	if d.Tau != 0 {
		add("tau", formatFloat(d.Tau))
	}
	if d.Noise != nil {
		add("noise", formatFloat(*d.Noise))
	}
	if d.Fluctuations != "" {
		add("fluctuations", d.Fluctuations)
	}
	if d.Seed != nil {
		add("seed", strconv.FormatInt(*d.Seed, 10))
	}
	if cfg.Output.Path != "" {
		add("output", cfg.Output.Path)
	}
	if cfg.Output.Formats != "" {
		add("format", cfg.Output.Formats)
	}
	if cfg.Output.Plots != "" {
		add("plots", cfg.Output.Plots)
	}
	return strings.Join(args, " ")
}
