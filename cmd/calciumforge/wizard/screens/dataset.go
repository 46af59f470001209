package screens

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/calciumforge/cmd/calciumforge/wizard/components"
	"github.com/mrsinham/calciumforge/internal/indicator"
	"github.com/mrsinham/calciumforge/internal/render"
	"github.com/mrsinham/calciumforge/internal/util"
)

// noneOption is the select value that disables plots.
const noneOption = "none"

// Shape options of the footprint select.
const (
	ShapeDoG      = "dog"
	ShapeGaussian = "gaussian"
)

// DatasetValues holds the form values as strings (huh binds to strings).
type DatasetValues struct {
	Dims         string
	Cells        string
	Sig          string
	Shape        string
	Frames       string
	Framerate    string
	FireRate     string
	Indicator    string
	Noise        string
	Fluctuations string
	Seed         string

	Output  string
	Formats []string
	Plots   string
}

// DatasetScreen is the wizard form for the dataset and its outputs
type DatasetScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	values    *DatasetValues
	width     int
	done      bool
	cancelled bool
}

// NewDatasetScreen creates the form bound to values
func NewDatasetScreen(values *DatasetValues) *DatasetScreen {
	s := &DatasetScreen{
		helpPanel: components.NewHelpPanel(),
		values:    values,
	}

	indicatorOptions := []huh.Option[string]{huh.NewOption("Custom decay (keep tau)", "")}
	for _, p := range indicator.All() {
		label := fmt.Sprintf("%s - tau %.2gs, %s", p.Name, p.Tau, p.Description)
		indicatorOptions = append(indicatorOptions, huh.NewOption(label, p.Name))
	}

	plotOptions := []huh.Option[string]{huh.NewOption("No plots", noneOption)}
	for _, name := range render.Colormaps() {
		plotOptions = append(plotOptions, huh.NewOption(name, name))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("dims").
				Title("Field of view").
				Placeholder("e.g., 48x48").
				Value(&values.Dims).
				Validate(validateDims),

			huh.NewInput().
				Key("cells").
				Title("Cells").
				Value(&values.Cells).
				Validate(validatePositiveInt),

			huh.NewInput().
				Key("sig").
				Title("Footprint size (pixels)").
				Placeholder("e.g., 3 or 3,2").
				Value(&values.Sig).
				Validate(validateSig),

			huh.NewSelect[string]().
				Key("shape").
				Title("Footprint shape").
				Options(
					huh.NewOption("Difference of Gaussians (ring)", ShapeDoG),
					huh.NewOption("Gaussian (blob)", ShapeGaussian),
				).
				Value(&values.Shape),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("frames").
				Title("Frames").
				Value(&values.Frames).
				Validate(validatePositiveInt),

			huh.NewInput().
				Key("framerate").
				Title("Frame rate (Hz)").
				Value(&values.Framerate).
				Validate(validatePositiveFloat),

			huh.NewInput().
				Key("firerate").
				Title("Firing rate (Hz)").
				Value(&values.FireRate).
				Validate(validateNonNegativeFloat),

			huh.NewSelect[string]().
				Key("indicator").
				Title("Indicator").
				Options(indicatorOptions...).
				Value(&values.Indicator),

			huh.NewInput().
				Key("noise").
				Title("Noise").
				Value(&values.Noise).
				Validate(validateNonNegativeFloat),

			huh.NewInput().
				Key("fluctuations").
				Title("Background fluctuations").
				Placeholder("e.g., 50,300 or none").
				Value(&values.Fluctuations).
				Validate(validateScales),

			huh.NewInput().
				Key("seed").
				Title("Seed").
				Value(&values.Seed).
				Validate(validateInt),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("output").
				Title("Output path").
				Value(&values.Output).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("output path is required")
					}
					return nil
				}),

			huh.NewMultiSelect[string]().
				Key("formats").
				Title("Formats").
				Options(
					huh.NewOption("SQLite store (.db)", util.FormatStore.String()),
					huh.NewOption("HDF5 (.h5)", util.FormatHDF5.String()),
					huh.NewOption("DICOM (one image per frame)", util.FormatDICOM.String()),
				).
				Value(&values.Formats).
				Validate(func(f []string) error {
					if len(f) == 0 {
						return fmt.Errorf("select at least one format")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Key("plots").
				Title("Diagnostic plots").
				Options(plotOptions...).
				Value(&values.Plots),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

func validateDims(s string) error {
	_, _, err := util.ParseDims(s)
	return err
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validateInt(s string) error {
	if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
		return fmt.Errorf("must be an integer")
	}
	return nil
}

func validatePositiveFloat(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f <= 0 {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validateNonNegativeFloat(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func validateSig(s string) error {
	_, err := ParseSig(s)
	return err
}

func validateScales(s string) error {
	_, _, _, err := util.ParseScales(s)
	return err
}

// ParseSig parses "3" or "3,2" into one or two positive scales.
func ParseSig(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return nil, fmt.Errorf("expected one or two values")
	}
	sig := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		if f <= 0 {
			return nil, fmt.Errorf("must be greater than 0")
		}
		sig[i] = f
	}
	return sig, nil
}

// Init implements tea.Model
func (s *DatasetScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *DatasetScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.helpPanel.SetWidth(msg.Width / 2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if focused := s.form.GetFocusedField(); focused != nil {
		s.helpPanel.SetField(focused.GetKey())
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *DatasetScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("CALCIUMFORGE WIZARD - Dataset")
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		components.HintStyle.Render("Tab: Next field | Enter: Submit | Esc: Cancel"),
	)
}

// Done returns true if the form was completed
func (s *DatasetScreen) Done() bool {
	return s.done
}

// Cancelled returns true if the user cancelled
func (s *DatasetScreen) Cancelled() bool {
	return s.cancelled
}
