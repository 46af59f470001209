package wizard

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/calciumforge/cmd/calciumforge/wizard/components"
	"github.com/mrsinham/calciumforge/cmd/calciumforge/wizard/screens"
	"github.com/mrsinham/calciumforge/internal/pipeline"
)

// Phase represents the current phase/screen of the wizard.
type Phase int

const (
	PhaseDataset Phase = iota
	PhaseSummary
	PhaseSaveConfig
	PhaseProgress
	PhaseComplete
	PhaseError
)

// Wizard is the main orchestrator for the wizard interface.
type Wizard struct {
	cfg    *Config
	values *screens.DatasetValues

	phase Phase

	datasetScreen    *screens.DatasetScreen
	summaryScreen    *screens.SummaryScreen
	progressScreen   *screens.ProgressScreen
	completionScreen *screens.CompletionScreen
	errorScreen      *screens.ErrorScreen

	saveConfigForm *huh.Form
	configPath     string
	savedTo        string

	// generation
	events chan tea.Msg
	cancel context.CancelFunc

	width  int
	height int

	cancelled bool
	finished  bool
	err       error
}

// NewWizard creates a wizard editing cfg. A nil cfg starts from the
// generator defaults.
func NewWizard(cfg *Config) (*Wizard, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	values, err := ValuesFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	return &Wizard{
		cfg:           cfg,
		values:        values,
		phase:         PhaseDataset,
		datasetScreen: screens.NewDatasetScreen(values),
	}, nil
}

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	return w.datasetScreen.Init()
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		w.width = wsm.Width
		w.height = wsm.Height
	}

	switch w.phase {
	case PhaseDataset:
		return w.updateDataset(msg)
	case PhaseSummary:
		return w.updateSummary(msg)
	case PhaseSaveConfig:
		return w.updateSaveConfig(msg)
	case PhaseProgress:
		return w.updateProgress(msg)
	case PhaseComplete:
		return w.updateComplete(msg)
	case PhaseError:
		return w.updateError(msg)
	}

	return w, nil
}

// View implements tea.Model.
func (w *Wizard) View() string {
	switch w.phase {
	case PhaseDataset:
		return w.datasetScreen.View()
	case PhaseSummary:
		if w.savedTo != "" {
			return lipgloss.JoinVertical(lipgloss.Left,
				components.SuccessStyle.Render("Configuration saved to "+w.savedTo),
				"",
				w.summaryScreen.View(),
			)
		}
		return w.summaryScreen.View()
	case PhaseSaveConfig:
		return w.viewSaveConfig()
	case PhaseProgress:
		return w.progressScreen.View()
	case PhaseComplete:
		return w.completionScreen.View()
	case PhaseError:
		return w.errorScreen.View()
	}

	return ""
}

// Config returns the configuration being edited.
func (w *Wizard) Config() *Config {
	return w.cfg
}

func (w *Wizard) updateDataset(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.datasetScreen.Update(msg)
	if ds, ok := model.(*screens.DatasetScreen); ok {
		w.datasetScreen = ds
	}

	if w.datasetScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.datasetScreen.Done() {
		if err := ApplyValues(w.cfg, w.values); err != nil {
			return w.fail(err)
		}
		return w.transitionToSummary()
	}

	return w, cmd
}

// transitionToSummary moves to the summary screen.
func (w *Wizard) transitionToSummary() (tea.Model, tea.Cmd) {
	rows, err := SummaryRows(w.cfg)
	if err != nil {
		return w.fail(err)
	}
	w.phase = PhaseSummary
	w.summaryScreen = screens.NewSummaryScreen(rows, Command(w.cfg))
	return w, w.summaryScreen.Init()
}

// transitionToDataset reopens the form on the current values.
func (w *Wizard) transitionToDataset() (tea.Model, tea.Cmd) {
	w.phase = PhaseDataset
	w.savedTo = ""
	w.datasetScreen = screens.NewDatasetScreen(w.values)
	return w, w.datasetScreen.Init()
}

func (w *Wizard) updateSummary(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.summaryScreen.Update(msg)
	if ss, ok := model.(*screens.SummaryScreen); ok {
		w.summaryScreen = ss
	}

	if w.summaryScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}

	if w.summaryScreen.Done() {
		switch w.summaryScreen.Action() {
		case screens.ActionBack:
			return w.transitionToDataset()
		case screens.ActionGenerate:
			return w.startGeneration()
		case screens.ActionSaveConfig:
			return w.transitionToSaveConfig()
		case screens.ActionCancel:
			w.cancelled = true
			return w, tea.Quit
		}
	}

	return w, cmd
}

// transitionToSaveConfig shows the save config dialog.
func (w *Wizard) transitionToSaveConfig() (tea.Model, tea.Cmd) {
	w.phase = PhaseSaveConfig
	if w.configPath == "" {
		w.configPath = "calciumforge.yaml"
	}

	w.saveConfigForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("config_path").
				Title("Save configuration to").
				Description("Enter the path for the YAML config file").
				Value(&w.configPath).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false)

	return w, w.saveConfigForm.Init()
}

func (w *Wizard) updateSaveConfig(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return w.transitionToSummary()
		case "ctrl+c":
			w.cancelled = true
			return w, tea.Quit
		}
	}

	form, cmd := w.saveConfigForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.saveConfigForm = f
	}

	if w.saveConfigForm.State == huh.StateCompleted {
		if err := SaveToYAML(w.cfg, w.configPath); err != nil {
			return w.fail(err)
		}
		model, cmd := w.transitionToSummary()
		w.savedTo = w.configPath
		return model, cmd
	}

	return w, cmd
}

func (w *Wizard) viewSaveConfig() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render("Save Configuration"),
		"",
		w.saveConfigForm.View(),
		"",
		components.HintStyle.Render("Enter: Save | Esc: Back"),
	)
}

// startGeneration runs the pipeline in a goroutine. Progress, completion
// and errors come back through w.events, read one message at a time.
func (w *Wizard) startGeneration() (tea.Model, tea.Cmd) {
	req, err := ToRequest(w.cfg)
	if err != nil {
		return w.fail(err)
	}

	w.phase = PhaseProgress
	w.progressScreen = screens.NewProgressScreen()
	w.events = make(chan tea.Msg, 64)

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	events := w.events
	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}
	req.Progress = func(stage string, current, total int) {
		send(screens.ProgressMsg{Stage: stage, Current: current, Total: total})
	}

	go func() {
		defer close(events)
		res, err := pipeline.Run(ctx, req)
		if err != nil {
			send(screens.ErrorMsg{Error: err})
			return
		}
		send(completionMsg(res))
	}()

	return w, waitForEvent(events)
}

// completionMsg summarizes a finished run for the completion screen.
func completionMsg(res *pipeline.Result) screens.CompletionMsg {
	msg := screens.CompletionMsg{
		PlotDir:  res.PlotDir,
		Cells:    res.Dataset.Options.Cells,
		Frames:   res.Dataset.Options.Frames,
		Duration: res.Duration,
	}
	for _, o := range res.Outputs {
		line := o.Path
		if o.Files > 1 {
			line = fmt.Sprintf("%s (%d files)", o.Path, o.Files)
		}
		msg.Outputs = append(msg.Outputs, line)
	}
	return msg
}

// waitForEvent reads the next generation event.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (w *Wizard) updateProgress(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case screens.ProgressMsg:
		w.progressScreen.Update(msg)
		return w, waitForEvent(w.events)

	case screens.CompletionMsg:
		w.phase = PhaseComplete
		w.completionScreen = screens.NewCompletionScreen(msg)
		return w, nil

	case screens.ErrorMsg:
		return w.fail(msg.Error)
	}

	model, cmd := w.progressScreen.Update(msg)
	if ps, ok := model.(*screens.ProgressScreen); ok {
		w.progressScreen = ps
	}

	if w.progressScreen.Cancelled() {
		w.cancelled = true
		if w.cancel != nil {
			w.cancel()
		}
		return w, tea.Quit
	}

	return w, cmd
}

func (w *Wizard) updateComplete(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.completionScreen.Update(msg)
	if cs, ok := model.(*screens.CompletionScreen); ok {
		w.completionScreen = cs
	}

	if w.completionScreen.Done() {
		w.finished = true
		return w, tea.Quit
	}

	return w, cmd
}

func (w *Wizard) updateError(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.errorScreen.Update(msg)
	if es, ok := model.(*screens.ErrorScreen); ok {
		w.errorScreen = es
	}

	if w.errorScreen.Done() {
		w.finished = true
		return w, tea.Quit
	}

	return w, cmd
}

// fail switches to the error screen.
func (w *Wizard) fail(err error) (tea.Model, tea.Cmd) {
	w.phase = PhaseError
	w.err = err
	w.errorScreen = screens.NewErrorScreen(err)
	return w, nil
}

// Run starts the interactive wizard. If fromConfig is provided, the form
// starts from that YAML file.
func Run(fromConfig string) error {
	var cfg *Config

	if fromConfig != "" {
		absPath, err := filepath.Abs(fromConfig)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}

		loaded, err := LoadFromYAML(absPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	wizard, err := NewWizard(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(wizard, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	if w, ok := finalModel.(*Wizard); ok {
		if w.cancelled {
			return nil
		}
		if w.err != nil {
			return w.err
		}
	}

	return nil
}
