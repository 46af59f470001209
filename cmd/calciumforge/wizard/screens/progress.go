package screens

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/calciumforge/cmd/calciumforge/wizard/components"
)

// ProgressMsg is sent to update the progress screen during generation
type ProgressMsg struct {
	Stage   string // pipeline stage name
	Current int
	Total   int
}

// CompletionMsg is sent when generation completes successfully
type CompletionMsg struct {
	Outputs  []string // written paths, one line each
	PlotDir  string
	Cells    int
	Frames   int
	Duration time.Duration
}

// ErrorMsg is sent when an error occurs during generation
type ErrorMsg struct {
	Error error
}

var (
	progressBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("36"))

	progressBarEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	progressPercentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("36")).
				Bold(true)

	progressStageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))
)

// stageLabels describes the pipeline stages.
var stageLabels = map[string]string{
	"generate": "Synthesizing dataset",
	"dicom":    "Writing DICOM frames",
}

// ProgressScreen displays generation progress
type ProgressScreen struct {
	stage     string
	current   int
	total     int
	startTime time.Time
	cancelled bool
	width     int
}

// NewProgressScreen creates a new progress screen
func NewProgressScreen() *ProgressScreen {
	return &ProgressScreen{startTime: time.Now()}
}

// Init implements tea.Model
func (s *ProgressScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s *ProgressScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
	case ProgressMsg:
		s.stage = msg.Stage
		s.current = msg.Current
		s.total = msg.Total
	}

	return s, nil
}

// Percent returns the completion of the current stage, 0-100
func (s *ProgressScreen) Percent() float64 {
	if s.total <= 0 {
		return 0
	}
	return min(100, float64(s.current)/float64(s.total)*100)
}

// View implements tea.Model
func (s *ProgressScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	barWidth := 40
	if s.width > 60 {
		barWidth = min(s.width/2, 60)
	}

	label, ok := stageLabels[s.stage]
	if !ok {
		label = "Starting"
	}

	var sb strings.Builder
	sb.WriteString(components.TitleStyle.Render("Generating dataset..."))
	sb.WriteString("\n\n")
	sb.WriteString(renderProgressBar(s.Percent(), barWidth))
	sb.WriteString(" ")
	sb.WriteString(progressPercentStyle.Render(fmt.Sprintf("%d%%", int(s.Percent()))))
	sb.WriteString("\n\n")
	sb.WriteString(progressStageStyle.Render(fmt.Sprintf("%s %d/%d", label, s.current, s.total)))
	sb.WriteString("\n")
	sb.WriteString(progressStageStyle.Render(fmt.Sprintf("Elapsed: %.1fs", time.Since(s.startTime).Seconds())))
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render("Press Ctrl+C to cancel"))

	return sb.String()
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(percent float64, width int) string {
	filled := min(int(percent/100*float64(width)), width)
	empty := width - filled

	bar := progressBarStyle.Render("[" + strings.Repeat("█", filled))
	bar += progressBarEmptyStyle.Render(strings.Repeat("░", empty) + "]")
	return bar
}

// Cancelled returns true if the user cancelled
func (s *ProgressScreen) Cancelled() bool {
	return s.cancelled
}

// CompletionScreen displays the completion summary
type CompletionScreen struct {
	msg  CompletionMsg
	done bool
}

// NewCompletionScreen creates a new completion screen
func NewCompletionScreen(msg CompletionMsg) *CompletionScreen {
	return &CompletionScreen{msg: msg}
}

// Init implements tea.Model
func (s *CompletionScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s *CompletionScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc", "enter", "q":
			s.done = true
			return s, tea.Quit
		}
	}
	return s, nil
}

// View implements tea.Model
func (s *CompletionScreen) View() string {
	var sb strings.Builder
	sb.WriteString(components.SuccessStyle.Render("✓ Generation complete!"))
	sb.WriteString("\n\n")

	stats := [][2]string{
		{"Cells", fmt.Sprintf("%d", s.msg.Cells)},
		{"Frames", fmt.Sprintf("%d", s.msg.Frames)},
		{"Duration", fmt.Sprintf("%.1fs", s.msg.Duration.Seconds())},
	}
	for _, out := range s.msg.Outputs {
		stats = append(stats, [2]string{"Output", out})
	}
	if s.msg.PlotDir != "" {
		stats = append(stats, [2]string{"Plots", s.msg.PlotDir})
	}
	for _, stat := range stats {
		sb.WriteString("  ")
		sb.WriteString(components.KeyStyle.Render(stat[0] + ":"))
		sb.WriteString(components.ValueStyle.Render(stat[1]))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(components.HintStyle.Render("Press Enter or q to exit"))
	return sb.String()
}

// Done returns true if the user is finished
func (s *CompletionScreen) Done() bool {
	return s.done
}

// ErrorScreen displays an error that occurred during generation
type ErrorScreen struct {
	err  error
	done bool
}

// NewErrorScreen creates a new error screen
func NewErrorScreen(err error) *ErrorScreen {
	return &ErrorScreen{err: err}
}

// Init implements tea.Model
func (s *ErrorScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s *ErrorScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc", "enter", "q":
			s.done = true
			return s, tea.Quit
		}
	}
	return s, nil
}

// View implements tea.Model
func (s *ErrorScreen) View() string {
	var sb strings.Builder
	sb.WriteString(components.ErrorStyle.Render("✗ Generation failed"))
	sb.WriteString("\n\n  ")
	sb.WriteString(s.err.Error())
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render("Press Enter or q to exit"))
	return sb.String()
}

// Done returns true if the user is finished
func (s *ErrorScreen) Done() bool {
	return s.done
}

// Error returns the error
func (s *ErrorScreen) Error() error {
	return s.err
}
