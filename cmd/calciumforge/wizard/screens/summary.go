package screens

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/calciumforge/cmd/calciumforge/wizard/components"
)

// Summary actions
const (
	ActionGenerate   = "generate"
	ActionSaveConfig = "save_config"
	ActionBack       = "back"
	ActionCancel     = "cancel"
)

var (
	summaryPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("36")).
				Padding(1, 2)

	cliCommandStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)

// SummaryRow is one label/value line of the summary.
type SummaryRow struct {
	Label string
	Value string
}

// SummaryScreen displays the configuration before generation
type SummaryScreen struct {
	form      *huh.Form
	rows      []SummaryRow
	command   string
	action    string
	done      bool
	cancelled bool
}

// NewSummaryScreen creates a summary of rows with the equivalent CLI command
func NewSummaryScreen(rows []SummaryRow, command string) *SummaryScreen {
	s := &SummaryScreen{
		rows:    rows,
		command: command,
		action:  ActionGenerate,
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("action").
				Title("Select an action").
				Options(
					huh.NewOption("Generate dataset", ActionGenerate),
					huh.NewOption("Save configuration to YAML", ActionSaveConfig),
					huh.NewOption("Back to edit", ActionBack),
					huh.NewOption("Cancel and exit", ActionCancel),
				).
				Value(&s.action),
		),
	).WithShowHelp(false)

	return s
}

// Init implements tea.Model
func (s *SummaryScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SummaryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c":
			s.cancelled = true
			return s, tea.Quit
		case "esc":
			s.action = ActionBack
			s.done = true
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model
func (s *SummaryScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render("SUMMARY - Review Configuration"),
		"",
		summaryPanelStyle.Render(s.Table()),
		"",
		components.SubtitleStyle.Render("Equivalent command:"),
		cliCommandStyle.Render(s.command),
		"",
		s.form.View(),
		"",
		components.HintStyle.Render("Enter: Select action | Esc: Back"),
	)
}

// Table renders the rows as aligned label/value lines
func (s *SummaryScreen) Table() string {
	var sb strings.Builder
	for i, row := range s.rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(components.KeyStyle.Render(row.Label + ":"))
		sb.WriteString(components.ValueStyle.Render(row.Value))
	}
	return sb.String()
}

// Done returns true once an action was chosen
func (s *SummaryScreen) Done() bool {
	return s.done
}

// Cancelled returns true if the user cancelled
func (s *SummaryScreen) Cancelled() bool {
	return s.cancelled
}

// Action returns the chosen action
func (s *SummaryScreen) Action() string {
	return s.action
}
